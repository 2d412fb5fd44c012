package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/algorisys-oss/python-opencv-katas/internal/config"
	"github.com/algorisys-oss/python-opencv-katas/internal/executor"
	"github.com/algorisys-oss/python-opencv-katas/internal/kata"
	"github.com/algorisys-oss/python-opencv-katas/internal/storage"
	"github.com/algorisys-oss/python-opencv-katas/internal/storage/sqlite"
)

// testServer wires a server around an in-memory store and a fake runner
// script so execute requests drive a real subprocess.
func testServer(t *testing.T, runnerBody string) *Server {
	t.Helper()

	store, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	runnerPath := filepath.Join(t.TempDir(), "runner.sh")
	if err := os.WriteFile(runnerPath, []byte("#!/bin/sh\n"+runnerBody+"\n"), 0o755); err != nil {
		t.Fatalf("writing fake runner: %v", err)
	}

	katasDir := t.TempDir()
	kataYAML := "title: Grayscale\ndifficulty: beginner\ndescription: Convert to grayscale.\n"
	if err := os.WriteFile(filepath.Join(katasDir, "grayscale.yaml"), []byte(kataYAML), 0o644); err != nil {
		t.Fatalf("writing kata: %v", err)
	}
	catalog, err := kata.LoadDir(katasDir)
	if err != nil {
		t.Fatalf("loading katas: %v", err)
	}

	sandbox := executor.NewSandbox("/bin/sh", runnerPath, 5*time.Second)
	registry := executor.NewRegistry(500 * time.Millisecond)
	desktop := executor.NewDesktop("/bin/sh", registry)
	t.Cleanup(func() { registry.Stop() })

	return New(&config.Config{}, store, sandbox, desktop, catalog, nil)
}

func multipartBody(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("writing field %s: %v", k, err)
		}
	}
	w.Close()
	return &buf, w.FormDataContentType()
}

func doExecute(t *testing.T, s *Server, fields map[string]string) (*httptest.ResponseRecorder, executeResponse) {
	t.Helper()
	body, contentType := multipartBody(t, fields)
	req := httptest.NewRequest(http.MethodPost, "/api/execute", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var resp executeResponse
	if rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
	}
	return rec, resp
}

func TestExecuteSandboxed(t *testing.T) {
	s := testServer(t, `echo "INFO:done"
echo "IMAGE:abc123"`)

	rec, resp := doExecute(t, s, map[string]string{"code": "print('hi')"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if resp.ImageB64 != "abc123" {
		t.Errorf("image = %q", resp.ImageB64)
	}
	if resp.Logs != "done" {
		t.Errorf("logs = %q", resp.Logs)
	}
	if resp.Error != "" {
		t.Errorf("error = %q", resp.Error)
	}
	if resp.RunID == "" {
		t.Fatal("run_id missing")
	}

	// The run must be recorded
	req := httptest.NewRequest(http.MethodGet, "/api/runs/"+resp.RunID, nil)
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("get run status = %d", rec.Code)
	}
	var run storage.Run
	if err := json.Unmarshal(rec.Body.Bytes(), &run); err != nil {
		t.Fatalf("decoding run: %v", err)
	}
	if run.Mode != storage.ModeSandboxed || run.Status != storage.StatusOK {
		t.Errorf("run = %s/%s, want sandboxed/ok", run.Mode, run.Status)
	}
	if !run.HasImage {
		t.Error("run should record that an image was produced")
	}
}

func TestExecuteWithUpload(t *testing.T) {
	s := testServer(t, `cat cat.png`)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("code", "pass"); err != nil {
		t.Fatal(err)
	}
	fw, err := w.CreateFormFile("image", "cat.png")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte("MEOW"))
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/execute", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp executeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if resp.Logs != "MEOW" {
		t.Errorf("logs = %q, upload should be readable from the working directory", resp.Logs)
	}
}

func TestExecuteMissingCode(t *testing.T) {
	s := testServer(t, `echo "INFO:unused"`)

	rec, _ := doExecute(t, s, map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestExecuteDesktopDispatch(t *testing.T) {
	s := testServer(t, `echo "INFO:unused"`)

	// The capture sniff must win even with local=false.
	rec, resp := doExecute(t, s, map[string]string{
		"code":  "cap = cv2.VideoCapture(0)",
		"local": "false",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(resp.Logs, "desktop") {
		t.Errorf("logs = %q, want the desktop instructions", resp.Logs)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/runs/"+resp.RunID, nil)
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	var run storage.Run
	if err := json.Unmarshal(rec.Body.Bytes(), &run); err != nil {
		t.Fatalf("decoding run: %v", err)
	}
	if run.Mode != storage.ModeDesktop {
		t.Errorf("mode = %q, want desktop", run.Mode)
	}
}

func TestExecuteRecordsTimeout(t *testing.T) {
	s := testServer(t, `sleep 30`)
	s.sandbox.Timeout = 300 * time.Millisecond

	rec, resp := doExecute(t, s, map[string]string{"code": "while True: pass"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !executor.IsTimeout(resp.Error) {
		t.Fatalf("error = %q, want the timeout message", resp.Error)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/runs/"+resp.RunID, nil)
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	var run storage.Run
	if err := json.Unmarshal(rec.Body.Bytes(), &run); err != nil {
		t.Fatalf("decoding run: %v", err)
	}
	if run.Status != storage.StatusTimeout {
		t.Errorf("status = %q, want timeout", run.Status)
	}
}

func TestStopWithNothingRunning(t *testing.T) {
	s := testServer(t, `true`)

	req := httptest.NewRequest(http.MethodPost, "/api/execute/stop", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var res executor.StopResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if res.Stopped {
		t.Error("stopped should be false with nothing running")
	}
}

func TestKataCatalogEndpoints(t *testing.T) {
	s := testServer(t, `true`)

	req := httptest.NewRequest(http.MethodGet, "/api/katas", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var katas []kata.Kata
	if err := json.Unmarshal(rec.Body.Bytes(), &katas); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(katas) != 1 || katas[0].Slug != "grayscale" {
		t.Errorf("katas = %v", katas)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/katas/nope", nil)
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing kata status = %d, want 404", rec.Code)
	}
}

func TestHintUnconfigured(t *testing.T) {
	s := testServer(t, `true`)

	req := httptest.NewRequest(http.MethodPost, "/api/runs/whatever/hint", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestDeleteRun(t *testing.T) {
	s := testServer(t, `true`)

	_, resp := doExecute(t, s, map[string]string{"code": "pass"})
	if resp.RunID == "" {
		t.Fatal("run_id missing")
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/runs/"+resp.RunID, nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/runs/"+resp.RunID, nil)
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", rec.Code)
	}
}
