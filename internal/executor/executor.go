package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// UploadedFile is an asset submitted alongside the kata code.
type UploadedFile struct {
	Name string
	Data []byte
}

// Request describes one code submission.
type Request struct {
	Code  string
	Files []UploadedFile
}

// Result is what every execution path resolves to. Exactly one outcome is
// meaningful per field combination: success carries an image and/or logs with
// an empty error; failure carries an empty image, best-effort logs, and a
// non-empty learner-facing error.
type Result struct {
	ImageB64 string `json:"image_b64"`
	Logs     string `json:"logs"`
	Error    string `json:"error"`
}

// Sandbox runs kata code in an isolated subprocess through the runner script,
// which constrains imports and emits the line-tagged output protocol.
type Sandbox struct {
	Python       string        // interpreter path, e.g. "python3"
	RunnerScript string        // entry-point wrapper invoked with the source path
	Timeout      time.Duration // wall-clock budget for one run
}

// NewSandbox creates a sandboxed executor.
func NewSandbox(python, runnerScript string, timeout time.Duration) *Sandbox {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Sandbox{Python: python, RunnerScript: runnerScript, Timeout: timeout}
}

// Run executes the submitted code and blocks until it exits or the deadline
// passes. It never returns an error: every failure mode resolves into the
// Error field of the result.
func (s *Sandbox) Run(ctx context.Context, req Request) Result {
	dir, err := os.MkdirTemp("", "kata_run_")
	if err != nil {
		return Result{Error: fmt.Sprintf("Execution failed: %v", err)}
	}
	defer os.RemoveAll(dir)

	srcPath, err := materialize(dir, req)
	if err != nil {
		return Result{Error: fmt.Sprintf("Execution failed: %v", err)}
	}

	runCtx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, s.Python, s.RunnerScript, srcPath)
	cmd.Dir = dir
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	if runCtx.Err() == context.DeadlineExceeded {
		return Result{Error: s.timeoutMessage()}
	}
	if err != nil {
		// A non-zero exit is normal: the runner script reports faults on
		// stderr via EXEC_ERROR and the exit code carries no extra signal.
		// ErrWaitDelay means a grandchild still held the pipes; whatever was
		// captured is still worth parsing.
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) && !errors.Is(err, exec.ErrWaitDelay) {
			return Result{Error: fmt.Sprintf("Execution failed: %v", err)}
		}
	}

	return parseOutput(stdout.String(), stderr.String())
}

func (s *Sandbox) timeoutMessage() string {
	return fmt.Sprintf("⏱ Execution timed out after %d seconds. Check for infinite loops.",
		int(s.Timeout.Seconds()))
}

// IsTimeout reports whether a result error is the timeout template rather
// than a fault reported by the submitted code.
func IsTimeout(errMsg string) bool {
	return strings.HasPrefix(errMsg, "⏱ Execution timed out")
}
