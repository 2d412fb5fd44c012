package executor

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"

	"github.com/google/uuid"
)

const desktopLaunchMessage = "Running on your desktop — an OpenCV window should appear.\n" +
	"Press 'q' in the OpenCV window to quit."

// Desktop launches kata code directly on the host so it can open real OpenCV
// windows and read the webcam. There is no wrapper script, no output capture
// and no timeout; the process runs until the user quits it or a new launch
// supersedes it.
type Desktop struct {
	Python   string
	registry *Registry
}

// NewDesktop creates a desktop launcher backed by the given registry.
func NewDesktop(python string, registry *Registry) *Desktop {
	return &Desktop{Python: python, registry: registry}
}

// Registry exposes the session registry for stop and subscription callers.
func (d *Desktop) Registry() *Registry {
	return d.registry
}

// NeedsDesktop reports whether submitted code must run on the desktop.
// The literal cv2.VideoCapture match is caller-visible routing behavior
// carried over from the first version of the platform; it misfires on
// commented-out captures and misses aliased imports.
func NeedsDesktop(code string) bool {
	return strings.Contains(code, "cv2.VideoCapture")
}

// Launch materializes the submission into a scratch directory that outlives
// this call, starts the process, and returns immediately. Any previously
// running desktop session is stopped first: at most one may exist.
func (d *Desktop) Launch(req Request) Result {
	d.registry.Stop()

	dir, err := os.MkdirTemp("", "kata_live_")
	if err != nil {
		return Result{Error: fmt.Sprintf("Failed to launch: %v", err)}
	}

	srcPath, err := materialize(dir, req)
	if err != nil {
		os.RemoveAll(dir)
		return Result{Error: fmt.Sprintf("Failed to launch: %v", err)}
	}

	cmd := exec.Command(d.Python, "-u", srcPath)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		os.RemoveAll(dir)
		return Result{Error: fmt.Sprintf("Failed to launch: %v", err)}
	}

	sess := &Session{
		ID:   uuid.New().String(),
		Dir:  dir,
		cmd:  cmd,
		done: make(chan struct{}),
	}
	d.registry.put(sess)
	go d.watch(sess)

	return Result{Logs: desktopLaunchMessage}
}

// watch waits for the session's process to exit, clears the registry slot if
// this session still owns it, and removes the scratch directory. Cleanup
// failures only leave orphaned temp files, so they are logged and swallowed.
func (d *Desktop) watch(sess *Session) {
	sess.cmd.Wait()
	close(sess.done)

	d.registry.clearIf(sess)
	if err := os.RemoveAll(sess.Dir); err != nil {
		log.Printf("desktop cleanup: removing %s: %v", sess.Dir, err)
	}
	d.registry.publish(Event{Type: EventExited, SessionID: sess.ID})
}
