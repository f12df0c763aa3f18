// Package systemtest provides an in-memory System for tests.
package systemtest

import (
	"context"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/atomikpanda/localenv/internal/platform"
	"github.com/atomikpanda/localenv/internal/system"
)

// Call is one recorded capability invocation.
type Call struct {
	Method string
	Args   []string
}

func (c Call) String() string {
	return c.Method + "(" + strings.Join(c.Args, ", ") + ")"
}

// File is a file created through the Recorder.
type File struct {
	Content []byte
	Mode    os.FileMode
}

// Recorder is a System that records every call and keeps created files and
// links in memory. The zero value is not usable; call New.
type Recorder struct {
	mu sync.Mutex

	Host platform.OS

	calls    []Call
	files    map[string]File
	links    map[string]string
	existing map[string]bool
	failures map[string]error
	messages []string

	LookPathFunc func(name string) (string, error)
	OutputFunc   func(ctx context.Context, name string, args ...string) ([]byte, error)
	RunFunc      func(ctx context.Context, name string, args ...string) error
}

// New returns a Recorder reporting host as its OS.
func New(host platform.OS) *Recorder {
	return &Recorder{
		Host:     host,
		files:    map[string]File{},
		links:    map[string]string{},
		existing: map[string]bool{},
		failures: map[string]error{},
	}
}

var _ system.System = (*Recorder)(nil)

// Exists marks path as already present on the simulated host, so that a
// symlink created there without replace fails with fs.ErrExist.
func (r *Recorder) Exists(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.existing[path] = true
}

// FailOn makes CreateFile or CreateSymbolicLink targeting path return err.
func (r *Recorder) FailOn(path string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[path] = err
}

func (r *Recorder) record(method string, args ...string) {
	r.calls = append(r.calls, Call{Method: method, Args: args})
}

func (r *Recorder) OS() platform.OS {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("OS")
	return r.Host
}

func (r *Recorder) CreateFile(ctx context.Context, dest string, content io.Reader, perm os.FileMode) error {
	data, err := io.ReadAll(content)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("CreateFile", dest, perm.String())
	if err != nil {
		return err
	}
	if err := r.failures[dest]; err != nil {
		return err
	}
	r.files[dest] = File{Content: data, Mode: perm}
	r.existing[dest] = true
	return nil
}

func (r *Recorder) CreateSymbolicLink(original, link string, replace bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("CreateSymbolicLink", original, link, strconv.FormatBool(replace))
	if err := r.failures[link]; err != nil {
		return err
	}
	if r.existing[link] {
		if !replace {
			return &os.LinkError{Op: "symlink", Old: original, New: link, Err: fs.ErrExist}
		}
		r.record("Remove", link)
		delete(r.files, link)
	}
	r.links[link] = original
	r.existing[link] = true
	return nil
}

func (r *Recorder) Display(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("Display", msg)
	r.messages = append(r.messages, msg)
}

func (r *Recorder) LookPath(name string) (string, error) {
	r.mu.Lock()
	r.record("LookPath", name)
	fn := r.LookPathFunc
	r.mu.Unlock()
	if fn == nil {
		return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
	}
	return fn(name)
}

func (r *Recorder) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	r.mu.Lock()
	r.record("Output", append([]string{name}, args...)...)
	fn := r.OutputFunc
	r.mu.Unlock()
	if fn == nil {
		return nil, nil
	}
	return fn(ctx, name, args...)
}

func (r *Recorder) Run(ctx context.Context, name string, args ...string) error {
	r.mu.Lock()
	r.record("Run", append([]string{name}, args...)...)
	fn := r.RunFunc
	r.mu.Unlock()
	if fn == nil {
		return nil
	}
	return fn(ctx, name, args...)
}

// Calls returns every recorded call in order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// CallsTo returns the recorded calls to method.
func (r *Recorder) CallsTo(method string) []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Call
	for _, c := range r.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// MutatingCalls counts calls that change the host: file and link creation,
// removals and Run.
func (r *Recorder) MutatingCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		switch c.Method {
		case "CreateFile", "CreateSymbolicLink", "Remove", "Run":
			n++
		}
	}
	return n
}

// File returns the file created at path.
func (r *Recorder) File(path string) (File, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[path]
	return f, ok
}

// Link returns the target of the link created at path.
func (r *Recorder) Link(path string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	target, ok := r.links[path]
	return target, ok
}

// Messages returns everything passed to Display.
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}

// Transcript joins every Display message with newlines.
func (r *Recorder) Transcript() string {
	return strings.Join(r.Messages(), "\n")
}
