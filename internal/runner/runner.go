// Package runner invokes the external tools the pipeline depends on (go,
// windres, objdump, cygpath, signtool, codesign, butler). Every invocation is
// blocking and takes a context; a nonzero exit becomes a *ToolError.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"
)

// waitDelay bounds how long a cancelled tool's leftover children may hold
// its output pipes open.
const waitDelay = 2 * time.Second

// ErrToolNotFound is returned when a tool is not on the search path.
var ErrToolNotFound = errors.New("tool not found")

// Command is one external tool invocation.
type Command struct {
	Name string
	Args []string
	// Dir is the working directory. Empty means the current directory.
	Dir string
	// Env replaces the process environment when non-nil.
	Env []string
}

// String renders the command line for logs.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Name)
	for _, a := range c.Args {
		if a == "" || strings.ContainsAny(a, " \t\"") {
			a = fmt.Sprintf("%q", a)
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

// Runner is the interface for external tool invocation.
type Runner interface {
	// Run executes cmd with output streamed to the runner's writers.
	Run(ctx context.Context, cmd Command) error
	// Output executes cmd and returns its standard output.
	Output(ctx context.Context, cmd Command) (string, error)
	// LookPath resolves name on the search path.
	LookPath(name string) (string, error)
}

// ToolError reports an external tool that could not run or exited nonzero.
type ToolError struct {
	Tool     string
	Args     []string
	ExitCode int    // -1 when the process never started or was killed
	Stderr   string // redacted tail of standard error
	Err      error
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s failed", e.Tool)
	if e.ExitCode >= 0 {
		msg = fmt.Sprintf("%s exited with status %d", e.Tool, e.ExitCode)
	}
	if e.Stderr != "" {
		return msg + ": " + e.Stderr
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error, preserving the error chain.
func (e *ToolError) Unwrap() error {
	return e.Err
}

// ExecRunner implements Runner with os/exec.
type ExecRunner struct {
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
}

// New creates an ExecRunner. Nil writers discard output; a nil logger
// discards logs.
func New(logger *slog.Logger, stdout, stderr io.Writer) *ExecRunner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	return &ExecRunner{stdout: stdout, stderr: stderr, logger: logger}
}

// Run executes cmd, streaming its output.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) error {
	var errBuf bytes.Buffer
	c := r.command(ctx, cmd)
	c.Stdout = r.stdout
	c.Stderr = io.MultiWriter(r.stderr, &errBuf)

	r.logger.Debug("running", "cmd", cmd.String(), "dir", cmd.Dir)
	if err := c.Run(); err != nil {
		return toolError(ctx, cmd, err, errBuf.String())
	}
	return nil
}

// Output executes cmd and returns standard output. Standard error is
// captured for error reporting only.
func (r *ExecRunner) Output(ctx context.Context, cmd Command) (string, error) {
	var outBuf, errBuf bytes.Buffer
	c := r.command(ctx, cmd)
	c.Stdout = &outBuf
	c.Stderr = &errBuf

	r.logger.Debug("capturing", "cmd", cmd.String(), "dir", cmd.Dir)
	if err := c.Run(); err != nil {
		return outBuf.String(), toolError(ctx, cmd, err, errBuf.String())
	}
	return outBuf.String(), nil
}

// LookPath resolves name on the search path.
func (r *ExecRunner) LookPath(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return path, nil
}

// SearchPath finds name in the PATH entry of env, so tools prepended to a
// build environment win over the process PATH. It returns "" when env has no
// PATH, name carries a directory, or no entry holds an executable.
func SearchPath(env []string, name string) string {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return ""
	}
	for _, kv := range env {
		if !strings.EqualFold(envKey(kv), "PATH") {
			continue
		}
		_, value, _ := strings.Cut(kv, "=")
		for _, dir := range filepath.SplitList(value) {
			if dir == "" {
				continue
			}
			for _, candidate := range []string{name, name + ".exe"} {
				path := filepath.Join(dir, candidate)
				if isExecutable(path) {
					return path
				}
			}
		}
	}
	return ""
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	return runtime.GOOS == "windows" || info.Mode().Perm()&0o111 != 0
}

func (r *ExecRunner) command(ctx context.Context, cmd Command) *exec.Cmd {
	name := cmd.Name
	if path := SearchPath(cmd.Env, name); path != "" {
		name = path
	}
	c := exec.CommandContext(ctx, name, cmd.Args...)
	c.Dir = cmd.Dir
	c.WaitDelay = waitDelay
	if cmd.Env != nil {
		c.Env = cmd.Env
	}
	return c
}

// toolError maps an exec failure to a *ToolError, surfacing context
// cancellation in the chain.
func toolError(ctx context.Context, cmd Command, err error, stderr string) error {
	te := &ToolError{
		Tool:     cmd.Name,
		Args:     cmd.Args,
		ExitCode: -1,
		Stderr:   redactOutput(stderr),
		Err:      err,
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		te.Err = fmt.Errorf("%w (%v)", ctxErr, err)
		return te
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		te.ExitCode = exitErr.ExitCode()
	} else if errors.Is(err, exec.ErrNotFound) {
		te.Err = fmt.Errorf("%w: %s", ErrToolNotFound, cmd.Name)
	}
	return te
}

var (
	homePattern  = regexp.MustCompile(`/home/[^/\s]+`)
	usersPattern = regexp.MustCompile(`/Users/[^/\s]+`)
)

// redactOutput keeps the tail of tool output and hides user home
// directories, since CI logs are public.
func redactOutput(msg string) string {
	msg = strings.TrimSpace(msg)

	const maxLen = 500
	if len(msg) > maxLen {
		msg = "..." + msg[len(msg)-maxLen:]
	}

	if home, err := os.UserHomeDir(); err == nil && home != "" && home != "/" {
		msg = strings.ReplaceAll(msg, home, "$HOME")
	}
	msg = homePattern.ReplaceAllString(msg, "/home/<user>")
	msg = usersPattern.ReplaceAllString(msg, "/Users/<user>")

	return msg
}

// Environ overlays vars (KEY=VALUE) onto base, replacing existing keys.
// Keys compare case-insensitively on Windows hosts.
func Environ(base []string, vars ...string) []string {
	out := make([]string, 0, len(base)+len(vars))
	index := map[string]int{}
	add := func(kv string) {
		key := envKey(kv)
		if i, ok := index[key]; ok {
			out[i] = kv
			return
		}
		index[key] = len(out)
		out = append(out, kv)
	}
	for _, kv := range base {
		add(kv)
	}
	for _, kv := range vars {
		add(kv)
	}
	return out
}
