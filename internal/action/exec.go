package action

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// DefaultTimeout bounds how long a single run or script action may take.
const DefaultTimeout = 30 * time.Second

// ErrTimeout is returned when an action's subprocess exceeds its deadline.
// The subprocess is killed before the error is returned.
var ErrTimeout = errors.New("action timed out")

// ErrNotifierUnavailable is returned by notify actions when no supported
// notifier binary is installed. Callers treat it as a soft failure.
var ErrNotifierUnavailable = errors.New("no notification tool available")

// notifiers is the probe order for desktop notification tools.
var notifiers = []struct {
	bin  string
	args func(msg string) []string
}{
	{"notify-send", func(msg string) []string { return []string{"pkgmux", msg} }},
	{"zenity", func(msg string) []string { return []string{"--notification", "--text", msg} }},
	{"kdialog", func(msg string) []string { return []string{"--passivepopup", msg, "5"} }},
}

// Executor runs extension actions. The lookup and clock hooks exist so
// tests can fake binary resolution and timestamps.
type Executor struct {
	Timeout  time.Duration
	lookPath func(string) (string, error)
	now      func() time.Time
}

// NewExecutor returns an executor with the default timeout.
func NewExecutor() *Executor {
	return &Executor{
		Timeout:  DefaultTimeout,
		lookPath: exec.LookPath,
		now:      time.Now,
	}
}

// Run executes one action. extDir is the owning extension's directory;
// script paths and the plugin.log file resolve against it. vars is
// applied to the payload before execution.
func (e *Executor) Run(ctx context.Context, extDir string, a Action, vars Vars) error {
	payload := vars.Expand(a.Payload)

	switch a.Kind {
	case Run:
		return e.runShell(ctx, payload)
	case Script:
		return e.runScript(ctx, extDir, payload)
	case Notify:
		return e.notify(ctx, payload)
	case Log:
		return e.appendLog(extDir, payload)
	default:
		return fmt.Errorf("unknown action kind %q", string(a.Kind))
	}
}

// runShell executes a command line via sh -c under the action timeout.
func (e *Executor) runShell(ctx context.Context, command string) error {
	runCtx, cancel := context.WithTimeout(ctx, e.timeout())
	defer cancel()

	cmd := exec.CommandContext(runCtx, "sh", "-c", command)
	output, err := cmd.CombinedOutput()
	if runCtx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("run %q: %w", command, ErrTimeout)
	}
	if err != nil {
		return fmt.Errorf("run %q: %w (output: %s)", command, err, string(output))
	}
	return nil
}

// runScript executes a script file. Relative paths resolve against the
// extension directory. The script must exist and is made executable.
func (e *Executor) runScript(ctx context.Context, extDir, script string) error {
	path := script
	if !filepath.IsAbs(path) {
		path = filepath.Join(extDir, path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("script %s: %w", script, err)
	}
	if info.Mode()&0111 == 0 {
		if err := os.Chmod(path, info.Mode()|0755); err != nil {
			return fmt.Errorf("script %s: make executable: %w", script, err)
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, e.timeout())
	defer cancel()

	cmd := exec.CommandContext(runCtx, path)
	cmd.Dir = extDir
	output, err := cmd.CombinedOutput()
	if runCtx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("script %s: %w", script, ErrTimeout)
	}
	if err != nil {
		return fmt.Errorf("script %s: %w (output: %s)", script, err, string(output))
	}
	return nil
}

// notify shows a desktop notification through the first notifier found
// on PATH. When none is installed, ErrNotifierUnavailable is returned so
// the caller can log and continue.
func (e *Executor) notify(ctx context.Context, message string) error {
	for _, n := range notifiers {
		bin, err := e.lookPath(n.bin)
		if err != nil {
			continue
		}

		runCtx, cancel := context.WithTimeout(ctx, e.timeout())
		cmd := exec.CommandContext(runCtx, bin, n.args(message)...)
		err = cmd.Run()
		cancel()
		if err != nil {
			return fmt.Errorf("notify via %s: %w", n.bin, err)
		}
		return nil
	}
	return ErrNotifierUnavailable
}

// appendLog appends a timestamped message to plugin.log in the extension
// directory.
func (e *Executor) appendLog(extDir, message string) error {
	path := filepath.Join(extDir, "plugin.log")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open plugin log: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] %s\n", e.now().Format("2006-01-02 15:04:05"), message)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write plugin log: %w", err)
	}
	return nil
}

func (e *Executor) timeout() time.Duration {
	if e.Timeout > 0 {
		return e.Timeout
	}
	return DefaultTimeout
}
