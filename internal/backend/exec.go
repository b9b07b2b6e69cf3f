package backend

import (
	"context"
	"os/exec"
	"time"
)

// DefaultTimeout bounds a single backend subprocess. Package-manager
// commands can legitimately run for minutes (large installs), so this is
// deliberately generous.
const DefaultTimeout = 300 * time.Second

// Runner executes backend subprocesses. Tests substitute a fake.
type Runner interface {
	Run(ctx context.Context, bin string, args ...string) (output []byte, err error)
	LookPath(bin string) (string, error)
}

// execRunner runs real subprocesses under a deadline and kills them when
// it expires.
type execRunner struct {
	timeout time.Duration
}

// NewRunner returns the default subprocess runner. timeout <= 0 selects
// DefaultTimeout.
func NewRunner(timeout time.Duration) Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &execRunner{timeout: timeout}
}

func (r *execRunner) Run(ctx context.Context, bin string, args ...string) ([]byte, error) {
	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, bin, args...)
	output, err := cmd.CombinedOutput()
	if runCtx.Err() == context.DeadlineExceeded {
		return output, ErrTimeout
	}
	return output, err
}

func (r *execRunner) LookPath(bin string) (string, error) {
	return exec.LookPath(bin)
}
