package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// ExecLauncher runs a bot as a local executable.
type ExecLauncher struct {
	Command []string
	Dir     string
	Env     []string
}

// Launch starts the executable with piped stdin/stdout. The process outlives
// ctx; it is stopped only through Terminate.
func (l ExecLauncher) Launch(ctx context.Context) (Process, error) {
	if len(l.Command) == 0 {
		return nil, errors.New("bot command is empty")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.Command(l.Command[0], l.Command[1:]...)
	cmd.Dir = l.Dir
	if len(l.Env) > 0 {
		cmd.Env = append(os.Environ(), l.Env...)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderr := NewStderrBuffer(maxStderrSize)
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start bot %q: %w", l.Command[0], err)
	}

	return &execProcess{cmd: cmd, stdin: stdin, stdout: stdout, stderr: stderr}, nil
}

type execProcess struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.Reader
	stderr *StderrBuffer

	once    sync.Once
	termErr error
}

func (p *execProcess) Stdin() io.WriteCloser { return p.stdin }
func (p *execProcess) Stdout() io.Reader     { return p.stdout }
func (p *execProcess) Stderr() string        { return p.stderr.String() }

// Terminate closes stdin, sends SIGTERM and kills the process if it has not
// exited after grace. Safe to call more than once.
func (p *execProcess) Terminate(grace time.Duration) error {
	p.once.Do(func() {
		_ = p.stdin.Close()

		done := make(chan error, 1)
		go func() { done <- p.cmd.Wait() }()

		if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
			_ = p.cmd.Process.Kill()
		}

		select {
		case <-done:
		case <-time.After(grace):
			if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
				p.termErr = fmt.Errorf("failed to kill bot: %w", err)
			}
			<-done
		}
	})
	return p.termErr
}
