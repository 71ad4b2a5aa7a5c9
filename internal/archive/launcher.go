package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
)

// Launcher runs one archive job to completion. Implementations decide the
// isolation level: a separate process or the current one.
type Launcher interface {
	Launch(ctx context.Context, job Job) (Result, error)
}

// LaunchFunc adapts a function to the Launcher interface.
type LaunchFunc func(ctx context.Context, job Job) (Result, error)

// Launch calls f.
func (f LaunchFunc) Launch(ctx context.Context, job Job) (Result, error) {
	return f(ctx, job)
}

// ExecLauncher runs each job in a child process so a crashed conversion
// takes down one channel, not the whole run. The child is this same binary
// invoked with the worker subcommand; the job travels over stdin and the
// result comes back over stdout.
type ExecLauncher struct {
	// Binary is the executable to spawn. Empty means the current binary.
	Binary string
}

// Launch spawns the worker process for job and decodes its Result.
func (l *ExecLauncher) Launch(ctx context.Context, job Job) (Result, error) {
	bin := l.Binary
	if bin == "" {
		exe, err := os.Executable()
		if err != nil {
			return Result{}, fmt.Errorf("locate worker binary: %w", err)
		}
		bin = exe
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return Result{}, fmt.Errorf("encode job: %w", err)
	}

	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "worker")
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Stdout = &stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return Result{}, fmt.Errorf("worker process for channel %s: %w", job.Channel.ID, err)
	}

	var res Result
	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &res); err != nil {
		return Result{}, fmt.Errorf("decode worker result for channel %s: %w", job.Channel.ID, err)
	}
	return res, nil
}

// InlineLauncher runs jobs in-process. Faster to start and easier to debug,
// at the cost of sharing the process with a headless browser.
type InlineLauncher struct {
	Worker *Worker
}

// Launch runs the job on the embedded worker, converting panics into
// errors so one bad channel cannot abort its siblings.
func (l *InlineLauncher) Launch(ctx context.Context, job Job) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("worker panic: %v", r)
		}
	}()
	return l.Worker.Run(ctx, job), nil
}
