package gittransport

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

type commandError struct {
	args []string
	out  string
	err  error
}

func (e *commandError) Error() string {
	return fmt.Sprintf("git %s: %v: %s", strings.Join(e.args, " "), e.err, strings.TrimSpace(e.out))
}

func (e *commandError) Unwrap() error {
	return e.err
}

type runner struct {
	binary  string
	dir     string
	timeout time.Duration
}

func (r runner) run(ctx context.Context, args ...string) (stdout string, err error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	var outBuf, errBuf bytes.Buffer
	cmd := exec.CommandContext(ctx, r.binary, args...)
	cmd.Dir = r.dir
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	// never wait for credentials on a terminal and keep messages parseable
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0", "LC_ALL=C")
	start := time.Now()
	err = cmd.Run()
	log.Debug("git", zap.Strings("args", args), zap.Duration("dur", time.Since(start)), zap.Error(err))
	if err != nil {
		return outBuf.String(), &commandError{
			args: args,
			out:  outBuf.String() + errBuf.String(),
			err:  err,
		}
	}
	return outBuf.String(), nil
}
