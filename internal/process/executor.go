package process

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/logutils"
)

// waitDelay bounds how long Run waits for output pipes after the process is killed.
const waitDelay = 5 * time.Second

const proxyFlag = "--proxy"

// Runner executes an external command and returns its stdout and stderr.
type Runner func(ctx context.Context, binary string, args ...string) (stdout, stderr []byte, err error)

// Run executes binary through the operating system. Cancelling ctx kills the process.
func Run(ctx context.Context, binary string, args ...string) (stdout, stderr []byte, err error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.WaitDelay = waitDelay

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	logutils.Log.WithFields(map[string]any{
		"command": binary,
		"args":    loggableArgs(args),
	}).Debug("Executing command")

	err = cmd.Run()
	return outBuf.Bytes(), errBuf.Bytes(), err
}

// loggableArgs copies args with the credentials of proxy URLs hidden.
func loggableArgs(args []string) []string {
	out := make([]string, len(args))
	for i, arg := range args {
		switch {
		case i > 0 && args[i-1] == proxyFlag:
			out[i] = logutils.RedactURL(arg)
		case strings.HasPrefix(arg, proxyFlag+"="):
			out[i] = proxyFlag + "=" + logutils.RedactURL(strings.TrimPrefix(arg, proxyFlag+"="))
		default:
			out[i] = arg
		}
	}
	return out
}
