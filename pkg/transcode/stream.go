package transcode

import (
	"context"
	"io"
	"os/exec"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"

	"github.com/ondrejsika/audioserve-go/pkg/config"
)

// ReencoderBinary is the external reencoder executable name, overridable in
// tests. §1 "Out of scope: the external reencoder process".
var ReencoderBinary = "ffmpeg"

const stderrTailBytes = 4096

// Stream spawns the reencoder for sourcePath/profile/seekSecs and copies
// its standard output to w incrementally (§4.B "Child process"). It blocks
// until the child exits or ctx is cancelled; cancellation (client
// disconnect) kills and reaps the child (§5 "Cancellation").
func Stream(ctx context.Context, p config.Profile, sourcePath string, seekSecs float64, w io.Writer, log logger.Logger) error {
	args := BuildArgs(p, sourcePath, seekSecs)
	cmd := exec.CommandContext(ctx, ReencoderBinary, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errors.WithStack(err)
	}

	tail := newTailWriter(stderrTailBytes)
	cmd.Stderr = tail

	if err := cmd.Start(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return errors.Wrap(err, "start reencoder")
	}

	_, copyErr := io.Copy(w, stdout)

	waitErr := cmd.Wait()

	if waitErr != nil {
		log.Warn("reencoder exited with error", logger.Data{
			"error":  waitErr.Error(),
			"stderr": tail.String(),
			"source": sourcePath,
		})
		if ctx.Err() != nil {
			// Client disconnected; the body is already truncated, nothing
			// more to report (§5 "Cancellation").
			return nil
		}
		return errors.Wrap(waitErr, "reencoder failed")
	}

	if copyErr != nil {
		return errors.Wrap(copyErr, "stream reencoder output")
	}

	return nil
}

// tailWriter keeps only the last n bytes written to it, for bounded
// standard-error logging (§4.B "log a bounded tail of its standard error").
type tailWriter struct {
	buf []byte
	n   int
}

func newTailWriter(n int) *tailWriter {
	return &tailWriter{n: n}
}

func (t *tailWriter) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if len(t.buf) > t.n {
		t.buf = t.buf[len(t.buf)-t.n:]
	}
	return len(p), nil
}

func (t *tailWriter) String() string {
	return string(t.buf)
}
