package port_test

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aelexs/timekeeper/pkg/protocol"
)

// eventReader parses a text/event-stream body into frames on a
// background goroutine so tests can wait with a timeout.
type eventReader struct {
	frames chan *protocol.Frame
	errs   chan error
	done   chan struct{}
}

func newEventReader(t *testing.T, body io.Reader) *eventReader {
	r := &eventReader{
		frames: make(chan *protocol.Frame, 16),
		errs:   make(chan error, 1),
		done:   make(chan struct{}),
	}
	t.Cleanup(func() { close(r.done) })
	go r.read(body)
	return r
}

func (r *eventReader) read(body io.Reader) {
	defer close(r.frames)

	sc := bufio.NewScanner(body)
	var event string
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			var f protocol.Frame
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &f); err != nil {
				r.errs <- err
				return
			}
			if string(f.Type) != event {
				r.errs <- io.ErrUnexpectedEOF
				return
			}
			select {
			case r.frames <- &f:
			case <-r.done:
				return
			}
		}
	}
}

func (r *eventReader) next(t *testing.T) *protocol.Frame {
	t.Helper()
	select {
	case f, ok := <-r.frames:
		require.True(t, ok, "stream ended")
		return f
	case err := <-r.errs:
		require.NoError(t, err)
		return nil
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

// ended waits for the stream to finish without further frames.
func (r *eventReader) ended(t *testing.T) {
	t.Helper()
	select {
	case f, ok := <-r.frames:
		require.False(t, ok, "unexpected frame %v", f)
	case err := <-r.errs:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for stream to end")
	}
}
