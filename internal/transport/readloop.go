package transport

import (
	"io"
	"strings"
	"time"
)

// readUntilPrompt implements the shared read_until_prompt semantics (spec
// §4.1) over any io.Reader: accumulate chunks until a '>' byte appears or
// timeout elapses, then return the accumulated text, CR normalized to a
// line terminator.
//
// Reads happen on a background goroutine so a backend that doesn't support
// per-call read deadlines (tarm/serial's Port) behaves the same as one that
// does (net.Conn): the goroutine blocks on the real read while this
// function honors the timeout by simply stopping the wait. The goroutine
// is leaked past timeout on a dead connection, which is acceptable here —
// Close() on the owning channel will eventually unblock the pending Read.
func readUntilPrompt(r io.Reader, timeout time.Duration) (string, error) {
	type chunk struct {
		data []byte
		err  error
	}
	chunks := make(chan chunk, 1)
	deadline := time.After(timeout)
	var buf strings.Builder

	readMore := func() {
		b := make([]byte, 4096)
		n, err := r.Read(b)
		chunks <- chunk{data: b[:n], err: err}
	}

	go readMore()
	for {
		select {
		case c := <-chunks:
			if len(c.data) > 0 {
				buf.Write(c.data)
				if strings.ContainsRune(buf.String(), '>') {
					return normalize(buf.String()), nil
				}
			}
			if c.err != nil {
				if buf.Len() > 0 {
					return normalize(buf.String()), nil
				}
				return "", wrapIOErr("read", c.err)
			}
			go readMore()
		case <-deadline:
			if buf.Len() > 0 {
				return normalize(buf.String()), nil
			}
			return "", wrapIOErr("read", errTimeout{})
		}
	}
}

type errTimeout struct{}

func (errTimeout) Error() string { return "timed out waiting for prompt" }

func normalize(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\r")
}
