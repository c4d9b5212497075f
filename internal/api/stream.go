package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// Stream event types sent by the ask endpoint.
const (
	EventStrategy    = "strategy"
	EventAnswer      = "answer"
	EventFinalAnswer = "final_answer"
	EventComplete    = "complete"
	EventError       = "error"
)

const maxLineSize = 1024 * 1024

type SearchPlan struct {
	Term         string `json:"term"`
	Instructions string `json:"instructions"`
}

// StreamEvent is one decoded "data:" frame. Which fields are set depends on
// Type.
type StreamEvent struct {
	Type        string       `json:"type"`
	Reasoning   string       `json:"reasoning,omitempty"`
	Searches    []SearchPlan `json:"searches,omitempty"`
	Content     string       `json:"content,omitempty"`
	FinalAnswer string       `json:"final_answer,omitempty"`
	Message     string       `json:"message,omitempty"`
}

// Terminal reports whether the event ends the stream.
func (e StreamEvent) Terminal() bool {
	return e.Type == EventComplete || e.Type == EventError
}

// StreamHandler receives the events of one stream. OnEvent is called for
// every non-terminal event in arrival order. Exactly one of OnComplete or
// OnError is then called, unless the context was cancelled, in which case
// neither is. Nil callbacks are skipped.
type StreamHandler struct {
	OnEvent    func(StreamEvent)
	OnComplete func()
	OnError    func(error)
}

// Stream POSTs body to endpoint and feeds the event-stream response to h.
// It blocks until the stream ends and returns nil on completion, the error
// passed to OnError on failure, or ctx.Err() after cancellation.
func (c *Client) Stream(ctx context.Context, endpoint string, body any, h StreamHandler) error {
	err := c.stream(ctx, endpoint, body, h)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		if h.OnError != nil {
			h.OnError(err)
		}
		return err
	}
	if h.OnComplete != nil {
		h.OnComplete()
	}
	return nil
}

func (c *Client) stream(ctx context.Context, endpoint string, body any, h StreamHandler) error {
	req, err := c.newRequest(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(resp.Body)
		return newHTTPError(resp, errBody)
	}

	lines := &lineReader{r: bufio.NewReaderSize(resp.Body, 64*1024)}
	for {
		line, oversized, err := lines.next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading stream: %w", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if oversized {
			c.log.Warn("dropping oversized stream frame",
				zap.String("endpoint", endpoint),
				zap.Int("limit", maxLineSize))
			continue
		}
		payload, ok := dataPayload(line)
		if !ok {
			continue
		}

		var ev StreamEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			c.log.Warn("skipping malformed stream frame",
				zap.String("endpoint", endpoint),
				zap.ByteString("frame", truncate(payload, 200)),
				zap.Error(err))
			continue
		}

		switch ev.Type {
		case EventComplete:
			return nil
		case EventError:
			return &StreamError{Message: ev.Message}
		}
		if h.OnEvent != nil {
			h.OnEvent(ev)
		}
	}
}

// lineReader splits a stream into lines. A line longer than maxLineSize is
// read to its end and reported as oversized instead of failing the stream.
type lineReader struct {
	r   *bufio.Reader
	buf []byte
}

// next returns the next line without its newline. The slice is only valid
// until the following call.
func (l *lineReader) next() (line []byte, oversized bool, err error) {
	l.buf = l.buf[:0]
	for {
		chunk, err := l.r.ReadSlice('\n')
		if !oversized {
			if len(l.buf)+len(chunk) > maxLineSize {
				oversized = true
				l.buf = l.buf[:0]
			} else {
				l.buf = append(l.buf, chunk...)
			}
		}
		switch {
		case err == bufio.ErrBufferFull:
			continue
		case err == io.EOF:
			if len(l.buf) == 0 && !oversized {
				return nil, false, io.EOF
			}
			return l.buf, oversized, nil
		case err != nil:
			return nil, false, err
		}
		return bytes.TrimSuffix(l.buf, []byte("\n")), oversized, nil
	}
}

var dataPrefix = []byte("data:")

// dataPayload returns the value of a "data:" line. Other SSE fields,
// comments and blank lines are not data.
func dataPayload(line []byte) ([]byte, bool) {
	line = bytes.TrimRight(line, "\r")
	if !bytes.HasPrefix(line, dataPrefix) {
		return nil, false
	}
	payload := bytes.TrimPrefix(line[len(dataPrefix):], []byte(" "))
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, false
	}
	return payload, true
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
