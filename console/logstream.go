package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// LogSubscription delivers log lines in arrival order until closed.
type LogSubscription interface {
	Lines() <-chan string
	Close() error
}

// LogSubscriber opens log subscriptions.
type LogSubscriber interface {
	OpenLogStream(ctx context.Context) (LogSubscription, error)
}

// LogStream is a subscription to GET /log-stream. It does not reconnect:
// when the server ends the stream, Lines is closed and Err reports why.
type LogStream struct {
	lines  chan string
	body   io.ReadCloser
	cancel context.CancelFunc
	done   chan struct{}

	closeOnce sync.Once
	err       error
}

// OpenLogStream subscribes to the service's log stream.
func (c *Client) OpenLogStream(ctx context.Context) (LogSubscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	req, err := c.buildRequest(ctx, http.MethodGet, "/log-stream", nil)
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("log stream: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		cancel()
		return nil, checkStatus(resp, body)
	}

	s := &LogStream{
		lines:  make(chan string, 64),
		body:   resp.Body,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go s.read(ctx)
	return s, nil
}

func (s *LogStream) read(ctx context.Context) {
	defer close(s.done)
	defer close(s.lines)

	err := ParseEvents(s.body, func(data string) bool {
		select {
		case s.lines <- data:
			return true
		case <-ctx.Done():
			return false
		}
	})
	if err == nil && ctx.Err() == nil {
		err = io.EOF
	}
	if ctx.Err() != nil {
		err = nil
	}
	s.err = err
}

// Lines returns the channel of received lines.
func (s *LogStream) Lines() <-chan string { return s.lines }

// Err reports why the stream ended. It is valid once Lines is closed and
// is nil after Close.
func (s *LogStream) Err() error {
	<-s.done
	return s.err
}

// Close ends the subscription and waits for the reader to stop.
func (s *LogStream) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		s.body.Close()
	})
	<-s.done
	return nil
}

// ParseEvents reads a text/event-stream body and calls emit with the data of
// every "message" event, in order. Multi-line data is joined with "\n",
// comments and other fields are skipped. Parsing stops when emit returns
// false or the body ends.
func ParseEvents(r io.Reader, emit func(data string) bool) error {
	br := bufio.NewReader(r)
	var (
		data      strings.Builder
		hasData   bool
		eventType string
	)

	dispatch := func() bool {
		defer func() {
			data.Reset()
			hasData = false
			eventType = ""
		}()
		if !hasData || (eventType != "" && eventType != "message") {
			return true
		}
		return emit(data.String())
	}

	for {
		line, err := br.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		line = strings.TrimRight(line, "\r\n")

		switch {
		case line == "":
			if !dispatch() {
				return nil
			}
		case strings.HasPrefix(line, ":"):
		default:
			field, value, _ := strings.Cut(line, ":")
			value = strings.TrimPrefix(value, " ")
			switch field {
			case "data":
				if hasData {
					data.WriteByte('\n')
				}
				data.WriteString(value)
				hasData = true
			case "event":
				eventType = value
			}
		}

		if errors.Is(err, io.EOF) {
			return nil
		}
	}
}
