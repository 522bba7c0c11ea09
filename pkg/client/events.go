package client

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/smallbots/rover/pkg/events"
)

// reconnectDelay is how long SubscribeEvents waits before re-dialing a
// dropped SSE stream.
const reconnectDelay = 2 * time.Second

// SubscribeEvents streams daemon events over SSE. The returned channel stays
// open across connection drops (the stream is re-dialed) and closes when ctx
// is canceled.
func (c *Client) SubscribeEvents(ctx context.Context) chan events.Event {
	ch := make(chan events.Event, 16)

	go func() {
		defer close(ch)
		for {
			if err := c.streamEventsOnce(ctx, ch); err != nil {
				logrus.WithError(err).Debug("event stream ended")
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(reconnectDelay):
			}
		}
	}()

	return ch
}

func (c *Client) streamEventsOnce(ctx context.Context, ch chan<- events.Event) error {
	req, err := http.NewRequestWithContext(ctx, "GET", "http://unix/events", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logrus.Errorf("failed to close event stream: %v", err)
		}
	}()

	var name string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if name == "" {
				continue
			}
			ev := events.Event{Name: name}
			// gin SSE-encodes the payload as a JSON string holding the
			// raw message bytes.
			var inner string
			if err := json.Unmarshal([]byte(data), &inner); err == nil {
				ev.Data = json.RawMessage(inner)
			} else {
				ev.Data = json.RawMessage(data)
			}
			select {
			case ch <- ev:
			case <-ctx.Done():
				return ctx.Err()
			}
			name = ""
		}
	}
	return scanner.Err()
}
