package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	appLog "eventcal/internal/log"
	"eventcal/internal/model"
)

// Client talks to the raw event API of a remote eventcal server.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a Client for baseURL, e.g. "http://cal.local:8080".
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type eventsEnvelope struct {
	Events []model.Event `json:"events"`
}

type formsEnvelope struct {
	Events []model.EventForm `json:"events"`
}

// StatusError is a non-2xx response from the remote server.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return "unexpected response " + e.Status
}

// List fetches every event.
func (c *Client) List(ctx context.Context) ([]model.Event, error) {
	var env eventsEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/events", nil, &env); err != nil {
		return nil, err
	}
	if env.Events == nil {
		env.Events = make([]model.Event, 0)
	}
	return env.Events, nil
}

func (c *Client) Create(ctx context.Context, f model.EventForm) (model.Event, error) {
	var ev model.Event
	err := c.do(ctx, http.MethodPost, "/api/events", f, &ev)
	return ev, err
}

// BulkCreate sends all forms in one request.
func (c *Client) BulkCreate(ctx context.Context, forms []model.EventForm) ([]model.Event, error) {
	var env eventsEnvelope
	if err := c.do(ctx, http.MethodPost, "/api/events-list", formsEnvelope{Events: forms}, &env); err != nil {
		return nil, err
	}
	if len(env.Events) != len(forms) {
		return nil, fmt.Errorf("bulk create: server stored %d of %d events", len(env.Events), len(forms))
	}
	return env.Events, nil
}

func (c *Client) Update(ctx context.Context, id string, ev model.Event) (model.Event, error) {
	var out model.Event
	err := c.do(ctx, http.MethodPut, "/api/events/"+id, ev, &out)
	return out, err
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/events/"+id, nil, nil)
}

func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s %s: encode body: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		appLog.Error("remote request failed", err, "method", method, "url", redactURL(c.baseURL))
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return model.ErrEventNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		appLog.Error("remote request non-OK", errors.New(resp.Status),
			"method", method, "path", path, "url", redactURL(c.baseURL), "status", resp.StatusCode)
		return &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	appLog.Debug("remote request ok", "method", method, "path", path, "status", resp.StatusCode)
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

// redactURL keeps only scheme and host of u for logging.
func redactURL(u string) string {
	const redactedSuffix = "/...(redacted)"

	i := strings.Index(u, "://")
	if i == -1 {
		return "remote://...(redacted)"
	}
	rest := u[i+3:]
	if j := strings.IndexByte(rest, '/'); j >= 0 {
		rest = rest[:j]
	}
	return u[:i+3] + rest + redactedSuffix
}
