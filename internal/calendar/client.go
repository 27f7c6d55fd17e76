// Package calendar is the boundary to the calendar storage backend. The
// Backend interface is what the router programs against; Client is the
// REST implementation speaking the Google Calendar v3 wire shape.
// Credential acquisition is outside this package; the client only attaches
// a bearer token it was given.
package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/atharvmunot004/kalanaya/internal/schema"
)

// Event is a calendar event as the backend reports it.
type Event struct {
	ID          string
	Title       string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	AllDay      bool
	HTMLLink    string
}

// Backend is everything the router needs from calendar storage.
type Backend interface {
	List(ctx context.Context, start, end time.Time) ([]Event, error)
	Create(ctx context.Context, draft schema.CreateEvent) (*Event, error)
	Patch(ctx context.Context, id string, patch schema.EventPatch) (*Event, error)
	Delete(ctx context.Context, id string) error
}

// Client talks to a Google-Calendar-v3-shaped REST API.
type Client struct {
	baseURL    string
	calendarID string
	token      string
	tzName     string
	loc        *time.Location
	httpClient *http.Client
}

type Options struct {
	BaseURL    string
	CalendarID string
	Token      string
	Timezone   *time.Location
	Timeout    time.Duration
}

func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	loc := opts.Timezone
	if loc == nil {
		loc = time.UTC
	}
	calendarID := opts.CalendarID
	if calendarID == "" {
		calendarID = "primary"
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		calendarID: calendarID,
		token:      opts.Token,
		tzName:     loc.String(),
		loc:        loc,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Wire shapes (Google Calendar v3).

type wireTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

type wireEvent struct {
	ID          string    `json:"id,omitempty"`
	Summary     string    `json:"summary,omitempty"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Start       *wireTime `json:"start,omitempty"`
	End         *wireTime `json:"end,omitempty"`
	HTMLLink    string    `json:"htmlLink,omitempty"`
	Status      string    `json:"status,omitempty"`
}

func (c *Client) List(ctx context.Context, start, end time.Time) ([]Event, error) {
	query := url.Values{}
	query.Set("timeMin", schema.FormatRFC3339(start))
	query.Set("timeMax", schema.FormatRFC3339(end))
	query.Set("singleEvents", "true")
	query.Set("orderBy", "startTime")
	query.Set("maxResults", "50")

	var decoded struct {
		Items []wireEvent `json:"items"`
	}
	if err := c.do(ctx, "list", http.MethodGet, c.eventsURL("")+"?"+query.Encode(), nil, &decoded); err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(decoded.Items))
	for _, item := range decoded.Items {
		if item.Status == "cancelled" {
			continue
		}
		events = append(events, c.fromWire(item))
	}
	return events, nil
}

func (c *Client) Create(ctx context.Context, draft schema.CreateEvent) (*Event, error) {
	body := wireEvent{
		Summary:     draft.Title,
		Description: draft.Description,
		Location:    draft.Location,
	}
	if draft.AllDay {
		body.Start = &wireTime{Date: schema.FormatDate(draft.Start)}
		body.End = &wireTime{Date: schema.FormatDate(draft.End)}
	} else {
		body.Start = &wireTime{DateTime: schema.FormatRFC3339(draft.Start), TimeZone: c.tzName}
		body.End = &wireTime{DateTime: schema.FormatRFC3339(draft.End), TimeZone: c.tzName}
	}

	var created wireEvent
	if err := c.do(ctx, "create", http.MethodPost, c.eventsURL(""), &body, &created); err != nil {
		return nil, err
	}
	ev := c.fromWire(created)
	return &ev, nil
}

func (c *Client) Patch(ctx context.Context, id string, patch schema.EventPatch) (*Event, error) {
	body := wireEvent{}
	if patch.Title != nil {
		body.Summary = *patch.Title
	}
	if patch.Description != nil {
		body.Description = *patch.Description
	}
	if patch.Location != nil {
		body.Location = *patch.Location
	}
	if patch.Start != nil {
		body.Start = &wireTime{DateTime: schema.FormatRFC3339(*patch.Start), TimeZone: c.tzName}
	}
	if patch.End != nil {
		body.End = &wireTime{DateTime: schema.FormatRFC3339(*patch.End), TimeZone: c.tzName}
	}

	var updated wireEvent
	if err := c.do(ctx, "patch", http.MethodPatch, c.eventsURL(id), &body, &updated); err != nil {
		return nil, err
	}
	ev := c.fromWire(updated)
	return &ev, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, "delete", http.MethodDelete, c.eventsURL(id), nil, nil)
}

func (c *Client) eventsURL(eventID string) string {
	u := c.baseURL + "/calendars/" + url.PathEscape(c.calendarID) + "/events"
	if eventID != "" {
		u += "/" + url.PathEscape(eventID)
	}
	return u
}

func (c *Client) do(ctx context.Context, op, method, rawURL string, body, out any) error {
	if c.baseURL == "" {
		return &BackendError{Op: op, Err: fmt.Errorf("missing calendar base url")}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &BackendError{Op: op, Err: fmt.Errorf("marshal request: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return &BackendError{Op: op, Err: fmt.Errorf("create request: %w", err)}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &BackendError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &BackendError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &BackendError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("%s", strings.TrimSpace(string(respBody)))}
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &BackendError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) fromWire(w wireEvent) Event {
	ev := Event{
		ID:          w.ID,
		Title:       w.Summary,
		Description: w.Description,
		Location:    w.Location,
		HTMLLink:    w.HTMLLink,
	}
	if w.Start != nil {
		ev.Start, ev.AllDay = c.parseWireTime(*w.Start)
	}
	if w.End != nil {
		ev.End, _ = c.parseWireTime(*w.End)
	}
	return ev
}

func (c *Client) parseWireTime(w wireTime) (time.Time, bool) {
	if w.DateTime != "" {
		t, _, err := schema.ParseDateTime(w.DateTime, c.loc)
		if err == nil {
			return t, false
		}
	}
	if w.Date != "" {
		t, _, err := schema.ParseDateTime(w.Date, c.loc)
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
