package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/atharvmunot004/kalanaya/internal/calendar"
	"github.com/atharvmunot004/kalanaya/internal/config"
	"github.com/atharvmunot004/kalanaya/internal/router"
	"github.com/atharvmunot004/kalanaya/internal/schema"
)

var ist = time.FixedZone("IST", 5*3600+30*60)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type fakeOracle struct {
	responses map[string]string
}

func (f *fakeOracle) Complete(ctx context.Context, model, prompt string) (string, error) {
	resp, ok := f.responses[model]
	if !ok {
		return "", fmt.Errorf("no canned response for model %q", model)
	}
	return resp, nil
}

type fakeBackend struct {
	events  []calendar.Event
	created *schema.CreateEvent
	deleted []string
}

func (f *fakeBackend) List(ctx context.Context, start, end time.Time) ([]calendar.Event, error) {
	return f.events, nil
}

func (f *fakeBackend) Create(ctx context.Context, draft schema.CreateEvent) (*calendar.Event, error) {
	f.created = &draft
	return &calendar.Event{ID: "new-1", Title: draft.Title, Start: draft.Start, End: draft.End, AllDay: draft.AllDay}, nil
}

func (f *fakeBackend) Patch(ctx context.Context, id string, patch schema.EventPatch) (*calendar.Event, error) {
	return &calendar.Event{ID: id}, nil
}

func (f *fakeBackend) Delete(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Oracle.IntentModel = "intent"
	cfg.Oracle.EntityModel = "entity"
	cfg.Oracle.TimeModel = "time"
	return cfg
}

func newTestPipeline(t *testing.T, oracleResponses map[string]string, backend calendar.Backend) *Pipeline {
	t.Helper()
	ref := time.Date(2025, 3, 10, 9, 0, 0, 0, ist)
	pipe, err := New(Options{
		Oracle:  &fakeOracle{responses: oracleResponses},
		Backend: backend,
		Config:  testConfig(),
		Clock:   fixedClock{now: ref},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return pipe
}

func TestProcess_CreateEndToEnd(t *testing.T) {
	backend := &fakeBackend{}
	pipe := newTestPipeline(t, map[string]string{
		"intent": `{"action":"create_event","confidence":0.92}`,
		"entity": `{"title":"Meeting","description":null,"location":null}`,
		"time":   `{"start_time":"2025-03-11T14:00:00+05:30","end_time":null,"all_day":false}`,
	}, backend)

	res, err := pipe.Process(context.Background(), "Schedule a meeting tomorrow at 2pm")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Intent.Action != schema.ActionCreateEvent {
		t.Errorf("intent = %+v", res.Intent)
	}
	if backend.created == nil {
		t.Fatal("backend create not called")
	}
	wantStart := time.Date(2025, 3, 11, 14, 0, 0, 0, ist)
	if !backend.created.Start.Equal(wantStart) {
		t.Errorf("start = %v, want %v", backend.created.Start, wantStart)
	}
	// No end stated, so the default one-hour duration applies.
	if !backend.created.End.Equal(wantStart.Add(time.Hour)) {
		t.Errorf("end = %v, want %v", backend.created.End, wantStart.Add(time.Hour))
	}
	if res.Outcome.Event == nil || res.Outcome.Event.ID != "new-1" {
		t.Errorf("outcome = %+v", res.Outcome)
	}
}

func TestProcess_LowConfidence(t *testing.T) {
	pipe := newTestPipeline(t, map[string]string{
		"intent": `{"action":"create_event","confidence":0.5}`,
	}, &fakeBackend{})

	_, err := pipe.Process(context.Background(), "maybe do something")

	var lowConf *LowConfidenceError
	if !errors.As(err, &lowConf) {
		t.Fatalf("want LowConfidenceError, got %v", err)
	}
	if lowConf.Intent.Action != schema.ActionCreateEvent {
		t.Errorf("intent = %+v", lowConf.Intent)
	}
	if lowConf.Threshold != config.DefaultConfidenceMin {
		t.Errorf("threshold = %v", lowConf.Threshold)
	}
}

func TestProcess_NoneIntent(t *testing.T) {
	pipe := newTestPipeline(t, map[string]string{
		"intent": `{"action":"none","confidence":0.99}`,
	}, &fakeBackend{})

	_, err := pipe.Process(context.Background(), "what's the weather like")

	var lowConf *LowConfidenceError
	if !errors.As(err, &lowConf) {
		t.Fatalf("want LowConfidenceError, got %v", err)
	}
}

func TestProcess_ValidationError(t *testing.T) {
	pipe := newTestPipeline(t, map[string]string{
		"intent": `{"action":"create_event","confidence":0.9}`,
		"entity": `{"title":null}`,
		"time":   `{"start_time":null,"end_time":null,"all_day":null}`,
	}, &fakeBackend{})

	_, err := pipe.Process(context.Background(), "create an event")

	var invalid *ValidationError
	if !errors.As(err, &invalid) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	fields := make(map[string]bool)
	for _, fe := range invalid.Errors {
		fields[fe.Field] = true
	}
	if !fields["title"] || !fields["start_time"] {
		t.Errorf("errors = %v", invalid.Errors)
	}
}

func TestProcess_DeleteEndToEnd(t *testing.T) {
	backend := &fakeBackend{events: []calendar.Event{
		{ID: "ev-1", Title: "Dentist checkup", Start: time.Date(2025, 3, 12, 10, 0, 0, 0, ist)},
	}}
	pipe := newTestPipeline(t, map[string]string{
		"intent": `{"action":"delete_event","confidence":0.9}`,
		"entity": `{"event_reference":"dentist"}`,
	}, backend)

	res, err := pipe.Process(context.Background(), "cancel my dentist appointment")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(backend.deleted) != 1 || backend.deleted[0] != "ev-1" {
		t.Errorf("deleted = %v", backend.deleted)
	}
	if res.Outcome.Action != schema.ActionDeleteEvent {
		t.Errorf("outcome action = %q", res.Outcome.Action)
	}
}

func TestProcess_AmbiguousDelete(t *testing.T) {
	backend := &fakeBackend{events: []calendar.Event{
		{ID: "ev-1", Title: "Dentist checkup"},
		{ID: "ev-2", Title: "Dentist appointment"},
	}}
	pipe := newTestPipeline(t, map[string]string{
		"intent": `{"action":"delete_event","confidence":0.9}`,
		"entity": `{"event_reference":"dentist"}`,
	}, backend)

	_, err := pipe.Process(context.Background(), "cancel the dentist")

	var ambiguous *router.AmbiguousMatchError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("want AmbiguousMatchError, got %v", err)
	}
	if len(backend.deleted) != 0 {
		t.Error("nothing may be deleted on an ambiguous reference")
	}
}

func TestNew_RequiresDependencies(t *testing.T) {
	if _, err := New(Options{Backend: &fakeBackend{}}); err == nil {
		t.Error("expected error without oracle")
	}
	if _, err := New(Options{Oracle: &fakeOracle{}}); err == nil {
		t.Error("expected error without backend")
	}
}

func TestDescribeError_Texts(t *testing.T) {
	pipe := newTestPipeline(t, map[string]string{}, &fakeBackend{})

	low := pipe.DescribeError(&LowConfidenceError{
		Intent:    schema.Intent{Action: schema.ActionNone},
		Threshold: 0.75,
	})
	if !strings.Contains(low, "rephrase") {
		t.Errorf("low confidence text = %q", low)
	}

	invalid := pipe.DescribeError(&ValidationError{
		Action: schema.ActionCreateEvent,
		Errors: []schema.FieldError{{Field: "title", Reason: "required and cannot be empty"}},
	})
	if !strings.Contains(invalid, "title") {
		t.Errorf("validation text should name the field, got %q", invalid)
	}

	ambiguous := pipe.DescribeError(&router.AmbiguousMatchError{
		Reference: "dentist",
		Candidates: []calendar.Event{
			{Title: "Dentist checkup", Start: time.Date(2025, 3, 12, 10, 0, 0, 0, ist)},
			{Title: "Dentist appointment", Start: time.Date(2025, 3, 14, 15, 0, 0, 0, ist)},
		},
	})
	if !strings.Contains(ambiguous, "Dentist checkup") || !strings.Contains(ambiguous, "Dentist appointment") {
		t.Errorf("ambiguity text should list candidates, got %q", ambiguous)
	}
}

func TestDescribe_Create(t *testing.T) {
	backend := &fakeBackend{}
	pipe := newTestPipeline(t, map[string]string{
		"intent": `{"action":"create_event","confidence":0.92}`,
		"entity": `{"title":"Meeting"}`,
		"time":   `{"start_time":"2025-03-11T14:00:00+05:30","end_time":null,"all_day":false}`,
	}, backend)

	res, err := pipe.Process(context.Background(), "Schedule a meeting tomorrow at 2pm")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := pipe.Describe(res)
	if !strings.Contains(text, "Meeting") {
		t.Errorf("confirmation should name the event, got %q", text)
	}
}
