package router

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/atharvmunot004/kalanaya/internal/calendar"
	"github.com/atharvmunot004/kalanaya/internal/schema"
)

var ist = time.FixedZone("IST", 5*3600+30*60)
var ref = time.Date(2025, 3, 10, 9, 0, 0, 0, ist)

// fakeBackend serves canned events and records the calls it saw.
type fakeBackend struct {
	events    []calendar.Event
	listErr   error
	listStart time.Time
	listEnd   time.Time

	created *schema.CreateEvent
	patched map[string]schema.EventPatch
	deleted []string
}

func (f *fakeBackend) List(ctx context.Context, start, end time.Time) ([]calendar.Event, error) {
	f.listStart, f.listEnd = start, end
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.events, nil
}

func (f *fakeBackend) Create(ctx context.Context, draft schema.CreateEvent) (*calendar.Event, error) {
	f.created = &draft
	return &calendar.Event{ID: "new-1", Title: draft.Title, Start: draft.Start, End: draft.End, AllDay: draft.AllDay}, nil
}

func (f *fakeBackend) Patch(ctx context.Context, id string, patch schema.EventPatch) (*calendar.Event, error) {
	if f.patched == nil {
		f.patched = make(map[string]schema.EventPatch)
	}
	f.patched[id] = patch
	return &calendar.Event{ID: id, Title: "patched"}, nil
}

func (f *fakeBackend) Delete(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func newTestRouter(backend calendar.Backend) *Router {
	return New(Options{Backend: backend, Timezone: ist})
}

func TestRoute_CreatePassesThrough(t *testing.T) {
	r := newTestRouter(&fakeBackend{})
	create := &schema.CreateEvent{Title: "Team sync", Start: ref, End: ref.Add(time.Hour)}

	decision, err := r.Route(context.Background(), &schema.NormalizedFields{
		Action: schema.ActionCreateEvent,
		Create: create,
	}, ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Action != schema.ActionCreateEvent || decision.Create != create {
		t.Errorf("decision = %+v", decision)
	}
}

func TestRoute_DeleteResolvesSingleMatch(t *testing.T) {
	backend := &fakeBackend{events: []calendar.Event{
		{ID: "ev-1", Title: "Dentist checkup"},
		{ID: "ev-2", Title: "Quarterly review"},
	}}
	r := newTestRouter(backend)

	decision, err := r.Route(context.Background(), &schema.NormalizedFields{
		Action: schema.ActionDeleteEvent,
		Delete: &schema.DeleteEvent{EventReference: "dentist"},
	}, ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.TargetID != "ev-1" {
		t.Errorf("target = %q, want ev-1", decision.TargetID)
	}

	// Search window is the reference day plus/minus the margin.
	wantStart := time.Date(2025, 3, 3, 0, 0, 0, 0, ist)
	wantEnd := time.Date(2025, 3, 18, 0, 0, 0, 0, ist)
	if !backend.listStart.Equal(wantStart) || !backend.listEnd.Equal(wantEnd) {
		t.Errorf("window = [%v, %v), want [%v, %v)", backend.listStart, backend.listEnd, wantStart, wantEnd)
	}
}

func TestRoute_AmbiguousMatch(t *testing.T) {
	backend := &fakeBackend{events: []calendar.Event{
		{ID: "ev-1", Title: "Dentist checkup"},
		{ID: "ev-2", Title: "Dentist appointment"},
	}}
	r := newTestRouter(backend)

	_, err := r.Route(context.Background(), &schema.NormalizedFields{
		Action: schema.ActionDeleteEvent,
		Delete: &schema.DeleteEvent{EventReference: "dentist"},
	}, ref)

	var ambiguous *AmbiguousMatchError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("want AmbiguousMatchError, got %v", err)
	}
	if len(ambiguous.Candidates) != 2 {
		t.Errorf("candidates = %d, want 2", len(ambiguous.Candidates))
	}
	if ambiguous.Reference != "dentist" {
		t.Errorf("reference = %q", ambiguous.Reference)
	}
}

func TestRoute_NoMatch(t *testing.T) {
	backend := &fakeBackend{events: []calendar.Event{
		{ID: "ev-1", Title: "Quarterly review"},
	}}
	r := newTestRouter(backend)

	_, err := r.Route(context.Background(), &schema.NormalizedFields{
		Action: schema.ActionDeleteEvent,
		Delete: &schema.DeleteEvent{EventReference: "dentist"},
	}, ref)

	var noMatch *NoMatchError
	if !errors.As(err, &noMatch) {
		t.Fatalf("want NoMatchError, got %v", err)
	}
	if noMatch.Reference != "dentist" {
		t.Errorf("reference = %q", noMatch.Reference)
	}
}

func TestRoute_UpdateAnchorsWindowOnTimeHint(t *testing.T) {
	backend := &fakeBackend{events: []calendar.Event{
		{ID: "ev-1", Title: "Dentist checkup"},
	}}
	r := newTestRouter(backend)

	hint := time.Date(2025, 4, 2, 15, 0, 0, 0, ist)
	decision, err := r.Route(context.Background(), &schema.NormalizedFields{
		Action: schema.ActionUpdateEvent,
		Update: &schema.UpdateEvent{
			EventReference: "dentist",
			Patch:          schema.EventPatch{Start: &hint},
		},
	}, ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.TargetID != "ev-1" {
		t.Errorf("target = %q", decision.TargetID)
	}
	if decision.Patch == nil || decision.Patch.Start == nil || !decision.Patch.Start.Equal(hint) {
		t.Errorf("patch = %+v", decision.Patch)
	}

	wantStart := time.Date(2025, 3, 26, 0, 0, 0, 0, ist)
	if !backend.listStart.Equal(wantStart) {
		t.Errorf("window start = %v, want %v (anchored on the hint)", backend.listStart, wantStart)
	}
}

func TestRoute_ListDefaultsToReferenceDay(t *testing.T) {
	r := newTestRouter(&fakeBackend{})

	decision, err := r.Route(context.Background(), &schema.NormalizedFields{
		Action: schema.ActionListEvents,
		List:   &schema.ListWindow{},
	}, ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantStart := time.Date(2025, 3, 10, 0, 0, 0, 0, ist)
	if !decision.Start.Equal(wantStart) || !decision.End.Equal(wantStart.AddDate(0, 0, 1)) {
		t.Errorf("window = [%v, %v)", decision.Start, decision.End)
	}
}

func TestRoute_ListLoneStart(t *testing.T) {
	r := newTestRouter(&fakeBackend{})

	midnight := time.Date(2025, 3, 11, 0, 0, 0, 0, ist)
	decision, _ := r.Route(context.Background(), &schema.NormalizedFields{
		Action: schema.ActionListEvents,
		List:   &schema.ListWindow{Start: &midnight},
	}, ref)
	if !decision.End.Equal(midnight.AddDate(0, 0, 1)) {
		t.Errorf("midnight start should span the full day, end = %v", decision.End)
	}

	afternoon := time.Date(2025, 3, 11, 14, 0, 0, 0, ist)
	decision, _ = r.Route(context.Background(), &schema.NormalizedFields{
		Action: schema.ActionListEvents,
		List:   &schema.ListWindow{Start: &afternoon},
	}, ref)
	if !decision.End.Equal(afternoon.Add(24 * time.Hour)) {
		t.Errorf("timed start should span 24h, end = %v", decision.End)
	}
}

func TestRoute_ListLoneEnd(t *testing.T) {
	r := newTestRouter(&fakeBackend{})

	end := time.Date(2025, 3, 15, 0, 0, 0, 0, ist)
	decision, _ := r.Route(context.Background(), &schema.NormalizedFields{
		Action: schema.ActionListEvents,
		List:   &schema.ListWindow{End: &end},
	}, ref)
	if !decision.Start.Equal(ref) || !decision.End.Equal(end) {
		t.Errorf("window = [%v, %v), want [%v, %v)", decision.Start, decision.End, ref, end)
	}
}

func TestRoute_ListLoneEndInPast(t *testing.T) {
	r := newTestRouter(&fakeBackend{})

	// "what was on before 8am today": end precedes the 09:00 reference.
	end := time.Date(2025, 3, 10, 8, 0, 0, 0, ist)
	decision, err := r.Route(context.Background(), &schema.NormalizedFields{
		Action: schema.ActionListEvents,
		List:   &schema.ListWindow{End: &end},
	}, ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Start.After(decision.End) {
		t.Fatalf("window inverted: [%v, %v)", decision.Start, decision.End)
	}
	wantStart := time.Date(2025, 3, 10, 0, 0, 0, 0, ist)
	if !decision.Start.Equal(wantStart) || !decision.End.Equal(end) {
		t.Errorf("window = [%v, %v), want [%v, %v)", decision.Start, decision.End, wantStart, end)
	}
}

func TestDispatch_Create(t *testing.T) {
	backend := &fakeBackend{}
	r := newTestRouter(backend)

	create := &schema.CreateEvent{Title: "Team sync", Start: ref, End: ref.Add(time.Hour)}
	outcome, err := r.Dispatch(context.Background(), &schema.RouteDecision{
		Action: schema.ActionCreateEvent,
		Create: create,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if backend.created == nil || backend.created.Title != "Team sync" {
		t.Errorf("backend create = %+v", backend.created)
	}
	if outcome.Event == nil || outcome.Event.ID != "new-1" {
		t.Errorf("outcome = %+v", outcome)
	}
}

func TestDispatch_Delete(t *testing.T) {
	backend := &fakeBackend{}
	r := newTestRouter(backend)

	_, err := r.Dispatch(context.Background(), &schema.RouteDecision{
		Action:   schema.ActionDeleteEvent,
		TargetID: "ev-9",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(backend.deleted) != 1 || backend.deleted[0] != "ev-9" {
		t.Errorf("deleted = %v", backend.deleted)
	}
}

func TestDispatch_Update(t *testing.T) {
	backend := &fakeBackend{}
	r := newTestRouter(backend)

	title := "Renamed"
	_, err := r.Dispatch(context.Background(), &schema.RouteDecision{
		Action:   schema.ActionUpdateEvent,
		TargetID: "ev-3",
		Patch:    &schema.EventPatch{Title: &title},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	patch, ok := backend.patched["ev-3"]
	if !ok || patch.Title == nil || *patch.Title != "Renamed" {
		t.Errorf("patched = %+v", backend.patched)
	}
}

func TestRoute_BackendErrorPropagates(t *testing.T) {
	backend := &fakeBackend{listErr: &calendar.BackendError{Op: "list", StatusCode: 503, Err: errors.New("unavailable")}}
	r := newTestRouter(backend)

	_, err := r.Route(context.Background(), &schema.NormalizedFields{
		Action: schema.ActionDeleteEvent,
		Delete: &schema.DeleteEvent{EventReference: "dentist"},
	}, ref)

	var backendErr *calendar.BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("want BackendError, got %v", err)
	}
	if backendErr.StatusCode != 503 {
		t.Errorf("status = %d, want 503", backendErr.StatusCode)
	}
}
