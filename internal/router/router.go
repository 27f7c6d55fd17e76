// Package router resolves validated fields into concrete backend calls.
// It is the only stage that reads live calendar state: update and delete
// must first turn a free-text event reference into a backend event id,
// and that resolution either finds exactly one event or fails loudly.
package router

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/atharvmunot004/kalanaya/internal/calendar"
	"github.com/atharvmunot004/kalanaya/internal/schema"
)

type Router struct {
	backend        calendar.Backend
	loc            *time.Location
	matchThreshold float64
	marginDays     int
}

type Options struct {
	Backend        calendar.Backend
	Timezone       *time.Location
	MatchThreshold float64 // minimum matchScore for a resolution candidate
	MarginDays     int     // search window half-width around the anchor day
}

func New(opts Options) *Router {
	loc := opts.Timezone
	if loc == nil {
		loc = time.UTC
	}
	threshold := opts.MatchThreshold
	if threshold <= 0 {
		threshold = 0.5
	}
	margin := opts.MarginDays
	if margin <= 0 {
		margin = 7
	}
	return &Router{
		backend:        opts.Backend,
		loc:            loc,
		matchThreshold: threshold,
		marginDays:     margin,
	}
}

// Route turns validated fields into a RouteDecision. ref anchors window
// defaults. Resolution failures come back as *NoMatchError or
// *AmbiguousMatchError; backend I/O failures as *calendar.BackendError.
func (r *Router) Route(ctx context.Context, normalized *schema.NormalizedFields, ref time.Time) (*schema.RouteDecision, error) {
	if normalized == nil {
		return nil, fmt.Errorf("nil normalized fields")
	}

	switch normalized.Action {
	case schema.ActionCreateEvent:
		return &schema.RouteDecision{Action: schema.ActionCreateEvent, Create: normalized.Create}, nil

	case schema.ActionListEvents:
		start, end := r.listWindow(normalized.List, ref)
		return &schema.RouteDecision{Action: schema.ActionListEvents, Start: start, End: end}, nil

	case schema.ActionUpdateEvent:
		target, err := r.resolve(ctx, normalized.Update.EventReference, normalized.Update.Patch.Start, ref)
		if err != nil {
			return nil, err
		}
		patch := normalized.Update.Patch
		return &schema.RouteDecision{Action: schema.ActionUpdateEvent, TargetID: target.ID, Patch: &patch}, nil

	case schema.ActionDeleteEvent:
		target, err := r.resolve(ctx, normalized.Delete.EventReference, nil, ref)
		if err != nil {
			return nil, err
		}
		return &schema.RouteDecision{Action: schema.ActionDeleteEvent, TargetID: target.ID}, nil
	}

	return nil, fmt.Errorf("no route for action %q", normalized.Action)
}

// Outcome is what a dispatched decision produced, for presentation.
type Outcome struct {
	Action schema.Action
	Event  *calendar.Event  // created or patched event
	Events []calendar.Event // list results
}

// Dispatch executes the decision against the backend.
func (r *Router) Dispatch(ctx context.Context, decision *schema.RouteDecision) (*Outcome, error) {
	switch decision.Action {
	case schema.ActionCreateEvent:
		ev, err := r.backend.Create(ctx, *decision.Create)
		if err != nil {
			return nil, err
		}
		log.Printf("[router] created event %s", ev.ID)
		return &Outcome{Action: decision.Action, Event: ev}, nil

	case schema.ActionUpdateEvent:
		ev, err := r.backend.Patch(ctx, decision.TargetID, *decision.Patch)
		if err != nil {
			return nil, err
		}
		log.Printf("[router] patched event %s", ev.ID)
		return &Outcome{Action: decision.Action, Event: ev}, nil

	case schema.ActionDeleteEvent:
		if err := r.backend.Delete(ctx, decision.TargetID); err != nil {
			return nil, err
		}
		log.Printf("[router] deleted event %s", decision.TargetID)
		return &Outcome{Action: decision.Action}, nil

	case schema.ActionListEvents:
		events, err := r.backend.List(ctx, decision.Start, decision.End)
		if err != nil {
			return nil, err
		}
		return &Outcome{Action: decision.Action, Events: events}, nil
	}

	return nil, fmt.Errorf("no dispatch for action %q", decision.Action)
}

// resolve finds the single backend event an event reference denotes.
// The search window is the time hint ± margin when the update gives one,
// otherwise the reference day ± margin.
func (r *Router) resolve(ctx context.Context, reference string, timeHint *time.Time, ref time.Time) (*calendar.Event, error) {
	anchor := ref.In(r.loc)
	if timeHint != nil {
		anchor = timeHint.In(r.loc)
	}
	day := time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, r.loc)
	winStart := day.AddDate(0, 0, -r.marginDays)
	winEnd := day.AddDate(0, 0, r.marginDays+1)

	candidates, err := r.backend.List(ctx, winStart, winEnd)
	if err != nil {
		return nil, err
	}

	var matches []calendar.Event
	for _, ev := range candidates {
		if matchScore(reference, ev.Title) >= r.matchThreshold {
			matches = append(matches, ev)
		}
	}

	switch len(matches) {
	case 0:
		return nil, &NoMatchError{Reference: reference, WindowStart: winStart, WindowEnd: winEnd}
	case 1:
		log.Printf("[router] resolved %q to event %s (%q)", reference, matches[0].ID, matches[0].Title)
		return &matches[0], nil
	default:
		return nil, &AmbiguousMatchError{Reference: reference, Candidates: matches}
	}
}

// listWindow applies the list_events defaults: no bounds means the
// reference day; a lone start at midnight means that full day, otherwise
// 24 hours from start; a lone end starts at the reference instant, or at
// the end's own day when the end already lies in the past.
func (r *Router) listWindow(window *schema.ListWindow, ref time.Time) (time.Time, time.Time) {
	local := ref.In(r.loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, r.loc)

	switch {
	case window == nil || (window.Start == nil && window.End == nil):
		return dayStart, dayStart.AddDate(0, 0, 1)
	case window.Start != nil && window.End == nil:
		start := window.Start.In(r.loc)
		if start.Hour() == 0 && start.Minute() == 0 && start.Second() == 0 {
			return start, start.AddDate(0, 0, 1)
		}
		return start, start.Add(24 * time.Hour)
	case window.Start == nil:
		// An end bound behind the reference instant would invert the
		// window; anchor the start at that day's midnight instead.
		if window.End.Before(ref) {
			end := window.End.In(r.loc)
			return time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, r.loc), *window.End
		}
		return ref, *window.End
	default:
		return *window.Start, *window.End
	}
}
