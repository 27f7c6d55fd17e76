package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/atharvmunot004/kalanaya/internal/calendar"
	"github.com/atharvmunot004/kalanaya/internal/router"
	"github.com/atharvmunot004/kalanaya/internal/schema"
)

const eventTimeLayout = "Mon, 02 Jan 2006 15:04"

// Describe renders a processed result as the confirmation text shown to
// the user, in the pipeline's timezone.
func (p *Pipeline) Describe(res *Result) string {
	if res == nil || res.Outcome == nil {
		return "Done."
	}
	o := res.Outcome
	switch o.Action {
	case schema.ActionCreateEvent:
		return fmt.Sprintf("Created %q %s.", o.Event.Title, p.describeSpan(o.Event))
	case schema.ActionUpdateEvent:
		return fmt.Sprintf("Updated %q %s.", o.Event.Title, p.describeSpan(o.Event))
	case schema.ActionDeleteEvent:
		return "Deleted the event."
	case schema.ActionListEvents:
		return p.describeList(o.Events, res.Decision)
	}
	return "Done."
}

func (p *Pipeline) describeSpan(ev *calendar.Event) string {
	if ev.AllDay {
		return fmt.Sprintf("on %s (all day)", ev.Start.In(p.loc).Format("Mon, 02 Jan 2006"))
	}
	return fmt.Sprintf("from %s to %s",
		ev.Start.In(p.loc).Format(eventTimeLayout),
		ev.End.In(p.loc).Format("15:04"))
}

func (p *Pipeline) describeList(events []calendar.Event, decision *schema.RouteDecision) string {
	if len(events) == 0 {
		if decision != nil {
			return fmt.Sprintf("No events between %s and %s.",
				decision.Start.In(p.loc).Format(eventTimeLayout),
				decision.End.In(p.loc).Format(eventTimeLayout))
		}
		return "No events found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d event(s):\n", len(events))
	for _, ev := range events {
		if ev.AllDay {
			fmt.Fprintf(&b, "  - %s (all day): %s\n", ev.Start.In(p.loc).Format("Mon, 02 Jan"), ev.Title)
			continue
		}
		fmt.Fprintf(&b, "  - %s: %s\n", ev.Start.In(p.loc).Format(eventTimeLayout), ev.Title)
	}
	return strings.TrimRight(b.String(), "\n")
}

// DescribeError turns any pipeline error into actionable user-facing
// text: clarification requests for low confidence, the full violation
// list for validation, candidates for ambiguity. Nothing is silently
// dropped.
func (p *Pipeline) DescribeError(err error) string {
	var lowConf *LowConfidenceError
	if errors.As(err, &lowConf) {
		if lowConf.Intent.Action == schema.ActionNone {
			return "Sorry, I couldn't tell what calendar operation you want. Could you rephrase?"
		}
		return fmt.Sprintf("I think you want to %s but I'm not sure enough to act. Could you rephrase?",
			strings.ReplaceAll(string(lowConf.Intent.Action), "_", " "))
	}

	var invalid *ValidationError
	if errors.As(err, &invalid) {
		var b strings.Builder
		b.WriteString("I couldn't complete that:\n")
		for _, fe := range invalid.Errors {
			fmt.Fprintf(&b, "  - %s: %s\n", fe.Field, fe.Reason)
		}
		return strings.TrimRight(b.String(), "\n")
	}

	var noMatch *router.NoMatchError
	if errors.As(err, &noMatch) {
		return fmt.Sprintf("I couldn't find an event matching %q between %s and %s.",
			noMatch.Reference,
			noMatch.WindowStart.In(p.loc).Format("02 Jan"),
			noMatch.WindowEnd.In(p.loc).Format("02 Jan"))
	}

	var ambiguous *router.AmbiguousMatchError
	if errors.As(err, &ambiguous) {
		var b strings.Builder
		fmt.Fprintf(&b, "%q matches more than one event, which did you mean?\n", ambiguous.Reference)
		for _, ev := range ambiguous.Candidates {
			fmt.Fprintf(&b, "  - %s (%s)\n", ev.Title, ev.Start.In(p.loc).Format(eventTimeLayout))
		}
		return strings.TrimRight(b.String(), "\n")
	}

	var backend *calendar.BackendError
	if errors.As(err, &backend) {
		return fmt.Sprintf("The calendar operation failed (%s). Nothing was changed as far as I can tell.", backend.Op)
	}

	return fmt.Sprintf("Something went wrong: %v", err)
}
