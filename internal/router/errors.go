package router

import (
	"fmt"
	"time"

	"github.com/atharvmunot004/kalanaya/internal/calendar"
)

// NoMatchError means an event reference resolved to nothing inside the
// search window.
type NoMatchError struct {
	Reference   string
	WindowStart time.Time
	WindowEnd   time.Time
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no event matching %q between %s and %s",
		e.Reference, e.WindowStart.Format("2006-01-02"), e.WindowEnd.Format("2006-01-02"))
}

// AmbiguousMatchError means more than one event cleared the match
// threshold. The router never picks among them; Candidates is surfaced so
// the user can disambiguate.
type AmbiguousMatchError struct {
	Reference  string
	Candidates []calendar.Event
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("%d events match %q", len(e.Candidates), e.Reference)
}
