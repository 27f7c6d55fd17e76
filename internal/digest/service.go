// Package digest pushes a daily agenda summary to the chat channels at
// a configured local time.
package digest

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/atharvmunot004/kalanaya/internal/calendar"
)

type Service struct {
	backend calendar.Backend
	loc     *time.Location
	at      string
	notify  func(text string)
	cron    *cron.Cron
}

// NewService schedules a digest at the "HH:MM" local time in at. notify
// delivers the rendered agenda; the service has no channel knowledge.
func NewService(backend calendar.Backend, loc *time.Location, at string, notify func(string)) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{backend: backend, loc: loc, at: at, notify: notify}
}

func (s *Service) Start() error {
	spec, err := cronSpec(s.at)
	if err != nil {
		return fmt.Errorf("digest schedule: %w", err)
	}

	s.cron = cron.New(cron.WithLocation(s.loc))
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return fmt.Errorf("register digest job: %w", err)
	}
	s.cron.Start()
	log.Printf("[digest] scheduled daily at %s (%s)", s.at, s.loc)
	return nil
}

func (s *Service) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *Service) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := time.Now().In(s.loc)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)

	events, err := s.backend.List(ctx, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		log.Printf("[digest] list failed: %v", err)
		return
	}
	s.notify(FormatAgenda(events, dayStart, s.loc))
}

// cronSpec converts "HH:MM" into a standard five-field cron expression.
func cronSpec(at string) (string, error) {
	parts := strings.SplitN(strings.TrimSpace(at), ":", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("want HH:MM, got %q", at)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("bad hour in %q", at)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("bad minute in %q", at)
	}
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}

// FormatAgenda renders one day's events as the digest message.
func FormatAgenda(events []calendar.Event, day time.Time, loc *time.Location) string {
	header := fmt.Sprintf("Agenda for %s", day.Format("Monday, 02 Jan 2006"))
	if len(events) == 0 {
		return header + "\nNo events today."
	}
	var b strings.Builder
	b.WriteString(header)
	for _, ev := range events {
		if ev.AllDay {
			fmt.Fprintf(&b, "\n  - all day: %s", ev.Title)
			continue
		}
		fmt.Fprintf(&b, "\n  - %s: %s", ev.Start.In(loc).Format("15:04"), ev.Title)
	}
	return b.String()
}
