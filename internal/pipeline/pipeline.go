// Package pipeline sequences the NLU stages: classify, extract,
// validate, route, dispatch. One utterance flows through synchronously
// and its records are discarded afterwards; nothing is carried between
// turns except the freshly computed reference instant.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/atharvmunot004/kalanaya/internal/calendar"
	"github.com/atharvmunot004/kalanaya/internal/config"
	"github.com/atharvmunot004/kalanaya/internal/nlu"
	"github.com/atharvmunot004/kalanaya/internal/oracle"
	"github.com/atharvmunot004/kalanaya/internal/router"
	"github.com/atharvmunot004/kalanaya/internal/schema"
	"github.com/atharvmunot004/kalanaya/internal/validate"
)

// Clock supplies the reference instant that anchors relative expressions.
// Injectable so tests resolve "tomorrow" deterministically.
type Clock interface {
	Now() time.Time
}

type systemClock struct {
	loc *time.Location
}

func (c systemClock) Now() time.Time { return time.Now().In(c.loc) }

// Pipeline owns one conversational flow. Concurrent sessions each need
// their own instance; no state here crosses utterances.
type Pipeline struct {
	classifier *nlu.Classifier
	extractor  *nlu.Extractor
	validator  *validate.Validator
	router     *router.Router
	clock      Clock
	loc        *time.Location
	threshold  float64
}

type Options struct {
	Oracle  oracle.Client
	Backend calendar.Backend
	Config  *config.Config
	Clock   Clock // nil means wall clock in the configured timezone
}

func New(opts Options) (*Pipeline, error) {
	if opts.Oracle == nil {
		return nil, fmt.Errorf("pipeline requires an oracle client")
	}
	if opts.Backend == nil {
		return nil, fmt.Errorf("pipeline requires a calendar backend")
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	loc := loadLocation(cfg.Pipeline.Timezone)
	clock := opts.Clock
	if clock == nil {
		clock = systemClock{loc: loc}
	}

	return &Pipeline{
		classifier: nlu.NewClassifier(opts.Oracle, cfg.Oracle.IntentModel),
		extractor:  nlu.NewExtractor(opts.Oracle, cfg.Oracle.EntityModel, cfg.Oracle.TimeModel, loc),
		validator:  validate.New(loc, cfg.Pipeline.AllowPastCreate),
		router: router.New(router.Options{
			Backend:        opts.Backend,
			Timezone:       loc,
			MatchThreshold: cfg.Pipeline.MatchThreshold,
			MarginDays:     cfg.Pipeline.SearchMarginDays,
		}),
		clock:     clock,
		loc:       loc,
		threshold: cfg.Pipeline.ConfidenceThreshold,
	}, nil
}

// Location is the timezone used for anchoring and presentation.
func (p *Pipeline) Location() *time.Location { return p.loc }

// Result is the outcome of one fully processed utterance.
type Result struct {
	Intent   schema.Intent
	Decision *schema.RouteDecision
	Outcome  *router.Outcome
}

// Process runs one utterance through every stage. Errors are always one
// of the typed kinds: *LowConfidenceError, *ValidationError,
// *router.NoMatchError, *router.AmbiguousMatchError,
// *calendar.BackendError.
func (p *Pipeline) Process(ctx context.Context, userText string) (*Result, error) {
	ref := p.clock.Now().In(p.loc)

	intent := p.classifier.Classify(ctx, userText, ref)
	log.Printf("[pipeline] intent=%s confidence=%.2f", intent.Action, intent.Confidence)

	if intent.Action == schema.ActionNone || intent.Confidence < p.threshold {
		return nil, &LowConfidenceError{Intent: intent, Threshold: p.threshold}
	}

	fields, err := p.extractor.Extract(ctx, intent.Action, userText, ref)
	if err != nil {
		return nil, err
	}

	verdict := p.validator.Validate(fields, ref)
	if !verdict.Valid {
		log.Printf("[pipeline] validation failed with %d errors", len(verdict.Errors))
		return nil, &ValidationError{Action: intent.Action, Errors: verdict.Errors}
	}

	decision, err := p.router.Route(ctx, verdict.Normalized, ref)
	if err != nil {
		return nil, err
	}

	outcome, err := p.router.Dispatch(ctx, decision)
	if err != nil {
		return nil, err
	}

	return &Result{Intent: intent, Decision: decision, Outcome: outcome}, nil
}

// loadLocation resolves an IANA zone name, falling back to a fixed
// +05:30 zone for the default timezone when the zone database is not
// available on the host.
func loadLocation(name string) *time.Location {
	if name == "" {
		name = config.DefaultTimezone
	}
	if loc, err := time.LoadLocation(name); err == nil {
		return loc
	}
	if name == config.DefaultTimezone {
		return time.FixedZone("IST", 5*3600+30*60)
	}
	log.Printf("[pipeline] unknown timezone %q, using UTC", name)
	return time.UTC
}
