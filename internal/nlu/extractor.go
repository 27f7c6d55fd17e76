package nlu

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/atharvmunot004/kalanaya/internal/oracle"
	"github.com/atharvmunot004/kalanaya/internal/schema"
)

// DefaultEventDuration is applied when the user gave a start but no end
// for an action that implies a duration.
const DefaultEventDuration = time.Hour

// Extractor turns a confirmed action plus the raw utterance into the
// action's field set. Semantic fields (title, location) and temporal
// fields come from different fine-tuned models, so create_event issues
// two oracle calls and merges, temporal output winning on conflicts.
type Extractor struct {
	oracle      oracle.Client
	entityModel string
	timeModel   string
	loc         *time.Location
}

func NewExtractor(client oracle.Client, entityModel, timeModel string, loc *time.Location) *Extractor {
	if loc == nil {
		loc = time.UTC
	}
	return &Extractor{oracle: client, entityModel: entityModel, timeModel: timeModel, loc: loc}
}

// Extract dispatches to the per-action routine. Fields the oracle failed
// to produce come back as nil pointers, never as an error: validation
// decides what missing means.
func (e *Extractor) Extract(ctx context.Context, action schema.Action, userText string, ref time.Time) (schema.Fields, error) {
	switch action {
	case schema.ActionCreateEvent:
		return e.extractCreate(ctx, userText, ref), nil
	case schema.ActionUpdateEvent:
		return e.extractUpdate(ctx, userText, ref), nil
	case schema.ActionDeleteEvent:
		return e.extractDelete(ctx, userText, ref), nil
	case schema.ActionListEvents:
		return e.extractList(ctx, userText, ref), nil
	}
	return schema.Fields{}, fmt.Errorf("no extraction routine for action %q", action)
}

// rawEventFields is the union of keys either model may emit for a single
// event; merging by field name happens on this shape.
type rawEventFields struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Location    *string `json:"location"`
	StartTime   *string `json:"start_time"`
	EndTime     *string `json:"end_time"`
	AllDay      *bool   `json:"all_day"`
}

func (e *Extractor) extractCreate(ctx context.Context, userText string, ref time.Time) schema.Fields {
	var merged rawEventFields

	if out, err := e.call(ctx, e.entityModel, createSemanticPrompt, userText, ref); err != nil {
		log.Printf("[extractor] semantic extraction failed: %v", err)
	} else {
		merged = *out
	}

	if out, err := e.call(ctx, e.timeModel, createTimePrompt, userText, ref); err != nil {
		log.Printf("[extractor] time extraction failed: %v", err)
	} else {
		// Temporal call wins for temporal fields.
		if out.StartTime != nil {
			merged.StartTime = out.StartTime
		}
		if out.EndTime != nil {
			merged.EndTime = out.EndTime
		}
		if out.AllDay != nil {
			merged.AllDay = out.AllDay
		}
	}

	create := &schema.CreateFields{
		Title:       cleanString(merged.Title),
		Description: cleanString(merged.Description),
		Location:    cleanString(merged.Location),
		StartTime:   cleanString(merged.StartTime),
		EndTime:     cleanString(merged.EndTime),
		AllDay:      merged.AllDay,
	}

	e.applyDefaultDuration(create)

	return schema.Fields{Action: schema.ActionCreateEvent, Create: create}
}

// applyDefaultDuration fills the end time when only a start was given and
// the event is not all-day, so validation sees a complete record.
func (e *Extractor) applyDefaultDuration(f *schema.CreateFields) {
	if f.StartTime == nil || f.EndTime != nil {
		return
	}
	if f.AllDay != nil && *f.AllDay {
		return
	}
	start, dateOnly, err := schema.ParseDateTime(*f.StartTime, e.loc)
	if err != nil || dateOnly {
		return
	}
	end := schema.FormatRFC3339(start.Add(DefaultEventDuration))
	f.EndTime = &end
}

func (e *Extractor) extractUpdate(ctx context.Context, userText string, ref time.Time) schema.Fields {
	update := &schema.UpdateFields{}

	completion, err := e.oracle.Complete(ctx, e.entityModel, renderPrompt(updatePrompt, userText, ref))
	if err != nil {
		log.Printf("[extractor] update extraction failed: %v", err)
		return schema.Fields{Action: schema.ActionUpdateEvent, Update: update}
	}

	var decoded struct {
		EventReference  *string        `json:"event_reference"`
		EventIdentifier *string        `json:"event_identifier"`
		UpdatedFields   map[string]any `json:"updated_fields"`
	}
	if err := oracle.ExtractJSON(completion, &decoded); err != nil {
		log.Printf("[extractor] unparseable update completion: %v", err)
		return schema.Fields{Action: schema.ActionUpdateEvent, Update: update}
	}

	update.EventReference = cleanString(decoded.EventReference)
	if update.EventReference == nil {
		// Older adapters emit event_identifier.
		update.EventReference = cleanString(decoded.EventIdentifier)
	}
	if len(decoded.UpdatedFields) > 0 {
		update.UpdatedFields = make(map[string]string, len(decoded.UpdatedFields))
		for key, value := range decoded.UpdatedFields {
			s, ok := value.(string)
			if !ok || strings.TrimSpace(s) == "" {
				continue
			}
			update.UpdatedFields[key] = strings.TrimSpace(s)
		}
	}

	return schema.Fields{Action: schema.ActionUpdateEvent, Update: update}
}

func (e *Extractor) extractDelete(ctx context.Context, userText string, ref time.Time) schema.Fields {
	del := &schema.DeleteFields{}

	completion, err := e.oracle.Complete(ctx, e.entityModel, renderPrompt(deletePrompt, userText, ref))
	if err != nil {
		log.Printf("[extractor] delete extraction failed: %v", err)
		return schema.Fields{Action: schema.ActionDeleteEvent, Delete: del}
	}

	var decoded struct {
		EventReference  *string `json:"event_reference"`
		EventIdentifier *string `json:"event_identifier"`
	}
	if err := oracle.ExtractJSON(completion, &decoded); err != nil {
		log.Printf("[extractor] unparseable delete completion: %v", err)
		return schema.Fields{Action: schema.ActionDeleteEvent, Delete: del}
	}

	del.EventReference = cleanString(decoded.EventReference)
	if del.EventReference == nil {
		del.EventReference = cleanString(decoded.EventIdentifier)
	}
	return schema.Fields{Action: schema.ActionDeleteEvent, Delete: del}
}

func (e *Extractor) extractList(ctx context.Context, userText string, ref time.Time) schema.Fields {
	list := &schema.ListFields{}

	out, err := e.call(ctx, e.timeModel, listPrompt, userText, ref)
	if err != nil {
		log.Printf("[extractor] list extraction failed: %v", err)
		return schema.Fields{Action: schema.ActionListEvents, List: list}
	}
	list.StartTime = cleanString(out.StartTime)
	list.EndTime = cleanString(out.EndTime)
	return schema.Fields{Action: schema.ActionListEvents, List: list}
}

func (e *Extractor) call(ctx context.Context, model, template, userText string, ref time.Time) (*rawEventFields, error) {
	completion, err := e.oracle.Complete(ctx, model, renderPrompt(template, userText, ref))
	if err != nil {
		return nil, err
	}
	var out rawEventFields
	if err := oracle.ExtractJSON(completion, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// cleanString trims and collapses empty strings to nil so "provided
// empty" never masquerades as a real value.
func cleanString(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
