// Package validate is the deterministic correctness backstop behind the
// probabilistic extraction stages. No I/O, no oracle: given the same
// fields it always returns the same verdict, accumulating every violated
// rule instead of stopping at the first.
package validate

import (
	"fmt"
	"time"

	"github.com/atharvmunot004/kalanaya/internal/schema"
)

// Validator checks extracted fields against per-action rules and, when
// they pass, rewrites them into normalized concrete instants.
type Validator struct {
	loc             *time.Location
	allowPastCreate bool
}

func New(loc *time.Location, allowPastCreate bool) *Validator {
	if loc == nil {
		loc = time.UTC
	}
	return &Validator{loc: loc, allowPastCreate: allowPastCreate}
}

// Validate runs the per-action rule set. ref is the reference instant
// used only for the past-dated-create rule.
func (v *Validator) Validate(fields schema.Fields, ref time.Time) schema.ValidationResult {
	switch fields.Action {
	case schema.ActionCreateEvent:
		return v.validateCreate(fields.Create, ref)
	case schema.ActionUpdateEvent:
		return v.validateUpdate(fields.Update)
	case schema.ActionDeleteEvent:
		return v.validateDelete(fields.Delete)
	case schema.ActionListEvents:
		return v.validateList(fields.List)
	}
	return invalid(schema.FieldError{Field: "action", Reason: fmt.Sprintf("no validation rules for action %q", fields.Action)})
}

func (v *Validator) validateCreate(f *schema.CreateFields, ref time.Time) schema.ValidationResult {
	if f == nil {
		return invalid(schema.FieldError{Field: "action", Reason: "create_event fields missing"})
	}

	var errs []schema.FieldError
	allDay := f.AllDay != nil && *f.AllDay

	if f.Title == nil {
		errs = append(errs, schema.FieldError{Field: "title", Reason: "required and cannot be empty"})
	}

	var start, end time.Time
	var startOK, endOK, startDateOnly, endDateOnly bool

	if f.StartTime == nil {
		errs = append(errs, schema.FieldError{Field: "start_time", Reason: "required"})
	} else {
		start, startDateOnly, startOK = v.parseField("start_time", *f.StartTime, &errs)
	}

	if f.EndTime == nil {
		if !allDay {
			errs = append(errs, schema.FieldError{Field: "end_time", Reason: "required unless the event is all-day"})
		}
	} else {
		end, endDateOnly, endOK = v.parseField("end_time", *f.EndTime, &errs)
	}

	// All-day events carry date-only values; timed events carry a time
	// component. A mismatch means the two extraction calls disagreed.
	if allDay && startOK && !startDateOnly {
		errs = append(errs, schema.FieldError{Field: "all_day", Reason: "all-day event but start_time has a time component"})
	}
	if f.AllDay != nil && !*f.AllDay && startOK && startDateOnly {
		errs = append(errs, schema.FieldError{Field: "all_day", Reason: "timed event but start_time has no time component"})
	}

	// A single-day all-day event may be stated with end equal to start;
	// the stored end is exclusive, so it means the following day.
	if allDay && startOK && endOK && endDateOnly && end.Equal(start) {
		end = end.AddDate(0, 0, 1)
	}

	if startOK && endOK && !end.After(start) {
		errs = append(errs, schema.FieldError{Field: "end_time", Reason: "must be after start_time"})
	}
	if startOK && !v.allowPastCreate {
		if allDay {
			// A date-only start parses to midnight, which is before any
			// intraday reference; the event is past only once its whole
			// day span is over.
			spanEnd := start.AddDate(0, 0, 1)
			if endOK {
				spanEnd = end
			}
			if !spanEnd.After(ref) {
				errs = append(errs, schema.FieldError{Field: "start_time", Reason: "event day is already past"})
			}
		} else if start.Before(ref) {
			errs = append(errs, schema.FieldError{Field: "start_time", Reason: "event starts in the past"})
		}
	}

	if len(errs) > 0 {
		return invalid(errs...)
	}

	if !endOK {
		// End was omitted for an all-day event: exclusive end is the
		// following day.
		end = start.AddDate(0, 0, 1)
	}

	return schema.ValidationResult{
		Valid: true,
		Normalized: &schema.NormalizedFields{
			Action: schema.ActionCreateEvent,
			Create: &schema.CreateEvent{
				Title:       *f.Title,
				Description: deref(f.Description),
				Location:    deref(f.Location),
				Start:       start,
				End:         end,
				AllDay:      allDay,
			},
		},
	}
}

// patchFields are the event fields an update may touch; anything else in
// updated_fields is oracle noise and is dropped.
var patchFields = map[string]bool{
	"title":       true,
	"description": true,
	"location":    true,
	"start_time":  true,
	"end_time":    true,
}

func (v *Validator) validateUpdate(f *schema.UpdateFields) schema.ValidationResult {
	if f == nil {
		return invalid(schema.FieldError{Field: "action", Reason: "update_event fields missing"})
	}

	var errs []schema.FieldError

	if f.EventReference == nil {
		errs = append(errs, schema.FieldError{Field: "event_reference", Reason: "required to identify which event to update"})
	}

	patch := schema.EventPatch{}
	var start, end *time.Time
	for key, value := range f.UpdatedFields {
		if !patchFields[key] {
			continue
		}
		switch key {
		case "title":
			val := value
			patch.Title = &val
		case "description":
			val := value
			patch.Description = &val
		case "location":
			val := value
			patch.Location = &val
		case "start_time":
			if t, _, ok := v.parseField("updated_fields.start_time", value, &errs); ok {
				start = &t
			}
		case "end_time":
			if t, _, ok := v.parseField("updated_fields.end_time", value, &errs); ok {
				end = &t
			}
		}
	}
	patch.Start = start
	patch.End = end

	if start != nil && end != nil && !end.After(*start) {
		errs = append(errs, schema.FieldError{Field: "updated_fields.end_time", Reason: "must be after updated_fields.start_time"})
	}
	if patch.Empty() {
		errs = append(errs, schema.FieldError{Field: "updated_fields", Reason: "at least one field to update is required"})
	}

	if len(errs) > 0 {
		return invalid(errs...)
	}

	return schema.ValidationResult{
		Valid: true,
		Normalized: &schema.NormalizedFields{
			Action: schema.ActionUpdateEvent,
			Update: &schema.UpdateEvent{
				EventReference: *f.EventReference,
				Patch:          patch,
			},
		},
	}
}

func (v *Validator) validateDelete(f *schema.DeleteFields) schema.ValidationResult {
	if f == nil {
		return invalid(schema.FieldError{Field: "action", Reason: "delete_event fields missing"})
	}
	if f.EventReference == nil {
		return invalid(schema.FieldError{Field: "event_reference", Reason: "required to identify which event to delete"})
	}
	return schema.ValidationResult{
		Valid: true,
		Normalized: &schema.NormalizedFields{
			Action: schema.ActionDeleteEvent,
			Delete: &schema.DeleteEvent{EventReference: *f.EventReference},
		},
	}
}

func (v *Validator) validateList(f *schema.ListFields) schema.ValidationResult {
	if f == nil {
		return invalid(schema.FieldError{Field: "action", Reason: "list_events fields missing"})
	}

	var errs []schema.FieldError
	var start, end *time.Time

	if f.StartTime != nil {
		if t, _, ok := v.parseField("start_time", *f.StartTime, &errs); ok {
			start = &t
		}
	}
	if f.EndTime != nil {
		if t, _, ok := v.parseField("end_time", *f.EndTime, &errs); ok {
			end = &t
		}
	}
	if start != nil && end != nil && end.Before(*start) {
		errs = append(errs, schema.FieldError{Field: "end_time", Reason: "must not be before start_time"})
	}

	if len(errs) > 0 {
		return invalid(errs...)
	}

	return schema.ValidationResult{
		Valid: true,
		Normalized: &schema.NormalizedFields{
			Action: schema.ActionListEvents,
			List:   &schema.ListWindow{Start: start, End: end},
		},
	}
}

// parseField appends a field-scoped error on malformed input and reports
// success through ok; a bad datetime never aborts the whole pass.
func (v *Validator) parseField(field, value string, errs *[]schema.FieldError) (t time.Time, dateOnly, ok bool) {
	t, dateOnly, err := schema.ParseDateTime(value, v.loc)
	if err != nil {
		*errs = append(*errs, schema.FieldError{Field: field, Reason: fmt.Sprintf("not a valid ISO 8601 datetime: %q", value)})
		return time.Time{}, false, false
	}
	return t, dateOnly, true
}

func invalid(errs ...schema.FieldError) schema.ValidationResult {
	return schema.ValidationResult{Valid: false, Errors: errs}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
