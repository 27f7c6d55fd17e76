package nlu

import (
	"strings"
	"time"
)

const intentPrompt = `You are a calendar assistant intent classifier.
Classify the user's request into exactly ONE action:
create_event, update_event, delete_event, list_events, none.

Rules:
1. Pick "none" when the request is not about calendar operations
2. confidence is your certainty in [0.0, 1.0]
3. Do not extract any fields, classify only

Return strict JSON object:
{"action":"create_event","confidence":0.95}

Current date: {{CURRENT_DATE}} ({{CURRENT_DAY_NAME}})

User request:
{{USER_INPUT}}`

const createSemanticPrompt = `Extract the semantic fields for a new calendar event.
Return strict JSON object with null for anything the user did not say:
{"title":"...","description":null,"location":null}

Rules:
1. title is a short noun phrase naming the event
2. Never invent a description or location
3. Do not extract dates or times

User request:
{{USER_INPUT}}`

const createTimePrompt = `Extract the time fields for a new calendar event.
Resolve every relative expression against the anchors below and return
absolute ISO 8601 datetimes with timezone offset.

Anchors:
- today is {{CURRENT_DATE}} ({{CURRENT_DAY_NAME}}), now is {{CURRENT_DATETIME}}
- tomorrow is {{TOMORROW}}
- the day after tomorrow is {{DAY_AFTER_TOMORROW}}
- the current year is {{CURRENT_YEAR}}

Return strict JSON object, null for anything not stated:
{"start_time":"2024-01-15T14:00:00+05:30","end_time":null,"all_day":false}

Rules:
1. All-day events use date-only values like "2024-01-15" and all_day true
2. Never guess an end time the user did not state

User request:
{{USER_INPUT}}`

const updatePrompt = `The user wants to change an existing calendar event.
Extract which event they mean and what should change.

Anchors:
- today is {{CURRENT_DATE}} ({{CURRENT_DAY_NAME}}), now is {{CURRENT_DATETIME}}
- tomorrow is {{TOMORROW}}

Return strict JSON object:
{"event_reference":"dentist appointment","updated_fields":{"start_time":"2024-01-16T15:00:00+05:30"}}

Rules:
1. event_reference is the phrase identifying the existing event, usually a title fragment
2. updated_fields holds only fields the user wants changed: title, description, location, start_time, end_time
3. Resolve relative times against the anchors, ISO 8601 with offset

User request:
{{USER_INPUT}}`

const deletePrompt = `The user wants to remove an existing calendar event.
Extract the phrase that identifies it.

Return strict JSON object:
{"event_reference":"dentist appointment"}

User request:
{{USER_INPUT}}`

const listPrompt = `The user wants to see calendar events.
Extract the time window, if any was stated.

Anchors:
- today is {{CURRENT_DATE}} ({{CURRENT_DAY_NAME}}), now is {{CURRENT_DATETIME}}
- tomorrow is {{TOMORROW}}

Return strict JSON object, null for unstated bounds:
{"start_time":"2024-01-15T00:00:00+05:30","end_time":null}

User request:
{{USER_INPUT}}`

// temporal anchors substituted into prompt templates so the model
// resolves "today"/"tomorrow" against the same reference instant the
// rest of the pipeline uses.
func renderPrompt(template, userInput string, ref time.Time) string {
	r := strings.NewReplacer(
		"{{USER_INPUT}}", userInput,
		"{{CURRENT_DATE}}", ref.Format("2006-01-02"),
		"{{CURRENT_DATETIME}}", ref.Format(time.RFC3339),
		"{{CURRENT_DAY_NAME}}", ref.Weekday().String(),
		"{{CURRENT_YEAR}}", ref.Format("2006"),
		"{{TOMORROW}}", ref.AddDate(0, 0, 1).Format("2006-01-02"),
		"{{DAY_AFTER_TOMORROW}}", ref.AddDate(0, 0, 2).Format("2006-01-02"),
	)
	return r.Replace(template)
}
