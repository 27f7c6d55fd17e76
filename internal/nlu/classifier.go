// Package nlu holds the probabilistic half of the pipeline: the intent
// classifier and the per-action field extractor. Both call the completion
// oracle and degrade to "missing" on any malformed output; deterministic
// checking happens downstream in internal/validate.
package nlu

import (
	"context"
	"log"
	"time"

	"github.com/atharvmunot004/kalanaya/internal/oracle"
	"github.com/atharvmunot004/kalanaya/internal/schema"
)

// Classifier maps raw user text to an Intent using a fine-tuned intent
// model behind the oracle.
type Classifier struct {
	oracle oracle.Client
	model  string
}

func NewClassifier(client oracle.Client, model string) *Classifier {
	return &Classifier{oracle: client, model: model}
}

// Classify never fails: oracle misbehavior of any kind yields
// {none, 0} so the orchestrator can ask for clarification instead of
// crashing on model output.
func (c *Classifier) Classify(ctx context.Context, userText string, ref time.Time) schema.Intent {
	none := schema.Intent{Action: schema.ActionNone, Confidence: 0}

	completion, err := c.oracle.Complete(ctx, c.model, renderPrompt(intentPrompt, userText, ref))
	if err != nil {
		log.Printf("[classifier] oracle call failed: %v", err)
		return none
	}

	var decoded struct {
		Action     string   `json:"action"`
		Intent     string   `json:"intent"`
		Confidence *float64 `json:"confidence"`
	}
	if err := oracle.ExtractJSON(completion, &decoded); err != nil {
		log.Printf("[classifier] unparseable completion: %v", err)
		return none
	}

	label := decoded.Action
	if label == "" {
		label = decoded.Intent
	}
	if label == "" || decoded.Confidence == nil {
		log.Printf("[classifier] completion missing action or confidence")
		return none
	}

	action := schema.ParseAction(label)
	if action == schema.ActionNone {
		return none
	}

	confidence := *decoded.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return schema.Intent{Action: action, Confidence: confidence}
}
