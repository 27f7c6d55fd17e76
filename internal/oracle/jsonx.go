package oracle

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ExtractJSON pulls the first JSON object out of a raw completion and
// decodes it into dst. Models wrap their answers in prose, code fences
// and trailing commentary; this strips all of that, then lets jsonrepair
// fix quoting and trailing-comma damage before giving up.
//
// Callers treat an error here as "field missing", never as a crash.
func ExtractJSON(raw string, dst any) error {
	text := strings.TrimSpace(raw)
	if text == "" {
		return fmt.Errorf("empty completion")
	}

	text = stripCodeFences(text)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return fmt.Errorf("no JSON object in completion")
	}
	text = text[start : end+1]

	if err := json.Unmarshal([]byte(text), dst); err == nil {
		return nil
	}

	repaired, err := jsonrepair.JSONRepair(text)
	if err != nil {
		return fmt.Errorf("repair completion JSON: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), dst); err != nil {
		return fmt.Errorf("decode completion JSON: %w", err)
	}
	return nil
}

func stripCodeFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	var kept []string
	inside := false
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inside = !inside
			continue
		}
		if inside {
			kept = append(kept, line)
		}
	}
	if len(kept) == 0 {
		return text
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
