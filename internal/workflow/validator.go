// internal/workflow/validator.go
package workflow

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Result is the outcome of validating one stage. Errors are ordered by the
// position of the offending field in the stage definition so display is
// stable across runs.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

const shareTolerance = 0.01

var emailRx = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Validate checks one stage's collected data against the stage schema for
// the given entity type. It is a pure function; a validation failure is a
// normal Result, not an error. The error return is non-nil only for the
// fatal case of a stage with no registered definition.
func Validate(stageID StageID, data StageData, entityType EntityType) (Result, error) {
	def, ok := stageDefs[stageID]
	if !ok {
		return Result{}, consistencyErr("Validate", "no definition for stage %q", stageID)
	}

	var errs []string
	for _, f := range def.Fields {
		errs = append(errs, checkField(f, data[f.Name], "")...)
	}

	if def.EntryField != "" {
		errs = append(errs, checkEntries(def, data)...)
	}

	if stageID == StageDirectors {
		if msg := checkShareholdingTotal(data, def.EntryField); msg != "" {
			errs = append(errs, msg)
		}
	}

	return Result{Valid: len(errs) == 0, Errors: errs}, nil
}

func checkField(f FieldDef, value interface{}, prefix string) []string {
	if isBlank(value) {
		if f.Required {
			return []string{prefix + f.Label + " is required"}
		}
		return nil
	}

	switch f.Kind {
	case FieldEmail:
		s, _ := stringValue(value)
		if !emailRx.MatchString(strings.TrimSpace(s)) {
			return []string{prefix + f.Label + " is not a valid email address"}
		}
	case FieldNumber:
		n, ok := numberValue(value)
		if !ok || n < 0 {
			return []string{prefix + f.Label + " must be a non-negative number"}
		}
	}
	return nil
}

func checkEntries(def StageDef, data StageData) []string {
	entries := entryList(data[def.EntryField])
	if len(entries) < def.MinEntries {
		if def.MinEntries == 1 {
			return []string{"at least one " + def.EntryLabel + " is required"}
		}
		return []string{fmt.Sprintf("at least %d %ss are required", def.MinEntries, def.EntryLabel)}
	}

	var errs []string
	for i, entry := range entries {
		prefix := fmt.Sprintf("%s %d: ", def.EntryLabel, i+1)
		for _, f := range def.EntryFields {
			errs = append(errs, checkField(f, entry[f.Name], prefix)...)
		}
	}
	return errs
}

// checkShareholdingTotal enforces the cross-field rule at the directors
// stage: shareholding percentages across every entry must sum to exactly
// 100 within tolerance. Entries with an unparseable percentage are skipped
// here; the per-field check already reported them.
func checkShareholdingTotal(data StageData, entryField string) string {
	entries := entryList(data[entryField])
	if len(entries) == 0 {
		return ""
	}

	var total float64
	parsed := 0
	for _, entry := range entries {
		if n, ok := numberValue(entry["share_percent"]); ok {
			total += n
			parsed++
		}
	}
	if parsed < len(entries) {
		return ""
	}

	if math.Abs(total-100) > shareTolerance {
		return fmt.Sprintf("shareholding across all directors must total 100%%, got %s", formatPercent(total))
	}
	return ""
}

func formatPercent(n float64) string {
	if n == math.Trunc(n) {
		return strconv.FormatFloat(n, 'f', 0, 64)
	}
	return strconv.FormatFloat(n, 'f', 2, 64)
}

func isBlank(value interface{}) bool {
	if value == nil {
		return true
	}
	if s, ok := stringValue(value); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func stringValue(value interface{}) (string, bool) {
	s, ok := value.(string)
	return s, ok
}

func numberValue(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return n, err == nil
	}
	return 0, false
}

func entryList(value interface{}) []StageData {
	switch v := value.(type) {
	case []StageData:
		return v
	case []map[string]interface{}:
		out := make([]StageData, len(v))
		for i, e := range v {
			out[i] = StageData(e)
		}
		return out
	case []interface{}:
		out := make([]StageData, 0, len(v))
		for _, e := range v {
			if m, ok := e.(map[string]interface{}); ok {
				out = append(out, StageData(m))
			}
		}
		return out
	}
	return nil
}
