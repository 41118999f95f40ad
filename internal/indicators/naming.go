// Package indicators names the indicators selected for a bot and checks
// their parameters against the catalog definitions.
package indicators

import (
	"strconv"
	"strings"
	"unicode"
)

// DefaultOutput is the output value addressed by the bare indicator name.
const DefaultOutput = "value"

// Selected is an indicator instance attached to a bot draft.
type Selected struct {
	IndicatorID    int            `json:"indicator_id"`
	IndicatorName  string         `json:"indicator_name"`
	SimplifiedName string         `json:"simplified_name"`
	Parameters     map[string]any `json:"parameters"`
	OutputValues   []string       `json:"output_values,omitempty"`
}

// StripSpaces removes every whitespace rune from name.
func StripSpaces(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, name)
}

// SimplifiedName returns the identifier the next instance of displayName
// will be known by in conditions: the name without whitespace followed by
// one more than the number of instances already selected, e.g. RSI1, RSI2,
// MovingAverage1. Uniqueness holds per display name only; two names that
// strip to the same string can collide.
func SimplifiedName(displayName string, selected []Selected) string {
	count := 0
	for _, s := range selected {
		if s.IndicatorName == displayName {
			count++
		}
	}
	return StripSpaces(displayName) + strconv.Itoa(count+1)
}

// Name returns the simplified name, falling back to the positional form
// used for instances stored before names were assigned.
func (s Selected) Name(index int) string {
	if s.SimplifiedName != "" {
		return s.SimplifiedName
	}
	return StripSpaces(s.IndicatorName) + strconv.Itoa(index+1)
}

// Tokens lists the identifiers the instance contributes to conditions:
// NAME for the default output and NAME_output for the others.
func (s Selected) Tokens(index int) []string {
	name := s.Name(index)
	outputs := s.OutputValues
	if len(outputs) == 0 {
		outputs = []string{DefaultOutput}
	}
	tokens := make([]string, 0, len(outputs))
	for _, o := range outputs {
		if o == DefaultOutput {
			tokens = append(tokens, name)
		} else {
			tokens = append(tokens, name+"_"+o)
		}
	}
	return tokens
}

// Tokens flattens the tokens of every selected instance in order.
func Tokens(selected []Selected) []string {
	var out []string
	for i, s := range selected {
		out = append(out, s.Tokens(i)...)
	}
	return out
}
