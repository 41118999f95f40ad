package indicators

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/DamienReichhart/TradeForge-sub000/pkg/apiclient"
)

// CategoryOrder is the display order of indicator groups.
var CategoryOrder = []string{"Trend", "Momentum", "Volatility", "Volume", "Other"}

var categoryMembers = map[string][]string{
	"Trend":      {"Moving Average", "MACD", "ADX", "Parabolic SAR"},
	"Momentum":   {"RSI", "Stochastic", "CCI", "Williams %R"},
	"Volatility": {"Bollinger Bands", "ATR", "Standard Deviation"},
	"Volume":     {"OBV", "Volume", "MFI"},
}

// CommonSources are offered for a "source" parameter without options.
var CommonSources = []string{"open", "high", "low", "close", "volume", "hl2", "hlc3", "ohlc4"}

// ErrNotInCatalog means a definition has no matching catalog row to attach.
var ErrNotInCatalog = errors.New("Indicator not found in database. Please contact administrator.")

// Category returns the group of a definition name.
func Category(name string) string {
	for _, cat := range CategoryOrder {
		if slices.Contains(categoryMembers[cat], name) {
			return cat
		}
	}
	return "Other"
}

// Categorize groups definitions, keeping their input order inside a group.
// Every category in CategoryOrder is present in the result.
func Categorize(defs []apiclient.Definition) map[string][]apiclient.Definition {
	out := make(map[string][]apiclient.Definition, len(CategoryOrder))
	for _, cat := range CategoryOrder {
		out[cat] = []apiclient.Definition{}
	}
	for _, d := range defs {
		cat := Category(d.Name)
		out[cat] = append(out[cat], d)
	}
	return out
}

// FindDefinition looks a definition up by name.
func FindDefinition(defs []apiclient.Definition, name string) (apiclient.Definition, bool) {
	for _, d := range defs {
		if d.Name == name {
			return d, true
		}
	}
	return apiclient.Definition{}, false
}

// ResolveID finds the catalog row standing for a definition name.
func ResolveID(rows []apiclient.Indicator, name string) (int, error) {
	for _, r := range rows {
		if r.Type == name {
			return r.ID, nil
		}
	}
	return 0, ErrNotInCatalog
}

// SourceOptions returns the allowed values of a string parameter, nil when
// it is free text.
func SourceOptions(p apiclient.Parameter) []string {
	if len(p.Options) > 0 {
		return p.Options
	}
	if strings.EqualFold(p.Name, "source") {
		return CommonSources
	}
	return nil
}

// CheckParameter coerces value to the parameter type and enforces its range
// or option list. The coerced value is returned.
func CheckParameter(p apiclient.Parameter, value any) (any, error) {
	switch p.Type {
	case "integer", "number":
		f, err := toFloat(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.Name, err)
		}
		if p.Type == "integer" {
			if f != math.Trunc(f) {
				return nil, fmt.Errorf("%s: %v is not an integer", p.Name, value)
			}
		}
		if p.MinValue != nil && f < *p.MinValue {
			return nil, fmt.Errorf("%s: %v is below the minimum %v", p.Name, f, *p.MinValue)
		}
		if p.MaxValue != nil && f > *p.MaxValue {
			return nil, fmt.Errorf("%s: %v is above the maximum %v", p.Name, f, *p.MaxValue)
		}
		if p.Type == "integer" {
			return int(f), nil
		}
		return f, nil
	case "boolean":
		switch v := value.(type) {
		case bool:
			return v, nil
		case string:
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("%s: %q is not a boolean", p.Name, v)
			}
			return b, nil
		}
		return nil, fmt.Errorf("%s: %v is not a boolean", p.Name, value)
	case "select", "string":
		s, ok := value.(string)
		if !ok {
			s = fmt.Sprint(value)
		}
		opts := p.Options
		if p.Type == "string" {
			opts = SourceOptions(p)
		}
		if len(opts) > 0 && !slices.Contains(opts, s) {
			return nil, fmt.Errorf("%s: %q is not one of %s", p.Name, s, strings.Join(opts, ", "))
		}
		return s, nil
	}
	return value, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", n)
		}
		return f, nil
	}
	return 0, fmt.Errorf("%v is not a number", v)
}
