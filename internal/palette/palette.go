// Package palette holds the elements offered by the condition editor and
// the example condition shown as a placeholder for each field.
package palette

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/DamienReichhart/TradeForge-sub000/internal/indicators"
	"github.com/DamienReichhart/TradeForge-sub000/pkg/expr"
)

//go:embed palette.yaml
var defaultYAML []byte

type Variable struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
}

type Operator struct {
	Symbol      string `yaml:"symbol" json:"symbol"`
	Description string `yaml:"description" json:"description"`
}

type Function struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Insert      string `yaml:"insert" json:"insert_text"`
}

type Constant struct {
	Value       string `yaml:"value" json:"value"`
	Description string `yaml:"description" json:"description"`
}

// Palette is the set of insertable elements.
type Palette struct {
	Variables []Variable `yaml:"variables" json:"variables"`
	Operators []Operator `yaml:"operators" json:"operators"`
	Functions []Function `yaml:"functions" json:"functions"`
	Constants []Constant `yaml:"constants" json:"constants"`
}

// Default returns the embedded palette.
func Default() *Palette {
	p, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded palette: %v", err))
	}
	return p
}

// Load reads a palette file; an empty path yields the default.
func Load(path string) (*Palette, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read palette %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a palette document.
func Parse(data []byte) (*Palette, error) {
	var p Palette
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse palette: %w", err)
	}
	if len(p.Variables) == 0 {
		return nil, fmt.Errorf("parse palette: no variables defined")
	}
	return &p, nil
}

// Insert appends an element to the expression, separated by a single space.
func Insert(text, element string) string {
	if strings.TrimSpace(text) == "" {
		return element
	}
	if strings.HasSuffix(text, " ") {
		return text + element
	}
	return text + " " + element
}

// Example returns the placeholder condition for field given the selected
// indicators. RSI is preferred over moving averages for buy and sell rules;
// take profit and stop loss are always price based.
func Example(field expr.Field, selected []indicators.Selected) string {
	switch field {
	case expr.TakeProfit:
		return "current_price >= entry_price * 1.05"
	case expr.StopLoss:
		return "current_price <= entry_price * 0.95"
	}
	buy := field == expr.BuyCondition
	if len(selected) == 0 {
		if buy {
			return "current_price > previous_price"
		}
		return "current_price < previous_price"
	}

	if i := indexOf(selected, func(s indicators.Selected) bool {
		return strings.Contains(s.IndicatorName, "RSI")
	}); i >= 0 {
		name := nameOr(selected[i], fmt.Sprintf("RSI%d", i+1))
		if buy {
			return name + " < 30 and close > open"
		}
		return name + " > 70 or close < open"
	}

	if i := indexOf(selected, func(s indicators.Selected) bool {
		n := s.IndicatorName
		return strings.Contains(n, "Moving Average") || strings.Contains(n, "SMA") || strings.Contains(n, "EMA")
	}); i >= 0 {
		name := nameOr(selected[i], fmt.Sprintf("MA%d", i+1))
		if buy {
			return "close > " + name + " and current_price > previous_price"
		}
		return "close < " + name + " or current_price < previous_price"
	}

	name := nameOr(selected[0], indicators.StripSpaces(selected[0].IndicatorName)+"1")
	if buy {
		return name + " > 0 and current_price > previous_price"
	}
	return name + " < 0 or current_price < previous_price"
}

func indexOf(selected []indicators.Selected, match func(indicators.Selected) bool) int {
	for i, s := range selected {
		if match(s) {
			return i
		}
	}
	return -1
}

func nameOr(s indicators.Selected, fallback string) string {
	if s.SimplifiedName != "" {
		return s.SimplifiedName
	}
	return fallback
}
