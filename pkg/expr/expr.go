// Package expr holds the client-side vocabulary of trading condition
// expressions: the four condition fields, the expression kinds understood by
// the backend validator and the fast local syntax pre-check.
package expr

import (
	"errors"
	"fmt"
	"strings"
)

// ReasonUnbalanced is the user-visible reason for a failed parenthesis check.
const ReasonUnbalanced = "Unbalanced parentheses"

// ErrUnbalanced is returned by Precheck when parentheses do not pair up.
var ErrUnbalanced = errors.New(ReasonUnbalanced)

// Kind tells the backend validator how to interpret an expression.
type Kind string

const (
	KindCondition   Kind = "condition"
	KindCalculation Kind = "calculation"
)

// ParseKind validates a kind coming from the wire.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindCondition, KindCalculation:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown expression kind %q", s)
}

// Field identifies one of the four condition inputs of a bot.
type Field string

const (
	BuyCondition  Field = "buy_condition"
	SellCondition Field = "sell_condition"
	TakeProfit    Field = "tp_condition"
	StopLoss      Field = "sl_condition"
)

var allFields = []Field{BuyCondition, SellCondition, TakeProfit, StopLoss}

// Fields returns the condition fields in editor tab order.
func Fields() []Field {
	out := make([]Field, len(allFields))
	copy(out, allFields)
	return out
}

// ParseField maps a field identifier to a Field.
func ParseField(s string) (Field, error) {
	for _, f := range allFields {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown condition field %q", s)
}

// Kind reports how the field's content is validated: buy and sell rules are
// boolean conditions, take-profit and stop-loss are price calculations.
func (f Field) Kind() Kind {
	// Intentionally not "condition" for every field: tp/sl are sent as calculations.
	switch f {
	case TakeProfit, StopLoss:
		return KindCalculation
	default:
		return KindCondition
	}
}

// Label is the human readable title of the field.
func (f Field) Label() string {
	switch f {
	case BuyCondition:
		return "Buy Condition"
	case SellCondition:
		return "Sell Condition"
	case TakeProfit:
		return "Take Profit Calculation"
	case StopLoss:
		return "Stop Loss Calculation"
	}
	return string(f)
}

// Verdict is the backend validator's answer for one expression.
type Verdict struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

var pairs = map[rune]rune{'(': ')'}

func isCloser(r rune) bool {
	for _, c := range pairs {
		if c == r {
			return true
		}
	}
	return false
}

// Precheck scans the expression left to right keeping a stack of open
// parentheses. A closer without a matching opener fails immediately; openers
// left on the stack at the end fail as well.
func Precheck(expression string) error {
	stack := make([]rune, 0, 8)
	for _, r := range expression {
		if _, ok := pairs[r]; ok {
			stack = append(stack, r)
			continue
		}
		if !isCloser(r) {
			continue
		}
		if len(stack) == 0 {
			return ErrUnbalanced
		}
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if pairs[top] != r {
			return ErrUnbalanced
		}
	}
	if len(stack) != 0 {
		return ErrUnbalanced
	}
	return nil
}

// IsBlank reports whether the expression is empty after trimming.
func IsBlank(expression string) bool {
	return strings.TrimSpace(expression) == ""
}

// Local runs every check that needs no network round trip. It returns the
// resulting validity and whether the expression should go on to the backend.
func Local(expression string) (Validity, bool) {
	if IsBlank(expression) {
		return Untested(), false
	}
	if err := Precheck(expression); err != nil {
		return Invalid(err.Error()), false
	}
	return Validating(), true
}
