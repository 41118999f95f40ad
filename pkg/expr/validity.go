package expr

// State is the tag of a Validity value.
type State int

const (
	StateUntested State = iota
	StateValidating
	StateValid
	StateInvalid
)

func (s State) String() string {
	switch s {
	case StateValidating:
		return "validating"
	case StateValid:
		return "valid"
	case StateInvalid:
		return "invalid"
	default:
		return "untested"
	}
}

// Validity is the verdict shown for a condition field. Untested and
// Validating are distinct from Invalid so "not checked yet" never reads as
// "checked and false".
type Validity struct {
	State  State
	Reason string
}

func Untested() Validity   { return Validity{State: StateUntested} }
func Validating() Validity { return Validity{State: StateValidating} }
func Valid() Validity      { return Validity{State: StateValid} }

// Invalid carries the reason the expression was rejected.
func Invalid(reason string) Validity {
	return Validity{State: StateInvalid, Reason: reason}
}

// FromVerdict converts a backend answer.
func FromVerdict(v Verdict) Validity {
	if v.Valid {
		return Valid()
	}
	return Invalid(v.Error)
}

// IsValid returns the legacy nullable view: nil until a verdict exists.
func (v Validity) IsValid() *bool {
	var b bool
	switch v.State {
	case StateValid:
		b = true
	case StateInvalid:
		b = false
	default:
		return nil
	}
	return &b
}

// Final reports whether the value is a verdict rather than a pending state.
func (v Validity) Final() bool {
	return v.State == StateValid || v.State == StateInvalid
}

// Message is the helper text displayed under the editor.
func (v Validity) Message() string {
	switch v.State {
	case StateValidating:
		return "Validating..."
	case StateValid:
		return "Valid expression"
	case StateInvalid:
		if v.Reason == "" {
			return "Invalid expression"
		}
		return "Invalid expression: " + v.Reason
	default:
		return "Enter a condition"
	}
}

func (v Validity) String() string {
	if v.State == StateInvalid && v.Reason != "" {
		return v.State.String() + "(" + v.Reason + ")"
	}
	return v.State.String()
}
