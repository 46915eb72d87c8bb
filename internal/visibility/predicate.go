package visibility

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	types "github.com/formloom/formloom-backend/internal/domain"
)

const (
	predicateAnswered = "answered"
	predicateEquals   = "equals"
)

// Predicate is the decoded form of VisibilityRule.Predicate. "answered" holds
// when the controlling question has any stored value; "equals" additionally
// compares against exactly one of the typed fields (option compares the
// canonical value token of the selected option).
type Predicate struct {
	Kind   string   `json:"kind"`
	Bool   *bool    `json:"bool,omitempty"`
	Number *float64 `json:"number,omitempty"`
	Text   *string  `json:"text,omitempty"`
	Option *string  `json:"option,omitempty"`
}

func ParsePredicate(raw []byte) (Predicate, error) {
	var p Predicate
	if len(raw) == 0 {
		return p, fmt.Errorf("empty predicate")
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("decode predicate: %w", err)
	}
	switch p.Kind {
	case predicateAnswered:
	case predicateEquals:
		set := 0
		if p.Bool != nil {
			set++
		}
		if p.Number != nil {
			set++
		}
		if p.Text != nil {
			set++
		}
		if p.Option != nil {
			set++
		}
		if set != 1 {
			return p, fmt.Errorf("equals predicate needs exactly one comparison value, has %d", set)
		}
	default:
		return p, fmt.Errorf("unknown predicate kind %q", p.Kind)
	}
	return p, nil
}

// Holds evaluates the predicate against the controlling question's stored
// answer. optionValue resolves an option id to its canonical token.
func (p Predicate) Holds(answer *types.Response, optionValue func(uuid.UUID) (string, bool)) bool {
	if answer == nil || !answer.HasValue() {
		return false
	}
	switch p.Kind {
	case predicateAnswered:
		return true
	case predicateEquals:
		switch {
		case p.Bool != nil:
			return answer.ValueBool != nil && *answer.ValueBool == *p.Bool
		case p.Number != nil:
			return answer.ValueNumber != nil && *answer.ValueNumber == *p.Number
		case p.Text != nil:
			return answer.ValueText != nil && *answer.ValueText == *p.Text
		case p.Option != nil:
			if answer.OptionID == nil || optionValue == nil {
				return false
			}
			token, ok := optionValue(*answer.OptionID)
			return ok && token == *p.Option
		}
	}
	return false
}
