package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/formloom/formloom-backend/internal/domain"
	"github.com/formloom/formloom-backend/internal/pkg/apierr"
)

// RawAnswer is the submitted payload for one question, before
// canonicalization. Omitted fields and explicit nulls are no-ops unless
// Clear is set, in which case Clear wins over everything else.
type RawAnswer struct {
	Value    json.RawMessage `json:"value,omitempty"`
	OptionID *string         `json:"option_id,omitempty"`
	Label    *string         `json:"label,omitempty"`
	Clear    bool            `json:"clear,omitempty"`
}

// Canonical is the validated, comparison-ready form of a RawAnswer. Exactly
// one of Clear, NoOp, or a populated Value applies. Label is carried through
// untouched and never participates in resolution.
type Canonical struct {
	Clear bool
	NoOp  bool
	Value types.AnswerValue
	Label *string
}

// OptionResolver is the read-only option lookup the canonicalizer needs for
// enum questions. Satisfied by the catalog question repo.
type OptionResolver interface {
	OptionByID(ctx context.Context, tx *gorm.DB, questionID, optionID uuid.UUID) (*types.AnswerOption, error)
	OptionByValue(ctx context.Context, tx *gorm.DB, questionID uuid.UUID, value string) (*types.AnswerOption, error)
}

// Canonicalize type-checks raw against the question's kind and produces the
// canonical value. It has no side effects beyond resolver reads.
func Canonicalize(ctx context.Context, tx *gorm.DB, question *types.Question, raw RawAnswer, resolver OptionResolver) (Canonical, error) {
	if raw.Clear {
		return Canonical{Clear: true, Label: raw.Label}, nil
	}

	hasValue := !rawValueAbsent(raw.Value)

	switch question.Kind {
	case types.KindShortString, types.KindLongText:
		if !hasValue {
			return Canonical{NoOp: true, Label: raw.Label}, nil
		}
		var s string
		if err := json.Unmarshal(raw.Value, &s); err != nil {
			return Canonical{}, apierr.Newf(http.StatusBadRequest, CodeAnswerKindMismatch,
				"question %s expects a string value", question.ID)
		}
		// Stored verbatim: no trimming, empty string allowed.
		return Canonical{Value: types.AnswerValue{Text: &s}, Label: raw.Label}, nil

	case types.KindNumber:
		if !hasValue {
			return Canonical{NoOp: true, Label: raw.Label}, nil
		}
		var n float64
		if err := json.Unmarshal(raw.Value, &n); err != nil {
			return Canonical{}, apierr.Newf(http.StatusBadRequest, CodeAnswerKindMismatch,
				"question %s expects a number value", question.ID)
		}
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return Canonical{}, apierr.Newf(http.StatusBadRequest, CodeAnswerNumberNotFinite,
				"question %s rejects non-finite numbers", question.ID)
		}
		return Canonical{Value: types.AnswerValue{Number: &n}, Label: raw.Label}, nil

	case types.KindBoolean:
		if !hasValue {
			return Canonical{NoOp: true, Label: raw.Label}, nil
		}
		var b bool
		if err := json.Unmarshal(raw.Value, &b); err != nil {
			// No truthy-string coercion: literal true/false only.
			return Canonical{}, apierr.Newf(http.StatusBadRequest, CodeAnswerKindMismatch,
				"question %s expects a boolean value", question.ID)
		}
		return Canonical{Value: types.AnswerValue{Bool: &b}, Label: raw.Label}, nil

	case types.KindEnumSingle:
		return canonicalizeEnum(ctx, tx, question, raw, hasValue, resolver)

	default:
		return Canonical{}, fmt.Errorf("question %s has unknown kind %q", question.ID, question.Kind)
	}
}

func canonicalizeEnum(ctx context.Context, tx *gorm.DB, question *types.Question, raw RawAnswer, hasValue bool, resolver OptionResolver) (Canonical, error) {
	if raw.OptionID != nil {
		optionID, err := uuid.Parse(*raw.OptionID)
		if err != nil {
			return Canonical{}, apierr.Newf(http.StatusBadRequest, CodeAnswerOptionUnresolved,
				"option_id %q is not a valid identifier", *raw.OptionID)
		}
		opt, err := resolver.OptionByID(ctx, tx, question.ID, optionID)
		if err != nil {
			return Canonical{}, fmt.Errorf("resolve option by id: %w", err)
		}
		if opt == nil {
			return Canonical{}, apierr.Newf(http.StatusBadRequest, CodeAnswerOptionUnresolved,
				"option %s does not belong to question %s", optionID, question.ID)
		}
		return Canonical{Value: types.AnswerValue{OptionID: &opt.ID}, Label: raw.Label}, nil
	}

	if hasValue {
		var token string
		if err := json.Unmarshal(raw.Value, &token); err != nil {
			return Canonical{}, apierr.Newf(http.StatusBadRequest, CodeAnswerKindMismatch,
				"question %s expects an option token string", question.ID)
		}
		opt, err := resolver.OptionByValue(ctx, tx, question.ID, token)
		if err != nil {
			return Canonical{}, fmt.Errorf("resolve option by value: %w", err)
		}
		if opt == nil {
			return Canonical{}, apierr.Newf(http.StatusBadRequest, CodeAnswerOptionUnresolved,
				"no option with value %q on question %s", token, question.ID)
		}
		return Canonical{Value: types.AnswerValue{OptionID: &opt.ID}, Label: raw.Label}, nil
	}

	if raw.Label != nil {
		// A label alone cannot select an option: labels are display-only and
		// never used in resolution.
		return Canonical{}, apierr.Newf(http.StatusBadRequest, CodeAnswerNoValue,
			"question %s needs option_id or a value token", question.ID)
	}
	return Canonical{NoOp: true}, nil
}

func rawValueAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
