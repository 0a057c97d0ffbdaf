package chatflow

import (
	"errors"
	"regexp"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	symbolRegex = regexp.MustCompile(`^[A-Z0-9]{2,10}$`)

	answers = newAnswerValidator()
)

func newAnswerValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("crypto_symbol", func(fl validator.FieldLevel) bool {
		return symbolRegex.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("positive_amount", func(fl validator.FieldLevel) bool {
		amount, err := decimal.NewFromString(fl.Field().String())
		return err == nil && amount.IsPositive()
	})
	return v
}

func validateAnswer(step Step, value string) error {
	if value == "" {
		if step.Optional {
			return nil
		}
		return &AnswerError{Step: step.ID, Reason: "a value is required"}
	}

	if len(step.Options) > 0 && !slices.Contains(step.Options, value) {
		return &AnswerError{Step: step.ID, Reason: "choose one of " + strings.Join(step.Options, ", ")}
	}

	if step.Rule == "" {
		return nil
	}
	if err := answers.Var(value, step.Rule); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &AnswerError{Step: step.ID, Reason: "failed rule " + verrs[0].Tag()}
		}
		return &AnswerError{Step: step.ID, Reason: err.Error()}
	}
	return nil
}
