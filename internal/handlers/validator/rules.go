package validator

import (
	"github.com/go-playground/validator/v10"
	api "github.com/studio-labs/assessor/api/v1alpha1"
)

func registerFn(tag string, fn func(fl validator.FieldLevel) bool) func(v *validator.Validate) {
	return func(v *validator.Validate) {
		_ = v.RegisterValidation(tag, fn)
	}
}

func registerStructFn(fn func(sl validator.StructLevel), types ...any) func(v *validator.Validate) {
	return func(v *validator.Validate) {
		v.RegisterStructValidation(fn, types...)
	}
}

func NewAssessmentValidationRules() []ValidationRule {
	return []ValidationRule{
		{
			Rule: registerFn("crypto_symbol", cryptoSymbolValidator),
		},
		{
			Rule: registerFn("positive_amount", positiveAmountValidator),
		},
	}
}

func NewAssessmentResultValidationRules() []ValidationRule {
	return []ValidationRule{
		{
			Rule: registerStructFn(priceTargetsValidator(), api.PriceTargets{}),
		},
		{
			Rule: registerStructFn(assessmentResultValidator(), api.AssessmentResult{}),
		},
	}
}
