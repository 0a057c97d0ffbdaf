package validator

import (
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	api "github.com/studio-labs/assessor/api/v1alpha1"
)

var (
	cryptoSymbolRegex = regexp.MustCompile(`^[A-Z0-9]{2,10}$`)
)

func cryptoSymbolValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	return cryptoSymbolRegex.MatchString(val)
}

func positiveAmountValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(decimal.Decimal)
	if !ok {
		return false
	}

	return val.IsPositive()
}

// priceTargetsValidator checks that every price target is positive.
func priceTargetsValidator() func(sl validator.StructLevel) {
	return func(sl validator.StructLevel) {
		targets, ok := sl.Current().Interface().(api.PriceTargets)
		if !ok {
			return
		}

		if !targets.Entry.IsPositive() {
			sl.ReportError(targets.Entry, "entry", "Entry", "positive_amount", "")
		}
		if !targets.Target.IsPositive() {
			sl.ReportError(targets.Target, "target", "Target", "positive_amount", "")
		}
		if !targets.StopLoss.IsPositive() {
			sl.ReportError(targets.StopLoss, "stop_loss", "StopLoss", "positive_amount", "")
		}
	}
}

// assessmentResultValidator rejects a failed result carrying assessment data.
func assessmentResultValidator() func(sl validator.StructLevel) {
	return func(sl validator.StructLevel) {
		result, ok := sl.Current().Interface().(api.AssessmentResult)
		if !ok {
			return
		}

		if result.Status == api.AssessmentStatusFailed && result.AssessmentData != nil {
			sl.ReportError(result.AssessmentData, "assessment_data", "AssessmentData", "excluded_if_failed", "")
		}
	}
}
