package chatflow

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	api "github.com/studio-labs/assessor/api/v1alpha1"
	"github.com/studio-labs/assessor/internal/submission"
)

const (
	StepCryptoSymbol     StepID = "crypto_symbol"
	StepInvestmentAmount StepID = "investment_amount"
	StepRiskTolerance    StepID = "risk_tolerance"
	StepTimeHorizon      StepID = "time_horizon"
	StepNotes            StepID = "notes"

	FieldSymbol        = "symbol"
	FieldAmount        = "amount"
	FieldRiskTolerance = "risk_tolerance"
	FieldTimeHorizon   = "time_horizon"
	FieldNotes         = "notes"
)

// CryptoAssessmentFlow collects the parameters of a crypto risk assessment.
func CryptoAssessmentFlow() Flow {
	return Flow{
		Name:    "crypto_assessment",
		Welcome: "Hi! I will ask a few questions and then run a risk assessment for your crypto investment.",
		Steps: []Step{
			{
				ID:        StepCryptoSymbol,
				Field:     FieldSymbol,
				Prompt:    "Which cryptocurrency would you like me to assess? (for example BTC or ETH)",
				Rule:      "required,crypto_symbol",
				Normalize: strings.ToUpper,
			},
			{
				ID:     StepInvestmentAmount,
				Field:  FieldAmount,
				Prompt: "How much are you planning to invest (USD)?",
				Rule:   "required,positive_amount",
				Normalize: func(s string) string {
					return strings.TrimPrefix(strings.ReplaceAll(s, ",", ""), "$")
				},
			},
			{
				ID:      StepRiskTolerance,
				Field:   FieldRiskTolerance,
				Prompt:  "What is your risk tolerance?",
				Options: []string{string(api.RiskToleranceConservative), string(api.RiskToleranceModerate), string(api.RiskToleranceAggressive)},
			},
			{
				ID:      StepTimeHorizon,
				Field:   FieldTimeHorizon,
				Prompt:  "What is your investment time horizon?",
				Options: []string{string(api.TimeHorizonShortTerm), string(api.TimeHorizonMediumTerm), string(api.TimeHorizonLongTerm)},
			},
			{
				ID:       StepNotes,
				Field:    FieldNotes,
				Prompt:   "Anything else I should know? (optional)",
				Rule:     "max=500",
				Optional: true,
			},
		},
		Summary:     cryptoSummary,
		TypingDelay: DefaultTypingDelay,
		SettleDelay: DefaultSettleDelay,
	}
}

func cryptoSummary(values map[string]string) string {
	var sb strings.Builder
	sb.WriteString("Here is your assessment request:\n")
	fmt.Fprintf(&sb, "  Symbol:         %s\n", values[FieldSymbol])
	fmt.Fprintf(&sb, "  Amount:         %s\n", values[FieldAmount])
	fmt.Fprintf(&sb, "  Risk tolerance: %s\n", values[FieldRiskTolerance])
	fmt.Fprintf(&sb, "  Time horizon:   %s", values[FieldTimeHorizon])
	if notes := values[FieldNotes]; notes != "" {
		fmt.Fprintf(&sb, "\n  Notes:          %s", notes)
	}
	return sb.String()
}

// CryptoParameters turns confirmed flow values into submission parameters.
func CryptoParameters(values map[string]string) (submission.Parameters, error) {
	amount, err := decimal.NewFromString(values[FieldAmount])
	if err != nil {
		return submission.Parameters{}, fmt.Errorf("invalid amount %q: %w", values[FieldAmount], err)
	}

	params := submission.Parameters{
		Symbol:        values[FieldSymbol],
		Amount:        amount,
		RiskTolerance: api.RiskTolerance(values[FieldRiskTolerance]),
		TimeHorizon:   api.TimeHorizon(values[FieldTimeHorizon]),
	}
	if notes := values[FieldNotes]; notes != "" {
		params.Notes = &notes
	}
	return params, nil
}
