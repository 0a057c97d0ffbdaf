package v1alpha1

func StringToAssessmentStatus(s string) AssessmentStatus {
	switch s {
	case string(AssessmentStatusReady):
		return AssessmentStatusReady
	case string(AssessmentStatusFailed):
		return AssessmentStatusFailed
	default:
		return AssessmentStatusGenerating
	}
}

func StringToRiskTolerance(s string) RiskTolerance {
	switch s {
	case string(RiskToleranceConservative):
		return RiskToleranceConservative
	case string(RiskToleranceAggressive):
		return RiskToleranceAggressive
	default:
		return RiskToleranceModerate
	}
}

func StringToTimeHorizon(s string) TimeHorizon {
	switch s {
	case string(TimeHorizonShortTerm):
		return TimeHorizonShortTerm
	case string(TimeHorizonLongTerm):
		return TimeHorizonLongTerm
	default:
		return TimeHorizonMediumTerm
	}
}
