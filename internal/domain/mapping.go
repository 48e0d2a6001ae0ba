package domain

// Source labels are matched exactly, including the misspellings found in
// the operational spreadsheets.
var (
	originLabels = map[string]Origin{
		"Onbording":  OriginOnboarding,
		"Onboarding": OriginOnboarding,
		"Outro":      OriginOther,
	}

	reasonLabels = map[string]Reason{
		"Cliente (Base)": ReasonClientBase,
		"Cliente Base":   ReasonClientBase,
		"Modelador":      ReasonModeler,
		"Analista":       ReasonAnalyst,
		"Engenharia":     ReasonEngineering,
		"Em análise":     ReasonInAnalysis,
	}

	statusLabels = map[string]Status{
		"No prazo":    StatusOnTime,
		"SLA Vencida": StatusSLAExpired,
		"Crítico":     StatusCritical,
		"Resolvido":   StatusResolved,
	}
)

// MapOrigin translates a spreadsheet label, falling back to OriginOther.
func MapOrigin(label string) Origin {
	if origin, ok := originLabels[label]; ok {
		return origin
	}
	return OriginOther
}

// MapReason translates a spreadsheet label, falling back to ReasonInAnalysis.
func MapReason(label string) Reason {
	if reason, ok := reasonLabels[label]; ok {
		return reason
	}
	return ReasonInAnalysis
}

// MapStatus translates a spreadsheet label, falling back to StatusOnTime.
func MapStatus(label string) Status {
	if status, ok := statusLabels[label]; ok {
		return status
	}
	return StatusOnTime
}
