package model

// AdherenceStats is aggregated server side over PeriodDays
type AdherenceStats struct {
	AdherenceRate float64 `json:"adherence_rate"`
	TotalDoses    int     `json:"total_doses"`
	TakenDoses    int     `json:"taken_doses"`
	MissedDoses   int     `json:"missed_doses"`
	PeriodDays    int     `json:"period_days"`
}

type AdherenceLevel string

const (
	AdherenceGood AdherenceLevel = "good"
	AdherenceFair AdherenceLevel = "fair"
	AdherencePoor AdherenceLevel = "poor"
)

func (s AdherenceStats) Level() AdherenceLevel {
	switch {
	case s.AdherenceRate >= 90:
		return AdherenceGood
	case s.AdherenceRate >= 70:
		return AdherenceFair
	default:
		return AdherencePoor
	}
}
