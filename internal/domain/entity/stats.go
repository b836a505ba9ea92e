package entity

import "time"

// TrendPoint is one month bucket of the report trend chart.
type TrendPoint struct {
	Name     string `json:"name"`
	Lost     int    `json:"lost"`
	Returned int    `json:"returned"`
}

type CategoryCount struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
	Color string `json:"color"`
}

type Summary struct {
	TotalReports  int     `json:"total_reports"`
	LostCount     int     `json:"lost_count"`
	ReturnedCount int     `json:"returned_count"`
	HistoryCount  int     `json:"history_count"`
	ReturnRate    float64 `json:"return_rate"`
}

type DashboardStats struct {
	Summary     Summary         `json:"summary"`
	Trend       []TrendPoint    `json:"trend"`
	Categories  []CategoryCount `json:"categories"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// ReconciledRecord is a duplicate removed by reconciliation.
type ReconciledRecord struct {
	Collection Collection `json:"collection"`
	ID         string     `json:"id"`
	KeptIn     Collection `json:"kept_in"`
	KeptID     string     `json:"kept_id"`
	Error      string     `json:"error,omitempty"`
}

type ReconcileResult struct {
	Removed []ReconciledRecord `json:"removed"`
	Failed  []ReconciledRecord `json:"failed,omitempty"`
}
