package model

// HistoryMeta describes the slice of historical snapshots returned by the backend.
type HistoryMeta struct {
	Total     int    `json:"total"`
	Limit     int    `json:"limit"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
}
