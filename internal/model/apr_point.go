package model

// APRDataPoint is one point of a pair's APR series for a moving-average window.
// Optional numeric fields are nil when the backend omits them.
type APRDataPoint struct {
	Timestamp   string   `json:"timestamp"`
	APR         float64  `json:"apr"`
	WindowHours int      `json:"windowHours"`
	ReserveUSD  *float64 `json:"reserveUSD,omitempty"`
	VolumeUSD   *float64 `json:"volumeUSD,omitempty"`
	FeesUSD     *float64 `json:"feesUSD,omitempty"`
	FeeRate     *float64 `json:"feeRate,omitempty"`
}
