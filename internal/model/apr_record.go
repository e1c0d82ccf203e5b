package model

import (
	"encoding/json"
	"time"
)

// APRRecord is an archived APR point tagged with the pair and window it was fetched for.
type APRRecord struct {
	PairAddress string       `json:"pair_address"`
	Window      Window       `json:"window_hours"`
	Point       APRDataPoint `json:"point"`
	ObservedAt  time.Time    `json:"-"`
	FetchedAt   string       `json:"fetched_at"`
}

// MarshalJSON keeps the archived line format stable.
func (r APRRecord) MarshalJSON() ([]byte, error) {
	type Alias APRRecord
	return json.Marshal(Alias(r))
}

// UnmarshalJSON decodes an archived line and restores ObservedAt from the point timestamp.
func (r *APRRecord) UnmarshalJSON(data []byte) error {
	type Alias APRRecord
	var a Alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*r = APRRecord(a)
	if ts, err := time.Parse(time.RFC3339Nano, r.Point.Timestamp); err == nil {
		r.ObservedAt = ts.UTC()
	}
	return nil
}
