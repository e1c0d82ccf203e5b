package model

// PairSnapshot is a point-in-time liquidity state of a pair as reported by the backend.
type PairSnapshot struct {
	ID            string  `json:"_id,omitempty"`
	PairAddress   string  `json:"pairAddress"`
	Timestamp     string  `json:"timestamp"`
	ReserveUSD    float64 `json:"reserveUSD"`
	VolumeUSD     float64 `json:"volumeUSD"`
	BlockNumber   *uint64 `json:"blockNumber,omitempty"`
	Token0Symbol  string  `json:"token0Symbol,omitempty"`
	Token1Symbol  string  `json:"token1Symbol,omitempty"`
	Token0Reserve string  `json:"token0Reserve,omitempty"`
	Token1Reserve string  `json:"token1Reserve,omitempty"`
	CreatedAt     string  `json:"createdAt,omitempty"`
	UpdatedAt     string  `json:"updatedAt,omitempty"`
}
