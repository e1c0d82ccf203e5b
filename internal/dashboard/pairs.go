package dashboard

import (
	"fmt"
	"strings"
)

// PairOption is a selectable pair.
type PairOption struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

// DefaultPairs is used when no pairs are configured.
var DefaultPairs = []PairOption{
	{Address: "0xb4e16d0168e52d35cacd2c6185b44281ec28c9dc", Name: "USDC/WETH"},
	{Address: "0xbc9d21652cca70f54351e3fb982c6b5dbe992a22", Name: "WETH/RKFL"},
}

func findPair(pairs []PairOption, address string) (PairOption, bool) {
	for _, p := range pairs {
		if strings.EqualFold(p.Address, address) {
			return p, true
		}
	}
	return PairOption{}, false
}

func validatePairs(pairs []PairOption) error {
	if len(pairs) == 0 {
		return fmt.Errorf("at least one pair is required")
	}
	seen := make(map[string]struct{}, len(pairs))
	for _, p := range pairs {
		if p.Address == "" {
			return fmt.Errorf("pair %q has no address", p.Name)
		}
		key := strings.ToLower(p.Address)
		if _, ok := seen[key]; ok {
			return fmt.Errorf("duplicate pair: %s", p.Address)
		}
		seen[key] = struct{}{}
	}
	return nil
}
