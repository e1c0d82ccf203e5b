package config

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

// Pair is a configured pair address and display name.
type Pair struct {
	Address string
	Name    string
}

// ParsePair parses "address=name" or a bare address. Addresses are validated and lowercased;
// a missing name falls back to the shortened checksum address.
func ParsePair(input string) (Pair, error) {
	addr, name, _ := strings.Cut(input, "=")
	addr = strings.TrimSpace(addr)
	name = strings.TrimSpace(name)

	if !common.IsHexAddress(addr) {
		return Pair{}, fmt.Errorf("invalid pair address: %s", addr)
	}
	checksum := common.HexToAddress(addr).Hex()
	if name == "" {
		name = checksum[:6] + "…" + checksum[len(checksum)-4:]
	}
	return Pair{Address: strings.ToLower(checksum), Name: name}, nil
}

// ParsePairs parses entries in order and rejects duplicate addresses.
func ParsePairs(entries []string) ([]Pair, error) {
	out := make([]Pair, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		p, err := ParsePair(entry)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[p.Address]; ok {
			return nil, fmt.Errorf("duplicate pair address: %s", p.Address)
		}
		seen[p.Address] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}

// getPairs reads "addr=name,..." strings as well as config file lists of
// strings or {address, name} tables.
func getPairs(v *viper.Viper, key string) ([]Pair, error) {
	if !v.IsSet(key) {
		return nil, nil
	}

	if list, ok := v.Get(key).([]interface{}); ok {
		entries := make([]string, 0, len(list))
		for _, item := range list {
			switch typed := item.(type) {
			case map[string]interface{}:
				entries = append(entries, fmt.Sprintf("%v=%v", typed["address"], valueOr(typed["name"])))
			default:
				entries = append(entries, fmt.Sprintf("%v", typed))
			}
		}
		return ParsePairs(cleanStrings(entries))
	}

	return ParsePairs(getStringSlice(v, key))
}

func valueOr(v interface{}) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}
