package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"aprScope/internal/model"
)

// ArchiveConfig holds configuration for the archive command.
type ArchiveConfig struct {
	BackendURL   string
	Timeout      time.Duration
	Pairs        []Pair
	Windows      []model.Window
	Out          string
	PGDSN        string
	BatchSize    int
	StateFile    string
	Since        string
	MaxRetries   int
	RetryBackoff time.Duration
	MetricsFile  string
	LogLevel     string
	LogFile      string
}

// LoadArchive merges .env, config file, environment variables, and flags into ArchiveConfig.
func LoadArchive(cfgFile string, flags *pflag.FlagSet) (ArchiveConfig, error) {
	v, err := newViper(cfgFile, flags, func(v *viper.Viper) {
		v.SetDefault("windows", []string{"1", "12", "24"})
		v.SetDefault("batch-size", 500)
		v.SetDefault("max-retries", 5)
		v.SetDefault("retry-backoff", 500*time.Millisecond)
	})
	if err != nil {
		return ArchiveConfig{}, err
	}

	pairs, err := getPairs(v, "pairs")
	if err != nil {
		return ArchiveConfig{}, err
	}
	windows, err := parseWindows(getStringSlice(v, "windows"))
	if err != nil {
		return ArchiveConfig{}, err
	}

	cfg := ArchiveConfig{
		BackendURL:   strings.TrimRight(v.GetString("backend-url"), "/"),
		Timeout:      v.GetDuration("timeout"),
		Pairs:        pairs,
		Windows:      windows,
		Out:          v.GetString("out"),
		PGDSN:        v.GetString("pg-dsn"),
		BatchSize:    v.GetInt("batch-size"),
		StateFile:    v.GetString("state-file"),
		Since:        v.GetString("since"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		MetricsFile:  v.GetString("metrics-file"),
		LogLevel:     v.GetString("log-level"),
		LogFile:      v.GetString("log-file"),
	}

	return cfg, nil
}

func parseWindows(items []string) ([]model.Window, error) {
	out := make([]model.Window, 0, len(items))
	seen := make(map[model.Window]struct{}, len(items))
	for _, item := range items {
		w, err := model.ParseWindow(item)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("at least one window is required")
	}
	return out, nil
}

// ParseTimestamp parses a timestamp value (unix seconds or RFC3339).
func ParseTimestamp(input string) (time.Time, error) {
	if strings.TrimSpace(input) == "" {
		return time.Time{}, nil
	}

	if isNumeric(input) {
		val, err := strconv.ParseInt(input, 10, 64)
		if err != nil {
			return time.Time{}, err
		}
		return time.Unix(val, 0).UTC(), nil
	}

	tm, err := time.Parse(time.RFC3339, input)
	if err != nil {
		return time.Time{}, err
	}
	return tm.UTC(), nil
}

func isNumeric(input string) bool {
	for _, r := range input {
		if r < '0' || r > '9' {
			return false
		}
	}
	return input != ""
}
