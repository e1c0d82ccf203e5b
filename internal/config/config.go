package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"aprScope/internal/api"
	"aprScope/internal/health"
	"aprScope/internal/model"
)

// EnvPrefix prefixes every environment variable, e.g. APRSCOPE_BACKEND_URL.
const EnvPrefix = "APRSCOPE"

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	BackendURL     string
	Timeout        time.Duration
	Pairs          []Pair
	Window         model.Window
	HealthInterval time.Duration
	Timezone       string
	Listen         string
	RPCURL         string
	ChainID        uint64
	LogLevel       string
	LogFile        string
}

// Location resolves Timezone; empty means the local zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}
	return loc, nil
}

// Load merges .env, config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags, func(v *viper.Viper) {
		v.SetDefault("window", int(model.DefaultWindow))
		v.SetDefault("health-interval", health.DefaultInterval)
		v.SetDefault("listen", ":8080")
	})
	if err != nil {
		return Config{}, err
	}

	pairs, err := getPairs(v, "pairs")
	if err != nil {
		return Config{}, err
	}
	window, err := model.ParseWindow(v.GetString("window"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		BackendURL:     strings.TrimRight(v.GetString("backend-url"), "/"),
		Timeout:        v.GetDuration("timeout"),
		Pairs:          pairs,
		Window:         window,
		HealthInterval: v.GetDuration("health-interval"),
		Timezone:       v.GetString("timezone"),
		Listen:         v.GetString("listen"),
		RPCURL:         v.GetString("rpc-url"),
		ChainID:        v.GetUint64("chain-id"),
		LogLevel:       v.GetString("log-level"),
		LogFile:        v.GetString("log-file"),
	}

	return cfg, nil
}

func newViper(cfgFile string, flags *pflag.FlagSet, defaults func(v *viper.Viper)) (*viper.Viper, error) {
	// A missing .env is normal.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("backend-url", api.DefaultBaseURL)
	v.SetDefault("timeout", api.DefaultTimeout)
	v.SetDefault("log-level", "info")
	if defaults != nil {
		defaults(v)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return v, nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
