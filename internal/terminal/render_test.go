package terminal

import (
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"aprScope/internal/dashboard"
	"aprScope/internal/dex"
	"aprScope/internal/model"
)

func readyModel() dashboard.Model {
	fees := 120.0
	points := []model.APRDataPoint{
		{Timestamp: "2024-03-05T12:00:00Z", APR: 45, FeesUSD: &fees},
		{Timestamp: "2024-03-05T13:00:00Z", APR: 45.678},
	}
	return dashboard.Derive(model.Window24h, points, false, nil, time.UTC)
}

func TestCards(t *testing.T) {
	out := Cards(readyModel().Cards)
	for _, want := range []string{"Current APR", "45.68%", "+1.51%", "Total Fees", "Avg Liquidity", "Volume (24h)", "0.3% fee"} {
		if !strings.Contains(out, want) {
			t.Fatalf("cards missing %q:\n%s", want, out)
		}
	}
	if Cards(nil) != "" {
		t.Fatalf("expected no output for empty cards")
	}
}

func TestChartStates(t *testing.T) {
	cases := []struct {
		name string
		m    dashboard.Model
		want string
	}{
		{"loading", dashboard.Derive(model.Window1h, nil, true, nil, time.UTC), "Loading APR data..."},
		{"error", dashboard.Derive(model.Window1h, nil, false, errors.New("APR API request failed: 500"), time.UTC), "APR API request failed: 500"},
		{"empty", dashboard.Derive(model.Window1h, nil, false, nil, time.UTC), dashboard.EmptyMessage},
		{"ready", readyModel(), "Window: 24h moving average | Data points: 2"},
	}
	for _, c := range cases {
		if out := Chart(c.m); !strings.Contains(out, c.want) {
			t.Fatalf("%s: expected %q in:\n%s", c.name, c.want, out)
		}
	}

	out := Chart(readyModel())
	if !strings.Contains(out, "Latest: Mar 5, 01:00 PM") {
		t.Fatalf("missing latest line:\n%s", out)
	}
	if !strings.Contains(out, "$120") {
		t.Fatalf("missing fees column:\n%s", out)
	}
}

func TestDashboard(t *testing.T) {
	snap := dashboard.Snapshot{
		Selection: dashboard.Selection{Pair: dashboard.DefaultPairs[0], Window: model.Window24h},
		Model:     readyModel(),
	}
	snap.Pair.Data = &model.PairSnapshot{ReserveUSD: 2500000, VolumeUSD: 1500, Token0Symbol: "USDC", Token1Symbol: "WETH", Timestamp: "2024-03-05T13:00:00Z"}

	out := Dashboard(snap, time.UTC)
	for _, want := range []string{"USDC/WETH", "24H", "Current APR", "$2.5M", "$1.5K"} {
		if !strings.Contains(out, want) {
			t.Fatalf("dashboard missing %q:\n%s", want, out)
		}
	}

	snap.Pair.Data = nil
	snap.Pair.Err = errors.New("API request failed: 404")
	if out := Dashboard(snap, time.UTC); !strings.Contains(out, "API request failed: 404") {
		t.Fatalf("expected pair error:\n%s", out)
	}
}

func TestHistory(t *testing.T) {
	meta := &model.HistoryMeta{Total: 2, Limit: 5, StartDate: "2024-01-01"}
	out := History([]model.PairSnapshot{
		{Timestamp: "2024-01-01T00:00:00Z", ReserveUSD: 1000, VolumeUSD: 10},
		{Timestamp: "bogus", ReserveUSD: 2000000000},
	}, meta, time.UTC)
	for _, want := range []string{"Total: 2", "Limit: 5", "From: 2024-01-01", "$1.0K", "$2.0B", "Invalid Date"} {
		if !strings.Contains(out, want) {
			t.Fatalf("history missing %q:\n%s", want, out)
		}
	}

	if out := History(nil, nil, time.UTC); !strings.Contains(out, "No historical data available") {
		t.Fatalf("unexpected empty history: %s", out)
	}
}

func TestHealth(t *testing.T) {
	ok := Health(&model.HealthStatus{Status: "OK", Database: "connected", API: "working", Version: "1.2.0"}, nil)
	if !strings.Contains(ok, "OK") || !strings.Contains(ok, "version=1.2.0") {
		t.Fatalf("unexpected healthy output: %s", ok)
	}
	degraded := Health(&model.HealthStatus{Status: "OK", Database: "disconnected", API: "working"}, nil)
	if !strings.Contains(degraded, "DEGRADED") {
		t.Fatalf("unexpected degraded output: %s", degraded)
	}
	down := Health(nil, errors.New("Health check failed: 503"))
	if !strings.Contains(down, "DOWN") || !strings.Contains(down, "503") {
		t.Fatalf("unexpected down output: %s", down)
	}
}

func TestOnchainPair(t *testing.T) {
	out := OnchainPair(dex.PairState{
		Address:            "0xB4e16d0168e52d35CaCD2c6185b44281Ec28C9Dc",
		Token0:             dex.TokenMeta{Symbol: "USDC", Decimals: 6},
		Token1:             dex.TokenMeta{Symbol: "WETH", Decimals: 18},
		Reserve0:           big.NewInt(12345678900),
		Reserve1:           big.NewInt(0),
		BlockTimestampLast: 1704067200,
	})
	for _, want := range []string{"USDC/WETH", "Reserve0: 12345.6789 USDC", "Reserve1: 0.0000 WETH", "Last sync: 2024-01-01T00:00:00Z"} {
		if !strings.Contains(out, want) {
			t.Fatalf("on-chain output missing %q:\n%s", want, out)
		}
	}
}
