package chrome

import "testing"

func TestActiveItem(t *testing.T) {
	cases := map[string]string{
		"/dashboard":  "dashboard",
		"/apr":        "apr",
		"/settings":   "settings",
		"/dashboard/": "dashboard",
		"/unknown":    "dashboard",
		"":            "dashboard",
	}
	for path, want := range cases {
		if got := ActiveItem(path); got != want {
			t.Fatalf("ActiveItem(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestNavMarksSingleActive(t *testing.T) {
	entries := Nav("/invoices")
	active := 0
	for _, e := range entries {
		if e.Active {
			active++
			if e.ID != "invoices" {
				t.Fatalf("wrong active entry %q", e.ID)
			}
		}
	}
	if active != 1 {
		t.Fatalf("expected one active entry, got %d", active)
	}
}

func TestNavItemTitle(t *testing.T) {
	if got := NavItems[0].Title(); got != "Dashboard" {
		t.Fatalf("title = %q", got)
	}
	if got := NavItems[3].Title(); got != "APR Analysis (Disabled)" {
		t.Fatalf("title = %q", got)
	}
}

func TestNewHeader(t *testing.T) {
	h := NewHeader("Dashboard")
	if h.Title != "Dashboard" || h.Placeholder != "Search..." {
		t.Fatalf("unexpected header %+v", h)
	}
}
