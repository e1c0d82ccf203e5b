package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Window is an APR moving-average window in hours.
type Window int

const (
	Window1h  Window = 1
	Window12h Window = 12
	Window24h Window = 24
)

// DefaultWindow is the window selected when nothing else is configured.
const DefaultWindow = Window24h

// Windows lists the supported windows in display order.
var Windows = []Window{Window1h, Window12h, Window24h}

// Valid reports whether w is one of the supported windows.
func (w Window) Valid() bool {
	for _, candidate := range Windows {
		if w == candidate {
			return true
		}
	}
	return false
}

// Label returns the short display label, e.g. "24H".
func (w Window) Label() string {
	return fmt.Sprintf("%dH", int(w))
}

func (w Window) String() string {
	return strconv.Itoa(int(w))
}

// ParseWindow parses "1", "12", "24" (optionally suffixed with h/H).
func ParseWindow(input string) (Window, error) {
	trimmed := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(input)), "h")
	val, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("invalid window: %s", input)
	}
	w := Window(val)
	if !w.Valid() {
		return 0, fmt.Errorf("unsupported window: %s", input)
	}
	return w, nil
}
