package archive

import "fmt"

// span is a half-open index range [From, To).
type span struct {
	From int
	To   int
}

// splitBatches splits n items into consecutive spans of at most size items.
func splitBatches(n, size int) ([]span, error) {
	if size <= 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	if n < 0 {
		return nil, fmt.Errorf("item count must not be negative")
	}

	spans := make([]span, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		spans = append(spans, span{From: start, To: end})
	}
	return spans, nil
}
