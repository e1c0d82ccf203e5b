package model

// HealthStatus is the backend's self-reported health.
type HealthStatus struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Service   string `json:"service"`
	Version   string `json:"version"`
	Database  string `json:"database"`
	API       string `json:"api"`
}

// Healthy reports whether the backend, its database and its API all report ok.
func (h *HealthStatus) Healthy() bool {
	if h == nil {
		return false
	}
	return h.Status == "OK" && h.Database == "connected" && h.API == "working"
}
