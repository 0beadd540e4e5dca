// Package client provides the WebSocket push-channel handle and the REST
// client for the provisioning backend. Types mirror the backend wire
// protocol without importing server packages.
package client

// RunnerPool describes one pool a runner can be provisioned from.
type RunnerPool struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Machine string `json:"machine"`
	Image   string `json:"image"`
	Region  string `json:"region"`
}

// Health mirrors the backend's /api/health response.
type Health struct {
	Status        string  `json:"status"`
	CPUPercent    float64 `json:"cpuPercent"`
	MemoryPercent float64 `json:"memoryPercent"`
	UptimeSeconds uint64  `json:"uptimeSeconds"`
	Clients       int     `json:"clients"`
}
