package model

// Envelope is the JSON wrapper for every HTTP response. ErrorType is only
// set on failures; Data is null on failures.
type Envelope struct {
	Error      bool   `json:"error"`
	StatusCode int    `json:"statusCode"`
	ErrorType  string `json:"errorType,omitempty"`
	Message    any    `json:"message"`
	Data       any    `json:"data"`
}

type HealthStatus struct {
	Status      string  `json:"status"`
	Timestamp   string  `json:"timestamp"`
	Service     string  `json:"service"`
	Uptime      float64 `json:"uptime"`
	Version     string  `json:"version"`
	Environment string  `json:"environment"`
	Goroutines  int     `json:"goroutines"`
	HeapAllocMB float64 `json:"heapAllocMb"`
}
