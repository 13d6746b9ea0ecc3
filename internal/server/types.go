package server

// ErrorResponse represents a standardized error response format
type ErrorResponse struct {
	Error   string `json:"error"`             // Human-readable error message
	Code    int    `json:"code"`              // HTTP status code
	Details any    `json:"details,omitempty"` // Additional error details (dev mode only)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	OK bool `json:"ok"` // Service health status
}

// StatusResponse summarizes the watcher's runtime state
type StatusResponse struct {
	Connected         bool             `json:"connected"`                     // Push connection is up and subscribed
	State             string           `json:"state"`                         // Connection lifecycle state
	GaveUp            bool             `json:"gave_up"`                       // Automatic reconnects exhausted, needs manual retry
	Watched           []string         `json:"watched"`                       // Watched addresses, sorted
	WatchedCount      int              `json:"watched_count"`                 // Number of watched addresses
	MetadataCacheSize int              `json:"metadata_cache_size,omitempty"` // Cached asset metadata entries
	QueueDepths       map[string]int   `json:"queue_depths,omitempty"`        // Pending calls per queue kind
}

// WatchResponse confirms a change to the watched-address set
type WatchResponse struct {
	Address string `json:"address"` // The affected address
	Watched bool   `json:"watched"` // Whether the address is watched after the change
}
