package domain

// ============================================================
// Health & generic API responses
// ============================================================

// HealthStatus is returned by GET /health.
type HealthStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Envelope is the response body of every /api endpoint. Success is the
// discriminant; Data is set on success, Error (and Details) on failure.
type Envelope struct {
	Success bool    `json:"success"`
	Data    any     `json:"data,omitempty"`
	Message string  `json:"message,omitempty"`
	Error   string  `json:"error,omitempty"`
	Details []Issue `json:"details,omitempty"`
}
