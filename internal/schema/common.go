package schema

// ErrorResponse is the standard error payload.
type ErrorResponse struct {
	Detail string `json:"detail" msgpack:"detail"`
}

// HealthResponse is the health check payload.
type HealthResponse struct {
	Status  string `json:"status" msgpack:"status"`
	Backend string `json:"backend,omitempty" msgpack:"backend,omitempty"`
}
