package api

// ErrorResponse is the JSON error envelope every handler returns on
// failure.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse acknowledges an operation that produces no body.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// acknowledged is the canonical success acknowledgement body.
var acknowledged = SuccessResponse{Success: true}
