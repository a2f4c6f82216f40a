package types

// SuccessEnvelope wraps successful API responses.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public error shape.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps error API responses.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
