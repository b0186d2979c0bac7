package types

// Envelope is the uniform response body for every API operation. Business
// outcomes, success or failure, ship inside it with HTTP 200; only transport
// level failures use other status codes.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// ErrorData carries machine-readable failure details inside the envelope.
type ErrorData struct {
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}
