package types

// SuccessEnvelope is the wire shape every successful handler responds with.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError carries the machine readable code alongside a human message.
// Details holds field level validation output when present.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope is the wire shape for failed requests.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
