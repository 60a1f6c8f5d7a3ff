package api

// Envelope is the top-level shape of every JSON response.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OK wraps a payload in a success envelope.
func OK(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

// Fail wraps an error message in a failure envelope.
func Fail(message string) Envelope {
	return Envelope{Success: false, Error: message}
}
