package hostfunc

// HTTP fetch types, exchanged with the guest as JSON.

type HTTPFetchRequest struct {
	URL     string            `json:"url"`
	Method  string            `json:"method,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    string            `json:"body,omitempty"`
}

// HTTPFetchResponse is what the guest reads back. Truncated is set when the
// body was cut at the configured maximum size.
type HTTPFetchResponse struct {
	Status    int               `json:"status"`
	Headers   map[string]string `json:"headers,omitempty"`
	Body      string            `json:"body"`
	Truncated bool              `json:"truncated,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// Log levels accepted by the log import.
const (
	LogDebug uint32 = iota
	LogInfo
	LogWarn
	LogError
)
