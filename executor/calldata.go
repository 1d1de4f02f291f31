package executor

// DefaultEntry is the WASI command entry point.
const DefaultEntry = "_start"

// CallData is the immutable input of one call.
type CallData struct {
	// StartFunc names the exported entry function. Empty means DefaultEntry.
	StartFunc string `json:"start_func,omitempty"`
	// Args follow argv[0], which is always the entry name.
	Args []string          `json:"args"`
	Envs map[string]string `json:"envs"`

	// Mode selects the host import set. The executor only passes it on to
	// the ImportBuilder.
	Mode string `json:"vm_mode,omitempty"`
}

// Entry returns the entry function name.
func (c CallData) Entry() string {
	if c.StartFunc == "" {
		return DefaultEntry
	}
	return c.StartFunc
}
