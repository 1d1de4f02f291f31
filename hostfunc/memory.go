package hostfunc

import (
	"fmt"

	"github.com/tetratelabs/wazero/api"
)

// MemoryFault is the panic value raised when a host function touches guest
// memory out of bounds. wazero turns it into a trap of the calling guest.
type MemoryFault struct {
	Offset uint32
	Length uint32
}

func (f MemoryFault) Error() string {
	return fmt.Sprintf("memory access out of bounds: offset %d length %d", f.Offset, f.Length)
}

func (c *Call) memory() api.Memory {
	mem := c.State.Memory()
	if mem == nil {
		panic("guest memory not bound")
	}
	return mem
}

// read copies length bytes at ptr out of guest memory.
func (c *Call) read(ptr, length uint32) []byte {
	b, ok := c.memory().Read(ptr, length)
	if !ok {
		panic(MemoryFault{Offset: ptr, Length: length})
	}
	return append([]byte(nil), b...)
}

// write copies data into guest memory at ptr.
func (c *Call) write(ptr uint32, data []byte) {
	if !c.memory().Write(ptr, data) {
		panic(MemoryFault{Offset: ptr, Length: uint32(len(data))})
	}
}
