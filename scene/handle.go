package scene

import "fmt"

// Handle references an object owned by a Scene. Zero is the nil handle.
type Handle uint32

const NilHandle Handle = 0

func (h Handle) IsNil() bool {
	return h == NilHandle
}

func (h Handle) String() string {
	return fmt.Sprintf("#%d", uint32(h))
}
