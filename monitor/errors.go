package monitor

import (
	"fmt"
)

// LoadAbortedError reports the chunk at which a load stopped.
type LoadAbortedError struct {
	// Chunk is the 0-based index of the chunk that failed
	Chunk int

	// Address is the load address of that chunk
	Address uint32

	// Err is the send or receive failure
	Err error
}

func (e *LoadAbortedError) Error() string {
	return fmt.Sprintf("load aborted at chunk %d (address 0x%x): %v", e.Chunk, e.Address, e.Err)
}

func (e *LoadAbortedError) Unwrap() error {
	return e.Err
}

// ReplyFormatError indicates a reply whose payload could not be decoded.
type ReplyFormatError struct {
	Operation string
	Payload   string
}

func (e *ReplyFormatError) Error() string {
	return fmt.Sprintf("%s: unexpected reply %q", e.Operation, e.Payload)
}
