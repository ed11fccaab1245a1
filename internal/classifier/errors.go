package classifier

import "fmt"

// ChunkError records why one chunk of candidates contributed nothing.
// It is logged, never returned to callers of Classify.
type ChunkError struct {
	Chunk   int
	Size    int
	Message string
	Cause   error
}

func (e *ChunkError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("classification chunk %d (%d candidates): %s: %v", e.Chunk, e.Size, e.Message, e.Cause)
	}
	return fmt.Sprintf("classification chunk %d (%d candidates): %s", e.Chunk, e.Size, e.Message)
}

func (e *ChunkError) Unwrap() error {
	return e.Cause
}
