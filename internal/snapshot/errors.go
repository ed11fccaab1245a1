package snapshot

import "fmt"

// PersistError represents a failed snapshot write
type PersistError struct {
	Message string
	Cause   error
}

func (e *PersistError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("snapshot persist error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("snapshot persist error: %s", e.Message)
}

func (e *PersistError) Unwrap() error {
	return e.Cause
}
