package network

import "fmt"

// LoadError represents a failure reading the user's network from the store
type LoadError struct {
	Message string
	Cause   error
}

func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("network load error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("network load error: %s", e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}
