package explain

import "fmt"

// GenerationError represents a failed or rejected model call
type GenerationError struct {
	Operation string
	Message   string
	Cause     error
}

func (e *GenerationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Operation, e.Message)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}
