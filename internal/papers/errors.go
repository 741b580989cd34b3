package papers

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is matched by every input validation failure in this
// module, including catalog validation errors.
var ErrInvalidInput = errors.New("invalid input")

// InputError describes a rejected request field
type InputError struct {
	Field   string
	Value   any
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, fmt.Sprint(e.Value), e.Message)
}

func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}
