package walk

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("walk session not found")
	ErrForbidden    = errors.New("not your walk session")
	ErrConflict     = errors.New("walk session conflict")
	ErrInvalidInput = errors.New("invalid input")
)

// Both wrap ErrConflict.
var (
	ErrAlreadyWalking = fmt.Errorf("%w: already has an active walk session", ErrConflict)
	ErrNotActive      = fmt.Errorf("%w: walk session is not active", ErrConflict)
)
