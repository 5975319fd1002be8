package store

import (
	"errors"
	"fmt"
)

var (
	ErrConflict = errors.New("conflict")
	ErrNotFound = errors.New("not found")

	// Both wrap ErrConflict.
	ErrSlotTaken         = fmt.Errorf("%w: slot taken", ErrConflict)
	ErrDuplicateCallType = fmt.Errorf("%w: client already has this call type", ErrConflict)
)
