package customers

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no customer has the requested id.
	ErrNotFound = errors.New("customer not found")
	// ErrDuplicateIdentifier is returned when another customer already uses
	// the AnyDesk ID.
	ErrDuplicateIdentifier = errors.New("AnyDesk ID already exists")
	// ErrValidation is returned when a required field is missing.
	ErrValidation = errors.New("validation failed")
)

// MsgRequiredFields is the user-facing text for a create without name or
// AnyDesk ID.
const MsgRequiredFields = "Name and AnyDesk ID are required"

var (
	// errRequiredFields is what Create returns for MsgRequiredFields.
	errRequiredFields = fmt.Errorf("%w: name and AnyDesk ID are required", ErrValidation)
)
