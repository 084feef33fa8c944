package model

import (
	"errors"
	"fmt"
)

// Domain errors for schema and instance operations.
var (
	// ErrDefect is wrapped by every panic raised for a programming defect in
	// a model type's registration code or in a caller's preconditions.
	ErrDefect = errors.New("model: programming defect")

	// ErrParamNotFound indicates a name lookup that matched no slot.
	ErrParamNotFound = errors.New("model: parameter not found")

	// ErrParamRenamed indicates a lookup of an original name that the active
	// reparametrization has replaced.
	ErrParamRenamed = errors.New("model: parameter renamed by reparametrization")

	// ErrUnknownProperty indicates a property id or name outside the layout.
	ErrUnknownProperty = errors.New("model: unknown property")

	// ErrConstructOnly indicates a property that can only be given at construction.
	ErrConstructOnly = errors.New("model: property is construct-only")

	// ErrReadOnly indicates a write to a non-parameter property that a model
	// type derives from its parameters.
	ErrReadOnly = errors.New("model: property is read-only")

	// ErrPropertyType indicates a property value of the wrong Go type.
	ErrPropertyType = errors.New("model: wrong property value type")

	// ErrUnknownType indicates a registry lookup for an unregistered model type.
	ErrUnknownType = errors.New("model: unknown model type")

	// ErrDuplicateType indicates a second registration under the same name.
	ErrDuplicateType = errors.New("model: model type already registered")
)

// DefectError is the panic value for unrecoverable misuse.
type DefectError struct {
	Op  string
	Msg string
}

func (e *DefectError) Error() string {
	return fmt.Sprintf("model: %s: %s", e.Op, e.Msg)
}

func (e *DefectError) Unwrap() error {
	return ErrDefect
}

func defect(op, format string, args ...any) {
	panic(&DefectError{Op: op, Msg: fmt.Sprintf(format, args...)})
}

// RenamedParamError reports a name that resolves in the original space but
// whose slot is now described by the reparametrization under another name.
type RenamedParamError struct {
	Name    string
	NewName string
	Index   int
}

func (e *RenamedParamError) Error() string {
	return fmt.Sprintf("model: parameter %q (index %d) was changed by the reparametrization, it is now named %q", e.Name, e.Index, e.NewName)
}

func (e *RenamedParamError) Unwrap() error {
	return ErrParamRenamed
}
