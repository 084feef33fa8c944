package reparam

import "errors"

var (
	ErrNoParams    = errors.New("reparam: no parameters selected")
	ErrDomain      = errors.New("reparam: parameter outside the transform domain")
	ErrSingular    = errors.New("reparam: singular transform matrix")
	ErrShape       = errors.New("reparam: matrix or offset does not match the model")
	ErrUnknownKind = errors.New("reparam: unknown kind")
)
