package scene

import "errors"

// Errors returned by the canvas.
var (
	// ErrObjectNotFound is returned when no object has the given identity.
	ErrObjectNotFound = errors.New("object not found")

	// ErrDuplicateID is returned when adding an object whose identity is taken.
	ErrDuplicateID = errors.New("duplicate object id")

	// ErrUnknownObjectType is returned when a snapshot names an unknown type.
	ErrUnknownObjectType = errors.New("unknown object type")

	// ErrNilObject is returned when adding a nil object.
	ErrNilObject = errors.New("nil object")
)

// DecodeError is returned by Load when a snapshot cannot be parsed.
// The scene is left untouched.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "scene: decode snapshot: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
