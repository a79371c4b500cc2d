package history

import "errors"

// Common errors for history operations.
var (
	// ErrNoEngine is returned when a manager is used without a canvas engine.
	ErrNoEngine = errors.New("history: no canvas engine")

	// ErrSerialization marks a failure of the engine to serialize the scene.
	ErrSerialization = errors.New("history: scene serialization failed")
)

// SerializationError wraps the engine error raised while taking a snapshot.
// It is fatal for the commit that triggered it; the timeline is unchanged.
type SerializationError struct {
	Err error
}

func (e *SerializationError) Error() string {
	return ErrSerialization.Error() + ": " + e.Err.Error()
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

// Is matches ErrSerialization.
func (e *SerializationError) Is(target error) bool {
	return target == ErrSerialization
}
