package luacell

import "errors"

var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrNoKind is returned when a script's table has no kind.
	ErrNoKind = errors.New("lua renderer has no kind")

	// ErrNoDraw is returned when a script's table has no draw function.
	ErrNoDraw = errors.New("lua renderer has no draw function")
)
