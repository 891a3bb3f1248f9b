package library

import (
	"errors"
	"fmt"
)

// ErrNotFound is matched by every *NotFoundError.
var ErrNotFound = errors.New("not found")

// ErrInvalidSeed is returned when a seed file cannot be used.
var ErrInvalidSeed = errors.New("invalid seed")

// NotFoundError reports a lookup by id that matched nothing.
type NotFoundError struct {
	Kind string
	ID   int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("couldn't find %s with id %d", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// Extensions is picked up by the executor and reported in the GraphQL
// error's "extensions" member.
func (e *NotFoundError) Extensions() map[string]any {
	return map[string]any{"code": "NOT_FOUND", "id": e.ID}
}
