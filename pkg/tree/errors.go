package tree

import "fmt"

// NotFoundError reports an operation against a node id that is not in
// the store.
type NotFoundError struct {
	ID uint64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("node %d not found", e.ID)
}
