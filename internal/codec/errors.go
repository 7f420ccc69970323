package codec

import (
	"fmt"
	"strings"
)

// PersistenceError is an I/O or codec failure while saving or loading.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("collection %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("collection %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// SchemaViolation means a file decoded but does not have the collection shape.
type SchemaViolation struct {
	Path     string
	Problems []string
}

func (e *SchemaViolation) Error() string {
	where := "collection"
	if e.Path != "" {
		where = e.Path
	}
	return fmt.Sprintf("%s does not match the collection schema:\n- %s", where, strings.Join(e.Problems, "\n- "))
}
