// Package apperr defines the error taxonomy shared by the repository and
// HTTP layers. Handlers match these types with errors.As and nothing else.
package apperr

import "fmt"

// NotFoundError reports that no entity exists under the requested id.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with id %s not found", e.Entity, e.ID)
}

// NotFound builds a NotFoundError for the given entity kind and id.
func NotFound(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// Issue describes a single failed validation rule on a named field.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports a request body that failed schema validation.
type ValidationError struct {
	Message string
	Issues  []Issue
}

func (e *ValidationError) Error() string {
	return e.Message
}

// InvalidInput builds a ValidationError with the given field issues.
func InvalidInput(message string, issues ...Issue) *ValidationError {
	return &ValidationError{Message: message, Issues: issues}
}

// StorageError wraps a backend failure. Op names the operation that failed.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Storage wraps err as a StorageError for the named operation.
func Storage(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}
