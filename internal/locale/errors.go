package locale

import "fmt"

// ReadError means a locale file is missing, unreadable or not a JSON object.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("cannot read locale file %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

func (e *ReadError) Is(target error) bool {
	t, ok := target.(*ReadError)
	if !ok {
		return false
	}
	return t.Path == "" || t.Path == e.Path
}

// WriteError means the merged catalog could not be encoded or persisted.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("cannot write locale file %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

func (e *WriteError) Is(target error) bool {
	t, ok := target.(*WriteError)
	if !ok {
		return false
	}
	return t.Path == "" || t.Path == e.Path
}
