package cities

import "fmt"

type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("cannot read cities dataset %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

func (e *ReadError) Is(target error) bool {
	_, ok := target.(*ReadError)
	return ok
}

// SchemaError points at the first record that lacks a required string field.
// Field is empty when the record itself is not a JSON object.
type SchemaError struct {
	Index  int
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("record %d: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("record %d: field %q %s", e.Index, e.Field, e.Reason)
}

func (e *SchemaError) Is(target error) bool {
	_, ok := target.(*SchemaError)
	return ok
}

type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("cannot write cities file %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

func (e *WriteError) Is(target error) bool {
	_, ok := target.(*WriteError)
	return ok
}
