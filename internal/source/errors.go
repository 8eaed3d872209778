package source

import "fmt"

// DecodeError marks a single page that could not be opened or decoded.
// It is recovered by skipping the page.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// DirectoryError means the input location is missing or not a directory.
type DirectoryError struct {
	Path string
	Err  error
}

func (e *DirectoryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("input %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("input %s is not a directory", e.Path)
}

func (e *DirectoryError) Unwrap() error { return e.Err }
