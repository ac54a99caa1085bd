package logger

import "errors"

// TaggedError is an error that remembers which logger tag reported it, so the
// CLI boundary can log it under that tag.
type TaggedError struct {
	tag string
	err error
}

func (e *TaggedError) Error() string {
	if e == nil || e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e *TaggedError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

// Tag returns the associated logger tag
func (e *TaggedError) Tag() string {
	if e == nil {
		return ""
	}
	return e.tag
}

// WithTag wraps err with a logger tag. An error that already carries a tag
// keeps it; nil stays nil.
func WithTag(tag string, err error) error {
	if err == nil {
		return nil
	}
	if ErrorTag(err) != "" {
		return err
	}
	return &TaggedError{tag: tag, err: err}
}

// ErrorTag extracts the logger tag from an error chain
func ErrorTag(err error) string {
	var tagged *TaggedError
	if errors.As(err, &tagged) {
		return tagged.Tag()
	}
	return ""
}
