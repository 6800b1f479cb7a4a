package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Append clubs together all provided errors. Nil values are ignored.
//
// If more than one non nil error is given, the returned error matches any of
// them when tested with (*Error).Is.
func Append(errs ...error) error {
	var res multiErr
	for _, e := range errs {
		if isNilErr(e) {
			continue
		}
		// Flatten, so that nested multi errors do not grow in depth.
		if m, ok := e.(multiErr); ok {
			res = append(res, m...)
		} else {
			res = append(res, e)
		}
	}

	switch len(res) {
	case 0:
		return nil
	case 1:
		return res[0]
	default:
		return res
	}
}

// unpacker is implemented by errors that are a collection of other errors.
type unpacker interface {
	Unpack() []error
}

type multiErr []error

var _ unpacker = multiErr(nil)

func (errs multiErr) Unpack() []error {
	return errs
}

func (errs multiErr) Error() string {
	points := make([]string, len(errs))
	for i, err := range errs {
		points[i] = fmt.Sprintf("* %s", err)
	}
	return fmt.Sprintf("%d errors occurred:\n\t%s\n", len(errs), strings.Join(points, "\n\t"))
}

// Path returns the dotted path of a message field. Collection elements are
// addressed by their index, so Path("Signers.Cards", 2) is "Signers.Cards.2".
func Path(segments ...interface{}) string {
	parts := make([]string, len(segments))
	for i, s := range segments {
		parts[i] = fmt.Sprint(s)
	}
	return strings.Join(parts, ".")
}

// Field binds err to the message field found under path. It returns nil if
// err is nil. A stack trace is attached unless err already carries one.
func Field(path string, err error, description string, args ...interface{}) error {
	if isNilErr(err) {
		return nil
	}
	if len(args) > 0 {
		description = fmt.Sprintf(description, args...)
	}
	if stackTrace(err) == nil {
		err = errors.WithStack(err)
	}
	return &fieldError{path: path, desc: description, cause: err}
}

// AppendField adds the error of the field under path to errs. Both errs and
// err may be nil.
func AppendField(errs error, path string, err error) error {
	return Append(errs, Field(path, err, ""))
}

// FieldErrors returns the errors bound to the field under path, in the
// order they were appended.
func FieldErrors(err error, path string) []error {
	var found []error
	walk(err, func(e error) bool {
		f, ok := e.(*fieldError)
		if ok && f.path == path {
			found = append(found, e)
		}
		return !ok
	})
	return found
}

type fieldError struct {
	path  string
	desc  string
	cause error
}

func (e *fieldError) Error() string {
	if e.desc == "" {
		return fmt.Sprintf("%s: %s", e.path, e.cause)
	}
	return fmt.Sprintf("%s: %s: %s", e.path, e.desc, e.cause)
}

func (e *fieldError) Cause() error {
	return e.cause
}

// walk calls fn with err and every error it contains, depth first. Errors
// wrapped by e are skipped when fn(e) returns false.
func walk(err error, fn func(error) bool) {
	for !isNilErr(err) && fn(err) {
		switch e := err.(type) {
		case unpacker:
			for _, child := range e.Unpack() {
				walk(child, fn)
			}
			return
		case causer:
			err = e.Cause()
		default:
			return
		}
	}
}
