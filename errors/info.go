package errors

import (
	"fmt"
)

const (
	// SuccessCode signals that the processing was successful and no error
	// is returned.
	SuccessCode uint32 = 0

	internalLog = "internal error"
)

// Info returns the error code and message that can be exposed to a client.
// Any error that does not wrap a registered root error is categorized as an
// internal error and, when not running in debug mode, its message is replaced
// with a generic one.
func Info(err error, debug bool) (uint32, string) {
	if isNilErr(err) {
		return SuccessCode, ""
	}

	code := Code(err)
	if code == ErrInternal.code || code == ErrPanic.code {
		if debug {
			return code, fmt.Sprintf("%+v", err)
		}
		return ErrInternal.code, internalLog
	}
	if debug {
		return code, fmt.Sprintf("%+v", err)
	}
	return code, err.Error()
}

// Code returns the code of the first registered root error found by
// unwrapping given error. Unregistered errors are internal.
func Code(err error) uint32 {
	if isNilErr(err) {
		return SuccessCode
	}
	for {
		if e, ok := err.(*Error); ok {
			return e.code
		}
		if u, ok := err.(unpacker); ok {
			if errs := u.Unpack(); len(errs) > 0 {
				return Code(errs[0])
			}
		}
		if c, ok := err.(causer); ok {
			err = c.Cause()
		} else {
			return ErrInternal.code
		}
	}
}

// Redact replaces all errors that were not created from a registered root
// error with a generic internal error instance, hiding implementation
// details.
//
// This is a no-operation function when running in debug mode.
func Redact(err error, debug bool) error {
	if debug || isNilErr(err) {
		return err
	}
	switch Code(err) {
	case ErrInternal.code, ErrPanic.code:
		return ErrInternal
	}
	return err
}
