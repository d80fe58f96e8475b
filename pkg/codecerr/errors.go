// Package codecerr defines the error kinds reported by the codec.
//
// Each kind is a distinct struct type so callers can classify failures
// with errors.As. Lossy quantization error is never reported as an error;
// only structural mismatches are.
package codecerr

import "fmt"

// NoFrame marks an error that is not tied to a specific frame.
const NoFrame = 0

// ConfigError reports an invalid configuration or input geometry.
// It is raised before any frame is processed.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// Config creates a ConfigError.
func Config(field, format string, args ...interface{}) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ShapeError reports a geometry mismatch, such as a macroblock count that
// does not match the frame dimensions.
type ShapeError struct {
	Op     string
	Frame  int
	Reason string
}

func (e *ShapeError) Error() string {
	if e.Frame != NoFrame {
		return fmt.Sprintf("shape: %s (frame %d): %s", e.Op, e.Frame, e.Reason)
	}
	return fmt.Sprintf("shape: %s: %s", e.Op, e.Reason)
}

// Shape creates a ShapeError.
func Shape(op, format string, args ...interface{}) error {
	return &ShapeError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

// DecodeError reports an undecodable entropy stream, an unknown frame type
// or a missing reference frame.
type DecodeError struct {
	Op     string
	Frame  int
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	msg := e.Reason
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = msg + ": " + e.Err.Error()
		}
	}
	if e.Frame != NoFrame {
		return fmt.Sprintf("decode: %s (frame %d): %s", e.Op, e.Frame, msg)
	}
	return fmt.Sprintf("decode: %s: %s", e.Op, msg)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decode creates a DecodeError.
func Decode(op, format string, args ...interface{}) error {
	return &DecodeError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

// FormatError reports metadata that disagrees with the bit buffer.
type FormatError struct {
	Op     string
	Frame  int
	Reason string
}

func (e *FormatError) Error() string {
	if e.Frame != NoFrame {
		return fmt.Sprintf("format: %s (frame %d): %s", e.Op, e.Frame, e.Reason)
	}
	return fmt.Sprintf("format: %s: %s", e.Op, e.Reason)
}

// Format creates a FormatError.
func Format(op, format string, args ...interface{}) error {
	return &FormatError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

// WithFrame attaches a frame number to a ShapeError, DecodeError or
// FormatError. Other errors are returned unchanged.
func WithFrame(err error, frame int) error {
	switch e := err.(type) {
	case nil:
		return nil
	case *ShapeError:
		c := *e
		c.Frame = frame
		return &c
	case *DecodeError:
		c := *e
		c.Frame = frame
		return &c
	case *FormatError:
		c := *e
		c.Frame = frame
		return &c
	default:
		return err
	}
}
