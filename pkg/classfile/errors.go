package classfile

import "errors"

// Error kinds reported by the reader. Callers test for them with errors.Is;
// the wrapped message carries the location.
var (
	ErrBadMagic              = errors.New("bad magic")
	ErrMalformedConstantPool = errors.New("malformed constant pool")
	ErrIndexOutOfRange       = errors.New("index out of range")
	ErrUnsupportedFeature    = errors.New("unsupported feature")
	ErrUnknownAttribute      = errors.New("unknown attribute")
	ErrMalformedAttribute    = errors.New("malformed attribute")
	ErrTruncatedInput        = errors.New("truncated input")
)
