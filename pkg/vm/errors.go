package vm

import (
	"errors"

	"github.com/daimatz/tinyjvm/pkg/classfile"
)

// Error kinds reported by the interpreter.
var (
	ErrNoEntryPoint         = errors.New("no entry point")
	ErrMissingCode          = errors.New("missing Code attribute")
	ErrUnknownOpcode        = errors.New("unknown opcode")
	ErrUnimplementedOpcode  = errors.New("unimplemented opcode")
	ErrUnsupportedOperation = errors.New("unsupported operation")
	ErrStackUnderflow       = errors.New("operand stack underflow")
)

var kinds = []struct {
	err  error
	name string
}{
	{classfile.ErrBadMagic, "BadMagic"},
	{classfile.ErrMalformedConstantPool, "MalformedConstantPool"},
	{classfile.ErrIndexOutOfRange, "IndexOutOfRange"},
	{classfile.ErrUnsupportedFeature, "UnsupportedFeature"},
	{classfile.ErrUnknownAttribute, "UnknownAttribute"},
	{classfile.ErrMalformedAttribute, "MalformedAttribute"},
	{classfile.ErrTruncatedInput, "TruncatedInput"},
	{ErrNoEntryPoint, "NoEntryPoint"},
	{ErrMissingCode, "MissingCode"},
	{ErrUnknownOpcode, "UnknownOpcode"},
	{ErrUnimplementedOpcode, "UnimplementedOpcode"},
	{ErrUnsupportedOperation, "UnsupportedOperation"},
	{ErrStackUnderflow, "StackUnderflow"},
}

// Kind names the error kind err belongs to, or "" if it is none of the
// reader's or interpreter's kinds.
func Kind(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return ""
}
