package vm

import (
	"fmt"
	"strconv"

	"github.com/daimatz/tinyjvm/pkg/classfile"
)

// ValueType represents the type of a Value on the operand stack.
type ValueType int

const (
	TypeNull ValueType = iota
	TypeString
	TypeInt
	TypeRef
)

func (t ValueType) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeRef:
		return "reference"
	}
	return fmt.Sprintf("ValueType(%d)", int(t))
}

// Value represents a value on the operand stack.
type Value struct {
	Type ValueType
	Str  string
	Int  int32
	Ref  interface{}
}

// StringValue creates a text Value.
func StringValue(s string) Value {
	return Value{Type: TypeString, Str: s}
}

// IntValue creates an integer Value.
func IntValue(v int32) Value {
	return Value{Type: TypeInt, Int: v}
}

// RefValue creates a reference Value.
func RefValue(ref interface{}) Value {
	return Value{Type: TypeRef, Ref: ref}
}

// NullValue creates a null reference Value.
func NullValue() Value {
	return Value{Type: TypeNull}
}

// String returns the text println writes for the value.
func (v Value) String() string {
	switch v.Type {
	case TypeString:
		return v.Str
	case TypeInt:
		return strconv.Itoa(int(v.Int))
	case TypeRef:
		return fmt.Sprint(v.Ref)
	}
	return "null"
}

// Instruction is one decoded instruction.
type Instruction struct {
	PC       int
	Opcode   byte
	Operands []byte
}

// U8 returns the single operand byte.
func (in Instruction) U8() uint8 {
	return in.Operands[0]
}

// U16 returns the two operand bytes as a big-endian index.
func (in Instruction) U16() uint16 {
	return uint16(in.Operands[0])<<8 | uint16(in.Operands[1])
}

// Frame represents a stack frame for method execution.
type Frame struct {
	OperandStack []Value
	Code         []byte
	PC           int
	Pool         classfile.ConstantPool
}

// NewFrame creates a new Frame. maxStack only sizes the initial allocation.
func NewFrame(maxStack uint16, code []byte, pool classfile.ConstantPool) *Frame {
	return &Frame{
		OperandStack: make([]Value, 0, maxStack),
		Code:         code,
		PC:           0,
		Pool:         pool,
	}
}

// Push pushes a value onto the operand stack.
func (f *Frame) Push(v Value) {
	f.OperandStack = append(f.OperandStack, v)
}

// Pop pops a value from the operand stack.
func (f *Frame) Pop() (Value, error) {
	n := len(f.OperandStack)
	if n == 0 {
		return Value{}, fmt.Errorf("%w at pc %d", ErrStackUnderflow, f.PC)
	}
	v := f.OperandStack[n-1]
	f.OperandStack = f.OperandStack[:n-1]
	return v, nil
}

// Depth returns the number of values on the operand stack.
func (f *Frame) Depth() int {
	return len(f.OperandStack)
}

// Fetch decodes the instruction at PC and advances PC past it.
func (f *Frame) Fetch() (Instruction, error) {
	pc := f.PC
	opcode := f.Code[pc]
	info, ok := LookupOpcode(opcode)
	if !ok {
		return Instruction{}, fmt.Errorf("%w: 0x%02X at pc %d", ErrUnknownOpcode, opcode, pc)
	}
	end := pc + 1 + info.Arity
	if end > len(f.Code) {
		return Instruction{}, fmt.Errorf("%w: %s at pc %d needs %d operand bytes, code has %d",
			classfile.ErrTruncatedInput, info.Mnemonic, pc, info.Arity, len(f.Code)-pc-1)
	}
	f.PC = end
	return Instruction{PC: pc, Opcode: opcode, Operands: f.Code[pc+1 : end]}, nil
}
