package vm

// Opcodes
const (
	OpIconst3       = 0x06
	OpLdc           = 0x12
	OpIload         = 0x15
	OpIstore        = 0x36
	OpIreturn       = 0xAC
	OpReturn        = 0xB1
	OpGetstatic     = 0xB2
	OpInvokevirtual = 0xB6
)

// OpcodeInfo describes an opcode the interpreter recognizes.
type OpcodeInfo struct {
	Mnemonic string
	// Arity is the number of operand bytes following the opcode.
	Arity int
	// Implemented is false for opcodes that are decoded but rejected.
	Implemented bool
}

var opcodeTable = map[byte]OpcodeInfo{
	OpIconst3:       {Mnemonic: "iconst_3", Arity: 0},
	OpLdc:           {Mnemonic: "ldc", Arity: 1, Implemented: true},
	OpIload:         {Mnemonic: "iload", Arity: 1},
	OpIstore:        {Mnemonic: "istore", Arity: 1},
	OpIreturn:       {Mnemonic: "ireturn", Arity: 0},
	OpReturn:        {Mnemonic: "return", Arity: 0, Implemented: true},
	OpGetstatic:     {Mnemonic: "getstatic", Arity: 2, Implemented: true},
	OpInvokevirtual: {Mnemonic: "invokevirtual", Arity: 2, Implemented: true},
}

// LookupOpcode reports whether op is in the opcode table.
func LookupOpcode(op byte) (OpcodeInfo, bool) {
	info, ok := opcodeTable[op]
	return info, ok
}
