package inspect

import (
	"fmt"

	"github.com/daimatz/tinyjvm/pkg/classfile"
	"github.com/daimatz/tinyjvm/pkg/vm"
)

// Disassemble renders code one instruction per line, resolving pool
// operands where possible. Decoding stops at the first opcode the
// interpreter does not know, since its length is unknown.
func Disassemble(code []byte, pool classfile.ConstantPool) []string {
	var lines []string
	for pc := 0; pc < len(code); {
		op := code[pc]
		info, ok := vm.LookupOpcode(op)
		if !ok {
			lines = append(lines, fmt.Sprintf("%4d: 0x%02x (unknown)", pc, op))
			break
		}
		end := pc + 1 + info.Arity
		if end > len(code) {
			lines = append(lines, fmt.Sprintf("%4d: %s (truncated)", pc, info.Mnemonic))
			break
		}
		lines = append(lines, fmt.Sprintf("%4d: %s", pc, operandText(info.Mnemonic, op, code[pc+1:end], pool)))
		pc = end
	}
	return lines
}

func operandText(mnemonic string, op byte, operands []byte, pool classfile.ConstantPool) string {
	switch op {
	case vm.OpLdc:
		index := uint16(operands[0])
		return fmt.Sprintf("%-13s #%d%s", mnemonic, index, comment(pool, index))
	case vm.OpGetstatic, vm.OpInvokevirtual:
		index := uint16(operands[0])<<8 | uint16(operands[1])
		return fmt.Sprintf("%-13s #%d%s", mnemonic, index, comment(pool, index))
	case vm.OpIload, vm.OpIstore:
		return fmt.Sprintf("%-13s %d", mnemonic, operands[0])
	}
	return mnemonic
}

// comment is the javap-style trailer naming what a pool operand refers to.
func comment(pool classfile.ConstantPool, index uint16) string {
	entry, err := pool.Resolve(index)
	if err != nil {
		return " // <invalid>"
	}
	text, err := resolvedText(pool, index)
	if err != nil {
		return " // <invalid>"
	}
	switch entry.(type) {
	case *classfile.ConstantString:
		return " // String " + text
	case *classfile.ConstantFieldref:
		return " // Field " + text
	case *classfile.ConstantMethodref:
		return " // Method " + text
	}
	return " // " + classfile.TagName(entry.Tag()) + " " + text
}
