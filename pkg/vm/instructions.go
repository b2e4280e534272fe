package vm

import (
	"fmt"
)

// executeInstruction executes a single decoded instruction.
// Returns true when the method has returned.
func (vm *VM) executeInstruction(frame *Frame, in Instruction) (bool, error) {
	switch in.Opcode {
	case OpLdc:
		return false, vm.executeLdc(frame, uint16(in.U8()))

	case OpGetstatic:
		return false, vm.executeGetstatic(frame, in.U16())

	case OpInvokevirtual:
		return false, vm.executeInvokevirtual(frame, in.U16())

	case OpReturn:
		return true, nil

	case OpIconst3, OpIload, OpIstore, OpIreturn:
		info, _ := LookupOpcode(in.Opcode)
		return false, fmt.Errorf("%w: %s at pc %d", ErrUnimplementedOpcode, info.Mnemonic, in.PC)
	}

	return false, fmt.Errorf("%w: 0x%02X at pc %d", ErrUnknownOpcode, in.Opcode, in.PC)
}

// executeLdc handles the ldc instruction. Only String constants are loadable.
func (vm *VM) executeLdc(frame *Frame, index uint16) error {
	s, err := frame.Pool.StringValue(index)
	if err != nil {
		return fmt.Errorf("ldc #%d: %w", index, err)
	}
	frame.Push(StringValue(s))
	return nil
}

// executeGetstatic handles the getstatic instruction. Static fields have no
// storage here; the pushed value names the field, e.g. "java/lang/System.out".
func (vm *VM) executeGetstatic(frame *Frame, index uint16) error {
	ref, err := frame.Pool.MemberRef(index)
	if err != nil {
		return fmt.Errorf("getstatic #%d: %w", index, err)
	}
	className, err := frame.Pool.ClassName(ref.ClassIndex)
	if err != nil {
		return fmt.Errorf("getstatic #%d: %w", index, err)
	}
	member, err := frame.Pool.MemberName(ref.NameAndTypeIndex)
	if err != nil {
		return fmt.Errorf("getstatic #%d: %w", index, err)
	}
	frame.Push(StringValue(className + "." + member))
	return nil
}

// executeInvokevirtual handles the invokevirtual instruction. println is
// the only method that can be invoked; it takes exactly one argument.
func (vm *VM) executeInvokevirtual(frame *Frame, index uint16) error {
	ref, err := frame.Pool.MemberRef(index)
	if err != nil {
		return fmt.Errorf("invokevirtual #%d: %w", index, err)
	}
	name, err := frame.Pool.MemberName(ref.NameAndTypeIndex)
	if err != nil {
		return fmt.Errorf("invokevirtual #%d: %w", index, err)
	}
	if name != "println" {
		return fmt.Errorf("%w: invokevirtual of %q", ErrUnsupportedOperation, name)
	}

	arg, err := frame.Pop()
	if err != nil {
		return fmt.Errorf("invokevirtual println argument: %w", err)
	}
	if _, err := frame.Pop(); err != nil {
		return fmt.Errorf("invokevirtual println receiver: %w", err)
	}
	return vm.out.Println(arg.String())
}
