package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/tliron/commonlog"

	"github.com/daimatz/tinyjvm/pkg/classfile"
	"github.com/daimatz/tinyjvm/pkg/native"
)

// EntryPoint is the name of the method Execute runs.
const EntryPoint = "main"

// State is the lifecycle state of a VM.
type State int

const (
	// Running is the state from creation until the entry point halts or fails.
	Running State = iota
	Halted
	Failed
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Halted:
		return "halted"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// VM is the virtual machine that executes Java bytecode.
type VM struct {
	ClassFile *classfile.ClassFile
	Stdout    io.Writer

	state   State
	started bool
	out     *native.PrintStream
	log     commonlog.Logger
}

// NewVM creates a new VM with the given class file.
func NewVM(cf *classfile.ClassFile) *VM {
	return &VM{
		ClassFile: cf,
		Stdout:    os.Stdout,
		log:       commonlog.GetLogger("tinyjvm.vm"),
	}
}

// State returns the current lifecycle state.
func (vm *VM) State() State {
	return vm.state
}

// Execute finds and executes the main method of the class. A VM runs at
// most once; it ends Halted when main returns and Failed otherwise.
func (vm *VM) Execute() error {
	if vm.started {
		return fmt.Errorf("vm already %s", vm.state)
	}
	vm.started = true

	err := vm.execute()
	if err != nil {
		vm.state = Failed
		return err
	}
	vm.state = Halted
	return nil
}

func (vm *VM) execute() error {
	method := vm.ClassFile.FindMethodByName(EntryPoint)
	if method == nil {
		return fmt.Errorf("%w: class %s has no method named %q",
			ErrNoEntryPoint, vm.ClassFile.ThisClassName, EntryPoint)
	}
	code := method.Code()
	if code == nil {
		return fmt.Errorf("%w: method %s%s", ErrMissingCode, method.Name, method.Descriptor)
	}

	vm.out = &native.PrintStream{Writer: vm.Stdout}
	frame := NewFrame(code.MaxStack, code.Code, vm.ClassFile.ConstantPool)

	for frame.PC < len(frame.Code) {
		in, err := frame.Fetch()
		if err != nil {
			return vm.located(code, frame.PC, err)
		}
		info, _ := LookupOpcode(in.Opcode)
		vm.log.Debugf("pc=%d %s operands=%d stack=%d", in.PC, info.Mnemonic, len(in.Operands), frame.Depth())

		halt, err := vm.executeInstruction(frame, in)
		if err != nil {
			return vm.located(code, in.PC, err)
		}
		if halt {
			vm.log.Infof("%s.%s returned", vm.ClassFile.ThisClassName, method.Name)
			return nil
		}
	}

	return fmt.Errorf("%w: code of %s ended at pc %d without return",
		classfile.ErrTruncatedInput, method.Name, frame.PC)
}

// located adds the pc, and the source line when one is known, to err.
func (vm *VM) located(code *classfile.CodeAttribute, pc int, err error) error {
	var where string
	if line, ok := code.LineNumber(pc); ok {
		if src, ok := vm.ClassFile.SourceFile(); ok {
			where = fmt.Sprintf(" (%s:%d)", src, line)
		} else {
			where = fmt.Sprintf(" (line %d)", line)
		}
	}
	return fmt.Errorf("%s%s: %w", vm.ClassFile.ThisClassName, where, err)
}
