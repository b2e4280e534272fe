package vm

import (
	"bytes"
	"errors"
	"testing"

	"github.com/tliron/commonlog"

	"github.com/daimatz/tinyjvm/pkg/classfile"
	"github.com/daimatz/tinyjvm/pkg/classfile/classfiletest"
	"github.com/daimatz/tinyjvm/pkg/native"
)

// step runs code instruction by instruction until it halts or fails,
// returning the frame so tests can inspect the operand stack.
func step(t *testing.T, pool classfile.ConstantPool, code []byte) (*Frame, string, error) {
	t.Helper()

	var out bytes.Buffer
	v := &VM{Stdout: &out, out: &native.PrintStream{Writer: &out}, log: commonlog.GetLogger("tinyjvm.vm")}
	frame := NewFrame(4, code, pool)

	for frame.PC < len(frame.Code) {
		in, err := frame.Fetch()
		if err != nil {
			return frame, out.String(), err
		}
		halt, err := v.executeInstruction(frame, in)
		if err != nil || halt {
			return frame, out.String(), err
		}
	}
	return frame, out.String(), nil
}

func TestLdc(t *testing.T) {
	b := classfiletest.New("T")
	s := b.StringRef("constant")

	frame, _, err := step(t, b.ClassFile().ConstantPool, []byte{OpLdc, byte(s)})
	if err != nil {
		t.Fatalf("ldc: %v", err)
	}
	if frame.Depth() != 1 {
		t.Fatalf("stack depth: got %d, want 1", frame.Depth())
	}
	v, _ := frame.Pop()
	if v.Type != TypeString || v.Str != "constant" {
		t.Errorf("pushed %s %q, want string %q", v.Type, v.Str, "constant")
	}
}

func TestGetstatic(t *testing.T) {
	tests := []struct {
		name  string
		class string
		field string
		want  string
	}{
		{"System.out", "java/lang/System", "out", "java/lang/System.out"},
		{"System.err", "java/lang/System", "err", "java/lang/System.err"},
		{"any field", "a/B", "c", "a/B.c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := classfiletest.New("T")
			ref := b.Fieldref(tt.class, tt.field, "Ljava/lang/Object;")

			frame, _, err := step(t, b.ClassFile().ConstantPool, []byte{OpGetstatic, byte(ref >> 8), byte(ref)})
			if err != nil {
				t.Fatalf("getstatic: %v", err)
			}
			v, _ := frame.Pop()
			if v.Str != tt.want {
				t.Errorf("pushed %q, want %q", v.Str, tt.want)
			}
		})
	}
}

func TestGetstaticAcceptsMethodref(t *testing.T) {
	b := classfiletest.New("T")
	ref := b.Methodref("java/io/PrintStream", "println", "(Ljava/lang/String;)V")

	frame, _, err := step(t, b.ClassFile().ConstantPool, []byte{OpGetstatic, byte(ref >> 8), byte(ref)})
	if err != nil {
		t.Fatalf("getstatic: %v", err)
	}
	v, _ := frame.Pop()
	if v.Str != "java/io/PrintStream.println" {
		t.Errorf("pushed %q", v.Str)
	}
}

func TestInvokevirtualPrintln(t *testing.T) {
	b, refs := classfiletest.HelloWorld("Hello, World!")

	frame, out, err := step(t, b.ClassFile().ConstantPool, classfiletest.HelloCode(refs))
	if err != nil {
		t.Fatalf("execution error: %v", err)
	}
	if out != "Hello, World!\n" {
		t.Errorf("output: got %q, want %q", out, "Hello, World!\n")
	}
	if frame.Depth() != 0 {
		t.Errorf("stack depth after println: got %d, want 0", frame.Depth())
	}
}

func TestInvokevirtualIgnoresReceiver(t *testing.T) {
	// The receiver is popped but never inspected.
	b := classfiletest.New("T")
	s := b.StringRef("anything")
	pl := b.Methodref("java/io/PrintStream", "println", "(Ljava/lang/String;)V")
	code := []byte{OpLdc, byte(s), OpLdc, byte(s), OpInvokevirtual, byte(pl >> 8), byte(pl), OpReturn}

	_, out, err := step(t, b.ClassFile().ConstantPool, code)
	if err != nil {
		t.Fatalf("execution error: %v", err)
	}
	if out != "anything\n" {
		t.Errorf("output: got %q", out)
	}
}

func TestInvokevirtualUnsupported(t *testing.T) {
	for _, name := range []string{"print", "toString", "hashCode"} {
		t.Run(name, func(t *testing.T) {
			b := classfiletest.New("T")
			s := b.StringRef("x")
			m := b.Methodref("java/lang/Object", name, "()V")
			code := []byte{OpLdc, byte(s), OpLdc, byte(s), OpInvokevirtual, byte(m >> 8), byte(m)}

			frame, out, err := step(t, b.ClassFile().ConstantPool, code)
			if !errors.Is(err, ErrUnsupportedOperation) {
				t.Fatalf("got %v, want ErrUnsupportedOperation", err)
			}
			if out != "" {
				t.Errorf("output: got %q, want none", out)
			}
			if frame.Depth() != 2 {
				t.Errorf("stack touched before failing: depth %d", frame.Depth())
			}
		})
	}
}

func TestUnimplementedOpcodes(t *testing.T) {
	tests := []struct {
		name string
		code []byte
	}{
		{"iconst_3", []byte{OpIconst3}},
		{"iload", []byte{OpIload, 0x00}},
		{"istore", []byte{OpIstore, 0x01}},
		{"ireturn", []byte{OpIreturn}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, _, err := step(t, nil, append(tt.code, OpReturn))
			if !errors.Is(err, ErrUnimplementedOpcode) {
				t.Fatalf("got %v, want ErrUnimplementedOpcode", err)
			}
			if frame.PC != len(tt.code) {
				t.Errorf("pc after failure: got %d, want %d", frame.PC, len(tt.code))
			}
		})
	}
}

func TestReturnHalts(t *testing.T) {
	frame, _, err := step(t, nil, []byte{OpReturn, 0x00})
	if err != nil {
		t.Fatalf("return: %v", err)
	}
	if frame.PC != 1 {
		t.Errorf("pc after return: got %d, want 1", frame.PC)
	}
}
