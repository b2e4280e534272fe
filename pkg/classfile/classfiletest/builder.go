// Package classfiletest assembles class files in memory for tests.
package classfiletest

import (
	"github.com/daimatz/tinyjvm/pkg/classfile"
)

// Builder accumulates constant pool entries, methods and attributes. Pool
// helpers return the 1-based index of the entry they add, reusing an
// identical Utf8 entry when one exists.
type Builder struct {
	cf   classfile.ClassFile
	utf8 map[string]uint16
}

// New starts a public class named className extending java/lang/Object,
// with major version 52.
func New(className string) *Builder {
	b := &Builder{utf8: make(map[string]uint16)}
	b.cf.Magic = classfile.Magic
	b.cf.MajorVersion = 52
	b.cf.AccessFlags = classfile.AccPublic | classfile.AccSuper
	b.cf.ThisClass = b.Class(className)
	b.cf.ThisClassName = className
	b.cf.SuperClass = b.Class("java/lang/Object")
	b.cf.SuperClassName = "java/lang/Object"
	return b
}

// Add appends a raw entry and returns its index.
func (b *Builder) Add(entry classfile.ConstantPoolEntry) uint16 {
	b.cf.ConstantPool = append(b.cf.ConstantPool, entry)
	return uint16(len(b.cf.ConstantPool))
}

func (b *Builder) Utf8(s string) uint16 {
	if idx, ok := b.utf8[s]; ok {
		return idx
	}
	idx := b.Add(&classfile.ConstantUtf8{Value: s})
	b.utf8[s] = idx
	return idx
}

func (b *Builder) Class(name string) uint16 {
	return b.Add(&classfile.ConstantClass{NameIndex: b.Utf8(name)})
}

func (b *Builder) StringRef(s string) uint16 {
	return b.Add(&classfile.ConstantString{StringIndex: b.Utf8(s)})
}

func (b *Builder) NameAndType(name, descriptor string) uint16 {
	return b.Add(&classfile.ConstantNameAndType{NameIndex: b.Utf8(name), DescriptorIndex: b.Utf8(descriptor)})
}

func (b *Builder) Fieldref(class, name, descriptor string) uint16 {
	c := b.Class(class)
	return b.Add(&classfile.ConstantFieldref{ClassIndex: c, NameAndTypeIndex: b.NameAndType(name, descriptor)})
}

func (b *Builder) Methodref(class, name, descriptor string) uint16 {
	c := b.Class(class)
	return b.Add(&classfile.ConstantMethodref{ClassIndex: c, NameAndTypeIndex: b.NameAndType(name, descriptor)})
}

// Code builds a Code attribute with the given bytecode and nested attributes.
func (b *Builder) Code(maxStack, maxLocals uint16, code []byte, nested ...classfile.Attribute) *classfile.CodeAttribute {
	if nested == nil {
		nested = []classfile.Attribute{}
	}
	return &classfile.CodeAttribute{
		NameIndex:  b.Utf8(classfile.AttrCode),
		MaxStack:   maxStack,
		MaxLocals:  maxLocals,
		Code:       code,
		Attributes: nested,
	}
}

// LineNumbers builds a LineNumberTable from (start_pc, line) pairs.
func (b *Builder) LineNumbers(pairs ...uint16) *classfile.LineNumberTableAttribute {
	lnt := &classfile.LineNumberTableAttribute{
		NameIndex: b.Utf8(classfile.AttrLineNumberTable),
		Entries:   []classfile.LineNumber{},
	}
	for i := 0; i+1 < len(pairs); i += 2 {
		lnt.Entries = append(lnt.Entries, classfile.LineNumber{StartPC: pairs[i], LineNumber: pairs[i+1]})
	}
	return lnt
}

// Method adds a method with the given attributes.
func (b *Builder) Method(flags uint16, name, descriptor string, attrs ...classfile.Attribute) *Builder {
	if attrs == nil {
		attrs = []classfile.Attribute{}
	}
	b.cf.Methods = append(b.cf.Methods, classfile.MethodInfo{
		AccessFlags:     flags,
		NameIndex:       b.Utf8(name),
		Name:            name,
		DescriptorIndex: b.Utf8(descriptor),
		Descriptor:      descriptor,
		Attributes:      attrs,
	})
	return b
}

// Main adds public static void main(String[]) with the given bytecode.
func (b *Builder) Main(code []byte) *Builder {
	return b.Method(classfile.AccPublic|classfile.AccStatic, "main", "([Ljava/lang/String;)V", b.Code(2, 1, code))
}

// SourceFile adds a class-level SourceFile attribute.
func (b *Builder) SourceFile(name string) *Builder {
	b.cf.Attributes = append(b.cf.Attributes, &classfile.SourceFileAttribute{
		NameIndex:       b.Utf8(classfile.AttrSourceFile),
		SourceFileIndex: b.Utf8(name),
	})
	return b
}

// ClassFile returns the assembled class. Nil attribute lists are
// normalized to empty so the result compares equal to a parsed copy.
func (b *Builder) ClassFile() *classfile.ClassFile {
	cf := b.cf
	if cf.Methods == nil {
		cf.Methods = []classfile.MethodInfo{}
	}
	if cf.Attributes == nil {
		cf.Attributes = []classfile.Attribute{}
	}
	return &cf
}

// Bytes encodes the class. It panics on an encoding failure, which only a
// malformed Builder can cause.
func (b *Builder) Bytes() []byte {
	data, err := classfile.Marshal(b.ClassFile())
	if err != nil {
		panic(err)
	}
	return data
}

// HelloRefs are the pool indices used by HelloWorld's main method.
type HelloRefs struct {
	SystemOut uint16
	Greeting  uint16
	Println   uint16
}

// HelloWorld builds a class whose main prints greeting, mirroring javac's
// output for System.out.println(greeting).
func HelloWorld(greeting string) (*Builder, HelloRefs) {
	b := New("Hello")
	refs := HelloRefs{
		SystemOut: b.Fieldref("java/lang/System", "out", "Ljava/io/PrintStream;"),
		Greeting:  b.StringRef(greeting),
		Println:   b.Methodref("java/io/PrintStream", "println", "(Ljava/lang/String;)V"),
	}
	b.Main(HelloCode(refs))
	return b, refs
}

// HelloCode is getstatic System.out; ldc greeting; invokevirtual println; return.
func HelloCode(r HelloRefs) []byte {
	return []byte{
		0xB2, byte(r.SystemOut >> 8), byte(r.SystemOut),
		0x12, byte(r.Greeting),
		0xB6, byte(r.Println >> 8), byte(r.Println),
		0xB1,
	}
}
