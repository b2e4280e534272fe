package classfile

// Magic is the first four bytes of every class file.
const Magic = 0xCAFEBABE

// Access flags
const (
	AccPublic = 0x0001
	AccStatic = 0x0008
	AccSuper  = 0x0020
)

// Attribute names understood by the reader.
const (
	AttrCode            = "Code"
	AttrLineNumberTable = "LineNumberTable"
	AttrStackMapTable   = "StackMapTable"
	AttrSourceFile      = "SourceFile"
)

// ClassFile represents a parsed .class file. It is built once by the reader
// and not modified afterwards.
type ClassFile struct {
	Magic          uint32
	MinorVersion   uint16
	MajorVersion   uint16
	ConstantPool   ConstantPool
	AccessFlags    uint16
	ThisClass      uint16
	ThisClassName  string
	SuperClass     uint16
	SuperClassName string
	Methods        []MethodInfo
	Attributes     []Attribute
}

// FindMethodByName finds a method by name only (first match).
func (cf *ClassFile) FindMethodByName(name string) *MethodInfo {
	for i := range cf.Methods {
		if cf.Methods[i].Name == name {
			return &cf.Methods[i]
		}
	}
	return nil
}

// SourceFile returns the name recorded by the SourceFile attribute, if any.
func (cf *ClassFile) SourceFile() (string, bool) {
	for _, attr := range cf.Attributes {
		sf, ok := attr.(*SourceFileAttribute)
		if !ok {
			continue
		}
		name, err := cf.ConstantPool.Utf8(sf.SourceFileIndex)
		if err != nil {
			return "", false
		}
		return name, true
	}
	return "", false
}

// MethodInfo represents a method in a class file.
type MethodInfo struct {
	AccessFlags     uint16
	NameIndex       uint16
	Name            string
	DescriptorIndex uint16
	Descriptor      string
	Attributes      []Attribute
}

// Code returns the method's first Code attribute, or nil.
func (m *MethodInfo) Code() *CodeAttribute {
	for _, attr := range m.Attributes {
		if code, ok := attr.(*CodeAttribute); ok {
			return code
		}
	}
	return nil
}

// Attribute is one of the attribute variants below. The set is closed.
type Attribute interface {
	Name() string
	isAttribute()
}

// CodeAttribute represents the Code attribute of a method. Exception tables
// are not modeled; the reader rejects a non-empty one.
type CodeAttribute struct {
	NameIndex  uint16
	MaxStack   uint16
	MaxLocals  uint16
	Code       []byte
	Attributes []Attribute
}

func (*CodeAttribute) Name() string { return AttrCode }
func (*CodeAttribute) isAttribute() {}

// LineNumber maps the instruction at StartPC onwards to a source line.
func (c *CodeAttribute) LineNumber(pc int) (int, bool) {
	line, found := 0, false
	best := -1
	for _, attr := range c.Attributes {
		lnt, ok := attr.(*LineNumberTableAttribute)
		if !ok {
			continue
		}
		for _, e := range lnt.Entries {
			if int(e.StartPC) <= pc && int(e.StartPC) > best {
				best = int(e.StartPC)
				line, found = int(e.LineNumber), true
			}
		}
	}
	return line, found
}

type LineNumber struct {
	StartPC    uint16
	LineNumber uint16
}

type LineNumberTableAttribute struct {
	NameIndex uint16
	Entries   []LineNumber
}

func (*LineNumberTableAttribute) Name() string { return AttrLineNumberTable }
func (*LineNumberTableAttribute) isAttribute() {}

// StackMapTableAttribute keeps the frames as opaque bytes. No verification
// is performed.
type StackMapTableAttribute struct {
	NameIndex uint16
	Data      []byte
}

func (*StackMapTableAttribute) Name() string { return AttrStackMapTable }
func (*StackMapTableAttribute) isAttribute() {}

// RawLength is the declared attribute length.
func (s *StackMapTableAttribute) RawLength() uint32 { return uint32(len(s.Data)) }

type SourceFileAttribute struct {
	NameIndex       uint16
	SourceFileIndex uint16
}

func (*SourceFileAttribute) Name() string { return AttrSourceFile }
func (*SourceFileAttribute) isAttribute() {}
