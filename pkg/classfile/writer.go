package classfile

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Write encodes cf in the layout Parse reads. Parsing the output yields a
// ClassFile equal to cf, and re-encoding a parsed file reproduces its bytes.
func Write(w io.Writer, cf *ClassFile) error {
	data, err := Marshal(cf)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Marshal returns the class file encoding of cf.
func Marshal(cf *ClassFile) ([]byte, error) {
	e := &encoder{}
	magic := cf.Magic
	if magic == 0 {
		magic = Magic
	}
	e.u4(magic)
	e.u2(cf.MinorVersion)
	e.u2(cf.MajorVersion)

	if len(cf.ConstantPool)+1 > math.MaxUint16 {
		return nil, fmt.Errorf("constant pool too large: %d entries", len(cf.ConstantPool))
	}
	e.u2(uint16(len(cf.ConstantPool) + 1))
	for i, entry := range cf.ConstantPool {
		if err := e.constant(entry); err != nil {
			return nil, fmt.Errorf("encoding constant pool index %d: %w", i+1, err)
		}
	}

	e.u2(cf.AccessFlags)
	e.u2(cf.ThisClass)
	e.u2(cf.SuperClass)
	e.u2(0) // interfaces
	e.u2(0) // fields

	methodCount, err := count(len(cf.Methods), "methods")
	if err != nil {
		return nil, err
	}
	e.u2(methodCount)
	for _, m := range cf.Methods {
		e.u2(m.AccessFlags)
		e.u2(m.NameIndex)
		e.u2(m.DescriptorIndex)
		if err := e.attributes(m.Attributes); err != nil {
			return nil, fmt.Errorf("encoding method %s: %w", m.Name, err)
		}
	}
	if err := e.attributes(cf.Attributes); err != nil {
		return nil, fmt.Errorf("encoding class attributes: %w", err)
	}
	return e.buf, nil
}

type encoder struct {
	buf []byte
}

func (e *encoder) u1(v uint8)  { e.buf = append(e.buf, v) }
func (e *encoder) u2(v uint16) { e.buf = binary.BigEndian.AppendUint16(e.buf, v) }
func (e *encoder) u4(v uint32) { e.buf = binary.BigEndian.AppendUint32(e.buf, v) }

func (e *encoder) constant(entry ConstantPoolEntry) error {
	switch c := entry.(type) {
	case *ConstantUtf8:
		if len(c.Value) > math.MaxUint16 {
			return fmt.Errorf("Utf8 too long: %d bytes", len(c.Value))
		}
		e.u1(TagUtf8)
		e.u2(uint16(len(c.Value)))
		e.buf = append(e.buf, c.Value...)
	case *ConstantClass:
		e.u1(TagClass)
		e.u2(c.NameIndex)
	case *ConstantString:
		e.u1(TagString)
		e.u2(c.StringIndex)
	case *ConstantFieldref:
		e.u1(TagFieldref)
		e.u2(c.ClassIndex)
		e.u2(c.NameAndTypeIndex)
	case *ConstantMethodref:
		e.u1(TagMethodref)
		e.u2(c.ClassIndex)
		e.u2(c.NameAndTypeIndex)
	case *ConstantNameAndType:
		e.u1(TagNameAndType)
		e.u2(c.NameIndex)
		e.u2(c.DescriptorIndex)
	default:
		return fmt.Errorf("unsupported constant pool entry %T", entry)
	}
	return nil
}

// count checks that n fits the u2 count field for what.
func count(n int, what string) (uint16, error) {
	if n > math.MaxUint16 {
		return 0, fmt.Errorf("too many %s: %d", what, n)
	}
	return uint16(n), nil
}

func (e *encoder) attributes(attrs []Attribute) error {
	n, err := count(len(attrs), "attributes")
	if err != nil {
		return err
	}
	e.u2(n)
	for _, attr := range attrs {
		if err := e.attribute(attr); err != nil {
			return fmt.Errorf("%s: %w", attr.Name(), err)
		}
	}
	return nil
}

// attribute writes name index, length and body. The length is computed from
// the encoded body.
func (e *encoder) attribute(attr Attribute) error {
	body := &encoder{}
	var nameIndex uint16
	switch a := attr.(type) {
	case *CodeAttribute:
		nameIndex = a.NameIndex
		body.u2(a.MaxStack)
		body.u2(a.MaxLocals)
		if uint64(len(a.Code)) > math.MaxUint32 {
			return fmt.Errorf("code too long: %d bytes", len(a.Code))
		}
		body.u4(uint32(len(a.Code)))
		body.buf = append(body.buf, a.Code...)
		body.u2(0) // exception table
		if err := body.attributes(a.Attributes); err != nil {
			return err
		}
	case *LineNumberTableAttribute:
		nameIndex = a.NameIndex
		n, err := count(len(a.Entries), "line number entries")
		if err != nil {
			return err
		}
		body.u2(n)
		for _, entry := range a.Entries {
			body.u2(entry.StartPC)
			body.u2(entry.LineNumber)
		}
	case *StackMapTableAttribute:
		nameIndex = a.NameIndex
		body.buf = append(body.buf, a.Data...)
	case *SourceFileAttribute:
		nameIndex = a.NameIndex
		body.u2(a.SourceFileIndex)
	default:
		return fmt.Errorf("unsupported attribute %T", attr)
	}
	e.u2(nameIndex)
	e.u4(uint32(len(body.buf)))
	e.buf = append(e.buf, body.buf...)
	return nil
}
