package classfile

import (
	"fmt"
	"unicode/utf8"
)

// Constant pool tags
const (
	TagUtf8        = 1
	TagClass       = 7
	TagString      = 8
	TagFieldref    = 9
	TagMethodref   = 10
	TagNameAndType = 12
)

// TagName returns the JVMS name of a constant pool tag.
func TagName(tag uint8) string {
	switch tag {
	case TagUtf8:
		return "Utf8"
	case TagClass:
		return "Class"
	case TagString:
		return "String"
	case TagFieldref:
		return "Fieldref"
	case TagMethodref:
		return "Methodref"
	case TagNameAndType:
		return "NameAndType"
	}
	return fmt.Sprintf("tag(%d)", tag)
}

// ConstantPoolEntry is an interface implemented by all constant pool types.
type ConstantPoolEntry interface {
	Tag() uint8
}

type ConstantUtf8 struct {
	Value string
}

func (c *ConstantUtf8) Tag() uint8 { return TagUtf8 }

type ConstantClass struct {
	NameIndex uint16
}

func (c *ConstantClass) Tag() uint8 { return TagClass }

type ConstantString struct {
	StringIndex uint16
}

func (c *ConstantString) Tag() uint8 { return TagString }

type ConstantFieldref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (c *ConstantFieldref) Tag() uint8 { return TagFieldref }

type ConstantMethodref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (c *ConstantMethodref) Tag() uint8 { return TagMethodref }

type ConstantNameAndType struct {
	NameIndex       uint16
	DescriptorIndex uint16
}

func (c *ConstantNameAndType) Tag() uint8 { return TagNameAndType }

// ConstantPool holds the entries of a class file's pool. Indices used by the
// class file are 1-based: index i is element i-1 of the slice, and the
// serialized constant_pool_count is len+1.
type ConstantPool []ConstantPoolEntry

// Resolve returns the entry at the 1-based index.
func (p ConstantPool) Resolve(index uint16) (ConstantPoolEntry, error) {
	if index == 0 || int(index) > len(p) {
		return nil, fmt.Errorf("%w: constant pool index %d (pool has %d entries)", ErrIndexOutOfRange, index, len(p))
	}
	entry := p[index-1]
	if entry == nil {
		return nil, fmt.Errorf("%w: empty slot at index %d", ErrMalformedConstantPool, index)
	}
	return entry, nil
}

func wrongVariant(index uint16, entry ConstantPoolEntry, want string) error {
	return fmt.Errorf("%w: index %d is %s, want %s", ErrMalformedConstantPool, index, TagName(entry.Tag()), want)
}

// Utf8 returns the Utf8 string at the given constant pool index.
func (p ConstantPool) Utf8(index uint16) (string, error) {
	entry, err := p.Resolve(index)
	if err != nil {
		return "", err
	}
	c, ok := entry.(*ConstantUtf8)
	if !ok {
		return "", wrongVariant(index, entry, "Utf8")
	}
	return c.Value, nil
}

// ClassName returns the class name referenced by a CONSTANT_Class entry.
func (p ConstantPool) ClassName(classIndex uint16) (string, error) {
	entry, err := p.Resolve(classIndex)
	if err != nil {
		return "", err
	}
	c, ok := entry.(*ConstantClass)
	if !ok {
		return "", wrongVariant(classIndex, entry, "Class")
	}
	name, err := p.Utf8(c.NameIndex)
	if err != nil {
		return "", fmt.Errorf("class name of index %d: %w", classIndex, err)
	}
	return name, nil
}

// StringValue returns the text of a CONSTANT_String entry.
func (p ConstantPool) StringValue(index uint16) (string, error) {
	entry, err := p.Resolve(index)
	if err != nil {
		return "", err
	}
	c, ok := entry.(*ConstantString)
	if !ok {
		return "", wrongVariant(index, entry, "String")
	}
	s, err := p.Utf8(c.StringIndex)
	if err != nil {
		return "", fmt.Errorf("string of index %d: %w", index, err)
	}
	return s, nil
}

// NameAndType returns the CONSTANT_NameAndType entry at index.
func (p ConstantPool) NameAndType(index uint16) (*ConstantNameAndType, error) {
	entry, err := p.Resolve(index)
	if err != nil {
		return nil, err
	}
	nat, ok := entry.(*ConstantNameAndType)
	if !ok {
		return nil, wrongVariant(index, entry, "NameAndType")
	}
	return nat, nil
}

// MemberName returns the member name of a CONSTANT_NameAndType entry.
func (p ConstantPool) MemberName(nameAndTypeIndex uint16) (string, error) {
	nat, err := p.NameAndType(nameAndTypeIndex)
	if err != nil {
		return "", err
	}
	name, err := p.Utf8(nat.NameIndex)
	if err != nil {
		return "", fmt.Errorf("member name of index %d: %w", nameAndTypeIndex, err)
	}
	return name, nil
}

// MemberRef is the common shape of Fieldref and Methodref entries.
type MemberRef struct {
	Tag              uint8
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

// MemberRef returns the Fieldref or Methodref at index.
func (p ConstantPool) MemberRef(index uint16) (MemberRef, error) {
	entry, err := p.Resolve(index)
	if err != nil {
		return MemberRef{}, err
	}
	switch c := entry.(type) {
	case *ConstantFieldref:
		return MemberRef{Tag: TagFieldref, ClassIndex: c.ClassIndex, NameAndTypeIndex: c.NameAndTypeIndex}, nil
	case *ConstantMethodref:
		return MemberRef{Tag: TagMethodref, ClassIndex: c.ClassIndex, NameAndTypeIndex: c.NameAndTypeIndex}, nil
	}
	return MemberRef{}, wrongVariant(index, entry, "Fieldref or Methodref")
}

// MemberRefInfo holds a resolved Fieldref or Methodref.
type MemberRefInfo struct {
	ClassName  string
	Name       string
	Descriptor string
}

func (m *MemberRefInfo) String() string {
	return m.ClassName + "." + m.Name + ":" + m.Descriptor
}

// ResolveMemberRef resolves a Fieldref or Methodref down to its names.
func (p ConstantPool) ResolveMemberRef(index uint16) (*MemberRefInfo, error) {
	ref, err := p.MemberRef(index)
	if err != nil {
		return nil, err
	}
	className, err := p.ClassName(ref.ClassIndex)
	if err != nil {
		return nil, fmt.Errorf("resolving %s class: %w", TagName(ref.Tag), err)
	}
	nat, err := p.NameAndType(ref.NameAndTypeIndex)
	if err != nil {
		return nil, fmt.Errorf("resolving %s name and type: %w", TagName(ref.Tag), err)
	}
	name, err := p.Utf8(nat.NameIndex)
	if err != nil {
		return nil, fmt.Errorf("resolving member name: %w", err)
	}
	descriptor, err := p.Utf8(nat.DescriptorIndex)
	if err != nil {
		return nil, fmt.Errorf("resolving member descriptor: %w", err)
	}
	return &MemberRefInfo{ClassName: className, Name: name, Descriptor: descriptor}, nil
}

// parseConstantPool reads constant_pool_count-1 entries from the reader.
func parseConstantPool(r *reader, count uint16) (ConstantPool, error) {
	if count == 0 {
		return nil, fmt.Errorf("%w: constant_pool_count is 0", ErrMalformedConstantPool)
	}
	pool := make(ConstantPool, 0, count-1)

	for i := uint16(1); i < count; i++ {
		tag, err := r.u1()
		if err != nil {
			return nil, fmt.Errorf("reading constant pool tag at index %d: %w", i, err)
		}

		switch tag {
		case TagUtf8:
			length, err := r.u2()
			if err != nil {
				return nil, fmt.Errorf("reading Utf8 length at index %d: %w", i, err)
			}
			data, err := r.bytes(uint32(length))
			if err != nil {
				return nil, fmt.Errorf("reading Utf8 bytes at index %d: %w", i, err)
			}
			if !utf8.Valid(data) {
				return nil, fmt.Errorf("%w: invalid text encoding in Utf8 at index %d", ErrMalformedConstantPool, i)
			}
			pool = append(pool, &ConstantUtf8{Value: string(data)})

		case TagClass:
			nameIndex, err := r.u2()
			if err != nil {
				return nil, fmt.Errorf("reading Class at index %d: %w", i, err)
			}
			pool = append(pool, &ConstantClass{NameIndex: nameIndex})

		case TagString:
			stringIndex, err := r.u2()
			if err != nil {
				return nil, fmt.Errorf("reading String at index %d: %w", i, err)
			}
			pool = append(pool, &ConstantString{StringIndex: stringIndex})

		case TagFieldref, TagMethodref:
			classIndex, err := r.u2()
			if err != nil {
				return nil, fmt.Errorf("reading %s class_index at index %d: %w", TagName(tag), i, err)
			}
			natIndex, err := r.u2()
			if err != nil {
				return nil, fmt.Errorf("reading %s name_and_type_index at index %d: %w", TagName(tag), i, err)
			}
			if tag == TagFieldref {
				pool = append(pool, &ConstantFieldref{ClassIndex: classIndex, NameAndTypeIndex: natIndex})
			} else {
				pool = append(pool, &ConstantMethodref{ClassIndex: classIndex, NameAndTypeIndex: natIndex})
			}

		case TagNameAndType:
			nameIndex, err := r.u2()
			if err != nil {
				return nil, fmt.Errorf("reading NameAndType name_index at index %d: %w", i, err)
			}
			descIndex, err := r.u2()
			if err != nil {
				return nil, fmt.Errorf("reading NameAndType descriptor_index at index %d: %w", i, err)
			}
			pool = append(pool, &ConstantNameAndType{NameIndex: nameIndex, DescriptorIndex: descIndex})

		default:
			return nil, fmt.Errorf("%w: unknown tag %d at index %d", ErrMalformedConstantPool, tag, i)
		}
	}

	return pool, nil
}
