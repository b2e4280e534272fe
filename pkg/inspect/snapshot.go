package inspect

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/daimatz/tinyjvm/pkg/classfile"
)

// Snapshot is a flattened, index-free view of a class file. Names are
// resolved so a snapshot can be read without the constant pool.
type Snapshot struct {
	Class        string           `cbor:"class"`
	Super        string           `cbor:"super,omitempty"`
	MajorVersion uint16           `cbor:"major"`
	MinorVersion uint16           `cbor:"minor"`
	AccessFlags  uint16           `cbor:"flags"`
	SourceFile   string           `cbor:"source,omitempty"`
	Methods      []MethodSnapshot `cbor:"methods"`
}

// MethodSnapshot describes one method.
type MethodSnapshot struct {
	Name        string         `cbor:"name"`
	Descriptor  string         `cbor:"descriptor"`
	AccessFlags uint16         `cbor:"flags"`
	MaxStack    uint16         `cbor:"max_stack,omitempty"`
	MaxLocals   uint16         `cbor:"max_locals,omitempty"`
	Code        []byte         `cbor:"code,omitempty"`
	Lines       []LineSnapshot `cbor:"lines,omitempty"`
}

// LineSnapshot is one LineNumberTable entry.
type LineSnapshot struct {
	StartPC uint16 `cbor:"pc"`
	Line    uint16 `cbor:"line"`
}

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("inspect: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// NewSnapshot flattens cf.
func NewSnapshot(cf *classfile.ClassFile) *Snapshot {
	s := &Snapshot{
		Class:        cf.ThisClassName,
		Super:        cf.SuperClassName,
		MajorVersion: cf.MajorVersion,
		MinorVersion: cf.MinorVersion,
		AccessFlags:  cf.AccessFlags,
		Methods:      make([]MethodSnapshot, 0, len(cf.Methods)),
	}
	if src, ok := cf.SourceFile(); ok {
		s.SourceFile = src
	}
	for i := range cf.Methods {
		m := &cf.Methods[i]
		ms := MethodSnapshot{
			Name:        m.Name,
			Descriptor:  m.Descriptor,
			AccessFlags: m.AccessFlags,
		}
		if code := m.Code(); code != nil {
			ms.MaxStack = code.MaxStack
			ms.MaxLocals = code.MaxLocals
			ms.Code = code.Code
			for _, attr := range code.Attributes {
				if lnt, ok := attr.(*classfile.LineNumberTableAttribute); ok {
					for _, e := range lnt.Entries {
						ms.Lines = append(ms.Lines, LineSnapshot{StartPC: e.StartPC, Line: e.LineNumber})
					}
				}
			}
		}
		s.Methods = append(s.Methods, ms)
	}
	return s
}

// MarshalSnapshot serializes a snapshot of cf to canonical CBOR bytes.
// Equal class files always produce identical bytes.
func MarshalSnapshot(cf *classfile.ClassFile) ([]byte, error) {
	return cborEncMode.Marshal(NewSnapshot(cf))
}

// UnmarshalSnapshot deserializes a Snapshot from CBOR bytes.
func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("inspect: unmarshal snapshot: %w", err)
	}
	return &s, nil
}
