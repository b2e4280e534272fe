package classfile

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/tliron/commonlog"
)

// DefaultMaxAttributeDepth bounds how deeply attributes may nest. Code is the
// only attribute with children, so real class files need a depth of 1.
const DefaultMaxAttributeDepth = 4

// Parser decodes class files. The zero value uses the defaults.
type Parser struct {
	// MaxAttributeDepth is the deepest nesting of attributes accepted.
	// Zero means DefaultMaxAttributeDepth.
	MaxAttributeDepth int
}

// ParseFile opens and parses a .class file from the given path.
func ParseFile(path string) (*ClassFile, error) {
	return (&Parser{}).ParseFile(path)
}

// Parse reads a .class file from the given reader and returns a ClassFile.
func Parse(r io.Reader) (*ClassFile, error) {
	return (&Parser{}).Parse(r)
}

// ParseFile opens path, parses it and closes it before returning.
func (p *Parser) ParseFile(path string) (*ClassFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return p.Parse(bufio.NewReader(f))
}

// decoder carries the state of a single Parse call.
type decoder struct {
	r        *reader
	pool     ConstantPool
	maxDepth int
	log      commonlog.Logger
}

// Parse reads a .class file from r. Fields are consumed strictly in file
// order and the first failure aborts the parse; no partial ClassFile is
// returned.
func (p *Parser) Parse(r io.Reader) (*ClassFile, error) {
	d := &decoder{
		r:        newReader(r),
		maxDepth: p.MaxAttributeDepth,
		log:      commonlog.GetLogger("tinyjvm.classfile"),
	}
	if d.maxDepth <= 0 {
		d.maxDepth = DefaultMaxAttributeDepth
	}
	return d.decode()
}

func (d *decoder) decode() (*ClassFile, error) {
	r := d.r
	cf := &ClassFile{}

	// Magic number
	magic, err := r.u4()
	if err != nil {
		return nil, fmt.Errorf("reading magic number: %w", err)
	}
	if magic != Magic {
		return nil, fmt.Errorf("%w: 0x%08X (expected 0xCAFEBABE)", ErrBadMagic, magic)
	}
	cf.Magic = magic

	// Version
	if cf.MinorVersion, err = r.u2(); err != nil {
		return nil, fmt.Errorf("reading minor version: %w", err)
	}
	if cf.MajorVersion, err = r.u2(); err != nil {
		return nil, fmt.Errorf("reading major version: %w", err)
	}
	d.log.Debugf("version %d.%d", cf.MajorVersion, cf.MinorVersion)

	// Constant pool
	cpCount, err := r.u2()
	if err != nil {
		return nil, fmt.Errorf("reading constant pool count: %w", err)
	}
	if d.pool, err = parseConstantPool(r, cpCount); err != nil {
		return nil, fmt.Errorf("parsing constant pool: %w", err)
	}
	cf.ConstantPool = d.pool
	d.log.Debugf("constant pool: %d entries, ends at offset %d", len(d.pool), r.read)

	// Access flags, this_class, super_class
	if cf.AccessFlags, err = r.u2(); err != nil {
		return nil, fmt.Errorf("reading access flags: %w", err)
	}
	if cf.ThisClass, err = r.u2(); err != nil {
		return nil, fmt.Errorf("reading this_class: %w", err)
	}
	if cf.ThisClassName, err = d.pool.ClassName(cf.ThisClass); err != nil {
		return nil, fmt.Errorf("resolving this_class: %w", err)
	}
	if cf.SuperClass, err = r.u2(); err != nil {
		return nil, fmt.Errorf("reading super_class: %w", err)
	}
	// super_class is 0 only for java/lang/Object.
	if cf.SuperClass != 0 {
		if cf.SuperClassName, err = d.pool.ClassName(cf.SuperClass); err != nil {
			return nil, fmt.Errorf("resolving super_class: %w", err)
		}
	}
	d.log.Debugf("class %s extends %q", cf.ThisClassName, cf.SuperClassName)

	// Interfaces and fields are not modeled.
	interfacesCount, err := r.u2()
	if err != nil {
		return nil, fmt.Errorf("reading interfaces count: %w", err)
	}
	if interfacesCount != 0 {
		return nil, fmt.Errorf("%w: class declares %d interfaces", ErrUnsupportedFeature, interfacesCount)
	}
	fieldsCount, err := r.u2()
	if err != nil {
		return nil, fmt.Errorf("reading fields count: %w", err)
	}
	if fieldsCount != 0 {
		return nil, fmt.Errorf("%w: class declares %d fields", ErrUnsupportedFeature, fieldsCount)
	}

	// Methods
	methodsCount, err := r.u2()
	if err != nil {
		return nil, fmt.Errorf("reading methods count: %w", err)
	}
	if cf.Methods, err = d.parseMethods(methodsCount); err != nil {
		return nil, fmt.Errorf("parsing methods: %w", err)
	}

	// Class-level attributes
	if cf.Attributes, err = d.parseAttributes(r, 0); err != nil {
		return nil, fmt.Errorf("parsing class attributes: %w", err)
	}

	d.log.Debugf("parsed %s: %d methods, %d bytes", cf.ThisClassName, len(cf.Methods), r.read)
	return cf, nil
}

func (d *decoder) parseMethods(count uint16) ([]MethodInfo, error) {
	r := d.r
	methods := make([]MethodInfo, 0, count)
	for i := uint16(0); i < count; i++ {
		var m MethodInfo
		var err error
		if m.AccessFlags, err = r.u2(); err != nil {
			return nil, fmt.Errorf("reading method %d access flags: %w", i, err)
		}
		if m.NameIndex, err = r.u2(); err != nil {
			return nil, fmt.Errorf("reading method %d name index: %w", i, err)
		}
		if m.Name, err = d.pool.Utf8(m.NameIndex); err != nil {
			return nil, fmt.Errorf("resolving method %d name: %w", i, err)
		}
		if m.DescriptorIndex, err = r.u2(); err != nil {
			return nil, fmt.Errorf("reading method %d descriptor index: %w", i, err)
		}
		if m.Descriptor, err = d.pool.Utf8(m.DescriptorIndex); err != nil {
			return nil, fmt.Errorf("resolving method %d descriptor: %w", i, err)
		}
		if m.Attributes, err = d.parseAttributes(r, 0); err != nil {
			return nil, fmt.Errorf("parsing attributes of method %s%s: %w", m.Name, m.Descriptor, err)
		}
		d.log.Debugf("method %s%s: %d attributes", m.Name, m.Descriptor, len(m.Attributes))
		methods = append(methods, m)
	}
	return methods, nil
}
