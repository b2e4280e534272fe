package classfile

import (
	"bytes"
	"errors"
	"fmt"
)

// parseAttributes reads an attributes_count followed by that many attribute
// records. depth is 0 for class and method attributes and grows by one for
// each enclosing Code attribute.
func (d *decoder) parseAttributes(r *reader, depth int) ([]Attribute, error) {
	if depth > d.maxDepth {
		return nil, fmt.Errorf("%w: attributes nested deeper than %d", ErrMalformedAttribute, d.maxDepth)
	}
	count, err := r.u2()
	if err != nil {
		return nil, fmt.Errorf("reading attributes count: %w", err)
	}
	attrs := make([]Attribute, 0, count)
	for i := uint16(0); i < count; i++ {
		attr, err := d.parseAttribute(r, depth)
		if err != nil {
			return nil, fmt.Errorf("attribute %d: %w", i, err)
		}
		attrs = append(attrs, attr)
	}
	return attrs, nil
}

// parseAttribute reads one attribute record. The body is read in full using
// the declared length and decoded from its own reader, so a body can never
// consume bytes that belong to the next record.
func (d *decoder) parseAttribute(r *reader, depth int) (Attribute, error) {
	nameIndex, err := r.u2()
	if err != nil {
		return nil, fmt.Errorf("reading name index: %w", err)
	}
	length, err := r.u4()
	if err != nil {
		return nil, fmt.Errorf("reading length: %w", err)
	}
	name, err := d.pool.Utf8(nameIndex)
	if err != nil {
		return nil, fmt.Errorf("resolving name: %w", err)
	}
	switch name {
	case AttrCode, AttrLineNumberTable, AttrStackMapTable, AttrSourceFile:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAttribute, name)
	}

	data, err := r.bytes(length)
	if err != nil {
		return nil, fmt.Errorf("reading %s body: %w", name, err)
	}
	body := bytes.NewReader(data)
	br := newReader(body)

	var attr Attribute
	switch name {
	case AttrCode:
		attr, err = d.parseCode(br, nameIndex, depth)
	case AttrLineNumberTable:
		attr, err = parseLineNumberTable(br, nameIndex)
	case AttrStackMapTable:
		attr = &StackMapTableAttribute{NameIndex: nameIndex, Data: data}
		body.Reset(nil)
	case AttrSourceFile:
		var idx uint16
		idx, err = br.u2()
		attr = &SourceFileAttribute{NameIndex: nameIndex, SourceFileIndex: idx}
	}
	if err != nil {
		if errors.Is(err, ErrTruncatedInput) {
			return nil, fmt.Errorf("%w: %s body overruns declared length %d: %v", ErrMalformedAttribute, name, length, err)
		}
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}
	if body.Len() != 0 {
		return nil, fmt.Errorf("%w: %s declares %d bytes but uses %d", ErrMalformedAttribute, name, length, int(length)-body.Len())
	}
	return attr, nil
}

func (d *decoder) parseCode(r *reader, nameIndex uint16, depth int) (*CodeAttribute, error) {
	code := &CodeAttribute{NameIndex: nameIndex}
	var err error
	if code.MaxStack, err = r.u2(); err != nil {
		return nil, fmt.Errorf("reading max_stack: %w", err)
	}
	if code.MaxLocals, err = r.u2(); err != nil {
		return nil, fmt.Errorf("reading max_locals: %w", err)
	}
	codeLength, err := r.u4()
	if err != nil {
		return nil, fmt.Errorf("reading code_length: %w", err)
	}
	if code.Code, err = r.bytes(codeLength); err != nil {
		return nil, fmt.Errorf("reading code: %w", err)
	}
	exTableLen, err := r.u2()
	if err != nil {
		return nil, fmt.Errorf("reading exception_table_length: %w", err)
	}
	if exTableLen != 0 {
		return nil, fmt.Errorf("%w: exception table with %d entries", ErrUnsupportedFeature, exTableLen)
	}
	if code.Attributes, err = d.parseAttributes(r, depth+1); err != nil {
		return nil, fmt.Errorf("nested attributes: %w", err)
	}
	return code, nil
}

func parseLineNumberTable(r *reader, nameIndex uint16) (*LineNumberTableAttribute, error) {
	count, err := r.u2()
	if err != nil {
		return nil, fmt.Errorf("reading line_number_table_length: %w", err)
	}
	lnt := &LineNumberTableAttribute{NameIndex: nameIndex, Entries: make([]LineNumber, 0, count)}
	for i := uint16(0); i < count; i++ {
		var e LineNumber
		if e.StartPC, err = r.u2(); err != nil {
			return nil, fmt.Errorf("reading entry %d start_pc: %w", i, err)
		}
		if e.LineNumber, err = r.u2(); err != nil {
			return nil, fmt.Errorf("reading entry %d line_number: %w", i, err)
		}
		lnt.Entries = append(lnt.Entries, e)
	}
	return lnt, nil
}
