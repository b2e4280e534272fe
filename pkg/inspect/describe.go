// Package inspect renders parsed class files for humans and snapshots them
// for tools.
package inspect

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/daimatz/tinyjvm/pkg/classfile"
)

var accessFlagNames = []struct {
	flag uint16
	name string
}{
	{0x0001, "public"},
	{0x0002, "private"},
	{0x0004, "protected"},
	{0x0008, "static"},
	{0x0010, "final"},
	{0x0020, "super"},
	{0x0400, "abstract"},
	{0x1000, "synthetic"},
}

// AccessFlags lists the names of the flags set in flags. On methods 0x0020
// means synchronized; it is always printed as "super" here.
func AccessFlags(flags uint16) string {
	var names []string
	for _, f := range accessFlagNames {
		if flags&f.flag != 0 {
			names = append(names, f.name)
		}
	}
	return strings.Join(names, " ")
}

// Describe writes a javap-like description of cf to w: the class header,
// the constant pool as a table and each method with its code.
func Describe(w io.Writer, cf *classfile.ClassFile) {
	fmt.Fprintf(w, "class %s\n", cf.ThisClassName)
	if cf.SuperClassName != "" {
		fmt.Fprintf(w, "  extends %s\n", cf.SuperClassName)
	}
	fmt.Fprintf(w, "  version %d.%d\n", cf.MajorVersion, cf.MinorVersion)
	fmt.Fprintf(w, "  flags 0x%04x (%s)\n", cf.AccessFlags, AccessFlags(cf.AccessFlags))
	if src, ok := cf.SourceFile(); ok {
		fmt.Fprintf(w, "  source %s\n", src)
	}

	fmt.Fprintln(w, "Constant pool:")
	describePool(w, cf.ConstantPool)

	fmt.Fprintln(w, "Methods:")
	for i := range cf.Methods {
		describeMethod(w, &cf.Methods[i], cf.ConstantPool)
	}
}

func describePool(w io.Writer, pool classfile.ConstantPool) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Tag", "Value", "Resolved"})
	table.SetAutoWrapText(false)
	for i, entry := range pool {
		index := uint16(i + 1)
		if entry == nil {
			table.Append([]string{strconv.Itoa(int(index)), "-", "", ""})
			continue
		}
		resolved, err := resolvedText(pool, index)
		if err != nil {
			resolved = "<" + err.Error() + ">"
		}
		table.Append([]string{
			strconv.Itoa(int(index)),
			classfile.TagName(entry.Tag()),
			rawText(entry),
			resolved,
		})
	}
	table.Render()
}

func describeMethod(w io.Writer, m *classfile.MethodInfo, pool classfile.ConstantPool) {
	fmt.Fprintf(w, "  %s %s%s\n", AccessFlags(m.AccessFlags), m.Name, m.Descriptor)
	code := m.Code()
	if code == nil {
		fmt.Fprintln(w, "    (no code)")
		return
	}
	fmt.Fprintf(w, "    max_stack=%d max_locals=%d code_length=%d\n", code.MaxStack, code.MaxLocals, len(code.Code))
	for _, line := range Disassemble(code.Code, pool) {
		fmt.Fprintf(w, "    %s\n", line)
	}
	for _, attr := range code.Attributes {
		switch a := attr.(type) {
		case *classfile.LineNumberTableAttribute:
			fmt.Fprintln(w, "    LineNumberTable:")
			for _, e := range a.Entries {
				fmt.Fprintf(w, "      line %d: %d\n", e.LineNumber, e.StartPC)
			}
		case *classfile.StackMapTableAttribute:
			fmt.Fprintf(w, "    StackMapTable: %d bytes\n", a.RawLength())
		}
	}
}

// rawText shows an entry's own fields, with pool indices as #n.
func rawText(entry classfile.ConstantPoolEntry) string {
	switch c := entry.(type) {
	case *classfile.ConstantUtf8:
		return c.Value
	case *classfile.ConstantClass:
		return fmt.Sprintf("#%d", c.NameIndex)
	case *classfile.ConstantString:
		return fmt.Sprintf("#%d", c.StringIndex)
	case *classfile.ConstantFieldref:
		return fmt.Sprintf("#%d.#%d", c.ClassIndex, c.NameAndTypeIndex)
	case *classfile.ConstantMethodref:
		return fmt.Sprintf("#%d.#%d", c.ClassIndex, c.NameAndTypeIndex)
	case *classfile.ConstantNameAndType:
		return fmt.Sprintf("#%d:#%d", c.NameIndex, c.DescriptorIndex)
	}
	return ""
}

// resolvedText follows an entry's indices down to text.
func resolvedText(pool classfile.ConstantPool, index uint16) (string, error) {
	entry, err := pool.Resolve(index)
	if err != nil {
		return "", err
	}
	switch c := entry.(type) {
	case *classfile.ConstantUtf8:
		return "", nil
	case *classfile.ConstantClass:
		return pool.ClassName(index)
	case *classfile.ConstantString:
		return pool.StringValue(index)
	case *classfile.ConstantFieldref, *classfile.ConstantMethodref:
		info, err := pool.ResolveMemberRef(index)
		if err != nil {
			return "", err
		}
		return info.String(), nil
	case *classfile.ConstantNameAndType:
		name, err := pool.Utf8(c.NameIndex)
		if err != nil {
			return "", err
		}
		desc, err := pool.Utf8(c.DescriptorIndex)
		if err != nil {
			return "", err
		}
		return name + ":" + desc, nil
	}
	return "", nil
}
