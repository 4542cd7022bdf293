package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dhamidi/classy/classfile"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#767676"))
)

// LineEncoder writes one tab separated record per line: the class, its
// superclass and interfaces, fields, methods and class attributes, and
// optionally the constant pool.
type LineEncoder struct {
	w        io.Writer
	class    *classfile.Clazz
	styled   bool
	showPool bool
}

func NewLineEncoder(w io.Writer) *LineEncoder {
	return &LineEncoder{w: w}
}

// Styled colors the record kind column. Only useful on a terminal.
func (e *LineEncoder) Styled(styled bool) *LineEncoder {
	e.styled = styled
	return e
}

func (e *LineEncoder) ShowPool(show bool) *LineEncoder {
	e.showPool = show
	return e
}

func (e *LineEncoder) Encode(class *classfile.Clazz) error {
	e.class = class
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *LineEncoder) MarshalText() ([]byte, error) {
	var sb strings.Builder
	c := e.class

	e.record(&sb, classKind(c), c.Name, visibility(c.Access), joinOrDash(classModifiers(c)),
		fmt.Sprintf("%d.%d", c.MajorVersion, c.MinorVersion))
	if c.SuperclassName != "" {
		e.record(&sb, "super", c.SuperclassName)
	}
	for _, name := range c.Interfaces {
		e.record(&sb, "implements", name)
	}

	for _, f := range c.Fields {
		e.record(&sb, "field", f.Name, typeName(f.Descriptor), visibility(f.Access), joinOrDash(fieldModifiers(f)))
	}

	for _, m := range c.Methods {
		ret, params := methodSignature(m.Descriptor)
		e.record(&sb, "method", m.Name, ret, joinOrDash(params), visibility(m.Access),
			joinOrDash(methodModifiers(m)), codeSummary(m.Code()))
	}

	for _, a := range c.Attributes {
		e.record(&sb, "attribute", a.Name(), attributeValue(a))
	}

	if e.showPool {
		for i, entry := range c.Pool.All() {
			e.record(&sb, "const", fmt.Sprint(i), entry.Tag().String(), entryValue(entry))
		}
	}

	return []byte(sb.String()), nil
}

func (e *LineEncoder) record(sb *strings.Builder, kind string, fields ...string) {
	if e.styled {
		kind = headingStyle.Render(kind)
		for i, f := range fields {
			if f == "-" {
				fields[i] = dimStyle.Render(f)
			}
		}
	}
	sb.WriteString(kind)
	for _, f := range fields {
		sb.WriteByte('\t')
		sb.WriteString(f)
	}
	sb.WriteByte('\n')
}

func codeSummary(code *classfile.CodeAttribute) string {
	if code == nil {
		return "-"
	}
	return fmt.Sprintf("stack=%d,locals=%d,code=%d", code.MaxStack, code.MaxLocals, len(code.Code))
}

func attributeValue(a classfile.Attribute) string {
	switch a := a.(type) {
	case *classfile.SourceFileAttribute:
		return a.SourceFile
	case *classfile.SignatureAttribute:
		return a.Signature
	default:
		return "-"
	}
}

func entryValue(e classfile.Entry) string {
	switch e := e.(type) {
	case *classfile.Utf8Entry:
		return fmt.Sprintf("%q", e.Value)
	case *classfile.IntegerEntry:
		return fmt.Sprint(e.Value)
	case *classfile.FloatEntry:
		return fmt.Sprint(e.Value)
	case *classfile.LongEntry:
		return fmt.Sprint(e.Value)
	case *classfile.DoubleEntry:
		return fmt.Sprint(e.Value)
	case *classfile.ClassEntry:
		return fmt.Sprintf("#%d\t%s", e.NameIndex, e.Name)
	case *classfile.StringEntry:
		return fmt.Sprintf("#%d\t%q", e.Utf8Index, e.Value)
	case *classfile.NameAndTypeEntry:
		return fmt.Sprintf("#%d:#%d\t%s:%s", e.NameIndex, e.DescriptorIndex, e.Name, e.Descriptor)
	case *classfile.MethodRefEntry:
		return memberRefValue(e.MemberRef)
	case *classfile.FieldRefEntry:
		return memberRefValue(e.MemberRef)
	default:
		return "-"
	}
}

func memberRefValue(r classfile.MemberRef) string {
	return fmt.Sprintf("#%d.#%d\t%s.%s:%s", r.ClassIndex, r.NameAndTypeIndex, r.ClassName, r.Name, r.Descriptor)
}
