package classfile

import "strings"

// Type is a parsed descriptor type: one of *BaseType, *ObjectType,
// *ArrayType or *VoidType.
type Type interface {
	String() string
	isType()
}

// FieldType is a Type that can be a field or parameter type.
type FieldType interface {
	Type
	// Width is the number of local variable or operand stack slots a value
	// of this type occupies.
	Width() int
}

type BaseType struct {
	Char  byte
	Name  string
	width int
}

type ObjectType struct {
	ClassName string
}

type ArrayType struct {
	Elem FieldType
}

type VoidType struct{}

var (
	TypeByte    = &BaseType{Char: 'B', Name: "byte", width: 1}
	TypeChar    = &BaseType{Char: 'C', Name: "char", width: 1}
	TypeDouble  = &BaseType{Char: 'D', Name: "double", width: 2}
	TypeFloat   = &BaseType{Char: 'F', Name: "float", width: 1}
	TypeInt     = &BaseType{Char: 'I', Name: "int", width: 1}
	TypeLong    = &BaseType{Char: 'J', Name: "long", width: 2}
	TypeShort   = &BaseType{Char: 'S', Name: "short", width: 1}
	TypeBoolean = &BaseType{Char: 'Z', Name: "boolean", width: 1}
	TypeVoid    = &VoidType{}
)

var baseTypes = map[byte]*BaseType{
	'B': TypeByte,
	'C': TypeChar,
	'D': TypeDouble,
	'F': TypeFloat,
	'I': TypeInt,
	'J': TypeLong,
	'S': TypeShort,
	'Z': TypeBoolean,
}

func (*BaseType) isType()   {}
func (*ObjectType) isType() {}
func (*ArrayType) isType()  {}
func (*VoidType) isType()   {}

func (t *BaseType) Width() int   { return t.width }
func (t *ObjectType) Width() int { return 1 }
func (t *ArrayType) Width() int  { return 1 }

func (t *BaseType) String() string   { return string(t.Char) }
func (t *ObjectType) String() string { return "L" + t.ClassName + ";" }
func (t *ArrayType) String() string  { return "[" + t.Elem.String() }
func (t *VoidType) String() string   { return "V" }

// SourceName renders a field type the way it is written in Java source.
func SourceName(t Type) string {
	switch t := t.(type) {
	case *BaseType:
		return t.Name
	case *ObjectType:
		return InternalToSourceName(t.ClassName)
	case *ArrayType:
		return SourceName(t.Elem) + "[]"
	default:
		return "void"
	}
}

type MethodType struct {
	Return Type
	Params []FieldType
}

func (m *MethodType) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for _, p := range m.Params {
		sb.WriteString(p.String())
	}
	sb.WriteByte(')')
	sb.WriteString(m.Return.String())
	return sb.String()
}

// ParamWidth sums the slot widths of the parameters.
func (m *MethodType) ParamWidth() int {
	n := 0
	for _, p := range m.Params {
		n += p.Width()
	}
	return n
}

// Locals returns the number of local variable slots the parameters need,
// plus slot 0 for the receiver unless the method is static.
func (m *MethodType) Locals(static bool) int {
	n := m.ParamWidth()
	if !static {
		n++
	}
	return n
}

func ParseFieldType(desc string) (FieldType, error) {
	p := &descriptorParser{desc: desc}
	ft, err := p.fieldType()
	if err != nil {
		return nil, err
	}
	if err := p.end(); err != nil {
		return nil, err
	}
	return ft, nil
}

func ParseMethodType(desc string) (*MethodType, error) {
	p := &descriptorParser{desc: desc}
	mt, err := p.methodType()
	if err != nil {
		return nil, err
	}
	if err := p.end(); err != nil {
		return nil, err
	}
	return mt, nil
}

// descriptorParser is a recursive descent parser with one byte of lookahead.
type descriptorParser struct {
	desc string
	pos  int
}

func (p *descriptorParser) peek() (byte, bool) {
	if p.pos >= len(p.desc) {
		return 0, false
	}
	return p.desc[p.pos], true
}

func (p *descriptorParser) fail(format string, args ...any) error {
	e := Malformed(format, args...)
	e.Path = []string{"descriptor " + p.desc}
	return e
}

func (p *descriptorParser) end() error {
	if p.pos != len(p.desc) {
		return p.fail("unexpected %q at offset %d", p.desc[p.pos:], p.pos)
	}
	return nil
}

func (p *descriptorParser) consume(want byte) error {
	c, ok := p.peek()
	if !ok {
		return p.fail("expected %q, got end of input", want)
	}
	if c != want {
		return p.fail("expected %q, got %q at offset %d", want, c, p.pos)
	}
	p.pos++
	return nil
}

func (p *descriptorParser) fieldType() (FieldType, error) {
	c, ok := p.peek()
	if !ok {
		return nil, p.fail("expected field type, got end of input")
	}
	switch c {
	case '[':
		p.pos++
		elem, err := p.fieldType()
		if err != nil {
			return nil, err
		}
		return &ArrayType{Elem: elem}, nil
	case 'L':
		p.pos++
		semi := strings.IndexByte(p.desc[p.pos:], ';')
		if semi < 0 {
			return nil, p.fail("end of input reading class name until ';'")
		}
		if semi == 0 {
			return nil, p.fail("empty class name at offset %d", p.pos)
		}
		name := p.desc[p.pos : p.pos+semi]
		p.pos += semi + 1
		return &ObjectType{ClassName: name}, nil
	default:
		bt, ok := baseTypes[c]
		if !ok {
			return nil, p.fail("no type for %q at offset %d", c, p.pos)
		}
		p.pos++
		return bt, nil
	}
}

func (p *descriptorParser) returnType() (Type, error) {
	if c, ok := p.peek(); ok && c == 'V' {
		p.pos++
		return TypeVoid, nil
	}
	return p.fieldType()
}

func (p *descriptorParser) methodType() (*MethodType, error) {
	if err := p.consume('('); err != nil {
		return nil, err
	}
	mt := &MethodType{}
	for {
		c, ok := p.peek()
		if !ok {
			return nil, p.fail("end of input in parameter list")
		}
		if c == ')' {
			p.pos++
			break
		}
		ft, err := p.fieldType()
		if err != nil {
			return nil, err
		}
		mt.Params = append(mt.Params, ft)
	}
	ret, err := p.returnType()
	if err != nil {
		return nil, err
	}
	mt.Return = ret
	return mt, nil
}

func InternalToSourceName(name string) string {
	return strings.ReplaceAll(name, "/", ".")
}

func SourceToInternalName(name string) string {
	return strings.ReplaceAll(name, ".", "/")
}
