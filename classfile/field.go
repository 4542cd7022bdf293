package classfile

// Member is the part shared by fields and methods.
type Member struct {
	AccessControlled
	Name       string
	Descriptor string
	Attributes Attributes
}

func (m *Member) IsPrivate() bool   { return m.Access.Has(AccPrivate) }
func (m *Member) IsProtected() bool { return m.Access.Has(AccProtected) }
func (m *Member) IsStatic() bool    { return m.Access.Has(AccStatic) }

type Field struct {
	Member
}

func (f *Field) IsVolatile() bool  { return f.Access.Has(AccVolatile) }
func (f *Field) IsTransient() bool { return f.Access.Has(AccTransient) }
func (f *Field) IsEnum() bool      { return f.Access.Has(AccEnum) }

func (f *Field) Type() (FieldType, error) {
	return ParseFieldType(f.Descriptor)
}

// ConstantValue returns the pool entry named by the field's ConstantValue
// attribute, or nil if there is none.
func (f *Field) ConstantValue(pool *Pool) (Entry, error) {
	cv := f.Attributes.ConstantValue()
	if cv == nil {
		return nil, nil
	}
	return pool.Entry(cv.Index)
}
