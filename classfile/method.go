package classfile

type Method struct {
	Member
}

func (m *Method) IsSynchronized() bool { return m.Access.Has(AccSynchronized) }
func (m *Method) IsBridge() bool       { return m.Access.Has(AccBridge) }
func (m *Method) IsVarargs() bool      { return m.Access.Has(AccVarargs) }
func (m *Method) IsNative() bool       { return m.Access.Has(AccNative) }
func (m *Method) IsAbstract() bool     { return m.Access.Has(AccAbstract) }
func (m *Method) IsStrict() bool       { return m.Access.Has(AccStrict) }

func (m *Method) IsConstructor() bool {
	return m.Name == ConstructorName
}

func (m *Method) Code() *CodeAttribute {
	return m.Attributes.Code()
}

func (m *Method) Type() (*MethodType, error) {
	return ParseMethodType(m.Descriptor)
}
