package assembler

import (
	"github.com/dhamidi/classy/classfile"
)

// MethodBuilder configures one method. Without a Code block the body is a
// single return.
type MethodBuilder struct {
	pool       *classfile.Pool
	access     classfile.AccessFlags
	name       string
	descriptor string
	methodType *classfile.MethodType
	body       func(*CodeBuilder) error
	attributes classfile.Attributes
	err        error
}

func NewMethodBuilder(pool *classfile.Pool) *MethodBuilder {
	m := &MethodBuilder{
		pool:   pool,
		access: classfile.AccPublic,
		name:   "aMethod",
	}
	return m.Descriptor("()V")
}

func (m *MethodBuilder) Name(name string) *MethodBuilder {
	m.name = name
	return m
}

func (m *MethodBuilder) Descriptor(descriptor string) *MethodBuilder {
	mt, err := classfile.ParseMethodType(descriptor)
	if err != nil {
		m.fail(err)
		return m
	}
	m.descriptor = descriptor
	m.methodType = mt
	return m
}

func (m *MethodBuilder) Access(flags classfile.AccessFlags) *MethodBuilder {
	m.access = flags
	return m
}

func (m *MethodBuilder) Signature(signature string) *MethodBuilder {
	m.attributes.Put(&classfile.SignatureAttribute{Signature: signature})
	return m
}

// Code sets the body. It runs on Build, once max_locals is known.
func (m *MethodBuilder) Code(body func(*CodeBuilder) error) *MethodBuilder {
	m.body = body
	return m
}

// MaxLocals is the receiver slot, unless the method is static, plus the
// parameter slots.
func (m *MethodBuilder) MaxLocals() int {
	return m.methodType.Locals(m.access.Has(classfile.AccStatic))
}

// Build assembles the body and interns every constant the method needs on
// write. The method always carries exactly one Code attribute.
func (m *MethodBuilder) Build() (*classfile.Method, error) {
	if m.err != nil {
		return nil, m.err
	}

	cb := NewCodeBuilder(m.pool, m.MaxLocals())
	if m.body != nil {
		if err := m.body(cb); err != nil {
			return nil, err
		}
	} else {
		cb.Return()
	}
	code, err := cb.Finish()
	if err != nil {
		return nil, err
	}

	attrs := classfile.Attributes{code}
	for _, a := range m.attributes {
		attrs.Put(a)
	}

	m.pool.EnsureUtf8(m.name)
	m.pool.EnsureUtf8(m.descriptor)
	classfile.InternAttributes(m.pool, attrs)
	log.Debugf("built method %s%s", m.name, m.descriptor)

	return &classfile.Method{Member: classfile.Member{
		AccessControlled: classfile.AccessControlled{Access: m.access},
		Name:             m.name,
		Descriptor:       m.descriptor,
		Attributes:       attrs,
	}}, nil
}

func (m *MethodBuilder) fail(err error) {
	if m.err == nil {
		m.err = err
	}
}
