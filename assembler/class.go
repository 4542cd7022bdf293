// Package assembler builds class files: classes, their fields and methods,
// and method bodies with computed stack depth.
package assembler

import (
	"bytes"
	"io"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/classy/classfile"
)

var log = commonlog.GetLogger("assembler")

// ClassBuilder accumulates a class. Unless a constructor is added, Build
// prepends
//
//	<init>()V { aload_0; invokespecial <superclass>.<init>()V; return }
//
// with max_stack 1 and max_locals 1.
type ClassBuilder struct {
	pool           *classfile.Pool
	minorVersion   uint16
	majorVersion   uint16
	name           string
	superclassName string
	access         classfile.AccessFlags
	interfaces     []string
	fields         []*classfile.Field
	methods        []*classfile.Method
	attributes     classfile.Attributes
	hasConstructor bool
	built          *classfile.Clazz
	err            error
}

func NewClassBuilder() *ClassBuilder {
	return &ClassBuilder{
		pool:           classfile.NewPool(),
		minorVersion:   classfile.DefaultMinorVersion,
		majorVersion:   classfile.DefaultMajorVersion,
		superclassName: classfile.ObjectClassName,
		access:         classfile.AccPublic,
	}
}

// Pool exposes the class's constant pool, for callers that intern
// constants ahead of the code that uses them.
func (b *ClassBuilder) Pool() *classfile.Pool {
	return b.pool
}

// Name accepts internal (p/q/C) or dotted (p.q.C) names.
func (b *ClassBuilder) Name(name string) *ClassBuilder {
	if b.sealed() {
		return b
	}
	b.name = classfile.SourceToInternalName(name)
	return b
}

// SuperclassName sets the superclass. Empty means none, which only
// java/lang/Object may declare.
func (b *ClassBuilder) SuperclassName(name string) *ClassBuilder {
	if b.sealed() {
		return b
	}
	b.superclassName = classfile.SourceToInternalName(name)
	return b
}

func (b *ClassBuilder) Access(flags classfile.AccessFlags) *ClassBuilder {
	if b.sealed() {
		return b
	}
	b.access = flags
	return b
}

func (b *ClassBuilder) Version(major, minor uint16) *ClassBuilder {
	if b.sealed() {
		return b
	}
	b.majorVersion = major
	b.minorVersion = minor
	return b
}

// Implements interns each interface as a Class constant right away.
func (b *ClassBuilder) Implements(names ...string) *ClassBuilder {
	if b.sealed() {
		return b
	}
	for _, name := range names {
		name = classfile.SourceToInternalName(name)
		b.pool.EnsureClass(name)
		b.interfaces = append(b.interfaces, name)
	}
	return b
}

func (b *ClassBuilder) SourceFile(name string) *ClassBuilder {
	if b.sealed() {
		return b
	}
	b.attributes.Put(&classfile.SourceFileAttribute{SourceFile: name})
	return b
}

// Method configures and builds a method immediately, so constants are
// interned in the order methods are added.
func (b *ClassBuilder) Method(configure func(m *MethodBuilder)) *ClassBuilder {
	if b.sealed() || b.err != nil {
		return b
	}
	mb := NewMethodBuilder(b.pool)
	configure(mb)
	m, err := mb.Build()
	if err != nil {
		b.fail(err)
		return b
	}
	if m.Name == classfile.ConstructorName {
		b.hasConstructor = true
	}
	b.methods = append(b.methods, m)
	return b
}

func (b *ClassBuilder) Field(configure func(f *FieldBuilder)) *ClassBuilder {
	if b.sealed() || b.err != nil {
		return b
	}
	fb := NewFieldBuilder(b.pool)
	configure(fb)
	f, err := fb.Build()
	if err != nil {
		b.fail(err)
		return b
	}
	b.fields = append(b.fields, f)
	return b
}

// Err returns the first error recorded by a configuration method.
func (b *ClassBuilder) Err() error {
	return b.err
}

// Build finishes the class. Later calls return the same value unless a
// configuration method was called after the first Build.
func (b *ClassBuilder) Build() (*classfile.Clazz, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.built != nil {
		return b.built, nil
	}
	if b.name == "" {
		return nil, classfile.Misuse("class name not set")
	}

	b.pool.EnsureClass(b.name)
	if b.superclassName != "" {
		b.pool.EnsureClass(b.superclassName)
	}
	if !b.hasConstructor {
		ctor, err := b.defaultConstructor()
		if err != nil {
			return nil, err
		}
		b.methods = append([]*classfile.Method{ctor}, b.methods...)
		b.hasConstructor = true
	}
	classfile.InternAttributes(b.pool, b.attributes)

	b.built = &classfile.Clazz{
		AccessControlled: classfile.AccessControlled{Access: b.access},
		MinorVersion:     b.minorVersion,
		MajorVersion:     b.majorVersion,
		Pool:             b.pool,
		Name:             b.name,
		SuperclassName:   b.superclassName,
		Interfaces:       b.interfaces,
		Fields:           b.fields,
		Methods:          b.methods,
		Attributes:       b.attributes,
	}
	log.Infof("built class %s: %d fields, %d methods, %d constants", b.name, len(b.fields), len(b.methods), b.pool.Len())
	return b.built, nil
}

func (b *ClassBuilder) defaultConstructor() (*classfile.Method, error) {
	if b.superclassName == "" {
		return nil, classfile.Misuse("class %s has no superclass to construct; add a constructor", b.name)
	}
	super := b.superclassName
	return NewMethodBuilder(b.pool).
		Name(classfile.ConstructorName).
		Descriptor("()V").
		Code(func(c *CodeBuilder) error {
			c.ALoad(0)
			c.InvokeSpecial(super, classfile.ConstructorName, "()V")
			return c.Return()
		}).
		Build()
}

func (b *ClassBuilder) Write(w io.Writer) error {
	c, err := b.Build()
	if err != nil {
		return err
	}
	return classfile.Write(w, c)
}

// Bytes builds the class and returns its class file encoding.
func (b *ClassBuilder) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := b.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// sealed records a misuse once the class has been built.
func (b *ClassBuilder) sealed() bool {
	if b.built == nil {
		return false
	}
	b.fail(classfile.Misuse("class %s already built", b.name))
	return true
}

func (b *ClassBuilder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}
