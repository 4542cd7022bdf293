package assembler

import (
	"errors"
	"reflect"
	"testing"

	"github.com/dhamidi/classy/classfile"
)

func TestDefaultConstructor(t *testing.T) {
	b := NewClassBuilder().Name("p/Empty")
	c, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(c.Methods) != 1 {
		t.Fatalf("got %d methods, want 1", len(c.Methods))
	}

	m := c.Methods[0]
	if m.Name != "<init>" || m.Descriptor != "()V" {
		t.Errorf("method = %s%s, want <init>()V", m.Name, m.Descriptor)
	}
	if m.Access != classfile.AccPublic {
		t.Errorf("access = %#x, want public", m.Access)
	}
	if len(m.Attributes) != 1 {
		t.Errorf("got %d attributes, want only Code", len(m.Attributes))
	}

	code := m.Code()
	ref := c.Pool.IndexOfMethodRef("java/lang/Object", "<init>", "()V")
	want := &classfile.CodeAttribute{
		MaxStack:  1,
		MaxLocals: 1,
		Code:      []byte{0x2A, 0xB7, byte(ref >> 8), byte(ref), 0xB1},
	}
	if !reflect.DeepEqual(code, want) {
		t.Errorf("code = %#v, want %#v", code, want)
	}

	again, err := b.Build()
	if err != nil || again != c {
		t.Errorf("second Build() = %p, %v, want the same class", again, err)
	}
}

func TestDefaultConstructorCallsSuperclass(t *testing.T) {
	c, err := NewClassBuilder().Name("p/Child").SuperclassName("p.Parent").Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if c.SuperclassName != "p/Parent" {
		t.Errorf("SuperclassName = %q", c.SuperclassName)
	}
	if c.Pool.IndexOfMethodRef("p/Parent", "<init>", "()V") < 0 {
		t.Error("default constructor does not invoke p/Parent.<init>")
	}
	if c.Pool.IndexOfMethodRef("java/lang/Object", "<init>", "()V") >= 0 {
		t.Error("default constructor invokes java/lang/Object.<init>")
	}
}

func TestExplicitConstructor(t *testing.T) {
	c, err := NewClassBuilder().
		Name("p/Explicit").
		Method(func(m *MethodBuilder) {
			m.Name("run").Access(classfile.AccPublic | classfile.AccStatic)
		}).
		Method(func(m *MethodBuilder) {
			m.Name("<init>").Access(classfile.AccPrivate).Code(func(c *CodeBuilder) error {
				c.ALoad(0)
				c.InvokeSpecial("java/lang/Object", "<init>", "()V")
				return c.Return()
			})
		}).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(c.Methods) != 2 {
		t.Fatalf("got %d methods, want 2", len(c.Methods))
	}
	if c.Methods[0].Name != "run" || c.Methods[1].Name != "<init>" {
		t.Errorf("methods = %s, %s", c.Methods[0].Name, c.Methods[1].Name)
	}
	if !c.Methods[1].IsPrivate() {
		t.Error("explicit constructor lost its access flags")
	}
}

func TestMethodBuilderMaxLocals(t *testing.T) {
	tests := []struct {
		descriptor string
		access     classfile.AccessFlags
		want       uint16
	}{
		{"()V", classfile.AccPublic, 1},
		{"()V", classfile.AccStatic, 0},
		{"(JI)V", classfile.AccPublic, 4},
		{"(JI)V", classfile.AccPublic | classfile.AccStatic, 3},
		{"([Ljava/lang/String;)V", classfile.AccStatic, 1},
	}
	for _, tt := range tests {
		t.Run(tt.descriptor, func(t *testing.T) {
			m, err := NewMethodBuilder(classfile.NewPool()).Descriptor(tt.descriptor).Access(tt.access).Build()
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			code := m.Code()
			if code.MaxLocals != tt.want {
				t.Errorf("max_locals = %d, want %d", code.MaxLocals, tt.want)
			}
			if !reflect.DeepEqual(code.Code, []byte{classfile.OpReturn}) {
				t.Errorf("default body = % X, want return", code.Code)
			}
		})
	}
}

func TestMethodBuilderInternsConstants(t *testing.T) {
	pool := classfile.NewPool()
	m, err := NewMethodBuilder(pool).
		Name("get").
		Descriptor("()Ljava/util/List;").
		Signature("()Ljava/util/List<Ljava/lang/String;>;").
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, s := range []string{"get", "()Ljava/util/List;", "Code", "Signature", "()Ljava/util/List<Ljava/lang/String;>;"} {
		if pool.IndexOfUtf8(s) < 0 {
			t.Errorf("%q not interned", s)
		}
	}
	if m.Attributes[0].Name() != classfile.AttrCode {
		t.Errorf("first attribute = %s, want Code", m.Attributes[0].Name())
	}
}

func TestMethodBuilderErrors(t *testing.T) {
	if _, err := NewMethodBuilder(classfile.NewPool()).Descriptor("(").Build(); !errors.Is(err, classfile.ErrMalformed) {
		t.Errorf("bad descriptor = %v, want malformed", err)
	}

	boom := errors.New("boom")
	_, err := NewMethodBuilder(classfile.NewPool()).Code(func(*CodeBuilder) error { return boom }).Build()
	if err != boom {
		t.Errorf("body error = %v, want boom", err)
	}

	_, err = NewClassBuilder().Name("p/Bad").Method(func(m *MethodBuilder) {
		m.Code(func(c *CodeBuilder) error { return c.InvokeVirtual("p/C", "m", "()V") })
	}).Build()
	if !errors.Is(err, classfile.ErrMisuse) {
		t.Errorf("underflow in class = %v, want misuse", err)
	}
}

func TestFieldBuilderConstantValue(t *testing.T) {
	tests := []struct {
		descriptor string
		value      any
		want       classfile.Entry
	}{
		{"I", 42, &classfile.IntegerEntry{Value: 42}},
		{"Z", int32(1), &classfile.IntegerEntry{Value: 1}},
		{"J", int64(1) << 40, &classfile.LongEntry{Value: 1 << 40}},
		{"F", float32(1.5), &classfile.FloatEntry{Value: 1.5}},
		{"D", 2.25, &classfile.DoubleEntry{Value: 2.25}},
		{"Ljava/lang/String;", "hi", &classfile.StringEntry{Utf8Index: 1, Value: "hi"}},
	}
	for _, tt := range tests {
		t.Run(tt.descriptor, func(t *testing.T) {
			pool := classfile.NewPool()
			f, err := NewFieldBuilder(pool).Name("X").Descriptor(tt.descriptor).ConstantValue(tt.value).Build()
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			got, err := f.ConstantValue(pool)
			if err != nil {
				t.Fatalf("ConstantValue: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("constant = %#v, want %#v", got, tt.want)
			}
		})
	}

	t.Run("mismatch", func(t *testing.T) {
		_, err := NewFieldBuilder(classfile.NewPool()).Descriptor("J").ConstantValue("x").Build()
		if !errors.Is(err, classfile.ErrMisuse) {
			t.Errorf("error = %v, want misuse", err)
		}
	})
}

func TestClassBuilderConfiguration(t *testing.T) {
	b := NewClassBuilder().
		Name("p.q.Greeter").
		Access(classfile.AccPublic|classfile.AccSuper|classfile.AccFinal).
		Implements("java.io.Serializable", "java/lang/Runnable").
		SourceFile("Greeter.java").
		Field(func(f *FieldBuilder) {
			f.Name("GREETING").Descriptor("Ljava/lang/String;").
				Access(classfile.AccPublic | classfile.AccStatic | classfile.AccFinal).
				ConstantValue("hello")
		})
	if b.Pool().IndexOfClass("java/io/Serializable") < 0 {
		t.Error("Implements did not intern the interface eagerly")
	}

	c, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if c.Name != "p/q/Greeter" {
		t.Errorf("Name = %q", c.Name)
	}
	if !reflect.DeepEqual(c.Interfaces, []string{"java/io/Serializable", "java/lang/Runnable"}) {
		t.Errorf("Interfaces = %v", c.Interfaces)
	}
	if !c.IsFinal() || !c.IsSuper() {
		t.Error("class flags lost")
	}
	if c.SourceFile() != "Greeter.java" {
		t.Errorf("SourceFile() = %q", c.SourceFile())
	}
	if f := c.Field("GREETING"); f == nil || f.Attributes.ConstantValue() == nil {
		t.Error("GREETING has no constant value")
	}
}

func TestClassBuilderErrors(t *testing.T) {
	if _, err := NewClassBuilder().Build(); !errors.Is(err, classfile.ErrMisuse) {
		t.Errorf("unnamed class = %v, want misuse", err)
	}
	if _, err := NewClassBuilder().Name("java/lang/Object").SuperclassName("").Build(); !errors.Is(err, classfile.ErrMisuse) {
		t.Errorf("no superclass and no constructor = %v, want misuse", err)
	}
	b := NewClassBuilder().Name("p/F").Field(func(f *FieldBuilder) { f.Descriptor("Q") })
	if !errors.Is(b.Err(), classfile.ErrMalformed) {
		t.Errorf("Err() = %v, want malformed", b.Err())
	}
	if _, err := b.Bytes(); !errors.Is(err, classfile.ErrMalformed) {
		t.Errorf("Bytes() = %v, want the recorded error", err)
	}
}

func TestBuildAndLoadEmptyClass(t *testing.T) {
	b, err := NewClassBuilder().Name("p/Empty").SuperclassName("java/lang/Object").Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	c, err := classfile.LoadBytes(b)
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	if c.Name != "p/Empty" || c.SuperclassName != "java/lang/Object" {
		t.Errorf("class = %s extends %s", c.Name, c.SuperclassName)
	}
	if len(c.Methods) != 1 {
		t.Fatalf("got %d methods, want 1", len(c.Methods))
	}
	m := c.Methods[0]
	if m.Name != "<init>" || m.Descriptor != "()V" {
		t.Errorf("method = %s%s", m.Name, m.Descriptor)
	}
	code := m.Code()
	if code == nil {
		t.Fatal("no Code attribute")
	}
	if code.MaxStack != 1 || code.MaxLocals != 1 || len(code.ExceptionTable) != 0 {
		t.Errorf("code = max_stack %d, max_locals %d, %d handlers", code.MaxStack, code.MaxLocals, len(code.ExceptionTable))
	}

	again, err := classfile.Bytes(c)
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if string(again) != string(b) {
		t.Error("rewriting the loaded class changed its bytes")
	}
}

func TestClassBuilderSealedAfterBuild(t *testing.T) {
	configure := []struct {
		name string
		late func(b *ClassBuilder)
	}{
		{"implements", func(b *ClassBuilder) { b.Implements("p/I") }},
		{"method", func(b *ClassBuilder) { b.Method(func(m *MethodBuilder) { m.Name("late") }) }},
		{"field", func(b *ClassBuilder) { b.Field(func(f *FieldBuilder) { f.Name("late") }) }},
		{"source file", func(b *ClassBuilder) { b.SourceFile("Late.java") }},
		{"name", func(b *ClassBuilder) { b.Name("p/Other") }},
	}
	for _, tt := range configure {
		t.Run(tt.name, func(t *testing.T) {
			b := NewClassBuilder().Name("p/Sealed")
			c, err := b.Build()
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			size := c.Pool.Len()

			tt.late(b)

			if !errors.Is(b.Err(), classfile.ErrMisuse) {
				t.Errorf("Err() = %v, want misuse", b.Err())
			}
			if _, err := b.Bytes(); !errors.Is(err, classfile.ErrMisuse) {
				t.Errorf("Bytes() = %v, want misuse", err)
			}
			if c.Pool.Len() != size {
				t.Errorf("built pool grew from %d to %d entries", size, c.Pool.Len())
			}
			if c.Name != "p/Sealed" || len(c.Interfaces) != 0 || len(c.Methods) != 1 || len(c.Fields) != 0 {
				t.Errorf("built class changed: %+v", c)
			}
		})
	}
}
