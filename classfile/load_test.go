package classfile

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
)

// sampleClass assembles p/Sample by hand: a constant field, a constructor
// with debug tables, and an abstract method.
func sampleClass() *Clazz {
	pool := NewPool()
	pool.EnsureClass("p/Sample")
	pool.EnsureClass(ObjectClassName)
	pool.EnsureClass("java/lang/Runnable")
	initRef := pool.EnsureMethodRef(ObjectClassName, ConstructorName, "()V")

	count := &Field{Member: Member{
		AccessControlled: AccessControlled{Access: AccPublic | AccStatic | AccFinal},
		Name:             "COUNT",
		Descriptor:       "J",
		Attributes:       Attributes{&ConstantValueAttribute{Index: pool.EnsureLong(1 << 33)}},
	}}
	ctor := &Method{Member: Member{
		AccessControlled: AccessControlled{Access: AccPublic},
		Name:             ConstructorName,
		Descriptor:       "()V",
		Attributes: Attributes{&CodeAttribute{
			MaxStack:  1,
			MaxLocals: 1,
			Code:      []byte{OpAload0, OpInvokespecial, byte(initRef >> 8), byte(initRef), OpReturn},
			Attributes: Attributes{
				&LineNumberTableAttribute{Entries: []LineNumberEntry{{StartPC: 0, LineNumber: 3}}},
				&LocalVariableTableAttribute{Entries: []LocalVariableEntry{
					{StartPC: 0, Length: 5, Name: "this", Descriptor: "Lp/Sample;", Index: 0},
				}},
			},
		}},
	}}
	run := &Method{Member: Member{
		AccessControlled: AccessControlled{Access: AccPublic | AccAbstract},
		Name:             "run",
		Descriptor:       "()V",
	}}

	c := &Clazz{
		AccessControlled: AccessControlled{Access: AccPublic | AccSuper | AccAbstract},
		MinorVersion:     DefaultMinorVersion,
		MajorVersion:     DefaultMajorVersion,
		Pool:             pool,
		Name:             "p/Sample",
		SuperclassName:   ObjectClassName,
		Interfaces:       []string{"java/lang/Runnable"},
		Fields:           []*Field{count},
		Methods:          []*Method{ctor, run},
		Attributes:       Attributes{&SourceFileAttribute{SourceFile: "Sample.java"}},
	}
	for _, f := range c.Fields {
		pool.EnsureUtf8(f.Name)
		pool.EnsureUtf8(f.Descriptor)
		InternAttributes(pool, f.Attributes)
	}
	for _, m := range c.Methods {
		pool.EnsureUtf8(m.Name)
		pool.EnsureUtf8(m.Descriptor)
		InternAttributes(pool, m.Attributes)
	}
	InternAttributes(pool, c.Attributes)
	return c
}

func TestLoadRoundTrip(t *testing.T) {
	c := sampleClass()
	b, err := Bytes(c)
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}

	loaded, err := LoadBytes(b)
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	if !reflect.DeepEqual(loaded, c) {
		t.Errorf("loaded class differs from the written one")
	}

	t.Run("byte exact", func(t *testing.T) {
		again, err := Bytes(loaded)
		if err != nil {
			t.Fatalf("Bytes: %v", err)
		}
		if !bytes.Equal(again, b) {
			t.Errorf("rewritten bytes differ: %d vs %d bytes", len(again), len(b))
		}
	})

	t.Run("header", func(t *testing.T) {
		if loaded.Name != "p/Sample" {
			t.Errorf("Name = %q", loaded.Name)
		}
		if loaded.SuperclassName != ObjectClassName {
			t.Errorf("SuperclassName = %q", loaded.SuperclassName)
		}
		if !reflect.DeepEqual(loaded.Interfaces, []string{"java/lang/Runnable"}) {
			t.Errorf("Interfaces = %v", loaded.Interfaces)
		}
		if loaded.SourceFile() != "Sample.java" {
			t.Errorf("SourceFile() = %q", loaded.SourceFile())
		}
	})

	t.Run("predicates", func(t *testing.T) {
		if !loaded.IsPublic() || !loaded.IsSuper() || !loaded.IsAbstract() {
			t.Error("class should be public, super and abstract")
		}
		if loaded.IsInterface() || loaded.IsFinal() || loaded.IsEnum() || loaded.IsAnnotation() {
			t.Error("class has unexpected flags")
		}

		f := loaded.Field("COUNT")
		if f == nil {
			t.Fatal("no COUNT field")
		}
		if !f.IsPublic() || !f.IsStatic() || !f.IsFinal() || f.IsVolatile() || f.IsPrivate() {
			t.Error("COUNT should be exactly public static final")
		}
		v, err := f.ConstantValue(loaded.Pool)
		if err != nil {
			t.Fatalf("ConstantValue: %v", err)
		}
		if l, ok := v.(*LongEntry); !ok || l.Value != 1<<33 {
			t.Errorf("ConstantValue = %#v", v)
		}

		run := loaded.Method("run", "")
		if run == nil || !run.IsAbstract() || run.Code() != nil {
			t.Errorf("run = %#v", run)
		}
		ctor := loaded.Method(ConstructorName, "()V")
		if ctor == nil || !ctor.IsConstructor() || ctor.IsStatic() {
			t.Fatalf("ctor = %#v", ctor)
		}
		code := ctor.Code()
		if code == nil || code.MaxStack != 1 || code.MaxLocals != 1 || len(code.ExceptionTable) != 0 {
			t.Errorf("ctor code = %#v", code)
		}
		if got := len(loaded.MethodsNamed("run")); got != 1 {
			t.Errorf("MethodsNamed(run) = %d methods", got)
		}
	})
}

func TestLoadObjectHasNoSuperclass(t *testing.T) {
	pool := NewPool()
	pool.EnsureClass(ObjectClassName)
	c := &Clazz{
		AccessControlled: AccessControlled{Access: AccPublic},
		MajorVersion:     DefaultMajorVersion,
		Pool:             pool,
		Name:             ObjectClassName,
	}
	b, err := Bytes(c)
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	loaded, err := LoadBytes(b)
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	if loaded.SuperclassName != "" {
		t.Errorf("SuperclassName = %q, want empty", loaded.SuperclassName)
	}
}

func TestLoadErrors(t *testing.T) {
	good, err := Bytes(sampleClass())
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}

	badDescriptor := sampleClass()
	badDescriptor.Fields[0].Descriptor = "Q"
	badDescriptor.Pool.EnsureUtf8("Q")
	badDescriptorBytes, err := Bytes(badDescriptor)
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}

	tests := []struct {
		name  string
		input []byte
	}{
		{"empty", nil},
		{"bad magic", append([]byte{0xCA, 0xFE, 0xBA, 0xBF}, good[4:]...)},
		{"truncated", good[:len(good)-1]},
		{"trailing bytes", append(append([]byte(nil), good...), 0)},
		{"bad descriptor", badDescriptorBytes},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := LoadBytes(tt.input)
			if c != nil {
				t.Error("LoadBytes returned a partial class")
			}
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("error = %v, want malformed", err)
			}
		})
	}
}

func TestWriteMisuse(t *testing.T) {
	c := sampleClass()
	c.Interfaces = append(c.Interfaces, "p/NotInterned")
	_, err := Bytes(c)
	if !errors.Is(err, ErrMisuse) {
		t.Fatalf("error = %v, want misuse", err)
	}
	if !strings.Contains(err.Error(), "p/NotInterned") {
		t.Errorf("error %q does not name the missing class", err)
	}

	if _, err := Bytes(&Clazz{Name: "p/NoPool"}); !errors.Is(err, ErrMisuse) {
		t.Errorf("nil pool error = %v, want misuse", err)
	}
}

func TestErrorFormatting(t *testing.T) {
	err := Malformed("unknown attribute %q", "X").At("methods[0]", "run")
	want := `malformed container at methods[0].run: unknown attribute "X"`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if errors.Is(err, ErrMisuse) {
		t.Error("malformed error matches misuse")
	}
}
