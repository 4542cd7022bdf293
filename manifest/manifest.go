// Package manifest describes a class to assemble in TOML.
//
//	name = "p.Hello"
//	access = ["public", "super"]
//
//	[[methods]]
//	name = "main"
//	descriptor = "([Ljava/lang/String;)V"
//	access = ["public", "static"]
//	code = [
//	  { op = "getstatic", class = "java/lang/System", name = "out", descriptor = "Ljava/io/PrintStream;" },
//	  { op = "ldc", string = "hello" },
//	  { op = "invokevirtual", class = "java/io/PrintStream", name = "println", descriptor = "(Ljava/lang/String;)V" },
//	  { op = "return" },
//	]
package manifest

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/dhamidi/classy/assembler"
	"github.com/dhamidi/classy/classfile"
)

type Manifest struct {
	Name         string   `toml:"name"`
	Superclass   *string  `toml:"superclass"`
	Access       []string `toml:"access"`
	Interfaces   []string `toml:"interfaces"`
	SourceFile   string   `toml:"source_file"`
	MajorVersion uint16   `toml:"major_version"`
	MinorVersion uint16   `toml:"minor_version"`
	Fields       []Field  `toml:"fields"`
	Methods      []Method `toml:"methods"`
}

type Field struct {
	Name       string   `toml:"name"`
	Descriptor string   `toml:"descriptor"`
	Access     []string `toml:"access"`
	Signature  string   `toml:"signature"`
	Value      any      `toml:"value"`
}

type Method struct {
	Name       string        `toml:"name"`
	Descriptor string        `toml:"descriptor"`
	Access     []string      `toml:"access"`
	Signature  string        `toml:"signature"`
	Code       []Instruction `toml:"code"`
}

// Instruction is one assembler operation. Which of the operand fields are
// used depends on Op.
type Instruction struct {
	Op         string `toml:"op"`
	Slot       int    `toml:"slot"`
	Class      string `toml:"class"`
	Name       string `toml:"name"`
	Descriptor string `toml:"descriptor"`
	String     string `toml:"string"`
}

var accessNames = map[string]classfile.AccessFlags{
	"public":       classfile.AccPublic,
	"private":      classfile.AccPrivate,
	"protected":    classfile.AccProtected,
	"static":       classfile.AccStatic,
	"final":        classfile.AccFinal,
	"super":        classfile.AccSuper,
	"synchronized": classfile.AccSynchronized,
	"volatile":     classfile.AccVolatile,
	"bridge":       classfile.AccBridge,
	"transient":    classfile.AccTransient,
	"varargs":      classfile.AccVarargs,
	"native":       classfile.AccNative,
	"interface":    classfile.AccInterface,
	"abstract":     classfile.AccAbstract,
	"strict":       classfile.AccStrict,
	"synthetic":    classfile.AccSynthetic,
	"annotation":   classfile.AccAnnotation,
	"enum":         classfile.AccEnum,
}

func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return Parse(data)
}

// Parse decodes a manifest. Unknown keys are rejected.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if m.Name == "" {
		return nil, fmt.Errorf("manifest has no class name")
	}
	return &m, nil
}

// ParseAccess ORs the named flags together.
func ParseAccess(names []string) (classfile.AccessFlags, error) {
	var flags classfile.AccessFlags
	for _, name := range names {
		flag, ok := accessNames[strings.ToLower(name)]
		if !ok {
			return 0, fmt.Errorf("unknown access flag %q", name)
		}
		flags |= flag
	}
	return flags, nil
}

// Builder configures a ClassBuilder from the manifest. Errors from method
// bodies surface when the class is built.
func (m *Manifest) Builder() (*assembler.ClassBuilder, error) {
	b := assembler.NewClassBuilder().Name(m.Name)
	if m.Superclass != nil {
		b.SuperclassName(*m.Superclass)
	}
	if m.Access != nil {
		access, err := ParseAccess(m.Access)
		if err != nil {
			return nil, fmt.Errorf("class access: %w", err)
		}
		b.Access(access)
	}
	if m.MajorVersion != 0 {
		b.Version(m.MajorVersion, m.MinorVersion)
	}
	b.Implements(m.Interfaces...)
	if m.SourceFile != "" {
		b.SourceFile(m.SourceFile)
	}

	for i, f := range m.Fields {
		if err := m.addField(b, f); err != nil {
			return nil, fmt.Errorf("fields[%d] %s: %w", i, f.Name, err)
		}
	}
	for i, method := range m.Methods {
		if err := m.addMethod(b, method); err != nil {
			return nil, fmt.Errorf("methods[%d] %s: %w", i, method.Name, err)
		}
	}
	return b, nil
}

func (m *Manifest) addField(b *assembler.ClassBuilder, f Field) error {
	access, err := ParseAccess(f.Access)
	if err != nil {
		return err
	}
	var value any
	if f.Value != nil {
		if value, err = constantFor(f.Descriptor, f.Value); err != nil {
			return err
		}
	}
	b.Field(func(fb *assembler.FieldBuilder) {
		fb.Name(f.Name).Descriptor(f.Descriptor)
		if f.Access != nil {
			fb.Access(access)
		}
		if value != nil {
			fb.ConstantValue(value)
		}
		if f.Signature != "" {
			fb.Signature(f.Signature)
		}
	})
	return b.Err()
}

func (m *Manifest) addMethod(b *assembler.ClassBuilder, method Method) error {
	access, err := ParseAccess(method.Access)
	if err != nil {
		return err
	}
	b.Method(func(mb *assembler.MethodBuilder) {
		if method.Name != "" {
			mb.Name(method.Name)
		}
		if method.Access != nil {
			mb.Access(access)
		}
		if method.Descriptor != "" {
			mb.Descriptor(method.Descriptor)
		}
		if method.Signature != "" {
			mb.Signature(method.Signature)
		}
		if len(method.Code) > 0 {
			mb.Code(func(c *assembler.CodeBuilder) error {
				for i, in := range method.Code {
					if err := emit(c, in); err != nil {
						return fmt.Errorf("code[%d] %s: %w", i, in.Op, err)
					}
				}
				return nil
			})
		}
	})
	return b.Err()
}

func emit(c *assembler.CodeBuilder, in Instruction) error {
	switch strings.ToLower(in.Op) {
	case "aload":
		return c.ALoad(in.Slot)
	case "invokespecial":
		return c.InvokeSpecial(in.Class, in.Name, in.Descriptor)
	case "invokevirtual":
		return c.InvokeVirtual(in.Class, in.Name, in.Descriptor)
	case "getstatic":
		return c.GetStatic(in.Class, in.Name, in.Descriptor)
	case "ldc":
		return c.LdcString(in.String)
	case "return":
		return c.Return()
	default:
		return fmt.Errorf("unknown instruction")
	}
}

// constantFor converts a decoded TOML value, an int64, float64 or string,
// to the Go type FieldBuilder.ConstantValue expects for descriptor.
func constantFor(descriptor string, v any) (any, error) {
	switch descriptor {
	case "I", "S", "C", "B", "Z":
		switch v := v.(type) {
		case int64:
			if v < math.MinInt32 || v > math.MaxInt32 {
				return nil, fmt.Errorf("value %d overflows %s", v, descriptor)
			}
			return int32(v), nil
		case bool:
			if descriptor == "Z" {
				if v {
					return int32(1), nil
				}
				return int32(0), nil
			}
		}
	case "J":
		if v, ok := v.(int64); ok {
			return v, nil
		}
	case "F":
		switch v := v.(type) {
		case float64:
			return float32(v), nil
		case int64:
			return float32(v), nil
		}
	case "D":
		switch v := v.(type) {
		case float64:
			return v, nil
		case int64:
			return float64(v), nil
		}
	case "Ljava/lang/String;":
		if v, ok := v.(string); ok {
			return v, nil
		}
	}
	return nil, fmt.Errorf("value %v (%T) does not fit descriptor %s", v, v, descriptor)
}
