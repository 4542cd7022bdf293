package assembler

import (
	"math"

	"github.com/dhamidi/classy/classfile"
)

type FieldBuilder struct {
	pool       *classfile.Pool
	access     classfile.AccessFlags
	name       string
	descriptor string
	value      any
	signature  string
}

func NewFieldBuilder(pool *classfile.Pool) *FieldBuilder {
	return &FieldBuilder{
		pool:       pool,
		access:     classfile.AccPrivate,
		name:       "aField",
		descriptor: "I",
	}
}

func (f *FieldBuilder) Name(name string) *FieldBuilder {
	f.name = name
	return f
}

func (f *FieldBuilder) Descriptor(descriptor string) *FieldBuilder {
	f.descriptor = descriptor
	return f
}

func (f *FieldBuilder) Access(flags classfile.AccessFlags) *FieldBuilder {
	f.access = flags
	return f
}

func (f *FieldBuilder) Signature(signature string) *FieldBuilder {
	f.signature = signature
	return f
}

// ConstantValue attaches a ConstantValue attribute. The Go type must match
// the descriptor: int32 (or int) for I, S, C, B and Z, int64 for J, float32
// for F, float64 for D and string for java/lang/String.
func (f *FieldBuilder) ConstantValue(v any) *FieldBuilder {
	f.value = v
	return f
}

func (f *FieldBuilder) Build() (*classfile.Field, error) {
	ft, err := classfile.ParseFieldType(f.descriptor)
	if err != nil {
		return nil, err
	}

	var attrs classfile.Attributes
	if f.value != nil {
		index, err := f.constant(ft)
		if err != nil {
			return nil, err
		}
		attrs.Put(&classfile.ConstantValueAttribute{Index: index})
	}
	if f.signature != "" {
		attrs.Put(&classfile.SignatureAttribute{Signature: f.signature})
	}

	f.pool.EnsureUtf8(f.name)
	f.pool.EnsureUtf8(f.descriptor)
	classfile.InternAttributes(f.pool, attrs)
	log.Debugf("built field %s %s", f.name, f.descriptor)

	return &classfile.Field{Member: classfile.Member{
		AccessControlled: classfile.AccessControlled{Access: f.access},
		Name:             f.name,
		Descriptor:       f.descriptor,
		Attributes:       attrs,
	}}, nil
}

func (f *FieldBuilder) constant(ft classfile.FieldType) (int, error) {
	switch v := f.value.(type) {
	case int:
		if isIntLike(ft) && v >= math.MinInt32 && v <= math.MaxInt32 {
			return f.pool.EnsureInteger(int32(v)), nil
		}
	case int32:
		if isIntLike(ft) {
			return f.pool.EnsureInteger(v), nil
		}
	case int64:
		if ft == classfile.TypeLong {
			return f.pool.EnsureLong(v), nil
		}
	case float32:
		if ft == classfile.TypeFloat {
			return f.pool.EnsureFloat(v), nil
		}
	case float64:
		if ft == classfile.TypeDouble {
			return f.pool.EnsureDouble(v), nil
		}
	case string:
		if o, ok := ft.(*classfile.ObjectType); ok && o.ClassName == "java/lang/String" {
			return f.pool.EnsureString(v), nil
		}
	}
	return 0, classfile.Misuse("constant %v (%T) does not fit field %s of type %s", f.value, f.value, f.name, f.descriptor)
}

func isIntLike(ft classfile.FieldType) bool {
	switch ft {
	case classfile.TypeInt, classfile.TypeShort, classfile.TypeChar, classfile.TypeByte, classfile.TypeBoolean:
		return true
	}
	return false
}
