// Package format renders loaded classes as tab separated lines or JSON.
package format

import (
	"encoding"
	"strings"

	"github.com/dhamidi/classy/classfile"
)

type Encoder interface {
	encoding.TextMarshaler
	Encode(class *classfile.Clazz) error
}

func visibility(a classfile.AccessFlags) string {
	switch {
	case a.Has(classfile.AccPublic):
		return "public"
	case a.Has(classfile.AccProtected):
		return "protected"
	case a.Has(classfile.AccPrivate):
		return "private"
	default:
		return "package"
	}
}

func classKind(c *classfile.Clazz) string {
	switch {
	case c.IsAnnotation():
		return "annotation"
	case c.IsEnum():
		return "enum"
	case c.IsInterface():
		return "interface"
	default:
		return "class"
	}
}

func classModifiers(c *classfile.Clazz) []string {
	var mods []string
	if c.IsFinal() {
		mods = append(mods, "final")
	}
	if c.IsAbstract() && !c.IsInterface() {
		mods = append(mods, "abstract")
	}
	if c.IsSuper() {
		mods = append(mods, "super")
	}
	if c.IsSynthetic() {
		mods = append(mods, "synthetic")
	}
	return mods
}

func fieldModifiers(f *classfile.Field) []string {
	var mods []string
	if f.IsStatic() {
		mods = append(mods, "static")
	}
	if f.IsFinal() {
		mods = append(mods, "final")
	}
	if f.IsVolatile() {
		mods = append(mods, "volatile")
	}
	if f.IsTransient() {
		mods = append(mods, "transient")
	}
	if f.IsSynthetic() {
		mods = append(mods, "synthetic")
	}
	if f.IsEnum() {
		mods = append(mods, "enum")
	}
	return mods
}

func methodModifiers(m *classfile.Method) []string {
	var mods []string
	if m.IsStatic() {
		mods = append(mods, "static")
	}
	if m.IsFinal() {
		mods = append(mods, "final")
	}
	if m.IsAbstract() {
		mods = append(mods, "abstract")
	}
	if m.IsSynchronized() {
		mods = append(mods, "synchronized")
	}
	if m.IsNative() {
		mods = append(mods, "native")
	}
	if m.IsBridge() {
		mods = append(mods, "bridge")
	}
	if m.IsVarargs() {
		mods = append(mods, "varargs")
	}
	if m.IsStrict() {
		mods = append(mods, "strict")
	}
	if m.IsSynthetic() {
		mods = append(mods, "synthetic")
	}
	return mods
}

func joinOrDash(parts []string) string {
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ",")
}

// typeName renders a descriptor as Java source, falling back to the raw
// descriptor when it does not parse.
func typeName(descriptor string) string {
	t, err := classfile.ParseFieldType(descriptor)
	if err != nil {
		return descriptor
	}
	return classfile.SourceName(t)
}

func methodSignature(descriptor string) (string, []string) {
	mt, err := classfile.ParseMethodType(descriptor)
	if err != nil {
		return descriptor, nil
	}
	var params []string
	for _, p := range mt.Params {
		params = append(params, classfile.SourceName(p))
	}
	return classfile.SourceName(mt.Return), params
}
