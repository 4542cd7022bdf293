package format

import (
	"encoding/json"
	"io"

	"github.com/dhamidi/classy/classfile"
)

type JSONEncoder struct {
	w     io.Writer
	class *classfile.Clazz
}

func NewJSONEncoder(w io.Writer) *JSONEncoder {
	return &JSONEncoder{w: w}
}

func (e *JSONEncoder) Encode(class *classfile.Clazz) error {
	e.class = class
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(append(text, '\n'))
	return err
}

func (e *JSONEncoder) MarshalText() ([]byte, error) {
	return json.MarshalIndent(e.buildClassData(), "", "  ")
}

type jsonClass struct {
	Name       string       `json:"name"`
	SuperClass string       `json:"superClass,omitempty"`
	Interfaces []string     `json:"interfaces,omitempty"`
	Visibility string       `json:"visibility"`
	Kind       string       `json:"kind"`
	Modifiers  []string     `json:"modifiers,omitempty"`
	Version    jsonVersion  `json:"version"`
	SourceFile string       `json:"sourceFile,omitempty"`
	Fields     []jsonField  `json:"fields,omitempty"`
	Methods    []jsonMethod `json:"methods,omitempty"`
	Constants  int          `json:"constants"`
}

type jsonVersion struct {
	Major uint16 `json:"major"`
	Minor uint16 `json:"minor"`
}

type jsonField struct {
	Name       string   `json:"name"`
	Descriptor string   `json:"descriptor"`
	Type       string   `json:"type"`
	Visibility string   `json:"visibility"`
	Modifiers  []string `json:"modifiers,omitempty"`
	Signature  string   `json:"signature,omitempty"`
}

type jsonMethod struct {
	Name       string    `json:"name"`
	Descriptor string    `json:"descriptor"`
	ReturnType string    `json:"returnType"`
	Parameters []string  `json:"parameters,omitempty"`
	Visibility string    `json:"visibility"`
	Modifiers  []string  `json:"modifiers,omitempty"`
	Signature  string    `json:"signature,omitempty"`
	Code       *jsonCode `json:"code,omitempty"`
}

type jsonCode struct {
	MaxStack       uint16 `json:"maxStack"`
	MaxLocals      uint16 `json:"maxLocals"`
	Length         int    `json:"length"`
	ExceptionTable int    `json:"exceptionTable"`
	Lines          int    `json:"lines,omitempty"`
	Locals         int    `json:"locals,omitempty"`
}

func (e *JSONEncoder) buildClassData() jsonClass {
	c := e.class
	return jsonClass{
		Name:       c.Name,
		SuperClass: c.SuperclassName,
		Interfaces: c.Interfaces,
		Visibility: visibility(c.Access),
		Kind:       classKind(c),
		Modifiers:  classModifiers(c),
		Version: jsonVersion{
			Major: c.MajorVersion,
			Minor: c.MinorVersion,
		},
		SourceFile: c.SourceFile(),
		Fields:     e.buildFields(),
		Methods:    e.buildMethods(),
		Constants:  c.Pool.Len(),
	}
}

func (e *JSONEncoder) buildFields() []jsonField {
	result := make([]jsonField, len(e.class.Fields))
	for i, f := range e.class.Fields {
		result[i] = jsonField{
			Name:       f.Name,
			Descriptor: f.Descriptor,
			Type:       typeName(f.Descriptor),
			Visibility: visibility(f.Access),
			Modifiers:  fieldModifiers(f),
			Signature:  f.Attributes.Signature(),
		}
	}
	return result
}

func (e *JSONEncoder) buildMethods() []jsonMethod {
	result := make([]jsonMethod, len(e.class.Methods))
	for i, m := range e.class.Methods {
		ret, params := methodSignature(m.Descriptor)
		result[i] = jsonMethod{
			Name:       m.Name,
			Descriptor: m.Descriptor,
			ReturnType: ret,
			Parameters: params,
			Visibility: visibility(m.Access),
			Modifiers:  methodModifiers(m),
			Signature:  m.Attributes.Signature(),
			Code:       buildCode(m.Code()),
		}
	}
	return result
}

func buildCode(code *classfile.CodeAttribute) *jsonCode {
	if code == nil {
		return nil
	}
	jc := &jsonCode{
		MaxStack:       code.MaxStack,
		MaxLocals:      code.MaxLocals,
		Length:         len(code.Code),
		ExceptionTable: len(code.ExceptionTable),
	}
	if t, ok := code.Attributes.Get(classfile.AttrLineNumberTable).(*classfile.LineNumberTableAttribute); ok {
		jc.Lines = len(t.Entries)
	}
	if t, ok := code.Attributes.Get(classfile.AttrLocalVariableTable).(*classfile.LocalVariableTableAttribute); ok {
		jc.Locals = len(t.Entries)
	}
	return jc
}
