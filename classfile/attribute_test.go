package classfile

import (
	"bytes"
	"errors"
	"reflect"
	"testing"
)

func attributePool() *Pool {
	pool := NewPool()
	pool.EnsureUtf8(AttrSourceFile)
	pool.EnsureUtf8("A.java")
	pool.EnsureUtf8("Unknown")
	pool.EnsureUtf8(AttrSignature)
	return pool
}

func TestReadAttributesLength(t *testing.T) {
	pool := attributePool()
	sourceFile := uint16(pool.IndexOfUtf8(AttrSourceFile))
	value := uint16(pool.IndexOfUtf8("A.java"))

	tests := []struct {
		name    string
		build   func(s *stream)
		wantErr bool
	}{
		{"exact", func(s *stream) { s.u2(1).u2(sourceFile).u4(2).u2(value) }, false},
		{"declared too long", func(s *stream) { s.u2(1).u2(sourceFile).u4(3).u2(value).u1(0) }, true},
		{"declared too short", func(s *stream) { s.u2(1).u2(sourceFile).u4(1).u2(value) }, true},
		{"unknown name", func(s *stream) {
			s.u2(1).u2(uint16(pool.IndexOfUtf8("Unknown"))).u4(2).u2(value)
		}, true},
		{"name is not utf8", func(s *stream) { s.u2(1).u2(99).u4(2).u2(value) }, true},
		{"duplicate", func(s *stream) {
			s.u2(2)
			s.u2(sourceFile).u4(2).u2(value)
			s.u2(sourceFile).u4(2).u2(value)
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s stream
			tt.build(&s)
			attrs, err := readAttributes(newReader(&s), pool)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformed) {
					t.Errorf("error = %v, want malformed", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("readAttributes: %v", err)
			}
			if got := attrs.SourceFile(); got != "A.java" {
				t.Errorf("SourceFile() = %q", got)
			}
		})
	}
}

func TestCodeAttributeRoundTrip(t *testing.T) {
	pool := NewPool()
	code := &CodeAttribute{
		MaxStack:  2,
		MaxLocals: 3,
		Code:      []byte{OpAload0, OpReturn},
		ExceptionTable: []ExceptionTableEntry{
			{StartPC: 0, EndPC: 1, HandlerPC: 1, CatchType: 0},
		},
		Attributes: Attributes{
			&LineNumberTableAttribute{Entries: []LineNumberEntry{{StartPC: 0, LineNumber: 10}}},
			&LocalVariableTableAttribute{Entries: []LocalVariableEntry{
				{StartPC: 0, Length: 2, Name: "this", Descriptor: "Lp/A;", Index: 0},
			}},
			&SignatureAttribute{Signature: "<T:Ljava/lang/Object;>()V"},
		},
	}
	attrs := Attributes{code}
	InternAttributes(pool, attrs)

	var buf bytes.Buffer
	w := newWriter(&buf)
	writeAttributes(w, pool, attrs)
	if w.err != nil {
		t.Fatalf("writeAttributes: %v", w.err)
	}

	loaded, err := readAttributes(newReader(&buf), pool)
	if err != nil {
		t.Fatalf("readAttributes: %v", err)
	}
	if !reflect.DeepEqual(loaded, attrs) {
		t.Errorf("loaded = %#v, want %#v", loaded, attrs)
	}
	if buf.Len() != 0 {
		t.Errorf("%d bytes left unread", buf.Len())
	}
	if loaded.Code() != nil && loaded.Code().Attributes.Signature() != "<T:Ljava/lang/Object;>()V" {
		t.Error("nested Signature lost")
	}
}

func TestCodeAttributeRejectsEmptyCode(t *testing.T) {
	pool := NewPool()
	attrs := Attributes{&CodeAttribute{MaxStack: 1}}
	InternAttributes(pool, attrs)

	var buf bytes.Buffer
	w := newWriter(&buf)
	writeAttributes(w, pool, attrs)
	if !errors.Is(w.err, ErrUnsupported) {
		t.Errorf("error = %v, want unsupported", w.err)
	}
}

func TestWriteAttributeMissingConstant(t *testing.T) {
	pool := NewPool()
	attrs := Attributes{&SourceFileAttribute{SourceFile: "A.java"}}

	var buf bytes.Buffer
	w := newWriter(&buf)
	writeAttributes(w, pool, attrs)
	if !errors.Is(w.err, ErrMisuse) {
		t.Errorf("error = %v, want misuse", w.err)
	}
}

func TestConstantValueTarget(t *testing.T) {
	pool := NewPool()
	name := uint16(pool.EnsureUtf8(AttrConstantValue))
	integer := uint16(pool.EnsureInteger(3))
	class := uint16(pool.EnsureClass("p/A"))

	var ok stream
	ok.u2(1).u2(name).u4(2).u2(integer)
	attrs, err := readAttributes(newReader(&ok), pool)
	if err != nil {
		t.Fatalf("readAttributes: %v", err)
	}
	if cv := attrs.ConstantValue(); cv == nil || cv.Index != int(integer) {
		t.Errorf("ConstantValue() = %#v", cv)
	}

	var bad stream
	bad.u2(1).u2(name).u4(2).u2(class)
	if _, err := readAttributes(newReader(&bad), pool); !errors.Is(err, ErrMalformed) {
		t.Errorf("class constant value error = %v, want malformed", err)
	}
}

func TestAttributesPut(t *testing.T) {
	var attrs Attributes
	attrs.Put(&SourceFileAttribute{SourceFile: "A.java"})
	attrs.Put(&SignatureAttribute{Signature: "LA;"})
	attrs.Put(&SourceFileAttribute{SourceFile: "B.java"})

	if len(attrs) != 2 {
		t.Fatalf("len = %d, want 2", len(attrs))
	}
	if attrs.SourceFile() != "B.java" {
		t.Errorf("SourceFile() = %q, want B.java", attrs.SourceFile())
	}
	if attrs[0].Name() != AttrSourceFile {
		t.Errorf("Put moved the replaced attribute to %s", attrs[0].Name())
	}
	if attrs.Code() != nil {
		t.Error("Code() on attributes without Code")
	}
}
