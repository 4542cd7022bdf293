package classfile

import (
	"io"

	"github.com/tliron/commonlog"
)

var attributeLog = commonlog.GetLogger("classfile.attribute")

const (
	AttrConstantValue      = "ConstantValue"
	AttrCode               = "Code"
	AttrLineNumberTable    = "LineNumberTable"
	AttrLocalVariableTable = "LocalVariableTable"
	AttrSourceFile         = "SourceFile"
	AttrSignature          = "Signature"
)

// Attribute is one of the six supported attribute kinds. Any other
// attribute name fails the load.
type Attribute interface {
	Name() string
	writeContents(w *writer, pool *Pool)
	ensureConstants(pool *Pool)
}

type ConstantValueAttribute struct {
	Index int
}

type CodeAttribute struct {
	MaxStack       uint16
	MaxLocals      uint16
	Code           []byte
	ExceptionTable []ExceptionTableEntry
	Attributes     Attributes
}

type ExceptionTableEntry struct {
	StartPC   uint16
	EndPC     uint16
	HandlerPC uint16
	CatchType uint16
}

type LineNumberTableAttribute struct {
	Entries []LineNumberEntry
}

type LineNumberEntry struct {
	StartPC    uint16
	LineNumber uint16
}

type LocalVariableTableAttribute struct {
	Entries []LocalVariableEntry
}

type LocalVariableEntry struct {
	StartPC    uint16
	Length     uint16
	Name       string
	Descriptor string
	Index      uint16
}

type SourceFileAttribute struct {
	SourceFile string
}

type SignatureAttribute struct {
	Signature string
}

func (*ConstantValueAttribute) Name() string      { return AttrConstantValue }
func (*CodeAttribute) Name() string               { return AttrCode }
func (*LineNumberTableAttribute) Name() string    { return AttrLineNumberTable }
func (*LocalVariableTableAttribute) Name() string { return AttrLocalVariableTable }
func (*SourceFileAttribute) Name() string         { return AttrSourceFile }
func (*SignatureAttribute) Name() string          { return AttrSignature }

// Attributes keeps attributes in stream order with at most one per name.
type Attributes []Attribute

func (as Attributes) Get(name string) Attribute {
	for _, a := range as {
		if a.Name() == name {
			return a
		}
	}
	return nil
}

// Put replaces the attribute with the same name or appends a.
func (as *Attributes) Put(a Attribute) {
	for i, existing := range *as {
		if existing.Name() == a.Name() {
			(*as)[i] = a
			return
		}
	}
	*as = append(*as, a)
}

func (as Attributes) Code() *CodeAttribute {
	c, _ := as.Get(AttrCode).(*CodeAttribute)
	return c
}

func (as Attributes) ConstantValue() *ConstantValueAttribute {
	c, _ := as.Get(AttrConstantValue).(*ConstantValueAttribute)
	return c
}

func (as Attributes) SourceFile() string {
	if s, ok := as.Get(AttrSourceFile).(*SourceFileAttribute); ok {
		return s.SourceFile
	}
	return ""
}

func (as Attributes) Signature() string {
	if s, ok := as.Get(AttrSignature).(*SignatureAttribute); ok {
		return s.Signature
	}
	return ""
}

// InternAttributes adds every Utf8 constant the attributes need on write,
// attribute names included, to pool.
func InternAttributes(pool *Pool, as Attributes) {
	for _, a := range as {
		pool.EnsureUtf8(a.Name())
		a.ensureConstants(pool)
	}
}

type attributeLoader func(r *reader, pool *Pool) (Attribute, error)

var attributeLoaders map[string]attributeLoader

func init() {
	// Code nests attributes, so the table refers to itself.
	attributeLoaders = map[string]attributeLoader{
		AttrConstantValue:      loadConstantValue,
		AttrCode:               loadCode,
		AttrLineNumberTable:    loadLineNumberTable,
		AttrLocalVariableTable: loadLocalVariableTable,
		AttrSourceFile:         loadSourceFile,
		AttrSignature:          loadSignature,
	}
}

// readAttributes reads a u2 count followed by that many attributes. Each
// body must consume exactly its declared length.
func readAttributes(r *reader, pool *Pool) (Attributes, error) {
	count := int(r.readU2())
	if r.err != nil {
		return nil, r.err
	}
	var attrs Attributes
	for i := 0; i < count; i++ {
		nameIndex := int(r.readU2())
		length := r.readU4()
		if r.err != nil {
			return nil, r.err
		}
		name, err := pool.Utf8(nameIndex)
		if err != nil {
			return nil, within(err, "attribute name")
		}
		load, ok := attributeLoaders[name]
		if !ok {
			return nil, Malformed("unknown attribute %q", name)
		}
		if attrs.Get(name) != nil {
			return nil, Malformed("duplicate attribute %q", name)
		}

		body := &io.LimitedReader{R: r.r, N: int64(length)}
		br := newReader(body)
		attr, err := load(br, pool)
		r.pos += int(int64(length) - body.N)
		if err != nil {
			return nil, within(err, name)
		}
		if body.N != 0 {
			return nil, Malformed("attribute %q consumed %d of %d declared bytes", name, int64(length)-body.N, length)
		}
		attributeLog.Debugf("read %s (%d bytes)", name, length)
		attrs = append(attrs, attr)
	}
	return attrs, nil
}

func writeAttributes(w *writer, pool *Pool, attrs Attributes) {
	w.writeCount(len(attrs), "attributes")
	for _, a := range attrs {
		if w.err != nil {
			return
		}
		writeAttribute(w, pool, a)
	}
}

func writeAttribute(w *writer, pool *Pool, a Attribute) {
	buf := getScratch()
	defer putScratch(buf)

	body := newWriter(buf)
	a.writeContents(body, pool)
	if body.err != nil {
		w.fail(within(body.err, a.Name()))
		return
	}
	if int64(buf.Len()) > 0xFFFFFFFF {
		w.fail(Unsupported("attribute %q body of %d bytes", a.Name(), buf.Len()))
		return
	}
	w.writeIndex(pool.IndexOfUtf8(a.Name()), "attribute name "+a.Name())
	w.writeU4(uint32(buf.Len()))
	w.write(buf.Bytes())
}

func loadConstantValue(r *reader, pool *Pool) (Attribute, error) {
	index := int(r.readU2())
	if r.err != nil {
		return nil, r.err
	}
	e, err := pool.Entry(index)
	if err != nil {
		return nil, err
	}
	switch e.Tag() {
	case TagInteger, TagFloat, TagLong, TagDouble, TagString:
	default:
		return nil, Malformed("constant value index %d is %s", index, e.Tag())
	}
	return &ConstantValueAttribute{Index: index}, nil
}

func (a *ConstantValueAttribute) writeContents(w *writer, _ *Pool) {
	w.writeIndex(a.Index, "constant value")
}

func (a *ConstantValueAttribute) ensureConstants(*Pool) {}

func loadCode(r *reader, pool *Pool) (Attribute, error) {
	c := &CodeAttribute{}
	c.MaxStack = r.readU2()
	c.MaxLocals = r.readU2()
	codeLength := r.readU4()
	if r.err != nil {
		return nil, r.err
	}
	if codeLength == 0 || codeLength > 0xFFFF {
		return nil, Malformed("code length %d out of range 1..65535", codeLength)
	}
	c.Code = r.readBytes(int(codeLength))

	n := int(r.readU2())
	if r.err != nil {
		return nil, r.err
	}
	if n > 0 {
		c.ExceptionTable = make([]ExceptionTableEntry, n)
	}
	for i := range c.ExceptionTable {
		c.ExceptionTable[i] = ExceptionTableEntry{
			StartPC:   r.readU2(),
			EndPC:     r.readU2(),
			HandlerPC: r.readU2(),
			CatchType: r.readU2(),
		}
	}
	if r.err != nil {
		return nil, r.err
	}

	attrs, err := readAttributes(r, pool)
	if err != nil {
		return nil, err
	}
	c.Attributes = attrs
	return c, nil
}

func (a *CodeAttribute) writeContents(w *writer, pool *Pool) {
	w.writeU2(a.MaxStack)
	w.writeU2(a.MaxLocals)
	if len(a.Code) == 0 || len(a.Code) > 0xFFFF {
		w.fail(Unsupported("code length %d out of range 1..65535", len(a.Code)))
		return
	}
	w.writeU4(uint32(len(a.Code)))
	w.write(a.Code)
	w.writeCount(len(a.ExceptionTable), "exception table entries")
	for _, e := range a.ExceptionTable {
		w.writeU2(e.StartPC)
		w.writeU2(e.EndPC)
		w.writeU2(e.HandlerPC)
		w.writeU2(e.CatchType)
	}
	writeAttributes(w, pool, a.Attributes)
}

func (a *CodeAttribute) ensureConstants(pool *Pool) {
	InternAttributes(pool, a.Attributes)
}

func loadLineNumberTable(r *reader, _ *Pool) (Attribute, error) {
	n := int(r.readU2())
	a := &LineNumberTableAttribute{Entries: make([]LineNumberEntry, n)}
	for i := range a.Entries {
		a.Entries[i] = LineNumberEntry{StartPC: r.readU2(), LineNumber: r.readU2()}
	}
	return a, r.err
}

func (a *LineNumberTableAttribute) writeContents(w *writer, _ *Pool) {
	w.writeCount(len(a.Entries), "line number entries")
	for _, e := range a.Entries {
		w.writeU2(e.StartPC)
		w.writeU2(e.LineNumber)
	}
}

func (a *LineNumberTableAttribute) ensureConstants(*Pool) {}

func loadLocalVariableTable(r *reader, pool *Pool) (Attribute, error) {
	n := int(r.readU2())
	a := &LocalVariableTableAttribute{Entries: make([]LocalVariableEntry, n)}
	for i := range a.Entries {
		startPC := r.readU2()
		length := r.readU2()
		nameIndex := int(r.readU2())
		descriptorIndex := int(r.readU2())
		index := r.readU2()
		if r.err != nil {
			return nil, r.err
		}
		name, err := pool.Utf8(nameIndex)
		if err != nil {
			return nil, err
		}
		descriptor, err := pool.Utf8(descriptorIndex)
		if err != nil {
			return nil, err
		}
		a.Entries[i] = LocalVariableEntry{
			StartPC:    startPC,
			Length:     length,
			Name:       name,
			Descriptor: descriptor,
			Index:      index,
		}
	}
	return a, r.err
}

func (a *LocalVariableTableAttribute) writeContents(w *writer, pool *Pool) {
	w.writeCount(len(a.Entries), "local variable entries")
	for _, e := range a.Entries {
		w.writeU2(e.StartPC)
		w.writeU2(e.Length)
		w.writeIndex(pool.IndexOfUtf8(e.Name), "local variable "+e.Name)
		w.writeIndex(pool.IndexOfUtf8(e.Descriptor), "local variable descriptor "+e.Descriptor)
		w.writeU2(e.Index)
	}
}

func (a *LocalVariableTableAttribute) ensureConstants(pool *Pool) {
	for _, e := range a.Entries {
		pool.EnsureUtf8(e.Name)
		pool.EnsureUtf8(e.Descriptor)
	}
}

func loadSourceFile(r *reader, pool *Pool) (Attribute, error) {
	index := int(r.readU2())
	if r.err != nil {
		return nil, r.err
	}
	s, err := pool.Utf8(index)
	if err != nil {
		return nil, err
	}
	return &SourceFileAttribute{SourceFile: s}, nil
}

func (a *SourceFileAttribute) writeContents(w *writer, pool *Pool) {
	w.writeIndex(pool.IndexOfUtf8(a.SourceFile), "source file")
}

func (a *SourceFileAttribute) ensureConstants(pool *Pool) {
	pool.EnsureUtf8(a.SourceFile)
}

func loadSignature(r *reader, pool *Pool) (Attribute, error) {
	index := int(r.readU2())
	if r.err != nil {
		return nil, r.err
	}
	s, err := pool.Utf8(index)
	if err != nil {
		return nil, err
	}
	return &SignatureAttribute{Signature: s}, nil
}

func (a *SignatureAttribute) writeContents(w *writer, pool *Pool) {
	w.writeIndex(pool.IndexOfUtf8(a.Signature), "signature")
}

func (a *SignatureAttribute) ensureConstants(pool *Pool) {
	pool.EnsureUtf8(a.Signature)
}
