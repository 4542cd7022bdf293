package classfile

import (
	"io"
	"iter"
	"math"

	"github.com/tliron/commonlog"
)

var poolLog = commonlog.GetLogger("classfile.pool")

// Entry is one constant pool entry. The set of implementations is closed.
type Entry interface {
	Tag() ConstantTag
	writeBody(w *writer)
}

type Utf8Entry struct {
	Value string
}

type IntegerEntry struct {
	Value int32
}

type FloatEntry struct {
	Value float32
}

type LongEntry struct {
	Value int64
}

type DoubleEntry struct {
	Value float64
}

type ClassEntry struct {
	NameIndex int
	Name      string
}

type StringEntry struct {
	Utf8Index int
	Value     string
}

type NameAndTypeEntry struct {
	NameIndex       int
	DescriptorIndex int
	Name            string
	Descriptor      string
}

// MemberRef is the shared shape of field and method references.
type MemberRef struct {
	ClassIndex       int
	NameAndTypeIndex int
	ClassName        string
	Name             string
	Descriptor       string
}

type FieldRefEntry struct {
	MemberRef
}

type MethodRefEntry struct {
	MemberRef
}

func (*Utf8Entry) Tag() ConstantTag        { return TagUtf8 }
func (*IntegerEntry) Tag() ConstantTag     { return TagInteger }
func (*FloatEntry) Tag() ConstantTag       { return TagFloat }
func (*LongEntry) Tag() ConstantTag        { return TagLong }
func (*DoubleEntry) Tag() ConstantTag      { return TagDouble }
func (*ClassEntry) Tag() ConstantTag       { return TagClass }
func (*StringEntry) Tag() ConstantTag      { return TagString }
func (*NameAndTypeEntry) Tag() ConstantTag { return TagNameAndType }
func (*FieldRefEntry) Tag() ConstantTag    { return TagFieldRef }
func (*MethodRefEntry) Tag() ConstantTag   { return TagMethodRef }

func (e *Utf8Entry) writeBody(w *writer) {
	b, err := encodeModifiedUtf8(e.Value)
	if err != nil {
		w.fail(err)
		return
	}
	w.writeU2(uint16(len(b)))
	w.write(b)
}

func (e *IntegerEntry) writeBody(w *writer) { w.writeU4(uint32(e.Value)) }
func (e *FloatEntry) writeBody(w *writer)   { w.writeU4(math.Float32bits(e.Value)) }
func (e *LongEntry) writeBody(w *writer)    { w.writeU8(uint64(e.Value)) }
func (e *DoubleEntry) writeBody(w *writer)  { w.writeU8(math.Float64bits(e.Value)) }
func (e *ClassEntry) writeBody(w *writer)   { w.writeIndex(e.NameIndex, "class name") }
func (e *StringEntry) writeBody(w *writer)  { w.writeIndex(e.Utf8Index, "string value") }

func (e *NameAndTypeEntry) writeBody(w *writer) {
	w.writeIndex(e.NameIndex, "name")
	w.writeIndex(e.DescriptorIndex, "descriptor")
}

func (e *MemberRef) writeBody(w *writer) {
	w.writeIndex(e.ClassIndex, "member class")
	w.writeIndex(e.NameAndTypeIndex, "member name and type")
}

// Pool is the 1-indexed constant pool. Slot 0 and the slot following every
// Long or Double are nil.
type Pool struct {
	entries []Entry
}

func NewPool() *Pool {
	return &Pool{entries: []Entry{nil}}
}

// Len returns the number of usable slots, placeholders included; valid
// indices are 1..Len().
func (p *Pool) Len() int {
	return len(p.entries) - 1
}

// Count returns the value written as constant_pool_count.
func (p *Pool) Count() int {
	return len(p.entries)
}

// Entry returns the entry at index, failing for slot 0, placeholders and
// out-of-range indices.
func (p *Pool) Entry(index int) (Entry, error) {
	if index <= 0 || index >= len(p.entries) {
		return nil, Malformed("constant pool index %d out of range 1..%d", index, p.Len())
	}
	e := p.entries[index]
	if e == nil {
		return nil, Malformed("constant pool index %d is the second slot of a wide entry", index)
	}
	return e, nil
}

// All yields every populated entry in ascending index order.
func (p *Pool) All() iter.Seq2[int, Entry] {
	return func(yield func(int, Entry) bool) {
		for i, e := range p.entries {
			if e == nil {
				continue
			}
			if !yield(i, e) {
				return
			}
		}
	}
}

func (p *Pool) Utf8(index int) (string, error) {
	e, err := p.Entry(index)
	if err != nil {
		return "", err
	}
	u, ok := e.(*Utf8Entry)
	if !ok {
		return "", Malformed("constant pool index %d is %s, want Utf8", index, e.Tag())
	}
	return u.Value, nil
}

func (p *Pool) ClassName(index int) (string, error) {
	e, err := p.Entry(index)
	if err != nil {
		return "", err
	}
	c, ok := e.(*ClassEntry)
	if !ok {
		return "", Malformed("constant pool index %d is %s, want Class", index, e.Tag())
	}
	return c.Name, nil
}

func (p *Pool) append(e Entry) int {
	p.entries = append(p.entries, e)
	index := len(p.entries) - 1
	if e.Tag().wide() {
		p.entries = append(p.entries, nil)
	}
	poolLog.Debugf("appended %s at %d", e.Tag(), index)
	return index
}

func (p *Pool) EnsureUtf8(s string) int {
	if index := p.IndexOfUtf8(s); index > 0 {
		return index
	}
	return p.append(&Utf8Entry{Value: s})
}

func (p *Pool) EnsureClass(name string) int {
	if index := p.IndexOfClass(name); index > 0 {
		return index
	}
	nameIndex := p.EnsureUtf8(name)
	return p.append(&ClassEntry{NameIndex: nameIndex, Name: name})
}

func (p *Pool) EnsureString(s string) int {
	if index := p.IndexOfString(s); index > 0 {
		return index
	}
	utf8Index := p.EnsureUtf8(s)
	return p.append(&StringEntry{Utf8Index: utf8Index, Value: s})
}

func (p *Pool) EnsureNameAndType(name, descriptor string) int {
	if index := p.IndexOfNameAndType(name, descriptor); index > 0 {
		return index
	}
	nameIndex := p.EnsureUtf8(name)
	descriptorIndex := p.EnsureUtf8(descriptor)
	return p.append(&NameAndTypeEntry{
		NameIndex:       nameIndex,
		DescriptorIndex: descriptorIndex,
		Name:            name,
		Descriptor:      descriptor,
	})
}

func (p *Pool) EnsureMethodRef(className, name, descriptor string) int {
	if index := p.IndexOfMethodRef(className, name, descriptor); index > 0 {
		return index
	}
	return p.append(&MethodRefEntry{p.memberRef(className, name, descriptor)})
}

func (p *Pool) EnsureFieldRef(className, name, descriptor string) int {
	if index := p.IndexOfFieldRef(className, name, descriptor); index > 0 {
		return index
	}
	return p.append(&FieldRefEntry{p.memberRef(className, name, descriptor)})
}

func (p *Pool) memberRef(className, name, descriptor string) MemberRef {
	classIndex := p.EnsureClass(className)
	natIndex := p.EnsureNameAndType(name, descriptor)
	return MemberRef{
		ClassIndex:       classIndex,
		NameAndTypeIndex: natIndex,
		ClassName:        className,
		Name:             name,
		Descriptor:       descriptor,
	}
}

func (p *Pool) EnsureInteger(v int32) int {
	if index := p.IndexOfInteger(v); index > 0 {
		return index
	}
	return p.append(&IntegerEntry{Value: v})
}

func (p *Pool) EnsureFloat(v float32) int {
	if index := p.IndexOfFloat(v); index > 0 {
		return index
	}
	return p.append(&FloatEntry{Value: v})
}

func (p *Pool) EnsureLong(v int64) int {
	if index := p.IndexOfLong(v); index > 0 {
		return index
	}
	return p.append(&LongEntry{Value: v})
}

func (p *Pool) EnsureDouble(v float64) int {
	if index := p.IndexOfDouble(v); index > 0 {
		return index
	}
	return p.append(&DoubleEntry{Value: v})
}

// indexOf scans the pool in ascending order and returns the first entry of
// type T accepted by match, or -1.
func indexOf[T Entry](p *Pool, match func(T) bool) int {
	for i, e := range p.entries {
		if t, ok := e.(T); ok && match(t) {
			return i
		}
	}
	return -1
}

func (p *Pool) IndexOfUtf8(s string) int {
	return indexOf(p, func(e *Utf8Entry) bool { return e.Value == s })
}

func (p *Pool) IndexOfClass(name string) int {
	return indexOf(p, func(e *ClassEntry) bool { return e.Name == name })
}

func (p *Pool) IndexOfString(s string) int {
	return indexOf(p, func(e *StringEntry) bool { return e.Value == s })
}

func (p *Pool) IndexOfNameAndType(name, descriptor string) int {
	return indexOf(p, func(e *NameAndTypeEntry) bool {
		return e.Name == name && e.Descriptor == descriptor
	})
}

func (p *Pool) IndexOfMethodRef(className, name, descriptor string) int {
	return indexOf(p, func(e *MethodRefEntry) bool {
		return e.ClassName == className && e.Name == name && e.Descriptor == descriptor
	})
}

func (p *Pool) IndexOfFieldRef(className, name, descriptor string) int {
	return indexOf(p, func(e *FieldRefEntry) bool {
		return e.ClassName == className && e.Name == name && e.Descriptor == descriptor
	})
}

func (p *Pool) IndexOfInteger(v int32) int {
	return indexOf(p, func(e *IntegerEntry) bool { return e.Value == v })
}

// Floating point constants are matched by bit pattern so that NaN and
// negative zero intern correctly.
func (p *Pool) IndexOfFloat(v float32) int {
	bits := math.Float32bits(v)
	return indexOf(p, func(e *FloatEntry) bool { return math.Float32bits(e.Value) == bits })
}

func (p *Pool) IndexOfLong(v int64) int {
	return indexOf(p, func(e *LongEntry) bool { return e.Value == v })
}

func (p *Pool) IndexOfDouble(v float64) int {
	bits := math.Float64bits(v)
	return indexOf(p, func(e *DoubleEntry) bool { return math.Float64bits(e.Value) == bits })
}

// ReadPool reads a constant_pool_count followed by the entries, then links
// them.
func ReadPool(r io.Reader) (*Pool, error) {
	return loadAndLink(newReader(r))
}

// rawEntry is an entry as it appears in the stream: leaf entries are
// already complete, symbolic entries only carry indices until linked.
type rawEntry struct {
	tag    ConstantTag
	leaf   Entry
	first  int
	second int
}

type entryLoader func(r *reader) (*rawEntry, error)

var entryLoaders = map[ConstantTag]entryLoader{
	TagUtf8: func(r *reader) (*rawEntry, error) {
		b := r.readBytes(int(r.readU2()))
		if r.err != nil {
			return nil, r.err
		}
		s, err := decodeModifiedUtf8(b)
		if err != nil {
			r.fail(err)
			return nil, r.err
		}
		return &rawEntry{tag: TagUtf8, leaf: &Utf8Entry{Value: s}}, nil
	},
	TagInteger: func(r *reader) (*rawEntry, error) {
		v := r.readU4()
		return &rawEntry{tag: TagInteger, leaf: &IntegerEntry{Value: int32(v)}}, r.err
	},
	TagFloat: func(r *reader) (*rawEntry, error) {
		v := r.readU4()
		return &rawEntry{tag: TagFloat, leaf: &FloatEntry{Value: math.Float32frombits(v)}}, r.err
	},
	TagLong: func(r *reader) (*rawEntry, error) {
		v := r.readU8()
		return &rawEntry{tag: TagLong, leaf: &LongEntry{Value: int64(v)}}, r.err
	},
	TagDouble: func(r *reader) (*rawEntry, error) {
		v := r.readU8()
		return &rawEntry{tag: TagDouble, leaf: &DoubleEntry{Value: math.Float64frombits(v)}}, r.err
	},
	TagClass:       oneIndex(TagClass),
	TagString:      oneIndex(TagString),
	TagFieldRef:    twoIndices(TagFieldRef),
	TagMethodRef:   twoIndices(TagMethodRef),
	TagNameAndType: twoIndices(TagNameAndType),
}

func oneIndex(tag ConstantTag) entryLoader {
	return func(r *reader) (*rawEntry, error) {
		first := r.readU2()
		return &rawEntry{tag: tag, first: int(first)}, r.err
	}
}

func twoIndices(tag ConstantTag) entryLoader {
	return func(r *reader) (*rawEntry, error) {
		first := r.readU2()
		second := r.readU2()
		return &rawEntry{tag: tag, first: int(first), second: int(second)}, r.err
	}
}

func loadAndLink(r *reader) (*Pool, error) {
	count := int(r.readU2())
	if r.err != nil {
		return nil, within(r.err, "constant_pool_count")
	}
	if count == 0 {
		return nil, Malformed("constant_pool_count is 0")
	}
	poolLog.Debugf("loading constant pool with count %d", count)

	raw := make([]*rawEntry, count)
	for i := 1; i < count; i++ {
		tag := ConstantTag(r.readU1())
		if r.err != nil {
			return nil, within(r.err, "constant_pool")
		}
		load, ok := entryLoaders[tag]
		if !ok {
			return nil, Malformed("unknown constant pool tag %d at entry %d", tag, i)
		}
		entry, err := load(r)
		if err != nil {
			return nil, within(err, "constant_pool")
		}
		raw[i] = entry
		if tag.wide() {
			i++
			if i >= count {
				return nil, Malformed("wide %s entry at %d overruns constant_pool_count %d", tag, i-1, count)
			}
		}
	}

	l := &linker{
		raw:     raw,
		entries: make([]Entry, count),
		linked:  make([]bool, count),
		active:  make([]bool, count),
	}
	for i := 1; i < count; i++ {
		if raw[i] == nil {
			continue
		}
		if _, err := l.link(i); err != nil {
			return nil, err
		}
	}
	poolLog.Debugf("constant pool linked")
	return &Pool{entries: l.entries}, nil
}

// linker resolves raw entries into complete ones. Entries may refer to
// higher indices, so resolution recurses and each slot is linked once.
type linker struct {
	raw     []*rawEntry
	entries []Entry
	linked  []bool
	active  []bool
}

func (l *linker) link(index int) (Entry, error) {
	if index <= 0 || index >= len(l.raw) || l.raw[index] == nil {
		return nil, Malformed("constant pool reference to unusable index %d", index)
	}
	if l.linked[index] {
		return l.entries[index], nil
	}
	if l.active[index] {
		return nil, Malformed("constant pool entry %d refers to itself", index)
	}
	l.active[index] = true
	defer func() { l.active[index] = false }()

	raw := l.raw[index]
	var entry Entry
	switch raw.tag {
	case TagClass:
		name, err := l.utf8(raw.first)
		if err != nil {
			return nil, err
		}
		entry = &ClassEntry{NameIndex: raw.first, Name: name}
	case TagString:
		value, err := l.utf8(raw.first)
		if err != nil {
			return nil, err
		}
		entry = &StringEntry{Utf8Index: raw.first, Value: value}
	case TagNameAndType:
		name, err := l.utf8(raw.first)
		if err != nil {
			return nil, err
		}
		descriptor, err := l.utf8(raw.second)
		if err != nil {
			return nil, err
		}
		entry = &NameAndTypeEntry{
			NameIndex:       raw.first,
			DescriptorIndex: raw.second,
			Name:            name,
			Descriptor:      descriptor,
		}
	case TagFieldRef, TagMethodRef:
		ref, err := l.memberRef(raw)
		if err != nil {
			return nil, err
		}
		if raw.tag == TagFieldRef {
			entry = &FieldRefEntry{ref}
		} else {
			entry = &MethodRefEntry{ref}
		}
	default:
		entry = raw.leaf
	}

	l.entries[index] = entry
	l.linked[index] = true
	if poolLog.AllowLevel(commonlog.Debug) {
		poolLog.Debugf("linked %s at %d: %#v", raw.tag, index, entry)
	}
	return entry, nil
}

func (l *linker) utf8(index int) (string, error) {
	e, err := l.link(index)
	if err != nil {
		return "", err
	}
	u, ok := e.(*Utf8Entry)
	if !ok {
		return "", Malformed("constant pool index %d is %s, want Utf8", index, e.Tag())
	}
	return u.Value, nil
}

func (l *linker) memberRef(raw *rawEntry) (MemberRef, error) {
	e, err := l.link(raw.first)
	if err != nil {
		return MemberRef{}, err
	}
	class, ok := e.(*ClassEntry)
	if !ok {
		return MemberRef{}, Malformed("constant pool index %d is %s, want Class", raw.first, e.Tag())
	}
	e, err = l.link(raw.second)
	if err != nil {
		return MemberRef{}, err
	}
	nat, ok := e.(*NameAndTypeEntry)
	if !ok {
		return MemberRef{}, Malformed("constant pool index %d is %s, want NameAndType", raw.second, e.Tag())
	}
	return MemberRef{
		ClassIndex:       raw.first,
		NameAndTypeIndex: raw.second,
		ClassName:        class.Name,
		Name:             nat.Name,
		Descriptor:       nat.Descriptor,
	}, nil
}

func (p *Pool) writeTo(w *writer) {
	w.writeCount(len(p.entries), "constant pool slots")
	for i := 1; i < len(p.entries) && w.err == nil; i++ {
		e := p.entries[i]
		if e == nil {
			w.fail(Misuse("constant pool slot %d is empty", i))
			return
		}
		w.writeU1(uint8(e.Tag()))
		e.writeBody(w)
		if e.Tag().wide() {
			i++
		}
	}
}
