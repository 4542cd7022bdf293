package classfile

import (
	"bytes"
	"io"

	"github.com/tliron/commonlog"
)

var writerLog = commonlog.GetLogger("classfile.writer")

// Write serializes c in class file order. Every name, descriptor and
// attribute string must already be in c.Pool; nothing is interned here.
func Write(out io.Writer, c *Clazz) error {
	if c.Pool == nil {
		return Misuse("class %s has no constant pool", c.Name)
	}
	w := newWriter(out)
	pool := c.Pool

	w.writeU4(Magic)
	w.writeU2(c.MinorVersion)
	w.writeU2(c.MajorVersion)
	pool.writeTo(w)

	w.writeU2(uint16(c.Access))
	w.writeIndex(pool.IndexOfClass(c.Name), "this class "+c.Name)
	if c.SuperclassName == "" {
		w.writeU2(0)
	} else {
		w.writeIndex(pool.IndexOfClass(c.SuperclassName), "superclass "+c.SuperclassName)
	}

	w.writeCount(len(c.Interfaces), "interfaces")
	for _, name := range c.Interfaces {
		w.writeIndex(pool.IndexOfClass(name), "interface "+name)
	}

	w.writeCount(len(c.Fields), "fields")
	for _, f := range c.Fields {
		writeMember(w, pool, &f.Member)
	}
	w.writeCount(len(c.Methods), "methods")
	for _, m := range c.Methods {
		writeMember(w, pool, &m.Member)
	}
	writeAttributes(w, pool, c.Attributes)

	if w.err != nil {
		return within(w.err, c.Name)
	}
	writerLog.Debugf("wrote %s", c.Name)
	return nil
}

func Bytes(c *Clazz) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeMember(w *writer, pool *Pool, m *Member) {
	if w.err != nil {
		return
	}
	w.writeU2(uint16(m.Access))
	w.writeIndex(pool.IndexOfUtf8(m.Name), "member name "+m.Name)
	w.writeIndex(pool.IndexOfUtf8(m.Descriptor), "member descriptor "+m.Descriptor)
	writeAttributes(w, pool, m.Attributes)
}
