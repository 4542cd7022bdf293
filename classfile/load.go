package classfile

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/tliron/commonlog"
)

var loaderLog = commonlog.GetLogger("classfile.loader")

func LoadFile(path string) (*Clazz, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open class file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func LoadBytes(b []byte) (*Clazz, error) {
	return Load(bytes.NewReader(b))
}

// Load reads one class file from rd. The stream must end right after the
// class attributes.
func Load(rd io.Reader) (*Clazz, error) {
	r := newReader(rd)

	magic := r.readU4()
	if r.err != nil {
		return nil, within(r.err, "magic")
	}
	if magic != Magic {
		return nil, Malformed("invalid magic number: 0x%X (expected 0xCAFEBABE)", magic)
	}

	c := &Clazz{
		MinorVersion: r.readU2(),
		MajorVersion: r.readU2(),
	}
	if r.err != nil {
		return nil, within(r.err, "version")
	}
	loaderLog.Debugf("class file version %d.%d", c.MajorVersion, c.MinorVersion)

	pool, err := loadAndLink(r)
	if err != nil {
		return nil, err
	}
	c.Pool = pool

	c.Access = AccessFlags(r.readU2())
	thisClass := int(r.readU2())
	superClass := int(r.readU2())
	if r.err != nil {
		return nil, within(r.err, "class header")
	}
	if c.Name, err = pool.ClassName(thisClass); err != nil {
		return nil, within(err, "this_class")
	}
	if superClass != 0 {
		if c.SuperclassName, err = pool.ClassName(superClass); err != nil {
			return nil, within(err, "super_class")
		}
	}
	loaderLog.Debugf("loading class %s", c.Name)

	interfacesCount := int(r.readU2())
	if r.err != nil {
		return nil, within(r.err, "interfaces")
	}
	for i := 0; i < interfacesCount; i++ {
		name, err := pool.ClassName(int(r.readU2()))
		if r.err != nil {
			return nil, within(r.err, "interfaces")
		}
		if err != nil {
			return nil, within(err, "interfaces")
		}
		c.Interfaces = append(c.Interfaces, name)
	}

	fieldsCount := int(r.readU2())
	if r.err != nil {
		return nil, within(r.err, "fields")
	}
	for i := 0; i < fieldsCount; i++ {
		m, err := readMember(r, pool, false)
		if err != nil {
			return nil, within(err, fmt.Sprintf("fields[%d]", i))
		}
		c.Fields = append(c.Fields, &Field{Member: *m})
	}

	methodsCount := int(r.readU2())
	if r.err != nil {
		return nil, within(r.err, "methods")
	}
	for i := 0; i < methodsCount; i++ {
		m, err := readMember(r, pool, true)
		if err != nil {
			return nil, within(err, fmt.Sprintf("methods[%d]", i))
		}
		c.Methods = append(c.Methods, &Method{Member: *m})
	}

	if c.Attributes, err = readAttributes(r, pool); err != nil {
		return nil, within(err, "attributes")
	}

	var extra [1]byte
	if n, _ := io.ReadFull(rd, extra[:]); n > 0 {
		return nil, Malformed("trailing bytes after class attributes at offset %d", r.pos)
	}
	loaderLog.Debugf("loaded %s: %d fields, %d methods", c.Name, len(c.Fields), len(c.Methods))
	return c, nil
}

func readMember(r *reader, pool *Pool, method bool) (*Member, error) {
	m := &Member{}
	m.Access = AccessFlags(r.readU2())
	nameIndex := int(r.readU2())
	descriptorIndex := int(r.readU2())
	if r.err != nil {
		return nil, r.err
	}

	var err error
	if m.Name, err = pool.Utf8(nameIndex); err != nil {
		return nil, within(err, "name")
	}
	if m.Descriptor, err = pool.Utf8(descriptorIndex); err != nil {
		return nil, within(err, "descriptor")
	}
	if method {
		_, err = ParseMethodType(m.Descriptor)
	} else {
		_, err = ParseFieldType(m.Descriptor)
	}
	if err != nil {
		return nil, within(err, m.Name)
	}

	if m.Attributes, err = readAttributes(r, pool); err != nil {
		return nil, within(err, m.Name)
	}
	return m, nil
}
