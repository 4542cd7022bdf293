package assembler

import (
	"github.com/dhamidi/classy/classfile"
)

// CodeBuilder emits an instruction stream into a method body and tracks the
// operand stack depth. The first failure is sticky: later operations return
// it without emitting anything, and so does Finish.
type CodeBuilder struct {
	pool      *classfile.Pool
	code      []byte
	maxLocals int
	stack     int
	maxStack  int
	err       error
}

func NewCodeBuilder(pool *classfile.Pool, maxLocals int) *CodeBuilder {
	return &CodeBuilder{pool: pool, maxLocals: maxLocals}
}

func (c *CodeBuilder) MethodRef(className, name, descriptor string) int {
	return c.pool.EnsureMethodRef(className, name, descriptor)
}

func (c *CodeBuilder) FieldRef(className, name, descriptor string) int {
	return c.pool.EnsureFieldRef(className, name, descriptor)
}

func (c *CodeBuilder) ConstantString(s string) int {
	return c.pool.EnsureString(s)
}

// Stack returns the current operand stack depth.
func (c *CodeBuilder) Stack() int { return c.stack }

func (c *CodeBuilder) MaxStack() int { return c.maxStack }

func (c *CodeBuilder) Err() error { return c.err }

// ALoad pushes the reference in a local slot, using aload_<n> for slots 0
// to 3.
func (c *CodeBuilder) ALoad(slot int) error {
	if c.err != nil {
		return c.err
	}
	switch {
	case slot < 0:
		return c.fail(classfile.Misuse("aload of negative slot %d", slot))
	case slot < 4:
		c.emit(byte(classfile.OpAload0 + slot))
	case slot <= 0xFF:
		c.emit(classfile.OpAload, byte(slot))
	default:
		return c.fail(classfile.Unsupported("aload of slot %d needs a wide prefix", slot))
	}
	c.push(1)
	return nil
}

// InvokeSpecial pops the receiver and the arguments. The return value is
// not pushed.
func (c *CodeBuilder) InvokeSpecial(className, name, descriptor string) error {
	return c.invoke(classfile.OpInvokespecial, className, name, descriptor)
}

// InvokeVirtual has the same stack accounting as InvokeSpecial.
func (c *CodeBuilder) InvokeVirtual(className, name, descriptor string) error {
	return c.invoke(classfile.OpInvokevirtual, className, name, descriptor)
}

func (c *CodeBuilder) invoke(op byte, className, name, descriptor string) error {
	if c.err != nil {
		return c.err
	}
	mt, err := classfile.ParseMethodType(descriptor)
	if err != nil {
		return c.fail(err)
	}
	popped := 1 + mt.ParamWidth()
	if popped > c.stack {
		return c.fail(classfile.Misuse("invoke %s.%s%s pops %d values from a stack of depth %d", className, name, descriptor, popped, c.stack))
	}
	c.emit(op)
	if err := c.emitIndex(c.MethodRef(className, name, descriptor)); err != nil {
		return err
	}
	c.stack -= popped
	return nil
}

func (c *CodeBuilder) GetStatic(className, name, descriptor string) error {
	if c.err != nil {
		return c.err
	}
	return c.GetStaticIndex(c.FieldRef(className, name, descriptor))
}

// GetStaticIndex emits getstatic for a FieldRef already in the pool.
func (c *CodeBuilder) GetStaticIndex(index int) error {
	if c.err != nil {
		return c.err
	}
	c.emit(classfile.OpGetstatic)
	if err := c.emitIndex(index); err != nil {
		return err
	}
	c.push(1)
	return nil
}

// LdcString interns s and loads it. Only single byte pool indices are
// supported.
func (c *CodeBuilder) LdcString(s string) error {
	if c.err != nil {
		return c.err
	}
	return c.Ldc(c.ConstantString(s))
}

func (c *CodeBuilder) Ldc(index int) error {
	if c.err != nil {
		return c.err
	}
	if index <= 0 {
		return c.fail(classfile.Misuse("ldc of constant pool index %d", index))
	}
	if index > 0xFF {
		return c.fail(classfile.Unsupported("ldc of constant pool index %d needs ldc_w", index))
	}
	e, err := c.pool.Entry(index)
	if err != nil {
		return c.fail(classfile.Misuse("ldc of constant pool index %d: %v", index, err))
	}
	switch e.(type) {
	case *classfile.IntegerEntry, *classfile.FloatEntry, *classfile.StringEntry:
	default:
		return c.fail(classfile.Misuse("ldc of %s constant at index %d", e.Tag(), index))
	}
	c.emit(classfile.OpLdc, byte(index))
	c.push(1)
	return nil
}

func (c *CodeBuilder) Return() error {
	if c.err != nil {
		return c.err
	}
	c.emit(classfile.OpReturn)
	return nil
}

// Finish returns the Code attribute for the emitted instructions.
func (c *CodeBuilder) Finish() (*classfile.CodeAttribute, error) {
	if c.err != nil {
		return nil, c.err
	}
	if len(c.code) == 0 {
		return nil, classfile.Misuse("method body has no instructions")
	}
	if c.maxStack > 0xFFFF || c.maxLocals > 0xFFFF {
		return nil, classfile.Unsupported("max_stack %d or max_locals %d exceeds 65535", c.maxStack, c.maxLocals)
	}
	log.Debugf("code: %d bytes, max_stack %d, max_locals %d", len(c.code), c.maxStack, c.maxLocals)
	return &classfile.CodeAttribute{
		MaxStack:  uint16(c.maxStack),
		MaxLocals: uint16(c.maxLocals),
		Code:      append([]byte(nil), c.code...),
	}, nil
}

func (c *CodeBuilder) emit(b ...byte) {
	c.code = append(c.code, b...)
}

func (c *CodeBuilder) emitIndex(index int) error {
	if index <= 0 || index > 0xFFFF {
		return c.fail(classfile.Unsupported("constant pool index %d does not fit in two bytes", index))
	}
	c.emit(byte(index>>8), byte(index))
	return nil
}

func (c *CodeBuilder) push(n int) {
	c.stack += n
	if c.stack > c.maxStack {
		c.maxStack = c.stack
	}
}

func (c *CodeBuilder) fail(err error) error {
	if c.err == nil {
		c.err = err
	}
	return c.err
}
