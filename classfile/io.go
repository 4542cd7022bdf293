package classfile

import (
	"bytes"
	"encoding/binary"
	"io"
	"sync"
)

type reader struct {
	r   io.Reader
	pos int
	err error
}

func newReader(r io.Reader) *reader {
	return &reader{r: r}
}

func (r *reader) readU1() uint8 {
	if r.err != nil {
		return 0
	}
	var buf [1]byte
	r.read(buf[:])
	return buf[0]
}

func (r *reader) readU2() uint16 {
	if r.err != nil {
		return 0
	}
	var buf [2]byte
	r.read(buf[:])
	return binary.BigEndian.Uint16(buf[:])
}

func (r *reader) readU4() uint32 {
	if r.err != nil {
		return 0
	}
	var buf [4]byte
	r.read(buf[:])
	return binary.BigEndian.Uint32(buf[:])
}

func (r *reader) readU8() uint64 {
	high := r.readU4()
	low := r.readU4()
	return uint64(high)<<32 | uint64(low)
}

func (r *reader) readBytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	buf := make([]byte, n)
	r.read(buf)
	return buf
}

func (r *reader) read(buf []byte) {
	n, err := io.ReadFull(r.r, buf)
	r.pos += n
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		r.err = &Error{Kind: KindMalformed, Detail: "truncated input", Cause: err}
	}
}

// fail records err unless an earlier failure is already pending.
func (r *reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

type writer struct {
	w   io.Writer
	err error
}

func newWriter(w io.Writer) *writer {
	return &writer{w: w}
}

func (w *writer) writeU1(v uint8) {
	w.write([]byte{v})
}

func (w *writer) writeU2(v uint16) {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	w.write(buf[:])
}

func (w *writer) writeU4(v uint32) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	w.write(buf[:])
}

func (w *writer) writeU8(v uint64) {
	w.writeU4(uint32(v >> 32))
	w.writeU4(uint32(v))
}

// writeIndex writes a pool index, which must fit a u2.
func (w *writer) writeIndex(index int, what string) {
	if w.err != nil {
		return
	}
	if index <= 0 || index > 0xFFFF {
		w.err = Misuse("no constant pool index for %s", what)
		return
	}
	w.writeU2(uint16(index))
}

// writeCount writes a u2 element count.
func (w *writer) writeCount(n int, what string) {
	if w.err != nil {
		return
	}
	if n > 0xFFFF {
		w.err = Unsupported("%d %s exceed the u2 count limit", n, what)
		return
	}
	w.writeU2(uint16(n))
}

func (w *writer) write(b []byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.Write(b)
}

func (w *writer) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

// Scratch buffers for attribute bodies, whose length prefix is only known
// after serialization.
var scratchPool = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

func getScratch() *bytes.Buffer {
	buf := scratchPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

func putScratch(buf *bytes.Buffer) {
	scratchPool.Put(buf)
}
