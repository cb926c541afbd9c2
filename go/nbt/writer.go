package nbt

import (
	"bytes"
	"encoding/binary"
)

// Writer emits big-endian (Java edition) nbt. It does no validation of
// nesting; callers pair Compound/List with End.
type Writer struct {
	buf bytes.Buffer
}

func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

func (w *Writer) header(ty TagType, name string) {
	w.buf.WriteByte(byte(ty))
	w.str(name)
}

func (w *Writer) str(s string) {
	var n [2]byte
	binary.BigEndian.PutUint16(n[:], uint16(len(s)))
	w.buf.Write(n[:])
	w.buf.WriteString(s)
}

func (w *Writer) u32(v uint32) {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], v)
	w.buf.Write(n[:])
}

func (w *Writer) Compound(name string) *Writer {
	w.header(TagCompound, name)
	return w
}

// List starts a list of n elements. Compound elements carry no header:
// write their children directly and close each one with End.
func (w *Writer) List(name string, elem TagType, n int) *Writer {
	w.header(TagList, name)
	w.buf.WriteByte(byte(elem))
	w.u32(uint32(n))
	return w
}

func (w *Writer) End() *Writer {
	w.buf.WriteByte(byte(TagEnd))
	return w
}

func (w *Writer) Byte(name string, v int8) *Writer {
	w.header(TagByte, name)
	w.buf.WriteByte(byte(v))
	return w
}

func (w *Writer) Short(name string, v int16) *Writer {
	w.header(TagShort, name)
	var n [2]byte
	binary.BigEndian.PutUint16(n[:], uint16(v))
	w.buf.Write(n[:])
	return w
}

func (w *Writer) Int(name string, v int32) *Writer {
	w.header(TagInt, name)
	w.u32(uint32(v))
	return w
}

func (w *Writer) String(name, v string) *Writer {
	w.header(TagString, name)
	w.str(v)
	return w
}

func (w *Writer) ByteArray(name string, v []byte) *Writer {
	w.header(TagByteArray, name)
	w.u32(uint32(len(v)))
	w.buf.Write(v)
	return w
}

func (w *Writer) LongArray(name string, v []uint64) *Writer {
	w.header(TagLongArray, name)
	w.u32(uint32(len(v)))
	var n [8]byte
	for _, l := range v {
		binary.BigEndian.PutUint64(n[:], l)
		w.buf.Write(n[:])
	}
	return w
}

// Tag writes a scalar tag produced by Scalar or by identifier.StateValue.ToTag.
func (w *Writer) Tag(name string, t Tag) *Writer {
	switch v := t.Value.(type) {
	case int8:
		w.Byte(name, v)
	case int16:
		w.Short(name, v)
	case int32:
		w.Int(name, v)
	case string:
		w.String(name, v)
	}
	return w
}
