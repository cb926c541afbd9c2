package nbt

import (
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type TagType int

const (
	TagEnd TagType = iota
	TagByte
	TagShort
	TagInt
	TagLong
	TagFloat
	TagDouble
	TagByteArray
	TagString
	TagList
	TagCompound
	TagIntArray
	TagLongArray
)

var tagNames = [...]string{"End", "Byte", "Short", "Int", "Long", "Float", "Double",
	"ByteArray", "String", "List", "Compound", "IntArray", "LongArray"}

func (t TagType) String() string {
	if t < 0 {
		return "List<" + (-t).String() + ">"
	}
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return "Tag(" + strconv.Itoa(int(t)) + ")"
}

// Tag is a decoded scalar tag. Value holds int8, int16, int32, int64 or string.
type Tag struct {
	Type  TagType
	Value any
}

// Scalar decodes a scalar payload handed out by Walk.
func Scalar(ty TagType, value []byte) (Tag, error) {
	switch ty {
	case TagByte:
		return Tag{ty, int8(value[0])}, nil
	case TagShort:
		return Tag{ty, int16(binary.BigEndian.Uint16(value))}, nil
	case TagInt:
		return Tag{ty, int32(binary.BigEndian.Uint32(value))}, nil
	case TagLong:
		return Tag{ty, int64(binary.BigEndian.Uint64(value))}, nil
	case TagString:
		return Tag{ty, string(value)}, nil
	}
	return Tag{}, errors.Errorf("not a scalar tag: %v", ty)
}

type nbtList struct {
	depth  int
	ty     TagType
	length int
	idx    int
}

// a stream-oriented zero-copy nbt parser
//
// value aliases buf; callers must copy anything that outlives the callback.
// Lists of primitives are reported once with a negated element type.
func Walk(buf []byte, cb func(path []string, idxes []int, ty TagType, value []byte)) (err error) {
	defer func() {
		// truncated input shows up as slice bounds panics deep in the walk
		if r := recover(); r != nil {
			err = errors.Errorf("truncated nbt: %v", r)
		}
	}()
	buf = buf[:len(buf):len(buf)]
	path := []string{}
	idxes := []int{}
	listStack := []nbtList{}
	depth := 0
	var ty TagType
	for o := 0; o < len(buf); {
		if len(listStack) > 0 && listStack[len(listStack)-1].depth == depth {
			lt := &listStack[len(listStack)-1]
			lt.idx++
			if lt.idx > lt.length {
				listStack = listStack[:len(listStack)-1]
				depth--
				idxes = idxes[:len(listStack)]
				continue
			}
			ty = lt.ty
			path = append(path[:depth], strconv.Itoa(lt.idx-1))
			idxes = append(idxes[:len(listStack)-1], lt.idx-1)
		} else {
			ty = TagType(buf[o])
			if ty == TagEnd {
				o++
				depth--
				if depth < 0 {
					return errors.Errorf("unexpected end tag at offset %d", o-1)
				}
				continue
			}
			tagLen := int(binary.BigEndian.Uint16(buf[o+1:]))
			tag := buf[o+3 : o+3+tagLen]
			path = append(path[:depth], string(tag))
			o += 3 + tagLen
		}
		switch ty {
		case TagCompound:
			cb(path[1:], idxes, ty, nil)
			depth++
		case TagByte:
			cb(path[1:], idxes, ty, buf[o:o+1])
			o++
		case TagShort:
			cb(path[1:], idxes, ty, buf[o:o+2])
			o += 2
		case TagInt, TagFloat:
			cb(path[1:], idxes, ty, buf[o:o+4])
			o += 4
		case TagLong, TagDouble:
			cb(path[1:], idxes, ty, buf[o:o+8])
			o += 8
		case TagByteArray:
			n := int(binary.BigEndian.Uint32(buf[o:]))
			cb(path[1:], idxes, ty, buf[o+4:o+4+n])
			o += 4 + n
		case TagString:
			n := int(binary.BigEndian.Uint16(buf[o:]))
			cb(path[1:], idxes, ty, buf[o+2:o+2+n])
			o += 2 + n
		case TagIntArray:
			n := int(binary.BigEndian.Uint32(buf[o:]))
			cb(path[1:], idxes, ty, buf[o+4:o+4+n*4])
			o += 4 + n*4
		case TagLongArray:
			n := int(binary.BigEndian.Uint32(buf[o:]))
			cb(path[1:], idxes, ty, buf[o+4:o+4+n*8])
			o += 4 + n*8
		case TagList:
			lty := TagType(buf[o])
			n := int(binary.BigEndian.Uint32(buf[o+1:]))
			o += 5
			switch {
			case lty >= TagByte && lty <= TagDouble:
				width := map[TagType]int{TagByte: 1, TagShort: 2, TagInt: 4, TagLong: 8, TagFloat: 4, TagDouble: 8}[lty]
				cb(path[1:], idxes, -lty, buf[o:o+n*width])
				o += n * width
			case lty == TagCompound || lty == TagList || lty == TagIntArray:
				if n > 0 {
					depth++
					listStack = append(listStack, nbtList{depth: depth, ty: lty, length: n})
				}
			case lty == TagString:
				// e.g. Level.TileEntities.Items.tag.pages
				start := o
				for i := 0; i < n; i++ {
					o += int(binary.BigEndian.Uint16(buf[o:])) + 2
				}
				cb(path[1:], idxes, -lty, buf[start:o])
			case n > 0:
				// empty lists are written with element type End
				return errors.Errorf("unhandled TAG_List type: %d at %s (len %d)", lty, strings.Join(path[1:], "."), n)
			}
		default:
			return errors.Errorf("unhandled nbt tag type: %d at %s", ty, strings.Join(path[1:], "."))
		}
	}
	return nil
}
