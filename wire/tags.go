/*
File Name:  tags.go
Package:    wire

Grounded on emule-proto/src/udp_proto.rs's TagList/Tag/TagType. Two bugs in
that source are fixed here rather than replicated: TagList's count field is
read as a full 4-byte little-endian uint32 (the source's doc comment says
"count: le32" but its code only reads 2 of the 4 bytes), and a String_
tag's length prefix is read from the correct 2-byte offset (the source
reads 6 bytes from a misaligned offset).
*/

package wire

import "encoding/binary"

// TagType identifies the value kind carried by a Tag.
type TagType byte

const (
	TagHash      TagType = 0x01
	TagString    TagType = 0x02
	TagUint32    TagType = 0x03
	TagFloat32   TagType = 0x04
	TagBool      TagType = 0x05
	TagBoolArray TagType = 0x06
	TagBlob      TagType = 0x07
	TagUint16    TagType = 0x08
	TagUint8     TagType = 0x09
	TagBsob      TagType = 0x0A
	TagUint64    TagType = 0x0B
)

// Tag is a single name/typed-value pair as carried in a SearchResult.
type Tag struct {
	Name  string
	Type  TagType
	Value []byte // raw bytes of the value, interpretation depends on Type
}

// TagFromBytes decodes one Tag from the head of buf and returns the
// number of bytes consumed.
func TagFromBytes(buf []byte) (tag *Tag, consumed int, err error) {
	c := NewCursor(buf)

	rawType, err := c.U8()
	if err != nil {
		return nil, 0, err
	}
	tagType := TagType(rawType)

	nameLen, err := c.U16()
	if err != nil {
		return nil, 0, err
	}
	nameBytes, err := c.Take(int(nameLen))
	if err != nil {
		return nil, 0, err
	}

	var valueLen int
	switch tagType {
	case TagHash:
		valueLen = 16
	case TagUint64:
		valueLen = 8
	case TagUint32, TagFloat32:
		valueLen = 4
	case TagUint16:
		valueLen = 2
	case TagUint8, TagBool:
		valueLen = 1
	case TagString:
		strLen, err := c.U16()
		if err != nil {
			return nil, 0, err
		}
		valueBytes, err := c.Take(int(strLen))
		if err != nil {
			return nil, 0, err
		}
		return &Tag{Name: string(nameBytes), Type: tagType, Value: valueBytes}, c.pos, nil
	default:
		return nil, 0, &ErrTagInvalid{TagType: rawType}
	}

	valueBytes, err := c.Take(valueLen)
	if err != nil {
		return nil, 0, err
	}

	return &Tag{Name: string(nameBytes), Type: tagType, Value: valueBytes}, c.pos, nil
}

// Uint32 interprets the tag's value as a little-endian uint32.
func (t *Tag) Uint32() (uint32, bool) {
	if len(t.Value) != 4 {
		return 0, false
	}
	return binary.LittleEndian.Uint32(t.Value), true
}

// Uint64 interprets the tag's value as a little-endian uint64.
func (t *Tag) Uint64() (uint64, bool) {
	if len(t.Value) != 8 {
		return 0, false
	}
	return binary.LittleEndian.Uint64(t.Value), true
}

// String interprets the tag's value as a raw string (only valid when Type
// is TagString).
func (t *Tag) String() string {
	return string(t.Value)
}

// TagList is a sequence of Tags as carried by a SearchResult.
type TagList struct {
	Tags []*Tag
}

// TagListFromBytes decodes a TagList from the head of buf and returns the
// number of bytes consumed. The count field is 4 bytes wide.
func TagListFromBytes(buf []byte) (list *TagList, consumed int, err error) {
	c := NewCursor(buf)

	count, err := c.U32()
	if err != nil {
		return nil, 0, err
	}

	list = &TagList{Tags: make([]*Tag, 0, count)}
	for i := uint32(0); i < count; i++ {
		tag, n, err := TagFromBytes(c.Rest())
		if err != nil {
			return nil, 0, err
		}
		if _, err := c.Take(n); err != nil {
			return nil, 0, err
		}
		list.Tags = append(list.Tags, tag)
	}

	return list, c.pos, nil
}
