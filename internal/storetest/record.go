package storetest

import (
	"encoding/binary"
	"sort"

	"github.com/joshuapare/esekit/internal/format"
)

// Fixed describes one fixed column slot (identifiers 1..n in order) for
// EncodeRecord. Null columns still occupy their width; the bitmap marks them.
type Fixed struct {
	Width int
	Data  []byte
	Null  bool
}

// Variable describes one variable column slot (identifiers 128.. in order).
type Variable struct {
	Data []byte
	Null bool
}

// Tagged describes one tagged column occurrence.
type Tagged struct {
	ID    uint32
	Flags uint8
	Data  []byte
}

// EncodeRecord lays out a data definition record per the documented format:
// header, fixed data, fixed null bitmap, variable offset table, variable
// data, tagged area.
func EncodeRecord(fixed []Fixed, variable []Variable, tagged []Tagged) []byte {
	fixedSize := 0
	for _, f := range fixed {
		fixedSize += f.Width
	}
	bitmapSize := (len(fixed) + 7) / 8
	varOffset := format.RecordHeaderSize + fixedSize + bitmapSize

	out := make([]byte, varOffset, varOffset+16)
	out[format.RecordLastFixedOffset] = uint8(len(fixed))
	out[format.RecordLastVariableOffset] = uint8(format.MinVariableColumnID - 1 + len(variable))
	binary.LittleEndian.PutUint16(out[format.RecordVariableOffset:], uint16(varOffset))

	off := format.RecordHeaderSize
	for i, f := range fixed {
		copy(out[off:off+f.Width], f.Data)
		off += f.Width
		if f.Null {
			out[varOffset-bitmapSize+i/8] |= 1 << (i % 8)
		}
	}

	var varData []byte
	end := 0
	for _, v := range variable {
		entry := make([]byte, 2)
		if v.Null {
			binary.LittleEndian.PutUint16(entry, uint16(end)|format.VariableOffsetNullBit)
		} else {
			end += len(v.Data)
			binary.LittleEndian.PutUint16(entry, uint16(end))
			varData = append(varData, v.Data...)
		}
		out = append(out, entry...)
	}
	out = append(out, varData...)

	if len(tagged) > 0 {
		sorted := append([]Tagged(nil), tagged...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
		table := make([]byte, 0, len(sorted)*format.TaggedEntrySize)
		var data []byte
		dataOff := len(sorted) * format.TaggedEntrySize
		for _, t := range sorted {
			entry := make([]byte, format.TaggedEntrySize)
			binary.LittleEndian.PutUint16(entry, uint16(t.ID))
			rawOff := uint16(dataOff + len(data))
			if t.Flags != 0 {
				rawOff |= format.TaggedHasFlagsBit
				data = append(data, t.Flags)
			}
			binary.LittleEndian.PutUint16(entry[2:], rawOff)
			table = append(table, entry...)
			data = append(data, t.Data...)
		}
		out = append(out, table...)
		out = append(out, data...)
	}
	return out
}

// EncodeMultiValue packs ordered elements into the multi-value layout: a
// uint16 offset table (whose first entry implies the count) followed by the
// concatenated elements.
func EncodeMultiValue(elements ...[]byte) []byte {
	return EncodeMultiValueSeparated(nil, elements...)
}

// EncodeMultiValueSeparated is EncodeMultiValue with the separated bit set
// on the offsets of the listed element indexes. A separated element's bytes
// are its 4-byte long value id.
func EncodeMultiValueSeparated(separated []int, elements ...[]byte) []byte {
	out := make([]byte, 2*len(elements))
	off := len(out)
	for i, e := range elements {
		word := uint16(off)
		for _, s := range separated {
			if s == i {
				word |= format.MultiValueSeparatedBit
			}
		}
		binary.LittleEndian.PutUint16(out[2*i:], word)
		off += len(e)
	}
	for _, e := range elements {
		out = append(out, e...)
	}
	return out
}

// EncodeCatalogRecord lays out one catalog row with the bootstrap fixed
// layout (identifiers 1..7) and the object name as the first variable column.
func EncodeCatalogRecord(rec format.CatalogRecord) []byte {
	u32 := func(v uint32) []byte {
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, v)
		return b
	}
	u16 := func(v uint16) []byte {
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, v)
		return b
	}
	return EncodeRecord(
		[]Fixed{
			{Width: 4, Data: u32(rec.ObjidTable)},
			{Width: 2, Data: u16(rec.Type)},
			{Width: 4, Data: u32(rec.ID)},
			{Width: 4, Data: u32(rec.ColtypOrPgnoFDP)},
			{Width: 4, Data: u32(rec.SpaceUsage)},
			{Width: 4, Data: u32(rec.Flags)},
			{Width: 4, Data: u32(rec.PagesOrLocale)},
		},
		[]Variable{{Data: []byte(rec.Name)}},
		nil,
	)
}

// LVRootNode builds a long value tree root node: the identifier keys it
// big-endian, the payload carries the reference count and total size.
func LVRootNode(id, refCount, size uint32) Node {
	key := make([]byte, format.LongValueKeySize)
	binary.BigEndian.PutUint32(key, id)
	data := make([]byte, format.LongValueRootDataSize)
	binary.LittleEndian.PutUint32(data, refCount)
	binary.LittleEndian.PutUint32(data[4:], size)
	return Node{Key: key, Data: data}
}

// LVSegmentNode builds a long value data segment node keyed by identifier
// plus big-endian byte offset.
func LVSegmentNode(id, offset uint32, data []byte) Node {
	key := make([]byte, format.LongValueSegmentKeySize)
	binary.BigEndian.PutUint32(key, id)
	binary.BigEndian.PutUint32(key[format.LongValueKeySize:], offset)
	return Node{Key: key, Data: data}
}
