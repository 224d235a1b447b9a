package format

import (
	"fmt"

	"github.com/joshuapare/esekit/internal/buf"
)

// RecordHeader is the four-byte prefix of every data definition record. It
// announces how many fixed and variable columns the record actually encodes,
// which lets the schema grow without rewriting old records: columns beyond
// the stated identifiers are simply absent.
type RecordHeader struct {
	LastFixedID    uint8
	LastVariableID uint8
	VariableOffset int
}

// ParseRecordHeader decodes the record prefix. The variable offset points at
// the variable column offset table and therefore doubles as the end of the
// fixed data area (including its null bitmap).
func ParseRecordHeader(data []byte) (RecordHeader, error) {
	if len(data) < RecordHeaderSize {
		return RecordHeader{}, fmt.Errorf("record header: %w", ErrTruncated)
	}
	h := RecordHeader{
		LastFixedID:    data[RecordLastFixedOffset],
		LastVariableID: data[RecordLastVariableOffset],
		VariableOffset: int(buf.U16LE(data[RecordVariableOffset:])),
	}
	if h.VariableOffset < RecordHeaderSize || h.VariableOffset > len(data) {
		return RecordHeader{}, fmt.Errorf("record header: variable offset %d: %w",
			h.VariableOffset, ErrTruncated)
	}
	if h.LastVariableID != 0 && h.LastVariableID < MinVariableColumnID-1 {
		return RecordHeader{}, fmt.Errorf("record header: last variable id %d below range",
			h.LastVariableID)
	}
	return h, nil
}

// VariableCount returns the number of variable column slots encoded in this
// record. A record with no variable columns stores the last variable
// identifier as 127 (or 0 in freshly created tables).
func (h RecordHeader) VariableCount() int {
	if h.LastVariableID < MinVariableColumnID {
		return 0
	}
	return int(h.LastVariableID) - (MinVariableColumnID - 1)
}

// FixedNullBitmapSize returns the byte size of the null bitmap trailing the
// fixed data area, one bit per encoded fixed column.
func (h RecordHeader) FixedNullBitmapSize() int {
	return (int(h.LastFixedID) + 7) / 8
}

// FixedNull reports whether the fixed column with 1-based identifier id is
// flagged NULL in the bitmap.
func FixedNull(bitmap []byte, id int) bool {
	bit := id - 1
	if bit < 0 || bit/8 >= len(bitmap) {
		return false
	}
	return bitmap[bit/8]&(1<<(bit%8)) != 0
}

// VariableEntry describes one variable column's presence and byte range
// within the variable data area.
type VariableEntry struct {
	ID   uint16
	Null bool
	Data []byte
}

// ParseVariableEntries walks the variable column offset table located at
// h.VariableOffset: one cumulative end offset per variable column, followed
// by the concatenated column bytes. A column is absent when its end offset
// equals the previous one or its NULL bit is set. Returns the entries and the
// offset of the first byte after the variable data (the tagged area).
func ParseVariableEntries(data []byte, h RecordHeader) ([]VariableEntry, int, error) {
	count := h.VariableCount()
	tableEnd, err := buf.CheckListBounds(len(data), h.VariableOffset, count, 2)
	if err != nil {
		return nil, 0, fmt.Errorf("variable offsets: %w", ErrTruncated)
	}
	entries := make([]VariableEntry, 0, count)
	prev := 0
	for i := 0; i < count; i++ {
		raw := buf.U16LE(data[h.VariableOffset+2*i:])
		end := int(raw & VariableOffsetMask)
		entry := VariableEntry{
			ID:   uint16(MinVariableColumnID + i),
			Null: raw&VariableOffsetNullBit != 0,
		}
		if !entry.Null && end > prev {
			seg, ok := buf.Slice(data, tableEnd+prev, end-prev)
			if !ok {
				return nil, 0, fmt.Errorf("variable column %d: [%d,%d): %w",
					entry.ID, prev, end, ErrTruncated)
			}
			entry.Data = seg
		} else {
			entry.Null = true
		}
		if end > prev {
			prev = end
		}
		entries = append(entries, entry)
	}
	return entries, tableEnd + prev, nil
}

// TaggedEntry describes one tagged column occurrence in a record.
type TaggedEntry struct {
	ID    uint32
	Flags uint8
	Data  []byte
}

// ParseTaggedEntries walks the tagged column area of a record: an array of
// (identifier, offset) pairs sorted by identifier, followed by the values.
// The end of the array is implied by the first entry's offset. An entry whose
// offset has the flags bit set (and every entry on large pages) starts with a
// flags byte announcing long value references, compression and multi-values.
func ParseTaggedEntries(area []byte, largePage bool) ([]TaggedEntry, error) {
	if len(area) == 0 {
		return nil, nil
	}
	if len(area) < TaggedEntrySize {
		return nil, fmt.Errorf("tagged area: %w", ErrTruncated)
	}
	firstOffset := int(buf.U16LE(area[2:]) & TaggedOffsetMask)
	if firstOffset < TaggedEntrySize || firstOffset > len(area) || firstOffset%TaggedEntrySize != 0 {
		return nil, fmt.Errorf("tagged area: first offset %d: %w", firstOffset, ErrTruncated)
	}
	count := firstOffset / TaggedEntrySize

	type slot struct {
		id       uint32
		offset   int
		hasFlags bool
	}
	slots := make([]slot, count)
	for i := 0; i < count; i++ {
		ident := buf.U16LE(area[i*TaggedEntrySize:])
		raw := buf.U16LE(area[i*TaggedEntrySize+2:])
		slots[i] = slot{
			id:       uint32(ident),
			offset:   int(raw & TaggedOffsetMask),
			hasFlags: largePage || raw&TaggedHasFlagsBit != 0,
		}
		if slots[i].offset > len(area) {
			return nil, fmt.Errorf("tagged column %d: offset %d beyond area: %w",
				ident, slots[i].offset, ErrTruncated)
		}
		if i > 0 && slots[i].offset < slots[i-1].offset {
			return nil, fmt.Errorf("tagged column %d: offsets not ascending", ident)
		}
	}

	entries := make([]TaggedEntry, count)
	for i := 0; i < count; i++ {
		end := len(area)
		if i+1 < count {
			end = slots[i+1].offset
		}
		data := area[slots[i].offset:end]
		entry := TaggedEntry{ID: slots[i].id}
		if slots[i].hasFlags {
			if len(data) == 0 {
				return nil, fmt.Errorf("tagged column %d: missing flags byte: %w",
					slots[i].id, ErrTruncated)
			}
			entry.Flags = data[0]
			data = data[1:]
		}
		entry.Data = data
		entries[i] = entry
	}
	return entries, nil
}

// MultiValueElement is one element of a multi-valued tagged column. A
// separated element stores its value out of line; Data then holds the 4-byte
// long value id rather than the value bytes.
type MultiValueElement struct {
	Data      []byte
	Separated bool
}

// MultiValueSegments splits a multi-valued tagged column's data into its
// ordered elements. The data begins with a uint16 offset table whose first
// entry implies the element count; the high bit of each offset marks that
// element as separated.
func MultiValueSegments(data []byte) ([]MultiValueElement, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("multi-value: %w", ErrTruncated)
	}
	first := int(buf.U16LE(data) & MultiValueOffsetMask)
	if first < 2 || first > len(data) || first%2 != 0 {
		return nil, fmt.Errorf("multi-value: first offset %d: %w", first, ErrTruncated)
	}
	count := first / 2
	elements := make([]MultiValueElement, count)
	for i := 0; i < count; i++ {
		word := buf.U16LE(data[2*i:])
		start := int(word & MultiValueOffsetMask)
		end := len(data)
		if i+1 < count {
			end = int(buf.U16LE(data[2*(i+1):]) & MultiValueOffsetMask)
		}
		if start > end || end > len(data) {
			return nil, fmt.Errorf("multi-value element %d: [%d,%d): %w",
				i, start, end, ErrTruncated)
		}
		elements[i] = MultiValueElement{
			Data:      data[start:end],
			Separated: word&MultiValueSeparatedBit != 0,
		}
	}
	return elements, nil
}
