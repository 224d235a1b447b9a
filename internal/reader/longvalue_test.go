package reader

import (
	"bytes"
	"errors"
	"testing"

	"github.com/joshuapare/esekit/internal/format"
	"github.com/joshuapare/esekit/internal/storetest"
	"github.com/joshuapare/esekit/pkg/types"
)

// lvStore builds a People store whose single record stores its Blob column
// out of line: long value 7, split into two segments on a long value leaf.
func lvStore(payload []byte, split int) *storetest.Builder {
	b := storetest.NewBuilder()
	b.WriteCatalog(peopleTable(5, 6))

	rec := storetest.EncodeRecord(
		[]storetest.Fixed{{Width: 4, Data: le32(1)}},
		[]storetest.Variable{{Data: []byte("a")}},
		[]storetest.Tagged{{ID: 256, Flags: format.TaggedFlagLongValue, Data: le32(7)}},
	)
	b.WritePage(5, format.PageFlagRoot|format.PageFlagLeaf, 0, nil,
		storetest.Node{Key: be32(1), Data: rec})

	b.WritePage(6, format.PageFlagRoot|format.PageFlagLeaf|format.PageFlagLongValue, 0, nil,
		storetest.LVRootNode(7, 1, uint32(len(payload))),
		storetest.LVSegmentNode(7, 0, payload[:split]),
		storetest.LVSegmentNode(7, uint32(split), payload[split:]),
	)
	return b
}

func TestResolveLongValue(t *testing.T) {
	payload := []byte("the quick brown fox jumps over the lazy dog")
	r := openBuilder(t, lvStore(payload, 10), types.OpenOptions{})
	defer r.Close()

	schema, _ := r.Schema("People")
	data, err := r.ResolveLongValue(schema, 7)
	if err != nil {
		t.Fatalf("ResolveLongValue: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Fatalf("reassembled %q, want %q", data, payload)
	}
}

func TestScanResolvesLongValues(t *testing.T) {
	payload := []byte("out of line bytes")
	r := openBuilder(t, lvStore(payload, 4), types.OpenOptions{})
	defer r.Close()

	records := collectRecords(t, r, "People")
	if len(records) != 1 {
		t.Fatalf("got %d records", len(records))
	}
	v, ok := records[0].Value(256)
	if !ok || v.Kind != types.ValueBinary || !bytes.Equal(v.Bytes, payload) {
		t.Fatalf("Blob = %+v, want resolved payload", v)
	}
}

// TestScanResolvesSeparatedMultiValue stores a multi-value whose second
// element is separated: its inline bytes are the long value id, and the scan
// must swap in the reassembled data.
func TestScanResolvesSeparatedMultiValue(t *testing.T) {
	payload := []byte("element stored out of line")
	b := storetest.NewBuilder()
	b.WriteCatalog(peopleTable(5, 6))
	rec := storetest.EncodeRecord(
		[]storetest.Fixed{{Width: 4, Data: le32(1)}},
		[]storetest.Variable{{Data: []byte("a")}},
		[]storetest.Tagged{{
			ID:    256,
			Flags: format.TaggedFlagMultiValue,
			Data:  storetest.EncodeMultiValueSeparated([]int{1}, []byte("inline"), le32(7)),
		}},
	)
	b.WritePage(5, format.PageFlagRoot|format.PageFlagLeaf, 0, nil,
		storetest.Node{Key: be32(1), Data: rec})
	b.WritePage(6, format.PageFlagRoot|format.PageFlagLeaf|format.PageFlagLongValue, 0, nil,
		storetest.LVRootNode(7, 1, uint32(len(payload))),
		storetest.LVSegmentNode(7, 0, payload),
	)

	r := openBuilder(t, b, types.OpenOptions{})
	defer r.Close()

	records := collectRecords(t, r, "People")
	if len(records) != 1 {
		t.Fatalf("got %d records", len(records))
	}
	v, ok := records[0].Value(256)
	if !ok || v.Kind != types.ValueMulti || len(v.Multi) != 2 {
		t.Fatalf("Blob = %+v, want two-element multi-value", v)
	}
	if v.Multi[0].Kind != types.ValueBinary || string(v.Multi[0].Bytes) != "inline" {
		t.Errorf("element 0 = %+v", v.Multi[0])
	}
	if v.Multi[1].Kind != types.ValueBinary || !bytes.Equal(v.Multi[1].Bytes, payload) {
		t.Errorf("element 1 = %+v, want resolved payload", v.Multi[1])
	}
}

// TestDanglingLongValue points a record at a long value id with no nodes: the
// scan must still deliver the record, with the field empty and a diagnostic.
func TestDanglingLongValue(t *testing.T) {
	b := storetest.NewBuilder()
	b.WriteCatalog(peopleTable(5, 6))
	rec := storetest.EncodeRecord(
		[]storetest.Fixed{{Width: 4, Data: le32(1)}},
		[]storetest.Variable{{Data: []byte("a")}},
		[]storetest.Tagged{{ID: 256, Flags: format.TaggedFlagLongValue, Data: le32(99)}},
	)
	b.WritePage(5, format.PageFlagRoot|format.PageFlagLeaf, 0, nil,
		storetest.Node{Key: be32(1), Data: rec})
	// The long value tree exists but holds a different identifier.
	b.WritePage(6, format.PageFlagRoot|format.PageFlagLeaf|format.PageFlagLongValue, 0, nil,
		storetest.LVRootNode(7, 1, 0))

	diags, opts := collectDiags()
	r := openBuilder(t, b, opts)
	defer r.Close()

	records := collectRecords(t, r, "People")
	if len(records) != 1 {
		t.Fatalf("got %d records, want the record despite the dangling reference", len(records))
	}
	v, ok := records[0].Value(256)
	if !ok || v.Kind != types.ValueBinary || len(v.Bytes) != 0 {
		t.Fatalf("Blob = %+v, want empty binary", v)
	}
	found := false
	for _, d := range *diags {
		if errors.Is(d.Err, types.ErrDanglingLongValue) {
			found = true
		}
	}
	if !found {
		t.Fatal("no dangling long value diagnostic")
	}
}

func TestDanglingLongValueNoTree(t *testing.T) {
	b := storetest.NewBuilder()
	b.WriteCatalog(peopleTable(5, 0)) // no long value tree at all
	rec := storetest.EncodeRecord(
		[]storetest.Fixed{{Width: 4, Data: le32(1)}},
		nil,
		[]storetest.Tagged{{ID: 256, Flags: format.TaggedFlagLongValue, Data: le32(7)}},
	)
	b.WritePage(5, format.PageFlagRoot|format.PageFlagLeaf, 0, nil,
		storetest.Node{Key: be32(1), Data: rec})

	r := openBuilder(t, b, types.OpenOptions{})
	defer r.Close()
	schema, _ := r.Schema("People")
	if _, err := r.ResolveLongValue(schema, 7); !errors.Is(err, types.ErrDanglingLongValue) {
		t.Fatalf("err = %v, want ErrDanglingLongValue", err)
	}
}

func TestLongValueSizeLimit(t *testing.T) {
	payload := make([]byte, 64)
	b := lvStore(payload, 32)
	r := openBuilder(t, b, types.OpenOptions{MaxLongValueSize: 16})
	defer r.Close()
	schema, _ := r.Schema("People")
	if _, err := r.ResolveLongValue(schema, 7); !errors.Is(err, types.ErrCorruptBTree) {
		t.Fatalf("err = %v, want ErrCorruptBTree", err)
	}
}

func TestLongValueSegmentGap(t *testing.T) {
	b := storetest.NewBuilder()
	b.WriteCatalog(peopleTable(5, 6))
	b.WritePage(5, format.PageFlagRoot|format.PageFlagLeaf, 0, nil,
		storetest.Node{Key: be32(1), Data: personRecord(1, "a")})
	b.WritePage(6, format.PageFlagRoot|format.PageFlagLeaf|format.PageFlagLongValue, 0, nil,
		storetest.LVRootNode(7, 1, 8),
		storetest.LVSegmentNode(7, 4, []byte("late")), // first segment missing
	)
	r := openBuilder(t, b, types.OpenOptions{})
	defer r.Close()
	schema, _ := r.Schema("People")
	if _, err := r.ResolveLongValue(schema, 7); !errors.Is(err, types.ErrCorruptBTree) {
		t.Fatalf("err = %v, want ErrCorruptBTree", err)
	}
}
