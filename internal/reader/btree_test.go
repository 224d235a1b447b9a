package reader

import (
	"bytes"
	"errors"
	"testing"

	"github.com/joshuapare/esekit/internal/format"
	"github.com/joshuapare/esekit/internal/storetest"
	"github.com/joshuapare/esekit/pkg/types"
)

// chainedStore builds a three-leaf tree: branch root on page 5, leaves on
// pages 6..8 chained by next-page pointers, six records keyed 1..6.
func chainedStore() *storetest.Builder {
	b := storetest.NewBuilder()
	b.WriteCatalog(peopleTable(5, 0))
	b.WritePage(5, format.PageFlagRoot|format.PageFlagParent, 0, nil,
		storetest.BranchNode(be32(2), 6),
		storetest.BranchNode(be32(4), 7),
		storetest.BranchNode(be32(6), 8),
	)
	leaf := func(page, next uint32, ids ...uint32) {
		nodes := make([]storetest.Node, 0, len(ids))
		for _, id := range ids {
			nodes = append(nodes, storetest.Node{Key: be32(id), Data: personRecord(id, "p")})
		}
		b.WritePage(page, format.PageFlagLeaf, next, nil, nodes...)
	}
	leaf(6, 7, 1, 2)
	leaf(7, 8, 3, 4)
	leaf(8, 0, 5, 6)
	return b
}

// walkLeaves collects every leaf record of a tree by structural descent
// alone, never following next-page pointers. It is the oracle the chained
// cursor is compared against.
func walkLeaves(t *testing.T, r *Reader, pageNo uint32) []RawRecord {
	t.Helper()
	page, err := r.ReadPage(pageNo)
	if err != nil {
		t.Fatalf("page %d: %v", pageNo, err)
	}
	var out []RawRecord
	switch page.Kind {
	case format.PageKindBranch:
		for i := 0; i < page.NodeCount(); i++ {
			node, err := page.BranchNode(i)
			if err != nil {
				t.Fatalf("page %d node %d: %v", pageNo, i, err)
			}
			out = append(out, walkLeaves(t, r, node.ChildPage)...)
		}
	case format.PageKindLeaf, format.PageKindLongValueLeaf:
		prefix := page.KeyPrefix()
		for i := 0; i < page.NodeCount(); i++ {
			if page.Tags[i+1].Flags&format.TagFlagDefunct != 0 {
				continue
			}
			node, err := page.LeafNode(i)
			if err != nil {
				t.Fatalf("page %d node %d: %v", pageNo, i, err)
			}
			out = append(out, RawRecord{
				Key:  format.FullKey(prefix, node.CommonKeySize, node.LocalKey),
				Data: node.Data,
				Page: page.Number,
			})
		}
	}
	return out
}

// TestLeafChainMatchesRedescent checks that a full cursor scan (descend once,
// then follow the leaf chain) visits exactly the records that per-leaf
// structural descent finds, in the same order.
func TestLeafChainMatchesRedescent(t *testing.T) {
	r := openBuilder(t, chainedStore(), types.OpenOptions{})
	defer r.Close()

	want := walkLeaves(t, r, 5)
	if len(want) != 6 {
		t.Fatalf("oracle found %d records, want 6", len(want))
	}

	cursor, err := r.OpenCursor(5)
	if err != nil {
		t.Fatalf("OpenCursor: %v", err)
	}
	var got []RawRecord
	rec, err := cursor.First()
	for ; err == nil && rec != nil; rec, err = cursor.Next() {
		got = append(got, *rec)
	}
	if err != nil {
		t.Fatalf("cursor: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("cursor found %d records, oracle %d", len(got), len(want))
	}
	for i := range got {
		if !bytes.Equal(got[i].Key, want[i].Key) || !bytes.Equal(got[i].Data, want[i].Data) {
			t.Fatalf("record %d: cursor (%x, %d bytes) != oracle (%x, %d bytes)",
				i, got[i].Key, len(got[i].Data), want[i].Key, len(want[i].Data))
		}
	}
}

func TestSeek(t *testing.T) {
	r := openBuilder(t, chainedStore(), types.OpenOptions{})
	defer r.Close()
	cursor, _ := r.OpenCursor(5)

	// Exact hit in the middle leaf.
	rec, err := cursor.Seek(be32(3))
	if err != nil || rec == nil {
		t.Fatalf("Seek(3): %v, %v", rec, err)
	}
	if !bytes.Equal(rec.Key, be32(3)) {
		t.Fatalf("Seek(3) landed on %x", rec.Key)
	}

	// Between keys: lands on the next higher.
	rec, err = cursor.Seek(append(be32(4), 0xFF))
	if err != nil || rec == nil {
		t.Fatalf("Seek(4.5): %v, %v", rec, err)
	}
	if !bytes.Equal(rec.Key, be32(5)) {
		t.Fatalf("Seek(4.5) landed on %x", rec.Key)
	}

	// Past the end.
	rec, err = cursor.Seek(be32(100))
	if err != nil {
		t.Fatalf("Seek(100): %v", err)
	}
	if rec != nil {
		t.Fatalf("Seek(100) returned %x", rec.Key)
	}
}

func TestDefunctNodesSkipped(t *testing.T) {
	b := storetest.NewBuilder()
	b.WriteCatalog(peopleTable(5, 0))
	b.WritePage(5, format.PageFlagRoot|format.PageFlagLeaf, 0, nil,
		storetest.Node{Key: be32(1), Data: personRecord(1, "live")},
		storetest.Node{Key: be32(2), Data: personRecord(2, "dead"), TagFlags: format.TagFlagDefunct},
		storetest.Node{Key: be32(3), Data: personRecord(3, "live")},
	)
	r := openBuilder(t, b, types.OpenOptions{})
	defer r.Close()

	records := collectRecords(t, r, "People")
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2 (defunct skipped)", len(records))
	}
}

func TestEmptyTree(t *testing.T) {
	b := storetest.NewBuilder()
	b.WriteCatalog(peopleTable(5, 0))
	b.WritePage(5, format.PageFlagRoot|format.PageFlagLeaf, 0, nil)
	r := openBuilder(t, b, types.OpenOptions{})
	defer r.Close()
	if got := len(collectRecords(t, r, "People")); got != 0 {
		t.Fatalf("empty tree yielded %d records", got)
	}
}

// TestLeafChainCycle plants a next-page loop (page 5 -> 9 -> 5) and checks
// the cursor reports tree corruption instead of spinning forever.
func TestLeafChainCycle(t *testing.T) {
	b := storetest.NewBuilder()
	b.WriteCatalog(peopleTable(3, 0))
	b.WritePage(3, format.PageFlagRoot|format.PageFlagParent, 0, nil,
		storetest.BranchNode(be32(0xFFFF), 5),
	)
	b.WritePage(5, format.PageFlagLeaf, 9, nil,
		storetest.Node{Key: be32(1), Data: personRecord(1, "a")})
	b.WritePage(9, format.PageFlagLeaf, 5, nil,
		storetest.Node{Key: be32(2), Data: personRecord(2, "b")})

	r := openBuilder(t, b, types.OpenOptions{})
	defer r.Close()
	err := r.ScanTable("People", func(types.Record) error { return nil })
	if !errors.Is(err, types.ErrCorruptBTree) {
		t.Fatalf("err = %v, want ErrCorruptBTree", err)
	}
}

// TestScanDeliversRecordsBeforeCorruption walks a tree whose leaf chain goes
// bad after two good pages: both records must reach the callback before the
// scan reports corruption.
func TestScanDeliversRecordsBeforeCorruption(t *testing.T) {
	b := storetest.NewBuilder()
	b.WriteCatalog(peopleTable(3, 0))
	b.WritePage(3, format.PageFlagRoot|format.PageFlagParent, 0, nil,
		storetest.BranchNode(be32(0xFFFF), 5),
	)
	b.WritePage(5, format.PageFlagLeaf, 9, nil,
		storetest.Node{Key: be32(1), Data: personRecord(1, "a")})
	b.WritePage(9, format.PageFlagLeaf, 5, nil, // loops back
		storetest.Node{Key: be32(2), Data: personRecord(2, "b")})

	r := openBuilder(t, b, types.OpenOptions{})
	defer r.Close()

	var names []string
	err := r.ScanTable("People", func(rec types.Record) error {
		v, _ := rec.Value(128)
		names = append(names, v.Str)
		return nil
	})
	if !errors.Is(err, types.ErrCorruptBTree) {
		t.Fatalf("err = %v, want ErrCorruptBTree", err)
	}
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("delivered %q, want both records before the fault", names)
	}
}

func TestNextPagePointsAtBranch(t *testing.T) {
	b := storetest.NewBuilder()
	b.WriteCatalog(peopleTable(5, 0))
	b.WritePage(5, format.PageFlagLeaf, 6, nil,
		storetest.Node{Key: be32(1), Data: personRecord(1, "a")})
	b.WritePage(6, format.PageFlagRoot|format.PageFlagParent, 0, nil,
		storetest.BranchNode(be32(9), 5))

	r := openBuilder(t, b, types.OpenOptions{})
	defer r.Close()
	err := r.ScanTable("People", func(types.Record) error { return nil })
	if !errors.Is(err, types.ErrCorruptBTree) {
		t.Fatalf("err = %v, want ErrCorruptBTree", err)
	}
}

func TestDescentDepthBounded(t *testing.T) {
	// A branch page whose child is itself: descent must stop at the bound.
	b := storetest.NewBuilder()
	b.WriteCatalog(peopleTable(5, 0))
	b.WritePage(5, format.PageFlagRoot|format.PageFlagParent, 0, nil,
		storetest.BranchNode(be32(1), 5))
	r := openBuilder(t, b, types.OpenOptions{})
	defer r.Close()
	err := r.ScanTable("People", func(types.Record) error { return nil })
	if !errors.Is(err, types.ErrCorruptBTree) {
		t.Fatalf("err = %v, want ErrCorruptBTree", err)
	}
}

func TestCommonKeyPrefixReassembly(t *testing.T) {
	// Non-root leaf with a page key prefix in tag 0 and nodes storing only
	// local suffixes.
	prefix := []byte{0x00, 0x00}
	b := storetest.NewBuilder()
	b.WriteCatalog(peopleTable(3, 0))
	b.WritePage(3, format.PageFlagRoot|format.PageFlagParent, 0, nil,
		storetest.BranchNode(be32(0xFFFF), 5))
	b.WritePage(5, format.PageFlagLeaf, 0, prefix,
		storetest.Node{Key: []byte{0x00, 0x01}, Data: personRecord(1, "a"),
			TagFlags: format.TagFlagCommonKey, CommonSize: 2},
		storetest.Node{Key: []byte{0x00, 0x02}, Data: personRecord(2, "b"),
			TagFlags: format.TagFlagCommonKey, CommonSize: 2},
	)
	r := openBuilder(t, b, types.OpenOptions{})
	defer r.Close()

	cursor, _ := r.OpenCursor(3)
	rec, err := cursor.First()
	if err != nil || rec == nil {
		t.Fatalf("First: %v, %v", rec, err)
	}
	if !bytes.Equal(rec.Key, be32(1)) {
		t.Fatalf("reassembled key = %x, want %x", rec.Key, be32(1))
	}
	rec, err = cursor.Next()
	if err != nil || rec == nil {
		t.Fatalf("Next: %v, %v", rec, err)
	}
	if !bytes.Equal(rec.Key, be32(2)) {
		t.Fatalf("reassembled key = %x, want %x", rec.Key, be32(2))
	}
}
