package reader

import (
	"encoding/binary"
	"testing"

	"github.com/joshuapare/esekit/internal/format"
	"github.com/joshuapare/esekit/internal/storetest"
	"github.com/joshuapare/esekit/pkg/types"
)

func le32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func be32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

// peopleTable is the schema used across these tests: one fixed, one variable
// and one tagged column.
func peopleTable(root, lvRoot uint32) storetest.TableDef {
	return storetest.TableDef{
		ObjectID:      2,
		Name:          "People",
		RootPage:      root,
		LongValuePage: lvRoot,
		Columns: []storetest.ColumnDef{
			{ID: 1, Name: "Id", Type: types.ColTypLong},
			{ID: 128, Name: "Name", Type: types.ColTypText, CodePage: 1252},
			{ID: 256, Name: "Blob", Type: types.ColTypLongBinary},
		},
	}
}

// personRecord encodes one People record with the given id and name.
func personRecord(id uint32, name string) []byte {
	return storetest.EncodeRecord(
		[]storetest.Fixed{{Width: 4, Data: le32(id)}},
		[]storetest.Variable{{Data: []byte(name)}},
		nil,
	)
}

// peopleStore builds the canonical two-record store: the catalog on the
// well-known page and a single root leaf on page 5.
func peopleStore() *storetest.Builder {
	b := storetest.NewBuilder()
	b.WriteCatalog(peopleTable(5, 0))
	b.WritePage(5, format.PageFlagRoot|format.PageFlagLeaf, 0, nil,
		storetest.Node{Key: be32(1), Data: personRecord(1, "a")},
		storetest.Node{Key: be32(2), Data: personRecord(2, "bb")},
	)
	return b
}

func openBuilder(t *testing.T, b *storetest.Builder, opts types.OpenOptions) *Reader {
	t.Helper()
	r, err := OpenBytes(b.Bytes(), opts)
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}
	return r
}

// collectRecords scans the named table into a slice.
func collectRecords(t *testing.T, r *Reader, table string) []types.Record {
	t.Helper()
	var out []types.Record
	if err := r.ScanTable(table, func(rec types.Record) error {
		out = append(out, rec)
		return nil
	}); err != nil {
		t.Fatalf("ScanTable(%q): %v", table, err)
	}
	return out
}

// collectDiags returns options routing diagnostics into the returned slice.
func collectDiags() (*[]types.Diagnostic, types.OpenOptions) {
	diags := &[]types.Diagnostic{}
	return diags, types.OpenOptions{
		OnDiagnostic: func(d types.Diagnostic) { *diags = append(*diags, d) },
	}
}
