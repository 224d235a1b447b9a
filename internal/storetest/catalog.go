package storetest

import (
	"encoding/binary"

	"github.com/joshuapare/esekit/internal/format"
	"github.com/joshuapare/esekit/pkg/types"
)

// ColumnDef declares one column for WriteCatalog. Width is the catalog space
// usage (the on-disk width for fixed columns without an intrinsic one);
// CodePage is the locale field for text columns.
type ColumnDef struct {
	ID       uint32
	Name     string
	Type     types.ColumnType
	Width    uint32
	CodePage uint32
}

// TableDef declares one table for WriteCatalog.
type TableDef struct {
	ObjectID      uint32
	Name          string
	RootPage      uint32
	LongValuePage uint32
	Columns       []ColumnDef
}

// WriteCatalog emits the schema catalog as a single root leaf page at the
// well-known catalog page number. Record keys are an ascending big-endian
// sequence, which keeps the page sorted the way a real catalog tree is.
func (b *Builder) WriteCatalog(tables ...TableDef) {
	var nodes []Node
	seq := uint32(0)
	add := func(rec format.CatalogRecord) {
		seq++
		key := make([]byte, 4)
		binary.BigEndian.PutUint32(key, seq)
		nodes = append(nodes, Node{Key: key, Data: EncodeCatalogRecord(rec)})
	}

	for _, t := range tables {
		add(format.CatalogRecord{
			ObjidTable:      t.ObjectID,
			Type:            format.CatalogTypeTable,
			ID:              t.ObjectID,
			ColtypOrPgnoFDP: t.RootPage,
			Name:            t.Name,
		})
		for _, c := range t.Columns {
			add(format.CatalogRecord{
				ObjidTable:      t.ObjectID,
				Type:            format.CatalogTypeColumn,
				ID:              c.ID,
				ColtypOrPgnoFDP: uint32(c.Type),
				SpaceUsage:      c.Width,
				PagesOrLocale:   c.CodePage,
				Name:            c.Name,
			})
		}
		if t.LongValuePage != 0 {
			add(format.CatalogRecord{
				ObjidTable:      t.ObjectID,
				Type:            format.CatalogTypeLongValue,
				ID:              t.ObjectID,
				ColtypOrPgnoFDP: t.LongValuePage,
				Name:            t.Name,
			})
		}
	}
	b.WritePage(format.CatalogPageNumber,
		format.PageFlagRoot|format.PageFlagLeaf, 0, nil, nodes...)
}
