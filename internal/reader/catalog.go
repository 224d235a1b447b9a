package reader

import (
	"fmt"
	"sort"

	"github.com/joshuapare/esekit/internal/format"
	"github.com/joshuapare/esekit/pkg/types"
)

// LoadCatalog enumerates every record of the schema catalog (MSysObjects,
// rooted at the well-known catalog page) and aggregates them into table
// schemas keyed by name. The catalog describes its own layout, so its records
// are decoded with the hand-rolled bootstrap decoder in internal/format
// rather than the generic record decoder.
//
// Called once per open store. Individual malformed entries are skipped with a
// diagnostic, but a catalog that yields no usable tables, or a table entry
// without a discoverable root page, is fatal for the store.
func (r *Reader) LoadCatalog() (*types.Catalog, error) {
	cursor, err := r.OpenCursor(format.CatalogPageNumber)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, types.ErrCatalogCorrupt)
	}

	// Aggregate by owning table object identifier first; names only become
	// available once the table-type entry is seen.
	builders := make(map[uint32]*types.TableSchema)
	order := make([]uint32, 0, 8)

	rec, err := cursor.First()
	for ; err == nil && rec != nil; rec, err = cursor.Next() {
		entry, perr := format.ParseCatalogRecord(rec.Data)
		if perr != nil {
			r.diag(types.Diagnostic{
				Table: format.CatalogTableName,
				Page:  rec.Page,
				Msg:   "skipping malformed catalog record",
				Err:   perr,
			})
			continue
		}
		schema := builders[entry.ObjidTable]
		if schema == nil {
			schema = &types.TableSchema{ObjectID: entry.ObjidTable}
			builders[entry.ObjidTable] = schema
			order = append(order, entry.ObjidTable)
		}
		switch entry.Type {
		case format.CatalogTypeTable:
			if entry.ColtypOrPgnoFDP == 0 {
				return nil, fmt.Errorf("table %q has no root page: %w",
					entry.Name, types.ErrCatalogCorrupt)
			}
			schema.Name = entry.Name
			schema.RootPage = entry.ColtypOrPgnoFDP
		case format.CatalogTypeColumn:
			if err := addColumn(schema, entry); err != nil {
				r.diag(types.Diagnostic{
					Table: format.CatalogTableName,
					Page:  rec.Page,
					Msg:   fmt.Sprintf("skipping column %q", entry.Name),
					Err:   err,
				})
			}
		case format.CatalogTypeLongValue:
			schema.LongValuePage = entry.ColtypOrPgnoFDP
		case format.CatalogTypeIndex, format.CatalogTypeCallback:
			// Secondary indexes are never traversed: full scans walk the
			// primary tree, and the only seeks are long value lookups.
		default:
			r.diag(types.Diagnostic{
				Table: format.CatalogTableName,
				Page:  rec.Page,
				Msg:   fmt.Sprintf("unknown catalog entry type %d for %q", entry.Type, entry.Name),
			})
		}
	}
	if err != nil {
		return nil, fmt.Errorf("catalog walk: %v: %w", err, types.ErrCatalogCorrupt)
	}

	catalog := &types.Catalog{Tables: make(map[string]*types.TableSchema, len(builders))}
	for _, objid := range order {
		schema := builders[objid]
		if schema.Name == "" {
			// Columns without a table entry: orphaned definition.
			r.diag(types.Diagnostic{
				Table: format.CatalogTableName,
				Msg:   fmt.Sprintf("dropping %d orphaned catalog entries for object %d",
					len(schema.Fixed)+len(schema.Variable)+len(schema.Tagged), objid),
			})
			continue
		}
		sort.Slice(schema.Fixed, func(i, j int) bool { return schema.Fixed[i].ID < schema.Fixed[j].ID })
		sort.Slice(schema.Variable, func(i, j int) bool { return schema.Variable[i].ID < schema.Variable[j].ID })
		schema.Index()
		catalog.Tables[schema.Name] = schema
	}
	if len(catalog.Tables) == 0 {
		return nil, fmt.Errorf("no tables defined: %w", types.ErrCatalogCorrupt)
	}
	return catalog, nil
}

// addColumn slots a column-type catalog entry into its schema. The column's
// identifier decides its storage class; fixed columns take their width from
// the catalog's space usage field, text columns their code page from the
// locale field.
func addColumn(schema *types.TableSchema, entry format.CatalogRecord) error {
	if len(schema.Fixed)+len(schema.Variable)+len(schema.Tagged) >= types.MaxColumnsPerTable {
		return fmt.Errorf("more than %d columns", types.MaxColumnsPerTable)
	}
	col := types.Column{
		ID:    types.ColumnID(entry.ID),
		Name:  entry.Name,
		Type:  types.ColumnType(entry.ColtypOrPgnoFDP),
		Flags: entry.Flags,
	}
	if col.Type.IsText() {
		col.CodePage = entry.PagesOrLocale
	}
	switch {
	case entry.ID >= format.MinTaggedColumnID:
		col.Class = types.StorageTagged
		if schema.Tagged == nil {
			schema.Tagged = make(map[types.ColumnID]types.Column)
		}
		if _, dup := schema.Tagged[col.ID]; dup {
			return fmt.Errorf("duplicate tagged column id %d", entry.ID)
		}
		schema.Tagged[col.ID] = col
	case entry.ID >= format.MinVariableColumnID:
		col.Class = types.StorageVariable
		for _, existing := range schema.Variable {
			if existing.ID == col.ID {
				return fmt.Errorf("duplicate variable column id %d", entry.ID)
			}
		}
		schema.Variable = append(schema.Variable, col)
	case entry.ID >= format.MinFixedColumnID:
		col.Class = types.StorageFixed
		col.Width = col.Type.FixedWidth()
		if col.Width == 0 {
			col.Width = int(entry.SpaceUsage)
		}
		if col.Width <= 0 {
			return fmt.Errorf("fixed column id %d has no width", entry.ID)
		}
		for _, existing := range schema.Fixed {
			if existing.ID == col.ID {
				return fmt.Errorf("duplicate fixed column id %d", entry.ID)
			}
		}
		schema.Fixed = append(schema.Fixed, col)
	default:
		return fmt.Errorf("column id %d out of range", entry.ID)
	}
	return nil
}
