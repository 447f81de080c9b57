package dictionary

import (
	"github.com/pkg/errors"

	"github.com/innodb-tools/innodb-reader/server/innodb/ierrors"
	"github.com/innodb-tools/innodb-reader/server/innodb/record"
	"github.com/innodb-tools/innodb-reader/server/innodb/storage/wrapper/index"
	"github.com/innodb-tools/innodb-reader/server/innodb/storage/wrapper/page"
)

// sysRow decodes into fn every record an ascending walk of the index
// rooted at root yields. The four SYS_* indexes are small enough
// (one row per table/column/index/field in the whole instance) that a
// full scan, rather than a directory-anchored prefix lookup, is the
// simplest correct way to group rows by TABLE_ID/INDEX_ID: record.
// CompareKey treats a shorter search key as unconditionally less than
// a longer record key (see its length-mismatch rule), so a partial
// (TABLE_ID)-only probe against a (TABLE_ID, POS) index can never be
// used to bound a scan — the loader groups in memory instead.
func sysRow(pager index.Pager, root uint32, d *record.Describer, fn func(rec *record.Record) error) error {
	ix := index.New(pager, root, d)
	cur, err := ix.Cursor(index.Ascending)
	if err != nil {
		return err
	}
	for {
		rec, err := cur.Next()
		if err != nil {
			return err
		}
		if rec == nil {
			return nil
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}

type sysTableRow struct {
	Name    string
	ID      uint64
	NCols   uint32
	Type    uint32
	Space   uint32
}

type sysIndexRow struct {
	TableID uint64
	ID      uint64
	Name    string
	Type    uint32
	Space   uint32
	PageNo  uint32
}

// loadSysTables scans SYS_TABLES's PRIMARY index.
func loadSysTables(pager index.Pager, root uint32) ([]sysTableRow, error) {
	var out []sysTableRow
	err := sysRow(pager, root, SysTablesPrimary, func(rec *record.Record) error {
		out = append(out, sysTableRow{
			Name:  rec.Key[0].(string),
			ID:    rec.Row[0].(uint64),
			NCols: uint32(rec.Row[1].(uint64)),
			Type:  uint32(rec.Row[2].(uint64)),
			Space: uint32(rec.Row[6].(uint64)),
		})
		return nil
	})
	return out, err
}

// loadSysColumns scans SYS_COLUMNS's PRIMARY index, grouping rows by
// TABLE_ID.
func loadSysColumns(pager index.Pager, root uint32) (map[uint64][]*Column, error) {
	out := map[uint64][]*Column{}
	err := sysRow(pager, root, SysColumnsPrimary, func(rec *record.Record) error {
		tableID := rec.Key[0].(uint64)
		pos := uint32(rec.Key[1].(uint64))
		name := rec.Row[0].(string)
		mtype := uint32(rec.Row[1].(uint64))
		prtype := uint32(rec.Row[2].(uint64))
		length := uint32(rec.Row[3].(uint64))
		prec := uint32(rec.Row[4].(uint64))
		out[tableID] = append(out[tableID], &Column{
			Name:     name,
			Position: int(pos),
			Type:     ResolveColumnType(mtype, prtype, length, prec),
		})
		return nil
	})
	return out, err
}

// loadSysIndexes scans SYS_INDEXES's PRIMARY index, grouping rows by
// TABLE_ID.
func loadSysIndexes(pager index.Pager, root uint32) (map[uint64][]sysIndexRow, error) {
	out := map[uint64][]sysIndexRow{}
	err := sysRow(pager, root, SysIndexesPrimary, func(rec *record.Record) error {
		tableID := rec.Key[0].(uint64)
		row := sysIndexRow{
			TableID: tableID,
			ID:      rec.Key[1].(uint64),
			Name:    rec.Row[0].(string),
			Type:    uint32(rec.Row[2].(uint64)),
			Space:   uint32(rec.Row[3].(uint64)),
			PageNo:  uint32(rec.Row[4].(uint64)),
		}
		out[tableID] = append(out[tableID], row)
		return nil
	})
	return out, err
}

// loadSysFields scans SYS_FIELDS's PRIMARY index, grouping column names
// by INDEX_ID in POS order.
func loadSysFields(pager index.Pager, root uint32) (map[uint64][]string, error) {
	type posName struct {
		pos  int
		name string
	}
	raw := map[uint64][]posName{}
	err := sysRow(pager, root, SysFieldsPrimary, func(rec *record.Record) error {
		indexID := rec.Key[0].(uint64)
		pos := int(rec.Key[1].(uint64))
		raw[indexID] = append(raw[indexID], posName{pos: pos, name: rec.Row[0].(string)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := map[uint64][]string{}
	for id, fields := range raw {
		ordered := make([]string, len(fields))
		for _, f := range fields {
			if f.pos < 0 || f.pos >= len(ordered) {
				return nil, errors.Wrapf(ierrors.ErrMissingIndex, "SYS_FIELDS: index %d field pos %d out of range", id, f.pos)
			}
			ordered[f.pos] = f.name
		}
		out[id] = ordered
	}
	return out, nil
}

// LoadSysDictionary walks the four SYS_* indexes rooted at the
// dictionary header's recorded pages and assembles the full
// Table/Column/Index object graph.
func LoadSysDictionary(pager index.Pager, hdr *page.DictHeaderPage) ([]*Table, error) {
	tableRows, err := loadSysTables(pager, hdr.TablesRoot())
	if err != nil {
		return nil, errors.Wrap(err, "dictionary: loading SYS_TABLES")
	}
	columnsByTable, err := loadSysColumns(pager, hdr.ColumnsRoot())
	if err != nil {
		return nil, errors.Wrap(err, "dictionary: loading SYS_COLUMNS")
	}
	indexesByTable, err := loadSysIndexes(pager, hdr.IndexesRoot())
	if err != nil {
		return nil, errors.Wrap(err, "dictionary: loading SYS_INDEXES")
	}
	fieldsByIndex, err := loadSysFields(pager, hdr.FieldsRoot())
	if err != nil {
		return nil, errors.Wrap(err, "dictionary: loading SYS_FIELDS")
	}
	return assembleSysTables(tableRows, columnsByTable, indexesByTable, fieldsByIndex)
}

// assembleSysTables turns the four SYS_* scans' raw rows into the
// Table/Column/Index object graph, split out from LoadSysDictionary so
// the assembly rules (row propagation, describer construction) can be
// exercised without a real B+tree fixture.
func assembleSysTables(
	tableRows []sysTableRow,
	columnsByTable map[uint64][]*Column,
	indexesByTable map[uint64][]sysIndexRow,
	fieldsByIndex map[uint64][]string,
) ([]*Table, error) {
	var tables []*Table
	for _, tr := range tableRows {
		cols := columnsByTable[tr.ID]
		t := &Table{Name: tr.Name, ID: tr.ID, SpaceID: tr.Space, NumCols: tr.NCols, Columns: cols}

		var clusteredKeyNames []string
		var clusteredKeyCols []*Column
		for _, ir := range indexesByTable[tr.ID] {
			if ResolveIndexFlags(ir.Type).Clustered {
				clusteredKeyNames = fieldsByIndex[ir.ID]
				for _, n := range clusteredKeyNames {
					if c := t.ColumnByName(n); c != nil {
						clusteredKeyCols = append(clusteredKeyCols, c)
					}
				}
				break
			}
		}

		for _, ir := range indexesByTable[tr.ID] {
			flags := ResolveIndexFlags(ir.Type)
			fieldNames := fieldsByIndex[ir.ID]
			fields := make([]IndexColumnReference, 0, len(fieldNames))
			d := record.NewDescriber(record.Secondary)
			if flags.Clustered {
				d.Kind = record.Clustered
			}
			keyNames := map[string]bool{}
			for i, n := range fieldNames {
				c := t.ColumnByName(n)
				if c == nil {
					return nil, errors.Wrapf(ierrors.ErrMissingIndex, "index %s: unknown field %s", ir.Name, n)
				}
				fields = append(fields, IndexColumnReference{Column: c})
				keyNames[n] = true
				d.Key(record.NewField(i, c.Name, c.Type.DataType, !c.Type.NotNull))
			}
			if flags.Clustered {
				for _, c := range cols {
					if !keyNames[c.Name] {
						d.Row(record.NewField(c.Position, c.Name, c.Type.DataType, !c.Type.NotNull))
					}
				}
			} else {
				for i, c := range clusteredKeyCols {
					if !keyNames[c.Name] {
						d.Row(record.NewField(i, c.Name, c.Type.DataType, !c.Type.NotNull))
					}
				}
			}
			t.Indexes = append(t.Indexes, &Index{
				Name:      ir.Name,
				ID:        ir.ID,
				TableID:   ir.TableID,
				SpaceID:   ir.Space,
				PageNo:    ir.PageNo,
				Flags:     flags,
				Fields:    fields,
				Describer: d,
			})
		}
		tables = append(tables, t)
	}
	return tables, nil
}
