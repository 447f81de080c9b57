package dictionary

import "github.com/innodb-tools/innodb-reader/server/innodb/record"

// Column is one table column as the dictionary describes it,
// independent of which back-end (SYS_* or SDI) produced it.
type Column struct {
	Name     string
	Position int
	Type     ColumnType
}

// IndexColumnReference is one field of an index: the column it covers
// and, for a prefix index, the byte length the index stores (0 means
// the whole column).
type IndexColumnReference struct {
	Column *Column
	Prefix int
}

// Index is a named B+tree over a table, clustered (the table's primary
// storage order) or secondary.
type Index struct {
	Name    string
	ID      uint64
	TableID uint64
	SpaceID uint32
	PageNo  uint32
	Flags   IndexFlags
	Fields  []IndexColumnReference

	// Describer decodes this index's own records; for a clustered
	// index it carries the index fields as its key and every other
	// table column as its row, for a secondary index it carries the
	// clustered key columns it doesn't already have in its own key as
	// its row (per §4.13's row-propagation rule).
	Describer *record.Describer
}

// Clustered reports whether this is the table's primary storage index.
func (ix *Index) Clustered() bool { return ix.Flags.Clustered }

// Table is one user (or system) table: its columns and every index
// built over it.
type Table struct {
	Name    string
	ID      uint64
	SpaceID uint32
	NumCols uint32
	Columns []*Column
	Indexes []*Index
}

// ColumnByName finds a column by its declared name.
func (t *Table) ColumnByName(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// IndexByName finds one of this table's indexes by name.
func (t *Table) IndexByName(name string) *Index {
	for _, ix := range t.Indexes {
		if ix.Name == name {
			return ix
		}
	}
	return nil
}

// Clustered returns the table's primary storage index, or nil if the
// dictionary hasn't resolved one (a partially loaded table).
func (t *Table) Clustered() *Index {
	for _, ix := range t.Indexes {
		if ix.Clustered() {
			return ix
		}
	}
	return nil
}

// Tablespace is one tablespace's dictionary-visible identity: its id,
// name, and data file paths. It does not list the tables stored in it;
// each Table records its own SpaceID instead.
type Tablespace struct {
	ID    uint32
	Name  string
	Path  string
	Files []string
}
