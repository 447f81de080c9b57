package dictionary

import (
	"github.com/pkg/errors"

	"github.com/innodb-tools/innodb-reader/server/innodb/ierrors"
	"github.com/innodb-tools/innodb-reader/server/innodb/record"
	"github.com/innodb-tools/innodb-reader/server/innodb/storage/wrapper/index"
	"github.com/innodb-tools/innodb-reader/server/innodb/storage/wrapper/page"
)

// Backend names which of the two on-disk formats a Dictionary was
// populated from.
type Backend int

const (
	BackendSys Backend = iota
	BackendSDI
)

// Reserved index ids the system tablespace hands its own SYS_*
// indexes, fixed at boot time rather than allocated through
// SYS_INDEXES like a user table's (they have no SYS_INDEXES row of
// their own to be discovered through).
const (
	reservedIDSysTables      = 1
	reservedIDSysColumns     = 2
	reservedIDSysIndexes     = 3
	reservedIDSysFields      = 4
	reservedIDSysTablesID    = 5
)

// builtinRoot names one of the five SYS_* roots a fallback describer
// lookup should recognize by its reserved index id.
type builtinRoot struct {
	id   uint64
	name string
}

// Dictionary is the populated object graph for one instance: every
// table the chosen back-end could resolve, indexed for the lookups
// callers actually need.
type Dictionary struct {
	Backend     Backend
	Tables      []*Table
	Tablespaces []*Tablespace

	byName     map[string]*Table
	byID       map[uint64]*Table
	indexByID  map[uint64]*Index
	bySpace    map[uint32]*Table
	builtins   []builtinRoot
}

func newDictionary(backend Backend, tables []*Table, spaces []*Tablespace) *Dictionary {
	d := &Dictionary{
		Backend:     backend,
		Tables:      tables,
		Tablespaces: spaces,
		byName:      map[string]*Table{},
		byID:        map[uint64]*Table{},
		indexByID:   map[uint64]*Index{},
		bySpace:     map[uint32]*Table{},
	}
	for _, t := range tables {
		d.byName[t.Name] = t
		d.byID[t.ID] = t
		d.bySpace[t.SpaceID] = t
		for _, ix := range t.Indexes {
			d.indexByID[ix.ID] = ix
		}
	}
	return d
}

// LoadSys populates a Dictionary from the system space's SYS_* indexes,
// per the roots recorded in its dictionary header page.
func LoadSys(pager index.Pager, dictHeaderPage uint32) (*Dictionary, error) {
	p, err := pager.Page(dictHeaderPage)
	if err != nil {
		return nil, err
	}
	if p.Type() != page.TypeSys {
		return nil, errors.Wrapf(ierrors.ErrPageTypeMismatch, "page %d is %s, not SYS (dictionary header)", dictHeaderPage, p.Type())
	}
	hdr := page.FromDictHeaderPage(p)
	tables, err := LoadSysDictionary(pager, hdr)
	if err != nil {
		return nil, err
	}
	d := newDictionary(BackendSys, tables, nil)
	d.builtins = []builtinRoot{
		{reservedIDSysTables, "SYS_TABLES"},
		{reservedIDSysTablesID, "SYS_TABLES_ID"},
		{reservedIDSysColumns, "SYS_COLUMNS"},
		{reservedIDSysIndexes, "SYS_INDEXES"},
		{reservedIDSysFields, "SYS_FIELDS"},
	}
	return d, nil
}

// LoadSDI populates a Dictionary from one space's SDI root index.
func LoadSDI(pager index.Pager, sdiRoot uint32) (*Dictionary, error) {
	tables, spaces, err := LoadSDIDictionary(pager, sdiRoot)
	if err != nil {
		return nil, err
	}
	return newDictionary(BackendSDI, tables, spaces), nil
}

// FindTable looks up a table by name.
func (d *Dictionary) FindTable(name string) (*Table, bool) {
	t, ok := d.byName[name]
	return t, ok
}

// TableByID looks up a table by its dictionary id.
func (d *Dictionary) TableByID(id uint64) (*Table, bool) {
	t, ok := d.byID[id]
	return t, ok
}

// IndexByName looks up one of a named table's indexes by name.
func (d *Dictionary) IndexByName(table, indexName string) (*Index, error) {
	t, ok := d.FindTable(table)
	if !ok {
		return nil, errors.Wrapf(ierrors.ErrMissingTable, "table %q", table)
	}
	ix := t.IndexByName(indexName)
	if ix == nil {
		return nil, errors.Wrapf(ierrors.ErrMissingIndex, "table %q has no index %q", table, indexName)
	}
	return ix, nil
}

// IndexBySpaceID finds the table occupying the given tablespace id and
// returns its clustered index (file-per-table spaces hold one table).
func (d *Dictionary) IndexBySpaceID(spaceID uint32) (*Index, error) {
	t, ok := d.bySpace[spaceID]
	if !ok {
		return nil, errors.Wrapf(ierrors.ErrMissingTable, "no table for space %d", spaceID)
	}
	ix := t.Clustered()
	if ix == nil {
		return nil, errors.Wrapf(ierrors.ErrMissingIndex, "table %q has no clustered index", t.Name)
	}
	return ix, nil
}

// RecordDescriberByIndexID returns the describer for a known index id,
// falling back to a built-in describer when id names one of the SYS_*
// dictionary indexes themselves (which have no SYS_INDEXES row of
// their own to be discovered through).
func (d *Dictionary) RecordDescriberByIndexID(id uint64) (*record.Describer, error) {
	if ix, ok := d.indexByID[id]; ok {
		return ix.Describer, nil
	}
	for _, b := range d.builtins {
		if b.id == id {
			if desc, ok := describerByName(b.name); ok {
				return desc, nil
			}
		}
	}
	return nil, errors.Wrapf(ierrors.ErrMissingIndex, "no describer for index id %d", id)
}
