package page

import (
	"github.com/innodb-tools/innodb-reader/server/innodb/cursor"
	"github.com/innodb-tools/innodb-reader/server/innodb/storage/wrapper/list"
)

// A TypeSys page carries one of three unrelated layouts, distinguished
// only by which fixed page number the caller requested it at (the FIL
// header gives no further hint): the data dictionary header (page 7 of
// the system space), or a rollback segment / insert buffer header
// living at a segment's first page. Only the dictionary header is
// decoded here; the others are out of scope.

const (
	dictHdrRowID     = 0
	dictHdrTableID   = 8
	dictHdrIndexID   = 16
	dictHdrMaxSpace  = 24
	dictHdrMixID     = 28
	dictHdrTables    = 36
	dictHdrTableIDs  = 40
	dictHdrColumns   = 44
	dictHdrIndexes   = 48
	dictHdrFields    = 52
	dictHdrFsegHdr   = 56
	dictHeaderSize   = 56 + 10
)

// DictHeaderPage wraps the system tablespace's data dictionary header
// page: the root page numbers of the five SYS_* indexes plus the
// highest row/table/index/space id handed out so far.
type DictHeaderPage struct {
	p *Page
}

// FromDictHeaderPage wraps p, which must be the TypeSys page holding
// the dictionary header (page 7 of the system tablespace).
func FromDictHeaderPage(p *Page) *DictHeaderPage { return &DictHeaderPage{p: p} }

func (d *DictHeaderPage) body() []byte { return d.p.Body() }

func (d *DictHeaderPage) u32(off int) uint32 { return be32(d.body()[off : off+4]) }
func (d *DictHeaderPage) u64(off int) uint64 { return be64(d.body()[off : off+8]) }

// MaxRowID is the next row id this space will hand out to a table with
// no explicit primary key (the hidden DB_ROW_ID column).
func (d *DictHeaderPage) MaxRowID() uint64 { return d.u64(dictHdrRowID) }

// MaxTableID is the next table id to be allocated.
func (d *DictHeaderPage) MaxTableID() uint64 { return d.u64(dictHdrTableID) }

// MaxIndexID is the next index id to be allocated.
func (d *DictHeaderPage) MaxIndexID() uint64 { return d.u64(dictHdrIndexID) }

// MaxSpaceID is the highest tablespace id this instance has created.
func (d *DictHeaderPage) MaxSpaceID() uint32 { return d.u32(dictHdrMaxSpace) }

// MixID is a legacy field, unused since InnoDB stopped mixing several
// tables into one clustered tablespace; kept for offset fidelity.
func (d *DictHeaderPage) MixID() uint64 { return d.u64(dictHdrMixID) }

// TablesRoot is the root page of SYS_TABLES's clustered (PRIMARY) index.
func (d *DictHeaderPage) TablesRoot() uint32 { return d.u32(dictHdrTables) }

// TableIDsRoot is the root page of SYS_TABLES's secondary ID index.
func (d *DictHeaderPage) TableIDsRoot() uint32 { return d.u32(dictHdrTableIDs) }

// ColumnsRoot is the root page of SYS_COLUMNS's clustered index.
func (d *DictHeaderPage) ColumnsRoot() uint32 { return d.u32(dictHdrColumns) }

// IndexesRoot is the root page of SYS_INDEXES's clustered index.
func (d *DictHeaderPage) IndexesRoot() uint32 { return d.u32(dictHdrIndexes) }

// FieldsRoot is the root page of SYS_FIELDS's clustered index.
func (d *DictHeaderPage) FieldsRoot() uint32 { return d.u32(dictHdrFields) }

// Segment is the file segment backing the dictionary header's own page.
func (d *DictHeaderPage) Segment() (list.EntryRef, error) {
	c := cursor.New(d.body())
	c.Seek(dictHdrFsegHdr)
	return list.ReadEntryRef(c)
}

// EachRegion enumerates the dictionary header's fields.
func (d *DictHeaderPage) EachRegion() []Region {
	regions := d.p.EachRegion()
	base := FileHeaderSize
	return append(regions,
		Region{Offset: base + dictHdrRowID, Length: 8, Name: "dict_header.max_row_id"},
		Region{Offset: base + dictHdrTableID, Length: 8, Name: "dict_header.max_table_id"},
		Region{Offset: base + dictHdrIndexID, Length: 8, Name: "dict_header.max_index_id"},
		Region{Offset: base + dictHdrMaxSpace, Length: 4, Name: "dict_header.max_space_id"},
		Region{Offset: base + dictHdrMixID, Length: 8, Name: "dict_header.mix_id"},
		Region{Offset: base + dictHdrTables, Length: 4, Name: "dict_header.sys_tables_root"},
		Region{Offset: base + dictHdrTableIDs, Length: 4, Name: "dict_header.sys_table_ids_root"},
		Region{Offset: base + dictHdrColumns, Length: 4, Name: "dict_header.sys_columns_root"},
		Region{Offset: base + dictHdrIndexes, Length: 4, Name: "dict_header.sys_indexes_root"},
		Region{Offset: base + dictHdrFields, Length: 4, Name: "dict_header.sys_fields_root"},
		Region{Offset: base + dictHdrFsegHdr, Length: 10, Name: "dict_header.fseg_header"},
	)
}
