package dictionary

import "github.com/innodb-tools/innodb-reader/server/innodb/record"

// u32, u64, and a bounded-VARCHAR are the only column shapes the four
// SYS_* tables use; these small constructors keep the describers below
// declarative instead of repeating record.Field literals.
func u32(pos int, name string) record.Field {
	return record.NewField(pos, name, record.DataType{Kind: record.KindInt, Unsigned: true, Width: 4}, false)
}

func u64(pos int, name string) record.Field {
	return record.NewField(pos, name, record.DataType{Kind: record.KindInt, Unsigned: true, Width: 8}, false)
}

func varchar(pos int, name string, maxLen int, nullable bool) record.Field {
	return record.NewField(pos, name, record.DataType{Kind: record.KindVarchar, MaxWidth: maxLen}, nullable)
}

// SysTablesPrimary is SYS_TABLES's clustered index: keyed by table NAME.
var SysTablesPrimary = record.NewDescriber(record.Clustered).
	Key(varchar(0, "NAME", 100, false)).
	Row(u64(0, "ID")).
	Row(u32(1, "N_COLS")).
	Row(u32(2, "TYPE")).
	Row(u64(3, "MIX_ID")).
	Row(u32(4, "MIX_LEN")).
	Row(varchar(5, "CLUSTER_NAME", 100, true)).
	Row(u32(6, "SPACE"))

// SysTablesID is SYS_TABLES's secondary index: keyed by table ID,
// carrying the clustered key (NAME) as its row.
var SysTablesID = record.NewDescriber(record.Secondary).
	Key(u64(0, "ID")).
	Row(varchar(0, "NAME", 100, false))

// SysColumnsPrimary is SYS_COLUMNS's clustered index: keyed by
// (TABLE_ID, POS).
var SysColumnsPrimary = record.NewDescriber(record.Clustered).
	Key(u64(0, "TABLE_ID")).
	Key(u32(1, "POS")).
	Row(varchar(0, "NAME", 100, false)).
	Row(u32(1, "MTYPE")).
	Row(u32(2, "PRTYPE")).
	Row(u32(3, "LEN")).
	Row(u32(4, "PREC"))

// SysIndexesPrimary is SYS_INDEXES's clustered index: keyed by
// (TABLE_ID, ID).
var SysIndexesPrimary = record.NewDescriber(record.Clustered).
	Key(u64(0, "TABLE_ID")).
	Key(u64(1, "ID")).
	Row(varchar(0, "NAME", 100, false)).
	Row(u32(1, "N_FIELDS")).
	Row(u32(2, "TYPE")).
	Row(u32(3, "SPACE")).
	Row(u32(4, "PAGE_NO"))

// SysFieldsPrimary is SYS_FIELDS's clustered index: keyed by
// (INDEX_ID, POS).
var SysFieldsPrimary = record.NewDescriber(record.Clustered).
	Key(u64(0, "INDEX_ID")).
	Key(u32(1, "POS")).
	Row(varchar(0, "COL_NAME", 100, false))

// describerByName returns the built-in describer for one of the five
// SYS_* dictionary indexes themselves, used as
// record_describer_by_index_id's fallback for an index id the
// dictionary doesn't otherwise recognize (a SYS_* root).
func describerByName(name string) (*record.Describer, bool) {
	switch name {
	case "SYS_TABLES":
		return SysTablesPrimary, true
	case "SYS_TABLES_ID":
		return SysTablesID, true
	case "SYS_COLUMNS":
		return SysColumnsPrimary, true
	case "SYS_INDEXES":
		return SysIndexesPrimary, true
	case "SYS_FIELDS":
		return SysFieldsPrimary, true
	default:
		return nil, false
	}
}
