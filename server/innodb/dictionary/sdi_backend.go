package dictionary

import (
	"bytes"
	"compress/zlib"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/innodb-tools/innodb-reader/server/innodb/ierrors"
	"github.com/innodb-tools/innodb-reader/server/innodb/record"
	"github.com/innodb-tools/innodb-reader/server/innodb/storage/wrapper/index"
	"github.com/innodb-tools/innodb-reader/server/innodb/storage/wrapper/page"
)

// SDI object types, tagged by the "type" key column of the SDI index.
const (
	sdiTypeTable      = 1
	sdiTypeTablespace = 2
)

// SdiDescriber decodes the fixed SDI index schema every space's SDI
// root carries: (type, id) key, (uncompressed_len, compressed_len,
// data) row. data is a zlib-deflated JSON blob. record.Decode returns
// only the bytes stored inline in the record: for a blob stored
// externally on a BLOB chain it skips the 20-byte external reference
// and does not follow the chain, so only the inline prefix reaches
// this package.
var SdiDescriber = record.NewDescriber(record.Clustered).
	Key(u32(0, "TYPE")).
	Key(u64(1, "ID")).
	Row(u32(0, "UNCOMPRESSED_LEN")).
	Row(u32(1, "COMPRESSED_LEN")).
	Row(record.NewField(2, "DATA", record.DataType{Kind: record.KindBlob}, false))

// FindSDIRoot scans pager from page 3 (mirroring space.Space.EachIndex's
// file-per-table convention) for the first unlinked SDI-type root page.
// A space with no SDI data simply has none, which is not an error.
func FindSDIRoot(pager index.Pager, pageCount int64) (uint32, bool, error) {
	for n := uint32(3); int64(n) < pageCount; n++ {
		p, err := pager.Page(n)
		if err != nil {
			return 0, false, err
		}
		if p.Type() != page.TypeSdi {
			continue
		}
		if p.Prev() != nil || p.Next() != nil {
			continue
		}
		return n, true, nil
	}
	return 0, false, nil
}

// sdiPayload is the subset of an SDI JSON blob's keys this decoder uses.
type sdiPayload struct {
	MysqldVersionID int64           `json:"mysqld_version_id"`
	DDVersion       int64           `json:"dd_version"`
	SDIVersion      int64           `json:"sdi_version"`
	DDObjectType    string          `json:"dd_object_type"`
	DDObject        json.RawMessage `json:"dd_object"`
}

type sdiColumn struct {
	Name            string `json:"name"`
	Type            int    `json:"type"`
	IsNullable      bool   `json:"is_nullable"`
	IsUnsigned      bool   `json:"is_unsigned"`
	CharLength      int    `json:"char_length"`
	NumericPrecision int   `json:"numeric_precision"`
	OrdinalPosition int    `json:"ordinal_position"`
}

type sdiIndexElement struct {
	ColumnOpx int `json:"column_opx"`
	Length    int `json:"length"`
}

type sdiIndex struct {
	Name          string            `json:"name"`
	Type          int               `json:"type"`
	Ordinal       int               `json:"ordinal_position"`
	Elements      []sdiIndexElement `json:"elements"`
	SePrivateData string            `json:"se_private_data"`
}

type sdiTable struct {
	Name          string     `json:"name"`
	Columns       []sdiColumn `json:"columns"`
	Indexes       []sdiIndex  `json:"indexes"`
	SePrivateData string      `json:"se_private_data"`
	Options       string      `json:"options"`
}

type sdiTablespace struct {
	Name          string `json:"name"`
	SePrivateData string `json:"se_private_data"`
}

// sdiMtypeFor maps a dd_object column "type" enum (MySQL's
// dd::enum_column_types) onto the same low-byte field-type tag
// SYS_COLUMNS.PRTYPE carries, so ResolveColumnType stays the single
// source of truth for type→DataType conversion across both back-ends.
func sdiMtypeFor(ddType int) mysqlFieldType {
	// dd::enum_column_types numbers columns 1-based, roughly in
	// ascending order of the legacy MYSQL_TYPE_* tags it wraps; the
	// handful of types SYS_* tables actually use are mapped explicitly,
	// everything else falls back to the nearest fixed-width guess.
	switch ddType {
	case 1: // DECIMAL
		return ftNewDecimal
	case 2: // TINY
		return ftTiny
	case 3: // SHORT
		return ftShort
	case 4: // LONG
		return ftLong
	case 5: // FLOAT
		return ftFloat
	case 6: // DOUBLE
		return ftDouble
	case 9: // LONGLONG
		return ftLongLong
	case 10: // INT24
		return ftInt24
	case 11: // DATE
		return ftDate
	case 12: // TIME
		return ftTime
	case 13: // DATETIME
		return ftDatetime
	case 14: // YEAR
		return ftYear
	case 15: // NEWDATE
		return ftNewDate
	case 16: // VARCHAR
		return ftVarchar
	case 17: // BIT
		return ftBit
	case 18: // TIMESTAMP
		return ftTimestamp
	case 30: // ENUM
		return ftEnum
	case 31: // SET
		return ftSet
	case 32: // TINY_BLOB
		return ftTinyBlob
	case 33: // MEDIUM_BLOB
		return ftMediumBlob
	case 34: // LONG_BLOB
		return ftLongBlob
	case 35: // BLOB
		return ftBlob
	case 36: // VAR_STRING
		return ftVarString
	case 37: // STRING
		return ftString
	case 38: // GEOMETRY
		return ftGeometry
	default:
		return ftString
	}
}

func parsePrivateData(s string) map[string]string {
	out := map[string]string{}
	for _, kv := range strings.Split(s, ";") {
		if kv == "" {
			continue
		}
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 {
			out[parts[0]] = parts[1]
		}
	}
	return out
}

func privateUint(m map[string]string, key string) uint64 {
	v, _ := strconv.ParseUint(m[key], 10, 64)
	return v
}

// inflateSDIBlob reverses the zlib compression an SDI blob is stored
// under. raw is the data column as record.Decode returned it, which
// for an externally stored blob is only its inline prefix; such a
// truncated stream does not inflate.
func inflateSDIBlob(raw []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrap(err, "dictionary: sdi blob is not valid zlib")
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "dictionary: inflating sdi blob")
	}
	return out, nil
}

// decodeSDITable turns one SDI-type-1 blob into a Table, propagating
// se_private_data's table_id/index tree-root/space_id the same way
// SYS_INDEXES.{SPACE,PAGE_NO} do for the SYS_* back-end.
func decodeSDITable(blob []byte) (*Table, error) {
	var payload sdiPayload
	if err := json.Unmarshal(blob, &payload); err != nil {
		return nil, errors.Wrap(err, "dictionary: parsing sdi envelope")
	}
	var dd sdiTable
	if err := json.Unmarshal(payload.DDObject, &dd); err != nil {
		return nil, errors.Wrap(err, "dictionary: parsing sdi dd_object (table)")
	}
	priv := parsePrivateData(dd.SePrivateData)
	tableID := privateUint(priv, "id")
	spaceID := uint32(privateUint(priv, "space_id"))

	t := &Table{Name: dd.Name, ID: tableID, SpaceID: spaceID, NumCols: uint32(len(dd.Columns))}
	t.Columns = make([]*Column, len(dd.Columns))
	for _, c := range dd.Columns {
		prtype := uint32(0)
		if !c.IsNullable {
			prtype |= prtypeNotNull
		}
		if c.IsUnsigned {
			prtype |= prtypeUnsigned
		}
		prtype |= uint32(sdiMtypeFor(c.Type))
		ct := ResolveColumnType(uint32(c.Type), prtype, uint32(c.CharLength), uint32(c.NumericPrecision))
		col := &Column{Name: c.Name, Position: c.OrdinalPosition, Type: ct}
		if c.OrdinalPosition >= 0 && c.OrdinalPosition < len(t.Columns) {
			t.Columns[c.OrdinalPosition] = col
		} else {
			t.Columns = append(t.Columns, col)
		}
	}

	var clusteredKeyCols []*Column
	for _, ix := range dd.Indexes {
		if ResolveIndexFlags(uint32(ix.Type)).Clustered {
			for _, el := range ix.Elements {
				if el.ColumnOpx >= 0 && el.ColumnOpx < len(t.Columns) {
					clusteredKeyCols = append(clusteredKeyCols, t.Columns[el.ColumnOpx])
				}
			}
			break
		}
	}

	for _, ix := range dd.Indexes {
		ixPriv := parsePrivateData(ix.SePrivateData)
		flags := ResolveIndexFlags(uint32(ix.Type))
		d := record.NewDescriber(record.Secondary)
		if flags.Clustered {
			d.Kind = record.Clustered
		}
		var fields []IndexColumnReference
		keyNames := map[string]bool{}
		for i, el := range ix.Elements {
			if el.ColumnOpx < 0 || el.ColumnOpx >= len(t.Columns) {
				continue
			}
			c := t.Columns[el.ColumnOpx]
			fields = append(fields, IndexColumnReference{Column: c, Prefix: el.Length})
			keyNames[c.Name] = true
			d.Key(record.NewField(i, c.Name, c.Type.DataType, !c.Type.NotNull))
		}
		if flags.Clustered {
			for _, c := range t.Columns {
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
			Name:      ix.Name,
			ID:        privateUint(ixPriv, "id"),
			TableID:   tableID,
			SpaceID:   spaceID,
			PageNo:    uint32(privateUint(ixPriv, "root")),
			Flags:     flags,
			Fields:    fields,
			Describer: d,
		})
	}
	return t, nil
}

// decodeSDITablespace turns one SDI-type-2 blob into a Tablespace.
func decodeSDITablespace(blob []byte) (*Tablespace, error) {
	var payload sdiPayload
	if err := json.Unmarshal(blob, &payload); err != nil {
		return nil, errors.Wrap(err, "dictionary: parsing sdi envelope")
	}
	var dd sdiTablespace
	if err := json.Unmarshal(payload.DDObject, &dd); err != nil {
		return nil, errors.Wrap(err, "dictionary: parsing sdi dd_object (tablespace)")
	}
	priv := parsePrivateData(dd.SePrivateData)
	return &Tablespace{ID: uint32(privateUint(priv, "id")), Name: dd.Name}, nil
}

// LoadSDIDictionary walks a space's SDI root index (if any) and returns
// every Table and Tablespace object its blobs describe.
func LoadSDIDictionary(pager index.Pager, root uint32) ([]*Table, []*Tablespace, error) {
	ix := index.New(pager, root, SdiDescriber)
	cur, err := ix.Cursor(index.Ascending)
	if err != nil {
		return nil, nil, err
	}
	var tables []*Table
	var spaces []*Tablespace
	for {
		rec, err := cur.Next()
		if err != nil {
			return nil, nil, err
		}
		if rec == nil {
			break
		}
		sdiType := rec.Key[0].(uint64)
		raw, ok := rec.Row[2].([]byte)
		if !ok {
			return nil, nil, errors.Wrap(ierrors.ErrUnsupportedFormat, "dictionary: sdi row has no blob")
		}
		blob, err := inflateSDIBlob(raw)
		if err != nil {
			return nil, nil, err
		}
		switch sdiType {
		case sdiTypeTable:
			t, err := decodeSDITable(blob)
			if err != nil {
				return nil, nil, err
			}
			tables = append(tables, t)
		case sdiTypeTablespace:
			s, err := decodeSDITablespace(blob)
			if err != nil {
				return nil, nil, err
			}
			spaces = append(spaces, s)
		}
	}
	return tables, spaces, nil
}
