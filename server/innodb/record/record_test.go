package record

import (
	"testing"

	"github.com/innodb-tools/innodb-reader/server/innodb/cursor"
	"github.com/stretchr/testify/assert"
)

func idNameDescriber() *Describer {
	d := NewDescriber(Clustered)
	d.Key(NewField(0, "id", DataType{Kind: KindInt, Unsigned: true, Width: 4}, false))
	d.Row(NewField(0, "name", DataType{Kind: KindVarchar, MaxWidth: 50}, true))
	return d
}

// buildCompactRecord lays out one compact-format clustered leaf record
// (id=7, name="bob", non-null) with its header and bookkeeping at
// origin 100, matching idNameDescriber's field layout.
func buildCompactRecord() ([]byte, int) {
	const origin = 100
	buf := make([]byte, 140)

	buf[94] = 0x00 // null bitmap (adjacent to header): 1 bit, name is not null
	buf[93] = 0x03 // length vector (farther back): name length = 3 ("bob"), MaxWidth<=255 so 1 byte

	// header: owned=1, heap_no=2, type=conventional, next=+50
	buf[95] = 0x01
	buf[96] = 0x00
	buf[97] = 0x10 // (2<<3)|0
	buf[98] = 0x00
	buf[99] = 0x32

	copy(buf[100:104], []byte{0x00, 0x00, 0x00, 0x07}) // id = 7
	copy(buf[104:110], []byte{0, 0, 0, 0, 0, 0})        // DB_TRX_ID = 0
	copy(buf[110:117], []byte{0x80, 0, 0, 0, 0, 0, 0})  // DB_ROLL_PTR: insert bit set
	copy(buf[117:120], []byte("bob"))

	return buf, origin
}

func TestDecodeCompactRecord(t *testing.T) {
	buf, origin := buildCompactRecord()
	c := cursor.New(buf)

	rec, err := Decode(c, origin, FormatCompact, idNameDescriber())
	assert.NoError(t, err)
	assert.Equal(t, RecConventional, rec.Header.Type)
	assert.Equal(t, uint16(2), rec.Header.HeapNo)
	assert.Equal(t, uint8(1), rec.Header.Owned)
	assert.Equal(t, []interface{}{uint64(7)}, rec.Key)
	assert.Equal(t, []interface{}{"bob"}, rec.Row)
	assert.Len(t, rec.Sys, 2)
	assert.Equal(t, 20, rec.Length)
	assert.Equal(t, origin+50, rec.Next)
}

func TestDecodeCompactRecordNullName(t *testing.T) {
	buf, origin := buildCompactRecord()
	buf[94] = 0x01 // set name's null bit
	c := cursor.New(buf)

	rec, err := Decode(c, origin, FormatCompact, idNameDescriber())
	assert.NoError(t, err)
	assert.Equal(t, []interface{}{nil}, rec.Row)
	// id(4) + sys(6+7); no name bytes consumed when null.
	assert.Equal(t, 17, rec.Length)
}

func TestDecodeSupremum(t *testing.T) {
	buf := make([]byte, 20)
	// header only: type=supremum(3), heap_no=1
	buf[10] = 0x00
	buf[11] = 0x00
	buf[12] = 0x0B // (1<<3)|3
	buf[13] = 0x00
	buf[14] = 0x00
	c := cursor.New(buf)

	rec, err := Decode(c, 15, FormatCompact, idNameDescriber())
	assert.NoError(t, err)
	assert.Equal(t, RecSupremum, rec.Header.Type)
	assert.Nil(t, rec.Key)
}

func TestCompareKey(t *testing.T) {
	assert.Equal(t, 0, CompareKey(nil, nil))
	assert.Equal(t, -1, CompareKey(nil, []interface{}{uint64(1)}))
	assert.Equal(t, 1, CompareKey([]interface{}{uint64(1)}, nil))
	assert.Equal(t, -1, CompareKey([]interface{}{uint64(1)}, []interface{}{uint64(2)}))
	assert.Equal(t, 0, CompareKey([]interface{}{"a", uint64(1)}, []interface{}{"a", uint64(1)}))
	assert.Equal(t, -1, CompareKey([]interface{}{uint64(1)}, []interface{}{uint64(1), uint64(2)}))
}
