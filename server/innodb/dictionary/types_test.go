package dictionary

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/innodb-tools/innodb-reader/server/innodb/record"
)

func TestResolveColumnTypeInt(t *testing.T) {
	ct := ResolveColumnType(uint32(ftLong), uint32(ftLong)|prtypeNotNull|prtypeUnsigned, 4, 0)
	assert.Equal(t, "INT", ct.Name)
	assert.True(t, ct.NotNull)
	assert.True(t, ct.Unsigned)
	assert.Equal(t, record.KindInt, ct.DataType.Kind)
	assert.Equal(t, 4, ct.DataType.Width)
}

func TestResolveColumnTypeVarchar(t *testing.T) {
	ct := ResolveColumnType(uint32(ftVarchar), uint32(ftVarchar), 100, 0)
	assert.Equal(t, "VARCHAR", ct.Name)
	assert.False(t, ct.NotNull)
	assert.Equal(t, record.KindVarchar, ct.DataType.Kind)
	assert.Equal(t, 100, ct.DataType.MaxWidth)
}

func TestResolveColumnTypeNewDecimalIsFixedWidthChar(t *testing.T) {
	ct := ResolveColumnType(uint32(ftNewDecimal), uint32(ftNewDecimal)|prtypeNotNull, 9, 2)
	assert.Equal(t, "DECIMAL", ct.Name)
	assert.Equal(t, record.KindChar, ct.DataType.Kind)
	assert.Equal(t, 9, ct.DataType.Width)
}

func TestResolveColumnTypeBlob(t *testing.T) {
	ct := ResolveColumnType(uint32(ftBlob), uint32(ftBlob), 0, 0)
	assert.Equal(t, record.KindBlob, ct.DataType.Kind)
}

func TestResolveIndexFlags(t *testing.T) {
	f := ResolveIndexFlags(indexTypeClustered | indexTypeUnique)
	assert.True(t, f.Clustered)
	assert.True(t, f.Unique)
	assert.False(t, f.FTS)

	f = ResolveIndexFlags(indexTypeFTS)
	assert.False(t, f.Clustered)
	assert.True(t, f.FTS)
}

func TestDescriberByName(t *testing.T) {
	d, ok := describerByName("SYS_TABLES")
	assert.True(t, ok)
	assert.Same(t, SysTablesPrimary, d)

	_, ok = describerByName("SYS_NOT_A_TABLE")
	assert.False(t, ok)
}
