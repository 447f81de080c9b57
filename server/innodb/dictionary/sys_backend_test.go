package dictionary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func helloWorldFixture() ([]sysTableRow, map[uint64][]*Column, map[uint64][]sysIndexRow, map[uint64][]string) {
	tableRows := []sysTableRow{
		{Name: "hello_world", ID: 1067, NCols: 3, Space: 9},
	}
	columnsByTable := map[uint64][]*Column{
		1067: {
			{Name: "id", Position: 0, Type: ResolveColumnType(uint32(ftLong), uint32(ftLong)|prtypeNotNull|prtypeUnsigned, 4, 0)},
			{Name: "message", Position: 1, Type: ResolveColumnType(uint32(ftVarchar), uint32(ftVarchar), 100, 0)},
			{Name: "author", Position: 2, Type: ResolveColumnType(uint32(ftVarchar), uint32(ftVarchar), 100, 0)},
		},
	}
	indexesByTable := map[uint64][]sysIndexRow{
		1067: {
			{TableID: 1067, ID: 1, Name: "PRIMARY", Type: uint32(indexTypeClustered | indexTypeUnique), PageNo: 4},
			{TableID: 1067, ID: 2, Name: "message", Type: 0, PageNo: 6},
		},
	}
	fieldsByIndex := map[uint64][]string{
		1: {"id"},
		2: {"message"},
	}
	return tableRows, columnsByTable, indexesByTable, fieldsByIndex
}

func TestAssembleSysTables(t *testing.T) {
	tables, err := assembleSysTables(helloWorldFixture())
	require.NoError(t, err)
	require.Len(t, tables, 1)

	table := tables[0]
	assert.Equal(t, "hello_world", table.Name)
	require.Len(t, table.Columns, 3)
	require.Len(t, table.Indexes, 2)

	primary := table.IndexByName("PRIMARY")
	require.NotNil(t, primary)
	assert.True(t, primary.Clustered())
	require.Len(t, primary.Describer.KeyFields, 1)
	assert.Equal(t, "id", primary.Describer.KeyFields[0].Name)
	// row propagation: every non-key column becomes part of the
	// clustered index's row, in table column order.
	require.Len(t, primary.Describer.RowFields, 2)
	assert.Equal(t, "message", primary.Describer.RowFields[0].Name)
	assert.Equal(t, "author", primary.Describer.RowFields[1].Name)

	secondary := table.IndexByName("message")
	require.NotNil(t, secondary)
	assert.False(t, secondary.Clustered())
	require.Len(t, secondary.Describer.KeyFields, 1)
	assert.Equal(t, "message", secondary.Describer.KeyFields[0].Name)
	// row propagation: the clustered key ("id") becomes the secondary
	// index's row, since it isn't already part of its own key.
	require.Len(t, secondary.Describer.RowFields, 1)
	assert.Equal(t, "id", secondary.Describer.RowFields[0].Name)
}

func TestAssembleSysTablesUnknownFieldFails(t *testing.T) {
	tableRows, columnsByTable, indexesByTable, fieldsByIndex := helloWorldFixture()
	fieldsByIndex[2] = []string{"does_not_exist"}
	_, err := assembleSysTables(tableRows, columnsByTable, indexesByTable, fieldsByIndex)
	assert.Error(t, err)
}
