package system

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innodb-tools/innodb-reader/server/innodb/dictionary"
	"github.com/innodb-tools/innodb-reader/server/innodb/storage/wrapper/page"
	"github.com/innodb-tools/innodb-reader/server/innodb/storage/wrapper/space"
)

const testPageSize = 16384

// buildPage returns a full page-sized buffer with a FIL header stamped
// for (pageNo, typ, spaceID); fill, if given, writes into the body
// (everything after the 38-byte FIL header).
func buildPage(pageNo uint32, typ page.Type, spaceID uint32, fill func(body []byte)) []byte {
	buf := make([]byte, testPageSize)
	binary.BigEndian.PutUint16(buf[24:26], uint16(typ))
	binary.BigEndian.PutUint32(buf[34:38], spaceID)
	if fill != nil {
		fill(buf[page.FileHeaderSize : testPageSize-page.FileTrailerSize])
	}
	return buf
}

// fspSpaceID returns a buildPage fill callback that stamps the FSP
// header's own space-id field (body offset 0), the field space.Open
// actually reads, distinct from the FIL header's space id.
func fspSpaceID(id uint32) func([]byte) {
	return func(body []byte) {
		binary.BigEndian.PutUint32(body[0:4], id)
	}
}

func writePages(t *testing.T, path string, pages map[uint32][]byte) {
	t.Helper()
	maxPage := uint32(0)
	for n := range pages {
		if n > maxPage {
			maxPage = n
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, f.Truncate(int64(maxPage+1)*testPageSize))
	for n, buf := range pages {
		_, err := f.WriteAt(buf, int64(n)*testPageSize)
		require.NoError(t, err)
	}
}

func TestTableFileStem(t *testing.T) {
	assert.Equal(t, "hello_world", tableFileStem("mydb/hello_world"))
	assert.Equal(t, "hello_world", tableFileStem("hello_world"))
}

func TestAttachMysqlSpaceAndIbdFiles(t *testing.T) {
	dir := t.TempDir()

	primaryPath := filepath.Join(dir, "ibdata1")
	writePages(t, primaryPath, map[uint32][]byte{
		0: buildPage(0, page.TypeFspHdr, 0, nil),
	})
	primary, err := space.Open(primaryPath)
	require.NoError(t, err)
	defer primary.Close()

	writePages(t, filepath.Join(dir, "mysql.ibd"), map[uint32][]byte{
		0: buildPage(0, page.TypeFspHdr, 0xFFFFFFFD, fspSpaceID(0xFFFFFFFD)),
	})
	writePages(t, filepath.Join(dir, "hello_world.ibd"), map[uint32][]byte{
		0: buildPage(0, page.TypeFspHdr, 9, fspSpaceID(9)),
	})

	s := &System{
		primary: primary,
		spaces:  map[uint32]*space.Space{primary.SpaceID(): primary},
		named:   map[string]uint32{},
	}
	require.NoError(t, s.attachMysqlSpace(dir))
	require.NoError(t, s.attachIbdFiles(dir))
	defer s.Close()

	mysqlSp, err := s.Space(MysqlSpaceID)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xFFFFFFFD), mysqlSp.SpaceID())

	tableSp, err := s.Space(9)
	require.NoError(t, err)
	assert.Equal(t, uint32(9), tableSp.SpaceID())

	assert.Equal(t, MysqlSpaceID, s.named["mysql"])
	assert.Equal(t, uint32(9), s.named["hello_world"])
}

func TestResolveOrphansAliasesByName(t *testing.T) {
	// located declares space id 55 in the dictionary, but its .ibd file's
	// own FSP header reports 9 — the file-per-table declared id and the
	// file's own on-disk id can differ when a tablespace was copied or
	// restored under a different id; name-based aliasing bridges that.
	located := &dictionary.Table{Name: "mydb/hello_world", SpaceID: 55}
	missing := &dictionary.Table{Name: "mydb/gone", SpaceID: 42}
	systemTable := &dictionary.Table{Name: "SYS_TABLES", SpaceID: 0}

	s := &System{
		spaces: map[uint32]*space.Space{},
		named:  map[string]uint32{"hello_world": 9},
		dict:   &dictionary.Dictionary{Tables: []*dictionary.Table{located, missing, systemTable}},
	}
	placeholder := &space.Space{}
	s.spaces[9] = placeholder

	s.resolveOrphans()

	require.Len(t, s.orphans, 1)
	assert.Equal(t, missing, s.orphans[0].Table)
	assert.Same(t, placeholder, mustSpace(t, s, 55))
}

func mustSpace(t *testing.T, s *System, id uint32) *space.Space {
	t.Helper()
	sp, err := s.Space(id)
	require.NoError(t, err)
	return sp
}

func TestHistoryEnumeratesRollbackSegments(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ibdata1")

	const rsegPage = 8
	trxSys := buildPage(trxSysPageNo, page.TypeTrxSys, 0, func(body []byte) {
		off := trxSysRsegsBase
		binary.BigEndian.PutUint32(body[off:off+4], 0)       // space
		binary.BigEndian.PutUint32(body[off+4:off+8], rsegPage) // page_no
		for slot := 1; slot < trxSysMaxRsegs; slot++ {
			o := trxSysRsegsBase + slot*trxSysRsegSlot
			binary.BigEndian.PutUint32(body[o+4:o+8], page.NoPage)
		}
	})
	rseg := buildPage(rsegPage, page.TypeSys, 0, func(body []byte) {
		binary.BigEndian.PutUint32(body[rsegHistoryOffset:rsegHistoryOffset+4], 2) // length
		binary.BigEndian.PutUint32(body[rsegHistoryOffset+4:rsegHistoryOffset+8], 20)
		binary.BigEndian.PutUint16(body[rsegHistoryOffset+8:rsegHistoryOffset+10], 100)
		binary.BigEndian.PutUint32(body[rsegHistoryOffset+10:rsegHistoryOffset+14], 30)
		binary.BigEndian.PutUint16(body[rsegHistoryOffset+14:rsegHistoryOffset+16], 200)
	})

	writePages(t, path, map[uint32][]byte{
		0:       buildPage(0, page.TypeFspHdr, 0, nil),
		trxSysPageNo: trxSys,
		rsegPage:     rseg,
	})
	primary, err := space.Open(path)
	require.NoError(t, err)
	defer primary.Close()

	s := &System{primary: primary, spaces: map[uint32]*space.Space{0: primary}, named: map[string]uint32{}}

	rsegs, err := s.History()
	require.NoError(t, err)
	require.Len(t, rsegs, 1)
	assert.Equal(t, uint32(0), rsegs[0].SpaceID)
	assert.Equal(t, uint32(rsegPage), rsegs[0].PageNo)

	hl, err := rsegs[0].HistoryList()
	require.NoError(t, err)
	assert.Equal(t, uint32(2), hl.Len())
}
