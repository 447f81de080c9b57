// Package system implements the top-level catalog over a MySQL data
// directory (or a single tablespace file): it assembles the system
// tablespace, attaches every other tablespace it can find, populates
// the data dictionary from whichever back-end the system space
// carries, and exposes the name/id lookups every other reader needs to
// turn a table or index name into a page it can decode.
package system

import (
	"encoding/binary"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/innodb-tools/innodb-reader/logger"
	"github.com/innodb-tools/innodb-reader/server/innodb/dictionary"
	"github.com/innodb-tools/innodb-reader/server/innodb/ierrors"
	"github.com/innodb-tools/innodb-reader/server/innodb/storage/wrapper/index"
	"github.com/innodb-tools/innodb-reader/server/innodb/storage/wrapper/page"
	"github.com/innodb-tools/innodb-reader/server/innodb/storage/wrapper/space"
)

// MysqlSpaceID is the fixed id System assigns the optional mysql.ibd
// data-dictionary-of-last-resort space: it has no FSP header space id
// of its own that callers should rely on (it is opened as a courtesy,
// not cross-referenced against any SYS_TABLES/SDI row), so it is kept
// out of the real space-id range with a value no genuine tablespace
// can carry (NoPage, 0xFFFFFFFF, is already reserved as the "absent"
// sentinel throughout this module; this is one below it).
const MysqlSpaceID uint32 = 0xFFFFFFFE

// dictHeaderPageNo is the fixed page within the system tablespace that
// carries the SYS_* root pointers (trx0sys.h/dict0boot.h: page 7).
const dictHeaderPageNo = 7

// OrphanTable names a table the dictionary knows about whose declared
// tablespace could not be located on disk. Never fatal: the table's
// metadata (columns, index definitions) is still usable, only its data
// pages are unreachable.
type OrphanTable struct {
	Table  *dictionary.Table
	Reason string
}

// System is the assembled catalog: the system tablespace, every other
// tablespace discovered alongside it, and the dictionary populated
// from whichever of the two back-ends the system space turned out to
// carry.
type System struct {
	primary *space.Space
	spaces  map[uint32]*space.Space
	named   map[string]uint32 // .ibd basename (no extension) -> space id
	dict    *dictionary.Dictionary
	orphans []OrphanTable
}

// Open accepts either a single tablespace file or a data directory. For
// a directory: ibdata? files (sorted) are concatenated into the
// primary system space; an optional mysql.ibd is attached under the
// fixed MysqlSpaceID; every *.ibd file found anywhere beneath the
// directory is opened and attached under its own FSP-header space id.
// A single-file path is opened as the primary space on its own, with
// no further discovery.
func Open(path string) (*System, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, "system: stat")
	}

	var dir string
	var primaryFiles []string
	if fi.IsDir() {
		dir = path
		matches, err := filepath.Glob(filepath.Join(dir, "ibdata?"))
		if err != nil {
			return nil, errors.Wrap(err, "system: globbing ibdata files")
		}
		sort.Strings(matches)
		if len(matches) == 0 {
			return nil, errors.Wrapf(ierrors.ErrDictionaryNotFound, "system: no ibdata? files in %s", dir)
		}
		primaryFiles = matches
	} else {
		dir = filepath.Dir(path)
		primaryFiles = []string{path}
	}

	primary, err := space.Open(primaryFiles...)
	if err != nil {
		return nil, err
	}

	s := &System{
		primary: primary,
		spaces:  map[uint32]*space.Space{primary.SpaceID(): primary},
		named:   map[string]uint32{},
	}

	if err := s.attachMysqlSpace(dir); err != nil {
		s.Close()
		return nil, err
	}
	if err := s.attachIbdFiles(dir); err != nil {
		s.Close()
		return nil, err
	}
	if err := s.loadDictionary(); err != nil {
		s.Close()
		return nil, err
	}
	s.resolveOrphans()

	return s, nil
}

func (s *System) attachMysqlSpace(dir string) error {
	p := filepath.Join(dir, "mysql.ibd")
	if _, err := os.Stat(p); err != nil {
		return nil
	}
	sp, err := space.Open(p)
	if err != nil {
		logger.Logger.Warnf("system: skipping mysql.ibd: %v", err)
		return nil
	}
	s.spaces[MysqlSpaceID] = sp
	s.named["mysql"] = MysqlSpaceID
	return nil
}

// attachIbdFiles walks dir for every *.ibd file other than mysql.ibd
// (already handled specially) and opens each as its own tablespace,
// keyed by the space id its own FSP header reports. A file that fails
// to open is logged and skipped rather than aborting discovery — a
// single corrupt or half-copied .ibd shouldn't prevent reading every
// other table.
func (s *System) attachIbdFiles(dir string) error {
	var files []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(p, ".ibd") {
			return nil
		}
		if filepath.Base(p) == "mysql.ibd" {
			return nil
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "system: walking for .ibd files")
	}
	sort.Strings(files)
	for _, f := range files {
		sp, err := space.Open(f)
		if err != nil {
			logger.Logger.Warnf("system: skipping %s: %v", f, err)
			continue
		}
		s.spaces[sp.SpaceID()] = sp
		name := strings.TrimSuffix(filepath.Base(f), ".ibd")
		s.named[name] = sp.SpaceID()
	}
	return nil
}

// sdiPrevThreshold is the empirical split point of SPEC_FULL.md's
// dictionary-version detection: a raw FIL_PAGE_PREV on page 0 above it
// suggests the SDI layout. The comparison is kept as a named, logged
// signal, but the actual decision defers to the dictionary.FindSDIRoot
// probe below, which looks for an actual SDI index root rather than
// guessing from the FIL header; see the server/innodb/system section of
// DESIGN.md.
const sdiPrevThreshold = 80000

func (s *System) pageZeroPrevHint() bool {
	p0, err := s.primary.Page(0)
	if err != nil {
		return false
	}
	raw := binary.BigEndian.Uint32(p0.Buf()[8:12])
	return raw != page.NoPage && raw > sdiPrevThreshold
}

// loadDictionary detects which back-end the primary space carries and
// populates s.dict from it.
func (s *System) loadDictionary() error {
	root, ok, err := dictionary.FindSDIRoot(s.primary, s.primary.Pages())
	if err != nil {
		return err
	}
	if hint := s.pageZeroPrevHint(); hint != ok {
		logger.Logger.Debugf("system: page-0 prev heuristic (sdi=%v) disagrees with SDI-root probe (sdi=%v); trusting the probe", hint, ok)
	}
	if ok {
		d, err := dictionary.LoadSDI(s.primary, root)
		if err != nil {
			return err
		}
		s.dict = d
		return nil
	}
	d, err := dictionary.LoadSys(s.primary, dictHeaderPageNo)
	if err != nil {
		return err
	}
	s.dict = d
	return nil
}

// tableFileStem strips a schema-qualified table name ("db/table", the
// form SYS_TABLES and the SDI dictionary both use) down to the bare
// name a file-per-table .ibd is conventionally named after.
func tableFileStem(name string) string {
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// resolveOrphans ensures every table's declared tablespace is loaded,
// aliasing a located-by-name file to its declared space id when the
// id wasn't already known (discovery walks files, not ids) and
// recording an orphan when no file answers for it. A table living in
// the system space itself (id 0) is never orphaned: it's already
// loaded as s.primary.
func (s *System) resolveOrphans() {
	for _, t := range s.dict.Tables {
		if t.SpaceID == 0 {
			continue
		}
		if _, ok := s.spaces[t.SpaceID]; ok {
			continue
		}
		if id, ok := s.named[tableFileStem(t.Name)]; ok {
			if sp, ok := s.spaces[id]; ok {
				s.spaces[t.SpaceID] = sp
				continue
			}
		}
		s.orphans = append(s.orphans, OrphanTable{
			Table:  t,
			Reason: "tablespace file not found for space id " + itoa(t.SpaceID),
		})
	}
}

func itoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	digits := [10]byte{}
	i := len(digits)
	for v > 0 {
		i--
		digits[i] = byte('0' + v%10)
		v /= 10
	}
	return string(digits[i:])
}

// Close releases every open tablespace's file descriptors.
func (s *System) Close() error {
	var first error
	for _, sp := range s.spaces {
		if err := sp.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Dictionary is the populated catalog System loaded.
func (s *System) Dictionary() *dictionary.Dictionary { return s.dict }

// Orphans lists every table whose declared tablespace couldn't be
// located on disk. Never an error condition on its own.
func (s *System) Orphans() []OrphanTable { return s.orphans }

// Space looks up an already-open tablespace by id.
func (s *System) Space(id uint32) (*space.Space, error) {
	sp, ok := s.spaces[id]
	if !ok {
		return nil, errors.Wrapf(ierrors.ErrMissingTable, "no tablespace with id %d", id)
	}
	return sp, nil
}

// SpaceByTableName resolves a table's own tablespace by its dictionary
// name ("db/table" for a user table).
func (s *System) SpaceByTableName(name string) (*space.Space, error) {
	t, ok := s.dict.FindTable(name)
	if !ok {
		return nil, errors.Wrapf(ierrors.ErrMissingTable, "table %q", name)
	}
	return s.Space(t.SpaceID)
}

// IndexByName builds a traversable B+tree view of one of a table's
// indexes, rooted at the page the dictionary recorded and decoded
// with the describer the dictionary built for it.
func (s *System) IndexByName(table, indexName string) (*index.Index, error) {
	dix, err := s.dict.IndexByName(table, indexName)
	if err != nil {
		return nil, err
	}
	return s.indexFromDictionary(dix)
}

// ClusteredIndexByTableID builds a traversable view of a table's
// primary storage index, looked up by its dictionary table id.
func (s *System) ClusteredIndexByTableID(id uint64) (*index.Index, error) {
	t, ok := s.dict.TableByID(id)
	if !ok {
		return nil, errors.Wrapf(ierrors.ErrMissingTable, "table id %d", id)
	}
	dix := t.Clustered()
	if dix == nil {
		return nil, errors.Wrapf(ierrors.ErrMissingIndex, "table %q has no clustered index", t.Name)
	}
	return s.indexFromDictionary(dix)
}

func (s *System) indexFromDictionary(dix *dictionary.Index) (*index.Index, error) {
	sp, err := s.Space(dix.SpaceID)
	if err != nil {
		return nil, errors.Wrapf(err, "index %q", dix.Name)
	}
	return index.New(sp, dix.PageNo, dix.Describer), nil
}
