package redolog

// RecordType identifies the kind of change an MLOG_* redo record
// describes. Values match the real InnoDB mlog0types.h constants, not a
// renumbered sequence, since logs produced by a real server carry these
// exact tags on disk.
type RecordType uint8

const (
	MTR_LOG_ALL           RecordType = 21
	MTR_LOG_NONE          RecordType = 22
	MTR_LOG_NO_REDO       RecordType = 23
	MTR_LOG_SHORT_INSERTS RecordType = 24

	MLOG_1BYTE RecordType = 1
	MLOG_2BYTES RecordType = 2
	MLOG_4BYTES RecordType = 4
	MLOG_8BYTES RecordType = 8

	MLOG_REC_INSERT             RecordType = 9
	MLOG_REC_CLUST_DELETE_MARK  RecordType = 10
	MLOG_REC_SEC_DELETE_MARK    RecordType = 11
	MLOG_REC_UPDATE_IN_PLACE    RecordType = 13
	MLOG_REC_DELETE             RecordType = 14
	MLOG_LIST_END_DELETE        RecordType = 15
	MLOG_LIST_START_DELETE      RecordType = 16
	MLOG_LIST_END_COPY_CREATED  RecordType = 17
	MLOG_PAGE_REORGANIZE        RecordType = 18
	MLOG_PAGE_CREATE            RecordType = 19
	MLOG_UNDO_INSERT            RecordType = 20
	MLOG_UNDO_ERASE_END         RecordType = 21
	MLOG_UNDO_INIT              RecordType = 22
	MLOG_UNDO_HDR_DISCARD       RecordType = 23
	MLOG_UNDO_HDR_REUSE         RecordType = 24
	MLOG_UNDO_HDR_CREATE        RecordType = 25
	MLOG_REC_MIN_MARK           RecordType = 26
	MLOG_IBUF_BITMAP_INIT       RecordType = 27
	MLOG_LSN                    RecordType = 28
	MLOG_INIT_FILE_PAGE         RecordType = 29
	MLOG_WRITE_STRING           RecordType = 30
	MLOG_MULTI_REC_END          RecordType = 31
	MLOG_DUMMY_RECORD           RecordType = 32
	MLOG_FILE_CREATE            RecordType = 33
	MLOG_FILE_RENAME            RecordType = 34
	MLOG_FILE_DELETE            RecordType = 35
	MLOG_COMP_REC_MIN_MARK      RecordType = 36
	MLOG_COMP_PAGE_CREATE       RecordType = 37
	MLOG_COMP_REC_INSERT        RecordType = 38
	MLOG_COMP_REC_CLUST_DELETE_MARK RecordType = 39
	MLOG_COMP_REC_SEC_DELETE_MARK   RecordType = 40
	MLOG_COMP_REC_UPDATE_IN_PLACE   RecordType = 41
	MLOG_COMP_REC_DELETE            RecordType = 42
	MLOG_COMP_LIST_END_DELETE       RecordType = 43
	MLOG_COMP_LIST_START_DELETE     RecordType = 44
	MLOG_COMP_LIST_END_COPY_CREATED RecordType = 45
	MLOG_COMP_PAGE_REORGANIZE       RecordType = 46
	MLOG_FILE_CREATE2               RecordType = 47
	MLOG_ZIP_WRITE_NODE_PTR          RecordType = 48
	MLOG_ZIP_WRITE_BLOB_PTR          RecordType = 49
	MLOG_ZIP_WRITE_HEADER            RecordType = 50
	MLOG_ZIP_PAGE_COMPRESS           RecordType = 51
	MLOG_ZIP_PAGE_COMPRESS_NO_DATA   RecordType = 52
	MLOG_BIGGEST_TYPE                RecordType = 53

	MLOG_FILE_FLAG_TEMP = 1
)

// Undo-type tag written as the payload of an MLOG_UNDO_INIT record.
const (
	TRX_UNDO_INSERT RecordType = 1
	TRX_UNDO_UPDATE RecordType = 2
)

var recordTypeNames = map[RecordType]string{
	MLOG_1BYTE: "1byte", MLOG_2BYTES: "2bytes", MLOG_4BYTES: "4bytes", MLOG_8BYTES: "8bytes",
	MLOG_REC_INSERT: "rec_insert", MLOG_REC_CLUST_DELETE_MARK: "rec_clust_delete_mark",
	MLOG_REC_SEC_DELETE_MARK: "rec_sec_delete_mark", MLOG_REC_UPDATE_IN_PLACE: "rec_update_in_place",
	MLOG_REC_DELETE: "rec_delete", MLOG_LIST_END_DELETE: "list_end_delete",
	MLOG_LIST_START_DELETE: "list_start_delete", MLOG_LIST_END_COPY_CREATED: "list_end_copy_created",
	MLOG_PAGE_REORGANIZE: "page_reorganize", MLOG_PAGE_CREATE: "page_create",
	MLOG_UNDO_INSERT: "undo_insert", MLOG_UNDO_ERASE_END: "undo_erase_end",
	MLOG_UNDO_INIT: "undo_init", MLOG_UNDO_HDR_DISCARD: "undo_hdr_discard",
	MLOG_UNDO_HDR_REUSE: "undo_hdr_reuse", MLOG_UNDO_HDR_CREATE: "undo_hdr_create",
	MLOG_REC_MIN_MARK: "rec_min_mark", MLOG_IBUF_BITMAP_INIT: "ibuf_bitmap_init",
	MLOG_LSN: "lsn", MLOG_INIT_FILE_PAGE: "init_file_page", MLOG_WRITE_STRING: "write_string",
	MLOG_MULTI_REC_END: "multi_rec_end", MLOG_DUMMY_RECORD: "dummy_record",
	MLOG_FILE_CREATE: "file_create", MLOG_FILE_RENAME: "file_rename", MLOG_FILE_DELETE: "file_delete",
	MLOG_COMP_REC_MIN_MARK: "comp_rec_min_mark", MLOG_COMP_PAGE_CREATE: "comp_page_create",
	MLOG_COMP_REC_INSERT: "comp_rec_insert", MLOG_COMP_REC_CLUST_DELETE_MARK: "comp_rec_clust_delete_mark",
	MLOG_COMP_REC_SEC_DELETE_MARK: "comp_rec_sec_delete_mark", MLOG_COMP_REC_UPDATE_IN_PLACE: "comp_rec_update_in_place",
	MLOG_COMP_REC_DELETE: "comp_rec_delete", MLOG_COMP_LIST_END_DELETE: "comp_list_end_delete",
	MLOG_COMP_LIST_START_DELETE: "comp_list_start_delete", MLOG_COMP_LIST_END_COPY_CREATED: "comp_list_end_copy_created",
	MLOG_COMP_PAGE_REORGANIZE: "comp_page_reorganize", MLOG_FILE_CREATE2: "file_create2",
	MLOG_ZIP_WRITE_NODE_PTR: "zip_write_node_ptr", MLOG_ZIP_WRITE_BLOB_PTR: "zip_write_blob_ptr",
	MLOG_ZIP_WRITE_HEADER: "zip_write_header", MLOG_ZIP_PAGE_COMPRESS: "zip_page_compress",
	MLOG_ZIP_PAGE_COMPRESS_NO_DATA: "zip_page_compress_no_data",
}

func (t RecordType) String() string {
	if n, ok := recordTypeNames[t]; ok {
		return n
	}
	return "unknown"
}

// noPayload is the set of types that carry nothing beyond space and
// page_number: the change they describe is implied entirely by the
// page itself (e.g. re-initializing or reorganizing it in place).
var noPayload = map[RecordType]bool{
	MLOG_INIT_FILE_PAGE:   true,
	MLOG_IBUF_BITMAP_INIT: true,
	MLOG_PAGE_CREATE:      true,
	MLOG_COMP_PAGE_CREATE: true,
	MLOG_PAGE_REORGANIZE:  true,
	MLOG_COMP_PAGE_REORGANIZE: true,
	MLOG_UNDO_ERASE_END:   true,
	MLOG_UNDO_HDR_DISCARD: true,
}

// noSpacePage is the set of types that carry neither a tablespace id
// nor a page number: they mark structural boundaries in the log
// stream itself rather than a change to a specific page.
var noSpacePage = map[RecordType]bool{
	MLOG_MULTI_REC_END: true,
	MLOG_DUMMY_RECORD:  true,
}
