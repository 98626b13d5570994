package access

import (
	"bytes"
	"unsafe"

	"heapstore/common"
	"heapstore/storage/page"
	"heapstore/types"
)

const offsetFirstPage = uint32(common.MaxFileNameLen)
const offsetLastPage = offsetFirstPage + 4
const offsetPageCnt = offsetLastPage + 4
const offsetRecCnt = offsetPageCnt + 4

// FileHdrPage is the typed view over a heap file's first page.
//
//	------------------------------------------------------------------
//	| fileName (64, null padded) | firstPage (4) | lastPage (4) |
//	| pageCnt (4) | recCnt (4) |
//	------------------------------------------------------------------
//
// firstPage and lastPage bracket the data page chain; both are -1 while
// the file holds no data pages.
type FileHdrPage struct {
	page.Page
}

// CastPageAsFileHdrPage casts a buffer frame into its header view
func CastPageAsFileHdrPage(page *page.Page) *FileHdrPage {
	if page == nil {
		return nil
	}
	return (*FileHdrPage)(unsafe.Pointer(page))
}

// Init formats the header for a brand new heap file
func (hdr *FileHdrPage) Init(fileName string) {
	hdr.SetFileName(fileName)
	hdr.SetFirstPage(types.InvalidPageID)
	hdr.SetLastPage(types.InvalidPageID)
	hdr.SetPageCnt(0)
	hdr.SetRecCnt(0)
}

// GetFileName returns the name recorded at creation
func (hdr *FileHdrPage) GetFileName() string {
	raw := hdr.Data()[:common.MaxFileNameLen]
	if idx := bytes.IndexByte(raw, 0); idx >= 0 {
		return string(raw[:idx])
	}
	return string(raw)
}

// SetFileName stores the name null-padded; overlong names are truncated
// keeping the final byte null.
func (hdr *FileHdrPage) SetFileName(fileName string) {
	var field [common.MaxFileNameLen]byte
	copy(field[:common.MaxFileNameLen-1], fileName)
	hdr.Copy(0, field[:])
}

func (hdr *FileHdrPage) GetFirstPage() types.PageID {
	return types.NewPageIDFromBytes(hdr.Data()[offsetFirstPage:])
}

func (hdr *FileHdrPage) SetFirstPage(pageNo types.PageID) {
	hdr.Copy(offsetFirstPage, pageNo.Serialize())
}

func (hdr *FileHdrPage) GetLastPage() types.PageID {
	return types.NewPageIDFromBytes(hdr.Data()[offsetLastPage:])
}

func (hdr *FileHdrPage) SetLastPage(pageNo types.PageID) {
	hdr.Copy(offsetLastPage, pageNo.Serialize())
}

func (hdr *FileHdrPage) GetPageCnt() int32 {
	return int32(types.NewInt32FromBytes(hdr.Data()[offsetPageCnt:]))
}

func (hdr *FileHdrPage) SetPageCnt(cnt int32) {
	hdr.Copy(offsetPageCnt, types.Int32(cnt).Serialize())
}

func (hdr *FileHdrPage) GetRecCnt() int32 {
	return int32(types.NewInt32FromBytes(hdr.Data()[offsetRecCnt:]))
}

func (hdr *FileHdrPage) SetRecCnt(cnt int32) {
	hdr.Copy(offsetRecCnt, types.Int32(cnt).Serialize())
}
