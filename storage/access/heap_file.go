package access

import (
	"heapstore/common"
	"heapstore/errors"
	"heapstore/storage/buffer"
	"heapstore/storage/disk"
	"heapstore/storage/page"
	"heapstore/storage/record"
	"heapstore/types"
)

const (
	ErrFileExists  = errors.Error("heap file already exists")
	ErrBadPageNo   = errors.Error("invalid page number in record id")
	ErrBadScanParm = errors.Error("invalid scan parameter")
	ErrNoRecords   = errors.Error("heap file has no records")
	ErrFileEOF     = errors.Error("end of heap file reached")
)

// HeapFile is an open heap file: an unordered collection of records held
// in a singly linked chain of slotted pages behind a header page.
//
// The header page is pinned for the whole life of the instance. At most
// one data page is pinned at a time (the current page); switching to a
// different page always unpins the old one first. Instances are not safe
// for concurrent use.
type HeapFile struct {
	diskManager  disk.DiskManager
	bufMgr       *buffer.BufferPoolManager
	filePtr      *disk.File
	headerPageNo types.PageID
	headerPage   *FileHdrPage
	hdrDirtyFlag bool
	curPageNo    types.PageID
	curPage      *HeapPage
	curDirtyFlag bool
	curRec       page.RID
}

// CreateHeapFile initialises the on-disk layout of a new heap file: a
// header page followed by one empty data page. The file is closed again
// before returning. A failure after file creation leaves a partial file
// on disk; callers may DestroyHeapFile it.
func CreateHeapFile(diskManager disk.DiskManager, bufMgr *buffer.BufferPoolManager, fileName string) error {
	f, err := diskManager.OpenFile(fileName)
	if err == nil {
		diskManager.CloseFile(f)
		return ErrFileExists
	}

	if err := diskManager.CreateFile(fileName); err != nil {
		return err
	}
	f, err = diskManager.OpenFile(fileName)
	if err != nil {
		return err
	}

	hdrFrame, err := bufMgr.AllocPage(f)
	if err != nil {
		diskManager.CloseFile(f)
		return err
	}
	hdrPageNo := hdrFrame.ID()
	hdrPage := CastPageAsFileHdrPage(hdrFrame)
	hdrPage.Init(fileName)

	dataFrame, err := bufMgr.AllocPage(f)
	if err != nil {
		bufMgr.UnpinPage(f, hdrPageNo, false)
		diskManager.CloseFile(f)
		return err
	}
	dataPageNo := dataFrame.ID()
	dataPage := CastPageAsHeapPage(dataFrame)
	dataPage.Init(dataPageNo)

	hdrPage.SetFirstPage(dataPageNo)
	hdrPage.SetLastPage(dataPageNo)
	hdrPage.SetPageCnt(1)
	hdrPage.SetRecCnt(0)

	if err := bufMgr.UnpinPage(f, hdrPageNo, true); err != nil {
		diskManager.CloseFile(f)
		return err
	}
	if err := bufMgr.UnpinPage(f, dataPageNo, true); err != nil {
		diskManager.CloseFile(f)
		return err
	}

	diskManager.CloseFile(f)
	return nil
}

// DestroyHeapFile deletes the file from disk and discards its cached
// pages. The file must have no open heap file instances.
func DestroyHeapFile(diskManager disk.DiskManager, bufMgr *buffer.BufferPoolManager, fileName string) error {
	if err := diskManager.DestroyFile(fileName); err != nil {
		return err
	}
	bufMgr.DropFilePages(fileName)
	return nil
}

// OpenHeapFile opens fileName and pins its header page, plus the first
// data page when the file is non-empty. Every pin taken is released again
// on any error path.
func OpenHeapFile(diskManager disk.DiskManager, bufMgr *buffer.BufferPoolManager, fileName string) (*HeapFile, error) {
	f, err := diskManager.OpenFile(fileName)
	if err != nil {
		return nil, err
	}

	headerPageNo, err := diskManager.GetFirstPage(f)
	if err != nil {
		diskManager.CloseFile(f)
		return nil, err
	}

	hdrFrame, err := bufMgr.FetchPage(f, headerPageNo)
	if err != nil {
		diskManager.CloseFile(f)
		return nil, err
	}

	hf := &HeapFile{
		diskManager:  diskManager,
		bufMgr:       bufMgr,
		filePtr:      f,
		headerPageNo: headerPageNo,
		headerPage:   CastPageAsFileHdrPage(hdrFrame),
		hdrDirtyFlag: false,
		curPageNo:    types.InvalidPageID,
		curPage:      nil,
		curDirtyFlag: false,
		curRec:       page.NullRID,
	}

	if firstPage := hf.headerPage.GetFirstPage(); firstPage.IsValid() {
		curFrame, err := bufMgr.FetchPage(f, firstPage)
		if err != nil {
			bufMgr.UnpinPage(f, headerPageNo, false)
			diskManager.CloseFile(f)
			return nil, err
		}
		hf.curPage = CastPageAsHeapPage(curFrame)
		hf.curPageNo = firstPage
	}

	return hf, nil
}

// Close unpins the current data page (if any) and the header page, then
// closes the file. Errors are reported on the diagnostic channel only;
// a close never fails.
func (hf *HeapFile) Close() {
	if hf.curPage != nil {
		if err := hf.bufMgr.UnpinPage(hf.filePtr, hf.curPageNo, hf.curDirtyFlag); err != nil {
			common.HsPrintf(common.ERROR, "HeapFile::Close: unpin of data page %d failed: %v\n", hf.curPageNo, err)
		}
		hf.curPage = nil
		hf.curPageNo = types.InvalidPageID
		hf.curDirtyFlag = false
	}

	if err := hf.bufMgr.UnpinPage(hf.filePtr, hf.headerPageNo, hf.hdrDirtyFlag); err != nil {
		common.HsPrintf(common.ERROR, "HeapFile::Close: unpin of header page failed: %v\n", err)
	}
	hf.headerPage = nil

	hf.diskManager.CloseFile(hf.filePtr)
}

// GetRecCnt returns the number of records in the heap file
func (hf *HeapFile) GetRecCnt() int32 {
	return hf.headerPage.GetRecCnt()
}

// GetRecord retrieves an arbitrary record from the file. If the record is
// not on the currently pinned page, the current page is unpinned and the
// required page is pinned in its place. The page stays pinned after a
// slot-level failure so that a retry does not repin.
func (hf *HeapFile) GetRecord(rid *page.RID) (*record.Record, error) {
	if !rid.GetPageNo().IsValid() {
		return nil, ErrBadPageNo
	}

	if hf.curPage == nil || rid.GetPageNo() != hf.curPageNo {
		if hf.curPage != nil {
			err := hf.bufMgr.UnpinPage(hf.filePtr, hf.curPageNo, hf.curDirtyFlag)
			hf.curPage = nil
			hf.curPageNo = types.InvalidPageID
			hf.curDirtyFlag = false
			if err != nil {
				return nil, err
			}
		}

		frame, err := hf.bufMgr.FetchPage(hf.filePtr, rid.GetPageNo())
		if err != nil {
			return nil, err
		}
		hf.curPage = CastPageAsHeapPage(frame)
		hf.curPageNo = rid.GetPageNo()
		hf.curDirtyFlag = false
	}

	rec, err := hf.curPage.GetRecord(rid)
	if err != nil {
		return nil, err
	}

	hf.curRec = *rid
	return rec, nil
}
