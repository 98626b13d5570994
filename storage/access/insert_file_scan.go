package access

import (
	"heapstore/storage/buffer"
	"heapstore/storage/disk"
	"heapstore/storage/page"
	"heapstore/types"
)

// InsertFileScan appends records to a heap file. Records always go to the
// tail page; when it fills up a new page is allocated and linked behind
// it, and the header's chain bookkeeping is updated in the same call.
type InsertFileScan struct {
	*HeapFile
}

// NewInsertFileScan opens fileName for insertion
func NewInsertFileScan(diskManager disk.DiskManager, bufMgr *buffer.BufferPoolManager, fileName string) (*InsertFileScan, error) {
	hf, err := OpenHeapFile(diskManager, bufMgr, fileName)
	if err != nil {
		return nil, err
	}
	return &InsertFileScan{HeapFile: hf}, nil
}

// Close unpins the current page, treating it as dirty (inserts are the
// common case), and closes the underlying heap file.
func (s *InsertFileScan) Close() {
	if s.curPage != nil {
		s.curDirtyFlag = true
	}
	s.HeapFile.Close()
}

// InsertRecord appends data to the file and returns its identifier.
//
// The chain invariants hold after every call, successful or not: a new
// page becomes reachable (header lastPage, predecessor link) before the
// old tail is unpinned. If unpinning the old tail fails, the new page is
// unpinned non-dirty and the error is returned; the header and the old
// tail's link already name the new page as the tail at that point.
func (s *InsertFileScan) InsertRecord(data []byte) (page.RID, error) {
	// inserts only ever go to the tail; let go of any other page first
	if s.curPage != nil && s.curPageNo != s.headerPage.GetLastPage() {
		err := s.bufMgr.UnpinPage(s.filePtr, s.curPageNo, s.curDirtyFlag)
		s.curPage = nil
		s.curPageNo = types.InvalidPageID
		s.curDirtyFlag = false
		if err != nil {
			return page.NullRID, err
		}
	}

	if s.curPage == nil {
		if lastPage := s.headerPage.GetLastPage(); !lastPage.IsValid() {
			// empty file: the chain starts with this allocation
			frame, err := s.bufMgr.AllocPage(s.filePtr)
			if err != nil {
				return page.NullRID, err
			}
			newPage := CastPageAsHeapPage(frame)
			newPage.Init(frame.ID())

			s.headerPage.SetFirstPage(frame.ID())
			s.headerPage.SetLastPage(frame.ID())
			s.headerPage.SetPageCnt(1)
			s.hdrDirtyFlag = true

			s.curPage = newPage
			s.curPageNo = frame.ID()
			s.curDirtyFlag = true
		} else {
			frame, err := s.bufMgr.FetchPage(s.filePtr, lastPage)
			if err != nil {
				return page.NullRID, err
			}
			s.curPage = CastPageAsHeapPage(frame)
			s.curPageNo = lastPage
			s.curDirtyFlag = false
		}
	}

	rid, err := s.curPage.InsertRecord(data)
	if err == nil {
		s.headerPage.SetRecCnt(s.headerPage.GetRecCnt() + 1)
		s.hdrDirtyFlag = true
		s.curDirtyFlag = true
		s.curRec = *rid
		return *rid, nil
	}
	if err != ErrNoSpace {
		return page.NullRID, err
	}

	// current page is full, grow the chain by one page
	frame, err := s.bufMgr.AllocPage(s.filePtr)
	if err != nil {
		return page.NullRID, err
	}
	newPageNo := frame.ID()
	newPage := CastPageAsHeapPage(frame)
	newPage.Init(newPageNo)

	s.curPage.SetNextPageNo(newPageNo)
	s.curDirtyFlag = true

	s.headerPage.SetLastPage(newPageNo)
	s.headerPage.SetPageCnt(s.headerPage.GetPageCnt() + 1)
	s.hdrDirtyFlag = true

	if err := s.bufMgr.UnpinPage(s.filePtr, s.curPageNo, s.curDirtyFlag); err != nil {
		s.bufMgr.UnpinPage(s.filePtr, newPageNo, false)
		s.curPage = nil
		s.curPageNo = types.InvalidPageID
		s.curDirtyFlag = false
		return page.NullRID, err
	}

	s.curPage = newPage
	s.curPageNo = newPageNo
	s.curDirtyFlag = true

	rid, err = s.curPage.InsertRecord(data)
	if err != nil {
		// e.g. the record is larger than a single empty page
		return page.NullRID, err
	}

	s.headerPage.SetRecCnt(s.headerPage.GetRecCnt() + 1)
	s.hdrDirtyFlag = true
	s.curRec = *rid
	return *rid, nil
}
