package access

import (
	"bytes"
	"encoding/binary"
	"math"

	"heapstore/common"
	"heapstore/storage/buffer"
	"heapstore/storage/disk"
	"heapstore/storage/page"
	"heapstore/storage/record"
	"heapstore/types"
)

// CompOp is the comparison applied between the record attribute and the
// filter value.
type CompOp int32

const (
	LT CompOp = iota
	LTE
	EQ
	GTE
	GT
	NE
)

// HeapFileScan iterates the records of a heap file in page-chain order,
// optionally filtered by a typed predicate over a fixed byte window of
// each record. The scan holds at most one pinned data page; the cursor
// position can be marked and restored.
type HeapFileScan struct {
	*HeapFile
	filter       []byte
	offset       int32
	length       int32
	typ          types.TypeID
	op           CompOp
	markedPageNo types.PageID
	markedRec    page.RID
}

// NewHeapFileScan opens fileName for scanning. No filter is set.
func NewHeapFileScan(diskManager disk.DiskManager, bufMgr *buffer.BufferPoolManager, fileName string) (*HeapFileScan, error) {
	hf, err := OpenHeapFile(diskManager, bufMgr, fileName)
	if err != nil {
		return nil, err
	}
	return &HeapFileScan{HeapFile: hf}, nil
}

// StartScan installs the filter for subsequent ScanNext calls. A nil
// filter disables filtering. The filter may be changed mid-scan; it takes
// effect from the next ScanNext. The cursor is not repositioned.
func (s *HeapFileScan) StartScan(offset int32, length int32, typ types.TypeID, filter []byte, op CompOp) error {
	if filter == nil {
		s.filter = nil
		return nil
	}

	if offset < 0 || length < 1 {
		return ErrBadScanParm
	}
	if typ != types.Varchar && typ != types.Integer && typ != types.Float {
		return ErrBadScanParm
	}
	if (typ == types.Integer || typ == types.Float) && length != 4 {
		return ErrBadScanParm
	}
	if op != LT && op != LTE && op != EQ && op != GTE && op != GT && op != NE {
		return ErrBadScanParm
	}

	s.offset = offset
	s.length = length
	s.typ = typ
	s.filter = filter
	s.op = op
	return nil
}

// EndScan unpins the page the scan stopped on. The scan may afterwards be
// restarted from the beginning of the file.
func (s *HeapFileScan) EndScan() error {
	if s.curPage != nil {
		err := s.bufMgr.UnpinPage(s.filePtr, s.curPageNo, s.curDirtyFlag)
		s.curPage = nil
		s.curPageNo = types.InvalidPageID
		s.curDirtyFlag = false
		return err
	}
	return nil
}

// Close ends the scan and closes the underlying heap file.
func (s *HeapFileScan) Close() {
	if err := s.EndScan(); err != nil {
		common.HsPrintf(common.ERROR, "HeapFileScan::Close: endScan failed: %v\n", err)
	}
	s.HeapFile.Close()
}

// MarkScan snapshots the cursor position for a later ResetScan. Only
// meaningful after a successful ScanNext.
func (s *HeapFileScan) MarkScan() {
	s.markedPageNo = s.curPageNo
	s.markedRec = s.curRec
}

// ResetScan moves the cursor back to the marked position, re-pinning the
// marked page when the scan has moved past it.
func (s *HeapFileScan) ResetScan() error {
	if s.markedPageNo == s.curPageNo {
		s.curRec = s.markedRec
		return nil
	}

	if s.curPage != nil {
		err := s.bufMgr.UnpinPage(s.filePtr, s.curPageNo, s.curDirtyFlag)
		s.curPage = nil
		s.curPageNo = types.InvalidPageID
		s.curDirtyFlag = false
		if err != nil {
			return err
		}
	}

	frame, err := s.bufMgr.FetchPage(s.filePtr, s.markedPageNo)
	if err != nil {
		return err
	}
	s.curPage = CastPageAsHeapPage(frame)
	s.curPageNo = s.markedPageNo
	s.curRec = s.markedRec
	s.curDirtyFlag = false
	return nil
}

// ScanNext advances the cursor to the next record satisfying the filter
// and returns its identifier. Returns ErrNoRecords when the header names
// no first data page and ErrFileEOF when the chain is exhausted, so a
// file whose data pages hold no records reports ErrFileEOF.
//
// The cursor is updated for every record visited, matching or not, so a
// DeleteRecord after a non-matching probe removes the last visited
// record. Advancement over empty pages and filtered-out records is a
// plain loop; an arbitrarily selective filter costs no stack.
func (s *HeapFileScan) ScanNext() (page.RID, error) {
	candidate := page.NullRID

	if s.curPage == nil {
		firstPage := s.headerPage.GetFirstPage()
		if !firstPage.IsValid() {
			return page.NullRID, ErrNoRecords
		}

		frame, err := s.bufMgr.FetchPage(s.filePtr, firstPage)
		if err != nil {
			return page.NullRID, err
		}
		s.curPage = CastPageAsHeapPage(frame)
		s.curPageNo = firstPage
		s.curDirtyFlag = false

		rid, err := s.curPage.FirstRecord()
		switch err {
		case nil:
			candidate = *rid
		case ErrNoRecords:
			// fall through to page advancement below
		default:
			return page.NullRID, err
		}
	} else {
		rid, err := s.curPage.NextRecord(&s.curRec)
		switch err {
		case nil:
			candidate = *rid
		case ErrEndOfPage:
			// fall through to page advancement below
		default:
			return page.NullRID, err
		}
	}

	for {
		if candidate.IsNull() {
			nextPageNo := s.curPage.GetNextPageNo()
			if !nextPageNo.IsValid() {
				return page.NullRID, ErrFileEOF
			}

			err := s.bufMgr.UnpinPage(s.filePtr, s.curPageNo, s.curDirtyFlag)
			s.curPage = nil
			s.curPageNo = types.InvalidPageID
			s.curDirtyFlag = false
			if err != nil {
				return page.NullRID, err
			}

			frame, err := s.bufMgr.FetchPage(s.filePtr, nextPageNo)
			if err != nil {
				return page.NullRID, err
			}
			s.curPage = CastPageAsHeapPage(frame)
			s.curPageNo = nextPageNo
			s.curDirtyFlag = false

			rid, err := s.curPage.FirstRecord()
			switch err {
			case nil:
				candidate = *rid
			case ErrNoRecords:
				continue
			default:
				return page.NullRID, err
			}
		}

		s.curRec = candidate

		if s.filter == nil {
			return candidate, nil
		}

		rec, err := s.curPage.GetRecord(&candidate)
		if err != nil {
			return page.NullRID, err
		}
		if s.matchRec(rec) {
			return candidate, nil
		}

		rid, err := s.curPage.NextRecord(&candidate)
		switch err {
		case nil:
			candidate = *rid
		case ErrEndOfPage:
			candidate = page.NullRID
		default:
			return page.NullRID, err
		}
	}
}

// GetRecord returns the record at the cursor. The page stays pinned and
// owned by the scan; callers must not unpin it.
func (s *HeapFileScan) GetRecord() (*record.Record, error) {
	common.HsAssert(s.curPage != nil, "HeapFileScan::GetRecord called without a positioned cursor")
	return s.curPage.GetRecord(&s.curRec)
}

// DeleteRecord removes the record at the cursor and decrements the file's
// record count. The cursor keeps its position; the next ScanNext resumes
// from the now-deleted slot.
func (s *HeapFileScan) DeleteRecord() error {
	common.HsAssert(s.curPage != nil, "HeapFileScan::DeleteRecord called without a positioned cursor")
	if err := s.curPage.DeleteRecord(&s.curRec); err != nil {
		return err
	}
	s.curDirtyFlag = true
	s.headerPage.SetRecCnt(s.headerPage.GetRecCnt() - 1)
	s.hdrDirtyFlag = true
	return nil
}

// MarkDirty flags the current page as modified. For callers that mutate
// the record bytes through the view returned by GetRecord.
func (s *HeapFileScan) MarkDirty() {
	s.curDirtyFlag = true
}

// matchRec evaluates the filter against one record. The attribute window
// must lie fully inside the record or the record does not match.
func (s *HeapFileScan) matchRec(rec *record.Record) bool {
	if s.filter == nil {
		return true
	}

	if s.offset+s.length-1 >= int32(rec.Size()) {
		return false
	}

	var diff float64
	switch s.typ {
	case types.Integer:
		attr := int32(binary.LittleEndian.Uint32(rec.Data()[s.offset : s.offset+4]))
		fltr := int32(binary.LittleEndian.Uint32(s.filter[:4]))
		diff = float64(attr) - float64(fltr)
	case types.Float:
		attr := math.Float32frombits(binary.LittleEndian.Uint32(rec.Data()[s.offset : s.offset+4]))
		fltr := math.Float32frombits(binary.LittleEndian.Uint32(s.filter[:4]))
		diff = float64(attr) - float64(fltr)
	case types.Varchar:
		diff = float64(bytes.Compare(rec.Data()[s.offset:s.offset+s.length], s.filter[:s.length]))
	}

	switch s.op {
	case LT:
		return diff < 0
	case LTE:
		return diff <= 0
	case EQ:
		return diff == 0
	case GTE:
		return diff >= 0
	case GT:
		return diff > 0
	case NE:
		return diff != 0
	}
	return false
}
