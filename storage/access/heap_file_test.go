package access

import (
	"fmt"
	"testing"

	"heapstore/common"
	"heapstore/storage/buffer"
	"heapstore/storage/disk"
	"heapstore/storage/page"
	"heapstore/testingutils"
	"heapstore/types"
)

func newTestInstance() (disk.DiskManager, *buffer.BufferPoolManager) {
	dm := disk.NewVirtualDiskManagerImpl()
	bpm := buffer.NewBufferPoolManager(common.BufferPoolSize, dm)
	return dm, bpm
}

func TestCreateAndDestroyHeapFile(t *testing.T) {
	dm, bpm := newTestInstance()
	defer dm.ShutDown()

	testingutils.Ok(t, CreateHeapFile(dm, bpm, "t0"))
	testingutils.Equals(t, ErrFileExists, CreateHeapFile(dm, bpm, "t0"))

	// a fresh file opens with one empty data page behind the header
	hf, err := OpenHeapFile(dm, bpm, "t0")
	testingutils.Ok(t, err)
	testingutils.Equals(t, int32(0), hf.GetRecCnt())
	testingutils.Equals(t, int32(1), hf.headerPage.GetPageCnt())
	testingutils.Equals(t, hf.headerPage.GetFirstPage(), hf.headerPage.GetLastPage())
	testingutils.Equals(t, "t0", hf.headerPage.GetFileName())
	hf.Close()

	testingutils.Ok(t, DestroyHeapFile(dm, bpm, "t0"))
	testingutils.Equals(t, disk.ErrFileNotFound, DestroyHeapFile(dm, bpm, "t0"))
	_, err = OpenHeapFile(dm, bpm, "t0")
	testingutils.Equals(t, disk.ErrFileNotFound, err)

	testingutils.Equals(t, 0, bpm.PinnedPageCount())
}

func TestInsertScanAcrossReopen(t *testing.T) {
	dm, bpm := newTestInstance()
	defer dm.ShutDown()

	testingutils.Ok(t, CreateHeapFile(dm, bpm, "t1"))

	payloads := make([][]byte, 3)
	for i := range payloads {
		payloads[i] = make([]byte, 50)
		copy(payloads[i], fmt.Sprintf("record-%c", 'A'+i))
	}

	ifs, err := NewInsertFileScan(dm, bpm, "t1")
	testingutils.Ok(t, err)
	var rids []page.RID
	for _, p := range payloads {
		rid, err := ifs.InsertRecord(p)
		testingutils.Ok(t, err)
		rids = append(rids, rid)
	}
	testingutils.Equals(t, int32(3), ifs.GetRecCnt())
	testingutils.Equals(t, int32(1), ifs.headerPage.GetPageCnt())
	ifs.Close()

	// reopen and scan: insertion order, byte-identical payloads
	scan, err := NewHeapFileScan(dm, bpm, "t1")
	testingutils.Ok(t, err)
	testingutils.Ok(t, scan.StartScan(0, 0, types.Invalid, nil, EQ))

	for i := 0; i < 3; i++ {
		rid, err := scan.ScanNext()
		testingutils.Ok(t, err)
		testingutils.Equals(t, rids[i], rid)

		rec, err := scan.GetRecord()
		testingutils.Ok(t, err)
		testingutils.Equals(t, payloads[i], rec.Data())
	}
	_, err = scan.ScanNext()
	testingutils.Equals(t, ErrFileEOF, err)

	testingutils.Equals(t, int32(3), scan.GetRecCnt())
	scan.Close()

	testingutils.Equals(t, 0, bpm.PinnedPageCount())
}

func TestGetRecordRoundTrip(t *testing.T) {
	dm, bpm := newTestInstance()
	defer dm.ShutDown()

	testingutils.Ok(t, CreateHeapFile(dm, bpm, "t_rt"))

	ifs, err := NewInsertFileScan(dm, bpm, "t_rt")
	testingutils.Ok(t, err)

	const n = 200
	payloads := make([][]byte, n)
	rids := make([]page.RID, n)
	for i := 0; i < n; i++ {
		payloads[i] = make([]byte, 20+i%60)
		copy(payloads[i], fmt.Sprintf("payload-%04d", i))
		rids[i], err = ifs.InsertRecord(payloads[i])
		testingutils.Ok(t, err)
	}
	ifs.Close()

	hf, err := OpenHeapFile(dm, bpm, "t_rt")
	testingutils.Ok(t, err)
	for i := 0; i < n; i++ {
		rec, err := hf.GetRecord(&rids[i])
		testingutils.Ok(t, err)
		testingutils.Equals(t, payloads[i], rec.Data())
	}
	// access in reverse order exercises page switching both ways
	for i := n - 1; i >= 0; i-- {
		rec, err := hf.GetRecord(&rids[i])
		testingutils.Ok(t, err)
		testingutils.Equals(t, payloads[i], rec.Data())
	}
	testingutils.Equals(t, int32(n), hf.GetRecCnt())
	hf.Close()

	testingutils.Equals(t, 0, bpm.PinnedPageCount())
}

func TestGetRecordBadPageNo(t *testing.T) {
	dm, bpm := newTestInstance()
	defer dm.ShutDown()

	testingutils.Ok(t, CreateHeapFile(dm, bpm, "t6"))
	hf, err := OpenHeapFile(dm, bpm, "t6")
	testingutils.Ok(t, err)
	defer hf.Close()

	curPageNoBefore := hf.curPageNo

	badRID := page.NullRID
	_, err = hf.GetRecord(&badRID)
	testingutils.Equals(t, ErrBadPageNo, err)

	// the current-page state is untouched by the rejected request
	testingutils.Equals(t, curPageNoBefore, hf.curPageNo)
}

func TestMultiPageGrowth(t *testing.T) {
	dm, bpm := newTestInstance()
	defer dm.ShutDown()

	testingutils.Ok(t, CreateHeapFile(dm, bpm, "t2"))

	ifs, err := NewInsertFileScan(dm, bpm, "t2")
	testingutils.Ok(t, err)

	// two 2000-byte records fill a 4KB page; four force a second page
	var rids []page.RID
	for i := 0; i < 4; i++ {
		data := make([]byte, 2000)
		copy(data, fmt.Sprintf("big-%d", i))
		rid, err := ifs.InsertRecord(data)
		testingutils.Ok(t, err)
		rids = append(rids, rid)
	}

	testingutils.Equals(t, int32(2), ifs.headerPage.GetPageCnt())
	testingutils.Equals(t, int32(4), ifs.GetRecCnt())
	testingutils.Assert(t, ifs.headerPage.GetFirstPage() != ifs.headerPage.GetLastPage(),
		"first and last page must differ after growth")
	ifs.Close()

	scan, err := NewHeapFileScan(dm, bpm, "t2")
	testingutils.Ok(t, err)
	for i := 0; i < 4; i++ {
		rid, err := scan.ScanNext()
		testingutils.Ok(t, err)
		testingutils.Equals(t, rids[i], rid)
	}
	_, err = scan.ScanNext()
	testingutils.Equals(t, ErrFileEOF, err)
	scan.Close()

	testingutils.Equals(t, 0, bpm.PinnedPageCount())
}

func TestChainConsistency(t *testing.T) {
	dm, bpm := newTestInstance()
	defer dm.ShutDown()

	testingutils.Ok(t, CreateHeapFile(dm, bpm, "t_chain"))

	ifs, err := NewInsertFileScan(dm, bpm, "t_chain")
	testingutils.Ok(t, err)
	for i := 0; i < 10; i++ {
		_, err := ifs.InsertRecord(make([]byte, 1000))
		testingutils.Ok(t, err)
	}
	ifs.Close()

	// walk the chain from firstPage: exactly pageCnt pages, tail links to -1
	hf, err := OpenHeapFile(dm, bpm, "t_chain")
	testingutils.Ok(t, err)

	visited := int32(0)
	pageNo := hf.headerPage.GetFirstPage()
	var last types.PageID
	for pageNo.IsValid() {
		frame, err := bpm.FetchPage(hf.filePtr, pageNo)
		testingutils.Ok(t, err)
		hp := CastPageAsHeapPage(frame)
		visited++
		last = pageNo
		next := hp.GetNextPageNo()
		testingutils.Ok(t, bpm.UnpinPage(hf.filePtr, pageNo, false))
		pageNo = next
	}
	testingutils.Equals(t, hf.headerPage.GetPageCnt(), visited)
	testingutils.Equals(t, hf.headerPage.GetLastPage(), last)
	hf.Close()

	testingutils.Equals(t, 0, bpm.PinnedPageCount())
}

func TestInsertAfterReopenLandsOnTail(t *testing.T) {
	dm, bpm := newTestInstance()
	defer dm.ShutDown()

	testingutils.Ok(t, CreateHeapFile(dm, bpm, "t_tail"))

	// three 2000-byte records span two pages (two fit per 4KB page)
	ifs, err := NewInsertFileScan(dm, bpm, "t_tail")
	testingutils.Ok(t, err)
	var rids []page.RID
	for i := 0; i < 3; i++ {
		data := make([]byte, 2000)
		copy(data, fmt.Sprintf("big-%d", i))
		rid, err := ifs.InsertRecord(data)
		testingutils.Ok(t, err)
		rids = append(rids, rid)
	}
	firstPage := ifs.headerPage.GetFirstPage()
	lastPage := ifs.headerPage.GetLastPage()
	testingutils.Assert(t, firstPage != lastPage, "three big records must span two pages")
	ifs.Close()

	// reopening seats the cursor on the head page; the insert must still
	// go to the tail and not disturb the chain
	ifs, err = NewInsertFileScan(dm, bpm, "t_tail")
	testingutils.Ok(t, err)
	testingutils.Equals(t, firstPage, ifs.curPageNo)

	data := make([]byte, 100)
	copy(data, "after reopen")
	rid, err := ifs.InsertRecord(data)
	testingutils.Ok(t, err)
	rids = append(rids, rid)

	testingutils.Equals(t, lastPage, rid.GetPageNo())
	testingutils.Equals(t, lastPage, ifs.curPageNo)
	testingutils.Equals(t, int32(2), ifs.headerPage.GetPageCnt())
	testingutils.Equals(t, int32(4), ifs.GetRecCnt())
	ifs.Close()

	// the whole chain is still reachable, in insertion order
	scan, err := NewHeapFileScan(dm, bpm, "t_tail")
	testingutils.Ok(t, err)
	for i := 0; i < 4; i++ {
		got, err := scan.ScanNext()
		testingutils.Ok(t, err)
		testingutils.Equals(t, rids[i], got)
	}
	_, err = scan.ScanNext()
	testingutils.Equals(t, ErrFileEOF, err)
	rec, err := scan.HeapFile.GetRecord(&rids[3])
	testingutils.Ok(t, err)
	testingutils.Equals(t, data, rec.Data())
	scan.Close()

	testingutils.Equals(t, 0, bpm.PinnedPageCount())
}

func TestInsertRecordLargerThanPage(t *testing.T) {
	dm, bpm := newTestInstance()
	defer dm.ShutDown()

	testingutils.Ok(t, CreateHeapFile(dm, bpm, "t_big"))

	ifs, err := NewInsertFileScan(dm, bpm, "t_big")
	testingutils.Ok(t, err)
	defer ifs.Close()

	_, err = ifs.InsertRecord(make([]byte, common.PageSize))
	testingutils.Equals(t, ErrNoSpace, err)

	// the failed insert must not corrupt the chain bookkeeping
	testingutils.Equals(t, int32(0), ifs.GetRecCnt())
	rid, err := ifs.InsertRecord([]byte("still works"))
	testingutils.Ok(t, err)
	testingutils.Equals(t, int32(1), ifs.GetRecCnt())

	rec, err := ifs.GetRecord(&rid)
	testingutils.Ok(t, err)
	testingutils.Equals(t, []byte("still works"), rec.Data())
}
