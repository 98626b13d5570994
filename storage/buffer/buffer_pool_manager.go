package buffer

import (
	stack "github.com/golang-collections/collections/stack"
	pair "github.com/notEpsilon/go-pair"
	"github.com/sasha-s/go-deadlock"

	"heapstore/common"
	"heapstore/errors"
	"heapstore/storage/disk"
	"heapstore/storage/page"
	"heapstore/types"
)

const (
	// ErrNoFreeFrame is returned when every frame is pinned and a new
	// page is requested.
	ErrNoFreeFrame  = errors.Error("no free frame in the buffer pool")
	ErrPageNotFound = errors.Error("page is not in the buffer pool")
)

// frameKey identifies a page across files: pages of different heap files
// share the pool, so the page number alone is ambiguous.
type frameKey = pair.Pair[string, types.PageID]

// BufferPoolManager caches file pages in a fixed set of frames and hands
// out pinned views. A pinned page stays in its frame until every pin is
// released; unpinned frames are recycled by the clock replacer.
type BufferPoolManager struct {
	diskManager disk.DiskManager
	pages       []*page.Page
	replacer    *ClockReplacer
	freeList    *stack.Stack
	pageTable   map[frameKey]FrameID
	latch       deadlock.Mutex
}

// NewBufferPoolManager returns an empty buffer pool over diskManager
func NewBufferPoolManager(poolSize uint32, diskManager disk.DiskManager) *BufferPoolManager {
	freeList := stack.New()
	pages := make([]*page.Page, poolSize)
	for i := uint32(0); i < poolSize; i++ {
		freeList.Push(FrameID(poolSize - 1 - i))
		pages[i] = nil
	}

	replacer := NewClockReplacer(poolSize)
	return &BufferPoolManager{diskManager, pages, replacer, freeList, make(map[frameKey]FrameID), deadlock.Mutex{}}
}

// AllocPage extends f by one page and returns it pinned and zeroed.
func (b *BufferPoolManager) AllocPage(f *disk.File) (*page.Page, error) {
	b.latch.Lock()
	defer b.latch.Unlock()

	frameID, err := b.getFrameID()
	if err != nil {
		return nil, err
	}

	pageID := b.diskManager.AllocatePage(f)
	pg := page.NewEmpty(f, pageID)

	b.pageTable[frameKey{First: f.Name(), Second: pageID}] = *frameID
	b.pages[*frameID] = pg

	return pg, nil
}

// FetchPage returns the requested page pinned, reading it from disk on a miss.
func (b *BufferPoolManager) FetchPage(f *disk.File, pageID types.PageID) (*page.Page, error) {
	b.latch.Lock()
	defer b.latch.Unlock()

	key := frameKey{First: f.Name(), Second: pageID}
	if frameID, ok := b.pageTable[key]; ok {
		pg := b.pages[frameID]
		pg.IncPinCount()
		pg.SetFile(f)
		b.replacer.Pin(frameID)
		return pg, nil
	}

	frameID, err := b.getFrameID()
	if err != nil {
		return nil, err
	}

	var pageData [common.PageSize]byte
	if err := b.diskManager.ReadPage(f, pageID, pageData[:]); err != nil {
		// put the frame back so the failed read does not leak it
		b.freeList.Push(*frameID)
		return nil, err
	}

	pg := page.New(f, pageID, &pageData)
	b.pageTable[key] = *frameID
	b.pages[*frameID] = pg

	return pg, nil
}

// UnpinPage releases one pin of the target page. isDirty ORs into the
// frame's dirty bit. When the last pin goes away a dirty page is written
// back, so callers can close the underlying file once all their pins are
// released.
func (b *BufferPoolManager) UnpinPage(f *disk.File, pageID types.PageID, isDirty bool) error {
	b.latch.Lock()
	defer b.latch.Unlock()

	key := frameKey{First: f.Name(), Second: pageID}
	frameID, ok := b.pageTable[key]
	if !ok {
		return ErrPageNotFound
	}

	pg := b.pages[frameID]
	pg.DecPinCount()
	if isDirty {
		pg.SetIsDirty(true)
	}
	if pg.PinCount() <= 0 {
		if pg.IsDirty() {
			data := pg.Data()
			if err := b.diskManager.WritePage(pg.File(), pg.ID(), data[:]); err != nil {
				return err
			}
			pg.SetIsDirty(false)
		}
		b.replacer.Unpin(frameID)
	}
	return nil
}

// FlushPage writes the target page to disk and clears its dirty bit.
func (b *BufferPoolManager) FlushPage(f *disk.File, pageID types.PageID) bool {
	b.latch.Lock()
	defer b.latch.Unlock()

	key := frameKey{First: f.Name(), Second: pageID}
	frameID, ok := b.pageTable[key]
	if !ok {
		return false
	}

	pg := b.pages[frameID]
	data := pg.Data()
	b.diskManager.WritePage(pg.File(), pg.ID(), data[:])
	pg.SetIsDirty(false)
	return true
}

// FlushAllPages flushes every resident page to disk.
func (b *BufferPoolManager) FlushAllPages() {
	b.latch.Lock()
	defer b.latch.Unlock()

	for _, frameID := range b.pageTable {
		pg := b.pages[frameID]
		data := pg.Data()
		b.diskManager.WritePage(pg.File(), pg.ID(), data[:])
		pg.SetIsDirty(false)
	}
}

// DropFilePages discards every unpinned frame belonging to fileName.
// Called when the file is destroyed so stale pages cannot resurface if a
// file with the same name is created later.
func (b *BufferPoolManager) DropFilePages(fileName string) {
	b.latch.Lock()
	defer b.latch.Unlock()

	for key, frameID := range b.pageTable {
		if key.First != fileName {
			continue
		}
		pg := b.pages[frameID]
		if pg != nil && pg.PinCount() > 0 {
			continue
		}
		b.replacer.Pin(frameID)
		delete(b.pageTable, key)
		b.pages[frameID] = nil
		b.freeList.Push(frameID)
	}
}

// PinnedPageCount reports how many frames currently hold a pin. Test hook.
func (b *BufferPoolManager) PinnedPageCount() int {
	b.latch.Lock()
	defer b.latch.Unlock()

	cnt := 0
	for _, frameID := range b.pageTable {
		if b.pages[frameID].PinCount() > 0 {
			cnt++
		}
	}
	return cnt
}

// getFrameID hands out a free frame, evicting an unpinned page if the
// free stack is empty. Caller holds the latch.
func (b *BufferPoolManager) getFrameID() (*FrameID, error) {
	if b.freeList.Len() > 0 {
		frameID := b.freeList.Pop().(FrameID)
		return &frameID, nil
	}

	victim := b.replacer.Victim()
	if victim == nil {
		return nil, ErrNoFreeFrame
	}

	currentPage := b.pages[*victim]
	if currentPage != nil {
		if currentPage.IsDirty() {
			data := currentPage.Data()
			b.diskManager.WritePage(currentPage.File(), currentPage.ID(), data[:])
		}
		delete(b.pageTable, frameKey{First: currentPage.File().Name(), Second: currentPage.ID()})
		b.pages[*victim] = nil
	}
	return victim, nil
}
