package page

import (
	"heapstore/common"
	"heapstore/storage/disk"
	"heapstore/types"
)

// PageSize is the size of a page frame in bytes
const PageSize = common.PageSize

// Page is a buffer pool frame: one page worth of file data plus the
// book-keeping the pool needs (owning file, pin count, dirty bit).
type Page struct {
	file     *disk.File
	id       types.PageID
	pinCount int32
	isDirty  bool
	data     *[PageSize]byte
}

// New wraps existing page data read from file into a pinned frame
func New(file *disk.File, id types.PageID, data *[PageSize]byte) *Page {
	return &Page{file, id, 1, false, data}
}

// NewEmpty returns a pinned frame for a freshly allocated page
func NewEmpty(file *disk.File, id types.PageID) *Page {
	return &Page{file, id, 1, false, &[PageSize]byte{}}
}

// IncPinCount increments pin count
func (p *Page) IncPinCount() {
	p.pinCount++
}

// DecPinCount decrements pin count
func (p *Page) DecPinCount() {
	if p.pinCount > 0 {
		p.pinCount--
	}
}

// PinCount returns the pin count
func (p *Page) PinCount() int32 {
	return p.pinCount
}

// ID returns the page id
func (p *Page) ID() types.PageID {
	return p.id
}

// File returns the file the page belongs to
func (p *Page) File() *disk.File {
	return p.file
}

// SetFile rebinds the frame to a live handle of the same file. Needed
// when a cached page outlives the handle it was read through.
func (p *Page) SetFile(file *disk.File) {
	p.file = file
}

func (p *Page) Data() *[PageSize]byte {
	return p.data
}

// Copy copies data into the page at the given offset
func (p *Page) Copy(offset uint32, data []byte) {
	copy(p.data[offset:], data)
}

func (p *Page) SetIsDirty(isDirty bool) {
	p.isDirty = isDirty
}

func (p *Page) IsDirty() bool {
	return p.isDirty
}
