package access

import (
	"unsafe"

	"heapstore/common"
	"heapstore/errors"
	"heapstore/storage/page"
	"heapstore/storage/record"
	"heapstore/types"
)

const sizeHeapPageHeader = uint32(16)
const sizeSlot = uint32(8)
const offsetNextPageNo = uint32(4)
const offsetFreeSpace = uint32(8)
const offsetSlotCount = uint32(12)
const offsetSlotArray = uint32(16)
const offsetSlotSize = uint32(20)

const (
	ErrEmptyRecord   = errors.Error("record cannot be empty")
	ErrNoSpace       = errors.Error("there is not enough space on the page")
	ErrInvalidSlot   = errors.Error("slot number out of range")
	ErrRecordDeleted = errors.Error("record at slot has been deleted")
	ErrEndOfPage     = errors.Error("no record after the given slot")
)

// Slotted page format:
//
//	-----------------------------------------------------------------
//	| HEADER | SLOT ARRAY | ... FREE SPACE ... | INSERTED RECORDS... |
//	-----------------------------------------------------------------
//	                                           ^
//	                                           free space pointer
//	Header format (size in bytes):
//	-----------------------------------------------------------------
//	| PageNo (4) | NextPageNo (4) | FreeSpacePointer (4) | SlotCount (4) |
//	-----------------------------------------------------------------
//	followed by one slot per record ever inserted:
//	| Slot_0 offset (4) | Slot_0 size (4) | Slot_1 offset (4) | ... |
//
// A deleted record keeps its slot with size zero, so slot numbers and
// therefore RIDs stay stable for the life of the page.
type HeapPage struct {
	page.Page
}

// CastPageAsHeapPage casts a buffer frame into its heap page view
func CastPageAsHeapPage(page *page.Page) *HeapPage {
	if page == nil {
		return nil
	}
	return (*HeapPage)(unsafe.Pointer(page))
}

// Init formats a freshly allocated page as an empty heap page
func (hp *HeapPage) Init(pageNo types.PageID) {
	hp.setHeapPageNo(pageNo)
	hp.SetNextPageNo(types.InvalidPageID)
	hp.setFreeSpacePointer(common.PageSize)
	hp.setSlotCount(0)
}

// InsertRecord places data on the page and returns its identifier.
// Returns ErrNoSpace when the record plus its slot does not fit.
func (hp *HeapPage) InsertRecord(data []byte) (*page.RID, error) {
	recLen := uint32(len(data))
	if recLen == 0 {
		return nil, ErrEmptyRecord
	}
	if hp.getFreeSpaceRemaining() < recLen+sizeSlot {
		return nil, ErrNoSpace
	}

	// slots are never reused, every insert appends a new one
	slot := hp.GetSlotCount()

	fsp := hp.getFreeSpacePointer() - recLen
	hp.setFreeSpacePointer(fsp)
	hp.Copy(fsp, data)
	hp.setSlotOffset(slot, fsp)
	hp.setSlotSize(slot, recLen)
	hp.setSlotCount(slot + 1)

	rid := &page.RID{}
	rid.Set(hp.GetHeapPageNo(), int32(slot))
	return rid, nil
}

// GetRecord copies out the record stored at rid
func (hp *HeapPage) GetRecord(rid *page.RID) (*record.Record, error) {
	slot := uint32(rid.GetSlotNo())
	if rid.GetSlotNo() < 0 || slot >= hp.GetSlotCount() {
		return nil, ErrInvalidSlot
	}

	size := hp.getSlotSize(slot)
	if size == 0 {
		return nil, ErrRecordDeleted
	}

	offset := hp.getSlotOffset(slot)
	data := make([]byte, size)
	copy(data, hp.Data()[offset:offset+size])

	recRID := &page.RID{}
	recRID.Set(rid.GetPageNo(), rid.GetSlotNo())
	return record.NewRecord(recRID, size, data), nil
}

// DeleteRecord marks the slot at rid as deleted. The record bytes stay
// where they are and the slot is never handed out again.
func (hp *HeapPage) DeleteRecord(rid *page.RID) error {
	slot := uint32(rid.GetSlotNo())
	if rid.GetSlotNo() < 0 || slot >= hp.GetSlotCount() {
		return ErrInvalidSlot
	}
	if hp.getSlotSize(slot) == 0 {
		return ErrRecordDeleted
	}
	hp.setSlotSize(slot, 0)
	return nil
}

// FirstRecord returns the identifier of the first live record on the page
func (hp *HeapPage) FirstRecord() (*page.RID, error) {
	slotCount := hp.GetSlotCount()
	for slot := uint32(0); slot < slotCount; slot++ {
		if hp.getSlotSize(slot) > 0 {
			rid := &page.RID{}
			rid.Set(hp.GetHeapPageNo(), int32(slot))
			return rid, nil
		}
	}
	return nil, ErrNoRecords
}

// NextRecord returns the first live record strictly after curRID's slot.
// curRID may point at a deleted slot; only its position matters.
func (hp *HeapPage) NextRecord(curRID *page.RID) (*page.RID, error) {
	slotCount := hp.GetSlotCount()
	for slot := uint32(curRID.GetSlotNo() + 1); slot < slotCount; slot++ {
		if hp.getSlotSize(slot) > 0 {
			rid := &page.RID{}
			rid.Set(hp.GetHeapPageNo(), int32(slot))
			return rid, nil
		}
	}
	return nil, ErrEndOfPage
}

// GetHeapPageNo returns the page number stored in the page header
func (hp *HeapPage) GetHeapPageNo() types.PageID {
	return types.NewPageIDFromBytes(hp.Data()[:])
}

func (hp *HeapPage) setHeapPageNo(pageNo types.PageID) {
	hp.Copy(0, pageNo.Serialize())
}

// GetNextPageNo returns the page number of the next page in the chain
func (hp *HeapPage) GetNextPageNo() types.PageID {
	return types.NewPageIDFromBytes(hp.Data()[offsetNextPageNo:])
}

// SetNextPageNo links this page to the given page number
func (hp *HeapPage) SetNextPageNo(pageNo types.PageID) {
	hp.Copy(offsetNextPageNo, pageNo.Serialize())
}

func (hp *HeapPage) getFreeSpacePointer() uint32 {
	return uint32(types.NewUInt32FromBytes(hp.Data()[offsetFreeSpace:]))
}

func (hp *HeapPage) setFreeSpacePointer(fsp uint32) {
	hp.Copy(offsetFreeSpace, types.UInt32(fsp).Serialize())
}

// GetSlotCount returns the number of slots ever created on the page
func (hp *HeapPage) GetSlotCount() uint32 {
	return uint32(types.NewUInt32FromBytes(hp.Data()[offsetSlotCount:]))
}

func (hp *HeapPage) setSlotCount(count uint32) {
	hp.Copy(offsetSlotCount, types.UInt32(count).Serialize())
}

func (hp *HeapPage) getSlotOffset(slot uint32) uint32 {
	return uint32(types.NewUInt32FromBytes(hp.Data()[offsetSlotArray+sizeSlot*slot:]))
}

func (hp *HeapPage) setSlotOffset(slot uint32, offset uint32) {
	hp.Copy(offsetSlotArray+sizeSlot*slot, types.UInt32(offset).Serialize())
}

func (hp *HeapPage) getSlotSize(slot uint32) uint32 {
	return uint32(types.NewUInt32FromBytes(hp.Data()[offsetSlotSize+sizeSlot*slot:]))
}

func (hp *HeapPage) setSlotSize(slot uint32, size uint32) {
	hp.Copy(offsetSlotSize+sizeSlot*slot, types.UInt32(size).Serialize())
}

func (hp *HeapPage) getFreeSpaceRemaining() uint32 {
	return hp.getFreeSpacePointer() - sizeHeapPageHeader - sizeSlot*hp.GetSlotCount()
}
