package page

import "heapstore/types"

// RID is the record identifier for the given page number and slot number
type RID struct {
	pageNo types.PageID
	slotNo int32
}

// NullRID denotes "no record".
var NullRID = RID{types.InvalidPageID, -1}

// Set sets the record identifier
func (r *RID) Set(pageNo types.PageID, slotNo int32) {
	r.pageNo = pageNo
	r.slotNo = slotNo
}

// GetPageNo gets the page number
func (r *RID) GetPageNo() types.PageID {
	return r.pageNo
}

// GetSlotNo gets the slot number
func (r *RID) GetSlotNo() int32 {
	return r.slotNo
}

// IsNull reports whether the identifier denotes "no record".
func (r *RID) IsNull() bool {
	return !r.pageNo.IsValid()
}
