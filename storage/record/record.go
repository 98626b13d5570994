package record

import (
	"heapstore/storage/page"
)

// Record is an untyped record payload together with the identifier it
// was read from. The heap file layer never interprets the bytes; typed
// access belongs to the layers above.
type Record struct {
	rid  *page.RID
	size uint32
	data []byte
}

func NewRecord(rid *page.RID, size uint32, data []byte) *Record {
	return &Record{rid, size, data}
}

func (r *Record) Size() uint32 {
	return r.size
}

func (r *Record) Data() []byte {
	return r.data
}

func (r *Record) GetRID() *page.RID {
	return r.rid
}

func (r *Record) SetRID(rid *page.RID) {
	r.rid = rid
}
