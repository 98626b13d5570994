package common

const (
	// size of a data page in bytes
	PageSize = 4096
	// invalid page id
	InvalidPageID = -1
	// number of frames in the buffer pool
	BufferPoolSize = 32
	// fixed length of the file name field on a heap file header page
	MaxFileNameLen = 64
)

var EnableDebug bool = false
