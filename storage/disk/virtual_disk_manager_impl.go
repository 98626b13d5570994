package disk

import (
	"io"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/dsnet/golib/memfile"

	"heapstore/common"
	"heapstore/types"
)

// VirtualDiskManagerImpl keeps every file in memory. It behaves like
// DiskManagerImpl but nothing survives the process; used by tests and
// throwaway instances.
type VirtualDiskManagerImpl struct {
	fileTable map[string]*memfile.File
	openFiles mapset.Set[*File]
	mutex     *sync.Mutex
}

func NewVirtualDiskManagerImpl() DiskManager {
	return &VirtualDiskManagerImpl{make(map[string]*memfile.File), mapset.NewSet[*File](), new(sync.Mutex)}
}

func (d *VirtualDiskManagerImpl) CreateFile(fileName string) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if _, exists := d.fileTable[fileName]; exists {
		return ErrFileExists
	}
	d.fileTable[fileName] = memfile.New(make([]byte, 0))
	return nil
}

func (d *VirtualDiskManagerImpl) OpenFile(fileName string) (*File, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	mf, exists := d.fileTable[fileName]
	if !exists {
		return nil, ErrFileNotFound
	}

	fileSize := int64(len(mf.Bytes()))
	nPages := fileSize / common.PageSize

	f := &File{fileName, mf, types.PageID(int32(nPages)), fileSize}
	d.openFiles.Add(f)
	return f, nil
}

func (d *VirtualDiskManagerImpl) CloseFile(f *File) {
	d.openFiles.Remove(f)
}

func (d *VirtualDiskManagerImpl) DestroyFile(fileName string) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	for _, f := range d.openFiles.ToSlice() {
		if f.name == fileName {
			return ErrFileOpen
		}
	}
	if _, exists := d.fileTable[fileName]; !exists {
		return ErrFileNotFound
	}
	delete(d.fileTable, fileName)
	return nil
}

func (d *VirtualDiskManagerImpl) GetFirstPage(f *File) (types.PageID, error) {
	if f.nextPageID == 0 {
		return types.InvalidPageID, ErrEmptyFile
	}
	return types.PageID(0), nil
}

func (d *VirtualDiskManagerImpl) ReadPage(f *File, pageID types.PageID, data []byte) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	offset := int64(pageID) * common.PageSize
	if offset >= f.size {
		// another handle may have extended the file; re-check before failing
		if mf, ok := f.rw.(*memfile.File); ok {
			f.size = int64(len(mf.Bytes()))
		}
		if offset >= f.size {
			return ErrPastEndOfFile
		}
	}

	bytesRead, err := f.rw.ReadAt(data, offset)
	if err != nil && err != io.EOF {
		return err
	}
	for i := bytesRead; i < common.PageSize; i++ {
		data[i] = 0
	}
	return nil
}

func (d *VirtualDiskManagerImpl) WritePage(f *File, pageID types.PageID, data []byte) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	offset := int64(pageID) * common.PageSize
	bytesWritten, err := f.rw.WriteAt(data, offset)
	if err != nil {
		return err
	}
	if offset+int64(bytesWritten) > f.size {
		f.size = offset + int64(bytesWritten)
	}
	return nil
}

func (d *VirtualDiskManagerImpl) AllocatePage(f *File) types.PageID {
	ret := f.nextPageID
	f.nextPageID++
	return ret
}

func (d *VirtualDiskManagerImpl) Size(f *File) int64 {
	return f.size
}

// ShutDown drops every file.
func (d *VirtualDiskManagerImpl) ShutDown() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.openFiles.Clear()
	d.fileTable = make(map[string]*memfile.File)
}
