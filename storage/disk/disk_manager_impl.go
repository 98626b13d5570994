package disk

import (
	"io"
	"os"
	"path/filepath"

	mapset "github.com/deckarep/golang-set/v2"

	"heapstore/common"
	"heapstore/types"
)

// DiskManagerImpl is the os.File implementation of DiskManager
type DiskManagerImpl struct {
	baseDir   string
	openFiles mapset.Set[*File]
}

// NewDiskManagerImpl returns a DiskManager backed by files in baseDir.
// An empty baseDir resolves file names against the working directory.
func NewDiskManagerImpl(baseDir string) DiskManager {
	return &DiskManagerImpl{baseDir, mapset.NewSet[*File]()}
}

func (d *DiskManagerImpl) path(fileName string) string {
	if d.baseDir == "" {
		return fileName
	}
	return filepath.Join(d.baseDir, fileName)
}

func (d *DiskManagerImpl) CreateFile(fileName string) error {
	file, err := os.OpenFile(d.path(fileName), os.O_RDWR|os.O_CREATE|os.O_EXCL, 0666)
	if err != nil {
		if os.IsExist(err) {
			return ErrFileExists
		}
		return err
	}
	return file.Close()
}

func (d *DiskManagerImpl) OpenFile(fileName string) (*File, error) {
	file, err := os.OpenFile(d.path(fileName), os.O_RDWR, 0666)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}

	fileInfo, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}

	fileSize := fileInfo.Size()
	nPages := fileSize / common.PageSize

	f := &File{fileName, file, types.PageID(int32(nPages)), fileSize}
	d.openFiles.Add(f)
	return f, nil
}

func (d *DiskManagerImpl) CloseFile(f *File) {
	d.openFiles.Remove(f)
	if closer, ok := f.rw.(io.Closer); ok {
		closer.Close()
	}
}

func (d *DiskManagerImpl) DestroyFile(fileName string) error {
	for _, f := range d.openFiles.ToSlice() {
		if f.name == fileName {
			return ErrFileOpen
		}
	}
	err := os.Remove(d.path(fileName))
	if os.IsNotExist(err) {
		return ErrFileNotFound
	}
	return err
}

func (d *DiskManagerImpl) GetFirstPage(f *File) (types.PageID, error) {
	if f.nextPageID == 0 {
		return types.InvalidPageID, ErrEmptyFile
	}
	return types.PageID(0), nil
}

func (d *DiskManagerImpl) ReadPage(f *File, pageID types.PageID, data []byte) error {
	offset := int64(pageID) * common.PageSize
	if offset >= f.size {
		// another handle may have extended the file; re-stat before failing
		if file, ok := f.rw.(*os.File); ok {
			if fileInfo, err := file.Stat(); err == nil {
				f.size = fileInfo.Size()
			}
		}
		if offset >= f.size {
			return ErrPastEndOfFile
		}
	}

	bytesRead, err := f.rw.ReadAt(data, offset)
	if err != nil && err != io.EOF {
		return err
	}
	// a short read means the tail page was never written; zero-fill it
	for i := bytesRead; i < common.PageSize; i++ {
		data[i] = 0
	}
	return nil
}

func (d *DiskManagerImpl) WritePage(f *File, pageID types.PageID, data []byte) error {
	offset := int64(pageID) * common.PageSize
	bytesWritten, err := f.rw.WriteAt(data, offset)
	if err != nil {
		return err
	}
	if offset+int64(bytesWritten) > f.size {
		f.size = offset + int64(bytesWritten)
	}
	if file, ok := f.rw.(*os.File); ok {
		file.Sync()
	}
	return nil
}

func (d *DiskManagerImpl) AllocatePage(f *File) types.PageID {
	ret := f.nextPageID
	f.nextPageID++
	return ret
}

func (d *DiskManagerImpl) Size(f *File) int64 {
	return f.size
}

// ShutDown closes every file that is still open.
func (d *DiskManagerImpl) ShutDown() {
	for _, f := range d.openFiles.ToSlice() {
		d.CloseFile(f)
	}
}
