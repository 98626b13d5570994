package disk

import (
	"os"
)

// DiskManagerTest is the disk implementation of DiskManager for testing purposes.
// Files live in a private temporary directory that ShutDown removes.
type DiskManagerTest struct {
	dir string
	DiskManager
}

// NewDiskManagerTest returns a DiskManager instance for testing purposes
func NewDiskManagerTest() DiskManager {
	dir, err := os.MkdirTemp("", "heapstore")
	if err != nil {
		panic(err)
	}

	diskManager := NewDiskManagerImpl(dir)
	return &DiskManagerTest{dir, diskManager}
}

// ShutDown closes open files and removes the temporary directory
func (d *DiskManagerTest) ShutDown() {
	defer os.RemoveAll(d.dir)
	d.DiskManager.ShutDown()
}
