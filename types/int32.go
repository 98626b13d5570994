package types

import (
	"bytes"
	"encoding/binary"
)

type Int32 int32

// Serialize casts it to []byte
func (i Int32) Serialize() []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, i)
	return buf.Bytes()
}

// NewInt32FromBytes creates an Int32 from []byte
func NewInt32FromBytes(data []byte) (ret Int32) {
	binary.Read(bytes.NewBuffer(data), binary.LittleEndian, &ret)
	return ret
}
