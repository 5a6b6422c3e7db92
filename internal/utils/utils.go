package utils

import (
	"fmt"
	"hash/crc32"

	"github.com/google/uuid"
)

var crcTable = crc32.MakeTable(crc32.IEEE)

// CalculateHash generates a quoted CRC32 hash of the data, usable as a Version header
func CalculateHash(data []byte) string {
	return fmt.Sprintf("\"%08x\"", crc32.Checksum(data, crcTable))
}

// NewConnectionID generates an ID for a sync connection
func NewConnectionID() string {
	return uuid.NewString()
}
