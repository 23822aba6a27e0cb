package amlogic

import (
	"errors"
	"fmt"
	"os"

	"github.com/sigurn/crc16"
)

var crcTable = crc16.MakeTable(crc16.CRC16_CCITT_FALSE)

// ImageInfo summarizes a boot image as it will be sent under a chunk policy.
type ImageInfo struct {
	Size     int
	Chunks   int
	Trailing int
	Policy   ChunkPolicy
	CRC      uint16
}

func (i ImageInfo) String() string {
	res := fmt.Sprintf("Size %#x (%d) bytes, %d chunks of %d, CRC %#04x", i.Size, i.Size, i.Chunks, ChunkSize, i.CRC)
	if i.Trailing > 0 {
		res += fmt.Sprintf(", %d trailing bytes (%s)", i.Trailing, i.Policy)
	}
	return res
}

// InspectImage computes the chunk layout and CRC-16/CCITT-FALSE of data.
func InspectImage(data []byte, policy ChunkPolicy) ImageInfo {
	info := ImageInfo{
		Size:     len(data),
		Chunks:   len(data) / ChunkSize,
		Trailing: len(data) % ChunkSize,
		Policy:   policy,
		CRC:      crc16.Checksum(data, crcTable),
	}
	if info.Trailing > 0 && policy == PadPartial {
		info.Chunks++
	}
	return info
}

// ReadImage loads a boot image and refuses one that would put nothing on the wire.
func ReadImage(path string, policy ChunkPolicy) ([]byte, ImageInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ImageInfo{}, fmt.Errorf("error reading boot image: %w", err)
	}
	info := InspectImage(data, policy)
	if info.Chunks == 0 {
		return nil, info, errors.New(fmt.Sprintf("boot image %s has no complete %d byte chunk to send", path, ChunkSize))
	}
	return data, info, nil
}
