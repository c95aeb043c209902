package queue

import (
	"encoding/binary"
	"fmt"
)

// jobFrameSize is the fixed wire size of one delivery job: a signed 32-bit
// email id in network byte order.
const jobFrameSize = 4

// EncodeJobID serializes an email id into a 4-byte big-endian frame.
func EncodeJobID(id int32) []byte {
	buf := make([]byte, jobFrameSize)
	binary.BigEndian.PutUint32(buf, uint32(id))
	return buf
}

// DecodeJobID parses a queue frame back into an email id. Frames of any
// other length are malformed and rejected; the receive loop logs and
// continues rather than crashing on them.
func DecodeJobID(frame []byte) (int32, error) {
	if len(frame) != jobFrameSize {
		return 0, fmt.Errorf("malformed job frame: want %d bytes, got %d", jobFrameSize, len(frame))
	}
	return int32(binary.BigEndian.Uint32(frame)), nil
}
