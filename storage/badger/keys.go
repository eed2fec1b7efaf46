package badger

import (
	"encoding/binary"
	"fmt"
)

// Key layout: one keyspace per token so insertion-order scans and counts
// are prefix iterations.
const recordPrefix = "rec"

// makeRecordKey generates a key for a record by (token, seq).
// Seq is encoded BigEndian so lexicographic key order matches insertion order.
func makeRecordKey(token string, seq int) []byte {
	prefix := []byte(fmt.Sprintf("%s:%s:", recordPrefix, token))
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(seq))
	return buf
}

// makeTokenPrefix generates the scan prefix covering all records of a token.
func makeTokenPrefix(token string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", recordPrefix, token))
}
