package history

import "bytes"

// Snapshot is an immutable serialized capture of the entire scene.
//
// The bytes are produced and consumed by the canvas engine; the history
// manager only compares them. Two snapshots are equal when their bytes are.
type Snapshot struct {
	data []byte
}

// NewSnapshot creates a snapshot from serialized scene data.
// The data is copied so later mutation by the caller cannot change it.
func NewSnapshot(data []byte) Snapshot {
	if len(data) == 0 {
		return Snapshot{}
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return Snapshot{data: cp}
}

// Bytes returns a copy of the serialized data.
func (s Snapshot) Bytes() []byte {
	if len(s.data) == 0 {
		return nil
	}
	cp := make([]byte, len(s.data))
	copy(cp, s.data)
	return cp
}

// Equal reports whether two snapshots are byte-for-byte identical.
func (s Snapshot) Equal(other Snapshot) bool {
	return bytes.Equal(s.data, other.data)
}

// IsZero reports whether the snapshot holds no data.
func (s Snapshot) IsZero() bool {
	return len(s.data) == 0
}

// Size returns the size of the serialized data in bytes.
func (s Snapshot) Size() int {
	return len(s.data)
}

// String returns the serialized data as a string.
func (s Snapshot) String() string {
	return string(s.data)
}
