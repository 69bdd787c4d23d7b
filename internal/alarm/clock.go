package alarm

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/google/uuid"
)

// Clock abstracts time retrieval so business logic is deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// IDGenerator abstracts alarm ID generation so tests are deterministic.
type IDGenerator interface {
	New() int64
}

// RandomIDGenerator produces positive 63-bit IDs from random UUIDs.
type RandomIDGenerator struct{}

func (RandomIDGenerator) New() int64 {
	for {
		u := uuid.New()
		id := int64(binary.BigEndian.Uint64(u[:8]) & math.MaxInt64)
		if id != 0 {
			return id
		}
	}
}
