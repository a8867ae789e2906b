package testutil

import (
	"math/rand"
	"testing"
	"time"
)

func GenRandomByteArray(r *rand.Rand, length uint64) []byte {
	payload := make([]byte, length)
	r.Read(payload)

	return payload
}

// RandomPayload produces a plausible raw-transaction payload.
func RandomPayload(r *rand.Rand) []byte {
	return GenRandomByteArray(r, uint64(r.Int63n(200)+100))
}

func RandomHeight(r *rand.Rand) uint64 {
	return uint64(r.Int63n(1000) + 1)
}

func AddRandomSeedsToFuzzer(f *testing.F, num uint) {
	// Seed based on the current time
	r := rand.New(rand.NewSource(time.Now().Unix()))
	var idx uint
	for idx = 0; idx < num; idx++ {
		f.Add(r.Int63())
	}
}
