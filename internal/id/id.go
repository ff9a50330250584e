package id

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

// Short returns a 16-character random hex ID. Transaction IDs inside
// cassette files use this form.
func Short() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

// crockford is the ULID alphabet: base32 without I, L, O and U.
const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

var (
	ulidMu    sync.Mutex
	lastMilli int64
	burst     uint16
)

// ULID returns a 26-character lexicographically sortable identifier:
// 10 characters of millisecond timestamp followed by 16 characters of
// randomness. Default cassette file names embed one so recordings sort
// by creation time.
func ULID() string {
	ulidMu.Lock()
	defer ulidMu.Unlock()

	now := time.Now().UnixMilli()
	if now != lastMilli {
		lastMilli = now
		burst = 0
	} else {
		burst++
		if burst == 0 {
			// Counter wrapped within one millisecond; wait it out.
			for now == lastMilli {
				time.Sleep(time.Millisecond)
				now = time.Now().UnixMilli()
			}
			lastMilli = now
		}
	}

	return encode(now, burst)
}

// encode builds the ULID string for a timestamp and a same-millisecond
// burst counter. The counter is folded into the random section so two
// calls in the same millisecond cannot collide.
func encode(ms int64, counter uint16) string {
	var out [26]byte

	for i := 9; i >= 0; i-- {
		out[i] = crockford[ms&0x1f]
		ms >>= 5
	}

	var random [10]byte
	_, _ = rand.Read(random[:])
	random[0] ^= byte(counter >> 8)
	random[1] ^= byte(counter)

	// 80 bits of randomness map onto exactly 16 base32 characters.
	acc, bits, pos := uint(0), 0, 10
	for _, b := range random {
		acc = acc<<8 | uint(b)
		bits += 8
		for bits >= 5 {
			bits -= 5
			out[pos] = crockford[(acc>>bits)&0x1f]
			pos++
		}
	}

	return string(out[:])
}
