package match

import "math/rand"

// DeriveSeed mixes a base seed with stream indices (trial number, tier index,
// season) so that every independent run gets its own well-spread seed.
func DeriveSeed(base int64, stream ...int) int64 {
	x := uint64(base)
	for _, s := range stream {
		x = splitmix(x ^ splitmix(uint64(s)+0x9e3779b97f4a7c15))
	}
	return int64(splitmix(x) >> 1)
}

// NewRand returns a private generator seeded from DeriveSeed.
func NewRand(base int64, stream ...int) *rand.Rand {
	return rand.New(rand.NewSource(DeriveSeed(base, stream...)))
}

func splitmix(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
