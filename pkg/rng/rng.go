// Package rng provides explicit, seedable random streams. Every component
// that draws random numbers takes a stream from this package as an argument;
// nothing reads the process-wide generator.
package rng

import (
	"io"
	"math/rand/v2"
)

// New returns a stream fully determined by seed.
func New(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, splitmix(seed)))
}

// Derive returns the i-th child stream of seed. Child streams of the same
// seed are independent of each other and of New(seed), and depend only on
// (seed, i), so parallel units can each own one.
func Derive(seed uint64, i int) *rand.Rand {
	child := splitmix(seed ^ splitmix(uint64(i)+1))
	return rand.New(rand.NewPCG(child, splitmix(child)))
}

// splitmix is the SplitMix64 finalizer.
func splitmix(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

type reader struct {
	r *rand.Rand
}

// Reader exposes a stream as an io.Reader for libraries that consume bytes.
// Reads never fail.
func Reader(r *rand.Rand) io.Reader {
	return reader{r: r}
}

func (rd reader) Read(p []byte) (int, error) {
	for i := 0; i < len(p); i += 8 {
		v := rd.r.Uint64()
		for j := 0; j < 8 && i+j < len(p); j++ {
			p[i+j] = byte(v >> (8 * j))
		}
	}
	return len(p), nil
}
