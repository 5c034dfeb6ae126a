package daily

// javaRand is the 48-bit linear congruential generator behind java.util.Random.
// Matching it bit for bit keeps daily selections identical to existing clients.
type javaRand struct {
	seed int64
}

const (
	lcgMultiplier = 0x5DEECE66D
	lcgAddend     = 0xB
	lcgMask       = (1 << 48) - 1
)

func newJavaRand(seed int64) *javaRand {
	return &javaRand{seed: (seed ^ lcgMultiplier) & lcgMask}
}

func (r *javaRand) next(bits uint) int32 {
	r.seed = (r.seed*lcgMultiplier + lcgAddend) & lcgMask
	return int32(r.seed >> (48 - bits))
}

// Int32 returns the next uniformly distributed int32.
func (r *javaRand) Int32() int32 {
	return r.next(32)
}

// Intn returns a value in [0, bound). bound must be positive.
func (r *javaRand) Intn(bound int32) int32 {
	if bound <= 0 {
		panic("daily: bound must be positive")
	}
	v := r.next(31)
	m := bound - 1
	if bound&m == 0 {
		return int32((int64(bound) * int64(v)) >> 31)
	}
	// Reject values from the final partial range; the sum wraps negative there.
	for u := v; ; u = r.next(31) {
		v = u % bound
		if u-v+m >= 0 {
			return v
		}
	}
}

// shuffle permutes s in place the same way Collections.shuffle does.
func shuffle[T any](s []T, r *javaRand) {
	for i := len(s); i > 1; i-- {
		j := r.Intn(int32(i))
		s[i-1], s[j] = s[j], s[i-1]
	}
}
