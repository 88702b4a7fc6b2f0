package schedule

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// Rand is the random source used for durations.
type Rand interface {
	Intn(n int) int
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

// NewRand returns a Rand safe for concurrent use.
func NewRand(seed int64) Rand {
	return &lockedRand{r: rand.New(rand.NewSource(seed))}
}

// Jitter turns a base duration into (base + j) * 1000 + m for j uniform in
// {-1, 0, 1} and m uniform in [0, 1000).
func Jitter(base int, r Rand) int {
	j := r.Intn(3) - 1
	return (base+j)*1000 + r.Intn(1000)
}

// PurchaseDurations selects how purchase event durations are produced.
type PurchaseDurations string

const (
	// DurationJitter applies Jitter to the stored per-account value.
	DurationJitter PurchaseDurations = "jitter"
	// DurationStored uses the stored per-account value as is.
	DurationStored PurchaseDurations = "stored"
)

// ParsePurchaseDurations validates a configured mode. Empty means jitter.
func ParsePurchaseDurations(s string) (PurchaseDurations, error) {
	switch PurchaseDurations(s) {
	case "", DurationJitter:
		return DurationJitter, nil
	case DurationStored:
		return DurationStored, nil
	}
	return "", fmt.Errorf("unknown purchase duration mode %q (want jitter or stored)", s)
}

func defaultRand() Rand {
	return NewRand(time.Now().UnixNano())
}
