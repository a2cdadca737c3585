package encounter

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Roller is the randomness source for combat and taunts.
// Implementations must be safe for concurrent use; one engine serves
// every visitor.
type Roller interface {
	// Intn returns a value in [0, n). n > 0.
	Intn(n int) int
}

type pcgRoller struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRoller returns a seeded PCG roller. Seed 0 picks a time-based seed.
func NewRoller(seed int64) Roller {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	s := uint64(seed)
	return &pcgRoller{r: rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))}
}

func (p *pcgRoller) Intn(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.r.IntN(n)
}

// rollDie returns a uniform value in [1, sides].
func rollDie(r Roller, sides int) int {
	return r.Intn(sides) + 1
}
