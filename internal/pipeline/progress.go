package pipeline

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Progress is the cosmetic progress indicator shown while a stage request
// is in flight. It ticks upward in random increments toward a ceiling below
// 100 and carries no correctness meaning whatsoever; the only honest value
// it ever reports is the forced 100 on completion.
type Progress struct {
	mu      sync.Mutex
	value   int
	ceiling int
	tick    time.Duration
	onTick  func(percent int)
	done    chan struct{}
	running bool
}

// NewProgress builds an indicator reporting through onTick.
func NewProgress(onTick func(percent int)) *Progress {
	return &Progress{
		ceiling: 90,
		tick:    200 * time.Millisecond,
		onTick:  onTick,
	}
}

// Start begins ticking. No-op when already running.
func (p *Progress) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}
	p.value = 0
	p.done = make(chan struct{})
	p.running = true
	go p.loop(p.done)
}

func (p *Progress) loop(done chan struct{}) {
	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.advance()
		case <-done:
			return
		}
	}
}

// advance bumps the value by a random increment, never reaching the ceiling.
func (p *Progress) advance() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	next := p.value + 1 + rand.IntN(10)
	if next > p.ceiling {
		next = p.ceiling
	}
	p.value = next
	if p.onTick != nil {
		p.onTick(next)
	}
}

// Finish stops ticking, forces the value to 100, and clears the indicator.
// Safe to call when not running.
func (p *Progress) Finish() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.done)
	p.value = 0
	onTick := p.onTick
	p.mu.Unlock()

	if onTick != nil {
		onTick(100)
	}
}

// Value returns the current cosmetic percentage.
func (p *Progress) Value() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value
}
