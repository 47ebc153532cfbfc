package sound

import (
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"soundpool/internal/fifo"
)

// DefaultBatchSize is how many sources the pool creates at once.
const DefaultBatchSize = 10

// PoolStats is a snapshot of pool activity.
type PoolStats struct {
	BatchSize     int
	IdleCount     int
	ActiveCount   int
	TotalAcquired int64
	TotalReleased int64
	Growths       int64
	PeakActive    int
}

// sourcePool hands out playback sources and reclaims them. The idle side is
// a FIFO so sources rotate evenly; the active side is keyed by source ID.
// A source is in exactly one of the two at any time. The pool grows in
// whole batches when exhausted and never shrinks.
//
// The pool is not synchronized; the manager serializes all access under
// its own mutex so acquire/release transitions stay atomic.
type sourcePool struct {
	batchSize int

	idle   *fifo.FIFO[*Source]
	active map[uuid.UUID]*Source

	totalAcquired int64
	totalReleased int64
	growths       int64
	peakActive    int
	closed        bool
}

// newSourcePool creates a pool pre-populated with one batch.
func newSourcePool(batchSize int) *sourcePool {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	p := &sourcePool{
		batchSize: batchSize,
		idle:      fifo.New[*Source](batchSize),
		active:    make(map[uuid.UUID]*Source),
	}
	p.grow()
	return p
}

// grow creates one batch of sources and queues them as idle.
func (p *sourcePool) grow() {
	for i := 0; i < p.batchSize; i++ {
		if err := p.idle.Enqueue(newSource()); err != nil {
			log.Error("Failed to grow source pool", "error", err)
			return
		}
	}
	p.growths++
	log.Debug("Source pool grew", "batch", p.batchSize, "idle", p.idle.Len(), "active", len(p.active))
}

// acquire removes an idle source and marks it active, growing the pool by
// one batch first if no idle source remains. Never blocks.
func (p *sourcePool) acquire() (*Source, error) {
	if p.closed {
		return nil, ErrPoolClosed
	}

	if p.idle.Len() == 0 {
		p.grow()
	}

	s, err := p.idle.Dequeue()
	if err != nil {
		return nil, err
	}

	s.state.Store(int32(SourceActive))
	p.active[s.id] = s
	p.totalAcquired++
	if len(p.active) > p.peakActive {
		p.peakActive = len(p.active)
	}
	return s, nil
}

// release stops a source and returns it to the idle queue. Releasing a
// source that is not active is a no-op signalled with ErrNotActive, which
// protects against double returns.
func (p *sourcePool) release(s *Source) error {
	if p.closed {
		return ErrPoolClosed
	}

	if _, ok := p.active[s.id]; !ok {
		return ErrNotActive
	}
	delete(p.active, s.id)

	s.stopPlayback()
	s.state.Store(int32(SourceIdle))

	if err := p.idle.Enqueue(s); err != nil {
		return err
	}
	p.totalReleased++
	return nil
}

// activeSources returns a snapshot of the currently active sources.
func (p *sourcePool) activeSources() []*Source {
	out := make([]*Source, 0, len(p.active))
	for _, s := range p.active {
		out = append(out, s)
	}
	return out
}

// stats returns a snapshot of pool counters.
func (p *sourcePool) stats() PoolStats {
	return PoolStats{
		BatchSize:     p.batchSize,
		IdleCount:     p.idle.Len(),
		ActiveCount:   len(p.active),
		TotalAcquired: p.totalAcquired,
		TotalReleased: p.totalReleased,
		Growths:       p.growths,
		PeakActive:    p.peakActive,
	}
}

// close stops every active source and shuts the pool down.
func (p *sourcePool) close() {
	if p.closed {
		return
	}
	p.closed = true

	for id, s := range p.active {
		s.stopPlayback()
		s.state.Store(int32(SourceIdle))
		delete(p.active, id)
	}
	_ = p.idle.Close()
}
