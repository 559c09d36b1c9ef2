package selfplay

import (
	"sync/atomic"
	"time"
)

// Metrics is a snapshot of a Collector.
type Metrics struct {
	Batches     int
	Steps       int
	Evaluations int // instance evaluations, not forward passes
	Samples     int
	Abandoned   int // instances cut off by MaxTurns
	WinsA       int
	WinsB       int
	Duration    time.Duration
}

type Collector interface {
	Start()
	AddBatch()
	AddStep(evaluated int)
	AddSamples(n int)
	AddOutcome(reward int)
	AddAbandoned(n int)
	Complete() Metrics
}

type collector struct {
	startTime   time.Time
	batches     atomic.Int64
	steps       atomic.Int64
	evaluations atomic.Int64
	samples     atomic.Int64
	abandoned   atomic.Int64
	winsA       atomic.Int64
	winsB       atomic.Int64
}

func NewCollector() Collector {
	return &collector{}
}

func (m *collector) Start() { m.startTime = time.Now() }

func (m *collector) AddBatch() { m.batches.Add(1) }

func (m *collector) AddStep(evaluated int) {
	m.steps.Add(1)
	m.evaluations.Add(int64(evaluated))
}

func (m *collector) AddSamples(n int) { m.samples.Add(int64(n)) }

func (m *collector) AddOutcome(reward int) {
	if reward > 0 {
		m.winsA.Add(1)
	} else {
		m.winsB.Add(1)
	}
}

func (m *collector) AddAbandoned(n int) { m.abandoned.Add(int64(n)) }

func (m *collector) Complete() Metrics {
	return Metrics{
		Batches:     int(m.batches.Load()),
		Steps:       int(m.steps.Load()),
		Evaluations: int(m.evaluations.Load()),
		Samples:     int(m.samples.Load()),
		Abandoned:   int(m.abandoned.Load()),
		WinsA:       int(m.winsA.Load()),
		WinsB:       int(m.winsB.Load()),
		Duration:    time.Since(m.startTime),
	}
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (m *dummyCollector) Start()            {}
func (m *dummyCollector) AddBatch()         {}
func (m *dummyCollector) AddStep(int)       {}
func (m *dummyCollector) AddSamples(int)    {}
func (m *dummyCollector) AddOutcome(int)    {}
func (m *dummyCollector) AddAbandoned(int)  {}
func (m *dummyCollector) Complete() Metrics { return Metrics{} }
