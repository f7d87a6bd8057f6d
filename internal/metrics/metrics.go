// Package metrics provides lightweight, lock-minimal counters for the relay.
//
// Counters use sync/atomic so every relay call can update them without mutex
// contention. Latency statistics use a single mutex per dimension; they are
// updated at most once per call.
//
// Only counts are recorded. No identity or PII value ever reaches this package.
package metrics

import (
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// knownPIICategories lists all category names the PII scrubber can produce.
// Used to pre-populate the per-category map in New() so Snapshot() can
// iterate a fixed set without racing on map writes.
var knownPIICategories = []string{
	"NATIONAL_ID", "BANK_ACCOUNT", "COMPANY_REG", "EMAIL", "POSTAL_ADDRESS",
}

// Metrics holds all runtime counters for one relay instance.
// The zero value is NOT valid for the per-category counters; use New().
type Metrics struct {
	// Analysis path
	PackagesAnonymized  atomic.Int64
	PseudonymsAllocated atomic.Int64
	DeanonymizeCalls    atomic.Int64
	PseudonymsRestored  atomic.Int64

	// Contract path
	ContractsPrepared atomic.Int64
	ChunksKept        atomic.Int64
	ChunksDropped     atomic.Int64
	NameRedactions    atomic.Int64

	// Rejected input (nil or schema-invalid packages)
	ErrorsInput atomic.Int64

	// Written only in New(); concurrent reads are safe without a lock.
	piiRedactions map[string]*atomic.Int64

	anonMu   sync.Mutex
	anonStat latencyStats

	contractMu   sync.Mutex
	contractStat latencyStats

	startTime time.Time
}

// New returns a new Metrics with the start time recorded and the
// per-category PII counters pre-populated.
func New() *Metrics {
	m := &Metrics{
		startTime:     time.Now(),
		piiRedactions: make(map[string]*atomic.Int64, len(knownPIICategories)),
	}
	for _, c := range knownPIICategories {
		m.piiRedactions[c] = new(atomic.Int64)
	}
	return m
}

// RecordPIIRedactions adds n redactions for the given category.
// Unknown categories are silently ignored.
func (m *Metrics) RecordPIIRedactions(category string, n int) {
	if c, ok := m.piiRedactions[category]; ok {
		c.Add(int64(n))
	}
}

// RecordAnonLatency records the duration of one package anonymization.
func (m *Metrics) RecordAnonLatency(d time.Duration) {
	m.anonMu.Lock()
	m.anonStat.record(float64(d.Microseconds()) / 1000.0)
	m.anonMu.Unlock()
}

// RecordContractLatency records the duration of one contract preparation.
func (m *Metrics) RecordContractLatency(d time.Duration) {
	m.contractMu.Lock()
	m.contractStat.record(float64(d.Microseconds()) / 1000.0)
	m.contractMu.Unlock()
}

// Snapshot returns a point-in-time copy of all metrics, safe for JSON encoding.
func (m *Metrics) Snapshot() Snapshot {
	m.anonMu.Lock()
	anon := m.anonStat.snapshot()
	m.anonMu.Unlock()

	m.contractMu.Lock()
	contract := m.contractStat.snapshot()
	m.contractMu.Unlock()

	pii := make(map[string]int64, len(m.piiRedactions))
	for c, n := range m.piiRedactions {
		if v := n.Load(); v > 0 {
			pii[c] = v
		}
	}

	return Snapshot{
		Analysis: AnalysisSnapshot{
			PackagesAnonymized:  m.PackagesAnonymized.Load(),
			PseudonymsAllocated: m.PseudonymsAllocated.Load(),
			DeanonymizeCalls:    m.DeanonymizeCalls.Load(),
			PseudonymsRestored:  m.PseudonymsRestored.Load(),
		},
		Contracts: ContractSnapshot{
			Prepared:       m.ContractsPrepared.Load(),
			ChunksKept:     m.ChunksKept.Load(),
			ChunksDropped:  m.ChunksDropped.Load(),
			NameRedactions: m.NameRedactions.Load(),
			PIIRedactions:  pii,
		},
		Errors: ErrorSnapshot{
			Input: m.ErrorsInput.Load(),
		},
		Latency: LatencyGroup{
			AnonymizationMs: anon,
			ContractMs:      contract,
		},
		UptimeSecs: time.Since(m.startTime).Seconds(),
	}
}

// --- JSON-serialisable snapshot types ---

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Analysis   AnalysisSnapshot `json:"analysis"`
	Contracts  ContractSnapshot `json:"contracts"`
	Errors     ErrorSnapshot    `json:"errors"`
	Latency    LatencyGroup     `json:"latency"`
	UptimeSecs float64          `json:"uptimeSecs"`
}

// AnalysisSnapshot holds anonymize/deanonymize counters.
type AnalysisSnapshot struct {
	PackagesAnonymized  int64 `json:"packagesAnonymized"`
	PseudonymsAllocated int64 `json:"pseudonymsAllocated"`
	DeanonymizeCalls    int64 `json:"deanonymizeCalls"`
	PseudonymsRestored  int64 `json:"pseudonymsRestored"`
}

// ContractSnapshot holds contract excerpt counters.
type ContractSnapshot struct {
	Prepared       int64 `json:"prepared"`
	ChunksKept     int64 `json:"chunksKept"`
	ChunksDropped  int64 `json:"chunksDropped"`
	NameRedactions int64 `json:"nameRedactions"`

	// Per-category PII redactions (only categories with non-zero counts appear).
	PIIRedactions map[string]int64 `json:"piiRedactions,omitempty"`
}

// ErrorSnapshot holds error counters.
type ErrorSnapshot struct {
	Input int64 `json:"input"`
}

// LatencyGroup groups the two latency dimensions.
type LatencyGroup struct {
	AnonymizationMs LatencySnapshot `json:"anonymizationMs"`
	ContractMs      LatencySnapshot `json:"contractMs"`
}

// LatencySnapshot is a min/mean/max summary for one latency dimension.
type LatencySnapshot struct {
	Count  int64   `json:"count"`
	MinMs  float64 `json:"minMs"`
	MeanMs float64 `json:"meanMs"`
	MaxMs  float64 `json:"maxMs"`
}

// --- internal accumulator ---

type latencyStats struct {
	count int64
	sum   float64
	min   float64
	max   float64
}

func (s *latencyStats) record(ms float64) {
	s.count++
	s.sum += ms
	if s.count == 1 || ms < s.min {
		s.min = ms
	}
	if ms > s.max {
		s.max = ms
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func (s *latencyStats) snapshot() LatencySnapshot {
	if s.count == 0 {
		return LatencySnapshot{}
	}
	return LatencySnapshot{
		Count:  s.count,
		MinMs:  round2(s.min),
		MeanMs: round2(s.sum / float64(s.count)),
		MaxMs:  round2(s.max),
	}
}
