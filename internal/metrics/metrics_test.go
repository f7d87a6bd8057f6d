package metrics

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_StartTimeSet(t *testing.T) {
	before := time.Now()
	m := New()
	after := time.Now()

	assert.False(t, m.startTime.Before(before), "startTime %v before %v", m.startTime, before)
	assert.False(t, m.startTime.After(after), "startTime %v after %v", m.startTime, after)
}

func TestZeroValue_SnapshotSafe(t *testing.T) {
	var m Metrics
	m.RecordPIIRedactions("EMAIL", 3)
	s := m.Snapshot()
	assert.Zero(t, s.Analysis.PackagesAnonymized)
	assert.Empty(t, s.Contracts.PIIRedactions, "zero value should not count PII")
}

func TestAnalysisCounters(t *testing.T) {
	m := New()
	m.PackagesAnonymized.Add(4)
	m.PseudonymsAllocated.Add(20)
	m.DeanonymizeCalls.Add(3)
	m.PseudonymsRestored.Add(11)

	s := m.Snapshot()
	assert.EqualValues(t, 4, s.Analysis.PackagesAnonymized)
	assert.EqualValues(t, 20, s.Analysis.PseudonymsAllocated)
	assert.EqualValues(t, 3, s.Analysis.DeanonymizeCalls)
	assert.EqualValues(t, 11, s.Analysis.PseudonymsRestored)
}

func TestContractCounters(t *testing.T) {
	m := New()
	m.ContractsPrepared.Add(2)
	m.ChunksKept.Add(30)
	m.ChunksDropped.Add(12)
	m.NameRedactions.Add(9)
	m.RecordPIIRedactions("EMAIL", 2)
	m.RecordPIIRedactions("EMAIL", 1)
	m.RecordPIIRedactions("NATIONAL_ID", 1)
	m.RecordPIIRedactions("PHONE", 5) // unknown category

	s := m.Snapshot()
	assert.EqualValues(t, 2, s.Contracts.Prepared)
	assert.EqualValues(t, 30, s.Contracts.ChunksKept)
	assert.EqualValues(t, 12, s.Contracts.ChunksDropped)
	assert.EqualValues(t, 9, s.Contracts.NameRedactions)
	assert.EqualValues(t, 3, s.Contracts.PIIRedactions["EMAIL"])
	assert.EqualValues(t, 1, s.Contracts.PIIRedactions["NATIONAL_ID"])
	assert.NotContains(t, s.Contracts.PIIRedactions, "PHONE", "unknown category should be ignored")
	assert.NotContains(t, s.Contracts.PIIRedactions, "BANK_ACCOUNT", "zero categories should be omitted")
}

func TestRecordAnonLatency_SingleSample(t *testing.T) {
	m := New()
	m.RecordAnonLatency(100 * time.Millisecond)

	s := m.Snapshot().Latency.AnonymizationMs
	assert.EqualValues(t, 1, s.Count)
	assert.EqualValues(t, 100, s.MinMs)
	assert.EqualValues(t, 100, s.MeanMs)
	assert.EqualValues(t, 100, s.MaxMs)
}

func TestRecordContractLatency_MultipleSamples(t *testing.T) {
	m := New()
	m.RecordContractLatency(10 * time.Millisecond)
	m.RecordContractLatency(30 * time.Millisecond)
	m.RecordContractLatency(20 * time.Millisecond)

	s := m.Snapshot().Latency.ContractMs
	assert.EqualValues(t, 3, s.Count)
	assert.EqualValues(t, 10, s.MinMs)
	assert.EqualValues(t, 20, s.MeanMs)
	assert.EqualValues(t, 30, s.MaxMs)
}

func TestEmptyLatency_ZeroSnapshot(t *testing.T) {
	s := New().Snapshot()
	assert.Equal(t, LatencySnapshot{}, s.Latency.AnonymizationMs)
}

func TestConcurrentUpdates(t *testing.T) {
	m := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.PackagesAnonymized.Add(1)
			m.RecordPIIRedactions("EMAIL", 1)
			m.RecordAnonLatency(time.Millisecond)
		}()
	}
	wg.Wait()

	s := m.Snapshot()
	assert.EqualValues(t, 50, s.Analysis.PackagesAnonymized)
	assert.EqualValues(t, 50, s.Contracts.PIIRedactions["EMAIL"])
	assert.EqualValues(t, 50, s.Latency.AnonymizationMs.Count)
}

func TestSnapshot_JSONSerialisable(t *testing.T) {
	m := New()
	m.ContractsPrepared.Add(1)
	data, err := json.Marshal(m.Snapshot())
	require.NoError(t, err)

	var back map[string]any
	require.NoError(t, json.Unmarshal(data, &back))
	for _, key := range []string{"analysis", "contracts", "errors", "latency", "uptimeSecs"} {
		assert.Contains(t, back, key, "missing key in %s", data)
	}
}
