// Package relay composes the privacy components into the two flows a caller
// needs around an external analysis service:
//
//   - Analysis: anonymize a DataPackage, send it out, then map the answer
//     back to real names with the returned IdentityMap.
//   - Contract extraction: cut a contract down to its most relevant chunks
//     and scrub PII and known names before it leaves.
//
// The Service adds request-scoped logging and metrics. It holds no per-call
// state, so one Service may be shared by concurrent callers.
package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"ai-privacy-relay/internal/anonymizer"
	"ai-privacy-relay/internal/config"
	"ai-privacy-relay/internal/contract"
	"ai-privacy-relay/internal/logger"
	"ai-privacy-relay/internal/metrics"
	"ai-privacy-relay/internal/scrub"
)

// Sentinel errors returned (wrapped) by the service.
var (
	ErrNilPackage     = errors.New("nil data package")
	ErrInvalidPackage = errors.New("invalid data package")
)

// Analysis is everything the caller needs for one outgoing analysis request.
// Identities must stay on the caller's side.
type Analysis struct {
	RequestID   string                  `json:"requestId"`
	Package     *anonymizer.DataPackage `json:"package"`
	Identities  *anonymizer.IdentityMap `json:"-"`
	Instruction string                  `json:"instruction,omitempty"`
}

// ContractExcerpt is the scrubbed, relevance-filtered contract text.
type ContractExcerpt struct {
	RequestID      string `json:"requestId"`
	Text           string `json:"text"`
	Selected       []int  `json:"selected"` // Chunk.Index of every kept chunk
	TotalChunks    int    `json:"totalChunks"`
	PIIRedactions  int    `json:"piiRedactions"`
	NameRedactions int    `json:"nameRedactions"`
	Summary        string `json:"summary"`
}

// Redactions returns the total number of replaced items.
func (e ContractExcerpt) Redactions() int {
	return e.PIIRedactions + e.NameRedactions
}

// Service runs relay calls with shared logging and metrics.
type Service struct {
	cfg     *config.Config
	log     *logger.Logger
	metrics *metrics.Metrics
	chunker *contract.Chunker
}

// New returns a Service. A nil log writes to stderr at cfg.LogLevel and a
// nil m gets fresh counters.
func New(cfg *config.Config, log *logger.Logger, m *metrics.Metrics) *Service {
	if log == nil {
		log = logger.New("RELAY", cfg.LogLevel)
	}
	if m == nil {
		m = metrics.New()
	}
	return &Service{
		cfg:     cfg,
		log:     log,
		metrics: m,
		chunker: contract.NewChunker(cfg.MinChunkChars),
	}
}

// Metrics exposes the service counters.
func (s *Service) Metrics() *metrics.Metrics { return s.metrics }

type requestIDKey struct{}

// WithRequestID attaches a request id to ctx. Calls made with ctx log and
// report under that id instead of a freshly generated one.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.New().String()
}

// DecodePackage parses raw package JSON, validating it against the schema
// when the configuration asks for it.
func (s *Service) DecodePackage(ctx context.Context, data []byte) (*anonymizer.DataPackage, error) {
	p, err := DecodePackage(data, s.cfg.ValidateInput)
	if err != nil {
		s.metrics.ErrorsInput.Add(1)
		s.log.WithRequest(requestID(ctx)).Warnf("decode", "rejected package: %v", err)
		return nil, err
	}
	return p, nil
}

// PrepareAnalysis anonymizes p for external analysis. p is never modified.
func (s *Service) PrepareAnalysis(ctx context.Context, p *anonymizer.DataPackage) (*Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id := requestID(ctx)
	log := s.log.WithRequest(id)
	if p == nil {
		s.metrics.ErrorsInput.Add(1)
		log.Warn("anonymize", "no data package supplied")
		return nil, fmt.Errorf("prepare analysis: %w", ErrNilPackage)
	}

	start := time.Now()
	out, ids := anonymizer.Anonymize(p)
	elapsed := time.Since(start)

	s.metrics.PackagesAnonymized.Add(1)
	s.metrics.PseudonymsAllocated.Add(int64(ids.Len()))
	s.metrics.RecordAnonLatency(elapsed)
	log.Infof("anonymize", "%d employees, %d projects pseudonymised in %s",
		len(ids.Employees), len(ids.Projects), elapsed.Round(time.Microsecond))

	return &Analysis{
		RequestID:   id,
		Package:     out,
		Identities:  ids,
		Instruction: ids.Instruction(),
	}, nil
}

// InterpretAnalysis restores real names in the service's answer.
func (s *Service) InterpretAnalysis(ctx context.Context, text string, ids *anonymizer.IdentityMap) string {
	out, n := anonymizer.NewDeanonymizer(ids).TextCount(text)
	s.metrics.DeanonymizeCalls.Add(1)
	s.metrics.PseudonymsRestored.Add(int64(n))
	s.log.WithRequest(requestID(ctx)).Infof("deanonymize", "%d pseudonyms restored", n)
	return out
}

// InterpretRecords restores real names in structured results.
// records is not modified.
func (s *Service) InterpretRecords(ctx context.Context, records []anonymizer.Record, ids *anonymizer.IdentityMap) []anonymizer.Record {
	out := anonymizer.Deanonymize(records, ids)
	s.metrics.DeanonymizeCalls.Add(1)
	s.log.WithRequest(requestID(ctx)).Debugf("deanonymize", "%d records restored", len(records))
	return out
}

// InterpretStream wraps a streamed answer so pseudonyms are restored as it is
// read, including labels split across reads.
func (s *Service) InterpretStream(ctx context.Context, src io.Reader, ids *anonymizer.IdentityMap) io.Reader {
	s.metrics.DeanonymizeCalls.Add(1)
	s.log.WithRequest(requestID(ctx)).Debugf("deanonymize", "streaming with %d identities", ids.Len())
	return anonymizer.NewDeanonymizer(ids).Reader(src)
}

// PrepareContract selects the most relevant chunks of a contract and scrubs
// PII and known names from them. PII is scrubbed first so structured values
// are tagged before any name fragment inside them could be.
func (s *Service) PrepareContract(ctx context.Context, text string, names scrub.KnownNames) ContractExcerpt {
	id := requestID(ctx)
	start := time.Now()

	chunks := s.chunker.Split(text)
	kept := contract.Select(chunks, s.cfg.MaxChunks)
	selected := make([]int, len(kept))
	for i, c := range kept {
		selected[i] = c.Index
	}

	pii := scrub.NewPIIScrubber()
	scrubbed, piiCount := pii.Scrub(contract.Join(kept))
	scrubbed, nameCount := scrub.ScrubKnownNames(scrubbed, names)

	excerpt := ContractExcerpt{
		RequestID:      id,
		Text:           scrubbed,
		Selected:       selected,
		TotalChunks:    len(chunks),
		PIIRedactions:  piiCount,
		NameRedactions: nameCount,
	}
	excerpt.Summary = redactionSummary(excerpt.Redactions())

	s.metrics.ContractsPrepared.Add(1)
	s.metrics.ChunksKept.Add(int64(len(kept)))
	s.metrics.ChunksDropped.Add(int64(len(chunks) - len(kept)))
	s.metrics.NameRedactions.Add(int64(nameCount))
	for c, n := range pii.Counts() {
		s.metrics.RecordPIIRedactions(string(c), n)
	}
	s.metrics.RecordContractLatency(time.Since(start))

	s.log.WithRequest(id).Infof("contract", "kept %d of %d chunks, %s",
		len(kept), len(chunks), excerpt.Summary)
	return excerpt
}

func redactionSummary(n int) string {
	if n == 1 {
		return "1 item redacted"
	}
	return fmt.Sprintf("%d items redacted", n)
}
