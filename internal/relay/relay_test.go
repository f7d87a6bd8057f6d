package relay

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-privacy-relay/internal/anonymizer"
	"ai-privacy-relay/internal/config"
	"ai-privacy-relay/internal/logger"
	"ai-privacy-relay/internal/metrics"
	"ai-privacy-relay/internal/scrub"
)

func newTestService(t *testing.T, cfg *config.Config) (*Service, *bytes.Buffer) {
	t.Helper()
	if cfg == nil {
		cfg = &config.Config{LogLevel: "debug", MaxChunks: 15, MinChunkChars: 20, ValidateInput: true}
	}
	var buf bytes.Buffer
	return New(cfg, logger.NewWithWriter("RELAY", cfg.LogLevel, &buf), metrics.New()), &buf
}

func teamPackage() *anonymizer.DataPackage {
	return &anonymizer.DataPackage{
		Company: anonymizer.Company{ID: "comp_123", Name: "Acme Corp"},
		Team: []anonymizer.TeamMember{
			{UserID: "u_1", Name: "Jane Smith", WeeklyCapacityHours: 40},
			{UserID: "u_2", Name: "John Doe", WeeklyCapacityHours: 40},
		},
		Projects: []anonymizer.ProjectSummary{
			{ProjectID: "p_1", ProjectName: "Internal Tool", Description: "Jane Smith owns Internal Tool", BudgetHours: 100},
			{ProjectID: "p_2", ProjectName: "ClientX Website", BudgetHours: 80},
		},
	}
}

func TestPrepareAnalysis(t *testing.T) {
	svc, logs := newTestService(t, nil)
	ctx := WithRequestID(context.Background(), "req-42")

	a, err := svc.PrepareAnalysis(ctx, teamPackage())
	require.NoError(t, err)

	assert.Equal(t, "req-42", a.RequestID)
	assert.Equal(t, "The Company", a.Package.Company.Name)
	assert.Empty(t, a.Package.Company.ID)
	assert.Equal(t, "Employee A owns Project Beta", a.Package.Projects[0].Description)
	assert.Equal(t, 5, a.Identities.Len())
	assert.Contains(t, a.Instruction, "PRIVACY LABELS")

	snap := svc.Metrics().Snapshot()
	assert.EqualValues(t, 1, snap.Analysis.PackagesAnonymized)
	assert.EqualValues(t, 5, snap.Analysis.PseudonymsAllocated)
	assert.EqualValues(t, 1, snap.Latency.AnonymizationMs.Count)

	assert.Contains(t, logs.String(), "[req-42]")
	for _, name := range []string{"Jane Smith", "John Doe", "Acme Corp", "Internal Tool"} {
		assert.NotContains(t, logs.String(), name)
	}
}

func TestPrepareAnalysisNilPackage(t *testing.T) {
	svc, _ := newTestService(t, nil)

	a, err := svc.PrepareAnalysis(context.Background(), nil)
	assert.Nil(t, a)
	assert.ErrorIs(t, err, ErrNilPackage)
	assert.EqualValues(t, 1, svc.Metrics().Snapshot().Errors.Input)
}

func TestPrepareAnalysisCancelled(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.PrepareAnalysis(ctx, teamPackage())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, svc.Metrics().Snapshot().Analysis.PackagesAnonymized)
}

func TestGeneratedRequestID(t *testing.T) {
	svc, _ := newTestService(t, nil)

	a, err := svc.PrepareAnalysis(context.Background(), teamPackage())
	require.NoError(t, err)
	_, err = uuid.Parse(a.RequestID)
	assert.NoError(t, err)

	b, err := svc.PrepareAnalysis(context.Background(), teamPackage())
	require.NoError(t, err)
	assert.NotEqual(t, a.RequestID, b.RequestID)
}

func TestInterpretAnalysisRoundTrip(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	a, err := svc.PrepareAnalysis(ctx, teamPackage())
	require.NoError(t, err)

	answer := "Employee A is overloaded on Project Beta; Employee B has room. The Company should rebalance. Employee C is unknown."
	got := svc.InterpretAnalysis(ctx, answer, a.Identities)
	assert.Equal(t,
		"Jane Smith is overloaded on Internal Tool; John Doe has room. Acme Corp should rebalance. Employee C is unknown.",
		got)

	snap := svc.Metrics().Snapshot()
	assert.EqualValues(t, 1, snap.Analysis.DeanonymizeCalls)
	assert.EqualValues(t, 4, snap.Analysis.PseudonymsRestored)
}

func TestInterpretRecords(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	a, err := svc.PrepareAnalysis(ctx, teamPackage())
	require.NoError(t, err)

	records := []anonymizer.Record{
		{"title": "Project Alpha over budget", "severity": 3, "people": []any{"Employee B"}},
	}
	got := svc.InterpretRecords(ctx, records, a.Identities)

	require.Len(t, got, 1)
	assert.Equal(t, "ClientX Website over budget", got[0]["title"])
	assert.Equal(t, 3, got[0]["severity"])
	assert.Equal(t, []any{"John Doe"}, got[0]["people"])
	assert.Equal(t, "Project Alpha over budget", records[0]["title"], "input must not change")
}

const sampleContract = `AGREEMENT

This document sets out the general understanding of both parties.

The consultant Jane Smith will deliver the new booking service.

Both parties wish each other well in this collaboration.

The total budget is 50000 SEK, invoices go to billing@acme.se by the due date.

Page 1`

func TestPrepareContract(t *testing.T) {
	svc, logs := newTestService(t, &config.Config{LogLevel: "info", MaxChunks: 2, MinChunkChars: 20})
	names := scrub.KnownNames{CompanyName: "Acme", EmployeeNames: []string{"Jane Smith"}}

	ex := svc.PrepareContract(WithRequestID(context.Background(), "c-1"), sampleContract, names)

	assert.Equal(t, "c-1", ex.RequestID)
	assert.Equal(t, 4, ex.TotalChunks)
	assert.Equal(t, []int{1, 3}, ex.Selected)
	assert.Equal(t,
		"The consultant [PERSON_1] will deliver the new booking service.\n\n"+
			"The total budget is 50000 SEK, invoices go to [EMAIL_1] by the due date.",
		ex.Text)
	assert.Equal(t, 1, ex.PIIRedactions)
	assert.Equal(t, 1, ex.NameRedactions)
	assert.Equal(t, 2, ex.Redactions())
	assert.Equal(t, "2 items redacted", ex.Summary)

	snap := svc.Metrics().Snapshot()
	assert.EqualValues(t, 1, snap.Contracts.Prepared)
	assert.EqualValues(t, 2, snap.Contracts.ChunksKept)
	assert.EqualValues(t, 2, snap.Contracts.ChunksDropped)
	assert.EqualValues(t, 1, snap.Contracts.NameRedactions)
	assert.Equal(t, map[string]int64{"EMAIL": 1}, snap.Contracts.PIIRedactions)

	assert.Contains(t, logs.String(), "kept 2 of 4 chunks, 2 items redacted")
	assert.NotContains(t, logs.String(), "Jane")
	assert.NotContains(t, logs.String(), "billing@")
}

func TestPrepareContractShortTextKeptWhole(t *testing.T) {
	svc, _ := newTestService(t, nil)

	ex := svc.PrepareContract(context.Background(), sampleContract, scrub.KnownNames{})
	assert.Equal(t, []int{0, 1, 2, 3}, ex.Selected)
	assert.Equal(t, 0, ex.NameRedactions)
	assert.Equal(t, "1 item redacted", ex.Summary)
	assert.True(t, strings.HasPrefix(ex.Text, "This document sets out"))
}

func TestPrepareContractEmpty(t *testing.T) {
	svc, _ := newTestService(t, nil)

	ex := svc.PrepareContract(context.Background(), "", scrub.KnownNames{CompanyName: "Acme"})
	assert.Empty(t, ex.Text)
	assert.Empty(t, ex.Selected)
	assert.Zero(t, ex.TotalChunks)
	assert.Equal(t, "0 items redacted", ex.Summary)
}

func TestValidatePackageJSON(t *testing.T) {
	cases := []struct {
		name  string
		input string
		valid bool
	}{
		{"minimal", `{"company": {"name": "Acme"}}`, true},
		{"full", `{"company": {"id": "c1", "name": "Acme"}, "team": [{"userId": "u1", "name": "Jane", "weeklyCapacityHours": 40}],
			"projects": [{"projectName": "Tool", "loggedHours": 12.5}], "productivity": [{"userName": "Jane", "hours": 7, "billable": true}]}`, true},
		{"empty object", `{}`, true},
		{"missing company", `{"team": []}`, true},
		{"team member without name", `{"team": [{"userId": "u1", "weeklyCapacityHours": 40}]}`, true},
		{"negative hour correction", `{"company": {"name": "Acme"}, "workload": [{"userName": "Jane", "totalHours": -1.5}]}`, true},
		{"company name not string", `{"company": {"name": 5}}`, false},
		{"team not array", `{"company": {"name": "Acme"}, "team": "Jane"}`, false},
		{"hours not number", `{"projects": [{"projectName": "Tool", "loggedHours": "many"}]}`, false},
		{"top level array", `[1, 2]`, false},
		{"malformed", `{"company": `, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := ValidatePackageJSON([]byte(c.input))
			if c.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidPackage)
			}
		})
	}
}

func TestDecodePackage(t *testing.T) {
	p, err := DecodePackage([]byte(`{"company": {"name": "Acme"}, "team": [{"name": "Jane Smith"}]}`), true)
	require.NoError(t, err)
	assert.Equal(t, "Acme", p.Company.Name)
	require.Len(t, p.Team, 1)
	assert.Equal(t, "Jane Smith", p.Team[0].Name)

	// Schema skipped: anything decodable is accepted.
	_, err = DecodePackage([]byte(`{}`), false)
	assert.NoError(t, err)

	_, err = DecodePackage([]byte(`{"company": "Acme"}`), true)
	assert.ErrorIs(t, err, ErrInvalidPackage)

	_, err = DecodePackage([]byte(`[1, 2]`), false)
	assert.ErrorIs(t, err, ErrInvalidPackage)
}

func TestServiceDecodePackageCountsRejections(t *testing.T) {
	svc, logs := newTestService(t, nil)

	_, err := svc.DecodePackage(context.Background(), []byte(`{"team": "x"}`))
	assert.ErrorIs(t, err, ErrInvalidPackage)
	assert.EqualValues(t, 1, svc.Metrics().Snapshot().Errors.Input)
	assert.Contains(t, logs.String(), "rejected package")
}

func TestInterpretStream(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	a, err := svc.PrepareAnalysis(ctx, teamPackage())
	require.NoError(t, err)

	r := svc.InterpretStream(ctx, strings.NewReader("Employee B leads Project Alpha."), a.Identities)
	var out bytes.Buffer
	_, err = out.ReadFrom(r)
	require.NoError(t, err)
	assert.Equal(t, "John Doe leads ClientX Website.", out.String())
	assert.EqualValues(t, 1, svc.Metrics().Snapshot().Analysis.DeanonymizeCalls)
}
