package retrieval

import (
	"context"
	"log/slog"
	"sync"

	"github.com/stratumkb/stratum/core"
)

// accuracyTopK is how deep in the ranked results the expected source must
// appear for an accuracy case to pass.
const accuracyTopK = 3

// TestCase is one fixed (query, expected source) pair for accuracy checks.
type TestCase struct {
	Query            string
	Caller           core.Caller
	ExpectedDocument core.ID
}

// CaseResult is the outcome of a single accuracy case.
type CaseResult struct {
	Case   TestCase
	Passed bool
	Err    error
}

// AccuracyReport aggregates an accuracy check run. Flagged reports are
// advisory; they never block serving.
type AccuracyReport struct {
	Total    int
	Passed   int
	PassRate float64
	Cases    []CaseResult
	Flagged  bool
}

// DriftReport compares recent query similarity against the stored baseline.
type DriftReport struct {
	Baseline     float64
	Mean         float64
	RelativeDrop float64
	Samples      int
	Flagged      bool
}

// QualityMonitor runs advisory retrieval quality checks against a live
// coordinator. It never sits on the serving path.
type QualityMonitor struct {
	coordinator *Coordinator
	cfg         Config
	logger      *slog.Logger

	mu       sync.Mutex
	baseline float64
}

// NewQualityMonitor creates a quality monitor over the coordinator.
func NewQualityMonitor(coordinator *Coordinator, cfg Config) (*QualityMonitor, error) {
	if coordinator == nil {
		return nil, ErrCoordinatorRequired
	}

	return &QualityMonitor{
		coordinator: coordinator,
		cfg:         cfg,
		logger:      slog.Default().With("component", "quality-monitor"),
	}, nil
}

// SetBaseline stores the drift baseline: the mean top-1 raw similarity
// measured during a known-good period.
func (q *QualityMonitor) SetBaseline(baseline float64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.baseline = baseline
}

// Baseline returns the stored drift baseline, 0 when none is set.
func (q *QualityMonitor) Baseline() float64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.baseline
}

// AccuracyCheck runs every test case through the coordinator and verifies
// that the expected source document appears within the top results. The
// report is flagged when the pass rate does not exceed the configured
// floor. A case whose retrieve call errors counts as failed, not as an
// error of the whole check.
func (q *QualityMonitor) AccuracyCheck(ctx context.Context, cases []TestCase) (*AccuracyReport, error) {
	report := &AccuracyReport{
		Total: len(cases),
		Cases: make([]CaseResult, 0, len(cases)),
	}

	for _, tc := range cases {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		results, err := q.coordinator.Retrieve(ctx, Request{Query: tc.Query, Caller: tc.Caller})
		if err != nil {
			q.logger.Warn("accuracy case errored", "query", tc.Query, "err", err)
			report.Cases = append(report.Cases, CaseResult{Case: tc, Err: err})
			continue
		}

		passed := false
		for i, rc := range results {
			if i >= accuracyTopK {
				break
			}
			if rc.Document.Id == tc.ExpectedDocument {
				passed = true
				break
			}
		}
		if passed {
			report.Passed++
		}
		report.Cases = append(report.Cases, CaseResult{Case: tc, Passed: passed})
	}

	if report.Total > 0 {
		report.PassRate = float64(report.Passed) / float64(report.Total)
	}
	report.Flagged = report.PassRate < q.cfg.AccuracyFloor

	if report.Flagged {
		q.logger.Warn("accuracy check below floor",
			"passRate", report.PassRate, "floor", q.cfg.AccuracyFloor, "total", report.Total)
	} else {
		q.logger.Info("accuracy check passed",
			"passRate", report.PassRate, "total", report.Total)
	}

	return report, nil
}

// DriftCheck computes the mean top-1 raw similarity over the recorded
// recent queries and compares it to the baseline. With no stored baseline
// the current mean becomes the baseline and the report is never flagged.
func (q *QualityMonitor) DriftCheck(ctx context.Context) (*DriftReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	samples := q.coordinator.sampleSnapshot()
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}

	var sum float64
	for _, s := range samples {
		sum += float64(s.topSimilarity)
	}
	mean := sum / float64(len(samples))

	q.mu.Lock()
	baseline := q.baseline
	if baseline == 0 {
		q.baseline = mean
		baseline = mean
	}
	q.mu.Unlock()

	report := &DriftReport{
		Baseline: baseline,
		Mean:     mean,
		Samples:  len(samples),
	}
	if baseline > 0 {
		report.RelativeDrop = (baseline - mean) / baseline
	}
	report.Flagged = report.RelativeDrop > q.cfg.DriftTolerance

	if report.Flagged {
		q.logger.Warn("similarity drift detected",
			"baseline", baseline, "mean", mean, "relativeDrop", report.RelativeDrop)
	} else {
		q.logger.Info("drift check passed", "baseline", baseline, "mean", mean, "samples", len(samples))
	}

	return report, nil
}
