package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/sweeper/internal/logging"
)

// DefaultPreviewRows is how many rows a preview shows when none is requested.
const DefaultPreviewRows = 5

// Request is one sweep: an uploaded file and the format to return it in.
type Request struct {
	FileName string
	Data     []byte
	// Target is the output format. Empty means the source format.
	Target Format
}

// Result holds everything a sweep produced. Original and Cleaned are owned
// by the caller.
type Result struct {
	ID       uuid.UUID
	FileName string
	Source   Format
	Target   Format
	Original *Table
	Cleaned  *Table
	Report   NormalizeReport
	Output   *Output
	Duration time.Duration
}

// Preview returns the head of the original and cleaned tables.
func (r *Result) Preview(n int) (original, cleaned Preview) {
	if n <= 0 {
		n = DefaultPreviewRows
	}
	return PreviewOf(r.Original, n), PreviewOf(r.Cleaned, n)
}

// SweepRecord summarizes one sweep for the history log. File contents are
// never recorded.
type SweepRecord struct {
	ID                uuid.UUID `json:"id"`
	FileName          string    `json:"fileName"`
	Source            Format    `json:"source,omitempty"`
	Target            Format    `json:"target,omitempty"`
	RowsIn            int       `json:"rowsIn"`
	RowsOut           int       `json:"rowsOut"`
	DuplicatesRemoved int       `json:"duplicatesRemoved"`
	IncompleteRemoved int       `json:"incompleteRemoved"`
	OutputBytes       int       `json:"outputBytes"`
	DurationMs        int64     `json:"durationMs"`
	Error             string    `json:"error,omitempty"`
	ErrorCode         string    `json:"errorCode,omitempty"`
	IPAddress         string    `json:"ipAddress,omitempty"`
	UserAgent         string    `json:"userAgent,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

// Succeeded reports whether the recorded sweep produced output.
func (r SweepRecord) Succeeded() bool {
	return r.Error == ""
}

// Recorder stores sweep summaries.
type Recorder interface {
	Record(ctx context.Context, rec SweepRecord) error
}

// ServiceOptions configures a Service. Zero values select defaults.
type ServiceOptions struct {
	Registry *Registry     // Default: DefaultRegistry()
	Limiter  *SweepLimiter // Default: no admission control
	Recorder Recorder      // Default: nothing recorded
	Timeout  time.Duration // Per-sweep limit; 0 disables
}

// Service runs sweeps. It is safe for concurrent use; each call owns its
// tables exclusively.
type Service struct {
	registry *Registry
	limiter  *SweepLimiter
	recorder Recorder
	timeout  time.Duration
}

// NewService creates a Service.
func NewService(opts ServiceOptions) *Service {
	reg := opts.Registry
	if reg == nil {
		reg = DefaultRegistry()
	}
	return &Service{
		registry: reg,
		limiter:  opts.Limiter,
		recorder: opts.Recorder,
		timeout:  opts.Timeout,
	}
}

// Registry returns the codec registry the service dispatches through.
func (s *Service) Registry() *Registry {
	return s.registry
}

// Limiter returns the admission limiter, or nil when none is configured.
func (s *Service) Limiter() *SweepLimiter {
	return s.limiter
}

// Sweep detects the source format, ingests, normalizes and serializes.
// On any failure no partial result is returned.
func (s *Service) Sweep(ctx context.Context, req Request) (*Result, error) {
	if s.limiter != nil {
		release, err := s.limiter.Acquire(ctx)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	res := &Result{ID: uuid.New(), FileName: req.FileName}
	ctx = logging.WithSweepID(ctx, res.ID.String())
	log := logging.WithFields(ctx, "file", req.FileName)

	err := s.run(ctx, req, res)
	res.Duration = time.Since(start)

	s.record(ctx, res, err)

	if err != nil {
		log.Warn("sweep failed",
			"source", res.Source,
			"target", res.Target,
			"error", err,
			"duration_ms", res.Duration.Milliseconds(),
		)
		return nil, err
	}

	log.Info("sweep completed",
		"source", res.Source,
		"target", res.Target,
		"rows_in", res.Report.RowsIn,
		"rows_out", res.Report.RowsOut,
		"bytes", len(res.Output.Data),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func (s *Service) run(ctx context.Context, req Request, res *Result) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.FromContext(ctx).Error("panic in sweep", "panic", r)
			err = stageError(StageIngest, res.Source, fmt.Errorf("%w: internal error: %v", ErrMalformedInput, r))
		}
	}()

	source, err := s.registry.FormatFromFileName(req.FileName)
	if err != nil {
		return stageError(StageDetect, "", err)
	}
	res.Source = source

	target := source
	if req.Target != "" {
		t, ok := s.registry.Lookup(string(req.Target))
		if !ok {
			return stageError(StageSerialize, req.Target, fmt.Errorf("%w: unknown target %q", ErrSerializationUnsupported, req.Target))
		}
		target = t
	}
	res.Target = target

	if err := ctx.Err(); err != nil {
		return err
	}

	original, err := s.registry.Ingest(req.Data, source)
	if err != nil {
		return err
	}
	res.Original = original

	if err := ctx.Err(); err != nil {
		return err
	}

	res.Cleaned, res.Report = Normalize(original)

	if err := ctx.Err(); err != nil {
		return err
	}

	out, err := s.registry.Serialize(res.Cleaned, target)
	if err != nil {
		return err
	}
	res.Output = out
	return nil
}

// record hands the sweep summary to the recorder. Failures are logged only.
func (s *Service) record(ctx context.Context, res *Result, sweepErr error) {
	if s.recorder == nil {
		return
	}

	rec := SweepRecord{
		ID:                res.ID,
		FileName:          res.FileName,
		Source:            res.Source,
		Target:            res.Target,
		RowsIn:            res.Report.RowsIn,
		RowsOut:           res.Report.RowsOut,
		DuplicatesRemoved: res.Report.DuplicatesRemoved,
		IncompleteRemoved: res.Report.IncompleteRemoved,
		DurationMs:        res.Duration.Milliseconds(),
		IPAddress:         GetIPAddressFromContext(ctx),
		UserAgent:         GetUserAgentFromContext(ctx),
		CreatedAt:         time.Now().UTC(),
	}
	if res.Output != nil {
		rec.OutputBytes = len(res.Output.Data)
	}
	if sweepErr != nil {
		rec.Error = sweepErr.Error()
		rec.ErrorCode = MapError(sweepErr).Code
	}

	// The request context may already be cancelled; the record should still land.
	recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.recorder.Record(recCtx, rec); err != nil {
		logging.FromContext(ctx).Error("failed to record sweep", "error", err)
	}
}
