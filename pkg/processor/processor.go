package processor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/halytel/cdr-ingest/pkg/cdr"
	"github.com/halytel/cdr-ingest/pkg/metrics"
)

// Emitter delivers one finished file to the downstream collector.
type Emitter interface {
	Emit(ctx context.Context, file cdr.File, lines []cdr.Line) error
}

// ProcessingOutcome is the terminal state of one file's processing. It is
// independent of whether the emission afterwards succeeded.
type ProcessingOutcome struct {
	Status           cdr.FileStatus
	LineCount        int
	LineInvalidCount int
	Err              error
}

// EmissionOutcome reports the delivery attempt, decoupled from the processing
// status on purpose: a failed post never rewrites an already-final status.
type EmissionOutcome struct {
	Attempted bool
	Delivered bool
	Err       error
}

// Processor sequences validate, read, parse, aggregate and emit for one file
// per filesystem creation event. Within a file everything is strictly
// sequential; distinct files may be in flight concurrently.
type Processor struct {
	logger    *log.Logger
	recorder  metrics.Recorder
	validator *cdr.Validator
	emitter   Emitter

	// readLines is swappable in tests.
	readLines func(path string) ([][]string, error)
}

func New(logger *log.Logger, recorder metrics.Recorder, validator *cdr.Validator, emitter Emitter) *Processor {
	return &Processor{
		logger:    logger,
		recorder:  recorder,
		validator: validator,
		emitter:   emitter,
		readLines: cdr.ReadLines,
	}
}

// HandleFile adapts ProcessFile to the watcher's handler contract.
func (p *Processor) HandleFile(ctx context.Context, path string, info os.FileInfo) {
	p.ProcessFile(ctx, path, info)
}

// ProcessFile runs one file through the pipeline. A rejected or empty file
// still emits a zero-line payload so the collector learns the outcome; a
// completed parse emits only when at least one valid line survived.
func (p *Processor) ProcessFile(ctx context.Context, path string, info os.FileInfo) (ProcessingOutcome, EmissionOutcome) {
	started := time.Now()

	file := cdr.File{
		ID:            uuid.NewString(),
		Filename:      filepath.Base(path),
		FileCreatedAt: fileCreatedAt(info),
		Status:        cdr.StatusProcessing,
	}

	logger := p.logger.With("file", file.Filename)
	logger.Info("file processing started")
	defer func() {
		logger.Info("file processing finished",
			"status", file.Status,
			"lines", file.LineCount,
			"invalid", file.LineInvalidCount,
			"duration", time.Since(started))
	}()

	prefix, stem, err := p.validator.Validate(path, info)
	if err != nil {
		logger.Error("file rejected", "error", err)
		return p.abort(ctx, &file, err, logger)
	}

	rawLines, err := p.readLines(path)
	if err != nil {
		// A read failure after successful validation lands in the same
		// terminal state as a rejection, and the collector is still told.
		logger.Error("file read failed", "error", err)
		return p.abort(ctx, &file, err, logger)
	}
	if len(rawLines) == 0 {
		logger.Warn("file has no content")
		file.Status = cdr.StatusEmptyContent
		file.ProcessedAt = now()
		emission := p.emit(ctx, file, nil, logger)
		return outcomeOf(file, nil), emission
	}

	fileInfo := &cdr.FileInfo{Group: prefix, Name: stem, Number: fileNumber(stem)}
	aggregator := NewAggregator(p.recorder, fileInfo)

	parsed := make([]cdr.Line, 0, len(rawLines))
	for i, raw := range rawLines {
		line, parseErr := cdr.ParseLine(raw)
		if parseErr != nil {
			// One bad timestamp must not abort the rest of the batch.
			line.Valid = false
			logger.Error("line parse failed", "line", i+1, "error", parseErr)
		}

		file.LineCount++
		if line.Valid {
			logger.Info("line parsed", "line", i+1, "recordType", line.RecordType)
		} else {
			file.LineInvalidCount++
			if parseErr == nil {
				logger.Error("line classification failed", "line", i+1, "recordType", line.RecordType)
			}
		}

		aggregator.Observe(line)
		parsed = append(parsed, line)
	}
	aggregator.Finalize()

	file.Status = cdr.StatusOK
	file.ProcessedAt = now()

	outcome := metrics.OutcomeSuccess
	if file.LineInvalidCount > 0 {
		outcome = metrics.OutcomeInvalidCDR
	}
	p.recorder.CounterInc(metrics.MetricProcessOutcome, metrics.Labels{"outcome": outcome})
	p.recorder.HistogramObserve(metrics.MetricProcessDurationMs,
		float64(time.Since(started).Milliseconds()), metrics.Labels{"outcome": outcome})

	validLines := lo.Filter(parsed, func(line cdr.Line, _ int) bool { return line.Valid })

	// A parse that completed with zero valid lines does not notify the
	// collector; only the rejected and empty branches emit empty payloads.
	var emission EmissionOutcome
	if len(validLines) > 0 {
		emission = p.emit(ctx, file, validLines, logger)
	}
	return outcomeOf(file, nil), emission
}

// abort finalizes a file that never reached parsing and emits the empty
// result.
func (p *Processor) abort(ctx context.Context, file *cdr.File, cause error, logger *log.Logger) (ProcessingOutcome, EmissionOutcome) {
	file.Status = cdr.StatusError
	file.Error = cause.Error()
	file.ProcessedAt = now()
	emission := p.emit(ctx, *file, nil, logger)
	return outcomeOf(*file, cause), emission
}

func (p *Processor) emit(ctx context.Context, file cdr.File, lines []cdr.Line, logger *log.Logger) EmissionOutcome {
	if err := p.emitter.Emit(ctx, file, lines); err != nil {
		logger.Error("emission failed", "error", err)
		return EmissionOutcome{Attempted: true, Err: err}
	}
	return EmissionOutcome{Attempted: true, Delivered: true}
}

func outcomeOf(file cdr.File, err error) ProcessingOutcome {
	return ProcessingOutcome{
		Status:           file.Status,
		LineCount:        file.LineCount,
		LineInvalidCount: file.LineInvalidCount,
		Err:              err,
	}
}

func fileCreatedAt(info os.FileInfo) string {
	if info == nil {
		return ""
	}
	return info.ModTime().Format(time.RFC3339)
}

func now() string {
	return time.Now().Format(time.RFC3339)
}

// fileNumber extracts the trailing digit run of a filename stem, the sequence
// number most exchanges append to their exports. Empty when the stem has
// none.
func fileNumber(stem string) string {
	trimmed := strings.TrimRightFunc(stem, func(r rune) bool {
		return r < '0' || r > '9'
	})
	start := len(trimmed)
	for start > 0 && trimmed[start-1] >= '0' && trimmed[start-1] <= '9' {
		start--
	}
	return trimmed[start:]
}
