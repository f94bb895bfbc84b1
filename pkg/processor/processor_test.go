package processor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halytel/cdr-ingest/pkg/cdr"
	"github.com/halytel/cdr-ingest/pkg/metrics"
)

type emitCall struct {
	file  cdr.File
	lines []cdr.Line
}

type captureEmitter struct {
	mu    sync.Mutex
	calls []emitCall
	err   error
}

func (e *captureEmitter) Emit(_ context.Context, file cdr.File, lines []cdr.Line) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, emitCall{file: file, lines: lines})
	return e.err
}

func (e *captureEmitter) Calls() []emitCall {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]emitCall(nil), e.calls...)
}

func newTestProcessor(emitter Emitter, recorder metrics.Recorder) *Processor {
	validator := cdr.NewValidator(1<<20, []string{"consum"})
	return New(log.New(os.Stdout), recorder, validator, emitter)
}

// testLine renders one raw CDR line with the given record type, msisdn and
// volumes.
func testLine(recordType, msisdn, download, upload string) string {
	fields := []string{
		recordType, "0612345678", "0687654321", "0687654321", msisdn,
		"208011234567890", "20231026120000", "60", download, upload,
		"20801", "0.5", "internet", "0",
	}
	return strings.Join(fields, "|")
}

func writeCdrFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestProcessFileAllValid(t *testing.T) {
	recorder := metrics.NewCaptureRecorder()
	emitter := &captureEmitter{}
	proc := newTestProcessor(emitter, recorder)

	path := writeCdrFile(t, "consum_0001.cdr",
		testLine("voice", "336001", "100", "10")+"\n"+testLine("sms", "336002", "200", "20")+"\n")
	info, err := os.Stat(path)
	require.NoError(t, err)

	outcome, emission := proc.ProcessFile(context.Background(), path, info)

	assert.Equal(t, cdr.StatusOK, outcome.Status)
	assert.Equal(t, 2, outcome.LineCount)
	assert.Equal(t, 0, outcome.LineInvalidCount)
	assert.True(t, emission.Delivered)

	calls := emitter.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, cdr.StatusOK, calls[0].file.Status)
	assert.Equal(t, 2, calls[0].file.LineCount)
	require.Len(t, calls[0].lines, 2)
	assert.Equal(t, "voice", calls[0].lines[0].RecordType)
	assert.Equal(t, "sms", calls[0].lines[1].RecordType)

	assert.Equal(t, 1.0, recorder.CounterValue(metrics.MetricProcessOutcome, metrics.Labels{"outcome": metrics.OutcomeSuccess}))
	require.Len(t, recorder.Observations(metrics.MetricProcessDurationMs), 1)
}

func TestProcessFileMissingInfo(t *testing.T) {
	recorder := metrics.NewCaptureRecorder()
	emitter := &captureEmitter{}
	proc := newTestProcessor(emitter, recorder)

	outcome, emission := proc.ProcessFile(context.Background(), "/watch/consum_0002.cdr", nil)

	assert.Equal(t, cdr.StatusError, outcome.Status)
	assert.Equal(t, 0, outcome.LineCount)
	require.Error(t, outcome.Err)
	assert.True(t, emission.Attempted)
	assert.True(t, emission.Delivered)

	calls := emitter.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, cdr.StatusError, calls[0].file.Status)
	assert.Contains(t, calls[0].file.Error, cdr.ReasonNoInfo)
	assert.Empty(t, calls[0].lines)

	// Rejected files never reach the outcome counter.
	assert.Equal(t, 0.0, recorder.CounterValue(metrics.MetricProcessOutcome, metrics.Labels{"outcome": metrics.OutcomeSuccess}))
}

func TestProcessFileEmptyContent(t *testing.T) {
	recorder := metrics.NewCaptureRecorder()
	emitter := &captureEmitter{}
	proc := newTestProcessor(emitter, recorder)

	path := writeCdrFile(t, "consum_0003.cdr", "")
	info, err := os.Stat(path)
	require.NoError(t, err)

	outcome, emission := proc.ProcessFile(context.Background(), path, info)

	assert.Equal(t, cdr.StatusEmptyContent, outcome.Status)
	assert.Equal(t, 0, outcome.LineCount)
	assert.Equal(t, 0, outcome.LineInvalidCount)
	assert.True(t, emission.Delivered)

	calls := emitter.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, cdr.StatusEmptyContent, calls[0].file.Status)
	assert.Empty(t, calls[0].lines)
}

func TestProcessFileInvalidLineExcludedFromEmission(t *testing.T) {
	recorder := metrics.NewCaptureRecorder()
	emitter := &captureEmitter{}
	proc := newTestProcessor(emitter, recorder)

	content := testLine("voice", "336001", "100", "10") + "\n" +
		testLine("zzz", "336002", "50", "5") + "\n" +
		testLine("sms", "336003", "200", "20") + "\n"
	path := writeCdrFile(t, "consum_0004.cdr", content)
	info, err := os.Stat(path)
	require.NoError(t, err)

	outcome, emission := proc.ProcessFile(context.Background(), path, info)

	assert.Equal(t, cdr.StatusOK, outcome.Status)
	assert.Equal(t, 3, outcome.LineCount)
	assert.Equal(t, 1, outcome.LineInvalidCount)
	assert.True(t, emission.Delivered)

	calls := emitter.Calls()
	require.Len(t, calls, 1)
	require.Len(t, calls[0].lines, 2)
	assert.Equal(t, "336001", calls[0].lines[0].MSISDN)
	assert.Equal(t, "336003", calls[0].lines[1].MSISDN)

	assert.Equal(t, 1.0, recorder.CounterValue(metrics.MetricProcessOutcome, metrics.Labels{"outcome": metrics.OutcomeInvalidCDR}))
}

// A parse that completes with zero valid lines does not notify the collector
// at all.
func TestProcessFileAllInvalidSkipsEmission(t *testing.T) {
	recorder := metrics.NewCaptureRecorder()
	emitter := &captureEmitter{}
	proc := newTestProcessor(emitter, recorder)

	content := testLine("zzz", "336001", "100", "10") + "\n" + testLine("yyy", "336002", "50", "5") + "\n"
	path := writeCdrFile(t, "consum_0005.cdr", content)
	info, err := os.Stat(path)
	require.NoError(t, err)

	outcome, emission := proc.ProcessFile(context.Background(), path, info)

	assert.Equal(t, cdr.StatusOK, outcome.Status)
	assert.Equal(t, 2, outcome.LineCount)
	assert.Equal(t, 2, outcome.LineInvalidCount)
	assert.False(t, emission.Attempted)
	assert.Empty(t, emitter.Calls())

	assert.Equal(t, 1.0, recorder.CounterValue(metrics.MetricProcessOutcome, metrics.Labels{"outcome": metrics.OutcomeInvalidCDR}))
}

func TestProcessFileBadTimestampDoesNotAbortBatch(t *testing.T) {
	recorder := metrics.NewCaptureRecorder()
	emitter := &captureEmitter{}
	proc := newTestProcessor(emitter, recorder)

	badTimestamp := strings.Replace(testLine("voice", "336001", "100", "10"), "20231026120000", "202310", 1)
	content := badTimestamp + "\n" + testLine("sms", "336002", "200", "20") + "\n"
	path := writeCdrFile(t, "consum_0006.cdr", content)
	info, err := os.Stat(path)
	require.NoError(t, err)

	outcome, emission := proc.ProcessFile(context.Background(), path, info)

	assert.Equal(t, 2, outcome.LineCount)
	assert.Equal(t, 1, outcome.LineInvalidCount)
	assert.True(t, emission.Delivered)

	calls := emitter.Calls()
	require.Len(t, calls, 1)
	require.Len(t, calls[0].lines, 1)
	assert.Equal(t, "336002", calls[0].lines[0].MSISDN)
}

func TestProcessFileRejectedStillEmits(t *testing.T) {
	recorder := metrics.NewCaptureRecorder()
	emitter := &captureEmitter{}
	proc := newTestProcessor(emitter, recorder)

	path := writeCdrFile(t, "other_0001.cdr", testLine("sms", "336001", "1", "1"))
	info, err := os.Stat(path)
	require.NoError(t, err)

	outcome, emission := proc.ProcessFile(context.Background(), path, info)

	assert.Equal(t, cdr.StatusError, outcome.Status)
	assert.True(t, emission.Delivered)

	calls := emitter.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].file.Error, cdr.CodePrefixNotAllowed)
	assert.Empty(t, calls[0].lines)
}

func TestProcessFileReadFailure(t *testing.T) {
	recorder := metrics.NewCaptureRecorder()
	emitter := &captureEmitter{}
	proc := newTestProcessor(emitter, recorder)
	proc.readLines = func(path string) ([][]string, error) {
		return nil, &cdr.FileAccessError{Path: path, Err: os.ErrPermission}
	}

	path := writeCdrFile(t, "consum_0007.cdr", testLine("sms", "336001", "1", "1"))
	info, err := os.Stat(path)
	require.NoError(t, err)

	outcome, emission := proc.ProcessFile(context.Background(), path, info)

	assert.Equal(t, cdr.StatusError, outcome.Status)
	assert.Equal(t, 0, outcome.LineCount)
	assert.True(t, emission.Delivered)

	calls := emitter.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].file.Error, "read cdr file")
}

func TestProcessFileEmissionFailureKeepsStatus(t *testing.T) {
	recorder := metrics.NewCaptureRecorder()
	emitter := &captureEmitter{err: os.ErrDeadlineExceeded}
	proc := newTestProcessor(emitter, recorder)

	path := writeCdrFile(t, "consum_0008.cdr", testLine("sms", "336001", "1", "1")+"\n")
	info, err := os.Stat(path)
	require.NoError(t, err)

	outcome, emission := proc.ProcessFile(context.Background(), path, info)

	assert.Equal(t, cdr.StatusOK, outcome.Status)
	assert.NoError(t, outcome.Err)
	assert.True(t, emission.Attempted)
	assert.False(t, emission.Delivered)
	require.Error(t, emission.Err)
}

func TestFileNumber(t *testing.T) {
	testCases := []struct {
		stem string
		want string
	}{
		{"consum_0042", "0042"},
		{"consum_0042_bak", "0042"},
		{"consum", ""},
		{"", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.stem, func(t *testing.T) {
			assert.Equal(t, tc.want, fileNumber(tc.stem))
		})
	}
}
