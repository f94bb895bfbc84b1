package emitter

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/halytel/cdr-ingest/pkg/cdr"
	"github.com/halytel/cdr-ingest/pkg/metrics"
)

// Payload is the webhook body: the file's fields flattened at the top level
// plus the forwarded lines.
type Payload struct {
	cdr.File
	Lines []cdr.Line `json:"lines"`
}

// Client posts finished files to the collector webhook.
type Client struct {
	baseURL  string
	path     string
	client   *http.Client
	logger   *log.Logger
	recorder metrics.Recorder
}

func New(logger *log.Logger, recorder metrics.Recorder, baseURL, path string) *Client {
	return &Client{
		baseURL:  baseURL,
		path:     path,
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   logger,
		recorder: recorder,
	}
}

// Emit performs one POST of the combined payload. Transport failures (the
// request never completing, or a non-2xx status) are logged with the filename
// and line count and flattened into a generic error; the typed cause stays
// inside this component.
func (c *Client) Emit(ctx context.Context, file cdr.File, lines []cdr.Line) error {
	started := time.Now()

	body, err := json.Marshal(Payload{File: file, Lines: lines})
	if err != nil {
		c.recorder.CounterInc(metrics.MetricProcessOutcome, metrics.Labels{"outcome": metrics.OutcomePostDataFailed})
		return errors.Wrap(err, "marshal cdr payload")
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.path, bytes.NewBuffer(body))
	if err != nil {
		c.recorder.CounterInc(metrics.MetricProcessOutcome, metrics.Labels{"outcome": metrics.OutcomePostDataFailed})
		return errors.Wrap(err, "build cdr post request")
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := c.client.Do(request)
	if err != nil {
		c.failed(started)
		c.logger.Error("cdr post failed", "file", file.Filename, "lineCount", file.LineCount, "error", err)
		return errors.New("cdr post failed")
	}
	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		c.failed(started)
		c.logger.Error("cdr post rejected", "file", file.Filename, "lineCount", file.LineCount, "status", response.StatusCode)
		return errors.New("cdr post failed")
	}

	c.recorder.CounterInc(metrics.MetricProcessOutcome, metrics.Labels{"outcome": metrics.OutcomePostDataOK})
	c.recorder.HistogramObserve(metrics.MetricPostDurationMs,
		float64(time.Since(started).Milliseconds()), metrics.Labels{"outcome": "success"})

	// Log the file snapshot without its lines to keep entries bounded.
	c.logger.Info("cdr posted",
		"file", file.Filename,
		"status", file.Status,
		"lineCount", file.LineCount,
		"lineInvalidCount", file.LineInvalidCount)
	return nil
}

func (c *Client) failed(started time.Time) {
	c.recorder.CounterInc(metrics.MetricProcessOutcome, metrics.Labels{"outcome": metrics.OutcomePostDataFailed})
	c.recorder.HistogramObserve(metrics.MetricPostDurationMs,
		float64(time.Since(started).Milliseconds()), metrics.Labels{"outcome": "error"})
}
