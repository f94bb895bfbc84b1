package cdr

import (
	"encoding/json"
	"math"
	"time"
)

// FileStatus is the terminal (or in-flight) state of one watched file.
type FileStatus string

const (
	StatusProcessing   FileStatus = "PROCESSING"
	StatusOK           FileStatus = "OK"
	StatusError        FileStatus = "ERROR"
	StatusEmptyContent FileStatus = "EMPTY_CONTENT"
)

// Volume is a byte count parsed from a CDR field. It is NaN when the source
// field was present but not numeric; JSON encoding renders NaN as null so a
// payload with unknown volumes still serializes.
type Volume float64

func (v Volume) IsNaN() bool {
	return math.IsNaN(float64(v))
}

func (v Volume) MarshalJSON() ([]byte, error) {
	if v.IsNaN() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(v))
}

// Line is the parsed representation of one raw pipe-delimited line. Created
// once by ParseLine and immutable afterwards.
type Line struct {
	ID                   string     `json:"id"`
	Valid                bool       `json:"valid"`
	RecordType           string     `json:"recordType"`
	Number               string     `json:"number"`
	NumberB              string     `json:"numberB"`
	NumberDialed         string     `json:"numberDialed"`
	MSISDN               string     `json:"msisdn"`
	IMSI                 string     `json:"imsi"`
	EventTimestamp       time.Time `json:"eventTimestamp"`
	EventTimestampNumber int64     `json:"eventTimestampNumber"`
	EventDuration        int       `json:"eventDuration"`
	VolumeDownload       Volume    `json:"volumeDownload"`
	VolumeUpload         Volume    `json:"volumeUpload"`
	CodeOperator         string    `json:"codeOperator"`
	AmountPrerated       float64   `json:"amountPrerated"`
	APN                  string    `json:"apn"`
	Nulli                int       `json:"nulli"`
	BroadWorks           *string   `json:"broadWorks,omitempty"`
	CodeTeleService      *string   `json:"codeTeleService,omitempty"`
	CodeBearerService    *string   `json:"codeBearerService,omitempty"`
	CodeOverseas         *string   `json:"codeOverseas,omitempty"`
	VideoIndicator       *string   `json:"videoIndicator,omitempty"`
	Source               *string   `json:"source,omitempty"`
	ServiceID            *string   `json:"serviceId,omitempty"`
	Description          *string   `json:"description,omitempty"`
	CallIdentification   *string   `json:"callIdentification,omitempty"`
}

// File is the processing record for one watched file. Mutated in place by the
// processor while the file moves through its states, then handed to the
// emitter; never retained afterwards.
type File struct {
	ID               string     `json:"id"`
	Filename         string     `json:"filename"`
	FileCreatedAt    string     `json:"fileCreatedAt"`
	Status           FileStatus `json:"status"`
	LineCount        int        `json:"lineCount"`
	LineInvalidCount int        `json:"lineInvalidCount"`
	Error            string     `json:"error,omitempty"`
	ProcessedAt      string     `json:"processedAt,omitempty"`
	// LineIndexBegin is reserved for incremental reads, always 0 today.
	LineIndexBegin int `json:"lineIndexBegin"`
}

// FileInfo is the aggregation-scope view of a file, used only for metrics
// labeling. It does not outlive one file's processing.
type FileInfo struct {
	Group   string
	Name    string
	Number  string
	Total   int
	Invalid int
}
