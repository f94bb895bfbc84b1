package cdr

import (
	"math"
	"strconv"

	"github.com/google/uuid"
)

// Positions of the fixed CDR field layout within one pipe-delimited line.
const (
	fieldRecordType = iota
	fieldNumber
	fieldNumberB
	fieldNumberDialed
	fieldMSISDN
	fieldIMSI
	fieldEventTimestamp
	fieldEventDuration
	fieldVolumeDownload
	fieldVolumeUpload
	fieldCodeOperator
	fieldAmountPrerated
	fieldAPN
	fieldNulli
	fieldBroadWorks
	fieldCodeTeleService
	fieldCodeBearerService
	fieldCodeOverseas
	fieldVideoIndicator
	fieldSource
	fieldServiceID
	fieldDescription
	fieldCallIdentification
)

// ParseLine maps one raw line into a Line with a fresh identifier. A token
// that fails classification marks the line invalid but every other field is
// still extracted, so an invalid line carries a best-effort dataset for
// logging and audit.
//
// A timestamp that fails to decode is returned as an error alongside the
// populated line; the caller owns the per-line error boundary.
func ParseLine(fields []string) (Line, error) {
	line := Line{
		ID:    uuid.NewString(),
		Valid: true,
	}

	token := fieldAt(fields, fieldRecordType)
	if recordType, err := ClassifyRecordType(token); err != nil {
		line.Valid = false
		line.RecordType = token
	} else {
		line.RecordType = string(recordType)
	}

	line.Number = fieldAt(fields, fieldNumber)
	line.NumberB = fieldAt(fields, fieldNumberB)
	line.NumberDialed = fieldAt(fields, fieldNumberDialed)
	line.MSISDN = fieldAt(fields, fieldMSISDN)
	line.IMSI = fieldAt(fields, fieldIMSI)
	line.EventDuration = intOrDefault(fieldAt(fields, fieldEventDuration), 0)
	line.VolumeDownload = parseVolume(fieldAt(fields, fieldVolumeDownload))
	line.VolumeUpload = parseVolume(fieldAt(fields, fieldVolumeUpload))
	line.CodeOperator = fieldAt(fields, fieldCodeOperator)
	line.AmountPrerated = floatOrDefault(fieldAt(fields, fieldAmountPrerated), 0)
	line.APN = fieldAt(fields, fieldAPN)
	line.Nulli = intOrDefault(fieldAt(fields, fieldNulli), 0)

	rawTimestamp := fieldAt(fields, fieldEventTimestamp)
	line.EventTimestampNumber = int64OrDefault(rawTimestamp, 0)

	line.BroadWorks = optionalAt(fields, fieldBroadWorks)
	line.CodeTeleService = optionalAt(fields, fieldCodeTeleService)
	line.CodeBearerService = optionalAt(fields, fieldCodeBearerService)
	line.CodeOverseas = optionalAt(fields, fieldCodeOverseas)
	line.VideoIndicator = optionalAt(fields, fieldVideoIndicator)
	line.Source = optionalAt(fields, fieldSource)
	line.ServiceID = optionalAt(fields, fieldServiceID)
	line.Description = optionalAt(fields, fieldDescription)
	line.CallIdentification = optionalAt(fields, fieldCallIdentification)

	timestamp, err := DecodeTimestamp(rawTimestamp, line.Nulli)
	if err != nil {
		return line, err
	}
	line.EventTimestamp = timestamp

	return line, nil
}

func fieldAt(fields []string, index int) string {
	if index >= len(fields) {
		return ""
	}
	return fields[index]
}

// optionalAt distinguishes "field absent" from "field empty": a line shorter
// than the position yields nil, never an empty string.
func optionalAt(fields []string, index int) *string {
	if index >= len(fields) {
		return nil
	}
	value := fields[index]
	return &value
}

func intOrDefault(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func int64OrDefault(raw string, fallback int64) int64 {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func floatOrDefault(raw string, fallback float64) float64 {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return f
}

// parseVolume keeps "unknown" distinct from "zero": an empty field is 0, a
// non-numeric field is NaN.
func parseVolume(raw string) Volume {
	if raw == "" {
		return 0
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return Volume(math.NaN())
	}
	return Volume(n)
}
