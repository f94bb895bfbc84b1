package cdr

import (
	"fmt"
	"strings"
)

// RecordType is a member of the closed set of known CDR record-type codes.
// The value keeps the casing of the raw token it was classified from.
type RecordType string

const (
	RecordTypeRSMO  RecordType = "RSMO"
	RecordTypeRMT   RecordType = "RMT"
	RecordTypeGP    RecordType = "GP"
	RecordTypeSMS   RecordType = "SMS"
	RecordTypeVoice RecordType = "VOICE"
)

var knownRecordTypes = map[RecordType]struct{}{
	RecordTypeRSMO:  {},
	RecordTypeRMT:   {},
	RecordTypeGP:    {},
	RecordTypeSMS:   {},
	RecordTypeVoice: {},
}

// ClassificationError reports a token outside the known record-type set.
type ClassificationError struct {
	Token string
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("unknown record type %q", e.Token)
}

// ClassifyRecordType tests a raw token against the known record-type codes.
// Membership is case-insensitive; the returned value preserves the original
// casing.
func ClassifyRecordType(token string) (RecordType, error) {
	if _, ok := knownRecordTypes[RecordType(strings.ToUpper(token))]; !ok {
		return "", &ClassificationError{Token: token}
	}
	return RecordType(token), nil
}
