package cdr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyRecordTypeKeepsCasing(t *testing.T) {
	testCases := []string{"sms", "SMS", "Sms", "gp", "GP", "rsmo", "RMT", "voice", "Voice"}

	for _, token := range testCases {
		t.Run(token, func(t *testing.T) {
			recordType, err := ClassifyRecordType(token)
			require.NoError(t, err)
			assert.Equal(t, token, string(recordType))
		})
	}
}

func TestClassifyRecordTypeUnknown(t *testing.T) {
	for _, token := range []string{"", "mms", "SMSX", " sms"} {
		t.Run(token, func(t *testing.T) {
			_, err := ClassifyRecordType(token)
			var classErr *ClassificationError
			require.ErrorAs(t, err, &classErr)
			assert.Equal(t, token, classErr.Token)
		})
	}
}
