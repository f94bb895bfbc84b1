package cdr

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statOf(t *testing.T, path string) os.FileInfo {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	return info
}

func TestValidateAccepts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "CONSUM_0042.cdr")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	validator := NewValidator(1024, []string{"consum"})
	prefix, stem, err := validator.Validate(path, statOf(t, path))
	require.NoError(t, err)
	assert.Equal(t, "consum", prefix)
	assert.Equal(t, "CONSUM_0042", stem)
}

func TestValidateNoInfo(t *testing.T) {
	validator := NewValidator(1024, []string{"consum"})

	_, _, err := validator.Validate("/tmp/consum_1.cdr", nil)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, ReasonNoInfo, validationErr.Reason)
	assert.Empty(t, validationErr.Code)
}

func TestValidateNotFile(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "consum_dir")
	require.NoError(t, os.Mkdir(sub, 0o755))

	validator := NewValidator(1024, []string{"consum"})
	_, _, err := validator.Validate(sub, statOf(t, sub))
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, ReasonNotFile, validationErr.Reason)
	assert.Equal(t, CodeNotFile, validationErr.Code)
}

func TestValidateTooLarge(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "consum_1.cdr")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o644))

	validator := NewValidator(5, []string{"consum"})
	_, _, err := validator.Validate(path, statOf(t, path))
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, ReasonTooLarge, validationErr.Reason)
	assert.Equal(t, CodeTooLarge, validationErr.Code)
}

func TestValidatePrefixNotAllowed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "other_1.cdr")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	validator := NewValidator(1024, []string{"consum"})
	_, _, err := validator.Validate(path, statOf(t, path))
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, ReasonPrefixNotAllowed, validationErr.Reason)
	assert.Equal(t, CodePrefixNotAllowed, validationErr.Code)
}

// The size check runs before the prefix check; a file failing both reports
// the size failure.
func TestValidateCheckOrder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "other_1.cdr")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o644))

	validator := NewValidator(5, []string{"consum"})
	_, _, err := validator.Validate(path, statOf(t, path))
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, ReasonTooLarge, validationErr.Reason)
}

func TestPrefix(t *testing.T) {
	testCases := []struct {
		stem string
		want string
	}{
		{"CONSUM_0042", "consum"},
		{"consum", "consum"},
		{"  Roam12_x ", "roam12"},
		{"abc", "abc"},
		{"", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.stem, func(t *testing.T) {
			assert.Equal(t, tc.want, Prefix(tc.stem))
		})
	}
}
