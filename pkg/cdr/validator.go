package cdr

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
)

// PrefixLength is how many characters of the filename stem form the routing
// prefix.
const PrefixLength = 6

// Validation failure reasons, in the order they are checked.
const (
	ReasonNoInfo           = "NO_INFO"
	ReasonNotFile          = "NOT_FILE"
	ReasonTooLarge         = "TOO_LARGE"
	ReasonPrefixNotAllowed = "PREFIX_NOT_ALLOWED"
)

// Operator-facing error codes for the coded validation failures.
const (
	CodeNotFile          = "FILE_ERROR_100"
	CodeTooLarge         = "FILE_ERROR_110"
	CodePrefixNotAllowed = "FILE_ERROR_200"
)

// ValidationError reports why a file was rejected before any line was read.
type ValidationError struct {
	Reason string
	Code   string
	Path   string
}

func (e *ValidationError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("%s: %s", e.Reason, e.Path)
	}
	return fmt.Sprintf("%s (%s): %s", e.Reason, e.Code, e.Path)
}

// Validator enforces the filename prefix allow-list and size-limit policy.
type Validator struct {
	maxSize         int64
	allowedPrefixes []string
}

// NewValidator folds the allow-list once so membership tests match the
// case-folded prefix derived from filenames.
func NewValidator(maxSize int64, allowedPrefixes []string) *Validator {
	folded := make([]string, 0, len(allowedPrefixes))
	for _, prefix := range allowedPrefixes {
		folded = append(folded, strings.ToLower(strings.TrimSpace(prefix)))
	}
	return &Validator{maxSize: maxSize, allowedPrefixes: folded}
}

// Validate runs the ordered pre-read checks for one file. The check order is
// part of the observable contract: metadata presence, regular file, size
// limit, then prefix allow-list. On success it returns the routing prefix and
// the filename stem.
func (v *Validator) Validate(path string, info os.FileInfo) (prefix string, stem string, err error) {
	if info == nil {
		return "", "", &ValidationError{Reason: ReasonNoInfo, Path: path}
	}
	if !info.Mode().IsRegular() {
		return "", "", &ValidationError{Reason: ReasonNotFile, Code: CodeNotFile, Path: path}
	}
	if info.Size() > v.maxSize {
		return "", "", &ValidationError{Reason: ReasonTooLarge, Code: CodeTooLarge, Path: path}
	}

	stem = Stem(path)
	prefix = Prefix(stem)
	if !lo.Contains(v.allowedPrefixes, prefix) {
		return "", "", &ValidationError{Reason: ReasonPrefixNotAllowed, Code: CodePrefixNotAllowed, Path: path}
	}
	return prefix, stem, nil
}

// Stem returns the filename without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Prefix derives the routing prefix from a filename stem: the first
// PrefixLength characters of the case-folded, trimmed stem. A shorter stem is
// used whole.
func Prefix(stem string) string {
	folded := strings.ToLower(strings.TrimSpace(stem))
	if len(folded) <= PrefixLength {
		return folded
	}
	return folded[:PrefixLength]
}
