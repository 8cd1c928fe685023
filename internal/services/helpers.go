package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Upper bound on IN list parameters per statement; SQL Server allows about 2100
const inChunkSize = 500

// inChunks calls fn for successive slices of values no longer than inChunkSize
func inChunks(values []string, fn func(chunk []string) error) error {
	for start := 0; start < len(values); start += inChunkSize {
		end := min(start+inChunkSize, len(values))
		if err := fn(values[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// unique drops repeated values, keeping first occurrences in order
func unique(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// isDuplicateKey reports a unique constraint violation. Not every driver translates errors.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "duplicate key")
}

// nilIfBlank converts empty input to NULL
func nilIfBlank(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
