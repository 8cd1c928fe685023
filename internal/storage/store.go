package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"unicode"

	"github.com/localnerve/sqcb-service/internal/config"
	"golang.org/x/text/unicode/norm"
)

// FileStore persists uploaded blobs and hands back the address recorded in the database
type FileStore interface {
	// Save writes r under name and returns the stored address
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	// Remove deletes a blob previously returned by Save
	Remove(ctx context.Context, address string) error
	// Check verifies the store is writable
	Check(ctx context.Context) error
}

// New builds the file store selected by STORAGE_TYPE
func New(ctx context.Context, cfg *config.Config) (FileStore, error) {
	switch cfg.StorageType {
	case "local":
		return NewLocalStore(cfg.UploadDir)
	case "s3":
		return NewS3Store(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3Prefix)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.StorageType)
	}
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SecureFilename reduces an uploaded filename to a flat ASCII name safe for any store.
// Path components are dropped, accents are folded, whitespace becomes "_".
// Returns "" when nothing usable remains.
func SecureFilename(filename string) string {
	filename = strings.ReplaceAll(filename, "\\", "/")
	filename = path.Base(filename)

	var b strings.Builder
	for _, r := range norm.NFKD.String(filename) {
		switch {
		case unicode.Is(unicode.Mn, r):
			// combining mark left over from folding
		case unicode.IsSpace(r):
			b.WriteRune('_')
		case r < unicode.MaxASCII:
			b.WriteRune(r)
		}
	}

	name := unsafeFilenameChars.ReplaceAllString(b.String(), "")
	name = strings.Trim(name, "._")
	return name
}

// Ext returns the lower-cased extension of filename without the dot
func Ext(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 || idx == len(filename)-1 {
		return ""
	}
	return strings.ToLower(filename[idx+1:])
}
