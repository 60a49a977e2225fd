package uploads

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var ErrNoFile = errors.New("no file")

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

var asciiOnly = transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
	return r > unicode.MaxASCII
})))

// SanitizeFilename reduces a client supplied name to a flat ASCII file name.
func SanitizeFilename(name string) string {
	s, _, err := transform.String(asciiOnly, name)
	if err != nil {
		s = ""
	}
	s = strings.NewReplacer("/", " ", "\\", " ").Replace(s)
	s = strings.Join(strings.Fields(s), "_")
	s = unsafeChars.ReplaceAllString(s, "")
	s = strings.Trim(s, "._")
	if s == "" {
		return "unnamed"
	}
	return s
}

type Store struct {
	Dir string
}

// Save writes the upload under Dir, replacing any file with the same name,
// and returns the slash separated reference stored on the product.
func (s Store) Save(fh *multipart.FileHeader) (string, error) {
	if fh == nil {
		return "", ErrNoFile
	}
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := SanitizeFilename(fh.Filename)
	dst, err := os.Create(filepath.Join(s.Dir, name))
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("close upload: %w", err)
	}
	return path.Join(filepath.ToSlash(s.Dir), name), nil
}
