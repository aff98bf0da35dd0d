// Package keyloader provisions the key pool: it generates keys in the
// product-key format, reads key CSVs from disk or S3, and inserts them in
// paced batches.
package keyloader

import (
	"crypto/rand"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

const (
	// CSVHeader is the column title written above generated keys.
	CSVHeader = "Product Key"

	alphabet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	groups    = 5
	groupSize = 5
)

var keyPattern = regexp.MustCompile(`^[A-Z0-9]{5}(-[A-Z0-9]{5}){4}$`)

// Valid reports whether token looks like XXXXX-XXXXX-XXXXX-XXXXX-XXXXX.
func Valid(token string) bool {
	return keyPattern.MatchString(token)
}

// randReader is a seam for tests.
var randReader io.Reader = rand.Reader

// NewKey draws one key uniformly from the alphabet.
func NewKey() (string, error) {
	var sb strings.Builder
	sb.Grow(groups*groupSize + groups - 1)

	// 252 is the largest multiple of len(alphabet) below 256
	const limit = 256 - 256%len(alphabet)
	buf := make([]byte, 1)
	for n := 0; n < groups*groupSize; {
		if _, err := io.ReadFull(randReader, buf); err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		if int(buf[0]) >= limit {
			continue
		}
		if n > 0 && n%groupSize == 0 {
			sb.WriteByte('-')
		}
		sb.WriteByte(alphabet[int(buf[0])%len(alphabet)])
		n++
	}
	return sb.String(), nil
}

// Generate returns n distinct keys.
func Generate(n int) ([]string, error) {
	if n < 0 {
		return nil, errors.New("negative key count")
	}
	seen := make(map[string]struct{}, n)
	out := make([]string, 0, n)
	for len(out) < n {
		k, err := NewKey()
		if err != nil {
			return nil, err
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out, nil
}

// WriteCSV writes keys under the CSVHeader column.
func WriteCSV(w io.Writer, keys []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{CSVHeader}); err != nil {
		return err
	}
	for _, k := range keys {
		if err := cw.Write([]string{k}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ParseCSV reads keys from the first column of r. A leading header row is
// skipped, blank rows are ignored and duplicates are dropped keeping the
// first occurrence. Any other malformed key fails the whole parse.
func ParseCSV(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var (
		out  []string
		seen = make(map[string]struct{})
		line int
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line++

		if len(rec) == 0 {
			continue
		}
		token := strings.TrimSpace(strings.TrimPrefix(rec[0], "\ufeff"))
		if token == "" {
			continue
		}
		if line == 1 && strings.EqualFold(token, CSVHeader) {
			continue
		}
		if !Valid(token) {
			return nil, fmt.Errorf("line %d: malformed key %q", line, token)
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	return out, nil
}
