// Package golden implements the repo's golden-file fixture idiom, adapted
// from the teacher's bspline-specific golden-curve comparison to raw byte
// fixtures for wire-level round trips (M-sequence frames, ISDU streams):
// the same gzip-compressed-fixture-plus-update-flag shape, generalized from
// one concrete payload type to any []byte.
package golden

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
)

// Compare checks got against the gzip-compressed fixture at path. With
// update set, it instead (re)writes the fixture from got — the same
// update-in-place workflow the teacher's CompareBSpline used for its SVG
// golden files.
func Compare(path string, update bool, got []byte) error {
	if update {
		return write(path, got)
	}
	want, err := read(path)
	if err != nil {
		return err
	}
	if !bytes.Equal(got, want) {
		return fmt.Errorf("%s: golden mismatch: got %d bytes, want %d bytes", path, len(got), len(want))
	}
	return nil
}

func read(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

func write(path string, data []byte) error {
	buf := new(bytes.Buffer)
	w, err := gzip.NewWriterLevel(buf, gzip.BestCompression)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o640)
}
