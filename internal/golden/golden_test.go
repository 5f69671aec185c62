package golden

import (
	"bytes"
	"path/filepath"
	"testing"
)

func TestUpdateThenCompareRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.golden.gz")
	data := []byte{0x81, 0x02, 0x2A, 0x00}

	if err := Compare(path, true, data); err != nil {
		t.Fatalf("Compare(update=true): %v", err)
	}
	if err := Compare(path, false, data); err != nil {
		t.Fatalf("Compare(update=false): %v", err)
	}
	if err := Compare(path, false, append(bytes.Clone(data), 0xFF)); err == nil {
		t.Fatal("expected mismatch error for altered data")
	}
}
