package scraper

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"
)

// Artifact is the tabular result of a completed run.
type Artifact struct {
	Data     []byte
	FileName string
}

// Row is one result line: the attributed author and the comma-joined new
// values that block contributed.
type Row struct {
	Author string
	Phones string
}

// buildArtifact serializes rows as CSV (header plus one line per row, quotes
// doubled per RFC 4180) under a timestamped filename.
func buildArtifact(rows []Row, now time.Time) (*Artifact, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"postUser", "postPhones"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range rows {
		if err := w.Write([]string{r.Author, r.Phones}); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}

	stamp := strings.NewReplacer(":", "-", ".", "-").
		Replace(now.UTC().Format("2006-01-02T15:04:05.000Z"))

	return &Artifact{
		Data:     buf.Bytes(),
		FileName: fmt.Sprintf("group_extract_%s.csv", stamp),
	}, nil
}
