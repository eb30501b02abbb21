package api

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"trialstats/internal/errors"
)

// BackupFilename is <prefix>_<YYYY-MM-DD_HH-MM-SS>.csv in local time.
func BackupFilename(prefix string, at time.Time) string {
	return fmt.Sprintf("%s_%s.csv", prefix, at.Format("2006-01-02_15-04-05"))
}

// WriteCSV writes the payload with its header row. A record lacking a header
// key gets an empty cell; a record carrying a key outside the header is an
// error.
func WriteCSV(w io.Writer, p *Payload) error {
	header := make(map[string]bool, len(p.Header))
	for _, k := range p.Header {
		header[k] = true
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(p.Header); err != nil {
		return err
	}
	for i, rec := range p.Records {
		for _, k := range rec.Keys {
			if !header[k] {
				return fmt.Errorf("record %d has field %q not in header", i, k)
			}
		}
		row := make([]string, len(p.Header))
		for j, k := range p.Header {
			row[j] = rec.Get(k)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Save fetches a backup and writes it under the configured directory,
// returning the file path.
func (f *BackupFetcher) Save(ctx context.Context) (string, error) {
	payload, err := f.Fetch(ctx)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(f.config.Dir, 0o755); err != nil {
		return "", errors.Wrap(err, "failed to create backup directory")
	}
	path := filepath.Join(f.config.Dir, BackupFilename(f.config.FilePrefix, payload.FetchedAt))

	file, err := os.Create(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to create %s", path)
	}
	if err := WriteCSV(file, payload); err != nil {
		file.Close()
		os.Remove(path)
		return "", errors.Wrapf(err, "failed to write %s", path)
	}
	if err := file.Close(); err != nil {
		return "", errors.Wrapf(err, "failed to close %s", path)
	}

	log.Printf("[Backup] Data saved to %s", path)
	return path, nil
}
