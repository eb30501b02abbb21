package api

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"trialstats/domain/core"
	"trialstats/internal/errors"

	"github.com/tidwall/gjson"
)

// BackupFetcher downloads the full measurement list from the collection server
type BackupFetcher struct {
	config     BackupConfig
	httpClient *http.Client
	now        func() time.Time
}

// NewBackupFetcher creates a fetcher; the client timeout comes from config
func NewBackupFetcher(config BackupConfig) *BackupFetcher {
	return &BackupFetcher{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		now: time.Now,
	}
}

// Fetch performs a single GET. A transport failure or a non-2xx status is an
// EXTERNAL_SERVICE_ERROR; nothing is retried.
func (f *BackupFetcher) Fetch(ctx context.Context) (*Payload, error) {
	startTime := f.now()
	log.Printf("[Backup] Fetching measurements from %s", f.config.URL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.config.URL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build backup request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, errors.ExternalServiceError("backup", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.ExternalServiceError("backup", fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.ExternalServiceError("backup", fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(body), 200)))
	}

	payload, err := ParsePayload(body)
	if err != nil {
		return nil, errors.ExternalServiceError("backup", err)
	}
	payload.URL = f.config.URL
	payload.FetchedAt = startTime
	payload.Duration = time.Since(startTime)

	log.Printf("[Backup] Received %d records (%d columns) in %.2fms",
		len(payload.Records), len(payload.Header), float64(payload.Duration.Nanoseconds())/1e6)
	return payload, nil
}

// ParsePayload reads a JSON array of flat objects, keeping each object's key
// order. Strings are taken verbatim, null becomes empty, booleans are written
// True/False and any other value keeps its JSON text.
func ParsePayload(body []byte) (*Payload, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("response is not valid JSON")
	}
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return nil, fmt.Errorf("expected a JSON array of records, got %s", root.Type)
	}

	payload := &Payload{}
	var parseErr error
	root.ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() {
			parseErr = fmt.Errorf("record %d is not an object", len(payload.Records))
			return false
		}
		rec := Record{Values: make(map[string]string)}
		item.ForEach(func(key, value gjson.Result) bool {
			if _, dup := rec.Values[key.Str]; !dup {
				rec.Keys = append(rec.Keys, key.Str)
			}
			rec.Values[key.Str] = cellText(value)
			return true
		})
		payload.Records = append(payload.Records, rec)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	if len(payload.Records) == 0 {
		return nil, core.ErrEmptyPayload
	}
	payload.Header = append([]string{}, payload.Records[0].Keys...)
	return payload, nil
}

func cellText(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return v.Str
	case gjson.Null:
		return ""
	case gjson.True:
		return "True"
	case gjson.False:
		return "False"
	default:
		return v.Raw
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
