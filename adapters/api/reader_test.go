package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"trialstats/domain/core"
	"trialstats/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const measurementsJSON = `[
	{"measurement_id": 7, "room_name": "A", "rssi": -61.5, "interpolated": true, "note": null},
	{"measurement_id": 8, "room_name": "B, east", "rssi": -70, "interpolated": false}
]`

func fetcherFor(t *testing.T, status int, body string) (*BackupFetcher, *int) {
	t.Helper()
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodGet, r.Method)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	cfg := DefaultBackupConfig()
	cfg.URL = srv.URL + "/measurements/all"
	cfg.Dir = t.TempDir()
	return NewBackupFetcher(cfg), &calls
}

func TestBackupFetcher_Fetch(t *testing.T) {
	fetcher, _ := fetcherFor(t, http.StatusOK, measurementsJSON)

	payload, err := fetcher.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"measurement_id", "room_name", "rssi", "interpolated", "note"}, payload.Header)
	require.Len(t, payload.Records, 2)
	assert.Equal(t, "7", payload.Records[0].Get("measurement_id"))
	assert.Equal(t, "-61.5", payload.Records[0].Get("rssi"))
	assert.Equal(t, "True", payload.Records[0].Get("interpolated"))
	assert.Equal(t, "", payload.Records[0].Get("note"))
}

func TestBackupFetcher_NonSuccessIsSingleAttempt(t *testing.T) {
	fetcher, calls := fetcherFor(t, http.StatusServiceUnavailable, "down")

	_, err := fetcher.Fetch(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.CodeExternalService, errors.GetCode(err))
	assert.Contains(t, err.Error(), "status 503")
	assert.Equal(t, 1, *calls)
}

func TestParsePayload_Rejects(t *testing.T) {
	_, err := ParsePayload([]byte(`[]`))
	assert.ErrorIs(t, err, core.ErrEmptyPayload)

	_, err = ParsePayload([]byte(`{"measurements": []}`))
	assert.Error(t, err)

	_, err = ParsePayload([]byte(`[1, 2]`))
	assert.Error(t, err)

	_, err = ParsePayload([]byte(`[{"a":`))
	assert.Error(t, err)
}

func TestWriteCSV(t *testing.T) {
	payload, err := ParsePayload([]byte(measurementsJSON))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, payload))
	assert.Equal(t,
		"measurement_id,room_name,rssi,interpolated,note\n"+
			"7,A,-61.5,True,\n"+
			"8,\"B, east\",-70,False,\n",
		buf.String())
}

func TestWriteCSV_ExtraKeyIsError(t *testing.T) {
	payload, err := ParsePayload([]byte(`[{"a": 1}, {"a": 2, "b": 3}]`))
	require.NoError(t, err)

	assert.Error(t, WriteCSV(&bytes.Buffer{}, payload))
}

func TestBackupFilename(t *testing.T) {
	at := time.Date(2024, 5, 17, 9, 3, 4, 0, time.Local)
	assert.Equal(t, "backup_wifi_fingerprints_virtual_machine_2024-05-17_09-03-04.csv", BackupFilename(DefaultFilePrefix, at))
}

func TestBackupFetcher_Save(t *testing.T) {
	fetcher, _ := fetcherFor(t, http.StatusOK, measurementsJSON)
	fixed := time.Date(2024, 5, 17, 9, 3, 4, 0, time.Local)
	fetcher.now = func() time.Time { return fixed }

	path, err := fetcher.Save(context.Background())
	require.NoError(t, err)

	assert.Equal(t, BackupFilename(DefaultFilePrefix, fixed), filepath.Base(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "measurement_id,room_name,rssi,interpolated,note\n")
}

func TestBackupConfig_Validate(t *testing.T) {
	cfg := DefaultBackupConfig()
	assert.Error(t, cfg.Validate())

	cfg.URL = "ftp://host/measurements"
	assert.Error(t, cfg.Validate())

	cfg.URL = "http://10.0.0.5:8080/measurements/all"
	assert.NoError(t, cfg.Validate())
}
