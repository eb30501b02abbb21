package container

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"trialstats/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Input:    config.InputConfig{File: "trials.csv"},
		Output:   config.OutputConfig{Dir: "out", Formats: []string{"md"}},
		Pipeline: config.PipelineConfig{MaxConcurrency: 2},
		LogLevel: "ERROR",
	}
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	c, err := New(testConfig())
	require.NoError(t, err)
	assert.NotNil(t, c.Service)
	assert.NotNil(t, c.Exporter)
	assert.NotNil(t, c.Hub)
	assert.Nil(t, c.RunRepo)

	loader, err := c.Resolver.Resolve("", "")
	require.NoError(t, err)
	assert.Equal(t, "trials.csv", loader.Source())

	assert.NoError(t, c.Shutdown(context.Background()))
	assert.Error(t, c.InitWithDatabase(context.Background(), nil))
}

func TestContainer_Analyses(t *testing.T) {
	cfg := testConfig()
	c, err := New(cfg)
	require.NoError(t, err)

	analyses, err := c.Analyses()
	require.NoError(t, err)
	require.Len(t, analyses, 1)
	assert.Equal(t, "default", analyses[0].Name)

	path := filepath.Join(t.TempDir(), "analyses.yaml")
	require.NoError(t, os.WriteFile(path, []byte("analyses:\n  - name: knn\n    taxonomy: ternary\n"), 0o644))
	cfg.Input.AnalysesFile = path

	analyses, err = c.Analyses()
	require.NoError(t, err)
	require.Len(t, analyses, 1)
	assert.Equal(t, "knn", analyses[0].Name)
	assert.Equal(t, "ternary", analyses[0].Taxonomy)
}
