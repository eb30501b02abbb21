package api

import (
	"context"
	"fmt"
	"net/http"

	"trialstats/adapters/datareadiness/coercer"
	"trialstats/adapters/excel"
	"trialstats/app"
	"trialstats/domain/trial"
	"trialstats/internal/config"
	"trialstats/internal/errors"
	"trialstats/ports"

	"github.com/gin-gonic/gin"
)

// AnalysisRunner is the part of the analysis service the handlers use
type AnalysisRunner interface {
	Run(ctx context.Context, a config.Analysis) (*app.Report, error)
	RunWithLoader(ctx context.Context, a config.Analysis, loader ports.TableLoader) (*app.Report, error)
}

// AnalysisHandler serves configured analyses and ad-hoc uploads
type AnalysisHandler struct {
	runner   AnalysisRunner
	analyses []config.Analysis
	hub      *RunHub
	coercion coercer.CoercionConfig
}

// NewAnalysisHandler creates a handler. hub may be nil.
func NewAnalysisHandler(runner AnalysisRunner, analyses []config.Analysis, hub *RunHub) *AnalysisHandler {
	return &AnalysisHandler{
		runner:   runner,
		analyses: analyses,
		hub:      hub,
		coercion: coercer.DefaultCoercionConfig(),
	}
}

type analysisInfo struct {
	Name           string `json:"name"`
	Input          string `json:"input,omitempty"`
	Query          string `json:"query,omitempty"`
	Taxonomy       string `json:"taxonomy"`
	DefinitionHash string `json:"definition_hash"`
	Pivots         int    `json:"pivots"`
}

// ListAnalyses returns the configured analysis definitions
func (h *AnalysisHandler) ListAnalyses(c *gin.Context) {
	out := make([]analysisInfo, len(h.analyses))
	for i, a := range h.analyses {
		taxonomy := a.Taxonomy
		if taxonomy == "" {
			taxonomy = string(trial.TaxonomyBinary)
		}
		out[i] = analysisInfo{
			Name:           a.Name,
			Input:          a.Input,
			Query:          a.Query,
			Taxonomy:       taxonomy,
			DefinitionHash: a.Hash().String(),
			Pivots:         len(a.Pivots),
		}
	}
	c.JSON(http.StatusOK, gin.H{"analyses": out})
}

// RunAnalysis runs one configured analysis against its own input
func (h *AnalysisHandler) RunAnalysis(c *gin.Context) {
	a, ok := h.find(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("analysis %q not found", c.Param("name"))})
		return
	}

	report, err := h.runner.Run(c.Request.Context(), a)
	h.publish(a.Name, report, err)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Upload runs an analysis over an uploaded CSV file. The multipart form
// carries the file in "file"; "analysis" picks a configured definition and
// "taxonomy" overrides its outcome taxonomy.
func (h *AnalysisHandler) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		respondError(c, errors.InvalidInput(`multipart field "file" is required`))
		return
	}

	a := config.DefaultAnalysis(fh.Filename)
	a.Name = "upload"
	if name := c.PostForm("analysis"); name != "" {
		def, ok := h.find(name)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("analysis %q not found", name)})
			return
		}
		a = def
	}
	if taxonomy := c.PostForm("taxonomy"); taxonomy != "" {
		if _, err := trial.ParseTaxonomy(taxonomy); err != nil {
			respondError(c, errors.InvalidInput(err.Error()))
			return
		}
		a.Taxonomy = taxonomy
	}
	a.Input, a.Query = fh.Filename, ""

	f, err := fh.Open()
	if err != nil {
		respondError(c, errors.LoadFailed(fh.Filename, err))
		return
	}
	defer f.Close()

	table, err := excel.ParseCSV(f, h.coercion)
	if err != nil {
		respondError(c, errors.LoadFailed(fh.Filename, err))
		return
	}

	report, err := h.runner.RunWithLoader(c.Request.Context(), a, app.NewStaticLoader(fh.Filename, table, nil))
	h.publish(a.Name, report, err)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *AnalysisHandler) find(name string) (config.Analysis, bool) {
	for _, a := range h.analyses {
		if a.Name == name {
			return a, true
		}
	}
	return config.Analysis{}, false
}

func (h *AnalysisHandler) publish(analysis string, report *app.Report, err error) {
	if h.hub != nil {
		h.hub.Broadcast(NewRunEvent(analysis, report, err))
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(errors.HTTPStatus(err), gin.H{
		"error": err.Error(),
		"code":  errors.GetCode(err),
	})
}
