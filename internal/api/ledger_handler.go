package api

import (
	"net/http"
	"strings"

	"equivproof/domain/core"
	"equivproof/domain/verdict"
	"equivproof/ports"

	"github.com/gin-gonic/gin"
)

// TargetSummary is one row of the target listing.
type TargetSummary struct {
	Target       core.TargetID `json:"target"`
	CurrentLevel verdict.Level `json:"current_level"`
	HighestLevel verdict.Level `json:"highest_level"`
	Attempts     int           `json:"attempts"`
}

// LedgerHandler serves read-only ledger queries
type LedgerHandler struct {
	reader ports.LedgerReaderPort
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(reader ports.LedgerReaderPort) *LedgerHandler {
	return &LedgerHandler{reader: reader}
}

// Summaries lists every target with its levels, sorted by target.
func Summaries(reader ports.LedgerReaderPort) []TargetSummary {
	targets := reader.Targets()
	out := make([]TargetSummary, 0, len(targets))
	for _, t := range targets {
		out = append(out, TargetSummary{
			Target:       t,
			CurrentLevel: reader.GetLevel(t),
			HighestLevel: reader.HighestLevel(t),
			Attempts:     len(reader.History(t)),
		})
	}
	return out
}

// ListTargets returns every target with its levels
func (h *LedgerHandler) ListTargets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"targets": Summaries(h.reader)})
}

// GetTarget returns one target's record in the export format. Target names
// may contain slashes, so the route uses a catch-all parameter.
func (h *LedgerHandler) GetTarget(c *gin.Context) {
	target, err := core.ParseTargetID(strings.TrimPrefix(c.Param("target"), "/"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	history := h.reader.History(target)
	if len(history) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Target not found"})
		return
	}
	c.JSON(http.StatusOK, verdict.Record{History: history, CurrentLevel: h.reader.GetLevel(target)})
}

// NewRouter registers the ledger API under /api
func NewRouter(reader ports.LedgerReaderPort) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	h := NewLedgerHandler(reader)
	api := r.Group("/api")
	api.GET("/targets", h.ListTargets)
	api.GET("/targets/*target", h.GetTarget)
	return r
}
