package http

import (
	"net/http"

	"finansmart/internal/core"
)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	txs, err := s.filteredTransactions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, core.Summarize(txs))
}

func (s *Server) handleCategoryBreakdown(w http.ResponseWriter, r *http.Request) {
	txs, err := s.filteredTransactions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	buckets := core.CategoryBreakdown(txs)
	if buckets == nil {
		buckets = []core.CategoryBucket{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"buckets": buckets,
		"palette": core.Palette,
	})
}

func (s *Server) handleTimeSeries(w http.ResponseWriter, r *http.Request) {
	txs, err := s.filteredTransactions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	points := core.TimeSeries(txs, s.seriesOpts)
	if points == nil {
		points = []core.TimeSeriesPoint{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"points": points})
}
