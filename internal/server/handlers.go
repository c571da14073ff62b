package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
	"github.com/bobmcallan/folio/internal/services/goals"
	"github.com/bobmcallan/folio/internal/services/ledger"
)

// handleHealth handles GET /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.app.StartupTime).String(),
	})
}

// handlePortfolio handles GET /api/portfolio — the aggregate snapshot.
func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, s.app.Valuation.Overview())
}

// handleHoldings handles GET /api/holdings. Price lookups run behind a
// rate-limit gate, so this call can take a second per holding.
func (s *Server) handleHoldings(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	holdings, err := s.app.Valuation.Holdings(r.Context())
	if err != nil {
		WriteError(w, http.StatusServiceUnavailable, "Holdings computation cancelled: "+err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, holdings)
}

// parseSeriesFilter reads the ?filter= query parameter, defaulting to all.
func parseSeriesFilter(r *http.Request) (models.SeriesFilter, bool) {
	raw := r.URL.Query().Get("filter")
	if raw == "" {
		return models.SeriesAll, true
	}
	filter := models.SeriesFilter(raw)
	return filter, models.ValidSeriesFilter(filter)
}

// handleHistory handles GET /api/history?filter=.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	filter, ok := parseSeriesFilter(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "Invalid filter (expected all, cash, stock, etf, or crypto)")
		return
	}

	WriteJSON(w, http.StatusOK, s.app.Valuation.TimeSeries(filter))
}

// handleHistoryChart handles GET /api/history/chart.png?filter=.
func (s *Server) handleHistoryChart(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	filter, ok := parseSeriesFilter(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "Invalid filter (expected all, cash, stock, etf, or crypto)")
		return
	}

	png, err := s.app.Valuation.RenderChart(filter)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Chart render failed: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// handleTransactions handles GET and POST /api/transactions.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		WriteJSON(w, http.StatusOK, s.app.Ledger.Transactions())

	case http.MethodPost:
		var input interfaces.AddTransactionInput
		if !DecodeJSON(w, r, &input) {
			return
		}
		tx, err := s.app.Ledger.AddTransaction(r.Context(), input)
		if err != nil {
			if errors.Is(err, ledger.ErrValidation) {
				WriteError(w, http.StatusBadRequest, err.Error())
				return
			}
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		WriteJSON(w, http.StatusCreated, tx)

	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

// handleTransactionByID handles DELETE /api/transactions/{id}.
func (s *Server) handleTransactionByID(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}

	id := PathParam(r.URL.Path, "/api/transactions/", "")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Transaction id is required")
		return
	}

	if err := s.app.Ledger.DeleteTransaction(r.Context(), id); err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// cashRequest carries cash mutation payloads. POST applies Amount as a
// signed delta; PUT sets Balance directly.
type cashRequest struct {
	Amount  float64 `json:"amount"`
	Balance float64 `json:"balance"`
}

// cashResponse reports the balance and audit trail.
type cashResponse struct {
	CashBalance float64               `json:"cash_balance"`
	Movements   []models.CashMovement `json:"movements"`
}

// handleCash handles GET, POST (delta), and PUT (set) /api/cash.
func (s *Server) handleCash(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		WriteJSON(w, http.StatusOK, cashResponse{
			CashBalance: s.app.Ledger.CashBalance(),
			Movements:   s.app.Ledger.CashMovements(),
		})

	case http.MethodPost:
		var req cashRequest
		if !DecodeJSON(w, r, &req) {
			return
		}
		movement, err := s.app.Ledger.UpdateCashBalance(r.Context(), req.Amount)
		s.writeCashResult(w, movement, err)

	case http.MethodPut:
		var req cashRequest
		if !DecodeJSON(w, r, &req) {
			return
		}
		movement, err := s.app.Ledger.SetCashBalance(r.Context(), req.Balance)
		s.writeCashResult(w, movement, err)

	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost, http.MethodPut)
	}
}

func (s *Server) writeCashResult(w http.ResponseWriter, movement *models.CashMovement, err error) {
	if err != nil {
		if errors.Is(err, ledger.ErrNegativeBalance) {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, movement)
}

// targetsRequest carries savings target updates. Nil fields are untouched.
type targetsRequest struct {
	MonthlyTarget *float64 `json:"monthly_target"`
	YearlyTarget  *float64 `json:"yearly_target"`
}

// handleTargets handles PUT /api/targets.
func (s *Server) handleTargets(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPut) {
		return
	}

	var req targetsRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	if req.MonthlyTarget != nil {
		if err := s.app.Ledger.SetMonthlyTarget(r.Context(), *req.MonthlyTarget); err != nil {
			s.writeTargetError(w, err)
			return
		}
	}
	if req.YearlyTarget != nil {
		if err := s.app.Ledger.SetYearlyTarget(r.Context(), *req.YearlyTarget); err != nil {
			s.writeTargetError(w, err)
			return
		}
	}

	WriteJSON(w, http.StatusOK, s.app.Valuation.Overview())
}

func (s *Server) writeTargetError(w http.ResponseWriter, err error) {
	if errors.Is(err, ledger.ErrValidation) {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	WriteError(w, http.StatusInternalServerError, err.Error())
}

// goalRequest carries goal create/update payloads.
type goalRequest struct {
	Title         *string  `json:"title"`
	TargetAmount  *float64 `json:"target_amount"`
	CurrentAmount *float64 `json:"current_amount"`
}

// goalView decorates a goal with its computed progress percentage.
type goalView struct {
	models.Goal
	Progress float64 `json:"progress"`
}

// handleGoals handles GET and POST /api/goals.
func (s *Server) handleGoals(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list, err := s.app.Goals.List(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		views := make([]goalView, len(list))
		for i, g := range list {
			views[i] = goalView{Goal: g, Progress: g.Progress()}
		}
		WriteJSON(w, http.StatusOK, views)

	case http.MethodPost:
		var req goalRequest
		if !DecodeJSON(w, r, &req) {
			return
		}
		title := ""
		if req.Title != nil {
			title = *req.Title
		}
		var target, current float64
		if req.TargetAmount != nil {
			target = *req.TargetAmount
		}
		if req.CurrentAmount != nil {
			current = *req.CurrentAmount
		}
		goal, err := s.app.Goals.Add(r.Context(), title, target, current)
		if err != nil {
			s.writeGoalError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, goalView{Goal: *goal, Progress: goal.Progress()})

	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

// handleGoalByID handles PUT and DELETE /api/goals/{id}.
func (s *Server) handleGoalByID(w http.ResponseWriter, r *http.Request) {
	id := PathParam(r.URL.Path, "/api/goals/", "")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Goal id is required")
		return
	}

	switch r.Method {
	case http.MethodPut:
		var req goalRequest
		if !DecodeJSON(w, r, &req) {
			return
		}
		goal, err := s.app.Goals.Update(r.Context(), id, req.Title, req.TargetAmount, req.CurrentAmount)
		if err != nil {
			s.writeGoalError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, goalView{Goal: *goal, Progress: goal.Progress()})

	case http.MethodDelete:
		if err := s.app.Goals.Delete(r.Context(), id); err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		RequireMethod(w, r, http.MethodPut, http.MethodDelete)
	}
}

func (s *Server) writeGoalError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, goals.ErrValidation):
		WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, goals.ErrNotFound):
		WriteError(w, http.StatusNotFound, err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, err.Error())
	}
}

// handleSearch handles GET /api/search?q=&type=.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		WriteError(w, http.StatusBadRequest, "Query parameter 'q' is required")
		return
	}

	assetType := models.AssetTypeOther // searches all venues
	if raw := r.URL.Query().Get("type"); raw != "" {
		assetType = models.NormalizeAssetType(raw)
	}

	results, err := s.app.Gateway.SearchAssets(r.Context(), query, assetType)
	if err != nil {
		WriteError(w, http.StatusBadGateway, "Search failed: "+err.Error())
		return
	}
	if results == nil {
		results = []models.AssetSearchResult{}
	}
	WriteJSON(w, http.StatusOK, results)
}
