package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bobmcallan/tradebook/internal/common"
	"github.com/bobmcallan/tradebook/internal/models"
	"github.com/bobmcallan/tradebook/internal/services/position"
)

// positionDisplay carries money fields formatted in the display currency.
type positionDisplay struct {
	Currency         string `json:"currency"`
	AveragePrice     string `json:"average_price"`
	MarkPrice        string `json:"mark_price"`
	CostBasis        string `json:"cost_basis"`
	UnrealizedPnL    string `json:"unrealized_pnl"`
	UnrealizedPnLPct string `json:"unrealized_pnl_pct"`
}

type positionView struct {
	*models.Position
	Display positionDisplay `json:"display"`
}

type orderResponse struct {
	Action    models.Action `json:"action"`
	Overdraft bool          `json:"overdraft,omitempty"`
	Position  positionView  `json:"position"`
}

type consolidationResponse struct {
	DryRun bool `json:"dry_run"`
	*models.Consolidation
}

func (s *Server) view(p *models.Position) positionView {
	cur := s.app.Config.DisplayCurrency
	return positionView{
		Position: p,
		Display: positionDisplay{
			Currency:         cur,
			AveragePrice:     common.FormatMoney(p.AveragePrice, cur),
			MarkPrice:        common.FormatMoney(p.MarkPrice, cur),
			CostBasis:        common.FormatMoney(p.CostBasis(), cur),
			UnrealizedPnL:    common.FormatMoney(p.UnrealizedPnL, cur),
			UnrealizedPnLPct: common.FormatPercent(p.UnrealizedPnLPct),
		},
	}
}

// writeServiceError maps reconciliation and store errors onto HTTP statuses.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidOrder):
		WriteErrorWithCode(w, http.StatusBadRequest, err.Error(), "invalid_order")
	case errors.Is(err, models.ErrOrderNotExecuted):
		WriteErrorWithCode(w, http.StatusUnprocessableEntity, err.Error(), "order_not_executed")
	case errors.Is(err, models.ErrNoPositionToSell):
		WriteErrorWithCode(w, http.StatusConflict, err.Error(), "no_position_to_sell")
	case errors.Is(err, models.ErrOverdraft):
		WriteErrorWithCode(w, http.StatusConflict, err.Error(), "overdraft")
	case errors.Is(err, models.ErrShortPosition):
		WriteErrorWithCode(w, http.StatusConflict, err.Error(), "short_position")
	case errors.Is(err, models.ErrPositionNotFound):
		WriteErrorWithCode(w, http.StatusNotFound, err.Error(), "not_found")
	case models.IsStoreError(err):
		s.logger.Error().Err(err).Msg("Position store failure")
		WriteErrorWithCode(w, http.StatusInternalServerError, "Position store unavailable", "store_error")
	default:
		s.logger.Error().Err(err).Msg("Unexpected position service error")
		WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// handlePositionList handles GET /api/positions.
func (s *Server) handlePositionList(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	positions, err := s.app.PositionService.Positions(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	views := make([]positionView, len(positions))
	for i, p := range positions {
		views[i] = s.view(p)
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"positions": views,
		"count":     len(views),
	})
}

// handlePositionGet handles GET /api/positions/{instrument}.
func (s *Server) handlePositionGet(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	instrument := strings.TrimSpace(PathParam(r, "/api/positions/", ""))
	if instrument == "" {
		WriteError(w, http.StatusBadRequest, "instrument is required")
		return
	}

	p, err := s.app.PositionService.Position(r.Context(), instrument)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, s.view(p))
}

// handleOrderExecute handles POST /api/orders/execute with one order.
func (s *Server) handleOrderExecute(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var order models.Order
	if !DecodeJSON(w, r, &order) {
		return
	}
	order.Normalize()

	outcome, err := s.app.PositionService.ApplyOrder(r.Context(), order)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	status := http.StatusOK
	if outcome.Action == models.ActionCreated {
		status = http.StatusCreated
	}
	WriteJSON(w, status, orderResponse{
		Action:    outcome.Action,
		Overdraft: outcome.Overdraft,
		Position:  s.view(outcome.Position),
	})
}

// handleOrderBatch handles POST /api/orders/batch with one JSON order per
// line. Rejected orders are reported alongside the applied ones with 207.
func (s *Server) handleOrderBatch(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if r.Body == nil {
		WriteError(w, http.StatusBadRequest, "Request body is required")
		return
	}
	body := http.MaxBytesReader(w, r.Body, 16<<20)

	report, err := s.app.PositionService.ApplyAll(r.Context(), position.NewJSONLSource(body))
	if err != nil {
		s.logger.Error().Err(err).Int("applied", report.Applied).Msg("Order batch stopped")
		WriteJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error":  "Order batch stopped: " + err.Error(),
			"code":   "batch_stopped",
			"report": report,
		})
		return
	}

	status := http.StatusOK
	if len(report.Failures) > 0 {
		status = http.StatusMultiStatus
	}
	WriteJSON(w, status, report)
}

// handleAdminDuplicates handles GET /api/admin/positions/duplicates.
func (s *Server) handleAdminDuplicates(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	groups, err := s.app.PositionService.Duplicates(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"groups": groups,
		"count":  len(groups),
	})
}

// handleAdminConsolidate handles POST /api/admin/positions/consolidate.
// ?dry_run=true previews the merge without writing.
func (s *Server) handleAdminConsolidate(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	dryRun := QueryBool(r, "dry_run")

	var (
		result *models.Consolidation
		err    error
	)
	if dryRun {
		result, err = s.app.PositionService.PreviewConsolidation(r.Context())
	} else {
		result, err = s.app.PositionService.ConsolidateAll(r.Context())
	}
	if err != nil && result != nil {
		s.logger.Error().Err(err).Int("groups", len(result.Groups)).Msg("Consolidation stopped")
		WriteJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error":  "Consolidation stopped: " + err.Error(),
			"code":   "consolidation_stopped",
			"report": consolidationResponse{DryRun: dryRun, Consolidation: result},
		})
		return
	}
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	status := http.StatusOK
	if len(result.Failures) > 0 {
		status = http.StatusMultiStatus
	}
	WriteJSON(w, status, consolidationResponse{DryRun: dryRun, Consolidation: result})
}
