package http

import (
	"net/http"

	"budgetmaster/internal/core"
	"budgetmaster/internal/services"
)

func (s *Server) handleSetLimits(w http.ResponseWriter, r *http.Request) {
	var req budgetLimitsRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.authorize(w, r, req.UserID) {
		return
	}

	target, err := moneyOrZero(req.MonthlySavingsTarget)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	limits := make([]services.LimitInput, 0, len(req.Limits))
	for _, l := range req.Limits {
		amt, err := core.MoneyFromDecimal(*l.Amount)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		limits = append(limits, services.LimitInput{CategoryID: l.CategoryID, Amount: amt})
	}

	if err := s.deps.Budgets.SetLimits(r.Context(), req.UserID, target, limits); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Budget limits updated successfully"})
}

func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUserID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.authorize(w, r, userID) {
		return
	}

	rows, err := s.deps.Budgets.Status(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]budgetStatusResponse, 0, len(rows))
	for _, st := range rows {
		out = append(out, newBudgetStatusResponse(st))
	}
	writeJSON(w, http.StatusOK, out)
}
