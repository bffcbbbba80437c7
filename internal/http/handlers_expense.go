package http

import (
	"errors"
	"net/http"

	"budgetmaster/internal/core"
)

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.deps.Expenses.ListCategories(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]categoryResponse, 0, len(cats))
	for _, c := range cats {
		out = append(out, categoryResponse{ID: c.ID, Name: c.Name, Icon: c.Icon, Color: c.Color})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.authorize(w, r, req.UserID) {
		return
	}

	amt, err := core.MoneyFromDecimal(*req.Amount)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	exp := core.Expense{
		UserID:      req.UserID,
		CategoryID:  req.CategoryID,
		Amount:      amt,
		Description: sanitizeInput(req.Description),
	}
	// Empty date means today; the service fills it in.
	if req.ExpenseDate != "" {
		d, err := core.ParseDate(req.ExpenseDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		exp.Date = d
	}

	id, err := s.deps.Expenses.CreateExpense(r.Context(), exp)
	if errors.Is(err, core.ErrUserNotFound) {
		// An unknown user here is a bad reference in the body, not a missing resource.
		writeError(w, http.StatusBadRequest, "User not found")
		return
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, createExpenseResponse{
		Message:   "Expense added successfully",
		ExpenseID: id,
	})
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUserID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.authorize(w, r, userID) {
		return
	}

	expenses, err := s.deps.Expenses.ListExpenses(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]expenseResponse, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, newExpenseResponse(e))
	}
	writeJSON(w, http.StatusOK, out)
}
