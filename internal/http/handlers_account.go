package http

import (
	"net/http"

	"budgetmaster/internal/services"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	target, err := moneyOrZero(req.MonthlySavingsTarget)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	session, err := s.deps.Accounts.Register(r.Context(), services.RegisterInput{
		Email:         req.Email,
		Name:          sanitizeInput(req.Name),
		Password:      req.Password,
		SavingsTarget: target,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{
		Message: "User registered successfully",
		UserID:  session.User.ID,
		Token:   session.Token,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := s.deps.Accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Message: "Login successful",
		UserID:  session.User.ID,
		Name:    session.User.Name,
		Email:   session.User.Email,
		Token:   session.Token,
	})
}
