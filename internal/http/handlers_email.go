package http

import (
	"net/http"
	"strings"

	"budgetmaster/internal/log"
)

const (
	defaultTestSubject = "Budget Tracker - Test Email"
	defaultTestMessage = "This is a test email from Budget Tracker"
	sendFailedMessage  = "Failed to send email. Check EMAIL_USER and EMAIL_PASSWORD in .env"
)

func (s *Server) handleTestEmail(w http.ResponseWriter, r *http.Request) {
	var req testEmailRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	to := strings.TrimSpace(req.ToEmail)
	if to == "" {
		writeError(w, http.StatusBadRequest, "Email address required")
		return
	}
	subject := req.Subject
	if subject == "" {
		subject = defaultTestSubject
	}
	body := req.Message
	if body == "" {
		body = defaultTestMessage
	}

	if s.deps.Email == nil {
		writeError(w, http.StatusInternalServerError, sendFailedMessage)
		return
	}
	if err := s.deps.Email.Send(r.Context(), to, subject, body); err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentMail).WarnContext(r.Context(), "Test email failed",
			log.FieldRecipient, to,
			log.FieldError, err)
		writeError(w, http.StatusInternalServerError, sendFailedMessage)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Email sent successfully!"})
}

func (s *Server) handleDebugEmailConfig(w http.ResponseWriter, r *http.Request) {
	if s.deps.MailConfig == nil {
		writeError(w, http.StatusNotFound, "Email is not configured")
		return
	}
	writeJSON(w, http.StatusOK, s.deps.MailConfig.Describe())
}
