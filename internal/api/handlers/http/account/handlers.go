package account

import (
	"log/slog"
	"net/http"

	"adespota/internal/domain"
	"adespota/internal/middleware"
	"adespota/internal/service"
)

type Handler struct {
	logger       *slog.Logger
	Auth         service.AuthService
	Verification service.VerificationService
	Progress     service.ProgressService
}

func NewHandler(logger *slog.Logger, auth service.AuthService, verification service.VerificationService, progress service.ProgressService) *Handler {
	return &Handler{
		logger:       logger,
		Auth:         auth,
		Verification: verification,
		Progress:     progress,
	}
}

func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)
	l.Debug("SignUp", slog.String("remote", r.RemoteAddr))

	req, _ := middleware.Bound[domain.SignUpRequest](r.Context())
	resp, err := h.Auth.SignUp(r.Context(), req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	l.Info("user signed up", slog.String("user_id", resp.Session.UserID.String()))
	h.writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	req, _ := middleware.Bound[domain.SignInRequest](r.Context())
	sess, err := h.Auth.SignIn(r.Context(), req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, domain.AuthResponse{Session: sess})
}

func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	if err := h.Auth.SignOut(r.Context(), sess); err != nil {
		h.handleError(w, r, err)
		return
	}
	h.log(r).Info("user signed out", slog.String("token_id", sess.TokenID))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) VerificationBegin(w http.ResponseWriter, r *http.Request) {
	status, err := h.Verification.Begin(r.Context(), middleware.SessionFromContext(r.Context()))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, status)
}

func (h *Handler) VerificationStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.Verification.Status(r.Context(), middleware.SessionFromContext(r.Context()))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, status)
}

func (h *Handler) VerificationCode(w http.ResponseWriter, r *http.Request) {
	req, _ := middleware.Bound[domain.CodeRequest](r.Context())
	status, err := h.Verification.SubmitCode(r.Context(), middleware.SessionFromContext(r.Context()), req.Code)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, status)
}

func (h *Handler) VerificationResend(w http.ResponseWriter, r *http.Request) {
	resp, err := h.Verification.Resend(r.Context(), middleware.SessionFromContext(r.Context()))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) VerificationSwitch(w http.ResponseWriter, r *http.Request) {
	status, err := h.Verification.SwitchChannel(r.Context(), middleware.SessionFromContext(r.Context()))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, status)
}

func (h *Handler) MyProgress(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	if !sess.Authenticated() {
		h.handleError(w, r, domain.NewValidationError(domain.KindNotAuthenticated, "Sign in to see your progress"))
		return
	}
	progress, err := h.Progress.Progress(r.Context(), sess.UserID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, progress)
}

func (h *Handler) Ranks(w http.ResponseWriter, r *http.Request) {
	ranks, err := h.Progress.Ranks(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"ranks": ranks})
}
