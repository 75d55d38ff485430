package reporting

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"adespota/internal/domain"
	"adespota/internal/middleware"
	"adespota/internal/service"
	"adespota/internal/share"
	"adespota/internal/wizard"
)

type Handler struct {
	logger  *slog.Logger
	Wizards service.WizardService
	Reports service.ReportService
}

func NewHandler(logger *slog.Logger, wizards service.WizardService, reports service.ReportService) *Handler {
	return &Handler{
		logger:  logger,
		Wizards: wizards,
		Reports: reports,
	}
}

func (h *Handler) WizardStart(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Wizards.Start(r.Context(), middleware.SessionFromContext(r.Context()))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.log(r).Debug("wizard started", slog.String("wizard_id", snap.ID.String()))
	h.writeJSON(w, http.StatusCreated, snap)
}

func (h *Handler) WizardGet(w http.ResponseWriter, r *http.Request) {
	h.withWizard(w, r, func(sess *domain.Session, id uuid.UUID) (wizard.Snapshot, error) {
		return h.Wizards.Get(r.Context(), sess, id)
	})
}

func (h *Handler) WizardUpdateDraft(w http.ResponseWriter, r *http.Request) {
	patch, _ := middleware.Bound[domain.DraftPatch](r.Context())
	h.withWizard(w, r, func(sess *domain.Session, id uuid.UUID) (wizard.Snapshot, error) {
		return h.Wizards.UpdateDraft(r.Context(), sess, id, patch)
	})
}

func (h *Handler) WizardToggleTag(w http.ResponseWriter, r *http.Request) {
	tag := domain.Tag(chi.URLParam(r, "tag"))
	h.withWizard(w, r, func(sess *domain.Session, id uuid.UUID) (wizard.Snapshot, error) {
		return h.Wizards.ToggleTag(r.Context(), sess, id, tag)
	})
}

func (h *Handler) WizardSetImage(w http.ResponseWriter, r *http.Request) {
	req, _ := middleware.Bound[domain.ImageRequest](r.Context())
	h.withWizard(w, r, func(sess *domain.Session, id uuid.UUID) (wizard.Snapshot, error) {
		return h.Wizards.SetImage(r.Context(), sess, id, req.DataURI)
	})
}

func (h *Handler) WizardLocation(w http.ResponseWriter, r *http.Request) {
	req, _ := middleware.Bound[domain.LocationRequest](r.Context())
	h.withWizard(w, r, func(sess *domain.Session, id uuid.UUID) (wizard.Snapshot, error) {
		return h.Wizards.CaptureLocation(r.Context(), sess, id, req)
	})
}

func (h *Handler) WizardAdvance(w http.ResponseWriter, r *http.Request) {
	h.withWizard(w, r, func(sess *domain.Session, id uuid.UUID) (wizard.Snapshot, error) {
		return h.Wizards.Advance(r.Context(), sess, id)
	})
}

func (h *Handler) WizardBack(w http.ResponseWriter, r *http.Request) {
	h.withWizard(w, r, func(sess *domain.Session, id uuid.UUID) (wizard.Snapshot, error) {
		return h.Wizards.Back(r.Context(), sess, id)
	})
}

func (h *Handler) WizardSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := h.wizardID(w, r)
	if !ok {
		return
	}

	report, err := h.Wizards.Submit(r.Context(), middleware.SessionFromContext(r.Context()), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.log(r).Info("report created", slog.String("report_id", report.ID.String()))
	h.writeJSON(w, http.StatusCreated, report)
}

func (h *Handler) WizardDiscard(w http.ResponseWriter, r *http.Request) {
	id, ok := h.wizardID(w, r)
	if !ok {
		return
	}
	if err := h.Wizards.Discard(r.Context(), middleware.SessionFromContext(r.Context()), id); err != nil {
		h.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.Reports.Dashboard(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, dash)
}

func (h *Handler) ShareLink(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	platform := share.Platform(r.URL.Query().Get("platform"))
	if platform == "" {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "platform is required"})
		return
	}

	link, err := h.Reports.ShareLink(r.Context(), id, platform)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, link)
}

func (h *Handler) withWizard(w http.ResponseWriter, r *http.Request, fn func(sess *domain.Session, id uuid.UUID) (wizard.Snapshot, error)) {
	id, ok := h.wizardID(w, r)
	if !ok {
		return
	}
	snap, err := fn(middleware.SessionFromContext(r.Context()), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) wizardID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	return h.pathID(w, r, "id")
}
