package subscription

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/inkwell-books/inkwell/internal/auth"
	"github.com/inkwell-books/inkwell/internal/authz"
	"github.com/inkwell-books/inkwell/internal/platform/httpx"
	"github.com/inkwell-books/inkwell/internal/shared"
)

// Handler manages subscription endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	authz     authz.Middleware
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, authz: mw, validator: validator.New()}
}

// MountRoutes registers subscription routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/plans", h.listPlans)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth)
		r.Post("/", h.subscribe)
		r.Get("/current", h.current)
		r.Get("/history", h.history)
		r.Delete("/current", h.cancel)
		r.Put("/auto-renew", h.setAutoRenew)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireRole(authz.RoleAdmin))
		r.Get("/{id}", h.get)
		r.Put("/{id}/extend", h.extend)
		r.Put("/{id}/status", h.setStatus)
	})
}

type subscriptionResponse struct {
	ID                int64  `json:"id"`
	UserID            int64  `json:"user_id"`
	PlanID            string `json:"plan_id"`
	Status            string `json:"status"`
	StartDate         string `json:"start_date"`
	EndDate           string `json:"end_date"`
	AutoRenew         bool   `json:"auto_renew"`
	PaymentID         string `json:"payment_id"`
	EffectivelyActive bool   `json:"effectively_active"`
}

func toResponse(sub Subscription) subscriptionResponse {
	return subscriptionResponse{
		ID:                sub.ID,
		UserID:            sub.UserID,
		PlanID:            sub.PlanID,
		Status:            string(sub.Status),
		StartDate:         sub.StartDate.UTC().Format("2006-01-02T15:04:05Z07:00"),
		EndDate:           sub.EndDate.UTC().Format("2006-01-02T15:04:05Z07:00"),
		AutoRenew:         sub.AutoRenew,
		PaymentID:         sub.PaymentID,
		EffectivelyActive: sub.EffectivelyActive(),
	}
}

func (h *Handler) listPlans(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"plans": h.service.Plans()})
}

type subscribeRequest struct {
	PlanID    string `json:"plan_id" validate:"required"`
	PaymentID string `json:"payment_id"`
	AutoRenew bool   `json:"auto_renew"`
}

func (h *Handler) subscribe(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	var req subscribeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", err.Error())
		return
	}
	sub, err := h.service.Subscribe(r.Context(), *principal, req.PlanID, req.PaymentID, req.AutoRenew)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(sub))
}

func (h *Handler) current(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	sub, effective, err := h.service.Current(r.Context(), *principal)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	resp := toResponse(sub)
	resp.EffectivelyActive = effective
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	subs, err := h.service.History(r.Context(), *principal)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	items := make([]subscriptionResponse, len(subs))
	for i, sub := range subs {
		items[i] = toResponse(sub)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"subscriptions": items})
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	sub, err := h.service.Cancel(r.Context(), *principal)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(sub))
}

type autoRenewRequest struct {
	AutoRenew *bool `json:"auto_renew" validate:"required"`
}

func (h *Handler) setAutoRenew(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	var req autoRenewRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", err.Error())
		return
	}
	sub, err := h.service.SetAutoRenew(r.Context(), *principal, *req.AutoRenew)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(sub))
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, shared.ErrInvalidArgument
	}
	return id, nil
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	sub, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(sub))
}

type extendRequest struct {
	Days int `json:"days" validate:"required"`
}

func (h *Handler) extend(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req extendRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "malformed JSON body")
		return
	}
	sub, err := h.service.Extend(r.Context(), *principal, id, req.Days)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(sub))
}

type setStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req setStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", err.Error())
		return
	}
	sub, err := h.service.SetStatus(r.Context(), *principal, id, req.Status)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(sub))
}
