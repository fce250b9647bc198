package handler

import (
	"context"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/taskalign/scheduler-core/internal/domain"
	"github.com/taskalign/scheduler-core/internal/utils"
)

func (h *Handler) CreatePlanner(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username" validate:"required"`
		FullName string `json:"fullName" validate:"required"`
		Email    string `json:"email" validate:"required,email"`
		Role     string `json:"role" validate:"required,oneof=planner admin"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	password := utils.GenerateRandomPassword(h.config.NewPlanner.PasswordLength)
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	planner := &domain.Planner{
		Username:     req.Username,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Email:        req.Email,
		Role:         domain.Role(req.Role),
	}
	if err := h.repository.CreatePlanner(planner); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if err := h.publisher.PublishMail(context.Background(), domain.MailMessage{
		Type: "planner_account",
		To:   planner.Email,
		Data: domain.PlannerAccountMailData{
			FullName: planner.FullName,
			Username: planner.Username,
			Password: password,
		},
	}); err != nil {
		h.logInternalServerError(r, err)
	}

	h.successResponse(w, r, "planner created", planner)
}

func (h *Handler) GetAllPlanners(w http.ResponseWriter, r *http.Request) {
	planners, err := h.repository.GetAllPlanners()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	h.successResponse(w, r, "", planners)
}

func (h *Handler) GetPlanner(w http.ResponseWriter, r *http.Request) {
	planner := r.Context().Value(PlannerCtx).(*domain.Planner)
	h.successResponse(w, r, "", planner)
}

func (h *Handler) UpdatePlanner(w http.ResponseWriter, r *http.Request) {
	planner := r.Context().Value(PlannerCtx).(*domain.Planner)

	var req struct {
		Role     *string `json:"role" validate:"omitempty,oneof=planner admin"`
		IsActive *bool   `json:"isActive"`
	}
	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if req.Role != nil {
		planner.Role = domain.Role(*req.Role)
	}
	if req.IsActive != nil {
		planner.IsActive = *req.IsActive
	}

	if err := h.repository.UpdatePlanner(planner); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "planner updated", planner)
}

// DeactivatePlanner revokes access without erasing the audit trail a
// planner's past schedule runs carry.
func (h *Handler) DeactivatePlanner(w http.ResponseWriter, r *http.Request) {
	planner := r.Context().Value(PlannerCtx).(*domain.Planner)
	planner.IsActive = false

	if err := h.repository.UpdatePlanner(planner); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "planner deactivated", nil)
}
