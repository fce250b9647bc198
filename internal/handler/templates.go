package handler

import (
	"net/http"

	"github.com/taskalign/scheduler-core/internal/domain"
)

func (h *Handler) CreateMachineTemplate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string          `json:"name" validate:"required"`
		Description string          `json:"description"`
		Machines    []domain.Machine `json:"machines" validate:"required,min=1,dive"`
		Molds       []domain.Mold    `json:"molds" validate:"required,min=1,dive"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	t := &domain.MachineTemplate{
		Name:        req.Name,
		Description: req.Description,
		Machines:    req.Machines,
		Molds:       req.Molds,
	}
	if err := h.repository.CreateMachineTemplate(t); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "template created", t)
}

func (h *Handler) GetMachineTemplate(w http.ResponseWriter, r *http.Request) {
	t := r.Context().Value(TemplateCtx).(*domain.MachineTemplate)
	h.successResponse(w, r, "", t)
}

func (h *Handler) GetAllMachineTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.repository.GetAllMachineTemplates()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	h.successResponse(w, r, "", templates)
}

func (h *Handler) UpdateMachineTemplate(w http.ResponseWriter, r *http.Request) {
	t := r.Context().Value(TemplateCtx).(*domain.MachineTemplate)

	var req struct {
		Name        *string          `json:"name"`
		Description *string          `json:"description"`
		Machines    []domain.Machine `json:"machines" validate:"omitempty,min=1,dive"`
		Molds       []domain.Mold    `json:"molds" validate:"omitempty,min=1,dive"`
	}
	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if req.Name != nil {
		t.Name = *req.Name
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Machines != nil {
		t.Machines = req.Machines
	}
	if req.Molds != nil {
		t.Molds = req.Molds
	}

	if err := h.repository.UpdateMachineTemplate(t); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "template updated", t)
}

func (h *Handler) DeleteMachineTemplate(w http.ResponseWriter, r *http.Request) {
	t := r.Context().Value(TemplateCtx).(*domain.MachineTemplate)
	if err := h.repository.DeleteMachineTemplate(t.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}
	h.successResponse(w, r, "template deleted", nil)
}
