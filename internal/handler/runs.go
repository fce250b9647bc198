package handler

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"strconv"

	"github.com/taskalign/scheduler-core/internal/cache"
	"github.com/taskalign/scheduler-core/internal/domain"
)

func mustParseID(s string) int64 {
	id, _ := strconv.ParseInt(s, 10, 64)
	return id
}

// resolveRequest fills in Machines/Molds from a saved template when the
// caller referenced one, and applies the pool of request-level
// defaults the transport layer owns (weights, seed): the core
// scheduler package never sees a nil Weights or an unset Seed.
func (h *Handler) resolveRequest(req *domain.ScheduleRequest) error {
	if req.MachineTemplateID != nil {
		t, err := h.repository.GetMachineTemplateByID(*req.MachineTemplateID)
		if err != nil {
			return err
		}
		req.Machines = t.Machines
		req.Molds = t.Molds
	}

	if req.Weights == nil {
		w := domain.DefaultWeights()
		req.Weights = &w
	}
	if req.Seed == nil {
		seed := rand.Int63()
		req.Seed = &seed
	}

	return nil
}

func (h *Handler) Schedule(w http.ResponseWriter, r *http.Request) {
	var req domain.ScheduleRequest
	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.resolveRequest(&req); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if req.PopSize*req.NGenerations > h.config.Scheduler.AsyncThreshold {
		h.errorResponse(w, r, http.StatusBadRequest,
			"this request exceeds the inline threshold, submit it to /schedule/async instead")
		return
	}

	sub := r.Context().Value(SubCtxKey).(string)
	plannerID := mustParseID(sub)

	key, err := cache.Key(req, *req.Seed)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if cached, hit, err := h.cache.Get(r.Context(), key); err != nil {
		h.logInternalServerError(r, err)
	} else if hit {
		h.recordRun(plannerID, req, domain.RunStatusSucceeded, cached, "")
		h.successResponse(w, r, "", cached)
		return
	}

	result, err := h.scheduler.Schedule(r.Context(), req)
	if err != nil {
		h.recordRun(plannerID, req, domain.RunStatusFailed, nil, err.Error())
		if errors.Is(err, domain.ErrInternal) {
			h.internalServerError(w, r, err)
		} else {
			h.errorResponse(w, r, scheduleErrorStatus(err), err.Error())
		}
		return
	}

	resp := &domain.ScheduleResponse{
		Assignments: result.Assignments,
		Unmet:       result.Unmet,
		Score:       result.Score,
		Partial:     result.Partial,
	}

	if !result.Partial {
		if err := h.cache.Set(r.Context(), key, resp); err != nil {
			h.logInternalServerError(r, err)
		}
	}

	h.recordRun(plannerID, req, domain.RunStatusSucceeded, resp, "")
	h.successResponse(w, r, "", resp)
}

func (h *Handler) ScheduleAsync(w http.ResponseWriter, r *http.Request) {
	var req domain.ScheduleRequest
	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.resolveRequest(&req); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	sub := r.Context().Value(SubCtxKey).(string)
	plannerID := mustParseID(sub)

	run := &domain.ScheduleRun{
		PlannerID: plannerID,
		Status:    domain.RunStatusQueued,
		Request:   req,
	}
	if err := h.repository.CreateScheduleRun(run); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if err := h.publisher.PublishScheduleRun(context.Background(), run.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "run queued", run)
}

func (h *Handler) GetMyScheduleRuns(w http.ResponseWriter, r *http.Request) {
	sub := r.Context().Value(SubCtxKey).(string)
	plannerID := mustParseID(sub)

	runs, err := h.repository.GetScheduleRunsByPlanner(plannerID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	h.successResponse(w, r, "", runs)
}

func (h *Handler) GetScheduleRun(w http.ResponseWriter, r *http.Request) {
	run := r.Context().Value(ScheduleRunCtx).(*domain.ScheduleRun)
	h.successResponse(w, r, "", run)
}

// recordRun persists a run's outcome for the synchronous path, which
// otherwise leaves no audit trail behind: only /schedule/async writes
// its own queued record up front.
func (h *Handler) recordRun(plannerID int64, req domain.ScheduleRequest, status domain.RunStatus, resp *domain.ScheduleResponse, failureMessage string) {
	run := &domain.ScheduleRun{
		PlannerID: plannerID,
		Status:    domain.RunStatusQueued,
		Request:   req,
	}
	if err := h.repository.CreateScheduleRun(run); err != nil {
		return
	}
	_ = h.repository.FinishScheduleRun(run.ID, status, resp, failureMessage)
}
