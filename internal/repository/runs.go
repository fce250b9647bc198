package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/taskalign/scheduler-core/internal/domain"
)

// CreateScheduleRun persists a queued run before it's picked up by a
// worker, so async status is pollable from the moment it's accepted.
func (r *Repository) CreateScheduleRun(run *domain.ScheduleRun) error {
	requestJSON, err := json.Marshal(run.Request)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO schedule_runs (planner_id, status, request)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{run.PlannerID, run.Status, requestJSON}
	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(&run.ID, &run.CreatedAt, &run.Version)
}

// FinishScheduleRun records a run's outcome: either response is set
// (status succeeded/failed with a result) or failureMessage is (status
// failed with no result at all, e.g. a validation error surfaced late).
func (r *Repository) FinishScheduleRun(id int64, status domain.RunStatus, response *domain.ScheduleResponse, failureMessage string) error {
	var responseJSON []byte
	if response != nil {
		var err error
		responseJSON, err = json.Marshal(response)
		if err != nil {
			return err
		}
	}

	query := `
		UPDATE schedule_runs
		SET status = $1, response = $2, failure_message = $3, finished_at = NOW(), version = version + 1
		WHERE id = $4
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	_, err := r.dbpool.ExecContext(ctx, query, status, responseJSON, failureMessage, id)
	return err
}

func (r *Repository) GetScheduleRunByID(id int64) (*domain.ScheduleRun, error) {
	query := `
		SELECT planner_id, status, request, response, failure_message, created_at, finished_at, version
		FROM schedule_runs WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	run := &domain.ScheduleRun{ID: id}
	var requestJSON []byte
	var responseJSON []byte
	dst := []any{&run.PlannerID, &run.Status, &requestJSON, &responseJSON, &run.FailureMessage, &run.CreatedAt, &run.FinishedAt, &run.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(requestJSON, &run.Request); err != nil {
		return nil, err
	}
	if len(responseJSON) > 0 {
		run.Response = &domain.ScheduleResponse{}
		if err := json.Unmarshal(responseJSON, run.Response); err != nil {
			return nil, err
		}
	}

	return run, nil
}

func (r *Repository) GetScheduleRunsByPlanner(plannerID int64) ([]*domain.ScheduleRun, error) {
	query := `
		SELECT id, status, created_at, finished_at
		FROM schedule_runs WHERE planner_id = $1
		ORDER BY created_at DESC
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, plannerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]*domain.ScheduleRun, 0)
	for rows.Next() {
		run := &domain.ScheduleRun{PlannerID: plannerID}
		if err := rows.Scan(&run.ID, &run.Status, &run.CreatedAt, &run.FinishedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}
