package repository

import (
	"context"
	"time"

	"github.com/taskalign/scheduler-core/internal/domain"
)

func (r *Repository) GetPlannerByID(id int64) (*domain.Planner, error) {
	query := `
		SELECT username, password_hash, full_name, email, role, is_active, created_at, version
		FROM planners WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	planner := &domain.Planner{ID: id}
	dst := []any{&planner.Username, &planner.PasswordHash, &planner.FullName, &planner.Email, &planner.Role, &planner.IsActive, &planner.CreatedAt, &planner.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return planner, nil
}

func (r *Repository) GetPlannerByUsername(username string) (*domain.Planner, error) {
	query := `
		SELECT id, password_hash, full_name, email, role, is_active, created_at, version
		FROM planners WHERE username = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	planner := &domain.Planner{Username: username}
	dst := []any{&planner.ID, &planner.PasswordHash, &planner.FullName, &planner.Email, &planner.Role, &planner.IsActive, &planner.CreatedAt, &planner.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, username).Scan(dst...); err != nil {
		return nil, err
	}

	return planner, nil
}

func (r *Repository) CreatePlanner(planner *domain.Planner) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO planners (username, password_hash, full_name, email, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, is_active, created_at, version
	`

	args := []any{planner.Username, planner.PasswordHash, planner.FullName, planner.Email, planner.Role}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&planner.ID, &planner.IsActive, &planner.CreatedAt, &planner.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetAllPlanners() ([]*domain.Planner, error) {
	query := `
		SELECT id, username, password_hash, full_name, email, role, is_active, created_at, version FROM planners
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	planners := make([]*domain.Planner, 0)
	for rows.Next() {
		planner := &domain.Planner{}
		dst := []any{&planner.ID, &planner.Username, &planner.PasswordHash, &planner.FullName, &planner.Email, &planner.Role, &planner.IsActive, &planner.CreatedAt, &planner.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		planners = append(planners, planner)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return planners, nil
}

func (r *Repository) UpdatePlanner(planner *domain.Planner) error {
	query := `
		UPDATE planners
		SET password_hash = $1, email = $2, role = $3, is_active = $4, version = version + 1
		WHERE id = $5 AND version = $6
		RETURNING username, full_name, created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{planner.PasswordHash, planner.Email, planner.Role, planner.IsActive, planner.ID, planner.Version}
	dst := []any{&planner.Username, &planner.FullName, &planner.CreatedAt, &planner.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(dst...); err != nil {
		return err
	}

	return nil
}

