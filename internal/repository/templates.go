package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/taskalign/scheduler-core/internal/domain"
)

// machine templates store their machine/mold rosters as jsonb columns:
// there's no relational value in normalizing a roster that's always
// read and written as a whole.

func (r *Repository) CreateMachineTemplate(t *domain.MachineTemplate) error {
	machinesJSON, err := json.Marshal(t.Machines)
	if err != nil {
		return err
	}
	moldsJSON, err := json.Marshal(t.Molds)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO machine_templates (name, description, machines, molds)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{t.Name, t.Description, machinesJSON, moldsJSON}
	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(&t.ID, &t.CreatedAt, &t.Version)
}

func (r *Repository) GetMachineTemplateByID(id int64) (*domain.MachineTemplate, error) {
	query := `
		SELECT name, description, machines, molds, created_at, version
		FROM machine_templates WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	t := &domain.MachineTemplate{ID: id}
	var machinesJSON, moldsJSON []byte
	dst := []any{&t.Name, &t.Description, &machinesJSON, &moldsJSON, &t.CreatedAt, &t.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(machinesJSON, &t.Machines); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(moldsJSON, &t.Molds); err != nil {
		return nil, err
	}

	return t, nil
}

func (r *Repository) GetAllMachineTemplates() ([]*domain.MachineTemplate, error) {
	query := `SELECT id, name, description, created_at, version FROM machine_templates`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := make([]*domain.MachineTemplate, 0)
	for rows.Next() {
		t := &domain.MachineTemplate{}
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.CreatedAt, &t.Version); err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}

	return templates, rows.Err()
}

func (r *Repository) UpdateMachineTemplate(t *domain.MachineTemplate) error {
	machinesJSON, err := json.Marshal(t.Machines)
	if err != nil {
		return err
	}
	moldsJSON, err := json.Marshal(t.Molds)
	if err != nil {
		return err
	}

	query := `
		UPDATE machine_templates
		SET name = $1, description = $2, machines = $3, molds = $4, version = version + 1
		WHERE id = $5 AND version = $6
		RETURNING created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{t.Name, t.Description, machinesJSON, moldsJSON, t.ID, t.Version}
	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(&t.CreatedAt, &t.Version)
}

func (r *Repository) DeleteMachineTemplate(id int64) error {
	query := `DELETE FROM machine_templates WHERE id = $1`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	_, err := r.dbpool.ExecContext(ctx, query, id)
	return err
}
