package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taskalign/scheduler-core/internal/domain"
)

func TestScheduleErrorStatus_MapsSentinelKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", fmt.Errorf("bad input: %w", domain.ErrValidation), http.StatusUnprocessableEntity},
		{"infeasible", fmt.Errorf("no admitting machine: %w", domain.ErrInfeasible), http.StatusConflict},
		{"internal", fmt.Errorf("assertion failed: %w", domain.ErrInternal), http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scheduleErrorStatus(tt.err))
		})
	}
}
