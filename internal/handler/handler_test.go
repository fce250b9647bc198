package handler

import (
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/stretchr/testify/require"

	"github.com/taskalign/scheduler-core/internal/config"
)

// testHandler builds a Handler with the validation and JWT plumbing
// wired up but no live database, cache, or broker. It is only
// suitable for exercising the parts of the package that don't touch
// h.repository, h.cache, h.publisher, or h.scheduler.
func testHandler(t *testing.T) *Handler {
	t.Helper()

	validate := validator.New(validator.WithRequiredStructEnabled())
	locale := en.New()
	uni := ut.New(locale, locale)
	trans, ok := uni.GetTranslator("en")
	require.True(t, ok)
	require.NoError(t, en_translations.RegisterDefaultTranslations(validate, trans))

	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.Environment = "development"

	return &Handler{
		validate:   validate,
		config:     cfg,
		translator: trans,
	}
}
