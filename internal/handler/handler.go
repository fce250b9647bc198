// Package handler is the HTTP transport adapter over the core
// scheduler: request validation, auth, persistence of audit records,
// and dispatch to sync or async execution. None of this package's
// logic feeds back into the core's scheduling decisions.
package handler

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/taskalign/scheduler-core/internal/cache"
	"github.com/taskalign/scheduler-core/internal/config"
	"github.com/taskalign/scheduler-core/internal/domain"
	"github.com/taskalign/scheduler-core/internal/queue"
	"github.com/taskalign/scheduler-core/internal/repository"
	"github.com/taskalign/scheduler-core/internal/scheduler"
)

type Handler struct {
	validate   *validator.Validate
	config     *config.Config
	repository *repository.Repository
	translator ut.Translator
	publisher  *queue.Publisher
	cache      *cache.ResultCache
	scheduler  *scheduler.Scheduler

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, mailCh *amqp.Channel, rdb *redis.Client) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	locale := en.New()
	uni := ut.New(locale, locale)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:   validate,
		config:     cfg,
		repository: repo,
		translator: trans,
		publisher:  queue.NewPublisher(mailCh, time.Duration(cfg.RabbitMQ.PublishTimeout)*time.Second),
		cache:      cache.New(rdb, time.Duration(cfg.Redis.ResultTTLSeconds)*time.Second),
		scheduler: scheduler.New(scheduler.Parameters{
			EliteCount:  cfg.Scheduler.EliteCount,
			TournamentK: cfg.Scheduler.TournamentK,
		}),

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Route("/my-info", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Get("/", h.GetMyInfo)
		})

		r.Route("/planners", func(r chi.Router) {
			r.Use(h.RequiredRole([]domain.Role{domain.RoleAdmin}))
			r.Post("/", h.CreatePlanner)
			r.Get("/", h.GetAllPlanners)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.planner)
				r.Get("/", h.GetPlanner)
				r.Patch("/", h.UpdatePlanner)
				r.Delete("/", h.DeactivatePlanner)
			})
		})

		r.Route("/machine-templates", func(r chi.Router) {
			adminOnly := h.RequiredRole([]domain.Role{domain.RoleAdmin})
			r.With(adminOnly).Post("/", h.CreateMachineTemplate)
			r.Get("/", h.GetAllMachineTemplates)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.machineTemplate)
				r.Get("/", h.GetMachineTemplate)
				r.With(adminOnly).Patch("/", h.UpdateMachineTemplate)
				r.With(adminOnly).Delete("/", h.DeleteMachineTemplate)
			})
		})

		r.Route("/schedule", func(r chi.Router) {
			r.Post("/", h.Schedule)
			r.Post("/async", h.ScheduleAsync)
		})

		r.Route("/schedule-runs", func(r chi.Router) {
			r.Get("/", h.GetMyScheduleRuns)
			r.With(h.scheduleRun).Get("/{id}", h.GetScheduleRun)
		})
	})
}
