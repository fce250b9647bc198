package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/taskalign/scheduler-core/internal/config"
	"github.com/taskalign/scheduler-core/internal/domain"
	"github.com/taskalign/scheduler-core/internal/mailer"
	"github.com/taskalign/scheduler-core/internal/queue"
	"github.com/taskalign/scheduler-core/internal/repository"
	"github.com/taskalign/scheduler-core/internal/scheduler"
)

// cmd/worker consumes both queues declared by internal/queue: mail_queue
// for direct sends, and schedule_runs for GA jobs too large to run
// inline on the request path. The two consumers share nothing but the
// process; either can fail without taking the other down.
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}

	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	pingCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()
	if err := dbpool.PingContext(pingCtx); err != nil {
		logger.Error("failed to connect to database", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)
	sched := scheduler.New(scheduler.Parameters{
		EliteCount:  cfg.Scheduler.EliteCount,
		TournamentK: cfg.Scheduler.TournamentK,
	})

	mailClient, err := mailer.New(cfg)
	if err != nil {
		logger.Error("failed to create mail client", "error", err)
		return
	}
	defer mailClient.Close()

	dialCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Email.SMTP.DialTimeout)*time.Second)
	defer cancel()
	if err := mailClient.DialWithContext(dialCtx); err != nil {
		logger.Error("failed to connect to mail server", "error", err)
		return
	}

	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", "error", err)
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("failed to open channel", "error", err)
		return
	}
	defer ch.Close()

	if err := queue.Declare(ch); err != nil {
		logger.Error("failed to declare queues", "error", err)
		return
	}

	mailMsgs, err := ch.Consume(queue.MailQueueName, "", false, false, false, false, nil)
	if err != nil {
		logger.Error("failed to consume mail queue", "error", err)
		return
	}
	runMsgs, err := ch.Consume(queue.ScheduleQueueName, "", false, false, false, false, nil)
	if err != nil {
		logger.Error("failed to consume schedule queue", "error", err)
		return
	}

	ctx, stop := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	wg.Add(1)
	go consumeMail(ctx, &wg, logger, mailMsgs, mailClient)

	wg.Add(1)
	go consumeScheduleRuns(ctx, &wg, logger, runMsgs, repo, sched, mailClient)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("worker ready, waiting for messages")
	<-sigChan

	logger.Info("shutting down worker...")
	stop()
	wg.Wait()
	logger.Info("worker shut down cleanly")
}

func consumeMail(ctx context.Context, wg *sync.WaitGroup, logger *slog.Logger, msgs <-chan amqp.Delivery, mailClient *mailer.Mailer) {
	defer wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}

			var mailMessage domain.MailMessage
			if err := json.Unmarshal(msg.Body, &mailMessage); err != nil {
				logger.Error("failed to unmarshal mail message", "error", err)
				_ = msg.Nack(false, false)
				continue
			}

			if err := mailClient.Send(mailMessage); err != nil {
				logger.Error("failed to send mail", "error", err, "to", mailMessage.To)
				_ = msg.Nack(false, true)
				continue
			}

			_ = msg.Ack(false)
		}
	}
}

func consumeScheduleRuns(ctx context.Context, wg *sync.WaitGroup, logger *slog.Logger, msgs <-chan amqp.Delivery, repo *repository.Repository, sched *scheduler.Scheduler, mailClient *mailer.Mailer) {
	defer wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}

			runID, err := strconv.ParseInt(string(msg.Body), 10, 64)
			if err != nil {
				logger.Error("failed to parse run id", "error", err)
				_ = msg.Nack(false, false)
				continue
			}

			if err := runSchedule(ctx, repo, sched, mailClient, runID); err != nil {
				logger.Error("failed to process schedule run", "runID", runID, "error", err)
				_ = msg.Nack(false, true)
				continue
			}

			_ = msg.Ack(false)
		}
	}
}

func runSchedule(ctx context.Context, repo *repository.Repository, sched *scheduler.Scheduler, mailClient *mailer.Mailer, runID int64) error {
	run, err := repo.GetScheduleRunByID(runID)
	if err != nil {
		return err
	}

	planner, err := repo.GetPlannerByID(run.PlannerID)
	if err != nil {
		return err
	}

	result, schedErr := sched.Schedule(ctx, run.Request)

	status := domain.RunStatusSucceeded
	var resp *domain.ScheduleResponse
	failureMessage := ""
	if schedErr != nil {
		status = domain.RunStatusFailed
		failureMessage = schedErr.Error()
	} else {
		resp = &domain.ScheduleResponse{
			Assignments: result.Assignments,
			Unmet:       result.Unmet,
			Score:       result.Score,
			Partial:     result.Partial,
		}
	}

	if err := repo.FinishScheduleRun(runID, status, resp, failureMessage); err != nil {
		return err
	}

	mailData := domain.RunCompletedMailData{
		FullName: planner.FullName,
		RunID:    runID,
		Status:   string(status),
	}
	if resp != nil {
		mailData.Score = resp.Score
		mailData.Unmet = len(resp.Unmet)
	}

	return mailClient.Send(domain.MailMessage{
		Type: "run_completed",
		To:   planner.Email,
		Data: mailData,
	})
}
