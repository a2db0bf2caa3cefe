package cron

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"lumident/config"
	"lumident/models"
	"lumident/services/booking"
	"lumident/services/notification"
	"lumident/services/tasks"

	"github.com/hibiken/asynq"
)

// InitReminderWorker runs the async reminder worker in background.
func InitReminderWorker(notifSvc notification.NotificationService) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisReminderDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeReminderSend, handleReminderTask(notifSvc))

	go func() {
		log.Println("[ReminderWorker] starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[ReminderWorker] attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[ReminderWorker] max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()
}

func handleReminderTask(notifSvc notification.NotificationService) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.ReminderPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[ReminderHandler] invalid payload: %v", err)
			return err
		}

		notifSvc.Dispatch(models.NotifyReminder, p.Email, map[string]string{
			"name":      p.Name,
			"serviceId": p.ServiceID,
			"start":     p.Start.Format(time.RFC3339),
		})
		return nil
	}
}

// StartSweepWorker runs the draft expiry sweep on a fixed interval until the
// context is cancelled.
func StartSweepWorker(ctx context.Context, orchestrator booking.BookingOrchestrator, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Sweep worker shutdown signal received.")
			return
		case <-ticker.C:
			if n := orchestrator.Sweep(ctx); n > 0 {
				log.Printf("Expiry sweep removed %d draft(s)", n)
			}
		}
	}
}
