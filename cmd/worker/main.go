package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dkochetov/ticketbooking/config"
	"github.com/dkochetov/ticketbooking/internal/email"
	"github.com/dkochetov/ticketbooking/internal/kafka"
	kafkaGo "github.com/segmentio/kafka-go"
)

type notificationSender interface {
	Send(ctx context.Context, event kafka.BookingEvent) error
}

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()

	emailSender := email.NewSender()
	retries := cfg.Worker.Retries()

	log.Printf("notification worker consuming %s", cfg.Kafka.NotificationsTopic)
	if err := consumer.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
		processMessage(ctx, msg, emailSender, retries)
		return nil
	}); err != nil && ctx.Err() == nil {
		log.Fatalf("consumer stopped: %v", err)
	}
}

// processMessage delivers one notification, retrying transient send failures.
// A notification that still fails after the last attempt is dropped with a
// log line rather than wedging the consumer on a poison message.
func processMessage(ctx context.Context, msg kafkaGo.Message, sender notificationSender, retries int) {
	var event kafka.BookingEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		log.Printf("decode event error: %v", err)
		return
	}
	if event.Email == "" {
		return
	}

	var err error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
			}
		}
		if err = sender.Send(ctx, event); err == nil {
			return
		}
		log.Printf("send notification for booking %s (attempt %d): %v", event.BookingID, attempt+1, err)
	}
	log.Printf("dropping notification for booking %s after %d attempts: %v", event.BookingID, retries+1, err)
}
