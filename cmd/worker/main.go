// cmd/worker/main.go
//
// Consumes delivery.logged events from AMQP and appends them to the
// delivery_logs audit table. The services publish these best-effort after
// a provider accepts a message; the send path never waits on this worker.
package main

import (
	"encoding/json"
	"os"

	"github.com/joho/godotenv"
	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"github.com/tillpoint/messaging-backend/internal/db"
	"github.com/tillpoint/messaging-backend/internal/logger"
	"github.com/tillpoint/messaging-backend/internal/model"
	"github.com/tillpoint/messaging-backend/internal/queue"
	"github.com/tillpoint/messaging-backend/internal/repository"
)

const maxAttempts = 3

func main() {
	_ = godotenv.Load()
	logger.Init()
	defer logger.Sync()
	log := logger.L()

	conn, err := db.Open()
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}
	defer conn.Close()

	logRepo := &repository.DeliveryLogRepository{DB: conn}

	amqpURL := os.Getenv("AMQP_URL")
	if amqpURL == "" {
		log.Fatal("AMQP_URL is required for the worker")
	}
	broker, err := amqp.Dial(amqpURL)
	if err != nil {
		log.Fatal("amqp dial", zap.Error(err))
	}
	defer broker.Close()

	ch, err := broker.Channel()
	if err != nil {
		log.Fatal("amqp channel", zap.Error(err))
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(queue.TopicDeliveryLogged, true, false, false, false, nil)
	if err != nil {
		log.Fatal("queue declare", zap.Error(err))
	}

	msgs, err := ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		log.Fatal("consume", zap.Error(err))
	}

	log.Info("worker running, waiting for delivery events")
	for d := range msgs {
		err := handleDelivery(logRepo, d.Body)
		if err == nil {
			d.Ack(false)
			continue
		}

		// The broker does not count requeues, so a plain Nack would
		// retry forever. Track attempts ourselves: republish with the
		// counter bumped and ack the original, dropping after the cap.
		attempt := attempts(d.Headers) + 1
		if attempt >= maxAttempts {
			log.Error("dropping delivery event",
				zap.Int("attempts", attempt), zap.Error(err))
			d.Ack(false)
			continue
		}
		log.Warn("handle delivery event, retrying",
			zap.Int("attempt", attempt), zap.Error(err))
		if pubErr := republish(ch, d, attempt); pubErr != nil {
			log.Warn("republish delivery event", zap.Error(pubErr))
			d.Nack(false, true)
			continue
		}
		d.Ack(false)
	}
}

// republish re-enqueues the message with the attempt counter in
// x-retry-count, preserving any other headers.
func republish(ch *amqp.Channel, d amqp.Delivery, attempt int) error {
	headers := amqp.Table{}
	for k, v := range d.Headers {
		headers[k] = v
	}
	headers["x-retry-count"] = int32(attempt)
	return ch.Publish("", queue.TopicDeliveryLogged, false, false, amqp.Publishing{
		ContentType: "application/json",
		Headers:     headers,
		Body:        d.Body,
	})
}

func handleDelivery(repo repository.DeliveryLogRepositoryInterface, body []byte) error {
	var evt queue.DeliveryEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		// Malformed payload: ack and drop, requeueing cannot fix it.
		logger.L().Warn("invalid delivery event", zap.Error(err))
		return nil
	}
	return repo.Insert(&model.DeliveryLog{
		EventID:   evt.EventID,
		TenantID:  evt.TenantID,
		ClientID:  evt.ClientID,
		Channel:   evt.Channel,
		Recipient: evt.Recipient,
		Body:      evt.Body,
		Source:    evt.Source,
		SourceID:  evt.SourceID,
		SentAt:    evt.SentAt,
	})
}

// attempts reads the x-retry-count header written by republish; a message
// without one is on its first attempt.
func attempts(headers amqp.Table) int {
	if headers == nil {
		return 0
	}
	switch n := headers["x-retry-count"].(type) {
	case int32:
		return int(n)
	case int64:
		return int(n)
	}
	return 0
}
