package events

import (
	"context"
	"encoding/json"
	"insightai_backend/models"
	"insightai_backend/pkg/logging"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	TranscriptionEventChannel = "transcription:events"
)

type EventPublisher struct {
	redisClient *redis.Client
}

func NewEventPublisher(redisClient *redis.Client) *EventPublisher {
	return &EventPublisher{redisClient: redisClient}
}

func (p *EventPublisher) PublishTranscriptionEvent(event *models.TranscriptionEvent) error {
	event.Timestamp = time.Now()

	data, err := json.Marshal(event)
	if err != nil {
		logging.Logger.Error("fail PublishTranscriptionEvent", "error", err)
		return err
	}
	ctx := context.Background()
	if err := p.redisClient.Publish(ctx, TranscriptionEventChannel, string(data)).Err(); err != nil {
		logging.Logger.Error("fail PublishTranscriptionEvent", "error", err)
		return err
	}
	return nil
}

func (p *EventPublisher) SubscribeTranscriptionEvents(ctx context.Context) (<-chan *models.TranscriptionEvent, error) {
	pubsub := p.redisClient.Subscribe(ctx, TranscriptionEventChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		logging.Logger.Error("fail SubscribeTranscriptionEvents", "error", err)
		return nil, err
	}
	ch := make(chan *models.TranscriptionEvent, 100)

	go func() {
		defer close(ch)
		defer func() {
			if err := pubsub.Close(); err != nil {
				logging.Logger.Error("fail closing pubsub", "error", err)
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-pubsub.Channel():
				var event models.TranscriptionEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					logging.Logger.Error("Failed to unmarshal event", "error", err)
					continue
				}

				select {
				case ch <- &event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}
