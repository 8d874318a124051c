package service

import (
	"birthday-notes-be/internal/dto"
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/gofiber/fiber/v2/log"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber     message.Subscriber
	topicName      string
	archiveService IArchiveService
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	archiveService IArchiveService,
) IConsumerService {
	return &consumerService{
		subscriber:     subscriber,
		topicName:      topicName,
		archiveService: archiveService,
	}
}

// Consume subscribes and handles messages in the background until ctx is
// cancelled or the subscriber is closed.
func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

// processMessage always acks. A failed export is not redelivered; the
// next note change writes a fresh one.
func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	defer func() {
		if e := recover(); e != nil {
			log.Errorf("[Panic Recovery] panic while exporting notes: %v", e)
		}
	}()

	var payload dto.PublishNoteChangedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Errorf("[Consumer] failed to unmarshal payload: %v | Payload: %s", err, string(msg.Payload))
		return
	}

	log.Debugf("[Consumer] note %s %s", payload.NoteId, payload.Action)

	if err := cs.archiveService.Refresh(ctx); err != nil {
		log.Errorf("[Consumer] failed to refresh archive after note %s %s: %v", payload.NoteId, payload.Action, err)
	}
}
