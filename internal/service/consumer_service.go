package service

import (
	"context"
	"encoding/json"

	"fusion-agent-be/internal/entity"
	"fusion-agent-be/internal/pkg/logger"
	"fusion-agent-be/internal/repository/unitofwork"
	"fusion-agent-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

const consumerModule = "TURN_CONSUMER"

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// EventForwarder relays turn events to an external broker.
type EventForwarder interface {
	Publish(ctx context.Context, event events.Event) error
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	uowFactory unitofwork.RepositoryFactory
	forwarder  EventForwarder
	logger     logger.ILogger
}

// NewConsumerService records turn audits from the bus. forwarder may be nil.
func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	forwarder EventForwarder,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		uowFactory: uowFactory,
		forwarder:  forwarder,
		logger:     log,
	}
}

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

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var event events.TurnCompleted
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		cs.logger.Error(consumerModule, "Failed to unmarshal turn event", map[string]interface{}{"error": err.Error()})
		// malformed payloads would never succeed on redelivery
		msg.Ack()
		return
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	audit := &entity.TurnAudit{
		ThreadId:         event.ThreadID,
		DomainStream:     event.DomainStream,
		QuestionType:     event.QuestionType,
		FormatPreference: event.FormatPreference,
		Succeeded:        event.Succeeded,
		ErrorKind:        event.ErrorKind,
		RowCount:         event.RowCount,
		HasAttachment:    event.HasAttachment,
		DurationMs:       event.DurationMs,
		Details: map[string]interface{}{
			"event_id":      event.EventID,
			"error_message": event.ErrorMessage,
		},
		CreatedAt: event.OccurredAt,
	}
	if err := uow.TurnAuditRepository().Create(ctx, audit); err != nil {
		cs.logger.Error(consumerModule, "Failed to save turn audit", map[string]interface{}{
			"thread_id": event.ThreadID,
			"error":     err.Error(),
		})
		msg.Nack()
		return
	}

	if cs.forwarder != nil {
		if err := cs.forwarder.Publish(ctx, event); err != nil {
			cs.logger.Warn(consumerModule, "Failed to forward turn event", map[string]interface{}{
				"thread_id": event.ThreadID,
				"error":     err.Error(),
			})
		}
	}

	msg.Ack()
}
