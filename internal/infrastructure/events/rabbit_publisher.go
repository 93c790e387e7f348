// Package events publica en RabbitMQ los resultados del planificador para los
// colaboradores de reportes (tableros, exportación de escenarios).
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/jhoicas/rebanho-api/internal/application/ledger"
	"github.com/jhoicas/rebanho-api/internal/domain/entity"
	"github.com/jhoicas/rebanho-api/pkg/logger"
)

// RoutingKeyScheduleCompleted clave de ruteo de una programación confirmada.
const RoutingKeyScheduleCompleted = "ledger.schedule.completed"

// Channel lo que el publicador necesita de un *amqp.Channel.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitPublisher implementa ledger.SchedulePublisher sobre un exchange topic.
type RabbitPublisher struct {
	conn     *amqp.Connection
	ch       Channel
	exchange string
	log      *logger.Logger
}

var _ ledger.SchedulePublisher = (*RabbitPublisher)(nil)

// NewRabbitPublisher conecta al broker y declara el exchange (topic, durable).
func NewRabbitPublisher(url, exchange string, log *logger.Logger) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("conectar a RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("abrir canal: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declarar exchange %s: %w", exchange, err)
	}
	p := NewRabbitPublisherWithChannel(ch, exchange, log)
	p.conn = conn
	return p, nil
}

// NewRabbitPublisherWithChannel usa un canal ya abierto (el exchange debe existir).
func NewRabbitPublisherWithChannel(ch Channel, exchange string, log *logger.Logger) *RabbitPublisher {
	if log == nil {
		log = logger.Nop()
	}
	return &RabbitPublisher{ch: ch, exchange: exchange, log: log.Component("rabbit_publisher")}
}

// Close cierra canal y conexión.
func (p *RabbitPublisher) Close() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

// ScheduleCompletedEvent cuerpo JSON del mensaje.
type ScheduleCompletedEvent struct {
	RunID          string           `json:"run_id"`
	PlanID         string           `json:"plan_id"`
	RuleID         string           `json:"rule_id"`
	Created        int              `json:"created"`
	Deleted        int64            `json:"deleted"`
	Requested      int64            `json:"requested"`
	Scheduled      int64            `json:"scheduled"`
	SkippedEntries int              `json:"skipped_entries"`
	Warnings       []string         `json:"warnings,omitempty"`
	Events         []ScheduledEvent `json:"events"`
	FinishedAt     time.Time        `json:"finished_at"`
}

// ScheduledEvent evento derivado resumido.
type ScheduledEvent struct {
	ID         int64  `json:"id"`
	PropertyID string `json:"property_id"`
	CategoryID string `json:"category_id"`
	Date       string `json:"date"`
	Kind       string `json:"kind"`
	Quantity   int64  `json:"quantity"`
}

// BuildMessage arma la publicación para un resultado. MessageId es el RunID, para que
// los consumidores descarten duplicados.
func BuildMessage(result *ledger.ScheduleResult) (amqp.Publishing, error) {
	ev := ScheduleCompletedEvent{
		RunID:          result.RunID,
		PlanID:         result.PlanID,
		RuleID:         result.RuleID,
		Created:        result.Created,
		Deleted:        result.Deleted,
		Requested:      result.Requested,
		Scheduled:      result.Scheduled,
		SkippedEntries: result.SkippedEntries,
		Warnings:       result.Warnings,
		Events:         make([]ScheduledEvent, 0, len(result.Events)),
		FinishedAt:     result.FinishedAt,
	}
	for _, m := range result.Events {
		ev.Events = append(ev.Events, ScheduledEvent{
			ID:         m.ID,
			PropertyID: m.PropertyID,
			CategoryID: m.CategoryID,
			Date:       m.Date.Format(entity.DateLayout),
			Kind:       string(m.Kind),
			Quantity:   m.Quantity,
		})
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("serializar evento: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    result.RunID,
		Timestamp:    result.FinishedAt,
		Type:         RoutingKeyScheduleCompleted,
		Headers:      amqp.Table{"plan_id": result.PlanID, "rule_id": result.RuleID},
		Body:         body,
	}, nil
}

// PublishScheduleCompleted implementa ledger.SchedulePublisher.
func (p *RabbitPublisher) PublishScheduleCompleted(ctx context.Context, result *ledger.ScheduleResult) error {
	msg, err := BuildMessage(result)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.ch.PublishWithContext(ctx, p.exchange, RoutingKeyScheduleCompleted, false, false, msg); err != nil {
		return fmt.Errorf("publicar %s: %w", RoutingKeyScheduleCompleted, err)
	}
	p.log.Debug().Str("run_id", result.RunID).Str("exchange", p.exchange).Msg("resultado de programación publicado")
	return nil
}
