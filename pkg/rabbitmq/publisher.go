package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"meet-recording-sync/config"
	"meet-recording-sync/constant"
)

type Publisher struct {
	conn       *amqp.Connection
	cfg        *config.RabbitMQ
	topologies map[constant.JobType]Topology
}

func NewPublisher(conn *amqp.Connection, cfg *config.RabbitMQ) *Publisher {
	p := &Publisher{
		conn:       conn,
		cfg:        cfg,
		topologies: make(map[constant.JobType]Topology),
	}
	for _, jobType := range []constant.JobType{constant.JobTypeSyncMeeting, constant.JobTypeSyncAll} {
		p.topologies[jobType] = SyncTopology(cfg.ExchangeName, jobType)
	}
	return p
}

// Publish sends message as a persistent JSON body on the job type's routing key.
func (p *Publisher) Publish(ctx context.Context, jobType constant.JobType, message any) error {
	if p.conn == nil || p.conn.IsClosed() {
		return amqp.ErrClosed
	}
	topology, ok := p.topologies[jobType]
	if !ok {
		return fmt.Errorf("no topology for job type %s", jobType)
	}

	body, err := json.Marshal(message)
	if err != nil {
		return err
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := topology.Declare(ch, p.cfg.Kind); err != nil {
		return err
	}

	err = ch.PublishWithContext(
		ctx,
		topology.Exchange,
		topology.RoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return err
	}

	zerolog.Ctx(ctx).Debug().Str("routing_key", topology.RoutingKey).Msg("message published")
	return nil
}
