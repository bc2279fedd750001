package rabbitmq

import (
	"fmt"
	amqp "github.com/rabbitmq/amqp091-go"
	"meet-recording-sync/constant"
	"strings"
)

const DefaultExchange = "recording_sync_exchange"

// Topology names the exchange, queue and dead-letter route serving one job type.
type Topology struct {
	Exchange             string
	Queue                string
	RoutingKey           string
	DeadLetterExchange   string
	DeadLetterQueue      string
	DeadLetterRoutingKey string
}

// SyncTopology derives the topology for a job type, e.g. sync_all_recordings maps to
// queue sync_all_recordings_queue bound with routing key recording.sync_all_recordings.
func SyncTopology(exchange string, jobType constant.JobType) Topology {
	if exchange == "" {
		exchange = DefaultExchange
	}
	routingKey := "recording." + string(jobType)
	queue := string(jobType) + "_queue"
	return Topology{
		Exchange:             exchange,
		Queue:                queue,
		RoutingKey:           routingKey,
		DeadLetterExchange:   exchange + "_dlx",
		DeadLetterQueue:      queue + "_dlq",
		DeadLetterRoutingKey: "dlq." + routingKey,
	}
}

// Declare creates the exchanges and queues and binds them, dead-letter route first.
func (t Topology) Declare(ch *amqp.Channel, kind string) error {
	if kind == "" {
		kind = amqp.ExchangeTopic
	}

	if err := ch.ExchangeDeclare(t.Exchange, kind, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", t.Exchange, err)
	}
	if err := ch.ExchangeDeclare(t.DeadLetterExchange, kind, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare dlx %s: %w", t.DeadLetterExchange, err)
	}

	dlq, err := ch.QueueDeclare(t.DeadLetterQueue, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare dlq %s: %w", t.DeadLetterQueue, err)
	}
	if err := ch.QueueBind(dlq.Name, t.DeadLetterRoutingKey, t.DeadLetterExchange, false, nil); err != nil {
		return fmt.Errorf("bind dlq %s: %w", t.DeadLetterQueue, err)
	}

	q, err := ch.QueueDeclare(t.Queue, true, false, false, false, t.queueArgs())
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", t.Queue, err)
	}
	if err := ch.QueueBind(q.Name, t.RoutingKey, t.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", t.Queue, err)
	}
	return nil
}

func (t Topology) queueArgs() amqp.Table {
	return amqp.Table{
		"x-dead-letter-exchange":    t.DeadLetterExchange,
		"x-dead-letter-routing-key": t.DeadLetterRoutingKey,
	}
}

func (t Topology) String() string {
	return strings.Join([]string{t.Exchange, t.RoutingKey, t.Queue}, " -> ")
}
