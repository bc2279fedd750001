package config

import (
	"context"
	"github.com/cenkalti/backoff/v5"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"net"
	"net/url"
	"strconv"
	"time"
)

const rabbitMQDialTries = 5

// URL renders the broker address with escaped credentials.
func (r *RabbitMQ) URL() string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(r.User, r.Pass),
		Host:   net.JoinHostPort(r.Host, strconv.Itoa(r.Port)),
		Path:   "/",
	}
	return u.String()
}

func NewRabbitMQConn(ctx context.Context, cfg *RabbitMQ) (*amqp.Connection, error) {
	logger := zerolog.Ctx(ctx).With().Str("host", cfg.Host).Int("port", cfg.Port).Logger()

	operation := func() (*amqp.Connection, error) {
		return amqp.Dial(cfg.URL())
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxInterval = 10 * time.Second
	conn, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(rabbitMQDialTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.Warn().Err(err).Dur("retry_in", next).Msg("Failed to connect to RabbitMQ. Retrying...")
		}),
	)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to connect to RabbitMQ")
		return nil, err
	}

	logger.Info().Msg("Successfully connected to RabbitMQ")
	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	go func() {
		select {
		case <-ctx.Done():
			if err := conn.Close(); err != nil {
				logger.Error().Err(err).Msg("Failed to close RabbitMQ connection")
			}
			logger.Info().Msg("RabbitMQ connection closed")
		case amqpErr, ok := <-closed:
			if ok && amqpErr != nil {
				logger.Error().Err(amqpErr).Msg("RabbitMQ connection lost")
			}
		}
	}()

	return conn, nil
}
