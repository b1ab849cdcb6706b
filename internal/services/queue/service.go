package queue

import (
	"fmt"

	"github.com/eleblu/bluswipe/internal/services/remover"
	"github.com/eleblu/bluswipe/internal/services/storage"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// QueueService carries batch jobs over RabbitMQ so large batches run
// outside the request cycle. The HTTP layer publishes, workers consume.
type QueueService struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	logger    *zap.Logger
	queueName string
	remover   *remover.Service
	storage   *storage.StorageService
}

func NewQueueService(
	rabbitmqURL string,
	remover *remover.Service,
	storage *storage.StorageService,
	logger *zap.Logger,
) (*QueueService, error) {
	conn, err := amqp.Dial(rabbitmqURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	queueName := "background_removal"

	_, err = channel.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	return &QueueService{
		conn:      conn,
		channel:   channel,
		logger:    logger,
		queueName: queueName,
		remover:   remover,
		storage:   storage,
	}, nil
}

// Close closes the queue connection
func (q *QueueService) Close() error {
	if q.channel != nil {
		q.channel.Close()
	}
	if q.conn != nil {
		q.conn.Close()
	}
	return nil
}
