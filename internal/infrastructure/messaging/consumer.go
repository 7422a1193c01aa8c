package messaging

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog/log"
)

const consumeRetryDelay = 5 * time.Second

// Message сообщение из Kafka. Ack подтверждает его после обработки,
// Nack откатывает смещение партиции к этому сообщению для повторной доставки.
// До вызова одного из них следующее сообщение партиции не выдаётся.
type Message struct {
	Key   []byte
	Value []byte
	Ack   func()
	Nack  func()
}

// Consumer оборачивает Sarama ConsumerGroup
type Consumer struct {
	group    sarama.ConsumerGroup
	topic    string
	messages chan Message
	closed   chan struct{}
}

// NewConsumer создаёт потребителя группы
func NewConsumer(brokers []string, groupID, topic string) (*Consumer, error) {
	config := sarama.NewConfig()
	config.Version = sarama.V2_6_0_0
	config.Consumer.Offsets.Initial = sarama.OffsetOldest

	group, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, err
	}

	return &Consumer{
		group:    group,
		topic:    topic,
		messages: make(chan Message),
		closed:   make(chan struct{}),
	}, nil
}

// StartListening запускает потребление в фоне до отмены ctx
func (c *Consumer) StartListening(ctx context.Context) {
	handler := &groupHandler{messages: c.messages, closed: c.closed}

	go func() {
		defer close(c.messages)

		for {
			if ctx.Err() != nil {
				log.Info().Str("topic", c.topic).Msg("Consumer stopped")
				return
			}

			err := c.group.Consume(ctx, []string{c.topic}, handler)
			switch {
			case err != nil:
				log.Warn().Err(err).Dur("retry_in", consumeRetryDelay).Msg("Consume failed")
			case handler.rewound.Swap(false):
				log.Info().Dur("retry_in", consumeRetryDelay).Msg("Rejoining group after rewind")
			default:
				continue
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(consumeRetryDelay):
			}
		}
	}()
}

// Messages канал входящих сообщений; закрывается при остановке
func (c *Consumer) Messages() <-chan Message {
	return c.messages
}

func (c *Consumer) Close() error {
	close(c.closed)
	return c.group.Close()
}

type groupHandler struct {
	messages chan<- Message
	closed   <-chan struct{}
	rewound  atomic.Bool
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim выдаёт сообщения партиции по одному и ждёт решения по каждому.
// Смещения в группе накопительные: после Nack партицию нельзя читать дальше,
// поэтому смещение откатывается и сессия завершается.
func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}

			verdict := make(chan bool, 1)
			out := Message{
				Key:   msg.Key,
				Value: msg.Value,
				Ack:   func() { decide(verdict, true) },
				Nack:  func() { decide(verdict, false) },
			}
			select {
			case h.messages <- out:
			case <-sess.Context().Done():
				return nil
			case <-h.closed:
				return nil
			}

			select {
			case ack := <-verdict:
				if !ack {
					sess.ResetOffset(msg.Topic, msg.Partition, msg.Offset, "")
					h.rewound.Store(true)
					log.Warn().
						Str("topic", msg.Topic).
						Int32("partition", msg.Partition).
						Int64("offset", msg.Offset).
						Msg("Message left for redelivery")
					return nil
				}
				sess.MarkMessage(msg, "")
			case <-sess.Context().Done():
				return nil
			case <-h.closed:
				return nil
			}
		case <-sess.Context().Done():
			return nil
		case <-h.closed:
			return nil
		}
	}
}

// decide учитывает только первое решение по сообщению
func decide(verdict chan<- bool, ack bool) {
	select {
	case verdict <- ack:
	default:
	}
}
