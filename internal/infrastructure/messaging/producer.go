package messaging

import (
	"encoding/json"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog/log"

	"zonewatch/internal/domain/entity"
	"zonewatch/internal/domain/port"
)

// ProgressProducer публикует ход сканирования в Kafka.
// Observe не блокирует сканер: если очередь продюсера занята, событие отбрасывается.
type ProgressProducer struct {
	producer sarama.AsyncProducer
	topic    string
	done     chan struct{}
}

// NewProgressProducer создаёт асинхронный продюсер
func NewProgressProducer(brokers []string, topic string) (*ProgressProducer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Return.Errors = true

	producer, err := sarama.NewAsyncProducer(brokers, config)
	if err != nil {
		return nil, err
	}
	return newProgressProducer(producer, topic), nil
}

func newProgressProducer(producer sarama.AsyncProducer, topic string) *ProgressProducer {
	p := &ProgressProducer{producer: producer, topic: topic, done: make(chan struct{})}
	go p.drainErrors()
	return p
}

func (p *ProgressProducer) drainErrors() {
	defer close(p.done)
	for err := range p.producer.Errors() {
		log.Warn().Err(err.Err).Str("topic", p.topic).Msg("Failed to publish progress")
	}
}

// Observe отправляет событие о ходе сканирования
func (p *ProgressProducer) Observe(progress entity.ScanProgress) {
	payload, err := json.Marshal(progress)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to encode progress")
		return
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(progress.ScanID),
		Value: sarama.ByteEncoder(payload),
	}

	select {
	case p.producer.Input() <- msg:
	default:
		log.Debug().Str("scan_id", progress.ScanID).Msg("Progress event dropped")
	}
}

func (p *ProgressProducer) Close() error {
	p.producer.AsyncClose()
	<-p.done
	return nil
}

// Fanout раздаёт событие нескольким наблюдателям
type Fanout []port.ProgressObserver

func (f Fanout) Observe(progress entity.ScanProgress) {
	for _, o := range f {
		if o != nil {
			o.Observe(progress)
		}
	}
}

var (
	_ port.ProgressObserver = (*ProgressProducer)(nil)
	_ port.ProgressObserver = Fanout(nil)
)
