package messaging

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/IBM/sarama"

	"zonewatch/internal/domain/entity"
)

// ScanJob задание на сканирование видео из очереди
type ScanJob struct {
	ScanID    string        `json:"scan_id,omitempty"`
	VideoPath string        `json:"video_path"`
	Zones     []entity.Zone `json:"zones,omitempty"`
}

// DecodeJob разбирает и проверяет задание
func DecodeJob(data []byte) (ScanJob, error) {
	var job ScanJob
	if err := json.Unmarshal(data, &job); err != nil {
		return ScanJob{}, fmt.Errorf("decode scan job: %w", err)
	}
	if job.VideoPath == "" {
		return ScanJob{}, errors.New("scan job has no video_path")
	}
	if job.ScanID != "" {
		if err := entity.ValidateScanID(job.ScanID); err != nil {
			return ScanJob{}, err
		}
	}
	if err := entity.ValidateZones(job.Zones); err != nil {
		return ScanJob{}, err
	}
	return job, nil
}

// JobProducer ставит задания на сканирование в очередь
type JobProducer struct {
	producer sarama.SyncProducer
	topic    string
}

// NewJobProducer создаёт синхронный продюсер заданий
func NewJobProducer(brokers []string, topic string) (*JobProducer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, err
	}
	return &JobProducer{producer: producer, topic: topic}, nil
}

// Submit отправляет задание с путём к видео в качестве ключа
func (p *JobProducer) Submit(job ScanJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}

	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(job.VideoPath),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		return fmt.Errorf("submit scan job: %w", err)
	}
	return nil
}

func (p *JobProducer) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("failed to close Kafka producer: %w", err)
	}
	return nil
}
