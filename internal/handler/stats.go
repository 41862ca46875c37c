package handler

import (
	"encoding/json"

	"github.com/IBM/sarama"

	"github.com/hasinichitrada/LIBSHARE/pkg/kafka"
)

type StatsLog interface {
	Log(ev kafka.EventLending) error
}

type statsLog struct {
	producer sarama.AsyncProducer
	topic    string
}

func NewStatsLog(producer sarama.AsyncProducer, topic string) *statsLog {
	return &statsLog{
		producer: producer,
		topic:    topic,
	}
}

func (l *statsLog) Log(ev kafka.EventLending) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{Topic: l.topic, Value: sarama.StringEncoder(data)}
	l.producer.Input() <- msg
	return nil
}

// NewNopStatsLog is used when no broker is configured.
func NewNopStatsLog() *nopStatsLog {
	return &nopStatsLog{}
}

type nopStatsLog struct{}

func (l *nopStatsLog) Log(kafka.EventLending) error {
	return nil
}
