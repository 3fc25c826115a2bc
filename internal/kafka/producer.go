package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// Topics published by the reservation service.
const (
	TopicTripCreated          = "busline.trip.created"
	TopicTripUpdated          = "busline.trip.updated"
	TopicTripDeleted          = "busline.trip.deleted"
	TopicReservationCreated   = "busline.reservation.created"
	TopicReservationUpdated   = "busline.reservation.updated"
	TopicReservationCancelled = "busline.reservation.cancelled"
	TopicBulkPriceUpdated     = "busline.price.bulk_updated"
)

// RequiredTopics lists everything main ensures exists at startup.
var RequiredTopics = []string{
	TopicTripCreated,
	TopicTripUpdated,
	TopicTripDeleted,
	TopicReservationCreated,
	TopicReservationUpdated,
	TopicReservationCancelled,
	TopicBulkPriceUpdated,
}

type Producer struct {
	Writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.LeastBytes{},
	}
	return &Producer{Writer: writer}
}

// Publish writes one message to the given topic, keyed by entity ID so
// events for the same entity stay ordered within a partition.
func (p *Producer) Publish(topic string, key string, value []byte) error {
	return p.Writer.WriteMessages(context.Background(),
		kafka.Message{
			Topic: topic,
			Key:   []byte(key),
			Value: value,
		},
	)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
