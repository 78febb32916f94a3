package dummy

import (
	"sync"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stemsplit/stemsplit-be/src/shared/lib/rabbitmq"
	"github.com/stemsplit/stemsplit-be/src/worker/internal/application/worker"
)

var _ rabbitmq.Publisher = &RabbitMQ{}
var _ worker.MessageChannel = &RabbitMQ{}

func NewRabbitMQ() *RabbitMQ {
	return &RabbitMQ{
		messages: make(chan amqp091.Delivery, 100),
	}
}

// RabbitMQ plays both sides of the queue: jobs published to it come
// back out of Consume, and acks/nacks are counted instead of being
// sent anywhere.
type RabbitMQ struct {
	AckCounter  int
	NackCounter int

	messages chan amqp091.Delivery
	mutex    sync.Mutex
	closed   bool
}

func (r *RabbitMQ) Publish(msg amqp091.Publishing) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.closed {
		return amqp091.ErrClosed
	}

	r.messages <- amqp091.Delivery{
		Acknowledger: (*dummyAcknowledger)(r),
		Type:         msg.Type,
		Body:         msg.Body,
	}

	return nil
}

func (r *RabbitMQ) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp091.Table) (<-chan amqp091.Delivery, error) {
	return r.messages, nil
}

func (r *RabbitMQ) Close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if !r.closed {
		r.closed = true
		close(r.messages)
	}

	return nil
}

type dummyAcknowledger RabbitMQ

func (d *dummyAcknowledger) Ack(tag uint64, multiple bool) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.AckCounter++
	return nil
}

func (d *dummyAcknowledger) Nack(tag uint64, multiple bool, requeue bool) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.NackCounter++
	return nil
}

func (d *dummyAcknowledger) Reject(tag uint64, requeue bool) error {
	return d.Nack(tag, false, requeue)
}
