package events

type Bus interface {
	Publish(subject string, data []byte, msgId string) error
	Drain() error
}

var _ Bus = NopBus{}

// NopBus is used when no NATS endpoint is configured. Events are dropped.
type NopBus struct{}

func (NopBus) Publish(subject string, data []byte, msgId string) error { return nil }

func (NopBus) Drain() error { return nil }
