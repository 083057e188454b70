package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"sjmc-records/internal/domain/files"
	"sjmc-records/internal/platform/logger"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
)

const (
	source       = "sjmc-records"
	writeTimeout = 5 * time.Second
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher implementa files.Notifier: cada mutación se publica como un
// evento JSON con key = id del expediente (mismo expediente, misma partición).
type Publisher struct {
	writer messageWriter
	topic  string
	log    logger.Logger
	newID  func() string
}

// NewPublisher escribe en modo async: FileChanged sólo encola y los errores
// del broker llegan a Completion, fuera del request.
func NewPublisher(brokers []string, topic string, log logger.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		Async:        true,
		BatchTimeout: 10 * time.Millisecond,
	}
	p := newPublisher(w, topic, log)
	w.Completion = p.completed
	return p
}

func newPublisher(w messageWriter, topic string, log logger.Logger) *Publisher {
	if log == nil {
		log = logger.Nop()
	}
	return &Publisher{
		writer: w,
		topic:  topic,
		log:    log.With(map[string]any{"component": "kafka_publisher", "topic": topic}),
		newID:  func() string { return uuid.New().String() },
	}
}

type changeEvent struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Source    string         `json:"source"`
	Category  string         `json:"category"`
	FileID    string         `json:"fileId"`
	Timestamp time.Time      `json:"timestamp"`
	File      map[string]any `json:"file,omitempty"`
}

// FileChanged no propaga errores: la mutación ya está persistida.
func (p *Publisher) FileChanged(ctx context.Context, ch files.Change) {
	msg, err := p.message(ch)
	if err != nil {
		p.log.Error("build change event failed", map[string]any{"file_id": ch.ID, "err": err})
		return
	}

	// el request puede cancelarse apenas respondemos; el evento igual sale
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Error("publish change event failed", map[string]any{
			"file_id":  ch.ID,
			"category": ch.Category,
			"kind":     ch.Kind,
			"err":      err,
		})
		return
	}
	p.log.Debug("change event queued", map[string]any{"file_id": ch.ID, "kind": ch.Kind})
}

func (p *Publisher) completed(msgs []kafkago.Message, err error) {
	if err == nil {
		p.log.Debug("change events delivered", map[string]any{"count": len(msgs)})
		return
	}
	ids := make([]string, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, string(m.Key))
	}
	p.log.Error("publish change event failed", map[string]any{"file_ids": ids, "err": err})
}

func (p *Publisher) message(ch files.Change) (kafkago.Message, error) {
	ev := changeEvent{
		ID:        p.newID(),
		Type:      "file." + string(ch.Kind),
		Source:    source,
		Category:  string(ch.Category),
		FileID:    ch.ID,
		Timestamp: ch.At.UTC(),
	}
	if ch.File != nil {
		ev.File = make(map[string]any, len(ch.File.Values)+3)
		for k, v := range ch.File.Values {
			ev.File[k] = v
		}
		ev.File["id"] = ch.File.ID
		ev.File[files.KeyRegistrationDate] = ch.File.RegistrationDate.UTC()
		ev.File[files.KeyExpiryDate] = ch.File.ExpiryDate.UTC()
	}

	b, err := json.Marshal(ev)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("marshal change event: %w", err)
	}

	return kafkago.Message{
		Key:   []byte(ch.ID),
		Value: b,
		Headers: []kafkago.Header{
			{Key: "event-type", Value: []byte(ev.Type)},
			{Key: "source", Value: []byte(source)},
		},
	}, nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
