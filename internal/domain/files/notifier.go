package files

import (
	"context"
	"time"
)

type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
)

// Change se emite después de cada mutación persistida.
// File viene nil en los deletes.
type Change struct {
	Kind     ChangeKind
	Category Category
	ID       string
	At       time.Time
	File     *File
}

// Notifier recibe los cambios (invalidación de cache, feed a Kafka).
// No devuelve error: cada implementación loguea sus propias fallas y la
// mutación ya quedó persistida.
type Notifier interface {
	FileChanged(ctx context.Context, ch Change)
}

type NotifierFunc func(ctx context.Context, ch Change)

func (f NotifierFunc) FileChanged(ctx context.Context, ch Change) { f(ctx, ch) }

// Notifiers hace fan-out en orden.
type Notifiers []Notifier

func (ns Notifiers) FileChanged(ctx context.Context, ch Change) {
	for _, n := range ns {
		if n != nil {
			n.FileChanged(ctx, ch)
		}
	}
}
