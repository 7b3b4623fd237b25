package domain

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// --- Repositorio de escritura ---
type ProductRepository interface {
	Add(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
}

// --- Almacén de lectura (proyección) ---
// Los documentos son espejos planos del agregado, con el id como UUID en texto.
type ProductReadStore interface {
	FindAll(ctx context.Context) ([]Snapshot, error)
	FindByID(ctx context.Context, id uuid.UUID) (Snapshot, error)
	Insert(ctx context.Context, doc Snapshot) error
	Upsert(ctx context.Context, doc Snapshot) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// EventPublisher entrega un evento al broker. Bloquea hasta que el broker lo acepta.
type EventPublisher interface {
	Publish(ctx context.Context, evt Event, exchange, routingKey string) error
}

// EventNotifier avisa a suscriptores dentro del proceso. No devuelve error.
type EventNotifier interface {
	Notify(ctx context.Context, evt Event)
}

// ImageStorage sube y borra imágenes de producto. Upload devuelve la URL pública.
type ImageStorage interface {
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
	Delete(ctx context.Context, url string) error
}

// EventLogEntry registra una proyección aplicada con éxito.
type EventLogEntry struct {
	EventType EventType
	ProductID uuid.UUID
	Queue     string
	AppliedAt time.Time
}

type EventLog interface {
	Record(ctx context.Context, entry EventLogEntry) error
}

// ---------- Helpers ----------

func ProductCacheKeyByID(id uuid.UUID) string {
	return fmt.Sprintf("product:id:%s", id.String())
}
