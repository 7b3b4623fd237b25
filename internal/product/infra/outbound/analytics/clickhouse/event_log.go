package clickhouse

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"

	"github.com/davicafu/catalogo/internal/product/domain"
)

// EventLog registra en ClickHouse cada evento proyectado con éxito.
// Es solo append: no participa en el ack del mensaje.
type EventLog struct {
	db *sql.DB
}

var _ domain.EventLog = (*EventLog)(nil)

// NewEventLog abre la conexión y comprueba que responde.
func NewEventLog(ctx context.Context, addr, dbName string) (*EventLog, error) {
	conn := clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: dbName,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
	})

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("could not ping clickhouse: %w", err)
	}
	return NewEventLogFromDB(conn), nil
}

func NewEventLogFromDB(db *sql.DB) *EventLog {
	return &EventLog{db: db}
}

// InitSchema crea la tabla si no existe, particionada por mes.
func (l *EventLog) InitSchema(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS productos_event_log (
			event_type  LowCardinality(String),
			product_id  UUID,
			queue       LowCardinality(String),
			applied_at  DateTime64(3)
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMM(applied_at)
		ORDER BY (product_id, applied_at)
	`)
	return err
}

func (l *EventLog) Record(ctx context.Context, entry domain.EventLogEntry) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO productos_event_log (event_type, product_id, queue, applied_at) VALUES (?, ?, ?, ?)`,
		string(entry.EventType), entry.ProductID, entry.Queue, entry.AppliedAt,
	)
	if err != nil {
		return fmt.Errorf("record %s for %s: %w", entry.EventType, entry.ProductID, err)
	}
	return nil
}

func (l *EventLog) Close() error {
	return l.db.Close()
}
