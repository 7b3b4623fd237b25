package postgre

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/davicafu/catalogo/internal/product/domain"
)

const uniqueViolation = "23505"

// ProductRepoPostgres es el almacén de escritura sobre Postgres (driver pgx vía database/sql).
type ProductRepoPostgres struct {
	db *sql.DB
}

var _ domain.ProductRepository = (*ProductRepoPostgres)(nil)

func NewProductRepoPostgres(db *sql.DB) *ProductRepoPostgres {
	return &ProductRepoPostgres{db: db}
}

func InitPostgres(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS productos (
			id UUID PRIMARY KEY,
			nombre TEXT NOT NULL,
			precio_base NUMERIC(18,2) NOT NULL CHECK (precio_base > 0),
			categoria TEXT NOT NULL,
			imagen_url TEXT NOT NULL,
			estado TEXT NOT NULL,
			id_usuario TEXT NOT NULL DEFAULT ''
		)
	`)
	return err
}

func (r *ProductRepoPostgres) Add(ctx context.Context, p *domain.Product) error {
	s := p.Snapshot()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO productos (id, nombre, precio_base, categoria, imagen_url, estado, id_usuario)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, s.Name, s.Price, s.Category, s.ImageURL, s.Status, s.OwnerID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrProductAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *ProductRepoPostgres) Update(ctx context.Context, p *domain.Product) error {
	s := p.Snapshot()
	res, err := r.db.ExecContext(ctx,
		`UPDATE productos
		 SET nombre=$1, precio_base=$2, categoria=$3, imagen_url=$4, estado=$5, id_usuario=$6
		 WHERE id=$7`,
		s.Name, s.Price, s.Category, s.ImageURL, s.Status, s.OwnerID, s.ID,
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *ProductRepoPostgres) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM productos WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *ProductRepoPostgres) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, nombre, precio_base, categoria, imagen_url, estado, id_usuario
		 FROM productos WHERE id=$1`, id)

	var s domain.Snapshot
	if err := row.Scan(&s.ID, &s.Name, &s.Price, &s.Category, &s.ImageURL, &s.Status, &s.OwnerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return domain.FromSnapshot(s)
}
