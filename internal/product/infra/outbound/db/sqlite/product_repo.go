package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/davicafu/catalogo/internal/product/domain"
)

// ProductRepoSQLite es el almacén de escritura para despliegues locales.
// El precio se guarda como TEXT para no perder precisión decimal.
type ProductRepoSQLite struct {
	db *sql.DB
}

var _ domain.ProductRepository = (*ProductRepoSQLite)(nil)

func NewProductRepoSQLite(db *sql.DB) *ProductRepoSQLite {
	return &ProductRepoSQLite{db: db}
}

func InitSQLite(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS productos (
            id TEXT PRIMARY KEY,
            nombre TEXT NOT NULL,
            precio_base TEXT NOT NULL,
            categoria TEXT NOT NULL,
            imagen_url TEXT NOT NULL,
            estado TEXT NOT NULL,
            id_usuario TEXT NOT NULL DEFAULT ''
        )
    `)
	return err
}

func (r *ProductRepoSQLite) Add(ctx context.Context, p *domain.Product) error {
	s := p.Snapshot()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO productos (id,nombre,precio_base,categoria,imagen_url,estado,id_usuario) VALUES (?,?,?,?,?,?,?)`,
		s.ID.String(), s.Name, s.Price.String(), s.Category, s.ImageURL, s.Status, s.OwnerID,
	)
	if err != nil {
		var sqliteErr *msqlite.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
			return domain.ErrProductAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *ProductRepoSQLite) Update(ctx context.Context, p *domain.Product) error {
	s := p.Snapshot()
	res, err := r.db.ExecContext(ctx,
		`UPDATE productos SET nombre=?, precio_base=?, categoria=?, imagen_url=?, estado=?, id_usuario=? WHERE id=?`,
		s.Name, s.Price.String(), s.Category, s.ImageURL, s.Status, s.OwnerID, s.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *ProductRepoSQLite) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM productos WHERE id=?`, id.String())
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *ProductRepoSQLite) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id,nombre,precio_base,categoria,imagen_url,estado,id_usuario FROM productos WHERE id=?`, id.String())

	var (
		s     domain.Snapshot
		idStr string
		price string
	)
	if err := row.Scan(&idStr, &s.Name, &price, &s.Category, &s.ImageURL, &s.Status, &s.OwnerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	var err error
	if s.ID, err = uuid.Parse(idStr); err != nil {
		return nil, fmt.Errorf("corrupt product id %q: %w", idStr, err)
	}
	if err := s.Price.Scan(price); err != nil {
		return nil, fmt.Errorf("corrupt product price %q: %w", price, err)
	}
	return domain.FromSnapshot(s)
}
