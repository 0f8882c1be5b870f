// Package sqlite implements product persistence over SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/harlowe/wholesail/internal/platform/storage/sqlitemigrate"
	"github.com/harlowe/wholesail/internal/services/catalog/domain"
	"github.com/harlowe/wholesail/internal/services/catalog/storage"
	"github.com/harlowe/wholesail/internal/services/catalog/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for catalog products.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a catalog SQLite store and applies bundled migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := store.runMigrations(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) runMigrations() error {
	return sqlitemigrate.ApplyMigrations(s.sqlDB, migrations.FS)
}

// PutProduct upserts one product row.
func (s *Store) PutProduct(ctx context.Context, product domain.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(product.ID) == "" {
		return fmt.Errorf("product id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO products (id, name, description, wholesale_price, retail_price, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    name = excluded.name,
    description = excluded.description,
    wholesale_price = excluded.wholesale_price,
    retail_price = excluded.retail_price,
    updated_at = excluded.updated_at
`,
		product.ID,
		product.Name,
		product.Description,
		product.WholesalePrice,
		product.RetailPrice,
		toMillis(product.CreatedAt),
		toMillis(product.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put product: %w", err)
	}
	return nil
}

// GetProduct fetches one product row by ID.
func (s *Store) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return domain.Product{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Product{}, fmt.Errorf("storage is not configured")
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return domain.Product{}, fmt.Errorf("product id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, name, description, wholesale_price, retail_price, created_at, updated_at
FROM products
WHERE id = ?
`, productID)
	product, err := scanProduct(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, storage.ErrNotFound
		}
		return domain.Product{}, fmt.Errorf("get product: %w", err)
	}
	return product, nil
}

// ListProducts returns one filtered page of products plus the unpaged count.
func (s *Store) ListProducts(ctx context.Context, filter storage.ListFilter) (storage.ProductPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.ProductPage{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.ProductPage{}, fmt.Errorf("storage is not configured")
	}
	if filter.Limit <= 0 {
		return storage.ProductPage{}, fmt.Errorf("limit must be greater than zero")
	}
	if filter.Offset < 0 {
		return storage.ProductPage{}, fmt.Errorf("offset must not be negative")
	}

	whereSQL := ""
	args := make([]any, 0, 3)
	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		whereSQL = "WHERE LOWER(name) LIKE ?"
		args = append(args, "%"+search+"%")
	}

	var total int
	if err := s.sqlDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM products "+whereSQL, args...).Scan(&total); err != nil {
		return storage.ProductPage{}, fmt.Errorf("count products: %w", err)
	}

	listArgs := append(append([]any{}, args...), filter.Limit, filter.Offset)
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, name, description, wholesale_price, retail_price, created_at, updated_at
FROM products
`+whereSQL+`
ORDER BY name ASC, id ASC
LIMIT ? OFFSET ?
`, listArgs...)
	if err != nil {
		return storage.ProductPage{}, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	page := storage.ProductPage{TotalCount: total}
	for rows.Next() {
		product, err := scanProduct(rows.Scan)
		if err != nil {
			return storage.ProductPage{}, fmt.Errorf("scan product: %w", err)
		}
		page.Products = append(page.Products, product)
	}
	if err := rows.Err(); err != nil {
		return storage.ProductPage{}, fmt.Errorf("iterate products: %w", err)
	}
	return page, nil
}

type productScanner func(dest ...any) error

func scanProduct(scan productScanner) (domain.Product, error) {
	var product domain.Product
	var createdAt, updatedAt int64
	if err := scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.WholesalePrice,
		&product.RetailPrice,
		&createdAt,
		&updatedAt,
	); err != nil {
		return domain.Product{}, err
	}
	product.CreatedAt = fromMillis(createdAt)
	product.UpdatedAt = fromMillis(updatedAt)
	return product, nil
}
