package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fjod/food_delivery/catalog-service/internal/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/shopspring/decimal"
	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer; also keeps a ":memory:" database on a single connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(migrationsPath string) error {
	driver, err := sqlite.WithInstance(r.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}

const productColumns = `id, name, description, price, images, category, subcategory, attributes, created_at`

func (r *Repository) ListProducts(ctx context.Context, f ProductFilter) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	var (
		where []string
		args  []any
	)
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if f.Subcategory != "" {
		where = append(where, "subcategory = ?")
		args = append(args, f.Subcategory)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return products, nil
}

func (r *Repository) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	return p, err
}

// SearchProducts matches query against product names ignoring case. SQLite's
// lower() only folds ASCII, so matching happens here.
func (r *Repository) SearchProducts(ctx context.Context, query string) ([]*domain.Product, error) {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return []*domain.Product{}, nil
	}

	all, err := r.ListProducts(ctx, ProductFilter{})
	if err != nil {
		return nil, err
	}
	out := []*domain.Product{}
	for _, p := range all {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *Repository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, gradient FROM categories ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := []domain.Category{}
	index := map[string]int{}
	for rows.Next() {
		var (
			c        domain.Category
			gradient string
		)
		if err := rows.Scan(&c.Name, &gradient); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		if err := json.Unmarshal([]byte(gradient), &c.Gradient); err != nil {
			return nil, fmt.Errorf("decode gradient of %q: %w", c.Name, err)
		}
		c.Subcategories = []domain.Subcategory{}
		index[c.Name] = len(categories)
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	subRows, err := r.db.QueryContext(ctx, `SELECT category, name, color FROM subcategories ORDER BY category, position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query subcategories: %w", err)
	}
	defer subRows.Close()
	for subRows.Next() {
		var (
			category string
			s        domain.Subcategory
			color    int64
		)
		if err := subRows.Scan(&category, &s.Name, &color); err != nil {
			return nil, fmt.Errorf("failed to scan subcategory: %w", err)
		}
		s.Color = uint32(color)
		if i, ok := index[category]; ok {
			categories[i].Subcategories = append(categories[i].Subcategories, s)
		}
	}
	if err := subRows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return categories, nil
}

// CreateProduct inserts p with its client-chosen id and registers its
// category and subcategory if they are new.
func (r *Repository) CreateProduct(ctx context.Context, p *domain.Product) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		images, attrs, err := encodeCollections(p)
		if err != nil {
			return err
		}
		p.CreatedAt = time.Now().UTC()
		_, err = tx.ExecContext(ctx,
			`INSERT INTO products (id, name, description, price, images, category, subcategory, attributes, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Name, p.Description, p.Price.String(), images, p.Category, p.Subcategory, attrs, p.CreatedAt)
		if err != nil {
			if isConstraint(err) {
				return ErrProductExists
			}
			return fmt.Errorf("insert product: %w", err)
		}
		return ensureCategory(ctx, tx, p.Category, p.Subcategory)
	})
}

func (r *Repository) UpdateProduct(ctx context.Context, p *domain.Product) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		images, attrs, err := encodeCollections(p)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE products
			 SET name = ?, description = ?, price = ?, images = ?, category = ?, subcategory = ?, attributes = ?
			 WHERE id = ?`,
			p.Name, p.Description, p.Price.String(), images, p.Category, p.Subcategory, attrs, p.ID)
		if err != nil {
			return fmt.Errorf("update product: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrProductNotFound
		}
		return ensureCategory(ctx, tx, p.Category, p.Subcategory)
	})
}

func (r *Repository) DeleteProduct(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *Repository) GetSeller(ctx context.Context, userID string) (*domain.Seller, error) {
	var s domain.Seller
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, email, firm_name, description, created_at FROM sellers WHERE user_id = ?`, userID,
	).Scan(&s.UserID, &s.Email, &s.FirmName, &s.Description, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSellerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query seller: %w", err)
	}
	return &s, nil
}

func (r *Repository) CreateSeller(ctx context.Context, s *domain.Seller) error {
	s.CreatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sellers (user_id, email, firm_name, description, created_at) VALUES (?, ?, ?, ?, ?)`,
		s.UserID, s.Email, s.FirmName, s.Description, s.CreatedAt)
	if err != nil {
		if isConstraint(err) {
			return ErrSellerExists
		}
		return fmt.Errorf("insert seller: %w", err)
	}
	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func ensureCategory(ctx context.Context, tx *sql.Tx, category, subcategory string) error {
	gradient, _ := json.Marshal([]uint32{domain.DefaultGradientStart, domain.DefaultGradientEnd})
	_, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO categories (name, gradient, position)
		 SELECT ?, ?, COALESCE(MAX(position) + 1, 0) FROM categories`,
		category, string(gradient))
	if err != nil {
		return fmt.Errorf("ensure category: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO subcategories (category, name, color, position)
		 SELECT ?, ?, ?, COALESCE(MAX(position) + 1, 0) FROM subcategories WHERE category = ?`,
		category, subcategory, int64(domain.DefaultSubcategoryColor), category)
	if err != nil {
		return fmt.Errorf("ensure subcategory: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(s scanner) (*domain.Product, error) {
	var (
		p      domain.Product
		price  string
		images string
		attrs  string
	)
	if err := s.Scan(&p.ID, &p.Name, &p.Description, &price, &images, &p.Category, &p.Subcategory, &attrs, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}
	var err error
	if p.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("product %d: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(images), &p.Images); err != nil {
		return nil, fmt.Errorf("product %d images: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(attrs), &p.Attributes); err != nil {
		return nil, fmt.Errorf("product %d attributes: %w", p.ID, err)
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Attributes == nil {
		p.Attributes = map[string]string{}
	}
	return &p, nil
}

func encodeCollections(p *domain.Product) (string, string, error) {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	attrs := p.Attributes
	if attrs == nil {
		attrs = map[string]string{}
	}
	ib, err := json.Marshal(images)
	if err != nil {
		return "", "", fmt.Errorf("encode images: %w", err)
	}
	ab, err := json.Marshal(attrs)
	if err != nil {
		return "", "", fmt.Errorf("encode attributes: %w", err)
	}
	return string(ib), string(ab), nil
}

func isConstraint(err error) bool {
	var se *sqlitedrv.Error
	if !errors.As(err, &se) {
		return false
	}
	code := se.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY || code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code&0xff == sqlite3.SQLITE_CONSTRAINT
}
