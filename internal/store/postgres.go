package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"retail-catalog-service/internal/domain"
)

// Predefined errors for store operations
var (
	ErrProductNotFound   = errors.New("store: product not found")
	ErrProductCodeExists = errors.New("store: product code already exists")
)

const productColumns = `id, code, name, description, price, category,
		image_listing_path, image_features_path, installments,
		month, year, segment, status, in_stock`

// PostgresStore implements the ProductStorer interface using PostgreSQL.
type PostgresStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresStore creates a new PostgresStore instance.
func NewPostgresStore(db *sql.DB, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger}
}

func (s *PostgresStore) ListByMonth(ctx context.Context, year int, month, segment string) ([]domain.Product, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		WHERE year = $1 AND month = $2 AND segment = $3
		ORDER BY category, code;
	`, productColumns)

	rows, err := s.db.QueryContext(ctx, query, year, month, strings.ToLower(strings.TrimSpace(segment)))
	if err != nil {
		return nil, fmt.Errorf("store: ListByMonth failed to query products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("store: ListByMonth failed to scan product row: %w", err)
		}
		products = append(products, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ListByMonth iteration error: %w", err)
	}
	return products, nil
}

func (s *PostgresStore) DistinctMonths(ctx context.Context) ([]MonthCount, error) {
	query := `
		SELECT year, month, COUNT(*)
		FROM products
		GROUP BY year, month
		ORDER BY year DESC, month DESC;
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("store: DistinctMonths failed to query months: %w", err)
	}
	defer rows.Close()

	months := []MonthCount{}
	for rows.Next() {
		var mc MonthCount
		if err := rows.Scan(&mc.Year, &mc.Month, &mc.ProductCount); err != nil {
			return nil, fmt.Errorf("store: DistinctMonths failed to scan row: %w", err)
		}
		months = append(months, mc)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: DistinctMonths iteration error: %w", err)
	}
	return months, nil
}

func (s *PostgresStore) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	query := fmt.Sprintf(`
		INSERT INTO products
			(code, name, description, price, category, image_listing_path,
			 image_features_path, installments, month, year, segment, status, in_stock)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING %s;
	`, productColumns)

	installmentsJSON, err := marshalInstallments(product.Installments)
	if err != nil {
		return nil, fmt.Errorf("store: CreateProduct failed to encode installments: %w", err)
	}

	row := s.db.QueryRowContext(ctx, query,
		product.Code, product.Name, product.Description, product.Price, product.Category,
		product.ImageListingPath, product.ImageFeaturesPath, installmentsJSON,
		product.Month, product.Year, strings.ToLower(strings.TrimSpace(product.Segment)),
		product.Status, product.InStock,
	)

	created, err := scanProduct(row)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // Unique violation
			if strings.Contains(pqErr.Constraint, "products_code_key") || strings.Contains(pqErr.Detail, "Key (code)") {
				return nil, ErrProductCodeExists
			}
		}
		return nil, fmt.Errorf("store: CreateProduct failed to scan row: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		WHERE id = $1;
	`, productColumns)

	product, err := scanProduct(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("store: GetProductByID failed to scan row: %w", err)
	}
	return product, nil
}

func (s *PostgresStore) ListProducts(ctx context.Context, params ListProductsParams) ([]domain.Product, error) {
	var queryArgs []interface{}
	var whereClauses []string
	argID := 1

	if params.Segment != nil && *params.Segment != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("segment = $%d", argID))
		queryArgs = append(queryArgs, strings.ToLower(strings.TrimSpace(*params.Segment)))
		argID++
	}
	if params.Year != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("year = $%d", argID))
		queryArgs = append(queryArgs, *params.Year)
		argID++
	}
	if params.Month != nil && *params.Month != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("month = $%d", argID))
		queryArgs = append(queryArgs, *params.Month)
		argID++
	}

	whereCondition := ""
	if len(whereClauses) > 0 {
		whereCondition = " WHERE " + strings.Join(whereClauses, " AND ")
	}

	query := fmt.Sprintf("SELECT %s FROM products%s ORDER BY id;", productColumns, whereCondition)

	rows, err := s.db.QueryContext(ctx, query, queryArgs...)
	if err != nil {
		return nil, fmt.Errorf("store: ListProducts failed to query products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("store: ListProducts failed to scan product row: %w", err)
		}
		products = append(products, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ListProducts iteration error: %w", err)
	}
	return products, nil
}

func (s *PostgresStore) UpdateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	query := fmt.Sprintf(`
		UPDATE products
		SET code = $1, name = $2, description = $3, price = $4, category = $5,
			image_listing_path = $6, image_features_path = $7, installments = $8,
			month = $9, year = $10, segment = $11, status = $12, in_stock = $13
		WHERE id = $14
		RETURNING %s;
	`, productColumns)

	installmentsJSON, err := marshalInstallments(product.Installments)
	if err != nil {
		return nil, fmt.Errorf("store: UpdateProduct failed to encode installments: %w", err)
	}

	row := s.db.QueryRowContext(ctx, query,
		product.Code, product.Name, product.Description, product.Price, product.Category,
		product.ImageListingPath, product.ImageFeaturesPath, installmentsJSON,
		product.Month, product.Year, strings.ToLower(strings.TrimSpace(product.Segment)),
		product.Status, product.InStock, product.ID,
	)

	updated, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			if strings.Contains(pqErr.Constraint, "products_code_key") || strings.Contains(pqErr.Detail, "Key (code)") {
				return nil, ErrProductCodeExists
			}
		}
		return nil, fmt.Errorf("store: UpdateProduct failed to scan row: %w", err)
	}
	return updated, nil
}

func (s *PostgresStore) DeleteProduct(ctx context.Context, id int64) error {
	query := `DELETE FROM products WHERE id = $1;`
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("store: DeleteProduct failed to execute delete: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: DeleteProduct failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (s *PostgresStore) Close() error {
	if s.db != nil {
		s.logger.Info("Closing database connection pool")
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection pool", zap.Error(err))
			return err
		}
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var p domain.Product
	var price string
	var installmentsRaw sql.NullString

	err := row.Scan(
		&p.ID, &p.Code, &p.Name, &p.Description, &price, &p.Category,
		&p.ImageListingPath, &p.ImageFeaturesPath, &installmentsRaw,
		&p.Month, &p.Year, &p.Segment, &p.Status, &p.InStock,
	)
	if err != nil {
		return nil, err
	}

	p.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("invalid price %q: %w", price, err)
	}

	if installmentsRaw.Valid && installmentsRaw.String != "" && installmentsRaw.String != "null" {
		if err := json.Unmarshal([]byte(installmentsRaw.String), &p.Installments); err != nil {
			return nil, fmt.Errorf("invalid installments payload: %w", err)
		}
	}
	return &p, nil
}

func marshalInstallments(installments map[string]decimal.Decimal) ([]byte, error) {
	if len(installments) == 0 {
		return []byte("null"), nil
	}
	return json.Marshal(installments)
}
