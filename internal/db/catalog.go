package db

import (
	"context"

	"github.com/westend/backend/internal/models"
)

const productColumns = `p.id, p.vertical_id, v.title, p.name, p.slug, p.description, p.image, p.moq, p.packaging,
	p.badge, p.stock_status, p.brand, p.certifications, p.is_active, p.is_public, p.sort_order, p.updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.VerticalID, &p.VerticalTitle, &p.Name, &p.Slug, &p.Description, &p.Image, &p.MOQ, &p.Packaging,
		&p.Badge, &p.StockStatus, &p.Brand, &p.Certifications, &p.IsActive, &p.IsPublic, &p.Order, &p.UpdatedAt)
	return p, err
}

// ListVerticals returns active verticals in display order with their active
// product counts.
func (s *Store) ListVerticals(ctx context.Context) ([]models.Vertical, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT v.id, v.title, v.description, v.icon_name, v.sort_order, v.is_active, v.updated_at,
			(SELECT count(*) FROM products p WHERE p.vertical_id = v.id AND p.is_active)
		FROM verticals v
		WHERE v.is_active
		ORDER BY v.sort_order ASC, v.id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Vertical
	for rows.Next() {
		var v models.Vertical
		if err := rows.Scan(&v.ID, &v.Title, &v.Description, &v.IconName, &v.Order, &v.IsActive, &v.UpdatedAt, &v.ProductCount); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ListProducts returns active public products, optionally limited to one
// vertical when verticalID is non-zero.
func (s *Store) ListProducts(ctx context.Context, verticalID int64) ([]models.Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products p JOIN verticals v ON v.id = p.vertical_id
		WHERE p.is_active AND p.is_public AND v.is_active`
	var args []any
	if verticalID != 0 {
		args = append(args, verticalID)
		query += ` AND p.vertical_id = $1`
	}
	query += ` ORDER BY v.sort_order ASC, p.sort_order ASC, p.id ASC`

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) ListSearchableProducts(ctx context.Context) ([]models.Product, error) {
	return s.ListProducts(ctx, 0)
}

func (s *Store) ListVerticalProducts(ctx context.Context, verticalID int64, limit int) ([]models.Product, error) {
	rows, err := s.Pool.Query(ctx, `SELECT `+productColumns+`
		FROM products p JOIN verticals v ON v.id = p.vertical_id
		WHERE p.vertical_id = $1 AND p.is_active AND p.is_public
		ORDER BY p.sort_order ASC, p.id ASC
		LIMIT $2`, verticalID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) GetProduct(ctx context.Context, id int64) (models.Product, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+productColumns+`
		FROM products p JOIN verticals v ON v.id = p.vertical_id
		WHERE p.id = $1 AND p.is_active AND p.is_public`, id)
	p, err := scanProduct(row)
	if err != nil {
		return models.Product{}, notFound(err)
	}
	return p, nil
}
