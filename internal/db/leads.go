package db

import (
	"context"

	"github.com/westend/backend/internal/models"
)

func (s *Store) CreateContactInquiry(ctx context.Context, in models.ContactInquiry) (models.ContactInquiry, error) {
	err := s.Pool.QueryRow(ctx, `
		INSERT INTO contact_inquiries (name, email, phone, company, message)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, is_read, created_at`,
		in.Name, in.Email, in.Phone, in.Company, in.Message).Scan(&in.ID, &in.IsRead, &in.CreatedAt)
	if err != nil {
		return models.ContactInquiry{}, err
	}
	return in, nil
}

func (s *Store) CreateQuoteRequest(ctx context.Context, q models.QuoteRequest) (models.QuoteRequest, error) {
	err := s.Pool.QueryRow(ctx, `
		INSERT INTO quote_requests (product_id, name, email, phone, company, quantity, message)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, is_processed, created_at`,
		q.ProductID, q.Name, q.Email, q.Phone, q.Company, q.Quantity, q.Message).Scan(&q.ID, &q.IsProcessed, &q.CreatedAt)
	if err != nil {
		return models.QuoteRequest{}, err
	}
	return q, nil
}
