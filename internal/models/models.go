package models

import "time"

type Vertical struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	IconName     string    `json:"icon_name"`
	Order        int       `json:"order"`
	IsActive     bool      `json:"is_active"`
	ProductCount int       `json:"product_count"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Product struct {
	ID             int64     `json:"id"`
	VerticalID     int64     `json:"vertical_id"`
	VerticalTitle  string    `json:"vertical"`
	Name           string    `json:"name"`
	Slug           string    `json:"slug"`
	Description    string    `json:"description"`
	Image          string    `json:"image,omitempty"`
	MOQ            string    `json:"moq"`
	Packaging      string    `json:"packaging"`
	Badge          string    `json:"badge,omitempty"`
	StockStatus    string    `json:"stock_status"`
	Brand          string    `json:"brand"`
	Certifications string    `json:"certifications,omitempty"`
	IsActive       bool      `json:"is_active"`
	IsPublic       bool      `json:"is_public"`
	Order          int       `json:"order"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type CompanyInfo struct {
	Name     string `json:"name"`
	Business string `json:"business"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Hours    string `json:"hours"`
}

type ContactInquiry struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Company   string    `json:"company"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

type QuoteRequest struct {
	ID          int64     `json:"id"`
	ProductID   *int64    `json:"product_id,omitempty"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Company     string    `json:"company"`
	Quantity    string    `json:"quantity"`
	Message     string    `json:"message"`
	IsProcessed bool      `json:"is_processed"`
	CreatedAt   time.Time `json:"created_at"`
}
