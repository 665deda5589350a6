package models

import "time"

type HealthResponse struct {
	Status string `json:"status"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ServicesResponse struct {
	Services []string `json:"services"`
}

type GalleryItemResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url"`
	Category    string    `json:"category,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type GalleryListResponse struct {
	Items []GalleryItemResponse `json:"items"`
}

type OrderResponse struct {
	ID          string      `json:"id"`
	Service     string      `json:"service"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Phone       string      `json:"phone"`
	Description string      `json:"description"`
	Files       []OrderFile `json:"files"`
	Status      string      `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
}

type PushStatusResponse struct {
	State        string     `json:"state"`
	Active       bool       `json:"active"`
	RegisteredAt *time.Time `json:"registered_at,omitempty"`
}

type SendEmailResponse struct {
	Success bool   `json:"success"`
	EmailID string `json:"emailId,omitempty"`
	Message string `json:"message"`
}

type SendPushResponse struct {
	Success     bool      `json:"success"`
	Message     string    `json:"message"`
	SentCount   int       `json:"sentCount"`
	FailedCount int       `json:"failedCount"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewGalleryItemResponse(item GalleryItem) GalleryItemResponse {
	resp := GalleryItemResponse{
		ID:        item.ID.String(),
		Title:     item.Title,
		ImageURL:  item.ImageURL,
		CreatedAt: item.CreatedAt,
	}
	if item.Description.Valid {
		resp.Description = item.Description.String
	}
	if item.Category.Valid {
		resp.Category = item.Category.String
	}
	return resp
}

func NewOrderResponse(o Order) OrderResponse {
	files := []OrderFile(o.Files)
	if files == nil {
		files = []OrderFile{}
	}
	return OrderResponse{
		ID:          o.ID.String(),
		Service:     o.Service,
		Name:        o.Name,
		Email:       o.Email,
		Phone:       o.Phone,
		Description: o.Description,
		Files:       files,
		Status:      string(o.Status),
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}
