package models

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LogoutRequest struct {
	// Push token of this browser, deactivated on logout when present.
	Token string `json:"token,omitempty"`
}

// CreateOrderRequest is the multipart order form. Files travel as separate
// parts under the "files" field.
type CreateOrderRequest struct {
	Service     string `form:"service" json:"service" validate:"required,max=120"`
	Name        string `form:"name" json:"name" validate:"required,max=200"`
	Email       string `form:"email" json:"email" validate:"required,email"`
	Phone       string `form:"phone" json:"phone" validate:"required,max=40"`
	Description string `form:"description" json:"description" validate:"required,max=5000"`
}

type CreateGalleryItemRequest struct {
	Title       string `form:"title" json:"title" validate:"required,max=200"`
	Description string `form:"description" json:"description" validate:"max=2000"`
	Category    string `form:"category" json:"category" validate:"max=120"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required" example:"in_progress"`
}

type PushRegisterRequest struct {
	Token string `json:"token"`
	// Previous is the permission this browser reported before, default when
	// empty.
	Previous string `json:"previous,omitempty" example:"requesting"`
	// Permission is the browser Notification.permission value the client saw,
	// or "unsupported" when the browser has no push support.
	Permission string `json:"permission" binding:"required" example:"granted"`
}

type PushUnregisterRequest struct {
	Token string `json:"token" binding:"required"`
}

type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}
