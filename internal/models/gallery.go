package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

const DefaultGalleryCategory = "Trabalhos Realizados"

type GalleryItem struct {
	ID          uuid.UUID
	Title       string
	Description sql.NullString
	ImageURL    string
	StoragePath string
	Category    sql.NullString
	CreatedAt   time.Time
}
