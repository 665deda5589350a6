package supabase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"luminoso-backend/internal/models"
)

// ErrNotFound is returned when a lookup by id matches no row.
var ErrNotFound = errors.New("record not found")

const (
	galleryColumns = "id, title, description, image_url, storage_path, category, created_at"
	orderColumns   = "id, service, name, email, phone, description, files, status, created_at, updated_at"
	tokenColumns   = "id, token, user_type, is_active, created_at, updated_at"
	outboxColumns  = "id, order_id, kind, payload, status, attempts, last_error, next_attempt_at, created_at, updated_at"
)

type DatabaseClient struct {
	db *sql.DB
	sb squirrel.StatementBuilderType
}

func NewDatabaseClient(connectionString string) (*DatabaseClient, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewDatabaseClientFromDB(db), nil
}

func NewDatabaseClientFromDB(db *sql.DB) *DatabaseClient {
	return &DatabaseClient{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// DB exposes the pool so migrations can share it.
func (d *DatabaseClient) DB() *sql.DB {
	return d.db
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanGalleryItem(row rowScanner) (models.GalleryItem, error) {
	var item models.GalleryItem
	err := row.Scan(
		&item.ID, &item.Title, &item.Description, &item.ImageURL,
		&item.StoragePath, &item.Category, &item.CreatedAt,
	)
	return item, err
}

func scanOrder(row rowScanner) (models.Order, error) {
	var order models.Order
	var status string
	err := row.Scan(
		&order.ID, &order.Service, &order.Name, &order.Email, &order.Phone,
		&order.Description, &order.Files, &status, &order.CreatedAt, &order.UpdatedAt,
	)
	order.Status = models.OrderStatus(status)
	return order, err
}

func scanToken(row rowScanner) (models.FCMToken, error) {
	var token models.FCMToken
	err := row.Scan(
		&token.ID, &token.Token, &token.UserType, &token.IsActive,
		&token.CreatedAt, &token.UpdatedAt,
	)
	return token, err
}

func scanNotification(row rowScanner) (models.Notification, error) {
	var n models.Notification
	var kind string
	var payload []byte
	err := row.Scan(
		&n.ID, &n.OrderID, &kind, &payload, &n.Status, &n.Attempts,
		&n.LastError, &n.NextAttemptAt, &n.CreatedAt, &n.UpdatedAt,
	)
	n.Kind = models.NotificationKind(kind)
	n.Payload = payload
	return n, err
}

// Gallery

func (d *DatabaseClient) ListGalleryItems(ctx context.Context, category string) ([]models.GalleryItem, error) {
	builder := d.sb.Select(galleryColumns).
		From("gallery_items").
		OrderBy("created_at DESC")
	if category != "" {
		builder = builder.Where(squirrel.Eq{"category": category})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build gallery query: %w", err)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list gallery items: %w", err)
	}
	defer rows.Close()

	items := make([]models.GalleryItem, 0)
	for rows.Next() {
		item, err := scanGalleryItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan gallery item: %w", err)
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func (d *DatabaseClient) GetGalleryItem(ctx context.Context, id uuid.UUID) (*models.GalleryItem, error) {
	item, err := scanGalleryItem(d.db.QueryRowContext(ctx, `
		SELECT `+galleryColumns+`
		FROM gallery_items
		WHERE id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get gallery item: %w", err)
	}

	return &item, nil
}

func (d *DatabaseClient) CreateGalleryItem(ctx context.Context, item *models.GalleryItem) error {
	err := d.db.QueryRowContext(ctx, `
		INSERT INTO gallery_items (title, description, image_url, storage_path, category)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, item.Title, item.Description, item.ImageURL, item.StoragePath, item.Category).
		Scan(&item.ID, &item.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create gallery item: %w", err)
	}

	return nil
}

// DeleteGalleryItem reports whether a row was actually removed.
func (d *DatabaseClient) DeleteGalleryItem(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := d.db.ExecContext(ctx, `DELETE FROM gallery_items WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete gallery item: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete gallery item: %w", err)
	}
	return n > 0, nil
}

// Orders

// CreateOrder inserts the order and its pending notifications in one
// transaction, so a stored order always has its deliveries queued.
func (d *DatabaseClient) CreateOrder(ctx context.Context, order *models.Order, notifications []models.Notification) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (service, name, email, phone, description, files, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, status, created_at, updated_at
	`, order.Service, order.Name, order.Email, order.Phone, order.Description,
		order.Files, string(models.OrderStatusNew)).
		Scan(&order.ID, &status, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	order.Status = models.OrderStatus(status)

	for i := range notifications {
		n := &notifications[i]
		n.OrderID = order.ID
		err := tx.QueryRowContext(ctx, `
			INSERT INTO notification_outbox (order_id, kind, payload)
			VALUES ($1, $2, $3)
			RETURNING id, status, next_attempt_at, created_at, updated_at
		`, n.OrderID, string(n.Kind), []byte(n.Payload)).
			Scan(&n.ID, &n.Status, &n.NextAttemptAt, &n.CreatedAt, &n.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to queue %s notification: %w", n.Kind, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}

	return nil
}

func (d *DatabaseClient) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := scanOrder(d.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return &order, nil
}

func (d *DatabaseClient) ListOrders(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	builder := d.sb.Select(orderColumns).
		From("orders").
		OrderBy("created_at DESC")
	if status != "" {
		builder = builder.Where(squirrel.Eq{"status": string(status)})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build orders query: %w", err)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]models.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	return orders, rows.Err()
}

// UpdateOrderStatus only applies when the row still has status from, so two
// admins clicking at once cannot skip a step. It reports whether it applied.
func (d *DatabaseClient) UpdateOrderStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus) (bool, error) {
	res, err := d.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`, string(to), id, string(from))
	if err != nil {
		return false, fmt.Errorf("failed to update order status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to update order status: %w", err)
	}
	return n > 0, nil
}

// DeleteOrder removes the order only if it is done.
func (d *DatabaseClient) DeleteOrder(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := d.db.ExecContext(ctx, `
		DELETE FROM orders
		WHERE id = $1 AND status = $2
	`, id, string(models.OrderStatusDone))
	if err != nil {
		return false, fmt.Errorf("failed to delete order: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete order: %w", err)
	}
	return n > 0, nil
}

// Push tokens

func (d *DatabaseClient) UpsertAdminToken(ctx context.Context, token string) (*models.FCMToken, error) {
	record, err := scanToken(d.db.QueryRowContext(ctx, `
		SELECT `+tokenColumns+`
		FROM upsert_admin_fcm_token($1)
	`, token))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert admin token: %w", err)
	}

	return &record, nil
}

func (d *DatabaseClient) DeactivateToken(ctx context.Context, token string) (bool, error) {
	res, err := d.db.ExecContext(ctx, `
		UPDATE fcm_tokens
		SET is_active = FALSE, updated_at = NOW()
		WHERE token = $1 AND is_active
	`, token)
	if err != nil {
		return false, fmt.Errorf("failed to deactivate token: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to deactivate token: %w", err)
	}
	return n > 0, nil
}

func (d *DatabaseClient) ActiveAdminTokens(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT token
		FROM fcm_tokens
		WHERE user_type = $1 AND is_active
		ORDER BY updated_at DESC
	`, models.UserTypeAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to list active tokens: %w", err)
	}
	defer rows.Close()

	tokens := make([]string, 0)
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, fmt.Errorf("failed to scan token: %w", err)
		}
		tokens = append(tokens, token)
	}

	return tokens, rows.Err()
}

func (d *DatabaseClient) LatestActiveAdminToken(ctx context.Context) (*models.FCMToken, error) {
	record, err := scanToken(d.db.QueryRowContext(ctx, `
		SELECT `+tokenColumns+`
		FROM fcm_tokens
		WHERE user_type = $1 AND is_active
		ORDER BY updated_at DESC
		LIMIT 1
	`, models.UserTypeAdmin))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active token: %w", err)
	}

	return &record, nil
}

// Notification outbox

// ClaimDueNotifications leases up to limit due rows by pushing their
// next_attempt_at forward by lease and counting the attempt. Rows locked by
// another dispatcher are skipped.
func (d *DatabaseClient) ClaimDueNotifications(ctx context.Context, limit int, lease time.Duration) ([]models.Notification, error) {
	rows, err := d.db.QueryContext(ctx, `
		UPDATE notification_outbox
		SET attempts = attempts + 1,
			next_attempt_at = NOW() + make_interval(secs => $2),
			updated_at = NOW()
		WHERE id IN (
			SELECT id FROM notification_outbox
			WHERE status = 'pending' AND next_attempt_at <= NOW()
			ORDER BY next_attempt_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+outboxColumns, limit, lease.Seconds())
	if err != nil {
		return nil, fmt.Errorf("failed to claim notifications: %w", err)
	}
	defer rows.Close()

	claimed := make([]models.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		claimed = append(claimed, n)
	}

	return claimed, rows.Err()
}

func (d *DatabaseClient) MarkNotificationSent(ctx context.Context, id uuid.UUID) error {
	_, err := d.db.ExecContext(ctx, `
		UPDATE notification_outbox
		SET status = 'sent', last_error = NULL, updated_at = NOW()
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification sent: %w", err)
	}
	return nil
}

func (d *DatabaseClient) RescheduleNotification(ctx context.Context, id uuid.UUID, lastError string, next time.Time) error {
	_, err := d.db.ExecContext(ctx, `
		UPDATE notification_outbox
		SET last_error = $1, next_attempt_at = $2, updated_at = NOW()
		WHERE id = $3
	`, lastError, next, id)
	if err != nil {
		return fmt.Errorf("failed to reschedule notification: %w", err)
	}
	return nil
}

func (d *DatabaseClient) MarkNotificationFailed(ctx context.Context, id uuid.UUID, lastError string) error {
	_, err := d.db.ExecContext(ctx, `
		UPDATE notification_outbox
		SET status = 'failed', last_error = $1, updated_at = NOW()
		WHERE id = $2
	`, lastError, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification failed: %w", err)
	}
	return nil
}

func (d *DatabaseClient) Close() error {
	return d.db.Close()
}
