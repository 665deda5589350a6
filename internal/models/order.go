package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusNew        OrderStatus = "new"
	OrderStatusRead       OrderStatus = "read"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusDone       OrderStatus = "done"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// orderSequence is the forward path an order walks through in the admin panel.
var orderSequence = []OrderStatus{
	OrderStatusNew,
	OrderStatusRead,
	OrderStatusInProgress,
	OrderStatusDone,
}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch st := OrderStatus(s); st {
	case OrderStatusNew, OrderStatusRead, OrderStatusInProgress, OrderStatusDone, OrderStatusCancelled:
		return st, true
	}
	return "", false
}

func (s OrderStatus) position() int {
	for i, st := range orderSequence {
		if st == s {
			return i
		}
	}
	return -1
}

// IsTerminal reports whether no further transition is possible.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDone || s == OrderStatusCancelled
}

// Next returns the status that follows s in the sequence.
func (s OrderStatus) Next() (OrderStatus, bool) {
	pos := s.position()
	if pos < 0 || pos+1 >= len(orderSequence) {
		return "", false
	}
	return orderSequence[pos+1], true
}

// CanTransitionTo allows forward moves along the sequence and cancellation of
// any order that is not finished yet.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if target == OrderStatusCancelled {
		return true
	}
	from, to := s.position(), target.position()
	return from >= 0 && to > from
}

type OrderFile struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Path string `json:"path,omitempty"`
}

// OrderFiles is stored as a jsonb column.
type OrderFiles []OrderFile

func (f OrderFiles) Value() (driver.Value, error) {
	if f == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(f)
}

func (f *OrderFiles) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*f = OrderFiles{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported files column type %T", src)
	}
	return json.Unmarshal(data, f)
}

type Order struct {
	ID          uuid.UUID
	Service     string
	Name        string
	Email       string
	Phone       string
	Description string
	Files       OrderFiles
	Status      OrderStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
