package store

import (
	"context"
	"time"

	"github.com/vakulkumar/price-alert-system/pkg/models"
)

// Store is the alert/user backing store the evaluator consumes. Alert and
// user lifecycle belongs to the CRUD API; the evaluator only reads active
// records and records trigger side effects.
type Store interface {
	// FindActiveAlerts returns active alerts for a symbol joined with the
	// owning user's contact info. Alerts whose user is inactive are excluded.
	FindActiveAlerts(ctx context.Context, symbol string) ([]models.AlertView, error)

	// MarkTriggered stamps last_triggered_at and bumps triggered_count.
	MarkTriggered(ctx context.Context, alertID int64, when time.Time) error

	Close() error
}
