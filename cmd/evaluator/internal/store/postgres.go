package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/vakulkumar/price-alert-system/pkg/models"
)

// ErrNotFound is returned when a lookup matches no active row.
var ErrNotFound = errors.New("store: not found")

// Compile-time check to ensure PostgresStore implements Store
var _ Store = (*PostgresStore)(nil)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dsn string, maxOpenConns int) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open postgres: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping postgres: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

const findActiveAlertsQuery = `
SELECT a.id, a.user_id, u.email, COALESCE(u.phone, ''), a.symbol, a.condition,
       a.target_price, a.target_price_high, a.notification_types,
       a.cooldown_minutes, a.last_triggered_at
FROM alerts a
JOIN users u ON u.id = a.user_id
WHERE a.symbol = $1 AND a.active = TRUE AND u.is_active = TRUE`

func (s *PostgresStore) FindActiveAlerts(ctx context.Context, symbol string) ([]models.AlertView, error) {
	rows, err := s.db.QueryContext(ctx, findActiveAlertsQuery, symbol)
	if err != nil {
		return nil, fmt.Errorf("store: query alerts for %s: %w", symbol, err)
	}
	defer rows.Close()

	var views []models.AlertView
	for rows.Next() {
		var (
			v         models.AlertView
			condition string
			high      sql.NullFloat64
			channels  string
			last      sql.NullTime
		)
		if err := rows.Scan(&v.ID, &v.UserID, &v.UserEmail, &v.UserPhone, &v.Symbol,
			&condition, &v.TargetPrice, &high, &channels, &v.CooldownMinutes, &last); err != nil {
			return nil, fmt.Errorf("store: scan alert row: %w", err)
		}

		v.Condition = models.Condition(condition)
		if high.Valid {
			h := high.Float64
			v.TargetPriceHigh = &h
		}
		if last.Valid {
			t := last.Time
			v.LastTriggeredAt = &t
		}
		v.Channels = parseChannels(channels)

		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate alert rows: %w", err)
	}
	return views, nil
}

const markTriggeredQuery = `
UPDATE alerts
SET last_triggered_at = $2, triggered_count = triggered_count + 1
WHERE id = $1`

func (s *PostgresStore) MarkTriggered(ctx context.Context, alertID int64, when time.Time) error {
	res, err := s.db.ExecContext(ctx, markTriggeredQuery, alertID, when)
	if err != nil {
		return fmt.Errorf("store: mark alert %d triggered: %w", alertID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// parseChannels splits the comma-separated notification_types column.
// An empty column means the email default.
func parseChannels(raw string) []models.Channel {
	if strings.TrimSpace(raw) == "" {
		return []models.Channel{models.ChannelEmail}
	}
	var channels []models.Channel
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			channels = append(channels, models.Channel(part))
		}
	}
	return channels
}
