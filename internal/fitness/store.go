package fitness

import (
	"context"
	"database/sql"
	"time"

	"github.com/stridelab/stridecoach/pkg/fault"
	"github.com/stridelab/stridecoach/pkg/models"
)

// Store persists one derived-metrics row per (user, calculation date).
// Rows are append-only: recomputing an already-stored date is a no-op.
type Store struct {
	db *sql.DB
}

// NewStore wraps an opened database (schema owned by the workouts package).
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const dateLayout = "2006-01-02"

// Save records the metrics for their calculation date. An existing row for
// the same (user, date) wins; the stored history is never rewritten.
func (s *Store) Save(ctx context.Context, m models.DerivedMetrics) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO derived_metrics
			(user_id, calculation_date, vma_kmh, vo2max, load_7d, load_28d,
			 endurance_ratio, race_10k_min, recommendation, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, calculation_date) DO NOTHING`,
		m.UserID, m.CalculationDate.UTC().Format(dateLayout),
		nullable(m.VMAKmh), nullable(m.VO2MaxEst), m.Load7d, m.Load28d,
		nullable(m.EnduranceRatio), nullable(m.Race10KMin), m.Recommendation,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fault.Wrap(fault.Unavailable, "save derived metrics", err)
	}
	return nil
}

// Latest returns the most recent stored metrics row for a user.
func (s *Store) Latest(ctx context.Context, userID int64) (*models.DerivedMetrics, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, calculation_date, vma_kmh, vo2max, load_7d, load_28d,
		       endurance_ratio, race_10k_min, recommendation
		FROM derived_metrics
		WHERE user_id = ?
		ORDER BY calculation_date DESC
		LIMIT 1`, userID)

	var m models.DerivedMetrics
	var date string
	var vma, vo2, ratio, race sql.NullFloat64
	err := row.Scan(&m.UserID, &date, &vma, &vo2, &m.Load7d, &m.Load28d, &ratio, &race, &m.Recommendation)
	if err == sql.ErrNoRows {
		return nil, fault.Newf(fault.NotFound, "no derived metrics for user %d", userID)
	}
	if err != nil {
		return nil, fault.Wrap(fault.Unavailable, "load derived metrics", err)
	}
	if t, perr := time.Parse(dateLayout, date); perr == nil {
		m.CalculationDate = t
	}
	m.Form = m.Load28d
	m.Fatigue = m.Load7d
	if vma.Valid {
		m.VMAKmh = &vma.Float64
	}
	if vo2.Valid {
		m.VO2MaxEst = &vo2.Float64
	}
	if ratio.Valid {
		m.EnduranceRatio = &ratio.Float64
	}
	if race.Valid {
		m.Race10KMin = &race.Float64
	}
	return &m, nil
}

func nullable(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
