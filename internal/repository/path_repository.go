package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jengzang/pathtrack-backend-go/internal/database"
	"github.com/jengzang/pathtrack-backend-go/internal/models"
)

// ErrPathNotFound is returned when a path does not exist or belongs to another user
var ErrPathNotFound = errors.New("path not found")

// PathRepository handles database operations for flushed paths
type PathRepository struct {
	db *sql.DB
}

// NewPathRepository creates a new path repository
func NewPathRepository(db *sql.DB) *PathRepository {
	return &PathRepository{db: db}
}

const pathColumns = `id, user_id, session_id, start_time, end_time, point_count,
	distance_meters, avg_accuracy, avg_bearing, start_geohash, flush_reason, created_at`

// SavePath stores a path and its points in one transaction and returns the path id.
// A path without an id gets a new UUID.
func (r *PathRepository) SavePath(ctx context.Context, path models.Path) (string, error) {
	if path.ID == "" {
		path.ID = uuid.NewString()
	}
	if path.CreatedAt.IsZero() {
		path.CreatedAt = time.Now()
	}

	err := database.Transaction(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO paths (`+pathColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			path.ID, path.UserID, path.SessionID,
			path.StartTime.UnixMilli(), path.EndTime.UnixMilli(), path.PointCount,
			path.DistanceMeters, path.AvgAccuracy, nullFloat(path.AvgBearing),
			path.StartGeohash, path.FlushReason, path.CreatedAt.UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert path: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO path_points
			(path_id, seq, latitude, longitude, timestamp, accuracy, quality_tier, bearing, speed)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, p := range path.Points {
			_, err := stmt.ExecContext(ctx, path.ID, p.Seq, p.Latitude, p.Longitude,
				p.Timestamp.UnixMilli(), p.Accuracy, p.QualityTier, nullFloat(p.Bearing), nullFloat(p.Speed))
			if err != nil {
				return fmt.Errorf("failed to insert point %d: %w", p.Seq, err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return path.ID, nil
}

// GetPaths retrieves a user's paths with filtering and pagination. Points are not loaded.
func (r *PathRepository) GetPaths(ctx context.Context, filter models.PathFilter) ([]models.Path, int64, error) {
	conditions := []string{"user_id = ?"}
	args := []interface{}{filter.UserID}

	// Add filters
	if filter.StartTime > 0 {
		conditions = append(conditions, "start_time >= ?")
		args = append(args, filter.StartTime*1000)
	}
	if filter.EndTime > 0 {
		conditions = append(conditions, "end_time <= ?")
		args = append(args, filter.EndTime*1000)
	}
	if filter.Geohash != "" {
		conditions = append(conditions, "start_geohash LIKE ?")
		args = append(args, filter.Geohash+"%")
	}
	where := " WHERE " + strings.Join(conditions, " AND ")

	// Get total count
	var total int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM paths"+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count paths: %w", err)
	}

	// Add pagination
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	if filter.PageSize > 200 {
		filter.PageSize = 200
	}

	offset := (filter.Page - 1) * filter.PageSize
	query := "SELECT " + pathColumns + " FROM paths" + where + " ORDER BY start_time DESC, id LIMIT ? OFFSET ?"
	args = append(args, filter.PageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query paths: %w", err)
	}
	defer rows.Close()

	paths := []models.Path{}
	for rows.Next() {
		p, err := scanPath(rows)
		if err != nil {
			return nil, 0, err
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate paths: %w", err)
	}

	return paths, total, nil
}

// GetPathByID retrieves one of the user's paths with all its points in sequence order
func (r *PathRepository) GetPathByID(ctx context.Context, userID, id string) (*models.Path, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+pathColumns+" FROM paths WHERE id = ? AND user_id = ?", id, userID)
	path, err := scanPath(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPathNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `SELECT seq, latitude, longitude, timestamp, accuracy, quality_tier, bearing, speed
		FROM path_points WHERE path_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query path points: %w", err)
	}
	defer rows.Close()

	path.Points = make([]models.PathPoint, 0, path.PointCount)
	for rows.Next() {
		var (
			p              models.PathPoint
			ts             int64
			bearing, speed sql.NullFloat64
		)
		if err := rows.Scan(&p.Seq, &p.Latitude, &p.Longitude, &ts, &p.Accuracy, &p.QualityTier, &bearing, &speed); err != nil {
			return nil, fmt.Errorf("failed to scan path point: %w", err)
		}
		p.Timestamp = time.UnixMilli(ts).UTC()
		p.Bearing = floatPtr(bearing)
		p.Speed = floatPtr(speed)
		path.Points = append(path.Points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate path points: %w", err)
	}

	return &path, nil
}

// DeletePath removes one of the user's paths; its points go with it
func (r *PathRepository) DeletePath(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM paths WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete path: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete path: %w", err)
	}
	if n == 0 {
		return ErrPathNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPath(row rowScanner) (models.Path, error) {
	var (
		p                   models.Path
		start, end, created int64
		bearing             sql.NullFloat64
	)
	err := row.Scan(&p.ID, &p.UserID, &p.SessionID, &start, &end, &p.PointCount,
		&p.DistanceMeters, &p.AvgAccuracy, &bearing, &p.StartGeohash, &p.FlushReason, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return p, err
	}
	if err != nil {
		return p, fmt.Errorf("failed to scan path: %w", err)
	}

	p.StartTime = time.UnixMilli(start).UTC()
	p.EndTime = time.UnixMilli(end).UTC()
	p.CreatedAt = time.UnixMilli(created).UTC()
	p.AvgBearing = floatPtr(bearing)
	return p, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
