package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/jengzang/pathtrack-backend-go/internal/models"
	"github.com/jengzang/pathtrack-backend-go/internal/repository"
	"github.com/jengzang/pathtrack-backend-go/internal/spatial"
)

// PathStore is the storage the path service reads from
type PathStore interface {
	GetPaths(ctx context.Context, filter models.PathFilter) ([]models.Path, int64, error)
	GetPathByID(ctx context.Context, userID, id string) (*models.Path, error)
	DeletePath(ctx context.Context, userID, id string) error
}

// PathService handles business logic for stored paths
type PathService struct {
	pathRepo PathStore
}

// NewPathService creates a new path service
func NewPathService(pathRepo PathStore) *PathService {
	return &PathService{
		pathRepo: pathRepo,
	}
}

// GetPaths retrieves paths with filtering and pagination
func (s *PathService) GetPaths(ctx context.Context, filter models.PathFilter) (*models.PathsResponse, error) {
	// Validate filter
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	if filter.PageSize > 200 {
		filter.PageSize = 200
	}
	if filter.Geohash != "" && !spatial.ValidGeohash(filter.Geohash) {
		return nil, fmt.Errorf("%w: invalid geohash %q", ErrInvalidInput, filter.Geohash)
	}
	if filter.StartTime > 0 && filter.EndTime > 0 && filter.EndTime < filter.StartTime {
		return nil, fmt.Errorf("%w: endTime before startTime", ErrInvalidInput)
	}

	paths, total, err := s.pathRepo.GetPaths(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get paths: %w", err)
	}

	// Calculate total pages
	totalPages := int(math.Ceil(float64(total) / float64(filter.PageSize)))

	return &models.PathsResponse{
		Data:       paths,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: totalPages,
	}, nil
}

// GetPath retrieves a path with its points. A positive simplify tolerance (meters)
// thins the points with Douglas-Peucker; the summary fields describe the stored path.
func (s *PathService) GetPath(ctx context.Context, userID, id string, simplify float64) (*models.Path, error) {
	if simplify < 0 || math.IsNaN(simplify) {
		return nil, fmt.Errorf("%w: simplify must be >= 0", ErrInvalidInput)
	}

	path, err := s.pathRepo.GetPathByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, repository.ErrPathNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get path: %w", err)
	}

	if simplify > 0 && len(path.Points) > 2 {
		geo := make([]spatial.Point, len(path.Points))
		for i, p := range path.Points {
			geo[i] = spatial.Point{Lat: p.Latitude, Lon: p.Longitude}
		}
		keep := spatial.SimplifyPath(geo, simplify)
		points := make([]models.PathPoint, len(keep))
		for i, idx := range keep {
			points[i] = path.Points[idx]
		}
		path.Points = points
	}

	return path, nil
}

// DeletePath deletes one of the user's paths
func (s *PathService) DeletePath(ctx context.Context, userID, id string) error {
	if err := s.pathRepo.DeletePath(ctx, userID, id); err != nil {
		if errors.Is(err, repository.ErrPathNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete path: %w", err)
	}
	return nil
}
