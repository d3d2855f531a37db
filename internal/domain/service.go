package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"example.com/ridedash/internal/observability"
	"example.com/ridedash/internal/record"
	"example.com/ridedash/internal/store"
)

var (
	// ErrNoRides is returned when a rollup is requested for a user with no rides.
	ErrNoRides = errors.New("no rides recorded for user")
	// ErrPlaylistNotFound is returned when no music set matches a ride time.
	ErrPlaylistNotFound = errors.New("playlist not found")
	// ErrMalformedTimestamp marks a timestamp attribute that is not an integer epoch.
	ErrMalformedTimestamp = errors.New("malformed timestamp")
)

// Tables names the store tables each record kind lives in.
type Tables struct {
	Rides     string
	Courses   string
	MusicSets string
}

// Config carries values fixed at startup.
type Config struct {
	Tables        Tables
	DefaultUserID string
	Location      *time.Location
}

// Service runs one scan and one derivation per call. It holds no state between calls.
type Service struct {
	store         store.Scanner
	tables        Tables
	defaultUserID string
	loc           *time.Location
}

// NewService constructs a Service.
func NewService(scanner store.Scanner, cfg Config) *Service {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		store:         scanner,
		tables:        cfg.Tables,
		defaultUserID: cfg.DefaultUserID,
		loc:           loc,
	}
}

// DefaultUserID reports the fallback user.
func (s *Service) DefaultUserID() string {
	return s.defaultUserID
}

// DateLabels returns one date per ride, oldest first.
func (s *Service) DateLabels(ctx context.Context, userID string) (labels []string, err error) {
	defer func() { s.observe("labels", err) }()

	rides, err := s.userRides(ctx, userID)
	if err != nil {
		return nil, err
	}
	return DateLabels(rides, FieldRideID, s.loc)
}

// HeartRates returns one average heart rate per ride, aligned with DateLabels.
func (s *Service) HeartRates(ctx context.Context, userID string) (rates []int, err error) {
	defer func() { s.observe("heart_rate", err) }()

	rides, err := s.userRides(ctx, userID)
	if err != nil {
		return nil, err
	}
	return HeartRates(rides), nil
}

// Charts returns the five aligned chart series.
func (s *Service) Charts(ctx context.Context, userID string) (ds ChartDataset, err error) {
	defer func() { s.observe("charts", err) }()

	rides, err := s.userRides(ctx, userID)
	if err != nil {
		return ChartDataset{}, err
	}
	return Charts(rides), nil
}

// Rollup returns lifetime totals, or ErrNoRides.
func (s *Service) Rollup(ctx context.Context, userID string) (rollup Rollup, err error) {
	defer func() { s.observe("rollup", err) }()

	rides, err := s.userRides(ctx, userID)
	if err != nil {
		return Rollup{}, err
	}
	return BuildRollup(rides)
}

// Courses returns the user's course listing keyed by created_at.
func (s *Service) Courses(ctx context.Context, userID string) (listing CourseListing, err error) {
	defer func() { s.observe("courses", err) }()

	items, err := s.scan(ctx, s.tables.Courses)
	if err != nil {
		return nil, err
	}
	sorted, err := SortByEpoch(FilterByUser(items, userID, s.defaultUserID), FieldCreatedAt)
	if err != nil {
		return nil, err
	}
	return BuildCourseListing(sorted, s.loc)
}

// Playlist returns the songs of the music set recorded at rideTime.
func (s *Service) Playlist(ctx context.Context, rideTime string) (songs []string, err error) {
	defer func() { s.observe("playlist", err) }()

	items, err := s.scan(ctx, s.tables.MusicSets)
	if err != nil {
		return nil, err
	}
	return FindPlaylist(items, rideTime)
}

func (s *Service) userRides(ctx context.Context, userID string) ([]record.Record, error) {
	items, err := s.scan(ctx, s.tables.Rides)
	if err != nil {
		return nil, err
	}
	return SortByEpoch(FilterByUser(items, userID, s.defaultUserID), FieldRideID)
}

func (s *Service) scan(ctx context.Context, table string) ([]record.Record, error) {
	start := time.Now()
	items, err := s.store.Scan(ctx, table)
	observability.RecordScan(table, time.Since(start), len(items), err)
	if err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", store.ErrUnavailable, err)
	}
	return items, nil
}

func (s *Service) observe(view string, err error) {
	observability.RecordView(view, ErrorKind(err))
}

// ErrorKind classifies err into a stable, client-facing code.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNoRides):
		return "no_data"
	case errors.Is(err, ErrPlaylistNotFound):
		return "not_found"
	case errors.Is(err, ErrMalformedTimestamp):
		return "malformed_timestamp"
	case errors.Is(err, store.ErrUnavailable):
		return "store_unavailable"
	default:
		return "server_error"
	}
}
