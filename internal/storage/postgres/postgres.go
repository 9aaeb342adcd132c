// Package postgres is the pgx-backed storage backend for saved events and
// favorites.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/moodscout/moodscout/internal/core/model"
	"github.com/moodscout/moodscout/internal/storage"
)

type Store struct {
	pool *pgxpool.Pool
}

var _ storage.Store = (*Store)(nil)

func Connect(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) SaveEvent(ctx context.Context, userID string, ev model.EventRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO saved_events (user_id, event_id, name, date, location)
		 VALUES ($1, $2, $3, $4, $5)`,
		userID, ev.ID, ev.Name, ev.Date, ev.Location)
	if isUniqueViolation(err) {
		return storage.ErrAlreadySaved
	}
	if err != nil {
		return fmt.Errorf("insert saved event: %w", err)
	}
	return nil
}

func (s *Store) ListEvents(ctx context.Context, userID string) ([]model.EventRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT event_id, name, date, location
		 FROM saved_events WHERE user_id = $1 ORDER BY saved_at`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("query saved events: %w", err)
	}
	defer rows.Close()

	var out []model.EventRecord
	for rows.Next() {
		var ev model.EventRecord
		if err := rows.Scan(&ev.ID, &ev.Name, &ev.Date, &ev.Location); err != nil {
			return nil, fmt.Errorf("scan saved event: %w", err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate saved events: %w", err)
	}
	return out, nil
}

func (s *Store) RemoveEvent(ctx context.Context, userID, eventID string) error {
	ct, err := s.pool.Exec(ctx,
		`DELETE FROM saved_events WHERE user_id = $1 AND event_id = $2`,
		userID, eventID)
	if err != nil {
		return fmt.Errorf("delete saved event: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) IsSaved(ctx context.Context, userID, eventID string) (bool, error) {
	var one int
	err := s.pool.QueryRow(ctx,
		`SELECT 1 FROM saved_events WHERE user_id = $1 AND event_id = $2`,
		userID, eventID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query saved event: %w", err)
	}
	return true, nil
}

func (s *Store) SaveFavorite(ctx context.Context, userID string, sug model.Suggestion) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO favorites
		   (user_id, suggestion_id, name, latitude, longitude, image_url, description, is_outdoor)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		userID, sug.ID, sug.Name,
		sug.Coordinate.Latitude, sug.Coordinate.Longitude,
		sug.ImageURL, sug.Description, sug.IsOutdoor)
	if isUniqueViolation(err) {
		return storage.ErrAlreadySaved
	}
	if err != nil {
		return fmt.Errorf("insert favorite: %w", err)
	}
	return nil
}

func (s *Store) ListFavorites(ctx context.Context, userID string) ([]model.Suggestion, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT suggestion_id, name, latitude, longitude, image_url, description, is_outdoor
		 FROM favorites WHERE user_id = $1 ORDER BY saved_at`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("query favorites: %w", err)
	}
	defer rows.Close()

	var out []model.Suggestion
	for rows.Next() {
		var sug model.Suggestion
		if err := rows.Scan(&sug.ID, &sug.Name,
			&sug.Coordinate.Latitude, &sug.Coordinate.Longitude,
			&sug.ImageURL, &sug.Description, &sug.IsOutdoor); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		out = append(out, sug)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate favorites: %w", err)
	}
	return out, nil
}

func (s *Store) RemoveFavorite(ctx context.Context, userID, suggestionID string) error {
	ct, err := s.pool.Exec(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND suggestion_id = $2`,
		userID, suggestionID)
	if err != nil {
		return fmt.Errorf("delete favorite: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
