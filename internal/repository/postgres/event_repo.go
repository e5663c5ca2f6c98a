package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"eventhub/internal/domain"
)

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{DB: db}
}

const eventColumns = `id, title, description, date, event_time, location, location_lat, location_lng,
		organizer, category, is_free, price, media_ref, owner_id, created_at, updated_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	var latNull, lngNull, priceNull sql.NullFloat64
	var mediaNull sql.NullString
	var owner string
	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.Date, &e.Time, &e.Location, &latNull, &lngNull,
		&e.Organizer, &e.Category, &e.IsFree, &priceNull, &mediaNull, &owner, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if latNull.Valid {
		e.LocationLat = &latNull.Float64
	}
	if lngNull.Valid {
		e.LocationLng = &lngNull.Float64
	}
	if priceNull.Valid {
		e.Price = &priceNull.Float64
	}
	if mediaNull.Valid {
		e.MediaRef = &mediaNull.String
	}
	e.Owner = domain.ID(owner)
	return e, nil
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (title, description, date, event_time, location, location_lat, location_lng,
			organizer, category, is_free, price, media_ref, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		e.Title, e.Description, e.Date, e.Time, e.Location, e.LocationLat, e.LocationLng,
		e.Organizer, e.Category, e.IsFree, e.Price, e.MediaRef, e.Owner.String(), e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
}

func (r *eventRepository) GetByID(ctx context.Context, id domain.ID) (*domain.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events WHERE id = $1`, eventColumns)
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// List returns events matching the filter in store-native order. A plain
// list (zero filter) carries no ORDER BY at all.
func (r *eventRepository) List(ctx context.Context, filter domain.EventFilter) ([]*domain.Event, error) {
	whereClauses := []string{}
	args := []interface{}{}
	n := 1
	if filter.Query != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", n, n))
		args = append(args, "%"+filter.Query+"%")
		n++
	}
	if filter.Category != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("LOWER(category) = LOWER($%d)", n))
		args = append(args, filter.Category)
		n++
	}
	if filter.Location != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("location ILIKE $%d", n))
		args = append(args, "%"+filter.Location+"%")
		n++
	}
	if filter.DateFrom != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("date >= $%d", n))
		args = append(args, *filter.DateFrom)
		n++
	}
	if filter.MinPrice != nil {
		// Free events count as price 0 for range filtering.
		whereClauses = append(whereClauses, fmt.Sprintf("COALESCE(price, 0) >= $%d", n))
		args = append(args, *filter.MinPrice)
		n++
	}
	if filter.MaxPrice != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("COALESCE(price, 0) <= $%d", n))
		args = append(args, *filter.MaxPrice)
		n++
	}
	if filter.FreeOnly {
		whereClauses = append(whereClauses, "is_free = TRUE")
	}

	query := fmt.Sprintf(`SELECT %s FROM events`, eventColumns)
	if len(whereClauses) > 0 {
		query += " WHERE " + strings.Join(whereClauses, " AND ")
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepository) ListByOwner(ctx context.Context, owner domain.ID) ([]*domain.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events WHERE owner_id = $1 ORDER BY created_at DESC`, eventColumns)
	rows, err := r.DB.QueryContext(ctx, query, owner.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Update merges the provided fields into the existing record; omitted fields
// keep their prior values. The owner column is never touched.
func (r *eventRepository) Update(ctx context.Context, id domain.ID, upd domain.EventUpdate) (*domain.Event, error) {
	setClauses := []string{"updated_at = NOW()"}
	args := []interface{}{}
	n := 1
	set := func(column string, value interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, n))
		args = append(args, value)
		n++
	}
	if upd.Title != nil {
		set("title", *upd.Title)
	}
	if upd.Description != nil {
		set("description", *upd.Description)
	}
	if upd.Date != nil {
		set("date", *upd.Date)
	}
	if upd.Time != nil {
		set("event_time", *upd.Time)
	}
	if upd.Location != nil {
		set("location", *upd.Location)
	}
	if upd.LocationLat != nil {
		set("location_lat", *upd.LocationLat)
	}
	if upd.LocationLng != nil {
		set("location_lng", *upd.LocationLng)
	}
	if upd.Organizer != nil {
		set("organizer", *upd.Organizer)
	}
	if upd.Category != nil {
		set("category", *upd.Category)
	}
	if upd.IsFree != nil {
		set("is_free", *upd.IsFree)
	}
	if upd.ClearPrice {
		setClauses = append(setClauses, "price = NULL")
	} else if upd.Price != nil {
		set("price", *upd.Price)
	}
	if upd.MediaRef != nil {
		set("media_ref", *upd.MediaRef)
	}
	if n == 1 && !upd.ClearPrice {
		// No fields to update; just fetch the current row.
		return r.GetByID(ctx, id)
	}
	args = append(args, id.String())
	query := fmt.Sprintf(`
		UPDATE events SET %s
		WHERE id = $%d
		RETURNING %s
	`, strings.Join(setClauses, ", "), n, eventColumns)
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) Delete(ctx context.Context, id domain.ID) error {
	query := `DELETE FROM events WHERE id = $1`
	result, err := r.DB.ExecContext(ctx, query, id.String())
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
