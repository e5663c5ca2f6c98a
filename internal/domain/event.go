package domain

import (
	"context"
	"io"
	"strings"
	"time"
)

// Event represents a listed event. Organizer is a free-text display field;
// Owner is the authorization anchor. The two are tracked separately and must
// never be conflated.
// swagger:model Event
type Event struct {
	ID          ID        `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Time        string    `json:"time"`
	Location    string    `json:"location"`
	LocationLat *float64  `json:"locationLat,omitempty"`
	LocationLng *float64  `json:"locationLng,omitempty"`
	Organizer   string    `json:"organizer"`
	Category    string    `json:"category"`
	IsFree      bool      `json:"isFree"`
	Price       *float64  `json:"price"`
	MediaRef    *string   `json:"mediaRef"`
	Owner       ID        `json:"owner"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// OwnedBy reports whether viewer is the owner of the event. An unset viewer
// never owns anything.
func (e *Event) OwnedBy(viewer ID) bool {
	return viewer.Equal(e.Owner)
}

// Validate checks required fields and the pricing invariant. It returns
// ErrInvalidInput wrapped with a description of the first violation found.
func (e *Event) Validate() error {
	switch {
	case strings.TrimSpace(e.Title) == "":
		return invalid("title is required")
	case strings.TrimSpace(e.Description) == "":
		return invalid("description is required")
	case e.Date.IsZero():
		return invalid("date is required")
	case strings.TrimSpace(e.Time) == "":
		return invalid("time is required")
	case strings.TrimSpace(e.Location) == "":
		return invalid("location is required")
	case strings.TrimSpace(e.Organizer) == "":
		return invalid("organizer is required")
	case strings.TrimSpace(e.Category) == "":
		return invalid("category is required")
	}
	return ValidatePricing(e.IsFree, e.Price)
}

// ValidatePricing enforces the pricing invariant: a free event has no price,
// a paid event has a non-negative one. Exactly one of the two shapes holds.
func ValidatePricing(isFree bool, price *float64) error {
	if isFree {
		if price != nil {
			return invalid("a free event must not carry a price")
		}
		return nil
	}
	if price == nil {
		return invalid("a paid event requires a price")
	}
	if *price < 0 {
		return invalid("price must be non-negative")
	}
	return nil
}

func invalid(msg string) error {
	return &InvalidInputError{Reason: msg}
}

// InvalidInputError carries the reason a validation failed. It unwraps to
// ErrInvalidInput so callers can match with errors.Is.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string { return "invalid input: " + e.Reason }
func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

// EventFilter is the optional criteria for listing events. Zero values mean
// "no constraint". Results come back in store-native order; no ordering
// guarantee is made.
type EventFilter struct {
	Query    string     // free-text over title and description
	Category string     // case-insensitive exact match
	Location string     // substring match
	DateFrom *time.Time // events on or after this date
	MinPrice *float64
	MaxPrice *float64
	FreeOnly bool
}

// IsZero reports whether the filter constrains nothing.
func (f EventFilter) IsZero() bool {
	return f.Query == "" && f.Category == "" && f.Location == "" &&
		f.DateFrom == nil && f.MinPrice == nil && f.MaxPrice == nil && !f.FreeOnly
}

// EventUpdate is the partial attribute set for an update. Nil pointers mean
// "leave unchanged". ClearPrice sets the price to null; it is used when an
// event transitions to free. The owner reference is immutable and therefore
// absent here.
type EventUpdate struct {
	Title       *string
	Description *string
	Date        *time.Time
	Time        *string
	Location    *string
	LocationLat *float64
	LocationLng *float64
	Organizer   *string
	Category    *string
	IsFree      *bool
	Price       *float64
	ClearPrice  bool
	MediaRef    *string
}

// IsZero reports whether the update changes nothing.
func (u EventUpdate) IsZero() bool {
	return u.Title == nil && u.Description == nil && u.Date == nil &&
		u.Time == nil && u.Location == nil && u.LocationLat == nil &&
		u.LocationLng == nil && u.Organizer == nil && u.Category == nil &&
		u.IsFree == nil && u.Price == nil && !u.ClearPrice && u.MediaRef == nil
}

// MediaUpload is an image attached to a create or update request.
type MediaUpload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// EventRepository defines the interface for event storage.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id ID) (*Event, error)
	List(ctx context.Context, filter EventFilter) ([]*Event, error)
	ListByOwner(ctx context.Context, owner ID) ([]*Event, error)
	Update(ctx context.Context, id ID, upd EventUpdate) (*Event, error)
	Delete(ctx context.Context, id ID) error
}

// EventService is the event access controller: it resolves ownership and
// authorizes reads and mutations.
type EventService interface {
	List(ctx context.Context, filter EventFilter) ([]*Event, error)
	GetByID(ctx context.Context, id ID) (*Event, error)
	ListByOwner(ctx context.Context, owner ID) ([]*Event, error)
	Create(ctx context.Context, owner ID, event *Event, upload *MediaUpload) (*Event, error)
	Update(ctx context.Context, id, caller ID, upd EventUpdate, upload *MediaUpload) (*Event, error)
	Delete(ctx context.Context, id, caller ID) error
}
