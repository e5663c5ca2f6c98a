package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"eventhub/internal/domain"
)

type eventService struct {
	eventRepo      domain.EventRepository
	media          domain.MediaStore
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewEventService creates the event access controller. All ownership
// decisions for mutations live here; delivery only supplies the verified
// caller identity.
func NewEventService(eventRepo domain.EventRepository, media domain.MediaStore, logger *slog.Logger, timeout time.Duration) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		media:          media,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *eventService) List(ctx context.Context, filter domain.EventFilter) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, nil
}

func (s *eventService) GetByID(ctx context.Context, id domain.ID) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (s *eventService) ListByOwner(ctx context.Context, owner domain.ID) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.ListByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list events by owner: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, nil
}

// Create persists a new event owned by the caller. The media upload, if
// any, is stored first; a record-create failure after a successful upload
// leaves an orphaned object, which is logged and left to garbage
// collection.
func (s *eventService) Create(ctx context.Context, owner domain.ID, event *domain.Event, upload *domain.MediaUpload) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if owner.IsZero() {
		return nil, domain.ErrUnauthorized
	}
	event.Owner = owner
	if err := event.Validate(); err != nil {
		return nil, err
	}

	if upload != nil {
		ref, err := s.media.Upload(ctx, upload)
		if err != nil {
			return nil, fmt.Errorf("upload media: %w", err)
		}
		event.MediaRef = &ref
	}

	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now
	if err := s.eventRepo.Create(ctx, event); err != nil {
		if event.MediaRef != nil {
			s.logger.Warn("event create failed after media upload, object orphaned", "mediaRef", *event.MediaRef, "err", err)
		}
		return nil, fmt.Errorf("create event: %w", err)
	}
	return event, nil
}

// Update merges the provided fields into the event after verifying the
// caller owns it. Pricing fields are re-validated against the merged state.
// A replaced media reference is deleted best-effort after the record
// mutation succeeds.
func (s *eventService) Update(ctx context.Context, id, caller domain.ID, upd domain.EventUpdate, upload *domain.MediaUpload) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.authorize(ctx, id, caller)
	if err != nil {
		return nil, err
	}

	if err := mergePricing(event, &upd); err != nil {
		return nil, err
	}

	var oldMedia *string
	if upload != nil {
		ref, err := s.media.Upload(ctx, upload)
		if err != nil {
			return nil, fmt.Errorf("upload media: %w", err)
		}
		upd.MediaRef = &ref
		oldMedia = event.MediaRef
	}

	updated, err := s.eventRepo.Update(ctx, id, upd)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}

	if oldMedia != nil {
		s.deleteMedia(ctx, *oldMedia)
	}
	return updated, nil
}

// Delete removes the event after verifying ownership. The associated media
// object, if any, is deleted best-effort; a failure there never converts a
// successful record deletion into a reported error.
func (s *eventService) Delete(ctx context.Context, id, caller domain.ID) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.authorize(ctx, id, caller)
	if err != nil {
		return err
	}

	if err := s.eventRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete event: %w", err)
	}

	if event.MediaRef != nil {
		s.deleteMedia(ctx, *event.MediaRef)
	}
	return nil
}

// authorize loads the target event and checks the caller owns it. Existence
// is checked before ownership, so a missing event is reported as NotFound
// even to strangers, while ownership failures carry no further detail.
func (s *eventService) authorize(ctx context.Context, id, caller domain.ID) (*domain.Event, error) {
	if caller.IsZero() {
		return nil, domain.ErrUnauthorized
	}
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if !event.OwnedBy(caller) {
		return nil, domain.ErrForbidden
	}
	return event, nil
}

// mergePricing validates the pricing invariant against the state the update
// would produce and normalizes the update so a transition to free clears
// the stored price.
func mergePricing(event *domain.Event, upd *domain.EventUpdate) error {
	if upd.IsFree == nil && upd.Price == nil && !upd.ClearPrice {
		return nil
	}

	mergedFree := event.IsFree
	if upd.IsFree != nil {
		mergedFree = *upd.IsFree
	}

	if mergedFree {
		if upd.Price != nil {
			return &domain.InvalidInputError{Reason: "a free event must not carry a price"}
		}
		upd.ClearPrice = true
		return nil
	}

	mergedPrice := event.Price
	if upd.Price != nil {
		mergedPrice = upd.Price
	}
	return domain.ValidatePricing(false, mergedPrice)
}

func (s *eventService) deleteMedia(ctx context.Context, ref string) {
	if err := s.media.Delete(ctx, ref); err != nil {
		s.logger.Warn("media delete failed, object orphaned", "mediaRef", ref, "err", err)
	}
}
