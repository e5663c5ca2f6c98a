package controllers

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"eventhub/internal/delivery/http/helpers"
	"eventhub/internal/delivery/http/middleware"
	"eventhub/internal/domain"
)

// dateLayout is the wire format for event dates. RFC 3339 timestamps are
// accepted on input for older clients.
const dateLayout = "2006-01-02"

// maxUploadMemory bounds the in-memory portion of a multipart body.
const maxUploadMemory = 32 << 20

// EventView is an event as rendered to a particular viewer. The owner
// reference and the IsOwner mark are only present for authenticated
// viewers; anonymous readers get the event with no ownership annotation
// at all.
// swagger:model EventView
type EventView struct {
	ID          domain.ID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Location    string    `json:"location"`
	LocationLat *float64  `json:"locationLat,omitempty"`
	LocationLng *float64  `json:"locationLng,omitempty"`
	Organizer   string    `json:"organizer"`
	Category    string    `json:"category"`
	IsFree      bool      `json:"isFree"`
	Price       *float64  `json:"price"`
	MediaRef    *string   `json:"mediaRef"`
	Owner       string    `json:"owner,omitempty"`
	IsOwner     *bool     `json:"isOwner,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func newEventView(e *domain.Event, viewer domain.ID) EventView {
	v := EventView{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Date:        e.Date.Format(dateLayout),
		Time:        e.Time,
		Location:    e.Location,
		LocationLat: e.LocationLat,
		LocationLng: e.LocationLng,
		Organizer:   e.Organizer,
		Category:    e.Category,
		IsFree:      e.IsFree,
		Price:       e.Price,
		MediaRef:    e.MediaRef,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
	if !viewer.IsZero() {
		owned := e.OwnedBy(viewer)
		v.IsOwner = &owned
		v.Owner = e.Owner.String()
	}
	return v
}

func newEventViews(events []*domain.Event, viewer domain.ID) []EventView {
	views := make([]EventView, 0, len(events))
	for _, e := range events {
		views = append(views, newEventView(e, viewer))
	}
	return views
}

// CreateEventRequest is the request body for POST /events. The same fields
// are accepted as multipart form values when an image is attached.
type CreateEventRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Date        string   `json:"date"`
	Time        string   `json:"time"`
	Location    string   `json:"location"`
	LocationLat *float64 `json:"locationLat"`
	LocationLng *float64 `json:"locationLng"`
	Organizer   string   `json:"organizer"`
	Category    string   `json:"category"`
	IsFree      bool     `json:"isFree"`
	Price       *float64 `json:"price"`
}

// Validate implements Validator. Returns error messages for required and format rules.
func (c CreateEventRequest) Validate() []string {
	var errs []string
	for _, f := range []struct{ name, value string }{
		{"title", c.Title},
		{"description", c.Description},
		{"date", c.Date},
		{"time", c.Time},
		{"location", c.Location},
		{"organizer", c.Organizer},
		{"category", c.Category},
	} {
		if strings.TrimSpace(f.value) == "" {
			errs = append(errs, f.name+" is required")
		}
	}
	if c.Date != "" {
		if _, err := parseDate(c.Date); err != nil {
			errs = append(errs, "date must be formatted as "+dateLayout)
		}
	}
	if c.LocationLat != nil && (*c.LocationLat < -90 || *c.LocationLat > 90) {
		errs = append(errs, "locationLat must be between -90 and 90")
	}
	if c.LocationLng != nil && (*c.LocationLng < -180 || *c.LocationLng > 180) {
		errs = append(errs, "locationLng must be between -180 and 180")
	}
	return errs
}

func (c CreateEventRequest) toDomain() (*domain.Event, error) {
	date, err := parseDate(c.Date)
	if err != nil {
		return nil, err
	}
	return &domain.Event{
		Title:       strings.TrimSpace(c.Title),
		Description: strings.TrimSpace(c.Description),
		Date:        date,
		Time:        strings.TrimSpace(c.Time),
		Location:    strings.TrimSpace(c.Location),
		LocationLat: c.LocationLat,
		LocationLng: c.LocationLng,
		Organizer:   strings.TrimSpace(c.Organizer),
		Category:    strings.TrimSpace(c.Category),
		IsFree:      c.IsFree,
		Price:       c.Price,
	}, nil
}

// UpdateEventRequest is the request body for PATCH /events/{eventID}.
// All fields optional; omitted fields are unchanged. Setting isFree to true
// clears the stored price.
type UpdateEventRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Date        *string  `json:"date"`
	Time        *string  `json:"time"`
	Location    *string  `json:"location"`
	LocationLat *float64 `json:"locationLat"`
	LocationLng *float64 `json:"locationLng"`
	Organizer   *string  `json:"organizer"`
	Category    *string  `json:"category"`
	IsFree      *bool    `json:"isFree"`
	Price       *float64 `json:"price"`
}

// Validate implements Validator.
func (u UpdateEventRequest) Validate() []string {
	var errs []string
	if u.Date != nil {
		if _, err := parseDate(*u.Date); err != nil {
			errs = append(errs, "date must be formatted as "+dateLayout)
		}
	}
	if u.LocationLat != nil && (*u.LocationLat < -90 || *u.LocationLat > 90) {
		errs = append(errs, "locationLat must be between -90 and 90")
	}
	if u.LocationLng != nil && (*u.LocationLng < -180 || *u.LocationLng > 180) {
		errs = append(errs, "locationLng must be between -180 and 180")
	}
	return errs
}

func (u UpdateEventRequest) toUpdate() (domain.EventUpdate, error) {
	upd := domain.EventUpdate{
		Title:       u.Title,
		Description: u.Description,
		Time:        u.Time,
		Location:    u.Location,
		LocationLat: u.LocationLat,
		LocationLng: u.LocationLng,
		Organizer:   u.Organizer,
		Category:    u.Category,
		IsFree:      u.IsFree,
		Price:       u.Price,
	}
	if u.Date != nil {
		date, err := parseDate(*u.Date)
		if err != nil {
			return domain.EventUpdate{}, err
		}
		upd.Date = &date
	}
	return upd, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := time.Parse(dateLayout, s); err == nil {
		return d, nil
	}
	return time.Parse(time.RFC3339, s)
}

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// viewer returns the authenticated viewer, or a zero ID for anonymous requests.
func viewer(r *http.Request) domain.ID {
	id, _ := middleware.UserIDFromContext(r.Context())
	return id
}

// List godoc
// @Summary List all events
// @Description Returns every listed event. Works without a credential; authenticated viewers additionally see which events are theirs.
// @Tags events
// @Produce json
// @Success 200 {object} helpers.APIResponse "data contains the event list"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [get]
func (c *EventController) List(w http.ResponseWriter, r *http.Request) {
	events, err := c.Service.List(r.Context(), domain.EventFilter{})
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, newEventViews(events, viewer(r)))
}

// Search godoc
// @Summary Search events
// @Description Filter events by free-text query, category, location, earliest date, price range, or free admission. All parameters are optional and combine with AND.
// @Tags events
// @Produce json
// @Param q query string false "Free-text match over title and description"
// @Param category query string false "Category, case-insensitive"
// @Param location query string false "Location substring"
// @Param dateFrom query string false "Earliest date (YYYY-MM-DD)"
// @Param minPrice query number false "Minimum price"
// @Param maxPrice query number false "Maximum price"
// @Param freeOnly query boolean false "Only free events"
// @Success 200 {object} helpers.APIResponse "data contains the matching events"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/search [get]
func (c *EventController) Search(w http.ResponseWriter, r *http.Request) {
	filter, err := parseEventFilter(r)
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	events, err := c.Service.List(r.Context(), filter)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, newEventViews(events, viewer(r)))
}

func parseEventFilter(r *http.Request) (domain.EventFilter, error) {
	q := r.URL.Query()
	filter := domain.EventFilter{
		Query:    strings.TrimSpace(q.Get("q")),
		Category: strings.TrimSpace(q.Get("category")),
		Location: strings.TrimSpace(q.Get("location")),
	}
	if s := q.Get("dateFrom"); s != "" {
		d, err := parseDate(s)
		if err != nil {
			return domain.EventFilter{}, errors.New("dateFrom must be formatted as " + dateLayout)
		}
		filter.DateFrom = &d
	}
	for _, p := range []struct {
		key  string
		dest **float64
	}{
		{"minPrice", &filter.MinPrice},
		{"maxPrice", &filter.MaxPrice},
	} {
		if s := q.Get(p.key); s != "" {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil || v < 0 {
				return domain.EventFilter{}, errors.New(p.key + " must be a non-negative number")
			}
			*p.dest = &v
		}
	}
	if s := q.Get("freeOnly"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return domain.EventFilter{}, errors.New("freeOnly must be a boolean")
		}
		filter.FreeOnly = v
	}
	return filter, nil
}

// GetByID godoc
// @Summary Get an event by ID
// @Description Returns a single event. Works without a credential; the owner reference is only disclosed to authenticated viewers.
// @Tags events
// @Produce json
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse "data contains the event"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [get]
func (c *EventController) GetByID(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	event, err := c.Service.GetByID(r.Context(), domain.ID(eventID))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, newEventView(event, viewer(r)))
}

// ListMine godoc
// @Summary List the caller's events
// @Description Returns the events owned by the authenticated caller.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the caller's events"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized or invalid_credential"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/filtered [get]
func (c *EventController) ListMine(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "missing credential")
		return
	}
	events, err := c.Service.ListByOwner(r.Context(), caller)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, newEventViews(events, caller))
}

// Create godoc
// @Summary Create an event
// @Description Create a new event. Send JSON, or multipart/form-data with the same fields plus an optional image file. The authenticated caller becomes the owner.
// @Tags events
// @Accept json
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param event body CreateEventRequest true "Event data"
// @Success 201 {object} helpers.APIResponse "data contains the created event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized or invalid_credential"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [post]
func (c *EventController) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "missing credential")
		return
	}

	var req CreateEventRequest
	var upload *domain.MediaUpload
	if isMultipart(r) {
		var err error
		req, upload, err = parseCreateForm(r)
		if err != nil {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return
		}
		if errs := req.Validate(); len(errs) > 0 {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, strings.Join(errs, "; "))
			return
		}
	} else if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	event, err := req.toDomain()
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	created, err := c.Service.Create(r.Context(), caller, event, upload)
	if err != nil {
		c.writeMutationError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, newEventView(created, caller))
}

// Update godoc
// @Summary Update an event
// @Description Partially update an event. Omitted fields are unchanged; setting isFree to true clears the price. Multipart bodies may replace the image. Only the owner may update.
// @Tags events
// @Accept json
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param event body UpdateEventRequest true "Fields to change"
// @Success 200 {object} helpers.APIResponse "data contains the updated event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized or invalid_credential"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [patch]
func (c *EventController) Update(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	caller, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "missing credential")
		return
	}

	var req UpdateEventRequest
	var upload *domain.MediaUpload
	if isMultipart(r) {
		var err error
		req, upload, err = parseUpdateForm(r)
		if err != nil {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return
		}
		if errs := req.Validate(); len(errs) > 0 {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, strings.Join(errs, "; "))
			return
		}
	} else if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	upd, err := req.toUpdate()
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	updated, err := c.Service.Update(r.Context(), domain.ID(eventID), caller, upd, upload)
	if err != nil {
		c.writeMutationError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, newEventView(updated, caller))
}

// Delete godoc
// @Summary Delete an event
// @Description Delete an event and, best-effort, its stored image. Only the owner may delete.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse "data contains the deletion status"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized or invalid_credential"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [delete]
func (c *EventController) Delete(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	caller, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "missing credential")
		return
	}
	if err := c.Service.Delete(r.Context(), domain.ID(eventID), caller); err != nil {
		c.writeMutationError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// writeMutationError maps service errors from create, update, and delete to
// HTTP responses. Existence is reported before ownership, so a missing event
// is 404 for everyone.
func (c *EventController) writeMutationError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
	case errors.Is(err, domain.ErrForbidden):
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
	case errors.Is(err, domain.ErrUnauthorized):
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "missing credential")
	case errors.Is(err, domain.ErrInvalidInput):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
	default:
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
	}
}

func isMultipart(r *http.Request) bool {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return ct == "multipart/form-data"
}

// parseCreateForm reads a multipart create request: event fields as form
// values plus an optional image file.
func parseCreateForm(r *http.Request) (CreateEventRequest, *domain.MediaUpload, error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return CreateEventRequest{}, nil, err
	}
	req := CreateEventRequest{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Date:        r.FormValue("date"),
		Time:        r.FormValue("time"),
		Location:    r.FormValue("location"),
		Organizer:   r.FormValue("organizer"),
		Category:    r.FormValue("category"),
	}
	if s := r.FormValue("isFree"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return CreateEventRequest{}, nil, errors.New("isFree must be a boolean")
		}
		req.IsFree = v
	}
	if s := r.FormValue("price"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return CreateEventRequest{}, nil, errors.New("price must be a number")
		}
		req.Price = &v
	}
	for _, p := range []struct {
		key  string
		dest **float64
	}{
		{"locationLat", &req.LocationLat},
		{"locationLng", &req.LocationLng},
	} {
		if s := r.FormValue(p.key); s != "" {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return CreateEventRequest{}, nil, errors.New(p.key + " must be a number")
			}
			*p.dest = &v
		}
	}
	upload, err := imageUpload(r)
	if err != nil {
		return CreateEventRequest{}, nil, err
	}
	return req, upload, nil
}

// parseUpdateForm reads a multipart update request. A form field that is
// absent leaves the attribute unchanged; an empty value is an explicit set.
func parseUpdateForm(r *http.Request) (UpdateEventRequest, *domain.MediaUpload, error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return UpdateEventRequest{}, nil, err
	}
	var req UpdateEventRequest
	field := func(key string) *string {
		if vs, ok := r.MultipartForm.Value[key]; ok && len(vs) > 0 {
			v := vs[0]
			return &v
		}
		return nil
	}
	req.Title = field("title")
	req.Description = field("description")
	req.Date = field("date")
	req.Time = field("time")
	req.Location = field("location")
	req.Organizer = field("organizer")
	req.Category = field("category")
	if s := field("isFree"); s != nil {
		v, err := strconv.ParseBool(*s)
		if err != nil {
			return UpdateEventRequest{}, nil, errors.New("isFree must be a boolean")
		}
		req.IsFree = &v
	}
	if s := field("price"); s != nil {
		v, err := strconv.ParseFloat(*s, 64)
		if err != nil {
			return UpdateEventRequest{}, nil, errors.New("price must be a number")
		}
		req.Price = &v
	}
	for _, p := range []struct {
		key  string
		dest **float64
	}{
		{"locationLat", &req.LocationLat},
		{"locationLng", &req.LocationLng},
	} {
		if s := field(p.key); s != nil {
			v, err := strconv.ParseFloat(*s, 64)
			if err != nil {
				return UpdateEventRequest{}, nil, errors.New(p.key + " must be a number")
			}
			*p.dest = &v
		}
	}
	upload, err := imageUpload(r)
	if err != nil {
		return UpdateEventRequest{}, nil, err
	}
	return req, upload, nil
}

func imageUpload(r *http.Request) (*domain.MediaUpload, error) {
	file, header, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}
	return &domain.MediaUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	}, nil
}
