package listings

import (
	"context"
	"log/slog"
	"time"

	"fbmp/internal/errors"
	"fbmp/internal/events"
	"fbmp/internal/store"
	"fbmp/internal/validation"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "fbmp/internal/handlers/listings"

type ListingsService interface {
	ListListings(ctx context.Context) ([]store.Listing, error)
	ListListingsByStatus(ctx context.Context, status string) ([]store.Listing, store.Status, error)
	GetListingByID(ctx context.Context, listingID string) (store.Listing, error)
	CreateListing(ctx context.Context, req *CreateListingRequest) (store.Listing, error)
	UpdateListing(ctx context.Context, listingID string, req *UpdateListingRequest) (store.Listing, error)
	DeleteListing(ctx context.Context, listingID string) error
	GetTodayStats(ctx context.Context) (DailyStats, error)
}

type svc struct {
	store        store.Store
	logger       *slog.Logger
	eventHandler *events.EventHandler
	validate     *validator.Validate
	tracer       trace.Tracer
	now          func() time.Time
}

func NewListingsService(store store.Store, logger *slog.Logger, eventHandler *events.EventHandler) ListingsService {
	return &svc{
		store:        store,
		logger:       logger,
		eventHandler: eventHandler,
		validate:     validation.New(),
		tracer:       otel.Tracer(tracerName),
		now:          time.Now,
	}
}

func (s *svc) ListListings(ctx context.Context) ([]store.Listing, error) {
	ctx, span := s.tracer.Start(ctx, "listings.List")
	defer span.End()

	rows, err := s.store.List(ctx)
	if err != nil {
		return nil, s.fail(ctx, span, storeError("Failed to fetch listings", err))
	}

	span.SetAttributes(attribute.Int("listings.count", len(rows)))
	return rows, nil
}

func (s *svc) ListListingsByStatus(ctx context.Context, raw string) ([]store.Listing, store.Status, error) {
	ctx, span := s.tracer.Start(ctx, "listings.ListByStatus")
	defer span.End()

	status, err := validation.ParseStatusParam(raw)
	if err != nil {
		return nil, 0, s.fail(ctx, span, errors.New(errors.ErrInvalidInput, "Status must be a valid number", err))
	}
	span.SetAttributes(attribute.Int("listing.status", int(status)))

	rows, err := s.store.ListByStatus(ctx, status)
	if err != nil {
		return nil, 0, s.fail(ctx, span, storeError("Failed to fetch listings", err))
	}
	return rows, status, nil
}

func (s *svc) GetListingByID(ctx context.Context, listingID string) (store.Listing, error) {
	ctx, span := s.tracer.Start(ctx, "listings.Get", trace.WithAttributes(attribute.String("listing.id", listingID)))
	defer span.End()

	if !validation.IsUUID(listingID) {
		return store.Listing{}, s.fail(ctx, span, invalidID())
	}

	l, err := s.store.Get(ctx, listingID)
	if err != nil {
		return store.Listing{}, s.fail(ctx, span, storeError("Failed to fetch listing", err))
	}
	return l, nil
}

func (s *svc) CreateListing(ctx context.Context, req *CreateListingRequest) (store.Listing, error) {
	ctx, span := s.tracer.Start(ctx, "listings.Create")
	defer span.End()

	req.normalize()
	if err := s.validate.Struct(req); err != nil {
		return store.Listing{}, s.fail(ctx, span, invalidListing(err))
	}

	status, err := validation.CoerceStatus(req.Status)
	if err != nil {
		return store.Listing{}, s.fail(ctx, span, errors.New(errors.ErrInvalidInput, "Status must be a valid number", err))
	}

	newListing := store.NewListing{Link: req.Link, Product: req.Product}
	if status != nil {
		newListing.Status = *status
	}

	s.logger.InfoContext(ctx, "Creating listing", "link", newListing.Link)

	l, err := s.store.Create(ctx, newListing)
	if err != nil {
		return store.Listing{}, s.fail(ctx, span, storeError("Failed to create listing", err))
	}

	span.SetAttributes(attribute.String("listing.id", l.ID))
	s.raise(ctx, events.ListingCreated, l, l.CreatedAt)
	return l, nil
}

// UpdateListing reads the current row, stamps updated_at past its previous
// value and writes the patch. A row missing at either step is NOT_FOUND.
func (s *svc) UpdateListing(ctx context.Context, listingID string, req *UpdateListingRequest) (store.Listing, error) {
	ctx, span := s.tracer.Start(ctx, "listings.Update", trace.WithAttributes(attribute.String("listing.id", listingID)))
	defer span.End()

	if !validation.IsUUID(listingID) {
		return store.Listing{}, s.fail(ctx, span, invalidID())
	}

	req.normalize()
	if err := s.validate.Struct(req); err != nil {
		return store.Listing{}, s.fail(ctx, span, invalidListing(err))
	}

	status, err := validation.CoerceStatus(req.Status)
	if err != nil {
		return store.Listing{}, s.fail(ctx, span, errors.New(errors.ErrInvalidInput, "Status must be a valid number", err))
	}

	current, err := s.store.Get(ctx, listingID)
	if err != nil {
		return store.Listing{}, s.fail(ctx, span, storeError("Failed to fetch listing", err))
	}

	patch := store.ListingPatch{
		Link:      req.Link,
		Status:    status,
		UpdatedAt: nextUpdatedAt(s.now(), current.UpdatedAt),
	}

	s.logger.InfoContext(ctx, "Updating listing", "listing_id", listingID)

	updated, err := s.store.Update(ctx, listingID, patch)
	if err != nil {
		return store.Listing{}, s.fail(ctx, span, storeError("Failed to update listing", err))
	}

	s.raise(ctx, events.ListingUpdated, updated, updated.UpdatedAt)
	return updated, nil
}

func (s *svc) DeleteListing(ctx context.Context, listingID string) error {
	ctx, span := s.tracer.Start(ctx, "listings.Delete", trace.WithAttributes(attribute.String("listing.id", listingID)))
	defer span.End()

	if !validation.IsUUID(listingID) {
		return s.fail(ctx, span, invalidID())
	}

	s.logger.InfoContext(ctx, "Deleting listing", "listing_id", listingID)

	if err := s.store.Delete(ctx, listingID); err != nil {
		return s.fail(ctx, span, storeError("Failed to delete listing", err))
	}

	s.raiseDeleted(ctx, listingID)
	return nil
}

// GetTodayStats counts listings created in the current UTC day.
func (s *svc) GetTodayStats(ctx context.Context) (DailyStats, error) {
	ctx, span := s.tracer.Start(ctx, "listings.TodayStats")
	defer span.End()

	now := s.now().UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	count, err := s.store.CountCreatedBetween(ctx, start, end)
	if err != nil {
		return DailyStats{}, s.fail(ctx, span, storeError("Failed to count listings", err))
	}

	return DailyStats{Date: start.Format(time.DateOnly), Count: count}, nil
}

// nextUpdatedAt keeps updated_at strictly increasing at the microsecond
// precision Postgres stores.
func nextUpdatedAt(now, previous time.Time) time.Time {
	now = now.UTC().Truncate(time.Microsecond)
	floor := previous.UTC().Truncate(time.Microsecond).Add(time.Microsecond)
	if now.Before(floor) {
		return floor
	}
	return now
}

func (s *svc) fail(ctx context.Context, span trace.Span, err *errors.AppError) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(err.Code))
	if errors.Status(err.Code) >= 500 {
		s.logger.ErrorContext(ctx, err.Message, "error", err.Internal)
	} else {
		s.logger.WarnContext(ctx, err.Message, "code", err.Code, "error", err.Internal)
	}
	return err
}

// raise publishes a lifecycle event. The write already succeeded, so a
// publish failure is only logged.
func (s *svc) raise(ctx context.Context, kind events.Kind, l store.Listing, at time.Time) {
	if s.eventHandler == nil {
		return
	}
	status := int(l.Status)
	evt := events.ListingEvent{
		ListingID:  l.ID,
		Link:       l.Link,
		Status:     &status,
		TraceID:    traceID(ctx),
		OccurredAt: at,
	}
	if err := s.eventHandler.RaiseListingEvent(ctx, kind, evt); err != nil {
		s.logger.WarnContext(ctx, "Failed to raise listing event", "kind", kind, "listing_id", l.ID, "error", err)
	}
}

func (s *svc) raiseDeleted(ctx context.Context, listingID string) {
	if s.eventHandler == nil {
		return
	}
	evt := events.ListingEvent{
		ListingID:  listingID,
		TraceID:    traceID(ctx),
		OccurredAt: s.now().UTC(),
	}
	if err := s.eventHandler.RaiseListingEvent(ctx, events.ListingDeleted, evt); err != nil {
		s.logger.WarnContext(ctx, "Failed to raise listing event", "kind", events.ListingDeleted, "listing_id", listingID, "error", err)
	}
}

func traceID(ctx context.Context) string {
	spanContext := trace.SpanContextFromContext(ctx)
	if !spanContext.IsValid() {
		return ""
	}
	return spanContext.TraceID().String()
}

func storeError(msg string, err error) *errors.AppError {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return errors.New(errors.ErrNotFound, "Listing not found", err)
	case errors.Is(err, store.ErrDuplicate):
		return errors.New(errors.ErrDuplicate, "This listing has already been added", err)
	default:
		return errors.Store(msg, err)
	}
}

func invalidID() *errors.AppError {
	return errors.New(errors.ErrInvalidInput, "Invalid listing ID format", nil)
}

func invalidListing(err error) *errors.AppError {
	return errors.New(errors.ErrInvalidInput, "Invalid listing", err).WithDetails(validation.Describe(err))
}
