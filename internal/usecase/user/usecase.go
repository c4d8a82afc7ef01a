package user

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	domain "user-crud-service/internal/domain/user"
	pkgerrors "user-crud-service/pkg/errors"
	"user-crud-service/pkg/logger"
	"user-crud-service/pkg/security"

	"github.com/go-playground/validator/v10"
)

// Repository defines the interface for user data access operations.
// Implementations own identifier parsing, the unique email constraint and store timeouts,
// and report failures with the typed errors of pkg/errors.
type Repository interface {
	Create(ctx context.Context, u *domain.User) (*domain.User, error)                    // Insert; the store assigns the ID
	GetByID(ctx context.Context, id string) (*domain.User, error)                        // Retrieve user by ID
	Update(ctx context.Context, id string, p domain.Patch) (*domain.User, error)         // Apply a partial update, return the result
	Delete(ctx context.Context, id string) error                                         // Hard delete by ID
	List(ctx context.Context, skip, limit int64) ([]domain.User, error)                  // Page through all users
	Search(ctx context.Context, query string, skip, limit int64) ([]domain.User, error) // Substring match on name, email, city
}

// EventPublisher announces completed writes to other services.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// Option customizes a Usecase.
type Option func(*Usecase)

// WithClock replaces the wall clock used for timestamps and birth date checks.
func WithClock(now func() time.Time) Option {
	return func(uc *Usecase) {
		uc.now = now
	}
}

// Usecase implements the business logic for user management operations.
// It provides a clean separation between the transport layer and data layer.
type Usecase struct {
	repo     Repository          // Repository for data access
	events   EventPublisher      // Optional publisher for write events
	log      *zap.Logger         // Logger for structured logging
	validate *validator.Validate // Validator for request validation
	now      func() time.Time
}

// New creates a new instance of Usecase. A nil events publisher disables event publishing.
func New(r Repository, events EventPublisher, log *zap.Logger, opts ...Option) *Usecase {
	uc := &Usecase{repo: r, events: events, log: log, now: time.Now}
	for _, opt := range opts {
		opt(uc)
	}
	uc.validate = newValidator(func() time.Time { return uc.now() })
	return uc
}

// timestamp returns the current time at the precision every supported store keeps.
func (uc *Usecase) timestamp() time.Time {
	return uc.now().UTC().Truncate(time.Millisecond)
}

// CreateUser validates and normalizes the request, then inserts the user.
// Email uniqueness is enforced by the store.
func (uc *Usecase) CreateUser(ctx context.Context, in CreateUserRequest) (*User, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Info("creating user", zap.String("email", in.Email))

	in.normalize()
	if err := uc.validate.Struct(in); err != nil {
		log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	birthDate, _ := time.Parse(time.DateOnly, in.BirthDate)

	created, err := uc.repo.Create(ctx, &domain.User{
		Name:      titleCase(in.Name),
		Email:     in.Email,
		BirthDate: domain.At(birthDate),
		City:      titleCase(in.City),
		CreatedAt: domain.At(uc.timestamp()),
	})
	if err != nil {
		uc.logFailure(log, "failed to create user", err, zap.String("email", in.Email))
		return nil, err
	}

	resp := toResponse(created)
	uc.publish(ctx, EventUserCreated, resp.ID, resp)
	return resp, nil
}

// GetUser retrieves a user by ID.
func (uc *Usecase) GetUser(ctx context.Context, in GetUserRequest) (*User, error) {
	log := logger.WithContext(ctx, uc.log)

	u, err := uc.repo.GetByID(ctx, in.ID)
	if err != nil {
		uc.logFailure(log, "failed to get user", err, zap.String("id", in.ID))
		return nil, err
	}

	return toResponse(u), nil
}

// ListUsers returns up to Limit users after skipping Skip, in store order.
func (uc *Usecase) ListUsers(ctx context.Context, in ListUsersRequest) (*ListUsersResponse, error) {
	log := logger.WithContext(ctx, uc.log)

	if in.Limit == 0 {
		in.Limit = DefaultLimit
	}
	if err := uc.validate.Struct(in); err != nil {
		log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	log.Info("listing users", zap.Int64("skip", in.Skip), zap.Int64("limit", in.Limit))

	users, err := uc.repo.List(ctx, in.Skip, in.Limit)
	if err != nil {
		uc.logFailure(log, "failed to list users", err, zap.Int64("skip", in.Skip), zap.Int64("limit", in.Limit))
		return nil, err
	}

	return &ListUsersResponse{Users: toResponses(users)}, nil
}

// SearchUsers returns users whose name, email or city contains the query, ignoring case.
func (uc *Usecase) SearchUsers(ctx context.Context, in SearchUsersRequest) (*ListUsersResponse, error) {
	log := logger.WithContext(ctx, uc.log)

	query, err := security.ValidateSearchQuery(in.Query)
	if err != nil {
		log.Warn("invalid search query", zap.String("query", in.Query), zap.Error(err))
		return nil, pkgerrors.NewValidationError("q", err.Error())
	}

	if in.Limit == 0 {
		in.Limit = DefaultLimit
	}
	if err := uc.validate.Struct(in); err != nil {
		log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	log.Info("searching users", zap.String("query", query), zap.Int64("skip", in.Skip), zap.Int64("limit", in.Limit))

	users, err := uc.repo.Search(ctx, query, in.Skip, in.Limit)
	if err != nil {
		uc.logFailure(log, "failed to search users", err, zap.String("query", query))
		return nil, err
	}

	return &ListUsersResponse{Users: toResponses(users)}, nil
}

// UpdateUser applies the supplied fields to an existing user and refreshes updated_at.
// Unknown or malformed ids are reported before any field validation.
func (uc *Usecase) UpdateUser(ctx context.Context, in UpdateUserRequest) (*User, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Info("updating user", zap.String("id", in.ID))

	if _, err := uc.repo.GetByID(ctx, in.ID); err != nil {
		uc.logFailure(log, "failed to load user for update", err, zap.String("id", in.ID))
		return nil, err
	}

	in.normalize()
	if err := uc.validate.Struct(in); err != nil {
		log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	patch := domain.Patch{
		Email:     in.Email,
		UpdatedAt: uc.timestamp(),
	}
	if in.Name != nil {
		name := titleCase(*in.Name)
		patch.Name = &name
	}
	if in.City != nil {
		city := titleCase(*in.City)
		patch.City = &city
	}
	if in.BirthDate != nil {
		birthDate, _ := time.Parse(time.DateOnly, *in.BirthDate)
		patch.BirthDate = &birthDate
	}

	updated, err := uc.repo.Update(ctx, in.ID, patch)
	if err != nil {
		uc.logFailure(log, "failed to update user", err, zap.String("id", in.ID))
		return nil, err
	}

	resp := toResponse(updated)
	uc.publish(ctx, EventUserUpdated, resp.ID, resp)
	return resp, nil
}

// DeleteUser removes a user permanently.
func (uc *Usecase) DeleteUser(ctx context.Context, in DeleteUserRequest) (*DeleteUserResponse, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Info("deleting user", zap.String("id", in.ID))

	if err := uc.repo.Delete(ctx, in.ID); err != nil {
		uc.logFailure(log, "failed to delete user", err, zap.String("id", in.ID))
		return nil, err
	}

	uc.publish(ctx, EventUserDeleted, in.ID, nil)
	return &DeleteUserResponse{ID: in.ID, Message: "user deleted successfully"}, nil
}

// logFailure logs client-caused failures as warnings and everything else as errors.
func (uc *Usecase) logFailure(log *zap.Logger, msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))

	var (
		invalidID *pkgerrors.InvalidIDError
		notFound  *pkgerrors.NotFoundError
		duplicate *pkgerrors.DuplicateError
	)
	if errors.As(err, &invalidID) || errors.As(err, &notFound) || errors.As(err, &duplicate) {
		log.Warn(msg, fields...)
		return
	}
	log.Error(msg, fields...)
}

// publish sends a write event. Failures are logged and never fail the request.
func (uc *Usecase) publish(ctx context.Context, eventType, userID string, u *User) {
	if uc.events == nil {
		return
	}

	event := Event{
		Type:       eventType,
		UserID:     userID,
		OccurredAt: uc.now().UTC(),
		User:       u,
	}
	if err := uc.events.Publish(ctx, event); err != nil {
		logger.WithContext(ctx, uc.log).Warn("failed to publish user event",
			zap.String("type", eventType),
			zap.String("id", userID),
			zap.Error(err),
		)
	}
}
