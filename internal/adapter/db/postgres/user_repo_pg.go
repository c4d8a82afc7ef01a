package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"user-crud-service/internal/domain/user"
	pkgerrors "user-crud-service/pkg/errors"
	"user-crud-service/pkg/security"
)

const uniqueViolation = "23505"

// UserRepoPG implements the Repository interface using PostgreSQL and GORM.
type UserRepoPG struct {
	db      *gorm.DB      // GORM database connection
	log     *zap.Logger   // Structured logger for database operations
	timeout time.Duration // Upper bound for every statement
}

// NewUserRepoPG creates a new instance of UserRepoPG.
func NewUserRepoPG(db *gorm.DB, log *zap.Logger, timeout time.Duration) *UserRepoPG {
	return &UserRepoPG{db: db, log: log, timeout: timeout}
}

// UserSchema represents the database schema for the users table.
type UserSchema struct {
	ID        string     `gorm:"type:varchar(36);primaryKey"`        // UUID assigned on insert
	Name      string     `gorm:"size:100;not null"`                  // User's full name (required)
	Email     string     `gorm:"size:320;not null;uniqueIndex"`      // User's unique email address (required, unique)
	BirthDate time.Time  `gorm:"not null"`                           // Midnight UTC of the birth date
	City      string     `gorm:"size:100;not null"`                  // City of residence
	CreatedAt time.Time  `gorm:"not null;index;autoCreateTime:false"` // Set by the caller, never by GORM
	UpdatedAt *time.Time `gorm:"autoUpdateTime:false"`               // Nil until the first update
}

// TableName specifies the table name for the UserSchema model.
func (UserSchema) TableName() string {
	return "users"
}

// AutoMigrate creates or updates the users table and its unique email index.
func (r *UserRepoPG) AutoMigrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&UserSchema{})
}

// Ping checks that the database answers.
func (r *UserRepoPG) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// Create inserts a new user into the database.
func (r *UserRepoPG) Create(ctx context.Context, u *user.User) (*user.User, error) {
	if u == nil {
		return nil, errors.New("user cannot be nil")
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	model := UserSchema{
		ID:        uuid.NewString(),
		Name:      u.Name,
		Email:     u.Email,
		BirthDate: u.BirthDate.Time,
		City:      u.City,
		CreatedAt: u.CreatedAt.Time,
	}

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		err = r.classify("create", err)
		r.logError("failed to create user in db", err, zap.String("email", u.Email))
		return nil, err
	}

	r.log.Info("user created in db", zap.String("id", model.ID))
	return toDomain(&model), nil
}

// Update applies a partial update and returns the stored row.
func (r *UserRepoPG) Update(ctx context.Context, id string, p user.Patch) (*user.User, error) {
	id, err := parseID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	updates := map[string]any{"updated_at": p.UpdatedAt}
	if p.Name != nil {
		updates["name"] = *p.Name
	}
	if p.Email != nil {
		updates["email"] = *p.Email
	}
	if p.BirthDate != nil {
		updates["birth_date"] = *p.BirthDate
	}
	if p.City != nil {
		updates["city"] = *p.City
	}

	result := r.db.WithContext(ctx).Model(&UserSchema{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		err := r.classify("update", result.Error)
		r.logError("failed to update user in db", err, zap.String("id", id))
		return nil, err
	}
	if result.RowsAffected == 0 {
		r.log.Warn("user not found for update", zap.String("id", id))
		return nil, notFound()
	}

	var model UserSchema
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound()
		}
		err = r.classify("reload", err)
		r.logError("failed to reload user from db", err, zap.String("id", id))
		return nil, err
	}

	r.log.Info("user updated in db", zap.String("id", id))
	return toDomain(&model), nil
}

// Delete removes a user from the database by ID.
func (r *UserRepoPG) Delete(ctx context.Context, id string) error {
	id, err := parseID(id)
	if err != nil {
		return err
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&UserSchema{})
	if result.Error != nil {
		err := r.classify("delete", result.Error)
		r.logError("failed to delete user in db", err, zap.String("id", id))
		return err
	}
	if result.RowsAffected == 0 {
		r.log.Warn("user not found for delete", zap.String("id", id))
		return notFound()
	}

	r.log.Info("user deleted in db", zap.String("id", id))
	return nil
}

// GetByID retrieves a user from the database by their unique ID.
func (r *UserRepoPG) GetByID(ctx context.Context, id string) (*user.User, error) {
	id, err := parseID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var model UserSchema
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Warn("user not found", zap.String("id", id))
			return nil, notFound()
		}
		err = r.classify("get", err)
		r.logError("failed to get user from db", err, zap.String("id", id))
		return nil, err
	}

	return toDomain(&model), nil
}

// List retrieves users ordered by creation time.
func (r *UserRepoPG) List(ctx context.Context, skip, limit int64) ([]user.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var models []UserSchema
	if err := r.db.WithContext(ctx).
		Order("created_at, id").
		Offset(int(skip)).
		Limit(int(limit)).
		Find(&models).Error; err != nil {
		err = r.classify("list", err)
		r.logError("failed to list users from db", err, zap.Int64("skip", skip), zap.Int64("limit", limit))
		return nil, err
	}

	return toDomainList(models), nil
}

// Search retrieves users whose name, email or city contains query, ignoring case.
// LIKE wildcards in query are matched literally.
func (r *UserRepoPG) Search(ctx context.Context, query string, skip, limit int64) ([]user.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	pattern := "%" + strings.ToLower(security.SanitizeSearchString(query)) + "%"

	var models []UserSchema
	if err := r.db.WithContext(ctx).
		Where(`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\' OR LOWER(city) LIKE ? ESCAPE '\'`,
			pattern, pattern, pattern).
		Order("created_at, id").
		Offset(int(skip)).
		Limit(int(limit)).
		Find(&models).Error; err != nil {
		err = r.classify("search", err)
		r.logError("failed to search users in db", err, zap.String("query", query))
		return nil, err
	}

	return toDomainList(models), nil
}

func (r *UserRepoPG) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

func (r *UserRepoPG) logError(msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	var duplicate *pkgerrors.DuplicateError
	if errors.As(err, &duplicate) {
		r.log.Warn(msg, fields...)
		return
	}
	r.log.Error(msg, fields...)
}

// classify maps driver errors onto the repository error taxonomy.
func (r *UserRepoPG) classify(op string, err error) error {
	switch {
	case isUniqueViolation(err):
		return pkgerrors.NewDuplicateError("user", "email", "")
	case isUnavailable(err):
		return pkgerrors.NewStoreUnavailableError("database unavailable", err)
	default:
		return fmt.Errorf("failed to %s user: %w", op, err)
	}
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isUnavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) || pgconn.Timeout(err) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// parseID returns the canonical form of a UUID id.
func parseID(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", pkgerrors.NewInvalidIDError(id)
	}
	return parsed.String(), nil
}

func notFound() error {
	return pkgerrors.NewNotFoundError("user", "user not found")
}

func toDomain(m *UserSchema) *user.User {
	u := &user.User{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		BirthDate: user.At(m.BirthDate),
		City:      m.City,
		CreatedAt: user.At(m.CreatedAt),
	}
	if m.UpdatedAt != nil {
		updatedAt := user.At(*m.UpdatedAt)
		u.UpdatedAt = &updatedAt
	}
	return u
}

func toDomainList(models []UserSchema) []user.User {
	users := make([]user.User, len(models))
	for i := range models {
		users[i] = *toDomain(&models[i])
	}
	return users
}
