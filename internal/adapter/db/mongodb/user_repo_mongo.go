package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"user-crud-service/internal/domain/user"
	pkgerrors "user-crud-service/pkg/errors"
)

// UserRepoMongo implements the Repository interface on a MongoDB collection.
type UserRepoMongo struct {
	coll    *mongo.Collection // users collection
	log     *zap.Logger       // Structured logger for store operations
	timeout time.Duration     // Upper bound for every store call
}

// NewUserRepoMongo creates a new instance of UserRepoMongo.
func NewUserRepoMongo(coll *mongo.Collection, log *zap.Logger, timeout time.Duration) *UserRepoMongo {
	return &UserRepoMongo{coll: coll, log: log, timeout: timeout}
}

// EnsureIndexes creates the unique email index that backs duplicate detection.
func (r *UserRepoMongo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return r.classify("create index on", err)
	}
	return nil
}

// Ping checks that the primary answers.
func (r *UserRepoMongo) Ping(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.coll.Database().Client().Ping(ctx, readpref.Primary())
}

// Create inserts a new user and returns it with the store-assigned id.
func (r *UserRepoMongo) Create(ctx context.Context, u *user.User) (*user.User, error) {
	if u == nil {
		return nil, errors.New("user cannot be nil")
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.coll.InsertOne(ctx, newDocument(u))
	if err != nil {
		err = r.classify("create", err)
		r.logError("failed to insert user", err, zap.String("email", u.Email))
		return nil, err
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, pkgerrors.NewInternalError("unexpected inserted id type", fmt.Errorf("%T", res.InsertedID))
	}

	created := *u
	created.ID = oid.Hex()
	created.UpdatedAt = nil

	r.log.Info("user inserted", zap.String("id", created.ID))
	return &created, nil
}

// GetByID retrieves a user by its hex ObjectID.
func (r *UserRepoMongo) GetByID(ctx context.Context, id string) (*user.User, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var doc userDocument
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			r.log.Warn("user not found", zap.String("id", id))
			return nil, notFound()
		}
		err = r.classify("get", err)
		r.logError("failed to find user", err, zap.String("id", id))
		return nil, err
	}

	return doc.toDomain(), nil
}

// Update applies p with $set and returns the document after the update.
func (r *UserRepoMongo) Update(ctx context.Context, id string, p user.Patch) (*user.User, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc userDocument
	err = r.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: patchDocument(p)}},
		opts,
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			r.log.Warn("user not found for update", zap.String("id", id))
			return nil, notFound()
		}
		err = r.classify("update", err)
		r.logError("failed to update user", err, zap.String("id", id))
		return nil, err
	}

	r.log.Info("user updated", zap.String("id", id))
	return doc.toDomain(), nil
}

// Delete removes a user permanently.
func (r *UserRepoMongo) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		err = r.classify("delete", err)
		r.logError("failed to delete user", err, zap.String("id", id))
		return err
	}
	if res.DeletedCount == 0 {
		r.log.Warn("user not found for delete", zap.String("id", id))
		return notFound()
	}

	r.log.Info("user deleted", zap.String("id", id))
	return nil
}

// List returns a page of users ordered by _id, which follows insertion time.
func (r *UserRepoMongo) List(ctx context.Context, skip, limit int64) ([]user.User, error) {
	users, err := r.find(ctx, bson.D{}, skip, limit)
	if err != nil {
		r.logError("failed to list users", err, zap.Int64("skip", skip), zap.Int64("limit", limit))
		return nil, err
	}
	return users, nil
}

// Search returns users whose name, email or city contains query, ignoring case.
// The query is matched literally.
func (r *UserRepoMongo) Search(ctx context.Context, query string, skip, limit int64) ([]user.User, error) {
	users, err := r.find(ctx, searchFilter(query), skip, limit)
	if err != nil {
		r.logError("failed to search users", err, zap.String("query", query))
		return nil, err
	}
	return users, nil
}

func (r *UserRepoMongo) find(ctx context.Context, filter bson.D, skip, limit int64) ([]user.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(skip).
		SetLimit(limit)

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, r.classify("list", err)
	}

	var docs []userDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, r.classify("decode", err)
	}

	return toDomainList(docs), nil
}

func searchFilter(query string) bson.D {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	return bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "name", Value: pattern}},
		bson.D{{Key: "email", Value: pattern}},
		bson.D{{Key: "city", Value: pattern}},
	}}}
}

func (r *UserRepoMongo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

func (r *UserRepoMongo) logError(msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	var duplicate *pkgerrors.DuplicateError
	if errors.As(err, &duplicate) {
		r.log.Warn(msg, fields...)
		return
	}
	r.log.Error(msg, fields...)
}

// classify maps driver errors onto the repository error taxonomy.
func (r *UserRepoMongo) classify(op string, err error) error {
	switch {
	case mongo.IsDuplicateKeyError(err):
		return pkgerrors.NewDuplicateError("user", "email", "")
	case mongo.IsTimeout(err), mongo.IsNetworkError(err), errors.Is(err, mongo.ErrClientDisconnected):
		return pkgerrors.NewStoreUnavailableError("document store unavailable", err)
	default:
		return fmt.Errorf("failed to %s user: %w", op, err)
	}
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, pkgerrors.NewInvalidIDError(id)
	}
	return oid, nil
}

func notFound() error {
	return pkgerrors.NewNotFoundError("user", "user not found")
}
