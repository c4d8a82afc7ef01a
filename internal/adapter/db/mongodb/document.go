package mongodb

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"user-crud-service/internal/domain/user"
)

// userDocument is the stored shape of a user.
// Temporal fields are decoded raw because older documents hold plain strings instead of dates.
type userDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email"`
	BirthDate bson.RawValue      `bson:"birth_date"`
	City      string             `bson:"city"`
	CreatedAt bson.RawValue      `bson:"created_at"`
	UpdatedAt bson.RawValue      `bson:"updated_at"`
}

// newDocument builds the insert document for u. updated_at is stored as null until the first update.
func newDocument(u *user.User) bson.D {
	return bson.D{
		{Key: "name", Value: u.Name},
		{Key: "email", Value: u.Email},
		{Key: "birth_date", Value: u.BirthDate.Time},
		{Key: "city", Value: u.City},
		{Key: "created_at", Value: u.CreatedAt.Time},
		{Key: "updated_at", Value: nil},
	}
}

// patchDocument builds the $set document for p.
func patchDocument(p user.Patch) bson.D {
	set := bson.D{}
	if p.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *p.Name})
	}
	if p.Email != nil {
		set = append(set, bson.E{Key: "email", Value: *p.Email})
	}
	if p.BirthDate != nil {
		set = append(set, bson.E{Key: "birth_date", Value: *p.BirthDate})
	}
	if p.City != nil {
		set = append(set, bson.E{Key: "city", Value: *p.City})
	}
	return append(set, bson.E{Key: "updated_at", Value: p.UpdatedAt})
}

func (d userDocument) toDomain() *user.User {
	u := &user.User{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Email:     d.Email,
		BirthDate: moment(d.BirthDate),
		City:      d.City,
		CreatedAt: moment(d.CreatedAt),
	}
	if updatedAt := moment(d.UpdatedAt); !updatedAt.IsZero() {
		u.UpdatedAt = &updatedAt
	}
	return u
}

// moment converts a stored temporal value. Missing, null and unsupported values yield the zero Moment.
func moment(v bson.RawValue) user.Moment {
	switch v.Type {
	case bson.TypeDateTime:
		return user.At(v.Time().UTC())
	case bson.TypeString:
		return user.Legacy(v.StringValue())
	case bson.TypeTimestamp:
		t, _ := v.Timestamp()
		return user.At(time.Unix(int64(t), 0).UTC())
	default:
		return user.Moment{}
	}
}

func toDomainList(docs []userDocument) []user.User {
	users := make([]user.User, len(docs))
	for i := range docs {
		users[i] = *docs[i].toDomain()
	}
	return users
}
