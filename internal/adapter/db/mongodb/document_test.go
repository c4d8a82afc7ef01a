package mongodb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"user-crud-service/internal/domain/user"
)

func decode(t *testing.T, d bson.D) userDocument {
	t.Helper()
	raw, err := bson.Marshal(d)
	require.NoError(t, err)

	var doc userDocument
	require.NoError(t, bson.Unmarshal(raw, &doc))
	return doc
}

func TestUserDocument_NativeDates(t *testing.T) {
	oid := primitive.NewObjectID()
	updatedAt := time.Date(2024, 5, 6, 7, 8, 9, 10_000_000, time.UTC)

	u := decode(t, bson.D{
		{Key: "_id", Value: oid},
		{Key: "name", Value: "Ana"},
		{Key: "birth_date", Value: time.Date(2000, 2, 29, 0, 0, 0, 0, time.UTC)},
		{Key: "created_at", Value: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{Key: "updated_at", Value: updatedAt},
	}).toDomain()

	assert.Equal(t, oid.Hex(), u.ID)
	assert.Equal(t, "2000-02-29", u.BirthDate.Format(time.DateOnly))
	assert.Equal(t, "2024-01-01T00:00:00Z", u.CreatedAt.Format(time.RFC3339Nano))
	require.NotNil(t, u.UpdatedAt)
	assert.Equal(t, "2024-05-06T07:08:09.01Z", u.UpdatedAt.Format(time.RFC3339Nano))
}

func TestUserDocument_LegacyStringsAndNulls(t *testing.T) {
	u := decode(t, bson.D{
		{Key: "_id", Value: primitive.NewObjectID()},
		{Key: "birth_date", Value: "1990-01-15"},
		{Key: "created_at", Value: "2023-01-01 10:00:00"},
		{Key: "updated_at", Value: nil},
	}).toDomain()

	assert.Equal(t, "1990-01-15", u.BirthDate.Format(time.DateOnly))
	assert.Equal(t, "2023-01-01 10:00:00", u.CreatedAt.Format(time.RFC3339Nano))
	assert.Nil(t, u.UpdatedAt)
}

func TestUserDocument_EmptyStringsKept(t *testing.T) {
	d := decode(t, bson.D{
		{Key: "_id", Value: primitive.NewObjectID()},
		{Key: "birth_date", Value: ""},
		{Key: "created_at", Value: ""},
		{Key: "updated_at", Value: ""},
	})
	u := d.toDomain()

	assert.True(t, u.BirthDate.IsString)
	assert.Equal(t, "", u.BirthDate.Format(time.DateOnly))
	assert.False(t, u.CreatedAt.IsZero())
	require.NotNil(t, u.UpdatedAt)
	assert.Equal(t, "", u.UpdatedAt.Format(time.RFC3339Nano))
}

func TestUserDocument_MissingUpdatedAt(t *testing.T) {
	u := decode(t, bson.D{{Key: "_id", Value: primitive.NewObjectID()}}).toDomain()

	assert.Nil(t, u.UpdatedAt)
	assert.True(t, u.CreatedAt.IsZero())
}

func TestPatchDocument(t *testing.T) {
	updatedAt := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	city := "Recife"

	set := patchDocument(user.Patch{City: &city, UpdatedAt: updatedAt})

	assert.Equal(t, bson.D{
		{Key: "city", Value: "Recife"},
		{Key: "updated_at", Value: updatedAt},
	}, set)
}

func TestNewDocument_HasNoID(t *testing.T) {
	doc := newDocument(&user.User{
		ID:        "ignored",
		Name:      "Ana",
		CreatedAt: user.At(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
	})

	for _, e := range doc {
		assert.NotEqual(t, "_id", e.Key)
	}
	assert.Equal(t, "updated_at", doc[len(doc)-1].Key)
	assert.Nil(t, doc[len(doc)-1].Value)
}
