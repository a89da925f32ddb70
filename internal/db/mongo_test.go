package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/carclub/internal/fleet"
	"github.com/ukydev/carclub/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestConnectMongo_BadURI(t *testing.T) {
	client, err := ConnectMongo(context.Background(), "mongodb://bad:uri")
	assert.Error(t, err)
	assert.Nil(t, client)

	client, err = ConnectMongo(context.Background(), "")
	assert.Error(t, err)
	assert.Nil(t, client)
}

func TestNilCollections(t *testing.T) {
	ctx := context.Background()

	_, err := (&MongoFleetCollection{}).ReplaceFleet(ctx, fleet.Generate(2))
	assert.ErrorIs(t, err, ErrNilCollection)
	_, err = LoadFleet(ctx, &MongoFleetCollection{})
	assert.ErrorIs(t, err, ErrNilCollection)
	assert.ErrorIs(t, (&MongoBookingCollection{}).InsertBooking(ctx, models.Booking{}), ErrNilCollection)
	_, err = (&MongoUserCollection{}).InsertUser(ctx, models.User{})
	assert.ErrorIs(t, err, ErrNilCollection)
	_, err = (&MongoUserCollection{}).FindUserByEmail(ctx, "a@b.co")
	assert.ErrorIs(t, err, ErrNilCollection)
}

// integrationDB connects to MONGO_URI or skips the test.
func integrationDB(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set, skipping integration test")
	}
	client, err := ConnectMongo(context.Background(), uri)
	if err != nil {
		t.Skipf("failed to connect: %v, skipping integration test", err)
	}
	t.Cleanup(func() { client.Disconnect(context.Background()) })

	db := client.Database("test_carclub")
	t.Cleanup(func() { db.Drop(context.Background()) })
	return db
}

func TestMongoFleetCollection_Integration(t *testing.T) {
	db := integrationDB(t)
	ctx := context.Background()
	coll := &MongoFleetCollection{Collection: db.Collection("vehicles")}

	n, err := coll.ReplaceFleet(ctx, fleet.Generate(20))
	require.NoError(t, err)
	assert.Equal(t, int64(20), n)

	n, err = coll.ReplaceFleet(ctx, fleet.Generate(10))
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	count, err := coll.Collection.CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	assert.Equal(t, int64(10), count)

	snapshot, err := LoadFleet(ctx, coll)
	require.NoError(t, err)
	require.Len(t, snapshot, 10)
	assert.Equal(t, 1, snapshot[0].ID)
	assert.Equal(t, 10, snapshot[9].ID)

	cursor, err := coll.FindVehicles(ctx, bson.M{"make": "BMW"})
	require.NoError(t, err)
	defer cursor.Close(ctx)
	var bmws []models.Vehicle
	require.NoError(t, cursor.All(ctx, &bmws))
	assert.Len(t, bmws, 1)
}

func TestMongoBookingCollection_Integration(t *testing.T) {
	db := integrationDB(t)
	ctx := context.Background()
	coll := &MongoBookingCollection{Collection: db.Collection("bookings")}

	now := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, coll.InsertBooking(ctx, models.Booking{Reference: "r1", UserID: "u", CreatedAt: now}))

	got, err := coll.FindBookingByReference(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "u", got.UserID)

	list, err := coll.FindBookingsByUser(ctx, "u")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = coll.FindBookingByReference(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMongoUserCollection_Integration(t *testing.T) {
	db := integrationDB(t)
	ctx := context.Background()
	coll := &MongoUserCollection{Collection: db.Collection("users")}

	user, err := coll.InsertUser(ctx, models.User{Email: "Member@Example.com", PasswordHash: "h", Role: models.RoleMember})
	require.NoError(t, err)

	found, err := coll.FindUserByEmail(ctx, "member@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
	assert.True(t, found.IsActive)

	require.NoError(t, coll.UpdateLastLogin(ctx, user.ID.Hex()))
	found, err = coll.FindUserByID(ctx, user.ID.Hex())
	require.NoError(t, err)
	assert.NotNil(t, found.LastLogin)

	_, err = coll.FindUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}
