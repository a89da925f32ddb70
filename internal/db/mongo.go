package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ukydev/carclub/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const connectTimeout = 10 * time.Second

// ConnectMongo connects to uri and pings the server.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	if uri == "" {
		return nil, errors.New("mongo uri is empty")
	}
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// MongoFleetCollection keeps a copy of the generated fleet in MongoDB.
type MongoFleetCollection struct {
	Collection *mongo.Collection
}

// ReplaceFleet upserts every vehicle by id and removes ids outside the
// snapshot. It returns the number of upserted or modified documents.
func (c *MongoFleetCollection) ReplaceFleet(ctx context.Context, vehicles []models.Vehicle) (int64, error) {
	if c.Collection == nil {
		return 0, ErrNilCollection
	}

	ids := make([]int, 0, len(vehicles))
	writes := make([]mongo.WriteModel, 0, len(vehicles))
	for _, v := range vehicles {
		ids = append(ids, v.ID)
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": v.ID}).
			SetReplacement(v).
			SetUpsert(true))
	}

	var changed int64
	if len(writes) > 0 {
		res, err := c.Collection.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
		if err != nil {
			return 0, fmt.Errorf("bulk write fleet: %w", err)
		}
		changed = res.UpsertedCount + res.ModifiedCount
	}

	if _, err := c.Collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$nin": ids}}); err != nil {
		return changed, fmt.Errorf("prune fleet: %w", err)
	}
	return changed, nil
}

// mongoVehicleCursor wraps a MongoDB cursor for vehicle queries.
type mongoVehicleCursor struct {
	cursor *mongo.Cursor
}

// All retrieves all results from the cursor.
func (m *mongoVehicleCursor) All(ctx context.Context, out interface{}) error {
	return m.cursor.All(ctx, out)
}

// Close closes the cursor.
func (m *mongoVehicleCursor) Close(ctx context.Context) error {
	return m.cursor.Close(ctx)
}

// FindVehicles queries vehicle records from the collection.
func (c *MongoFleetCollection) FindVehicles(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (VehicleCursor, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}
	cursor, err := c.Collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	return &mongoVehicleCursor{cursor: cursor}, nil
}

// MongoBookingCollection implements BookingCollection for MongoDB.
type MongoBookingCollection struct {
	Collection *mongo.Collection
}

// InsertBooking stores a confirmed booking keyed by its reference.
func (c *MongoBookingCollection) InsertBooking(ctx context.Context, booking models.Booking) error {
	if c.Collection == nil {
		return ErrNilCollection
	}
	_, err := c.Collection.InsertOne(ctx, booking)
	return err
}

// FindBookingByReference finds a booking by its reference.
func (c *MongoBookingCollection) FindBookingByReference(ctx context.Context, reference string) (*models.Booking, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}
	var booking models.Booking
	err := c.Collection.FindOne(ctx, bson.M{"_id": reference}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("booking %s: %w", reference, ErrNotFound)
		}
		return nil, err
	}
	return &booking, nil
}

// FindBookingsByUser returns the user's bookings, oldest first.
func (c *MongoBookingCollection) FindBookingsByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := c.Collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	bookings := []models.Booking{}
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}
