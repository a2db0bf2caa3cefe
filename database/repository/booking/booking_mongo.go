package bookingRepo

import (
	"context"
	"time"

	"lumident/database"

	"go.mongodb.org/mongo-driver/mongo"
)

// MongoBookingRepo implements BookingRepository using MongoDB.
type MongoBookingRepo struct {
	bookings *mongo.Collection
	payments *mongo.Collection
}

// NewMongoBookingRepo returns a repository bound to the lumident database.
func NewMongoBookingRepo() *MongoBookingRepo {
	db := database.MongoClient.Database("lumident")
	return &MongoBookingRepo{
		bookings: db.Collection("bookings"),
		payments: db.Collection("payment_records"),
	}
}

func newContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}
