package database

import (
	"context"
	"time"

	"github.com/computersciencehouse/borda/logging"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	pollsCollection   = "polls"
	ballotsCollection = "ballots"
)

// MongoStore keeps polls and ballots in MongoDB. CastBallot uses a
// multi-document transaction, so the deployment must be a replica set.
type MongoStore struct {
	client  *mongo.Client
	db      *mongo.Database
	timeout time.Duration
}

func ConnectMongo(uri, database string, timeout time.Duration) (*MongoStore, error) {
	fields := logrus.Fields{"module": "database", "method": "ConnectMongo"}
	logging.Logger.WithFields(fields).Info("beginning database connection")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		logging.Logger.WithFields(fields).WithField("error", err).Error("error connecting to database")
		return nil, err
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		logging.Logger.WithFields(fields).WithField("error", err).Error("error pinging database")
		_ = client.Disconnect(ctx)
		return nil, err
	}

	store := &MongoStore{client: client, db: client.Database(database), timeout: timeout}
	if err := store.ensureIndexes(ctx); err != nil {
		logging.Logger.WithFields(fields).WithField("error", err).Error("error creating indexes")
		_ = client.Disconnect(ctx)
		return nil, err
	}

	logging.Logger.WithFields(fields).WithField("database", database).Info("connected to mongodb")
	return store, nil
}

// ensureIndexes creates the unique (pollId, voterId) index that enforces one
// ballot per voter, plus the listing indexes on polls.
func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(ballotsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "pollId", Value: 1}, {Key: "voterId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = s.db.Collection(pollsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	return err
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.client.Disconnect(ctx); err != nil {
		logging.Logger.WithFields(logrus.Fields{"error": err, "module": "database", "method": "Close"}).Error("error disconnecting from database")
		return err
	}

	logging.Logger.WithFields(logrus.Fields{"module": "database", "method": "Close"}).Info("disconnected from database")
	return nil
}

func (s *MongoStore) polls() *mongo.Collection   { return s.db.Collection(pollsCollection) }
func (s *MongoStore) ballots() *mongo.Collection { return s.db.Collection(ballotsCollection) }
