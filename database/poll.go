package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/computersciencehouse/borda/poll"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type pollDocument struct {
	Id          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Options     []optionDocument   `bson:"options"`
	Status      string             `bson:"status"`
	OwnerId     string             `bson:"ownerId"`
	VoteCount   int                `bson:"voteCount"`
	CreatedAt   time.Time          `bson:"createdAt"`
	ClosesAt    *time.Time         `bson:"closesAt,omitempty"`
}

type optionDocument struct {
	Id    string `bson:"id"`
	Label string `bson:"label"`
}

func newPollDocument(p *poll.Poll) pollDocument {
	opts := make([]optionDocument, len(p.Options))
	for i, o := range p.Options {
		opts[i] = optionDocument{Id: o.ID, Label: o.Label}
	}
	return pollDocument{
		Title:       p.Title,
		Description: p.Description,
		Options:     opts,
		Status:      string(p.Status),
		OwnerId:     p.OwnerID,
		VoteCount:   p.VoteCount,
		CreatedAt:   p.CreatedAt,
		ClosesAt:    p.ClosesAt,
	}
}

func (d pollDocument) poll() *poll.Poll {
	opts := make([]poll.Option, len(d.Options))
	for i, o := range d.Options {
		opts[i] = poll.Option{ID: o.Id, Label: o.Label}
	}
	return &poll.Poll{
		ID:          d.Id.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Options:     opts,
		Status:      poll.Status(d.Status),
		OwnerID:     d.OwnerId,
		VoteCount:   d.VoteCount,
		CreatedAt:   d.CreatedAt,
		ClosesAt:    d.ClosesAt,
	}
}

// pollObjectID maps a malformed id to ErrNotFound; no such poll can exist.
func pollObjectID(id string) (primitive.ObjectID, error) {
	objId, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: poll %q", poll.ErrNotFound, id)
	}
	return objId, nil
}

func (s *MongoStore) CreatePoll(ctx context.Context, p *poll.Poll) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.polls().InsertOne(ctx, newPollDocument(p))
	if err != nil {
		return logError(err, "owner_id", p.OwnerID)
	}

	p.ID = result.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

func (s *MongoStore) GetPoll(ctx context.Context, id string) (*poll.Poll, error) {
	objId, err := pollObjectID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var doc pollDocument
	if err := s.polls().FindOne(ctx, bson.M{"_id": objId}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: poll %q", poll.ErrNotFound, id)
		}
		return nil, logError(err, "poll_id", id)
	}

	return doc.poll(), nil
}

func (s *MongoStore) ListPolls(ctx context.Context, filter poll.Filter) ([]*poll.Poll, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := bson.M{}
	if filter.OwnerID != "" {
		query["ownerId"] = filter.OwnerID
	}
	if filter.Status != "" {
		query["status"] = string(filter.Status)
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := s.polls().Find(ctx, query, opts)
	if err != nil {
		return nil, logError(err)
	}

	var docs []pollDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, logError(err)
	}

	polls := make([]*poll.Poll, len(docs))
	for i, d := range docs {
		polls[i] = d.poll()
	}
	return polls, nil
}

// Transition only matches a poll still in t.From(), so two concurrent
// callers cannot both move it.
func (s *MongoStore) Transition(ctx context.Context, id string, t poll.Transition, at time.Time) (*poll.Poll, error) {
	if !t.Valid() {
		return nil, t.Check("")
	}
	objId, err := pollObjectID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	set := bson.M{"status": string(t.To())}
	if t.To() == poll.StatusClosed {
		set["closesAt"] = at
	}

	var doc pollDocument
	err = s.polls().FindOneAndUpdate(ctx,
		bson.M{"_id": objId, "status": string(t.From())},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err == nil {
		return doc.poll(), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, logError(err, "poll_id", id)
	}

	current, err := s.GetPoll(ctx, id)
	if err != nil {
		return nil, err
	}
	return nil, t.Check(current.Status)
}
