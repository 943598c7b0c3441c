package database

import (
	"context"
	"fmt"
	"time"

	"github.com/computersciencehouse/borda/poll"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type ballotDocument struct {
	Id          primitive.ObjectID `bson:"_id,omitempty"`
	PollId      primitive.ObjectID `bson:"pollId"`
	VoterId     string             `bson:"voterId"`
	Rankings    []rankingDocument  `bson:"rankings"`
	SubmittedAt time.Time          `bson:"submittedAt"`
}

type rankingDocument struct {
	OptionId string `bson:"optionId"`
	Rank     int    `bson:"rank"`
}

func (d ballotDocument) ballot() *poll.Ballot {
	rankings := make([]poll.Ranking, len(d.Rankings))
	for i, r := range d.Rankings {
		rankings[i] = poll.Ranking{OptionID: r.OptionId, Rank: r.Rank}
	}
	return &poll.Ballot{
		ID:          d.Id.Hex(),
		PollID:      d.PollId.Hex(),
		VoterID:     d.VoterId,
		Rankings:    rankings,
		SubmittedAt: d.SubmittedAt,
	}
}

// CastBallot inserts the ballot and bumps the poll's voteCount in one
// transaction. The unique (pollId, voterId) index turns a second ballot
// into ErrAlreadyVoted; a poll that left the open state in the meantime
// matches nothing and aborts with ErrPollNotOpen.
func (s *MongoStore) CastBallot(ctx context.Context, b *poll.Ballot) error {
	pollId, err := pollObjectID(b.PollID)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rankings := make([]rankingDocument, len(b.Rankings))
	for i, r := range b.Rankings {
		rankings[i] = rankingDocument{OptionId: r.OptionID, Rank: r.Rank}
	}
	doc := ballotDocument{
		Id:          primitive.NewObjectID(),
		PollId:      pollId,
		VoterId:     b.VoterID,
		Rankings:    rankings,
		SubmittedAt: b.SubmittedAt,
	}

	session, err := s.client.StartSession()
	if err != nil {
		return logError(err, "poll_id", b.PollID)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		res, err := s.polls().UpdateOne(sc,
			bson.M{"_id": pollId, "status": string(poll.StatusOpen)},
			bson.M{"$inc": bson.M{"voteCount": 1}},
		)
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 0 {
			n, err := s.polls().CountDocuments(sc, bson.M{"_id": pollId})
			if err != nil {
				return nil, err
			}
			if n == 0 {
				return nil, fmt.Errorf("%w: poll %q", poll.ErrNotFound, b.PollID)
			}
			return nil, poll.ErrPollNotOpen
		}

		if _, err := s.ballots().InsertOne(sc, doc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, poll.ErrAlreadyVoted
			}
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		if isDomainError(err) {
			return err
		}
		return logError(err, "poll_id", b.PollID, "voter_id", b.VoterID)
	}

	b.ID = doc.Id.Hex()
	return nil
}

func (s *MongoStore) HasVoted(ctx context.Context, pollID, voterID string) (bool, error) {
	pollId, err := primitive.ObjectIDFromHex(pollID)
	if err != nil {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	count, err := s.ballots().CountDocuments(ctx, bson.M{"pollId": pollId, "voterId": voterID})
	if err != nil {
		return false, logError(err, "poll_id", pollID)
	}

	return count > 0, nil
}

func (s *MongoStore) ListBallots(ctx context.Context, pollID string) ([]*poll.Ballot, error) {
	pollId, err := pollObjectID(pollID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cursor, err := s.ballots().Find(ctx, bson.M{"pollId": pollId})
	if err != nil {
		return nil, logError(err, "poll_id", pollID)
	}

	var docs []ballotDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, logError(err, "poll_id", pollID)
	}

	ballots := make([]*poll.Ballot, len(docs))
	for i, d := range docs {
		ballots[i] = d.ballot()
	}
	return ballots, nil
}
