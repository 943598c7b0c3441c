package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/computersciencehouse/borda/logging"
	"github.com/computersciencehouse/borda/poll"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type pollRecord struct {
	ID          string                           `gorm:"primaryKey;size:36"`
	Title       string                           `gorm:"size:200;not null"`
	Description string                           `gorm:"type:text"`
	Options     datatypes.JSONSlice[poll.Option] `gorm:"not null"`
	Status      string                           `gorm:"size:16;not null;index"`
	OwnerID     string                           `gorm:"size:255;not null;index"`
	VoteCount   int                              `gorm:"not null;default:0"`
	CreatedAt   time.Time                        `gorm:"index"`
	ClosesAt    *time.Time
}

func (pollRecord) TableName() string { return "polls" }

func (r pollRecord) poll() *poll.Poll {
	return &poll.Poll{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Options:     append([]poll.Option(nil), r.Options...),
		Status:      poll.Status(r.Status),
		OwnerID:     r.OwnerID,
		VoteCount:   r.VoteCount,
		CreatedAt:   r.CreatedAt.UTC(),
		ClosesAt:    utcPtr(r.ClosesAt),
	}
}

type ballotRecord struct {
	ID          string                            `gorm:"primaryKey;size:36"`
	PollID      string                            `gorm:"size:36;not null;uniqueIndex:idx_ballots_poll_voter"`
	VoterID     string                            `gorm:"size:255;not null;uniqueIndex:idx_ballots_poll_voter"`
	Rankings    datatypes.JSONSlice[poll.Ranking] `gorm:"not null"`
	SubmittedAt time.Time
}

func (ballotRecord) TableName() string { return "ballots" }

func (r ballotRecord) ballot() *poll.Ballot {
	return &poll.Ballot{
		ID:          r.ID,
		PollID:      r.PollID,
		VoterID:     r.VoterID,
		Rankings:    append([]poll.Ranking(nil), r.Rankings...),
		SubmittedAt: r.SubmittedAt.UTC(),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// GormStore keeps polls and ballots in a SQL database through gorm. The
// unique index on (poll_id, voter_id) enforces one ballot per voter.
type GormStore struct {
	db      *gorm.DB
	timeout time.Duration
}

func dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "postgres":
		return postgres.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(dsn), nil
	}
	return nil, fmt.Errorf("unsupported sql driver %q", driver)
}

func OpenGorm(driver, dsn string, timeout time.Duration) (*GormStore, error) {
	fields := logrus.Fields{"module": "database", "method": "OpenGorm", "driver": driver}
	logging.Logger.WithFields(fields).Info("beginning database connection")

	d, err := dialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(d, &gorm.Config{
		TranslateError: true,
		Logger: logger.New(logging.Logger, logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		logging.Logger.WithFields(fields).WithField("error", err).Error("error connecting to database")
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// sqlite serializes writers; a single connection also keeps an
	// in-memory database alive for the life of the store.
	if driver == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		logging.Logger.WithFields(fields).WithField("error", err).Error("error pinging database")
		_ = sqlDB.Close()
		return nil, err
	}

	if err := db.WithContext(ctx).AutoMigrate(&pollRecord{}, &ballotRecord{}); err != nil {
		logging.Logger.WithFields(fields).WithField("error", err).Error("error migrating schema")
		_ = sqlDB.Close()
		return nil, err
	}

	logging.Logger.WithFields(fields).Info("connected to sql database")
	return &GormStore{db: db, timeout: timeout}, nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) conn(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	return s.db.WithContext(ctx), cancel
}

func (s *GormStore) CreatePoll(ctx context.Context, p *poll.Poll) error {
	db, cancel := s.conn(ctx)
	defer cancel()

	rec := pollRecord{
		ID:          uuid.NewString(),
		Title:       p.Title,
		Description: p.Description,
		Options:     datatypes.JSONSlice[poll.Option](p.Options),
		Status:      string(p.Status),
		OwnerID:     p.OwnerID,
		VoteCount:   p.VoteCount,
		CreatedAt:   p.CreatedAt,
		ClosesAt:    p.ClosesAt,
	}
	if err := db.Create(&rec).Error; err != nil {
		return logError(err, "owner_id", p.OwnerID)
	}

	p.ID = rec.ID
	return nil
}

func (s *GormStore) GetPoll(ctx context.Context, id string) (*poll.Poll, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	var rec pollRecord
	if err := db.Where("id = ?", id).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: poll %q", poll.ErrNotFound, id)
		}
		return nil, logError(err, "poll_id", id)
	}
	return rec.poll(), nil
}

func (s *GormStore) ListPolls(ctx context.Context, filter poll.Filter) ([]*poll.Poll, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	query := db.Model(&pollRecord{})
	if filter.OwnerID != "" {
		query = query.Where("owner_id = ?", filter.OwnerID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}

	var recs []pollRecord
	if err := query.Order("created_at DESC").Order("id DESC").Find(&recs).Error; err != nil {
		return nil, logError(err)
	}

	polls := make([]*poll.Poll, len(recs))
	for i, r := range recs {
		polls[i] = r.poll()
	}
	return polls, nil
}

// Transition updates only a row still in t.From(); zero affected rows means
// the poll is missing or another caller moved it first.
func (s *GormStore) Transition(ctx context.Context, id string, t poll.Transition, at time.Time) (*poll.Poll, error) {
	if !t.Valid() {
		return nil, t.Check("")
	}

	db, cancel := s.conn(ctx)
	defer cancel()

	updates := map[string]interface{}{"status": string(t.To())}
	if t.To() == poll.StatusClosed {
		updates["closes_at"] = at
	}

	res := db.Model(&pollRecord{}).
		Where("id = ? AND status = ?", id, string(t.From())).
		Updates(updates)
	if res.Error != nil {
		return nil, logError(res.Error, "poll_id", id)
	}

	current, err := s.GetPoll(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		return nil, t.Check(current.Status)
	}
	return current, nil
}

func (s *GormStore) CastBallot(ctx context.Context, b *poll.Ballot) error {
	db, cancel := s.conn(ctx)
	defer cancel()

	rec := ballotRecord{
		ID:          uuid.NewString(),
		PollID:      b.PollID,
		VoterID:     b.VoterID,
		Rankings:    datatypes.JSONSlice[poll.Ranking](b.Rankings),
		SubmittedAt: b.SubmittedAt,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&pollRecord{}).
			Where("id = ? AND status = ?", b.PollID, string(poll.StatusOpen)).
			UpdateColumn("vote_count", gorm.Expr("vote_count + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var n int64
			if err := tx.Model(&pollRecord{}).Where("id = ?", b.PollID).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return fmt.Errorf("%w: poll %q", poll.ErrNotFound, b.PollID)
			}
			return poll.ErrPollNotOpen
		}

		if err := tx.Create(&rec).Error; err != nil {
			if isUniqueViolation(err) {
				return poll.ErrAlreadyVoted
			}
			return err
		}
		return nil
	})
	if err != nil {
		if isDomainError(err) {
			return err
		}
		return logError(err, "poll_id", b.PollID, "voter_id", b.VoterID)
	}

	b.ID = rec.ID
	return nil
}

func (s *GormStore) HasVoted(ctx context.Context, pollID, voterID string) (bool, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	var n int64
	err := db.Model(&ballotRecord{}).
		Where("poll_id = ? AND voter_id = ?", pollID, voterID).
		Count(&n).Error
	if err != nil {
		return false, logError(err, "poll_id", pollID)
	}
	return n > 0, nil
}

func (s *GormStore) ListBallots(ctx context.Context, pollID string) ([]*poll.Ballot, error) {
	if _, err := s.GetPoll(ctx, pollID); err != nil {
		return nil, err
	}

	db, cancel := s.conn(ctx)
	defer cancel()

	var recs []ballotRecord
	if err := db.Where("poll_id = ?", pollID).Order("submitted_at").Find(&recs).Error; err != nil {
		return nil, logError(err, "poll_id", pollID)
	}

	ballots := make([]*poll.Ballot, len(recs))
	for i, r := range recs {
		ballots[i] = r.ballot()
	}
	return ballots, nil
}
