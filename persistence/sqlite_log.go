package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/BaSui01/accord/types"
)

// messageRecord is the gorm model for one negotiation message.
type messageRecord struct {
	Seq           uint   `gorm:"primaryKey;autoIncrement"`
	MessageID     string `gorm:"size:64;uniqueIndex"`
	NegotiationID string `gorm:"size:64;index"`
	SenderID      string `gorm:"size:128"`
	Type          string `gorm:"size:32"`
	Content       string
	Timestamp     time.Time
}

func (messageRecord) TableName() string { return "negotiation_messages" }

// outcomeRecord is the gorm model for one archived outcome.
type outcomeRecord struct {
	Seq            uint   `gorm:"primaryKey;autoIncrement"`
	NegotiationID  string `gorm:"size:64;index"`
	Subject        string `gorm:"size:256"`
	Status         string `gorm:"size:32"`
	Resolution     string `gorm:"size:32"`
	FinalAgreement string
	Participants   string
	Rounds         int
	DurationMS     int64
	CreatedAt      time.Time
}

func (outcomeRecord) TableName() string { return "negotiation_outcomes" }

// SQLiteLog is the SQLite-backed Log implementation for single-node
// durable archives.
type SQLiteLog struct {
	db     *gorm.DB
	logger *zap.Logger
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteLog opens (or creates) the database file and migrates the schema.
func NewSQLiteLog(path string, logger *zap.Logger) (*SQLiteLog, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %s: %w", path, err)
	}
	if err := db.AutoMigrate(&messageRecord{}, &outcomeRecord{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return &SQLiteLog{
		db:     db,
		logger: logger.With(zap.String("component", "sqlite_log")),
	}, nil
}

// Close closes the underlying database.
func (l *SQLiteLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks if the log is healthy.
func (l *SQLiteLog) Ping(ctx context.Context) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return ErrStoreClosed
	}
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// AppendMessage persists one message of a negotiation's history.
func (l *SQLiteLog) AppendMessage(ctx context.Context, negotiationID string, msg types.Message) error {
	if negotiationID == "" {
		return ErrInvalidInput
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return ErrStoreClosed
	}

	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	content, err := json.Marshal(msg.Content)
	if err != nil {
		return fmt.Errorf("marshal content: %w", err)
	}
	rec := messageRecord{
		MessageID:     msg.ID,
		NegotiationID: negotiationID,
		SenderID:      msg.SenderID,
		Type:          string(msg.Type),
		Content:       string(content),
		Timestamp:     msg.Timestamp,
	}
	return l.db.WithContext(ctx).Create(&rec).Error
}

// Messages replays a negotiation's history in append order.
func (l *SQLiteLog) Messages(ctx context.Context, negotiationID string) ([]types.Message, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return nil, ErrStoreClosed
	}

	var recs []messageRecord
	err := l.db.WithContext(ctx).
		Where("negotiation_id = ?", negotiationID).
		Order("seq asc").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("read messages: %w", err)
	}

	out := make([]types.Message, 0, len(recs))
	for _, rec := range recs {
		var content types.Proposal
		if rec.Content != "" {
			if err := json.Unmarshal([]byte(rec.Content), &content); err != nil {
				l.logger.Warn("skipping corrupt message row",
					zap.Uint("seq", rec.Seq),
					zap.Error(err))
				continue
			}
		}
		out = append(out, types.Message{
			ID:        rec.MessageID,
			SenderID:  rec.SenderID,
			Type:      types.MessageType(rec.Type),
			Content:   content,
			Timestamp: rec.Timestamp,
		})
	}
	return out, nil
}

// SaveOutcome archives a completed negotiation's outcome.
func (l *SQLiteLog) SaveOutcome(ctx context.Context, outcome *types.Outcome) error {
	if outcome == nil {
		return ErrInvalidInput
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return ErrStoreClosed
	}

	agreement, err := json.Marshal(outcome.FinalAgreement)
	if err != nil {
		return fmt.Errorf("marshal agreement: %w", err)
	}
	participants, err := json.Marshal(outcome.Participants)
	if err != nil {
		return fmt.Errorf("marshal participants: %w", err)
	}
	rec := outcomeRecord{
		NegotiationID:  outcome.NegotiationID,
		Subject:        outcome.Subject,
		Status:         string(outcome.Status),
		Resolution:     string(outcome.Resolution),
		FinalAgreement: string(agreement),
		Participants:   string(participants),
		Rounds:         outcome.Rounds,
		DurationMS:     outcome.Duration.Milliseconds(),
		CreatedAt:      time.Now(),
	}
	return l.db.WithContext(ctx).Create(&rec).Error
}

// Outcomes returns archived outcomes, oldest first.
func (l *SQLiteLog) Outcomes(ctx context.Context, limit int) ([]*types.Outcome, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return nil, ErrStoreClosed
	}

	q := l.db.WithContext(ctx).Order("seq asc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var recs []outcomeRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("read outcomes: %w", err)
	}

	out := make([]*types.Outcome, 0, len(recs))
	for _, rec := range recs {
		o := &types.Outcome{
			NegotiationID: rec.NegotiationID,
			Subject:       rec.Subject,
			Status:        types.Status(rec.Status),
			Resolution:    types.Resolution(rec.Resolution),
			Rounds:        rec.Rounds,
			Duration:      time.Duration(rec.DurationMS) * time.Millisecond,
		}
		if rec.FinalAgreement != "" {
			if err := json.Unmarshal([]byte(rec.FinalAgreement), &o.FinalAgreement); err != nil {
				l.logger.Warn("skipping corrupt outcome row", zap.Uint("seq", rec.Seq), zap.Error(err))
				continue
			}
		}
		if rec.Participants != "" {
			if err := json.Unmarshal([]byte(rec.Participants), &o.Participants); err != nil {
				l.logger.Warn("skipping corrupt outcome row", zap.Uint("seq", rec.Seq), zap.Error(err))
				continue
			}
		}
		out = append(out, o)
	}
	return out, nil
}

// Ensure SQLiteLog implements Log.
var _ Log = (*SQLiteLog)(nil)
