package database

import (
	"context"
	"time"

	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/domain"
	tmserrors "github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/errors"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/logutils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLiteHistory keeps transfer outcomes in a sqlite file.
type SQLiteHistory struct {
	db *gorm.DB
}

var _ domain.TransferHistory = (*SQLiteHistory)(nil)

func NewSQLiteHistory(dsn string) (*SQLiteHistory, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, storageError(err, "open", "failed to connect to database")
	}

	if err := db.AutoMigrate(&Transfer{}); err != nil {
		return nil, storageError(err, "migrate", "auto migration failed")
	}

	logutils.Log.WithField("path", dsn).Info("Database initialized successfully")
	return &SQLiteHistory{db: db}, nil
}

func (s *SQLiteHistory) Record(ctx context.Context, rec domain.TransferRecord) error {
	row := Transfer{
		ActorID:   rec.ActorID,
		Host:      rec.Host,
		Tier:      rec.Tier,
		Bytes:     rec.Bytes,
		Outcome:   rec.Outcome,
		CreatedAt: rec.CreatedAt,
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now()
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return storageError(err, "insert", "failed to record transfer")
	}
	return nil
}

// Stats counts delivered and failed transfers of actorID and sums delivered bytes.
func (s *SQLiteHistory) Stats(ctx context.Context, actorID int64) (domain.TransferStats, error) {
	var row struct {
		Delivered  int64
		Total      int64
		TotalBytes int64
	}
	err := s.db.WithContext(ctx).Model(&Transfer{}).
		Select("COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0) AS delivered, "+
			"COUNT(*) AS total, "+
			"COALESCE(SUM(CASE WHEN outcome = ? THEN bytes ELSE 0 END), 0) AS total_bytes",
			OutcomeDelivered, OutcomeDelivered).
		Where("actor_id = ?", actorID).
		Scan(&row).Error
	if err != nil {
		return domain.TransferStats{}, storageError(err, "query", "failed to read transfer stats")
	}
	return domain.TransferStats{
		Delivered:  row.Delivered,
		Failed:     row.Total - row.Delivered,
		TotalBytes: row.TotalBytes,
	}, nil
}

func (s *SQLiteHistory) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQLiteHistory) Shutdown(context.Context) error {
	return s.Close()
}

func (*SQLiteHistory) Name() string {
	return "transfer-history"
}

func storageError(err error, code, message string) error {
	return tmserrors.WrapDomainError(err, tmserrors.ErrorTypeUnexpected, "db_"+code, message)
}
