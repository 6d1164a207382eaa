package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
)

const defaultTimeout = 5 * time.Second

// GormRepo implements the credential, session and task stores over gorm.
type GormRepo struct {
	DB      *gorm.DB
	Timeout time.Duration
}

func New(db *gorm.DB, timeout time.Duration) *GormRepo {
	return &GormRepo{DB: db, Timeout: timeout}
}

// withTimeout bounds a single store call.
func (r *GormRepo) withTimeout(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return r.DB.WithContext(ctx), cancel
}

func (r *GormRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}
