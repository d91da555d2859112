package relations

import (
	"context"
	"errors"
	"fmt"

	"socialgraph/db"
	"socialgraph/models"

	"gorm.io/gorm"
)

// Directory resolves account IDs to profile records. The relationship engine
// consumes it for privacy flags and list enrichment; it never owns the data.
type Directory interface {
	GetAccount(ctx context.Context, accountID int64) (*models.Account, error)
	// GetAccounts batches by ID list so a list render costs one call.
	GetAccounts(ctx context.Context, accountIDs []int64) ([]models.Account, error)
	Search(ctx context.Context, query string, limit int) ([]models.Account, error)
}

// GormDirectory backs the directory with the shared database.
type GormDirectory struct{}

func NewGormDirectory() *GormDirectory {
	return &GormDirectory{}
}

func (d *GormDirectory) GetAccount(ctx context.Context, accountID int64) (*models.Account, error) {
	var account models.Account
	err := db.GetReadOnlyDB(ctx).First(&account, accountID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: account %d", ErrNotFound, accountID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %d: %w", accountID, err)
	}
	return &account, nil
}

func (d *GormDirectory) GetAccounts(ctx context.Context, accountIDs []int64) ([]models.Account, error) {
	if len(accountIDs) == 0 {
		return nil, nil
	}
	var accounts []models.Account
	err := db.GetReadOnlyDB(ctx).Where("id IN (?)", accountIDs).Find(&accounts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get accounts: %w", err)
	}
	return accounts, nil
}

func (d *GormDirectory) Search(ctx context.Context, query string, limit int) ([]models.Account, error) {
	var accounts []models.Account
	pattern := query + "%"
	err := db.GetReadOnlyDB(ctx).
		Where("nickname LIKE ? OR first_name LIKE ? OR last_name LIKE ?", pattern, pattern, pattern).
		Order("id").
		Limit(limit).
		Find(&accounts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search accounts: %w", err)
	}
	return accounts, nil
}
