package relations

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"socialgraph/db"
	"socialgraph/models"

	"golang.org/x/crypto/argon2"
	"gorm.io/gorm"
)

// TokenStore is the session collaborator: it issues bearer tokens and
// resolves them back to an actor ID. The relationship engine trusts the
// resolved identity as given.
//
// Tokens are "<accountID>.<secret>"; only the argon2 hash of the secret is
// stored.
type TokenStore struct{}

func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

func hashSecret(secret string, salt []byte) string {
	hash := argon2.IDKey([]byte(secret), salt, 1, 64*1024, 4, 32)
	return hex.EncodeToString(salt) + "$" + hex.EncodeToString(hash)
}

// IssueToken creates a fresh session token for the account, replacing any
// previous one.
func (t *TokenStore) IssueToken(ctx context.Context, accountID int64) (string, error) {
	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return "", err
	}
	secret := hex.EncodeToString(secretBytes)

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	err := db.GetWriteDB(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("account_id = ?", accountID).Delete(&models.SessionToken{}).Error; err != nil {
			return err
		}
		return tx.Create(&models.SessionToken{
			AccountID: accountID,
			TokenHash: hashSecret(secret, salt),
			CreatedAt: time.Now(),
		}).Error
	})
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}
	return fmt.Sprintf("%d.%s", accountID, secret), nil
}

// ResolveToken verifies a bearer token and returns the actor ID.
func (t *TokenStore) ResolveToken(ctx context.Context, token string) (int64, error) {
	accountPart, secret, found := strings.Cut(token, ".")
	if !found {
		return 0, fmt.Errorf("%w: malformed token", ErrNotFound)
	}
	accountID, err := strconv.ParseInt(accountPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed token", ErrNotFound)
	}

	var row models.SessionToken
	err = db.GetReadOnlyDB(ctx).Where("account_id = ?", accountID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("%w: unknown token", ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to resolve token: %w", err)
	}

	saltHex, _, found := strings.Cut(row.TokenHash, "$")
	if !found {
		return 0, fmt.Errorf("%w: corrupt token record", ErrNotFound)
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return 0, fmt.Errorf("%w: corrupt token record", ErrNotFound)
	}
	if hashSecret(secret, salt) != row.TokenHash {
		return 0, fmt.Errorf("%w: token mismatch", ErrNotFound)
	}
	return accountID, nil
}
