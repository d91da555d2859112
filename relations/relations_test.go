package relations

import (
	"context"
	"fmt"
	"testing"
	"time"

	"socialgraph/db"
	"socialgraph/models"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	err = database.AutoMigrate(
		&models.Account{},
		&models.SessionToken{},
		&models.FollowEdge{},
		&models.BlockEdge{},
		&models.RelationshipHistory{},
	)
	require.NoError(t, err)

	// One connection serializes test goroutines against the shared-cache
	// in-memory database.
	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	db.ORM = database
}

func createTestAccount(t *testing.T, private bool) *models.Account {
	t.Helper()
	account := &models.Account{
		Nickname:  gofakeit.Username() + gofakeit.DigitN(6),
		FirstName: gofakeit.FirstName(),
		LastName:  gofakeit.LastName(),
		Private:   private,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, db.ORM.Create(account).Error)
	return account
}

type capturedNotification struct {
	AccountID  int64
	NotifyType string
	Message    string
}

type fakeNotifier struct {
	notifications []capturedNotification
}

func (n *fakeNotifier) Notify(accountID int64, notifyType, message string) {
	n.notifications = append(n.notifications, capturedNotification{accountID, notifyType, message})
}

type fakePublisher struct {
	events []Event
	err    error
}

func (p *fakePublisher) PublishEvent(ctx context.Context, event Event) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

// newTestService wires a command processor against the test database with
// capturing fakes for the external collaborators.
func newTestService(t *testing.T) (*RelationService, *fakeNotifier, *fakePublisher, *EventBus) {
	t.Helper()
	setupTestDB(t)
	bus := NewEventBus()
	notifier := &fakeNotifier{}
	publisher := &fakePublisher{}
	service := NewRelationService(NewStore(), bus, NewGormDirectory(), publisher, notifier)
	return service, notifier, publisher, bus
}
