package notes

import (
	"crypto/rand"
	"sync"
	"testing"
	"time"

	"note-vault/cmd/server/ctxkeys"
	"note-vault/cmd/server/testutil"
	"note-vault/internal/logger"
	"note-vault/internal/services/auth"
	"note-vault/internal/services/notes"
	"note-vault/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"
)

// MockHub implements the Hub interface for testing
type MockHub struct {
	mu             sync.Mutex
	subscribers    map[ulid.ULID]*notes.Subscriber
	subscribeCount int
}

func NewMockHub() *MockHub {
	return &MockHub{
		subscribers: make(map[ulid.ULID]*notes.Subscriber),
	}
}

func (m *MockHub) Subscribe(connULID ulid.ULID, userID string) (*notes.Subscriber, func()) {
	sub := &notes.Subscriber{
		UserID: userID,
		Ch:     make(chan notes.NoteEvent, 10),
		Done:   make(chan struct{}),
	}

	m.mu.Lock()
	m.subscribers[connULID] = sub
	m.subscribeCount++
	m.mu.Unlock()

	return sub, func() { m.Unsubscribe(connULID) }
}

func (m *MockHub) Unsubscribe(connULID ulid.ULID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sub, exists := m.subscribers[connULID]; exists {
		close(sub.Ch)
		close(sub.Done)
		delete(m.subscribers, connULID)
	}
}

func (m *MockHub) GetSubscriberCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subscribers)
}

// newTokenParser returns the auth service used to sign test tokens.
func newTokenParser() *auth.Service {
	return auth.NewService(store.NewMemory(), "users", testutil.TestConfig(), logger.L())
}

// SetupWebSocketHandlersApp creates a test app whose /ws route echoes the
// authenticated user after WSUpgrade.
func SetupWebSocketHandlersApp(t *testing.T) (*fiber.App, *MockHub) {
	t.Helper()

	app := testutil.CreateTestApp(t)
	hub := NewMockHub()
	wsHandlers := NewWebSocketHandlers(hub, newTokenParser(), 900)

	app.Get("/ws", wsHandlers.WSUpgrade, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user_id": c.Locals(ctxkeys.UserIDKey)})
	})

	return app, hub
}

// WSUpgradeTestCase represents a WebSocket upgrade test case
type WSUpgradeTestCase struct {
	Name           string
	Token          *string // nil means no token
	ExpectedStatus int
}

// GetStandardWSUpgradeTestCases returns common WebSocket upgrade test cases
func GetStandardWSUpgradeTestCases(t *testing.T) []WSUpgradeTestCase {
	t.Helper()

	userID := ulid.Make().String()
	email := "test@example.com"

	validToken, err := testutil.CreateTestJWT(userID, email, []byte(testutil.TestSecret), time.Hour)
	require.NoError(t, err)

	expiredToken, err := testutil.CreateTestJWT(userID, email, []byte(testutil.TestSecret), -time.Hour)
	require.NoError(t, err)

	forgedToken, err := testutil.CreateTestJWT(userID, email, []byte("wrong-secret-key-with-32-characters"), time.Hour)
	require.NoError(t, err)

	invalidToken := "invalid-token"

	return []WSUpgradeTestCase{
		{Name: "ValidToken", Token: &validToken, ExpectedStatus: 200},
		{Name: "MissingToken", Token: nil, ExpectedStatus: 401},
		{Name: "InvalidToken", Token: &invalidToken, ExpectedStatus: 401},
		{Name: "ExpiredToken", Token: &expiredToken, ExpectedStatus: 401},
		{Name: "ForgedToken", Token: &forgedToken, ExpectedStatus: 401},
	}
}

// WebSocketConnectionTest subscribes userID to hub and unsubscribes on cleanup.
func WebSocketConnectionTest(t *testing.T, hub *MockHub, userID string) *notes.Subscriber {
	t.Helper()

	connULID := ulid.MustNew(ulid.Timestamp(time.Now().UTC()), rand.Reader)
	sub, cancel := hub.Subscribe(connULID, userID)
	t.Cleanup(cancel)

	return sub
}
