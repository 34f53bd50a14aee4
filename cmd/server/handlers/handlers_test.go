package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"note-vault/cmd/server/ctxkeys"
	"note-vault/cmd/server/testutil"
	"note-vault/internal/logger"
	"note-vault/internal/services/auth"
	"note-vault/internal/services/blob"
	"note-vault/internal/services/tags"
	"note-vault/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type downPinger struct{}

func (downPinger) Ping(context.Context) error { return errors.New("connection refused") }

func TestHealthz(t *testing.T) {
	tests := []struct {
		name   string
		pinger store.Pinger
		status int
		body   string
	}{
		{"memory store up", store.NewMemory(), 200, `"status":"ok"`},
		{"store down", downPinger{}, 503, "connection refused"},
		{"no store", nil, 503, "store not initialized"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := testutil.CreateTestApp(t)
			app.Get("/healthz", Healthz(tt.pinger, "memory"))

			resp, err := app.Test(testutil.CreateJSONRequest(http.MethodGet, "/healthz", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			raw, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Contains(t, string(raw), tt.body)
		})
	}
}

type MockUserGetter struct {
	mock.Mock
}

func (m *MockUserGetter) GetUser(ctx context.Context, id string) (*auth.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.User), args.Error(1)
}

func withUser(userID string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(ctxkeys.UserIDKey, userID)
		return c.Next()
	}
}

func TestMe(t *testing.T) {
	users := &MockUserGetter{}
	users.On("GetUser", mock.Anything, "u1").Return(&auth.User{ID: "u1", Email: "a@example.com", PasswordHash: "secret"}, nil)
	users.On("GetUser", mock.Anything, "gone").Return(nil, auth.ErrUserNotFound)

	app := testutil.CreateTestApp(t)
	app.Get("/me/:uid", func(c *fiber.Ctx) error {
		c.Locals(ctxkeys.UserIDKey, c.Params("uid"))
		return c.Next()
	}, Me(users))

	resp, err := app.Test(testutil.CreateJSONRequest(http.MethodGet, "/me/u1", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "a@example.com")
	assert.NotContains(t, string(raw), "secret")

	resp, err = app.Test(testutil.CreateJSONRequest(http.MethodGet, "/me/gone", nil))
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)

	users.AssertExpectations(t)
}

func TestTags(t *testing.T) {
	app := testutil.CreateTestApp(t)
	reconciler := tags.NewReconciler(store.NewMemory(), "tags", logger.L())
	require.NoError(t, reconciler.Reconcile(context.Background(), "u1", []string{"work", "home"}))
	require.NoError(t, reconciler.Reconcile(context.Background(), "u2", []string{"private"}))

	app.Get("/tags", withUser("u1"), Tags(reconciler))

	resp, err := app.Test(testutil.CreateJSONRequest(http.MethodGet, "/tags", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body TagsResponse
	testutil.DecodeJSON(t, resp, &body)
	names := make([]string, 0, len(body.Tags))
	for _, tag := range body.Tags {
		names = append(names, tag.Name)
		assert.Equal(t, "u1", tag.UserID)
	}
	assert.ElementsMatch(t, []string{"work", "home"}, names)
}

type fakeStorage struct {
	files map[string][]byte
	err   error
}

func (f *fakeStorage) Upload(_ context.Context, bucket, id string, data []byte, _ string) (string, error) {
	f.files[bucket+"/"+id] = data
	return id, nil
}

func (f *fakeStorage) PublicURL(_ context.Context, bucket, fileID string) (string, error) {
	return "/files/" + bucket + "/" + fileID, nil
}

func (f *fakeStorage) Download(_ context.Context, bucket, fileID string, w io.Writer) error {
	if f.err != nil {
		return f.err
	}
	data, ok := f.files[bucket+"/"+fileID]
	if !ok {
		return blob.ErrFileNotFound
	}
	_, err := w.Write(data)
	return err
}

func TestFiles(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	storage := &fakeStorage{files: map[string][]byte{"media/img1": png}}

	app := testutil.CreateTestApp(t)
	app.Get("/files/:bucket/:id", Files(storage))

	resp, err := app.Test(testutil.CreateJSONRequest(http.MethodGet, "/files/media/img1", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, png, raw)

	resp, err = app.Test(testutil.CreateJSONRequest(http.MethodGet, "/files/media/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)

	storage.err = blob.ErrUnavailable
	resp, err = app.Test(testutil.CreateJSONRequest(http.MethodGet, "/files/media/img1", nil))
	require.NoError(t, err)
	assert.Equal(t, 503, resp.StatusCode)

	storage.err = errors.New("disk on fire")
	resp, err = app.Test(testutil.CreateJSONRequest(http.MethodGet, "/files/media/img1", nil))
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)
	raw, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(raw), "disk on fire"))
}
