package notes

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"note-vault/cmd/server/ctxkeys"
	"note-vault/cmd/server/testutil"
	"note-vault/internal/services/notes"
	"note-vault/internal/services/tasks"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testUserID = "665f1c2ab8d1f0a9e4c2d000"

type MockService struct {
	mock.Mock
}

func (m *MockService) AddNote(ctx context.Context, userID string, req notes.AddNoteRequest) (*notes.Note, error) {
	args := m.Called(ctx, userID, req)
	return noteArg(args, 0), args.Error(1)
}

func (m *MockService) GetNote(ctx context.Context, userID, noteID string) (*notes.Note, error) {
	args := m.Called(ctx, userID, noteID)
	return noteArg(args, 0), args.Error(1)
}

func (m *MockService) UpdateNote(ctx context.Context, userID, noteID string, req notes.UpdateNoteRequest) (*notes.Note, error) {
	args := m.Called(ctx, userID, noteID, req)
	return noteArg(args, 0), args.Error(1)
}

func (m *MockService) SaveTasks(ctx context.Context, userID, noteID string, list []tasks.Task) (*notes.Note, error) {
	args := m.Called(ctx, userID, noteID, list)
	return noteArg(args, 0), args.Error(1)
}

func (m *MockService) ToggleTask(ctx context.Context, userID, noteID, taskID string) (*notes.Note, error) {
	args := m.Called(ctx, userID, noteID, taskID)
	return noteArg(args, 0), args.Error(1)
}

func (m *MockService) MoveToTrash(ctx context.Context, userID, noteID string) (*notes.Note, error) {
	args := m.Called(ctx, userID, noteID)
	return noteArg(args, 0), args.Error(1)
}

func (m *MockService) RestoreNote(ctx context.Context, userID, noteID string) (*notes.Note, error) {
	args := m.Called(ctx, userID, noteID)
	return noteArg(args, 0), args.Error(1)
}

func (m *MockService) ListNotes(ctx context.Context, userID string) ([]*notes.Note, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*notes.Note), args.Error(1)
}

func (m *MockService) ListTrashed(ctx context.Context, userID string) ([]*notes.Note, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*notes.Note), args.Error(1)
}

func (m *MockService) PurgeNote(ctx context.Context, userID, noteID string) error {
	return m.Called(ctx, userID, noteID).Error(0)
}

func (m *MockService) EmptyTrash(ctx context.Context, userID string) (*notes.EmptyTrashResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notes.EmptyTrashResponse), args.Error(1)
}

func noteArg(args mock.Arguments, i int) *notes.Note {
	if args.Get(i) == nil {
		return nil
	}
	return args.Get(i).(*notes.Note)
}

func setupNotesApp(t *testing.T) (*fiber.App, *MockService) {
	t.Helper()

	svc := &MockService{}
	h := NewHandlers(svc, testutil.CreateTestValidator(t))
	app := testutil.CreateTestApp(t)

	authed := func(c *fiber.Ctx) error {
		c.Locals(ctxkeys.UserIDKey, testUserID)
		return c.Next()
	}

	v1 := app.Group("/api/v1", authed)
	grp := v1.Group("/notes")
	grp.Post("/", h.Create)
	grp.Get("/", h.List)
	grp.Get("/:id", h.Get)
	grp.Patch("/:id", h.Update)
	grp.Delete("/:id", h.Purge)
	grp.Put("/:id/tasks", h.SaveTasks)
	grp.Post("/:id/tasks/:taskId/toggle", h.ToggleTask)
	grp.Post("/:id/trash", h.Trash)
	grp.Post("/:id/restore", h.Restore)
	v1.Get("/trash", h.ListTrash)
	v1.Delete("/trash", h.EmptyTrash)

	t.Cleanup(func() { svc.AssertExpectations(t) })
	return app, svc
}

func sampleNote(id, text string, tags ...string) *notes.Note {
	if tags == nil {
		tags = []string{}
	}
	return &notes.Note{
		ID:        id,
		UserID:    testUserID,
		Text:      text,
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Tags:      tags,
		Tasks:     tasks.Parse(text),
	}
}

func TestCreate(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		app, svc := setupNotesApp(t)
		req := notes.AddNoteRequest{Text: "* [ ] Call mom", Tags: []string{"home"}}
		svc.On("AddNote", mock.Anything, testUserID, req).Return(sampleNote("n1", req.Text, "home"), nil)

		resp, err := app.Test(testutil.CreateJSONRequest(http.MethodPost, "/api/v1/notes", req))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

		var body notes.NoteResponse
		testutil.DecodeJSON(t, resp, &body)
		assert.Equal(t, "n1", body.Note.ID)
		assert.Empty(t, body.Warning)
		require.Len(t, body.Note.Tasks, 1)
		assert.Equal(t, "Call mom", body.Note.Tasks[0].Text)
	})

	t.Run("tag failure keeps the note", func(t *testing.T) {
		app, svc := setupNotesApp(t)
		req := notes.AddNoteRequest{Text: "groceries", Tags: []string{"shop"}}
		svc.On("AddNote", mock.Anything, testUserID, req).
			Return(sampleNote("n2", "groceries", "shop"), fmt.Errorf("%w: %w", notes.ErrTagReconcile, errors.New("boom")))

		resp, err := app.Test(testutil.CreateJSONRequest(http.MethodPost, "/api/v1/notes", req))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

		var body notes.NoteResponse
		testutil.DecodeJSON(t, resp, &body)
		assert.Equal(t, "n2", body.Note.ID)
		assert.Contains(t, body.Warning, notes.ErrTagReconcile.Error())
	})

	t.Run("empty note", func(t *testing.T) {
		app, svc := setupNotesApp(t)
		svc.On("AddNote", mock.Anything, testUserID, notes.AddNoteRequest{}).Return(nil, notes.ErrEmptyNote)

		resp, err := app.Test(testutil.CreateJSONRequest(http.MethodPost, "/api/v1/notes", notes.AddNoteRequest{}))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

		var body map[string]string
		testutil.DecodeJSON(t, resp, &body)
		assert.Equal(t, notes.ErrEmptyNote.Error(), body["error"])
	})

	t.Run("invalid image url is rejected before the service", func(t *testing.T) {
		app, _ := setupNotesApp(t)

		resp, err := app.Test(testutil.CreateJSONRequest(http.MethodPost, "/api/v1/notes",
			map[string]any{"text": "x", "image_url": "not a url"}))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

		var body map[string]string
		testutil.DecodeJSON(t, resp, &body)
		assert.Contains(t, body["error"], "image_url")
	})

	t.Run("malformed body", func(t *testing.T) {
		app, _ := setupNotesApp(t)

		resp, err := app.Test(testutil.CreateJSONRequest(http.MethodPost, "/api/v1/notes", "not an object"))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("store failure forwards the message", func(t *testing.T) {
		app, svc := setupNotesApp(t)
		req := notes.AddNoteRequest{Text: "hello"}
		svc.On("AddNote", mock.Anything, testUserID, req).
			Return(nil, fmt.Errorf("%w: %w", notes.ErrCreateNote, errors.New("connection reset")))

		resp, err := app.Test(testutil.CreateJSONRequest(http.MethodPost, "/api/v1/notes", req))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

		var body map[string]string
		testutil.DecodeJSON(t, resp, &body)
		assert.Contains(t, body["error"], "connection reset")
	})
}

func TestList(t *testing.T) {
	app, svc := setupNotesApp(t)
	svc.On("ListNotes", mock.Anything, testUserID).Return([]*notes.Note{
		sampleNote("n1", "Call mom", "home", "family"),
		sampleNote("n2", "call the plumber", "home"),
		sampleNote("n3", "Buy milk", "home", "family"),
	}, nil)

	resp, err := app.Test(testutil.CreateJSONRequest(http.MethodGet, "/api/v1/notes?q=CALL&tags=home,family", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body notes.ListNotesResponse
	testutil.DecodeJSON(t, resp, &body)
	require.Equal(t, 1, body.Total)
	assert.Equal(t, "n1", body.Notes[0].ID)
}

func TestNotFoundMapping(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		setup  func(svc *MockService)
	}{
		{
			name:   "get",
			method: http.MethodGet,
			path:   "/api/v1/notes/missing",
			setup: func(svc *MockService) {
				svc.On("GetNote", mock.Anything, testUserID, "missing").Return(nil, notes.ErrNoteNotFound)
			},
		},
		{
			name:   "trash",
			method: http.MethodPost,
			path:   "/api/v1/notes/missing/trash",
			setup: func(svc *MockService) {
				svc.On("MoveToTrash", mock.Anything, testUserID, "missing").Return(nil, notes.ErrNoteNotFound)
			},
		},
		{
			name:   "restore",
			method: http.MethodPost,
			path:   "/api/v1/notes/missing/restore",
			setup: func(svc *MockService) {
				svc.On("RestoreNote", mock.Anything, testUserID, "missing").Return(nil, notes.ErrNoteNotFound)
			},
		},
		{
			name:   "purge",
			method: http.MethodDelete,
			path:   "/api/v1/notes/missing",
			setup: func(svc *MockService) {
				svc.On("PurgeNote", mock.Anything, testUserID, "missing").Return(notes.ErrNoteNotFound)
			},
		},
		{
			name:   "toggle unknown task",
			method: http.MethodPost,
			path:   "/api/v1/notes/n1/tasks/9/toggle",
			setup: func(svc *MockService) {
				svc.On("ToggleTask", mock.Anything, testUserID, "n1", "9").Return(nil, notes.ErrTaskNotFound)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, svc := setupNotesApp(t)
			tt.setup(svc)

			resp, err := app.Test(testutil.CreateJSONRequest(tt.method, tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
		})
	}
}

func TestUpdate(t *testing.T) {
	app, svc := setupNotesApp(t)
	text := "* [x] Call mom"
	req := notes.UpdateNoteRequest{Text: &text}
	svc.On("UpdateNote", mock.Anything, testUserID, "n1", req).Return(sampleNote("n1", text), nil)

	resp, err := app.Test(testutil.CreateJSONRequest(http.MethodPatch, "/api/v1/notes/n1", req))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body notes.NoteResponse
	testutil.DecodeJSON(t, resp, &body)
	require.Len(t, body.Note.Tasks, 1)
	assert.True(t, body.Note.Tasks[0].Completed)
}

func TestSaveTasksAndToggle(t *testing.T) {
	app, svc := setupNotesApp(t)
	list := []tasks.Task{{ID: "0", Text: "Call mom"}, {ID: "1", Text: "Buy milk", Completed: true}}
	saved := sampleNote("n1", tasks.Serialize(list))
	svc.On("SaveTasks", mock.Anything, testUserID, "n1", list).Return(saved, nil)
	svc.On("ToggleTask", mock.Anything, testUserID, "n1", "0").Return(saved, nil)

	resp, err := app.Test(testutil.CreateJSONRequest(http.MethodPut, "/api/v1/notes/n1/tasks", notes.SaveTasksRequest{Tasks: list}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(testutil.CreateJSONRequest(http.MethodPost, "/api/v1/notes/n1/tasks/0/toggle", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestPurge(t *testing.T) {
	app, svc := setupNotesApp(t)
	svc.On("PurgeNote", mock.Anything, testUserID, "n1").Return(nil)

	resp, err := app.Test(testutil.CreateJSONRequest(http.MethodDelete, "/api/v1/notes/n1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestTrash(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		app, svc := setupNotesApp(t)
		trashed := sampleNote("n1", "old")
		deletedAt := time.Now().UTC()
		trashed.DeletedAt = &deletedAt
		svc.On("ListTrashed", mock.Anything, testUserID).Return([]*notes.Note{trashed}, nil)

		resp, err := app.Test(testutil.CreateJSONRequest(http.MethodGet, "/api/v1/trash", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var body notes.ListNotesResponse
		testutil.DecodeJSON(t, resp, &body)
		require.Equal(t, 1, body.Total)
		assert.NotNil(t, body.Notes[0].DeletedAt)
	})

	t.Run("empty", func(t *testing.T) {
		app, svc := setupNotesApp(t)
		svc.On("EmptyTrash", mock.Anything, testUserID).Return(&notes.EmptyTrashResponse{Purged: 3}, nil)

		resp, err := app.Test(testutil.CreateJSONRequest(http.MethodDelete, "/api/v1/trash", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var body notes.EmptyTrashResponse
		testutil.DecodeJSON(t, resp, &body)
		assert.Equal(t, 3, body.Purged)
	})

	t.Run("partial failure", func(t *testing.T) {
		app, svc := setupNotesApp(t)
		svc.On("EmptyTrash", mock.Anything, testUserID).
			Return(&notes.EmptyTrashResponse{Purged: 2, Failed: 1}, notes.ErrEmptyTrash)

		resp, err := app.Test(testutil.CreateJSONRequest(http.MethodDelete, "/api/v1/trash", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

		var body map[string]any
		testutil.DecodeJSON(t, resp, &body)
		assert.Equal(t, "some notes could not be deleted", body["error"])
		assert.EqualValues(t, 2, body["purged"])
		assert.EqualValues(t, 1, body["failed"])
	})
}

func TestMissingUser(t *testing.T) {
	svc := &MockService{}
	h := NewHandlers(svc, testutil.CreateTestValidator(t))
	app := testutil.CreateTestApp(t)
	app.Get("/notes", h.List)

	resp, err := app.Test(testutil.CreateJSONRequest(http.MethodGet, "/notes", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	svc.AssertNotCalled(t, "ListNotes", mock.Anything, mock.Anything)
}
