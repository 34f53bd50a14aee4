package notes

import (
	"context"
	"errors"

	"note-vault/cmd/server/handlers/handlerutil"
	"note-vault/cmd/server/handlers/httperr"
	"note-vault/internal/logger"
	"note-vault/internal/services/notes"
	"note-vault/internal/services/tasks"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Service defines the interface for notes service
type Service interface {
	AddNote(ctx context.Context, userID string, req notes.AddNoteRequest) (*notes.Note, error)
	GetNote(ctx context.Context, userID, noteID string) (*notes.Note, error)
	UpdateNote(ctx context.Context, userID, noteID string, req notes.UpdateNoteRequest) (*notes.Note, error)
	SaveTasks(ctx context.Context, userID, noteID string, list []tasks.Task) (*notes.Note, error)
	ToggleTask(ctx context.Context, userID, noteID, taskID string) (*notes.Note, error)
	MoveToTrash(ctx context.Context, userID, noteID string) (*notes.Note, error)
	RestoreNote(ctx context.Context, userID, noteID string) (*notes.Note, error)
	ListNotes(ctx context.Context, userID string) ([]*notes.Note, error)
	ListTrashed(ctx context.Context, userID string) ([]*notes.Note, error)
	PurgeNote(ctx context.Context, userID, noteID string) error
	EmptyTrash(ctx context.Context, userID string) (*notes.EmptyTrashResponse, error)
}

var errorMapping = handlerutil.ErrorMapping{
	NotFound:   []error{notes.ErrNoteNotFound, notes.ErrTaskNotFound},
	BadRequest: []error{notes.ErrEmptyNote, notes.ErrMissingUserID},
}

// Handlers contains the notes HTTP handlers
type Handlers struct {
	service   Service
	validator *validator.Validate
}

// NewHandlers creates new notes handlers
func NewHandlers(service Service, validator *validator.Validate) *Handlers {
	return &Handlers{
		service:   service,
		validator: validator,
	}
}

// Create handles note creation
// @Summary Create a new note
// @Description A note needs text or an image or audio reference. Tags that
// @Description could not be recorded are reported in the warning field.
// @Tags notes
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body notes.AddNoteRequest true "Create note request"
// @Success 201 {object} notes.NoteResponse
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Router /notes [post]
func (h *Handlers) Create(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	var req notes.AddNoteRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "Create"); err != nil {
		return err
	}

	note, err := h.service.AddNote(c.UserContext(), userID, req)
	if errors.Is(err, notes.ErrTagReconcile) && note != nil {
		return c.Status(fiber.StatusCreated).JSON(notes.NoteResponse{Note: note, Warning: err.Error()})
	}
	if err != nil {
		return handlerutil.HandleServiceError(c, err, "Create", userID, errorMapping)
	}

	return c.Status(fiber.StatusCreated).JSON(notes.NoteResponse{Note: note})
}

// List handles active notes listing
// @Summary List active notes
// @Description Oldest first. q matches the text case-insensitively, tags is a
// @Description comma separated list that must all be present on a note.
// @Tags notes
// @Accept json
// @Produce json
// @Security Bearer
// @Param q query string false "Text search"
// @Param tags query string false "Comma separated tags (AND)"
// @Success 200 {object} notes.ListNotesResponse
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Router /notes [get]
func (h *Handlers) List(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	var req notes.ListNotesRequest
	if err := handlerutil.ParseAndValidateQuery(c, &req, h.validator, "List"); err != nil {
		return err
	}

	list, err := h.service.ListNotes(c.UserContext(), userID)
	if err != nil {
		return handlerutil.HandleServiceError(c, err, "List", userID, errorMapping)
	}

	filtered := notes.FilterNotes(list, req.Q, notes.ParseTagFilter(req.Tags))
	return c.JSON(notes.ListNotesResponse{Notes: filtered, Total: len(filtered)})
}

// Get returns a single note
// @Summary Get a note
// @Tags notes
// @Produce json
// @Security Bearer
// @Param id path string true "Note ID"
// @Success 200 {object} notes.NoteResponse
// @Failure 401 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Router /notes/{id} [get]
func (h *Handlers) Get(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	noteID, err := handlerutil.PathParam(c, "id", "Get", notes.ErrNoteNotFound)
	if err != nil {
		return err
	}

	note, err := h.service.GetNote(c.UserContext(), userID, noteID)
	if err != nil {
		return handlerutil.HandleServiceError(c, err, "Get", userID, errorMapping)
	}

	return c.JSON(notes.NoteResponse{Note: note})
}

// Update handles note updates
// @Summary Update a note
// @Tags notes
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Note ID"
// @Param request body notes.UpdateNoteRequest true "Update note request"
// @Success 200 {object} notes.NoteResponse
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Router /notes/{id} [patch]
func (h *Handlers) Update(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	noteID, err := handlerutil.PathParam(c, "id", "Update", notes.ErrNoteNotFound)
	if err != nil {
		return err
	}

	var req notes.UpdateNoteRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "Update"); err != nil {
		return err
	}

	note, err := h.service.UpdateNote(c.UserContext(), userID, noteID, req)
	return h.respondNote(c, note, err, "Update", userID)
}

// SaveTasks replaces the note body with a checklist
// @Summary Save the checklist of a note
// @Description The note text is rewritten from the tasks; prose lines are dropped.
// @Tags notes
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Note ID"
// @Param request body notes.SaveTasksRequest true "Tasks"
// @Success 200 {object} notes.NoteResponse
// @Failure 400 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Router /notes/{id}/tasks [put]
func (h *Handlers) SaveTasks(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	noteID, err := handlerutil.PathParam(c, "id", "SaveTasks", notes.ErrNoteNotFound)
	if err != nil {
		return err
	}

	var req notes.SaveTasksRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "SaveTasks"); err != nil {
		return err
	}

	note, err := h.service.SaveTasks(c.UserContext(), userID, noteID, req.Tasks)
	return h.respondNote(c, note, err, "SaveTasks", userID)
}

// ToggleTask flips one checklist item
// @Summary Toggle a task
// @Tags notes
// @Produce json
// @Security Bearer
// @Param id path string true "Note ID"
// @Param taskId path string true "Task ID"
// @Success 200 {object} notes.NoteResponse
// @Failure 404 {object} httperr.E
// @Router /notes/{id}/tasks/{taskId}/toggle [post]
func (h *Handlers) ToggleTask(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	noteID, err := handlerutil.PathParam(c, "id", "ToggleTask", notes.ErrNoteNotFound)
	if err != nil {
		return err
	}
	taskID, err := handlerutil.PathParam(c, "taskId", "ToggleTask", notes.ErrTaskNotFound)
	if err != nil {
		return err
	}

	note, err := h.service.ToggleTask(c.UserContext(), userID, noteID, taskID)
	return h.respondNote(c, note, err, "ToggleTask", userID)
}

// Trash moves a note to the trash
// @Summary Move a note to the trash
// @Tags notes
// @Produce json
// @Security Bearer
// @Param id path string true "Note ID"
// @Success 200 {object} notes.NoteResponse
// @Failure 404 {object} httperr.E
// @Router /notes/{id}/trash [post]
func (h *Handlers) Trash(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	noteID, err := handlerutil.PathParam(c, "id", "Trash", notes.ErrNoteNotFound)
	if err != nil {
		return err
	}

	note, err := h.service.MoveToTrash(c.UserContext(), userID, noteID)
	return h.respondNote(c, note, err, "Trash", userID)
}

// Restore takes a note out of the trash
// @Summary Restore a trashed note
// @Tags notes
// @Produce json
// @Security Bearer
// @Param id path string true "Note ID"
// @Success 200 {object} notes.NoteResponse
// @Failure 404 {object} httperr.E
// @Router /notes/{id}/restore [post]
func (h *Handlers) Restore(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	noteID, err := handlerutil.PathParam(c, "id", "Restore", notes.ErrNoteNotFound)
	if err != nil {
		return err
	}

	note, err := h.service.RestoreNote(c.UserContext(), userID, noteID)
	return h.respondNote(c, note, err, "Restore", userID)
}

// Purge permanently deletes a note
// @Summary Delete a note permanently
// @Tags notes
// @Security Bearer
// @Param id path string true "Note ID"
// @Success 204
// @Failure 401 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Router /notes/{id} [delete]
func (h *Handlers) Purge(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	noteID, err := handlerutil.PathParam(c, "id", "Purge", notes.ErrNoteNotFound)
	if err != nil {
		return err
	}

	if err := h.service.PurgeNote(c.UserContext(), userID, noteID); err != nil {
		return handlerutil.HandleServiceError(c, err, "Purge", userID, errorMapping)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ListTrash handles trashed notes listing
// @Summary List trashed notes
// @Tags trash
// @Produce json
// @Security Bearer
// @Success 200 {object} notes.ListNotesResponse
// @Failure 401 {object} httperr.E
// @Router /trash [get]
func (h *Handlers) ListTrash(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	list, err := h.service.ListTrashed(c.UserContext(), userID)
	if err != nil {
		return handlerutil.HandleServiceError(c, err, "ListTrash", userID, errorMapping)
	}

	return c.JSON(notes.ListNotesResponse{Notes: list, Total: len(list)})
}

// emptyTrashFailure is the body returned when some purges failed.
type emptyTrashFailure struct {
	Error string `json:"error" example:"some notes could not be deleted"`
	notes.EmptyTrashResponse
}

// EmptyTrash purges every trashed note
// @Summary Empty the trash
// @Description Best effort: notes purged before a failure stay deleted.
// @Tags trash
// @Produce json
// @Security Bearer
// @Success 200 {object} notes.EmptyTrashResponse
// @Failure 401 {object} httperr.E
// @Failure 500 {object} httperr.E
// @Router /trash [delete]
func (h *Handlers) EmptyTrash(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	resp, err := h.service.EmptyTrash(c.UserContext(), userID)
	if errors.Is(err, notes.ErrEmptyTrash) && resp != nil {
		logger.L().Error("empty trash incomplete", "handler", "EmptyTrash", "userID", userID,
			"purged", resp.Purged, "failed", resp.Failed)
		return c.Status(fiber.StatusInternalServerError).JSON(emptyTrashFailure{
			Error:              notes.ErrEmptyTrash.Error(),
			EmptyTrashResponse: *resp,
		})
	}
	if err != nil {
		return handlerutil.HandleServiceError(c, err, "EmptyTrash", userID, errorMapping)
	}

	return c.JSON(resp)
}

// respondNote writes a single note, keeping a tag warning next to the saved note.
func (h *Handlers) respondNote(c *fiber.Ctx, note *notes.Note, err error, handlerName, userID string) error {
	if errors.Is(err, notes.ErrTagReconcile) && note != nil {
		return c.JSON(notes.NoteResponse{Note: note, Warning: err.Error()})
	}
	if err != nil {
		return handlerutil.HandleServiceError(c, err, handlerName, userID, errorMapping)
	}
	if note == nil {
		return httperr.Fail(httperr.ErrInternal)
	}
	return c.JSON(notes.NoteResponse{Note: note})
}
