// Package docs NoteVault API
//
// @title  NoteVault API
// @version 0.1.0
// @description Notes with checklists, tags, media, reminders, a trash and live updates.
// @host      localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
package docs
