package web

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nanafuji/estimail/internal/database"
	"github.com/nanafuji/estimail/internal/sync"
	"github.com/nanafuji/estimail/pkg/models"
)

type emailSummary struct {
	UIDValidity uint32    `json:"uidvalidity"`
	UID         uint32    `json:"uid"`
	MessageID   string    `json:"message_id"`
	Subject     string    `json:"subject"`
	FromAddr    string    `json:"from_addr"`
	Date        time.Time `json:"date"`
	Status      string    `json:"status"`
}

func toSummary(e *models.Email) emailSummary {
	return emailSummary{
		UIDValidity: e.UIDValidity,
		UID:         e.UID,
		MessageID:   e.MessageID,
		Subject:     e.Subject,
		FromAddr:    e.FromAddr,
		Date:        e.Date,
		Status:      e.Status,
	}
}

func (s *Server) listEmails(c *gin.Context) {
	emails, err := s.db.ListEmails(c.Request.Context())
	if err != nil {
		s.logger.Error("failed to list emails", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list emails"})
		return
	}

	out := make([]emailSummary, 0, len(emails))
	for _, e := range emails {
		out = append(out, toSummary(e))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) countEmails(c *gin.Context) {
	count, err := s.db.CountEmails(c.Request.Context())
	if err != nil {
		s.logger.Error("failed to count emails", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count emails"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func emailKey(c *gin.Context) (uint32, uint32, bool) {
	uv, err := strconv.ParseUint(c.Param("uidvalidity"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid uidvalidity"})
		return 0, 0, false
	}
	uid, err := strconv.ParseUint(c.Param("uid"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid uid"})
		return 0, 0, false
	}
	return uint32(uv), uint32(uid), true
}

func (s *Server) emailDetail(c *gin.Context) {
	uv, uid, ok := emailKey(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	email, err := s.db.GetEmail(ctx, uv, uid)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "email not found"})
		return
	}
	if err != nil {
		s.logger.Error("failed to get email", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get email"})
		return
	}

	// Annotations may be missing; an empty set is not an error
	noteRows, err := s.db.ListNotes(ctx, uv, uid)
	if err != nil {
		s.logger.Warn("failed to list notes", "error", err)
	}
	notes := make(map[string]string, len(noteRows))
	for _, n := range noteRows {
		notes[strconv.Itoa(n.Page)] = n.Content
	}

	photoRows, err := s.db.ListPhotos(ctx, uv, uid)
	if err != nil {
		s.logger.Warn("failed to list photos", "error", err)
	}
	photos := make([]string, 0, len(photoRows))
	for _, p := range photoRows {
		photos = append(photos, "/uploads/"+p.Filename)
	}

	c.JSON(http.StatusOK, gin.H{
		"uidvalidity": email.UIDValidity,
		"uid":         email.UID,
		"message_id":  email.MessageID,
		"subject":     email.Subject,
		"from_addr":   email.FromAddr,
		"to_addr":     email.ToAddr,
		"date":        email.Date,
		"body":        email.Body,
		"status":      email.Status,
		"fields":      s.extractor.Extract(email.Body),
		"notes":       notes,
		"photos":      photos,
	})
}

func (s *Server) updateStatus(c *gin.Context) {
	uv, uid, ok := emailKey(c)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	err := s.db.UpdateEmailStatus(c.Request.Context(), uv, uid, req.Status)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "email not found"})
		return
	}
	if err != nil {
		s.logger.Error("failed to update status", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update status"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) upsertNote(c *gin.Context) {
	uv, uid, ok := emailKey(c)
	if !ok {
		return
	}

	var req struct {
		Page    int    `json:"page"`
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid note"})
		return
	}
	if req.Page < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
		return
	}

	note := &models.Note{UIDValidity: uv, UID: uid, Page: req.Page, Content: req.Content}
	if err := s.db.UpsertNote(c.Request.Context(), note); err != nil {
		s.logger.Error("failed to save note", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save note"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) uploadPhoto(c *gin.Context) {
	uv, uid, ok := emailKey(c)
	if !ok {
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	filename := uuid.NewString() + filepath.Ext(file.Filename)
	if err := c.SaveUploadedFile(file, filepath.Join(s.uploadDir, filename)); err != nil {
		s.logger.Error("failed to store photo", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store photo"})
		return
	}

	photo := &models.Photo{UIDValidity: uv, UID: uid, Filename: filename}
	if err := s.db.AddPhoto(c.Request.Context(), photo); err != nil {
		s.logger.Error("failed to save photo", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save photo"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "url": "/uploads/" + filename})
}

func (s *Server) syncNow(c *gin.Context) {
	saved, err := s.engine.SyncLatest(c.Request.Context(), s.manualLim)
	if errors.Is(err, sync.ErrSyncInProgress) {
		c.JSON(http.StatusConflict, gin.H{"ok": false, "error": "sync already in progress"})
		return
	}
	if err != nil {
		s.logger.Error("manual sync failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": "mailbox unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "saved": saved})
}
