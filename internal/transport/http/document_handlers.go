package http

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wireroom-server/internal/files"
	"github.com/vovakirdan/wireroom-server/internal/store"
)

const (
	pdfContentType = "application/pdf"
	// multipartSlack leaves room for form fields around the file part.
	multipartSlack = 1 << 20
)

// DocumentStager binds a stored file to the room it was uploaded for.
type DocumentStager interface {
	StageDocument(ctx context.Context, code, filename string) error
}

// DocumentHandlers stores and serves shared documents.
type DocumentHandlers struct {
	rooms  *store.Rooms
	stager DocumentStager
	docs   *files.Storage
	log    *zerolog.Logger
}

// NewDocumentHandlers creates a new document handlers instance.
func NewDocumentHandlers(rooms *store.Rooms, stager DocumentStager, docs *files.Storage, logger *zerolog.Logger) *DocumentHandlers {
	return &DocumentHandlers{rooms: rooms, stager: stager, docs: docs, log: logger}
}

// DocumentDescriptor describes a stored file. Clients pass it back in
// pdf-uploaded to install it in the room.
type DocumentDescriptor struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName"`
	TotalPages   int       `json:"totalPages"`
	Size         int64     `json:"size"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

// UploadResponse wraps the stored file descriptor.
type UploadResponse struct {
	PDF DocumentDescriptor `json:"pdf"`
}

// Upload stores a document and stages it on the room. Only that room can
// install it with pdf-uploaded.
// POST /api/pdf/upload/:roomId
func (h *DocumentHandlers) Upload(c *gin.Context) {
	code := c.Param("roomId")
	if _, err := h.rooms.Get(c.Request.Context(), code); err != nil {
		status, text := statusFor(err)
		c.JSON(status, ErrorResponse{Error: text})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.docs.MaxBytes()+multipartSlack)

	header, err := c.FormFile("pdf")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "file too large"})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "pdf file is required"})
		return
	}
	if mediaType, _, err := mime.ParseMediaType(header.Header.Get("Content-Type")); err != nil || mediaType != pdfContentType {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "only PDF files are allowed"})
		return
	}
	if header.Size > h.docs.MaxBytes() {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "file too large"})
		return
	}

	totalPages := 1
	if raw := c.PostForm("totalPages"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid totalPages"})
			return
		}
		totalPages = n
	}

	src, err := header.Open()
	if err != nil {
		h.log.Error().Err(err).Msg("open uploaded file")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	defer src.Close()

	name, err := h.docs.Save(src)
	if errors.Is(err, files.ErrTooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "file too large"})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("room", code).Msg("failed to store document")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	if err := h.stager.StageDocument(c.Request.Context(), code, name); err != nil {
		if rerr := h.docs.Release(c.Request.Context(), name); rerr != nil {
			h.log.Warn().Err(rerr).Str("file", name).Msg("release unstaged document failed")
		}
		status, text := statusFor(err)
		c.JSON(status, ErrorResponse{Error: text})
		return
	}

	h.log.Info().Str("room", code).Str("file", name).Int64("size", header.Size).Msg("document stored")
	c.JSON(http.StatusOK, UploadResponse{PDF: DocumentDescriptor{
		ID:           uuid.NewString(),
		Filename:     name,
		OriginalName: header.Filename,
		TotalPages:   totalPages,
		Size:         header.Size,
		UploadedAt:   time.Now().UTC(),
	}})
}

// Session returns the document currently shared in a room.
// GET /api/pdf/:roomId
func (h *DocumentHandlers) Session(c *gin.Context) {
	room, err := h.rooms.Get(c.Request.Context(), c.Param("roomId"))
	if err != nil {
		status, text := statusFor(err)
		c.JSON(status, ErrorResponse{Error: text})
		return
	}
	if room.Document == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "no document in room"})
		return
	}
	c.JSON(http.StatusOK, room.Document)
}

// File serves stored document bytes.
// GET /api/pdf/file/:filename
func (h *DocumentHandlers) File(c *gin.Context) {
	path, err := h.docs.Path(c.Param("filename"))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "file not found"})
		return
	}
	c.Header("Content-Type", pdfContentType)
	c.File(path)
}
