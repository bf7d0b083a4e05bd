package api

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"taxrag/internal/models"
	"taxrag/internal/worker"
)

const maxUploadBytes = 64 << 20

// TurnDispatcher runs one conversation turn, serialized per thread.
type TurnDispatcher interface {
	Chat(ctx context.Context, message, threadID string) (string, error)
}

// Ingester loads document files into the search index. Keys are file paths,
// values are the public source URLs recorded in citations.
type Ingester interface {
	Ingest(ctx context.Context, sources map[string]string) (int, error)
}

// Handler wires HTTP routes to the answering engine and document ingestion.
type Handler struct {
	workers  TurnDispatcher
	ingester Ingester
	fileBase string
}

// NewHandler constructs a Handler instance.
func NewHandler(workers TurnDispatcher, ingester Ingester, fileBase string) *Handler {
	return &Handler{
		workers:  workers,
		ingester: ingester,
		fileBase: fileBase,
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	api.GET("/health", h.health)
	api.POST("/chat", h.chat)
	api.POST("/ingest", h.ingest)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type chatRequest struct {
	Message  string `json:"message"`
	ThreadID string `json:"thread_id"`
}

func (h *Handler) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	answer, err := h.workers.Chat(c.Request.Context(), req.Message, req.ThreadID)
	if err != nil {
		h.writeChatError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"response":  answer,
		"thread_id": threadOrDefault(req.ThreadID),
	})
}

func (h *Handler) writeChatError(c *gin.Context, err error) {
	var vErr *models.ValidationError
	switch {
	case errors.Is(err, worker.ErrThreadBusy):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "thread is busy, please retry"})
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error()})
	case models.Retryable(err):
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream service failed, please retry"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "chat failed"})
	}
}

func threadOrDefault(id string) string {
	if id == "" {
		return "1"
	}
	return id
}

// ingest accepts a multipart form: one or more "file" parts, each with an
// optional positional "source_url" field. Files are staged under fileBase
// and the staging directory is removed once indexing finishes.
func (h *Handler) ingest(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(maxUploadBytes); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}
	form := c.Request.MultipartForm
	files := form.File["file"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one file is required"})
		return
	}
	urls := form.Value["source_url"]

	stageDir, err := os.MkdirTemp(h.fileBase, "ingest-")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create staging directory failed"})
		return
	}
	defer os.RemoveAll(stageDir)

	sources := make(map[string]string, len(files))
	for i, file := range files {
		if file.Size > maxUploadBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large: " + file.Filename})
			return
		}
		name := filepath.Base(file.Filename)
		if strings.TrimSpace(name) == "" || name == "." || name == ".." {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file name"})
			return
		}
		destPath := filepath.Join(stageDir, name)
		if err := c.SaveUploadedFile(file, destPath); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "save file failed"})
			return
		}
		url := ""
		if i < len(urls) {
			url = urls[i]
		}
		sources[destPath] = url
	}

	count, err := h.ingester.Ingest(c.Request.Context(), sources)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ingest failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"files":  len(files),
		"chunks": count,
	})
}
