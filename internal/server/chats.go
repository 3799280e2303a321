package server

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/suyashnema0707/MedGraph-Navigator/internal/store"
	"github.com/suyashnema0707/MedGraph-Navigator/models"
)

// TurnEngine runs one conversational turn.
type TurnEngine interface {
	Turn(ctx context.Context, state models.ChatState, input string) models.ChatState
}

// ChatsHandler serves the chat session API.
type ChatsHandler struct {
	Store     store.Store
	Engine    TurnEngine
	UploadDir string
}

func (h *ChatsHandler) Register(g *echo.Group) {
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id/history", h.history)
	g.DELETE("/:id", h.remove)
	g.POST("/:id/message", h.message)
	g.POST("/:id/report", h.report)
}

func (h *ChatsHandler) create(c echo.Context) error {
	id := uuid.NewString()
	if err := h.Store.Save(c.Request().Context(), id, models.NewChatState(id)); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, models.ChatSummary{ID: id, Title: "New Conversation"})
}

func (h *ChatsHandler) list(c echo.Context) error {
	sums, err := h.Store.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if sums == nil {
		sums = []models.ChatSummary{}
	}
	return c.JSON(http.StatusOK, sums)
}

func (h *ChatsHandler) history(c echo.Context) error {
	state, err := h.Store.Load(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, state.Messages)
}

func (h *ChatsHandler) remove(c echo.Context) error {
	id := c.Param("id")
	existed, err := h.Store.Delete(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !existed {
		return c.JSON(http.StatusNotFound, map[string]interface{}{"success": false, "message": "Chat not found"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "message": fmt.Sprintf("Chat %s deleted", id)})
}

type messageRequest struct {
	Message string `json:"message"`
}

type turnResponse struct {
	Response string `json:"response"`
}

func (h *ChatsHandler) message(c echo.Context) error {
	id := c.Param("id")
	var req messageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}

	ctx := c.Request().Context()
	state, err := h.Store.Load(ctx, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	// A text turn never carries a pending image.
	state.ImagePath = ""

	state = h.Engine.Turn(ctx, state, req.Message)
	if err := h.Store.Save(ctx, id, state); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, turnResponse{Response: lastContent(state)})
}

var allowedExtensions = map[string]bool{".png": true, ".jpg": true, ".jpeg": true}

func (h *ChatsHandler) report(c echo.Context) error {
	id := c.Param("id")
	file, err := c.FormFile("report_image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "report_image file is required")
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid file")
	}

	dir := h.UploadDir
	if dir == "" {
		dir = "uploads"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	// filepath.Base strips any directory components a client smuggles in.
	dst := filepath.Join(dir, uuid.NewString()+"_"+filepath.Base(file.Filename))
	if err := saveUpload(file, dst); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	ctx := c.Request().Context()
	state, err := h.Store.Load(ctx, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	state.ImagePath = dst
	state.ExtractedText = ""

	state = h.Engine.Turn(ctx, state, "Uploaded report: "+filepath.Base(file.Filename))
	if err := h.Store.Save(ctx, id, state); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, turnResponse{Response: lastContent(state)})
}

func saveUpload(file *multipart.FileHeader, dst string) error {
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, src)
	return err
}

func lastContent(state models.ChatState) string {
	if len(state.Messages) == 0 {
		return ""
	}
	return state.Messages[len(state.Messages)-1].Content
}
