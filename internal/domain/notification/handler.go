package notification

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"notifyhub/internal/middleware"
	"notifyhub/internal/pkg/response"
	"notifyhub/internal/pkg/validator"
)

// Handler handles HTTP requests for the notification domain
type Handler struct {
	service *Service
	log     logrus.FieldLogger
}

func NewHandler(service *Service, log logrus.FieldLogger) *Handler {
	return &Handler{service: service, log: log}
}

// ---- Push channels ----

// Stream opens an SSE channel for the caller and blocks until it closes.
func (h *Handler) Stream(c *gin.Context) {
	identity := mustIdentity(c)
	if identity == "" {
		return
	}

	PrepareSSE(c.Writer)
	ch := NewSSEChannel(identity, c.Writer)
	if err := h.service.NewSession(ch).Serve(c.Request.Context()); err != nil {
		h.log.WithError(err).WithField("identity", identity).Warn("sse channel ended with error")
	}
}

// WebSocket is Stream over a WebSocket connection.
func (h *Handler) WebSocket(c *gin.Context) {
	identity := mustIdentity(c)
	if identity == "" {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).WithField("identity", identity).Warn("websocket upgrade failed")
		return
	}

	ch := NewWSChannel(identity, conn, h.log)
	if err := h.service.NewSession(ch).Serve(c.Request.Context()); err != nil {
		h.log.WithError(err).WithField("identity", identity).Warn("websocket channel ended with error")
	}
}

// ---- Client endpoints ----

func (h *Handler) List(c *gin.Context) {
	identity := mustIdentity(c)
	if identity == "" {
		return
	}
	response.Success(c, http.StatusOK, h.service.List(identity))
}

func (h *Handler) ListUnread(c *gin.Context) {
	identity := mustIdentity(c)
	if identity == "" {
		return
	}
	unread := h.service.Unread(identity)
	response.Success(c, http.StatusOK, gin.H{
		"notifications": unread,
		"count":         len(unread),
	})
}

// MarkOpened handles POST /notifications/:id/open.
func (h *Handler) MarkOpened(c *gin.Context) {
	h.markOpened(c, c.Param("id"))
}

// MarkOpenedByBody handles POST /notifications/open with {"notificationId": ...}.
func (h *Handler) MarkOpenedByBody(c *gin.Context) {
	var req openRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "notificationId is required", errs)
		return
	}
	h.markOpened(c, req.NotificationID)
}

func (h *Handler) markOpened(c *gin.Context, id string) {
	n, err := h.service.MarkOpened(c.Request.Context(), middleware.Identity(c), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, n)
}

// Send pushes a direct message to one user. The message is stored even when
// the user is offline.
func (h *Handler) Send(c *gin.Context) {
	identity := mustIdentity(c)
	if identity == "" {
		return
	}

	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Target email and message required", errs)
		return
	}

	n, err := h.service.Send(c.Request.Context(), SendInput{
		Sender:      identity,
		TargetEmail: req.TargetEmail,
		Message:     req.Message,
		Type:        req.Type,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"message":      "Notification sent",
		"notification": n,
	})
}

// ---- Upstream endpoints ----

// Bulk fans one notification out to many users. Per-target failures are
// part of the report; only a malformed request is rejected.
func (h *Handler) Bulk(c *gin.Context) {
	var req bulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Missing required fields", errs)
		return
	}

	report, err := h.service.DispatchBulk(c.Request.Context(), req.toDomain())
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusAccepted, report)
}

// ---- Admin ----

func (h *Handler) ConnectedUsers(c *gin.Context) {
	ids := h.service.ConnectedIdentities()
	response.Success(c, http.StatusOK, gin.H{
		"connectedUsers": ids,
		"count":          len(ids),
	})
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrBadRequest):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, ErrUnauthenticated):
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Notification not found")
	case errors.Is(err, ErrNotConnected):
		response.Error(c, http.StatusNotFound, "USER_NOT_CONNECTED", "User not connected, notification stored for later")
	case errors.Is(err, ErrPushFailed):
		response.Error(c, http.StatusBadGateway, "PUSH_FAILED", "Notification stored but live delivery failed")
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}

func mustIdentity(c *gin.Context) string {
	identity := NormalizeIdentity(middleware.Identity(c))
	if identity == "" {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
	}
	return identity
}
