package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AnshRaj112/pashu-bazaar-backend/internal/middleware"
	"github.com/AnshRaj112/pashu-bazaar-backend/internal/models"
	"github.com/AnshRaj112/pashu-bazaar-backend/internal/services"
)

type NotificationService interface {
	Create(ctx context.Context, userID primitive.ObjectID, typ, message string) (*models.Notification, error)
	ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error)
	MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error)
}

// NotificationStream hands out live notification feeds per user.
type NotificationStream interface {
	Subscribe(userID string) (<-chan models.Notification, func())
}

// TokenAuthenticator validates a bearer token passed outside the
// Authorization header.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, authorization string) (*models.User, error)
	AuthenticateToken(ctx context.Context, raw string) (*models.User, error)
}

// OriginChecker decides whether a browser origin may open a socket.
type OriginChecker interface {
	Allows(origin string) bool
}

type NotificationHandler struct {
	notifications NotificationService
	stream        NotificationStream
	auth          TokenAuthenticator
	upgrader      websocket.Upgrader
	logger        *slog.Logger
}

func NewNotificationHandler(notifications NotificationService, stream NotificationStream, auth TokenAuthenticator, origins OriginChecker, logger *slog.Logger) *NotificationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationHandler{
		notifications: notifications,
		stream:        stream,
		auth:          auth,
		logger:        logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return origins == nil || origins.Allows(r.Header.Get("Origin"))
			},
		},
	}
}

type CreateNotificationRequest struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type NotificationsResponse struct {
	OK            bool                  `json:"ok"`
	Notifications []models.Notification `json:"notifications"`
}

type NotificationResponse struct {
	OK           bool                 `json:"ok"`
	Notification *models.Notification `json:"notification"`
}

type MarkAllReadResponse struct {
	OK       bool  `json:"ok"`
	Modified int64 `json:"modified"`
}

// Me handles GET /api/notifications/me.
func (h *NotificationHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, services.ErrUnauthenticated)
		return
	}
	list, err := h.notifications.ListForUser(r.Context(), id.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NotificationsResponse{OK: true, Notifications: list})
}

// Create handles POST /api/notifications. The owner is always the caller;
// a user id in the body is ignored.
func (h *NotificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, services.ErrUnauthenticated)
		return
	}
	var req CreateNotificationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	n, err := h.notifications.Create(r.Context(), id.UserID, req.Type, req.Message)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, NotificationResponse{OK: true, Notification: n})
}

// MarkAllRead handles POST /api/notifications/mark-all-read.
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, services.ErrUnauthenticated)
		return
	}
	modified, err := h.notifications.MarkAllRead(r.Context(), id.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MarkAllReadResponse{OK: true, Modified: modified})
}

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 50 * time.Second
)

type streamEvent struct {
	Type         string               `json:"type"`
	Notification *models.Notification `json:"notification,omitempty"`
}

// Stream handles GET /api/notifications/ws. Browsers cannot set headers on
// a WebSocket handshake, so the token may also come as ?token=.
func (h *NotificationHandler) Stream(w http.ResponseWriter, r *http.Request) {
	var (
		user *models.User
		err  error
	)
	if header := r.Header.Get("Authorization"); header != "" {
		user, err = h.auth.Authenticate(r.Context(), header)
	} else {
		user, err = h.auth.AuthenticateToken(r.Context(), strings.TrimSpace(r.URL.Query().Get("token")))
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	userID := user.ID.Hex()
	events, unsubscribe := h.stream.Subscribe(userID)
	defer unsubscribe()
	h.logger.Debug("notification stream opened", slog.String("user_id", userID))

	// the read side only exists to notice pongs and the client going away
	closed := make(chan struct{})
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := conn.WriteJSON(streamEvent{Type: "ready"}); err != nil {
		return
	}

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case n, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(streamEvent{Type: "notification", Notification: &n}); err != nil {
				h.logger.Debug("notification stream write failed",
					slog.String("user_id", userID),
					slog.String("error", err.Error()),
				)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}
