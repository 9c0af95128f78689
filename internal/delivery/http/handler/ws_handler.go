package handler

import (
	"net/http"

	"beauty-booking-api/internal/delivery/http/middleware"
	"beauty-booking-api/internal/realtime"
	"beauty-booking-api/pkg/response"
)

type WSHandler struct {
	hub *realtime.Hub
}

func NewWSHandler(hub *realtime.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

// Connect upgrades the authenticated request to a websocket for booking
// event pushes.
func (h *WSHandler) Connect(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	if err := h.hub.ServeWS(w, r, userID); err != nil {
		// Upgrade failures already wrote a response via the upgrader.
		return
	}
}
