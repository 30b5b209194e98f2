package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/soliton-oj/adminserver/internal/services"
	"github.com/soliton-oj/adminserver/types"
)

// AdminHandler serves the admin directory and dashboard aggregates.
type AdminHandler struct {
	adminService *services.AdminService
	statsService *services.StatsService
}

func NewAdminHandler(adminService *services.AdminService, statsService *services.StatsService) *AdminHandler {
	return &AdminHandler{adminService: adminService, statsService: statsService}
}

// AdminRouter registers admin routes on the given router. Every route
// requires a session.
func AdminRouter(
	r chi.Router,
	adminService *services.AdminService,
	statsService *services.StatsService,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewAdminHandler(adminService, statsService)

	r.Use(authMiddleware)
	r.Get("/list", handler.ListAdmins)
	r.Get("/stats", handler.Stats)
}

func (h *AdminHandler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := h.adminService.List(r.Context())
	if err != nil {
		writeInternalError(w, r, "list admins", err)
		return
	}
	if admins == nil {
		admins = []types.Admin{}
	}
	writeJSON(w, http.StatusOK, AdminListResponse{Admins: admins})
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsService.Stats(r.Context())
	if err != nil {
		writeInternalError(w, r, "load stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type AdminListResponse struct {
	Admins []types.Admin `json:"admins"`
}
