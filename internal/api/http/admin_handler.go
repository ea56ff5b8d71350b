package http

import (
	"encoding/json"
	"net/http"

	"wheelshare-backend/internal/service"
)

// AdminHandler serves the commission split configuration. Admin authentication
// happens upstream; this handler only validates and stores the split.
type AdminHandler struct {
	admin service.AdminService
}

func NewAdminHandler(admin service.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

func (h *AdminHandler) GetChargeConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.admin.GetChargeConfig(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

type updateChargeConfigRequest struct {
	PlatformPercent float64 `json:"platform_percent"`
	HostPercent     float64 `json:"host_percent"`
	AdminPercent    float64 `json:"admin_percent"`
}

func (h *AdminHandler) UpdateChargeConfig(w http.ResponseWriter, r *http.Request) {
	var req updateChargeConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	cfg, err := h.admin.UpdateChargeConfig(r.Context(), req.PlatformPercent, req.HostPercent, req.AdminPercent)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}
