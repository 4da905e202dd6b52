// Shipment tracking (module 006) and device registration.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// TrackingDetail returns the tracking timeline for one STT.
// SP: sp_tracking_detail_json(p_stt_number)
func (h *Handlers) TrackingDetail(c *gin.Context) {
	if _, ok := principal(c); !ok {
		return
	}
	h.fetch(c, ModuleTracking, "sp_tracking_detail_json", []any{c.Param("sttNumber")},
		"Data tracking tidak ditemukan", "Detail tracking berhasil diambil")
}

// DeviceRegisterRequest is the JSON payload for POST /api/device/register.
type DeviceRegisterRequest struct {
	Token    string `json:"token" binding:"required"`
	Platform string `json:"platform" binding:"required,oneof=ios android"`
}

// DeviceRegister stores a push token for the authenticated user. Device
// registration reports under the auth module code.
// SP: sp_device_register_json(p_email, p_token, p_platform)
func (h *Handlers) DeviceRegister(c *gin.Context) {
	const mod = ModuleAuth
	p, ok := principal(c)
	if !ok {
		return
	}

	var req DeviceRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Bad(c, bindMsg(err), http.StatusBadRequest, mod, SpecificInvalid)
		return
	}

	h.mutate(c, mod, "sp_device_register_json", []any{p.Email, req.Token, req.Platform},
		"Gagal mendaftarkan device token", "Device token berhasil didaftarkan")
}
