// Agent endpoints (module 005): destination-side tasks, koli scanning, and
// delivery confirmation.
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aml-logistics/aml-api/internal/sp"
)

// AgentDashboard returns the agent dashboard statistics.
// SP: sp_agent_dashboard_json(p_user_id)
func (h *Handlers) AgentDashboard(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	h.fetch(c, ModuleAgent, "sp_agent_dashboard_json", []any{p.Subject},
		"Data dashboard tidak ditemukan", "Data dashboard agent berhasil diambil")
}

type agentOrdersQuery struct {
	Status string `form:"status" binding:"omitempty,oneof=Open 'On Process Delivery' Delivered"`
	pageQuery
}

// AgentOrders lists delivery orders assigned to the agent.
// SP: sp_agent_order_json(p_user_id, p_status, p_page, p_limit)
func (h *Handlers) AgentOrders(c *gin.Context) {
	const mod = ModuleAgent
	p, ok := principal(c)
	if !ok {
		return
	}

	var q agentOrdersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		Bad(c, bindMsg(err), http.StatusBadRequest, mod, SpecificInvalid)
		return
	}
	q.defaults()

	h.fetch(c, mod, "sp_agent_order_json",
		[]any{p.Subject, nullable(q.Status), q.Page, q.Limit},
		"Data Order tidak ditemukan", "Daftar Order berhasil diambil")
}

// AgentTaskStart marks a delivery task as started.
// SP: sp_agent_task_start_json(p_user_id, p_task_id)
func (h *Handlers) AgentTaskStart(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	h.mutate(c, ModuleAgent, "sp_agent_task_start_json", []any{p.Subject, c.Param("id")},
		"Gagal memulai task", "Task berhasil dimulai")
}

// AgentTaskComplete marks a delivery task as completed.
// SP: sp_agent_task_complete_json(p_user_id, p_task_id)
func (h *Handlers) AgentTaskComplete(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	h.mutate(c, ModuleAgent, "sp_agent_task_complete_json", []any{p.Subject, c.Param("id")},
		"Gagal menyelesaikan task", "Task berhasil diselesaikan")
}

// AgentSTTKolis lists the kolis of one STT.
// SP: sp_agent_stt_kolis_json(p_stt_number)
func (h *Handlers) AgentSTTKolis(c *gin.Context) {
	const mod = ModuleAgent
	if _, ok := principal(c); !ok {
		return
	}

	res, ok := h.call(c, mod, "sp_agent_stt_kolis_json", c.Param("sttNumber"))
	if !ok {
		return
	}
	switch {
	case res.Kind == sp.KindEmpty, res.Code == "stt_not_found":
		NotFound(c, "STT tidak ditemukan", mod)
	case res.Kind == sp.KindSentinel:
		Bad(c, "Gagal mengambil data koli", http.StatusBadRequest, mod, SpecificInvalid)
	default:
		OK(c, res.Raw, "Daftar koli berhasil diambil", mod)
	}
}

// AgentScanKoliRequest is the JSON payload for POST /api/agent/scan/koli.
// Unlike the driver and loading scans, the STT alone identifies the shipment.
type AgentScanKoliRequest struct {
	SttNumber string `json:"sttNumber" binding:"required"`
	KoliID    string `json:"koliId" binding:"required"`
}

// AgentScanKoli records a koli scan at the destination agent.
// SP: sp_agent_scan_koli_json(p_user_id, p_stt_number, p_koli_id)
func (h *Handlers) AgentScanKoli(c *gin.Context) {
	const mod = ModuleAgent
	p, ok := principal(c)
	if !ok {
		return
	}

	var req AgentScanKoliRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Bad(c, bindMsg(err), http.StatusBadRequest, mod, SpecificInvalid)
		return
	}

	res, ok := h.call(c, mod, "sp_agent_scan_koli_json", p.Subject, req.SttNumber, req.KoliID)
	if !ok {
		return
	}
	switch {
	case res.Kind == sp.KindEmpty:
		NotFound(c, "STT tidak ditemukan", mod)
	case res.Code == "not_found":
		Bad(c, fmt.Sprintf("Koli %s tidak ditemukan di STT %s", req.KoliID, req.SttNumber),
			http.StatusBadRequest, mod, SpecificNotFound)
	case res.Code == "already_scanned":
		Bad(c, fmt.Sprintf("Koli %s di STT %s sudah pernah di-scan sebelumnya", req.KoliID, req.SttNumber),
			http.StatusBadRequest, mod, SpecificInvalid)
	case res.Kind == sp.KindSentinel:
		Bad(c, "Gagal scan koli", http.StatusBadRequest, mod, SpecificInvalid)
	default:
		var progress scanProgress
		if err := res.Decode(&progress); err != nil {
			ServerError(c, err, "Gagal scan koli", mod)
			return
		}
		OK(c, res.Raw, fmt.Sprintf("Koli %s berhasil di-scan. (%s/%s koli)",
			req.KoliID, progress.ScannedCount, progress.TotalCount), mod)
	}
}

// DeliveryConfirmRequest is the JSON payload for
// POST /api/agent/delivery/:sttnumber/confirm. The photo, when present, is
// forwarded to the procedure as-is.
type DeliveryConfirmRequest struct {
	Address       string `json:"address" binding:"required"`
	City          string `json:"city" binding:"required"`
	ConfirmedKoli int    `json:"confirmed_koli"`
	RecipientName string `json:"recipient_name"`
	DriverName    string `json:"driver_name"`
	Photo         string `json:"photo"`
}

// AgentDeliveryConfirm confirms the final delivery of an STT.
// SP: sp_agent_delivery_confirm_json(p_user_id, p_stt_number, p_confirmed_koli,
// p_photo, p_recipient_name, p_driver_name, p_address, p_city)
func (h *Handlers) AgentDeliveryConfirm(c *gin.Context) {
	const mod = ModuleAgent
	p, ok := principal(c)
	if !ok {
		return
	}

	var req DeliveryConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Bad(c, bindMsg(err), http.StatusBadRequest, mod, SpecificInvalid)
		return
	}

	res, ok := h.call(c, mod, "sp_agent_delivery_confirm_json",
		p.Subject, c.Param("sttnumber"), req.ConfirmedKoli, nullable(req.Photo),
		nullable(req.RecipientName), nullable(req.DriverName), req.Address, req.City)
	if !ok {
		return
	}
	switch {
	case res.Kind == sp.KindEmpty:
		Bad(c, "Gagal konfirmasi pickup", http.StatusBadRequest, mod, SpecificInvalid)
	case res.Code == "not_found":
		NotFound(c, "Stt Number tidak ditemukan", mod)
	case res.Code == "already_delivered":
		Bad(c, "Stt Number sudah dikonfirmasi sebelumnya", http.StatusBadRequest, mod, SpecificInvalid)
	case res.Code == "not_ready":
		Bad(c, "Stt tidak ada dalam task anda", http.StatusBadRequest, mod, SpecificInvalid)
	case res.Kind == sp.KindSentinel:
		Bad(c, "Gagal konfirmasi pickup", http.StatusBadRequest, mod, SpecificInvalid)
	default:
		OK(c, res.Raw, "Delivery berhasil dikonfirmasi", mod)
	}
}

type agentMonitoringQuery struct {
	Period string `form:"period" binding:"omitempty,oneof=today week month"`
	Date   string `form:"date"`
}

// AgentMonitoring returns delivery monitoring statistics for a period.
// SP: sp_agent_monitoring_json(p_user_id, p_period, p_date)
func (h *Handlers) AgentMonitoring(c *gin.Context) {
	const mod = ModuleAgent
	p, ok := principal(c)
	if !ok {
		return
	}

	var q agentMonitoringQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		Bad(c, bindMsg(err), http.StatusBadRequest, mod, SpecificInvalid)
		return
	}
	if q.Period == "" {
		q.Period = "today"
	}

	h.fetch(c, mod, "sp_agent_monitoring_json",
		[]any{p.Subject, q.Period, nullable(q.Date)},
		"Data monitoring tidak ditemukan", "Data monitoring berhasil diambil")
}

// AgentProfile returns the agent profile.
// SP: sp_agent_profile_get_json(p_user_id)
func (h *Handlers) AgentProfile(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	h.fetch(c, ModuleAgent, "sp_agent_profile_get_json", []any{p.Subject},
		"Profil tidak ditemukan", "Profil agent berhasil diambil")
}
