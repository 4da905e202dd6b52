// Loading-staff endpoints (module 004): warehouse-side trips, manifests, and
// koli scanning.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aml-logistics/aml-api/internal/sp"
)

// LoadingDashboard returns the loading dashboard statistics.
// SP: sp_loading_dashboard_json(p_user_id)
func (h *Handlers) LoadingDashboard(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	h.fetch(c, ModuleLoading, "sp_loading_dashboard_json", []any{p.Subject},
		"Data dashboard tidak ditemukan", "Data dashboard loading berhasil diambil")
}

type loadingOrdersQuery struct {
	Status string `form:"status" binding:"omitempty,oneof=pending in_progress completed"`
	pageQuery
}

// LoadingOrders lists trips/orders for loading; an unset status filter means
// "Open" trips.
// SP: sp_loading_orders_json(p_user_id, p_status, p_page, p_limit)
func (h *Handlers) LoadingOrders(c *gin.Context) {
	const mod = ModuleLoading
	p, ok := principal(c)
	if !ok {
		return
	}

	var q loadingOrdersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		Bad(c, bindMsg(err), http.StatusBadRequest, mod, SpecificInvalid)
		return
	}
	q.defaults()
	if q.Status == "" {
		q.Status = "Open"
	}

	h.fetch(c, mod, "sp_loading_orders_json",
		[]any{p.Subject, q.Status, q.Page, q.Limit},
		"Data orders tidak ditemukan", "Daftar trips/orders berhasil diambil")
}

type manifestSTTsQuery struct {
	Search string `form:"search"`
	Page   int    `form:"page" binding:"omitempty,min=1"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

// LoadingManifestSTTs lists the STTs of one manifest.
// SP: sp_loading_manifest_stts_json(p_manifest_id, p_search, p_page, p_limit)
func (h *Handlers) LoadingManifestSTTs(c *gin.Context) {
	const mod = ModuleLoading
	if _, ok := principal(c); !ok {
		return
	}

	var q manifestSTTsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		Bad(c, bindMsg(err), http.StatusBadRequest, mod, SpecificInvalid)
		return
	}
	if q.Page == 0 {
		q.Page = 1
	}
	// Manifests are scanned screen-by-screen, so the default page is larger
	// than elsewhere.
	if q.Limit == 0 {
		q.Limit = 50
	}

	res, ok := h.call(c, mod, "sp_loading_manifest_stts_json",
		c.Param("manifestId"), nullable(q.Search), q.Page, q.Limit)
	if !ok {
		return
	}
	switch {
	case res.Kind == sp.KindEmpty, res.Code == "manifest_not_found":
		NotFound(c, "Manifest tidak ditemukan", mod)
	case res.Code == "invalid_trip":
		Bad(c, "TripId tidak valid atau manifest tidak termasuk dalam trip tersebut",
			http.StatusBadRequest, mod, SpecificInvalid)
	case res.Kind == sp.KindSentinel:
		Bad(c, "Gagal mengambil data STT", http.StatusBadRequest, mod, SpecificInvalid)
	default:
		OK(c, res.Raw, "Daftar STT berhasil diambil", mod)
	}
}

type sttKolisQuery struct {
	TripID     string `form:"tripId" binding:"required"`
	ManifestID string `form:"manifestId" binding:"required"`
}

// LoadingSTTKolis lists the kolis of one STT within a trip manifest.
// SP: sp_loading_stt_kolis_json(p_stt_number, p_trip_id, p_manifest_id)
func (h *Handlers) LoadingSTTKolis(c *gin.Context) {
	const mod = ModuleLoading
	if _, ok := principal(c); !ok {
		return
	}

	var q sttKolisQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		Bad(c, bindMsg(err), http.StatusBadRequest, mod, SpecificInvalid)
		return
	}

	res, ok := h.call(c, mod, "sp_loading_stt_kolis_json",
		c.Param("sttNumber"), q.TripID, q.ManifestID)
	if !ok {
		return
	}
	switch {
	case res.Kind == sp.KindEmpty, res.Code == "stt_not_found":
		NotFound(c, "STT tidak ditemukan", mod)
	case res.Code == "invalid_params":
		Bad(c, "TripId atau ManifestId tidak valid", http.StatusBadRequest, mod, SpecificInvalid)
	case res.Kind == sp.KindSentinel:
		Bad(c, "Gagal mengambil data koli", http.StatusBadRequest, mod, SpecificInvalid)
	default:
		OK(c, res.Raw, "Daftar koli berhasil diambil", mod)
	}
}

// LoadingHistory lists completed trips in a date range.
// SP: sp_loading_history_json(p_user_id, p_date_from, p_date_to, p_page, p_limit)
func (h *Handlers) LoadingHistory(c *gin.Context) {
	const mod = ModuleLoading
	p, ok := principal(c)
	if !ok {
		return
	}

	var q dateRangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		Bad(c, bindMsg(err), http.StatusBadRequest, mod, SpecificInvalid)
		return
	}
	q.defaults()

	h.fetch(c, mod, "sp_loading_history_json",
		[]any{p.Subject, nullable(q.DateFrom), nullable(q.DateTo), q.Page, q.Limit},
		"Data history tidak ditemukan", "History trips berhasil diambil")
}

// LoadingScanKoli records a koli scan at the warehouse; same contract as the
// driver scan.
// SP: sp_loading_scan_koli_json(p_user_id, p_trip_id, p_manifest_id, p_stt_number, p_koli_id)
func (h *Handlers) LoadingScanKoli(c *gin.Context) {
	h.scanKoli(c, ModuleLoading, "sp_loading_scan_koli_json")
}

// LoadingProfile returns the loading-staff profile, keyed by email.
// SP: sp_loading_profile_get_json(p_email)
func (h *Handlers) LoadingProfile(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	h.fetch(c, ModuleLoading, "sp_loading_profile_get_json", []any{p.Email},
		"Profil tidak ditemukan", "Profil loading staff berhasil diambil")
}
