// Driver endpoints (module 003): pickups, packages, koli scanning, STT holds,
// location updates, and notifications.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aml-logistics/aml-api/internal/http/middleware"
	"github.com/aml-logistics/aml-api/internal/sp"
	"github.com/aml-logistics/aml-api/internal/upload"
)

// DriverDashboard returns the driver dashboard statistics.
// SP: sp_driver_dashboard_json(p_user_id)
func (h *Handlers) DriverDashboard(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	h.fetch(c, ModuleDriver, "sp_driver_dashboard_json", []any{p.Subject},
		"Data dashboard tidak ditemukan", "Data dashboard driver berhasil diambil")
}

type driverPickupListQuery struct {
	Status string `form:"status" binding:"omitempty,oneof=pending in_progress done"`
	pageQuery
}

// DriverPickupList lists pickup requests visible to the driver.
// SP: sp_driver_pickup_list_json(p_user_id, p_status, p_page, p_limit)
func (h *Handlers) DriverPickupList(c *gin.Context) {
	const mod = ModuleDriver
	p, ok := principal(c)
	if !ok {
		return
	}

	var q driverPickupListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		Bad(c, bindMsg(err), http.StatusBadRequest, mod, SpecificInvalid)
		return
	}
	q.defaults()

	h.fetch(c, mod, "sp_driver_pickup_list_json",
		[]any{p.Subject, nullable(q.Status), q.Page, q.Limit},
		"Data pickup tidak ditemukan", "Daftar pickup request berhasil diambil")
}

// DriverPickupDetail returns one pickup request.
// SP: sp_driver_pickup_detail_json(p_user_id, p_pickup_id)
func (h *Handlers) DriverPickupDetail(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	h.fetch(c, ModuleDriver, "sp_driver_pickup_detail_json", []any{p.Subject, c.Param("id")},
		"Data pickup tidak ditemukan", "Detail pickup berhasil diambil")
}

// DriverPickupAccept claims a pickup request for the driver. Only one driver
// wins; the procedure reports already_accepted for the rest.
// SP: sp_driver_pickup_accept_json(p_user_id, p_pickup_id, p_email_id)
func (h *Handlers) DriverPickupAccept(c *gin.Context) {
	const mod = ModuleDriver
	p, ok := principal(c)
	if !ok {
		return
	}

	res, ok := h.call(c, mod, "sp_driver_pickup_accept_json", p.Subject, c.Param("id"), p.Email)
	if !ok {
		return
	}
	switch {
	case res.Kind == sp.KindEmpty:
		Bad(c, "Gagal menerima pickup request", http.StatusBadRequest, mod, SpecificInvalid)
	case res.Code == "not_found":
		NotFound(c, "Pickup request tidak ditemukan", mod)
	case res.Code == "already_accepted":
		Bad(c, "Pickup sudah diambil driver lain", http.StatusBadRequest, mod, SpecificInvalid)
	case res.Kind == sp.KindSentinel:
		Bad(c, "Gagal menerima pickup request", http.StatusBadRequest, mod, SpecificInvalid)
	default:
		OK(c, res.Raw, "Pickup request berhasil diterima", mod)
	}
}

// PickupStatusRequest is the JSON payload for PUT /api/driver/pickup/:id/status.
type PickupStatusRequest struct {
	Status string `json:"status" binding:"required"`
	ETA    string `json:"eta"`
}

// DriverPickupStatus updates the status of an accepted pickup.
// SP: sp_driver_pickup_status_update_json(p_user_id, p_pickup_id, p_status, p_eta)
func (h *Handlers) DriverPickupStatus(c *gin.Context) {
	const mod = ModuleDriver
	p, ok := principal(c)
	if !ok {
		return
	}

	var req PickupStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Bad(c, bindMsg(err), http.StatusBadRequest, mod, SpecificInvalid)
		return
	}

	h.mutate(c, mod, "sp_driver_pickup_status_update_json",
		[]any{p.Subject, c.Param("id"), req.Status, nullable(req.ETA)},
		"Gagal update status pickup", "Status pickup berhasil diupdate")
}

// PickupConfirmRequest is the JSON payload for POST /api/driver/pickup/:id/confirm.
// Photo, when present, is a base64 data URI.
type PickupConfirmRequest struct {
	ConfirmedKoli int    `json:"confirmed_koli"`
	DriverName    string `json:"driver_name"`
	Photo         string `json:"photo"`
}

// DriverPickupConfirm confirms a pickup with the counted koli and an optional
// photo. The photo is written to disk before the procedure runs and removed
// again whenever the procedure does not accept the confirmation.
// SP: sp_driver_pickup_confirm_json(p_user_id, p_pickup_id, p_confirmed_koli, p_photo_url, p_driver_name)
func (h *Handlers) DriverPickupConfirm(c *gin.Context) {
	const mod = ModuleDriver
	p, ok := principal(c)
	if !ok {
		return
	}

	var req PickupConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Bad(c, bindMsg(err), http.StatusBadRequest, mod, SpecificInvalid)
		return
	}

	var photo upload.Photo
	var photoURL any
	if req.Photo != "" {
		saved, err := h.Photos.SavePickupPhoto(req.Photo)
		if errors.Is(err, upload.ErrInvalidFormat) {
			Bad(c, "Format photo base64 tidak valid", http.StatusBadRequest, mod, SpecificInvalid)
			return
		}
		if err != nil {
			ServerError(c, err, "Gagal menyimpan foto", mod)
			return
		}
		photo = saved
		photoURL = saved.PublicURL
	}

	discard := func() {
		if photo.Path == "" {
			return
		}
		if err := h.Photos.Remove(photo); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Str("path", photo.Path).Msg("photo cleanup failed")
		}
	}

	res, err := h.SP.Call(c.Request.Context(), "sp_driver_pickup_confirm_json",
		p.Subject, c.Param("id"), req.ConfirmedKoli, photoURL, nullable(req.DriverName))
	if err != nil {
		middleware.ObserveSPCall("sp_driver_pickup_confirm_json", "error")
		discard()
		ServerError(c, err, "Internal server error", mod)
		return
	}
	middleware.ObserveSPCall("sp_driver_pickup_confirm_json", outcomeLabel(res.Kind))

	switch {
	case res.Kind == sp.KindEmpty:
		discard()
		Bad(c, "Gagal konfirmasi pickup", http.StatusBadRequest, mod, SpecificInvalid)
	case res.Code == "not_found":
		discard()
		NotFound(c, "Pickup request tidak ditemukan", mod)
	case res.Code == "already_confirmed":
		discard()
		Bad(c, "Pickup sudah dikonfirmasi sebelumnya", http.StatusBadRequest, mod, SpecificInvalid)
	case res.Code == "not_accepted":
		discard()
		Bad(c, "Pickup belum di-accept, tidak bisa dikonfirmasi", http.StatusBadRequest, mod, SpecificInvalid)
	case res.Kind == sp.KindSentinel:
		discard()
		Bad(c, "Gagal konfirmasi pickup", http.StatusBadRequest, mod, SpecificInvalid)
	default:
		OK(c, res.Raw, "Pickup berhasil dikonfirmasi", mod)
	}
}

type driverPackagesQuery struct {
	Status string `form:"status" binding:"omitempty,oneof=pending in_progress completed"`
	pageQuery
}

// DriverPackages lists the driver's trips with tracking data.
// SP: sp_driver_packages_json(p_user_id, p_status, p_page, p_limit)
func (h *Handlers) DriverPackages(c *gin.Context) {
	const mod = ModuleDriver
	p, ok := principal(c)
	if !ok {
		return
	}

	var q driverPackagesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		Bad(c, bindMsg(err), http.StatusBadRequest, mod, SpecificInvalid)
		return
	}
	q.defaults()

	h.fetch(c, mod, "sp_driver_packages_json",
		[]any{p.Subject, nullable(q.Status), q.Page, q.Limit},
		"Data packages tidak ditemukan", "Daftar packages/trips berhasil diambil")
}

// ScanKoliRequest is the shared JSON payload for the koli scan endpoints.
type ScanKoliRequest struct {
	TripID     string `json:"tripId" binding:"required"`
	ManifestID string `json:"manifestId" binding:"required"`
	SttNumber  string `json:"sttNumber" binding:"required"`
	KoliID     string `json:"koliId" binding:"required"`
}

// scanProgress is the payload shape every scan procedure returns on success.
type scanProgress struct {
	ScannedCount json.Number `json:"scannedCount"`
	TotalCount   json.Number `json:"totalCount"`
}

// scanKoli implements the shared scan contract for driver and loading: the
// success message interpolates the koli id and the scan progress counters
// reported by the procedure.
func (h *Handlers) scanKoli(c *gin.Context, mod, proc string) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req ScanKoliRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Bad(c, bindMsg(err), http.StatusBadRequest, mod, SpecificInvalid)
		return
	}

	res, ok := h.call(c, mod, proc, p.Subject, req.TripID, req.ManifestID, req.SttNumber, req.KoliID)
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

// DriverScanKoli records a koli scan against a trip manifest.
// SP: sp_driver_scan_koli_json(p_user_id, p_trip_id, p_manifest_id, p_stt_number, p_koli_id)
func (h *Handlers) DriverScanKoli(c *gin.Context) {
	h.scanKoli(c, ModuleDriver, "sp_driver_scan_koli_json")
}

// HoldSTTRequest is the JSON payload for POST /api/driver/scan/stt/hold.
type HoldSTTRequest struct {
	TripID    string `json:"trip_id" binding:"required"`
	SttNumber string `json:"stt_number" binding:"required"`
	Reason    string `json:"reason" binding:"required"`
}

// DriverHoldSTT places an active STT on hold with a reason.
// SP: sp_driver_stt_hold_json(p_user_id, p_trip_id, p_stt_number, p_reason)
func (h *Handlers) DriverHoldSTT(c *gin.Context) {
	const mod = ModuleDriver
	p, ok := principal(c)
	if !ok {
		return
	}

	var req HoldSTTRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Bad(c, bindMsg(err), http.StatusBadRequest, mod, SpecificInvalid)
		return
	}

	res, ok := h.call(c, mod, "sp_driver_stt_hold_json", p.Subject, req.TripID, req.SttNumber, req.Reason)
	if !ok {
		return
	}
	switch {
	case res.Code == "not_found":
		Bad(c, fmt.Sprintf("STT %s tidak ditemukan", req.SttNumber), http.StatusBadRequest, mod, SpecificNotFound)
	case res.Code == "already_hold":
		Bad(c, fmt.Sprintf("STT %s sudah pernah di-hold sebelumnya", req.SttNumber), http.StatusBadRequest, mod, SpecificInvalid)
	case res.Kind == sp.KindEmpty, res.Kind == sp.KindSentinel:
		Bad(c, "Gagal hold STT", http.StatusBadRequest, mod, SpecificInvalid)
	default:
		OK(c, res.Raw, fmt.Sprintf("STT %s telah di-hold.", req.SttNumber), mod)
	}
}

// LocationUpdateRequest is the JSON payload for POST /api/driver/location/update.
type LocationUpdateRequest struct {
	TripID    string   `json:"trip_id" binding:"required"`
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

// DriverLocationUpdate records the driver's position for a trip. The
// coordinates are reverse-geocoded best effort so the place shows up in the
// logs; geocoding failures never block the update.
// SP: sp_driver_location_update_json(p_user_id, p_trip_id, p_latitude, p_longitude)
func (h *Handlers) DriverLocationUpdate(c *gin.Context) {
	const mod = ModuleDriver
	p, ok := principal(c)
	if !ok {
		return
	}

	var req LocationUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Bad(c, bindMsg(err), http.StatusBadRequest, mod, SpecificInvalid)
		return
	}

	loc := h.Geo.Reverse(c.Request.Context(), *req.Latitude, *req.Longitude)
	middleware.LoggerFrom(c).Info().
		Str("trip_id", req.TripID).
		Str("city", loc.CityName).
		Str("region", loc.Region).
		Msg("driver location update")

	h.mutate(c, mod, "sp_driver_location_update_json",
		[]any{p.Subject, req.TripID, *req.Latitude, *req.Longitude},
		"Gagal update location", "Location berhasil diupdate")
}

type driverNotificationsQuery struct {
	IsRead *bool  `form:"is_read"`
	Type   string `form:"type" binding:"omitempty,oneof=pickup_new pickup_assigned pickup_reminder order_update system"`
	pageQuery
}

// DriverNotifications lists the driver's notifications.
// SP: sp_driver_notifications_json(p_user_id, p_is_read, p_type, p_page, p_limit)
func (h *Handlers) DriverNotifications(c *gin.Context) {
	const mod = ModuleDriver
	p, ok := principal(c)
	if !ok {
		return
	}

	var q driverNotificationsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		Bad(c, bindMsg(err), http.StatusBadRequest, mod, SpecificInvalid)
		return
	}
	q.defaults()

	var isRead any
	if q.IsRead != nil {
		isRead = *q.IsRead
	}

	h.fetch(c, mod, "sp_driver_notifications_json",
		[]any{p.Subject, isRead, nullable(q.Type), q.Page, q.Limit},
		"Data notifikasi tidak ditemukan", "Daftar notifikasi berhasil diambil")
}

// DriverNotificationRead marks one notification read.
// SP: sp_driver_notification_read_json(p_user_id, p_notification_id)
func (h *Handlers) DriverNotificationRead(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	h.mutate(c, ModuleDriver, "sp_driver_notification_read_json", []any{p.Subject, c.Param("id")},
		"Gagal update notifikasi", "Notifikasi berhasil ditandai sebagai sudah dibaca")
}

// DriverNotificationReadAll marks all notifications read.
// SP: sp_driver_notification_read_all_json(p_user_id)
func (h *Handlers) DriverNotificationReadAll(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	h.mutate(c, ModuleDriver, "sp_driver_notification_read_all_json", []any{p.Subject},
		"Gagal update notifikasi", "Semua notifikasi berhasil ditandai sebagai sudah dibaca")
}

// DriverProfile returns the driver profile, keyed by email.
// SP: sp_driver_profile_get_json(p_email)
func (h *Handlers) DriverProfile(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	h.fetch(c, ModuleDriver, "sp_driver_profile_get_json", []any{p.Email},
		"Profil tidak ditemukan", "Profil driver berhasil diambil")
}
