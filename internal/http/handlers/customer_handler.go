// Customer endpoints (module 002): dashboards, orders, pickup requests,
// invoices, and the profile. Creating a pickup request additionally fans a
// push notification out to every driver; that dispatch is detached and never
// changes the request outcome.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aml-logistics/aml-api/internal/http/middleware"
	"github.com/aml-logistics/aml-api/internal/sp"
)

// CustomerDashboard returns the customer dashboard statistics.
// SP: sp_customer_dashboard_json(p_user_id)
func (h *Handlers) CustomerDashboard(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	h.fetch(c, ModuleCustomer, "sp_customer_dashboard_json", []any{p.Subject},
		"Data dashboard tidak ditemukan", "Data dashboard berhasil diambil")
}

type customerOrdersQuery struct {
	Status    string `form:"status" binding:"omitempty,oneof=Processing 'On Delivery' Delivered"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	pageQuery
}

// CustomerOrders lists a customer's orders with tracking location.
// SP: sp_customer_orders_json(p_user_id, p_status, p_start_date, p_end_date, p_page, p_limit)
func (h *Handlers) CustomerOrders(c *gin.Context) {
	const mod = ModuleCustomer
	p, ok := principal(c)
	if !ok {
		return
	}

	var q customerOrdersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		Bad(c, bindMsg(err), http.StatusBadRequest, mod, SpecificInvalid)
		return
	}
	q.defaults()

	h.fetch(c, mod, "sp_customer_orders_json",
		[]any{p.Subject, nullable(q.Status), nullable(q.StartDate), nullable(q.EndDate), q.Page, q.Limit},
		"Data orders tidak ditemukan", "Daftar order berhasil diambil")
}

// CustomerOrderTracking returns tracking detail for one of the customer's STTs.
// SP: sp_customer_order_tracking_json(p_user_id, p_sttnumber)
func (h *Handlers) CustomerOrderTracking(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	stt := c.Param("sttNumber")
	h.fetch(c, ModuleCustomer, "sp_customer_order_tracking_json", []any{p.Subject, stt},
		"Data tracking tidak ditemukan", "Detail tracking berhasil diambil")
}

// CreatePickupRequest is the JSON payload for POST /api/customer/pickup.
// The whole body is forwarded to the procedure as a JSON document.
type CreatePickupRequest struct {
	CustomerName  string `json:"customer_name" binding:"required"`
	PickupAddress string `json:"pickup_address" binding:"required"`
	Item          struct {
		Koli     int     `json:"koli" binding:"required,min=1"`
		WeightKg float64 `json:"weight_kg" binding:"min=0"`
	} `json:"item" binding:"required"`
	Schedule struct {
		Date      string `json:"date" binding:"required"`
		TimeRange string `json:"time_range" binding:"required"`
	} `json:"schedule" binding:"required"`
	PIC struct {
		Name  string `json:"name" binding:"required"`
		Phone string `json:"phone" binding:"required"`
	} `json:"pic" binding:"required"`
	Destination struct {
		City    string `json:"city" binding:"required"`
		Address string `json:"address" binding:"required"`
	} `json:"destination" binding:"required"`
}

// CustomerCreatePickup creates a pickup request and notifies all drivers.
// SP: sp_customer_pickup_create_json(p_user_id, p_data_json)
func (h *Handlers) CustomerCreatePickup(c *gin.Context) {
	const mod = ModuleCustomer
	p, ok := principal(c)
	if !ok {
		return
	}

	var req CreatePickupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Bad(c, bindMsg(err), http.StatusBadRequest, mod, SpecificInvalid)
		return
	}
	body, err := json.Marshal(req)
	if err != nil {
		ServerError(c, err, "Internal server error", mod)
		return
	}

	res, ok := h.call(c, mod, "sp_customer_pickup_create_json", p.Subject, string(body))
	if !ok {
		return
	}
	if res.Kind != sp.KindOK {
		Bad(c, "Gagal membuat pickup request", http.StatusBadRequest, mod, SpecificInvalid)
		return
	}

	var created struct {
		ID       json.Number `json:"id"`
		PickupID json.Number `json:"pickup_id"`
	}
	_ = res.Decode(&created)
	pickupID := created.ID.String()
	if pickupID == "" {
		pickupID = created.PickupID.String()
	}

	h.notifyDriversNewPickup(c, pickupID, req.CustomerName, req.PickupAddress)

	Created(c, res.Raw, "Pickup request berhasil dibuat", mod)
}

// notifyDriversNewPickup fans out the new-pickup notification on a detached
// dispatch.
func (h *Handlers) notifyDriversNewPickup(c *gin.Context, pickupID, customerName, address string) {
	lg := middleware.LoggerFrom(c)
	h.dispatch(c, "push_new_pickup", func(ctx context.Context) {
		drivers, err := h.Drivers.DriverEmails(ctx)
		if err != nil {
			lg.Error().Err(err).Msg("push: driver lookup failed")
			return
		}
		h.Push.NotifyUsers(ctx, drivers,
			"Pickup Baru",
			"Ada request pickup baru dari "+customerName,
			map[string]any{
				"type":         "pickup_new",
				"pickupId":     pickupID,
				"customerName": customerName,
				"address":      address,
			})
	})
}

type customerPickupHistoryQuery struct {
	Status    string `form:"status" binding:"omitempty,oneof=waiting accept done canceled"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	pageQuery
}

// CustomerPickupHistory lists past pickup requests.
// SP: sp_customer_pickup_history_json(p_user_id, p_status, p_start_date, p_end_date, p_page, p_limit)
func (h *Handlers) CustomerPickupHistory(c *gin.Context) {
	const mod = ModuleCustomer
	p, ok := principal(c)
	if !ok {
		return
	}

	var q customerPickupHistoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		Bad(c, bindMsg(err), http.StatusBadRequest, mod, SpecificInvalid)
		return
	}
	q.defaults()

	h.fetch(c, mod, "sp_customer_pickup_history_json",
		[]any{p.Subject, nullable(q.Status), nullable(q.StartDate), nullable(q.EndDate), q.Page, q.Limit},
		"Data pickup history tidak ditemukan", "History pickup berhasil diambil")
}

// CustomerReports returns report statistics and chart data.
// SP: sp_customer_reports_json(p_user_id)
func (h *Handlers) CustomerReports(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	h.fetch(c, ModuleCustomer, "sp_customer_reports_json", []any{p.Subject},
		"Data laporan tidak ditemukan", "Success")
}

// CustomerPickupDetail returns one pickup request by id.
// SP: sp_customer_pickup_detail_json(p_user_id, p_pickup_id)
func (h *Handlers) CustomerPickupDetail(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	h.fetch(c, ModuleCustomer, "sp_customer_pickup_detail_json", []any{p.Subject, c.Param("id")},
		"Data pickup tidak ditemukan", "Detail pickup berhasil diambil")
}

type customerInvoiceQuery struct {
	Month  int    `form:"month" binding:"omitempty,min=1,max=12"`
	Year   int    `form:"year" binding:"omitempty,min=2000"`
	Status string `form:"status" binding:"omitempty,oneof=paid pending overdue"`
	pageQuery
}

// CustomerInvoices lists the customer's invoices.
// SP: sp_customer_invoice_list_json(p_user_id, p_month, p_year, p_status, p_page, p_limit)
func (h *Handlers) CustomerInvoices(c *gin.Context) {
	const mod = ModuleCustomer
	p, ok := principal(c)
	if !ok {
		return
	}

	var q customerInvoiceQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		Bad(c, bindMsg(err), http.StatusBadRequest, mod, SpecificInvalid)
		return
	}
	q.defaults()

	var month, year any
	if q.Month > 0 {
		month = q.Month
	}
	if q.Year > 0 {
		year = q.Year
	}

	h.fetch(c, mod, "sp_customer_invoice_list_json",
		[]any{p.Subject, month, year, nullable(q.Status), q.Page, q.Limit},
		"Data invoice tidak ditemukan", "Daftar invoice berhasil diambil")
}

type dateRangeQuery struct {
	DateFrom string `form:"dateFrom"`
	DateTo   string `form:"dateTo"`
	pageQuery
}

// CustomerOrderHistory lists completed orders.
// SP: sp_customer_order_history_json(p_user_id, p_date_from, p_date_to, p_page, p_limit)
func (h *Handlers) CustomerOrderHistory(c *gin.Context) {
	const mod = ModuleCustomer
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

	h.fetch(c, mod, "sp_customer_order_history_json",
		[]any{p.Subject, nullable(q.DateFrom), nullable(q.DateTo), q.Page, q.Limit},
		"Data history tidak ditemukan", "History orders berhasil diambil")
}

// CustomerProfile returns the customer profile, keyed by email.
// SP: sp_customer_profile_get_json(p_email)
func (h *Handlers) CustomerProfile(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	h.fetch(c, ModuleCustomer, "sp_customer_profile_get_json", []any{p.Email},
		"Profil tidak ditemukan", "Profil customer berhasil diambil")
}

// UpdateProfileRequest is the JSON payload for PUT /api/customer/profile.
// All fields are optional; empty strings are allowed and forwarded.
type UpdateProfileRequest struct {
	Name    *string `json:"name"`
	Email   *string `json:"email" binding:"omitempty,email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
	Company *string `json:"company"`
}

// CustomerUpdateProfile updates the customer profile.
// SP: sp_customer_profile_update_json(p_email, p_data_json)
func (h *Handlers) CustomerUpdateProfile(c *gin.Context) {
	const mod = ModuleCustomer
	p, ok := principal(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Bad(c, "Format email tidak valid", http.StatusBadRequest, mod, SpecificInvalid)
		return
	}
	body, err := json.Marshal(req)
	if err != nil {
		ServerError(c, err, "Internal server error", mod)
		return
	}

	h.mutate(c, mod, "sp_customer_profile_update_json", []any{p.Email, string(body)},
		"Gagal update profil", "Profil berhasil diupdate")
}
