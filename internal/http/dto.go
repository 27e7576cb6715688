package http

import (
	"time"

	"maintrack/internal/core"
	"maintrack/internal/maintenance"
	"maintrack/internal/services"
)

type (
	loginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	accountRequest struct {
		Email    string `json:"email" validate:"required,email,max=254"`
		Password string `json:"password" validate:"required"`
		Confirm  string `json:"confirm_password" validate:"required"`
		Role     string `json:"role" validate:"required,oneof=admin manager tenant"`
		TenantID string `json:"tenant_id" validate:"required_if=Role tenant"`
	}

	tenantRequest struct {
		Name     string `json:"name" validate:"required,max=100"`
		Phone    string `json:"phone" validate:"max=30"`
		Email    string `json:"email" validate:"omitempty,email"`
		Status   string `json:"status" validate:"omitempty,oneof=active inactive"`
		Category string `json:"category" validate:"omitempty,oneof=tenant owner"`
	}

	paymentRequest struct {
		TenantID string `json:"tenant_id" validate:"required"`
		Amount   Amount `json:"amount"`
		Status   string `json:"status" validate:"omitempty,oneof=paid pending partial"`
	}

	particularRequest struct {
		Name        string `json:"name" validate:"max=100"`
		Price       Amount `json:"price"`
		Category    string `json:"category" validate:"omitempty,oneof=service product"`
		Description string `json:"description" validate:"max=500"`
		ReceiptURL  string `json:"receipt_url" validate:"omitempty,url"`
	}

	recordRequest struct {
		Month         int                 `json:"month" validate:"required"`
		Year          int                 `json:"year" validate:"required"`
		CollectorName string              `json:"collector_name" validate:"max=100"`
		Mode          string              `json:"mode" validate:"required,oneof=auto manual"`
		Payments      []paymentRequest    `json:"payments" validate:"max=50,dive"`
		Statuses      map[string]string   `json:"statuses" validate:"dive,oneof=paid pending partial"`
		Particulars   []particularRequest `json:"particulars" validate:"max=100,dive"`
	}
)

type (
	userResponse struct {
		ID       string    `json:"id"`
		Email    string    `json:"email"`
		Role     core.Role `json:"role"`
		TenantID string    `json:"tenant_id,omitempty"`
	}

	sessionResponse struct {
		Token     string       `json:"token"`
		ExpiresAt time.Time    `json:"expires_at"`
		User      userResponse `json:"user"`
	}

	tenantResponse struct {
		ID        string              `json:"id"`
		Name      string              `json:"name"`
		Phone     string              `json:"phone,omitempty"`
		Email     string              `json:"email,omitempty"`
		Status    core.TenantStatus   `json:"status"`
		Category  core.TenantCategory `json:"category"`
		CreatedAt time.Time           `json:"created_at"`
		UpdatedAt time.Time           `json:"updated_at"`
	}

	paymentResponse struct {
		ID         string             `json:"id,omitempty"`
		TenantID   string             `json:"tenant_id"`
		TenantName string             `json:"tenant_name"`
		Amount     float64            `json:"amount"`
		Status     core.PaymentStatus `json:"status"`
	}

	particularResponse struct {
		ID          string                  `json:"id,omitempty"`
		Name        string                  `json:"name"`
		Price       float64                 `json:"price"`
		Category    core.ParticularCategory `json:"category"`
		Description string                  `json:"description,omitempty"`
		ReceiptURL  string                  `json:"receipt_url,omitempty"`
	}

	recordResponse struct {
		ID            string               `json:"id,omitempty"`
		Month         int                  `json:"month"`
		Year          int                  `json:"year"`
		Period        string               `json:"period"`
		CollectorName string               `json:"collector_name"`
		GrandTotal    float64              `json:"grand_total"`
		Display       string               `json:"grand_total_display"`
		CreatedBy     string               `json:"created_by,omitempty"`
		CreatedAt     *time.Time           `json:"created_at,omitempty"`
		Payments      []paymentResponse    `json:"payments"`
		Particulars   []particularResponse `json:"particulars"`
	}

	trendPointResponse struct {
		Label string  `json:"label"`
		Total float64 `json:"total"`
	}

	tenantTotalResponse struct {
		TenantID string  `json:"tenant_id"`
		Name     string  `json:"name"`
		Total    float64 `json:"total"`
	}

	trendResponse struct {
		Direction core.TrendDirection `json:"direction"`
		Percent   *float64            `json:"percent"`
	}

	summaryResponse struct {
		TotalCollected float64        `json:"total_collected"`
		AverageMonthly float64        `json:"average_monthly"`
		Records        int            `json:"records"`
		Trend          *trendResponse `json:"trend"`
	}

	analyticsResponse struct {
		Trend        []trendPointResponse  `json:"trend"`
		TenantTotals []tenantTotalResponse `json:"tenant_totals"`
		Summary      summaryResponse       `json:"summary"`
		GeneratedAt  time.Time             `json:"generated_at"`
	}

	dashboardResponse struct {
		ActiveTenants  int              `json:"active_tenants"`
		TotalRecords   int              `json:"total_records"`
		TotalCollected float64          `json:"total_collected"`
		Latest         *recordResponse  `json:"latest"`
		Recent         []recordResponse `json:"recent"`
	}

	receiptResponse struct {
		URL  string `json:"url"`
		Name string `json:"name"`
		Size int64  `json:"size"`
	}
)

func (req tenantRequest) toTenant() core.Tenant {
	return core.Tenant{
		Name:     sanitizeInput(req.Name),
		Phone:    sanitizeInput(req.Phone),
		Email:    sanitizeInput(req.Email),
		Status:   core.TenantStatus(req.Status),
		Category: core.TenantCategory(req.Category),
	}
}

func (req recordRequest) toInput(createdBy string) services.RecordInput {
	in := services.RecordInput{
		Period:        core.Period{Month: req.Month, Year: req.Year},
		CollectorName: sanitizeInput(req.CollectorName),
		CreatedBy:     createdBy,
		Mode:          maintenance.Mode(req.Mode),
	}
	for _, p := range req.Payments {
		in.Payments = append(in.Payments, core.Payment{
			TenantID: p.TenantID,
			Amount:   float64(p.Amount),
			Status:   core.PaymentStatus(p.Status),
		})
	}
	if len(req.Statuses) > 0 {
		in.Statuses = make(map[string]core.PaymentStatus, len(req.Statuses))
		for id, st := range req.Statuses {
			in.Statuses[id] = core.PaymentStatus(st)
		}
	}
	for _, p := range req.Particulars {
		in.Particulars = append(in.Particulars, core.Particular{
			Name:        sanitizeInput(p.Name),
			Price:       float64(p.Price),
			Category:    core.ParticularCategory(p.Category),
			Description: sanitizeInput(p.Description),
			ReceiptURL:  p.ReceiptURL,
		})
	}
	return in
}

func toUserResponse(u core.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Role: u.Role, TenantID: u.TenantID}
}

func toTenantResponse(t core.Tenant) tenantResponse {
	return tenantResponse{
		ID: t.ID, Name: t.Name, Phone: t.Phone, Email: t.Email,
		Status: t.Status, Category: t.Category,
		CreatedAt: t.CreatedAt, UpdatedAt: t.UpdatedAt,
	}
}

func toRecordResponse(rec core.MaintenanceRecord) recordResponse {
	out := recordResponse{
		ID:            rec.ID,
		Month:         rec.Period.Month,
		Year:          rec.Period.Year,
		Period:        rec.Period.Label(),
		CollectorName: rec.CollectorName,
		GrandTotal:    rec.GrandTotal,
		Display:       core.FormatCurrency(rec.GrandTotal),
		CreatedBy:     rec.CreatedBy,
		Payments:      make([]paymentResponse, 0, len(rec.Payments)),
		Particulars:   make([]particularResponse, 0, len(rec.Particulars)),
	}
	if !rec.CreatedAt.IsZero() {
		created := rec.CreatedAt
		out.CreatedAt = &created
	}
	for _, p := range rec.Payments {
		out.Payments = append(out.Payments, paymentResponse{
			ID: p.ID, TenantID: p.TenantID, TenantName: p.TenantName, Amount: p.Amount, Status: p.Status,
		})
	}
	for _, p := range rec.Particulars {
		out.Particulars = append(out.Particulars, particularResponse{
			ID: p.ID, Name: p.Name, Price: p.Price, Category: p.Category,
			Description: p.Description, ReceiptURL: p.ReceiptURL,
		})
	}
	return out
}

func toRecordResponses(recs []core.MaintenanceRecord) []recordResponse {
	out := make([]recordResponse, 0, len(recs))
	for _, r := range recs {
		out = append(out, toRecordResponse(r))
	}
	return out
}

func toAnalyticsResponse(a services.Analytics) analyticsResponse {
	out := analyticsResponse{
		Trend:        make([]trendPointResponse, 0, len(a.Trend)),
		TenantTotals: make([]tenantTotalResponse, 0, len(a.TenantTotals)),
		Summary: summaryResponse{
			TotalCollected: a.Summary.TotalCollected,
			AverageMonthly: a.Summary.AverageMonthly,
			Records:        a.Summary.Records,
		},
		GeneratedAt: a.GeneratedAt,
	}
	for _, p := range a.Trend {
		out.Trend = append(out.Trend, trendPointResponse{Label: p.Label, Total: p.Total})
	}
	for _, t := range a.TenantTotals {
		out.TenantTotals = append(out.TenantTotals, tenantTotalResponse{TenantID: t.TenantID, Name: t.Name, Total: t.Total})
	}
	if tr := a.Summary.Trend; tr != nil {
		out.Summary.Trend = &trendResponse{Direction: tr.Direction}
		if tr.HasPercent {
			pct := tr.Percent
			out.Summary.Trend.Percent = &pct
		}
	}
	return out
}
