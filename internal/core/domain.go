package core

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// MaxActiveTenants is the system-wide cap on active tenant-category rows.
// Owners do not count.
const MaxActiveTenants = 5

const (
	StatusActive   TenantStatus = "active"
	StatusInactive TenantStatus = "inactive"

	CategoryTenant TenantCategory = "tenant"
	CategoryOwner  TenantCategory = "owner"

	ParticularService ParticularCategory = "service"
	ParticularProduct ParticularCategory = "product"

	PaymentPaid    PaymentStatus = "paid"
	PaymentPending PaymentStatus = "pending"
	PaymentPartial PaymentStatus = "partial"

	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleTenant  Role = "tenant"
)

type (
	TenantStatus       string
	TenantCategory     string
	ParticularCategory string
	PaymentStatus      string
	Role               string

	// Period identifies one maintenance cycle.
	Period struct {
		Month int
		Year  int
	}

	Tenant struct {
		ID        string
		Name      string
		Phone     string // optional
		Email     string // optional
		Status    TenantStatus
		Category  TenantCategory
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	// Particular is one itemized expense line of a record.
	Particular struct {
		ID          string
		RecordID    string
		Name        string
		Price       float64
		Category    ParticularCategory
		Description string
		ReceiptURL  string
	}

	Payment struct {
		ID         string
		RecordID   string
		TenantID   string
		TenantName string // filled on read
		Amount     float64
		Status     PaymentStatus
	}

	MaintenanceRecord struct {
		ID            string
		Period        Period
		CollectorName string
		GrandTotal    float64 // cached at creation
		CreatedBy     string
		CreatedAt     time.Time
		Payments      []Payment
		Particulars   []Particular
	}

	User struct {
		ID           string
		Email        string
		PasswordHash string
		Role         Role
		TenantID     string // set for RoleTenant
		CreatedAt    time.Time
	}
)

var (
	ErrInvalidMonth        = errors.New("invalid month")
	ErrInvalidYear         = errors.New("invalid year")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrEmptyName           = errors.New("empty name")
	ErrEmptyCollector      = errors.New("empty collector name")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrInvalidCategory     = errors.New("invalid category")
	ErrInvalidRole         = errors.New("invalid role")
	ErrInvalidEmail        = errors.New("invalid email")
	ErrNotFound            = errors.New("not found")
	ErrTenantCapReached    = errors.New("maximum 5 active tenants allowed")
	ErrDuplicateEmail      = errors.New("email already registered")
	ErrPasswordTooShort    = errors.New("password must be at least 6 characters")
	ErrPasswordMismatch    = errors.New("passwords do not match")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrNoTenants           = errors.New("no active tenants to split between")
	ErrDuplicatePayment    = errors.New("more than one payment for the same tenant")
	ErrNameTooLong         = errors.New("name too long (max 100 characters)")
	ErrUnknownTenant       = errors.New("payment references an unknown tenant")
	ErrAlreadyBootstrapped = errors.New("an account already exists")
)

var monthAbbrev = [...]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// Label renders the period as "Jan 2024".
func (p Period) Label() string {
	if p.Month < 1 || p.Month > 12 {
		return "? " + strconv.Itoa(p.Year)
	}
	return monthAbbrev[p.Month-1] + " " + strconv.Itoa(p.Year)
}

func (p Period) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return ErrInvalidMonth
	}
	if p.Year < 2000 || p.Year > 2100 {
		return ErrInvalidYear
	}
	return nil
}

// Before reports whether p is chronologically earlier than o.
func (p Period) Before(o Period) bool {
	if p.Year != o.Year {
		return p.Year < o.Year
	}
	return p.Month < o.Month
}

// CurrentPeriod returns the period containing t.
func CurrentPeriod(t time.Time) Period {
	return Period{Month: int(t.Month()), Year: t.Year()}
}

func (s TenantStatus) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

func (c TenantCategory) Valid() bool {
	return c == CategoryTenant || c == CategoryOwner
}

func (c ParticularCategory) Valid() bool {
	return c == ParticularService || c == ParticularProduct
}

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPaid, PaymentPending, PaymentPartial:
		return true
	}
	return false
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleTenant:
		return true
	}
	return false
}

// CountsTowardCap is true for active, non-owner tenants: the ones that
// receive an auto-split share and are limited by MaxActiveTenants.
func (t Tenant) CountsTowardCap() bool {
	return t.Status == StatusActive && t.Category == CategoryTenant
}

func (t Tenant) Validate() error {
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return ErrEmptyName
	}
	if len(name) > 100 {
		return ErrNameTooLong
	}
	if !t.Status.Valid() {
		return ErrInvalidStatus
	}
	if !t.Category.Valid() {
		return ErrInvalidCategory
	}
	if t.Email != "" && !strings.Contains(t.Email, "@") {
		return ErrInvalidEmail
	}
	return nil
}

func (p Particular) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if p.Price < 0 {
		return ErrInvalidAmount
	}
	if !p.Category.Valid() {
		return ErrInvalidCategory
	}
	return nil
}

func (p Payment) Validate() error {
	if p.TenantID == "" {
		return ErrUnknownTenant
	}
	if p.Amount < 0 {
		return ErrInvalidAmount
	}
	if !p.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

func (r MaintenanceRecord) Validate() error {
	if err := r.Period.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.CollectorName) == "" {
		return ErrEmptyCollector
	}
	if r.GrandTotal < 0 {
		return ErrInvalidAmount
	}
	for _, p := range r.Payments {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	for _, p := range r.Particulars {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}
