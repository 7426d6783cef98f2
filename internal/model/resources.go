package model

import "encoding/json"

// Records below mirror the subset of backend fields the admin panels show.
// Decimal columns arrive as JSON strings from the backend, so they are
// kept as json.Number.

type Program struct {
	ID                   int64  `json:"id"`
	Title                string `json:"title"`
	Description          string `json:"description"`
	Duration             string `json:"duration"`
	Level                string `json:"level"`
	Technologies         string `json:"technologies"`
	Mode                 string `json:"mode"`
	SessionsPerWeek      int    `json:"sessions_per_week"`
	HasCertification     bool   `json:"has_certification"`
	ScholarshipAvailable bool   `json:"scholarship_available"`
	Prerequisites        string `json:"prerequisites,omitempty"`
	Modules              string `json:"modules,omitempty"`
	Image                string `json:"image,omitempty"`
	CreatedAt            string `json:"created_at,omitempty"`
	UpdatedAt            string `json:"updated_at,omitempty"`
}

type Event struct {
	ID          int64       `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Category    string      `json:"category,omitempty"`
	Date        string      `json:"date"`
	Time        string      `json:"time,omitempty"`
	Location    string      `json:"location"`
	Format      string      `json:"format"`
	Capacity    *int        `json:"capacity,omitempty"`
	Price       json.Number `json:"price,omitempty"`
	Speaker     string      `json:"speaker,omitempty"`
	Topics      string      `json:"topics,omitempty"`
	Status      string      `json:"status"`
	IsActive    bool        `json:"is_active"`
	Image       string      `json:"image,omitempty"`
}

type Mentor struct {
	ID         int64       `json:"id"`
	Name       string      `json:"name"`
	Bio        string      `json:"bio"`
	Expertise  string      `json:"expertise"`
	HourlyRate json.Number `json:"hourly_rate,omitempty"`
	IsActive   bool        `json:"is_active"`
	Photo      string      `json:"photo,omitempty"`
	LinkedIn   string      `json:"linkedin,omitempty"`
	Twitter    string      `json:"twitter,omitempty"`
}

type Certificate struct {
	ID              int64       `json:"id"`
	UserUsername    string      `json:"user_username,omitempty"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	CertificateType string      `json:"certificate_type"`
	Status          string      `json:"status"`
	CertificateID   string      `json:"certificate_id,omitempty"`
	CertificateURL  string      `json:"certificate_url,omitempty"`
	IssuedDate      string      `json:"issued_date,omitempty"`
	ExpiryDate      string      `json:"expiry_date,omitempty"`
	Score           json.Number `json:"score,omitempty"`
	IssuedBy        string      `json:"issued_by,omitempty"`
}

type Badge struct {
	ID           int64  `json:"id"`
	UserUsername string `json:"user_username,omitempty"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	BadgeType    string `json:"badge_type"`
	Color        string `json:"color,omitempty"`
	Points       int    `json:"points"`
	AwardedDate  string `json:"awarded_date,omitempty"`
}

type Notification struct {
	ID               int64  `json:"id"`
	NotificationType string `json:"notification_type"`
	Title            string `json:"title"`
	Message          string `json:"message"`
	Priority         string `json:"priority"`
	Status           string `json:"status"`
	ActionURL        string `json:"action_url,omitempty"`
	ActionText       string `json:"action_text,omitempty"`
	CreatedAt        string `json:"created_at,omitempty"`
	ReadAt           string `json:"read_at,omitempty"`
}

type PaymentOrder struct {
	ID           int64       `json:"id"`
	OrderID      string      `json:"order_id"`
	User         json.Number `json:"user,omitempty"`
	UserEmail    string      `json:"user_email,omitempty"`
	Amount       json.Number `json:"amount"`
	Currency     string      `json:"currency"`
	Status       string      `json:"status"`
	BillingName  string      `json:"billing_name,omitempty"`
	BillingEmail string      `json:"billing_email,omitempty"`
	CreatedAt    string      `json:"created_at,omitempty"`
	PaidAt       string      `json:"paid_at,omitempty"`
}

type Coupon struct {
	ID            int64       `json:"id"`
	Code          string      `json:"code"`
	DiscountType  string      `json:"discount_type"`
	DiscountValue json.Number `json:"discount_value"`
	MaxUses       *int        `json:"max_uses,omitempty"`
	TimesUsed     int         `json:"times_used"`
	ValidFrom     string      `json:"valid_from,omitempty"`
	ValidUntil    string      `json:"valid_until,omitempty"`
	IsActive      bool        `json:"is_active"`
}

type PricingPlan struct {
	ID                 int64       `json:"id"`
	Name               string      `json:"name"`
	Description        string      `json:"description,omitempty"`
	Price              json.Number `json:"price"`
	Currency           string      `json:"currency"`
	BillingCycle       string      `json:"billing_cycle"`
	Program            json.Number `json:"program,omitempty"`
	Features           []string    `json:"features,omitempty"`
	OriginalPrice      json.Number `json:"original_price,omitempty"`
	DiscountPercentage int         `json:"discount_percentage"`
	IsActive           bool        `json:"is_active"`
	IsFeatured         bool        `json:"is_featured"`
}

type ContactMessage struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	Subject     string `json:"subject"`
	Message     string `json:"message"`
	ContactType string `json:"contact_type"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at,omitempty"`
}

type ContactSetting struct {
	ID          int64  `json:"id"`
	SettingType string `json:"setting_type"`
	Label       string `json:"label"`
	Value       string `json:"value"`
	IsActive    bool   `json:"is_active"`
	Order       int    `json:"order"`
}

// UserRef is the short user object the security endpoints embed.
type UserRef struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

type AuditLog struct {
	ID          int64    `json:"id"`
	Action      string   `json:"action"`
	Description string   `json:"description,omitempty"`
	User        *UserRef `json:"user"`
	IPAddress   string   `json:"ip_address,omitempty"`
	UserAgent   string   `json:"user_agent,omitempty"`
	Metadata    any      `json:"metadata,omitempty"`
	CreatedAt   string   `json:"created_at"`
}

type SecurityEvent struct {
	ID          int64    `json:"id"`
	EventType   string   `json:"event_type"`
	Severity    string   `json:"severity"`
	Description string   `json:"description,omitempty"`
	User        *UserRef `json:"user"`
	IPAddress   string   `json:"ip_address,omitempty"`
	UserAgent   string   `json:"user_agent,omitempty"`
	Details     any      `json:"details,omitempty"`
	Resolved    bool     `json:"resolved"`
	ResolvedAt  *string  `json:"resolved_at"`
	ResolvedBy  *UserRef `json:"resolved_by"`
	CreatedAt   string   `json:"created_at"`
}

// Enrollment and Registration back the learner-side "me" collections.
type Enrollment struct {
	ID         int64       `json:"id"`
	Program    any         `json:"program"`
	Status     string      `json:"status"`
	Progress   json.Number `json:"progress,omitempty"`
	EnrolledAt string      `json:"enrolled_at,omitempty"`
}

type Registration struct {
	ID           int64  `json:"id"`
	Event        any    `json:"event"`
	Status       string `json:"status"`
	RegisteredAt string `json:"registered_at,omitempty"`
}
