package resource

import "net/http"

const dateRule = "datetime=2006-01-02"

// Admin collections. Paths follow the backend's URL configuration.
var (
	Users = Definition{
		Name:      "users",
		Path:      "admin/users/",
		ListField: "users",
		ItemField: "user",
		Filters:   []string{"role", "status"},
		Fields: []Field{
			{Name: "role", Kind: KindString, Rules: "oneof=sponsor mentor partner learner admin staff"},
			{Name: "is_active", Kind: KindBool},
		},
		Ops: OpList | OpUpdate,
	}

	Programs = Definition{
		Name:    "programs",
		Path:    "programs/",
		Filters: []string{"level", "mode"},
		Fields: []Field{
			{Name: "title", Kind: KindString, Required: true, Rules: "max=200"},
			{Name: "description", Kind: KindString, Required: true},
			{Name: "duration", Kind: KindString, Required: true, Rules: "max=50"},
			{Name: "level", Kind: KindString, Required: true, Rules: "oneof=Beginner Intermediate Advanced"},
			{Name: "technologies", Kind: KindString},
			{Name: "mode", Kind: KindString, Rules: "oneof=Online Hybrid On-site"},
			{Name: "sessions_per_week", Kind: KindNumber, Rules: "gte=1"},
			{Name: "has_certification", Kind: KindBool},
			{Name: "scholarship_available", Kind: KindBool},
			{Name: "prerequisites", Kind: KindString},
			{Name: "modules", Kind: KindString},
		},
		FileFields: []string{"image"},
	}

	Events = Definition{
		Name:    "events",
		Path:    "events/",
		Filters: []string{"status", "format", "category"},
		Fields: []Field{
			{Name: "title", Kind: KindString, Required: true, Rules: "max=200"},
			{Name: "description", Kind: KindString, Required: true},
			{Name: "category", Kind: KindString},
			{Name: "date", Kind: KindString, Required: true, Rules: dateRule},
			{Name: "time", Kind: KindString},
			{Name: "location", Kind: KindString, Required: true, Rules: "max=200"},
			{Name: "format", Kind: KindString, Required: true, Rules: "oneof=Online In-person"},
			{Name: "capacity", Kind: KindNumber, Rules: "gte=1"},
			{Name: "price", Kind: KindNumber, Rules: "gte=0"},
			{Name: "speaker", Kind: KindString},
			{Name: "topics", Kind: KindString},
			{Name: "status", Kind: KindString, Rules: "max=20"},
			{Name: "is_active", Kind: KindBool},
		},
		FileFields: []string{"image"},
	}

	Mentors = Definition{
		Name:    "mentors",
		Path:    "mentors/",
		Filters: []string{"is_active", "expertise"},
		Fields: []Field{
			{Name: "name", Kind: KindString, Required: true, Rules: "max=100"},
			{Name: "bio", Kind: KindString},
			{Name: "expertise", Kind: KindString},
			{Name: "hourly_rate", Kind: KindNumber, Rules: "gte=0"},
			{Name: "is_active", Kind: KindBool},
			{Name: "linkedin", Kind: KindString, Rules: "omitempty,url"},
			{Name: "twitter", Kind: KindString},
		},
		FileFields: []string{"photo"},
	}

	Certificates = Definition{
		Name:    "certificates",
		Path:    "certificates/admin/certificates/",
		Filters: []string{"status", "certificate_type"},
		Fields: []Field{
			{Name: "title", Kind: KindString, Required: true, Rules: "max=200"},
			{Name: "description", Kind: KindString},
			{Name: "certificate_type", Kind: KindString, Required: true},
			{Name: "status", Kind: KindString},
			{Name: "expiry_date", Kind: KindString, Rules: "omitempty," + dateRule},
			{Name: "certificate_url", Kind: KindString, Rules: "omitempty,url"},
			{Name: "skills_covered", Kind: KindAny},
			{Name: "score", Kind: KindNumber, Rules: "gte=0,lte=100"},
			{Name: "issued_by", Kind: KindString},
		},
		Actions: []Action{
			{Name: "award", Path: "certificates/admin/award-certificate/"},
		},
	}

	Badges = Definition{
		Name:    "badges",
		Path:    "certificates/admin/badges/",
		Filters: []string{"badge_type"},
		Fields: []Field{
			{Name: "title", Kind: KindString, Required: true, Rules: "max=200"},
			{Name: "description", Kind: KindString},
			{Name: "badge_type", Kind: KindString, Required: true},
			{Name: "icon", Kind: KindString},
			{Name: "color", Kind: KindString, Rules: "omitempty,hexcolor"},
			{Name: "points", Kind: KindNumber, Rules: "gte=0"},
			{Name: "criteria", Kind: KindString},
		},
		Actions: []Action{
			{Name: "award", Path: "certificates/admin/award-badge/"},
		},
	}

	Notifications = Definition{
		Name:       "notifications",
		ListPath:   "notifications/admin/",
		CreatePath: "notifications/admin/send/",
		Filters:    []string{"notification_type", "priority", "status"},
		Fields: []Field{
			{Name: "title", Kind: KindString, Required: true, Rules: "max=200"},
			{Name: "message", Kind: KindString, Required: true},
			{Name: "notification_type", Kind: KindString, Required: true},
			{Name: "priority", Kind: KindString, Rules: "oneof=low medium high urgent"},
			{Name: "recipients", Kind: KindAny},
			{Name: "send_to_all", Kind: KindBool},
			{Name: "action_url", Kind: KindString},
			{Name: "action_text", Kind: KindString},
		},
		Ops: OpList | OpCreate,
		Actions: []Action{
			{Name: "stats", Method: http.MethodGet, Path: "notifications/admin/stats/"},
		},
	}

	PaymentOrders = Definition{
		Name:    "payment-orders",
		Path:    "payments/admin/orders/",
		Filters: []string{"status", "currency"},
		Ops:     OpsReadOnly,
		Actions: []Action{
			{Name: "stats", Method: http.MethodGet, Path: "payments/admin/stats/"},
		},
	}

	Coupons = Definition{
		Name:    "coupons",
		Path:    "payments/admin/coupons/",
		Filters: []string{"is_active", "discount_type"},
		Fields: []Field{
			{Name: "code", Kind: KindString, Required: true, Rules: "max=50"},
			{Name: "discount_type", Kind: KindString, Required: true, Rules: "oneof=percentage fixed"},
			{Name: "discount_value", Kind: KindNumber, Required: true, Rules: "gte=0"},
			{Name: "max_uses", Kind: KindNumber, Rules: "gte=1"},
			{Name: "valid_from", Kind: KindString},
			{Name: "valid_until", Kind: KindString},
			{Name: "is_active", Kind: KindBool},
			{Name: "applicable_plans", Kind: KindList},
		},
	}

	PricingPlans = Definition{
		Name:    "pricing-plans",
		Path:    "payments/admin/plans/",
		Filters: []string{"is_active", "billing_cycle"},
		Fields: []Field{
			{Name: "name", Kind: KindString, Required: true, Rules: "max=100"},
			{Name: "description", Kind: KindString},
			{Name: "price", Kind: KindNumber, Required: true, Rules: "gte=0"},
			{Name: "currency", Kind: KindString, Rules: "len=3"},
			{Name: "billing_cycle", Kind: KindString, Required: true},
			{Name: "program", Kind: KindNumber},
			{Name: "features", Kind: KindList},
			{Name: "original_price", Kind: KindNumber, Rules: "gte=0"},
			{Name: "discount_percentage", Kind: KindNumber, Rules: "gte=0,lte=100"},
			{Name: "is_active", Kind: KindBool},
			{Name: "is_featured", Kind: KindBool},
		},
	}

	ContactSettings = Definition{
		Name:    "contact-settings",
		Path:    "admin/contact-settings/",
		Filters: []string{"setting_type"},
		Fields: []Field{
			{Name: "setting_type", Kind: KindString, Required: true},
			{Name: "label", Kind: KindString, Required: true, Rules: "max=100"},
			{Name: "value", Kind: KindString, Required: true},
			{Name: "is_active", Kind: KindBool},
			{Name: "order", Kind: KindNumber, Rules: "gte=0"},
		},
		Actions: []Action{
			{Name: "initialize", Path: "admin/contact-settings/initialize/"},
		},
	}

	AuditLogs = Definition{
		Name:      "audit-logs",
		Path:      "security/audit-logs/",
		ListField: "audit_logs",
		Filters:   []string{"action", "user_id", "ip_address", "days"},
		Ops:       OpList,
		Actions: []Action{
			{Name: "dashboard", Method: http.MethodGet, Path: "security/dashboard/"},
		},
	}

	// The backend has no detail view for events; resolving is a bodiless
	// PATCH that answers {"detail": ...}.
	SecurityEvents = Definition{
		Name:      "security-events",
		Path:      "security/security-events/",
		ListField: "security_events",
		Filters:   []string{"severity", "event_type", "resolved", "days"},
		Ops:       OpList,
		Actions: []Action{
			{Name: "resolve", Method: http.MethodPatch, Path: "security/security-events/{id}/"},
		},
	}

	ContactMessages = Definition{
		Name:    "contact-messages",
		Path:    "contact/list/",
		Filters: []string{"status", "contact_type"},
		Ops:     OpList,
	}
)

// Learner-side collections scoped to the signed-in user.
var (
	MyPrograms = Definition{
		Name:    "programs",
		Path:    "auth/me/programs/",
		Filters: []string{"status"},
		Ops:     OpList,
		Actions: []Action{
			{Name: "enroll", Path: "programs/enroll/{id}/"},
			{Name: "stats", Method: http.MethodGet, Path: "programs/user-program-stats/"},
		},
	}

	MyEvents = Definition{
		Name:    "events",
		Path:    "auth/me/events/",
		Filters: []string{"status"},
		Ops:     OpList,
		Actions: []Action{
			{Name: "register", Path: "events/register/{id}/"},
			{Name: "stats", Method: http.MethodGet, Path: "events/user-event-stats/"},
		},
	}

	MyCertificates = Definition{
		Name:    "certificates",
		Path:    "certificates/me/certificates/",
		Filters: []string{"status", "certificate_type"},
		Ops:     OpsReadOnly,
		Actions: []Action{
			{Name: "stats", Method: http.MethodGet, Path: "certificates/me/certificates/stats/"},
		},
	}

	MyBadges = Definition{
		Name:    "badges",
		Path:    "certificates/me/badges/",
		Filters: []string{"badge_type"},
		Ops:     OpsReadOnly,
		Actions: []Action{
			{Name: "stats", Method: http.MethodGet, Path: "certificates/me/badges/stats/"},
		},
	}

	MyNotifications = Definition{
		Name:    "notifications",
		Path:    "notifications/me/",
		Filters: []string{"status", "notification_type", "priority"},
		Ops:     OpsReadOnly,
		Actions: []Action{
			{Name: "read", Path: "notifications/me/{id}/read/"},
			{Name: "archive", Path: "notifications/me/{id}/archive/"},
			{Name: "delete", Method: http.MethodDelete, Path: "notifications/me/{id}/delete/"},
			{Name: "read-all", Path: "notifications/me/read-all/"},
			{Name: "clear", Method: http.MethodDelete, Path: "notifications/me/clear/"},
			{Name: "stats", Method: http.MethodGet, Path: "notifications/me/stats/"},
			{Name: "preferences", Method: http.MethodGet, Path: "notifications/me/preferences/"},
			{Name: "update-preferences", Method: http.MethodPatch, Path: "notifications/me/preferences/"},
		},
	}

	MyOrders = Definition{
		Name:    "orders",
		Path:    "payments/orders/",
		Filters: []string{"status"},
		Ops:     OpsReadOnly,
	}
)
