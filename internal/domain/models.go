package domain

import "time"

// Enumerations
const (
	RoleAdmin      UserRole = "admin"
	RoleTechnician UserRole = "technician"
	RoleCustomer   UserRole = "customer"

	OrderPending    OrderStatus = "pending"
	OrderInProgress OrderStatus = "in_progress"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"

	RequestSparePart         RequestCategory = "spare_part"
	RequestAdditionalService RequestCategory = "additional_service"

	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"

	TierBronze   LoyaltyTier = "bronze"
	TierSilver   LoyaltyTier = "silver"
	TierGold     LoyaltyTier = "gold"
	TierPlatinum LoyaltyTier = "platinum"

	NotificationInfo    NotificationType = "info"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"

	AuditInfo    AuditLogType = "info"
	AuditWarning AuditLogType = "warning"
	AuditError   AuditLogType = "error"
)

type UserRole string
type OrderStatus string
type RequestCategory string
type RequestStatus string
type LoyaltyTier string
type NotificationType string
type AuditLogType string

type User struct {
	ID           int64
	Name         string
	Email        string
	Phone        string
	Role         UserRole
	IsGoogle     bool
	PasswordHash *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

type Order struct {
	ID            int64
	Code          string
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
	Device        string
	Brand         string
	Model         string
	Issue         string
	Address       string
	Latitude      *float64
	Longitude     *float64
	Status        OrderStatus
	TechnicianID  *int64
	Technician    string
	Discount      float64
	VATEnabled    bool
	VATRate       float64
	Rating        *int
	RatingComment string
	Photos        []OrderPhoto
	Items         []OrderItem
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     *time.Time
}

type OrderItem struct {
	ID          int64
	OrderID     int64
	Description string
	Qty         int
	UnitPrice   float64
	RequestID   *int64
	CreatedAt   time.Time
}

type OrderPhoto struct {
	ID        int64
	OrderID   int64
	Kind      string
	URL       string
	Key       string
	CreatedAt time.Time
}

type StatusChange struct {
	ID        int64
	OrderID   int64
	From      OrderStatus
	To        OrderStatus
	ChangedBy string
	Note      string
	ChangedAt time.Time
}

type Technician struct {
	ID              int64
	UserID          *int64
	Name            string
	Phone           string
	Specializations []string
	Active          bool
	Permissions     TechnicianPermissions
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       *time.Time
}

// TechnicianPermissions gate portal actions only; route-level role checks
// still apply.
type TechnicianPermissions struct {
	EditInvoice    bool
	CompleteOrders bool
	RequestParts   bool
}

type TechnicianRequest struct {
	ID             int64
	OrderID        int64
	TechnicianID   int64
	TechnicianName string
	Category       RequestCategory
	Description    string
	EstimatedPrice float64
	FinalPrice     *float64
	Status         RequestStatus
	DecidedBy      *int64
	DecidedAt      *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type PriceChange struct {
	ID        int64
	RequestID int64
	OldPrice  float64
	NewPrice  float64
	ChangedBy string
	Reason    string
	ChangedAt time.Time
}

type Supplier struct {
	ID        int64
	Name      string
	Phone     string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

type Part struct {
	ID         int64
	Name       string
	SKU        string
	Quantity   int
	MinStock   int
	UnitPrice  float64
	SupplierID *int64
	Supplier   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  *time.Time
}

type LoyaltyAccount struct {
	CustomerPhone   string
	Points          int64
	TotalSpent      float64
	OrdersCompleted int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type LoyaltyEvent struct {
	ID            int64
	CustomerPhone string
	Points        int64
	Reason        string
	OrderID       *int64
	CreatedAt     time.Time
}

type Notification struct {
	ID        int64
	Role      UserRole
	UserID    *int64
	Type      NotificationType
	Title     string
	Message   string
	Link      string
	CreatedAt time.Time
	ReadAt    *time.Time
	DeletedAt *time.Time
}

type AuditLog struct {
	ID       int64
	Action   string
	Category string
	Actor    string
	UserID   *int64
	Details  string
	Type     AuditLogType
	LoggedAt time.Time
}

type Attendance struct {
	ID           int64
	TechnicianID int64
	OrderID      int64
	CheckIn      *time.Time
	CheckOut     *time.Time
	Latitude     float64
	Longitude    float64
	Accuracy     *float64
	DistanceKM   float64
	WithinRange  bool
	CreatedAt    time.Time
}

type RepairTimeOverride struct {
	DeviceCategory string
	Issue          string
	Minutes        int
	UpdatedAt      time.Time
}
