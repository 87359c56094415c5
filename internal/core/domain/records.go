package domain

// Dates travel as the API formats them: ISO dates ("2024-05-01") for leases and
// ISO local date-times ("2024-05-01T10:00:00") elsewhere.

type ApartmentStatus string

const (
	ApartmentActive   ApartmentStatus = "ACTIVE"
	ApartmentInactive ApartmentStatus = "INACTIVE"
)

// Apartment is a building managed in the tool.
type Apartment struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Address     string          `json:"address"`
	TotalFloors int             `json:"totalFloors"`
	TotalFlats  int             `json:"totalFlats"`
	ManagerID   int64           `json:"managerId,omitempty"`
	OwnerID     int64           `json:"ownerId,omitempty"`
	Status      ApartmentStatus `json:"status"`
}

type ApartmentInput struct {
	Name        string          `json:"name" validate:"required"`
	Address     string          `json:"address" validate:"required"`
	TotalFloors int             `json:"totalFloors" validate:"gte=0"`
	TotalFlats  int             `json:"totalFlats" validate:"gte=0"`
	ManagerID   int64           `json:"managerId,omitempty"`
	OwnerID     int64           `json:"ownerId,omitempty"`
	Status      ApartmentStatus `json:"status,omitempty" validate:"omitempty,oneof=ACTIVE INACTIVE"`
}

type FlatType string

const (
	FlatOneBHK   FlatType = "ONE_BHK"
	FlatTwoBHK   FlatType = "TWO_BHK"
	FlatThreeBHK FlatType = "THREE_BHK"
	FlatFourBHK  FlatType = "FOUR_BHK"
)

type FlatStatus string

const (
	FlatVacant      FlatStatus = "VACANT"
	FlatOccupied    FlatStatus = "OCCUPIED"
	FlatMaintenance FlatStatus = "MAINTENANCE"
)

// Flat is a rentable unit.
type Flat struct {
	ID         int64      `json:"id"`
	FlatNumber string     `json:"flatNumber"`
	Floor      int        `json:"floor"`
	Area       float64    `json:"area"`
	Rent       float64    `json:"rent"`
	Type       FlatType   `json:"type"`
	Status     FlatStatus `json:"status"`
}

type FlatInput struct {
	FlatNumber string     `json:"flatNumber" validate:"required"`
	Floor      int        `json:"floor" validate:"gte=0"`
	Area       float64    `json:"area" validate:"gt=0"`
	Rent       float64    `json:"rent" validate:"gte=0"`
	Type       FlatType   `json:"type" validate:"required,oneof=ONE_BHK TWO_BHK THREE_BHK FOUR_BHK"`
	Status     FlatStatus `json:"status" validate:"required,oneof=VACANT OCCUPIED MAINTENANCE"`
}

// TenantUser and TenantFlat are the embedded references the API returns with a tenant.
type TenantUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type TenantFlat struct {
	ID         int64  `json:"id"`
	FlatNumber string `json:"flatNumber"`
}

// Tenant binds a user account to a flat for a lease period.
type Tenant struct {
	ID         int64      `json:"id"`
	User       TenantUser `json:"user"`
	Flat       TenantFlat `json:"flat"`
	LeaseStart string     `json:"leaseStart"`
	LeaseEnd   string     `json:"leaseEnd"`
	Phone      string     `json:"phone"`
}

type TenantInput struct {
	UserID     int64  `json:"userId" validate:"required,gt=0"`
	FlatID     int64  `json:"flatId" validate:"required,gt=0"`
	LeaseStart string `json:"leaseStart" validate:"required,datetime=2006-01-02"`
	LeaseEnd   string `json:"leaseEnd" validate:"required,datetime=2006-01-02"`
	Phone      string `json:"phone" validate:"required"`
}

type PaymentType string

const (
	PaymentRent        PaymentType = "RENT"
	PaymentDeposit     PaymentType = "DEPOSIT"
	PaymentMaintenance PaymentType = "MAINTENANCE"
	PaymentUtility     PaymentType = "UTILITY"
	PaymentLateFee     PaymentType = "LATE_FEE"
	PaymentOther       PaymentType = "OTHER"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentOverdue   PaymentStatus = "OVERDUE"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
	PaymentCancelled PaymentStatus = "CANCELLED"
)

// Payment is a charge against a tenant for a flat.
type Payment struct {
	ID            int64         `json:"id"`
	TenantID      int64         `json:"tenantId"`
	FlatID        int64         `json:"flatId"`
	Amount        float64       `json:"amount"`
	Type          PaymentType   `json:"type"`
	Status        PaymentStatus `json:"status"`
	DueDate       string        `json:"dueDate"`
	PaymentDate   string        `json:"paymentDate,omitempty"`
	TransactionID string        `json:"transactionId,omitempty"`
	Description   string        `json:"description,omitempty"`
}

type PaymentInput struct {
	TenantID    int64         `json:"tenantId" validate:"required,gt=0"`
	FlatID      int64         `json:"flatId" validate:"required,gt=0"`
	Amount      float64       `json:"amount" validate:"gt=0"`
	Type        PaymentType   `json:"type" validate:"required,oneof=RENT DEPOSIT MAINTENANCE UTILITY LATE_FEE OTHER"`
	Status      PaymentStatus `json:"status,omitempty" validate:"omitempty,oneof=PENDING COMPLETED OVERDUE FAILED REFUNDED CANCELLED"`
	DueDate     string        `json:"dueDate" validate:"required"`
	Description string        `json:"description,omitempty"`
}

type ComplaintStatus string

const (
	ComplaintOpen       ComplaintStatus = "OPEN"
	ComplaintInProgress ComplaintStatus = "IN_PROGRESS"
	ComplaintResolved   ComplaintStatus = "RESOLVED"
	ComplaintClosed     ComplaintStatus = "CLOSED"
)

type ComplaintPriority string

const (
	PriorityLow    ComplaintPriority = "LOW"
	PriorityMedium ComplaintPriority = "MEDIUM"
	PriorityHigh   ComplaintPriority = "HIGH"
	PriorityUrgent ComplaintPriority = "URGENT"
)

// Complaint is a maintenance or service issue raised by a tenant.
type Complaint struct {
	ID          int64             `json:"id"`
	TenantID    int64             `json:"tenantId"`
	FlatID      int64             `json:"flatId"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Status      ComplaintStatus   `json:"status"`
	Priority    ComplaintPriority `json:"priority"`
	CreatedAt   string            `json:"createdAt,omitempty"`
	ResolvedAt  string            `json:"resolvedAt,omitempty"`
	Resolution  string            `json:"resolution,omitempty"`
}

type ComplaintInput struct {
	TenantID    int64             `json:"tenantId" validate:"required,gt=0"`
	FlatID      int64             `json:"flatId" validate:"required,gt=0"`
	Title       string            `json:"title" validate:"required"`
	Description string            `json:"description" validate:"required,max=1000"`
	Status      ComplaintStatus   `json:"status,omitempty" validate:"omitempty,oneof=OPEN IN_PROGRESS RESOLVED CLOSED"`
	Priority    ComplaintPriority `json:"priority,omitempty" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
}

type DocumentType string

const (
	DocumentLease             DocumentType = "LEASE"
	DocumentInvoice           DocumentType = "INVOICE"
	DocumentLeaseAgreement    DocumentType = "LEASE_AGREEMENT"
	DocumentIDProof           DocumentType = "ID_PROOF"
	DocumentAddressProof      DocumentType = "ADDRESS_PROOF"
	DocumentIncomeProof       DocumentType = "INCOME_PROOF"
	DocumentMaintenanceReport DocumentType = "MAINTENANCE_REPORT"
	DocumentComplaintReport   DocumentType = "COMPLAINT_REPORT"
	DocumentPaymentReceipt    DocumentType = "PAYMENT_RECEIPT"
	DocumentOther             DocumentType = "OTHER"
)

// Document is an uploaded file attached to a tenant.
type Document struct {
	ID          int64        `json:"id"`
	TenantID    int64        `json:"tenantId"`
	FlatID      int64        `json:"flatId,omitempty"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Type        DocumentType `json:"type"`
	FileName    string       `json:"fileName"`
	FileType    string       `json:"fileType"`
	FileSize    int64        `json:"fileSize"`
	FileURL     string       `json:"fileUrl"`
	UploadedAt  string       `json:"uploadedAt,omitempty"`
	Verified    bool         `json:"verified"`
}

// DocumentInput carries the form fields of an upload. The file itself is
// passed separately; it is optional on update.
type DocumentInput struct {
	Title       string       `validate:"required"`
	Description string       `validate:"max=1000"`
	Type        DocumentType `validate:"required,oneof=LEASE INVOICE LEASE_AGREEMENT ID_PROOF ADDRESS_PROOF INCOME_PROOF MAINTENANCE_REPORT COMPLAINT_REPORT PAYMENT_RECEIPT OTHER"`
	TenantID    int64        `validate:"required,gt=0"`
	FlatID      int64        `validate:"gte=0"`
}

// Blob is a downloaded file.
type Blob struct {
	FileName    string
	ContentType string
	Data        []byte
}
