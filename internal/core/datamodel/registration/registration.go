package registration

import "time"

// Registration statuses. A successful payment moves PENDING to CONFIRMED and
// a refund to CANCELLED; a failed payment leaves the registration PENDING so
// the parent can pay again. The reconciliation core is the only writer of
// these transitions.
const (
	StatusPending   = "PENDING"
	StatusConfirmed = "CONFIRMED"
	StatusCancelled = "CANCELLED"
)

type Registration struct {
	ID            int64     `gorm:"primaryKey"`
	EventID       int64     `gorm:"column:event_id;not null;index"`
	ChildName     string    `gorm:"column:child_name;not null"`
	ChildAgeMonth int       `gorm:"column:child_age_months"`
	ParentName    string    `gorm:"column:parent_name;not null"`
	ParentEmail   string    `gorm:"column:parent_email;not null"`
	ParentPhone   string    `gorm:"column:parent_phone;not null"`
	Status        string    `gorm:"column:status;default:PENDING"`
	PaymentStatus string    `gorm:"column:payment_status;default:PENDING"`
	CreatedAt     time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt     time.Time `gorm:"column:updated_at;default:now()"`
}

func (Registration) TableName() string {
	return "registrations"
}

func (r *Registration) IsPaid() bool {
	return r.Status == StatusConfirmed
}
