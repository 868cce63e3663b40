package registration

import (
	"time"

	"github.com/BollineniRohith123/nibog-platform/internal/core/common/validation"
	"github.com/BollineniRohith123/nibog-platform/internal/core/datamodel/registration"
)

type CreateRegistrationRequest struct {
	EventID       int64  `json:"event_id"`
	ChildName     string `json:"child_name"`
	ChildAgeMonth int    `json:"child_age_months"`
	ParentName    string `json:"parent_name"`
	ParentEmail   string `json:"parent_email"`
	ParentPhone   string `json:"parent_phone"`
}

func (r *CreateRegistrationRequest) Validate() error {
	validator := validation.NewValidator()

	validator.Field("event_id", r.EventID).Required()
	validator.Field("child_name", r.ChildName).Required().MaxLength(100)
	validator.Field("parent_name", r.ParentName).Required().MaxLength(100)
	validator.Field("parent_email", r.ParentEmail).Required().MaxLength(255)
	validator.Field("parent_phone", r.ParentPhone).Required().MinLength(10).MaxLength(15)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

type RegistrationDTO struct {
	ID            int64     `json:"id"`
	EventID       int64     `json:"event_id"`
	ChildName     string    `json:"child_name"`
	ChildAgeMonth int       `json:"child_age_months"`
	ParentName    string    `json:"parent_name"`
	ParentEmail   string    `json:"parent_email"`
	ParentPhone   string    `json:"parent_phone"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func ToDTO(r *registration.Registration) *RegistrationDTO {
	return &RegistrationDTO{
		ID:            r.ID,
		EventID:       r.EventID,
		ChildName:     r.ChildName,
		ChildAgeMonth: r.ChildAgeMonth,
		ParentName:    r.ParentName,
		ParentEmail:   r.ParentEmail,
		ParentPhone:   r.ParentPhone,
		Status:        r.Status,
		PaymentStatus: r.PaymentStatus,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func ToDTOs(regs []*registration.Registration) []*RegistrationDTO {
	dtos := make([]*RegistrationDTO, 0, len(regs))
	for _, r := range regs {
		dtos = append(dtos, ToDTO(r))
	}
	return dtos
}
