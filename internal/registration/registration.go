package registration

import (
	"github.com/BollineniRohith123/nibog-platform/internal/core/datamodel/catalog"
	"github.com/BollineniRohith123/nibog-platform/internal/core/datamodel/registration"
	"github.com/BollineniRohith123/nibog-platform/internal/payment"
)

type RepositoryAPI interface {
	Create(reg *registration.Registration) error
	GetByID(id int64) (*registration.Registration, error)
	GetByEventID(eventID int64) ([]*registration.Registration, error)
	CountByEventID(eventID int64) (int64, error)
	UpdatePaymentResult(id int64, status, paymentStatus string) error
}

// CatalogAPI is the slice of the catalog service registrations need: price
// and openness of the event being booked.
type CatalogAPI interface {
	GetEvent(id int64) (*catalog.Event, error)
}

type ServiceAPI interface {
	CreateRegistration(req *CreateRegistrationRequest) (*RegistrationDTO, error)
	GetRegistration(id int64) (*RegistrationDTO, error)
	GetRegistrationsForEvent(eventID int64) ([]*RegistrationDTO, error)

	// Used by the payment reconciliation core.
	GetForPayment(registrationID int64) (*payment.RegistrationInfo, error)
	MarkPaymentResult(registrationID int64, paymentStatus string) error
}
