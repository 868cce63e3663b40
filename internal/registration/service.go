package registration

import (
	"fmt"
	"log/slog"
	"time"

	errors "github.com/BollineniRohith123/nibog-platform/internal"
	paymentmodel "github.com/BollineniRohith123/nibog-platform/internal/core/datamodel/payment"
	"github.com/BollineniRohith123/nibog-platform/internal/core/datamodel/registration"
	"github.com/BollineniRohith123/nibog-platform/internal/payment"
)

type Service struct {
	repo    RepositoryAPI
	catalog CatalogAPI
	logger  *slog.Logger
}

func NewService(repo RepositoryAPI, catalogService CatalogAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		catalog: catalogService,
		logger:  logger,
	}
}

// CreateRegistration books a child into an event. The event must exist, be
// active, not be in the past, and have capacity left.
func (s *Service) CreateRegistration(req *CreateRegistrationRequest) (*RegistrationDTO, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	event, err := s.catalog.GetEvent(req.EventID)
	if err != nil {
		s.logger.Warn("registration rejected: event lookup failed", "event_id", req.EventID, "error", err)
		return nil, errors.ErrEventNotFound
	}

	if !event.IsActive || event.EventDate.Before(time.Now()) {
		s.logger.Warn("registration rejected: event closed",
			"event_id", event.ID,
			"is_active", event.IsActive,
			"event_date", event.EventDate)
		return nil, errors.ErrEventClosed
	}

	if event.Capacity > 0 {
		count, err := s.repo.CountByEventID(event.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count registrations: %w", err)
		}
		if count >= int64(event.Capacity) {
			s.logger.Warn("registration rejected: event full",
				"event_id", event.ID,
				"capacity", event.Capacity)
			return nil, errors.ErrEventClosed
		}
	}

	reg := &registration.Registration{
		EventID:       event.ID,
		ChildName:     req.ChildName,
		ChildAgeMonth: req.ChildAgeMonth,
		ParentName:    req.ParentName,
		ParentEmail:   req.ParentEmail,
		ParentPhone:   req.ParentPhone,
		Status:        registration.StatusPending,
		PaymentStatus: registration.StatusPending,
	}

	if err := s.repo.Create(reg); err != nil {
		s.logger.Error("failed to create registration", "error", err, "event_id", event.ID)
		return nil, fmt.Errorf("failed to create registration: %w", err)
	}

	s.logger.Info("registration created",
		"registration_id", reg.ID,
		"event_id", event.ID,
		"child_name", reg.ChildName)

	return ToDTO(reg), nil
}

func (s *Service) GetRegistration(id int64) (*RegistrationDTO, error) {
	reg, err := s.repo.GetByID(id)
	if err != nil {
		return nil, errors.ErrRegistrationNotFound
	}
	return ToDTO(reg), nil
}

func (s *Service) GetRegistrationsForEvent(eventID int64) ([]*RegistrationDTO, error) {
	regs, err := s.repo.GetByEventID(eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	return ToDTOs(regs), nil
}

// GetForPayment hands the payment flow everything it needs in one lookup:
// contact details, paid state, and the authoritative price from the catalog.
func (s *Service) GetForPayment(registrationID int64) (*payment.RegistrationInfo, error) {
	reg, err := s.repo.GetByID(registrationID)
	if err != nil {
		return nil, errors.ErrRegistrationNotFound
	}

	event, err := s.catalog.GetEvent(reg.EventID)
	if err != nil {
		s.logger.Error("registration references missing event",
			"registration_id", reg.ID,
			"event_id", reg.EventID)
		return nil, errors.ErrEventNotFound
	}

	return &payment.RegistrationInfo{
		ID:          reg.ID,
		EventID:     event.ID,
		EventName:   event.Name,
		ParentName:  reg.ParentName,
		ParentEmail: reg.ParentEmail,
		ParentPhone: reg.ParentPhone,
		Paid:        reg.IsPaid(),
		PricePaise:  event.PricePaise,
	}, nil
}

// MarkPaymentResult is called by the reconciliation core exactly once per
// settled payment. A successful payment confirms the registration, a refund
// cancels it, and a failure leaves it pending so the parent can retry.
func (s *Service) MarkPaymentResult(registrationID int64, paymentStatus string) error {
	var status string
	switch paymentStatus {
	case paymentmodel.StatusSuccess:
		status = registration.StatusConfirmed
	case paymentmodel.StatusRefunded:
		status = registration.StatusCancelled
	default:
		status = registration.StatusPending
	}

	if err := s.repo.UpdatePaymentResult(registrationID, status, paymentStatus); err != nil {
		return fmt.Errorf("failed to update registration payment result: %w", err)
	}

	s.logger.Info("registration payment result recorded",
		"registration_id", registrationID,
		"status", status,
		"payment_status", paymentStatus)

	return nil
}
