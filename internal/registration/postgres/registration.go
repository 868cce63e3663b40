package postgres

import (
	"time"

	"gorm.io/gorm"

	"github.com/BollineniRohith123/nibog-platform/internal/core/datamodel/registration"
	registrationpkg "github.com/BollineniRohith123/nibog-platform/internal/registration"
)

type RegistrationRepository struct {
	db *gorm.DB
}

func NewRegistrationRepository(db *gorm.DB) registrationpkg.RepositoryAPI {
	return &RegistrationRepository{
		db: db,
	}
}

func (r *RegistrationRepository) Create(reg *registration.Registration) error {
	return r.db.Create(reg).Error
}

func (r *RegistrationRepository) GetByID(id int64) (*registration.Registration, error) {
	var reg registration.Registration
	err := r.db.First(&reg, id).Error
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *RegistrationRepository) GetByEventID(eventID int64) ([]*registration.Registration, error) {
	var regs []*registration.Registration
	err := r.db.Where("event_id = ?", eventID).Order("created_at DESC").Find(&regs).Error
	return regs, err
}

func (r *RegistrationRepository) CountByEventID(eventID int64) (int64, error) {
	var count int64
	err := r.db.Model(&registration.Registration{}).
		Where("event_id = ? AND status <> ?", eventID, registration.StatusCancelled).
		Count(&count).Error
	return count, err
}

func (r *RegistrationRepository) UpdatePaymentResult(id int64, status, paymentStatus string) error {
	return r.db.Model(&registration.Registration{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":         status,
			"payment_status": paymentStatus,
			"updated_at":     time.Now(),
		}).Error
}
