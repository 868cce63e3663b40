package catalog

import (
	"time"

	"github.com/BollineniRohith123/nibog-platform/internal/core/common/validation"
	catalogDatamodel "github.com/BollineniRohith123/nibog-platform/internal/core/datamodel/catalog"
)

type CityResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	State    string `json:"state"`
	IsActive bool   `json:"is_active"`
}

type GameResponse struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	MinAgeMonths int    `json:"min_age_months"`
	MaxAgeMonths int    `json:"max_age_months"`
	IsActive     bool   `json:"is_active"`
}

type EventResponse struct {
	ID         int64     `json:"id"`
	CityID     int64     `json:"city_id"`
	GameID     int64     `json:"game_id"`
	Name       string    `json:"name"`
	Venue      string    `json:"venue"`
	EventDate  time.Time `json:"event_date"`
	PricePaise int64     `json:"price_paise"`
	Capacity   int       `json:"capacity"`
	IsActive   bool      `json:"is_active"`
}

type CreateCityRequest struct {
	Name  string `json:"name"`
	State string `json:"state"`
}

func (r *CreateCityRequest) Validate() error {
	validator := validation.NewValidator()
	validator.Field("name", r.Name).Required().MaxLength(100)
	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

type CreateGameRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	MinAgeMonths int    `json:"min_age_months"`
	MaxAgeMonths int    `json:"max_age_months"`
}

func (r *CreateGameRequest) Validate() error {
	validator := validation.NewValidator()
	validator.Field("name", r.Name).Required().MaxLength(100)
	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

type CreateEventRequest struct {
	CityID     int64     `json:"city_id"`
	GameID     int64     `json:"game_id"`
	Name       string    `json:"name"`
	Venue      string    `json:"venue"`
	EventDate  time.Time `json:"event_date"`
	PricePaise int64     `json:"price_paise"`
	Capacity   int       `json:"capacity"`
}

func (r *CreateEventRequest) Validate() error {
	validator := validation.NewValidator()

	validator.Field("city_id", r.CityID).Required()
	validator.Field("game_id", r.GameID).Required()
	validator.Field("name", r.Name).Required().MaxLength(200)
	validator.Field("event_date", r.EventDate).NotPast()

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}

	if appErr := validation.ValidatePaymentAmount(r.PricePaise); appErr != nil {
		return appErr
	}
	return nil
}

type UpdateEventRequest struct {
	Name       *string    `json:"name,omitempty"`
	Venue      *string    `json:"venue,omitempty"`
	EventDate  *time.Time `json:"event_date,omitempty"`
	PricePaise *int64     `json:"price_paise,omitempty"`
	Capacity   *int       `json:"capacity,omitempty"`
	IsActive   *bool      `json:"is_active,omitempty"`
}

func (r *UpdateEventRequest) Validate() error {
	if r.PricePaise != nil {
		if appErr := validation.ValidatePaymentAmount(*r.PricePaise); appErr != nil {
			return appErr
		}
	}
	return nil
}

func ToCityResponse(c *catalogDatamodel.City) CityResponse {
	return CityResponse{
		ID:       c.ID,
		Name:     c.Name,
		State:    c.State,
		IsActive: c.IsActive,
	}
}

func ToGameResponse(g *catalogDatamodel.Game) GameResponse {
	return GameResponse{
		ID:           g.ID,
		Name:         g.Name,
		Description:  g.Description,
		MinAgeMonths: g.MinAgeMonths,
		MaxAgeMonths: g.MaxAgeMonths,
		IsActive:     g.IsActive,
	}
}

func ToEventResponse(e *catalogDatamodel.Event) EventResponse {
	return EventResponse{
		ID:         e.ID,
		CityID:     e.CityID,
		GameID:     e.GameID,
		Name:       e.Name,
		Venue:      e.Venue,
		EventDate:  e.EventDate,
		PricePaise: e.PricePaise,
		Capacity:   e.Capacity,
		IsActive:   e.IsActive,
	}
}
