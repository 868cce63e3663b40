package catalog

import (
	"fmt"
	"log/slog"

	errors "github.com/BollineniRohith123/nibog-platform/internal"
	catalogDatamodel "github.com/BollineniRohith123/nibog-platform/internal/core/datamodel/catalog"
)

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) GetCities() ([]CityResponse, error) {
	cities, err := s.repo.GetCities()
	if err != nil {
		s.logger.Error("failed to get cities", "error", err)
		return nil, err
	}

	responses := make([]CityResponse, 0, len(cities))
	for _, c := range cities {
		if c.IsActive {
			responses = append(responses, ToCityResponse(c))
		}
	}
	return responses, nil
}

func (s *Service) GetGames() ([]GameResponse, error) {
	games, err := s.repo.GetGames()
	if err != nil {
		s.logger.Error("failed to get games", "error", err)
		return nil, err
	}

	responses := make([]GameResponse, 0, len(games))
	for _, g := range games {
		if g.IsActive {
			responses = append(responses, ToGameResponse(g))
		}
	}
	return responses, nil
}

// GetEvents lists active events, optionally scoped to one city (cityID 0
// means all cities).
func (s *Service) GetEvents(cityID int64) ([]EventResponse, error) {
	events, err := s.repo.GetEvents(cityID)
	if err != nil {
		s.logger.Error("failed to get events", "error", err, "city_id", cityID)
		return nil, err
	}

	responses := make([]EventResponse, 0, len(events))
	for _, e := range events {
		if e.IsActive {
			responses = append(responses, ToEventResponse(e))
		}
	}
	return responses, nil
}

// GetEvent returns the raw event row; registrations and payments use it for
// the authoritative price.
func (s *Service) GetEvent(id int64) (*catalogDatamodel.Event, error) {
	event, err := s.repo.GetEventByID(id)
	if err != nil {
		return nil, errors.ErrEventNotFound
	}
	return event, nil
}

func (s *Service) GetEventResponse(id int64) (*EventResponse, error) {
	event, err := s.GetEvent(id)
	if err != nil {
		return nil, err
	}
	resp := ToEventResponse(event)
	return &resp, nil
}

func (s *Service) CreateCity(req *CreateCityRequest) (*CityResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	city := &catalogDatamodel.City{
		Name:     req.Name,
		State:    req.State,
		IsActive: true,
	}

	if err := s.repo.CreateCity(city); err != nil {
		s.logger.Error("failed to create city", "error", err, "name", req.Name)
		return nil, fmt.Errorf("failed to create city: %w", err)
	}

	s.logger.Info("city created", "city_id", city.ID, "name", city.Name)
	resp := ToCityResponse(city)
	return &resp, nil
}

func (s *Service) CreateGame(req *CreateGameRequest) (*GameResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	game := &catalogDatamodel.Game{
		Name:         req.Name,
		Description:  req.Description,
		MinAgeMonths: req.MinAgeMonths,
		MaxAgeMonths: req.MaxAgeMonths,
		IsActive:     true,
	}

	if err := s.repo.CreateGame(game); err != nil {
		s.logger.Error("failed to create game", "error", err, "name", req.Name)
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	s.logger.Info("game created", "game_id", game.ID, "name", game.Name)
	resp := ToGameResponse(game)
	return &resp, nil
}

func (s *Service) CreateEvent(req *CreateEventRequest) (*EventResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetCityByID(req.CityID); err != nil {
		return nil, errors.NewValidationError("city does not exist", errors.ErrCodeValidationFailed)
	}
	if _, err := s.repo.GetGameByID(req.GameID); err != nil {
		return nil, errors.NewValidationError("game does not exist", errors.ErrCodeValidationFailed)
	}

	event := &catalogDatamodel.Event{
		CityID:     req.CityID,
		GameID:     req.GameID,
		Name:       req.Name,
		Venue:      req.Venue,
		EventDate:  req.EventDate,
		PricePaise: req.PricePaise,
		Capacity:   req.Capacity,
		IsActive:   true,
	}

	if err := s.repo.CreateEvent(event); err != nil {
		s.logger.Error("failed to create event", "error", err, "name", req.Name)
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	s.logger.Info("event created",
		"event_id", event.ID,
		"name", event.Name,
		"price_paise", event.PricePaise)
	resp := ToEventResponse(event)
	return &resp, nil
}

func (s *Service) UpdateEvent(id int64, req *UpdateEventRequest) (*EventResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	event, err := s.repo.GetEventByID(id)
	if err != nil {
		return nil, errors.ErrEventNotFound
	}

	if req.Name != nil {
		event.Name = *req.Name
	}
	if req.Venue != nil {
		event.Venue = *req.Venue
	}
	if req.EventDate != nil {
		event.EventDate = *req.EventDate
	}
	if req.PricePaise != nil {
		event.PricePaise = *req.PricePaise
	}
	if req.Capacity != nil {
		event.Capacity = *req.Capacity
	}
	if req.IsActive != nil {
		event.IsActive = *req.IsActive
	}

	if err := s.repo.UpdateEvent(event); err != nil {
		s.logger.Error("failed to update event", "error", err, "event_id", id)
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	s.logger.Info("event updated", "event_id", event.ID)
	resp := ToEventResponse(event)
	return &resp, nil
}
