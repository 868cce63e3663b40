package catalog

import (
	catalogDatamodel "github.com/BollineniRohith123/nibog-platform/internal/core/datamodel/catalog"
)

type RepositoryAPI interface {
	GetCities() ([]*catalogDatamodel.City, error)
	GetCityByID(id int64) (*catalogDatamodel.City, error)
	CreateCity(city *catalogDatamodel.City) error

	GetGames() ([]*catalogDatamodel.Game, error)
	GetGameByID(id int64) (*catalogDatamodel.Game, error)
	CreateGame(game *catalogDatamodel.Game) error

	GetEvents(cityID int64) ([]*catalogDatamodel.Event, error)
	GetEventByID(id int64) (*catalogDatamodel.Event, error)
	CreateEvent(event *catalogDatamodel.Event) error
	UpdateEvent(event *catalogDatamodel.Event) error
}

type ServiceAPI interface {
	GetCities() ([]CityResponse, error)
	GetGames() ([]GameResponse, error)
	GetEvents(cityID int64) ([]EventResponse, error)
	GetEvent(id int64) (*catalogDatamodel.Event, error)
	GetEventResponse(id int64) (*EventResponse, error)
	CreateCity(req *CreateCityRequest) (*CityResponse, error)
	CreateGame(req *CreateGameRequest) (*GameResponse, error)
	CreateEvent(req *CreateEventRequest) (*EventResponse, error)
	UpdateEvent(id int64, req *UpdateEventRequest) (*EventResponse, error)
}
