package postgres

import (
	"gorm.io/gorm"

	catalogpkg "github.com/BollineniRohith123/nibog-platform/internal/catalog"
	"github.com/BollineniRohith123/nibog-platform/internal/core/datamodel/catalog"
)

type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) catalogpkg.RepositoryAPI {
	return &CatalogRepository{
		db: db,
	}
}

func (r *CatalogRepository) GetCities() ([]*catalog.City, error) {
	var cities []*catalog.City
	err := r.db.Order("name ASC").Find(&cities).Error
	return cities, err
}

func (r *CatalogRepository) GetCityByID(id int64) (*catalog.City, error) {
	var city catalog.City
	err := r.db.First(&city, id).Error
	if err != nil {
		return nil, err
	}
	return &city, nil
}

func (r *CatalogRepository) CreateCity(city *catalog.City) error {
	return r.db.Create(city).Error
}

func (r *CatalogRepository) GetGames() ([]*catalog.Game, error) {
	var games []*catalog.Game
	err := r.db.Order("name ASC").Find(&games).Error
	return games, err
}

func (r *CatalogRepository) GetGameByID(id int64) (*catalog.Game, error) {
	var game catalog.Game
	err := r.db.First(&game, id).Error
	if err != nil {
		return nil, err
	}
	return &game, nil
}

func (r *CatalogRepository) CreateGame(game *catalog.Game) error {
	return r.db.Create(game).Error
}

func (r *CatalogRepository) GetEvents(cityID int64) ([]*catalog.Event, error) {
	var events []*catalog.Event
	query := r.db.Order("event_date ASC")
	if cityID > 0 {
		query = query.Where("city_id = ?", cityID)
	}
	err := query.Find(&events).Error
	return events, err
}

func (r *CatalogRepository) GetEventByID(id int64) (*catalog.Event, error) {
	var event catalog.Event
	err := r.db.First(&event, id).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *CatalogRepository) CreateEvent(event *catalog.Event) error {
	return r.db.Create(event).Error
}

func (r *CatalogRepository) UpdateEvent(event *catalog.Event) error {
	return r.db.Save(event).Error
}
