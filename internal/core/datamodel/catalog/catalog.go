package catalog

import "time"

type City struct {
	ID        int64     `gorm:"primaryKey"`
	Name      string    `gorm:"column:name;not null;uniqueIndex"`
	State     string    `gorm:"column:state"`
	IsActive  bool      `gorm:"column:is_active;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt time.Time `gorm:"column:updated_at;default:now()"`
}

func (City) TableName() string {
	return "cities"
}

type Game struct {
	ID           int64     `gorm:"primaryKey"`
	Name         string    `gorm:"column:name;not null"`
	Description  string    `gorm:"column:description"`
	MinAgeMonths int       `gorm:"column:min_age_months"`
	MaxAgeMonths int       `gorm:"column:max_age_months"`
	IsActive     bool      `gorm:"column:is_active;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt    time.Time `gorm:"column:updated_at;default:now()"`
}

func (Game) TableName() string {
	return "games"
}

// Event is a scheduled game in a city. PricePaise is the authoritative amount
// for every payment attempt against a registration of this event.
type Event struct {
	ID         int64     `gorm:"primaryKey"`
	CityID     int64     `gorm:"column:city_id;not null;index"`
	GameID     int64     `gorm:"column:game_id;not null;index"`
	Name       string    `gorm:"column:name;not null"`
	Venue      string    `gorm:"column:venue"`
	EventDate  time.Time `gorm:"column:event_date"`
	PricePaise int64     `gorm:"column:price_paise;not null"`
	Capacity   int       `gorm:"column:capacity;default:0"`
	IsActive   bool      `gorm:"column:is_active;default:true"`
	CreatedAt  time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt  time.Time `gorm:"column:updated_at;default:now()"`
}

func (Event) TableName() string {
	return "events"
}
