package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlxDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlxDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		if clearData {
			fmt.Println("Clearing existing data...")
			for _, table := range []string{"payment_attempts", "registrations", "events", "games", "cities", "user_permissions", "permissions", "admin_users"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
		}

		seedAdminUser(db)
		seedCatalog(db)

		fmt.Println("Seeding complete")
	},
}

func seedAdminUser(db *gorm.DB) {
	password := "password"
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	adminEmail := "admin@nibog.in"
	adminName := "NIBOG Admin"

	var exists int
	row := db.Raw("SELECT 1 FROM admin_users WHERE email = ?", adminEmail).Row()
	if err := row.Scan(&exists); err != nil {
		if err := db.Exec("INSERT INTO admin_users (email, name, password_hash, is_active, created_at, updated_at) VALUES (?, ?, ?, true, now(), now())", adminEmail, adminName, string(hash)).Error; err != nil {
			log.Fatalf("failed to insert admin user: %v", err)
		}
		fmt.Println("Seeded admin user:", adminEmail)
	} else {
		fmt.Println("admin user already exists; will ensure permissions")
	}

	permissions := []struct {
		Name string
		Desc string
	}{
		{"admin", "full administrator"},
		{"manage_catalog", "Can create and edit cities, games and events"},
		{"refund_payments", "Can refund completed payments"},
	}

	for _, p := range permissions {
		var pid int64
		row := db.Raw("SELECT id FROM permissions WHERE name = ?", p.Name).Row()
		if err := row.Scan(&pid); err != nil {
			if err := db.Exec("INSERT INTO permissions (name, description, created_at) VALUES (?, ?, now())", p.Name, p.Desc).Error; err != nil {
				log.Fatalf("failed to insert permission %s: %v", p.Name, err)
			}
		}
	}

	var adminUserID int64
	if err := db.Raw("SELECT id FROM admin_users WHERE email = ?", adminEmail).Row().Scan(&adminUserID); err != nil {
		log.Fatalf("failed to lookup admin user id: %v", err)
	}

	for _, p := range permissions {
		var pid int64
		if err := db.Raw("SELECT id FROM permissions WHERE name = ?", p.Name).Row().Scan(&pid); err != nil {
			log.Fatalf("permission not found after insert %s: %v", p.Name, err)
		}

		var exists int
		if err := db.Raw("SELECT 1 FROM user_permissions WHERE user_id = ? AND permission_id = ?", adminUserID, pid).Row().Scan(&exists); err == nil {
			continue
		}

		if err := db.Exec("INSERT INTO user_permissions (user_id, permission_id, created_at) VALUES (?, ?, now())", adminUserID, pid).Error; err != nil {
			log.Fatalf("failed to grant permission %s to admin user: %v", p.Name, err)
		}
	}

	fmt.Println("Granted all permissions to admin user:", adminEmail)
}

func seedCatalog(db *gorm.DB) {
	cities := []struct {
		Name  string
		State string
	}{
		{"Hyderabad", "Telangana"},
		{"Bengaluru", "Karnataka"},
		{"Chennai", "Tamil Nadu"},
	}

	for _, c := range cities {
		var cid int64
		if err := db.Raw("SELECT id FROM cities WHERE name = ?", c.Name).Row().Scan(&cid); err == nil {
			continue
		}
		if err := db.Exec("INSERT INTO cities (name, state, is_active, created_at, updated_at) VALUES (?, ?, true, now(), now())", c.Name, c.State).Error; err != nil {
			log.Fatalf("failed to insert city %s: %v", c.Name, err)
		}
	}

	games := []struct {
		Name     string
		MinMonth int
		MaxMonth int
	}{
		{"Baby Crawling", 5, 15},
		{"Running Race", 13, 84},
		{"Hurdle Toddle", 13, 84},
	}

	for _, g := range games {
		var gid int64
		if err := db.Raw("SELECT id FROM games WHERE name = ?", g.Name).Row().Scan(&gid); err == nil {
			continue
		}
		if err := db.Exec("INSERT INTO games (name, min_age_months, max_age_months, is_active, created_at, updated_at) VALUES (?, ?, ?, true, now(), now())", g.Name, g.MinMonth, g.MaxMonth).Error; err != nil {
			log.Fatalf("failed to insert game %s: %v", g.Name, err)
		}
	}

	var cityID, gameID int64
	if err := db.Raw("SELECT id FROM cities WHERE name = ?", "Hyderabad").Row().Scan(&cityID); err != nil {
		log.Fatalf("failed to lookup seeded city: %v", err)
	}
	if err := db.Raw("SELECT id FROM games WHERE name = ?", "Baby Crawling").Row().Scan(&gameID); err != nil {
		log.Fatalf("failed to lookup seeded game: %v", err)
	}

	eventName := "NIBOG Hyderabad Baby Crawling Championship"
	var eid int64
	if err := db.Raw("SELECT id FROM events WHERE name = ?", eventName).Row().Scan(&eid); err == nil {
		return
	}

	eventDate := time.Now().AddDate(0, 1, 0)
	if err := db.Exec(
		"INSERT INTO events (name, city_id, game_id, venue, event_date, price_paise, capacity, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, true, now(), now())",
		eventName, cityID, gameID, "Gachibowli Indoor Stadium", eventDate, int64(50000), 200,
	).Error; err != nil {
		log.Fatalf("failed to insert event: %v", err)
	}
	fmt.Println("Seeded event:", eventName)
}
