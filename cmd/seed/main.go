// Command seed bootstraps a fresh database with the root admin account
// and baseline academic reference data. Safe to run repeatedly: existing
// rows are left alone.
package main

import (
	"log"
	"os"
	"time"

	"github.com/sahilchouksey/college-admin-api/config"
	"github.com/sahilchouksey/college-admin-api/database"
	"github.com/sahilchouksey/college-admin-api/model"
	"github.com/sahilchouksey/college-admin-api/utils/auth"
	"gorm.io/gorm"
)

func main() {
	if err := config.LoadENV(); err != nil {
		log.Printf("Warning: could not load .env: %v", err)
	}

	store, err := database.StartGORM()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	seedRootAdmin(db)
	seedPrograms(db)
	seedSession(db)

	log.Println("Seeding complete")
}

func seedRootAdmin(db *gorm.DB) {
	email := os.Getenv("SEED_ADMIN_EMAIL")
	if email == "" {
		email = "admin@college.local"
	}
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		log.Fatal("SEED_ADMIN_PASSWORD environment variable is not set")
	}

	var count int64
	if err := db.Model(&model.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		log.Fatalf("Failed to check for existing admin: %v", err)
	}
	if count > 0 {
		log.Printf("Admin %s already exists, skipping", email)
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("Failed to hash admin password: %v", err)
	}

	admin := model.User{
		Email:        email,
		PasswordHash: hash,
		Name:         "Root Administrator",
		Role:         "admin",
		IsRoot:       true,
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Fatalf("Failed to create root admin: %v", err)
	}
	log.Printf("Created root admin %s", email)
}

func seedPrograms(db *gorm.DB) {
	programs := []model.Program{
		{Name: "Master of Computer Applications", Code: "MCA", Duration: 2},
		{Name: "Bachelor of Computer Applications", Code: "BCA", Duration: 3},
		{Name: "Bachelor of Commerce", Code: "BCOM", Duration: 3},
	}

	for _, p := range programs {
		var count int64
		if err := db.Model(&model.Program{}).Where("code = ?", p.Code).Count(&count).Error; err != nil {
			log.Fatalf("Failed to check for program %s: %v", p.Code, err)
		}
		if count > 0 {
			continue
		}
		if err := db.Create(&p).Error; err != nil {
			log.Fatalf("Failed to create program %s: %v", p.Code, err)
		}
		log.Printf("Created program %s", p.Code)
	}
}

func seedSession(db *gorm.DB) {
	year := time.Now().Year()
	name := time.Date(year, 7, 1, 0, 0, 0, 0, time.UTC).Format("2006") + "-" +
		time.Date(year+1, 6, 30, 0, 0, 0, 0, time.UTC).Format("06")

	var count int64
	if err := db.Model(&model.AcademicSession{}).Where("name = ?", name).Count(&count).Error; err != nil {
		log.Fatalf("Failed to check for session %s: %v", name, err)
	}
	if count > 0 {
		return
	}

	session := model.AcademicSession{
		Name:      name,
		StartDate: time.Date(year, 7, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(year+1, 6, 30, 0, 0, 0, 0, time.UTC),
		IsCurrent: true,
	}
	if err := db.Create(&session).Error; err != nil {
		log.Fatalf("Failed to create session %s: %v", name, err)
	}
	log.Printf("Created academic session %s", name)
}
