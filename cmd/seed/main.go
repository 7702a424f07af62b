package main

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"campusshuttle/internal/config"
	"campusshuttle/internal/database"
	"campusshuttle/internal/domain"
	jwtsvc "campusshuttle/internal/pkg/jwt"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := database.Migrate(db); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	// Cleanup old data (children first to keep FKs happy)
	log.Println("Cleaning old data...")
	db.Exec("DELETE FROM notifications")
	db.Exec("DELETE FROM bookings")
	db.Exec("DELETE FROM shuttles")
	db.Exec("DELETE FROM student_profiles")
	db.Exec("DELETE FROM driver_profiles")
	db.Exec("DELETE FROM admin_profiles")
	db.Exec("DELETE FROM users")

	log.Println("Creating users...")

	admin := domain.User{
		Name:  "Transport Office",
		Email: "admin@campus.edu",
		Role:  domain.RoleAdmin,
		Admin: &domain.AdminProfile{AdminLevel: 2, Department: "Transport"},
	}
	if err := admin.SetPassword("admin123"); err != nil {
		log.Fatal(err)
	}
	db.Create(&admin)
	log.Println("Admin created: admin@campus.edu / admin123")

	students := make([]domain.User, 0, 3)
	for i, name := range []string{"Aliya Serik", "Bekzat Nur", "Dina Akhmet"} {
		s := domain.User{
			Name:        name,
			Email:       fmt.Sprintf("student%d@campus.edu", i+1),
			PhoneNumber: fmt.Sprintf("+7 777 123 45%02d", i+10),
			Role:        domain.RoleStudent,
			Student:     &domain.StudentProfile{StudentNumber: fmt.Sprintf("2023%04d", i+1)},
		}
		if err := s.SetPassword("student123"); err != nil {
			log.Fatal(err)
		}
		db.Create(&s)
		students = append(students, s)
	}

	drivers := make([]domain.User, 0, 2)
	for i, name := range []string{"Marat Yessen", "Dastan Kairat"} {
		d := domain.User{
			Name:        name,
			Email:       fmt.Sprintf("driver%d@campus.edu", i+1),
			PhoneNumber: fmt.Sprintf("+7 701 555 01%02d", i+20),
			Role:        domain.RoleDriver,
			Driver: &domain.DriverProfile{
				LicenseNumber: fmt.Sprintf("KZ-DL-%05d", i+31337),
				IsApproved:    true,
				IsAvailable:   true,
			},
		}
		if err := d.SetPassword("driver123"); err != nil {
			log.Fatal(err)
		}
		db.Create(&d)
		drivers = append(drivers, d)
	}

	log.Println("Creating shuttles...")
	routes := []struct {
		name, route string
		capacity    int
	}{
		{"Campus Loop A", "Main Gate - Library - Dorms", 14},
		{"Campus Loop B", "Dorms - Science Block - Stadium", 14},
		{"Night Express", "Main Gate - Dorms", 8},
	}
	for i, r := range routes {
		sh := domain.Shuttle{
			Name:           r.name,
			Capacity:       r.capacity,
			AvailableSeats: r.capacity,
			Route:          r.route,
			IsActive:       true,
		}
		if i < len(drivers) {
			sh.DriverID = &drivers[i].ID
		}
		db.Create(&sh)
	}

	// Development tokens so the API is usable without a login flow.
	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTAccessTTL)
	printToken := func(u domain.User) {
		token, err := j.GenerateToken(u.ID, string(u.Role))
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("%-8s %-22s %s", u.Role, u.Email, token)
	}

	log.Println("Seed completed. Development tokens:")
	printToken(admin)
	for _, s := range students {
		printToken(s)
	}
	for _, d := range drivers {
		printToken(d)
	}
}
