package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"wedding-backend/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func mysqlDSNFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	user := u.User.Username()
	pass, _ := u.User.Password()
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "3306"
	}

	dbName := strings.TrimPrefix(u.Path, "/")
	if dbName == "" {
		return "", fmt.Errorf("mysql url missing database name")
	}

	q := u.Query()
	if q.Get("charset") == "" {
		q.Set("charset", "utf8mb4")
	}
	if q.Get("parseTime") == "" {
		q.Set("parseTime", "True")
	}
	if q.Get("loc") == "" {
		q.Set("loc", "Local")
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?%s", user, pass, host, port, dbName, q.Encode()), nil
}

func resolveMySQLDSN() (string, error) {
	raw := strings.TrimSpace(os.Getenv("MYSQL_URL"))
	if raw == "" {
		raw = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}

	if raw != "" {
		if strings.HasPrefix(raw, "mysql://") {
			return mysqlDSNFromURL(raw)
		}
		return raw, nil
	}

	user := EnvOrDefault("DB_USER", "root")
	pass := os.Getenv("DB_PASS")
	host := EnvOrDefault("DB_HOST", "127.0.0.1")
	port := EnvOrDefault("DB_PORT", "3306")
	dbName := EnvOrDefault("DB_NAME", "wedding_db")

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, pass, host, port, dbName,
	), nil
}

// SeedDemoGuests inserts a handful of invite codes for local development.
// Only runs against an empty guests table.
func SeedDemoGuests() {
	var guestCount int64
	DB.Model(&models.GuestRecord{}).Count(&guestCount)
	if guestCount > 0 {
		log.Println("Guests already present, skipping demo seed")
		return
	}

	guests := []models.GuestRecord{
		{RecordID: "demo-0001", Code: "AB12", Name: "Ana Rivera", PlusOneAllowed: true, Attendance: models.AttendancePending},
		{RecordID: "demo-0002", Code: "CD34", Name: "Luis Ortiz", PlusOneAllowed: false, Attendance: models.AttendancePending},
		{RecordID: "demo-0003", Code: "EF56", Name: "María García", PlusOneAllowed: true, PlusOneName: "José García", Attendance: models.AttendancePending},
	}
	if err := DB.Create(&guests).Error; err != nil {
		log.Printf("warning: failed to seed demo guests: %v", err)
		return
	}
	log.Println("Demo guests seeded")
}

// ConnectDatabase opens the MySQL connection, runs migrations and sets
// config.DB.
func ConnectDatabase(seedDemo bool) error {
	dsn, err := resolveMySQLDSN()
	if err != nil {
		return err
	}

	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Warn,
			Colorful:      true,
		},
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: newLogger})
	if err != nil {
		return err
	}

	DB = db

	if err := DB.AutoMigrate(
		&models.GuestRecord{},
		&models.KVRecord{},
	); err != nil {
		return err
	}

	if seedDemo {
		SeedDemoGuests()
	}
	return nil
}
