package database

import (
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// APIKey represents the api_keys table
type APIKey struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Key       string     `gorm:"unique;not null" json:"key"`
	Name      string     `gorm:"not null" json:"name"`
	RateLimit int        `gorm:"default:10000" json:"rate_limit"`
	CreatedAt time.Time  `json:"created_at"`
	LastUsed  *time.Time `json:"last_used"`
}

// APIUsage represents the api_usage table
type APIUsage struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	KeyID          uint   `gorm:"uniqueIndex:idx_key_date;not null" json:"key_id"`
	Date           string `gorm:"uniqueIndex:idx_key_date;not null" json:"date"`
	RequestCount   int    `gorm:"default:0" json:"request_count"`
	TotalTasks     int    `gorm:"default:0" json:"total_tasks"`
	TotalEmployees int    `gorm:"default:0" json:"total_employees"`
}

// ScheduleRun is the persisted audit record of one orchestration run:
// outcome, quality, and serialized step metadata for observability.
// Not required for correctness; failures to write it never fail a run.
type ScheduleRun struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	RunID        string    `gorm:"uniqueIndex;not null" json:"run_id"`
	Date         string    `gorm:"index" json:"date"`
	Strategy     string    `json:"strategy"`
	QualityScore float64   `json:"quality_score"`
	Degraded     bool      `json:"degraded"`
	Rejected     bool      `json:"rejected"`
	Assignments  int       `json:"assignments"`
	Warnings     int       `json:"warnings"`
	StepsJSON    string    `gorm:"type:text" json:"steps_json"`
	CreatedAt    time.Time `json:"created_at"`
}

// MasterUser represents the master_users table
type MasterUser struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"unique;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// InitDB initializes the database connection and migrates the schema
func InitDB() *gorm.DB {
	var db *gorm.DB
	var err error

	dsn := os.Getenv("DATABASE_URL")
	if dsn != "" {
		db, err = gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt: false,
		})
	} else {
		dbPath := os.Getenv("DATA_PATH")
		if dbPath == "" {
			dbPath = "scheduler.db"
		}
		db, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	}

	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	db.AutoMigrate(&APIKey{}, &APIUsage{}, &ScheduleRun{}, &MasterUser{})

	return db
}
