package database

import (
	"exam_prep_backend/internal/config"
	"exam_prep_backend/internal/model"
	"fmt"
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Models lists every table owned or read by this service, in migration order.
func Models() []interface{} {
	return []interface{}{
		&model.Stream{},
		&model.Subject{},
		&model.Lesson{},
		&model.Topic{},
		&model.Subtopic{},
		&model.Question{},
		&model.QuestionOption{},
		&model.QuestionExplanation{},
		&model.ExamPaper{},
		&model.ExamSubmission{},
		&model.ExamAnswer{},
		&model.PracticeProgress{},
		&model.PracticeQuestionSession{},
	}
}

func dialector(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "", "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
			cfg.User,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.DBName,
			cfg.Charset,
			cfg.ParseTime,
		)
		return mysql.Open(dsn), nil
	case "postgres":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host,
			cfg.Port,
			cfg.User,
			cfg.Password,
			cfg.DBName,
			cfg.SSLMode,
		)
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(cfg.Path), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

func logLevel(mode string) logger.LogLevel {
	switch mode {
	case "debug":
		return logger.Info
	case "test":
		return logger.Silent
	default:
		return logger.Warn
	}
}

// InitDB opens the configured database. Migrations run when migrate is true.
func InitDB(cfg *config.DatabaseConfig, mode string, migrate bool) (*gorm.DB, error) {
	d, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(d, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel(mode)),
	})
	if err != nil {
		return nil, err
	}

	if cfg.Driver == "sqlite" {
		// SQLite allows one writer; a single connection also keeps ":memory:" databases shared.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if mode != "test" {
		log.Println("Database connection established")
	}

	if migrate {
		if err := db.AutoMigrate(Models()...); err != nil {
			return nil, err
		}
		if mode != "test" {
			log.Println("Database migration completed")
		}
	}

	return db, nil
}

// OpenInMemory returns a migrated in-memory SQLite database for tests and local tooling.
func OpenInMemory() (*gorm.DB, error) {
	return InitDB(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"}, "test", true)
}
