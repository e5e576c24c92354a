package configsdatabase

import (
	"time"

	"masterclass.link/configs"
	"masterclass.link/configs/configslog"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var db *gorm.DB

// Open connects to postgres with the given settings and tunes the pool.
func Open(cfg configs.DatabaseConfig, production bool) (*gorm.DB, error) {
	logLevel := logger.Warn
	if !production {
		logLevel = logger.Info
	}

	conn, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return conn, nil
}

// InitDB opens the shared connection. A failure is fatal.
func InitDB(cfg *configs.Config) {
	conn, err := Open(cfg.Database, cfg.IsProduction())
	if err != nil {
		configslog.Log.Fatal("Database connection failed", zap.Error(err))
	}
	db = conn
	configslog.SLog.Info("Database connection established")
}

// GetDB returns the connection opened by InitDB.
func GetDB() *gorm.DB {
	if db == nil {
		configslog.Log.Fatal("GetDB called before InitDB")
	}
	return db
}

func CloseDB() {
	if db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		configslog.Log.Error("Could not get sql.DB for close", zap.Error(err))
		return
	}
	if err := sqlDB.Close(); err != nil {
		configslog.Log.Error("Database close failed", zap.Error(err))
		return
	}
	configslog.SLog.Info("Database connection closed")
}
