package main

import (
	"flag"

	"masterclass.link/configs"
	"masterclass.link/configs/configsdatabase"
	"masterclass.link/configs/configslog"
	"masterclass.link/database"

	"go.uber.org/zap"
)

func main() {
	configslog.InitLogger()
	defer configslog.SyncLogger()
	migrateFlag := flag.Bool("migrate", false, "run the database migrations")
	seedFlag := flag.Bool("seed", false, "run the seeders")
	flag.Parse()

	cfg := configs.Load()
	configsdatabase.InitDB(cfg)
	defer configsdatabase.CloseDB()

	err := database.Initialize(configsdatabase.GetDB(), database.Options{
		Migrate:        *migrateFlag,
		Seed:           *seedFlag,
		SeedUserEmails: cfg.SeedUserEmails,
	})
	if err != nil {
		configslog.Log.Fatal("Database initialization failed", zap.Error(err))
	}
	configslog.SLog.Info("Database initialization finished.")
}
