package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yungbote/queueflow-backend/internal/data/db"
	"github.com/yungbote/queueflow-backend/internal/platform/envutil"
	"github.com/yungbote/queueflow-backend/internal/platform/logger"
	"github.com/yungbote/queueflow-backend/internal/seed"
)

func main() {
	var path string
	var dryRun bool
	var migrate bool
	flag.StringVar(&path, "f", "seed.yaml", "seed file to apply")
	flag.BoolVar(&dryRun, "dry-run", false, "validate the seed file without touching the database")
	flag.BoolVar(&migrate, "migrate", true, "run migrations before seeding")
	flag.Parse()

	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		fmt.Printf("init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	f, err := seed.Load(path)
	if err != nil {
		log.Error("invalid seed file", "path", path, "error", err)
		os.Exit(1)
	}
	if dryRun {
		log.Info("seed file is valid", "path", path, "branches", len(f.Branches), "super_admins", len(f.SuperAdmins))
		return
	}

	pg, err := db.NewPostgresService(db.PostgresConfigFromEnv(), log)
	if err != nil {
		log.Error("connect postgres", "error", err)
		os.Exit(1)
	}
	defer pg.Close()
	if migrate {
		if err := pg.AutoMigrateAll(); err != nil {
			log.Error("migrate", "error", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sum, err := seed.NewSeeder(pg.DB(), log).Apply(ctx, f)
	if err != nil {
		log.Error("seed failed", "path", path, "error", err)
		os.Exit(1)
	}
	fmt.Println(sum.String())
}
