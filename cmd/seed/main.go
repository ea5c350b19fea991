package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/qs3c/coa_server/config"
	"github.com/qs3c/coa_server/internal/database"
	"github.com/qs3c/coa_server/internal/model"
	"github.com/qs3c/coa_server/internal/repository"
)

var (
	dryRun  = flag.Bool("dry-run", false, "Only print the codes, don't write to database")
	migrate = flag.Bool("migrate", true, "Run auto migration before seeding")
)

func main() {
	flag.Parse()

	log.Println("Starting seed task...")
	log.Printf("Mode: dry-run=%v", *dryRun)

	codes := model.DefaultCodes()
	if *dryRun {
		byType := make(map[string][]string)
		for _, c := range codes {
			byType[c.Type] = append(byType[c.Type], c.Name)
		}
		for _, t := range []string{model.CodeTypeLanguage, model.CodeTypeFramework, model.CodeTypeJob} {
			log.Printf("%s (%d): %s", t, len(byType[t]), strings.Join(byType[t], ", "))
		}
		log.Println("DRY RUN MODE - nothing was written")
		return
	}

	// 加载配置
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if *migrate {
		if err := database.AutoMigrate(db); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
		log.Println("Database migrated")
	}

	created, err := repository.NewCodeRepository(db).CreateMissing(codes)
	if err != nil {
		log.Fatalf("Failed to seed codes: %v", err)
	}
	log.Printf("Seed completed: %d codes total, %d created", len(codes), created)
}
