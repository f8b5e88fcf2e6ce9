package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-records-api/internal/models"
	"github.com/noah-isme/sma-records-api/internal/repository"
	"github.com/noah-isme/sma-records-api/internal/schema"
	"github.com/noah-isme/sma-records-api/internal/service"
	"github.com/noah-isme/sma-records-api/pkg/config"
	"github.com/noah-isme/sma-records-api/pkg/database"
	"github.com/noah-isme/sma-records-api/pkg/logger"
)

func main() {
	var (
		seed      = flag.Bool("seed", true, "seed default subjects and grading bands")
		printOnly = flag.Bool("print", false, "print the DDL instead of applying it")
		tokenRole = flag.String("token-role", "", "issue a development access token for this role and exit")
		tokenUser = flag.String("token-user", "dev", "user id carried by the development token")
		tokenTTL  = flag.Duration("token-ttl", 12*time.Hour, "lifetime of the development token")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if *tokenRole != "" {
		if cfg.Env == config.EnvProduction {
			log.Fatal("development tokens are disabled in production")
		}
		tokens := service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})
		token, err := tokens.IssueToken(models.Caller{UserID: *tokenUser, Role: models.UserRole(*tokenRole)}, *tokenTTL)
		if err != nil {
			log.Fatalf("failed to issue token: %v", err)
		}
		fmt.Println(token)
		return
	}

	layout, err := schema.NewLayout(cfg.Records.SubjectCodes)
	if err != nil {
		log.Fatalf("invalid subject layout: %v", err)
	}
	statements := layout.ProvisionSQL()
	if *printOnly {
		for _, stmt := range statements {
			fmt.Fprintf(os.Stdout, "%s;\n\n", stmt)
		}
		return
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := repository.NewSchemaRepository(db).Apply(ctx, statements); err != nil {
		logr.Fatal("provisioning failed", zap.Error(err))
	}
	logr.Info("schema provisioned", zap.Int("statements", len(statements)), zap.Int("subjects", len(layout.Subjects())))

	if !*seed {
		return
	}
	if err := repository.NewSubjectRepository(db).Seed(ctx, service.DefaultSubjects()); err != nil {
		logr.Fatal("seeding subjects failed", zap.Error(err))
	}
	bands := repository.NewGradingBandRepository(db)
	n, err := bands.Count(ctx)
	if err != nil {
		logr.Fatal("counting grading bands failed", zap.Error(err))
	}
	if n == 0 {
		if err := bands.Replace(ctx, service.DefaultGradingBands()); err != nil {
			logr.Fatal("seeding grading bands failed", zap.Error(err))
		}
	}
	logr.Info("reference data seeded", zap.Bool("grading_bands_seeded", n == 0))
}
