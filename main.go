package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	configx "github.com/metroequip/rentflow/pkg/config"
	healthx "github.com/metroequip/rentflow/pkg/health"
	llmx "github.com/metroequip/rentflow/pkg/llm"
	logx "github.com/metroequip/rentflow/pkg/logger"
	contractx "github.com/metroequip/rentflow/rental/contract"
	"github.com/metroequip/rentflow/rental/inventory"
	statex "github.com/metroequip/rentflow/rental/state"
	toolx "github.com/metroequip/rentflow/rental/tool"
	"github.com/metroequip/rentflow/rental/verify"
	"github.com/metroequip/rentflow/rental/workflow"
)

type AppConfig struct {
	InventoryBackend string `envconfig:"INVENTORY_BACKEND" default:"csv"`
	InventoryCSVPath string `envconfig:"INVENTORY_CSV_PATH" default:"data/inventory.csv"`
	VerifyBackend    string `envconfig:"VERIFY_BACKEND" default:"local"`
	StateBackend     string `envconfig:"STATE_BACKEND" default:"memory"`
}

func main() {
	logCfg := configx.MustNew[logx.Config]("LOG")
	logx.Init(*logCfg)

	appCfg := configx.MustNew[AppConfig]("")

	inv := buildInventory(appCfg)
	gateway := buildGateway(appCfg)
	store := buildStateStore(appCfg)

	// One workflow per conversation; the decision-making agent drives it
	// through the tool catalog.
	wf, err := workflow.New(
		uuid.NewString(), inv, gateway,
		workflow.WithStateStore(store),
		workflow.WithLogger(log.Logger),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("init workflow")
	}
	catalog := toolx.Catalog()
	executor := toolx.NewExecutor(wf)
	_ = executor
	log.Info().Int("tools", len(catalog)).Str("stage", string(wf.Transaction().Stage)).Msg("tool surface ready")

	llmCfg := configx.MustNew[llmx.Config]("LLM")
	if client := llmx.NewClient(*llmCfg); client == nil {
		log.Warn().Msg("no LLM api key configured; running without a decision-making agent")
	}

	healthCfg := configx.MustNew[healthx.Config]("HEALTH")
	healthSrv := healthx.NewServer(*healthCfg)
	healthSrv.Start()

	log.Info().
		Str("inventory", appCfg.InventoryBackend).
		Str("verify", appCfg.VerifyBackend).
		Str("state", appCfg.StateBackend).
		Msg("rentflow ready")

	if _, err := inv.ListAvailable(context.Background(), ""); err != nil {
		log.Warn().Err(err).Msg("inventory store is not readable")
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := healthSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server shutdown")
	}
}

func buildInventory(cfg *AppConfig) contractx.InventoryStore {
	switch cfg.InventoryBackend {
	case "postgres":
		pgCfg := configx.MustNew[inventory.PostgresConfig]("INVENTORY_POSTGRES")
		store, err := inventory.NewPostgresStore(*pgCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("init postgres inventory")
		}
		return store
	case "memory":
		return inventory.NewMemoryStore(nil)
	default:
		return inventory.NewCSVStore(cfg.InventoryCSVPath)
	}
}

func buildGateway(cfg *AppConfig) contractx.VerificationGateway {
	if cfg.VerifyBackend == "http" {
		httpCfg := configx.MustNew[verify.HTTPConfig]("VERIFY")
		gw, err := verify.NewHTTPGateway(*httpCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("init verification gateway")
		}
		return gw
	}
	return verify.NewDirectoryGateway(nil)
}

func buildStateStore(cfg *AppConfig) statex.Store {
	if cfg.StateBackend == "redis" {
		redisCfg := configx.MustNew[statex.RedisConfig]("UPSTASH_REDIS")
		store, err := statex.NewUpstashRedisStore(*redisCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("init redis state store")
		}
		return store
	}
	return statex.NewMemoryStore()
}
