package server

import (
	"backend/lib/ai"
	"backend/lib/authentication"
	"backend/lib/battles"
	"backend/lib/characters"
	"backend/lib/maintenance"
	"backend/lib/server/middleware"
	"backend/lib/services"
	"backend/lib/storage"
	"backend/lib/vault"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

type TextWarServer struct {
	*fiber.App
	Db           services.Database
	Cache        services.Cache
	VaultManager vault.VaultManager
	AuthService  *authentication.AuthService
	Characters   *characters.Store
	Records      *battles.RecordStore
	Selector     *battles.OpponentSelector
	Orchestrator *battles.Orchestrator
	AiClient     *ai.Client
	Storage      *storage.Client
}

func New() (*TextWarServer, error) {
	vault_manager, err := vault.NewVaultManager()
	if err != nil {
		return nil, err
	}

	server := TextWarServer{
		App:          fiber.New(),
		Db:           services.DefaultDatabase(),
		Cache:        services.DefaultCache(),
		VaultManager: vault_manager,
	}

	return &server, nil
}

func (server *TextWarServer) Configure() {
	err := maintenance.InitLogger("textwar.log")
	if err == nil {
		server.App.Use(middleware.Logger())
	}

	server.App.Use(helmet.New())
	server.App.Use(recover.New())
	server.App.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
}

// Start connects the backing services and wires every component the route
// handlers depend on. Any failure here is fatal: the server cannot run
// degraded without its database.
func (server *TextWarServer) Start() error {
	slog.Info("Starting the server")

	server.Configure()

	cache_pwd, err := server.VaultManager.GetCachePwd()
	if err != nil {
		return fmt.Errorf("cache pwd retrieval failed: %w", err)
	}
	db_pwd, err := server.VaultManager.GetDbPwd()
	if err != nil {
		return fmt.Errorf("db pwd retrieval failed: %w", err)
	}
	if err := server.Cache.Connect(cache_pwd); err != nil {
		return fmt.Errorf("cache connection failed: %w", err)
	}
	if err := server.Db.Connect(db_pwd); err != nil {
		return fmt.Errorf("db connection failed: %w", err)
	}

	server.Characters = characters.NewStore(server.Db.Pool)
	server.Records = battles.NewRecordStore(server.Db.Pool)
	server.Selector = battles.NewOpponentSelector(server.Characters)

	auth_service, err := authentication.NewAuthService(
		authentication.NewUserStore(server.Db.Pool),
		&server.VaultManager,
	)
	if err != nil {
		return fmt.Errorf("cannot build auth service: %w", err)
	}
	server.AuthService = auth_service

	ai_config, err := ai.ConfigFromEnv()
	if err != nil {
		return fmt.Errorf("cannot load ai config: %w", err)
	}
	if key, err := server.VaultManager.GetApiKey("OPENAI_API_KEY"); err == nil && key != "" {
		ai_config.APIKey = key
	}
	if ai_config.APIKey == "" {
		slog.Warn("No OpenAI api key, battle generation will degrade")
	}
	server.AiClient = ai.NewClient(ai_config)

	storage_config, err := storage.ConfigFromEnv()
	if err != nil {
		return fmt.Errorf("cannot load storage config: %w", err)
	}
	if storage_config.ServiceKey == "" {
		if key, err := server.VaultManager.GetApiKey("STORAGE_SERVICE_KEY"); err == nil {
			storage_config.ServiceKey = key
		}
	}
	server.Storage = storage.NewClient(storage_config)

	server.Orchestrator = battles.NewOrchestrator(
		server.Characters,
		server.Records,
		server.AiClient,
		server.AiClient,
		server.Storage,
	)

	server.RegisterRoutes()

	return nil
}
