package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/qlikfox/qlikfox/pkg/config"
	"github.com/qlikfox/qlikfox/pkg/handlers"
	"github.com/qlikfox/qlikfox/pkg/logging"
	"github.com/qlikfox/qlikfox/pkg/mcp"
	"github.com/qlikfox/qlikfox/pkg/mcp/tools"
	"github.com/qlikfox/qlikfox/pkg/modeler"
	"github.com/qlikfox/qlikfox/pkg/models"
	"github.com/qlikfox/qlikfox/pkg/qlik"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("bind_addr", cfg.BindAddr),
		zap.String("port", cfg.Port),
		zap.String("tenant_url", cfg.Tenant.URL),
		zap.String("destination_path", cfg.Modeler.DestinationPath))

	scopeValidator, err := modeler.NewScopeValidator()
	if err != nil {
		logger.Fatal("failed to load scope rules", zap.Error(err))
	}

	store := modeler.NewStore(models.BuildConfig{
		DestinationPath:  cfg.Modeler.DestinationPath,
		CalendarLanguage: cfg.Modeler.CalendarLanguage,
		DateFormat:       cfg.Modeler.DateFormat,
	}, logger)
	analyzer := modeler.NewAnalyzer(logger)
	fragments := modeler.NewFragmentSet()

	mcpServer := mcp.NewServer("qlikfox", cfg.Version, logger)

	tools.RegisterHealthTool(mcpServer.MCP(), cfg.Version, cfg.Tenant.URL != "")
	tools.RegisterScopeTool(mcpServer.MCP(), scopeValidator, logger)
	tools.RegisterModelerTools(mcpServer.MCP(), &tools.ModelerToolDeps{
		Store:     store,
		Analyzer:  analyzer,
		Fragments: fragments,
		Logger:    logger,
	})

	// Platform tools are only available when a tenant is configured.
	if cfg.Tenant.URL != "" {
		client := qlik.NewClient(cfg.Tenant.URL, cfg.Tenant.APIKey,
			time.Duration(cfg.Tenant.TimeoutSeconds)*time.Second, logger)
		tools.RegisterAppTools(mcpServer.MCP(), client)
		tools.RegisterSpaceTools(mcpServer.MCP(), client)
		tools.RegisterReloadTools(mcpServer.MCP(), client, logger)
		tools.RegisterAutomationTools(mcpServer.MCP(), client, logger)
		tools.RegisterCatalogTools(mcpServer.MCP(), client)
	} else {
		logger.Warn("QLIK_TENANT_URL not set; tenant tools disabled")
	}

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewMCPHandler(mcpServer, logger, cfg.MCPBearerKey).RegisterRoutes(mux)

	addr := fmt.Sprintf("%s:%s", cfg.BindAddr, cfg.Port)
	logger.Info("starting qlikfox", zap.String("addr", addr), zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}
