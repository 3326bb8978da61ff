package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/cors"

	"github.com/stowpoint/mono-repo/backend/services/facility-service/internal/app"
	"github.com/stowpoint/mono-repo/backend/services/facility-service/internal/config"
	"github.com/stowpoint/mono-repo/backend/services/facility-service/internal/services"
	"github.com/stowpoint/mono-repo/backend/shared/go-utils"
)

func main() {
	utils.InitLogger(config.AppName)
	cfg := config.LoadConfig()
	defer cfg.Close()

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize application:", err)
	}
	defer application.Close()

	if cfg.LDFlag_SeedDbWithTestAccounts {
		if err := app.SeedAllTestAccounts(app.NewDemoRepos(application.DB), cfg.DefaultAdminPassword); err != nil {
			utils.Logger.Fatal("Failed to seed test accounts:", err)
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	router := app.NewRouter(app.RouterOptions{
		Repos: app.NewRepos(application.DB),
		Policy: services.Policy{
			AllowMoveOutWithBalance: cfg.LDFlag_AllowMoveOutWithBalance,
			TenantRetention:         cfg.TenantRetention,
		},
		Health:           application,
		Registry:         registry,
		PrivateKey:       cfg.RSAPrivateKey,
		PublicKey:        cfg.RSAPublicKey,
		TokenExpiry:      cfg.TokenExpiry,
		APIKey:           cfg.APIKey,
		ServiceActorID:   cfg.ServiceActorID,
		CORSHighSecurity: cfg.LDFlag_CORSHighSecurity,
	})

	allowedOrigins := []string{cfg.AppUrl}
	if !cfg.LDFlag_CORSHighSecurity {
		allowedOrigins = append(allowedOrigins, utils.CORSLowSecurityAllowedOriginLocalhost)
	}

	co := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-API-Key"},
		AllowCredentials: true,
	})

	utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
	if err := http.ListenAndServe(":"+cfg.AppPort, co.Handler(router)); err != nil {
		utils.Logger.Fatal("Failed to start server:", err)
	}
}
