package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"coursechat-backend/internal/api"
	"coursechat-backend/internal/config"
	"coursechat-backend/internal/crypto"
	"coursechat-backend/internal/handlers"
	"coursechat-backend/internal/providers"
	"coursechat-backend/internal/services"
	"coursechat-backend/internal/store/kv"
	"coursechat-backend/internal/tokenizer"
)

func main() {
	log.Println("Starting CourseChat Backend...")

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	log.Println("Configuration loaded successfully.")

	// 2. Connect to the course store
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Printf("WARN: Redis at %s is not reachable yet: %v", cfg.Redis.Addr, err)
	} else {
		log.Println("Redis connection established.")
	}
	pingCancel()
	courseStore := kv.NewRedisStore(rdb)

	// 3. Credential resolver and tokenizer
	resolver, err := crypto.NewKeyResolver(cfg.SigningSecret)
	if err != nil {
		log.Fatalf("FATAL: Failed to create key resolver: %v", err)
	}
	counter, err := tokenizer.New(cfg.TokenEncoding)
	if err != nil {
		log.Fatalf("FATAL: Failed to load tokenizer %s: %v", cfg.TokenEncoding, err)
	}
	log.Printf("Tokenizer %s loaded.", cfg.TokenEncoding)

	// 4. Provider adapters. One client per server; no request deadline so
	// long streams are not cut, only dial and header waits are bounded.
	httpClient := &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			ResponseHeaderTimeout: cfg.Providers.Timeout,
			IdleConnTimeout:       90 * time.Second,
			MaxIdleConnsPerHost:   16,
		},
	}
	registry := providers.NewRegistry()
	registry.Register(providers.NewOpenAI(httpClient))
	registry.Register(providers.NewAzure(providers.AzureDefaults{
		Endpoint:   cfg.Providers.AzureEndpoint,
		Deployment: cfg.Providers.AzureDeployment,
		APIVersion: cfg.Providers.AzureAPIVersion,
	}, httpClient))
	registry.Register(providers.NewAnthropic("", httpClient))
	registry.Register(providers.NewOllama(cfg.Providers.OllamaServerURL, httpClient))
	registry.Register(providers.NewNCSAHosted(cfg.Providers.NCSAHostedServerURL, httpClient))
	registry.Register(providers.NewVLLM(cfg.Providers.VLLMServerURL, httpClient))
	registry.Register(providers.NewWebLLM())
	if missing := registry.Missing(); len(missing) > 0 {
		log.Fatalf("FATAL: No adapter registered for providers: %v", missing)
	}
	defaults := cfg.Providers.Defaults()

	// 5. Services and handlers
	chatService := services.NewChatService(services.ChatDependencies{
		Store:                courseStore,
		Registry:             registry,
		Resolver:             resolver,
		Counter:              counter,
		Defaults:             defaults,
		ResponseTokenReserve: cfg.Providers.ResponseTokenReserve,
	})
	log.Println("ChatService initialized.")
	modelsService := services.NewModelsService(services.ModelsDependencies{
		Store:    courseStore,
		Registry: registry,
		Resolver: resolver,
		Defaults: defaults,
	})
	log.Println("ModelsService initialized.")

	router := api.NewRouter(api.RouterDependencies{
		ChatHandler:   handlers.NewChatHandlers(chatService),
		ModelsHandler: handlers.NewModelsHandler(modelsService),
		Config:        cfg,
	})
	log.Println("HTTP router configured.")

	// 6. Configure and Start HTTP Server
	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      0, // chat responses stream for as long as the model generates
		IdleTimeout:       120 * time.Second,
	}

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting and listening on port %s", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: Could not listen on %s: %v\n", cfg.HTTPPort, err)
		}
		log.Println("Server listener routine stopped.")
	}()

	<-stopChan
	log.Println("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("WARN: Server graceful shutdown failed: %v", err)
		log.Fatal("Forcing shutdown due to error.")
	}

	log.Println("Server shutdown complete.")
}
