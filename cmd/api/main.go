package main

import (
	"context"
	"errors"
	"net/http"

	"mazi-recorder/config"
	"mazi-recorder/internal/backends"
	"mazi-recorder/internal/handler"
	"mazi-recorder/internal/network"
	"mazi-recorder/internal/persistence"
	"mazi-recorder/internal/server"
	"mazi-recorder/internal/services"
	"mazi-recorder/internal/store"
	"mazi-recorder/internal/websocket"
	"mazi-recorder/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()

	log := logger.New(cfg.LogMode)
	defer log.Sync()
	logger.SetGlobalLogger(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	provider, closeProvider, err := backends.NewProvider(ctx, cfg.StoreBackend, cfg)
	if err != nil {
		log.Logger.Fatal("failed to initialise the store backend", zap.String("backend", cfg.StoreBackend), zap.Error(err))
	}
	defer func() {
		if err := closeProvider(); err != nil {
			log.Errorf("failed to close the store backend: %v", err)
		}
	}()
	log.Infof("using %s store backend", provider.Name())

	storeOpts := []store.Option{
		store.WithDebounce(cfg.PersistDebounce),
		store.WithLogger(log),
	}
	interviews := store.NewInterviewStore(ctx, provider, storeOpts...)
	defer interviews.Close()

	questions := store.NewQuestionStore(ctx, provider, storeOpts...)
	defer questions.Close()
	questions.SeedDefaults(cfg.DefaultQuestions)

	client := network.NewClient(&http.Client{}, log)
	submitter := network.NewSubmitter(client, network.SubmitterConfig{
		BaseURL:        cfg.BackendURL,
		RequestTimeout: cfg.RequestTimeout,
		UploadTimeout:  cfg.UploadTimeout,
	}, log)

	hub := websocket.NewHub()
	go hub.Run(ctx)

	publisher, closeBus, err := backends.NewEventBus(ctx, cfg, hub, hub.Broadcast, log)
	if err != nil {
		log.Logger.Fatal("failed to initialise the event bus", zap.String("bus", cfg.EventBus), zap.Error(err))
	}
	defer func() {
		if err := closeBus(); err != nil {
			log.Errorf("failed to close the event bus: %v", err)
		}
	}()

	submissions := services.NewSubmissionService(interviews, submitter, publisher, log)

	srv := server.New(cfg, log)
	srv.SetupRoutes(&server.Handlers{
		Interviews: handler.NewInterviewHandler(interviews, submissions),
		Questions:  handler.NewQuestionHandler(questions),
		Streams:    websocket.NewHandler(hub, interviews, questions, submissions, log),
	}, func(ctx context.Context) error {
		_, err := provider.Load(ctx, store.QuestionStoreKey)
		if err != nil && !errors.Is(err, persistence.ErrNotFound) {
			return err
		}
		return nil
	})

	if err := srv.Start(); err != nil {
		log.Errorf("server stopped with error: %v", err)
	}
}
