package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/wizbi/wizbi/internal/app"
	"github.com/wizbi/wizbi/internal/config"
	"github.com/wizbi/wizbi/internal/database/firestore"
	"github.com/wizbi/wizbi/internal/gcp"
	"github.com/wizbi/wizbi/internal/github"
	"github.com/wizbi/wizbi/internal/logger"
	"github.com/wizbi/wizbi/internal/secrets"
	"github.com/wizbi/wizbi/internal/server"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the provisioning API server and saga workers",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServer(cmd.Context())
	},
}

func runServer(parent context.Context) error {
	cfg := config.MustLoadServer()
	log := logger.Initialize(cfg.GetEnvironment(), cfg.GetLogLevel())

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fsClient, err := firestore.NewClient(ctx, cfg.FirestoreProject, cfg.FirestoreDatabase)
	if err != nil {
		return fmt.Errorf("connect to firestore: %w", err)
	}
	defer fsClient.Close()

	projectRepo := firestore.NewProjectRepository(fsClient, log)
	orgRepo := firestore.NewOrganizationRepository(fsClient, log)
	eventRepo := firestore.NewEventRepository(fsClient, log)
	jobRepo := firestore.NewJobRepository(fsClient, log)

	secretClient, err := secrets.NewClient(ctx, cfg.FirestoreProject)
	if err != nil {
		return fmt.Errorf("create secret manager client: %w", err)
	}
	secretCache := secrets.NewCache(secretClient)

	token, err := secretCache.Get(ctx, cfg.GitHubTokenSecret)
	if err != nil {
		return fmt.Errorf("fetch github token: %w", err)
	}
	ghClient := github.NewClient(ctx, string(token), cfg.GitHubOwner, log)

	clients, err := gcp.NewDefaultServiceClients(ctx)
	if err != nil {
		return fmt.Errorf("create gcp service clients: %w", err)
	}
	provisioner := gcp.NewProvisioner(clients, gcp.ProvisionerConfig{
		Region:            cfg.GCPRegion,
		BillingAccount:    cfg.BillingAccount,
		ProvisionerMember: cfg.ProvisionerMember,
		GitHubOwner:       cfg.GitHubOwner,
	}, log)

	svc := app.NewService(projectRepo, orgRepo, eventRepo, jobRepo, provisioner, ghClient, secretCache, cfg, log)
	router := server.NewRouter(svc)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return svc.RunWorkers(gctx, cfg.WorkerCount)
	})

	g.Go(func() error {
		log.Info("starting provisioning server", "addr", httpServer.Addr, "workers", cfg.WorkerCount)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("server stopped")
	return nil
}
