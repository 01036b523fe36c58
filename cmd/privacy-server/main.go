package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/moltbook/privacy/internal/server"
	"github.com/moltbook/privacy/internal/storage"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	store, err := newBlobStore()
	if err != nil {
		log.Fatalf("Failed to initialize blob store: %v", err)
	}

	adapter := storage.NewAdapter(store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := server.New(adapter)
	srv.StartWorkers(ctx)

	httpSrv := &http.Server{Addr: ":" + port, Handler: srv}

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutting down...")
		cancel()
		httpSrv.Shutdown(context.Background())
	}()

	fmt.Printf("privacy-server running on http://localhost:%s\n", port)
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}

// newBlobStore builds the BlobStore backing the server: an S3 bucket when
// PRIVACY_S3_BUCKET is set, otherwise an in-memory store suitable only
// for local development.
func newBlobStore() (storage.BlobStore, error) {
	bucket := os.Getenv("PRIVACY_S3_BUCKET")
	if bucket == "" {
		log.Println("PRIVACY_S3_BUCKET not set, using an in-memory blob store (data will not survive a restart)")
		return storage.NewMemoryStore(), nil
	}

	cfg := storage.S3Config{
		Region:       envOrDefault("PRIVACY_S3_REGION", "us-east-1"),
		Bucket:       bucket,
		BaseEndpoint: os.Getenv("PRIVACY_S3_ENDPOINT"),
		AccessKey:    os.Getenv("PRIVACY_S3_ACCESS_KEY"),
		SecretKey:    os.Getenv("PRIVACY_S3_SECRET_KEY"),
	}
	return storage.NewS3Store(context.Background(), cfg)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
