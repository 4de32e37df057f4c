package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"wedding-rsvp/internal/config"
	"wedding-rsvp/internal/handler"
	"wedding-rsvp/internal/notifier"
	"wedding-rsvp/internal/storage"
	"wedding-rsvp/internal/whatsapp"
)

func main() {
	cfg := config.LoadConfig()
	log := zerolog.New(os.Stdout).With().Timestamp().Str("component", "Endpoint").Logger()

	store, err := storage.Open(cfg.StoreDriver, cfg.StorePath, cfg.SheetName)
	if err != nil {
		fmt.Printf("Error initializing storage: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if len(os.Args) > 1 && os.Args[1] == "rows" {
		if err := printRows(store); err != nil {
			fmt.Printf("Error reading sheet: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Println("🎉 Wedding RSVP Endpoint")
	fmt.Println("========================")

	var host notifier.Notifier
	var wa *whatsapp.Service
	if cfg.WhatsAppEnabled && cfg.WhatsAppHostPhone != "" {
		wa, err = connectWhatsApp(cfg)
		if err != nil {
			fmt.Printf("Error initializing WhatsApp service: %v\n", err)
			os.Exit(1)
		}
		host = whatsapp.NewHostNotifier(wa, cfg.WhatsAppHostPhone)
	}

	rsvpHandler := handler.NewRSVPHandler(store, host, log)
	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      handler.NewServer(rsvpHandler, log),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Str("store", cfg.StoreDriver).Str("sheet", cfg.SheetName).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Server error")
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	fmt.Println("\n\nShutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	rsvpHandler.Wait()
	if wa != nil {
		wa.Disconnect()
	}
	fmt.Println("Goodbye! 👋")
}

func connectWhatsApp(cfg *config.Config) (*whatsapp.Service, error) {
	if err := os.MkdirAll(cfg.WhatsAppDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	log := zerolog.New(os.Stdout).With().Timestamp().Str("component", "WhatsApp").Logger()
	service, err := whatsapp.NewService(context.Background(), &whatsapp.Config{DataDir: cfg.WhatsAppDataDir}, log)
	if err != nil {
		return nil, err
	}

	fmt.Println("Connecting to WhatsApp...")
	if err := service.Connect(context.Background()); err != nil {
		return nil, err
	}
	fmt.Printf("✅ Connected to WhatsApp! New RSVPs will be forwarded to %s\n", cfg.WhatsAppHostPhone)
	return service, nil
}

func printRows(store storage.Store) error {
	rows, err := store.Rows(context.Background())
	if err != nil {
		return err
	}
	if len(rows) <= 1 {
		fmt.Println("\nNo RSVPs found.")
		return nil
	}

	header, rows := rows[0], rows[1:]
	fmt.Printf("\n📋 All RSVPs (%d total):\n", len(rows))
	fmt.Println(strings.Repeat("-", 60))
	for _, row := range rows {
		for i, cell := range row {
			if i < len(header) && cell != "" {
				fmt.Printf("%s: %s\n", header[i], cell)
			}
		}
		fmt.Println(strings.Repeat("-", 60))
	}
	return nil
}
