package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"library-management/config"
	"library-management/library"
	"library-management/server"
)

func main() {
	cfg := config.Load()

	manager, err := library.NewLibraryManager(cfg.DataDir)
	if err != nil {
		log.Fatalf("open data store: %v", err)
	}
	auth := library.NewAuthManager(manager, cfg.JWTSecret, cfg.AdminUsername, cfg.AdminPassword, cfg.TokenTTL)

	srv := server.New(cfg, manager, auth)

	go func() {
		log.Printf("listening on :%s", cfg.Port)
		if err := srv.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down")
	if err := srv.Shutdown(); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
