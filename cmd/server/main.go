package main

import (
	"log"

	"stockroom-backend/internal/config"
	"stockroom-backend/internal/database"
	"stockroom-backend/internal/server"
)

func main() {
	cfg := config.Load()
	db := database.Init(cfg)

	app := server.New(db, cfg)

	log.Println("Server listening on port", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
