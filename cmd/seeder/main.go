// cmd/seeder/main.go
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/tillpoint/messaging-backend/internal/db"
	"github.com/tillpoint/messaging-backend/internal/logger"
)

func main() {
	_ = godotenv.Load()
	logger.Init()
	defer logger.Sync()
	log := logger.L()

	conn, err := db.Open()
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}
	defer conn.Close()

	seedFiles := []string{
		"seed/schema.sql",
		"seed/demo_data.sql",
	}

	for _, file := range seedFiles {
		content, err := os.ReadFile(file)
		if err != nil {
			log.Fatal("read seed file", zap.String("file", file), zap.Error(err))
		}
		if _, err := conn.Exec(string(content)); err != nil {
			log.Fatal("execute seed file", zap.String("file", file), zap.Error(err))
		}
		fmt.Printf("Seeded: %s\n", file)
	}

	fmt.Println("Database seeding completed successfully!")
}
