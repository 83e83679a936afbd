package main

import (
	"log"
	"net/http"
	"os"

	"shule_transport/internal/config"
	"shule_transport/internal/controllers"
	"shule_transport/internal/logger"
	"shule_transport/internal/middleware"
	"shule_transport/internal/notify"
	"shule_transport/internal/routes"
	"shule_transport/internal/schedule"
)

func main() {
	// Initialize structured logging to file
	logger.Setup()

	// Connect to the database
	config.InitDB()

	// Notification dispatcher: 4 workers, bounded queue
	controllers.Notifier = notify.NewDispatcher(notify.LogSender{}, 4, 256)
	defer controllers.Notifier.Close()

	// Nightly expansion of rides into daily trips
	cronJobs := schedule.StartCron(config.DB)
	defer cronJobs.Stop()

	// Setup Gin router
	r := routes.SetupRouter()

	// Wrap with CORS
	handler := middleware.EnableCORS(r)

	addr := ":8080"
	if p := os.Getenv("PORT"); p != "" {
		addr = ":" + p
	}
	log.Println("🚌 Server running at " + addr)
	log.Fatal(http.ListenAndServe(addr, handler))
}
