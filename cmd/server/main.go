package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/tillpoint/messaging-backend/internal/controller"
	"github.com/tillpoint/messaging-backend/internal/db"
	"github.com/tillpoint/messaging-backend/internal/logger"
	"github.com/tillpoint/messaging-backend/internal/provider"
	"github.com/tillpoint/messaging-backend/internal/queue"
	"github.com/tillpoint/messaging-backend/internal/repository"
	"github.com/tillpoint/messaging-backend/internal/service"
)

func main() {
	// Missing .env is fine; production reads the OS environment.
	_ = godotenv.Load()
	logger.Init()
	defer logger.Sync()
	log := logger.L()

	conn, err := db.Open()
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}
	defer conn.Close()

	// Event bus: AMQP when configured, otherwise in-process.
	var events queue.Queue
	if url := os.Getenv("AMQP_URL"); url != "" {
		amqpQueue, err := queue.DialAMQP(url)
		if err != nil {
			log.Fatal("amqp", zap.Error(err))
		}
		defer amqpQueue.Close()
		events = amqpQueue
		log.Info("publishing delivery events to amqp")
	} else {
		events = queue.NewInMemoryQueue()
		log.Info("no AMQP_URL set, delivery events stay in-process")
	}

	// Channel providers. A nil provider is a configured no-op.
	dispatcher := provider.Dispatcher{}
	if sms := provider.NewSMSGatewayFromEnv(); sms != nil {
		dispatcher.SMS = sms
		log.Info("sms gateway configured")
	}
	email, err := provider.NewSESSenderFromEnv(context.Background())
	if err != nil {
		log.Fatal("ses", zap.Error(err))
	}
	if email != nil {
		dispatcher.Email = email
		log.Info("ses email sender configured")
	}

	tenantRepo := &repository.TenantRepository{DB: conn}
	clientRepo := &repository.ClientRepository{DB: conn}
	templateRepo := &repository.TemplateRepository{DB: conn}
	workflowRepo := &repository.WorkflowRepository{DB: conn}
	queueRepo := &repository.QueueRepository{DB: conn}
	broadcastRepo := &repository.BroadcastRepository{DB: conn}
	segmentRepo := &repository.SegmentRepository{DB: conn}
	waiverRepo := &repository.WaiverRepository{DB: conn}

	workflowService := &service.WorkflowService{
		Workflows: workflowRepo,
		Templates: templateRepo,
		Clients:   clientRepo,
		Tenants:   tenantRepo,
		Queue:     queueRepo,
	}
	queueService := &service.QueueService{
		Entries:   queueRepo,
		Clients:   clientRepo,
		Providers: dispatcher,
		Events:    events,
	}
	audienceService := &service.AudienceService{
		Clients:  clientRepo,
		Segments: segmentRepo,
	}
	broadcastService := &service.BroadcastService{
		Broadcasts:  broadcastRepo,
		Templates:   templateRepo,
		Waivers:     waiverRepo,
		Tenants:     tenantRepo,
		Audience:    audienceService,
		Providers:   dispatcher,
		Events:      events,
		PacingDelay: pacingDelay(),
	}

	workflowController := &controller.WorkflowController{WorkflowService: workflowService}
	templateController := &controller.TemplateController{WorkflowService: workflowService}
	queueController := &controller.QueueController{QueueService: queueService}
	broadcastController := &controller.BroadcastController{BroadcastService: broadcastService}
	segmentController := &controller.SegmentController{AudienceService: audienceService}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/tenants/{tenantID}", func(r chi.Router) {
		r.Get("/workflows", workflowController.ListWorkflows)
		r.Post("/workflows", workflowController.CreateWorkflow)
		r.Post("/workflows/trigger", workflowController.Trigger)
		r.Get("/workflows/{id}", workflowController.GetWorkflow)
		r.Put("/workflows/{id}", workflowController.UpdateWorkflow)
		r.Delete("/workflows/{id}", workflowController.DeleteWorkflow)
		r.Post("/workflows/{id}/enroll", workflowController.Enroll)

		r.Get("/templates", templateController.ListTemplates)
		r.Post("/templates", templateController.CreateTemplate)
		r.Put("/templates/{id}", templateController.UpdateTemplate)
		r.Delete("/templates/{id}", templateController.DeleteTemplate)

		r.Get("/queue", queueController.ListQueue)
		r.Post("/queue/{id}/send", queueController.SendEntry)
		r.Post("/queue/{id}/skip", queueController.SkipEntry)

		r.Get("/broadcasts", broadcastController.ListBroadcasts)
		r.Post("/broadcasts", broadcastController.CreateBroadcast)
		r.Get("/broadcasts/{id}", broadcastController.GetBroadcast)
		r.Put("/broadcasts/{id}", broadcastController.UpdateBroadcast)
		r.Delete("/broadcasts/{id}", broadcastController.DeleteBroadcast)
		r.Get("/broadcasts/{id}/messages", broadcastController.ListBroadcastMessages)
		r.Get("/broadcasts/{id}/preview", broadcastController.PreviewBroadcast)
		r.Post("/broadcasts/{id}/send", broadcastController.SendBroadcast)

		r.Get("/tags", segmentController.ListTags)
		r.Get("/segments", segmentController.ListSegments)
	})

	addr := ":" + envOr("PORT", "8080")
	log.Info("server running", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatal("listen", zap.Error(err))
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// pacingDelay reads SEND_PACING_MS; the gap between consecutive broadcast
// dispatches. Defaults to 200ms.
func pacingDelay() time.Duration {
	ms := envOr("SEND_PACING_MS", "200")
	d, err := time.ParseDuration(ms + "ms")
	if err != nil {
		return 200 * time.Millisecond
	}
	return d
}
