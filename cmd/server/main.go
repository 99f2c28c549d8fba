package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dhanavadh/eldercare-backend/internal"
	"github.com/dhanavadh/eldercare-backend/internal/captcha"
	"github.com/dhanavadh/eldercare-backend/internal/cms"
	"github.com/dhanavadh/eldercare-backend/internal/config"
	"github.com/dhanavadh/eldercare-backend/internal/handlers"
	"github.com/dhanavadh/eldercare-backend/internal/logging"
	"github.com/dhanavadh/eldercare-backend/internal/mail"
	"github.com/dhanavadh/eldercare-backend/internal/services"
	"github.com/dhanavadh/eldercare-backend/internal/sheets"
	"github.com/dhanavadh/eldercare-backend/internal/sitemap"
	"github.com/dhanavadh/eldercare-backend/internal/storage"
	"github.com/dhanavadh/eldercare-backend/internal/webhook"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}
	logging.Setup(cfg.Log)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	deps := services.RelayDeps{}
	h := handlers.Handlers{AdminToken: cfg.Server.AdminToken}

	if cfg.Database.Enabled() {
		db, err := internal.OpenDB(cfg)
		if err != nil {
			log.Fatal("Failed to initialize database: ", err)
		}
		defer internal.CloseDB(db)

		submissionLog := services.NewSubmissionLog(db)
		deps.Recorder = submissionLog
		h.Submissions = handlers.NewFormHandler(submissionLog)
	} else {
		log.Info("DB_HOST not set, submission audit log disabled")
	}

	if cfg.GCS.BucketName != "" {
		gcsClient, err := storage.NewGCSClient(cfg.GCS.BucketName, cfg.GCS.CredentialsPath, cfg.GCS.Public)
		if err != nil {
			log.Fatal("Failed to initialize GCS client: ", err)
		}
		defer gcsClient.Close()
		log.Info("GCS client initialized successfully")

		attachments := services.NewAttachmentService(gcsClient, cfg.Server.BaseURL)
		deps.Files = attachments
		h.Files = handlers.NewUploadHandler(attachments)
	} else {
		log.Warn("GCS_BUCKET_NAME not set, submissions with attachments will be rejected")
	}

	if cfg.Sheets.Configured() {
		sheetsClient, err := sheets.NewClient(context.Background(), cfg.Sheets.CredentialsPath, cfg.Sheets.CredentialsJSON)
		if err != nil {
			log.Fatal("Failed to initialize Google Sheets client: ", err)
		}
		deps.Sheets = sheetsClient
	} else {
		log.Warn("Google Sheets credentials not set, form submissions will fail")
	}

	if cfg.Captcha.Configured() {
		deps.Verifier = captcha.NewVerifier(cfg.Captcha.SecretKey, cfg.Captcha.VerifyURL, nil)
	}

	if notifier := mail.NewNotifier(cfg.Mail); notifier.Enabled() {
		deps.Notifier = notifier
	}

	h.Submit = handlers.NewSubmitHandler(services.NewRelay(deps))

	cmsClient := cms.NewClient(cfg.CMS)
	if !cmsClient.IsConfigured() {
		log.Warn("CMS_PROJECT_ID not set, content routes will answer 503")
	}
	h.Content = handlers.NewContentHandler(cmsClient)

	routes, err := sitemap.LoadRoutes(cfg.Site.RoutesFile)
	if err != nil {
		log.Fatal("Failed to load sitemap routes: ", err)
	}
	h.Sitemap = handlers.NewSitemapHandler(sitemap.NewBuilder(cfg.Site.URL, routes, cmsClient))

	var revalidator handlers.Revalidator
	if cfg.Webhook.CanRevalidate() {
		revalidator = webhook.NewRevalidator(cfg.Webhook.RevalidateURL, cfg.Webhook.RevalidateToken, nil)
	} else {
		log.Info("REVALIDATE_URL not set, webhooks will be verified without revalidation")
	}
	h.Webhook = handlers.NewWebhookHandler(cfg.Webhook.Secret, revalidator)

	r := gin.New()
	r.Use(logging.RequestLogger(), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.AllowOrigins
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	r.Use(cors.New(corsConfig))

	handlers.Register(r, h)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("Server starting on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed: ", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server shutdown failed")
	}
}
