package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tanzschule/internal/attendance"
	"tanzschule/internal/auth"
	"tanzschule/internal/config"
	"tanzschule/internal/httpmiddleware"
	"tanzschule/internal/queue"
	"tanzschule/internal/roster"
	"tanzschule/internal/schedule"
	"tanzschule/internal/store"
)

var togglesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "tanzschule_presence_toggles_total",
	Help: "Acknowledged presence toggles by action.",
}, []string{"action"})

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	ctx := context.Background()

	db, err := store.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return err
	}

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "tanzschule:toggles")
	}

	locale, err := schedule.ByName(cfg.WeekdayLocale)
	if err != nil {
		return err
	}

	repo := attendance.NewRepository(db.Client)
	svc := attendance.NewService(repo, locale, cfg.WeeksPast, cfg.WeeksFuture)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewWindowLimiter(cfg.RateLimitPerMin, time.Minute).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		dbHealthy := db.Client.PingContext(c.Request.Context()) == nil
		redisHealthy := redisClient.Healthy(c.Request.Context())
		status := http.StatusOK
		if !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "db": dbHealthy, "redis": redisHealthy})
	})

	r.POST("/api/login", func(c *gin.Context) {
		var req struct {
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.Password != cfg.AdminPassword {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false})
			return
		}
		token, exp, err := auth.Issue(cfg.JWTIssuer, cfg.JWTSigningKey, cfg.SessionTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success":    true,
			"token":      token,
			"expires_at": exp.Unix(),
		})
	})

	api := r.Group("/api", auth.AdminAuth(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.AdminPassword))

	api.GET("/data", func(c *gin.Context) {
		snap, err := svc.Snapshot(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, snap)
	})

	api.GET("/courses/:id/dates", func(c *gin.Context) {
		plan, err := svc.Sessions(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, plan)
	})

	api.GET("/courses/:id/checklist", func(c *gin.Context) {
		date := c.Query("date")
		rows, err := svc.Checklist(c.Request.Context(), c.Param("id"), date)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"date": date, "rows": rows})
	})

	api.POST("/attendance", func(c *gin.Context) {
		var req struct {
			CourseID      string `json:"courseId" binding:"required"`
			ParticipantID string `json:"participantId"`
			StudentID     string `json:"studentId"` // legacy client field name
			Date          string `json:"date" binding:"required"`
			Present       *bool  `json:"present" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		participantID := req.ParticipantID
		if participantID == "" {
			participantID = req.StudentID
		}
		triple := attendance.Triple{CourseID: req.CourseID, ParticipantID: participantID, Date: req.Date}
		if err := svc.SetPresence(c.Request.Context(), triple, *req.Present); err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}

		action := "unset"
		if *req.Present {
			action = "set"
		}
		togglesTotal.WithLabelValues(action).Inc()

		evt := queue.ToggleEvent{
			CourseID:      triple.CourseID,
			ParticipantID: triple.ParticipantID,
			Date:          triple.Date,
			Present:       *req.Present,
			At:            time.Now().UTC(),
		}
		if err := q.Publish(c.Request.Context(), evt); err != nil {
			log.Printf("queue publish failed: %v", err)
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	api.POST("/participant", func(c *gin.Context) {
		var req struct {
			CourseID     string               `json:"courseId" binding:"required"`
			Participants []roster.Participant `json:"participants" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		created, err := svc.AddParticipants(c.Request.Context(), req.CourseID, req.Participants)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"success": true, "participants": created})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// statusFor maps service errors onto HTTP statuses. Storage faults stay 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, attendance.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, attendance.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, schedule.ErrConfig):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Auth-Password")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
