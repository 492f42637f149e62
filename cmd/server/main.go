package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/edudiario/escola-api/api/swagger"
	"github.com/edudiario/escola-api/internal/handler"
	"github.com/edudiario/escola-api/internal/middleware"
	"github.com/edudiario/escola-api/internal/models"
	"github.com/edudiario/escola-api/internal/repository"
	"github.com/edudiario/escola-api/internal/service"
	"github.com/edudiario/escola-api/pkg/cache"
	"github.com/edudiario/escola-api/pkg/config"
	"github.com/edudiario/escola-api/pkg/database"
	"github.com/edudiario/escola-api/pkg/logger"
	corsmiddleware "github.com/edudiario/escola-api/pkg/middleware/cors"
	reqidmiddleware "github.com/edudiario/escola-api/pkg/middleware/requestid"
)

// @title Escola Diario API
// @version 1.0.0
// @description School diary service: class groups, subjects, grade entry and role dashboards.
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Dashboard.CacheEnabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
			redisClient = nil
		}
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	router := buildRouter(cfg, logr, db, redisClient)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := router.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func buildRouter(cfg *config.Config, logr *zap.Logger, db *sqlx.DB, redisClient *redis.Client) *gin.Engine {
	validate := validator.New()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	managerRepo := repository.NewManagerRepository(db)
	classGroupRepo := repository.NewClassGroupRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	gradeRepo := repository.NewGradeRepository(db)

	var cacheService *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheService = service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.CacheEnabled)
	} else {
		cacheService = service.NewCacheService(nil, metrics, cfg.Dashboard.CacheTTL, logr, false)
	}

	authService := service.NewAuthService(userRepo, teacherRepo, studentRepo, managerRepo, validate, logr, service.AuthServiceConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		ResetTokenTTL:      cfg.Auth.ResetTokenTTL,
		Issuer:             cfg.JWT.Issuer,
		SingleSession:      cfg.Auth.SingleSession,
	})
	teacherService := service.NewTeacherService(teacherRepo, validate, logr)
	studentService := service.NewStudentService(studentRepo, classGroupRepo, validate, logr)
	managerService := service.NewManagerService(managerRepo, validate, logr)
	classGroupService := service.NewClassGroupService(classGroupRepo, validate, logr)
	subjectService := service.NewSubjectService(subjectRepo, teacherRepo, classGroupRepo, validate, logr)
	gradeService := service.NewGradeService(gradeRepo, subjectRepo, studentRepo, metrics, logr)
	dashboardService := service.NewDashboardService(teacherRepo, studentRepo, classGroupRepo, subjectRepo, managerRepo, gradeRepo, cacheService, cfg.Dashboard.CacheTTL, logr)
	profileService := service.NewProfileService(userRepo, teacherRepo, studentRepo, managerRepo, validate, logr)

	authHandler := handler.NewAuthHandler(authService)
	teacherHandler := handler.NewTeacherHandler(teacherService)
	studentHandler := handler.NewStudentHandler(studentService)
	managerHandler := handler.NewManagerHandler(managerService)
	classGroupHandler := handler.NewClassGroupHandler(classGroupService)
	subjectHandler := handler.NewSubjectHandler(subjectService)
	gradeHandler := handler.NewGradeHandler(gradeService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)
	profileHandler := handler.NewProfileHandler(profileService)
	diaryHandler := handler.NewDiaryHandler()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Public endpoints.
	r.POST("/login", authHandler.Login)
	r.POST("/token/refresh", authHandler.Refresh)
	r.POST("/senha/resetar", authHandler.ForgotPassword)
	r.POST("/senha/resetar/confirmar", authHandler.ResetPassword)
	r.GET("/diario", diaryHandler.List)
	r.GET("/diario/:slug", diaryHandler.Page)

	auth := r.Group("", middleware.JWT(authService))

	auth.POST("/logout", authHandler.Logout)

	auth.GET("/perfil", profileHandler.Get)
	auth.PUT("/perfil", profileHandler.Update)
	auth.POST("/perfil/senha", profileHandler.ChangePassword)

	auth.GET("/painel", dashboardHandler.Entry)
	auth.GET("/painel/super", middleware.RequireRoles(models.RoleAdmin), dashboardHandler.Admin)
	auth.GET("/painel/professor", middleware.RequireRoles(models.RoleTeacher), dashboardHandler.Teacher)
	auth.GET("/painel/aluno", middleware.RequireRoles(models.RoleStudent), dashboardHandler.Student)
	auth.GET("/painel/gestor", middleware.RequireRoles(models.RoleManager), dashboardHandler.Manager)

	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	adminOrManager := middleware.RequireRoles(models.RoleAdmin, models.RoleManager)

	auth.GET("/professores", adminOnly, teacherHandler.List)
	auth.GET("/professores/:id", adminOnly, teacherHandler.Get)
	auth.POST("/professores", adminOnly, teacherHandler.Create)
	auth.PUT("/professores/:id", adminOnly, teacherHandler.Update)
	auth.DELETE("/professores/:id", adminOnly, teacherHandler.Delete)

	auth.GET("/alunos", adminOrManager, studentHandler.List)
	auth.GET("/alunos/:id", adminOrManager, studentHandler.Get)
	auth.POST("/alunos", adminOnly, studentHandler.Create)
	auth.PUT("/alunos/:id", adminOnly, studentHandler.Update)
	auth.DELETE("/alunos/:id", adminOnly, studentHandler.Delete)

	auth.GET("/gestores", adminOrManager, managerHandler.List)
	auth.GET("/gestores/:id", adminOrManager, managerHandler.Get)
	auth.POST("/gestores", middleware.Authorize(middleware.Policy{
		Roles:              []models.Role{models.RoleAdmin, models.RoleManager},
		SeniorManagersOnly: true,
	}), managerHandler.Create)
	auth.PUT("/gestores/:id", middleware.Authorize(middleware.Policy{
		Roles:     []models.Role{models.RoleAdmin, models.RoleManager},
		AllowSelf: true,
	}), managerHandler.Update)
	auth.DELETE("/gestores/:id", middleware.Authorize(middleware.Policy{
		Roles:              []models.Role{models.RoleAdmin, models.RoleManager},
		SeniorManagersOnly: true,
	}), managerHandler.Delete)

	auth.GET("/turmas", adminOnly, classGroupHandler.List)
	auth.GET("/turmas/:id", adminOnly, classGroupHandler.Get)
	auth.POST("/turmas", adminOnly, classGroupHandler.Create)
	auth.PUT("/turmas/:id", adminOnly, classGroupHandler.Update)
	auth.DELETE("/turmas/:id", adminOnly, classGroupHandler.Delete)

	auth.GET("/disciplinas", subjectHandler.List)
	auth.GET("/disciplinas/:id", subjectHandler.Get)
	auth.POST("/disciplinas", adminOnly, subjectHandler.Create)
	auth.PUT("/disciplinas/:id", adminOnly, subjectHandler.Update)
	auth.DELETE("/disciplinas/:id", adminOnly, subjectHandler.Delete)

	teacherOrAdmin := middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher)
	auth.GET("/lancar-nota/:disciplinaID", teacherOrAdmin, gradeHandler.Sheet)
	auth.POST("/lancar-nota/:disciplinaID", teacherOrAdmin, gradeHandler.Submit)
	auth.GET("/lancar-nota/:disciplinaID/exportar", teacherOrAdmin, gradeHandler.Export)

	return r
}
