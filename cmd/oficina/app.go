package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/oficina-avance/oficina/internal/auth"
	"github.com/oficina-avance/oficina/internal/config"
	"github.com/oficina-avance/oficina/internal/handlers"
	"github.com/oficina-avance/oficina/internal/migrations"
	"github.com/oficina-avance/oficina/internal/models"
	"github.com/oficina-avance/oficina/internal/services"
	"github.com/oficina-avance/oficina/internal/storage"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// App структура для управления приложением и его зависимостями.
type App struct {
	cfg      *config.Config
	log      *zap.Logger
	dbPool   *pgxpool.Pool
	redis    *redis.Client
	sessions auth.SessionStore
	echo     *echo.Echo
}

// routeHandlers - обработчики, между которыми распределяется таблица маршрутов.
type routeHandlers struct {
	users      *handlers.UserHandler
	clients    *handlers.ClientHandler
	vehicles   *handlers.VehicleHandler
	workOrders *handlers.WorkOrderHandler
	health     *handlers.HealthHandler
}

// NewApp создаёт и инициализирует новое приложение.
func NewApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	app := &App{
		cfg: cfg,
		log: log,
	}

	policy, err := models.ParseTransitionPolicy(cfg.TransitionPolicy)
	if err != nil {
		return nil, err
	}

	if err := app.initDatabase(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := app.initSessions(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize session store: %w", err)
	}

	h, err := app.initDependencies(ctx, policy)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	app.echo = newServer(cfg, log, app.sessions, h)

	return app, nil
}

// initDatabase выполняет миграции и открывает пул соединений.
func (app *App) initDatabase(ctx context.Context) error {
	if app.cfg.DatabaseURI == "" {
		return fmt.Errorf("DATABASE_URI is required")
	}

	app.log.Info("running database migrations")
	sqlDB, err := sql.Open("pgx", app.cfg.DatabaseURI)
	if err != nil {
		return fmt.Errorf("unable to open database connection: %w", err)
	}
	defer sqlDB.Close()

	if err := migrations.Run(sqlDB, app.log); err != nil {
		return err
	}
	if version, err := migrations.Version(sqlDB); err == nil {
		app.log.Info("migrations completed", zap.Int64("version", version))
	}

	dbPool, err := pgxpool.New(ctx, app.cfg.DatabaseURI)
	if err != nil {
		return fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		dbPool.Close()
		return fmt.Errorf("unable to ping database: %w", err)
	}

	app.dbPool = dbPool
	app.log.Info("connected to database")

	return nil
}

// initSessions выбирает хранилище отозванных сессий: Redis, если задан адрес,
// иначе память процесса.
func (app *App) initSessions(ctx context.Context) error {
	if app.cfg.RedisAddr == "" {
		app.log.Warn("REDIS_ADDR is not configured, revoked sessions are kept in memory")
		app.sessions = auth.NewInMemorySessionStore()
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     app.cfg.RedisAddr,
		Password: app.cfg.RedisPassword,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("unable to ping redis at %s: %w", app.cfg.RedisAddr, err)
	}

	app.redis = client
	app.sessions = auth.NewRedisSessionStore(client)
	app.log.Info("session store connected", zap.String("redis", app.cfg.RedisAddr))
	return nil
}

// initDependencies собирает storage, сервисы и обработчики.
func (app *App) initDependencies(ctx context.Context, policy models.TransitionPolicy) (routeHandlers, error) {
	// Storage layer
	userStorage := storage.NewPostgresUserStorage(app.dbPool)
	clientStorage := storage.NewPostgresClientStorage(app.dbPool)
	vehicleStorage := storage.NewPostgresVehicleStorage(app.dbPool)
	workOrderStorage := storage.NewPostgresWorkOrderStorage(app.dbPool)

	// Service layer
	userService := services.NewUserService(userStorage, app.sessions, app.cfg.JWTSecret, app.cfg.TokenExpiration)
	clientService := services.NewClientService(clientStorage)
	vehicleService := services.NewVehicleService(vehicleStorage)
	workOrderService := services.NewWorkOrderService(app.dbPool, workOrderStorage, policy, app.log.Named("work_orders"))

	if app.cfg.AdminConfigured() {
		if err := userService.EnsureAdmin(ctx, app.cfg.AdminName, app.cfg.AdminEmail, app.cfg.AdminPassword); err != nil {
			return routeHandlers{}, fmt.Errorf("failed to bootstrap admin: %w", err)
		}
		app.log.Info("admin account ensured", zap.String("email", app.cfg.AdminEmail))
	}
	app.log.Info("work order transition policy", zap.String("policy", string(policy)))

	// Handler layer
	return routeHandlers{
		users:      handlers.NewUserHandler(userService, app.cfg.TokenExpiration, app.log),
		clients:    handlers.NewClientHandler(clientService, app.log),
		vehicles:   handlers.NewVehicleHandler(vehicleService, app.log),
		workOrders: handlers.NewWorkOrderHandler(workOrderService, app.log),
		health:     handlers.NewHealthHandler(app.dbPool, app.log),
	}, nil
}

// newServer создаёт HTTP-сервер и настраивает маршруты.
func newServer(cfg *config.Config, log *zap.Logger, sessions auth.SessionStore, h routeHandlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handlers.NewRequestValidator()

	// Middleware
	e.Use(middleware.Recover())
	e.Use(requestLogger(log))
	e.Use(middleware.Gzip())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))

	// Публичные маршруты
	e.GET("/health", h.health.Health)
	e.POST("/api/login", h.users.Login)

	// Защищённые маршруты
	api := e.Group("/api")
	api.Use(auth.JWTMiddleware(cfg.JWTSecret, sessions))
	api.POST("/logout", h.users.Logout)
	api.GET("/me", h.users.Me)

	users := api.Group("/users", auth.RequireRoles(models.RoleSysAdmin))
	users.GET("", h.users.List)
	users.POST("", h.users.Create)
	users.PUT("/:id", h.users.Update)
	users.PATCH("/:id/password", h.users.ChangePassword)

	clientEditors := auth.RequireRoles(auth.ClientEditors...)
	api.GET("/clients", h.clients.List)
	api.POST("/clients", h.clients.Create, clientEditors)
	api.PUT("/clients/:id", h.clients.Update, clientEditors)
	api.DELETE("/clients/:id", h.clients.Delete, clientEditors)

	vehicleEditors := auth.RequireRoles(auth.VehicleEditors...)
	api.GET("/vehicles", h.vehicles.List)
	api.POST("/vehicles", h.vehicles.Create, vehicleEditors)
	api.PUT("/vehicles/:id", h.vehicles.Update, vehicleEditors)
	api.DELETE("/vehicles/:id", h.vehicles.Delete, vehicleEditors)

	orderEditors := auth.RequireRoles(auth.WorkOrderEditors...)
	api.GET("/work-orders", h.workOrders.List)
	api.GET("/work-orders/:id", h.workOrders.Show)
	api.POST("/work-orders", h.workOrders.Create, auth.RequireRoles(auth.WorkOrderOpeners...))
	api.PATCH("/work-orders/:id/status", h.workOrders.SetStatus, orderEditors)
	api.PUT("/work-orders/:id/details", h.workOrders.UpdateDetails, orderEditors)
	api.POST("/work-orders/:id/services", h.workOrders.AddService, orderEditors)
	api.POST("/work-orders/:id/parts", h.workOrders.AddPart, orderEditors)

	return e
}

// requestLogger пишет каждый запрос в zap.
func requestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			switch {
			case v.Status >= http.StatusInternalServerError:
				log.Error("request", fields...)
			default:
				log.Info("request", fields...)
			}
			return nil
		},
	})
}

// Start запускает HTTP-сервер и блокируется до его остановки.
func (app *App) Start() error {
	app.log.Info("starting server", zap.String("address", app.cfg.RunAddress))
	if err := app.echo.Start(app.cfg.RunAddress); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}

// Shutdown корректно завершает работу приложения.
func (app *App) Shutdown(ctx context.Context) error {
	app.log.Info("shutting down server")

	if err := app.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.log.Warn("failed to close redis client", zap.Error(err))
		}
	}
	if app.dbPool != nil {
		app.dbPool.Close()
	}

	app.log.Info("server gracefully stopped")
	return nil
}
