package api

import (
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/felicity-portal/felicity-api/docs"
	v1 "github.com/felicity-portal/felicity-api/internal/api/handler/v1"
	"github.com/felicity-portal/felicity-api/internal/api/middleware"
	"github.com/felicity-portal/felicity-api/internal/config"
	"github.com/felicity-portal/felicity-api/internal/notify"
	"github.com/felicity-portal/felicity-api/internal/repository"
	"github.com/felicity-portal/felicity-api/internal/repository/dao"
	"github.com/felicity-portal/felicity-api/internal/service"
)

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine
}

func NewServer(conf *config.AppConfig, db *gorm.DB) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
	}

	s.MountMiddlewares()

	authHandler := s.initAuthHandler(db)
	userHandler := s.initUserHandler(db)
	adminHandler := s.initAdminHandler(db)
	eventHandler := s.initEventHandler(db)
	registrationHandler := s.initRegistrationHandler(db)
	s.MountHandlers(authHandler, userHandler, adminHandler, eventHandler, registrationHandler)

	return s
}

func (s *Server) initAuthHandler(db *gorm.DB) *v1.AuthHandler {
	userDAO := dao.NewUserDAO(db)
	repo := repository.NewUserRepository(userDAO)
	svc := service.NewAuthService(repo)
	handler := v1.NewAuthHandler(s.Config.API, svc)

	return handler
}

func (s *Server) initUserHandler(db *gorm.DB) *v1.UserHandler {
	userDAO := dao.NewUserDAO(db)
	repo := repository.NewUserRepository(userDAO)
	svc := service.NewUserService(repo)
	handler := v1.NewUserHandler(svc)

	return handler
}

func (s *Server) initAdminHandler(db *gorm.DB) *v1.AdminHandler {
	userDAO := dao.NewUserDAO(db)
	repo := repository.NewUserRepository(userDAO)
	svc := service.NewAuthService(repo)
	uSvc := service.NewUserService(repo)
	handler := v1.NewAdminHandler(svc, uSvc)

	return handler
}

func (s *Server) initEventHandler(db *gorm.DB) *v1.EventHandler {
	eventRepo := repository.NewEventRepository(dao.NewEventDAO(db))
	userRepo := repository.NewUserRepository(dao.NewUserDAO(db))
	svc := service.NewEventService(eventRepo, userRepo, notify.NewDiscordNotifier())
	uSvc := service.NewUserService(userRepo)
	handler := v1.NewEventHandler(svc, uSvc)

	return handler
}

func (s *Server) initRegistrationHandler(db *gorm.DB) *v1.RegistrationHandler {
	regRepo := repository.NewRegistrationRepository(dao.NewRegistrationDAO(db))
	eventRepo := repository.NewEventRepository(dao.NewEventDAO(db))
	userRepo := repository.NewUserRepository(dao.NewUserDAO(db))
	svc := service.NewRegistrationService(regRepo, eventRepo, userRepo, notify.NewMailer(s.Config.SMTP))
	uSvc := service.NewUserService(userRepo)
	handler := v1.NewRegistrationHandler(svc, uSvc)

	return handler
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(
	authHandler *v1.AuthHandler,
	userHandler *v1.UserHandler,
	adminHandler *v1.AdminHandler,
	eventHandler *v1.EventHandler,
	registrationHandler *v1.RegistrationHandler,
) {
	const basePath = "/api/v1"

	auth := s.Router.Group(basePath)
	{
		auth.POST("/auth/signup", authHandler.HandleSignup)
		auth.POST("/auth/login", authHandler.HandleLogin)
	}

	authed := s.Router.Group(basePath, middleware.NewAuthenticator(s.Config.API.JWTSigningKey).VerifyJWT())
	{
		authed.GET("/users/me", userHandler.HandleGetMe)
		authed.PUT("/users/me", userHandler.HandleUpdateMe)

		authed.GET("/admin/organisers", adminHandler.HandleListOrganisers)
		authed.POST("/admin/organisers", adminHandler.HandleCreateOrganiser)
		authed.PUT("/admin/organisers/:organiserID/password", adminHandler.HandleResetOrganiserPassword)
		authed.DELETE("/admin/organisers/:organiserID", adminHandler.HandleDeleteOrganiser)

		authed.GET("/events", eventHandler.HandleListEvents)
		authed.GET("/events/:eventID", eventHandler.HandleGetEvent)
		authed.POST("/events", eventHandler.HandleCreateEvent)
		authed.PUT("/events/:eventID", eventHandler.HandleUpdateEvent)
		authed.PUT("/events/:eventID/status", eventHandler.HandleUpdateEventStatus)
		authed.DELETE("/events/:eventID", eventHandler.HandleDeleteEvent)
		authed.GET("/events/:eventID/registrations", registrationHandler.HandleListEventRegistrations)

		authed.POST("/registrations/:eventID", registrationHandler.HandleRegister)
		authed.DELETE("/registrations/:registrationID", registrationHandler.HandleCancel)
		authed.GET("/registrations/history", registrationHandler.HandleHistory)
		authed.PUT("/registrations/review/:registrationID", registrationHandler.HandleReviewOrder)
		authed.PUT("/registrations/attendance", registrationHandler.HandleAttendance)
	}

	s.Router.GET("/", v1.HandleHealthcheck)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "Felicity Portal API"
	docs.SwaggerInfo.Description = "Event management backend for the Felicity university fest."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
