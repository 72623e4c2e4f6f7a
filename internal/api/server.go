package api

import (
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/yizeng/gab/gin/gorm/loto-api/docs"
	v1 "github.com/yizeng/gab/gin/gorm/loto-api/internal/api/handler/v1"
	"github.com/yizeng/gab/gin/gorm/loto-api/internal/api/middleware"
	"github.com/yizeng/gab/gin/gorm/loto-api/internal/config"
	"github.com/yizeng/gab/gin/gorm/loto-api/internal/pkg/qrcode"
	"github.com/yizeng/gab/gin/gorm/loto-api/internal/repository"
	"github.com/yizeng/gab/gin/gorm/loto-api/internal/repository/dao"
	"github.com/yizeng/gab/gin/gorm/loto-api/internal/service"
)

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine
}

// NewServer wires the handlers. rdb may be nil, in which case ticket
// submissions are not rate limited.
func NewServer(conf *config.AppConfig, db *gorm.DB, rdb *redis.Client) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
	}

	s.MountMiddlewares()

	roundHandler := s.initRoundHandler(db)
	ticketHandler := s.initTicketHandler(db)
	s.MountHandlers(roundHandler, ticketHandler, s.submissionLimiter(rdb))

	return s
}

func (s *Server) storeOptions() []dao.Option {
	return []dao.Option{
		dao.WithTxTimeout(s.Config.Store.TxTimeout),
		dao.WithMaxRetries(s.Config.Store.MaxRetries),
	}
}

func (s *Server) initRoundHandler(db *gorm.DB) *v1.RoundHandler {
	roundDAO := dao.NewRoundDAO(db, s.storeOptions()...)
	repo := repository.NewRoundRepository(roundDAO)
	svc := service.NewRoundService(repo)
	handler := v1.NewRoundHandler(svc)

	return handler
}

func (s *Server) initTicketHandler(db *gorm.DB) *v1.TicketHandler {
	ticketDAO := dao.NewTicketDAO(db, s.storeOptions()...)
	repo := repository.NewTicketRepository(ticketDAO)
	svc := service.NewTicketService(repo, qrcode.NewEncoder(qrcode.DefaultSize), s.Config.API.FrontendURL, nil)
	handler := v1.NewTicketHandler(svc)

	return handler
}

func (s *Server) submissionLimiter(rdb *redis.Client) middleware.Limiter {
	if rdb == nil || s.Config.RateLimit.SubmissionsPerMinute <= 0 {
		return nil
	}

	return middleware.NewRedisLimiter(rdb, "tickets", s.Config.RateLimit.SubmissionsPerMinute, time.Minute)
}

func (s *Server) MountMiddlewares() {
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.NewString()
	})))
	s.Router.Use(middleware.RequestLogger())
	s.Router.Use(middleware.HTTPMetrics())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(roundHandler *v1.RoundHandler, ticketHandler *v1.TicketHandler, limiter middleware.Limiter) {
	const basePath = "/api/v1"

	authenticator := middleware.NewAuthenticator(s.Config.API.JWTSigningKey)

	rounds := s.Router.Group(basePath)
	{
		rounds.GET("/rounds/current", roundHandler.HandleGetCurrentRound)
		rounds.GET("/rounds/latest-drawn", roundHandler.HandleGetLatestDrawn)
	}

	operator := s.Router.Group(basePath, middleware.VerifyMachine(s.Config.API.MachineSigningKey, s.Config.API.MachineAudience))
	{
		operator.POST("/rounds/open", roundHandler.HandleOpenRound)
		operator.POST("/rounds/close", roundHandler.HandleCloseRound)
		operator.POST("/rounds/publish", roundHandler.HandlePublishResults)
	}

	tickets := s.Router.Group(basePath)
	{
		tickets.GET("/tickets/:ticketID", ticketHandler.HandleGetTicket)
		tickets.GET("/tickets/:ticketID/qr", ticketHandler.HandleGetTicketQR)
	}

	users := s.Router.Group(basePath, authenticator.VerifyJWT())
	{
		users.POST("/tickets", middleware.LimitSubmissions(limiter), ticketHandler.HandleSubmitTicket)
		users.GET("/auth/profile", v1.HandleGetProfile)
	}

	s.Router.GET("/", v1.HandleHealthcheck)
	s.Router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "API for loto-api"
	docs.SwaggerInfo.Description = "Lottery rounds and ticket admission."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
