package web

import (
	"context"
	"embed"
	"io"
	"net"
	"net/http"
	"strconv"

	"puntibot/config"
	"puntibot/logger"
	"puntibot/util/common"
	"puntibot/web/controller"
	"puntibot/web/job"
	"puntibot/web/locale"
	"puntibot/web/service"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
)

//go:embed translation/*
var i18nFS embed.FS

type Server struct {
	httpServer *http.Server
	listener   net.Listener

	index *controller.IndexController

	scoreboardService *service.ScoreboardService
	serverService     service.ServerService
	tgbotService      *service.Tgbot

	cron *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc
}

func NewServer() *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *Server) initRouter() (*gin.Engine, error) {
	if config.IsDebug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.DefaultWriter = io.Discard
		gin.DefaultErrorWriter = io.Discard
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.Default()

	// init i18n
	err := locale.InitLocalizer(i18nFS, config.GetTgLang())
	if err != nil {
		return nil, err
	}

	g := engine.Group("/")

	s.index = controller.NewIndexController(g)

	return engine, nil
}

func (s *Server) startTask() {
	// sample the calendar day every minute, well under the day boundary
	s.cron.AddJob("@every 1m", job.NewDailyReportJob(s.scoreboardService, s.tgbotService))

	// check CPU load and alarm the chat if a threshold is configured
	cpuThreshold := config.GetCpuThreshold()
	if cpuThreshold > 0 {
		s.cron.AddJob("@every 10s", job.NewCheckCpuJob(s.scoreboardService, s.tgbotService, cpuThreshold))
	}
}

func (s *Server) Start() (err error) {
	defer func() {
		if err != nil {
			s.Stop()
		}
	}()

	s.scoreboardService = service.NewScoreboardService()
	s.tgbotService = service.NewTgbot(s.scoreboardService, &s.serverService)

	s.cron = cron.New()
	s.cron.Start()

	engine, err := s.initRouter()
	if err != nil {
		return err
	}

	listenAddr := net.JoinHostPort("", strconv.Itoa(config.GetPort()))
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}
	s.listener = listener
	logger.Info("Keep-alive server running HTTP on", listener.Addr())

	s.httpServer = &http.Server{
		Handler: engine,
	}

	go func() {
		s.httpServer.Serve(listener)
	}()

	err = s.tgbotService.Start(i18nFS)
	if err != nil {
		return err
	}

	s.startTask()

	return nil
}

func (s *Server) Stop() error {
	s.cancel()
	if s.cron != nil {
		s.cron.Stop()
	}
	if s.tgbotService != nil && s.tgbotService.IsRunning() {
		s.tgbotService.Stop()
	}
	var err1 error
	var err2 error
	if s.httpServer != nil {
		err1 = s.httpServer.Shutdown(s.ctx)
	}
	if s.listener != nil {
		err2 = s.listener.Close()
	}
	return common.Combine(err1, err2)
}
