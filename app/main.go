package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/devnovate/devnovate/internal/blogservice"
	"github.com/devnovate/devnovate/internal/commentservice"
	"github.com/devnovate/devnovate/internal/common"
	"github.com/devnovate/devnovate/internal/likeservice"
	"github.com/devnovate/devnovate/internal/mailservice"
	"github.com/devnovate/devnovate/internal/userservice"
)

type application struct {
	config         *Config
	logger         *slog.Logger
	userService    *userservice.UserService
	blogService    *blogservice.BlogService
	likeService    *likeservice.LikeService
	commentService *commentservice.CommentService
	mailService    *mailservice.MailService
	broker         *common.MessageBroker
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := loadConfig(".env")
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	db, err := common.NewDB(cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, 10, 5, 15*time.Minute)
	if err != nil {
		logger.Error("failed to connect to the database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer common.CloseDB(db)

	URI := fmt.Sprintf("amqp://%s:%s@%s:%s/", cfg.MQUser, cfg.MQPassword, cfg.MQHost, cfg.MQPort)
	broker, err := common.NewMessageBroker(URI)
	if err != nil {
		logger.Error("failed to connect to the message broker", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer broker.Close()

	err = common.SetupEventExchange(broker)
	if err != nil {
		logger.Error("failed to setup the event exchange", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cache := common.NewCache(5*time.Minute, 10*time.Minute)

	app := &application{
		config:         cfg,
		logger:         logger,
		userService:    userservice.NewUserService(db, broker, cache),
		blogService:    blogservice.NewBlogService(db, cache, broker, logger),
		likeService:    likeservice.NewLikeService(db, cache),
		commentService: commentservice.NewCommentService(db, cache, broker, logger),
		broker:         broker,
		mailService:    mailservice.NewMailService(broker, cfg.MailHost, cfg.MailUser, cfg.MailPassword, cfg.MailSender, cfg.MailPort, logger),
	}
	defer app.mailService.Close()

	go app.mailService.SendActivationEmail()
	go app.mailService.SendAuthorNotifications()

	err = app.serve(cfg.Port)
	if err != nil {
		logger.Error("failed to start the server", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
