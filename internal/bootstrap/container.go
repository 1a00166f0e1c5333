package bootstrap

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"go.uber.org/zap"
	"gorm.io/gorm"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/seatmate-io/seatmate/internal/config"
	"github.com/seatmate-io/seatmate/internal/infra/cache"
	"github.com/seatmate-io/seatmate/internal/infra/db"
	"github.com/seatmate-io/seatmate/internal/infra/httpclient"
	"github.com/seatmate-io/seatmate/internal/infra/logger"
	mq "github.com/seatmate-io/seatmate/internal/infra/queue"
	"github.com/seatmate-io/seatmate/internal/modules/handler"
	"github.com/seatmate-io/seatmate/internal/modules/model"
	"github.com/seatmate-io/seatmate/internal/modules/repo"
	"github.com/seatmate-io/seatmate/internal/modules/service"
)

func BuildContainer() *do.Injector {
	inj := do.New()

	// config
	do.Provide(inj, func(i *do.Injector) (*config.Config, error) {
		return config.Load()
	})

	// logger
	do.Provide(inj, func(i *do.Injector) (*zap.Logger, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return logger.New(cfg.Log.Level)
	})

	// DB
	do.Provide(inj, func(i *do.Injector) (*gorm.DB, error) {
		cfg := do.MustInvoke[*config.Config](i)
		log := do.MustInvoke[*zap.Logger](i)
		d, err := db.New(cfg)
		if err != nil {
			return nil, err
		}
		if cfg.Database.AutoMigrate {
			_ = d.AutoMigrate(
				&model.User{},
				&model.AuthSession{},
				&model.Listing{},
				&model.Application{},
				&model.Conversation{},
				&model.TransactionConfirmation{},
				&model.Review{},
				&model.Notification{},
				&model.Report{},
				&model.BlacklistEntry{},
				&model.AdminLog{},
			)
		}

		if err := EnsureDefaultAdminExists(context.Background(), d, cfg, log); err != nil {
			return nil, err
		}

		return d, nil
	})

	// Redis
	do.Provide(inj, func(i *do.Injector) (*redis.Client, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return cache.New(cfg)
	})

	// RabbitMQ DialFunc for connection and reconnection
	do.Provide(inj, func(i *do.Injector) (mq.DialFunc, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return mq.NewDialFunc(cfg), nil
	})

	// RabbitMQ Connection
	do.Provide(inj, func(i *do.Injector) (*amqp.Connection, error) {
		dialFn := do.MustInvoke[mq.DialFunc](i)
		return dialFn()
	})

	// RabbitMQ Publisher
	do.Provide(inj, func(i *do.Injector) (*mq.Publisher, error) {
		cfg := do.MustInvoke[*config.Config](i)
		conn := do.MustInvoke[*amqp.Connection](i)
		log := do.MustInvoke[*zap.Logger](i)
		return mq.NewPublisher(conn, log, cfg)
	})

	// Notification consumer
	do.Provide(inj, func(i *do.Injector) (*mq.Consumer, error) {
		cfg := do.MustInvoke[*config.Config](i)
		conn := do.MustInvoke[*amqp.Connection](i)
		log := do.MustInvoke[*zap.Logger](i)
		return mq.NewConsumer(
			conn,
			cfg.RabbitMQ.QueueName.Notifications,
			cfg.RabbitMQ.ExchangeName.Notifications,
			cfg.RabbitMQ.RoutingKey.NotificationDeliver,
			cfg.RabbitMQ.Prefetch,
			log,
			cfg,
		)
	})

	// Outbound webhook client
	do.Provide(inj, func(i *do.Injector) (*httpclient.WebhookClient, error) {
		cfg := do.MustInvoke[*config.Config](i)
		log := do.MustInvoke[*zap.Logger](i)
		return httpclient.NewWebhookClient(cfg, log), nil
	})

	// Repo
	do.Provide(inj, func(i *do.Injector) (repo.UserRepo, error) {
		return repo.NewUserRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.AuthSessionRepo, error) {
		return repo.NewAuthSessionRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.ListingRepo, error) {
		return repo.NewListingRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.ApplicationRepo, error) {
		return repo.NewApplicationRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.ConversationRepo, error) {
		return repo.NewConversationRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.ConfirmationRepo, error) {
		return repo.NewConfirmationRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.ReviewRepo, error) {
		return repo.NewReviewRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.NotificationRepo, error) {
		return repo.NewNotificationRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.ReportRepo, error) {
		return repo.NewReportRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.BlacklistRepo, error) {
		return repo.NewBlacklistRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.AdminLogRepo, error) {
		return repo.NewAdminLogRepo(do.MustInvoke[*gorm.DB](i)), nil
	})

	// Service
	do.Provide(inj, func(i *do.Injector) (service.UserService, error) {
		return service.NewUserService(
			do.MustInvoke[repo.UserRepo](i),
			do.MustInvoke[repo.AuthSessionRepo](i),
			do.MustInvoke[*config.Config](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.ListingService, error) {
		return service.NewListingService(
			do.MustInvoke[repo.ListingRepo](i),
			do.MustInvoke[repo.ApplicationRepo](i),
			do.MustInvoke[*mq.Publisher](i),
			do.MustInvoke[*config.Config](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.EngagementService, error) {
		return service.NewEngagementService(
			do.MustInvoke[repo.ListingRepo](i),
			do.MustInvoke[repo.ConversationRepo](i),
			do.MustInvoke[repo.ApplicationRepo](i),
			do.MustInvoke[repo.ConfirmationRepo](i),
			do.MustInvoke[repo.BlacklistRepo](i),
			do.MustInvoke[*redis.Client](i),
			do.MustInvoke[*mq.Publisher](i),
			do.MustInvoke[*config.Config](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.SelectionService, error) {
		return service.NewSelectionService(
			do.MustInvoke[repo.ListingRepo](i),
			do.MustInvoke[repo.ApplicationRepo](i),
			do.MustInvoke[repo.ConversationRepo](i),
			do.MustInvoke[repo.ConfirmationRepo](i),
			do.MustInvoke[*mq.Publisher](i),
			do.MustInvoke[*config.Config](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.ConfirmationService, error) {
		return service.NewConfirmationService(
			do.MustInvoke[repo.ConversationRepo](i),
			do.MustInvoke[repo.ConfirmationRepo](i),
			do.MustInvoke[*mq.Publisher](i),
			do.MustInvoke[*config.Config](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.ReviewService, error) {
		return service.NewReviewService(
			do.MustInvoke[repo.ReviewRepo](i),
			do.MustInvoke[repo.ConfirmationRepo](i),
			do.MustInvoke[*redis.Client](i),
			do.MustInvoke[*mq.Publisher](i),
			do.MustInvoke[*config.Config](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.NotificationService, error) {
		return service.NewNotificationService(
			do.MustInvoke[repo.NotificationRepo](i),
			do.MustInvoke[*httpclient.WebhookClient](i),
			do.MustInvoke[*config.Config](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.ModerationService, error) {
		return service.NewModerationService(
			do.MustInvoke[repo.UserRepo](i),
			do.MustInvoke[repo.ReportRepo](i),
			do.MustInvoke[repo.BlacklistRepo](i),
			do.MustInvoke[repo.AdminLogRepo](i),
			do.MustInvoke[*config.Config](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})

	// Handler
	do.Provide(inj, func(i *do.Injector) (*handler.AuthHandler, error) {
		return handler.NewAuthHandler(do.MustInvoke[service.UserService](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.ListingHandler, error) {
		return handler.NewListingHandler(
			do.MustInvoke[service.ListingService](i),
			do.MustInvoke[service.SelectionService](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.ConversationHandler, error) {
		return handler.NewConversationHandler(
			do.MustInvoke[service.EngagementService](i),
			do.MustInvoke[service.ConfirmationService](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.ApplicationHandler, error) {
		return handler.NewApplicationHandler(do.MustInvoke[service.EngagementService](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.ReviewHandler, error) {
		return handler.NewReviewHandler(do.MustInvoke[service.ReviewService](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.NotificationHandler, error) {
		return handler.NewNotificationHandler(do.MustInvoke[service.NotificationService](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.ProfileHandler, error) {
		return handler.NewProfileHandler(
			do.MustInvoke[service.UserService](i),
			do.MustInvoke[service.ConfirmationService](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.AdminHandler, error) {
		return handler.NewAdminHandler(do.MustInvoke[service.ModerationService](i)), nil
	})

	return inj
}
