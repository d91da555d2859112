package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"socialgraph/api/handlers"
	"socialgraph/api/middleware"
	"socialgraph/api/routes"
	"socialgraph/config"
	"socialgraph/db"
	"socialgraph/relations"

	"github.com/gin-gonic/gin"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	if err := config.LoadConfig(configPath); err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	log.Println("Starting server...")

	if err := db.ConnectDB(); err != nil {
		panic("Failed to connect to the database: " + err.Error())
	}

	if err := relations.InitRedis(); err != nil {
		log.Printf("Warning: Redis unavailable, counts cache disabled: %v", err)
	}

	bus := relations.NewEventBus()
	store := relations.NewStore()
	directory := relations.NewGormDirectory()
	notifier := relations.NewWSNotifier(relations.GlobalWSConnManager)

	var publisher relations.EventPublisher
	var changeFeed relations.ChangeFeed
	if config.AppConfig.RabbitMQ.URL != "" {
		feed := relations.NewRabbitFeed(config.AppConfig.RabbitMQ.URL)
		if err := feed.Connect(); err != nil {
			log.Printf("Warning: RabbitMQ unavailable, will retry in background: %v", err)
		}
		publisher = feed
		changeFeed = feed
	}

	relationService := relations.NewRelationService(store, bus, directory, publisher, notifier)
	aggregation := relations.NewAggregationService(store, directory, relations.RedisClient)
	discovery := relations.NewDiscoveryService(store, directory)
	tokens := relations.NewTokenStore()

	ctx := context.Background()
	aggregation.Start(ctx, bus, changeFeed)

	handlers.Setup(handlers.Services{
		Relations:   relationService,
		Aggregation: aggregation,
		Discovery:   discovery,
		Store:       store,
		Directory:   directory,
		Tokens:      tokens,
	})

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(middleware.PrometheusMiddleware())
	routes.PublicApi(router, tokens)

	addr := fmt.Sprintf("%s:%d", config.AppConfig.Backend.Host, config.AppConfig.Backend.Port)
	if err := router.Run(addr); err != nil {
		panic(err)
	}
}
