// @title BuddyFit API
// @description Buddy matching and engagement analytics core for the BuddyFit platform
// @BasePath /api/v1
// @schemes http
package main

import (
	"log"
	"strings"

	"github.com/marwo/buddyfit/internal/api"
	"github.com/marwo/buddyfit/internal/notifier"
	"github.com/marwo/buddyfit/internal/repository"
	"github.com/marwo/buddyfit/internal/service"
	"github.com/marwo/buddyfit/pkg/cleanup"
	"github.com/marwo/buddyfit/pkg/config"
)

func init() {
	service.InitValidator()
}

func main() {
	defer cleanup.CleanUp()
	cfg := config.New()
	dbCfg := repository.PGCfg{
		Address:  cfg.GetString("POSTGRES_DB_ADDRESS"),
		Username: cfg.GetString("POSTGRES_USER"),
		Password: cfg.GetString("POSTGRES_PASSWORD"),
		DB:       cfg.GetString("POSTGRES_DB"),
	}
	usersRepo := repository.NewUsersRepo(&dbCfg)
	edgesRepo := repository.NewEdgesRepo(&dbCfg)
	workoutsRepo := repository.NewWorkoutsRepo(&dbCfg)
	goalsRepo := repository.NewGoalsRepo(&dbCfg)

	var sink service.Notifier
	if brokers := cfg.GetString("KAFKA_BROKERS"); brokers != "" {
		sink = notifier.NewKafka(strings.Split(brokers, ","), cfg.GetString("KAFKA_NOTIFICATIONS_TOPIC"))
	} else {
		sink = notifier.NewSlog()
	}

	serv := api.New(&api.ServicesList{
		Verifier:         api.NewIdentityVerifier(cfg.GetString("IDENTITY_SECRET")),
		MatchingService:  service.NewMatchingService(usersRepo),
		BuddiesService:   service.NewBuddiesService(usersRepo, edgesRepo, sink),
		AnalyticsService: service.NewAnalyticsService(workoutsRepo, goalsRepo, sink),
		GoalsService:     service.NewGoalsService(goalsRepo),
		ProfileService:   service.NewProfileService(usersRepo),
	})
	err := serv.Run(cfg.GetString("API_ADDRESS"))
	if err != nil {
		log.Println("Server error: " + err.Error())
	}
}
