package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marwo/buddyfit/internal/service"
)

type Server struct {
	mx        *chi.Mux
	verifier  *IdentityVerifier
	matching  service.MatchingServiceI
	buddies   service.BuddiesServiceI
	analytics service.AnalyticsServiceI
	goals     service.GoalsServiceI
	profiles  service.ProfileServiceI
}

type ServicesList struct {
	Verifier         *IdentityVerifier
	MatchingService  service.MatchingServiceI
	BuddiesService   service.BuddiesServiceI
	AnalyticsService service.AnalyticsServiceI
	GoalsService     service.GoalsServiceI
	ProfileService   service.ProfileServiceI
}

func New(servicesOptions *ServicesList) *Server {
	return &Server{
		mx:        chi.NewMux(),
		verifier:  servicesOptions.Verifier,
		matching:  servicesOptions.MatchingService,
		buddies:   servicesOptions.BuddiesService,
		analytics: servicesOptions.AnalyticsService,
		goals:     servicesOptions.GoalsService,
		profiles:  servicesOptions.ProfileService,
	}
}

func (s *Server) Routes() http.Handler {
	s.mx.Use(s.RequestIDMiddleware, s.SettingUpLoggerMiddleware)
	s.mx.Handle("/metrics", promhttp.Handler())
	s.mx.Route("/api/v1", func(r chi.Router) {
		// Profile creation is driven by the gateway on signup
		r.Post("/profiles", s.CreateProfile)
		r.Group(func(r chi.Router) {
			r.Use(s.IdentityMiddleware)
			r.Get("/profile", s.GetProfile)
			r.Put("/profile", s.UpdateProfile)
			r.Get("/matches", s.GetMatches)
			r.Post("/buddies/requests", s.SendBuddyRequest)
			r.Post("/buddies/requests/{id}", s.RespondBuddyRequest)
			r.Get("/buddies/requests", s.ListBuddyRequests)
			r.Get("/buddies", s.ListBuddies)
			r.Post("/workouts", s.LogWorkout)
			r.Delete("/workouts/{id}", s.DeleteWorkout)
			r.Get("/analytics", s.GetAnalytics)
			r.Post("/goals", s.CreateGoal)
			r.Get("/goals", s.ListGoals)
			r.Post("/goals/{id}/status", s.SetGoalStatus)
		})
	})
	return s.mx
}

func (s *Server) Run(addr string) error {
	return http.ListenAndServe(addr, s.Routes())
}
