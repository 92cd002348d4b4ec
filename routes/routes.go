package routes

import (
	_ "embed"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/Dosada05/tennis-tournament/handlers"
	appMiddleware "github.com/Dosada05/tennis-tournament/middleware"
)

//go:embed openapi.json
var openAPISpec []byte

func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	tournamentHandler *handlers.TournamentHandler,
	registrationHandler *handlers.RegistrationHandler,
	matchHandler *handlers.MatchHandler,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authenticate := appMiddleware.Authenticate(jwtSecret)

	// Публичные маршруты
	router.Post("/auth/signup", authHandler.SignUp)
	router.Post("/auth/signin", authHandler.SignIn)

	router.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(openAPISpec)
	})
	router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	router.Route("/tournaments", func(r chi.Router) {
		// Просмотр турниров открыт без токена
		r.Get("/", tournamentHandler.ListHandler)
		r.Get("/{tournamentID}", tournamentHandler.GetByIDHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Post("/", tournamentHandler.CreateHandler)
			r.Post("/{tournamentID}/register", tournamentHandler.RegisterHandler)
			r.Get("/{tournamentID}/matches", tournamentHandler.ListMatchesHandler)
		})
	})

	router.Route("/requests", func(r chi.Router) {
		r.Use(authenticate)

		r.Get("/", registrationHandler.ListHandler)
		r.Post("/{requestID}/approve", registrationHandler.ApproveHandler)
		r.Post("/{requestID}/deny", registrationHandler.DenyHandler)
	})

	router.Route("/matches", func(r chi.Router) {
		r.Use(authenticate)

		r.Post("/", matchHandler.CreateHandler)
		r.Get("/export", matchHandler.ExportHandler)
		r.Patch("/{matchID}/score", matchHandler.UpdateScoreHandler)
	})

	router.Route("/referees", func(r chi.Router) {
		r.Use(authenticate)

		r.Get("/{refereeID}/matches", matchHandler.ListByRefereeHandler)
	})

	router.Route("/users", func(r chi.Router) {
		r.Use(authenticate)

		r.Get("/", userHandler.ListHandler)
		r.Get("/{userID}", userHandler.GetByIDHandler)
		r.Put("/{userID}", userHandler.UpdateHandler)
		r.Delete("/{userID}", userHandler.DeleteHandler)
		r.Get("/{userID}/tournaments", userHandler.ListTournamentsHandler)
	})
}
