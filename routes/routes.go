// bracket-engine/routes/routes.go
package api

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/Dosada05/bracket-engine/handlers"
)

func SetupRoutes(
	router *chi.Mux,
	stageHandler *handlers.StageHandler,
	matchHandler *handlers.MatchHandler,
	queryHandler *handlers.QueryHandler,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	router.Route("/stages", func(r chi.Router) {
		r.Post("/", stageHandler.CreateStage)
		r.Get("/{stageID}", queryHandler.StageData)
		r.Delete("/{stageID}", stageHandler.DeleteStage)

		r.Put("/{stageID}/seeding", stageHandler.UpdateSeeding)
		r.Post("/{stageID}/seeding/confirm", stageHandler.ConfirmSeeding)
		r.Delete("/{stageID}/seeding", stageHandler.ResetSeeding)
		r.Get("/{stageID}/seeding", queryHandler.Seeding)

		r.Put("/{stageID}/ordering", stageHandler.UpdateOrdering)

		r.Get("/{stageID}/standings", queryHandler.FinalStandings)
		r.Get("/{stageID}/current-round", queryHandler.CurrentRound)
		r.Get("/{stageID}/current-matches", queryHandler.CurrentMatches)
	})

	router.Put("/rounds/{roundID}/ordering", stageHandler.UpdateRoundOrdering)

	router.Route("/matches", func(r chi.Router) {
		r.Put("/{matchID}", matchHandler.UpdateMatch)
		r.Delete("/{matchID}/results", matchHandler.ResetMatchResults)
		r.Get("/{matchID}/previous", queryHandler.PreviousMatches)
		r.Get("/{matchID}/next", queryHandler.NextMatches)
	})

	router.Route("/match-games", func(r chi.Router) {
		r.Put("/", matchHandler.UpdateMatchGame)
		r.Delete("/{gameID}/results", matchHandler.ResetMatchGameResults)
	})

	router.Put("/child-count", matchHandler.UpdateChildCount)

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/{tournamentID}", queryHandler.TournamentData)
		r.Get("/{tournamentID}/current-stage", queryHandler.CurrentStage)
		r.Delete("/{tournamentID}", stageHandler.DeleteTournament)
	})

	router.Route("/dataset", func(r chi.Router) {
		r.Get("/", queryHandler.Export)
		r.Post("/", queryHandler.Import)
		r.Post("/snapshot", queryHandler.ExportSnapshot)
	})

	router.Get("/swagger/*", httpSwagger.Handler())
}
