package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MikeSquared-Agency/Tally/internal/config"
	"github.com/MikeSquared-Agency/Tally/internal/evaluation"
)

func NewRouter(svc *evaluation.Service, cfg *config.Config, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(RateLimitMiddleware(cfg.Server.RateLimitRPM))

	rubrics := NewRubricsHandler(svc)
	submissions := NewSubmissionsHandler(svc)
	prequal := NewPrequalHandler(svc)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/prequalification/questions", prequal.Questions)
		r.Post("/prequalification/score", prequal.Score)
		r.Post("/vendors/{id}/prequalification", prequal.Submit)
		r.Get("/vendors/{id}/prequalification", prequal.Get)

		r.Group(func(r chi.Router) {
			r.Use(EvaluatorIDMiddleware)

			r.Post("/rubrics/validate", rubrics.Validate)
			r.Post("/rubrics", rubrics.Create)
			r.Get("/rubrics/{id}", rubrics.Get)
			r.Get("/rubrics/{id}/weights", rubrics.Weights)

			r.Post("/submissions", submissions.Create)
			r.Get("/submissions", submissions.List)
			r.Get("/submissions/{id}", submissions.Get)
			r.Get("/submissions/{id}/explain", submissions.Explain)
			r.Post("/submissions/{id}/scores", submissions.RecordScore)

			r.Group(func(r chi.Router) {
				r.Use(AdminAuthMiddleware(cfg.Server.AdminToken))
				r.Put("/submissions/{id}/consensus/{criterion_id}", submissions.SetConsensus)
				r.Delete("/submissions/{id}/consensus/{criterion_id}", submissions.ClearConsensus)
			})
		})
	})

	return r
}

func NewMetricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}
