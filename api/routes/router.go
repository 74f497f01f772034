package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/membercards/api/controllers"
	"github.com/angelmondragon/membercards/api/middleware"
	"github.com/angelmondragon/membercards/internal/cards"
	"github.com/angelmondragon/membercards/pkg/config"
	"github.com/angelmondragon/membercards/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	cardService cards.Service,
	metricsHandler http.Handler,
	deps ...controllers.Dependency,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps...))
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/v1/cards", func(r chi.Router) {
		r.Post("/batch", controllers.GenerateBatch(cardService, logg))
		r.Post("/combined", controllers.GenerateCombined(cardService, logg))
		r.Post("/barcodes/{barcode}", controllers.GenerateBarcodeCard(cardService, logg))
		r.Route("/members/{memberId}", func(r chi.Router) {
			r.Post("/", controllers.GenerateMemberCard(cardService, logg))
			r.Get("/qr", controllers.MemberQRPreview(cardService, logg))
			r.Get("/barcode", controllers.MemberBarcodePreview(cardService, logg))
		})
		r.Route("/files", func(r chi.Router) {
			r.Get("/", controllers.ListCardFiles(cardService, logg))
			r.Get("/{fileName}", controllers.DownloadCardFile(cardService, logg))
		})
	})

	return r
}
