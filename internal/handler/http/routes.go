package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const rpcPath = "/rpc"

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID, h.withLogging, withGZip)
	if h.requestTimeout > 0 {
		router.Use(middleware.Timeout(h.requestTimeout))
	}

	router.Get("/healthz", h.health)

	router.Group(func(r chi.Router) {
		r.Use(h.session)
		r.Post(rpcPath, h.rpc)
	})

	router.MethodNotAllowed(CheckHTTPMethod(router))

	return router
}
