package health

import (
	"net/http"

	"hallbooking/config"
	"hallbooking/transport/http/response"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	cfg *config.Config
}

func New(cfg *config.Config) Handler {
	return Handler{cfg: cfg}
}

func (handler *Handler) Router(router chi.Router) {
	router.Get("/health", handler.Health)
}

type status struct {
	Status string `json:"status"`
	Name   string `json:"name"`
	Env    string `json:"env"`
}

// Health reports liveness. It is unauthenticated so load balancers can probe it.
func (handler *Handler) Health(writer http.ResponseWriter, request *http.Request) {
	response.WithJSON(writer, http.StatusOK, status{
		Status: "ok",
		Name:   handler.cfg.App.Name,
		Env:    handler.cfg.Server.Env,
	})
}
