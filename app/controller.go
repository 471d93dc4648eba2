package app

import (
	"github.com/spolu/distinct/endpoint"
	"goji.io"
	"goji.io/pat"
)

// Controller binds the API.
type Controller struct{}

// Bind registers the API routes.
func (c *Controller) Bind(
	mux *goji.Mux,
) {
	mux.HandleFunc(pat.Post("/checks"), endpoint.HandlerFor(endpoint.EndPtCheck))
	mux.HandleFunc(pat.Post("/users"), endpoint.HandlerFor(endpoint.EndPtCreateUser))
}
