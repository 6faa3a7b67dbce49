// Package contracts holds the interfaces shared by the service entrypoints.
package contracts

import "github.com/julienschmidt/httprouter"

// Handler mounts a service's routes.
type Handler interface {
	RegisterRoutes(router *httprouter.Router)
}
