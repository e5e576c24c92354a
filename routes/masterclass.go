package routes

import (
	masterclassHandlers "masterclass.link/handlers/masterclass"

	"github.com/gofiber/fiber/v2"
)

func registerMasterclassRoutes(app *fiber.App, deps Dependencies) {
	h := masterclassHandlers.NewMasterclassHandler(deps.Masterclasses, deps.Bookings)

	// guards are attached per route, a "" group would guard every path
	app.Get("/", guarded(deps, h.Index)...)
	app.Get("/index", guarded(deps, h.Index)...)
	app.Get("/masterclass/:id", guarded(deps, h.Show)...)
	app.Post("/masterclass/:id", guarded(deps, h.Book)...)
	app.Get("/signup-confirmation", guarded(deps, h.SignupConfirmation)...)
	app.Get("/my-masterclasses", guarded(deps, h.MyMasterclasses)...)
}
