package routes

import (
	wizardHandlers "masterclass.link/handlers/wizard"

	"github.com/gofiber/fiber/v2"
)

func registerWizardRoutes(app *fiber.App, deps Dependencies) {
	h := wizardHandlers.NewWizardHandler(deps.Wizard)

	group := app.Group(wizardHandlers.StartPath, authenticated(deps)...)
	group.Get("", h.ShowStart)
	group.Post("", h.Start)
	group.Get("/content/category", h.ShowCategory)
	group.Post("/content/category", h.ChooseCategory)
	group.Get("/content/new-or-existing", h.ShowNewOrExisting)
	group.Post("/content/new-or-existing", h.ChooseContent)
	group.Get("/content/create-new", h.ShowCreateNew)
	group.Post("/content/create-new", h.CreateNew)
	group.Get("/schedule", h.ShowSchedule)
	group.Post("/schedule", h.SetSchedule)
	group.Get("/location/type", h.ShowLocationType)
	group.Post("/location/type", h.ChooseLocationType)
	group.Get("/location/online", h.ShowOnline)
	group.Post("/location/online", h.AddOnline)
	group.Get("/location/search", h.ShowSearch)
	group.Post("/location/search", h.Search)
	group.Get("/location/search/results", h.ShowResults)
	group.Post("/location/search/results", h.SelectResult)
	group.Get("/location/details", h.ShowInPerson)
	group.Post("/location/details", h.AddInPerson)
	group.Get("/tasks", h.ShowTasks)
	group.Post("/publish", h.Publish)
}
