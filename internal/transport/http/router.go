package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Louis-Gabriel-TM/stores-api/internal/handlers"
	authmw "github.com/Louis-Gabriel-TM/stores-api/internal/middleware/auth"
)

type Deps struct {
	AuthHandler   *handlers.AuthHandler
	ItemHandler   *handlers.ItemHandler
	StoreHandler  *handlers.StoreHandler
	UserHandler   *handlers.UserHandler
	SearchHandler *handlers.SearchHandler
	Gate          *authmw.Gate

	// ExposeDebugRoutes adds the raw user resource; keep it off in
	// production.
	ExposeDebugRoutes bool
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	e.POST("/register", d.AuthHandler.Register)
	e.POST("/login", d.AuthHandler.Login)
	e.POST("/logout", d.AuthHandler.Logout, d.Gate.Require)
	e.POST("/refresh", d.AuthHandler.Refresh)

	e.GET("/item/:name", d.ItemHandler.GetItem)
	e.POST("/item/:name", d.ItemHandler.CreateItem, d.Gate.RequireFresh)
	e.PUT("/item/:name", d.ItemHandler.UpsertItem, d.Gate.RequireFresh)
	e.DELETE("/item/:name", d.ItemHandler.DeleteItem, d.Gate.Require)
	e.GET("/items", d.ItemHandler.ListItems, d.Gate.Optional)
	e.GET("/items/search", d.SearchHandler.SearchItems)

	e.GET("/store/:name", d.StoreHandler.GetStore)
	e.POST("/store/:name", d.StoreHandler.CreateStore, d.Gate.Require)
	e.DELETE("/store/:name", d.StoreHandler.DeleteStore, d.Gate.RequireAdmin)
	e.GET("/stores", d.StoreHandler.ListStores)

	if d.ExposeDebugRoutes {
		e.GET("/user/:id", d.UserHandler.GetUser)
		e.DELETE("/user/:id", d.UserHandler.DeleteUser)
	}
}
