package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Louis-Gabriel-TM/stores-api/internal/es"
)

type SearchHandler struct {
	Index *es.Index
}

func (h *SearchHandler) SearchItems(c echo.Context) error {
	if h.Index == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "search is not available")
	}

	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing query parameter 'q'")
	}

	from, _ := strconv.Atoi(c.QueryParam("from"))
	size, err := strconv.Atoi(c.QueryParam("size"))
	if err != nil || size <= 0 || size > 100 {
		size = 25
	}

	total, items, err := h.Index.SearchItems(c.Request().Context(), q, from, size)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "search failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"total": total, "items": items})
}
