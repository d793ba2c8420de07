package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Louis-Gabriel-TM/stores-api/internal/models"
)

const (
	storeAlreadyExists = "A store with name '%s' already exists."
	storeDeleted       = "Store deleted."
	storeNotFound      = "Store not found."
	storeCreateError   = "An error occurred while creating the store."
)

type StoreHandler struct {
	DB *gorm.DB
}

// storeJSON renders a store with its items, mirroring the item shape
// of GET /item/:name.
func (h *StoreHandler) storeJSON(store models.Store) (echo.Map, error) {
	items := []models.Item{}
	if err := h.DB.Where("store_id = ?", store.ID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return echo.Map{
		"id":    store.ID,
		"name":  store.Name,
		"items": items,
	}, nil
}

func (h *StoreHandler) GetStore(c echo.Context) error {
	var store models.Store
	if err := h.DB.Where("name = ?", c.Param("name")).First(&store).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": storeNotFound})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	body, err := h.storeJSON(store)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	return c.JSON(http.StatusOK, body)
}

func (h *StoreHandler) CreateStore(c echo.Context) error {
	name := c.Param("name")

	var existing models.Store
	err := h.DB.Where("name = ?", name).First(&existing).Error
	if err == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": fmt.Sprintf(storeAlreadyExists, name),
		})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	store := models.Store{Name: name}
	if err := h.DB.Create(&store).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": storeCreateError})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"id":    store.ID,
		"name":  store.Name,
		"items": []models.Item{},
	})
}

// DeleteStore reports success whether or not the store existed. Items
// keep their store_id; the reference is weak.
func (h *StoreHandler) DeleteStore(c echo.Context) error {
	if err := h.DB.Where("name = ?", c.Param("name")).Delete(&models.Store{}).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": storeDeleted})
}

func (h *StoreHandler) ListStores(c echo.Context) error {
	var stores []models.Store
	if err := h.DB.Order("id ASC").Find(&stores).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	out := make([]echo.Map, 0, len(stores))
	for _, store := range stores {
		body, err := h.storeJSON(store)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
		}
		out = append(out, body)
	}
	return c.JSON(http.StatusOK, echo.Map{"stores": out})
}
