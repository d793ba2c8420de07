package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Louis-Gabriel-TM/stores-api/internal/es"
	"github.com/Louis-Gabriel-TM/stores-api/internal/logging"
	authmw "github.com/Louis-Gabriel-TM/stores-api/internal/middleware/auth"
	"github.com/Louis-Gabriel-TM/stores-api/internal/models"
	"github.com/Louis-Gabriel-TM/stores-api/internal/mykafka"
)

const (
	itemAlreadyExists = "An item with name '%s' already exists."
	itemDeleted       = "Item deleted."
	itemNotFound      = "Item not found."
	insertionError    = "An error occurred while inserting the item."
	storeMissing      = "Store with id '%d' does not exist."
	moreData          = "More data available if you log in."
)

type ItemHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
	Index    *es.Index
}

type itemRequest struct {
	Price   *float64 `json:"price"`
	StoreID *uint    `json:"store_id"`
}

func (r itemRequest) validate() map[string]string {
	fields := map[string]string{}
	if r.Price == nil {
		fields["price"] = fmt.Sprintf(blankError, "price")
	}
	if r.StoreID == nil {
		fields["store_id"] = fmt.Sprintf(blankError, "store_id")
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func (h *ItemHandler) publish(c echo.Context, event map[string]interface{}) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "item_events", fmt.Sprint(event["item_id"]), event); err != nil {
		logging.FromContext(c.Request().Context()).Warn("kafka publish failed", "error", err)
	}
}

func (h *ItemHandler) indexItem(c echo.Context, item models.Item) {
	if h.Index == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Index.IndexItem(ctx, item); err != nil {
		logging.FromContext(c.Request().Context()).Warn("es index failed", "error", err)
	}
}

func (h *ItemHandler) dropFromIndex(c echo.Context, id uint) {
	if h.Index == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Index.DeleteItem(ctx, id); err != nil {
		logging.FromContext(c.Request().Context()).Warn("es delete failed", "error", err)
	}
}

// storeExists is an application-level referential check; there is no
// hard FK constraint between items and stores.
func (h *ItemHandler) storeExists(c echo.Context, id uint) (bool, error) {
	var count int64
	if err := h.DB.WithContext(c.Request().Context()).
		Model(&models.Store{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (h *ItemHandler) GetItem(c echo.Context) error {
	var item models.Item
	if err := h.DB.Where("name = ?", c.Param("name")).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": itemNotFound})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	return c.JSON(http.StatusOK, item)
}

func (h *ItemHandler) CreateItem(c echo.Context) error {
	name := c.Param("name")

	var existing models.Item
	err := h.DB.Where("name = ?", name).First(&existing).Error
	if err == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": fmt.Sprintf(itemAlreadyExists, name),
		})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	var req itemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if fields := req.validate(); fields != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": fields})
	}

	if ok, err := h.storeExists(c, *req.StoreID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	} else if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": fmt.Sprintf(storeMissing, *req.StoreID),
		})
	}

	item := models.Item{Name: name, Price: *req.Price, StoreID: *req.StoreID}
	if err := h.DB.Create(&item).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": insertionError})
	}

	h.indexItem(c, item)
	h.publish(c, map[string]interface{}{
		"type":    "item_created",
		"item_id": item.ID,
		"name":    item.Name,
	})

	return c.JSON(http.StatusCreated, item)
}

// UpsertItem updates the price of an existing item, or creates the
// item when the name is unused. Idempotent on price.
func (h *ItemHandler) UpsertItem(c echo.Context) error {
	name := c.Param("name")

	var req itemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if fields := req.validate(); fields != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": fields})
	}

	var item models.Item
	err := h.DB.Where("name = ?", name).First(&item).Error
	switch {
	case err == nil:
		item.Price = *req.Price
		if err := h.DB.Save(&item).Error; err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": insertionError})
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		if ok, err := h.storeExists(c, *req.StoreID); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
		} else if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"message": fmt.Sprintf(storeMissing, *req.StoreID),
			})
		}
		item = models.Item{Name: name, Price: *req.Price, StoreID: *req.StoreID}
		if err := h.DB.Create(&item).Error; err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": insertionError})
		}
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	h.indexItem(c, item)
	return c.JSON(http.StatusOK, item)
}

func (h *ItemHandler) DeleteItem(c echo.Context) error {
	if !authmw.IsAdmin(c) {
		return authmw.ErrAdminRequired()
	}

	var item models.Item
	if err := h.DB.Where("name = ?", c.Param("name")).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": itemNotFound})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	if err := h.DB.Delete(&item).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	h.dropFromIndex(c, item.ID)
	h.publish(c, map[string]interface{}{
		"type":    "item_deleted",
		"item_id": item.ID,
		"name":    item.Name,
	})

	return c.JSON(http.StatusOK, echo.Map{"message": itemDeleted})
}

// ListItems shows full item objects to authenticated callers and only
// the names to anonymous ones.
func (h *ItemHandler) ListItems(c echo.Context) error {
	var items []models.Item
	if err := h.DB.Order("id ASC").Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	if _, ok := authmw.UserID(c); ok {
		return c.JSON(http.StatusOK, echo.Map{"items": items})
	}

	names := make([]string, len(items))
	for i, item := range items {
		names[i] = item.Name
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":   names,
		"message": moreData,
	})
}
