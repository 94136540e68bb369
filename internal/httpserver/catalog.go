package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/coffee_shop/internal/service"
	"github.com/Skotchmaster/coffee_shop/internal/transport"
	"github.com/Skotchmaster/coffee_shop/internal/util"
	"github.com/Skotchmaster/coffee_shop/pkg/httperr"
	"github.com/Skotchmaster/coffee_shop/pkg/logging"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func queryBool(c echo.Context, name string) (*bool, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, httperr.New(http.StatusBadRequest, httperr.CodeValidation, name+" must be a boolean")
	}
	return &v, nil
}

func productPage(c echo.Context, p *service.ProductPage) error {
	return paged(c, p.Items, transport.NewPageMeta(p.Page, p.Offset, p.Limit, p.Total))
}

func (h *CatalogHTTP) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.list_products")

	available, err := queryBool(c, "available")
	if err != nil {
		l.Warn("list_products_error", "status", 400, "error", err)
		return err
	}

	res, err := h.Svc.ListProducts(ctx, service.ProductQuery{
		Category:  c.QueryParam("category"),
		Available: available,
		Page:      util.ParseIntDefault(c.QueryParam("page"), 1),
		Size:      util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize),
	})
	if err != nil {
		return serviceError(l, "list_products_error", err)
	}
	return productPage(c, res)
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.search_products")

	res, err := h.Svc.SearchProducts(ctx, c.QueryParam("q"),
		util.ParseIntDefault(c.QueryParam("page"), 1),
		util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize))
	if err != nil {
		return serviceError(l, "search_products_error", err)
	}
	return productPage(c, res)
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.get_product")

	id, err := parseID(c, l, "get_product_error")
	if err != nil {
		return err
	}
	p, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		return serviceError(l, "get_product_error", err)
	}
	return data(c, http.StatusOK, p)
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.create_product")

	var req transport.CreateProductRequest
	if err := bind(c, &req); err != nil {
		l.Warn("create_product_error", "status", 400, "error", err)
		return err
	}
	p, err := h.Svc.CreateProduct(ctx, req)
	if err != nil {
		return serviceError(l, "create_product_error", err)
	}
	l.Info("product_created", "product_id", p.ID)
	return data(c, http.StatusCreated, p)
}

func (h *CatalogHTTP) PatchProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.patch_product")

	id, err := parseID(c, l, "patch_product_error")
	if err != nil {
		return err
	}
	var req transport.PatchProductRequest
	if err := bind(c, &req); err != nil {
		l.Warn("patch_product_error", "status", 400, "error", err)
		return err
	}
	p, err := h.Svc.PatchProduct(ctx, id, req)
	if err != nil {
		return serviceError(l, "patch_product_error", err)
	}
	l.Info("product_updated", "product_id", p.ID)
	return data(c, http.StatusOK, p)
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.delete_product")

	id, err := parseID(c, l, "delete_product_error")
	if err != nil {
		return err
	}
	if err := h.Svc.DeleteProduct(ctx, id); err != nil {
		return serviceError(l, "delete_product_error", err)
	}
	l.Info("product_deleted", "product_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHTTP) ListEquipment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.list_equipment")

	available, err := queryBool(c, "available")
	if err != nil {
		l.Warn("list_equipment_error", "status", 400, "error", err)
		return err
	}
	items, err := h.Svc.ListEquipment(ctx, available)
	if err != nil {
		return serviceError(l, "list_equipment_error", err)
	}
	return data(c, http.StatusOK, items)
}

func (h *CatalogHTTP) GetEquipment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.get_equipment")

	id, err := parseID(c, l, "get_equipment_error")
	if err != nil {
		return err
	}
	eq, err := h.Svc.GetEquipment(ctx, id)
	if err != nil {
		return serviceError(l, "get_equipment_error", err)
	}
	return data(c, http.StatusOK, eq)
}

func (h *CatalogHTTP) CreateEquipment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.create_equipment")

	var req transport.CreateEquipmentRequest
	if err := bind(c, &req); err != nil {
		l.Warn("create_equipment_error", "status", 400, "error", err)
		return err
	}
	eq, err := h.Svc.CreateEquipment(ctx, req)
	if err != nil {
		return serviceError(l, "create_equipment_error", err)
	}
	l.Info("equipment_created", "equipment_id", eq.ID)
	return data(c, http.StatusCreated, eq)
}

func (h *CatalogHTTP) ListStores(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.list_stores")

	stores, err := h.Svc.ListStores(ctx)
	if err != nil {
		return serviceError(l, "list_stores_error", err)
	}
	return data(c, http.StatusOK, stores)
}

func (h *CatalogHTTP) CreateStore(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.create_store")

	var req transport.CreateStoreRequest
	if err := bind(c, &req); err != nil {
		l.Warn("create_store_error", "status", 400, "error", err)
		return err
	}
	st, err := h.Svc.CreateStore(ctx, req)
	if err != nil {
		return serviceError(l, "create_store_error", err)
	}
	return data(c, http.StatusCreated, st)
}

func (h *CatalogHTTP) ListEvents(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.list_events")

	events, err := h.Svc.ListEvents(ctx)
	if err != nil {
		return serviceError(l, "list_events_error", err)
	}
	return data(c, http.StatusOK, events)
}

func (h *CatalogHTTP) CreateEvent(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.create_event")

	var req transport.CreateEventRequest
	if err := bind(c, &req); err != nil {
		l.Warn("create_event_error", "status", 400, "error", err)
		return err
	}
	ev, err := h.Svc.CreateEvent(ctx, req)
	if err != nil {
		return serviceError(l, "create_event_error", err)
	}
	return data(c, http.StatusCreated, ev)
}
