package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/oficina-avance/oficina/internal/auth"
	"github.com/oficina-avance/oficina/internal/models"
	"github.com/oficina-avance/oficina/internal/services"
	"go.uber.org/zap"
)

// WorkOrderHandler обрабатывает запросы к заказ-нарядам. Исполнитель
// берётся из токена и передаётся в сервис явно.
type WorkOrderHandler struct {
	workOrderService services.WorkOrderService
	logger           *zap.Logger
}

// NewWorkOrderHandler создаёт новый экземпляр WorkOrderHandler.
func NewWorkOrderHandler(workOrderService services.WorkOrderService, logger *zap.Logger) *WorkOrderHandler {
	return &WorkOrderHandler{workOrderService: workOrderService, logger: orNop(logger)}
}

// List обрабатывает GET /api/work-orders[?status=OPEN].
func (h *WorkOrderHandler) List(c echo.Context) error {
	actor, err := auth.GetActorFromContext(c)
	if err != nil {
		return err
	}

	var filter models.WorkOrderFilter
	if raw := c.QueryParam("status"); raw != "" {
		status := models.WorkOrderStatus(raw)
		filter.Status = &status
	}

	list, err := h.workOrderService.List(c.Request().Context(), actor, filter)
	if err != nil {
		return serviceError(h.logger, "failed to list work orders", err)
	}

	response := make([]*models.WorkOrderSummaryResponse, 0, len(list))
	for _, s := range list {
		response = append(response, models.NewWorkOrderSummaryResponse(s))
	}
	return c.JSON(http.StatusOK, response)
}

// Show обрабатывает GET /api/work-orders/:id.
func (h *WorkOrderHandler) Show(c echo.Context) error {
	actor, err := auth.GetActorFromContext(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	details, err := h.workOrderService.Show(c.Request().Context(), actor, id)
	if err != nil {
		return serviceError(h.logger, "failed to load work order", err)
	}

	return c.JSON(http.StatusOK, models.NewWorkOrderDetailsResponse(details, h.workOrderService.Policy()))
}

// Create обрабатывает POST /api/work-orders.
func (h *WorkOrderHandler) Create(c echo.Context) error {
	actor, err := auth.GetActorFromContext(c)
	if err != nil {
		return err
	}

	var req models.CreateWorkOrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	order, err := h.workOrderService.Create(c.Request().Context(), actor, req)
	if err != nil {
		return serviceError(h.logger, "failed to create work order", err)
	}
	return c.JSON(http.StatusCreated, models.NewWorkOrderResponse(order))
}

// SetStatus обрабатывает PATCH /api/work-orders/:id/status.
func (h *WorkOrderHandler) SetStatus(c echo.Context) error {
	actor, err := auth.GetActorFromContext(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req models.SetStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	order, err := h.workOrderService.SetStatus(c.Request().Context(), actor, id, req)
	if err != nil {
		return serviceError(h.logger, "failed to set work order status", err)
	}
	return c.JSON(http.StatusOK, models.NewWorkOrderResponse(order))
}

// UpdateDetails обрабатывает PUT /api/work-orders/:id/details.
func (h *WorkOrderHandler) UpdateDetails(c echo.Context) error {
	actor, err := auth.GetActorFromContext(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req models.UpdateDetailsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	order, err := h.workOrderService.UpdateDetails(c.Request().Context(), actor, id, req)
	if err != nil {
		return serviceError(h.logger, "failed to update work order details", err)
	}
	return c.JSON(http.StatusOK, models.NewWorkOrderResponse(order))
}

// AddService обрабатывает POST /api/work-orders/:id/services.
func (h *WorkOrderHandler) AddService(c echo.Context) error {
	actor, err := auth.GetActorFromContext(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req models.AddServiceRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	service, err := h.workOrderService.AddService(c.Request().Context(), actor, id, req)
	if err != nil {
		return serviceError(h.logger, "failed to add service", err)
	}
	return c.JSON(http.StatusCreated, models.NewServiceResponse(service))
}

// AddPart обрабатывает POST /api/work-orders/:id/parts.
func (h *WorkOrderHandler) AddPart(c echo.Context) error {
	actor, err := auth.GetActorFromContext(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req models.AddPartRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	part, err := h.workOrderService.AddPart(c.Request().Context(), actor, id, req)
	if err != nil {
		return serviceError(h.logger, "failed to add part", err)
	}
	return c.JSON(http.StatusCreated, models.NewPartResponse(part))
}
