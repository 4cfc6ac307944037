package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/oficina-avance/oficina/internal/models"
	"github.com/oficina-avance/oficina/internal/services"
	"go.uber.org/zap"
)

// ClientHandler обрабатывает запросы реестра клиентов.
type ClientHandler struct {
	clientService services.ClientService
	logger        *zap.Logger
}

// NewClientHandler создаёт новый экземпляр ClientHandler.
func NewClientHandler(clientService services.ClientService, logger *zap.Logger) *ClientHandler {
	return &ClientHandler{clientService: clientService, logger: orNop(logger)}
}

// List обрабатывает GET /api/clients.
func (h *ClientHandler) List(c echo.Context) error {
	clients, err := h.clientService.List(c.Request().Context())
	if err != nil {
		return serviceError(h.logger, "failed to list clients", err)
	}

	response := make([]*models.ClientResponse, 0, len(clients))
	for _, client := range clients {
		response = append(response, models.NewClientResponse(client))
	}
	return c.JSON(http.StatusOK, response)
}

// Create обрабатывает POST /api/clients.
func (h *ClientHandler) Create(c echo.Context) error {
	var req models.ClientRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	client, err := h.clientService.Create(c.Request().Context(), req)
	if err != nil {
		return serviceError(h.logger, "failed to create client", err)
	}
	return c.JSON(http.StatusCreated, models.NewClientResponse(client))
}

// Update обрабатывает PUT /api/clients/:id.
func (h *ClientHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req models.ClientRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	client, err := h.clientService.Update(c.Request().Context(), id, req)
	if err != nil {
		return serviceError(h.logger, "failed to update client", err)
	}
	return c.JSON(http.StatusOK, models.NewClientResponse(client))
}

// Delete обрабатывает DELETE /api/clients/:id.
func (h *ClientHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.clientService.Delete(c.Request().Context(), id); err != nil {
		return serviceError(h.logger, "failed to delete client", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// VehicleHandler обрабатывает запросы реестра автомобилей.
type VehicleHandler struct {
	vehicleService services.VehicleService
	logger         *zap.Logger
}

// NewVehicleHandler создаёт новый экземпляр VehicleHandler.
func NewVehicleHandler(vehicleService services.VehicleService, logger *zap.Logger) *VehicleHandler {
	return &VehicleHandler{vehicleService: vehicleService, logger: orNop(logger)}
}

// List обрабатывает GET /api/vehicles.
func (h *VehicleHandler) List(c echo.Context) error {
	vehicles, err := h.vehicleService.List(c.Request().Context())
	if err != nil {
		return serviceError(h.logger, "failed to list vehicles", err)
	}

	response := make([]*models.VehicleResponse, 0, len(vehicles))
	for _, v := range vehicles {
		response = append(response, models.NewVehicleResponse(v))
	}
	return c.JSON(http.StatusOK, response)
}

// Create обрабатывает POST /api/vehicles.
func (h *VehicleHandler) Create(c echo.Context) error {
	var req models.VehicleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	vehicle, err := h.vehicleService.Create(c.Request().Context(), req)
	if err != nil {
		return serviceError(h.logger, "failed to create vehicle", err)
	}
	return c.JSON(http.StatusCreated, models.NewVehicleResponse(vehicle))
}

// Update обрабатывает PUT /api/vehicles/:id.
func (h *VehicleHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req models.VehicleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	vehicle, err := h.vehicleService.Update(c.Request().Context(), id, req)
	if err != nil {
		return serviceError(h.logger, "failed to update vehicle", err)
	}
	return c.JSON(http.StatusOK, models.NewVehicleResponse(vehicle))
}

// Delete обрабатывает DELETE /api/vehicles/:id.
func (h *VehicleHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.vehicleService.Delete(c.Request().Context(), id); err != nil {
		return serviceError(h.logger, "failed to delete vehicle", err)
	}
	return c.NoContent(http.StatusNoContent)
}
