package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"parampara-foods/models"
	"parampara-foods/services"
)

type OrderController struct {
	orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{orders: orders}
}

func (ctl *OrderController) CreateOrder(c *gin.Context) {
	defer recordOrderOperation(c, "create")

	var req models.CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := ctl.orders.CreateOrder(c.Request.Context(), callerFrom(c).UserID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (ctl *OrderController) ListOrders(c *gin.Context) {
	defer recordOrderOperation(c, "list")

	orders, err := ctl.orders.ListOrders(c.Request.Context(), callerFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (ctl *OrderController) GetOrder(c *gin.Context) {
	defer recordOrderOperation(c, "details")

	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	order, err := ctl.orders.GetOrder(c.Request.Context(), callerFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (ctl *OrderController) GetOrderHistory(c *gin.Context) {
	defer recordOrderOperation(c, "history")

	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	history, err := ctl.orders.GetOrderHistory(c.Request.Context(), callerFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

func (ctl *OrderController) UpdateOrderStatus(c *gin.Context) {
	defer recordOrderOperation(c, "update_status")

	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req models.UpdateOrderStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := ctl.orders.UpdateOrderStatus(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
