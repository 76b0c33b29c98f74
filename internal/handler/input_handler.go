package handler

import (
	"net/http"

	"docflow/internal/middleware"
	"docflow/internal/service"
	"docflow/pkg/response"

	"github.com/gin-gonic/gin"
)

type InputHandler struct {
	inputService service.InputService
	guard        *middleware.Guard
}

func NewInputHandler(inputService service.InputService, guard *middleware.Guard) *InputHandler {
	return &InputHandler{inputService: inputService, guard: guard}
}

func (h *InputHandler) RegisterRoutes(router *gin.RouterGroup) {
	values := router.Group("/api/inputs/values")
	values.Use(h.guard.Require(middleware.OpManageInputs))
	{
		values.GET("", h.ListValues)
		values.GET("/:id", h.GetValue)
		values.POST("", h.CreateValue)
		values.PUT("/:id", h.UpdateValue)
		values.DELETE("/:id", h.DeleteValue)
	}
}

// ListValues returns catalog values sorted by value
// @Summary      List input values
// @Tags         inputs
// @Security     BearerAuth
// @Produce      json
// @Param        test_type  query     string  false  "Besi or Beton"
// @Param        category   query     string  false  "materialGrade or materialType"
// @Success      200        {object}  response.Response{data=[]model.InputValue}
// @Router       /api/inputs/values [get]
func (h *InputHandler) ListValues(c *gin.Context) {
	values, err := h.inputService.List(c.Request.Context(), c.Query("test_type"), c.Query("category"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, values))
}

// GetValue returns one catalog value
// @Summary      Get input value
// @Tags         inputs
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Input value ID"
// @Success      200  {object}  response.Response{data=model.InputValue}
// @Failure      404  {object}  response.Response
// @Router       /api/inputs/values/{id} [get]
func (h *InputHandler) GetValue(c *gin.Context) {
	value, err := h.inputService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, value))
}

// CreateValue adds a catalog value
// @Summary      Create input value
// @Description  Grade values must start with T for Besi and K for Beton
// @Tags         inputs
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.InputValueRequest  true  "Input value"
// @Success      201      {object}  response.Response{data=model.InputValue}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/inputs/values [post]
func (h *InputHandler) CreateValue(c *gin.Context) {
	var req service.InputValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	value, err := h.inputService.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, value))
}

// UpdateValue replaces a catalog value
// @Summary      Update input value
// @Tags         inputs
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true  "Input value ID"
// @Param        payload  body      service.InputValueRequest  true  "Input value"
// @Success      200      {object}  response.Response{data=model.InputValue}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/inputs/values/{id} [put]
func (h *InputHandler) UpdateValue(c *gin.Context) {
	var req service.InputValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	value, err := h.inputService.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, value))
}

// DeleteValue removes a catalog value
// @Summary      Delete input value
// @Tags         inputs
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Input value ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/inputs/values/{id} [delete]
func (h *InputHandler) DeleteValue(c *gin.Context) {
	if err := h.inputService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Input value deleted successfully"}))
}
