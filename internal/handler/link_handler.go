package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "tinylink/internal/errors"
	"tinylink/internal/model"
)

// LinkService - операции, которые нужны HTTP слою
type LinkService interface {
	Create(ctx context.Context, req *model.CreateLinkRequest) (*model.LinkResponse, error)
	List(ctx context.Context) ([]*model.LinkResponse, error)
	GetStats(ctx context.Context, code string) (*model.LinkResponse, error)
	Delete(ctx context.Context, code string) error
	Redirect(ctx context.Context, code string) (string, error)
}

type LinkHandler struct {
	linkService LinkService
}

func NewLinkHandler(linkService LinkService) *LinkHandler {
	return &LinkHandler{
		linkService: linkService,
	}
}

func (h *LinkHandler) CreateLink(c *gin.Context) {
	var req model.CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// Нечитаемое тело означает что целевого URL в нем нет
		errorResponse(c, http.StatusBadRequest, "Target URL is required", apperrors.CodeMissingTargetURL)
		return
	}

	response, err := h.linkService.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

func (h *LinkHandler) ListLinks(c *gin.Context) {
	responses, err := h.linkService.List(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, responses)
}

func (h *LinkHandler) GetLinkStats(c *gin.Context) {
	code := c.Param("code")

	response, err := h.linkService.GetStats(c.Request.Context(), code)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *LinkHandler) DeleteLink(c *gin.Context) {
	code := c.Param("code")

	if err := h.linkService.Delete(c.Request.Context(), code); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *LinkHandler) Redirect(c *gin.Context) {
	code := c.Param("code")

	targetURL, err := h.linkService.Redirect(c.Request.Context(), code)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Redirect(http.StatusFound, targetURL)
}

// handleError переводит ошибку доменного слоя в HTTP статус
// и тело вида {error, code} со стабильным символом
func (h *LinkHandler) handleError(c *gin.Context, err error) {
	if apperrors.IsValidationError(err) {
		validationErr := apperrors.GetValidationError(err)
		errorResponse(c, http.StatusBadRequest, validationErr.Message, validationErr.Symbol)
		return
	}

	if errors.Is(err, apperrors.ErrCodeExists) {
		errorResponse(c, http.StatusConflict, "Code already exists", apperrors.CodeExists)
		return
	}

	if errors.Is(err, apperrors.ErrCodeCollision) {
		errorResponse(c, http.StatusInternalServerError, "Failed to generate unique code", apperrors.CodeGenerationFailed)
		return
	}

	if errors.Is(err, apperrors.ErrLinkNotFound) {
		errorResponse(c, http.StatusNotFound, "Link not found", apperrors.CodeLinkNotFound)
		return
	}

	// Ошибки хранилища несут свой символ, текст наружу не отдаем
	if apperrors.IsBusinessError(err) {
		businessErr := apperrors.GetBusinessError(err)
		errorResponse(c, http.StatusInternalServerError, "Internal server error", businessErr.Code)
		return
	}

	// Все неожиданное - generic 500
	errorResponse(c, http.StatusInternalServerError, "Internal server error", apperrors.CodeInternal)
}

func errorResponse(c *gin.Context, status int, message, symbol string) {
	c.JSON(status, gin.H{
		"error": message,
		"code":  symbol,
	})
}
