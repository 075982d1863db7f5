package stub

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AddCartItemRequest is the add-or-increment payload.
type AddCartItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,min=1"`
}

// UpdateQuantityRequest sets a line's quantity.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// AddSessionRequest books one class session.
type AddSessionRequest struct {
	SessionID int64 `json:"session_id" binding:"required"`
}

// RatingRequest is one star rating for a product.
type RatingRequest struct {
	Stars int `json:"stars" binding:"required,min=1,max=5"`
}

func handleGetCart(repo *Repo, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := repo.GetCart(c.Request.Context(), userID(c))
		if err != nil {
			logger.Error("Failed to load cart", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}

func handleAddCartItem(repo *Repo, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AddCartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed"})
			return
		}

		err := repo.AddCartItem(c.Request.Context(), userID(c), req.ProductID, req.Quantity)
		switch {
		case errors.Is(err, ErrProductNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, ErrOutOfStock):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case err != nil:
			logger.Error("Failed to add cart item", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		default:
			c.JSON(http.StatusOK, gin.H{"message": "added"})
		}
	}
}

func handleUpdateCartItem(repo *Repo, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		lineID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cart item id"})
			return
		}

		var req UpdateQuantityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed"})
			return
		}

		err = repo.UpdateCartItem(c.Request.Context(), userID(c), lineID, req.Quantity)
		switch {
		case errors.Is(err, ErrLineNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, ErrOutOfStock):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case err != nil:
			logger.Error("Failed to update cart item", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		default:
			c.JSON(http.StatusOK, gin.H{"message": "updated"})
		}
	}
}

func handleRemoveCartItem(repo *Repo, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		lineID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cart item id"})
			return
		}

		err = repo.RemoveCartItem(c.Request.Context(), userID(c), lineID)
		switch {
		case errors.Is(err, ErrLineNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case err != nil:
			logger.Error("Failed to remove cart item", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		default:
			c.JSON(http.StatusOK, gin.H{"message": "removed"})
		}
	}
}

func handleGetSessionCart(repo *Repo, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := repo.GetSessionCart(c.Request.Context(), userID(c))
		if err != nil {
			logger.Error("Failed to load session cart", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}

func handleAddSession(repo *Repo, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AddSessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed"})
			return
		}

		line, err := repo.AddSessionItem(c.Request.Context(), userID(c), req.SessionID)
		switch {
		case errors.Is(err, ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, ErrSessionFull), errors.Is(err, ErrAlreadyBooked):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case err != nil:
			logger.Error("Failed to book session", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		default:
			c.JSON(http.StatusCreated, line)
		}
	}
}

func handleRemoveSession(repo *Repo, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		cartItemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cart item id"})
			return
		}

		err = repo.RemoveSessionItem(c.Request.Context(), userID(c), cartItemID)
		switch {
		case errors.Is(err, ErrLineNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case err != nil:
			logger.Error("Failed to remove session", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		default:
			c.JSON(http.StatusOK, gin.H{"message": "removed"})
		}
	}
}

func handleClearSessionCart(repo *Repo, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := repo.ClearSessionCart(c.Request.Context(), userID(c)); err != nil {
			logger.Error("Failed to clear session cart", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "cleared"})
	}
}

func handleListProducts(repo *Repo, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := repo.ListProducts(c.Request.Context())
		if err != nil {
			logger.Error("Failed to list products", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, products)
	}
}

func handleListEquipment(repo *Repo, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := repo.ListEquipment(c.Request.Context())
		if err != nil {
			logger.Error("Failed to list equipment", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

func handleListSessions(repo *Repo, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessions, err := repo.ListSessions(c.Request.Context())
		if err != nil {
			logger.Error("Failed to list sessions", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, sessions)
	}
}

func handleAddRating(repo *Repo, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
			return
		}

		var req RatingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed"})
			return
		}

		err = repo.AddRating(c.Request.Context(), productID, req.Stars)
		switch {
		case errors.Is(err, ErrProductNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case err != nil:
			logger.Error("Failed to add rating", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		default:
			c.JSON(http.StatusCreated, gin.H{"message": "rated"})
		}
	}
}
