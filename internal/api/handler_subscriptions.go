package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"parking-access-backend/internal/model"
	"parking-access-backend/internal/plate"
)

type putSubscriptionRequest struct {
	Endpoint         string   `json:"endpoint" binding:"required"`
	P256DH           string   `json:"p256dh" binding:"required"`
	Auth             string   `json:"auth" binding:"required"`
	SubscribedPlates []string `json:"subscribed_plates"`
}

// PutSubscription handles the creation or replacement of a push
// subscription and the set of plates it watches.
func (h *Handler) PutSubscription(c *gin.Context) {
	var req putSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	watched := make([]model.SubscriptionPlate, 0, len(req.SubscribedPlates))
	for _, p := range req.SubscribedPlates {
		if err := plate.Validate(p); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		watched = append(watched, model.SubscriptionPlate{
			SubscriptionEndpoint: req.Endpoint,
			Plate:                plate.Normalize(p),
		})
	}

	subscription := model.PushSubscription{
		Endpoint: req.Endpoint,
		P256DH:   req.P256DH,
		Auth:     req.Auth,
	}

	err := h.store.DB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
		}).Create(&subscription).Error; err != nil {
			return err
		}

		// Replace the watch list wholesale.
		if err := tx.Where("subscription_endpoint = ?", req.Endpoint).
			Delete(&model.SubscriptionPlate{}).Error; err != nil {
			return err
		}
		if len(watched) > 0 {
			if err := tx.Create(&watched).Error; err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusCreated)
}

type deleteSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// DeleteSubscription handles the deletion of a subscription.
func (h *Handler) DeleteSubscription(c *gin.Context) {
	var req deleteSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.store.DB().Delete(&model.PushSubscription{Endpoint: req.Endpoint}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

// GetSubscription returns the plates a subscription currently watches.
func (h *Handler) GetSubscription(c *gin.Context) {
	endpoint := c.Query("endpoint")
	if endpoint == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "endpoint is required"})
		return
	}

	var subscription model.PushSubscription
	if err := h.store.DB().Preload("Plates").First(&subscription, "endpoint = ?", endpoint).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "subscription not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	plates := make([]string, len(subscription.Plates))
	for i, w := range subscription.Plates {
		plates[i] = w.Plate
	}

	c.JSON(http.StatusOK, gin.H{"subscribed_plates": plates})
}
