package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/malakmiqdad/storefront/internal/helpers"
	"github.com/malakmiqdad/storefront/internal/models"
	"github.com/malakmiqdad/storefront/internal/services"
)

func ListProducts(cs *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := cs.ListProducts(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.ListResponse(products, len(products)))
	}
}

func GetProduct(cs *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := uuidParam(c, "id")
		if !ok {
			return
		}
		product, err := cs.GetProduct(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(product, ""))
	}
}

func ListPackages(cs *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		packages, err := cs.ListPackages(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.ListResponse(packages, len(packages)))
	}
}

func ListAllProducts(cs *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := cs.ListAllProducts(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.ListResponse(products, len(products)))
	}
}

type createProductBody struct {
	models.Product
	CoverImage string `json:"coverImage"`
}

func CreateProduct(cs *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body createProductBody
		if err := c.ShouldBindJSON(&body); err != nil {
			badRequest(c, err.Error())
			return
		}
		product, err := cs.CreateProduct(c.Request.Context(), &body.Product, body.CoverImage)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, helpers.SuccessResponse(product, "Product created"))
	}
}

// UpdateProduct applies a partial update; "coverImage" is uploaded and
// stored as cover_url.
func UpdateProduct(cs *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := uuidParam(c, "id")
		if !ok {
			return
		}
		var fields map[string]interface{}
		if err := c.ShouldBindJSON(&fields); err != nil {
			badRequest(c, err.Error())
			return
		}
		cover, _ := fields["coverImage"].(string)
		delete(fields, "coverImage")

		product, err := cs.UpdateProduct(c.Request.Context(), id, fields, cover)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(product, "Product updated"))
	}
}
