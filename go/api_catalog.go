package procurementserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	catalogports "github.com/Apurer/go-procurement-server/internal/domains/catalog/ports"
)

// CatalogAPI exposes product reference data and bills of materials.
type CatalogAPI struct {
	service catalogports.Service
}

func NewCatalogAPI(service catalogports.Service) CatalogAPI {
	return CatalogAPI{service: service}
}

// Get /v1/products/:productId
func (api *CatalogAPI) GetProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "productId")
	if !ok {
		return
	}
	product, err := api.service.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromProduct(product))
}

// Put /v1/products/:productId/bom
// Replaces the bill of materials of a product
func (api *CatalogAPI) SetProductBOM(c *gin.Context) {
	id, ok := parseIDParam(c, "productId")
	if !ok {
		return
	}
	var payload BOMUpdate
	if err := c.ShouldBindJSON(&payload); err != nil {
		responder.RespondBinding(c, err)
		return
	}
	product, err := api.service.SetBOM(c.Request.Context(), id, payload.toDomain())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromProduct(product))
}
