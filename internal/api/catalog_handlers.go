package api

import (
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"eshop-service/internal/service"
	"eshop-service/internal/store"
)

// listProducts handles filtered, paginated product listing
func (h *Handler) listProducts(c *gin.Context) {
	filter := store.ProductFilter{
		Category: c.Query("category"),
		Brand:    c.Query("brand"),
		Color:    c.Query("colors"),
		Sort:     c.Query("sort"),
	}

	if v := c.Query("minPrice"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.MinPrice = &n
		}
	}
	if v := c.Query("maxPrice"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.MaxPrice = &n
		}
	}
	if v := c.Query("minDiscount"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.MinDiscount = &n
		}
	}
	if v := c.Query("quantity"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Quantity = &n
		}
	}
	if v := c.Query("pageNumber"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			filter.Page = n
		}
	}

	page, err := h.catalogService.ListProducts(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// getProduct handles product detail reads
func (h *Handler) getProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	product, err := h.catalogService.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// searchProducts handles substring search over titles and categories
func (h *Handler) searchProducts(c *gin.Context) {
	products, err := h.catalogService.SearchProducts(c.Request.Context(), c.Query("query"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// listCategories handles the category listing for the home page
func (h *Handler) listCategories(c *gin.Context) {
	categories, err := h.catalogService.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

// createProduct handles administrative product creation (multipart)
func (h *Handler) createProduct(c *gin.Context) {
	var req service.ProductRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	form, _ := c.MultipartForm()
	product, err := h.catalogService.CreateProduct(c.Request.Context(), &req, formFiles(form, "images"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// updateProduct handles administrative product updates
func (h *Handler) updateProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req service.ProductRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	form, _ := c.MultipartForm()
	product, err := h.catalogService.UpdateProduct(c.Request.Context(), id, &req, formFiles(form, "images"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// updateProductStock handles stock quantity patches
func (h *Handler) updateProductStock(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := h.catalogService.UpdateProductStock(c.Request.Context(), id, req.Quantity); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Stock updated"})
}

// deleteProduct handles administrative product deletion
func (h *Handler) deleteProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.catalogService.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}

// createCategory handles administrative category creation (multipart)
func (h *Handler) createCategory(c *gin.Context) {
	var req service.CategoryRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	file, _ := c.FormFile("image")
	category, err := h.catalogService.CreateCategory(c.Request.Context(), &req, file)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

// updateCategory handles administrative category updates
func (h *Handler) updateCategory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req service.CategoryRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	file, _ := c.FormFile("image")
	category, err := h.catalogService.UpdateCategory(c.Request.Context(), id, &req, file)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

// deleteCategory handles cascading category deletion
func (h *Handler) deleteCategory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.catalogService.DeleteCategory(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted"})
}

// formFiles extracts a named file set from an optional multipart form.
func formFiles(form *multipart.Form, field string) []*multipart.FileHeader {
	if form == nil {
		return nil
	}
	return form.File[field]
}

// paramID parses a numeric path parameter, responding 400 on garbage.
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}
