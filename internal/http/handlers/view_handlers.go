package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

// LifecycleHandler godoc
// @Summary Report a page lifecycle signal
// @Description Drives the preloader: dom (with the image count), image (one image settled) and load.
// @Tags views
// @Accept x-www-form-urlencoded
// @Param id path string true "View ID"
// @Param kind formData string true "dom, image or load"
// @Param images formData int false "number of images on the page"
// @Success 204
// @Failure 400 {string} string "invalid input"
// @Failure 404 {string} string "view not found"
// @Router /views/{id}/lifecycle [post]
func LifecycleHandler(w http.ResponseWriter, r *http.Request) {
	v, ok := viewFromRequest(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	images := 0
	if raw := r.PostForm.Get("images"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "invalid input", http.StatusBadRequest)
			return
		}
		images = n
	}

	if err := service.Lifecycle(v, r.PostForm.Get("kind"), images); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SelectSlideHandler godoc
// @Summary Move the featured carousel
// @Tags views
// @Param id path string true "View ID"
// @Param index path int true "Slide index"
// @Success 204
// @Failure 400 {string} string "invalid index"
// @Failure 404 {string} string "view not found"
// @Router /views/{id}/slides/{index} [post]
func SelectSlideHandler(w http.ResponseWriter, r *http.Request) {
	v, ok := viewFromRequest(w, r)
	if !ok {
		return
	}
	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	service.SelectSlide(v, index)
	w.WriteHeader(http.StatusNoContent)
}

// OpenProductHandler godoc
// @Summary Open the product detail modal
// @Tags views
// @Param id path string true "View ID"
// @Param productID path string true "Product ID"
// @Success 204
// @Failure 404 {string} string "view not found"
// @Router /views/{id}/products/{productID} [get]
func OpenProductHandler(w http.ResponseWriter, r *http.Request) {
	v, ok := viewFromRequest(w, r)
	if !ok {
		return
	}
	service.OpenProduct(viewContext(r, v), v, chi.URLParam(r, "productID"))
	w.WriteHeader(http.StatusNoContent)
}

// SelectImageHandler godoc
// @Summary Show another image in the product modal
// @Tags views
// @Param id path string true "View ID"
// @Param index path int true "Image index"
// @Success 204
// @Failure 400 {string} string "invalid index"
// @Failure 404 {string} string "view not found"
// @Router /views/{id}/modal/images/{index} [post]
func SelectImageHandler(w http.ResponseWriter, r *http.Request) {
	v, ok := viewFromRequest(w, r)
	if !ok {
		return
	}
	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	service.SelectImage(v, index)
	w.WriteHeader(http.StatusNoContent)
}

// CloseModalHandler godoc
// @Summary Close the product modal
// @Tags views
// @Param id path string true "View ID"
// @Success 204
// @Failure 404 {string} string "view not found"
// @Router /views/{id}/modal/close [post]
func CloseModalHandler(w http.ResponseWriter, r *http.Request) {
	v, ok := viewFromRequest(w, r)
	if !ok {
		return
	}
	service.CloseModal(v)
	w.WriteHeader(http.StatusNoContent)
}

// AddToCartHandler godoc
// @Summary Add one unit of a product to the cart
// @Description Guests are redirected to the login page through the view's stream.
// @Tags views
// @Accept x-www-form-urlencoded
// @Param id path string true "View ID"
// @Param product_id formData string true "Product ID"
// @Param close_modal formData bool false "close the product modal on success"
// @Success 204
// @Failure 400 {string} string "invalid input"
// @Failure 404 {string} string "view not found"
// @Failure 429 {string} string "too many requests"
// @Router /views/{id}/cart [post]
func AddToCartHandler(w http.ResponseWriter, r *http.Request) {
	v, ok := viewFromRequest(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}
	productID := strings.TrimSpace(r.PostForm.Get("product_id"))
	if productID == "" {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}
	closeModal, _ := strconv.ParseBool(r.PostForm.Get("close_modal"))

	service.AddToCart(viewContext(r, v), v, productID, closeModal)
	w.WriteHeader(http.StatusNoContent)
}

// LogoutHandler godoc
// @Summary Log the visitor out
// @Description Clears the stored session and reloads the tab. Other tabs follow.
// @Tags views
// @Param id path string true "View ID"
// @Success 204
// @Failure 404 {string} string "view not found"
// @Failure 500 {string} string "failed to logout"
// @Router /views/{id}/logout [post]
func LogoutHandler(w http.ResponseWriter, r *http.Request) {
	v, ok := viewFromRequest(w, r)
	if !ok {
		return
	}
	if err := service.Logout(viewContext(r, v), v); err != nil {
		slog.Error("logout failed", "view", v.ID, "error", err)
		http.Error(w, "failed to logout", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
