package storefront

const (
	msgNetwork         = "Network error - please try again"
	msgLoadProducts    = "Failed to load products"
	msgNetworkProducts = "Network error loading products"
	msgProductDetails  = "Failed to load product details"
	msgNetworkProduct  = "Network error loading product"
	msgAvailability    = "Failed to check product availability"
	msgOutOfStock      = "Sorry, this product is out of stock"
	msgAddedToCart     = "Product added to cart!"
	msgAddToCartFailed = "Failed to add to cart"
	msgSessionExpired  = "Session expired. Please log in again."
)
