package models

import "time"

// Roles carried in bearer tokens and persisted on identities.
const (
	RoleShopper    = "ROLE_SHOPPER"
	RoleAdmin      = "ROLE_ADMIN"
	RoleSuperAdmin = "ROLE_SUPER_ADMIN"
)

// OTP purposes
const (
	OtpPurposeRegister       = "REGISTER"
	OtpPurposeForgotPassword = "FORGOT_PASSWORD"
)

// Order statuses
const (
	OrderStatusPending   = "PENDING"
	OrderStatusConfirmed = "CONFIRMED"
	OrderStatusShipped   = "SHIPPED"
	OrderStatusDelivered = "DELIVERED"
	OrderStatusCancelled = "CANCELLED"
)

// Payment statuses on an order
const (
	PaymentStatusPending   = "PENDING"
	PaymentStatusCompleted = "COMPLETED"
	PaymentStatusFailed    = "FAILED"
)

// Payment order statuses
const (
	PaymentOrderPending = "PENDING"
	PaymentOrderSuccess = "SUCCESS"
	PaymentOrderFailed  = "FAILED"
)

// PaymentMethodRazorpay is the only supported payment method.
const PaymentMethodRazorpay = "RAZORPAY"

// User is a shopper account, created by registration after OTP validation.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	FullName     string    `db:"full_name" json:"fullName"`
	PhoneNumber  string    `db:"phone_number" json:"phoneNumber"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Verified     bool      `db:"verified" json:"verified"`
	Role         string    `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// Admin is an administrator account (ROLE_ADMIN or ROLE_SUPER_ADMIN).
type Admin struct {
	ID           int64     `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	AdminName    string    `db:"admin_name" json:"adminName"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// Principal is the unified authentication view over users and admins.
// Exactly one identity backs a principal.
type Principal struct {
	Email        string
	DisplayName  string
	PasswordHash string
	Role         string
}

// OtpRecord is a single-use verification code scoped to an email.
// At most one record exists per email; re-issuing replaces it.
type OtpRecord struct {
	ID        int64  `db:"id"`
	Email     string `db:"email"`
	Code      string `db:"code"`
	Purpose   string `db:"purpose"`
	ExpiresAt int64  `db:"expires_at"` // epoch millis
	Used      bool   `db:"used"`
}

// Category groups products.
type Category struct {
	ID       int64  `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	ImageURL string `db:"image_url" json:"imageUrl"`
}

// Product is a catalog item. Prices are integer minor units (paise).
type Product struct {
	ID              int64     `db:"id" json:"id"`
	Title           string    `db:"title" json:"title"`
	Description     string    `db:"description" json:"description"`
	MrpPrice        int64     `db:"mrp_price" json:"mrpPrice"`
	SellingPrice    int64     `db:"selling_price" json:"sellingPrice"`
	DiscountPercent int       `db:"discount_percent" json:"discountPercent"`
	Color           string    `db:"color" json:"color"`
	Brand           string    `db:"brand" json:"brand"`
	CategoryID      int64     `db:"category_id" json:"categoryId"`
	CategoryName    string    `db:"category_name" json:"category"`
	Quantity        int       `db:"quantity" json:"quantity"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `db:"updated_at" json:"updatedAt"`

	Images []string `db:"-" json:"images"`
}

// Cart holds a shopper's mutable selection. Totals are recomputed from
// items after every mutation; Discount is a percentage.
type Cart struct {
	ID                int64 `db:"id" json:"id"`
	UserID            int64 `db:"user_id" json:"userId"`
	TotalItem         int   `db:"total_item" json:"totalItem"`
	TotalMrpPrice     int64 `db:"total_mrp_price" json:"totalMrpPrice"`
	TotalSellingPrice int64 `db:"total_selling_price" json:"totalSellingPrice"`
	Discount          int   `db:"discount" json:"discount"`

	Items []CartItem `db:"-" json:"cartItems"`
}

// CartItem snapshots unit prices from the product at insertion time.
type CartItem struct {
	ID           int64 `db:"id" json:"id"`
	CartID       int64 `db:"cart_id" json:"cartId"`
	ProductID    int64 `db:"product_id" json:"productId"`
	Quantity     int   `db:"quantity" json:"quantity"`
	MrpPrice     int64 `db:"mrp_price" json:"mrpPrice"`
	SellingPrice int64 `db:"selling_price" json:"sellingPrice"`
}

// Address is copied by value onto each order and immutable afterwards.
type Address struct {
	ID         int64  `db:"id" json:"id"`
	Locality   string `db:"locality" json:"locality"`
	Street     string `db:"street" json:"street"`
	City       string `db:"city" json:"city"`
	State      string `db:"state" json:"state"`
	PostalCode string `db:"postal_code" json:"postalCode"`
	Mobile     string `db:"mobile" json:"mobile"`
}

// Order freezes cart contents at creation time. Discount here is the
// absolute difference in minor units, unlike Cart's percentage.
type Order struct {
	ID                int64     `db:"id" json:"id"`
	UserID            int64     `db:"user_id" json:"userId"`
	AddressID         int64     `db:"address_id" json:"-"`
	TotalMrpPrice     int64     `db:"total_mrp_price" json:"totalMrpPrice"`
	TotalSellingPrice int64     `db:"total_selling_price" json:"totalSellingPrice"`
	Discount          int64     `db:"discount" json:"discount"`
	TotalItem         int       `db:"total_item" json:"totalItem"`
	OrderStatus       string    `db:"order_status" json:"orderStatus"`
	PaymentStatus     string    `db:"payment_status" json:"paymentStatus"`
	PaymentMethod     string    `db:"payment_method" json:"paymentMethod"`
	OrderDate         time.Time `db:"order_date" json:"orderDate"`
	DeliverDate       time.Time `db:"deliver_date" json:"estimatedDeliveryDate"`

	ShippingAddress *Address    `db:"-" json:"shippingAddress,omitempty"`
	Items           []OrderItem `db:"-" json:"orderItems,omitempty"`
}

// OrderItem carries the unit prices snapshotted from the cart.
type OrderItem struct {
	ID           int64 `db:"id" json:"id"`
	OrderID      int64 `db:"order_id" json:"orderId"`
	ProductID    int64 `db:"product_id" json:"productId"`
	Quantity     int   `db:"quantity" json:"quantity"`
	MrpPrice     int64 `db:"mrp_price" json:"mrpPrice"`
	SellingPrice int64 `db:"selling_price" json:"sellingPrice"`
	UserID       int64 `db:"user_id" json:"userId"`
}

// PaymentOrder tracks the external payment link for an order.
type PaymentOrder struct {
	ID            int64     `db:"id" json:"id"`
	UserID        int64     `db:"user_id" json:"userId"`
	OrderID       int64     `db:"order_id" json:"orderId"`
	Amount        int64     `db:"amount" json:"amount"`
	PaymentMethod string    `db:"payment_method" json:"paymentMethod"`
	PaymentLinkID string    `db:"payment_link_id" json:"paymentLinkId"`
	PaymentURL    string    `db:"payment_url" json:"paymentUrl"`
	Status        string    `db:"status" json:"status"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

// Transaction records a settled payment. At most one non-FAILED
// transaction exists per order.
type Transaction struct {
	ID            int64     `db:"id" json:"id"`
	OrderID       int64     `db:"order_id" json:"orderId"`
	UserID        int64     `db:"user_id" json:"userId"`
	Amount        int64     `db:"amount" json:"amount"`
	Status        string    `db:"status" json:"status"`
	PaymentID     string    `db:"payment_id" json:"paymentId"`
	PaymentLinkID string    `db:"payment_link_id" json:"paymentLinkId"`
	PaymentMethod string    `db:"payment_method" json:"paymentMethod"`
	CreatedAt     time.Time `db:"created_at" json:"date"`
}

// Wishlist is a per-user toggle-set of products.
type Wishlist struct {
	ID     int64 `db:"id" json:"id"`
	UserID int64 `db:"user_id" json:"userId"`

	Products []Product `db:"-" json:"products"`
}

// DashboardStats aggregates storefront counters for the admin dashboard.
type DashboardStats struct {
	TotalUsers           int64 `db:"total_users" json:"totalUsers"`
	TotalOrders          int64 `db:"total_orders" json:"totalOrders"`
	TotalRevenue         int64 `db:"total_revenue" json:"totalRevenue"`
	TotalProducts        int64 `db:"total_products" json:"totalProducts"`
	TotalCategories      int64 `db:"total_categories" json:"totalCategories"`
	TotalCancelledOrders int64 `db:"total_cancelled_orders" json:"totalCancelledOrders"`
	TotalRefundAmount    int64 `db:"total_refund_amount" json:"totalRefundAmount"`
}
