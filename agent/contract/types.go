package contract

import "time"

// Product is catalog data. It is immutable once returned by the catalog;
// the orchestrator references it by ID and cart lines keep a price snapshot.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"image_url,omitempty"`
	Category    string  `json:"category"`
	Brand       string  `json:"brand,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
	InStock     bool    `json:"in_stock"`
}

type ProductDetails struct {
	Product

	LongDescription string            `json:"long_description,omitempty"`
	Specifications  map[string]string `json:"specifications,omitempty"`
	Tags            []string          `json:"tags,omitempty"`
	RelatedIDs      []string          `json:"related_ids,omitempty"`
}

type SearchFilters struct {
	MinPrice *float64 `json:"min_price,omitempty"`
	MaxPrice *float64 `json:"max_price,omitempty"`
	Category string   `json:"category,omitempty"`
	Brand    string   `json:"brand,omitempty"`
}

type CartItem struct {
	Product   Product `json:"product"`
	Quantity  int     `json:"quantity"`
	ItemTotal float64 `json:"item_total"`
}

// Cart totals are derived from the lines on every read, never stored
// independently of them.
type Cart struct {
	SessionID string     `json:"session_id"`
	Items     []CartItem `json:"items"`
	Subtotal  float64    `json:"subtotal"`
	Tax       float64    `json:"tax"`
	Shipping  float64    `json:"shipping"`
	Total     float64    `json:"total"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	ImageRef  string    `json:"image_ref,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type ActionKind string

const (
	ActionAddToCart ActionKind = "add_to_cart"
	ActionCheckout  ActionKind = "checkout"
)

// PendingAction is a proposed, not-yet-applied mutation awaiting explicit
// user confirmation. At most one exists per session at any time.
type PendingAction struct {
	ID        string     `json:"id"`
	Kind      ActionKind `json:"kind"`
	SessionID string     `json:"session_id"`
	CreatedAt time.Time  `json:"created_at"`

	AddToCart *AddToCartPayload `json:"add_to_cart,omitempty"`
	Checkout  *CheckoutPayload  `json:"checkout,omitempty"`
}

type AddToCartPayload struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	UnitPrice   float64 `json:"unit_price"`
	Quantity    int     `json:"quantity"`
}

type CheckoutPayload struct {
	Cart            Cart              `json:"cart"`
	Email           string            `json:"email"`
	SuccessURL      string            `json:"success_url"`
	CancelURL       string            `json:"cancel_url"`
	ShippingAddress map[string]string `json:"shipping_address,omitempty"`
	BillingAddress  map[string]string `json:"billing_address,omitempty"`
}

type CheckoutResult struct {
	CheckoutID  string `json:"checkout_id"`
	CheckoutURL string `json:"checkout_url"`
}

type Intent string

const (
	IntentInformational Intent = "informational_query"
	IntentMutating      Intent = "mutating_request"
	IntentSmallTalk     Intent = "action_irrelevant"
)

type ClassifyRequest struct {
	Message    string         `json:"message"`
	ImageRef   string         `json:"image_ref,omitempty"`
	Transcript []Message      `json:"transcript,omitempty"`
	Cart       Cart           `json:"cart"`
	Pending    *PendingAction `json:"pending,omitempty"`
	Now        time.Time      `json:"now"`
}

// ClassifyResult is the classifier's structured verdict. Fields beyond
// Intent are populated per intent: Query/Filters for informational queries,
// Action/ProductID/Quantity plus checkout contact fields for mutating
// requests, Reply for chit-chat.
type ClassifyResult struct {
	Intent  Intent        `json:"intent"`
	Query   string        `json:"query,omitempty"`
	Filters SearchFilters `json:"filters,omitempty"`

	Action     ActionKind `json:"action,omitempty"`
	ProductID  string     `json:"product_id,omitempty"`
	Quantity   int        `json:"quantity,omitempty"`
	Email      string     `json:"email,omitempty"`
	SuccessURL string     `json:"success_url,omitempty"`
	CancelURL  string     `json:"cancel_url,omitempty"`

	Reply string `json:"reply,omitempty"`
}

type ReplyRequest struct {
	Message     string    `json:"message"`
	Suggestions []Product `json:"suggestions,omitempty"`
}

type ToolRequest struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

type ToolResult struct {
	Tool   string `json:"tool"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}
