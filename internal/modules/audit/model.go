package audit

import "time"

// MaxEntries caps the log; older entries are dropped on write.
const MaxEntries = 500

// Entry is one operator action, kept for display only.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
}

// Action kinds recorded by the admin surfaces.
const (
	ActionRestock        = "restock"
	ActionCreateProduct  = "create_product"
	ActionUpdateProduct  = "update_product"
	ActionSetPrice       = "set_price"
	ActionSetDiscount    = "set_discount"
	ActionArchiveProduct = "archive_product"
	ActionCreateBanner   = "create_banner"
	ActionUpdateBanner   = "update_banner"
	ActionDeleteBanner   = "delete_banner"
	ActionLogin          = "login"
)
