package backend

const (
	TableUserProfiles      = "user_profiles"
	TableProducts          = "products"
	TableOrders            = "orders"
	TableOrderItems        = "order_items"
	TablePendingOrderItems = "pending_order_items"
	TableAuthUsers         = "auth_users"
	TableAuthSessions      = "auth_sessions"
)

// StorefrontSchema describes every table the storefront reads or writes.
// The auth_* tables only exist on backends that use local auth.
func StorefrontSchema() *Schema {
	return NewSchema(
		Table{Name: TableUserProfiles, Columns: []Column{
			{Name: "id", Kind: KindString},
			{Name: "email", Kind: KindString},
			{Name: "full_name", Kind: KindString, Nullable: true},
			{Name: "is_admin", Kind: KindBool},
			{Name: "created_at", Kind: KindTime},
		}},
		Table{Name: TableProducts, Columns: []Column{
			{Name: "id", Kind: KindString},
			{Name: "name", Kind: KindString},
			{Name: "slug", Kind: KindString, Nullable: true},
			{Name: "description", Kind: KindString, Nullable: true},
			{Name: "price", Kind: KindDecimal},
			{Name: "image_url", Kind: KindString, Nullable: true},
			{Name: "category", Kind: KindString, Nullable: true},
			{Name: "sizes", Kind: KindStrings, Nullable: true},
			{Name: "colors", Kind: KindStrings, Nullable: true},
			{Name: "stock", Kind: KindInt},
			{Name: "is_active", Kind: KindBool},
			{Name: "created_at", Kind: KindTime},
			{Name: "updated_at", Kind: KindTime, Nullable: true},
		}},
		Table{Name: TableOrders, Columns: []Column{
			{Name: "id", Kind: KindString},
			{Name: "user_id", Kind: KindString},
			{Name: "customer_name", Kind: KindString},
			{Name: "customer_email", Kind: KindString},
			{Name: "customer_phone", Kind: KindString},
			{Name: "address", Kind: KindString},
			{Name: "city", Kind: KindString},
			{Name: "zip_code", Kind: KindString},
			{Name: "total_amount", Kind: KindDecimal},
			{Name: "status", Kind: KindString},
			{Name: "payment_method", Kind: KindString},
			{Name: "created_at", Kind: KindTime},
			{Name: "updated_at", Kind: KindTime, Nullable: true},
		}},
		Table{Name: TableOrderItems, Columns: []Column{
			{Name: "id", Kind: KindString},
			{Name: "order_id", Kind: KindString},
			{Name: "product_id", Kind: KindString},
			{Name: "quantity", Kind: KindInt},
			{Name: "size", Kind: KindString, Nullable: true},
			{Name: "color", Kind: KindString, Nullable: true},
			{Name: "price", Kind: KindDecimal},
			{Name: "created_at", Kind: KindTime},
		}},
		Table{Name: TablePendingOrderItems, Columns: []Column{
			{Name: "id", Kind: KindString},
			{Name: "order_id", Kind: KindString},
			{Name: "items", Kind: KindJSON},
			{Name: "attempts", Kind: KindInt},
			{Name: "last_error", Kind: KindString, Nullable: true},
			{Name: "created_at", Kind: KindTime},
			{Name: "updated_at", Kind: KindTime, Nullable: true},
		}},
		Table{Name: TableAuthUsers, Columns: []Column{
			{Name: "id", Kind: KindString},
			{Name: "email", Kind: KindString},
			{Name: "password_hash", Kind: KindString, Nullable: true},
			{Name: "provider", Kind: KindString},
			{Name: "full_name", Kind: KindString, Nullable: true},
			{Name: "created_at", Kind: KindTime},
		}},
		Table{Name: TableAuthSessions, Columns: []Column{
			{Name: "id", Kind: KindString},
			{Name: "user_id", Kind: KindString},
			{Name: "created_at", Kind: KindTime},
			{Name: "expires_at", Kind: KindTime},
		}},
	)
}
