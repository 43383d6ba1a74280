package permission

// Permission is a named capability in resource:action form.
type Permission string

// Users.
const (
	UsersCreate Permission = "users:create"
	UsersRead   Permission = "users:read"
	UsersUpdate Permission = "users:update"
	UsersDelete Permission = "users:delete"
	UsersManage Permission = "users:manage"
)

// Profiles.
const (
	ProfilesCreate Permission = "profiles:create"
	ProfilesRead   Permission = "profiles:read"
	ProfilesUpdate Permission = "profiles:update"
	ProfilesDelete Permission = "profiles:delete"
)

// Recipes.
const (
	RecipesCreate  Permission = "recipes:create"
	RecipesRead    Permission = "recipes:read"
	RecipesUpdate  Permission = "recipes:update"
	RecipesDelete  Permission = "recipes:delete"
	RecipesPublish Permission = "recipes:publish"
	RecipesRate    Permission = "recipes:rate"
	RecipesManage  Permission = "recipes:manage"
)

// Ingredients.
const (
	IngredientsCreate Permission = "ingredients:create"
	IngredientsRead   Permission = "ingredients:read"
	IngredientsUpdate Permission = "ingredients:update"
	IngredientsDelete Permission = "ingredients:delete"
	IngredientsManage Permission = "ingredients:manage"
)

// Shopping lists.
const (
	ShoppingListsCreate Permission = "shopping_lists:create"
	ShoppingListsRead   Permission = "shopping_lists:read"
	ShoppingListsUpdate Permission = "shopping_lists:update"
	ShoppingListsDelete Permission = "shopping_lists:delete"
	ShoppingListsShare  Permission = "shopping_lists:share"
)

// System.
const (
	SystemHealth   Permission = "system:health"
	SystemMetrics  Permission = "system:metrics"
	SystemSettings Permission = "system:settings"
	SystemManage   Permission = "system:manage"
)

// Content moderation.
const (
	ModerationReview  Permission = "moderation:review"
	ModerationApprove Permission = "moderation:approve"
	ModerationReject  Permission = "moderation:reject"
	ModerationFlag    Permission = "moderation:flag"
)

// Notifications.
const (
	NotificationsRead   Permission = "notifications:read"
	NotificationsSend   Permission = "notifications:send"
	NotificationsManage Permission = "notifications:manage"
)

// Search.
const (
	SearchBasic    Permission = "search:basic"
	SearchAdvanced Permission = "search:advanced"
)

// Audit and export.
const (
	AuditRead  Permission = "audit:read"
	DataExport Permission = "data:export"
)

// catalogue is the registration order; bit positions follow it.
var catalogue = []Permission{
	UsersCreate, UsersRead, UsersUpdate, UsersDelete, UsersManage,
	ProfilesCreate, ProfilesRead, ProfilesUpdate, ProfilesDelete,
	RecipesCreate, RecipesRead, RecipesUpdate, RecipesDelete, RecipesPublish, RecipesRate, RecipesManage,
	IngredientsCreate, IngredientsRead, IngredientsUpdate, IngredientsDelete, IngredientsManage,
	ShoppingListsCreate, ShoppingListsRead, ShoppingListsUpdate, ShoppingListsDelete, ShoppingListsShare,
	SystemHealth, SystemMetrics, SystemSettings, SystemManage,
	ModerationReview, ModerationApprove, ModerationReject, ModerationFlag,
	NotificationsRead, NotificationsSend, NotificationsManage,
	SearchBasic, SearchAdvanced,
	AuditRead, DataExport,
}

// Catalogue returns every known permission in registration order.
func Catalogue() []Permission {
	out := make([]Permission, len(catalogue))
	copy(out, catalogue)
	return out
}
