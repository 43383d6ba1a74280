package permission

// Action is a CRUD-style verb used by MapActionToPermission.
type Action string

// Actions a permission can grant.
const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionManage Action = "manage"
)

// ResourceType names a protected resource family.
type ResourceType string

// Resource types routes can guard.
const (
	ResourceUser         ResourceType = "user"
	ResourceProfile      ResourceType = "profile"
	ResourceRecipe       ResourceType = "recipe"
	ResourceIngredient   ResourceType = "ingredient"
	ResourceShoppingList ResourceType = "shopping_list"
	ResourceNotification ResourceType = "notification"
)

type actionKey struct {
	action   Action
	resource ResourceType
}

var actionTable = map[actionKey]Permission{
	{ActionCreate, ResourceUser}: UsersCreate,
	{ActionRead, ResourceUser}:   UsersRead,
	{ActionUpdate, ResourceUser}: UsersUpdate,
	{ActionDelete, ResourceUser}: UsersDelete,
	{ActionManage, ResourceUser}: UsersManage,

	{ActionCreate, ResourceProfile}: ProfilesCreate,
	{ActionRead, ResourceProfile}:   ProfilesRead,
	{ActionUpdate, ResourceProfile}: ProfilesUpdate,
	{ActionDelete, ResourceProfile}: ProfilesDelete,

	{ActionCreate, ResourceRecipe}: RecipesCreate,
	{ActionRead, ResourceRecipe}:   RecipesRead,
	{ActionUpdate, ResourceRecipe}: RecipesUpdate,
	{ActionDelete, ResourceRecipe}: RecipesDelete,
	{ActionManage, ResourceRecipe}: RecipesManage,

	{ActionCreate, ResourceIngredient}: IngredientsCreate,
	{ActionRead, ResourceIngredient}:   IngredientsRead,
	{ActionUpdate, ResourceIngredient}: IngredientsUpdate,
	{ActionDelete, ResourceIngredient}: IngredientsDelete,
	{ActionManage, ResourceIngredient}: IngredientsManage,

	{ActionCreate, ResourceShoppingList}: ShoppingListsCreate,
	{ActionRead, ResourceShoppingList}:   ShoppingListsRead,
	{ActionUpdate, ResourceShoppingList}: ShoppingListsUpdate,
	{ActionDelete, ResourceShoppingList}: ShoppingListsDelete,

	{ActionCreate, ResourceNotification}: NotificationsSend,
	{ActionRead, ResourceNotification}:   NotificationsRead,
	{ActionManage, ResourceNotification}: NotificationsManage,
}

// MapActionToPermission returns the permission guarding action on
// resourceType. ok is false for undefined combinations, which callers must
// treat as deny.
func MapActionToPermission(action Action, resourceType ResourceType) (Permission, bool) {
	p, ok := actionTable[actionKey{action, resourceType}]
	return p, ok
}
