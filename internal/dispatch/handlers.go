package dispatch

import (
	"context"
	"fmt"

	"github.com/kalambet/shopbot/internal/intent"
	"github.com/kalambet/shopbot/internal/params"
	"github.com/kalambet/shopbot/internal/shop"
)

// Function names recorded on invocations.
const (
	FuncSearchProducts = "search_products"
	FuncOrderStatus    = "get_order_status"
	FuncUpdateUser     = "update_user"
	FuncCreateOrder    = "create_order"
	FuncCancelOrder    = "cancel_order"
)

// Categories accepted by search_products.
var Categories = []string{"laptops", "displays", "accessories", "storage", "memory", "networking"}

// handler is one row of the dispatch table.
type handler struct {
	Function string
	// Params are declared in the order missing ones are asked for.
	Params []ParamSpec
	// UserScoped functions need a signed-in conversation.
	UserScoped bool
	// Action completes "Sorry, I couldn't ..." when the call fails.
	Action string
	Invoke func(ctx context.Context, d *Dispatcher, conv Conversation, args params.Set) (any, error)
	// Confirm, when set, renders the final message for a successful call.
	Confirm func(args params.Set, result any) string
}

func newHandlers(defaultPageSize, maxQuantity int) map[intent.Intent]*handler {
	return map[intent.Intent]*handler{
		intent.ProductSearch: {
			Function: FuncSearchProducts,
			Params: []ParamSpec{
				{Name: params.KeyQuery, Kind: KindString},
				{Name: params.KeyBrand, Kind: KindString},
				{Name: params.KeyCategory, Kind: KindString, Enum: Categories},
				{Name: params.KeyMinPrice, Kind: KindFloat, Bounded: true, Min: 0, Max: 1e7},
				{Name: params.KeyMaxPrice, Kind: KindFloat, Bounded: true, Min: 0, Max: 1e7},
				{Name: params.KeyInStock, Kind: KindBool},
				{Name: params.KeyPage, Kind: KindInt, Bounded: true, Min: 1, Max: 10000, Default: 1},
				{Name: params.KeyPageSize, Kind: KindInt, Bounded: true, Min: 1, Max: 50, Default: defaultPageSize},
			},
			Action: "search the catalog",
			Invoke: invokeSearch,
		},
		intent.OrderStatus: {
			Function: FuncOrderStatus,
			Params: []ParamSpec{
				{Name: params.KeyOrderID, Kind: KindInt, Required: true, Bounded: true, Min: 1, Max: 1 << 31},
			},
			Action: "look up that order",
			Invoke: func(ctx context.Context, d *Dispatcher, _ Conversation, args params.Set) (any, error) {
				id, _ := args.GetInt(params.KeyOrderID)
				return d.orders.OrderStatus(ctx, int64(id))
			},
		},
		intent.ModifyUser: {
			Function: FuncUpdateUser,
			Params: []ParamSpec{
				{Name: params.KeyUserData, Kind: KindUserData, Required: true},
			},
			UserScoped: true,
			Action:     "update your profile",
			Invoke:     invokeUpdateUser,
			Confirm:    confirmUpdateUser,
		},
		intent.CreateOrder: {
			Function: FuncCreateOrder,
			Params: []ParamSpec{
				{Name: params.KeyItems, Kind: KindItems, Required: true, Bounded: true, Min: 1, Max: float64(maxQuantity)},
				{Name: params.KeyShippingAddress, Kind: KindAddress},
				{Name: params.KeyNotes, Kind: KindString},
			},
			UserScoped: true,
			Action:     "place your order",
			Invoke:     invokeCreateOrder,
			Confirm:    confirmCreateOrder,
		},
		intent.CancelOrder: {
			Function: FuncCancelOrder,
			Params: []ParamSpec{
				{Name: params.KeyOrderID, Kind: KindInt, Required: true, Bounded: true, Min: 1, Max: 1 << 31},
			},
			UserScoped: true,
			Action:     "cancel that order",
			Invoke: func(ctx context.Context, d *Dispatcher, conv Conversation, args params.Set) (any, error) {
				id, _ := args.GetInt(params.KeyOrderID)
				return d.orders.CancelOrder(ctx, *conv.UserID, int64(id))
			},
			Confirm: func(_ params.Set, result any) string {
				o := result.(shop.Order)
				return fmt.Sprintf("Order #%d has been cancelled and its items returned to stock.", o.ID)
			},
		},
	}
}

func invokeSearch(ctx context.Context, d *Dispatcher, _ Conversation, args params.Set) (any, error) {
	q := shop.SearchQuery{}
	q.Query, _ = args.GetString(params.KeyQuery)
	q.Brand, _ = args.GetString(params.KeyBrand)
	q.Category, _ = args.GetString(params.KeyCategory)
	if v, ok := args.GetFloat(params.KeyMinPrice); ok {
		q.MinPrice = &v
	}
	if v, ok := args.GetFloat(params.KeyMaxPrice); ok {
		q.MaxPrice = &v
	}
	if v, ok := args.GetBool(params.KeyInStock); ok {
		q.InStock = &v
	}
	q.Page, _ = args.GetInt(params.KeyPage)
	q.PageSize, _ = args.GetInt(params.KeyPageSize)
	return d.catalog.Search(ctx, q)
}

func invokeUpdateUser(ctx context.Context, d *Dispatcher, conv Conversation, args params.Set) (any, error) {
	u, _ := args.UserData()
	var upd shop.UserUpdate
	if u.Name != "" {
		upd.Name = &u.Name
	}
	if u.Email != "" {
		upd.Email = &u.Email
	}
	if u.Password != "" {
		upd.Password = &u.Password
	}
	return d.accounts.UpdateUser(ctx, *conv.UserID, upd)
}

func confirmUpdateUser(args params.Set, result any) string {
	u, _ := args.UserData()
	user := result.(shop.User)
	var changes []string
	if u.Name != "" {
		changes = append(changes, fmt.Sprintf("your name is now %s", user.Name))
	}
	if u.Email != "" {
		changes = append(changes, fmt.Sprintf("your email is now %s", user.Email))
	}
	if u.Password != "" {
		changes = append(changes, "your password has been changed")
	}
	return fmt.Sprintf("Done! %s.", capitalize(JoinList(changes)))
}

func invokeCreateOrder(ctx context.Context, d *Dispatcher, conv Conversation, args params.Set) (any, error) {
	lines, _ := args.Items()
	items := make([]shop.LineItem, len(lines))
	for i, l := range lines {
		items[i] = shop.LineItem{ProductID: l.ProductID, Quantity: l.Quantity}
	}
	var addr *shop.Address
	if a, ok := args.Address(); ok {
		addr = &shop.Address{Street: a.Street, City: a.City, State: a.State, Zip: a.Zip, Country: a.Country}
	}
	notes, _ := args.GetString(params.KeyNotes)
	return d.orders.CreateOrder(ctx, *conv.UserID, items, addr, notes)
}

func confirmCreateOrder(_ params.Set, result any) string {
	o := result.(shop.Order)
	lines := make([]string, len(o.Items))
	for i, it := range o.Items {
		lines[i] = fmt.Sprintf("%d x %s", it.Quantity, it.Name)
	}
	msg := fmt.Sprintf("Your order #%d has been placed: %s. Total: %s.", o.ID, JoinList(lines), Money(o.Total))
	if o.ShippingAddress != nil {
		msg += fmt.Sprintf(" It will ship to %s.", o.ShippingAddress)
	}
	return msg
}
