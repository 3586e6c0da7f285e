package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/kalambet/shopbot/internal/intent"
	"github.com/kalambet/shopbot/internal/params"
	"github.com/kalambet/shopbot/internal/shop"
)

// --- Fakes ---

type fakeCatalog struct {
	got    *shop.SearchQuery
	result shop.SearchResult
}

func (f *fakeCatalog) Search(_ context.Context, q shop.SearchQuery) (shop.SearchResult, error) {
	f.got = &q
	return f.result, nil
}

type fakeOrders struct {
	calls     int
	createErr error
	panicMsg  string
	gotUser   int64
	gotItems  []shop.LineItem
	gotAddr   *shop.Address
}

func (f *fakeOrders) CreateOrder(_ context.Context, userID int64, items []shop.LineItem, addr *shop.Address, notes string) (shop.Order, error) {
	f.calls++
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.createErr != nil {
		return shop.Order{}, f.createErr
	}
	f.gotUser, f.gotItems, f.gotAddr = userID, items, addr
	return shop.Order{
		ID: 7, UserID: userID, Status: shop.StatusPending, Total: 2398, ShippingAddress: addr,
		Items: []shop.OrderLine{{ProductID: 10001, Name: "Dell XPS 13", Quantity: 2, UnitPrice: 1199, Total: 2398}},
	}, nil
}

func (f *fakeOrders) OrderStatus(_ context.Context, id int64) (shop.Order, error) {
	f.calls++
	if id == 404 {
		return shop.Order{}, fmt.Errorf("%w: #%d", shop.ErrOrderNotFound, id)
	}
	return shop.Order{ID: id, Status: shop.StatusShipped}, nil
}

func (f *fakeOrders) CancelOrder(_ context.Context, userID, id int64) (shop.Order, error) {
	f.calls++
	f.gotUser = userID
	return shop.Order{ID: id, Status: shop.StatusCancelled}, nil
}

type fakeAccounts struct {
	got shop.UserUpdate
	err error
}

func (f *fakeAccounts) GetUser(_ context.Context, id int64) (shop.User, error) {
	return shop.User{ID: id, Name: "Demo"}, nil
}

func (f *fakeAccounts) UpdateUser(_ context.Context, id int64, upd shop.UserUpdate) (shop.User, error) {
	f.got = upd
	if f.err != nil {
		return shop.User{}, f.err
	}
	u := shop.User{ID: id, Name: "Demo", Email: "demo@shopbot.local"}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	return u, nil
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestDispatcher() (*Dispatcher, *fakeCatalog, *fakeOrders, *fakeAccounts) {
	c, o, a := &fakeCatalog{}, &fakeOrders{}, &fakeAccounts{}
	d := New(c, o, a, WithNow(func() time.Time { return fixedNow }))
	return d, c, o, a
}

func signedIn() Conversation {
	id := int64(1)
	return Conversation{ID: "c1", UserID: &id}
}

// --- Tests ---

func TestDispatch_MissingRequiredNeverInvokes(t *testing.T) {
	tests := []struct {
		in      intent.Intent
		p       params.Set
		missing string
	}{
		{intent.CreateOrder, params.Set{}, params.KeyItems},
		{intent.CreateOrder, params.Set{params.KeyItems: []params.OrderLine{}}, params.KeyItems},
		{intent.OrderStatus, params.Set{}, params.KeyOrderID},
		{intent.CancelOrder, params.Set{params.KeyOrderID: 0}, params.KeyOrderID},
		{intent.ModifyUser, params.Set{params.KeyUserData: params.UserData{}}, params.KeyUserData},
	}
	for _, tt := range tests {
		t.Run(string(tt.in)+"/"+tt.missing, func(t *testing.T) {
			d, _, orders, _ := newTestDispatcher()
			out := d.Dispatch(context.Background(), signedIn(), tt.in, tt.p)
			if out.Invocation != nil {
				t.Fatalf("invocation created: %+v", out.Invocation)
			}
			if out.Missing != tt.missing {
				t.Errorf("Missing = %q, want %q", out.Missing, tt.missing)
			}
			if orders.calls != 0 {
				t.Errorf("collaborator called %d times", orders.calls)
			}
		})
	}
}

func TestDispatch_NonDispatchableIntents(t *testing.T) {
	d, _, _, _ := newTestDispatcher()
	for _, in := range []intent.Intent{intent.Greeting, intent.Help, intent.Unknown} {
		if _, ok := d.Plan(in, params.Set{}); ok {
			t.Errorf("%s has a plan", in)
		}
		if out := d.Dispatch(context.Background(), signedIn(), in, params.Set{}); out.Invocation != nil || out.Function != "" {
			t.Errorf("%s: unexpected outcome %+v", in, out)
		}
	}
}

func TestDispatch_SearchDefaults(t *testing.T) {
	d, catalog, _, _ := newTestDispatcher()
	catalog.result = shop.SearchResult{Total: 0}

	out := d.Dispatch(context.Background(), Conversation{ID: "anon"}, intent.ProductSearch, params.Set{
		params.KeyBrand:    "Dell",
		params.KeyMaxPrice: 500.0,
	})

	if out.Invocation == nil || out.Invocation.Status != StatusCompleted {
		t.Fatalf("invocation = %+v", out.Invocation)
	}
	if out.Message != "" {
		t.Errorf("search should leave composing to the composer, got %q", out.Message)
	}
	q := catalog.got
	if q.Brand != "Dell" || q.MaxPrice == nil || *q.MaxPrice != 500 || q.Page != 1 || q.PageSize != 10 {
		t.Errorf("query = %+v", q)
	}
	if q.MinPrice != nil || q.InStock != nil {
		t.Errorf("unset filters were sent: %+v", q)
	}
}

func TestPlan_DropsInvalidValues(t *testing.T) {
	d, _, _, _ := newTestDispatcher()
	plan, ok := d.Plan(intent.ProductSearch, params.Set{
		params.KeyCategory: "toasters",
		params.KeyPageSize: 500,
	})
	if !ok {
		t.Fatal("product search has no handler")
	}
	if _, present := plan.Args[params.KeyCategory]; present {
		t.Error("invalid category kept")
	}
	if got, _ := plan.Args.GetInt(params.KeyPageSize); got != 10 {
		t.Errorf("page_size = %d, want default 10", got)
	}
	if strings.Join(plan.Invalid, ",") != "category,page_size" {
		t.Errorf("Invalid = %v", plan.Invalid)
	}
}

func TestDispatch_CreateOrder(t *testing.T) {
	d, _, orders, _ := newTestDispatcher()
	out := d.Dispatch(context.Background(), signedIn(), intent.CreateOrder, params.Set{
		params.KeyItems:           []params.OrderLine{{ProductID: 10001, Quantity: 2}},
		params.KeyShippingAddress: params.Address{Street: "1 Main St", City: "Austin", State: "TX", Zip: "78701", Country: "USA"},
	})

	inv := out.Invocation
	if inv == nil || inv.Status != StatusCompleted || inv.Name != FuncCreateOrder {
		t.Fatalf("invocation = %+v", inv)
	}
	if inv.CompletedAt == nil || !inv.CompletedAt.Equal(fixedNow) {
		t.Errorf("CompletedAt = %v", inv.CompletedAt)
	}
	if orders.gotUser != 1 || len(orders.gotItems) != 1 || orders.gotItems[0].Quantity != 2 {
		t.Errorf("collaborator got user=%d items=%v", orders.gotUser, orders.gotItems)
	}
	want := "Your order #7 has been placed: 2 x Dell XPS 13. Total: $2,398. It will ship to 1 Main St, Austin, TX 78701, USA."
	if out.Message != want {
		t.Errorf("Message =\n  %q\nwant\n  %q", out.Message, want)
	}
}

func TestDispatch_CollaboratorErrorIsVerbatim(t *testing.T) {
	d, _, orders, _ := newTestDispatcher()
	orders.createErr = fmt.Errorf("%w for Dell XPS 13: requested 20, available 12", shop.ErrInsufficientStock)

	out := d.Dispatch(context.Background(), signedIn(), intent.CreateOrder, params.Set{
		params.KeyItems: []params.OrderLine{{ProductID: 10001, Quantity: 20}},
	})

	if out.Invocation.Status != StatusFailed {
		t.Fatalf("status = %s", out.Invocation.Status)
	}
	if out.Invocation.Error != orders.createErr.Error() {
		t.Errorf("Error = %q, want verbatim %q", out.Invocation.Error, orders.createErr.Error())
	}
	want := "Sorry, I couldn't place your order: insufficient stock for Dell XPS 13: requested 20, available 12."
	if out.Message != want {
		t.Errorf("Message = %q", out.Message)
	}
}

func TestDispatch_PanicBecomesFailure(t *testing.T) {
	d, _, orders, _ := newTestDispatcher()
	orders.panicMsg = "boom"

	out := d.Dispatch(context.Background(), signedIn(), intent.CreateOrder, params.Set{
		params.KeyItems: []params.OrderLine{{ProductID: 10001, Quantity: 1}},
	})

	if out.Invocation.Status != StatusFailed || out.Invocation.Error != "internal error: boom" {
		t.Errorf("invocation = %+v", out.Invocation)
	}
}

func TestDispatch_NotAuthenticated(t *testing.T) {
	d, _, orders, _ := newTestDispatcher()
	out := d.Dispatch(context.Background(), Conversation{ID: "anon"}, intent.CancelOrder, params.Set{params.KeyOrderID: 12})

	if out.Invocation == nil || out.Invocation.Status != StatusFailed || out.Invocation.Error != "not authenticated" {
		t.Fatalf("invocation = %+v", out.Invocation)
	}
	if orders.calls != 0 {
		t.Error("collaborator called without a user")
	}
	if !strings.Contains(out.Message, "not authenticated") {
		t.Errorf("Message = %q", out.Message)
	}
}

func TestDispatch_OrderStatus(t *testing.T) {
	d, _, _, _ := newTestDispatcher()

	out := d.Dispatch(context.Background(), Conversation{ID: "anon"}, intent.OrderStatus, params.Set{params.KeyOrderID: 4521})
	if out.Invocation.Status != StatusCompleted || out.Message != "" {
		t.Errorf("outcome = %+v", out)
	}
	if o := out.Result.(shop.Order); o.ID != 4521 || o.Status != shop.StatusShipped {
		t.Errorf("result = %+v", o)
	}

	out = d.Dispatch(context.Background(), Conversation{ID: "anon"}, intent.OrderStatus, params.Set{params.KeyOrderID: 404})
	if out.Invocation.Status != StatusFailed {
		t.Errorf("outcome = %+v", out)
	}
	if out.Message != "Sorry, I couldn't look up that order: order not found: #404." {
		t.Errorf("Message = %q", out.Message)
	}
}

func TestDispatch_UpdateUserRedactsPassword(t *testing.T) {
	d, _, _, accounts := newTestDispatcher()
	out := d.Dispatch(context.Background(), signedIn(), intent.ModifyUser, params.Set{
		params.KeyUserData: params.UserData{Name: "Jane", Password: "hunter22"},
	})

	if accounts.got.Password == nil || *accounts.got.Password != "hunter22" {
		t.Error("password not passed to the collaborator")
	}
	u, _ := out.Invocation.Parameters.UserData()
	if u.Password != "" {
		t.Error("password recorded on the invocation")
	}
	if out.Invocation.Parameters["password_changed"] != true {
		t.Error("password change not noted")
	}
	want := "Done! Your name is now Jane and your password has been changed."
	if out.Message != want {
		t.Errorf("Message = %q, want %q", out.Message, want)
	}
}

func TestDispatch_EmailTaken(t *testing.T) {
	d, _, _, accounts := newTestDispatcher()
	accounts.err = fmt.Errorf("%w: a@b.co", shop.ErrEmailTaken)

	out := d.Dispatch(context.Background(), signedIn(), intent.ModifyUser, params.Set{
		params.KeyUserData: params.UserData{Email: "a@b.co"},
	})
	if out.Invocation.Status != StatusFailed || out.Invocation.Error != "email address is already in use: a@b.co" {
		t.Errorf("invocation = %+v", out.Invocation)
	}
}

func TestInvocation_WriteOnce(t *testing.T) {
	inv := newInvocation("f", params.Set{}, fixedNow)
	if err := inv.Complete("ok", fixedNow); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if err := inv.Fail("late", fixedNow); !errors.Is(err, ErrInvocationFinalized) {
		t.Errorf("Fail after Complete = %v", err)
	}
	if err := inv.Complete("again", fixedNow); !errors.Is(err, ErrInvocationFinalized) {
		t.Errorf("second Complete = %v", err)
	}
	if inv.Status != StatusCompleted || inv.Result != "ok" || inv.Error != "" {
		t.Errorf("invocation changed after finalizing: %+v", inv)
	}
}

func TestUserName(t *testing.T) {
	d, _, _, _ := newTestDispatcher()
	if got := d.UserName(context.Background(), signedIn()); got != "Demo" {
		t.Errorf("UserName = %q", got)
	}
	if got := d.UserName(context.Background(), Conversation{ID: "anon"}); got != "" {
		t.Errorf("anonymous UserName = %q", got)
	}
}

func TestJoinList(t *testing.T) {
	tests := []struct {
		in   []string
		want string
	}{
		{nil, ""},
		{[]string{"a"}, "a"},
		{[]string{"a", "b"}, "a and b"},
		{[]string{"a", "b", "c"}, "a, b, and c"},
	}
	for _, tt := range tests {
		if got := JoinList(tt.in); got != tt.want {
			t.Errorf("JoinList(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMoney(t *testing.T) {
	tests := map[float64]string{500: "$500", 1299.99: "$1,299.99", 1234567: "$1,234,567", 0.5: "$0.50"}
	for in, want := range tests {
		if got := Money(in); got != want {
			t.Errorf("Money(%v) = %q, want %q", in, got, want)
		}
	}
}
