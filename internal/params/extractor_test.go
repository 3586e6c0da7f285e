package params

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kalambet/shopbot/internal/intent"
)

type fakeRecognizer []Entity

func (f fakeRecognizer) Entities(string) []Entity { return f }

func TestExtractSearch(t *testing.T) {
	e := New(Config{})
	tests := []struct {
		name string
		text string
		want Set
	}{
		{
			name: "max price",
			text: "laptops under $1000",
			want: Set{KeyCategory: "laptops", KeyMaxPrice: 1000.0},
		},
		{
			name: "range brand and stock",
			text: "Show me Dell laptops between $500 and $1,500 in stock",
			want: Set{KeyBrand: "Dell", KeyCategory: "laptops", KeyMinPrice: 500.0, KeyMaxPrice: 1500.0, KeyInStock: true},
		},
		{
			name: "reversed range is swapped",
			text: "monitors from 400 to 200",
			want: Set{KeyCategory: "displays", KeyMinPrice: 200.0, KeyMaxPrice: 400.0},
		},
		{
			name: "thousands suffix",
			text: "notebooks over 1.5k",
			want: Set{KeyCategory: "laptops", KeyMinPrice: 1500.0},
		},
		{
			name: "follow up price only",
			text: "what about under 500",
			want: Set{KeyMaxPrice: 500.0},
		},
		{
			name: "negated availability",
			text: "laptops not available",
			want: Set{KeyCategory: "laptops", KeyInStock: false},
		},
		{
			name: "pagination",
			text: "show me page 2 of laptops, 20 per page",
			want: Set{KeyCategory: "laptops", KeyPage: 2, KeyPageSize: 20},
		},
		{
			name: "page size clamped",
			text: "top 500 monitors",
			want: Set{KeyCategory: "displays", KeyPageSize: 50},
		},
		{
			name: "bare dollar amount is a ceiling",
			text: "gaming laptop $900",
			want: Set{KeyCategory: "laptops", KeyQuery: "gaming", KeyMaxPrice: 900.0},
		},
		{
			name: "free text query",
			text: "dell xps",
			want: Set{KeyBrand: "Dell", KeyQuery: "xps"},
		},
		{
			name: "product line implies brand",
			text: "any thinkpads",
			want: Set{KeyBrand: "Lenovo", KeyQuery: "thinkpad"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Extract(tt.text, intent.ProductSearch)
			if diff := cmp.Diff(tt.want, got.Params); diff != "" {
				t.Errorf("params mismatch (-want +got):\n%s", diff)
			}
			if len(got.Ambiguities) != 0 {
				t.Errorf("unexpected ambiguities %v", got.Ambiguities)
			}
		})
	}
}

func TestExtractSearch_ConflictingStockCues(t *testing.T) {
	got := New(Config{}).Extract("show laptops in stock and out of stock", intent.ProductSearch)

	if _, ok := got.Params[KeyInStock]; ok {
		t.Errorf("in_stock should be absent, got %v", got.Params[KeyInStock])
	}
	if diff := cmp.Diff([]string{KeyInStock}, got.Ambiguities); diff != "" {
		t.Errorf("ambiguities mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractSearch_ConflictingPriceBounds(t *testing.T) {
	got := New(Config{}).Extract("laptops over 2000 under 500", intent.ProductSearch)

	if diff := cmp.Diff(Set{KeyCategory: "laptops"}, got.Params); diff != "" {
		t.Errorf("params mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{AmbiguousPriceRange}, got.Ambiguities); diff != "" {
		t.Errorf("ambiguities mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractSearch_MoneyEntityFallback(t *testing.T) {
	e := New(Config{}, WithEntityRecognizer(fakeRecognizer{{Text: "800", Label: "MONEY"}}))
	got := e.Extract("a laptop for about 800", intent.ProductSearch)

	if v, ok := got.Params.GetFloat(KeyMaxPrice); !ok || v != 800 {
		t.Errorf("max_price = %v, %v; want 800", v, ok)
	}
}

func TestExtractOrderID(t *testing.T) {
	e := New(Config{})
	tests := []struct {
		text string
		in   intent.Intent
		want Set
	}{
		{"track my order #4521", intent.OrderStatus, Set{KeyOrderID: 4521}},
		{"what's the status of order number 88", intent.OrderStatus, Set{KeyOrderID: 88}},
		{"cancel order 1234 please", intent.CancelOrder, Set{KeyOrderID: 1234}},
		{"where is 77", intent.OrderStatus, Set{KeyOrderID: 77}},
		{"where is my order", intent.OrderStatus, Set{}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := e.Extract(tt.text, tt.in)
			if diff := cmp.Diff(tt.want, got.Params); diff != "" {
				t.Errorf("params mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtractOrderID_CardinalEntity(t *testing.T) {
	e := New(Config{}, WithEntityRecognizer(fakeRecognizer{{Text: "#31", Label: "CARDINAL"}}))
	// No digits for the patterns, so the entity tier answers.
	got := e.Extract("the thirty-first one", intent.OrderStatus)
	if diff := cmp.Diff(Set{KeyOrderID: 31}, got.Params); diff != "" {
		t.Errorf("params mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractUserData(t *testing.T) {
	e := New(Config{})
	tests := []struct {
		name string
		text string
		want UserData
	}{
		{
			name: "name and email",
			text: "change my name to Jane Doe and my email to Jane@Example.com",
			want: UserData{Name: "Jane Doe", Email: "jane@example.com"},
		},
		{
			name: "call me",
			text: "please call me Sam",
			want: UserData{Name: "Sam"},
		},
		{
			name: "password unquoted",
			text: "set my password to hunter22!",
			want: UserData{Password: "hunter22"},
		},
		{
			name: "password quoted",
			text: `update password: "correct horse battery"`,
			want: UserData{Password: "correct horse battery"},
		},
		{
			name: "name is capped at four words",
			text: "my name is Ana Maria de la Cruz",
			want: UserData{Name: "Ana Maria de la"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := e.Extract(tt.text, intent.ModifyUser).Params.UserData()
			if !ok {
				t.Fatal("user_data missing")
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("user_data mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtractUserData_NothingToChange(t *testing.T) {
	got := New(Config{}).Extract("I want to update my profile", intent.ModifyUser)
	if len(got.Params) != 0 {
		t.Errorf("expected no params, got %v", got.Params)
	}
}

func TestExtractOrder(t *testing.T) {
	e := New(Config{})
	got := e.Extract("I want to buy 2 of 10001 and 10031 x3, ship to 123 Main St, Austin, TX 78701", intent.CreateOrder)

	want := Set{
		KeyItems: []OrderLine{{ProductID: 10001, Quantity: 2}, {ProductID: 10031, Quantity: 3}},
		KeyShippingAddress: Address{
			Street: "123 Main St", City: "Austin", State: "TX", Zip: "78701", Country: "USA",
		},
	}
	if diff := cmp.Diff(want, got.Params); diff != "" {
		t.Errorf("params mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractOrder_Items(t *testing.T) {
	e := New(Config{})
	tests := []struct {
		text string
		want []OrderLine
	}{
		{"buy 10001", []OrderLine{{10001, 1}}},
		{"order two laptops 10012", []OrderLine{{10012, 2}}},
		{"add a couple of 30001", []OrderLine{{30001, 2}}},
		{"buy 10001 and another 10001", []OrderLine{{10001, 2}}},
		{"get #42 qty 4", []OrderLine{{42, 4}}},
		{"buy 999 of 10001", []OrderLine{{10001, 100}}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, _ := e.Extract(tt.text, intent.CreateOrder).Params.Items()
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("items mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtractOrder_NotesAndAddressWithoutCommas(t *testing.T) {
	e := New(Config{})
	got := e.Extract("buy 10051 with a note: gift wrap please, ship to 9 Pine Road Seattle", intent.CreateOrder)

	if n, _ := got.Params.GetString(KeyNotes); n != "gift wrap please" {
		t.Errorf("notes = %q", n)
	}
	want := Address{Street: "9 Pine Road", City: "Seattle", State: "WA", Zip: "00000", Country: "USA"}
	if diff := cmp.Diff(want, mustAddress(t, got.Params)); diff != "" {
		t.Errorf("address mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]OrderLine{{10051, 1}}, got.Params[KeyItems]); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractOrder_AddressVariants(t *testing.T) {
	e := New(Config{DefaultCountry: "Canada"})
	tests := []struct {
		text string
		want Address
	}{
		{
			"buy 10001, address: 500 Oak Ave, Springfield, Illinois 62701, United States",
			Address{Street: "500 Oak Ave", City: "Springfield", State: "IL", Zip: "62701", Country: "USA"},
		},
		{
			"buy 10001 and deliver it to 12 Elm St, Denver CO",
			Address{Street: "12 Elm St", City: "Denver", State: "CO", Zip: "00000", Country: "Canada"},
		},
		{
			"buy 10001, ship to 1 Hill Rd, Charleston, West Virginia",
			Address{Street: "1 Hill Rd", City: "Charleston", State: "WV", Zip: "00000", Country: "Canada"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := e.Extract(tt.text, intent.CreateOrder)
			if diff := cmp.Diff(tt.want, mustAddress(t, got.Params)); diff != "" {
				t.Errorf("address mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff([]OrderLine{{10001, 1}}, got.Params[KeyItems]); diff != "" {
				t.Errorf("address digits leaked into items (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtract_SlotlessIntents(t *testing.T) {
	e := New(Config{})
	for _, in := range []intent.Intent{intent.Greeting, intent.Help, intent.Unknown} {
		if got := e.Extract("hello, 10001 under $5", in); len(got.Params) != 0 {
			t.Errorf("%s: expected empty set, got %v", in, got.Params)
		}
	}
}

func TestExtract_Idempotent(t *testing.T) {
	e := New(Config{})
	text := "Dell laptops under $800 in stock, page 2"
	first := e.Extract(text, intent.ProductSearch)
	second := e.Extract(text, intent.ProductSearch)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("extraction not deterministic (-first +second):\n%s", diff)
	}
}

func TestNew_MinProductIDDigits(t *testing.T) {
	e := New(Config{MinProductIDDigits: 3})
	got, _ := e.Extract("buy 3 of 123", intent.CreateOrder).Params.Items()
	if diff := cmp.Diff([]OrderLine{{123, 3}}, got); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
	if e.Config().DefaultZip != "00000" {
		t.Errorf("DefaultZip = %q", e.Config().DefaultZip)
	}
}

func mustAddress(t *testing.T, s Set) Address {
	t.Helper()
	a, ok := s.Address()
	if !ok {
		t.Fatalf("shipping_address missing from %v", s)
	}
	return a
}
