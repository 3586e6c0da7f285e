package composer

import (
	"strings"
	"testing"

	"github.com/kalambet/shopbot/internal/dispatch"
	"github.com/kalambet/shopbot/internal/intent"
	"github.com/kalambet/shopbot/internal/params"
	"github.com/kalambet/shopbot/internal/shop"
)

func completed(fn string, args params.Set, result any) dispatch.Outcome {
	return dispatch.Outcome{
		Function:   fn,
		Args:       args,
		Result:     result,
		Invocation: &dispatch.Invocation{Name: fn, Status: dispatch.StatusCompleted},
	}
}

func TestCompose_DefinitiveMessageUnchanged(t *testing.T) {
	c := New(0)
	msg := "Your order #7 has been placed."
	got := c.Compose(Input{
		Intent:  intent.CreateOrder,
		Outcome: dispatch.Outcome{Message: msg, Missing: params.KeyItems},
	})
	if got != msg {
		t.Errorf("got %q, want %q", got, msg)
	}
}

func TestCompose_AsksForFirstMissingOnly(t *testing.T) {
	c := New(0)
	got := c.Compose(Input{
		Intent:      intent.CreateOrder,
		Ambiguities: []string{params.KeyInStock},
		Outcome:     dispatch.Outcome{Function: dispatch.FuncCreateOrder, Missing: params.KeyItems},
	})
	if !strings.Contains(got, "product ID") {
		t.Errorf("got %q", got)
	}
	if n := strings.Count(got, "?"); n != 1 {
		t.Errorf("asked %d questions: %q", n, got)
	}
}

func TestCompose_ZeroResultsSuggestsRelaxations(t *testing.T) {
	c := New(0)
	args := params.Set{params.KeyBrand: "Dell", params.KeyMaxPrice: 500.0, params.KeyPage: 1, params.KeyPageSize: 10}
	got := c.Compose(Input{
		Intent:  intent.ProductSearch,
		Params:  args,
		Outcome: completed(dispatch.FuncSearchProducts, args, shop.SearchResult{Page: 1, PageSize: 10}),
	})

	want := "I couldn't find any products from Dell and under $500. You could try:\n" +
		"1. Raise your budget above $500\n" +
		"2. Look at brands other than Dell"
	if got != want {
		t.Errorf("got\n%s\nwant\n%s", got, want)
	}
}

func TestCompose_ZeroResultsOnlyUsesSetFilters(t *testing.T) {
	c := New(0)
	args := params.Set{params.KeyCategory: "displays", params.KeyInStock: true, params.KeyMinPrice: 100.0, params.KeyMaxPrice: 200.0}
	got := c.Compose(Input{
		Intent:  intent.ProductSearch,
		Outcome: completed(dispatch.FuncSearchProducts, args, shop.SearchResult{}),
	})

	for _, want := range []string{
		"any displays between $100 and $200 and in stock",
		"1. Widen the price range beyond $100 to $200",
		"2. Include items that are currently out of stock",
		"3. Browse a category other than displays",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in\n%s", want, got)
		}
	}
	if strings.Contains(got, "brands") {
		t.Errorf("suggested a brand change without a brand filter:\n%s", got)
	}
}

func TestCompose_SearchResults(t *testing.T) {
	c := New(2)
	args := params.Set{params.KeyCategory: "laptops", params.KeyBrand: "Dell", params.KeyMaxPrice: 1500.0}
	res := shop.SearchResult{
		Total: 3, Page: 1, PageSize: 2,
		Items: []shop.Product{
			{ID: 10001, Name: "Dell XPS 13", Price: 1199, Stock: 12},
			{ID: 10003, Name: "Dell Latitude 5440", Price: 1049.5, Stock: 0},
		},
	}
	got := c.Compose(Input{Intent: intent.ProductSearch, Outcome: completed(dispatch.FuncSearchProducts, args, res)})

	want := "I found 3 laptops from Dell and under $1,500:\n" +
		"- #10001 Dell XPS 13, $1,199\n" +
		"- #10003 Dell Latitude 5440, $1,049.50 (out of stock)\n" +
		"Showing page 1 of 2. Ask for page 2 to see more."
	if got != want {
		t.Errorf("got\n%s\nwant\n%s", got, want)
	}
}

func TestCompose_SearchQueryDroppedAndStockQuestion(t *testing.T) {
	c := New(0)
	args := params.Set{params.KeyQuery: "school", params.KeyCategory: "laptops"}
	res := shop.SearchResult{Total: 1, Page: 1, PageSize: 10, QueryDropped: true,
		Items: []shop.Product{{ID: 10012, Name: "Lenovo IdeaPad 3", Price: 449, Stock: 31}}}

	got := c.Compose(Input{
		Intent:      intent.ProductSearch,
		Ambiguities: []string{params.KeyInStock},
		Outcome:     completed(dispatch.FuncSearchProducts, args, res),
	})

	if !strings.HasPrefix(got, `Nothing matched "school", so I widened the search. I found 1 laptop:`) {
		t.Errorf("got %q", got)
	}
	if !strings.HasSuffix(got, "Should I show only items that are in stock?") {
		t.Errorf("ambiguity question missing: %q", got)
	}
}

func TestCompose_OrderStatus(t *testing.T) {
	c := New(0)
	o := shop.Order{ID: 4521, Status: shop.StatusShipped, Total: 99,
		Items: []shop.OrderLine{{Name: "Logitech MX Master 3S", Quantity: 1}}}
	got := c.Compose(Input{Intent: intent.OrderStatus, Outcome: completed(dispatch.FuncOrderStatus, nil, o)})

	want := "Order #4521 has shipped. It contains 1 x Logitech MX Master 3S, total $99."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCompose_Greeting(t *testing.T) {
	c := New(0)
	if got := c.Compose(Input{Intent: intent.Greeting, UserName: "Jane"}); !strings.HasPrefix(got, "Hello, Jane!") {
		t.Errorf("got %q", got)
	}
	if got := c.Compose(Input{Intent: intent.Greeting}); !strings.HasPrefix(got, "Hello!") {
		t.Errorf("got %q", got)
	}
}

func TestCompose_HelpAndUnknown(t *testing.T) {
	c := New(0)
	if got := c.Compose(Input{Intent: intent.Help}); !strings.Contains(got, "I can help you with") {
		t.Errorf("help = %q", got)
	}
	if got := c.Compose(Input{Intent: intent.Unknown}); !strings.Contains(got, "not sure I understood") {
		t.Errorf("unknown = %q", got)
	}
}

func TestCompose_AsksAboutConflictingPriceBounds(t *testing.T) {
	c := New(0)
	args := params.Set{params.KeyCategory: "laptops", params.KeyPage: 1, params.KeyPageSize: 10}
	res := shop.SearchResult{Total: 1, Page: 1, PageSize: 10,
		Items: []shop.Product{{ID: 10012, Name: "Lenovo IdeaPad Slim 3", Price: 449, Stock: 31}}}

	got := c.Compose(Input{
		Intent:      intent.ProductSearch,
		Ambiguities: []string{params.AmbiguousPriceRange},
		Outcome:     completed(dispatch.FuncSearchProducts, args, res),
	})

	want := "I found 1 laptop:\n" +
		"- #10012 Lenovo IdeaPad Slim 3, $449\n" +
		"The minimum price you gave is above the maximum, so I ignored both. What price range did you have in mind?"
	if got != want {
		t.Errorf("got\n%s\nwant\n%s", got, want)
	}
}

func TestCompose_ZeroResultsStillAsksAboutAmbiguities(t *testing.T) {
	c := New(0)
	args := params.Set{params.KeyBrand: "Dell", params.KeyPage: 1, params.KeyPageSize: 10}

	got := c.Compose(Input{
		Intent:      intent.ProductSearch,
		Ambiguities: []string{params.KeyInStock, params.AmbiguousPriceRange},
		Outcome:     completed(dispatch.FuncSearchProducts, args, shop.SearchResult{Page: 1, PageSize: 10}),
	})

	if !strings.HasPrefix(got, "I couldn't find any products from Dell.") {
		t.Errorf("got %q", got)
	}
	if !strings.Contains(got, "What price range did you have in mind?\nShould I show only items that are in stock?") {
		t.Errorf("clarifying questions missing or out of order: %q", got)
	}
}
