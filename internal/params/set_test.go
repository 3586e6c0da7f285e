package params

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMerge(t *testing.T) {
	base := Set{
		KeyCategory: "laptops",
		KeyMaxPrice: 1000.0,
		KeyUserData: UserData{Name: "Jane"},
	}
	over := Set{
		KeyMaxPrice: 500.0,
		KeyUserData: UserData{Email: "jane@example.com"},
	}

	got := Merge(base, over)

	want := Set{
		KeyCategory: "laptops",
		KeyMaxPrice: 500.0,
		KeyUserData: UserData{Name: "Jane", Email: "jane@example.com"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Merge mismatch (-want +got):\n%s", diff)
	}
	if base[KeyMaxPrice] != 1000.0 {
		t.Error("Merge mutated base")
	}
}

func TestClone_DoesNotShareItems(t *testing.T) {
	s := Set{KeyItems: []OrderLine{{ProductID: 1, Quantity: 1}}}
	c := s.Clone()
	c[KeyItems].([]OrderLine)[0].Quantity = 9

	items, _ := s.Items()
	if items[0].Quantity != 1 {
		t.Errorf("clone shares backing array: %v", items)
	}
}

func TestSet_JSONRestoresTypes(t *testing.T) {
	in := Set{
		KeyOrderID:         4521,
		KeyMaxPrice:        799.99,
		KeyInStock:         true,
		KeyBrand:           "Dell",
		KeyItems:           []OrderLine{{ProductID: 10001, Quantity: 2}},
		KeyShippingAddress: Address{Street: "1 Main St", City: "Austin", State: "TX", Zip: "78701", Country: "USA"},
		KeyUserData:        UserData{Name: "Jane", Password: "secret-pass"},
	}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var out Set
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	want := in.Clone()
	want[KeyUserData] = UserData{Name: "Jane"}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	if id, ok := out.GetInt(KeyOrderID); !ok || id != 4521 {
		t.Errorf("GetInt(order_id) = %d, %v", id, ok)
	}
}

func TestSet_Getters(t *testing.T) {
	s := Set{KeyPage: 2.0, KeyMinPrice: 100, KeyQuery: "xps"}

	if v, ok := s.GetInt(KeyPage); !ok || v != 2 {
		t.Errorf("GetInt = %d, %v", v, ok)
	}
	if v, ok := s.GetFloat(KeyMinPrice); !ok || v != 100 {
		t.Errorf("GetFloat = %v, %v", v, ok)
	}
	if _, ok := s.GetBool(KeyInStock); ok {
		t.Error("GetBool on missing slot reported ok")
	}
	if diff := cmp.Diff([]string{KeyMinPrice, KeyPage, KeyQuery}, s.Keys()); diff != "" {
		t.Errorf("Keys mismatch (-want +got):\n%s", diff)
	}
}
