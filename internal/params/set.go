// Package params extracts structured slot values from shopper utterances.
package params

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Slot names.
const (
	KeyCategory        = "category"
	KeyQuery           = "query"
	KeyBrand           = "brand"
	KeyMinPrice        = "min_price"
	KeyMaxPrice        = "max_price"
	KeyInStock         = "in_stock"
	KeyPage            = "page"
	KeyPageSize        = "page_size"
	KeyOrderID         = "order_id"
	KeyUserData        = "user_data"
	KeyItems           = "items"
	KeyShippingAddress = "shipping_address"
	KeyNotes           = "notes"
)

// AmbiguousPriceRange is reported when a minimum price above the maximum
// makes both bounds unusable.
const AmbiguousPriceRange = "price_range"

// Set maps slot names to typed values. A missing key means the slot was not
// mentioned. Value types per slot:
//
//	category, query, brand, notes  string
//	order_id, page, page_size      int
//	min_price, max_price           float64
//	in_stock                       bool
//	user_data                      UserData
//	items                          []OrderLine
//	shipping_address               Address
type Set map[string]any

// UserData holds requested profile changes. Password never leaves the
// process in JSON form.
type UserData struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Password string `json:"-"`
}

// Empty reports whether no field is set.
func (u UserData) Empty() bool { return u.Name == "" && u.Email == "" && u.Password == "" }

// OrderLine is one requested product and quantity.
type OrderLine struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// Address is a parsed shipping address.
type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Zip     string `json:"zip,omitempty"`
	Country string `json:"country,omitempty"`
}

func (s Set) GetString(k string) (string, bool) {
	v, ok := s[k].(string)
	return v, ok
}

// GetInt accepts any integral numeric value.
func (s Set) GetInt(k string) (int, bool) {
	switch v := s[k].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v == math.Trunc(v) {
			return int(v), true
		}
	}
	return 0, false
}

func (s Set) GetFloat(k string) (float64, bool) {
	switch v := s[k].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func (s Set) GetBool(k string) (bool, bool) {
	v, ok := s[k].(bool)
	return v, ok
}

func (s Set) UserData() (UserData, bool) {
	v, ok := s[KeyUserData].(UserData)
	return v, ok
}

func (s Set) Items() ([]OrderLine, bool) {
	v, ok := s[KeyItems].([]OrderLine)
	return v, ok
}

func (s Set) Address() (Address, bool) {
	v, ok := s[KeyShippingAddress].(Address)
	return v, ok
}

// Keys returns the slot names in sorted order.
func (s Set) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a copy that shares no mutable state with s.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for k, v := range s {
		if items, ok := v.([]OrderLine); ok {
			v = append([]OrderLine(nil), items...)
		}
		out[k] = v
	}
	return out
}

// Merge returns base overlaid with over. Values in over win on key
// collision; user_data is merged field by field so a follow-up that only
// names an email keeps a previously given name.
func Merge(base, over Set) Set {
	out := base.Clone()
	for k, v := range over.Clone() {
		if k == KeyUserData {
			prev, _ := out[k].(UserData)
			next, _ := v.(UserData)
			if next.Name != "" {
				prev.Name = next.Name
			}
			if next.Email != "" {
				prev.Email = next.Email
			}
			if next.Password != "" {
				prev.Password = next.Password
			}
			out[k] = prev
			continue
		}
		out[k] = v
	}
	return out
}

// UnmarshalJSON restores the typed slot values described on Set.
func (s *Set) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Set, len(raw))
	for k, msg := range raw {
		var (
			v   any
			err error
		)
		switch k {
		case KeyOrderID, KeyPage, KeyPageSize:
			var n int
			err = json.Unmarshal(msg, &n)
			v = n
		case KeyMinPrice, KeyMaxPrice:
			var f float64
			err = json.Unmarshal(msg, &f)
			v = f
		case KeyInStock:
			var b bool
			err = json.Unmarshal(msg, &b)
			v = b
		case KeyUserData:
			var u UserData
			err = json.Unmarshal(msg, &u)
			v = u
		case KeyItems:
			var items []OrderLine
			err = json.Unmarshal(msg, &items)
			v = items
		case KeyShippingAddress:
			var a Address
			err = json.Unmarshal(msg, &a)
			v = a
		case KeyCategory, KeyQuery, KeyBrand, KeyNotes:
			var str string
			err = json.Unmarshal(msg, &str)
			v = str
		default:
			err = json.Unmarshal(msg, &v)
		}
		if err != nil {
			return fmt.Errorf("decoding slot %q: %w", k, err)
		}
		out[k] = v
	}
	*s = out
	return nil
}
