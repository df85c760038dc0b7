// Package gate computes which required fields are still missing from a
// customer record or an order draft. The results decide which
// side-effecting tools may run this turn: the orchestrator refuses to
// dispatch identity-store or order-placement actions while their
// preconditions are unmet, so gating is an enforced check rather than a
// suggestion to the reasoning engine.
//
// All functions here are pure; they never touch storage.
package gate

import (
	"strconv"

	"github.com/eokafor/go-pharmacy-backend/internal/domain"
)

// RequiredIdentityFields is the fixed identity checklist, in the order
// missing fields are reported (declaration order, stable across calls).
var RequiredIdentityFields = []string{
	"name", "age", "phone", "email", "gender",
	"address", "landmark", "city", "state", "lga", "hmo_id",
}

// OrderDraft is the order-side input validated before the saga runs.
type OrderDraft struct {
	CustomerName     string
	CustomerAge      int
	CustomerGender   string
	CustomerHMOID    string
	CustomerPhone    string
	CustomerAltPhone string
	CustomerEmail    string
	CustomerAddress  string
	Landmark         string
	City             string
	State            string
	LGA              string
	FulfilmentMode   string
	Items            []domain.OrderItem
	IdempotencyToken string
}

// MissingFields returns the required identity fields the user has not
// provided yet, in checklist order. A nil user is missing everything.
// Empty strings and nil/zero values count as missing; alt_phone is
// optional and never reported.
func MissingFields(u *domain.User) []string {
	if u == nil {
		out := make([]string, len(RequiredIdentityFields))
		copy(out, RequiredIdentityFields)
		return out
	}

	present := map[string]bool{
		"name":     u.Name != "",
		"age":      u.Age != nil && *u.Age > 0,
		"phone":    u.Phone != "",
		"email":    u.Email != "",
		"gender":   u.Gender != "",
		"address":  u.Address != "",
		"landmark": u.Landmark != "",
		"city":     u.City != "",
		"state":    u.State != "",
		"lga":      u.LGA != "",
		"hmo_id":   u.HMOID != "",
	}

	var missing []string
	for _, f := range RequiredIdentityFields {
		if !present[f] {
			missing = append(missing, f)
		}
	}
	return missing
}

// IdentityComplete reports whether every required identity field is set.
func IdentityComplete(u *domain.User) bool {
	return len(MissingFields(u)) == 0
}

// MissingOrderFields returns the order-side fields a draft still lacks,
// in a stable order. Each item needs name, quantity, dosage, and form;
// note and alt_phone stay optional.
func MissingOrderFields(d *OrderDraft) []string {
	if d == nil {
		return []string{"order"}
	}

	var missing []string
	appendIf := func(ok bool, field string) {
		if !ok {
			missing = append(missing, field)
		}
	}

	appendIf(d.CustomerName != "", "customer_name")
	appendIf(d.CustomerAge > 0, "customer_age")
	appendIf(d.CustomerGender != "", "customer_gender")
	appendIf(d.CustomerHMOID != "", "customer_hmo_id")
	appendIf(d.CustomerPhone != "", "customer_phone")
	appendIf(d.CustomerEmail != "", "customer_email")
	appendIf(d.CustomerAddress != "", "customer_address")
	appendIf(d.Landmark != "", "landmark")
	appendIf(d.City != "", "city")
	appendIf(d.State != "", "state")
	appendIf(d.LGA != "", "lga")
	appendIf(d.FulfilmentMode != "", "fulfilment_mode")
	appendIf(len(d.Items) > 0, "order_items")

	for i, it := range d.Items {
		appendIf(it.Name != "", itemField(i, "name"))
		appendIf(it.Quantity > 0, itemField(i, "quantity"))
		appendIf(it.Dosage != "", itemField(i, "dosage"))
		appendIf(it.Form != "", itemField(i, "form"))
	}
	return missing
}

func itemField(i int, name string) string {
	return "order_items[" + strconv.Itoa(i) + "]." + name
}
