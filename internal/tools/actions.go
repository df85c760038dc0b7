// The fixed pharmacy action set: identity store, user lookup, product
// retrieval, order placement, and the human-referral fallback.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/eokafor/go-pharmacy-backend/internal/domain"
	"github.com/eokafor/go-pharmacy-backend/internal/gate"
	"github.com/eokafor/go-pharmacy-backend/internal/orders"
	"github.com/eokafor/go-pharmacy-backend/internal/repo"
	"github.com/eokafor/go-pharmacy-backend/internal/retrieval"
)

// Tool names as exposed to the reasoning engine.
const (
	ToolStoreIdentity     = "store_customer_identity"
	ToolGetUserData       = "get_user_data"
	ToolProductInfo       = "get_relevant_product_info"
	ToolPlaceOrder        = "place_order"
	ToolReferToPharmacist = "refer_to_pharmacist"
)

// ErrNoProductMatch signals an empty retrieval result. The conversation
// policy requires routing this to refer_to_pharmacist, never to an
// invented recommendation.
var ErrNoProductMatch = errors.New("no relevant product information found")

// Searcher is the retrieval surface the product-info tool consumes.
type Searcher interface {
	Search(ctx context.Context, q retrieval.Query) []retrieval.Match
}

// OrderPlacer is the saga surface the place-order tool consumes.
type OrderPlacer interface {
	Place(ctx context.Context, user *domain.User, sessionID string, draft *gate.OrderDraft) orders.Result
}

// Deps are the collaborators the standard action set is wired to.
type Deps struct {
	DB                *gorm.DB
	Index             Searcher
	Saga              OrderPlacer
	PharmacistContact string
}

// identityArgs is the input schema of store_customer_identity.
type identityArgs struct {
	Name     string `json:"name"`
	Age      int    `json:"age"`
	Phone    string `json:"phone"`
	AltPhone string `json:"alt_phone"`
	Email    string `json:"email"`
	Gender   string `json:"gender"`
	Address  string `json:"address"`
	Landmark string `json:"landmark"`
	City     string `json:"city"`
	State    string `json:"state"`
	LGA      string `json:"lga"`
	HMOID    string `json:"hmo_id"`
}

// productArgs is the input schema of get_relevant_product_info.
type productArgs struct {
	UserQuery       string `json:"user_query"`
	ProductName     string `json:"product_name"`
	Symptom         string `json:"symptom"`
	AdditionalNotes string `json:"additional_notes"`
}

// orderArgs is the input schema of place_order.
type orderArgs struct {
	CustomerName     string             `json:"customer_name"`
	CustomerAge      int                `json:"customer_age"`
	CustomerGender   string             `json:"customer_gender"`
	CustomerHMOID    string             `json:"customer_hmo_id"`
	CustomerPhone    string             `json:"customer_phone"`
	CustomerAltPhone string             `json:"customer_alt_phone"`
	CustomerEmail    string             `json:"customer_email"`
	CustomerAddress  string             `json:"customer_address"`
	Landmark         string             `json:"landmark"`
	City             string             `json:"city"`
	State            string             `json:"state"`
	LGA              string             `json:"lga"`
	FulfilmentMode   string             `json:"fulfilment_mode"`
	OrderItems       []domain.OrderItem `json:"order_items"`
	IdempotencyToken string             `json:"idempotency_token"`
}

// Register wires the standard pharmacy action set into the registry.
func Register(o *Orchestrator, deps Deps) {
	o.Add(storeIdentitySpec(), storeIdentityHandler(deps))
	o.Add(getUserDataSpec(), getUserDataHandler(deps))
	o.Add(productInfoSpec(), productInfoHandler(deps))
	o.Add(placeOrderSpec(), placeOrderHandler(deps))
	o.Add(referSpec(), referHandler(deps))
}

func storeIdentitySpec() Spec {
	return Spec{
		Name:        ToolStoreIdentity,
		Description: "Store the customer's identity once every required field has been collected. Rejects partial identities.",
		Parameters: objectSchema(map[string]any{
			"name":      stringProp("Full name of the customer"),
			"age":       integerProp("Age in years"),
			"phone":     stringProp("Primary phone number"),
			"alt_phone": stringProp("Alternative phone number; may repeat phone"),
			"email":     stringProp("Email address"),
			"gender":    stringProp("Gender"),
			"address":   stringProp("Street address including city or town"),
			"landmark":  stringProp("Nearby landmark"),
			"city":      stringProp("City"),
			"state":     stringProp("State"),
			"lga":       stringProp("Local government area"),
			"hmo_id":    stringProp("HMO identifier"),
		}, "name", "age", "phone", "email", "gender", "address", "landmark", "city", "state", "lga", "hmo_id"),
	}
}

// storeIdentityHandler persists a complete identity. The hard gate: the
// merged record must have no missing required field, otherwise nothing
// is written and the missing list is returned for the agent to collect.
func storeIdentityHandler(deps Deps) Handler {
	return func(ctx context.Context, tc *TurnContext, raw json.RawMessage) (any, error) {
		var args identityArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, fmt.Errorf("invalid identity payload: %w", err)
		}

		merged := *tc.User
		applyIdentity(&merged, args)

		if missing := gate.MissingFields(&merged); len(missing) > 0 {
			return nil, fmt.Errorf("identity incomplete, still missing: %s", strings.Join(missing, ", "))
		}

		if err := repo.UpdateUser(ctx, deps.DB, &merged); err != nil {
			return nil, fmt.Errorf("failed to store identity: %w", err)
		}
		*tc.User = merged
		return map[string]any{"message": "stored customer identity for " + merged.Name}, nil
	}
}

// applyIdentity overlays non-empty argument fields onto the user record.
func applyIdentity(u *domain.User, args identityArgs) {
	if args.Name != "" {
		u.Name = args.Name
	}
	if args.Age > 0 {
		age := args.Age
		u.Age = &age
	}
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&u.Phone, args.Phone)
	set(&u.AltPhone, args.AltPhone)
	set(&u.Email, args.Email)
	set(&u.Gender, args.Gender)
	set(&u.Address, args.Address)
	set(&u.Landmark, args.Landmark)
	set(&u.City, args.City)
	set(&u.State, args.State)
	set(&u.LGA, args.LGA)
	set(&u.HMOID, args.HMOID)
}

func getUserDataSpec() Spec {
	return Spec{
		Name:        ToolGetUserData,
		Description: "Retrieve the stored record of the current customer.",
		Parameters:  objectSchema(map[string]any{}),
	}
}

func getUserDataHandler(deps Deps) Handler {
	return func(ctx context.Context, tc *TurnContext, _ json.RawMessage) (any, error) {
		u, err := repo.GetUser(ctx, deps.DB, tc.User.ID, tc.User.Name)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errors.New("user record not found")
			}
			return nil, fmt.Errorf("failed to load user: %w", err)
		}
		return map[string]any{"user_data": u}, nil
	}
}

func productInfoSpec() Spec {
	return Spec{
		Name:        ToolProductInfo,
		Description: "Find catalog products matching the customer's query, named product, or symptoms. Returns nothing when no inventory match exists; in that case refer to the pharmacist instead of inventing suggestions.",
		Parameters: objectSchema(map[string]any{
			"user_query":       stringProp("Full user query"),
			"product_name":     stringProp("Name of the drug or product, if mentioned"),
			"symptom":          stringProp("Symptom or condition, if mentioned"),
			"additional_notes": stringProp("Extra context for the query"),
		}, "user_query"),
	}
}

func productInfoHandler(deps Deps) Handler {
	return func(ctx context.Context, tc *TurnContext, raw json.RawMessage) (any, error) {
		var args productArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, fmt.Errorf("invalid product query payload: %w", err)
		}

		matches := deps.Index.Search(ctx, retrieval.Query{
			UserQuery:   args.UserQuery,
			ProductName: args.ProductName,
			Symptom:     args.Symptom,
			Notes:       args.AdditionalNotes,
		})
		if len(matches) == 0 {
			return nil, ErrNoProductMatch
		}
		return map[string]any{"context_chunks": matches}, nil
	}
}

func placeOrderSpec() Spec {
	return Spec{
		Name:        ToolPlaceOrder,
		Description: "Place a confirmed order. Requires the stored identity to be complete and every order field present; rejected otherwise.",
		Parameters: objectSchema(map[string]any{
			"customer_name":      stringProp("Name of the customer"),
			"customer_age":       integerProp("Age of the customer"),
			"customer_gender":    stringProp("Gender of the customer"),
			"customer_hmo_id":    stringProp("HMO ID of the customer"),
			"customer_phone":     stringProp("Phone number of the customer"),
			"customer_alt_phone": stringProp("Alternative phone number"),
			"customer_email":     stringProp("Email of the customer"),
			"customer_address":   stringProp("Address including street and city"),
			"landmark":           stringProp("Nearby landmark"),
			"city":               stringProp("City"),
			"state":              stringProp("State"),
			"lga":                stringProp("Local government area"),
			"fulfilment_mode":    stringProp("delivery or pickup"),
			"order_items": map[string]any{
				"type":        "array",
				"description": "Items to order",
				"items": objectSchema(map[string]any{
					"name":     stringProp("Product name"),
					"quantity": integerProp("Quantity"),
					"dosage":   stringProp("Dosage, e.g. 500mg"),
					"form":     stringProp("Form, e.g. tablet, syrup, ointment"),
					"note":     stringProp("Optional note"),
				}, "name", "quantity", "dosage", "form"),
			},
			"idempotency_token": stringProp("Optional client token making retries of the same order safe"),
		}, "customer_name", "customer_age", "customer_gender", "customer_hmo_id",
			"customer_phone", "customer_email", "customer_address", "landmark",
			"city", "state", "lga", "fulfilment_mode", "order_items"),
	}
}

// placeOrderHandler enforces both gates, then runs the saga. The saga's
// own failure results stay inside a successful envelope payload so the
// agent can relay them; only precondition violations error out.
func placeOrderHandler(deps Deps) Handler {
	return func(ctx context.Context, tc *TurnContext, raw json.RawMessage) (any, error) {
		var args orderArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, fmt.Errorf("invalid order payload: %w", err)
		}

		if missing := gate.MissingFields(tc.User); len(missing) > 0 {
			return nil, fmt.Errorf("customer identity incomplete, still missing: %s", strings.Join(missing, ", "))
		}

		draft := &gate.OrderDraft{
			CustomerName:     args.CustomerName,
			CustomerAge:      args.CustomerAge,
			CustomerGender:   args.CustomerGender,
			CustomerHMOID:    args.CustomerHMOID,
			CustomerPhone:    args.CustomerPhone,
			CustomerAltPhone: args.CustomerAltPhone,
			CustomerEmail:    args.CustomerEmail,
			CustomerAddress:  args.CustomerAddress,
			Landmark:         args.Landmark,
			City:             args.City,
			State:            args.State,
			LGA:              args.LGA,
			FulfilmentMode:   args.FulfilmentMode,
			Items:            args.OrderItems,
			IdempotencyToken: args.IdempotencyToken,
		}
		if missing := gate.MissingOrderFields(draft); len(missing) > 0 {
			return nil, fmt.Errorf("order incomplete, still missing: %s", strings.Join(missing, ", "))
		}

		result := deps.Saga.Place(ctx, tc.User, tc.SessionID, draft)
		if !result.Success {
			return nil, errors.New(result.Error)
		}
		return result, nil
	}
}

func referSpec() Spec {
	return Spec{
		Name:        ToolReferToPharmacist,
		Description: "Hand the customer to a human pharmacist: returns the pharmacist's contact number. The mandatory fallback when no product matches or confidence is low.",
		Parameters: objectSchema(map[string]any{
			"customer_symptoms": stringProp("Symptoms to pass along, if any"),
		}),
	}
}

// referHandler is a pure constant lookup; no side effects.
func referHandler(deps Deps) Handler {
	return func(_ context.Context, _ *TurnContext, _ json.RawMessage) (any, error) {
		return map[string]any{"pharmacist_contact": deps.PharmacistContact}, nil
	}
}

// ---- JSON-schema helpers ----

func objectSchema(props map[string]any, required ...string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func stringProp(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func integerProp(desc string) map[string]any {
	return map[string]any{"type": "integer", "description": desc}
}
