package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestDispatch_UnknownTool(t *testing.T) {
	o := NewOrchestrator()
	env := o.Dispatch(context.Background(), &TurnContext{}, "no_such_tool", nil)
	if env.Success {
		t.Fatal("unknown tool reported success")
	}
	if !strings.Contains(env.Error, "no_such_tool") {
		t.Fatalf("error does not name the tool: %q", env.Error)
	}
}

func TestDispatch_HandlerErrorBecomesEnvelope(t *testing.T) {
	o := NewOrchestrator()
	o.Add(Spec{Name: "boom"}, func(context.Context, *TurnContext, json.RawMessage) (any, error) {
		return nil, errors.New("it broke")
	})

	env := o.Dispatch(context.Background(), &TurnContext{}, "boom", nil)
	if env.Success {
		t.Fatal("error handler reported success")
	}
	if env.Error != "it broke" {
		t.Fatalf("error = %q", env.Error)
	}
}

// A panicking handler must not take down the conversational turn.
func TestDispatch_PanicBecomesEnvelope(t *testing.T) {
	o := NewOrchestrator()
	o.Add(Spec{Name: "panicky"}, func(context.Context, *TurnContext, json.RawMessage) (any, error) {
		panic("nil map write")
	})

	env := o.Dispatch(context.Background(), &TurnContext{}, "panicky", nil)
	if env.Success {
		t.Fatal("panicking handler reported success")
	}
	if !strings.Contains(env.Error, "panicky") {
		t.Fatalf("error does not name the tool: %q", env.Error)
	}
}

func TestDispatch_SuccessEnvelope(t *testing.T) {
	o := NewOrchestrator()
	o.Add(Spec{Name: "echo"}, func(_ context.Context, _ *TurnContext, args json.RawMessage) (any, error) {
		return string(args), nil
	})

	env := o.Dispatch(context.Background(), &TurnContext{}, "echo", json.RawMessage(`{"x":1}`))
	if !env.Success {
		t.Fatalf("Dispatch failed: %s", env.Error)
	}
	if env.Data != `{"x":1}` {
		t.Fatalf("data = %v", env.Data)
	}
}

func TestAdd_ReplaceByNameKeepsOneSpec(t *testing.T) {
	o := NewOrchestrator()
	o.Add(Spec{Name: "dup", Description: "first"}, func(context.Context, *TurnContext, json.RawMessage) (any, error) {
		return "first", nil
	})
	o.Add(Spec{Name: "dup", Description: "second"}, func(context.Context, *TurnContext, json.RawMessage) (any, error) {
		return "second", nil
	})

	specs := o.Specs()
	if len(specs) != 1 {
		t.Fatalf("specs = %d, want 1", len(specs))
	}
	if specs[0].Description != "second" {
		t.Fatalf("spec not replaced: %q", specs[0].Description)
	}
	env := o.Dispatch(context.Background(), &TurnContext{}, "dup", nil)
	if env.Data != "second" {
		t.Fatalf("handler not replaced: %v", env.Data)
	}
}

func TestSpecs_RegistrationOrder(t *testing.T) {
	o := NewOrchestrator()
	for _, name := range []string{"a", "b", "c"} {
		o.Add(Spec{Name: name}, func(context.Context, *TurnContext, json.RawMessage) (any, error) {
			return nil, nil
		})
	}
	specs := o.Specs()
	if len(specs) != 3 || specs[0].Name != "a" || specs[1].Name != "b" || specs[2].Name != "c" {
		t.Fatalf("specs out of order: %+v", specs)
	}
}
