package accounts

import (
	"errors"
	"testing"

	"github.com/craftling/craftling/internals/merrors"
)

func TestFlowStoreOAuthHandles(t *testing.T) {
	flows := NewFlowStore()

	a := flows.putOAuth(&oauthFlow{serverType: Microsoft})
	b := flows.putOAuth(&oauthFlow{serverType: ThirdParty})
	if a == b {
		t.Fatal("handles must be unique")
	}

	flow, err := flows.takeOAuth(a)
	if err != nil {
		t.Fatal(err)
	}
	if flow.serverType != Microsoft {
		t.Errorf("wrong flow for handle: %+v", flow)
	}

	// a handle is consumed by take
	if _, err := flows.takeOAuth(a); !errors.Is(err, merrors.ErrNotFound) {
		t.Fatalf("expected a not found error, got %v", err)
	}
	if _, err := flows.takeOAuth(b); err != nil {
		t.Fatal("the other flow must survive:", err)
	}
}

func TestFlowStoreUnknownHandle(t *testing.T) {
	flows := NewFlowStore()
	if _, err := flows.takeOAuth("nope"); !errors.Is(err, merrors.ErrNotFound) {
		t.Fatalf("expected a not found error, got %v", err)
	}
}

func TestFlowStoreCampusSlot(t *testing.T) {
	flows := NewFlowStore()

	if _, err := flows.campusState(); !errors.Is(err, merrors.ErrNotFound) {
		t.Fatalf("expected a not found error for the empty slot, got %v", err)
	}

	flows.putCampus(nil)
	if _, err := flows.campusState(); !errors.Is(err, merrors.ErrNotFound) {
		t.Fatal("a nil state must not count as pending")
	}
}
