package accounts

import (
	"sync"

	"github.com/craftling/craftling/internals/campus"
	"github.com/craftling/craftling/internals/deviceauth"
	"github.com/craftling/craftling/internals/merrors"
	"github.com/dchest/uniuri"
)

// oauthFlow is one in-flight device authorization together with the
// target it was started for
type oauthFlow struct {
	session       *deviceauth.Session
	serverType    PlayerType
	authServerURL string
}

// FlowStore holds the ephemeral state of multi step logins. It is a
// shared resource independent from the roster, so an abandoned login
// never blocks roster operations. Nothing in here is persisted.
type FlowStore struct {
	mu     sync.Mutex
	oauth  map[string]*oauthFlow
	campus *campus.AuthState
}

// NewFlowStore creates an empty flow store
func NewFlowStore() *FlowStore {
	return &FlowStore{oauth: map[string]*oauthFlow{}}
}

// putOAuth stores a device flow and returns its handle
func (f *FlowStore) putOAuth(flow *oauthFlow) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	handle := uniuri.New()
	f.oauth[handle] = flow
	return handle
}

// takeOAuth consumes the device flow for handle. A missing handle is
// a hard error: a finalize without a prior begin must not silently
// restart the flow.
func (f *FlowStore) takeOAuth(handle string) (*oauthFlow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	flow, ok := f.oauth[handle]
	if !ok {
		return nil, merrors.ErrNotFound.Because("no login in progress for this code")
	}
	delete(f.oauth, handle)
	return flow, nil
}

// putCampus stores the cookie session of the campus flow. At most one
// campus login runs at a time; starting a new one replaces an
// abandoned predecessor.
func (f *FlowStore) putCampus(state *campus.AuthState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.campus = state
}

// campusState returns the held cookie session without consuming it
func (f *FlowStore) campusState() (*campus.AuthState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.campus == nil {
		return nil, merrors.ErrNotFound.Because("no campus login in progress")
	}
	return f.campus, nil
}

// clearCampus drops the held cookie session
func (f *FlowStore) clearCampus() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.campus = nil
}
