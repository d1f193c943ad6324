package accounts

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/craftling/craftling/internals/campus"
	"github.com/craftling/craftling/internals/downloadmgr"
	"github.com/craftling/craftling/internals/minecraft/microsoft"
	"golang.org/x/oauth2"
)

// Service orchestrates the login protocols and guards the shared
// roster. All network calls happen before the roster lock is taken:
// the lock is never held across a suspension point.
type Service struct {
	mu    sync.Mutex
	state State

	flows         *FlowStore
	pollCancelled atomic.Bool

	store     Persister
	config    ConfigStore
	http      *http.Client
	microsoft *microsoft.Client
	campus    *campus.Client
	downloads *downloadmgr.Manager
}

// Options wires the service's collaborators
type Options struct {
	Store  Persister
	Config ConfigStore
	// HTTP is used by all adapters, defaults to http.DefaultClient
	HTTP *http.Client
	// MicrosoftClientID is the oauth app id for the vendor login
	MicrosoftClientID string
	// CampusBaseURL enables the campus cookie login when set
	CampusBaseURL string
	// Downloads receives skin texture fetches when set
	Downloads *downloadmgr.Manager
}

// New loads the persisted state and returns a ready service
func New(opts Options) (*Service, error) {
	state, err := opts.Store.Load()
	if err != nil {
		return nil, err
	}

	httpClient := opts.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	s := &Service{
		state:     *state,
		flows:     NewFlowStore(),
		store:     opts.Store,
		config:    opts.Config,
		http:      httpClient,
		downloads: opts.Downloads,
	}
	s.microsoft = microsoft.New(httpClient, &oauth2.Config{ClientID: opts.MicrosoftClientID})
	if opts.CampusBaseURL != "" {
		s.campus = campus.New(opts.CampusBaseURL, httpClient)
	}
	return s, nil
}
