package chain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/samber/lo"
)

var (
	// ErrUnknownServer indicates the chain ID is neither built-in nor custom.
	ErrUnknownServer = errors.New("unknown server")
	// ErrBuiltinServer indicates an attempt to edit or remove a built-in chain.
	ErrBuiltinServer = errors.New("built-in server cannot be modified")
	// ErrDuplicateServer indicates a custom server reuses an existing chain ID.
	ErrDuplicateServer = errors.New("server already exists")
	// ErrInvalidServer indicates custom server metadata failed validation.
	ErrInvalidServer = errors.New("invalid server")
)

// CustomStore persists user-defined RPC servers.
type CustomStore interface {
	ListCustomServers(ctx context.Context) ([]Metadata, error)
	SaveCustomServer(ctx context.Context, m Metadata) error
	DeleteCustomServer(ctx context.Context, chainID uint64) error
}

// Catalog resolves servers to metadata. Built-ins are fixed for the process
// lifetime; custom servers are loaded from and written through the store.
type Catalog struct {
	store CustomStore

	mu        sync.RWMutex
	custom    map[Server]Metadata
	version   uint64
	observers []func()
}

// NewCatalog creates a Catalog backed by the given store.
func NewCatalog(store CustomStore) *Catalog {
	if store == nil {
		panic("chain.NewCatalog: store is nil")
	}
	return &Catalog{
		store:  store,
		custom: make(map[Server]Metadata),
	}
}

// Load replaces the in-memory custom servers with the persisted set.
func (c *Catalog) Load(ctx context.Context) error {
	servers, err := c.store.ListCustomServers(ctx)
	if err != nil {
		return fmt.Errorf("loading custom servers: %w", err)
	}

	custom := make(map[Server]Metadata, len(servers))
	for _, m := range servers {
		if IsBuiltin(m.Server()) {
			slog.Warn("ignoring persisted custom server that shadows a built-in", "chainId", m.ChainID)
			continue
		}
		m.IsCustom = true
		custom[m.Server()] = m
	}

	c.mu.Lock()
	c.custom = custom
	c.version++
	c.mu.Unlock()

	slog.Info("catalog loaded", "builtin", len(builtin), "custom", len(custom))
	c.notify()
	return nil
}

// Lookup returns metadata for a server.
func (c *Catalog) Lookup(s Server) (Metadata, error) {
	if m, ok := builtin[s]; ok {
		return m, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if m, ok := c.custom[s]; ok {
		return m, nil
	}
	return Metadata{}, fmt.Errorf("chain %d: %w", s, ErrUnknownServer)
}

// Name returns the display name of a server, or its chain ID if unknown.
func (c *Catalog) Name(s Server) string {
	m, err := c.Lookup(s)
	if err != nil {
		return "Chain " + s.String()
	}
	return m.Name
}

// All returns every known server ordered by chain ID.
func (c *Catalog) All() []Metadata {
	c.mu.RLock()
	all := append(lo.Values(builtin), lo.Values(c.custom)...)
	c.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].ChainID < all[j].ChainID })
	return all
}

// Enabled resolves the given servers, skipping unknown ones with a warning.
// An empty list means DefaultEnabled.
func (c *Catalog) Enabled(servers []Server) []Metadata {
	if len(servers) == 0 {
		servers = DefaultEnabled
	}
	return lo.FilterMap(lo.Uniq(servers), func(s Server, _ int) (Metadata, bool) {
		m, err := c.Lookup(s)
		if err != nil {
			slog.Warn("enabled chain not in catalog", "chainId", uint64(s))
			return Metadata{}, false
		}
		return m, true
	})
}

// Add registers and persists a new custom server.
func (c *Catalog) Add(ctx context.Context, m Metadata) error {
	if err := validateCustom(m); err != nil {
		return err
	}
	if IsBuiltin(m.Server()) {
		return fmt.Errorf("chain %d: %w", m.ChainID, ErrDuplicateServer)
	}
	c.mu.RLock()
	_, exists := c.custom[m.Server()]
	c.mu.RUnlock()
	if exists {
		return fmt.Errorf("chain %d: %w", m.ChainID, ErrDuplicateServer)
	}
	return c.put(ctx, m)
}

// Update replaces an existing custom server.
func (c *Catalog) Update(ctx context.Context, m Metadata) error {
	if IsBuiltin(m.Server()) {
		return fmt.Errorf("chain %d: %w", m.ChainID, ErrBuiltinServer)
	}
	if err := validateCustom(m); err != nil {
		return err
	}
	c.mu.RLock()
	_, exists := c.custom[m.Server()]
	c.mu.RUnlock()
	if !exists {
		return fmt.Errorf("chain %d: %w", m.ChainID, ErrUnknownServer)
	}
	return c.put(ctx, m)
}

// Remove deletes a custom server.
func (c *Catalog) Remove(ctx context.Context, s Server) error {
	if IsBuiltin(s) {
		return fmt.Errorf("chain %d: %w", s, ErrBuiltinServer)
	}
	c.mu.RLock()
	_, exists := c.custom[s]
	c.mu.RUnlock()
	if !exists {
		return fmt.Errorf("chain %d: %w", s, ErrUnknownServer)
	}

	if err := c.store.DeleteCustomServer(ctx, uint64(s)); err != nil {
		return fmt.Errorf("deleting custom server %d: %w", s, err)
	}

	c.mu.Lock()
	delete(c.custom, s)
	c.version++
	c.mu.Unlock()

	c.notify()
	return nil
}

// Version increments on every change to the custom server set.
func (c *Catalog) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// OnChange registers fn to be called after every custom server change.
func (c *Catalog) OnChange(fn func()) {
	c.mu.Lock()
	c.observers = append(c.observers, fn)
	c.mu.Unlock()
}

func (c *Catalog) put(ctx context.Context, m Metadata) error {
	m.IsCustom = true
	if m.Decimals == 0 {
		m.Decimals = 18
	}
	if err := c.store.SaveCustomServer(ctx, m); err != nil {
		return fmt.Errorf("saving custom server %d: %w", m.ChainID, err)
	}

	c.mu.Lock()
	c.custom[m.Server()] = m
	c.version++
	c.mu.Unlock()

	c.notify()
	return nil
}

func (c *Catalog) notify() {
	c.mu.RLock()
	observers := append([]func(){}, c.observers...)
	c.mu.RUnlock()
	for _, fn := range observers {
		fn()
	}
}

func validateCustom(m Metadata) error {
	if m.ChainID == 0 {
		return fmt.Errorf("%w: chain ID is required", ErrInvalidServer)
	}
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidServer)
	}
	if strings.TrimSpace(m.Symbol) == "" {
		return fmt.Errorf("%w: symbol is required", ErrInvalidServer)
	}
	u, err := url.Parse(m.RPCURL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("%w: invalid RPC URL %q", ErrInvalidServer, m.RPCURL)
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return fmt.Errorf("%w: unsupported RPC URL scheme %q", ErrInvalidServer, u.Scheme)
	}
	return nil
}
