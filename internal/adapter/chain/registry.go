// Package chain resolves chain adapters by currency and key generators by
// chain family.
package chain

import (
	"context"
	"fmt"
	"sync"

	"custodial-wallet/internal/core/domain"
	"custodial-wallet/internal/core/ports"
	"custodial-wallet/pkg/apperror"

	"golang.org/x/time/rate"
)

// Registry implements ports.AdapterRegistry.
type Registry struct {
	mu         sync.RWMutex
	catalogue  domain.Catalogue
	byCurrency map[string]ports.ChainAdapter
	generators map[domain.ChainFamily]ports.KeyGenerator
}

// NewRegistry creates an empty registry over the currency catalogue.
func NewRegistry(catalogue domain.Catalogue) *Registry {
	return &Registry{
		catalogue:  catalogue,
		byCurrency: make(map[string]ports.ChainAdapter),
		generators: make(map[domain.ChainFamily]ports.KeyGenerator),
	}
}

// Register binds adapter to every catalogue currency of its family and
// records the family's key generator.
func (r *Registry) Register(adapter ports.ChainAdapter, gen ports.KeyGenerator) error {
	family := adapter.Family()
	if gen.Family() != family {
		return fmt.Errorf("generator family %s does not match adapter family %s", gen.Family(), family)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.generators[family]; ok {
		return fmt.Errorf("chain family %s already registered", family)
	}
	r.generators[family] = gen
	for _, cur := range r.catalogue.ByFamily(family) {
		r.byCurrency[cur.Code] = adapter
	}
	return nil
}

// ForCurrency returns the adapter that settles currency.
func (r *Registry) ForCurrency(currency string) (ports.ChainAdapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cur, ok := r.catalogue.Lookup(currency)
	if !ok {
		return nil, apperror.ErrAdapterNotRegistered(currency)
	}
	adapter, ok := r.byCurrency[cur.Code]
	if !ok {
		return nil, apperror.ErrAdapterNotRegistered(currency)
	}
	return adapter, nil
}

// Generator returns the key generator of family.
func (r *Registry) Generator(family domain.ChainFamily) (ports.KeyGenerator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	gen, ok := r.generators[family]
	if !ok {
		return nil, apperror.ErrAdapterNotRegistered(string(family))
	}
	return gen, nil
}

// Families lists the registered chain families.
func (r *Registry) Families() []domain.ChainFamily {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.ChainFamily, 0, len(r.generators))
	for f := range r.generators {
		out = append(out, f)
	}
	return out
}

// BuildAndSign builds intent on adapter and signs it with keyMaterial.
func BuildAndSign(ctx context.Context, adapter ports.ChainAdapter, intent ports.TransferIntent, keyMaterial []byte) (*ports.SignedTransfer, error) {
	unsigned, err := adapter.Build(ctx, intent)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	signed, err := adapter.Sign(unsigned, keyMaterial)
	if err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}
	return signed, nil
}

// NewLimiter paces RPC calls to rps per second. rps <= 0 disables pacing.
func NewLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}
