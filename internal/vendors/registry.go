package vendors

import (
	"fmt"

	"github.com/Musty2002/sm-data-app-sub000/pkg/config"
	"github.com/Musty2002/sm-data-app-sub000/pkg/enums"
	pkgerrors "github.com/Musty2002/sm-data-app-sub000/pkg/errors"
)

// Registry resolves the adapter for a purchase. Adapters with no configured
// base URL are left out, so a vendor can be disabled by unsetting its env.
type Registry struct {
	adapters map[enums.Vendor]Adapter
	order    []enums.Vendor
}

// NewRegistry wires the configured provider adapters.
func NewRegistry(cfg config.VendorsConfig) *Registry {
	reg := &Registry{adapters: make(map[enums.Vendor]Adapter)}
	if cfg.VTPassBaseURL != "" {
		reg.add(NewVTPass(cfg))
	}
	if cfg.ClubKonnectBaseURL != "" {
		reg.add(NewClubKonnect(cfg))
	}
	if cfg.PayscribeBaseURL != "" {
		reg.add(NewPayscribe(cfg))
	}
	return reg
}

// NewRegistryWith builds a registry from explicit adapters; used by tests and
// anywhere adapters are stubbed.
func NewRegistryWith(adapters ...Adapter) *Registry {
	reg := &Registry{adapters: make(map[enums.Vendor]Adapter)}
	for _, a := range adapters {
		reg.add(a)
	}
	return reg
}

func (r *Registry) add(a Adapter) {
	if a == nil {
		return
	}
	if _, exists := r.adapters[a.Name()]; !exists {
		r.order = append(r.order, a.Name())
	}
	r.adapters[a.Name()] = a
}

// ByName returns the adapter for a specific vendor.
func (r *Registry) ByName(vendor enums.Vendor) (Adapter, error) {
	if a, ok := r.adapters[vendor]; ok {
		return a, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("vendor %s is not configured", vendor))
}

// ForCategory returns the first configured adapter that supports the category,
// in registration order.
func (r *Registry) ForCategory(category enums.PurchaseCategory) (Adapter, error) {
	for _, name := range r.order {
		if r.adapters[name].Supports(category) {
			return r.adapters[name], nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("no vendor configured for %s", category))
}
