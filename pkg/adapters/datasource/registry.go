package datasource

import (
	"context"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/config"
)

// AdapterInfo describes a compiled-in datasource type.
type AdapterInfo struct {
	Type        string `json:"type"`         // config value, e.g. "sqlserver"
	DisplayName string `json:"display_name"` // e.g. "Microsoft SQL Server"
	Description string `json:"description"`
}

// AdapterFactory opens an adapter for the configured datasource.
type AdapterFactory func(ctx context.Context, cfg config.DatasourceConfig, logger *zap.Logger) (Adapter, error)

// Registration pairs an adapter's description with its factory.
type Registration struct {
	Info    AdapterInfo
	Factory AdapterFactory
}

// adapters is filled from the init functions of the dialect packages.
var adapters struct {
	sync.RWMutex
	byType map[string]Registration
}

// Register makes a datasource type available to NewAdapter. Registering a
// type again replaces it.
func Register(reg Registration) {
	adapters.Lock()
	defer adapters.Unlock()
	if adapters.byType == nil {
		adapters.byType = make(map[string]Registration)
	}
	adapters.byType[reg.Info.Type] = reg
}

func lookup(dsType string) (Registration, bool) {
	adapters.RLock()
	defer adapters.RUnlock()
	reg, ok := adapters.byType[dsType]
	return reg, ok
}

// RegisteredAdapters lists the registered types in type order.
func RegisteredAdapters() []AdapterInfo {
	adapters.RLock()
	infos := make([]AdapterInfo, 0, len(adapters.byType))
	for _, reg := range adapters.byType {
		infos = append(infos, reg.Info)
	}
	adapters.RUnlock()

	slices.SortFunc(infos, func(a, b AdapterInfo) int { return strings.Compare(a.Type, b.Type) })
	return infos
}

// GetFactory returns the factory for dsType, or nil.
func GetFactory(dsType string) AdapterFactory {
	reg, _ := lookup(dsType)
	return reg.Factory
}

// IsRegistered reports whether dsType was compiled in.
func IsRegistered(dsType string) bool {
	_, ok := lookup(dsType)
	return ok
}
