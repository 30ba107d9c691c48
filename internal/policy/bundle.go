package policy

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"janus/internal/action"
	"janus/internal/metadata"
	"janus/internal/model"
)

// Bundle couples a loaded policy with the action table and metadata it
// was trained against. Immutable after load; safe to share across
// concurrent requests.
type Bundle struct {
	Controller model.Controller
	Policy     Policy
	Table      action.Table
	Meta       model.PolicyMetadata
}

// Source describes where a controller's bundle comes from: the metadata
// file (optional when defaults exist) and an opener for the opaque
// policy artifact itself.
type Source struct {
	MetadataPath string
	Defaults     []model.ActionSpec
	Open         func(meta model.PolicyMetadata) (Policy, error)
}

// Cache holds one bundle per controller, loaded lazily on first use and
// kept for the process lifetime. Loads are deterministic functions of
// the same input files, so a redundant concurrent load is harmless;
// the cache still serializes them for simplicity.
type Cache struct {
	mu      sync.Mutex
	sources map[model.Controller]Source
	bundles map[model.Controller]*Bundle
}

func NewCache() *Cache {
	return &Cache{
		sources: make(map[model.Controller]Source),
		bundles: make(map[model.Controller]*Bundle),
	}
}

// Register installs the source for a controller. Must happen before the
// first Bundle call for that controller.
func (c *Cache) Register(controller model.Controller, source Source) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources[controller] = source
}

// Bundle returns the cached bundle for the controller, loading it on
// first use. Configuration problems surface as *action.ConfigurationError,
// policy artifact problems as *UnavailableError.
func (c *Cache) Bundle(ctx context.Context, controller model.Controller) (*Bundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if bundle, ok := c.bundles[controller]; ok {
		return bundle, nil
	}
	source, ok := c.sources[controller]
	if !ok {
		return nil, &UnavailableError{Controller: controller, Reason: "no policy source registered"}
	}

	meta, table, err := metadata.Load(source.MetadataPath, controller, source.Defaults)
	if err != nil {
		return nil, err
	}

	if source.Open == nil {
		return nil, &UnavailableError{Controller: controller, Reason: "no policy opener registered"}
	}
	loaded, err := source.Open(meta)
	if err != nil {
		return nil, &UnavailableError{Controller: controller, Reason: "open policy artifact", Err: err}
	}

	bundle := &Bundle{Controller: controller, Policy: loaded, Table: table, Meta: meta}
	c.bundles[controller] = bundle
	return bundle, nil
}

// Warmup eagerly loads every registered bundle, logging and discarding
// failures. A controller that fails to warm up reports its real error on
// first use instead.
func (c *Cache) Warmup(ctx context.Context, log *logrus.Logger) {
	c.mu.Lock()
	controllers := make([]model.Controller, 0, len(c.sources))
	for controller := range c.sources {
		controllers = append(controllers, controller)
	}
	c.mu.Unlock()

	for _, controller := range controllers {
		if _, err := c.Bundle(ctx, controller); err != nil {
			if log != nil {
				log.WithFields(logrus.Fields{
					"controller": controller,
				}).WithError(err).Warn("policy warmup failed; deferring to first use")
			}
			continue
		}
		if log != nil {
			log.WithField("controller", controller).Info("policy bundle warmed up")
		}
	}
}
