package install

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/docext/internal/domain/registry"
)

// Namespace is the shared environment libraries are installed into
type Namespace interface {
	Has(global string) bool
	Install(ctx context.Context, global, source string) error
}

// ScriptInstaller fetches a library and evaluates it into a Namespace
type ScriptInstaller struct {
	fetcher   Fetcher
	namespace Namespace
	timeout   time.Duration
	logger    *zap.Logger
}

// NewScriptInstaller creates an installer. timeout bounds fetch plus
// evaluation; 0 disables it.
func NewScriptInstaller(fetcher Fetcher, ns Namespace, timeout time.Duration) *ScriptInstaller {
	return &ScriptInstaller{
		fetcher:   fetcher,
		namespace: ns,
		timeout:   timeout,
		logger:    zap.NewNop(),
	}
}

// WithLogger sets the logger
func (s *ScriptInstaller) WithLogger(logger *zap.Logger) *ScriptInstaller {
	if logger != nil {
		s.logger = logger.Named("install")
	}
	return s
}

// Install makes desc's global reachable in the namespace
func (s *ScriptInstaller) Install(ctx context.Context, desc registry.Descriptor) error {
	global := desc.GlobalName()

	if s.namespace.Has(global) {
		s.logger.Info("library already present",
			zap.String("library", desc.ID),
			zap.String("global", global),
		)
		return nil
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	src, err := s.fetcher.Fetch(ctx, desc)
	if err == nil {
		err = s.namespace.Install(ctx, global, src)
	}
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w after %s: %v", ErrTimeout, s.timeout, err)
		}
		return err
	}
	return nil
}
