// Package mandantsync reconciles object-mandant associations
// with mandant names written in object configurations.
package mandantsync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/heatcare/heatcare/pkg/domain"
	kassoc "github.com/heatcare/heatcare/pkg/domain/association/db"
	kerr "github.com/heatcare/heatcare/pkg/domain/errors"
	kmandant "github.com/heatcare/heatcare/pkg/domain/mandant/db"
	kobject "github.com/heatcare/heatcare/pkg/domain/object/db"
	xe "github.com/heatcare/heatcare/pkg/errors"
)

// ErrBusy is returned by TryRun when another run is in progress.
var ErrBusy = errors.New("synchronization is in progress")

// Logger is a leveled logger.
//
// *log.Logger of github.com/labstack/gommon and echo.Logger satisfy this.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Observer receives results of runs.
type Observer interface {
	// ObserveObject is called after each object is processed.
	ObserveObject(outcome Outcome)

	// ObserveRun is called after each run, also when it is failed.
	ObserveRun(summary Summary, err error, elapsed time.Duration)
}

// Outcome is how an object has been processed.
type Outcome string

const (
	Synchronized  Outcome = "synchronized"
	WithoutConfig Outcome = "without_config"
	Failed        Outcome = "failed"
)

// Summary is the result of a run.
type Summary struct {
	// objects visited, including ones without configuration and failed ones.
	Processed int `json:"processed"`

	// associations existing for synchronized objects after the run.
	Created int `json:"created"`

	// associations inserted.
	Added int `json:"added"`

	// associations deleted.
	Removed int `json:"removed"`

	// objects with missing or malformed configuration.
	WithoutConfig int `json:"withoutConfig"`

	// objects failed to be synchronized.
	Failed int `json:"failed"`

	// role names matching no mandant.
	Unresolved int `json:"unresolved"`
}

func (s Summary) String() string {
	return fmt.Sprintf(
		"processed %d objects, %d associations (+%d -%d), %d without configuration, %d failed, %d unresolved names",
		s.Processed, s.Created, s.Added, s.Removed, s.WithoutConfig, s.Failed, s.Unresolved,
	)
}

type Config struct {
	ConflictPolicy ConflictPolicy
	MissingConfig  MissingConfigPolicy

	// log progress every this many objects. 0 disables progress logging.
	ProgressEvery int

	Logger   Logger
	Observer Observer
}

type Option func(*Config) *Config

func WithConflictPolicy(p ConflictPolicy) Option {
	return func(c *Config) *Config {
		c.ConflictPolicy = p
		return c
	}
}

func WithMissingConfigPolicy(p MissingConfigPolicy) Option {
	return func(c *Config) *Config {
		c.MissingConfig = p
		return c
	}
}

func WithProgressEvery(n int) Option {
	return func(c *Config) *Config {
		c.ProgressEvery = max(n, 0)
		return c
	}
}

func WithLogger(l Logger) Option {
	return func(c *Config) *Config {
		c.Logger = l
		return c
	}
}

func WithObserver(o Observer) Option {
	return func(c *Config) *Config {
		c.Observer = o
		return c
	}
}

// DefaultProgressEvery is the default interval of progress logs.
const DefaultProgressEvery = 50

// Synchronizer synchronizes associations between objects and mandants.
//
// Runs of one Synchronizer are serialized.
type Synchronizer struct {
	objects      kobject.Interface
	mandants     kmandant.Interface
	associations kassoc.Interface
	conf         Config

	mux sync.Mutex
}

func New(
	objects kobject.Interface,
	mandants kmandant.Interface,
	associations kassoc.Interface,
	options ...Option,
) *Synchronizer {
	conf := &Config{
		ConflictPolicy: FirstWins,
		MissingConfig:  Clear,
		ProgressEvery:  DefaultProgressEvery,
		Logger:         nopLogger{},
		Observer:       nopObserver{},
	}
	for _, o := range options {
		conf = o(conf)
	}
	if conf.Logger == nil {
		conf.Logger = nopLogger{}
	}
	if conf.Observer == nil {
		conf.Observer = nopObserver{}
	}

	return &Synchronizer{
		objects:      objects,
		mandants:     mandants,
		associations: associations,
		conf:         *conf,
	}
}

// Run synchronizes associations of all objects.
//
// When another run is in progress, Run waits for it.
//
// # Returns
//
// - Summary: counts of the run. When error is returned, it counts objects processed until then.
//
// - error: listing objects or mandants has been failed, the database has become
// unavailable (errors.Is ErrUnavailable of pkg/domain/errors), or ctx is done.
// Other failures on each object are not returned but logged and counted.
func (s *Synchronizer) Run(ctx context.Context) (Summary, error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.run(ctx)
}

// TryRun is Run, but returns ErrBusy instead of waiting.
func (s *Synchronizer) TryRun(ctx context.Context) (Summary, error) {
	if !s.mux.TryLock() {
		return Summary{}, ErrBusy
	}
	defer s.mux.Unlock()
	return s.run(ctx)
}

func (s *Synchronizer) run(ctx context.Context) (summary Summary, err error) {
	logger := s.conf.Logger
	started := time.Now()
	defer func() {
		s.conf.Observer.ObserveRun(summary, err, time.Since(started))
	}()

	objects, err := s.objects.List(ctx)
	if err != nil {
		return Summary{}, xe.WrapWithNote("cannot list objects", err)
	}
	mandants, err := s.mandants.List(ctx)
	if err != nil {
		return Summary{}, xe.WrapWithNote("cannot list mandants", err)
	}

	dir, collisions := NewDirectory(mandants, s.conf.ConflictPolicy)
	for _, c := range collisions {
		if s.conf.ConflictPolicy == Error {
			logger.Warnf("mandant name %q is ambiguous: mandants %v", c.Key, c.MandantIds)
			continue
		}
		logger.Warnf(
			"mandant name %q is shared by mandants %v: resolved to %v (%s)",
			c.Key, c.MandantIds, c.Chosen, s.conf.ConflictPolicy,
		)
	}

	logger.Infof("synchronizing %d objects with %d mandant names", len(objects), dir.Len())

	for _, obj := range objects {
		if err := ctx.Err(); err != nil {
			logger.Warnf("synchronization is interrupted: %s", summary)
			return summary, err
		}

		summary.Processed += 1
		res, err := s.syncObject(ctx, obj, dir)
		summary.Unresolved += res.unresolved
		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil && isCancellation(err) {
				summary.Processed -= 1
				logger.Warnf("synchronization is interrupted: %s", summary)
				return summary, ctxErr
			}
			summary.Failed += 1
			logger.Errorf("object %d: synchronization failed: %s", obj.Id, err)
			s.conf.Observer.ObserveObject(Failed)
			if errors.Is(err, kerr.ErrUnavailable) {
				logger.Errorf("synchronization is aborted: %s", summary)
				return summary, xe.WrapWithNote(fmt.Sprintf("object %d", obj.Id), err)
			}
		case res.withoutConfig:
			summary.WithoutConfig += 1
			s.conf.Observer.ObserveObject(WithoutConfig)
		default:
			summary.Created += len(res.delta.Current)
			s.conf.Observer.ObserveObject(Synchronized)
		}
		summary.Added += len(res.delta.Added)
		summary.Removed += len(res.delta.Removed)

		if n := s.conf.ProgressEvery; 0 < n && summary.Processed%n == 0 {
			logger.Infof("progress: %d/%d objects, %d associations", summary.Processed, len(objects), summary.Created)
		}
	}

	logger.Infof("synchronization done: %s", summary)
	return summary, nil
}

type objectResult struct {
	withoutConfig bool
	unresolved    int
	delta         domain.AssociationDelta
}

func (s *Synchronizer) syncObject(ctx context.Context, obj domain.Object, dir Directory) (objectResult, error) {
	logger := s.conf.Logger
	res := objectResult{}

	conf, err := domain.ParseObjanlage(obj.Objanlage)
	if err != nil {
		res.withoutConfig = true
		if errors.Is(err, domain.ErrNoObjanlage) {
			logger.Debugf("object %d: no configuration", obj.Id)
		} else {
			logger.Warnf("object %d: %s", obj.Id, err)
		}
		if s.conf.MissingConfig == Keep {
			return res, nil
		}
		delta, err := s.associations.Replace(ctx, obj.Id, []int{})
		if err != nil {
			return res, err
		}
		res.delta = delta
		return res, nil
	}

	resolved := domain.NewMandantSet()
	for _, rn := range conf.RoleNames() {
		ids, err := dir.Resolve(rn.Name)
		if err != nil {
			return res, fmt.Errorf("%s: %w", rn.Role, err)
		}
		if len(ids) == 0 {
			res.unresolved += 1
			logger.Debugf("object %d: %s %q matches no mandant", obj.Id, rn.Role, rn.Name)
			continue
		}
		for _, id := range ids {
			resolved.Add(id)
		}
	}

	delta, err := s.associations.Replace(ctx, obj.Id, resolved.Sorted())
	if err != nil {
		return res, err
	}
	res.delta = delta
	if delta.Changed() {
		logger.Debugf("object %d: mandants %v (+%v -%v)", obj.Id, delta.Current, delta.Added, delta.Removed)
	}
	return res, nil
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}

type nopObserver struct{}

func (nopObserver) ObserveObject(Outcome)                    {}
func (nopObserver) ObserveRun(Summary, error, time.Duration) {}
