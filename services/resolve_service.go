package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"cdnsync/internal/layout"
	"cdnsync/internal/logger"
	"cdnsync/internal/models"
	"cdnsync/internal/registry"

	"github.com/Masterminds/semver/v3"
	"github.com/sourcegraph/conc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "cdnsync"

// PackageFailure records a tracked package whose version list could not be fetched.
type PackageFailure struct {
	Key string
	Err error
}

// RunError is returned alongside a partial index when some packages failed entirely.
type RunError struct {
	Failures []PackageFailure
}

func (e *RunError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", f.Key, f.Err))
	}
	return fmt.Sprintf("%d tracked package(s) failed: %s", len(e.Failures), strings.Join(parts, "; "))
}

func (e *RunError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

/**
 * Version orchestrator
 * @description
 * - Enumerates a tracked package's versions and fetches each version's tree,
 *   one dispatch every stagger interval, awaiting them jointly
 * - Marks the version matching the registry's latest tag as current
 * - Applies the family's layout resolver and drops rejected or unfetchable versions
 */
type PackageResolver struct {
	client  registry.Client
	cdnUrl  string
	stagger time.Duration
	metrics *Metrics
	tracer  trace.Tracer
}

type ResolverOption func(*PackageResolver)

func WithStagger(d time.Duration) ResolverOption {
	return func(r *PackageResolver) {
		r.stagger = d
	}
}

func WithMetrics(m *Metrics) ResolverOption {
	return func(r *PackageResolver) {
		r.metrics = m
	}
}

func WithCdnUrl(url string) ResolverOption {
	return func(r *PackageResolver) {
		r.cdnUrl = url
	}
}

func NewPackageResolver(client registry.Client, opts ...ResolverOption) *PackageResolver {
	r := &PackageResolver{
		client:  client,
		stagger: time.Second,
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

/**
 * Resolve every tracked package concurrently
 * @param {[]models.TrackedPackage} tracked - Packages to resolve, each under its own key
 * @returns {models.TrackedPackagesIndex} Index of all packages whose version list was fetched
 * @returns {error} *RunError listing the packages left out, nil when none failed
 * @description
 * - Packages are fanned out together; each staggers its own version fetches
 * - A failed package never prevents the others from being returned
 */
func (r *PackageResolver) ResolveAll(ctx context.Context, tracked []models.TrackedPackage) (models.TrackedPackagesIndex, error) {
	results := make([][]models.AssetPathSet, len(tracked))
	errs := make([]error, len(tracked))

	var wg conc.WaitGroup
	for i := range tracked {
		wg.Go(func() {
			results[i], errs[i] = r.ResolvePackage(ctx, tracked[i])
		})
	}
	wg.Wait()

	index := make(models.TrackedPackagesIndex, len(tracked))
	runErr := &RunError{}
	for i, pkg := range tracked {
		if errs[i] != nil {
			logger.Errorf("Resolve '%s' failed: %v", pkg.Key, errs[i])
			runErr.Failures = append(runErr.Failures, PackageFailure{Key: pkg.Key, Err: errs[i]})
			continue
		}
		index[pkg.Key] = results[i]
	}
	r.metrics.MarkRun()
	if len(runErr.Failures) > 0 {
		return index, runErr
	}
	return index, nil
}

/**
 * Resolve one tracked package
 * @param {models.TrackedPackage} tracked - Package name, family and optional version constraint
 * @returns {[]models.AssetPathSet} Resolved versions in registry version-list order
 * @throws
 * - Unknown layout family
 * - Version list fetch failure (aborts this package only)
 */
func (r *PackageResolver) ResolvePackage(ctx context.Context, tracked models.TrackedPackage) ([]models.AssetPathSet, error) {
	ctx, span := r.tracer.Start(ctx, "cdnsync.resolve_package", trace.WithAttributes(
		attribute.String("key", tracked.Key),
		attribute.String("package", tracked.Name),
		attribute.String("family", string(tracked.Family)),
	))
	defer span.End()

	resolver, err := layout.New(tracked.Family, layout.Options{
		CdnUrl: r.cdnUrl,
		Link:   tracked.Link,
		Image:  tracked.Image,
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	versions, err := r.client.FetchVersions(ctx, tracked.Name)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	published := len(versions)
	versions, err = filterVersions(versions, tracked.Versions)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	r.metrics.VersionOutcome(tracked.Key, OutcomeFiltered, published-len(versions))
	span.SetAttributes(attribute.Int("versions", len(versions)))

	latest, err := r.client.LatestTag(ctx, tracked.Name)
	if err != nil {
		logger.Warnf("No latest tag for '%s', no version will be current: %v", tracked.Name, err)
	}

	metas := r.fetchTrees(ctx, tracked, versions, latest)

	paths := make([]models.AssetPathSet, 0, len(metas))
	rejected := 0
	for _, meta := range metas {
		if meta == nil {
			continue
		}
		logger.Infof("Building cdn for %s - v%s", meta.PackageName, meta.Version)

		res, err := resolver.Resolve(meta)
		if err != nil {
			logger.Infof("Skip %s@%s: %v", meta.PackageName, meta.Version, err)
			rejected++
			continue
		}
		assets := res.Assets
		assets.Version = meta.Version
		assets.Current = meta.IsCurrent
		if res.Generation == layout.GenerationA {
			slices.Reverse(assets.Themes)
		}
		paths = append(paths, assets)
	}
	r.metrics.VersionOutcome(tracked.Key, OutcomeRejected, rejected)
	r.metrics.VersionOutcome(tracked.Key, OutcomeResolved, len(paths))
	return paths, nil
}

/**
 * Fetch the tree of every version, one dispatch per stagger interval
 * @param {string} latest - Registry latest tag, empty when unknown
 * @returns {[]*models.PackageVersionMeta} Same order as versions; nil where the fetch failed
 * @description
 * - All fetches are awaited jointly before returning
 * - Once ctx is done no further version is dispatched
 */
func (r *PackageResolver) fetchTrees(ctx context.Context, tracked models.TrackedPackage, versions []string, latest string) []*models.PackageVersionMeta {
	metas := make([]*models.PackageVersionMeta, len(versions))
	failed := make([]bool, len(versions))

	var wg conc.WaitGroup
	var timer *time.Timer
dispatch:
	for i, version := range versions {
		if i > 0 && r.stagger > 0 {
			if timer == nil {
				timer = time.NewTimer(r.stagger)
			} else {
				timer.Reset(r.stagger)
			}
			select {
			case <-timer.C:
			case <-ctx.Done():
				for j := i; j < len(versions); j++ {
					failed[j] = true
				}
				break dispatch
			}
		}
		wg.Go(func() {
			meta, err := r.fetchVersion(ctx, tracked.Name, version, latest)
			if err != nil {
				logger.Warnf("Fetch %s@%s failed: %v", tracked.Name, version, err)
				failed[i] = true
				return
			}
			metas[i] = meta
		})
	}
	if timer != nil {
		timer.Stop()
	}
	wg.Wait()

	n := 0
	for _, f := range failed {
		if f {
			n++
		}
	}
	r.metrics.VersionOutcome(tracked.Key, OutcomeFetchFailed, n)
	return metas
}

// fetchVersion builds the version's meta in one go; it is not modified afterwards.
func (r *PackageResolver) fetchVersion(ctx context.Context, name, version, latest string) (*models.PackageVersionMeta, error) {
	ctx, span := r.tracer.Start(ctx, "cdnsync.fetch_version", trace.WithAttributes(
		attribute.String("package", name),
		attribute.String("version", version),
	))
	defer span.End()

	logger.Infof("Fetching %s@%s...", name, version)
	doc, err := r.client.FetchPackage(ctx, registry.VersionSpec(name, version))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return &models.PackageVersionMeta{
		PackageName: name,
		Version:     version,
		IsCurrent:   latest != "" && version == latest,
		FileTree:    doc.Root(),
	}, nil
}

// filterVersions keeps the versions satisfying constraint, registry order. An
// empty constraint keeps everything; non-semver versions never satisfy one.
func filterVersions(versions []string, constraint string) ([]string, error) {
	if constraint == "" {
		return versions, nil
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return nil, fmt.Errorf("invalid version constraint '%s': %w", constraint, err)
	}
	kept := make([]string, 0, len(versions))
	for _, v := range versions {
		sv, err := semver.NewVersion(v)
		if err != nil {
			logger.Debugf("Ignore non-semver version '%s': %v", v, err)
			continue
		}
		if c.Check(sv) {
			kept = append(kept, v)
		}
	}
	return kept, nil
}
