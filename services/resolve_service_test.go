package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"cdnsync/internal/models"
	"cdnsync/internal/registry"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

const testCdn = "https://cdn.jsdelivr.net/npm/"

// memRegistry serves canned documents and records when each spec was requested.
type memRegistry struct {
	mu       sync.Mutex
	docs     map[string]*models.PackageDocument
	fail     map[string]bool
	delays   map[string]time.Duration
	requests map[string]time.Time
}

func newMemRegistry() *memRegistry {
	return &memRegistry{
		docs:     make(map[string]*models.PackageDocument),
		fail:     make(map[string]bool),
		delays:   make(map[string]time.Duration),
		requests: make(map[string]time.Time),
	}
}

func (m *memRegistry) FetchPackage(ctx context.Context, spec string) (*models.PackageDocument, error) {
	m.mu.Lock()
	m.requests[spec] = time.Now()
	doc, ok := m.docs[spec]
	fail := m.fail[spec]
	delay := m.delays[spec]
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if fail || !ok {
		return nil, fmt.Errorf("%w: %s", registry.ErrFetch, spec)
	}
	return doc, nil
}

func (m *memRegistry) FetchVersions(ctx context.Context, name string) ([]string, error) {
	doc, err := m.FetchPackage(ctx, name)
	if err != nil {
		return nil, err
	}
	return doc.Versions, nil
}

func (m *memRegistry) LatestTag(ctx context.Context, name string) (string, error) {
	doc, err := m.FetchPackage(ctx, name)
	if err != nil {
		return "", err
	}
	return doc.Tags.Latest, nil
}

func (m *memRegistry) addPackage(name, latest string, versions ...string) {
	m.docs[name] = &models.PackageDocument{Tags: models.PackageTags{Latest: latest}, Versions: versions}
}

func (m *memRegistry) addTree(name, version string, files ...*models.FileTreeNode) {
	m.docs[registry.VersionSpec(name, version)] = &models.PackageDocument{Files: files}
}

func dir(name string, children ...*models.FileTreeNode) *models.FileTreeNode {
	return &models.FileTreeNode{Name: name, Type: models.NodeTypeDirectory, Children: children}
}

func file(name string) *models.FileTreeNode {
	return &models.FileTreeNode{Name: name, Type: models.NodeTypeFile}
}

func bootstrapDist(withJs bool) *models.FileTreeNode {
	js := dir("js", file("bootstrap.bundle.min.js"))
	if withJs {
		js.Children = append(js.Children, file("bootstrap.min.js"))
	}
	return dir("dist", dir("css", file("bootstrap.min.css")), js)
}

func newTestResolver(reg registry.Client, opts ...ResolverOption) *PackageResolver {
	opts = append([]ResolverOption{WithStagger(0), WithCdnUrl(testCdn)}, opts...)
	return NewPackageResolver(reg, opts...)
}

func TestResolvePackageLibrary(t *testing.T) {
	reg := newMemRegistry()
	reg.addPackage("bootstrap", "5.0.1", "5.0.0", "5.0.1")
	reg.addTree("bootstrap", "5.0.0", bootstrapDist(true))
	reg.addTree("bootstrap", "5.0.1", bootstrapDist(true))

	paths, err := newTestResolver(reg).ResolvePackage(context.Background(), models.TrackedPackage{
		Key: "bootstrap", Name: "bootstrap", Family: models.FamilyLibrary,
	})
	if err != nil {
		t.Fatalf("ResolvePackage: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 entries, got %d: %+v", len(paths), paths)
	}
	if paths[0].Version != "5.0.0" || paths[0].Current {
		t.Errorf("first entry = %+v, want 5.0.0 not current", paths[0])
	}
	if paths[1].Version != "5.0.1" || !paths[1].Current {
		t.Errorf("second entry = %+v, want 5.0.1 current", paths[1])
	}
	for _, p := range paths {
		wantCss := fmt.Sprintf("%sbootstrap@%s/dist/css/bootstrap.min.css", testCdn, p.Version)
		wantJs := fmt.Sprintf("%sbootstrap@%s/dist/js/bootstrap.min.js", testCdn, p.Version)
		if p.Stylesheet != wantCss || p.Javascript != wantJs {
			t.Errorf("paths for %s = %q / %q", p.Version, p.Stylesheet, p.Javascript)
		}
		if p.JavascriptEsm != "" {
			t.Errorf("esm build should be absent, got %q", p.JavascriptEsm)
		}
	}
}

func TestResolvePackageDropsIncompleteAndFailedVersions(t *testing.T) {
	reg := newMemRegistry()
	reg.addPackage("bootstrap", "4.0.0", "4.0.0", "3.0.0", "2.0.0", "1.0.0")
	reg.addTree("bootstrap", "4.0.0", bootstrapDist(true))
	reg.addTree("bootstrap", "3.0.0", bootstrapDist(false))
	reg.fail[registry.VersionSpec("bootstrap", "2.0.0")] = true
	reg.addTree("bootstrap", "1.0.0", bootstrapDist(true))

	metrics := NewMetrics()
	paths, err := newTestResolver(reg, WithMetrics(metrics)).ResolvePackage(context.Background(), models.TrackedPackage{
		Key: "bootstrap", Name: "bootstrap", Family: models.FamilyLibrary,
	})
	if err != nil {
		t.Fatalf("ResolvePackage: %v", err)
	}
	if len(paths) != 2 || paths[0].Version != "4.0.0" || paths[1].Version != "1.0.0" {
		t.Fatalf("paths = %+v", paths)
	}
	if got := testutil.ToFloat64(metrics.versionCount.WithLabelValues("bootstrap", OutcomeRejected)); got != 1 {
		t.Errorf("rejected = %v", got)
	}
	if got := testutil.ToFloat64(metrics.versionCount.WithLabelValues("bootstrap", OutcomeFetchFailed)); got != 1 {
		t.Errorf("fetch_failed = %v", got)
	}
	if got := testutil.ToFloat64(metrics.versionCount.WithLabelValues("bootstrap", OutcomeResolved)); got != 2 {
		t.Errorf("resolved = %v", got)
	}
}

func TestResolvePackagePreservesRegistryOrder(t *testing.T) {
	reg := newMemRegistry()
	reg.addPackage("bootlint", "1.1.0", "1.1.0", "1.0.0", "0.9.0")
	for _, v := range []string{"1.1.0", "1.0.0", "0.9.0"} {
		reg.addTree("bootlint", v, dir("dist", dir("browser", file("bootlint.min.js"))))
	}
	// The first version answers last.
	reg.delays[registry.VersionSpec("bootlint", "1.1.0")] = 30 * time.Millisecond

	paths, err := newTestResolver(reg).ResolvePackage(context.Background(), models.TrackedPackage{
		Key: "bootlint", Name: "bootlint", Family: models.FamilyLinter,
	})
	if err != nil {
		t.Fatalf("ResolvePackage: %v", err)
	}
	got := make([]string, 0, len(paths))
	for _, p := range paths {
		got = append(got, p.Version)
	}
	if strings.Join(got, ",") != "1.1.0,1.0.0,0.9.0" {
		t.Errorf("order = %v", got)
	}
}

func TestResolvePackageStaggersDispatch(t *testing.T) {
	reg := newMemRegistry()
	reg.addPackage("bootlint", "", "3.0.0", "2.0.0", "1.0.0")
	for _, v := range []string{"3.0.0", "2.0.0", "1.0.0"} {
		reg.addTree("bootlint", v, dir("dist", dir("browser", file("bootlint.min.js"))))
	}
	stagger := 40 * time.Millisecond

	start := time.Now()
	paths, err := NewPackageResolver(reg, WithStagger(stagger), WithCdnUrl(testCdn)).ResolvePackage(context.Background(), models.TrackedPackage{
		Key: "bootlint", Name: "bootlint", Family: models.FamilyLinter,
	})
	if err != nil {
		t.Fatalf("ResolvePackage: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 2*stagger {
		t.Errorf("three versions finished in %v, expected at least %v", elapsed, 2*stagger)
	}
	first := reg.requests[registry.VersionSpec("bootlint", "3.0.0")]
	last := reg.requests[registry.VersionSpec("bootlint", "1.0.0")]
	if gap := last.Sub(first); gap < 3*stagger/2 {
		t.Errorf("dispatch gap = %v, want about %v", gap, 2*stagger)
	}
	for _, p := range paths {
		if p.Current {
			t.Errorf("no latest tag, yet %s is current", p.Version)
		}
	}
}

func TestResolvePackageCancelledStopsDispatch(t *testing.T) {
	reg := newMemRegistry()
	reg.addPackage("bootlint", "1.0.0", "1.0.0", "0.9.0")
	reg.addTree("bootlint", "1.0.0", dir("dist", dir("browser", file("bootlint.min.js"))))
	reg.addTree("bootlint", "0.9.0", dir("dist", dir("browser", file("bootlint.min.js"))))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	paths, err := NewPackageResolver(reg, WithStagger(time.Hour)).ResolvePackage(ctx, models.TrackedPackage{
		Key: "bootlint", Name: "bootlint", Family: models.FamilyLinter,
	})
	if err != nil {
		t.Fatalf("ResolvePackage: %v", err)
	}
	if len(paths) != 1 || paths[0].Version != "1.0.0" {
		t.Errorf("paths = %+v", paths)
	}
	if _, ok := reg.requests[registry.VersionSpec("bootlint", "0.9.0")]; ok {
		t.Error("second version should never have been dispatched")
	}
}

func TestFetchVersionSetsCurrentOnConstruction(t *testing.T) {
	reg := newMemRegistry()
	reg.addTree("bootstrap", "5.0.1", bootstrapDist(true))
	reg.addTree("bootstrap", "5.0.0", bootstrapDist(true))
	r := newTestResolver(reg)

	cases := []struct {
		version string
		latest  string
		current bool
	}{
		{"5.0.1", "5.0.1", true},
		{"5.0.0", "5.0.1", false},
		{"5.0.1", "", false},
	}
	for _, c := range cases {
		meta, err := r.fetchVersion(context.Background(), "bootstrap", c.version, c.latest)
		if err != nil {
			t.Fatalf("fetchVersion %s: %v", c.version, err)
		}
		if meta.IsCurrent != c.current {
			t.Errorf("%s with latest %q: IsCurrent = %v, want %v", c.version, c.latest, meta.IsCurrent, c.current)
		}
		if meta.FileTree == nil || meta.PackageName != "bootstrap" {
			t.Errorf("meta = %+v", meta)
		}
	}
}

func TestResolvePackageVersionListFailure(t *testing.T) {
	reg := newMemRegistry()
	_, err := newTestResolver(reg).ResolvePackage(context.Background(), models.TrackedPackage{
		Key: "bootstrap", Name: "bootstrap", Family: models.FamilyLibrary,
	})
	if !errors.Is(err, registry.ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
}

func bootswatchRegistry() *memRegistry {
	reg := newMemRegistry()
	reg.addPackage("bootswatch", "5.1.0", "5.1.0", "4.5.2", "3.4.1")
	theme := func(name string) *models.FileTreeNode {
		return dir(name, file("bootstrap.min.css"), file("thumbnail.png"))
	}
	reg.addTree("bootswatch", "5.1.0", dir("dist", theme("zephyr")))
	reg.addTree("bootswatch", "4.5.2", dir("dist", theme("flatly"), theme("darkly")), file("package.json"))
	reg.addTree("bootswatch", "3.4.1", theme("yeti"), file("package.json"), theme("cerulean"), theme("lumen"))
	return reg
}

func TestResolveThemesGenerationAReversed(t *testing.T) {
	paths, err := newTestResolver(bootswatchRegistry()).ResolvePackage(context.Background(), models.TrackedPackage{
		Key: "bootswatch4", Name: "bootswatch", Family: models.FamilyThemes, Versions: "4.5.2",
		Link: "https://bootswatch.com/SWATCH_NAME/", Image: "https://bootswatch.com/SWATCH_NAME/thumbnail.png",
	})
	if err != nil {
		t.Fatalf("ResolvePackage: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("paths = %+v", paths)
	}
	p := paths[0]
	if p.Version != "4.5.2" || p.Current {
		t.Errorf("entry = %+v", p)
	}
	if len(p.Themes) != 2 || p.Themes[0].Name != "darkly" || p.Themes[1].Name != "flatly" {
		t.Errorf("themes = %v, want [darkly flatly]", p.Themes)
	}
	if p.Bootstrap != testCdn+"bootswatch@SWATCH_VERSION/dist/SWATCH_NAME/bootstrap.min.css" {
		t.Errorf("bootstrap = %q", p.Bootstrap)
	}
	if p.Link != "https://bootswatch.com/SWATCH_NAME/" {
		t.Errorf("link = %q", p.Link)
	}
}

func TestResolveAllSplitsThemePack(t *testing.T) {
	reg := bootswatchRegistry()
	reg.addPackage("bootstrap", "5.0.1", "5.0.1")
	reg.addTree("bootstrap", "5.0.1", bootstrapDist(true))

	tracked := []models.TrackedPackage{
		{Key: "bootstrap", Name: "bootstrap", Family: models.FamilyLibrary},
		{Key: "bootswatch4", Name: "bootswatch", Family: models.FamilyThemes, Versions: "4.5.2"},
		{Key: "bootswatch3", Name: "bootswatch", Family: models.FamilyThemes, Versions: "3.4.1",
			Link: "https://bootswatch.com/3/SWATCH_NAME/"},
		{Key: "bootlint", Name: "bootlint", Family: models.FamilyLinter},
	}
	index, err := newTestResolver(reg).ResolveAll(context.Background(), tracked)

	var runErr *RunError
	if !errors.As(err, &runErr) || len(runErr.Failures) != 1 || runErr.Failures[0].Key != "bootlint" {
		t.Fatalf("expected bootlint failure only, got %v", err)
	}
	if !errors.Is(err, registry.ErrFetch) {
		t.Errorf("RunError should unwrap to ErrFetch: %v", err)
	}
	if _, ok := index["bootlint"]; ok {
		t.Error("failed package must not appear in the index")
	}
	if len(index) != 3 {
		t.Fatalf("index keys = %d", len(index))
	}
	if cur := index.Current("bootstrap"); cur == nil || cur.Version != "5.0.1" {
		t.Errorf("current bootstrap = %+v", cur)
	}

	b3 := index["bootswatch3"]
	if len(b3) != 1 || b3[0].Version != "3.4.1" {
		t.Fatalf("bootswatch3 = %+v", b3)
	}
	names := make([]string, 0, len(b3[0].Themes))
	for _, th := range b3[0].Themes {
		names = append(names, th.Name)
	}
	if strings.Join(names, ",") != "cerulean,lumen,yeti" {
		t.Errorf("bootswatch3 themes = %v, want candidate order", names)
	}
	if b3[0].Bootstrap != testCdn+"bootswatch@SWATCH_VERSION/SWATCH_NAME/bootstrap.min.css" {
		t.Errorf("bootswatch3 bootstrap = %q", b3[0].Bootstrap)
	}
	if b3[0].Link != "https://bootswatch.com/3/SWATCH_NAME/" {
		t.Errorf("bootswatch3 link = %q", b3[0].Link)
	}
	if len(index["bootswatch4"]) != 1 || index["bootswatch4"][0].Version != "4.5.2" {
		t.Errorf("bootswatch4 = %+v", index["bootswatch4"])
	}
}

func TestFilterVersions(t *testing.T) {
	versions := []string{"5.1.0", "4.5.2", "4.5.2-beta.1", "3.4.1", "latest"}
	tests := []struct {
		constraint string
		want       string
	}{
		{"", "5.1.0,4.5.2,4.5.2-beta.1,3.4.1,latest"},
		{"4.5.2", "4.5.2"},
		{">=4.0.0", "5.1.0,4.5.2"},
		{"^3", "3.4.1"},
	}
	for _, tt := range tests {
		got, err := filterVersions(versions, tt.constraint)
		if err != nil {
			t.Fatalf("filterVersions(%q): %v", tt.constraint, err)
		}
		if strings.Join(got, ",") != tt.want {
			t.Errorf("filterVersions(%q) = %v, want %s", tt.constraint, got, tt.want)
		}
	}
	if _, err := filterVersions(versions, "foo"); err == nil {
		t.Error("expected invalid constraint error")
	}
}
