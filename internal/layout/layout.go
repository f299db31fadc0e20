// Package layout derives CDN asset paths from a package version's file tree.
//
// Every tracked package follows the directory conventions of one layout
// family. Each family is a Resolver; New returns the one matching a family.
package layout

import (
	"errors"
	"fmt"
	"strings"

	"cdnsync/internal/models"
)

// ErrIncompleteRelease marks a version whose tree lacks a required asset.
var ErrIncompleteRelease = errors.New("incomplete release")

// Generation distinguishes the two theme-pack layouts. Other families report GenerationNone.
type Generation int

const (
	GenerationNone Generation = iota
	// GenerationA keeps one directory per theme under dist/.
	GenerationA
	// GenerationB keeps theme directories at the top level.
	GenerationB
)

func (g Generation) String() string {
	switch g {
	case GenerationA:
		return "A"
	case GenerationB:
		return "B"
	}
	return "-"
}

type Result struct {
	Assets     models.AssetPathSet
	Generation Generation
}

type Resolver interface {
	Family() models.Family
	// Resolve returns the version's partial AssetPathSet (Version and Current
	// are left to the caller) or an error wrapping ErrIncompleteRelease.
	Resolve(meta *models.PackageVersionMeta) (*Result, error)
}

// Options carries the per-package values the resolvers cannot read from the tree.
type Options struct {
	CdnUrl string
	Link   string
	Image  string
}

func New(family models.Family, opts Options) (Resolver, error) {
	if opts.CdnUrl != "" && !strings.HasSuffix(opts.CdnUrl, "/") {
		opts.CdnUrl += "/"
	}
	switch family {
	case models.FamilyLibrary:
		return &libraryResolver{
			cdn:        opts.CdnUrl,
			stylesheet: "bootstrap.min.css",
			javascript: "bootstrap.min.js",
			bundle:     "bootstrap.bundle.min.js",
			esm:        "bootstrap.esm.min.js",
		}, nil
	case models.FamilyIconFont:
		return &iconFontResolver{cdn: opts.CdnUrl, stylesheet: "fontawesome.min.css"}, nil
	case models.FamilyLinter:
		return &linterResolver{cdn: opts.CdnUrl, script: "bootlint.min.js"}, nil
	case models.FamilyThemes:
		return &themeResolver{
			cdn:        opts.CdnUrl,
			link:       opts.Link,
			image:      opts.Image,
			stylesheet: "bootstrap.min.css",
			candidates: ThemeCandidates,
		}, nil
	}
	return nil, fmt.Errorf("no resolver for family '%s'", family)
}

// assetUrl builds {cdn}{package}@{version}/{segments...}.
func assetUrl(cdn, pkg, version string, segments ...string) string {
	return fmt.Sprintf("%s%s@%s/%s", cdn, pkg, version, strings.Join(segments, "/"))
}

func incomplete(meta *models.PackageVersionMeta, path ...string) error {
	return fmt.Errorf("%w: %s@%s has no %s", ErrIncompleteRelease, meta.PackageName, meta.Version, strings.Join(path, "/"))
}
