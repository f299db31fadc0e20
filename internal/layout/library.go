package layout

import (
	"cdnsync/internal/models"
	"cdnsync/internal/tree"
)

// libraryResolver expects dist/css and dist/js. Stylesheet and script are
// required; the bundle and ESM builds are optional.
type libraryResolver struct {
	cdn        string
	stylesheet string
	javascript string
	bundle     string
	esm        string
}

func (r *libraryResolver) Family() models.Family {
	return models.FamilyLibrary
}

func (r *libraryResolver) Resolve(meta *models.PackageVersionMeta) (*Result, error) {
	find := func(folder, file string) string {
		if tree.FindPath(meta.FileTree, "dist", folder, file) == nil {
			return ""
		}
		return assetUrl(r.cdn, meta.PackageName, meta.Version, "dist", folder, file)
	}

	res := &Result{}
	res.Assets.Stylesheet = find("css", r.stylesheet)
	if res.Assets.Stylesheet == "" {
		return nil, incomplete(meta, "dist", "css", r.stylesheet)
	}
	res.Assets.Javascript = find("js", r.javascript)
	if res.Assets.Javascript == "" {
		return nil, incomplete(meta, "dist", "js", r.javascript)
	}
	res.Assets.JavascriptBundle = find("js", r.bundle)
	res.Assets.JavascriptEsm = find("js", r.esm)
	return res, nil
}

type iconFontResolver struct {
	cdn        string
	stylesheet string
}

func (r *iconFontResolver) Family() models.Family {
	return models.FamilyIconFont
}

func (r *iconFontResolver) Resolve(meta *models.PackageVersionMeta) (*Result, error) {
	if tree.FindPath(meta.FileTree, "css", r.stylesheet) == nil {
		return nil, incomplete(meta, "css", r.stylesheet)
	}
	return &Result{Assets: models.AssetPathSet{
		Stylesheet: assetUrl(r.cdn, meta.PackageName, meta.Version, "css", r.stylesheet),
	}}, nil
}

type linterResolver struct {
	cdn    string
	script string
}

func (r *linterResolver) Family() models.Family {
	return models.FamilyLinter
}

func (r *linterResolver) Resolve(meta *models.PackageVersionMeta) (*Result, error) {
	if tree.FindPath(meta.FileTree, "dist", "browser", r.script) == nil {
		return nil, incomplete(meta, "dist", "browser", r.script)
	}
	return &Result{Assets: models.AssetPathSet{
		Javascript: assetUrl(r.cdn, meta.PackageName, meta.Version, "dist", "browser", r.script),
	}}, nil
}
