package layout

import (
	"cdnsync/internal/models"
	"cdnsync/internal/tree"
)

// ThemeCandidates are probed at the top level of generation B trees, in this order.
var ThemeCandidates = []string{
	"cerulean",
	"cosmo",
	"cyborg",
	"darkly",
	"flatly",
	"journal",
	"litera",
	"lumen",
	"lux",
	"materia",
	"minty",
	"pulse",
	"sandstone",
	"simplex",
	"sketchy",
	"slate",
	"solar",
	"spacelab",
	"superhero",
	"united",
	"yeti",
}

// themeResolver handles theme packs. A top-level dist directory means
// generation A (themes enumerated from dist/, tree order); otherwise the
// fixed candidate list is probed (generation B, candidate order).
type themeResolver struct {
	cdn        string
	link       string
	image      string
	stylesheet string
	candidates []string
}

func (r *themeResolver) Family() models.Family {
	return models.FamilyThemes
}

func (r *themeResolver) Resolve(meta *models.PackageVersionMeta) (*Result, error) {
	res := &Result{Assets: models.AssetPathSet{Link: r.link, Image: r.image}}

	if dist := tree.Find(meta.FileTree, "dist"); dist.IsDir() {
		res.Generation = GenerationA
		for _, theme := range tree.Dirs(dist) {
			if tree.Find(theme, r.stylesheet) == nil {
				continue
			}
			res.Assets.Themes = append(res.Assets.Themes, models.Theme{Name: theme.Name})
		}
		res.Assets.Bootstrap = assetUrl(r.cdn, meta.PackageName, models.SwatchVersion, "dist", models.SwatchName, r.stylesheet)
	} else {
		res.Generation = GenerationB
		for _, name := range r.candidates {
			if tree.FindPath(meta.FileTree, name, r.stylesheet) == nil {
				continue
			}
			res.Assets.Themes = append(res.Assets.Themes, models.Theme{Name: name})
		}
		res.Assets.Bootstrap = assetUrl(r.cdn, meta.PackageName, models.SwatchVersion, models.SwatchName, r.stylesheet)
	}

	if len(res.Assets.Themes) == 0 {
		return nil, incomplete(meta, models.SwatchName, r.stylesheet)
	}
	return res, nil
}
