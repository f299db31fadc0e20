package files

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"cdnsync/internal/artifact"
	"cdnsync/internal/config"
	"cdnsync/internal/models"
	"cdnsync/internal/utils"

	"github.com/iancoleman/orderedmap"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list [package key]",
	Short: "List tracked packages in the index",
	Long:  "List every tracked package of the index with its version count and current version. If a package key is given, list the versions of that package.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := indexPath
		if path == "" {
			path = config.App().Artifact.Path
		}
		return listIndex(cmd.OutOrStdout(), path, args)
	},
}

/**
 *	Fields displayed for each tracked package
 */
type Package_Columns struct {
	Key      string `json:"key"`
	Versions int    `json:"versions"`
	Current  string `json:"current"`
	Themes   int    `json:"themes"`
}

/**
 *	Fields displayed for each version of one package
 */
type Version_Columns struct {
	Version string `json:"version"`
	Current string `json:"current"`
	Assets  int    `json:"assets"`
	Entry   string `json:"entry"`
}

/**
 * List the index or one of its packages
 * @param {io.Writer} w - Table output
 * @param {string} path - Index file
 * @param {[]string} args - Optional package key
 * @returns {error} Read error or unknown key, nil on success
 */
func listIndex(w io.Writer, path string, args []string) error {
	index, err := artifact.Read(path)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return listPackages(w, index)
	}
	return listVersions(w, index, args[0])
}

func listPackages(w io.Writer, index models.TrackedPackagesIndex) error {
	if len(index) == 0 {
		fmt.Fprintln(w, "No packages found")
		return nil
	}
	keys := make([]string, 0, len(index))
	for k := range index {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var dataList []*orderedmap.OrderedMap
	for _, key := range keys {
		row := Package_Columns{Key: key, Versions: len(index[key])}
		if cur := index.Current(key); cur != nil {
			row.Current = cur.Version
			row.Themes = len(cur.Themes)
		} else if len(index[key]) > 0 {
			row.Themes = len(index[key][0].Themes)
		}
		rec, err := utils.StructToOrderedMap(row)
		if err != nil {
			return err
		}
		dataList = append(dataList, rec)
	}
	utils.FprintFormat(w, dataList)
	return nil
}

func listVersions(w io.Writer, index models.TrackedPackagesIndex, key string) error {
	paths, ok := index[key]
	if !ok {
		return fmt.Errorf("package '%s' not in index", key)
	}
	var dataList []*orderedmap.OrderedMap
	for i := range paths {
		p := &paths[i]
		row := Version_Columns{
			Version: p.Version,
			Assets:  p.AssetCount(),
			Entry:   entryOf(p),
		}
		if p.Current {
			row.Current = "*"
		}
		rec, err := utils.StructToOrderedMap(row)
		if err != nil {
			return err
		}
		dataList = append(dataList, rec)
	}
	utils.FprintFormat(w, dataList)
	return nil
}

// entryOf picks the most representative path of a version for display.
func entryOf(p *models.AssetPathSet) string {
	for _, s := range []string{p.Stylesheet, p.Javascript, p.Bootstrap} {
		if s != "" {
			return s
		}
	}
	if len(p.Themes) > 0 {
		names := make([]string, 0, len(p.Themes))
		for _, t := range p.Themes {
			names = append(names, t.Name)
		}
		return strings.Join(names, ",")
	}
	return ""
}

func init() {
	filesCmd.AddCommand(listCmd)
}
