package cmd

import (
	_ "cdnsync/cmd/files"
	_ "cdnsync/cmd/generate"
	_ "cdnsync/cmd/registry"
	_ "cdnsync/cmd/root"
)
