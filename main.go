package main

import (
	"os"

	_ "cdnsync/cmd"
	"cdnsync/cmd/root"
	"cdnsync/internal/logger"
)

func main() {
	defer logger.Sync()

	if err := root.RootCmd.Execute(); err != nil {
		logger.Sync()
		os.Exit(1)
	}
}
