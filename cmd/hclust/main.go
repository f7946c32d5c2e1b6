package main

import (
	"fmt"
	"os"

	"github.com/TrevorS/hclust/cmd/hclust/commands"
	"github.com/TrevorS/hclust/errors"
	"github.com/TrevorS/hclust/logger"
)

func main() {
	err := commands.NewRootCmd().Execute()
	logger.Cleanup()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		if hint := errors.FlattenHints(err); hint != "" {
			fmt.Fprintln(os.Stderr, "hint:", hint)
		}
		os.Exit(1)
	}
}
