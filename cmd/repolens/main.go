// Command repolens analyzes the commit history of Git repositories.
package main

import (
	"github.com/cockroachdb/errors"
	"github.com/huangsam/repolens/cmd"
	"github.com/huangsam/repolens/internal/contract"
	"go.uber.org/zap"
)

func main() {
	err := cmd.Execute()
	if cerr := cmd.Shutdown(); cerr != nil {
		contract.LogWarn("Failed to release resources", cerr)
	}
	if err != nil {
		if hint := errors.FlattenHints(err); hint != "" {
			contract.LogInfo("Hint", zap.String("hint", hint))
		}
		contract.LogFatal("Command failed", err)
	}
}
