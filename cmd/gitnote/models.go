// cmd/gitnote/models.go
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/julianshen/gitnote/internal/config"
	"github.com/julianshen/gitnote/internal/models"
)

func modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the configured models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(config.EnvironMap(os.Environ()))
			if err != nil {
				return err
			}
			writeModels(cmd.OutOrStdout(), models.NewResolver(cfg, config.EnvSecrets{}))
			return nil
		},
	}
}

// writeModels prints one model id per line, marking the default with "*"
// and models whose API key slot is empty.
func writeModels(w io.Writer, res *models.Resolver) {
	if res.CustomModeEnabled() {
		fmt.Fprintln(w, "custom mode is on: every request uses the custom endpoint")
	}
	for _, id := range res.AllModelIDs() {
		marker := " "
		if id == res.DefaultModelID() {
			marker = "*"
		}
		status := ""
		if _, ok := res.APIKey(id); !ok {
			status = " (API key not set)"
		}
		fmt.Fprintf(w, "%s %s%s\n", marker, id, status)
	}
}
