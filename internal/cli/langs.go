package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/transpiler/internal/langs"
)

// LangInfo describes a registered language.
type LangInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Nodes       []string `json:"nodes"`
}

// NewLangsCommand creates the langs command.
func NewLangsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "langs",
		Short:         "List built-in languages",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			infos := listLangs()
			if rootOpts.Format == "json" {
				f := &OutputFormatter{Format: "json", Writer: cmd.OutOrStdout()}
				return f.Success(infos)
			}
			w := cmd.OutOrStdout()
			for _, l := range infos {
				fmt.Fprintf(w, "%-8s %s\n", l.Name, l.Description)
				if rootOpts.Verbose {
					fmt.Fprintf(w, "         nodes: %v\n", l.Nodes)
				}
			}
			return nil
		},
	}
}

func listLangs() []LangInfo {
	names := langs.Names()
	infos := make([]LangInfo, 0, len(names))
	for _, name := range names {
		l, err := langs.Lookup(name)
		if err != nil {
			continue
		}
		infos = append(infos, LangInfo{
			Name:        l.Name,
			Description: l.Description,
			Nodes:       l.NodeNames(),
		})
	}
	return infos
}
