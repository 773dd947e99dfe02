package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	cliconfig "github.com/quillmap/quill/internal/cli/config"
	"github.com/quillmap/quill/internal/cli/ui"
	"github.com/quillmap/quill/internal/loader"
	"github.com/quillmap/quill/internal/watch"
)

var validateWatch bool

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load the mapper documents and report what resolved",
	Long: `Load every mapper document named by quill.yml, resolve cross-document
references, and list the statements that registered. Fragments whose
references never appeared are reported with what they waited for.

With --watch, stay running and revalidate whenever a source changes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := runValidation()
		if !validateWatch || cfg == nil {
			return err
		}
		return watchValidation(cfg)
	},
}

func init() {
	validateCmd.Flags().BoolVarP(&validateWatch, "watch", "w", false,
		"revalidate whenever a mapper source changes")
}

// runValidation loads the project once and prints the outcome. The project
// configuration comes back even when loading fails, so watch mode can keep
// going.
func runValidation() (*cliconfig.Config, error) {
	cfg, ld, err := loadProject()
	if err != nil {
		var unresolved *loader.UnresolvedError
		if errors.As(err, &unresolved) {
			printUnresolved(unresolved)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		return cfg, err
	}

	config := ld.Configuration()
	ids := config.StatementIDs()
	sort.Strings(ids)

	success := color.New(color.Bold, color.FgGreen)
	success.Printf("✓ %d statement(s) loaded\n\n", len(ids))

	table := ui.NewTable(os.Stdout, []string{"ID", "KIND", "RESOURCE"}, nil)
	for _, id := range ids {
		ms, ok := config.MappedStatement(id)
		if !ok {
			continue
		}
		table.AddRow(ms.ID, ms.Kind.String(), ms.Resource)
	}
	table.Render()
	return cfg, nil
}

// watchValidation revalidates on every source change until interrupted. A
// failing revalidation keeps the watcher alive.
func watchValidation(cfg *cliconfig.Config) error {
	logger, err := buildLogger(cfg.Logging.Level)
	if err != nil {
		return err
	}

	files := append([]string{}, cfg.Mapper.Sources...)
	if cfg.Mapper.ConfigFile != "" {
		files = append(files, cfg.Mapper.ConfigFile)
	}
	w, err := watch.New(files, func(changed []string) error {
		fmt.Printf("\n%d file(s) changed, revalidating\n\n", len(changed))
		_, err := runValidation()
		return err
	}, logger)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	defer w.Stop()

	fmt.Println("\nwatching for changes, ctrl-c to stop")
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	return nil
}

func printUnresolved(err *loader.UnresolvedError) {
	for _, frag := range err.Fragments {
		fmt.Fprint(os.Stderr, ui.FormatError(ui.ErrorOptions{
			Context: fmt.Sprintf("UNRESOLVED %s: %s", frag.Kind, frag.Identity),
			Problem: fmt.Sprintf("declared in %s, waiting for %q", frag.Resource, frag.Reference),
		}))
	}
}
