package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcoot/towerduel/internal/factory"
	"github.com/mcoot/towerduel/internal/services/catalog"
)

func newCatalogCmd(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the unit catalog",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "validate [path]",
		Short: "Check a unit file or directory (default: built-in catalog)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Load(sourceArg(args))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "catalog ok: %d units\n", cat.Len())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "publish [path]",
		Short: "Save a unit file or directory to storage (default: built-in catalog)",
		Long: `Publish validates the catalog and saves it to the configured storage backend.
Servers started with --catalog=storage load the published catalog.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd, *f)
			if err != nil {
				return err
			}

			cat, err := catalog.Load(sourceArg(args))
			if err != nil {
				return err
			}

			store, err := factory.NewStorage(factoryConfig(cfg, logger))
			if err != nil {
				return err
			}
			defer func() { _ = factory.CloseStorage(store) }()

			if err := catalog.Publish(cmd.Context(), store, cat); err != nil {
				return fmt.Errorf("publish catalog: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %d units to %s storage\n", cat.Len(), cfg.StorageType)
			return nil
		},
	})

	return cmd
}

func sourceArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
