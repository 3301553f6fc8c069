package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/erazemk/whereisit/internal/catalog"
	"github.com/erazemk/whereisit/internal/config"
	"github.com/erazemk/whereisit/internal/model"
)

// cli holds flag values and the app opened for the running command.
type cli struct {
	dataDir string
	logPath string
	verbose bool
	asJSON  bool

	app      *app
	closeLog func()
}

func newRootCmd() (*cobra.Command, *cli) {
	c := &cli{}

	root := &cobra.Command{
		Use:   "whereisit",
		Short: "Remember where you put things",
		Long: `whereisit keeps a list of your things (keys, wallet, ...) together with a
photo of where each one is stored.

Examples:
  whereisit list --search key
  whereisit add --preset preset:Keys --photo ./hook-by-the-door.jpg
  whereisit locate default-1 ./drawer.jpg`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations["offline"] == "true" {
				return nil
			}
			return c.open(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&c.dataDir, "data-dir", "d", "", "data directory (default: $"+config.EnvDataDir+" or XDG data home)")
	root.PersistentFlags().StringVarP(&c.logPath, "log", "l", "", "log file path (default: no file, stdout/stderr only)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log informational messages")
	root.PersistentFlags().BoolVar(&c.asJSON, "json", false, "print items as JSON")

	root.AddCommand(
		c.listCmd(),
		c.showCmd(),
		c.addCmd(),
		c.locateCmd(),
		c.deleteCmd(),
		c.presetsCmd(),
	)
	return root, c
}

// execute runs the command line in args and releases the app afterwards,
// whether or not the command succeeded.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root, c := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	defer c.close()
	return root.ExecuteContext(ctx)
}

func (c *cli) open(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if c.dataDir != "" {
		cfg.DataDir = c.dataDir
	}
	if c.logPath != "" {
		cfg.LogPath = c.logPath
	}

	closeLog, err := setupLogger(cfg.LogPath, c.verbose)
	if err != nil {
		return err
	}
	c.closeLog = closeLog

	a, err := openApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	c.app = a
	return nil
}

func (c *cli) close() error {
	var err error
	if c.app != nil {
		err = c.app.Close()
		c.app = nil
	}
	if c.closeLog != nil {
		c.closeLog()
		c.closeLog = nil
	}
	return err
}

// --- list ---

func (c *cli) listCmd() *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items in the order they were added",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items := c.app.catalog.List(search)
			if c.asJSON {
				return writeJSON(cmd.OutOrStdout(), items)
			}
			return writeTable(cmd.OutOrStdout(), items, time.Now())
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "only show items whose name contains this text")
	return cmd
}

// --- show ---

func (c *cli) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show an item and where its location photo is",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := c.app.catalog.Get(args[0])
			if err != nil {
				return notFound(err, args[0])
			}
			if c.asJSON {
				return writeJSON(cmd.OutOrStdout(), item)
			}
			writeDetail(cmd.OutOrStdout(), item)
			return nil
		},
	}
}

// --- add ---

func (c *cli) addCmd() *cobra.Command {
	var req catalog.AddRequest
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an item with a photo of where it is",
		Long: `Add an item with a photo of where it is.

The photo is mandatory. Pick a built-in icon with --preset (see "whereisit
presets") or use your own picture with --icon. Without a name the preset's
name is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := c.app.catalog.Add(cmd.Context(), req)
			if err != nil {
				if errors.Is(err, catalog.ErrPhotoRequired) {
					return fmt.Errorf("a location photo is required (--photo)")
				}
				return err
			}
			if c.asJSON {
				return writeJSON(cmd.OutOrStdout(), item)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", item.DisplayName(), item.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&req.Name, "name", "n", "", "item name")
	cmd.Flags().StringVarP(&req.Preset, "preset", "p", "", "built-in icon token, e.g. preset:Keys")
	cmd.Flags().StringVar(&req.IconPath, "icon", "", "custom icon image (JPEG or PNG)")
	cmd.Flags().StringVar(&req.PhotoPath, "photo", "", "photo of where the item is (JPEG or PNG)")
	return cmd
}

// --- locate ---

func (c *cli) locateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "locate <id> <photo>",
		Short: "Record a new location photo for an item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := c.app.catalog.Relocate(cmd.Context(), args[0], args[1])
			if err != nil {
				return notFound(err, args[0])
			}
			if c.asJSON {
				return writeJSON(cmd.OutOrStdout(), item)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated location of %s\n", item.DisplayName())
			return nil
		},
	}
}

// --- delete ---

func (c *cli) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete an item and its photos",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.catalog.Remove(cmd.Context(), args[0]); err != nil {
				return notFound(err, args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

// --- presets ---

func (c *cli) presetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "presets",
		Short:       "List the built-in icons",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"offline": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TOKEN\tNAME")
			for _, p := range model.Presets {
				fmt.Fprintf(tw, "%s\t%s\n", p.Token, p.Name)
			}
			return tw.Flush()
		},
	}
}

func notFound(err error, id string) error {
	if errors.Is(err, catalog.ErrItemNotFound) {
		return fmt.Errorf("no item with id %q", id)
	}
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
