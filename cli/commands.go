package cli

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yllada/wg-tunnels/common"
	"github.com/yllada/wg-tunnels/tunnel"
	"github.com/yllada/wg-tunnels/ui"
)

func (c *CLI) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tunnels, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, err := c.openManager(cmd.Context())
			if err != nil {
				return err
			}
			defer mgr.Close()

			reg, err := mgr.Handle().Registry()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if reg.Count() == 0 {
				fmt.Fprintln(out, "No tunnels configured.")
				fmt.Fprintln(out, "Import one with: wg-tunnels import FILE")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "POSITION\tNAME\tPUBLIC KEY\tPEERS")
			for _, rec := range reg.Records() {
				cfg := rec.Configuration()
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\n",
					rec.Position(), rec.Name(), publicKeyText(cfg.Interface.PrivateKey), len(cfg.Peers))
			}
			return w.Flush()
		},
	}
}

func (c *CLI) showCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Show a tunnel's interface and peers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := c.openManager(cmd.Context())
			if err != nil {
				return err
			}
			defer mgr.Close()

			reg, err := mgr.Handle().Registry()
			if err != nil {
				return err
			}
			rec, ok := reg.Find(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", tunnel.ErrTunnelNotFound, args[0])
			}
			printTunnel(cmd.OutOrStdout(), rec)
			return nil
		},
	}
}

func (c *CLI) importCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE...",
		Short: "Import wg-quick configuration files",
		Long: `Import one or more wg-quick configuration files. The tunnel name is the
file name without the .conf extension. Each file is imported on its own;
a failing file does not stop the rest.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := c.openManager(cmd.Context())
			if err != nil {
				return err
			}
			defer mgr.Close()

			p := newPrinter(cmd.OutOrStdout())
			var errs []error
			for _, path := range args {
				rec, err := waitRecord(func(done func(*tunnel.Record, error)) {
					mgr.Import(cmd.Context(), path, done)
				})
				if err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", path, err))
					continue
				}
				p.success("Imported %s", rec.Name())
			}
			return errors.Join(errs...)
		},
	}
}

func (c *CLI) updateCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "update NAME FILE",
		Aliases: []string{"edit"},
		Short:   "Replace a tunnel's configuration with a wg-quick file",
		Long: `Replace the configuration of tunnel NAME with the contents of FILE.
The tunnel keeps its name and position. When FILE has no PrivateKey the
current private key is kept.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := c.openManager(cmd.Context())
			if err != nil {
				return err
			}
			defer mgr.Close()

			err = wait(func(done func(error)) {
				mgr.UpdateFromFile(cmd.Context(), args[0], args[1], done)
			})
			if err != nil {
				return err
			}
			newPrinter(cmd.OutOrStdout()).success("Updated %s", args[0])
			return nil
		},
	}
}

func (c *CLI) newCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "new NAME",
		Short: "Create a tunnel with a fresh private key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := c.openManager(cmd.Context())
			if err != nil {
				return err
			}
			defer mgr.Close()

			rec, err := waitRecord(func(done func(*tunnel.Record, error)) {
				mgr.Generate(cmd.Context(), args[0], done)
			})
			if err != nil {
				return err
			}
			p := newPrinter(cmd.OutOrStdout())
			p.success("Created %s", rec.Name())
			p.line("public key: %s", publicKeyText(rec.Configuration().Interface.PrivateKey))
			return nil
		},
	}
}

func (c *CLI) removeCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "remove NAME",
		Aliases: []string{"rm"},
		Short:   "Remove a tunnel and its private key",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := c.openManager(cmd.Context())
			if err != nil {
				return err
			}
			defer mgr.Close()

			err = wait(func(done func(error)) {
				mgr.Delete(cmd.Context(), args[0], done)
			})
			if err != nil {
				return err
			}
			newPrinter(cmd.OutOrStdout()).success("Removed %s", args[0])
			return nil
		},
	}
}

func (c *CLI) exportCommand() *cobra.Command {
	var (
		output string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "export NAME",
		Short: "Write a tunnel as a wg-quick file, private key included",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := c.openManager(cmd.Context())
			if err != nil {
				return err
			}
			defer mgr.Close()

			if output == "" || output == "-" {
				return mgr.Export(args[0], cmd.OutOrStdout())
			}

			if common.FileExists(output) && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", output)
			}
			f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
			if err != nil {
				return err
			}
			if err := mgr.Export(args[0], f); err != nil {
				f.Close()
				os.Remove(output)
				return err
			}
			return f.Close()
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing output file")
	return cmd
}

func (c *CLI) tuiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tui [NAME]",
		Short: "Browse tunnels interactively",
		Long: `Start the interactive tunnel list. When NAME is given, that tunnel's
details are shown as soon as loading finishes.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isTerminal(cmd.OutOrStdout()) {
				return errors.New("tui needs an interactive terminal")
			}
			st, secrets, err := c.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			opts := ui.Options{
				Store:         st,
				Secrets:       secrets,
				Notifications: c.cfg.ShowNotifications,
			}
			if len(args) == 1 {
				opts.Focus = args[0]
			}
			return ui.NewApplication(cmd.Context(), opts).Run()
		},
	}
}

func (c *CLI) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "wg-tunnels %s\n", c.build.Version)
			if c.build.BuildTime != "" && c.build.BuildTime != "unknown" {
				fmt.Fprintf(out, "  Build:  %s\n", c.build.BuildTime)
				fmt.Fprintf(out, "  Commit: %s\n", c.build.Commit)
			}
		},
	}
}

// wait runs op and returns the error it reports.
func wait(op func(done func(error))) error {
	ch := make(chan error, 1)
	op(func(err error) { ch <- err })
	return <-ch
}

func waitRecord(op func(done func(*tunnel.Record, error))) (*tunnel.Record, error) {
	type result struct {
		rec *tunnel.Record
		err error
	}
	ch := make(chan result, 1)
	op(func(rec *tunnel.Record, err error) { ch <- result{rec, err} })
	r := <-ch
	return r.rec, r.err
}
