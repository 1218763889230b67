package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"focusbridge/internal/types"
)

func newPermissionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "permission",
		Short: "Report whether usage access is granted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.newSession()
			if err != nil {
				return err
			}
			granted, err := s.bridge.HasUsagePermission(cmd.Context())
			if err != nil {
				return err
			}
			if granted {
				fmt.Fprintln(cmd.OutOrStdout(), "granted")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "not granted")
			}
			return nil
		},
	}
}

func newRequestPermissionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "request-permission",
		Short: "Open the usage-access settings screen on the device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.newSession()
			if err != nil {
				return err
			}
			s.bridge.RequestUsagePermission(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "requested usage access settings")
			return nil
		},
	}
}

func newAppsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "apps",
		Short: "List installed user applications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.newSession()
			if err != nil {
				return err
			}
			apps, err := s.bridge.ListInstalledApps(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PACKAGE\tNAME")
			for _, app := range apps {
				fmt.Fprintf(w, "%s\t%s\n", app.PackageName, app.AppName)
			}
			return w.Flush()
		},
	}
}

func newCurrentCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Print the app most recently in the foreground",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.newSession()
			if err != nil {
				return err
			}
			pkg, ok, err := s.bridge.CurrentForegroundApp(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "none")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), pkg)
			return nil
		},
	}
}

func newForegroundCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "foreground <package>",
		Short: "Report whether a package is in the foreground",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.newSession()
			if err != nil {
				return err
			}
			running, err := s.bridge.IsAppInForeground(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), running)
			return nil
		},
	}
}

func newBlockedCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blocked",
		Short: "Manage apps blocked during focus sessions",
	}
	cmd.AddCommand(
		newBlockedListCmd(opts),
		newBlockedSetCmd(opts),
		newBlockedAddCmd(opts),
		newBlockedRemoveCmd(opts),
		newBlockedCheckCmd(opts),
	)
	return cmd
}

func newBlockedListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List blocked apps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.newSession()
			if err != nil {
				return err
			}
			store, closeStore, err := s.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			apps, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, app := range apps {
				fmt.Fprintln(cmd.OutOrStdout(), app.PackageName)
			}
			return nil
		},
	}
}

func newBlockedSetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set [package...]",
		Short: "Replace the blocked apps; no arguments clears the list",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.newSession()
			if err != nil {
				return err
			}
			store, closeStore, err := s.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			if err := store.Replace(cmd.Context(), args); err != nil {
				return err
			}
			apps, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d blocked\n", len(apps))
			return nil
		},
	}
}

func newBlockedAddCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <package>",
		Short: "Block an app",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.newSession()
			if err != nil {
				return err
			}
			store, closeStore, err := s.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			return store.Add(cmd.Context(), args[0])
		},
	}
}

func newBlockedRemoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <package>",
		Short: "Unblock an app",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.newSession()
			if err != nil {
				return err
			}
			store, closeStore, err := s.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			return store.Remove(cmd.Context(), args[0])
		},
	}
}

func newBlockedCheckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Print the blocked app in the foreground, if any",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.newSession()
			if err != nil {
				return err
			}
			store, closeStore, err := s.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			apps, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			pkg, ok, err := s.bridge.BlockedAppInForeground(cmd.Context(), types.PackageNames(apps))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "none")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), pkg)
			return nil
		},
	}
}
