package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) shareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "share <file-id> <username>",
		Short: "Let another user read one of your files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseFileID(args[0])
			if err != nil {
				return err
			}
			v, err := a.vault()
			if err != nil {
				return err
			}
			if err := v.Share(cmd.Context(), id, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Shared file %d with %s\n", id, args[1])
			return nil
		},
	}
}

func (a *app) unshareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unshare <file-id> <username>",
		Short: "Revoke a grant",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseFileID(args[0])
			if err != nil {
				return err
			}
			v, err := a.vault()
			if err != nil {
				return err
			}
			if err := v.Unshare(cmd.Context(), id, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Unshared file %d from %s\n", id, args[1])
			return nil
		},
	}
}

func (a *app) granteesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "grantees <file-id>",
		Short: "List the users a file is shared with",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseFileID(args[0])
			if err != nil {
				return err
			}
			v, err := a.vault()
			if err != nil {
				return err
			}
			users, err := v.Grantees(cmd.Context(), id)
			if err != nil {
				return err
			}
			for _, u := range users {
				fmt.Fprintln(cmd.OutOrStdout(), u.Username)
			}
			return nil
		},
	}
}

func (a *app) sharedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shared",
		Short: "List files shared with you",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.vault()
			if err != nil {
				return err
			}
			sf, err := v.SharedFiles(cmd.Context())
			if err != nil {
				return err
			}
			printFiles(cmd, sf.SharedWithMe)
			return nil
		},
	}
}

func (a *app) profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage user profiles",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "create <username> [display-name]",
		Short: "Register a username for your identity",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.vault()
			if err != nil {
				return err
			}
			display := ""
			if len(args) == 2 {
				display = args[1]
			}
			u, err := v.CreateProfile(cmd.Context(), args[0], display)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created profile %s for %s\n", u.Username, u.Identity)
			return nil
		},
	}, &cobra.Command{
		Use:   "show <username>",
		Short: "Look up a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.vault()
			if err != nil {
				return err
			}
			u, err := v.LookupUser(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", u.Username, u.DisplayName, u.Identity)
			return nil
		},
	})
	return cmd
}
