package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wetkeyorg/libwetkey-go/config"
	"github.com/wetkeyorg/libwetkey-go/registry"
	"github.com/wetkeyorg/libwetkey-go/store"
	"github.com/wetkeyorg/libwetkey-go/transfer"
	"github.com/wetkeyorg/libwetkey-go/vault"
)

func (a *app) initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config file to the data directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			path := config.ConfigPath(a.dataDir)
			if err := config.SaveConfig(path, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
}

func (a *app) uploadCmd() *cobra.Command {
	var plain, quiet bool
	cmd := &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload files, encrypted to your identity unless --plain",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.vault()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			opts := transfer.UploadOptions{Encrypt: !plain}

			if len(args) == 1 {
				if !quiet {
					opts.Progress = func(p transfer.Progress) {
						fmt.Fprintf(cmd.ErrOrStderr(), "\r%s: chunk %d/%d", args[0], p.Chunks, p.Total)
						if p.Chunks == p.Total {
							fmt.Fprintln(cmd.ErrOrStderr())
						}
					}
				}
				id, err := v.UploadFile(cmd.Context(), args[0], opts)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Uploaded %s as file %d\n", args[0], id)
				return nil
			}

			results, err := v.UploadBatch(cmd.Context(), args, opts)
			for _, r := range results {
				if r.Err == nil {
					fmt.Fprintf(out, "Uploaded %s as file %d\n", r.Path, r.FileID)
				}
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "store the content unencrypted")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not report progress")
	return cmd
}

func (a *app) downloadCmd() *cobra.Command {
	var opts vault.DownloadOpts
	cmd := &cobra.Command{
		Use:   "download <file-id>",
		Short: "Download a file you own or that was shared with you",
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
			path, err := v.DownloadFile(cmd.Context(), id, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Downloaded file %d -> %s\n", id, path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.LocalPath, "output", "o", "", "write to this path")
	cmd.Flags().StringVarP(&opts.LocalDir, "dir", "d", ".", "directory for the stored file name")
	return cmd
}

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List your files",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.vault()
			if err != nil {
				return err
			}
			files, err := v.List(cmd.Context())
			if err != nil {
				return err
			}
			printFiles(cmd, files)
			return nil
		},
	}
}

func printFiles(cmd *cobra.Command, files []store.FileMetadata) {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tSIZE\tRETRIEVAL")
	for _, f := range files {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", f.FileID, f.Name, f.Status.Kind, f.Size, registry.StrategyFor(f))
	}
	_ = tw.Flush()
}

func (a *app) removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <file-id>",
		Aliases: []string{"delete"},
		Short:   "Delete a file",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseFileID(args[0])
			if err != nil {
				return err
			}
			v, err := a.vault()
			if err != nil {
				return err
			}
			if err := v.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted file %d\n", id)
			return nil
		},
	}
}

func (a *app) registerCmd() *cobra.Command {
	var req store.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register <name>",
		Short: "Record a file kept by another storage provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.vault()
			if err != nil {
				return err
			}
			req.Name = args[0]
			id, err := v.Register(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s as file %d\n", req.Name, id)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.StorageProvider, "provider", "", "storage provider name")
	cmd.Flags().StringVar(&req.BlobID, "blob", "", "provider blob id")
	_ = cmd.MarkFlagRequired("provider")
	return cmd
}
