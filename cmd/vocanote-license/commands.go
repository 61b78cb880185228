package main

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Dynag1/VocaNote/internal/app"
	"github.com/Dynag1/VocaNote/internal/config"
	"github.com/Dynag1/VocaNote/internal/license"
)

// errKeyRejected hides the reason a key was refused; details go to the log
var errKeyRejected = errors.New("license key rejected")

func statusCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current license status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApplication(cmd, opts, "warn", func(ctx context.Context, a *app.Application) error {
				status := a.LicenseManager.Status(ctx)
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(status)
				}
				return printStatus(cmd, status)
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the status as JSON")
	return cmd
}

func printStatus(cmd *cobra.Command, status license.Status) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)

	printf(w, "Licensed:\t%t\n", status.IsValid)
	printf(w, "Key:\t%s\n", orDash(status.KeyMasked))
	if status.LimitSeconds != nil {
		printf(w, "Transcription limit:\t%ds\n", *status.LimitSeconds)
	} else {
		printf(w, "Transcription limit:\tnone\n")
	}
	printf(w, "Activated:\t%s\n", orDash(status.ActivationDate))
	printf(w, "Expires:\t%s\n", orDash(status.ExpiryDate))
	printf(w, "Remaining:\t%s\n", status.DaysRemainingText)

	return w.Flush()
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func activateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "activate <license-key>",
		Short: "Activate a license key on this machine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApplication(cmd, opts, "warn", func(ctx context.Context, a *app.Application) error {
				if !a.LicenseManager.Activate(ctx, args[0]) {
					return errKeyRejected
				}
				status := a.LicenseManager.Status(ctx)
				printf(cmd.OutOrStdout(), "License activated (%s)\n", status.DaysRemainingText)
				return nil
			})
		},
	}
}

func deactivateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate",
		Short: "Remove the license from this machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApplication(cmd, opts, "warn", func(ctx context.Context, a *app.Application) error {
				a.LicenseManager.Deactivate(ctx)
				printf(cmd.OutOrStdout(), "License deactivated\n")
				return nil
			})
		},
	}
}

func activationCodeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "activation-code",
		Short: "Print the activation code to send to the vendor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApplication(cmd, opts, "warn", func(_ context.Context, a *app.Application) error {
				printf(cmd.OutOrStdout(), "%s\n", a.LicenseManager.ActivationCode())
				return nil
			})
		},
	}
}

func fingerprintCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint",
		Short: "Print the hardware fingerprint of this machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApplication(cmd, opts, "warn", func(_ context.Context, a *app.Application) error {
				printf(cmd.OutOrStdout(), "%s\n", a.LicenseManager.Fingerprint())
				return nil
			})
		},
	}
}

func serveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the local license API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApplication(cmd, opts, "", func(ctx context.Context, a *app.Application) error {
				return a.Run(ctx)
			})
		},
	}
}

// issueCmd seals an encrypted license the way the vendor tooling does.
// It is hidden because the master key ships in every build.
func issueCmd(opts *rootOptions) *cobra.Command {
	var (
		hardwareID string
		expiry     string
		software   string
	)

	cmd := &cobra.Command{
		Use:    "issue",
		Short:  "Issue an encrypted license",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rec := license.Record{
				HardwareID: hardwareID,
				Software:   software,
			}

			if expiry != "" {
				t, err := time.Parse(config.DateLayout, expiry)
				if err != nil {
					return fmt.Errorf("invalid --expiry %q: expected YYYY-MM-DD", expiry)
				}
				rec.Expiry = &t
			}

			if rec.HardwareID == "" {
				err := withApplication(cmd, opts, "warn", func(_ context.Context, a *app.Application) error {
					rec.HardwareID = a.LicenseManager.Fingerprint()
					return nil
				})
				if err != nil {
					return err
				}
			}

			iv := make([]byte, 16)
			if _, err := rand.Read(iv); err != nil {
				return fmt.Errorf("failed to generate IV: %w", err)
			}

			keySource := opts.issueKey
			if keySource == nil {
				keySource = license.DerivedKey
			}
			blob, err := license.Seal(rec, keySource(), iv)
			if err != nil {
				return fmt.Errorf("failed to seal license: %w", err)
			}

			printf(cmd.OutOrStdout(), "%s\n", blob)
			return nil
		},
	}

	cmd.Flags().StringVar(&hardwareID, "hw-id", "", "target fingerprint (default: this machine)")
	cmd.Flags().StringVar(&expiry, "expiry", "", "expiry date YYYY-MM-DD (default: perpetual)")
	cmd.Flags().StringVar(&software, "software", config.ProductID, "product identifier")
	return cmd
}
