package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/cognitivefashion/fashion-cli/internal/api"
	"github.com/cognitivefashion/fashion-cli/internal/config"
	"github.com/cognitivefashion/fashion-cli/internal/iocontext"
	"github.com/cognitivefashion/fashion-cli/internal/resolve"
)

// newAuthCmd returns the auth command with subcommands
func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "auth",
		Aliases: []string{"au"},
		Short:   "Manage API credentials",
		Long:    "Store Cognitive Fashion API credentials in profiles kept in your OS keychain.",
	}

	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthStatusCmd())
	cmd.AddCommand(newAuthLogoutCmd())
	cmd.AddCommand(newAuthListCmd())
	cmd.AddCommand(newAuthUseCmd())

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var verify bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Save credentials to a profile",
		Long: strings.TrimSpace(`
Save the gateway URL and API key to a profile in your OS keychain.

Values come from --base-url/--api-key/--api-version/--opt-out, then from the
FASHION_* environment (including --env-file). A missing API key is prompted
for when stdin is a terminal.
`),
		Example: strings.TrimSpace(`
  # Save the default profile
  fashion auth login --base-url https://gateway.example.com/fashion --api-key KEY

  # Save a staging profile and check the key with a request
  fashion auth login --profile staging --base-url https://staging.example.com --api-key KEY --verify

  # Read values from a .env file
  fashion auth login --env-file .env
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			profileName := firstNonEmpty(flags.Profile, runtimeEnv.Profile, config.DefaultProfile)
			profile := config.Profile{
				BaseURL:    strings.TrimSuffix(firstNonEmpty(flags.BaseURL, runtimeEnv.BaseURL), "/"),
				APIKey:     firstNonEmpty(flags.APIKey, runtimeEnv.APIKey),
				APIVersion: firstNonEmpty(flags.APIVersion, runtimeEnv.APIVersion),
			}
			switch {
			case flags.OptOutSet:
				profile.DataCollectionOptOut = flags.OptOut
			case runtimeEnv.DataCollectionOptOut != nil:
				profile.DataCollectionOptOut = *runtimeEnv.DataCollectionOptOut
			}

			ioStreams := iocontext.GetIO(cmd.Context())
			if profile.BaseURL == "" {
				if !ioStreams.IsTerminal() {
					return fmt.Errorf("--base-url is required")
				}
				value, err := promptLine(cmd, "Gateway URL: ")
				if err != nil {
					return err
				}
				profile.BaseURL = strings.TrimSuffix(value, "/")
			}
			if profile.APIKey == "" {
				if !ioStreams.IsTerminal() {
					return fmt.Errorf("--api-key is required")
				}
				value, err := promptSecret(cmd, "API key: ")
				if err != nil {
					return err
				}
				profile.APIKey = value
			}

			if err := config.ValidateProfile(profile); err != nil {
				return err
			}

			if verify {
				client := newClientFactory().newClient(config.ClientConfig{
					BaseURL:              profile.BaseURL,
					APIKey:               profile.APIKey,
					APIVersion:           firstNonEmpty(profile.APIVersion, api.DefaultAPIVersion),
					DataCollectionOptOut: profile.DataCollectionOptOut,
				})
				res, err := client.FashionQuote(cmd.Context())
				if err != nil {
					return fmt.Errorf("credential check failed: %w", err)
				}
				if err := res.Err(); err != nil {
					return fmt.Errorf("credential check failed: %w", err)
				}
			}

			if err := config.SaveProfile(profileName, profile); err != nil {
				return fmt.Errorf("failed to save credentials: %w", err)
			}

			if isJSON(cmd) {
				return printOutput(cmd, map[string]any{
					"saved":    true,
					"profile":  profileName,
					"base_url": profile.BaseURL,
					"api_key":  maskKey(profile.APIKey),
					"verified": verify,
				})
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, "Credentials saved.")
			_, _ = fmt.Fprintf(out, "  Profile: %s\n", profileName)
			_, _ = fmt.Fprintf(out, "  Base URL: %s\n", profile.BaseURL)
			if profile.APIVersion != "" {
				_, _ = fmt.Fprintf(out, "  API version: %s\n", profile.APIVersion)
			}
			return nil
		}),
	}

	cmd.Flags().BoolVar(&verify, "verify", false, "Fetch a fashion quote with the new key before saving")

	return cmd
}

func promptLine(cmd *cobra.Command, label string) (string, error) {
	ioStreams := iocontext.GetIO(cmd.Context())
	_, _ = fmt.Fprint(ioStreams.ErrOut, label)
	line, err := bufio.NewReader(ioStreams.In).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func promptSecret(cmd *cobra.Command, label string) (string, error) {
	ioStreams := iocontext.GetIO(cmd.Context())
	f, ok := ioStreams.In.(*os.File)
	if !ok {
		return promptLine(cmd, label)
	}
	_, _ = fmt.Fprint(ioStreams.ErrOut, label)
	secret, err := term.ReadPassword(int(f.Fd()))
	_, _ = fmt.Fprintln(ioStreams.ErrOut)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(string(secret)), nil
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the active configuration",
		Long:  "Display the settings the next command would run with (the API key is masked).",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.ResolveClientConfig(newClientFactory().overrides(), runtimeEnv)
			if err != nil {
				if errors.Is(err, config.ErrNotConfigured) {
					if isJSON(cmd) {
						return printOutput(cmd, map[string]any{
							"authenticated": false,
							"message":       "Not authenticated. Run 'fashion auth login' to configure credentials.",
						})
					}
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Not authenticated.")
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Run 'fashion auth login' to configure credentials.")
					return nil
				}
				return err
			}

			if isJSON(cmd) {
				payload := map[string]any{
					"authenticated":           true,
					"base_url":                cfg.BaseURL,
					"api_key":                 maskKey(cfg.APIKey),
					"api_version":             cfg.APIVersion,
					"data_collection_opt_out": cfg.DataCollectionOptOut,
					"source":                  cfg.Source,
				}
				if cfg.Profile != "" {
					payload["profile"] = cfg.Profile
				}
				return printOutput(cmd, payload)
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, "Authenticated")
			_, _ = fmt.Fprintf(out, "  Base URL: %s\n", cfg.BaseURL)
			_, _ = fmt.Fprintf(out, "  API key: %s\n", maskKey(cfg.APIKey))
			_, _ = fmt.Fprintf(out, "  API version: %s\n", cfg.APIVersion)
			_, _ = fmt.Fprintf(out, "  Data collection opt-out: %t\n", cfg.DataCollectionOptOut)
			if cfg.Profile != "" {
				_, _ = fmt.Fprintf(out, "  Profile: %s\n", cfg.Profile)
			}
			_, _ = fmt.Fprintf(out, "  Source: %s\n", cfg.Source)
			return nil
		}),
	}
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove a profile from the keychain",
		Long:  "Delete the stored profile named by --profile, or the current profile.",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			name := firstNonEmpty(flags.Profile, runtimeEnv.Profile)
			if name == "" {
				current, err := config.CurrentProfile()
				if err != nil {
					return err
				}
				name = current
			}

			if _, err := config.LoadProfile(name); err != nil {
				if errors.Is(err, config.ErrNotConfigured) || errors.Is(err, config.ErrProfileNotFound) {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No credentials found.")
					return nil
				}
				return err
			}
			if err := config.DeleteProfile(name); err != nil {
				return fmt.Errorf("failed to remove credentials: %w", err)
			}

			if isJSON(cmd) {
				return printOutput(cmd, map[string]any{"removed": true, "profile": name})
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Profile %s removed.\n", name)
			return nil
		}),
	}
}

func newAuthListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored profiles",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			profiles, err := config.ListProfiles()
			if err != nil {
				return err
			}
			current, err := config.CurrentProfile()
			if err != nil {
				return err
			}

			if isJSON(cmd) {
				items := make([]map[string]any, 0, len(profiles))
				for _, name := range profiles {
					items = append(items, map[string]any{"name": name, "current": name == current})
				}
				return printOutput(cmd, items)
			}

			f := newFormatter(cmd)
			if len(profiles) == 0 {
				f.Empty("No profiles found. Run 'fashion auth login' to add one.")
				return nil
			}
			f.StartTable([]string{"CURRENT", "NAME"})
			for _, name := range profiles {
				marker := ""
				if name == current {
					marker = "*"
				}
				f.Row(marker, name)
			}
			return f.EndTable()
		}),
	}
}

func newAuthUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <profile>",
		Short: "Switch the current profile",
		Args:  cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			profiles, err := config.ListProfiles()
			if err != nil {
				return err
			}
			if !slices.Contains(profiles, name) {
				err := fmt.Errorf("%w: %s", config.ErrProfileNotFound, name)
				if suggestions := resolve.Suggest(name, profiles, 3); len(suggestions) > 0 {
					return fmt.Errorf("%w (did you mean %s?)", err, strings.Join(suggestions, ", "))
				}
				return err
			}
			if err := config.SetCurrentProfile(name); err != nil {
				return err
			}
			if isJSON(cmd) {
				return printOutput(cmd, map[string]any{"current": name})
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Switched to profile %s.\n", name)
			return nil
		}),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
