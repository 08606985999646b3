package cli

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/JeanGrijp/go-secfetch/csrf"
	"github.com/JeanGrijp/go-secfetch/internal/config"
)

func init() {
	rootCmd.AddCommand(showCmd)
}

var showCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective policy",
	Long: "Loads the policy file and SECFETCH_* environment variables, normalizes\n" +
		"methods and trusted origins exactly as the middleware would, and prints\n" +
		"the result as YAML.",
	Args: cobra.NoArgs,
	RunE: runShow,
}

// effectivePolicy is the normalized view printed by `secfetch config`.
type effectivePolicy struct {
	ProtectedMethods   []string            `yaml:"protected_methods"`
	AllowSameSite      bool                `yaml:"allow_same_site"`
	TrustedOrigins     []string            `yaml:"trusted_origins"`
	TrustForwardedHost bool                `yaml:"trust_forwarded_host"`
	Exempt             config.ExemptConfig `yaml:"exempt"`
	Log                config.LogConfig    `yaml:"log"`
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	policy, err := csrf.NewPolicy(cfg.CSRF())
	if err != nil {
		return err
	}

	out := effectivePolicy{
		ProtectedMethods:   policy.ProtectedMethods(),
		AllowSameSite:      policy.AllowSameSite(),
		TrustedOrigins:     policy.TrustedOrigins(),
		TrustForwardedHost: cfg.TrustForwardedHost,
		Exempt:             cfg.Exempt,
		Log:                cfg.Log,
	}
	if out.TrustedOrigins == nil {
		out.TrustedOrigins = []string{}
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return err
	}
	return enc.Close()
}
