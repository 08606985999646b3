package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JeanGrijp/go-secfetch/csrf"
	"github.com/JeanGrijp/go-secfetch/internal/config"
	"github.com/JeanGrijp/go-secfetch/internal/logging"
)

var (
	checkMethod  string
	checkHeaders []string
	checkExempt  bool
	checkRoute   string
	checkFormat  string
)

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVarP(&checkMethod, "method", "X", http.MethodPost, "Request method")
	checkCmd.Flags().StringArrayVarP(&checkHeaders, "header", "H", nil, `Request header, e.g. -H "Sec-Fetch-Site: cross-site" (repeatable)`)
	checkCmd.Flags().BoolVar(&checkExempt, "exempt", false, "Treat the route as exempt")
	checkCmd.Flags().StringVar(&checkRoute, "route", "", "Route identity; exempt if listed in the config's exempt routes or groups")
	checkCmd.Flags().StringVarP(&checkFormat, "format", "f", "text", "Output format (text|json)")
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Evaluate one request against the policy",
	Long: "Builds a request from --method and --header flags, evaluates it against\n" +
		"the configured policy and prints the decision.\n\n" +
		"Exit code 0 if allowed, 2 if denied.",
	Args: cobra.NoArgs,
	RunE: runCheck,
}

// cliRequest is a HeaderSource backed by command line flags.
type cliRequest struct {
	method string
	header http.Header
}

func (r cliRequest) Method() string            { return r.method }
func (r cliRequest) Header(name string) string { return r.header.Get(name) }

func parseHeaders(raw []string) (http.Header, error) {
	h := make(http.Header, len(raw))
	for _, line := range raw {
		name, value, ok := strings.Cut(line, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("malformed header %q (want \"Name: value\")", line)
		}
		h.Add(name, strings.TrimSpace(value))
	}
	return h, nil
}

type checkResult struct {
	Decision string     `json:"decision"`
	Reason   string     `json:"reason,omitempty"`
	Detail   string     `json:"detail,omitempty"`
	Exempt   bool       `json:"exempt"`
	Facts    csrf.Facts `json:"facts"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	policy, err := csrf.NewPolicy(cfg.CSRF())
	if err != nil {
		return err
	}

	header, err := parseHeaders(checkHeaders)
	if err != nil {
		return err
	}

	exempt := checkExempt
	if checkRoute != "" {
		reg := csrf.NewRegistry()
		if err := cfg.ApplyExemptions(reg); err != nil {
			return err
		}
		exempt = exempt || reg.IsExempt(checkRoute, csrf.PathGroups(checkRoute)...)
	}

	facts := csrf.FactsFrom(cliRequest{method: checkMethod, header: header})
	d := policy.Evaluate(facts, exempt)
	logger.Debug("evaluated request",
		zap.String("method", facts.Method),
		zap.Bool("exempt", exempt),
		zap.String("decision", d.String()))

	res := checkResult{
		Decision: "allow",
		Reason:   string(d.Reason),
		Detail:   d.Detail,
		Exempt:   exempt,
		Facts:    facts,
	}
	if !d.Allowed {
		res.Decision = "deny"
	}

	out := cmd.OutOrStdout()
	switch checkFormat {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	case "text":
		if d.Allowed {
			fmt.Fprintln(out, color.GreenString("ALLOW"))
		} else {
			fmt.Fprintf(out, "%s %s: %s\n", color.RedString("DENY"), d.Reason, d.Detail)
		}
	default:
		return fmt.Errorf("unknown format %q (want text or json)", checkFormat)
	}

	if !d.Allowed {
		return errDenied
	}
	return nil
}
