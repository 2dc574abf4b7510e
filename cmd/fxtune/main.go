package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fx-tuner/backend/shared"
)

var (
	// Global flags
	verbose      bool
	sceneFile    string
	tableName    string
	settingsFile string
	namespace    string
	timeout      time.Duration

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "fxtune",
	Short: "Adjust particle effect parameters with natural language",
	Long: `fxtune lists the particle effects in a scene and adjusts their
parameters from plain-language requests such as "make the fire bigger and redder".

Effects come from a YAML scene file (--scene) or the DynamoDB effects table
(--table). Set OPENAI_API_KEY to enable adjustments.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = shared.NewLogger(verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List the particle effects in the scene",
	Args:  cobra.NoArgs,
	RunE:  runTargets,
}

var paramsCmd = &cobra.Command{
	Use:   "params <index>",
	Short: "Show every parameter of an effect",
	Args:  cobra.ExactArgs(1),
	RunE:  runParams,
}

var adjustCmd = &cobra.Command{
	Use:   "adjust <index> <request...>",
	Short: "Apply a natural language request to an effect",
	Long: `Sends the request and the effect's parameter names to the completion
provider, then writes every returned value whose shape matches a parameter kind.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runAdjust,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

var tokenCmd = &cobra.Command{
	Use:   "token <name>",
	Short: "Issue an API token for the web shell and the adjust API",
	Long: `Signs a token with JWT_SECRET. The adjust API and the web shell must run
with the same secret to accept it.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runToken,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&sceneFile, "scene", "s", "scene.yaml", "YAML scene file")
	rootCmd.PersistentFlags().StringVar(&tableName, "table", "", "DynamoDB effects table (overrides --scene)")
	rootCmd.PersistentFlags().StringVar(&settingsFile, "settings", "", "YAML settings file consulted after the environment")
	rootCmd.PersistentFlags().StringVarP(&namespace, "namespace", "n", "", "Parameter namespace (default from configuration)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 3*time.Minute, "Operation timeout")

	rootCmd.AddCommand(targetsCmd, paramsCmd, adjustCmd, checkCmd, tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(ctx context.Context) (*shared.Config, error) {
	var settings shared.SettingsSource = shared.NoSettings{}

	switch {
	case settingsFile != "":
		fileSettings, err := shared.LoadFileSettings(settingsFile)
		if err != nil {
			return nil, err
		}
		settings = fileSettings
	case tableName != "" && os.Getenv("SETTINGS_TABLE") != "":
		client, err := shared.InitDynamoDB(ctx)
		if err != nil {
			return nil, err
		}
		dynamoSettings, err := shared.LoadDynamoSettings(ctx, shared.NewTable(client, os.Getenv("SETTINGS_TABLE"), logger))
		if err != nil {
			return nil, err
		}
		settings = dynamoSettings
	}

	return shared.LoadConfig(settings, logger), nil
}

func openStore(ctx context.Context) (shared.ParameterStore, error) {
	if tableName != "" {
		client, err := shared.InitDynamoDB(ctx)
		if err != nil {
			return nil, err
		}
		return shared.NewDynamoStore(shared.NewTable(client, tableName, logger), logger), nil
	}

	records, err := shared.LoadScene(sceneFile)
	if err != nil {
		return nil, err
	}
	return shared.NewMemoryStore(records), nil
}

// openSession wires store, configuration and assistant, then snapshots the targets
func openSession(ctx context.Context) (*shared.Session, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	store, err := openStore(ctx)
	if err != nil {
		return nil, err
	}

	ns := cfg.DefaultNamespace()
	if namespace != "" {
		if ns, err = shared.ParseNamespace(namespace); err != nil {
			return nil, err
		}
	}

	manager := shared.NewParameterManager(store, ns, logger)
	assistant := shared.NewAssistant(manager, shared.NewOpenAIClient(cfg), cfg, logger)
	session := shared.NewSession(manager, assistant, logger)
	if err := session.Refresh(ctx); err != nil {
		return nil, err
	}
	return session, nil
}

func parseIndex(arg string) (int, error) {
	index, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("target index must be a number, got %q", arg)
	}
	return index, nil
}

func runTargets(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	session, err := openSession(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	summaries := session.Summaries()
	if len(summaries) == 0 {
		fmt.Fprintln(out, "No particle effects found in the scene")
		return nil
	}
	for _, s := range summaries {
		fmt.Fprintf(out, "%d. %s\n", s.Index, s.Label)
	}
	return nil
}

func runParams(cmd *cobra.Command, args []string) error {
	index, err := parseIndex(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	session, err := openSession(ctx)
	if err != nil {
		return err
	}
	target, err := session.Select(index)
	if err != nil {
		return err
	}
	snapshots, err := session.Parameters(ctx, index)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s [%s]\n", target.Label(), session.Manager().Namespace())
	for _, p := range snapshots {
		fmt.Fprintln(out, "  "+formatSnapshot(p))
	}
	return nil
}

func formatSnapshot(p shared.ParameterSnapshot) string {
	if p.Value == nil {
		return fmt.Sprintf("%s (%s)", p.Name, p.Kind)
	}
	line := fmt.Sprintf("%s (%s) = %s", p.Name, p.Kind, p.Value)
	if p.Value.Kind == shared.KindColor && p.Value.Color != nil {
		line += fmt.Sprintf(" %s brightness %.2f", p.Value.Color.Hex(), p.Value.Color.Brightness())
	}
	return line
}

func runAdjust(cmd *cobra.Command, args []string) error {
	index, err := parseIndex(args[0])
	if err != nil {
		return err
	}
	request := strings.TrimSpace(strings.Join(args[1:], " "))
	if request == "" {
		return fmt.Errorf("request is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	session, err := openSession(ctx)
	if err != nil {
		return err
	}
	if _, err := session.Select(index); err != nil {
		return err
	}
	if !session.Assistant().IsAvailable() {
		return fmt.Errorf("AI service unavailable, set %s", shared.EnvAPIKey)
	}

	outcome := session.Adjust(ctx, index, request)

	out := cmd.OutOrStdout()
	if !outcome.Success {
		fmt.Fprintf(out, "Adjustment failed (%d/%d applied): %s\n", outcome.Succeeded, outcome.Attempted, outcome.Explanation)
		return fmt.Errorf("no parameters were adjusted")
	}
	fmt.Fprintf(out, "Adjusted %d/%d parameters: %s\n", outcome.Succeeded, outcome.Attempted, outcome.Explanation)
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, hasKey := cfg.APIKey()
	fmt.Fprintf(out, "API key configured: %t\n", hasKey)
	fmt.Fprintf(out, "Model: %s\n", cfg.Model())
	fmt.Fprintf(out, "Temperature: %g\n", cfg.Temperature())
	fmt.Fprintf(out, "Namespace: %s\n", cfg.DefaultNamespace())

	issues := cfg.Validate()
	if len(issues) == 0 {
		fmt.Fprintln(out, "Configuration OK")
		return nil
	}
	for _, issue := range issues {
		fmt.Fprintln(out, "  - "+issue)
	}
	return fmt.Errorf("%d configuration issue(s)", len(issues))
}

func runToken(cmd *cobra.Command, args []string) error {
	if os.Getenv(shared.EnvJWTSecret) == "" {
		return fmt.Errorf("%s is not set, a token signed with a per-process secret would be rejected by the API", shared.EnvJWTSecret)
	}
	token, err := shared.GenerateToken(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
