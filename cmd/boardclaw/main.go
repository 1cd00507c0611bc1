package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cexll/agentsdk-go/pkg/api"
	"github.com/spf13/cobra"
	"github.com/stellarlinkco/boardclaw/internal/agent"
	"github.com/stellarlinkco/boardclaw/internal/config"
	"github.com/stellarlinkco/boardclaw/internal/cron"
	"github.com/stellarlinkco/boardclaw/internal/gateway"
	"github.com/stellarlinkco/boardclaw/internal/mcp"
)

// The REPL owns exactly one conversation, fixed for the process lifetime.
const (
	replSessionID = "cli"
	replUserID    = "dev"

	noResponsePlaceholder = "No response received."
)

// AgentOptions carries injectable dependencies for running the agent command
// in tests.
type AgentOptions struct {
	RuntimeFactory agent.Factory
	Stdin          io.Reader
	Stdout         io.Writer
	Stderr         io.Writer
}

var rootCmd = &cobra.Command{
	Use:   "boardclaw",
	Short: "boardclaw - Monday.com automation agent",
}

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Run agent in single message or REPL mode",
	RunE:  runAgent,
}

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Start the full gateway (channels + cron)",
	RunE:  runGateway,
}

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools discovered from the configured providers",
	RunE:  runTools,
}

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Initialize config and workspace",
	RunE:  runOnboard,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show boardclaw status",
	RunE:  runStatus,
}

var cronCmd = &cobra.Command{
	Use:   "cron",
	Short: "Manage scheduled agent jobs (run by the gateway)",
}

var cronAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a scheduled job",
	RunE:  runCronAdd,
}

var cronListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scheduled jobs",
	RunE:  runCronList,
}

var cronRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a scheduled job",
	Args:  cobra.ExactArgs(1),
	RunE:  runCronRemove,
}

var messageFlag string

var (
	cronNameFlag    string
	cronExprFlag    string
	cronEveryFlag   int64
	cronMessageFlag string
	cronChannelFlag string
	cronToFlag      string
)

func init() {
	agentCmd.Flags().StringVarP(&messageFlag, "message", "m", "", "Single message to send")

	cronAddCmd.Flags().StringVar(&cronNameFlag, "name", "", "Job name")
	cronAddCmd.Flags().StringVar(&cronExprFlag, "expr", "", "6-field cron expression, seconds first (e.g. '0 0 9 * * *')")
	cronAddCmd.Flags().Int64Var(&cronEveryFlag, "every", 0, "Repeat interval in milliseconds")
	cronAddCmd.Flags().StringVarP(&cronMessageFlag, "message", "m", "", "Prompt to run through the agent")
	cronAddCmd.Flags().StringVar(&cronChannelFlag, "channel", "", "Channel to deliver the result to (e.g. telegram)")
	cronAddCmd.Flags().StringVar(&cronToFlag, "to", "", "Chat id to deliver the result to")
	cronCmd.AddCommand(cronAddCmd, cronListCmd, cronRemoveCmd)

	rootCmd.AddCommand(agentCmd, gatewayCmd, toolsCmd, onboardCmd, statusCmd, cronCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runAgent(cmd *cobra.Command, args []string) error {
	return runAgentWithOptions(AgentOptions{})
}

// runAgentWithOptions runs the agent with injectable dependencies for testing
func runAgentWithOptions(opts AgentOptions) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	factory := opts.RuntimeFactory
	if factory == nil {
		factory = agent.New
	}

	tools := mcp.DiscoverAll(context.Background(), agent.Bindings(cfg))

	rt, err := factory(cfg, tools, agent.BuildSystemPrompt(cfg.Agent.Workspace))
	if err != nil {
		return err
	}
	defer rt.Close()

	stdin := opts.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	ctx := context.Background()
	sessionKey := replSessionID + ":" + replUserID

	// Single message mode
	if messageFlag != "" {
		output, err := runTurn(ctx, rt, messageFlag, sessionKey)
		if err != nil {
			return fmt.Errorf("agent error: %w", err)
		}
		fmt.Fprintln(stdout, output)
		return nil
	}

	// REPL mode
	fmt.Fprintln(stdout, "boardclaw ready. Type 'quit' to exit.")
	scanner := bufio.NewScanner(stdin)
	for {
		fmt.Fprint(stdout, "\n> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if isQuit(input) {
			break
		}

		output, err := runTurn(ctx, rt, input, sessionKey)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			continue
		}
		fmt.Fprintln(stdout, output)
	}
	return nil
}

// isQuit recognizes the two exit commands, case-insensitively.
func isQuit(input string) bool {
	return strings.EqualFold(input, "quit") || strings.EqualFold(input, "exit")
}

// runTurn forwards one user message and reduces the response to printable
// text. A turn either yields text or an error; there is no partial output.
func runTurn(ctx context.Context, rt agent.Runtime, input, sessionKey string) (string, error) {
	resp, err := rt.Run(ctx, api.Request{
		Prompt:    input,
		SessionID: sessionKey,
	})
	if err != nil {
		return "", err
	}
	if resp == nil || resp.Result == nil || strings.TrimSpace(resp.Result.Output) == "" {
		return noResponsePlaceholder, nil
	}
	return resp.Result.Output, nil
}

func runGateway(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	gw, err := gateway.New(cfg)
	if err != nil {
		return fmt.Errorf("create gateway: %w", err)
	}

	return gw.Run(context.Background())
}

func runTools(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	bindings := agent.Bindings(cfg)
	if len(bindings) == 0 {
		fmt.Println("No tool providers configured.")
		return nil
	}

	for _, b := range bindings {
		tools := mcp.Discover(context.Background(), b)
		fmt.Printf("%s (%s): %d tools\n", b.Prefix, b.Endpoint, len(tools))
		for _, t := range tools {
			desc := t.Description()
			if desc == "" {
				desc = "(no description)"
			}
			fmt.Printf("  %-40s %s\n", t.Name(), desc)
		}
	}
	return nil
}

func runOnboard(cmd *cobra.Command, args []string) error {
	cfgDir := config.ConfigDir()
	cfgPath := config.ConfigPath()

	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		if err := config.SaveConfig(config.DefaultConfig()); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Printf("Created config: %s\n", cfgPath)
	} else {
		fmt.Printf("Config already exists: %s\n", cfgPath)
	}

	cfg, _ := config.LoadConfig()
	ws := cfg.Agent.Workspace
	if err := os.MkdirAll(ws, 0755); err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}

	writeIfNotExists(filepath.Join(ws, "AGENTS.md"), defaultAgentsMD)

	fmt.Printf("Workspace ready: %s\n", ws)
	fmt.Println("\nNext steps:")
	fmt.Printf("  1. Edit %s to set your API key and Make.com endpoint\n", cfgPath)
	fmt.Println("  2. Set MONDAY_API_TOKEN for Monday.com tools")
	fmt.Println("  3. Run 'boardclaw tools' to verify discovery")
	fmt.Println("  4. Run 'boardclaw agent' to chat")

	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Config: error (%v)\n", err)
		return nil
	}

	fmt.Printf("Config: %s\n", config.ConfigPath())
	fmt.Printf("Workspace: %s\n", cfg.Agent.Workspace)
	fmt.Printf("Model: %s\n", cfg.Agent.Model)
	fmt.Printf("Provider: %s\n", providerDisplay(cfg.Provider.Type))
	fmt.Printf("API Key: %s\n", maskKey(cfg.Provider.APIKey))

	fmt.Printf("Make endpoint: %s\n", endpointDisplay(cfg.Providers.Make.Endpoint))
	fmt.Printf("Monday endpoint: %s\n", endpointDisplay(cfg.Providers.Monday.Endpoint))
	if cfg.Providers.Monday.Token != "" {
		fmt.Println("Monday token: set")
	} else {
		fmt.Println("Monday token: not set (calls will be unauthenticated)")
	}

	fmt.Printf("Telegram: enabled=%v\n", cfg.Channels.Telegram.Enabled)
	return nil
}

// openCronStore loads the shared job store the gateway scheduler reads on
// startup. Changes made here are picked up the next time the gateway starts.
func openCronStore() (*cron.Service, error) {
	svc := cron.NewService(config.CronStorePath())
	if err := svc.Load(); err != nil {
		return nil, fmt.Errorf("load jobs: %w", err)
	}
	return svc, nil
}

func runCronAdd(cmd *cobra.Command, args []string) error {
	if cronMessageFlag == "" {
		return fmt.Errorf("--message is required")
	}

	var schedule cron.Schedule
	switch {
	case cronExprFlag != "" && cronEveryFlag > 0:
		return fmt.Errorf("--expr and --every are mutually exclusive")
	case cronExprFlag != "":
		schedule = cron.Schedule{Kind: "cron", Expr: cronExprFlag}
	case cronEveryFlag > 0:
		schedule = cron.Schedule{Kind: "every", EveryMs: cronEveryFlag}
	default:
		return fmt.Errorf("one of --expr or --every is required")
	}

	payload := cron.Payload{Message: cronMessageFlag}
	if cronChannelFlag != "" && cronToFlag != "" {
		payload.Deliver = true
		payload.Channel = cronChannelFlag
		payload.To = cronToFlag
	}

	name := cronNameFlag
	if name == "" {
		name = truncateName(cronMessageFlag, 32)
	}

	svc, err := openCronStore()
	if err != nil {
		return err
	}
	job, err := svc.AddJob(name, schedule, payload)
	if err != nil {
		return err
	}

	fmt.Printf("Added job %s (%s)\n", job.Name, job.ID)
	fmt.Println("Jobs run in gateway mode; restart 'boardclaw gateway' to pick up changes.")
	return nil
}

func runCronList(cmd *cobra.Command, args []string) error {
	svc, err := openCronStore()
	if err != nil {
		return err
	}

	jobs := svc.ListJobs()
	if len(jobs) == 0 {
		fmt.Println("No scheduled jobs.")
		return nil
	}

	for _, job := range jobs {
		when := job.Schedule.Expr
		if job.Schedule.Kind == "every" {
			when = fmt.Sprintf("every %dms", job.Schedule.EveryMs)
		}
		status := job.State.LastStatus
		if status == "" {
			status = "never run"
		}
		fmt.Printf("%s  %-24s %-20s [%s] %s\n", job.ID, job.Name, when, status, job.Payload.Message)
	}
	return nil
}

func runCronRemove(cmd *cobra.Command, args []string) error {
	svc, err := openCronStore()
	if err != nil {
		return err
	}
	if !svc.RemoveJob(args[0]) {
		return fmt.Errorf("no job with id %s", args[0])
	}
	fmt.Println("Removed.")
	return nil
}

func truncateName(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func providerDisplay(t string) string {
	if t == "" {
		return "anthropic (default)"
	}
	return t
}

func endpointDisplay(endpoint string) string {
	if endpoint == "" {
		return "not configured"
	}
	return endpoint
}

func maskKey(key string) string {
	switch {
	case key == "":
		return "not set"
	case len(key) > 8:
		return key[:4] + "..." + key[len(key)-4:]
	default:
		return "set"
	}
}

func writeIfNotExists(path, content string) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		_ = os.WriteFile(path, []byte(content), 0644)
		fmt.Printf("  Created: %s\n", path)
	}
}

const defaultAgentsMD = `# boardclaw Agent

You are a helpful assistant that can automate Monday.com boards by invoking
Make.com scenarios and Monday.com native actions. Keep answers brief.

## Guidelines
- Prefer monday_* tools for direct board actions
- Use make_* tools for multi-step automations
- Report tool failures plainly; do not retry on your own
`
