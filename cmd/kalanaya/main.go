package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/atharvmunot004/kalanaya/internal/calendar"
	"github.com/atharvmunot004/kalanaya/internal/config"
	"github.com/atharvmunot004/kalanaya/internal/gateway"
	"github.com/atharvmunot004/kalanaya/internal/oracle"
	"github.com/atharvmunot004/kalanaya/internal/pipeline"
)

// PipelineFactory creates a pipeline from config (allows mocking in tests).
type PipelineFactory func(cfg *config.Config) (*pipeline.Pipeline, error)

// DefaultPipelineFactory wires the Ollama oracle and the REST calendar
// backend from config.
func DefaultPipelineFactory(cfg *config.Config) (*pipeline.Pipeline, error) {
	if cfg.Calendar.BaseURL == "" {
		return nil, fmt.Errorf("calendar backend not configured. Run 'kalanaya onboard' or set KALANAYA_CALENDAR_URL")
	}

	oracleClient := oracle.NewOllamaClient(cfg.Oracle.BaseURL, time.Duration(cfg.Oracle.TimeoutSeconds)*time.Second)

	loc, err := time.LoadLocation(cfg.Pipeline.Timezone)
	if err != nil {
		loc = time.FixedZone("IST", 5*3600+30*60)
	}

	pipe, err := pipeline.New(pipeline.Options{
		Oracle: oracleClient,
		Backend: calendar.NewClient(calendar.Options{
			BaseURL:    cfg.Calendar.BaseURL,
			CalendarID: cfg.Calendar.CalendarID,
			Token:      cfg.Calendar.Token,
			Timezone:   loc,
			Timeout:    time.Duration(cfg.Calendar.TimeoutSeconds) * time.Second,
		}),
		Config: cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("create pipeline: %w", err)
	}
	return pipe, nil
}

// RunOptions for running the run/repl commands with custom dependencies
type RunOptions struct {
	PipelineFactory PipelineFactory
	Stdin           io.Reader
	Stdout          io.Writer
	Stderr          io.Writer
}

var rootCmd = &cobra.Command{
	Use:   "kalanaya",
	Short: "kalanaya - natural language calendar assistant",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process a single command or start an interactive session",
	RunE:  runRun,
}

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive session",
	RunE:  runRepl,
}

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Start the full gateway (channels + daily digest)",
	RunE:  runGateway,
}

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Initialize config",
	RunE:  runOnboard,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show kalanaya status",
	RunE:  runStatus,
}

var messageFlag string

func init() {
	runCmd.Flags().StringVarP(&messageFlag, "message", "m", "", "Single command to process")
	rootCmd.AddCommand(runCmd, replCmd, gatewayCmd, onboardCmd, statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runRun is the command handler that uses default options
func runRun(cmd *cobra.Command, args []string) error {
	opts := RunOptions{}
	if messageFlag == "" && len(args) > 0 {
		messageFlag = strings.Join(args, " ")
	}
	return runWithOptions(opts)
}

func runRepl(cmd *cobra.Command, args []string) error {
	messageFlag = ""
	return runWithOptions(RunOptions{})
}

// runWithOptions runs the pipeline with injectable dependencies for testing
func runWithOptions(opts RunOptions) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	factory := opts.PipelineFactory
	if factory == nil {
		factory = DefaultPipelineFactory
	}

	pipe, err := factory(cfg)
	if err != nil {
		return err
	}

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

	// Single command mode
	if messageFlag != "" {
		res, err := pipe.Process(ctx, messageFlag)
		if err != nil {
			fmt.Fprintln(stderr, pipe.DescribeError(err))
			return fmt.Errorf("command failed")
		}
		fmt.Fprintln(stdout, pipe.Describe(res))
		return nil
	}

	// REPL mode
	fmt.Fprintln(stdout, "kalanaya (type 'exit' to quit)")
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
		if input == "exit" || input == "quit" {
			break
		}

		res, err := pipe.Process(ctx, input)
		if err != nil {
			fmt.Fprintln(stderr, pipe.DescribeError(err))
			continue
		}
		fmt.Fprintln(stdout, pipe.Describe(res))
	}
	return nil
}

func runGateway(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cfg.Calendar.BaseURL == "" {
		return fmt.Errorf("calendar backend not configured. Run 'kalanaya onboard' or set KALANAYA_CALENDAR_URL")
	}

	gw, err := gateway.New(cfg, gateway.Options{})
	if err != nil {
		return fmt.Errorf("create gateway: %w", err)
	}

	return gw.Run(context.Background())
}

func runOnboard(cmd *cobra.Command, args []string) error {
	cfgPath := config.ConfigPath()

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		if err := config.SaveConfig(config.DefaultConfig()); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Printf("Created config: %s\n", cfgPath)
	} else {
		fmt.Printf("Config already exists: %s\n", cfgPath)
	}

	fmt.Println("\nNext steps:")
	fmt.Printf("  1. Edit %s to set the calendar URL and token\n", cfgPath)
	fmt.Println("  2. Make sure Ollama is running with the parser models pulled")
	fmt.Println("  3. Run 'kalanaya run -m \"Schedule a meeting tomorrow at 2pm\"' to test")

	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Config: error (%v)\n", err)
		return nil
	}

	fmt.Printf("Config: %s\n", config.ConfigPath())
	fmt.Printf("Ollama: %s\n", cfg.Oracle.BaseURL)
	fmt.Printf("Models: intent=%s entity=%s time=%s\n",
		cfg.Oracle.IntentModel, cfg.Oracle.EntityModel, cfg.Oracle.TimeModel)
	fmt.Printf("Timezone: %s\n", cfg.Pipeline.Timezone)
	fmt.Printf("Confidence threshold: %.2f\n", cfg.Pipeline.ConfidenceThreshold)

	if cfg.Calendar.BaseURL != "" {
		fmt.Printf("Calendar: %s (calendar %s)\n", cfg.Calendar.BaseURL, cfg.Calendar.CalendarID)
	} else {
		fmt.Println("Calendar: not configured")
	}
	if cfg.Calendar.Token != "" && len(cfg.Calendar.Token) > 8 {
		masked := cfg.Calendar.Token[:4] + "..." + cfg.Calendar.Token[len(cfg.Calendar.Token)-4:]
		fmt.Printf("Calendar token: %s\n", masked)
	} else if cfg.Calendar.Token != "" {
		fmt.Println("Calendar token: set")
	} else {
		fmt.Println("Calendar token: not set")
	}

	fmt.Printf("Telegram: enabled=%v\n", cfg.Channels.Telegram.Enabled)
	fmt.Printf("Digest: enabled=%v at=%s\n", cfg.Digest.Enabled, cfg.Digest.At)

	return nil
}
