// Command anketa is the inspection CLI for the industry knowledge base:
// classify text, render phase context, dump profiles and append learnings
// without going through the voice pipeline.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"anketa/internal/assemble"
	"anketa/internal/config"
	"anketa/internal/knowledge"
	"anketa/internal/logging"
	"anketa/internal/observability"
	"anketa/internal/shared/token"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, red("error: ")+err.Error())
		os.Exit(1)
	}
}

func newService() (*knowledge.Service, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	return knowledge.New(knowledge.Config{
		CategoriesDir:   cfg.CategoriesDir,
		TemplatePath:    cfg.TemplatePath,
		TTL:             time.Duration(cfg.CacheTTLSeconds) * time.Second,
		CacheSize:       cfg.CacheSize,
		Budget:          cfg.ContextBudget,
		LearningsWindow: cfg.LearningsWindow,
		Logger:          logger,
		Metrics:         observability.NewMetrics(),
	})
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "anketa",
		Short:         "Industry knowledge base inspector",
		Long:          "Inspect and exercise the business-onboarding knowledge base: classification, context assembly, profiles and feedback.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newDetectCommand(),
		newContextCommand(),
		newVoiceCommand(),
		newProfileCommand(),
		newLearnCommand(),
		newCountriesCommand(),
	)
	return root
}

func newDetectCommand() *cobra.Command {
	var phone string
	cmd := &cobra.Command{
		Use:   "detect <text>",
		Short: "Classify free text into an industry category",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService()
			if err != nil {
				return err
			}
			text := strings.Join(args, " ")
			ctx := context.Background()

			id, confidence := svc.DetectIndustryWithConfidence(ctx, text)
			if id == "" {
				fmt.Println(yellow("no category matched"))
				return nil
			}
			fmt.Printf("%s %s %s\n", bold(id), gray("confidence"), green(fmt.Sprintf("%.2f", confidence)))
			if mentions := svc.FindMentions(ctx, text, id); len(mentions) > 0 {
				fmt.Printf("%s %s\n", gray("matched on:"), strings.Join(mentions, ", "))
			}
			if region, country := svc.DetectCountry(phone, text, ""); country != "" {
				fmt.Printf("%s %s/%s\n", gray("locale:"), region, country)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&phone, "phone", "", "caller phone number for locale detection")
	return cmd
}

func newContextCommand() *cobra.Command {
	var phase string
	var budget bool
	cmd := &cobra.Command{
		Use:   "context <category>",
		Short: "Render the phase context block for a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService()
			if err != nil {
				return err
			}
			ctx := context.Background()
			p := svc.GetProfile(ctx, args[0])
			if p == nil {
				return fmt.Errorf("unknown category %q", args[0])
			}
			var block string
			if budget {
				block = svc.VoiceContextFull(ctx, phase, nil, p)
			} else {
				block = svc.GetContextForInterview(ctx, phase, nil, p)
			}
			if block == "" {
				fmt.Println(yellow("phase renders empty"))
				return nil
			}
			fmt.Println(block)
			fmt.Fprintf(os.Stderr, "%s\n", gray(fmt.Sprintf("%d chars, %d tokens", len([]rune(block)), token.Count(block))))
			return nil
		},
	}
	cmd.Flags().StringVar(&phase, "phase", "discovery", "consultation phase")
	cmd.Flags().BoolVar(&budget, "capped", false, "apply the voice context budget")
	return cmd
}

func newVoiceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "voice <text>",
		Short: "Build the compact voice-turn context from client text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService()
			if err != nil {
				return err
			}
			history := []assemble.DialogueTurn{{Role: assemble.RoleUser, Content: strings.Join(args, " ")}}
			line := svc.VoiceContext(context.Background(), history)
			if line == "" {
				fmt.Println(yellow("no category matched"))
				return nil
			}
			fmt.Println(line)
			return nil
		},
	}
}

func newProfileCommand() *cobra.Command {
	var region, country string
	cmd := &cobra.Command{
		Use:   "profile <category>",
		Short: "Show a resolved category profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService()
			if err != nil {
				return err
			}
			ctx := context.Background()
			p := svc.GetProfile(ctx, args[0])
			if region != "" && country != "" {
				p = svc.GetRegionalProfile(ctx, region, country, args[0])
			}
			if p == nil {
				return fmt.Errorf("unknown category %q", args[0])
			}
			fmt.Printf("%s %s\n", bold(p.ID), gray(p.Version))
			if p.Name != "" {
				fmt.Println(p.Name)
			}
			if p.Country != "" {
				fmt.Printf("%s %s/%s %s %s\n", gray("locale:"), p.Region, p.Country, p.Language, p.Currency)
			}
			fmt.Printf("%s %d pains, %d functions, %d integrations, %d learnings\n",
				cyan("content:"), len(p.PainPoints), len(p.Functions), len(p.Integrations), len(p.Learnings))
			if p.Metrics.Runs > 0 {
				fmt.Printf("%s %.2f over %d runs\n", cyan("avg score:"), p.Metrics.AvgScore, p.Metrics.Runs)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&region, "region", "", "region code")
	cmd.Flags().StringVar(&country, "country", "", "country code")
	return cmd
}

func newLearnCommand() *cobra.Command {
	var source string
	var success bool
	cmd := &cobra.Command{
		Use:   "learn <category> <insight>",
		Short: "Append a learning to a category",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService()
			if err != nil {
				return err
			}
			ctx := context.Background()
			insight := strings.Join(args[1:], " ")
			if success {
				svc.RecordSuccess(ctx, args[0], insight, source)
			} else {
				svc.RecordLearning(ctx, args[0], insight, source)
			}
			fmt.Println(green("recorded"))
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "cli", "learning source tag")
	cmd.Flags().BoolVar(&success, "success", false, "tag the learning as a success story")
	return cmd
}

func newCountriesCommand() *cobra.Command {
	var region string
	cmd := &cobra.Command{
		Use:   "countries",
		Short: "List known countries",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService()
			if err != nil {
				return err
			}
			for _, code := range svc.Countries().GetAllCountries(region) {
				meta, _ := svc.Countries().GetCountryMeta(code)
				fmt.Printf("%s  %-6s %-22s %s\n", bold(code), meta.Region, meta.Name, gray(strings.Join(meta.PhoneCodes, ", ")))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&region, "region", "", "filter by region code")
	return cmd
}
