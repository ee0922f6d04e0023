// Command accord runs the negotiation engine.
//
// Usage:
//
//	accord demo                       # run a sample negotiation
//	accord demo --config config.yaml  # with a config file
//	accord version                    # show version information
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/accord/config"
	"github.com/BaSui01/accord/negotiation"
	"github.com/BaSui01/accord/persistence"
	"github.com/BaSui01/accord/types"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "version":
		fmt.Printf("accord %s\n", version)
	case "demo":
		fs := flag.NewFlagSet("demo", flag.ExitOnError)
		configPath := fs.String("config", "", "path to YAML config file")
		_ = fs.Parse(os.Args[2:])
		if err := runDemo(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: accord <demo|version> [flags]")
}

func runDemo(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := buildLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	log, err := persistence.NewLog(cfg.Store, logger)
	if err != nil {
		return err
	}
	defer func() { _ = log.Close() }()

	opts := negotiation.Options{
		Logger:           logger,
		Log:              log,
		DefaultMaxRounds: cfg.Engine.MaxRounds,
		DefaultTimeout:   cfg.Engine.Timeout,
		DefaultStrategy:  cfg.Engine.Strategy,
	}
	if cfg.Metrics.Enabled {
		opts.MetricsNamespace = cfg.Metrics.Namespace
	}
	engine := negotiation.NewEngine(negotiation.NewRegistry(logger), opts)

	if cfg.Engine.SweepInterval > 0 {
		sweeper := negotiation.NewSweeper(engine, cfg.Engine.SweepInterval, logger)
		sweeper.Start()
		defer sweeper.Stop()
	}

	ctx := context.Background()

	participants := []*types.Participant{
		{
			ID:       "supplier",
			Name:     "Supplier",
			Priority: 2,
			Preferences: types.Proposal{
				"price":    types.Num(120),
				"delivery": types.Str("standard"),
			},
			Constraints: map[string]types.Constraint{
				"price": types.AtLeast(90),
			},
		},
		{
			ID:       "buyer",
			Name:     "Buyer",
			Priority: 1,
			Preferences: types.Proposal{
				"price":    types.Num(80),
				"delivery": types.Str("express"),
			},
		},
		{
			ID:       "logistics",
			Name:     "Logistics",
			Priority: 1,
			Preferences: types.Proposal{
				"delivery": types.Str("standard"),
				"insured":  types.Boolean(true),
			},
		},
	}
	for _, p := range participants {
		if err := engine.RegisterParticipant(p); err != nil {
			return err
		}
	}

	engine.RegisterObserver(negotiation.OutcomeObserverFunc(func(o *types.Outcome) {
		logger.Info("outcome observed",
			zap.String("negotiation", o.NegotiationID),
			zap.String("status", string(o.Status)))
	}))

	id, err := engine.InitiateNegotiation(ctx, negotiation.InitiateRequest{
		InitiatorID:    "supplier",
		ParticipantIDs: []string{"buyer", "logistics"},
		Subject:        "component supply contract",
		InitialProposal: types.Proposal{
			"price":    types.Num(120),
			"delivery": types.Str("standard"),
			"insured":  types.Boolean(false),
		},
		MaxRounds: 2,
	})
	if err != nil {
		return err
	}

	steps := []struct {
		sender  string
		msgType types.MessageType
		content types.Proposal
	}{
		{"buyer", types.MessageCounterProposal, types.Proposal{
			"price":    types.Num(85),
			"delivery": types.Str("express"),
			"insured":  types.Boolean(true),
		}},
		{"logistics", types.MessageCompromise, types.Proposal{
			"price":    types.Num(100),
			"delivery": types.Str("standard"),
			"insured":  types.Boolean(true),
		}},
		{"buyer", types.MessageCounterProposal, types.Proposal{
			"price":    types.Num(95),
			"delivery": types.Str("standard"),
			"insured":  types.Boolean(true),
		}},
		{"logistics", types.MessageCounterProposal, types.Proposal{
			"price":    types.Num(105),
			"delivery": types.Str("standard"),
			"insured":  types.Boolean(true),
		}},
	}
	for _, step := range steps {
		if _, err := engine.SubmitResponse(ctx, id, step.sender, step.msgType, step.content); err != nil {
			return err
		}
	}

	report, err := engine.AnalyzeNegotiation(id)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func buildLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", cfg.Level, err)
	}

	var zc zap.Config
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
