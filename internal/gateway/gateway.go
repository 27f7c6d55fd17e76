// Package gateway runs the long-lived assistant: chat channels feed
// utterances to the pipeline through the bus, replies go back out, and
// the daily digest runs alongside. One pipeline instance serves the
// gateway because utterances are processed strictly one at a time.
package gateway

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atharvmunot004/kalanaya/internal/bus"
	"github.com/atharvmunot004/kalanaya/internal/calendar"
	"github.com/atharvmunot004/kalanaya/internal/channel"
	"github.com/atharvmunot004/kalanaya/internal/config"
	"github.com/atharvmunot004/kalanaya/internal/digest"
	"github.com/atharvmunot004/kalanaya/internal/oracle"
	"github.com/atharvmunot004/kalanaya/internal/pipeline"
)

// Options for running a Gateway.
type Options struct {
	Oracle     oracle.Client    // nil means Ollama from config
	Backend    calendar.Backend // nil means REST client from config
	Clock      pipeline.Clock
	SignalChan chan os.Signal // for testing signal handling
}

type Gateway struct {
	cfg      *config.Config
	pipe     *pipeline.Pipeline
	bus      *bus.MessageBus
	channels *channel.ChannelManager
	digest   *digest.Service
	sigCh    chan os.Signal
}

func New(cfg *config.Config, opts Options) (*Gateway, error) {
	oracleClient := opts.Oracle
	if oracleClient == nil {
		oracleClient = oracle.NewOllamaClient(cfg.Oracle.BaseURL, time.Duration(cfg.Oracle.TimeoutSeconds)*time.Second)
	}

	backend := backendOrDefault(opts.Backend, cfg, pipelineLocation(cfg))
	pipe, err := pipeline.New(pipeline.Options{
		Oracle:  oracleClient,
		Backend: backend,
		Config:  cfg,
		Clock:   opts.Clock,
	})
	if err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}

	b := bus.NewMessageBus(100)
	channels, err := channel.NewChannelManager(cfg.Channels, b)
	if err != nil {
		return nil, fmt.Errorf("init channels: %w", err)
	}

	g := &Gateway{
		cfg:      cfg,
		pipe:     pipe,
		bus:      b,
		channels: channels,
		sigCh:    opts.SignalChan,
	}

	if cfg.Digest.Enabled {
		g.digest = digest.NewService(backend, pipe.Location(), cfg.Digest.At, g.broadcastDigest)
	}

	return g, nil
}

// Run blocks until SIGINT/SIGTERM or context cancellation.
func (g *Gateway) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := g.channels.StartAll(ctx); err != nil {
		return fmt.Errorf("start channels: %w", err)
	}
	defer g.channels.StopAll()

	if g.digest != nil {
		if err := g.digest.Start(); err != nil {
			return fmt.Errorf("start digest: %w", err)
		}
		defer g.digest.Stop()
	}

	sigCh := g.sigCh
	if sigCh == nil {
		sigCh = make(chan os.Signal, 1)
	}
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	log.Printf("[gateway] running with channels=%v digest=%v", g.channels.EnabledChannels(), g.digest != nil)

	for {
		select {
		case msg := <-g.bus.Inbound():
			g.handle(ctx, msg)
		case sig := <-sigCh:
			log.Printf("[gateway] received %v, shutting down", sig)
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// handle runs one utterance through the pipeline and replies on the
// originating channel. Pipeline errors become user-facing text; they
// never bring the gateway down.
func (g *Gateway) handle(ctx context.Context, msg bus.InboundMessage) {
	log.Printf("[gateway] %s message from %s", msg.Channel, msg.SenderID)

	reply := ""
	res, err := g.pipe.Process(ctx, msg.Content)
	if err != nil {
		reply = g.pipe.DescribeError(err)
	} else {
		reply = g.pipe.Describe(res)
	}

	g.bus.PublishOutbound(bus.OutboundMessage{
		Channel: msg.Channel,
		ChatID:  msg.ChatID,
		Content: reply,
	})
}

func (g *Gateway) broadcastDigest(text string) {
	if g.cfg.Channels.Telegram.Enabled && g.cfg.Channels.Telegram.NotifyChatID != "" {
		g.bus.PublishOutbound(bus.OutboundMessage{
			Channel: "telegram",
			ChatID:  g.cfg.Channels.Telegram.NotifyChatID,
			Content: text,
		})
		return
	}
	log.Printf("[gateway] digest ready but no notify destination configured")
}

func backendOrDefault(backend calendar.Backend, cfg *config.Config, loc *time.Location) calendar.Backend {
	if backend != nil {
		return backend
	}
	return calendar.NewClient(calendar.Options{
		BaseURL:    cfg.Calendar.BaseURL,
		CalendarID: cfg.Calendar.CalendarID,
		Token:      cfg.Calendar.Token,
		Timezone:   loc,
		Timeout:    time.Duration(cfg.Calendar.TimeoutSeconds) * time.Second,
	})
}

func pipelineLocation(cfg *config.Config) *time.Location {
	if loc, err := time.LoadLocation(cfg.Pipeline.Timezone); err == nil {
		return loc
	}
	return time.FixedZone("IST", 5*3600+30*60)
}
