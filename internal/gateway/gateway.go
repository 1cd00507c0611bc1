package gateway

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/cexll/agentsdk-go/pkg/api"
	"github.com/stellarlinkco/boardclaw/internal/agent"
	"github.com/stellarlinkco/boardclaw/internal/bus"
	"github.com/stellarlinkco/boardclaw/internal/channel"
	"github.com/stellarlinkco/boardclaw/internal/config"
	"github.com/stellarlinkco/boardclaw/internal/cron"
	"github.com/stellarlinkco/boardclaw/internal/mcp"
)

const defaultBufSize = 100

// Options for creating a Gateway
type Options struct {
	RuntimeFactory agent.Factory
	SignalChan     chan os.Signal // for testing signal handling
}

// Gateway runs the long-lived mode: chat channels and scheduled jobs all
// talking to one agent runtime with the remote provider tools registered.
type Gateway struct {
	cfg        *config.Config
	bus        *bus.MessageBus
	runtime    agent.Runtime
	channels   *channel.Manager
	cron       *cron.Service
	signalChan chan os.Signal
}

// New creates a Gateway with default options
func New(cfg *config.Config) (*Gateway, error) {
	return NewWithOptions(cfg, Options{})
}

// NewWithOptions creates a Gateway with custom options for testing
func NewWithOptions(cfg *config.Config, opts Options) (*Gateway, error) {
	g := &Gateway{
		cfg: cfg,
		bus: bus.NewMessageBus(defaultBufSize),
	}

	tools := mcp.DiscoverAll(context.Background(), agent.Bindings(cfg))
	sysPrompt := agent.BuildSystemPrompt(cfg.Agent.Workspace)

	factory := opts.RuntimeFactory
	if factory == nil {
		factory = agent.New
	}
	rt, err := factory(cfg, tools, sysPrompt)
	if err != nil {
		return nil, err
	}
	g.runtime = rt

	g.signalChan = opts.SignalChan

	g.cron = cron.NewService(config.CronStorePath())
	g.cron.OnJob = func(job cron.CronJob) (string, error) {
		result, err := g.runAgent(context.Background(), job.Payload.Message, "cron:"+job.ID)
		if err != nil {
			return "", err
		}
		if job.Payload.Deliver && job.Payload.Channel != "" {
			g.bus.Outbound <- bus.OutboundMessage{
				Channel: job.Payload.Channel,
				ChatID:  job.Payload.To,
				Content: result,
			}
		}
		return result, nil
	}

	chMgr, err := channel.NewManager(cfg.Channels, g.bus)
	if err != nil {
		return nil, fmt.Errorf("create channel manager: %w", err)
	}
	g.channels = chMgr

	return g, nil
}

func (g *Gateway) runAgent(ctx context.Context, prompt, sessionID string) (string, error) {
	resp, err := g.runtime.Run(ctx, api.Request{
		Prompt:    prompt,
		SessionID: sessionID,
	})
	if err != nil {
		return "", err
	}
	if resp == nil || resp.Result == nil {
		return "", nil
	}
	return resp.Result.Output, nil
}

func (g *Gateway) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go g.bus.DispatchOutbound(ctx)

	if err := g.channels.StartAll(ctx); err != nil {
		return fmt.Errorf("start channels: %w", err)
	}
	log.Printf("[gateway] channels started: %v", g.channels.EnabledChannels())

	if err := g.cron.Start(ctx); err != nil {
		log.Printf("[gateway] cron start warning: %v", err)
	}

	go g.processLoop(ctx)

	log.Printf("[gateway] running")

	sigCh := g.signalChan
	if sigCh == nil {
		sigCh = make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	}
	<-sigCh

	log.Printf("[gateway] shutting down...")
	return g.Shutdown()
}

// processLoop handles inbound chat messages one at a time. A failed turn
// produces an apology reply; it never stops the loop.
func (g *Gateway) processLoop(ctx context.Context) {
	for {
		select {
		case msg := <-g.bus.Inbound:
			log.Printf("[gateway] inbound from %s/%s: %s", msg.Channel, msg.SenderID, truncate(msg.Content, 80))

			result, err := g.runAgent(ctx, msg.Content, msg.SessionKey())
			if err != nil {
				log.Printf("[gateway] agent error: %v", err)
				result = "Sorry, I encountered an error processing your message."
			}

			if strings.TrimSpace(result) != "" {
				g.bus.Outbound <- bus.OutboundMessage{
					Channel: msg.Channel,
					ChatID:  msg.ChatID,
					Content: result,
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

func (g *Gateway) Shutdown() error {
	g.cron.Stop()
	_ = g.channels.StopAll()
	if g.runtime != nil {
		g.runtime.Close()
	}
	log.Printf("[gateway] shutdown complete")
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
