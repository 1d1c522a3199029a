package bootstrap

import (
	"context"
	"fmt"

	"fusion-agent-be/internal/config"
	"fusion-agent-be/internal/controller"
	"fusion-agent-be/internal/pkg/logger"
	"fusion-agent-be/internal/repository/memory"
	"fusion-agent-be/internal/repository/unitofwork"
	"fusion-agent-be/internal/service"
	"fusion-agent-be/pkg/agent"
	"fusion-agent-be/pkg/agent/adapter"
	"fusion-agent-be/pkg/agent/domain"
	"fusion-agent-be/pkg/agent/formatter"
	"fusion-agent-be/pkg/agent/matcher"
	"fusion-agent-be/pkg/llm"
	"fusion-agent-be/pkg/llm/factory"
	"fusion-agent-be/pkg/lock"
	pktNats "fusion-agent-be/pkg/nats"
	"fusion-agent-be/pkg/report"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const bootstrapModule = "BOOTSTRAP"

type Container struct {
	// Controllers
	AgentController controller.IAgentController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	AgentService service.IAgentService
	Pipeline     *agent.Pipeline
	Profiles     *domain.Registry
	Logger       logger.ILogger

	closers []func()
}

// Options overrides the collaborators built from configuration. Zero values fall back to config.
type Options struct {
	Logger   logger.ILogger
	Oracle   llm.Completer
	Executor agent.ReportExecutor
}

func NewContainer(db *gorm.DB, cfg *config.Config, opts ...Options) (*Container, error) {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}

	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := o.Logger
	if sysLogger == nil {
		sysLogger = logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	}
	c := &Container{Logger: sysLogger}

	profiles, err := domain.Load(cfg.Agent.ProfilesPath)
	if err != nil {
		return nil, fmt.Errorf("load agent profiles: %w", err)
	}
	c.Profiles = profiles

	// 2. Event Bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, func() { pubSub.Close() })

	// 3. External collaborators
	oracle := o.Oracle
	if oracle == nil {
		provider, err := factory.NewLLMProvider(context.Background(), factory.Settings{
			Provider:   cfg.Ai.LLMProvider,
			Model:      cfg.Ai.LLMModel,
			BaseURL:    cfg.Ai.BaseURL,
			APIKey:     cfg.Ai.APIKey,
			APIVersion: cfg.Ai.APIVersion,
			Timeout:    cfg.Ai.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize LLM provider: %w", err)
		}
		oracle = provider
		sysLogger.Info(bootstrapModule, "LLM provider ready", map[string]interface{}{
			"provider": cfg.Ai.LLMProvider,
			"model":    cfg.Ai.LLMModel,
		})
	}

	executor := o.Executor
	if executor == nil {
		executor = report.NewBIPExecutor(report.Config{
			Endpoint:      cfg.Report.Endpoint,
			Username:      cfg.Report.Username,
			Password:      cfg.Report.Password,
			ReportPath:    cfg.Report.ReportPath,
			ParameterName: cfg.Report.ParameterName,
			Timeout:       cfg.Report.Timeout,
		}, sysLogger)
	}

	locker := c.threadLocker(cfg)

	var natsPub *pktNats.Publisher
	if cfg.Nats.Enabled {
		natsPub, err = pktNats.NewPublisher(cfg.Nats.URL)
		if err != nil {
			sysLogger.Warn(bootstrapModule, "Failed to connect to NATS, events stay in process", map[string]interface{}{"error": err.Error()})
			natsPub = nil
		} else {
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	// 4. Services
	store := service.NewConversationStore(uowFactory, sysLogger)
	catalog := service.NewContextCatalog(uowFactory, memory.NewContextCache(cfg.Agent.CatalogCacheTTL), sysLogger)

	c.Pipeline = agent.NewPipeline(agent.Dependencies{
		Oracle:    oracle,
		Profiles:  profiles,
		Resolver:  matcher.New(catalog, oracle, sysLogger),
		Adapter:   adapter.New(oracle, cfg.Agent.StrictAliasCheck, sysLogger),
		Executor:  executor,
		Formatter: formatter.New(oracle, sysLogger),
		Store:     store,
		Locker:    locker,
		Logger:    sysLogger,
		BaseURL:   cfg.App.BaseURL,
	})

	publisherService := service.NewPublisherService(cfg.Agent.EventsTopic, pubSub)
	var forwarder service.EventForwarder
	if natsPub != nil {
		forwarder = natsPub
	}
	c.ConsumerService = service.NewConsumerService(pubSub, cfg.Agent.EventsTopic, uowFactory, forwarder, sysLogger)

	c.AgentService = service.NewAgentService(c.Pipeline, store, profiles, publisherService, sysLogger)

	// 5. Controllers
	c.AgentController = controller.NewAgentController(c.AgentService)

	return c, nil
}

func (c *Container) threadLocker(cfg *config.Config) agent.ThreadLocker {
	switch cfg.Agent.ThreadLock {
	case "none":
		return nil
	case "redis":
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			c.Logger.Warn(bootstrapModule, "Failed to parse Redis URL, using direct Addr", map[string]interface{}{"error": err.Error()})
			opt = &redis.Options{Addr: cfg.Redis.URL}
		}
		rdb := redis.NewClient(opt)
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			c.Logger.Warn(bootstrapModule, "Redis unreachable, falling back to in-process thread lock", map[string]interface{}{"error": err.Error()})
			rdb.Close()
			return lock.NewLocal()
		}
		c.closers = append(c.closers, func() { rdb.Close() })
		return lock.NewRedis(rdb, cfg.Agent.ThreadLockTTL)
	default:
		return lock.NewLocal()
	}
}

// Close releases broker and cache connections in reverse order.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.Logger.Sync()
}
