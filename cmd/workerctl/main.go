// Command workerctl is a minimal driver that resolves a worker file, runs it
// once against a single input, and prints the result. Argument parsing and
// interactive UI are intentionally out of scope for the core runtime; this
// binary exists to exercise the wiring end to end, not to be a full CLI.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/zby/golem-forge-sub002/worker"
	"github.com/zby/golem-forge-sub002/worker/approval"
	"github.com/zby/golem-forge-sub002/worker/approval/redisstore"
	"github.com/zby/golem-forge-sub002/worker/hooks"
	"github.com/zby/golem-forge-sub002/worker/interrupt"
	"github.com/zby/golem-forge-sub002/worker/modelprovider/anthropic"
	"github.com/zby/golem-forge-sub002/worker/modelprovider/ratelimit"
	"github.com/zby/golem-forge-sub002/worker/registry"
	"github.com/zby/golem-forge-sub002/worker/runtime"
	"github.com/zby/golem-forge-sub002/worker/sandbox"
	"github.com/zby/golem-forge-sub002/worker/telemetry"
	"github.com/zby/golem-forge-sub002/worker/toolsets"
	"github.com/zby/golem-forge-sub002/worker/tools"
	"github.com/zby/golem-forge-sub002/worker/transcript"
	"github.com/zby/golem-forge-sub002/worker/transcript/inmem"
	"github.com/zby/golem-forge-sub002/worker/transcript/mongostore"
	cluelog "goa.design/clue/log"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

func main() {
	var (
		workerDir = flag.String("dir", ".", "directory to search for <name>.worker.md files")
		workerNm  = flag.String("worker", "", "worker name to run (required)")
		input     = flag.String("input", "", "input text to send the worker")
		mode      = flag.String("approval-mode", string(approval.ModeInteractive), "interactive, approve_all, or strict")
		model     = flag.String("model", "claude-sonnet-4-5", "anthropic model identifier")
		maxTokens = flag.Int("max-tokens", 4096, "max completion tokens per model call")
		tpm       = flag.Float64("tokens-per-minute", 60000, "model call rate limit budget")
		mongoURI  = flag.String("mongo-uri", "", "MongoDB URI for durable run transcripts (empty uses an in-memory store)")
		mongoDB   = flag.String("mongo-database", "workerctl", "database name for the transcript store, when -mongo-uri is set")
		redisAddr = flag.String("redis-addr", "", "Redis address for durable allowAlways approval decisions (empty keeps them process-local)")
	)
	flag.Parse()

	if *workerNm == "" {
		log.Fatal("workerctl: -worker is required")
	}

	reg := registry.New(*workerDir)
	def, err := reg.Resolve(*workerNm)
	if err != nil {
		log.Fatalf("workerctl: resolving worker: %v", err)
	}

	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		log.Fatal("workerctl: ANTHROPIC_API_KEY is required")
	}
	llm, err := anthropic.NewFromAPIKey(apiKey, anthropic.Options{Model: *model, MaxTokens: *maxTokens})
	if err != nil {
		log.Fatalf("workerctl: constructing model client: %v", err)
	}
	limitedLLM := ratelimit.New(*tpm, *tpm).Wrap(llm)

	bus := hooks.NewBus()
	if _, err := bus.Register(hooks.SubscriberFunc(printEvent)); err != nil {
		log.Fatalf("workerctl: registering event printer: %v", err)
	}

	store, err := transcriptStore(*mongoURI, *mongoDB)
	if err != nil {
		log.Fatalf("workerctl: constructing transcript store: %v", err)
	}
	recorder := transcript.NewRecorder(store, uuid.NewString())
	if _, err := bus.Register(recorder); err != nil {
		log.Fatalf("workerctl: registering transcript recorder: %v", err)
	}

	sig := interrupt.New()

	memory, err := approvalMemory(*redisAddr)
	if err != nil {
		log.Fatalf("workerctl: constructing approval memory: %v", err)
	}
	ctrl, err := approval.NewController(approval.Mode(*mode), memory, bus, sig)
	if err != nil {
		log.Fatalf("workerctl: constructing approval controller: %v", err)
	}
	defer ctrl.Close()

	builtTools, err := buildTools(def, bus)
	if err != nil {
		log.Fatalf("workerctl: building toolsets: %v", err)
	}

	r, err := runtime.New(runtime.Options{
		Definition: def,
		Model:      limitedLLM,
		Tools:      builtTools,
		Approval:   ctrl,
		Bus:        bus,
		Resolver:   reg,
		Signal:     sig,
		Logger:     telemetry.NewClueLogger(),
		Metrics:    telemetry.NewClueMetrics(),
		Tracer:     telemetry.NewClueTracer(),
	})
	if err != nil {
		log.Fatalf("workerctl: constructing runner: %v", err)
	}
	if err := r.Initialize(); err != nil {
		log.Fatalf("workerctl: initializing runner: %v", err)
	}

	format := cluelog.FormatJSON
	if cluelog.IsTerminal() {
		format = cluelog.FormatTerminal
	}
	ctx := cluelog.Context(context.Background(), cluelog.WithFormat(format))

	result := r.Run(ctx, *input, nil)
	if result.Err != nil {
		log.Fatalf("workerctl: run failed: %v", result.Err)
	}
	fmt.Println(result.Response)
}

// buildTools constructs every toolset the worker file declares through
// toolsets.Default, except "workers": runtime.Runner builds the delegation
// tools itself from Options.Resolver. The "filesystem" toolset is skipped
// when the worker declares no Sandbox, since there is nothing to scope it to.
func buildTools(def *worker.WorkerDefinition, _ hooks.Bus) ([]*tools.Tool, error) {
	var sb sandbox.FileOperations
	if def.Sandbox != nil {
		s, err := sandbox.New(def.Sandbox)
		if err != nil {
			return nil, fmt.Errorf("constructing sandbox: %w", err)
		}
		sb = s
	}

	var out []*tools.Tool
	for name, cfg := range def.Toolsets {
		if name == "workers" || (name == "filesystem" && sb == nil) {
			continue
		}
		built, err := toolsets.Default.Build([]string{name}, sb, cfg)
		if err != nil {
			return nil, fmt.Errorf("toolset %q: %w", name, err)
		}
		out = append(out, built...)
	}
	return out, nil
}

// transcriptStore returns a MongoDB-backed transcript.Store when mongoURI is
// set, otherwise a process-local in-memory one.
func transcriptStore(mongoURI, database string) (transcript.Store, error) {
	if mongoURI == "" {
		return inmem.New(), nil
	}
	client, err := mongodriver.Connect(options.Client().ApplyURI(mongoURI))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}
	return mongostore.New(mongostore.Options{Client: client, Database: database})
}

// approvalMemory returns nil (process-local memory) when redisAddr is
// empty, otherwise a Composite that durably persists allowAlways decisions
// to Redis while keeping allowSession decisions process-local.
func approvalMemory(redisAddr string) (approval.Memory, error) {
	if redisAddr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := redisstore.Ping(context.Background(), rdb); err != nil {
		return nil, err
	}
	durable, err := redisstore.New(rdb, "workerctl:approvals")
	if err != nil {
		return nil, err
	}
	return &redisstore.Composite{Session: approval.NewMemory(), Durable: durable}, nil
}

func printEvent(_ context.Context, event hooks.Event) error {
	fmt.Fprintf(os.Stderr, "[%s] %s depth=%d\n", event.WorkerID(), event.Type(), event.Depth())
	return nil
}
