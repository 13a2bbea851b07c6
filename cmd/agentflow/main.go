// Command agentflow loads a workflow document and runs it once, wiring
// the model/storage/quantum/http collaborators from environment config.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/dshills/agentflow/config"
	"github.com/dshills/agentflow/graph"
	"github.com/dshills/agentflow/graph/emit"
	"github.com/dshills/agentflow/httpclient"
	"github.com/dshills/agentflow/inference"
	"github.com/dshills/agentflow/model"
	"github.com/dshills/agentflow/model/anthropic"
	"github.com/dshills/agentflow/model/google"
	"github.com/dshills/agentflow/model/openai"
	"github.com/dshills/agentflow/nodes" // side-effecting init() registers built-in node types
	"github.com/dshills/agentflow/rng"
	"github.com/dshills/agentflow/storage"
	"github.com/dshills/agentflow/storage/memstore"
	"github.com/dshills/agentflow/storage/sqlstore"
	"github.com/dshills/agentflow/tool"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatalf("usage: agentflow <workflow.json>")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		log.Fatalf("reading workflow document: %v", err)
	}
	doc, err := graph.ParseCallerDocument(data)
	if err != nil {
		log.Fatalf("parsing workflow document: %v", err)
	}
	g := graph.FromCallerDocument(doc)

	store, err := buildStore(cfg)
	if err != nil {
		log.Fatalf("building storage backend: %v", err)
	}

	genModel, err := buildModel(cfg)
	if err != nil {
		log.Fatalf("building model adapter: %v", err)
	}
	queue := inference.New(genModel, cfg.MaxQueueSize)
	queue.Start()
	defer queue.Stop()

	container := &nodes.Container{
		Inference: queue,
		Store:     store,
		HTTP:      buildHTTPTool(cfg),
		Quantum:   nodes.NewQuantumTool(buildQuantumSource(cfg)),
	}

	metrics := graph.NewMetrics(prometheus.DefaultRegisterer)
	emitter := emit.NewLogEmitter(os.Stdout, true)
	engine := graph.New(emitter, graph.WithMetrics(metrics), graph.WithContainer(container))

	ctx, cancel := context.WithTimeout(context.Background(), cfg.SubmitTimeout)
	defer cancel()

	result := engine.Execute(ctx, g, map[string]any{})
	if !result.Success {
		log.Fatalf("workflow failed: %s", result.Error)
	}
	fmt.Printf("%v\n", result.FinalOutputs)
}

func buildModel(cfg config.Config) (model.GenerationModel, error) {
	switch cfg.ModelProvider {
	case "openai":
		return openai.NewModel(cfg.OpenAIAPIKey, cfg.ModelName), nil
	case "google":
		return google.NewModel(cfg.GoogleAPIKey, cfg.ModelName), nil
	default:
		return anthropic.NewModel(cfg.AnthropicAPIKey, cfg.ModelName), nil
	}
}

func buildStore(cfg config.Config) (storage.Store, error) {
	switch cfg.StorageDriver {
	case "sqlite":
		return sqlstore.NewSQLiteStore(cfg.StorageDSN)
	case "mysql":
		return sqlstore.NewMySQLStore(cfg.StorageDSN)
	default:
		return memstore.New(), nil
	}
}

func buildHTTPTool(cfg config.Config) tool.Tool {
	if cfg.HTTPRateLimitRPS <= 0 {
		return tool.NewHTTPTool()
	}
	return tool.NewHTTPToolWithClient(httpclient.NewRateLimited(cfg.HTTPRateLimitRPS, cfg.HTTPRateLimitBurst))
}

func buildQuantumSource(cfg config.Config) rng.QuantumSource {
	if cfg.QuantumEndpoint == "" {
		return &rng.MockSource{}
	}
	return rng.NewHTTPSource(cfg.QuantumEndpoint, cfg.QuantumAPIKey)
}
