package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/trialset"
	"github.com/aretw0/trialset/pkg/domain"
	"github.com/aretw0/trialset/pkg/schema"
	"github.com/aretw0/trialset/pkg/sequence"
)

// Resource URIs exposed by the server.
const (
	ExperimentURI = "trialset://experiment"
	SequenceURI   = "trialset://sequence"
)

// Engine defines what the MCP server needs from the trialset engine.
type Engine interface {
	Experiment(ctx context.Context) (*domain.Experiment, error)
	Validate(ctx context.Context) error
	Sequence(ctx context.Context) (sequence.Expr, error)
	Plan(ctx context.Context, opts trialset.PlanOptions) (*domain.Plan, error)
	Replay(ctx context.Context, planID string) (*domain.Plan, error)
	CheckField(ctx context.Context, group, field, input string) error
}

// PlanArgs are the arguments of generate_plan.
type PlanArgs struct {
	Seed string `json:"seed,omitempty"`
	Save bool   `json:"save,omitempty"`
}

// PlanItem is one position of a plan as seen by a model.
type PlanItem struct {
	Position int    `json:"position"`
	Label    string `json:"label"`
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
}

// PlanResponse summarizes a generated plan.
// Seeds travel as decimal strings so they survive JSON number precision.
type PlanResponse struct {
	ID    string     `json:"id" jsonschema_description:"Plan identifier"`
	Seed  string     `json:"seed" jsonschema_description:"Seed that reproduces this order"`
	Items []PlanItem `json:"items" jsonschema_description:"Presentation order"`
}

// FieldArgs are the arguments of validate_field.
type FieldArgs struct {
	Group string `json:"group"`
	Field string `json:"field"`
	Input string `json:"input"`
}

// FieldResponse reports the outcome of a field validator.
type FieldResponse struct {
	Accepted bool   `json:"accepted"`
	Message  string `json:"message,omitempty"`
}

// ValidationResponse lists the problems found in the experiment.
type ValidationResponse struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// ReplayArgs are the arguments of replay_plan.
type ReplayArgs struct {
	ID string `json:"id"`
}

// Server wraps the trialset Engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		engine:    engine,
		logger:    logger,
		mcpServer: server.NewMCPServer("trialset-mcp", strings.TrimSpace(trialset.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops when ctx ends.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("generate_plan",
		mcp.WithDescription("Generate a presentation order for the experiment. Pass a seed to reproduce an earlier order."),
		mcp.WithString("seed", mcp.Description("Decimal seed (optional, a fresh one is drawn when omitted)")),
		mcp.WithBoolean("save", mcp.Description("Store the plan so it can be replayed later")),
		mcp.WithOutputSchema[PlanResponse](),
	), mcp.NewStructuredToolHandler(s.handleGeneratePlan))

	s.mcpServer.AddTool(mcp.NewTool("replay_plan",
		mcp.WithDescription("Regenerate a stored plan from its seed and check the order still matches."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Plan ID")),
		mcp.WithOutputSchema[PlanResponse](),
	), mcp.NewStructuredToolHandler(s.handleReplayPlan))

	s.mcpServer.AddTool(mcp.NewTool("validate_field",
		mcp.WithDescription("Check a participant's input against the validator of a form field."),
		mcp.WithString("group", mcp.Required(), mcp.Description("Group of the form item")),
		mcp.WithString("field", mcp.Required(), mcp.Description("Form field name")),
		mcp.WithString("input", mcp.Required(), mcp.Description("Raw input")),
		mcp.WithOutputSchema[FieldResponse](),
	), mcp.NewStructuredToolHandler(s.handleValidateField))

	s.mcpServer.AddTool(mcp.NewTool("validate_experiment",
		mcp.WithDescription("Report every problem in the experiment definition."),
		mcp.WithOutputSchema[ValidationResponse](),
	), mcp.NewStructuredToolHandler(s.handleValidateExperiment))

	s.mcpServer.AddTool(mcp.NewTool("get_sequence",
		mcp.WithDescription("Get the sequencing expression plans are drawn from."),
	), s.handleGetSequence)
}

func (s *Server) handleGeneratePlan(ctx context.Context, request mcp.CallToolRequest, args PlanArgs) (PlanResponse, error) {
	opts := trialset.PlanOptions{Save: args.Save}
	if args.Seed != "" {
		seed, err := strconv.ParseUint(args.Seed, 10, 64)
		if err != nil {
			return PlanResponse{}, fmt.Errorf("invalid seed %q: %w", args.Seed, err)
		}
		opts.Seed = &seed
	}

	plan, err := s.engine.Plan(ctx, opts)
	if err != nil {
		return PlanResponse{}, fmt.Errorf("plan failed: %w", err)
	}
	return toPlanResponse(plan), nil
}

func (s *Server) handleReplayPlan(ctx context.Context, request mcp.CallToolRequest, args ReplayArgs) (PlanResponse, error) {
	plan, err := s.engine.Replay(ctx, args.ID)
	if err != nil {
		return PlanResponse{}, fmt.Errorf("replay failed: %w", err)
	}
	return toPlanResponse(plan), nil
}

func (s *Server) handleValidateField(ctx context.Context, request mcp.CallToolRequest, args FieldArgs) (FieldResponse, error) {
	err := s.engine.CheckField(ctx, args.Group, args.Field, args.Input)
	if err == nil {
		return FieldResponse{Accepted: true}, nil
	}
	var fe *schema.FieldError
	if errors.As(err, &fe) {
		return FieldResponse{Accepted: false, Message: fe.Message}, nil
	}
	return FieldResponse{}, err
}

func (s *Server) handleValidateExperiment(ctx context.Context, request mcp.CallToolRequest, _ struct{}) (ValidationResponse, error) {
	err := s.engine.Validate(ctx)
	if err == nil {
		return ValidationResponse{Valid: true}, nil
	}
	problems := schema.ValidationErrors(err)
	if len(problems) == 0 {
		return ValidationResponse{}, err
	}
	res := ValidationResponse{Errors: make([]string, len(problems))}
	for i, p := range problems {
		res.Errors[i] = p.Error()
	}
	return res, nil
}

func (s *Server) handleGetSequence(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	expr, err := s.engine.Sequence(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("sequence failed: %v", err)), nil
	}
	return mcp.NewToolResultText(expr.String()), nil
}

func toPlanResponse(plan *domain.Plan) PlanResponse {
	res := PlanResponse{
		ID:    plan.ID,
		Seed:  strconv.FormatUint(plan.Seed, 10),
		Items: make([]PlanItem, len(plan.Entries)),
	}
	for i, e := range plan.Entries {
		text := e.Item.Payload.Sentence
		if text == "" {
			text = e.Item.Payload.HTML
		}
		res.Items[i] = PlanItem{
			Position: e.Position,
			Label:    e.Item.Label(),
			Type:     e.Item.Type,
			Text:     text,
		}
	}
	return res
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(ExperimentURI, "Current Experiment Definition",
		mcp.WithMIMEType("application/json"),
	), s.readExperiment)

	s.mcpServer.AddResource(mcp.NewResource(SequenceURI, "Effective Sequencing Expression",
		mcp.WithMIMEType("text/plain"),
	), s.readSequence)
}

func (s *Server) readExperiment(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	exp, err := s.engine.Experiment(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load experiment: %w", err)
	}
	data, err := json.Marshal(exp)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ExperimentURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) readSequence(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	expr, err := s.engine.Sequence(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read sequence: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      SequenceURI,
			MIMEType: "text/plain",
			Text:     expr.String(),
		},
	}, nil
}
