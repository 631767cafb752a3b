package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/medbot-ai/medbot/internal/service"
)

// Server implements the Model Context Protocol (MCP) server.
// It lets external AI agents search the medical document index and ask
// document-grounded questions.
type Server struct {
	rag      *service.RAGService
	composer *service.Composer
	sessions *service.SessionStore
	port     string

	topK           int
	scoreThreshold float64
}

// NewServer creates a new MCP server.
func NewServer(rag *service.RAGService, composer *service.Composer, sessions *service.SessionStore, port string, topK int, scoreThreshold float64) *Server {
	return &Server{
		rag:            rag,
		composer:       composer,
		sessions:       sessions,
		port:           port,
		topK:           topK,
		scoreThreshold: scoreThreshold,
	}
}

// Tool represents an MCP tool definition.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// JSONRPCRequest represents a JSON-RPC 2.0 request.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCResponse represents a JSON-RPC 2.0 response.
type JSONRPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC error.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Start begins the MCP server on the configured port.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/mcp", s.handleRPC)
	mux.HandleFunc("/mcp/sse", s.handleSSE)

	slog.Info("MCP server starting", "port", s.port)
	return http.ListenAndServe(":"+s.port, mux)
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, nil, -32700, "parse error")
		return
	}

	var result interface{}
	var err error

	switch req.Method {
	case "tools/list":
		result = s.listTools()
	case "tools/call":
		result, err = s.callTool(r.Context(), req.Params)
	case "initialize":
		result = map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"serverInfo": map[string]string{
				"name":    "medbot-ai",
				"version": "1.0.0",
			},
			"capabilities": map[string]interface{}{
				"tools": map[string]bool{"listChanged": false},
			},
		}
	default:
		writeError(w, req.ID, -32601, "method not found")
		return
	}

	if err != nil {
		writeError(w, req.ID, -32603, err.Error())
		return
	}

	writeResult(w, req.ID, result)
}

func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Send initial endpoint message
	fmt.Fprintf(w, "event: endpoint\ndata: /mcp\n\n")
	w.(http.Flusher).Flush()

	// Keep connection alive
	<-r.Context().Done()
}

func (s *Server) listTools() map[string]interface{} {
	tools := []Tool{
		{
			Name:        "search_documents",
			Description: "Search uploaded medical documents using semantic similarity",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"query": {"type": "string", "description": "Search query"}
				},
				"required": ["query"]
			}`),
		},
		{
			Name:        "ask_medbot",
			Description: "Ask a question answered from the uploaded medical documents, with safety disclaimers",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"question": {"type": "string", "description": "The medical question"},
					"session_id": {"type": "string", "description": "Optional conversation session id"}
				},
				"required": ["question"]
			}`),
		},
	}
	return map[string]interface{}{"tools": tools}
}

func (s *Server) callTool(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var req struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}

	switch req.Name {
	case "search_documents":
		var args struct {
			Query string `json:"query"`
		}
		json.Unmarshal(req.Arguments, &args)

		result := s.rag.Retrieve(ctx, args.Query, s.topK, s.scoreThreshold)

		excerpts := make([]map[string]interface{}, len(result.Chunks))
		for i, chunk := range result.Chunks {
			excerpts[i] = map[string]interface{}{
				"filename":   chunk.Metadata.Filename,
				"section":    chunk.Metadata.SequenceIndex,
				"content":    chunk.Content,
				"similarity": chunk.Similarity,
			}
		}

		data, _ := json.Marshal(excerpts)
		return map[string]interface{}{
			"content": []map[string]interface{}{
				{"type": "text", "text": string(data)},
			},
		}, nil

	case "ask_medbot":
		var args struct {
			Question  string `json:"question"`
			SessionID string `json:"session_id"`
		}
		json.Unmarshal(req.Arguments, &args)

		if args.SessionID == "" {
			args.SessionID = service.DefaultSessionID
		}

		session := s.sessions.GetOrCreate(args.SessionID)
		result := s.rag.Retrieve(ctx, args.Question, s.topK, s.scoreThreshold)
		answer := s.composer.Compose(ctx, args.Question, result.Chunks, session.History)
		s.sessions.AppendExchange(args.SessionID, args.Question, answer.Text)

		return map[string]interface{}{
			"content": []map[string]interface{}{
				{"type": "text", "text": answer.Text},
			},
			"sources": answer.Sources,
		}, nil

	default:
		return nil, fmt.Errorf("unknown tool: %s", req.Name)
	}
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := JSONRPCResponse{JSONRPC: "2.0", ID: id, Result: result}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func writeError(w http.ResponseWriter, id interface{}, code int, message string) {
	resp := JSONRPCResponse{JSONRPC: "2.0", ID: id, Error: &RPCError{Code: code, Message: message}}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
