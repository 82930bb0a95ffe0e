package settings

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/vidctl/internal/kit"
	"github.com/hazyhaar/vidctl/policy"
)

// RegisterMCP registers the editor tools on an MCP server.
func (e *Editor) RegisterMCP(srv *mcp.Server) {
	e.registerPolicyGetTool(srv)
	e.registerModeSetTool(srv)
	e.registerDomainAddTool(srv)
	e.registerDomainRemoveTool(srv)
	e.registerDomainCheckTool(srv)
}

func (e *Editor) register(srv *mcp.Server, tool *mcp.Tool, endpoint kit.Endpoint, decode kit.DecodeFunc) {
	kit.RegisterMCPTool(srv, tool, kit.Chain(kit.Logging(e.logger, tool.Name))(endpoint), decode)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

var listProperty = map[string]any{
	"type":        "string",
	"enum":        []any{"excluded", "included"},
	"description": "Domain list to edit (default: the list of the current mode)",
}

// --- policy_get ---

func (e *Editor) registerPolicyGetTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "vidctl_policy_get",
		Description: "Return the current mode and both domain lists.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}
	endpoint := func(ctx context.Context, _ any) (any, error) {
		return e.Snapshot(ctx)
	}
	e.register(srv, tool, endpoint, kit.DecodeJSON[struct{}]())
}

// --- mode_set ---

type modeSetRequest struct {
	Mode string `json:"mode"`
}

func (e *Editor) registerModeSetTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "vidctl_mode_set",
		Description: "Switch between exclude mode (act everywhere except excluded domains) and include mode (act only on included domains).",
		InputSchema: inputSchema(map[string]any{
			"mode": map[string]any{"type": "string", "enum": []any{"exclude", "include"}},
		}, []string{"mode"}),
	}
	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*modeSetRequest)
		m, err := e.SetMode(ctx, policy.Mode(rr.Mode))
		if err != nil {
			return nil, err
		}
		return map[string]string{"mode": string(m)}, nil
	}
	e.register(srv, tool, endpoint, kit.DecodeJSON[modeSetRequest]())
}

// --- domain_add ---

type domainRequest struct {
	List   string `json:"list,omitempty"`
	Domain string `json:"domain"`
}

func (e *Editor) registerDomainAddTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "vidctl_domain_add",
		Description: "Add a domain (e.g. example.com) to a domain list. Subdomains are covered by their parent entry.",
		InputSchema: inputSchema(map[string]any{
			"list":   listProperty,
			"domain": map[string]any{"type": "string", "description": "Hostname without scheme or path"},
		}, []string{"domain"}),
	}
	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*domainRequest)
		key, domain, err := e.AddDomain(ctx, rr.List, rr.Domain)
		if err != nil {
			return nil, err
		}
		return map[string]any{"list": key, "domain": domain}, nil
	}
	e.register(srv, tool, endpoint, kit.DecodeJSON[domainRequest]())
}

// --- domain_remove ---

func (e *Editor) registerDomainRemoveTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "vidctl_domain_remove",
		Description: "Remove a domain from a domain list.",
		InputSchema: inputSchema(map[string]any{
			"list":   listProperty,
			"domain": map[string]any{"type": "string"},
		}, []string{"domain"}),
	}
	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*domainRequest)
		key, err := e.RemoveDomain(ctx, rr.List, rr.Domain)
		if err != nil {
			return nil, err
		}
		return map[string]any{"list": key, "removed": rr.Domain}, nil
	}
	e.register(srv, tool, endpoint, kit.DecodeJSON[domainRequest]())
}

// --- domain_check ---

type checkRequest struct {
	Host string `json:"host"`
}

func (e *Editor) registerDomainCheckTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "vidctl_domain_check",
		Description: "Report whether vidctl would act on a hostname under the current policy.",
		InputSchema: inputSchema(map[string]any{
			"host": map[string]any{"type": "string", "description": "Hostname, e.g. www.instagram.com"},
		}, []string{"host"}),
	}
	endpoint := func(ctx context.Context, req any) (any, error) {
		return e.Check(ctx, req.(*checkRequest).Host)
	}
	e.register(srv, tool, endpoint, kit.DecodeJSON[checkRequest]())
}
