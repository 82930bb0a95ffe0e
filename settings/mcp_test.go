package settings

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var testImpl = &mcp.Implementation{Name: "vidctl-test", Version: "0.1.0"}

func mcpSession(t *testing.T) (*Editor, *mcp.ClientSession) {
	t.Helper()
	e := testEditor(t)

	srv := mcp.NewServer(testImpl, nil)
	e.RegisterMCP(srv)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	client := mcp.NewClient(testImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return e, session
}

func callTool(t *testing.T, session *mcp.ClientSession, name string, args any) (string, bool) {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if len(result.Content) == 0 {
		t.Fatalf("CallTool(%s): empty content", name)
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): expected TextContent, got %T", name, result.Content[0])
	}
	return tc.Text, result.IsError
}

func TestMCP_AddCheckRemove(t *testing.T) {
	_, session := mcpSession(t)

	if text, isErr := callTool(t, session, "vidctl_domain_add", map[string]any{"domain": "example.com"}); isErr {
		t.Fatalf("add: tool error %s", text)
	}

	text, isErr := callTool(t, session, "vidctl_domain_check", map[string]any{"host": "foo.example.com"})
	if isErr {
		t.Fatalf("check: tool error %s", text)
	}
	var d Decision
	if err := json.Unmarshal([]byte(text), &d); err != nil {
		t.Fatal(err)
	}
	if d.Activate {
		t.Error("subdomain of excluded domain must not activate")
	}

	if text, isErr := callTool(t, session, "vidctl_domain_remove", map[string]any{"domain": "example.com"}); isErr {
		t.Fatalf("remove: tool error %s", text)
	}
}

func TestMCP_DuplicateIsToolError(t *testing.T) {
	_, session := mcpSession(t)

	callTool(t, session, "vidctl_domain_add", map[string]any{"list": "included", "domain": "a.com"})
	if _, isErr := callTool(t, session, "vidctl_domain_add", map[string]any{"list": "included", "domain": "a.com"}); !isErr {
		t.Error("duplicate add must be a tool error")
	}
}

func TestMCP_ModeSetAndPolicyGet(t *testing.T) {
	_, session := mcpSession(t)

	callTool(t, session, "vidctl_mode_set", map[string]any{"mode": "include"})
	text, isErr := callTool(t, session, "vidctl_policy_get", map[string]any{})
	if isErr {
		t.Fatalf("policy_get: %s", text)
	}
	var snap struct {
		Mode string `json:"mode"`
	}
	json.Unmarshal([]byte(text), &snap)
	if snap.Mode != "include" {
		t.Errorf("mode: got %q, want include", snap.Mode)
	}
}
