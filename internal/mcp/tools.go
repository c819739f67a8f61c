package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) handleResolveMainWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args ResolveMainWindowInput) (*mcpsdk.CallToolResult, ResolveMainWindowOutput, error) {
	report, err := s.resolver.MainWindow(args.ExcludeID)
	if err != nil {
		return nil, ResolveMainWindowOutput{}, fmt.Errorf("resolve main window: %w", err)
	}
	return nil, *report, nil
}

func (s *Server) handleResolveMainScene(_ context.Context, _ *mcpsdk.CallToolRequest, _ ResolveMainSceneInput) (*mcpsdk.CallToolResult, ResolveMainSceneOutput, error) {
	report, err := s.resolver.MainScene()
	if err != nil {
		return nil, ResolveMainSceneOutput{}, fmt.Errorf("resolve main scene: %w", err)
	}
	return nil, *report, nil
}

func (s *Server) handleResolveTopController(_ context.Context, _ *mcpsdk.CallToolRequest, args ResolveTopControllerInput) (*mcpsdk.CallToolResult, ResolveTopControllerOutput, error) {
	report, err := s.resolver.TopController(args.SelfID)
	if err != nil {
		return nil, ResolveTopControllerOutput{}, fmt.Errorf("resolve top controller: %w", err)
	}
	return nil, *report, nil
}

func (s *Server) handleStatusBarAnchor(_ context.Context, _ *mcpsdk.CallToolRequest, args StatusBarAnchorInput) (*mcpsdk.CallToolResult, StatusBarAnchorOutput, error) {
	report, err := s.resolver.Anchor(args.SelfID)
	if err != nil {
		return nil, StatusBarAnchorOutput{}, fmt.Errorf("status bar anchor: %w", err)
	}
	return nil, StatusBarAnchorOutput{
		RequestID:  report.RequestID,
		Found:      report.Found,
		Outcome:    report.Outcome,
		Rule:       report.Rule,
		Depth:      report.Depth,
		Navigation: report.Navigation,
		Window:     report.Window,
		Controller: report.Controller,
		Anchor:     report.Anchor,
	}, nil
}

func (s *Server) handleListScenes(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListScenesInput) (*mcpsdk.CallToolResult, ListScenesOutput, error) {
	report, err := s.resolver.Scenes()
	if err != nil {
		return nil, ListScenesOutput{}, fmt.Errorf("list scenes: %w", err)
	}
	return nil, *report, nil
}
