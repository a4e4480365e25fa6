package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func registerResources(srv *server.MCPServer, svc *Service) {
	registerMemoriesResource(srv, svc)
	registerMemoryTemplate(srv, svc)
	registerImageTemplate(srv, svc)
}

func registerMemoriesResource(srv *server.MCPServer, svc *Service) {
	resource := mcp.NewResource(
		"daily://memories",
		"Memories",
		mcp.WithResourceDescription("The canonical memory for every captured day."),
		mcp.WithMIMEType("application/json"),
	)

	srv.AddResource(resource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		memories, unavailable, err := svc.ListMemories(ctx)
		if err != nil {
			return nil, err
		}
		payload := map[string]any{
			"memories":    memories,
			"count":       len(memories),
			"unavailable": unavailable,
		}
		return encodeResourceJSON(request.Params.URI, payload)
	})
}

func registerMemoryTemplate(srv *server.MCPServer, svc *Service) {
	template := mcp.NewResourceTemplate(
		"daily://memories/{date}",
		"Memory for a day",
		mcp.WithTemplateDescription("The canonical memory captured on a YYYY-MM-DD date."),
		mcp.WithTemplateMIMEType("application/json"),
	)

	srv.AddResourceTemplate(template, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		date := templateArg(request.Params.Arguments, "date")
		if date == "" {
			return nil, fmt.Errorf("date is required")
		}
		dto, err := svc.MemoryByDate(ctx, date)
		if err != nil {
			return nil, err
		}
		return encodeResourceJSON(request.Params.URI, map[string]any{"memory": dto})
	})
}

func registerImageTemplate(srv *server.MCPServer, svc *Service) {
	template := mcp.NewResourceTemplate(
		"daily://memories/{date}/image",
		"Photo for a day",
		mcp.WithTemplateDescription("The photo of the memory on a YYYY-MM-DD date. Remote photos are returned as a URL."),
	)

	srv.AddResourceTemplate(template, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		date := templateArg(request.Params.Arguments, "date")
		if date == "" {
			return nil, fmt.Errorf("date is required")
		}
		img, err := svc.ImageByDate(ctx, date)
		if err != nil {
			return nil, err
		}
		if img.URL != "" {
			return []mcp.ResourceContents{
				mcp.TextResourceContents{URI: request.Params.URI, MIMEType: "text/uri-list", Text: img.URL},
			}, nil
		}
		return []mcp.ResourceContents{
			mcp.BlobResourceContents{URI: request.Params.URI, MIMEType: img.MIMEType, Blob: img.Base64},
		}, nil
	})
}

// templateArg reads a URI template variable, which the server may hand over
// as a string or a single-element slice.
func templateArg(args map[string]any, name string) string {
	switch v := args[name].(type) {
	case string:
		return v
	case []string:
		if len(v) > 0 {
			return v[0]
		}
	}
	return ""
}

func encodeResourceJSON(uri string, payload any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
