package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func registerTools(srv *server.MCPServer, svc *Service) {
	registerListMemoriesTool(srv, svc)
	registerGetMemoryTool(srv, svc)
	registerTimelineTool(srv, svc)
	registerCalendarTool(srv, svc)
	registerCaptureTool(srv, svc)
	registerRemoveTool(srv, svc)
}

func registerListMemoriesTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"list_memories",
		mcp.WithDescription("List the one canonical memory per day, oldest first."),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		memories, unavailable, err := svc.ListMemories(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(map[string]any{
			"memories":    memories,
			"count":       len(memories),
			"unavailable": unavailable,
		})
	})
}

func registerGetMemoryTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"get_memory",
		mcp.WithDescription("Fetch the memory captured for a date."),
		mcp.WithString("date",
			mcp.Required(),
			mcp.Description("Calendar date as YYYY-MM-DD."),
		),
		mcp.WithBoolean("include_image",
			mcp.Description("Attach a locally stored photo as image content."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		date, err := request.RequireString("date")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		dto, err := svc.MemoryByDate(ctx, date)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !request.GetBool("include_image", false) || dto.ImageBytes == 0 {
			return toJSONResult(dto)
		}
		img, err := svc.ImageByDate(ctx, date)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		text, err := json.Marshal(dto)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("marshal error: %v", err)), nil
		}
		return mcp.NewToolResultImage(string(text), img.Base64, img.MIMEType), nil
	})
}

func registerTimelineTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"get_timeline",
		mcp.WithDescription("Memories grouped by month, newest first unless order is asc."),
		mcp.WithString("order",
			mcp.Description("Sort order of dates."),
			mcp.Enum("desc", "asc"),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		order := request.GetString("order", "desc")
		if order != "desc" && order != "asc" {
			return mcp.NewToolResultError(fmt.Sprintf("unknown order %q", order)), nil
		}
		dto, err := svc.Timeline(ctx, order == "asc")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(dto)
	})
}

func registerCalendarTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"get_calendar",
		mcp.WithDescription("Month grid of captured, capturable and future days, or a year overview when year is set."),
		mcp.WithString("month",
			mcp.Description("Month as YYYY-MM; defaults to the current month. Future months are rejected."),
		),
		mcp.WithNumber("year",
			mcp.Description("Return the twelve-month overview for this year instead."),
			mcp.Min(1),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if year := request.GetInt("year", 0); year != 0 {
			dto, err := svc.Year(ctx, year)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return toJSONResult(dto)
		}
		dto, err := svc.Calendar(ctx, request.GetString("month", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(dto)
	})
}

func registerCaptureTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"capture_memory",
		mcp.WithDescription("Store a photo memory for a day. Capturing again for the same day keeps the newest as canonical."),
		mcp.WithString("date",
			mcp.Description("Calendar date as YYYY-MM-DD; defaults to today."),
		),
		mcp.WithString("caption",
			mcp.Description("Optional caption."),
		),
		mcp.WithString("image_url",
			mcp.Description("Absolute http(s) URL of the photo."),
		),
		mcp.WithString("image_base64",
			mcp.Description("Photo bytes as base64 or a data: URL."),
		),
		mcp.WithString("replace_id",
			mcp.Description("Overwrite this memory instead of adding one."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args struct {
			Date        string `json:"date"`
			Caption     string `json:"caption"`
			ImageURL    string `json:"image_url"`
			ImageBase64 string `json:"image_base64"`
			ReplaceID   string `json:"replace_id"`
		}
		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		dto, err := svc.Capture(ctx, CaptureOptions{
			Date:        args.Date,
			Caption:     args.Caption,
			ImageURL:    args.ImageURL,
			ImageBase64: args.ImageBase64,
			ReplaceID:   args.ReplaceID,
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(dto)
	})
}

func registerRemoveTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"remove_memory",
		mcp.WithDescription("Delete a stored memory by id."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Memory identifier to delete."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := svc.Remove(ctx, id); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(map[string]any{"removed": id})
	})
}

func toJSONResult(data any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(data)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal error: %v", err)), nil
	}
	return result, nil
}
