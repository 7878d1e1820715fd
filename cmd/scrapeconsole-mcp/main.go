package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/use-agent/scrapeconsole/console"
)

func main() {
	apiURL := os.Getenv("SCRAPECONSOLE_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:5000"
	}
	client := console.NewClient(apiURL, os.Getenv("SCRAPECONSOLE_API_KEY"))

	s := server.NewMCPServer(
		"scrapeconsole",
		"0.1.0",
		server.WithToolCapabilities(false),
	)

	scrapeTool := mcp.NewTool("scrape_venues",
		mcp.WithDescription("Walk the numbered pages of a listing site, select one block per venue with a CSS selector, and return the complete venues as a table. The results also replace the CSV export."),
		mcp.WithString("base_url",
			mcp.Required(),
			mcp.Description("Listing URL; the page number is set as the 'page' query parameter"),
		),
		mcp.WithString("css_selector",
			mcp.Required(),
			mcp.Description("CSS selector matching one element per venue"),
		),
		mcp.WithArray("required_keys",
			mcp.Required(),
			mcp.Description("Fields every venue must have, e.g. [\"name\", \"location\", \"price\"]"),
		),
		mcp.WithNumber("max_pages",
			mcp.Description("Maximum number of pages to visit (server default 10)"),
		),
		mcp.WithString("format",
			mcp.Description("Result format: 'markdown' table (default) or 'json'"),
			mcp.Enum("markdown", "json"),
		),
	)
	s.AddTool(scrapeTool, handleScrapeVenues(client))

	downloadTool := mcp.NewTool("download_venues",
		mcp.WithDescription("Save the CSV export of the last finished scrape into a local directory."),
		mcp.WithString("dir",
			mcp.Description("Target directory (default: current directory)"),
		),
	)
	s.AddTool(downloadTool, handleDownloadVenues(client))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "MCP server error: %v\n", err)
		os.Exit(1)
	}
}

func handleScrapeVenues(client *console.Client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		baseURL, err := request.RequireString("base_url")
		if err != nil {
			return mcp.NewToolResultError("base_url is required"), nil
		}
		selector, err := request.RequireString("css_selector")
		if err != nil {
			return mcp.NewToolResultError("css_selector is required"), nil
		}
		keys, err := request.RequireStringSlice("required_keys")
		if err != nil || len(keys) == 0 {
			return mcp.NewToolResultError("required_keys is required and must be an array of strings"), nil
		}

		form := console.Form{
			BaseURL:      baseURL,
			CSSSelector:  selector,
			RequiredKeys: strings.Join(keys, ","),
		}
		req, err := form.Request(request.GetInt("max_pages", 0))
		if err != nil {
			return mcp.NewToolResultError(console.AlertMissingFields), nil
		}

		records, err := client.Scrape(ctx, req)
		if err != nil {
			return mcp.NewToolResultError(toolError(err)), nil
		}

		if request.GetString("format", "markdown") == "json" {
			out, err := json.MarshalIndent(records, "", "  ")
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("failed to encode records: %v", err)), nil
			}
			return mcp.NewToolResultText(string(out)), nil
		}
		return mcp.NewToolResultText(markdownTable(console.BuildTable(req.RequiredKeys, records))), nil
	}
}

func handleDownloadVenues(client *console.Client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		d := console.NewDownloader(client, request.GetString("dir", "."))
		if err := d.Navigate(ctx, client.URL("/download")); err != nil {
			return mcp.NewToolResultError(toolError(err)), nil
		}
		return mcp.NewToolResultText("Saved export to " + d.Last()), nil
	}
}

func toolError(err error) string {
	var apiErr *console.APIError
	if errors.As(err, &apiErr) && apiErr.Code != "" {
		return fmt.Sprintf("[%s] %s", apiErr.Code, apiErr.Message)
	}
	return err.Error()
}

func markdownTable(t console.Table) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d venues found.\n\n", len(t.Rows))
	if len(t.Rows) == 0 {
		return sb.String()
	}

	sb.WriteString("| " + strings.Join(t.Headers, " | ") + " |\n")
	sb.WriteString("|" + strings.Repeat(" --- |", len(t.Headers)) + "\n")
	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = strings.ReplaceAll(strings.ReplaceAll(c, "|", `\|`), "\n", " ")
		}
		sb.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	return sb.String()
}
