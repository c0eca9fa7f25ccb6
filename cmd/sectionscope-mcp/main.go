package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/sectionscope/models"
)

// scrapeRequest mirrors the fields of models.ScrapeRequest the tools set.
type scrapeRequest struct {
	URL             string `json:"url"`
	ForceRender     bool   `json:"forceRender,omitempty"`
	IncludeMarkdown bool   `json:"includeMarkdown,omitempty"`
	Scope           string `json:"scope,omitempty"`
}

func main() {
	apiURL := os.Getenv("SECTIONSCOPE_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8000"
	}
	apiKey := os.Getenv("SECTIONSCOPE_API_KEY")

	s := server.NewMCPServer(
		"sectionscope",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	scrapeTool := mcp.NewTool("scrape_sections",
		mcp.WithDescription("Split a web page into typed sections (navigation, hero, pricing, FAQ, lists, grids, footer) with their text, links, images, lists and tables. Falls back to a headless browser when the static page is too thin."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the web page to analyse"),
		),
		mcp.WithBoolean("force_render",
			mcp.Description("Always render the page in a headless browser, even when static HTML looks sufficient"),
		),
		mcp.WithBoolean("include_markdown",
			mcp.Description("Include a Markdown rendering of every section"),
		),
		mcp.WithString("scope",
			mcp.Description("Optional CSS selector restricting which part of the page is split into sections"),
		),
	)
	s.AddTool(scrapeTool, handleScrapeSections(apiURL, apiKey))

	historyTool := mcp.NewTool("scrape_history",
		mcp.WithDescription("List recent scrape summaries recorded by the server, newest first."),
		mcp.WithString("url",
			mcp.Description("Only list scrapes of this URL"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of summaries (default 20, max 100)"),
		),
	)
	s.AddTool(historyTool, handleScrapeHistory(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiDo sends a request to the sectionscope API and returns the body.
func apiDo(ctx context.Context, client *http.Client, method, endpoint, apiKey string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

func handleScrapeSections(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 180 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		pageURL, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		payload := scrapeRequest{
			URL:             pageURL,
			ForceRender:     request.GetBool("force_render", false),
			IncludeMarkdown: request.GetBool("include_markdown", false),
			Scope:           request.GetString("scope", ""),
		}

		respBody, err := apiDo(ctx, client, http.MethodPost, apiURL+"/api/v1/scrape", apiKey, payload)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var resp models.ScrapeResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if resp.Result == nil {
			return mcp.NewToolResultError(formatErrors("scrape failed", resp.Errors)), nil
		}

		return mcp.NewToolResultText(formatDigest(resp.Result, payload.IncludeMarkdown)), nil
	}
}

func handleScrapeHistory(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		q := url.Values{}
		if u := request.GetString("url", ""); u != "" {
			q.Set("url", u)
		}
		if limit := request.GetInt("limit", 0); limit > 0 {
			q.Set("limit", strconv.Itoa(limit))
		}

		endpoint := apiURL + "/api/v1/scrapes"
		if len(q) > 0 {
			endpoint += "?" + q.Encode()
		}

		respBody, err := apiDo(ctx, client, http.MethodGet, endpoint, apiKey, nil)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var errResp models.ScrapeResponse
		if json.Unmarshal(respBody, &errResp) == nil && len(errResp.Errors) > 0 {
			return mcp.NewToolResultError(formatErrors("history lookup failed", errResp.Errors)), nil
		}

		var resp models.HistoryResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		return mcp.NewToolResultText(formatHistory(resp.Summaries)), nil
	}
}

// formatDigest renders a result as plain text for a model to read.
func formatDigest(r *models.ScrapeResult, withMarkdown bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "URL: %s\n", r.URL)
	if r.Meta.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", r.Meta.Title)
	}
	if r.Meta.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", r.Meta.Description)
	}
	fmt.Fprintf(&b, "Sections: %d\n", len(r.Sections))
	if r.Interactions.Scrolls > 0 || len(r.Interactions.Clicks) > 0 {
		fmt.Fprintf(&b, "Rendered: %d scrolls, %d clicks, %d pages\n",
			r.Interactions.Scrolls, len(r.Interactions.Clicks), len(r.Interactions.Pages))
	}

	for _, s := range r.Sections {
		fmt.Fprintf(&b, "\n## [%s] %s (%s)\n", s.Type, s.Label, s.ID)
		if withMarkdown && s.Markdown != "" {
			b.WriteString(s.Markdown)
			b.WriteByte('\n')
			continue
		}
		if s.Content.Text != "" {
			b.WriteString(s.Content.Text)
			b.WriteByte('\n')
		}
		for _, l := range s.Content.Links {
			fmt.Fprintf(&b, "- %s: %s\n", l.Text, l.Href)
		}
	}

	if len(r.Errors) > 0 {
		b.WriteString("\n")
		b.WriteString(formatErrors("Errors", r.Errors))
	}
	return b.String()
}

func formatErrors(title string, errs []models.PhaseError) string {
	var b strings.Builder
	b.WriteString(title)
	for _, e := range errs {
		fmt.Fprintf(&b, "\n- [%s] %s", e.Phase, e.Message)
	}
	return b.String()
}

func formatHistory(summaries []models.Summary) string {
	if len(summaries) == 0 {
		return "No scrapes recorded."
	}
	var b strings.Builder
	for _, s := range summaries {
		fmt.Fprintf(&b, "%s  %s  sections=%d errors=%d",
			s.ScrapedAt.Format(time.RFC3339), s.URL, s.SectionsCount, len(s.Errors))
		if s.Meta.Title != "" {
			fmt.Fprintf(&b, "  %q", s.Meta.Title)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
