package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("draft_proposal",
		mcp.WithPromptDescription("Draft a complete sales proposal for a client"),
		mcp.WithArgument("client",
			mcp.ArgumentDescription("Client name"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("services",
			mcp.ArgumentDescription("Services being proposed, comma separated"),
			mcp.RequiredArgument(),
		),
	), s.handleDraftProposalPrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("review_pricing",
		mcp.WithPromptDescription("Check the pricing page of the open proposal against its scope"),
	), s.handleReviewPricingPrompt)
}

func (s *Server) handleDraftProposalPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	client := req.Params.Arguments["client"]
	services := req.Params.Arguments["services"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Draft a proposal for %s", client),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Draft a sales proposal for "%s" covering: %s. Follow these steps:

1. Use create_proposal with a descriptive name and client "%s"
2. Use list_pages to find the cover, content, table and acceptance pages
3. Rewrite the cover with set_page_body so the title names the services and the client
4. Use list_presets, then apply_command with insertPreset to add the relevant sections to the content page
5. Edit each inserted section with set_page_body to describe the actual work; long text flows onto new pages on its own
6. Update the pricing table on the table page so there is one row per service
7. Finish with export_pdf and report the file path

Keep paragraphs short. Do not remove pages unless asked; removal needs the user's approval.`, client, services, client),
				},
			},
		},
	}, nil
}

func (s *Server) handleReviewPricingPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Review the pricing of the open proposal",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: `Review the pricing of the open proposal:

1. Use list_pages and get_page to read every content page and the table page
2. List each service the content pages promise
3. Compare it with the rows of the pricing table and point out services that are missing or priced but never described
4. Suggest corrections, but only change the table after the user agrees`,
				},
			},
		},
	}, nil
}
