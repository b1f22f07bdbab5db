package prompt

import (
	"fmt"
	"strings"

	"github.com/gwbischof/ghstyle/internal/commentstore"
	gh "github.com/gwbischof/ghstyle/internal/github"
)

// systemPreamble instructs the CLI to behave as a document processor.
// Without it the interactive CLIs tend to answer with meta-commentary or
// permission requests instead of the processed content.
const systemPreamble = `<system>
You are a document processing assistant. Your role is to process text content and return the requested output directly without any meta-commentary, explanations, or requests for permissions.

When asked to update or merge documents, return only the final document content. Do not include phrases like "I need permissions", "Would you like me to", or any conversational responses.

You are running in an automated script that expects only the processed content as output.
</system>`

// WithPreamble prefixes a task prompt with the document-processor system
// instructions.
func WithPreamble(task string) string {
	return systemPreamble + "\n\n" + task
}

// FormatBatch renders a comment batch as the text block embedded in the
// analysis prompt. Bodies are sanitized: fetched comments are untrusted
// input heading into an LLM prompt.
func FormatBatch(batch []commentstore.CommentRecord) string {
	blocks := make([]string, 0, len(batch))
	for _, rec := range batch {
		blocks = append(blocks, fmt.Sprintf(
			"Repository: %s\nDate: %s\nComment: %s\nContext: Issue #%d - %s\n---",
			rec.Repository,
			rec.CreatedAt,
			gh.SanitizeContent(rec.CommentBody),
			rec.IssueNumber,
			gh.SanitizeContent(rec.IssueTitle),
		))
	}
	return strings.Join(blocks, "\n")
}

// Analysis builds the prompt that extracts style insights from one batch.
func Analysis(batch []commentstore.CommentRecord) string {
	return fmt.Sprintf(`Analyze these GitHub comments for writing style patterns. Focus on:
1. Communication tone and approach
2. Technical language preferences
3. Problem-solving methodology
4. Feedback and collaboration style
5. Common phrases or expressions
6. Code review patterns

Extract concise style insights that would help an AI assistant write similar comments.

Comments to analyze:
%s

Provide specific, actionable style guidelines based on these examples.`, FormatBatch(batch))
}

// Merge builds the prompt that folds a new batch analysis into the
// accumulated style document. The document must grow, never shrink;
// the caller enforces that with a size guard on the response.
func Merge(existing, analysis string) string {
	return fmt.Sprintf(`You are a content processor updating a GitHub comment style guide. You must output the complete updated document content directly.

TASK: Return the complete updated style document content (just the content, no explanations or permission requests).

REQUIREMENTS:
1. Make the document MORE DETAILED than the existing one
2. PRESERVE all existing insights, examples, and specific details
3. ADD new insights from the new analysis to expand sections
4. EXPAND existing points with additional examples and specifics
5. The document should GROW in detail and comprehensiveness, never shrink
6. Do NOT remove or simplify existing content - only enhance and expand it

EXISTING STYLE DOCUMENT:
%s

NEW ANALYSIS TO INTEGRATE:
%s

OUTPUT ONLY the complete updated style document content (no meta-commentary, no permission requests, just the document content).`, existing, analysis)
}

// Compaction builds the prompt that condenses an oversized document
// while keeping every unique insight.
func Compaction(current string) string {
	return fmt.Sprintf(`The following style document has grown too large. Please compact it while preserving all unique insights and patterns.

Goals:
1. Merge redundant or similar style points
2. Consolidate examples while keeping the most representative ones
3. Maintain the structure and readability
4. Preserve all unique insights and edge cases
5. Target around 3000-4000 lines to allow for continued growth

Current style document:
%s

Please provide a compacted version that maintains all the essential style information.`, current)
}
