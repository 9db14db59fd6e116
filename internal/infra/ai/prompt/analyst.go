package prompt

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/draft-analyzer/internal/domain/ai"
)

const (
	noTeamNames  = "Team names not provided"
	noAdditional = "No additional context provided"
)

// GetSystemPrompt sets the analyst persona for every completion.
func GetSystemPrompt() string {
	return "You are an expert fantasy football analyst. Provide detailed, insightful analysis of draft results including strengths, weaknesses, sleepers, reaches, and overall draft grades for each team."
}

// GetUserPrompt builds the report request around the processed draft data.
func GetUserPrompt(in ai.DraftInput) string {
	teams := noTeamNames
	if len(in.TeamNames) > 0 {
		teams = strings.Join(in.TeamNames, ", ")
	}
	extra := noAdditional
	if in.AdditionalInfo != "" {
		extra = in.AdditionalInfo
	}

	return fmt.Sprintf(userTemplate, ProcessDraftData(in.DraftData, in.FileType), teams, extra)
}

// ProcessDraftData renders CSV drafts as an aligned table. Anything that
// does not parse as CSV is passed through untouched.
func ProcessDraftData(data, fileType string) string {
	if fileType != "csv" {
		return data
	}
	table, err := RenderCSVTable(data)
	if err != nil {
		return data
	}
	return table
}

const userTemplate = `Please analyze this fantasy football draft and provide a comprehensive report.

DRAFT DATA:
%s

TEAM OWNERS:
%s

ADDITIONAL CONTEXT:
%s

Please provide analysis covering:

1. **Overall Draft Summary**: Brief overview of the draft trends and notable picks

2. **Team-by-Team Analysis**: 
   - Draft grade (A-F)
   - Key strengths and weaknesses
   - Best picks and potential reaches
   - Roster construction strategy

3. **Draft Insights**:
   - Biggest steals and reaches
   - Position run analysis
   - Sleeper picks to watch
   - Injury concerns or risk factors

4. **Predictions**:
   - Teams most likely to succeed
   - Dark horse candidates
   - Players who could bust or boom

5. **Overall Recommendations**: 
   - Waiver wire targets based on draft holes
   - Trade opportunities
   - Season outlook

Format the response with clear headers and bullet points for easy reading.`
