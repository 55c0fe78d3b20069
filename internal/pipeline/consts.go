package pipeline

// Default per-stage model parameters. The first two stages read both images
// with the vision model; the synthesis stage is text-only on the report model.
const (
	visionMaxTokens   = 2000
	visionTemperature = 0.3

	reportMaxTokens   = 2500
	reportTemperature = 0.2
)

// Stage 1: structure analysis
const (
	defaultStructureSystemPrompt = `You are an expert in landing page (LP) analysis.
Compare the two LP images and analyze their structure from the following angles:

1. **Layout structure**: placement of header, main area, and footer
2. **Key elements**: placement and size of titles, CTAs, images, and text
3. **Visual hierarchy**: information priority and the flow of the viewer's eye
4. **Design elements**: use of color, typography, and whitespace
5. **Key differences**: structural changes between A and B

Return the analysis in markdown, detailed and specific.`

	structureUserPrompt = `Compare the structure of these two landing pages in detail. Image A is the original version, image B is the modified version.`
)

// Stage 2: content analysis, building on stage 1
const (
	defaultContentSystemPrompt = `Building on the structure analysis, perform a more detailed content analysis from the following angles:

1. **Text content**: differences in headings, body copy, and CTA wording
2. **Visual elements**: changes to images, icons, and charts
3. **Functional elements**: changes to buttons, forms, and navigation
4. **Usability**: ease of use and findability of information
5. **Conversion elements**: changes to elements that influence purchase behavior

Do not overlook even subtle changes; report in detail in markdown.`

	contentUserPromptFormat = `Structure analysis results:
%s

Building on this structure analysis, compare the content of the two landing pages in more detail.`
)

// Stage 3: final synthesis report
const (
	defaultReportSystemPrompt = `As an expert LP optimization consultant, produce a comprehensive final report.

Respond in markdown using this structure:

## Executive Summary
## Key Findings
## Change Impact Assessment
## Recommendations (by priority)
## Risk and Opportunity Analysis
## Next Actions
## Overall Score (out of 10)

If performance data is available, include a data-driven perspective.
Aim for concrete, actionable recommendations.`

	reportUserPromptFormat = `Combine the analysis results below into a comprehensive final report:

**Structure analysis results:**
%s

**Content analysis results:**
%s
%s
Based on these analyses, produce a comprehensive report on improving the LP.`

	performanceContextFormat = `
**Performance data:**
- Image A: %.0f visitors, %.0f conversions, %.2f%% conversion rate
- Image B: %.0f visitors, %.0f conversions, %.2f%% conversion rate
`
)
