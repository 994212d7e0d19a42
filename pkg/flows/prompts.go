package flows

import (
	"fmt"
	"sort"
	"strings"
	"text/template"
)

// Prompt names. They double as flow names in logs and metrics.
const (
	PromptSummarizeBill    = "summarize-bill"
	PromptCompareBills     = "compare-bills"
	PromptDetailedAnalysis = "detailed-sec-analysis"
	PromptRegulatoryImpact = "regulatory-impact-assessment"
)

// PromptParameter describes a named input a prompt accepts.
type PromptParameter struct {
	Name        string // JSON name of the input field (e.g., "billText")
	Description string // human-readable description
	Required    bool   // whether the parameter must be supplied
}

// Prompt holds the instructions sent to the model for one flow.
type Prompt struct {
	Name        string            // unique slug (e.g., "summarize-bill")
	Description string            // one-line description
	Subject     string            // what the flow produces, used in error messages
	System      string            // system instruction
	Template    string            // text/template body rendered with the flow input
	Parameters  []PromptParameter // inputs the template reads
}

const secLawyerRole = `You are a lawyer at the Philippine Securities and Exchange Commission (SEC), specializing in legislative liaison and regulatory analysis.`

var promptRegistry = map[string]Prompt{
	PromptSummarizeBill: {
		Name:        PromptSummarizeBill,
		Description: "Concise summary of one bill's key provisions and impacts",
		Subject:     "bill summary",
		System:      "You are an expert legal analyst who summarizes Philippine congressional bills.",
		Template: `Given the text of a bill, write a concise summary of its key provisions and potential impacts.
Identify the context and purpose of the bill from the provided text.

Bill Text: {{.BillText}}
Congress Number: {{.CongressNumber}}
Bill Number: {{.BillNumber}}

Respond with a single JSON object:
{"summary": "<the summary>"}`,
		Parameters: []PromptParameter{
			{Name: "billText", Description: "Full text of the bill", Required: true},
			{Name: "congressNumber", Description: "Congress that filed the bill (e.g., 19th)"},
			{Name: "billNumber", Description: "Bill number (e.g., HB1234, SB5678)"},
		},
	},

	PromptCompareBills: {
		Name:        PromptCompareBills,
		Description: "Similarities, differences and conflicts between two bills, with SEC comments",
		Subject:     "bill comparison",
		System:      "You are an expert in comparing and contrasting legislative bills and in Philippine SEC regulation.",
		Template: `You are given summaries of two bills. Identify their similarities, differences and potential conflicts.
Then assess the potential impact of each bill on SEC regulations and draft a comment for each.

Bill 1 Summary: {{.Bill1Summary}}
Bill 2 Summary: {{.Bill2Summary}}

Cover the following:
- Similarities: common provisions, goals or areas of focus.
- Differences: distinct aspects of each bill such as scope, approach or specific requirements.
- Potential Conflicts: areas where the bills might contradict each other or create inconsistencies if enacted together.
- Regulatory Impact Assessment Bill 1: a draft comment on whether bill 1 may affect the SEC's regulations. If there is no impact, state exactly "No significant SEC regulatory impact identified for Bill 1."
- Regulatory Impact Assessment Bill 2: a draft comment on whether bill 2 may affect the SEC's regulations. If there is no impact, state exactly "No significant SEC regulatory impact identified for Bill 2."

Respond with a single JSON object with these string fields:
{"similarities": "", "differences": "", "potentialConflicts": "", "regulatoryImpactAssessmentBill1": "", "regulatoryImpactAssessmentBill2": ""}`,
		Parameters: []PromptParameter{
			{Name: "bill1Summary", Description: "Summary of the first bill", Required: true},
			{Name: "bill2Summary", Description: "Summary of the second bill", Required: true},
		},
	},

	PromptDetailedAnalysis: {
		Name:        PromptDetailedAnalysis,
		Description: "Seven-part SEC regulatory analysis of a single bill",
		Subject:     "detailed bill analysis",
		System:      secLawyerRole,
		Template: `Produce a comprehensive, structured analysis of the following Philippine House or Senate bill, focusing on its potential regulatory impact, conflicts, and relations to the SEC and the laws and regulations it implements.

PART 1: BILL IDENTIFICATION
{{if .BillTitle}}The bill's title is stated as: "{{.BillTitle}}"{{else}}Provide the full title based on the bill text.{{end}}
{{if .BillNumber}}The bill number is stated as: {{.BillNumber}}.{{else}}Provide the bill number based on the bill text.{{end}}
{{if .LegislativeChamber}}The legislative chamber is stated as: {{.LegislativeChamber}}.{{else}}Identify the legislative chamber (House/Senate) based on the bill text or number.{{end}}
    Identify primary sponsor(s), date of introduction and current status in the legislative process. If not in the text, state 'Not specified in provided text'.
    List any related or companion bills. If not in the text, state 'Not specified in provided text'.

PART 2: EXECUTIVE SUMMARY
    Summarize the bill's main objectives and key provisions in plain language.
    Identify the 3-5 most significant changes or new mechanisms introduced.

PART 3: REGULATORY IMPACT & SEC RELATIONS
    Identify provisions that directly or indirectly affect the SEC, its regulatory scope or the capital markets (securities, exchanges, SROs, market participants, corporate governance, public offerings, tender offers, shelf registration).
    Specify which existing laws, rules or SEC regulations would be amended, repealed or impacted.
    Assess whether the bill creates new regulatory obligations, reporting requirements or oversight functions for the SEC.
    Highlight potential conflicts, overlaps or inconsistencies with the Securities Regulation Code (SRC), its IRR, or other SEC-administered laws such as the Corporation Code and the Investment Company Act.

PART 4: LEGAL & CONSTITUTIONAL ANALYSIS
    Identify potential legal or constitutional issues raised by the bill.
    Analyze the clarity of the bill's language and any ambiguities that may hinder implementation or enforcement.
    Note any sunset provisions, accountability measures or reporting requirements. If none, state 'No specific sunset provisions, accountability measures, or reporting requirements identified in the text.'

PART 5: STAKEHOLDER IMPACT
    Identify the sectors, industries or groups directly affected (market participants, investors, listed companies, SROs).
    Assess potential benefits or disadvantages for these stakeholders.
    Highlight provisions that may create compliance burdens or regulatory risks.

PART 6: GOVERNANCE & ENFORCEMENT
    Analyze how the bill may shift regulatory powers or responsibilities between the SEC and other agencies or SROs.
    Identify possible avenues for regulatory arbitrage, abuse or unintended consequences.
    Assess the adequacy of enforcement, penalties and dispute resolution mechanisms.

PART 7: RECOMMENDATIONS & FURTHER QUESTIONS
    Suggest 3-5 key questions or areas for further investigation relevant to the SEC.
    Highlight any process irregularities, urgent issues or expert perspectives needed.
    Note important precedents, historical context or comparable international practices.

Cite specific bill provisions or text where possible. Stay non-partisan, objective and evidence-based. Populate every field.

Respond with a single JSON object of this shape (all values are strings unless shown as arrays):
{
  "part1BillIdentification": {"fullTitle": "", "billNumber": "", "legislativeChamber": "", "primarySponsors": "", "dateOfIntroduction": "", "currentStatus": "", "relatedBills": ""},
  "part2ExecutiveSummary": {"mainObjectivesAndKeyProvisions": "", "significantChangesOrNewMechanisms": [""]},
  "part3RegulatoryImpactAndSECRelations": {"provisionsAffectingSEC": "", "impactedLawsAndRegulations": "", "newSECRegulatoryObligations": "", "conflictsWithSRCAndSECLaws": ""},
  "part4LegalAndConstitutionalAnalysis": {"potentialLegalOrConstitutionalIssues": "", "languageClarityAndAmbiguities": "", "sunsetProvisionsAccountabilityAndReporting": ""},
  "part5StakeholderImpact": {"affectedSectorsIndustriesGroups": "", "potentialBenefitsOrDisadvantages": "", "complianceBurdensOrRegulatoryRisks": ""},
  "part6GovernanceAndEnforcement": {"shiftInRegulatoryPowers": "", "avenuesForArbitrageAbuseUnintendedConsequences": "", "adequacyOfEnforcementPenaltiesDisputeResolution": ""},
  "part7RecommendationsAndFurtherQuestions": {"keyQuestionsForSECInvestigation": [""], "processIrregularitiesUrgentIssuesExpertPerspectives": "", "precedentsHistoricalContextInternationalPractices": ""}
}

The full text of the bill is provided below:
{{.BillText}}
`,
		Parameters: []PromptParameter{
			{Name: "billText", Description: "Full text of the bill", Required: true},
			{Name: "billTitle", Description: "Official title, if known"},
			{Name: "billNumber", Description: "Bill number (e.g., HB1234, S.567), if known"},
			{Name: "legislativeChamber", Description: "House or Senate, if known"},
		},
	},

	PromptRegulatoryImpact: {
		Name:        PromptRegulatoryImpact,
		Description: "SEC impact assessment and draft comment for a bill comparison",
		Subject:     "regulatory impact assessment",
		System:      "You are an expert in Philippine SEC regulations.",
		Template: `Given the following bill comparison, assess the potential impact on SEC regulations and draft an initial comment.

Bill Comparison:
{{.BillComparison}}

Consider potential conflicts, overlaps or implications for existing regulations. Provide a detailed impact assessment and a well-structured draft comment suitable for submission to the SEC.

Respond with a single JSON object:
{"impactAssessment": "<assessment of the impact on SEC regulations>", "draftComment": "<draft comment>"}`,
		Parameters: []PromptParameter{
			{Name: "billComparison", Description: "Comparison of two bills: similarities, differences and conflicts", Required: true},
		},
	},
}

// Prompts returns all registered prompts keyed by name.
func Prompts() map[string]Prompt {
	return promptRegistry
}

// PromptNames returns prompt names in sorted order for consistent listing.
func PromptNames() []string {
	names := make([]string, 0, len(promptRegistry))
	for name := range promptRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetPrompt returns a prompt by name, or false if not found.
func GetPrompt(name string) (Prompt, bool) {
	prompt, exists := promptRegistry[name]
	return prompt, exists
}

// Render executes the prompt template against input, one of the flow
// input structs.
func (p Prompt) Render(input any) (string, error) {
	parsed, err := template.New(p.Name).Option("missingkey=error").Parse(p.Template)
	if err != nil {
		return "", fmt.Errorf("failed to parse prompt %s: %w", p.Name, err)
	}

	var builder strings.Builder
	if err := parsed.Execute(&builder, input); err != nil {
		return "", fmt.Errorf("failed to render prompt %s: %w", p.Name, err)
	}
	return builder.String(), nil
}
