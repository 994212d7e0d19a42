package flows

import (
	"fmt"
	"strings"
)

// SummarizeInput is the input of SummarizeBill.
type SummarizeInput struct {
	BillText       string `json:"billText" validate:"required"`
	CongressNumber string `json:"congressNumber"`
	BillNumber     string `json:"billNumber"`
}

// SummarizeOutput is a concise summary of one bill.
type SummarizeOutput struct {
	Summary string `json:"summary" validate:"required"`
}

// CompareInput is the input of CompareBills.
type CompareInput struct {
	Bill1Summary string `json:"bill1Summary" validate:"required"`
	Bill2Summary string `json:"bill2Summary" validate:"required"`
}

// CompareOutput contrasts two bills and drafts an SEC comment for each.
type CompareOutput struct {
	Similarities                    string `json:"similarities" validate:"required"`
	Differences                     string `json:"differences" validate:"required"`
	PotentialConflicts              string `json:"potentialConflicts" validate:"required"`
	RegulatoryImpactAssessmentBill1 string `json:"regulatoryImpactAssessmentBill1" validate:"required"`
	RegulatoryImpactAssessmentBill2 string `json:"regulatoryImpactAssessmentBill2" validate:"required"`
}

// Text formats the comparison as plain text, the form AssessRegulatoryImpact
// takes as input.
func (c CompareOutput) Text() string {
	var builder strings.Builder
	for index, field := range c.Fields() {
		if index > 0 {
			builder.WriteString("\n\n")
		}
		fmt.Fprintf(&builder, "%s:\n%s", field.Label, field.Text)
	}
	return builder.String()
}

// AssessInput is the input of AssessRegulatoryImpact.
type AssessInput struct {
	BillComparison string `json:"billComparison" validate:"required"`
}

// AssessOutput is an impact assessment plus a draft comment for the SEC.
type AssessOutput struct {
	ImpactAssessment string `json:"impactAssessment" validate:"required"`
	DraftComment     string `json:"draftComment" validate:"required"`
}

// DetailedInput is the input of DetailedSECAnalysis. Optional fields are
// taken from the bill text by the model when empty.
type DetailedInput struct {
	BillText           string `json:"billText" validate:"required"`
	BillTitle          string `json:"billTitle,omitempty"`
	BillNumber         string `json:"billNumber,omitempty"`
	LegislativeChamber string `json:"legislativeChamber,omitempty"`
}

// DetailedOutput is the seven-part SEC analysis of a single bill.
type DetailedOutput struct {
	Part1BillIdentification                 BillIdentification       `json:"part1BillIdentification"`
	Part2ExecutiveSummary                   ExecutiveSummary         `json:"part2ExecutiveSummary"`
	Part3RegulatoryImpactAndSECRelations    RegulatoryImpact         `json:"part3RegulatoryImpactAndSECRelations"`
	Part4LegalAndConstitutionalAnalysis     LegalAnalysis            `json:"part4LegalAndConstitutionalAnalysis"`
	Part5StakeholderImpact                  StakeholderImpact        `json:"part5StakeholderImpact"`
	Part6GovernanceAndEnforcement           GovernanceEnforcement    `json:"part6GovernanceAndEnforcement"`
	Part7RecommendationsAndFurtherQuestions RecommendationsQuestions `json:"part7RecommendationsAndFurtherQuestions"`
}

// BillIdentification is part 1 of the detailed analysis.
type BillIdentification struct {
	FullTitle          string `json:"fullTitle" validate:"required"`
	BillNumber         string `json:"billNumber" validate:"required"`
	LegislativeChamber string `json:"legislativeChamber" validate:"required"`
	PrimarySponsors    string `json:"primarySponsors" validate:"required"`
	DateOfIntroduction string `json:"dateOfIntroduction" validate:"required"`
	CurrentStatus      string `json:"currentStatus" validate:"required"`
	RelatedBills       string `json:"relatedBills" validate:"required"`
}

// ExecutiveSummary is part 2 of the detailed analysis.
type ExecutiveSummary struct {
	MainObjectivesAndKeyProvisions    string   `json:"mainObjectivesAndKeyProvisions" validate:"required"`
	SignificantChangesOrNewMechanisms []string `json:"significantChangesOrNewMechanisms" validate:"min=1,dive,required"`
}

// RegulatoryImpact is part 3 of the detailed analysis.
type RegulatoryImpact struct {
	ProvisionsAffectingSEC      string `json:"provisionsAffectingSEC" validate:"required"`
	ImpactedLawsAndRegulations  string `json:"impactedLawsAndRegulations" validate:"required"`
	NewSECRegulatoryObligations string `json:"newSECRegulatoryObligations" validate:"required"`
	ConflictsWithSRCAndSECLaws  string `json:"conflictsWithSRCAndSECLaws" validate:"required"`
}

// LegalAnalysis is part 4 of the detailed analysis.
type LegalAnalysis struct {
	PotentialLegalOrConstitutionalIssues       string `json:"potentialLegalOrConstitutionalIssues" validate:"required"`
	LanguageClarityAndAmbiguities              string `json:"languageClarityAndAmbiguities" validate:"required"`
	SunsetProvisionsAccountabilityAndReporting string `json:"sunsetProvisionsAccountabilityAndReporting" validate:"required"`
}

// StakeholderImpact is part 5 of the detailed analysis.
type StakeholderImpact struct {
	AffectedSectorsIndustriesGroups    string `json:"affectedSectorsIndustriesGroups" validate:"required"`
	PotentialBenefitsOrDisadvantages   string `json:"potentialBenefitsOrDisadvantages" validate:"required"`
	ComplianceBurdensOrRegulatoryRisks string `json:"complianceBurdensOrRegulatoryRisks" validate:"required"`
}

// GovernanceEnforcement is part 6 of the detailed analysis.
type GovernanceEnforcement struct {
	ShiftInRegulatoryPowers                         string `json:"shiftInRegulatoryPowers" validate:"required"`
	AvenuesForArbitrageAbuseUnintendedConsequences  string `json:"avenuesForArbitrageAbuseUnintendedConsequences" validate:"required"`
	AdequacyOfEnforcementPenaltiesDisputeResolution string `json:"adequacyOfEnforcementPenaltiesDisputeResolution" validate:"required"`
}

// RecommendationsQuestions is part 7 of the detailed analysis.
type RecommendationsQuestions struct {
	KeyQuestionsForSECInvestigation                    []string `json:"keyQuestionsForSECInvestigation" validate:"min=1,dive,required"`
	ProcessIrregularitiesUrgentIssuesExpertPerspectives string   `json:"processIrregularitiesUrgentIssuesExpertPerspectives" validate:"required"`
	PrecedentsHistoricalContextInternationalPractices  string   `json:"precedentsHistoricalContextInternationalPractices" validate:"required"`
}

// Field is one labelled piece of flow output, in display order. List
// outputs carry Items instead of Text.
type Field struct {
	Key     string   `json:"key"`
	Section string   `json:"section,omitempty"`
	Label   string   `json:"label"`
	Text    string   `json:"text,omitempty"`
	Items   []string `json:"items,omitempty"`
}

// Fields lists the summary.
func (s SummarizeOutput) Fields() []Field {
	return []Field{{Key: "summary", Label: "Summary", Text: s.Summary}}
}

// Fields lists the comparison parts in display order.
func (c CompareOutput) Fields() []Field {
	return []Field{
		{Key: "similarities", Label: "Similarities", Text: c.Similarities},
		{Key: "differences", Label: "Differences", Text: c.Differences},
		{Key: "potentialConflicts", Label: "Potential Conflicts", Text: c.PotentialConflicts},
	}
}

// CommentFields lists the two draft SEC comments.
func (c CompareOutput) CommentFields() []Field {
	return []Field{
		{Key: "regulatoryImpactAssessmentBill1", Label: "Regulatory Impact Assessment (Bill 1)", Text: c.RegulatoryImpactAssessmentBill1},
		{Key: "regulatoryImpactAssessmentBill2", Label: "Regulatory Impact Assessment (Bill 2)", Text: c.RegulatoryImpactAssessmentBill2},
	}
}

// Fields lists the assessment and the draft comment.
func (a AssessOutput) Fields() []Field {
	return []Field{
		{Key: "impactAssessment", Label: "Impact Assessment", Text: a.ImpactAssessment},
		{Key: "draftComment", Label: "Draft Comment", Text: a.DraftComment},
	}
}

// Section titles of the detailed analysis.
const (
	SectionIdentification  = "Part 1: Bill Identification"
	SectionSummary         = "Part 2: Executive Summary"
	SectionRegulatory      = "Part 3: Regulatory Impact & SEC Relations"
	SectionLegal           = "Part 4: Legal & Constitutional Analysis"
	SectionStakeholders    = "Part 5: Stakeholder Impact"
	SectionGovernance      = "Part 6: Governance & Enforcement"
	SectionRecommendations = "Part 7: Recommendations & Further Questions"
)

// Fields flattens the seven parts in display order. Keys are
// "{part}.{field}" using the JSON names.
func (d DetailedOutput) Fields() []Field {
	p1 := d.Part1BillIdentification
	p2 := d.Part2ExecutiveSummary
	p3 := d.Part3RegulatoryImpactAndSECRelations
	p4 := d.Part4LegalAndConstitutionalAnalysis
	p5 := d.Part5StakeholderImpact
	p6 := d.Part6GovernanceAndEnforcement
	p7 := d.Part7RecommendationsAndFurtherQuestions

	text := func(part, key, section, label, value string) Field {
		return Field{Key: part + "." + key, Section: section, Label: label, Text: value}
	}
	list := func(part, key, section, label string, items []string) Field {
		return Field{Key: part + "." + key, Section: section, Label: label, Items: items}
	}

	return []Field{
		text("part1BillIdentification", "fullTitle", SectionIdentification, "Full Title", p1.FullTitle),
		text("part1BillIdentification", "billNumber", SectionIdentification, "Bill Number", p1.BillNumber),
		text("part1BillIdentification", "legislativeChamber", SectionIdentification, "Legislative Chamber", p1.LegislativeChamber),
		text("part1BillIdentification", "primarySponsors", SectionIdentification, "Primary Sponsors", p1.PrimarySponsors),
		text("part1BillIdentification", "dateOfIntroduction", SectionIdentification, "Date of Introduction", p1.DateOfIntroduction),
		text("part1BillIdentification", "currentStatus", SectionIdentification, "Current Status", p1.CurrentStatus),
		text("part1BillIdentification", "relatedBills", SectionIdentification, "Related Bills", p1.RelatedBills),

		text("part2ExecutiveSummary", "mainObjectivesAndKeyProvisions", SectionSummary, "Main Objectives & Key Provisions", p2.MainObjectivesAndKeyProvisions),
		list("part2ExecutiveSummary", "significantChangesOrNewMechanisms", SectionSummary, "Significant Changes or New Mechanisms", p2.SignificantChangesOrNewMechanisms),

		text("part3RegulatoryImpactAndSECRelations", "provisionsAffectingSEC", SectionRegulatory, "Provisions Affecting the SEC", p3.ProvisionsAffectingSEC),
		text("part3RegulatoryImpactAndSECRelations", "impactedLawsAndRegulations", SectionRegulatory, "Impacted Laws & Regulations", p3.ImpactedLawsAndRegulations),
		text("part3RegulatoryImpactAndSECRelations", "newSECRegulatoryObligations", SectionRegulatory, "New SEC Regulatory Obligations", p3.NewSECRegulatoryObligations),
		text("part3RegulatoryImpactAndSECRelations", "conflictsWithSRCAndSECLaws", SectionRegulatory, "Conflicts with the SRC & SEC Laws", p3.ConflictsWithSRCAndSECLaws),

		text("part4LegalAndConstitutionalAnalysis", "potentialLegalOrConstitutionalIssues", SectionLegal, "Potential Legal or Constitutional Issues", p4.PotentialLegalOrConstitutionalIssues),
		text("part4LegalAndConstitutionalAnalysis", "languageClarityAndAmbiguities", SectionLegal, "Language Clarity & Ambiguities", p4.LanguageClarityAndAmbiguities),
		text("part4LegalAndConstitutionalAnalysis", "sunsetProvisionsAccountabilityAndReporting", SectionLegal, "Sunset Provisions, Accountability & Reporting", p4.SunsetProvisionsAccountabilityAndReporting),

		text("part5StakeholderImpact", "affectedSectorsIndustriesGroups", SectionStakeholders, "Affected Sectors, Industries & Groups", p5.AffectedSectorsIndustriesGroups),
		text("part5StakeholderImpact", "potentialBenefitsOrDisadvantages", SectionStakeholders, "Potential Benefits or Disadvantages", p5.PotentialBenefitsOrDisadvantages),
		text("part5StakeholderImpact", "complianceBurdensOrRegulatoryRisks", SectionStakeholders, "Compliance Burdens or Regulatory Risks", p5.ComplianceBurdensOrRegulatoryRisks),

		text("part6GovernanceAndEnforcement", "shiftInRegulatoryPowers", SectionGovernance, "Shift in Regulatory Powers", p6.ShiftInRegulatoryPowers),
		text("part6GovernanceAndEnforcement", "avenuesForArbitrageAbuseUnintendedConsequences", SectionGovernance, "Avenues for Arbitrage, Abuse or Unintended Consequences", p6.AvenuesForArbitrageAbuseUnintendedConsequences),
		text("part6GovernanceAndEnforcement", "adequacyOfEnforcementPenaltiesDisputeResolution", SectionGovernance, "Adequacy of Enforcement, Penalties & Dispute Resolution", p6.AdequacyOfEnforcementPenaltiesDisputeResolution),

		list("part7RecommendationsAndFurtherQuestions", "keyQuestionsForSECInvestigation", SectionRecommendations, "Key Questions for SEC Investigation", p7.KeyQuestionsForSECInvestigation),
		text("part7RecommendationsAndFurtherQuestions", "processIrregularitiesUrgentIssuesExpertPerspectives", SectionRecommendations, "Process Irregularities, Urgent Issues & Expert Perspectives", p7.ProcessIrregularitiesUrgentIssuesExpertPerspectives),
		text("part7RecommendationsAndFurtherQuestions", "precedentsHistoricalContextInternationalPractices", SectionRecommendations, "Precedents, Historical Context & International Practices", p7.PrecedentsHistoricalContextInternationalPractices),
	}
}
