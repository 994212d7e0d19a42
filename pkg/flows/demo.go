package flows

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/coolbeans/legiscompare/pkg/llm"
)

// DemoResponder answers every flow with fixed, well-formed output so the
// service can run without model credentials (provider "static").
func DemoResponder() llm.ResponderFunc {
	return func(_ context.Context, req llm.Request) (string, error) {
		var output any
		switch req.Name {
		case PromptSummarizeBill:
			output = demoSummary
		case PromptCompareBills:
			output = demoComparison
		case PromptDetailedAnalysis:
			output = demoDetailed
		case PromptRegulatoryImpact:
			output = demoAssessment
		default:
			return "", llm.NewFatalError(fmt.Errorf("no demo output for %q", req.Name))
		}

		data, err := json.Marshal(output)
		if err != nil {
			return "", llm.NewFatalError(err)
		}
		return string(data), nil
	}
}

var demoSummary = SummarizeOutput{
	Summary: "The bill establishes a regulatory framework for digital asset offerings, " +
		"amending Republic Act No. 8799 to bring tokenized securities under SEC registration. " +
		"It mirrors House Bill No. 4664 and requires exchanges to register as self-regulatory organizations.",
}

var demoComparison = CompareOutput{
	Similarities: "Both measures place digital asset offerings under SEC registration and " +
		"build on Republic Act No. 8799.",
	Differences: "Senate Bill No. 1234 creates a regulatory sandbox while HB 4664 relies on " +
		"existing exemption rules. The House version sets higher capital requirements.",
	PotentialConflicts: "The two versions assign licensing of digital asset exchanges to different " +
		"agencies, which would need reconciliation in a bicameral conference.",
	RegulatoryImpactAssessmentBill1: "Bill 1 would require new SEC rules on sandbox eligibility and " +
		"amendments to the Implementing Rules of Republic Act No. 8799.",
	RegulatoryImpactAssessmentBill2: "Bill 2 expands SEC registration requirements and would need " +
		"coordination with the Bangko Sentral ng Pilipinas under RA 11211.",
}

var demoAssessment = AssessOutput{
	ImpactAssessment: "Both versions expand the SEC's mandate over digital assets. The Commission " +
		"would need new registration forms, sandbox rules and inter-agency agreements.",
	DraftComment: "The Commission supports the policy objectives of Senate Bill No. 1234 and " +
		"House Bill No. 4664 and recommends harmonizing the licensing provisions with Republic Act No. 8799.",
}

var demoDetailed = DetailedOutput{
	Part1BillIdentification: BillIdentification{
		FullTitle:          "An Act Regulating Digital Asset Offerings, Amending Republic Act No. 8799",
		BillNumber:         "HB 4664",
		LegislativeChamber: "House",
		PrimarySponsors:    "Not specified in provided text",
		DateOfIntroduction: "Not specified in provided text",
		CurrentStatus:      "Not specified in provided text",
		RelatedBills:       "Senate Bill No. 1234",
	},
	Part2ExecutiveSummary: ExecutiveSummary{
		MainObjectivesAndKeyProvisions: "The bill brings digital asset offerings under SEC registration " +
			"and creates licensing rules for digital asset exchanges.",
		SignificantChangesOrNewMechanisms: []string{
			"Registration of tokenized securities with the SEC",
			"Licensing of digital asset exchanges as self-regulatory organizations",
			"A regulatory sandbox for new offerings",
		},
	},
	Part3RegulatoryImpactAndSECRelations: RegulatoryImpact{
		ProvisionsAffectingSEC:      "Sections 3 and 4 extend the definition of securities under Republic Act No. 8799.",
		ImpactedLawsAndRegulations:  "Republic Act No. 8799 and its Implementing Rules; RA 11232 on corporate registration.",
		NewSECRegulatoryObligations: "The SEC would issue sandbox rules and supervise exchange licensing.",
		ConflictsWithSRCAndSECLaws:  "The exemption in Section 5 overlaps with existing small offering exemptions.",
	},
	Part4LegalAndConstitutionalAnalysis: LegalAnalysis{
		PotentialLegalOrConstitutionalIssues:       "Delegation of rule-making to the SEC is broad but has sufficient standards.",
		LanguageClarityAndAmbiguities:              "The term \"digital asset\" is not defined consistently across sections.",
		SunsetProvisionsAccountabilityAndReporting: "Annual reporting to Congress is required; no sunset provision.",
	},
	Part5StakeholderImpact: StakeholderImpact{
		AffectedSectorsIndustriesGroups:    "Issuers, digital asset exchanges, investors and brokers.",
		PotentialBenefitsOrDisadvantages:   "Clearer rules attract issuers; compliance costs rise for small platforms.",
		ComplianceBurdensOrRegulatoryRisks: "Capital requirements may exclude smaller exchanges.",
	},
	Part6GovernanceAndEnforcement: GovernanceEnforcement{
		ShiftInRegulatoryPowers:                         "Shares oversight of exchanges between the SEC and the Bangko Sentral ng Pilipinas.",
		AvenuesForArbitrageAbuseUnintendedConsequences:  "Offerings may be structured to fall within the sandbox indefinitely.",
		AdequacyOfEnforcementPenaltiesDisputeResolution: "Penalties track Republic Act No. 8799 and appear adequate.",
	},
	Part7RecommendationsAndFurtherQuestions: RecommendationsQuestions{
		KeyQuestionsForSECInvestigation: []string{
			"How will sandbox graduation criteria be set?",
			"Which agency licenses custodians?",
			"How does the bill interact with Senate Bill No. 1234?",
		},
		ProcessIrregularitiesUrgentIssuesExpertPerspectives: "Technical input from market operators is needed before second reading.",
		PrecedentsHistoricalContextInternationalPractices:   "Comparable regimes exist in Singapore and the European Union.",
	},
}
