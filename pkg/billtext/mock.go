// Package billtext supplies the full text of legislative bills, either from a
// bill-data HTTP endpoint or from an in-process simulated source.
package billtext

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// GenerateMockText builds deterministic placeholder bill text for a congress
// and bill number. A non-empty keyword shapes the title, policy and
// definitions so keyword searches produce topical text.
func GenerateMockText(congress, billNumber, keyword string) string {
	chamber := mockChamber(billNumber)
	enactingChamber := chamber
	if chamber == "Senate" {
		enactingChamber = "House of Representatives of the Philippines"
	}

	subject := "Public Welfare and Governance"
	shortTitle := "Comprehensive Development Act"
	council := "Development"
	if keyword != "" {
		subject = "Various Matters Related to " + keyword
		shortTitle = titleCase(keyword) + " Act"
		council = keyword
	}

	var builder strings.Builder

	fmt.Fprintf(&builder, "**An Act Concerning %s**\n\n", subject)
	fmt.Fprintf(&builder, "*Be it enacted by the Senate and %s in Congress assembled:*\n\n", enactingChamber)

	fmt.Fprintf(&builder, "**SECTION 1. Short Title.** - This Act shall be known as the %q.\n", shortTitle)
	fmt.Fprintf(&builder, "(Mock data for %s, Bill %s)\n\n", congress, billNumber)

	builder.WriteString("**SECTION 2. Declaration of Policy.** - It is hereby declared the policy of the State to " +
		"promote a just and dynamic social order that will ensure the prosperity and independence of the nation " +
		"and free the people from poverty through policies that provide adequate social services, promote full " +
		"employment, a rising standard of living, and an improved quality of life for all.\n")
	if keyword != "" {
		fmt.Fprintf(&builder, "This bill specifically addresses aspects of %s by proposing new regulatory "+
			"frameworks and enforcement mechanisms.\n", keyword)
	}
	builder.WriteString("\n")

	builder.WriteString("**SECTION 3. Definition of Terms.** - As used in this Act:\n")
	builder.WriteString("  (a) \"Agency\" refers to any government department, bureau, office, instrumentality, " +
		"or government-owned or -controlled corporation.\n")
	builder.WriteString("  (b) \"Stakeholder\" refers to any individual, group, or organization affected by or " +
		"having an interest in the implementation of this Act.\n")
	if keyword != "" {
		fmt.Fprintf(&builder, "  (c) %q shall mean specific activities or data points relevant to the core "+
			"subject of this bill.\n", keyword)
	}
	builder.WriteString("\n")

	builder.WriteString("**SECTION 4. Key Provisions.**\n")
	fmt.Fprintf(&builder, "  - Establishment of a National %s Council.\n", council)
	builder.WriteString("  - Allocation of funds for research and development in related fields.\n")
	builder.WriteString("  - Mandated public consultations for implementing rules and regulations.\n")
	builder.WriteString("  - Penalties for non-compliance: Fines ranging from PHP 100,000 to PHP 1,000,000 " +
		"and/or imprisonment.\n\n")

	builder.WriteString("**SECTION 5. Implementing Rules and Regulations (IRR).** - Within ninety (90) days from " +
		"the effectivity of this Act, the lead agency, in consultation with relevant stakeholders, shall promulgate " +
		"the necessary rules and regulations for the effective implementation of this Act.\n\n")

	builder.WriteString("**SECTION 6. Appropriations.** - The amount necessary to carry out the provisions of this " +
		"Act shall be included in the General Appropriations Act of the year following its enactment into law " +
		"and thereafter.\n\n")

	builder.WriteString("**SECTION 7. Separability Clause.** - If any provision or part hereof is held invalid or " +
		"unconstitutional, the remainder of the law or the provision not otherwise affected shall remain valid " +
		"and subsisting.\n\n")

	builder.WriteString("**SECTION 8. Repealing Clause.** - Any law, presidential decree or issuance, executive " +
		"order, letter of instruction, administrative order, rule or regulation contrary to or inconsistent with " +
		"the provisions of this Act is hereby repealed, modified, or amended accordingly.\n\n")

	builder.WriteString("**SECTION 9. Effectivity.** - This Act shall take effect fifteen (15) days after its " +
		"publication in the Official Gazette or in a newspaper of general circulation.\n\n")

	builder.WriteString("*Approved, (Simulated Approval Date)*\n")
	fmt.Fprintf(&builder, "(This is mock data generated for demonstration purposes for %s of the %s Congress.)\n",
		billNumber, congress)

	return builder.String()
}

// mockChamber guesses the originating chamber from a bill number prefix.
func mockChamber(billNumber string) string {
	upperNumber := strings.ToUpper(billNumber)
	switch {
	case strings.HasPrefix(upperNumber, "HR"):
		return "House of Representatives"
	case strings.HasPrefix(upperNumber, "S"):
		return "Senate"
	default:
		return "Legislature"
	}
}

// titleCase upper-cases the first letter of each space-separated word.
func titleCase(phrase string) string {
	words := strings.Split(phrase, " ")
	for i, word := range words {
		if word == "" {
			continue
		}
		firstRune, size := utf8.DecodeRuneInString(word)
		words[i] = string(unicode.ToUpper(firstRune)) + word[size:]
	}
	return strings.Join(words, " ")
}
