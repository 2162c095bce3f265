// Package batch partitions rendered report sections into an ordered
// sequence of messages, each within a channel's byte budget. Sections
// are indivisible: only section boundaries are split points, and a
// section larger than the budget goes out oversized rather than cut.
package batch

import (
	"github.com/trendwatch-io/trendwatch/internal/output/render"
)

// safetyMargin is reserved from the budget on top of the footer, so
// late additions like batch numbering never push a message over the
// channel limit.
const safetyMargin = 500

// FooterFunc renders the trailer for message part of total.
type FooterFunc func(part, total int) string

// Split packs sections into messages of at most maxBytes UTF-8 bytes.
// Every message starts with header and ends with the footer. A message
// is flushed before a section only when it already carries content
// beyond the header; the failed-platform section is always appended in
// place.
func Split(sections []render.Section, header string, footer FooterFunc, maxBytes int) []string {
	footerReserve := len(footer(99, 99))

	budget := maxBytes - footerReserve - safetyMargin
	if budget <= len(header) {
		// Budgets too small for the margin degrade to reserving the
		// footer alone instead of emitting one section per message.
		budget = maxBytes - footerReserve
	}

	var bodies []string

	current := header
	hasContent := false

	flush := func() {
		bodies = append(bodies, current)
		current = header
		hasContent = false
	}

	for _, section := range sections {
		overflows := len(current)+len(section.Text) > budget

		if overflows && hasContent && !section.Failed {
			flush()
		}

		current += section.Text
		hasContent = true
	}

	if hasContent {
		flush()
	}

	out := make([]string, len(bodies))
	for i, body := range bodies {
		out[i] = body + footer(i+1, len(bodies))
	}

	return out
}
