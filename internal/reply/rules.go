package reply

import (
	"regexp"
	"strings"
)

// Rule names reported in Boundary.Rule.
const (
	RuleDelimiter          = "reply-delimiter"
	RuleAttribution        = "attribution"
	RuleWrappedAttribution = "wrapped-attribution"
	RuleTerseAttribution   = "terse-attribution"
	RuleDatedAttribution   = "dated-attribution"
	RuleOriginalMessage    = "original-message"
	RuleHeaderBlock        = "header-block"
	RuleSignature          = "signature"
	RuleMobileFooter       = "mobile-footer"
)

// quotePrefix allows leading whitespace and any depth of ">" markers.
const quotePrefix = `^\s*(?:>\s*)*`

const emailPattern = `[^<>\s@]+@[^<>\s@]+`

var (
	attributionLine   = regexp.MustCompile(quotePrefix + `On\s.*\bwrote:\s*$`)
	attributionStart  = regexp.MustCompile(quotePrefix + `On\s.*\S`)
	attributionWrap   = regexp.MustCompile(quotePrefix + `(?:.*[\s>])?wrote:\s*$`)
	attributionInline = regexp.MustCompile(`\bOn\s.*\bwrote:\s*$`)
	terseAttribution  = regexp.MustCompile(quotePrefix + `On\s.*<` + emailPattern + `>\s*$`)
	datedAttribution  = regexp.MustCompile(quotePrefix + `\d{4}[-/]\d{1,2}[-/]\d{1,2}\s+.*<` + emailPattern + `>\s*$`)
	originalMessage   = regexp.MustCompile(`(?i)` + quotePrefix + `-+\s*Original Message\s*-+\s*$`)
	headerFrom        = regexp.MustCompile(`(?i)` + quotePrefix + `\*?From:\*?\s*\S`)
	headerFollow      = regexp.MustCompile(`(?i)` + quotePrefix + `\*?(?:Sent|Date|To|Cc|Subject):\*?`)
	signatureOpen     = regexp.MustCompile(quotePrefix + `--\x{00A0}?\s*$`)
)

// rule reports whether line i of the scan opens quoted content, and at
// which byte offset within the line the quoted content starts.
type rule struct {
	name  string
	match func(s *scan, i int) (int, bool)
}

func buildRules(cfg Config) []rule {
	delimiters := nonEmpty(cfg.Delimiters)
	footers := nonEmpty(cfg.Footers)

	return []rule{
		{name: RuleDelimiter, match: delimiterRule(delimiters)},
		{name: RuleAttribution, match: lineRule(attributionLine)},
		{name: RuleWrappedAttribution, match: wrappedAttribution},
		{name: RuleTerseAttribution, match: lineRule(terseAttribution)},
		{name: RuleDatedAttribution, match: lineRule(datedAttribution)},
		{name: RuleOriginalMessage, match: lineRule(originalMessage)},
		{name: RuleHeaderBlock, match: headerBlock},
		{name: RuleSignature, match: signature},
		{name: RuleMobileFooter, match: footerRule(footers)},
	}
}

func lineRule(re *regexp.Regexp) func(*scan, int) (int, bool) {
	return func(s *scan, i int) (int, bool) {
		return 0, re.MatchString(s.lines[i])
	}
}

// delimiterRule matches a banner anywhere in the line. Text before the
// banner survives unless it is only a quote prefix or an "On ... wrote:"
// attribution.
func delimiterRule(delimiters []string) func(*scan, int) (int, bool) {
	return func(s *scan, i int) (int, bool) {
		line := s.lines[i]
		for _, d := range delimiters {
			idx := strings.Index(line, d)
			if idx < 0 {
				continue
			}
			before := line[:idx]
			if loc := attributionInline.FindStringIndex(before); loc != nil {
				before = before[:loc[0]]
				idx = loc[0]
			}
			if strings.TrimLeft(before, " \t>") == "" {
				return 0, true
			}
			return idx, true
		}
		return 0, false
	}
}

// wrappedAttribution matches "On <date> <name>" followed by a line ending in
// "wrote:", with or without the address.
func wrappedAttribution(s *scan, i int) (int, bool) {
	if i+1 >= len(s.lines) {
		return 0, false
	}
	return 0, attributionStart.MatchString(s.lines[i]) && attributionWrap.MatchString(s.lines[i+1])
}

// headerBlock matches a forwarded-style "From:" line followed directly by
// another conventional header line.
func headerBlock(s *scan, i int) (int, bool) {
	if i+1 >= len(s.lines) {
		return 0, false
	}
	return 0, headerFrom.MatchString(s.lines[i]) && headerFollow.MatchString(s.lines[i+1])
}

// signature matches "--" when a block of non-blank lines follows it and that
// block runs into the end of the text or another marker.
func signature(s *scan, i int) (int, bool) {
	if !signatureOpen.MatchString(s.lines[i]) {
		return 0, false
	}
	j := i + 1
	for j < len(s.lines) && !s.blank(j) && !s.isMarker(j) {
		j++
	}
	if j == i+1 {
		return 0, false
	}
	j = s.skipBlank(j)
	return 0, j >= len(s.lines) || s.isMarker(j)
}

// footerRule matches client boilerplate such as "Sent from my iPhone" when
// another marker follows it.
func footerRule(footers []string) func(*scan, int) (int, bool) {
	return func(s *scan, i int) (int, bool) {
		line := strings.TrimLeft(s.lines[i], " \t>")
		for _, f := range footers {
			if !strings.HasPrefix(line, f) {
				continue
			}
			j := s.skipBlank(i + 1)
			return 0, j < len(s.lines) && s.isMarker(j)
		}
		return 0, false
	}
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
