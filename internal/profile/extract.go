package profile

import (
	"regexp"
	"strings"

	"github.com/vnbizdata/collector-cli/internal/model"
)

var (
	tagRe        = regexp.MustCompile(`<[^>]*>`)
	scriptRe     = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	whitespaceRe = regexp.MustCompile(`[ \t\x{00a0}]+`)

	// Mobile numbers use the post-2018 prefixes; landlines start 02
	// followed by a region code. Separators and a +84 country prefix
	// are tolerated on input and stripped before validation.
	mobileRe   = regexp.MustCompile(`^0(3[2-9]|5[2689]|7[06-9]|8[1-9]|9[0-9])\d{7}$`)
	landlineRe = regexp.MustCompile(`^02\d{8,9}$`)

	phoneSepRe = regexp.MustCompile(`[\s.\-()]`)
)

// stripHTML reduces an HTML document to its visible text, one line per
// block-level break.
func stripHTML(html string) string {
	text := scriptRe.ReplaceAllString(html, " ")
	// Table cells stay on one line so a label and its value read as
	// "Điện thoại: 0938588768"; rows and block elements break lines.
	text = regexp.MustCompile(`(?i)<br\s*/?>|</p>|</div>|</li>|</tr>|</h[1-6]>`).ReplaceAllString(text, "\n")
	text = tagRe.ReplaceAllString(text, " ")
	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&quot;", `"`)
	text = strings.ReplaceAll(text, "&#39;", "'")
	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(whitespaceRe.ReplaceAllString(line, " "))
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// extractFields scans the visible text of a profile page for the marker
// labels and collects the value that follows each one. Only the first
// hit per field is kept.
func extractFields(text string, markers Markers, taxID string) model.SupplementaryRecord {
	rec := model.SupplementaryRecord{
		TaxID: taxID,
		Raw:   map[string]string{},
	}

	for _, line := range strings.Split(text, "\n") {
		if rec.Representative == "" {
			if v := valueAfter(line, markers.Representative); v != "" {
				rec.Representative = v
				rec.Raw["representative"] = line
			}
		}
		if rec.Phone == "" {
			if v := valueAfter(line, markers.Phone); v != "" {
				if phone, ok := NormalizePhone(v, taxID); ok {
					rec.Phone = phone
					rec.Raw["phone"] = line
				}
			}
		}
		if rec.Address == "" {
			if v := valueAfter(line, markers.Address); v != "" {
				rec.Address = v
				rec.Raw["address"] = line
			}
		}
		if rec.Email == "" {
			if v := valueAfter(line, markers.Email); v != "" {
				rec.Email = v
				rec.Raw["email"] = line
			}
		}
		if rec.Status == "" {
			if v := valueAfter(line, markers.Status); v != "" {
				rec.Status = v
				rec.Raw["status"] = line
			}
		}
	}

	return rec
}

// valueAfter returns the text following the first matching marker on
// the line, or "" when no marker matches.
func valueAfter(line string, labels []string) string {
	for _, label := range labels {
		idx := strings.Index(line, label)
		if idx < 0 {
			continue
		}
		val := strings.TrimSpace(line[idx+len(label):])
		// Pages sometimes run several labelled fields onto one line;
		// cut at the next label-looking token.
		if cut := strings.Index(val, "  "); cut > 0 {
			val = strings.TrimSpace(val[:cut])
		}
		if val != "" {
			return val
		}
	}
	return ""
}

// NormalizePhone validates a candidate phone number against Vietnamese
// numbering rules and returns it in canonical 0-prefixed form. The
// company's own tax identifier is rejected: profile pages frequently
// repeat the tax id near the phone label and a 10-digit tax id is
// indistinguishable from a phone number by shape alone.
func NormalizePhone(raw, taxID string) (string, bool) {
	phone := phoneSepRe.ReplaceAllString(raw, "")
	if strings.HasPrefix(phone, "+84") {
		phone = "0" + phone[3:]
	} else if strings.HasPrefix(phone, "84") && len(phone) >= 10 {
		phone = "0" + phone[2:]
	}

	if phone == "" || phone == taxID {
		return "", false
	}
	for _, r := range phone {
		if r < '0' || r > '9' {
			return "", false
		}
	}

	if mobileRe.MatchString(phone) || landlineRe.MatchString(phone) {
		return phone, true
	}
	return "", false
}
