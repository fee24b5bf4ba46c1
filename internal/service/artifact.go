package service

import (
	"encoding/base64"
	"fmt"
	"time"
)

// renderErrorArtifact synthesizes the "screenshot" attached to a failed
// bet: a small SVG rendered from the bet context and the failure reason,
// returned as a data URI so clients can show it inline.
func renderErrorArtifact(sel BetSelection, reason string, at time.Time) string {
	svg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="480" height="300" viewBox="0 0 480 300">
<rect width="480" height="300" fill="#1a1d29"/>
<rect x="0" y="0" width="480" height="44" fill="#252a3b"/>
<text x="16" y="28" fill="#ffffff" font-family="monospace" font-size="15">%s</text>
<text x="16" y="78" fill="#8b93a7" font-family="monospace" font-size="13">%s vs %s — %s</text>
<text x="16" y="104" fill="#8b93a7" font-family="monospace" font-size="13">%s @ %s</text>
<text x="16" y="130" fill="#8b93a7" font-family="monospace" font-size="13">Stake: %.2f</text>
<text x="16" y="156" fill="#8b93a7" font-family="monospace" font-size="13">Account: %s</text>
<rect x="16" y="186" width="448" height="56" fill="#3b2020" stroke="#e5484d"/>
<text x="28" y="220" fill="#e5484d" font-family="monospace" font-size="14">BET FAILED: %s</text>
<text x="16" y="280" fill="#565d70" font-family="monospace" font-size="11">%s</text>
</svg>`,
		escapeXML(sel.Account.Platform),
		escapeXML(sel.Match.HomeTeam), escapeXML(sel.Match.AwayTeam), escapeXML(sel.Match.League),
		escapeXML(sel.Market), escapeXML(sel.Odds),
		sel.Amount,
		escapeXML(sel.Account.Name),
		escapeXML(reason),
		at.UTC().Format(time.RFC3339),
	)
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg))
}

func escapeXML(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			out = append(out, "&lt;"...)
		case '>':
			out = append(out, "&gt;"...)
		case '&':
			out = append(out, "&amp;"...)
		case '"':
			out = append(out, "&quot;"...)
		default:
			out = append(out, s[i])
		}
	}
	return string(out)
}
