package guardrails

import "regexp"

// rule is one input-screening pattern. Rules are evaluated in order and
// the first match rejects, but no rule outranks another; the ordering is
// just a stable scan.
type rule struct {
	Family  string
	Pattern *regexp.Regexp
}

// inputRules are the forbidden-pattern families, grouped: instruction
// override, identity change, system-prompt disclosure, code injection,
// off-topic/dangerous topics.
var inputRules = []rule{
	// instruction-override phrasing
	{"instruction_override", regexp.MustCompile(`(?i)\bignore\s+(all\s+|the\s+|any\s+)?(previous|prior|above|earlier)\s+(instructions?|prompts?|rules?|messages?)`)},
	{"instruction_override", regexp.MustCompile(`(?i)\bdisregard\s+(all\s+|the\s+|your\s+)?(previous\s+|prior\s+)?(instructions?|rules?|guidelines?)`)},
	{"instruction_override", regexp.MustCompile(`(?i)\bforget\s+(everything|all|your\s+(instructions?|rules?|training))`)},
	{"instruction_override", regexp.MustCompile(`(?i)\bnew\s+instructions?\s*:`)},
	{"instruction_override", regexp.MustCompile(`(?i)\boverride\s+(your|the)\s+(instructions?|rules?|system)`)},

	// identity-change phrasing
	{"identity_change", regexp.MustCompile(`(?i)\byou\s+are\s+(now|no\s+longer)\b`)},
	{"identity_change", regexp.MustCompile(`(?i)\bact\s+as\s+(if\s+you|a\s|an\s)`)},
	{"identity_change", regexp.MustCompile(`(?i)\bpretend\s+(to\s+be|you\s+are)\b`)},
	{"identity_change", regexp.MustCompile(`(?i)\broleplay\s+as\b`)},
	{"identity_change", regexp.MustCompile(`(?i)\bjailbreak\b|\bDAN\s+mode\b`)},

	// system-prompt disclosure
	{"prompt_disclosure", regexp.MustCompile(`(?i)\b(reveal|show|print|repeat|display|output|leak)\b.{0,40}\b(system\s+prompt|initial\s+prompt|your\s+(prompt|instructions?))`)},
	{"prompt_disclosure", regexp.MustCompile(`(?i)\bwhat\s+(is|are)\s+your\s+(system\s+)?(prompt|instructions?)\b`)},

	// code-injection markers
	{"code_injection", regexp.MustCompile("(?i)<script|```|\\beval\\s*\\(|\\bexec\\s*\\(|\\bfunction\\s*\\(|\\bimport\\s+os\\b|;\\s*drop\\s+table\\b")},

	// off-topic / dangerous topics
	{"dangerous_topic", regexp.MustCompile(`(?i)\b(bomb|explosive|weapon|firearm|ammunition|nerve\s+agent)\b`)},
	{"dangerous_topic", regexp.MustCompile(`(?i)\b(malware|ransomware|keylogger|phishing)\b`)},
	{"dangerous_topic", regexp.MustCompile(`(?i)\bpoison\b.{0,20}\b(someone|person|people|him|her|them)\b`)},
}

// outputCodeMarkers reject generated text that drifted into emitting
// executable code.
var outputCodeMarkers = regexp.MustCompile("(?i)```|<script|\\bdef\\s+\\w+\\s*\\(|\\bfunction\\s+\\w+\\s*\\(|#!/")

// culinaryHints is the warn-only sanity check on output: text with none
// of these is suspicious but never blocked.
var culinaryHints = regexp.MustCompile(`(?i)\b(recipe|ingredient|cook|bake|grill|boil|minutes?|servings?|receta|ingredientes?|cocina|hornea|minutos?|porciones)\b`)

var (
	htmlTags     = regexp.MustCompile(`<[^>]*>`)
	controlChars = regexp.MustCompile("[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]")
	whitespace   = regexp.MustCompile(`\s+`)
)
