package keywords

import "regexp"

// phrase maps a compound technical term to the single token it is indexed under.
type phrase struct {
	pattern   *regexp.Regexp
	canonical string
}

// phrases are matched case-insensitively against the raw text before camelCase
// splitting and tokenization. Longer phrases come first. Canonical tokens are
// plain alphanumerics so that re-extracting them yields the same token.
var phrases = []phrase{
	{regexp.MustCompile(`(?i)\bcross[\s-]+site[\s-]+scripting\b`), "xss"},
	{regexp.MustCompile(`(?i)\bserver[\s-]+side[\s-]+rendering\b`), "ssr"},
	{regexp.MustCompile(`(?i)\bsingle[\s-]+sign[\s-]+on\b`), "sso"},
	{regexp.MustCompile(`(?i)\bend[\s-]+to[\s-]+end\b`), "e2e"},
	{regexp.MustCompile(`(?i)\bdrag[\s-]+and[\s-]+drop\b`), "draganddrop"},
	{regexp.MustCompile(`(?i)\bgithub[\s-]+actions\b`), "githubactions"},
	{regexp.MustCompile(`(?i)\bmachine[\s-]+learning\b`), "machinelearning"},
	{regexp.MustCompile(`(?i)\breact[\s-]+native\b`), "reactnative"},
	{regexp.MustCompile(`(?i)\bunit[\s-]+tests?\b`), "unittest"},
	{regexp.MustCompile(`(?i)\buser[\s-]+interfaces?\b`), "ui"},
	{regexp.MustCompile(`(?i)\buser[\s-]+experience\b`), "ux"},
	{regexp.MustCompile(`(?i)\bweb[\s-]*sockets?\b`), "websocket"},
	{regexp.MustCompile(`(?i)\bmemory[\s-]+leaks?\b`), "memoryleak"},
	{regexp.MustCompile(`(?i)\brace[\s-]+conditions?\b`), "racecondition"},
	{regexp.MustCompile(`(?i)\brate[\s-]+limit(?:s|ing|er)?\b`), "ratelimit"},
	{regexp.MustCompile(`(?i)\bstate[\s-]+management\b`), "statemanagement"},
	{regexp.MustCompile(`(?i)\btest[\s-]+coverage\b`), "testcoverage"},
	{regexp.MustCompile(`(?i)\bload[\s-]+balanc(?:er|ers|ing)\b`), "loadbalancer"},
	{regexp.MustCompile(`(?i)\bsql[\s-]+injection\b`), "sqlinjection"},
	{regexp.MustCompile(`(?i)\bci\s*/\s*cd\b`), "cicd"},
	{regexp.MustCompile(`(?i)\be2e\b`), "e2e"},
	{regexp.MustCompile(`(?i)\bnext(?:\.|\s)?js\b`), "nextjs"},
	{regexp.MustCompile(`(?i)\bnode(?:\.|\s)?js\b`), "nodejs"},
	{regexp.MustCompile(`(?i)\bvue(?:\.|\s)?js\b`), "vuejs"},
	{regexp.MustCompile(`(?i)\bnuxt(?:\.|\s)?js\b`), "nuxtjs"},
	{regexp.MustCompile(`(?i)\breact\.js\b`), "react"},
	{regexp.MustCompile(`(?i)\bexpress\.js\b`), "express"},
	{regexp.MustCompile(`(?i)\basp\.net\b`), "dotnet"},
	{regexp.MustCompile(`(?i)(?:^|\s)\.net\b`), "dotnet"},
	{regexp.MustCompile(`(?i)\bc\+\+`), "cpp"},
	{regexp.MustCompile(`(?i)\bc#`), "csharp"},
	{regexp.MustCompile(`(?i)\bjavascript\b`), "javascript"},
	{regexp.MustCompile(`(?i)\btypescript\b`), "typescript"},
	{regexp.MustCompile(`(?i)\bpostgre(?:s|sql)\b`), "postgresql"},
	{regexp.MustCompile(`(?i)\bmysql\b`), "mysql"},
	{regexp.MustCompile(`(?i)\bgraphql\b`), "graphql"},
	{regexp.MustCompile(`(?i)\bmongodb\b`), "mongodb"},
	{regexp.MustCompile(`(?i)\bdevops\b`), "devops"},
	{regexp.MustCompile(`(?i)\boauth2?\b`), "oauth"},
	{regexp.MustCompile(`(?i)\bgithub\b`), "github"},
	{regexp.MustCompile(`(?i)\bgitlab\b`), "gitlab"},
	{regexp.MustCompile(`(?i)\bmacos\b`), "macos"},
	{regexp.MustCompile(`(?i)\bios\b`), "ios"},
	{regexp.MustCompile(`(?i)\bfastapi\b`), "fastapi"},
	{regexp.MustCompile(`(?i)\bpytorch\b`), "pytorch"},
	{regexp.MustCompile(`(?i)\btensorflow\b`), "tensorflow"},
}

// stopWords are dropped after tokenization.
var stopWords = map[string]struct{}{
	"a": {}, "about": {}, "above": {}, "after": {}, "again": {}, "all": {}, "also": {},
	"am": {}, "an": {}, "and": {}, "any": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"because": {}, "been": {}, "before": {}, "being": {}, "below": {}, "between": {},
	"both": {}, "but": {}, "by": {}, "can": {}, "cannot": {}, "could": {}, "did": {},
	"do": {}, "does": {}, "doing": {}, "don": {}, "down": {}, "during": {}, "each": {},
	"etc": {}, "few": {}, "for": {}, "from": {}, "further": {}, "get": {}, "gets": {},
	"had": {}, "has": {}, "have": {}, "having": {}, "he": {}, "her": {}, "here": {},
	"hers": {}, "him": {}, "his": {}, "how": {}, "however": {}, "if": {}, "in": {},
	"into": {}, "is": {}, "it": {}, "its": {}, "just": {}, "like": {}, "may": {},
	"me": {}, "might": {}, "more": {}, "most": {}, "must": {}, "my": {}, "need": {},
	"needs": {}, "no": {}, "nor": {}, "not": {}, "now": {}, "of": {}, "off": {},
	"on": {}, "once": {}, "only": {}, "or": {}, "other": {}, "our": {}, "ours": {},
	"out": {}, "over": {}, "own": {}, "please": {}, "same": {}, "she": {}, "should": {},
	"so": {}, "some": {}, "such": {}, "than": {}, "that": {}, "the": {}, "their": {},
	"them": {}, "then": {}, "there": {}, "these": {}, "they": {}, "this": {}, "those": {},
	"through": {}, "to": {}, "too": {}, "under": {}, "until": {}, "up": {}, "very": {},
	"via": {}, "want": {}, "was": {}, "we": {}, "were": {}, "what": {}, "when": {},
	"where": {}, "which": {}, "while": {}, "who": {}, "whom": {}, "why": {}, "will": {},
	"with": {}, "would": {}, "you": {}, "your": {}, "yours": {},
	// issue boilerplate
	"add": {}, "adding": {}, "issue": {}, "issues": {}, "thanks": {}, "thank": {},
	"hi": {}, "hello": {}, "currently": {}, "expected": {}, "actual": {}, "steps": {},
	"reproduce": {}, "using": {}, "used": {}, "new": {}, "make": {}, "way": {},
}

// IsStopWord reports whether word is ignored by the extractor.
func IsStopWord(word string) bool {
	_, ok := stopWords[word]
	return ok
}
