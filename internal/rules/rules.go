package rules

import (
	"strings"

	"github.com/mikey/invoice-printer/internal/core"
	"go.uber.org/zap"
)

// DefaultPageRange is printed for every approved attachment
const DefaultPageRange = "1-3"

// Input is the lowercased view of the fields a rule inspects
type Input struct {
	Subject  string
	FileName string
	From     string
	To       string
}

// Rule rejects an attachment with Reason when Match returns true
type Rule struct {
	Name   string
	Reason string
	Match  func(Input) bool
}

// DefaultRules are evaluated in order; the first match wins.
var DefaultRules = []Rule{
	{
		Name:   "filename-lacks-faktura",
		Reason: "SUBJECT NOT: faktura",
		Match:  func(in Input) bool { return !strings.Contains(in.FileName, "faktura") },
	},
	{
		Name:   "to-infolet",
		Reason: "TO: infolet.pl",
		Match:  func(in Input) bool { return strings.Contains(in.To, "infolet.pl") },
	},
	{
		Name:   "subject-reply",
		Reason: "SUBJECT: re:",
		Match:  func(in Input) bool { return strings.HasPrefix(in.Subject, "re:") },
	},
	{
		Name:   "subject-reply-pl",
		Reason: "SUBJECT: odp:",
		Match:  func(in Input) bool { return strings.HasPrefix(in.Subject, "odp:") },
	},
}

// Checker classifies attachments against an ordered rule list
type Checker struct {
	rules     []Rule
	pageRange string
	logger    *zap.Logger
}

// NewChecker creates a new rule checker
func NewChecker(rules []Rule, pageRange string, logger *zap.Logger) *Checker {
	if logger != nil {
		names := make([]string, len(rules))
		for i, r := range rules {
			names[i] = r.Name
		}
		logger.Debug("Initialized rule checker",
			zap.Strings("rules", names),
			zap.String("page_range", pageRange))
	}

	return &Checker{
		rules:     rules,
		pageRange: pageRange,
		logger:    logger,
	}
}

// NewDefaultChecker creates a checker with DefaultRules and DefaultPageRange
func NewDefaultChecker(logger *zap.Logger) *Checker {
	return NewChecker(DefaultRules, DefaultPageRange, logger)
}

// Classify implements core.Classifier. Comparisons are case-insensitive.
func (c *Checker) Classify(subject, fileName, from, to string) core.ClassificationOutcome {
	in := Input{
		Subject:  strings.ToLower(subject),
		FileName: strings.ToLower(fileName),
		From:     strings.ToLower(from),
		To:       strings.ToLower(to),
	}

	for _, rule := range c.rules {
		if rule.Match(in) {
			if c.logger != nil {
				c.logger.Debug("Rule matched",
					zap.String("rule", rule.Name),
					zap.String("file_name", fileName))
			}
			return core.ClassificationOutcome{Reason: rule.Reason}
		}
	}

	return core.ClassificationOutcome{PageRange: c.pageRange}
}

// Rules returns the rules in evaluation order
func (c *Checker) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}
