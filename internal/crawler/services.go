package crawler

import (
	"sort"
	"strings"

	ahocorasick "github.com/cloudflare/ahocorasick"
)

// serviceKeywords maps a canonical AWS service name to the phrases that
// indicate it. Matching is case-insensitive.
var serviceKeywords = map[string][]string{
	"ec2":            {"ec2", "elastic compute"},
	"s3":             {"s3", "simple storage"},
	"lambda":         {"lambda", "serverless function"},
	"rds":            {"rds", "relational database"},
	"dynamodb":       {"dynamodb"},
	"ecs":            {"ecs", "elastic container service"},
	"eks":            {"eks", "elastic kubernetes"},
	"fargate":        {"fargate"},
	"vpc":            {"vpc", "virtual private cloud"},
	"cloudformation": {"cloudformation"},
	"cloudwatch":     {"cloudwatch"},
	"iam":            {"iam", "identity and access"},
	"sns":            {"sns", "simple notification service"},
	"sqs":            {"sqs", "simple queue service"},
}

// ServiceDetector finds AWS service mentions in free text using a single
// Aho-Corasick pass over all keywords.
type ServiceDetector struct {
	matcher  *ahocorasick.Matcher
	services []string // keyword index -> service name
}

// NewServiceDetector builds the detector from serviceKeywords.
func NewServiceDetector() *ServiceDetector {
	names := make([]string, 0, len(serviceKeywords))
	for name := range serviceKeywords {
		names = append(names, name)
	}
	sort.Strings(names)

	var patterns []string
	var services []string
	for _, name := range names {
		for _, kw := range serviceKeywords[name] {
			patterns = append(patterns, kw)
			services = append(services, name)
		}
	}

	return &ServiceDetector{
		matcher:  ahocorasick.NewStringMatcher(patterns),
		services: services,
	}
}

// Detect returns the sorted set of services mentioned in any of the given
// texts.
func (d *ServiceDetector) Detect(texts ...string) []string {
	haystack := strings.ToLower(strings.Join(texts, " "))

	found := make(map[string]struct{})
	for _, idx := range d.matcher.Match([]byte(haystack)) {
		found[d.services[idx]] = struct{}{}
	}

	detected := make([]string, 0, len(found))
	for name := range found {
		detected = append(detected, name)
	}
	sort.Strings(detected)
	return detected
}
