package index

import (
	"fmt"
	"regexp"
	"strings"
)

// BoostConfig controls query-time entity boosting. Both patterns are matched
// case-insensitively; when a pattern has a capture group the first group is
// taken as the matched phrase.
type BoostConfig struct {
	ProductPattern string  `yaml:"product_pattern"`
	CompanyPattern string  `yaml:"company_pattern"`
	ProductBoost   float64 `yaml:"product_boost"`
	CompanyBoost   float64 `yaml:"company_boost"`
}

// DefaultBoostConfig returns the product/company patterns and weights tuned
// for the RAGent AI corpus.
func DefaultBoostConfig() BoostConfig {
	return BoostConfig{
		ProductPattern: `\b(RAGent\s+(?:Search|Assistant|Analytics|Connect))\b`,
		CompanyPattern: `\b(RAGent\s*AI|RAGent)\b`,
		ProductBoost:   0.20,
		CompanyBoost:   0.30,
	}
}

type booster struct {
	product      *regexp.Regexp
	company      *regexp.Regexp
	productBoost float64
	companyBoost float64
}

// entityMatches holds the phrases recognised in one query.
type entityMatches struct {
	products  []string
	companies []string
}

func newBooster(cfg BoostConfig) (*booster, error) {
	b := &booster{productBoost: cfg.ProductBoost, companyBoost: cfg.CompanyBoost}
	var err error
	if cfg.ProductPattern != "" {
		if b.product, err = regexp.Compile("(?i)" + cfg.ProductPattern); err != nil {
			return nil, fmt.Errorf("product pattern: %w", err)
		}
	}
	if cfg.CompanyPattern != "" {
		if b.company, err = regexp.Compile("(?i)" + cfg.CompanyPattern); err != nil {
			return nil, fmt.Errorf("company pattern: %w", err)
		}
	}
	return b, nil
}

func (b *booster) match(query string) entityMatches {
	return entityMatches{
		products:  findPhrases(b.product, query),
		companies: findPhrases(b.company, query),
	}
}

// expand appends every matched phrase twice to the query so the vectorizer
// weighs those terms more heavily.
func (b *booster) expand(query string, m entityMatches) string {
	if len(m.products) == 0 && len(m.companies) == 0 {
		return query
	}
	var sb strings.Builder
	sb.WriteString(query)
	for _, p := range m.products {
		sb.WriteString(" " + p + " " + p)
	}
	for _, c := range m.companies {
		sb.WriteString(" " + c + " " + c)
	}
	return sb.String()
}

// apply adds the fixed boosts to scores in place. lowered holds the
// lowercased chunk contents in index order.
func (b *booster) apply(scores []float64, lowered []string, m entityMatches) {
	add := func(phrases []string, amount float64) {
		for _, p := range phrases {
			p = strings.ToLower(p)
			for i, content := range lowered {
				if strings.Contains(content, p) {
					scores[i] += amount
				}
			}
		}
	}
	add(m.products, b.productBoost)
	add(m.companies, b.companyBoost)
}

func findPhrases(re *regexp.Regexp, s string) []string {
	if re == nil {
		return nil
	}
	all := re.FindAllStringSubmatch(s, -1)
	out := make([]string, 0, len(all))
	for _, m := range all {
		if len(m) > 1 && m[1] != "" {
			out = append(out, m[1])
		} else {
			out = append(out, m[0])
		}
	}
	return out
}
