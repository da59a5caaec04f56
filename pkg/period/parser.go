package period

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// AmbiguityPolicy decides how "desde <mes>" without a year is resolved when
// the month already elapsed this year.
type AmbiguityPolicy string

const (
	// AmbiguityReject returns an *AmbiguousError listing the candidates.
	AmbiguityReject AmbiguityPolicy = "reject"
	// AmbiguitySingleMonth resolves to that calendar month of the reference year.
	AmbiguitySingleMonth AmbiguityPolicy = "single_month"
	// AmbiguityMostRecent resolves to the most recent past occurrence up to today.
	AmbiguityMostRecent AmbiguityPolicy = "most_recent"
)

// ParsePolicy validates a policy name.
func ParsePolicy(s string) (AmbiguityPolicy, error) {
	switch p := AmbiguityPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return AmbiguityReject, nil
	case AmbiguityReject, AmbiguitySingleMonth, AmbiguityMostRecent:
		return p, nil
	default:
		return "", fmt.Errorf("unknown ambiguity policy %q", s)
	}
}

var months = map[string]time.Month{
	"enero":      time.January,
	"febrero":    time.February,
	"marzo":      time.March,
	"abril":      time.April,
	"mayo":       time.May,
	"junio":      time.June,
	"julio":      time.July,
	"agosto":     time.August,
	"septiembre": time.September,
	"setiembre":  time.September,
	"octubre":    time.October,
	"noviembre":  time.November,
	"diciembre":  time.December,
}

const (
	monthRe    = `(enero|febrero|marzo|abril|mayo|junio|julio|agosto|septiembre|setiembre|octubre|noviembre|diciembre)`
	optYearRe  = `(?:\s+(?:del?\s+)?(\d{4}))?`
	reqYearRe  = `\s+(?:del?\s+)?(\d{4})`
	relYearRe  = `\s+(?:del?\s+)?(ano pasado|ano anterior|este ano|ano actual|presente ano)`
	sinceDayRe = `\bdesde\s+(?:el\s+)?(?:(\d{1,2})\s+de\s+)?`
)

type resolver func(p *Parser, m []string, today time.Time) (Period, error)

type rule struct {
	name    string
	re      *regexp.Regexp
	resolve resolver
}

// rules are evaluated in order; the first match wins. Specific forms
// (explicit ranges and years) precede relative ones. The list is built in
// init because composite rules resolve their halves through it.
var rules []rule

func init() {
	rules = []rule{
		{"iso_range", regexp.MustCompile(`(\d{4}-\d{2}-\d{2})\s+(?:al|a|hasta|y)\s+(\d{4}-\d{2}-\d{2})`), resolveISORange},
		{"text_range", regexp.MustCompile(`\b(?:del|desde el|entre el)\s+(\d{1,2})\s+de\s+` + monthRe + optYearRe +
			`\s+(?:al|hasta el|y el|a)\s+(\d{1,2})\s+de\s+` + monthRe + optYearRe), resolveTextRange},
		{"same_month_range", regexp.MustCompile(`\b(?:del|desde el|entre el)\s+(\d{1,2})\s+(?:al|y el|hasta el)\s+(\d{1,2})\s+de\s+` +
			monthRe + optYearRe), resolveSameMonthRange},
		{"since_until", regexp.MustCompile(`\bdesde\s+(.+?)\s+hasta\s+(.+)$`), resolveSinceUntil},
		{"month_range", regexp.MustCompile(`\b(?:de|entre)\s+` + monthRe + optYearRe +
			`\s+(?:a|al|y|hasta)\s+` + monthRe + optYearRe + `\b`), resolveMonthRange},
		{"since_month_year", regexp.MustCompile(sinceDayRe + monthRe + reqYearRe), resolveSinceMonthYear},
		{"since_month_relative_year", regexp.MustCompile(sinceDayRe + monthRe + relYearRe), resolveSinceMonthRelative},
		{"since_iso", regexp.MustCompile(`\bdesde\s+(?:el\s+)?(\d{4}-\d{2}-\d{2})\b`), resolveSinceISO},
		{"month_year", regexp.MustCompile(`\b` + monthRe + reqYearRe + `\b`), resolveMonthYear},
		{"month_relative_year", regexp.MustCompile(`\b` + monthRe + relYearRe), resolveMonthRelative},
		{"to_date", regexp.MustCompile(`\blo que va del?\s+(semana|mes|trimestre|ano)\b`), resolveToDate},
		{"last_n", regexp.MustCompile(`\bultim[oa]s\s+(\d{1,4})\s+(dias|semanas|meses|anos)\b`), resolveLastN},
		{"last_one", regexp.MustCompile(`\bultim[oa]\s+(dia|semana|mes|ano)\b`), resolveLastOne},
		{"today", regexp.MustCompile(`\bhoy\b`), resolveToday},
		{"yesterday", regexp.MustCompile(`\bayer\b`), resolveYesterday},
		{"this_week", regexp.MustCompile(`\b(?:esta|la presente) semana\b|\bsemana actual\b`), resolveWeek(0)},
		{"last_week", regexp.MustCompile(`\bsemana (?:pasada|anterior)\b`), resolveWeek(-1)},
		{"this_month", regexp.MustCompile(`\b(?:este|el presente) mes\b|\bmes actual\b`), resolveMonth(0)},
		{"last_month", regexp.MustCompile(`\bmes (?:pasado|anterior)\b`), resolveMonth(-1)},
		{"this_quarter", regexp.MustCompile(`\beste trimestre\b|\btrimestre actual\b`), resolveQuarter(0)},
		{"last_quarter", regexp.MustCompile(`\btrimestre (?:pasado|anterior)\b`), resolveQuarter(-1)},
		{"this_year", regexp.MustCompile(`\b(?:este|el presente) ano\b|\bano actual\b`), resolveYear(0)},
		{"last_year", regexp.MustCompile(`\bano (?:pasado|anterior)\b`), resolveYear(-1)},
		{"year", regexp.MustCompile(`\b((?:19|20)\d{2})\b`), resolveExplicitYear},
		{"since_month", regexp.MustCompile(sinceDayRe + monthRe + `\b`), resolveSinceMonth},
		{"month", regexp.MustCompile(`\b` + monthRe + `\b`), resolveBareMonth},
	}
}

var (
	// strayRe finds date words a rule match did not consume.
	strayRe    = regexp.MustCompile(`\b(?:` + monthRe + `|hoy|ayer|\d{4})\b`)
	untilDayRe = regexp.MustCompile(`^(\d{1,2})\s+de\s+` + monthRe + optYearRe + `$`)
	isoDateRe  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// Parser resolves phrases against an injected reference date.
type Parser struct {
	policy AmbiguityPolicy
}

// Option configures a Parser.
type Option func(*Parser)

// WithAmbiguityPolicy sets how bare "desde <mes>" phrases are resolved.
func WithAmbiguityPolicy(policy AmbiguityPolicy) Option {
	return func(p *Parser) {
		if policy != "" {
			p.policy = policy
		}
	}
}

// NewParser creates a parser. The default policy is AmbiguityReject.
func NewParser(opts ...Option) *Parser {
	p := &Parser{policy: AmbiguityReject}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Policy returns the configured ambiguity policy.
func (p *Parser) Policy() AmbiguityPolicy { return p.policy }

// Parse resolves phrase relative to now. It never reads the wall clock.
func (p *Parser) Parse(phrase string, now time.Time) (Period, error) {
	text := Normalize(phrase)
	if text == "" {
		return Period{}, fmt.Errorf("%w: empty phrase", ErrUnrecognized)
	}
	out, err := p.resolve(text, DateOf(now))
	if err != nil {
		return Period{}, err
	}
	out.Label = strings.TrimSpace(phrase)
	return out, nil
}

func (p *Parser) resolve(text string, today time.Time) (Period, error) {
	r, m, err := match(text)
	if err != nil {
		return Period{}, err
	}
	return r.resolve(p, m, today)
}

// match returns the first rule matching normalized text. A match that leaves
// a month, year, hoy or ayer outside it is rejected rather than read partially.
func match(text string) (rule, []string, error) {
	for _, r := range rules {
		loc := r.re.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}
		if stray := strayRe.FindString(text[:loc[0]] + " " + text[loc[1]:]); stray != "" {
			return rule{}, nil, fmt.Errorf("%w: %q read as %s leaves %q unresolved", ErrUnrecognized, text, r.name, stray)
		}
		m := make([]string, len(loc)/2)
		for i := range m {
			if loc[2*i] >= 0 {
				m[i] = text[loc[2*i]:loc[2*i+1]]
			}
		}
		return r, m, nil
	}
	return rule{}, nil, fmt.Errorf("%w: %q", ErrUnrecognized, text)
}

// RuleFor reports which rule name matches phrase, or "" if none does.
func RuleFor(phrase string) string {
	r, _, err := match(Normalize(phrase))
	if err != nil {
		return ""
	}
	return r.name
}

// Parse resolves phrase with a default parser.
func Parse(phrase string, now time.Time) (Period, error) {
	return NewParser().Parse(phrase, now)
}

// Normalize lowercases, folds accents, strips punctuation and collapses
// whitespace. Hyphens and slashes survive for numeric dates.
func Normalize(s string) string {
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(folder, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '/':
			return r
		default:
			return ' '
		}
	}, folded)
	return strings.Join(strings.Fields(cleaned), " ")
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func relativeYear(today time.Time, word string) int {
	switch word {
	case "ano pasado", "ano anterior":
		return today.Year() - 1
	default:
		return today.Year()
	}
}

func untilToday(start, today time.Time) (Period, error) {
	return New(start, today, "")
}

func resolveISORange(_ *Parser, m []string, _ time.Time) (Period, error) {
	return FromISO(m[1], m[2], "")
}

func resolveTextRange(_ *Parser, m []string, today time.Time) (Period, error) {
	d1, m1 := atoi(m[1]), months[m[2]]
	d2, m2 := atoi(m[4]), months[m[5]]
	endYear := today.Year()
	if m[6] != "" {
		endYear = atoi(m[6])
	}
	startYear := endYear
	switch {
	case m[3] != "":
		startYear = atoi(m[3])
	case m1 > m2 || (m1 == m2 && d1 > d2):
		startYear = endYear - 1
	}
	start, err := date(startYear, m1, d1)
	if err != nil {
		return Period{}, err
	}
	end, err := date(endYear, m2, d2)
	if err != nil {
		return Period{}, err
	}
	return New(start, end, "")
}

func resolveSameMonthRange(_ *Parser, m []string, today time.Time) (Period, error) {
	year := today.Year()
	if m[4] != "" {
		year = atoi(m[4])
	}
	month := months[m[3]]
	start, err := date(year, month, atoi(m[1]))
	if err != nil {
		return Period{}, err
	}
	end, err := date(year, month, atoi(m[2]))
	if err != nil {
		return Period{}, err
	}
	return New(start, end, "")
}

func resolveMonthRange(_ *Parser, m []string, today time.Time) (Period, error) {
	m1, m2 := months[m[1]], months[m[3]]
	startYear, endYear := today.Year(), today.Year()
	switch {
	case m[2] != "" && m[4] != "":
		startYear, endYear = atoi(m[2]), atoi(m[4])
	case m[4] != "":
		endYear = atoi(m[4])
		startYear = endYear
		if m1 > m2 {
			startYear--
		}
	case m[2] != "":
		startYear = atoi(m[2])
		endYear = startYear
		if m1 > m2 {
			endYear++
		}
	case m1 > m2:
		startYear--
	}
	start, _ := monthRange(startYear, m1)
	_, end := monthRange(endYear, m2)
	return New(start, end, "")
}

// resolveSinceUntil reads "desde X hasta Y" as the start of "desde X" up to
// the end of Y. An ambiguous start keeps its candidates, bounded by Y.
func resolveSinceUntil(p *Parser, m []string, today time.Time) (Period, error) {
	end, err := p.untilDate(m[2], today)
	if err != nil {
		return Period{}, err
	}
	since, err := p.resolve("desde "+m[1], today)
	var amb *AmbiguousError
	if errors.As(err, &amb) {
		var candidates []Period
		for _, c := range amb.Candidates {
			if bounded, err := New(c.Start, end, ""); err == nil {
				candidates = append(candidates, bounded)
			}
		}
		switch len(candidates) {
		case 0:
			return New(amb.Candidates[0].Start, end, "")
		case 1:
			return candidates[0], nil
		}
		return Period{}, &AmbiguousError{Phrase: m[0], Candidates: candidates}
	}
	if err != nil {
		return Period{}, err
	}
	return New(since.Start, end, "")
}

// untilDate resolves the "hasta" side: an ISO date, "<dia> de <mes> [año]",
// or any phrase whose period end is taken.
func (p *Parser) untilDate(text string, today time.Time) (time.Time, error) {
	text = strings.TrimPrefix(text, "el ")
	if isoDateRe.MatchString(text) {
		t, err := time.Parse(Layout, text)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: end %q: %v", ErrInvalidRange, text, err)
		}
		return t, nil
	}
	if m := untilDayRe.FindStringSubmatch(text); m != nil {
		year := today.Year()
		if m[3] != "" {
			year = atoi(m[3])
		}
		return date(year, months[m[2]], atoi(m[1]))
	}
	end, err := p.resolve(text, today)
	if err != nil {
		return time.Time{}, err
	}
	return end.End, nil
}

func resolveSinceISO(_ *Parser, m []string, today time.Time) (Period, error) {
	start, err := time.Parse(Layout, m[1])
	if err != nil {
		return Period{}, fmt.Errorf("%w: start %q: %v", ErrInvalidRange, m[1], err)
	}
	return untilToday(start, today)
}

func sinceStart(dayText, monthText string, year int) (time.Time, error) {
	day := 1
	if dayText != "" {
		day = atoi(dayText)
	}
	return date(year, months[monthText], day)
}

func resolveSinceMonthYear(_ *Parser, m []string, today time.Time) (Period, error) {
	start, err := sinceStart(m[1], m[2], atoi(m[3]))
	if err != nil {
		return Period{}, err
	}
	return untilToday(start, today)
}

func resolveSinceMonthRelative(_ *Parser, m []string, today time.Time) (Period, error) {
	start, err := sinceStart(m[1], m[2], relativeYear(today, m[3]))
	if err != nil {
		return Period{}, err
	}
	return untilToday(start, today)
}

func resolveMonthYear(_ *Parser, m []string, _ time.Time) (Period, error) {
	start, end := monthRange(atoi(m[2]), months[m[1]])
	return New(start, end, "")
}

func resolveMonthRelative(_ *Parser, m []string, today time.Time) (Period, error) {
	start, end := monthRange(relativeYear(today, m[2]), months[m[1]])
	return New(start, end, "")
}

func resolveToDate(_ *Parser, m []string, today time.Time) (Period, error) {
	var start time.Time
	switch m[1] {
	case "semana":
		start = today.AddDate(0, 0, -mondayOffset(today))
	case "mes":
		start, _ = monthRange(today.Year(), today.Month())
	case "trimestre":
		start, _ = quarterRange(today, 0)
	default:
		start = time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return untilToday(start, today)
}

func resolveLastN(_ *Parser, m []string, today time.Time) (Period, error) {
	return lastN(atoi(m[1]), m[2], today)
}

// resolveLastOne reads "ultimo mes" as "ultimos 1 meses".
func resolveLastOne(_ *Parser, m []string, today time.Time) (Period, error) {
	unit := m[1] + "s"
	if m[1] == "mes" {
		unit = "meses"
	}
	return lastN(1, unit, today)
}

func lastN(n int, unit string, today time.Time) (Period, error) {
	if n < 1 {
		return Period{}, fmt.Errorf("%w: last %d %s", ErrInvalidRange, n, unit)
	}
	var start time.Time
	switch unit {
	case "dias":
		start = today.AddDate(0, 0, -(n - 1))
	case "semanas":
		start = today.AddDate(0, 0, -(7*n - 1))
	case "meses":
		start = today.AddDate(0, -n, 1)
	default:
		start = today.AddDate(-n, 0, 1)
	}
	return untilToday(start, today)
}

func resolveToday(_ *Parser, _ []string, today time.Time) (Period, error) {
	return New(today, today, "")
}

func resolveYesterday(_ *Parser, _ []string, today time.Time) (Period, error) {
	y := today.AddDate(0, 0, -1)
	return New(y, y, "")
}

func mondayOffset(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func resolveWeek(shift int) resolver {
	return func(_ *Parser, _ []string, today time.Time) (Period, error) {
		start := today.AddDate(0, 0, -mondayOffset(today)+7*shift)
		return New(start, start.AddDate(0, 0, 6), "")
	}
}

func resolveMonth(shift int) resolver {
	return func(_ *Parser, _ []string, today time.Time) (Period, error) {
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, shift, 0)
		start, end := monthRange(first.Year(), first.Month())
		return New(start, end, "")
	}
}

func quarterRange(today time.Time, shift int) (time.Time, time.Time) {
	q := (int(today.Month()) - 1) / 3
	start := time.Date(today.Year(), time.Month(q*3+1), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 3*shift, 0)
	return start, start.AddDate(0, 3, -1)
}

func resolveQuarter(shift int) resolver {
	return func(_ *Parser, _ []string, today time.Time) (Period, error) {
		start, end := quarterRange(today, shift)
		return New(start, end, "")
	}
}

func yearRange(year int) (time.Time, time.Time) {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
}

func resolveYear(shift int) resolver {
	return func(_ *Parser, _ []string, today time.Time) (Period, error) {
		start, end := yearRange(today.Year() + shift)
		return New(start, end, "")
	}
}

func resolveExplicitYear(_ *Parser, m []string, _ time.Time) (Period, error) {
	start, end := yearRange(atoi(m[1]))
	return New(start, end, "")
}

// resolveSinceMonth handles "desde <mes>" with no year. The current month is
// unambiguous, and so is a month not yet reached this year (it can only be
// last year's). A month that already elapsed could be either year and is
// resolved by the parser policy.
func resolveSinceMonth(p *Parser, m []string, today time.Time) (Period, error) {
	month := months[m[2]]
	thisYear := today.Year()
	switch {
	case month == today.Month():
		start, err := sinceStart(m[1], m[2], thisYear)
		if err != nil {
			return Period{}, err
		}
		return untilToday(start, today)
	case month > today.Month():
		start, err := sinceStart(m[1], m[2], thisYear-1)
		if err != nil {
			return Period{}, err
		}
		return untilToday(start, today)
	}

	switch p.policy {
	case AmbiguitySingleMonth:
		start, end := monthRange(thisYear, month)
		return New(start, end, "")
	case AmbiguityMostRecent:
		start, err := sinceStart(m[1], m[2], thisYear)
		if err != nil {
			return Period{}, err
		}
		return untilToday(start, today)
	}

	var candidates []Period
	for _, year := range []int{thisYear, thisYear - 1} {
		start, err := sinceStart(m[1], m[2], year)
		if err != nil {
			return Period{}, err
		}
		c, err := untilToday(start, today)
		if err != nil {
			return Period{}, err
		}
		candidates = append(candidates, c)
	}
	return Period{}, &AmbiguousError{Phrase: m[0], Candidates: candidates}
}

func resolveBareMonth(_ *Parser, m []string, today time.Time) (Period, error) {
	start, end := monthRange(today.Year(), months[m[1]])
	return New(start, end, "")
}
