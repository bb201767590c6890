package beancount

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kislikjeka/chainledger/internal/ledger"
)

// ErrSyntax is returned when a ledger file cannot be parsed
var ErrSyntax = errors.New("beancount syntax error")

// Journal holds the directives read from a ledger file. Directives other than
// transactions, balance assertions and includes are skipped.
type Journal struct {
	Entries    []ledger.Entry
	Assertions []ledger.BalanceAssertion

	// Includes lists include paths as written. Read leaves them unresolved;
	// ReadFile loads them relative to the including file.
	Includes []string
}

// ReadFile parses the ledger file at path together with every file it includes.
// Include paths may be glob patterns. A file reached twice is read once.
func ReadFile(path string) (*Journal, error) {
	var journal Journal
	if err := readFile(path, &journal, make(map[string]struct{})); err != nil {
		return nil, err
	}
	return &journal, nil
}

func readFile(path string, journal *Journal, seen map[string]struct{}) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if _, ok := seen[abs]; ok {
		return nil
	}
	seen[abs] = struct{}{}

	f, err := os.Open(abs)
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}
	part, err := Read(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	journal.Entries = append(journal.Entries, part.Entries...)
	journal.Assertions = append(journal.Assertions, part.Assertions...)

	for _, include := range part.Includes {
		pattern := include
		if !filepath.IsAbs(pattern) {
			pattern = filepath.Join(filepath.Dir(abs), pattern)
		}
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return fmt.Errorf("%s: %w: include %q: %v", path, ErrSyntax, include, err)
		}
		if len(matches) == 0 {
			return fmt.Errorf("%s: include %q: %w", path, include, os.ErrNotExist)
		}
		for _, match := range matches {
			if err := readFile(match, journal, seen); err != nil {
				return err
			}
		}
	}
	return nil
}

// Read parses beancount text. A directive starts on an unindented line beginning
// with a date; its metadata and postings are the indented lines that follow.
func Read(r io.Reader) (*Journal, error) {
	var (
		journal Journal
		current *ledger.Entry
		ln      int
	)

	flush := func() {
		if current != nil {
			journal.Entries = append(journal.Entries, *current)
			current = nil
		}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		ln++
		raw := scanner.Text()
		line := strings.TrimSpace(stripComment(raw))
		if line == "" {
			continue
		}

		if raw[0] == ' ' || raw[0] == '\t' {
			// Body of a transaction, or of a directive we skip
			if current == nil {
				continue
			}
			if err := parseBodyLine(current, line, ln); err != nil {
				return nil, err
			}
			continue
		}

		flush()

		if keyword, rest := splitWord(line); keyword == "include" {
			strs, err := quotedStrings(rest)
			if err != nil || len(strs) != 1 {
				return nil, fmt.Errorf("%w: line %d: include needs one quoted path", ErrSyntax, ln)
			}
			journal.Includes = append(journal.Includes, strs[0])
			continue
		}

		if len(line) < len(DateFormat) || !isDate(line[:len(DateFormat)]) {
			// option, plugin, pushtag and friends
			continue
		}
		date, err := time.Parse(DateFormat, line[:len(DateFormat)])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrSyntax, ln, err)
		}

		keyword, rest := splitWord(strings.TrimSpace(line[len(DateFormat):]))
		switch keyword {
		case "txn", "*", "!":
			entry, err := parseHeader(date, keyword, rest, ln)
			if err != nil {
				return nil, err
			}
			current = entry
		case "balance":
			assertion, err := parseBalance(date, rest, ln)
			if err != nil {
				return nil, err
			}
			journal.Assertions = append(journal.Assertions, assertion)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}
	flush()

	return &journal, nil
}

// parseHeader parses the first line of a transaction: flag, then either
// "narration" or "payee" "narration", optionally followed by tags and links
func parseHeader(date time.Time, flag, rest string, ln int) (*ledger.Entry, error) {
	if flag == "txn" {
		flag = ledger.FlagCleared
	}

	strs, err := quotedStrings(rest)
	if err != nil {
		return nil, fmt.Errorf("%w: line %d: %v", ErrSyntax, ln, err)
	}

	entry := &ledger.Entry{
		Date:     date,
		Flag:     flag,
		Metadata: make(map[string]string),
	}
	switch len(strs) {
	case 0:
	case 1:
		entry.Narration = strs[0]
	case 2:
		if strs[0] != "" {
			entry.Payees = []string{strs[0]}
		}
		entry.Narration = strs[1]
	default:
		return nil, fmt.Errorf("%w: line %d: too many strings in transaction header", ErrSyntax, ln)
	}
	return entry, nil
}

func parseBodyLine(entry *ledger.Entry, line string, ln int) error {
	first, rest := splitWord(line)

	// Metadata keys start with a lowercase letter and end with a colon
	if strings.HasSuffix(first, ":") && first[0] >= 'a' && first[0] <= 'z' {
		// Posting-level metadata is not kept
		if len(entry.Postings) > 0 {
			return nil
		}
		key := strings.TrimSuffix(first, ":")
		value := strings.TrimSpace(rest)
		if strings.HasPrefix(value, `"`) {
			strs, err := quotedStrings(value)
			if err != nil || len(strs) != 1 {
				return fmt.Errorf("%w: line %d: invalid metadata value", ErrSyntax, ln)
			}
			value = strs[0]
		}
		entry.Metadata[key] = value
		return nil
	}

	posting, err := parsePosting(line, ln)
	if err != nil {
		return err
	}
	entry.Postings = append(entry.Postings, posting)
	return nil
}

func parsePosting(line string, ln int) (ledger.Posting, error) {
	fields := strings.Fields(line)

	// Optional posting flag
	if fields[0] == "*" || fields[0] == "!" {
		fields = fields[1:]
	}
	if len(fields) == 0 {
		return ledger.Posting{}, fmt.Errorf("%w: line %d: posting without account", ErrSyntax, ln)
	}

	posting := ledger.Posting{Account: fields[0]}
	switch {
	case len(fields) == 1:
		// Elided amount
		return posting, nil
	case len(fields) == 2:
		return ledger.Posting{}, fmt.Errorf("%w: line %d: posting amount without commodity", ErrSyntax, ln)
	}

	amount, err := parseAmount(fields[1])
	if err != nil {
		return ledger.Posting{}, fmt.Errorf("%w: line %d: %v", ErrSyntax, ln, err)
	}
	posting.Amount = amount
	posting.Commodity = fields[2]
	return posting, nil
}

func parseBalance(date time.Time, rest string, ln int) (ledger.BalanceAssertion, error) {
	fields := strings.Fields(rest)
	if len(fields) < 3 {
		return ledger.BalanceAssertion{}, fmt.Errorf("%w: line %d: balance needs account, amount and commodity", ErrSyntax, ln)
	}

	amount, err := parseAmount(fields[1])
	if err != nil {
		return ledger.BalanceAssertion{}, fmt.Errorf("%w: line %d: %v", ErrSyntax, ln, err)
	}
	return ledger.BalanceAssertion{
		Date:      date,
		Account:   fields[0],
		Amount:    amount,
		Commodity: fields[2],
	}, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
}

// quotedStrings reads consecutive double-quoted strings from the start of s
// and stops at the first token that is not a string
func quotedStrings(s string) ([]string, error) {
	var out []string
	for {
		s = strings.TrimSpace(s)
		if s == "" || s[0] != '"' {
			return out, nil
		}

		var b strings.Builder
		i := 1
		for ; i < len(s); i++ {
			c := s[i]
			if c == '\\' && i+1 < len(s) {
				i++
				b.WriteByte(s[i])
				continue
			}
			if c == '"' {
				break
			}
			b.WriteByte(c)
		}
		if i >= len(s) {
			return nil, fmt.Errorf("unterminated string")
		}
		out = append(out, b.String())
		s = s[i+1:]
	}
}

// stripComment removes a trailing ";" comment that is not inside a string
func stripComment(line string) string {
	inString := false
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '\\':
			if inString {
				i++
			}
		case '"':
			inString = !inString
		case ';':
			if !inString {
				return line[:i]
			}
		}
	}
	return line
}

func splitWord(s string) (string, string) {
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i], strings.TrimSpace(s[i+1:])
	}
	return s, ""
}

func isDate(s string) bool {
	for i := 0; i < len(s); i++ {
		if i == 4 || i == 7 {
			if s[i] != '-' {
				return false
			}
			continue
		}
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
