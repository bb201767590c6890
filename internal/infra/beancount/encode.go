package beancount

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/kislikjeka/chainledger/internal/ledger"
)

// DateFormat is the date layout of beancount directives
const DateFormat = "2006-01-02"

// WriteEntries renders transactions as beancount text, each followed by a blank line
func WriteEntries(w io.Writer, entries []ledger.Entry) error {
	bw := bufio.NewWriter(w)
	for i := range entries {
		writeEntry(bw, &entries[i])
	}
	return bw.Flush()
}

// WriteAssertions renders balance assertions as beancount balance directives
func WriteAssertions(w io.Writer, assertions []ledger.BalanceAssertion) error {
	bw := bufio.NewWriter(w)
	for _, a := range assertions {
		fmt.Fprintf(bw, "%s balance %s  %s %s\n", a.Date.Format(DateFormat), a.Account, a.Amount.String(), a.Commodity)
	}
	if len(assertions) > 0 {
		bw.WriteString("\n")
	}
	return bw.Flush()
}

func writeEntry(w *bufio.Writer, e *ledger.Entry) {
	flag := e.Flag
	if flag == "" {
		flag = ledger.FlagCleared
	}
	fmt.Fprintf(w, "%s %s %s %s\n", e.Date.Format(DateFormat), flag, quote(e.Payee()), quote(e.Narration))

	// Map iteration order is random
	keys := make([]string, 0, len(e.Metadata))
	for k := range e.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s: %s\n", k, quote(e.Metadata[k]))
	}

	for _, p := range e.Postings {
		if p.Commodity == "" {
			fmt.Fprintf(w, "  %s\n", p.Account)
			continue
		}
		fmt.Fprintf(w, "  %s  %s %s\n", p.Account, p.Amount.String(), p.Commodity)
	}
	w.WriteString("\n")
}

var quoteReplacer = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func quote(s string) string {
	return `"` + quoteReplacer.Replace(s) + `"`
}
