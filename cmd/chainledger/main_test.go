package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/subcommands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	ownedAddress    = "0x1111111111111111111111111111111111111111"
	externalAddress = "0x2222222222222222222222222222222222222222"
)

func writeConfig(t *testing.T, dir, apiURL string) string {
	t.Helper()
	t.Setenv("EXPLORER_API_URL", "")
	t.Setenv("EXPLORER_API_KEY", "")
	t.Setenv("EXPLORER_REQUEST_DELAY", "")

	content := fmt.Sprintf(`{
    "name": "mainnet",
    "account_map": {"%s": "Assets:Crypto:Main"},
    "fee_account": "Expenses:Fees:Gas",
    "expenses_account": "Expenses:Unknown",
    "income_account": "Income:Unknown",
    "block_explorer_api_url": "%s"
}`, ownedAddress, apiURL)

	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, cmd subcommands.Command, args ...string) subcommands.ExitStatus {
	t.Helper()
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	cmd.SetFlags(fs)
	require.NoError(t, fs.Parse(args))
	return cmd.Execute(context.Background(), fs)
}

func TestIdentifyCmd(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "")

	var out bytes.Buffer
	status := run(t, &identifyCmd{out: &out}, "-config", cfgPath,
		"downloads/mainnet.json", "downloads/mainnet-balances.json", "notes.txt")

	assert.Equal(t, subcommands.ExitSuccess, status)
	assert.Equal(t, "downloads/mainnet.json\tethereum\ndownloads/mainnet-balances.json\tethereum_balances\n", out.String())
}

func TestIdentifyCmd_RequiresFiles(t *testing.T) {
	var out bytes.Buffer
	status := run(t, &identifyCmd{out: &out})
	assert.Equal(t, subcommands.ExitUsageError, status)
}

func TestExtractCmd(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "")
	at := strconv.FormatInt(time.Now().Add(-time.Hour).Unix(), 10)

	transfers := filepath.Join(dir, "mainnet.json")
	require.NoError(t, os.WriteFile(transfers, []byte(`[
    {"tx_id": "0xnew", "time": `+at+`, "from": "`+externalAddress+`", "to": "`+ownedAddress+`", "currency": "ETH", "value": "1.5"},
    {"tx_id": "0xseen", "time": `+at+`, "from": "`+externalAddress+`", "to": "`+ownedAddress+`", "currency": "ETH", "value": "2"}
]`), 0o644))

	balances := filepath.Join(dir, "mainnet-balances.json")
	require.NoError(t, os.WriteFile(balances, []byte(`[
    {"address": "`+ownedAddress+`", "currency": "ETH", "balance": "3.5", "time": `+at+`}
]`), 0o644))

	existing := filepath.Join(dir, "ledger.beancount")
	require.NoError(t, os.WriteFile(existing, []byte("2024-01-01 * \"\" \"\"\n  txid: \"0xseen\"\n"), 0o644))

	var out bytes.Buffer
	status := run(t, &extractCmd{out: &out}, "-config", cfgPath, "-existing", existing,
		transfers, balances, filepath.Join(dir, "unknown.csv"))
	require.Equal(t, subcommands.ExitSuccess, status)

	text := out.String()
	assert.Contains(t, text, `txid: "0xnew"`)
	assert.NotContains(t, text, "0xseen")
	assert.Contains(t, text, "  Income:Unknown  -1.5 ETH\n")
	assert.Contains(t, text, "  Assets:Crypto:Main:ETH  1.5 ETH\n")
	assert.Contains(t, text, " balance Assets:Crypto:Main:ETH  3.5 ETH\n")
	assert.Contains(t, text, `* "`+externalAddress+`" ""`)
}

func TestExtractCmd_FailsWithoutOutput(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "")

	good := filepath.Join(dir, "mainnet-balances.json")
	require.NoError(t, os.WriteFile(good, []byte(`[{"address": "`+ownedAddress+`", "currency": "ETH", "balance": "1", "time": 1}]`), 0o644))
	bad := filepath.Join(dir, "mainnet.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"not": "an array"}`), 0o644))

	var out bytes.Buffer
	status := run(t, &extractCmd{out: &out}, "-config", cfgPath, good, bad)
	assert.Equal(t, subcommands.ExitFailure, status)
	assert.Empty(t, out.String())
}

func TestDownloadCmd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("action") {
		case "txlist":
			fmt.Fprintf(w, `{"status":"1","message":"OK","result":[{"hash":"0xa","timeStamp":"100","from":"%s","to":"%s","value":"1000000000000000000","gasUsed":"21000","gasPrice":"1000000000","isError":"0"}]}`, externalAddress, ownedAddress)
		case "balance":
			fmt.Fprint(w, `{"status":"1","message":"OK","result":"1000000000000000000"}`)
		default:
			fmt.Fprint(w, `{"status":"0","message":"No transactions found","result":[]}`)
		}
	}))
	defer server.Close()

	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, server.URL)
	outDir := filepath.Join(dir, "downloads")

	status := run(t, &downloadCmd{}, "-config", cfgPath, "-output-dir", outDir)
	require.Equal(t, subcommands.ExitSuccess, status)

	data, err := os.ReadFile(filepath.Join(outDir, "mainnet.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"tx_id": "0xa"`)
	assert.Contains(t, string(data), `"value": "1"`)

	data, err = os.ReadFile(filepath.Join(outDir, "mainnet-balances.json"))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"balance": "1"`))
}

func TestDownloadCmd_APIErrorWritesNothing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"0","message":"NOTOK","result":"Invalid API Key"}`)
	}))
	defer server.Close()

	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, server.URL)
	outDir := filepath.Join(dir, "downloads")

	status := run(t, &downloadCmd{}, "-config", cfgPath, "-output-dir", outDir)
	assert.Equal(t, subcommands.ExitFailure, status)

	_, err := os.Stat(filepath.Join(outDir, "mainnet.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestDownloadCmd_RequiresAPIURL(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "")

	status := run(t, &downloadCmd{}, "-config", cfgPath, "-output-dir", filepath.Join(dir, "out"))
	assert.Equal(t, subcommands.ExitUsageError, status)
}
