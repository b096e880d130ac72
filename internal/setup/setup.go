// Package setup handles first-run onboarding: choosing a provider, storing
// its API key and model, and optionally a database for schema context.
package setup

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/hpkotak/sqlbud/internal/config"
	"github.com/hpkotak/sqlbud/internal/schema"
)

// Package-level function variables for testability.
var (
	loadConfig   = config.LoadFile
	saveConfig   = config.Save
	configPath   = config.Path
	pingDatabase = defaultPingDatabase
	terminalFd   = defaultTerminalFd
	readPassword = term.ReadPassword
)

const pingTimeout = 10 * time.Second

// Run executes the interactive setup flow.
// in and out are injectable for testability.
func Run(in io.Reader, out io.Writer) error {
	_, _ = fmt.Fprintln(out, "SQLBud Setup")
	_, _ = fmt.Fprintln(out, "============")

	cfg, err := loadConfig()
	switch {
	case errors.Is(err, config.ErrNotFound):
		cfg = config.Default()
	case err != nil:
		return fmt.Errorf("loading existing config: %w", err)
	}
	if cfg.Providers == nil {
		cfg.Providers = map[string]config.ProviderConfig{}
	}

	r := bufio.NewReader(in)

	name, err := selectProvider(r, out)
	if err != nil {
		return err
	}
	pc := cfg.Providers[name]
	defaults, _ := config.DefaultsFor(name)

	key, err := readAPIKey(in, r, out, name, pc.APIKey)
	if err != nil {
		return err
	}
	pc.APIKey = key

	pc.Model = selectModel(r, out, firstNonEmpty(pc.Model, defaults.Model))
	if pc.MaxTokens == nil {
		mt := defaults.MaxTokens
		pc.MaxTokens = &mt
	}
	if pc.Temperature == nil {
		t := config.DefaultTemperature
		pc.Temperature = &t
	}
	cfg.Providers[name] = pc

	dsn, err := configureDatabase(r, out, cfg.Database.DSN)
	if err != nil {
		return err
	}
	cfg.Database.DSN = dsn

	if err := saveConfig(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	_, _ = fmt.Fprintf(out, "\nConfig saved to %s\n", configPath())
	_, _ = fmt.Fprintln(out, "Ready! Try: sqb show the ten most recent orders")
	return nil
}

func selectProvider(r *bufio.Reader, out io.Writer) (string, error) {
	_, _ = fmt.Fprintln(out, "\nProviders:")
	for i, name := range config.ProviderNames {
		d, _ := config.DefaultsFor(name)
		_, _ = fmt.Fprintf(out, "  %d. %s (default model %s)\n", i+1, name, d.Model)
	}
	_, _ = fmt.Fprint(out, "\nSelect provider [1]: ")

	input := readLine(r)
	if input == "" {
		return config.ProviderNames[0], nil
	}
	n, err := strconv.Atoi(input)
	if err != nil || n < 1 || n > len(config.ProviderNames) {
		return "", fmt.Errorf("invalid selection: %s", input)
	}
	selected := config.ProviderNames[n-1]
	_, _ = fmt.Fprintf(out, "[ok] Selected: %s\n", selected)
	return selected, nil
}

// readAPIKey prompts for a key, hiding input when in is a terminal. An empty
// answer keeps the current key; with no current key it is an error.
func readAPIKey(in io.Reader, r *bufio.Reader, out io.Writer, provider, current string) (string, error) {
	hint := ""
	if current != "" {
		hint = " [keep current]"
	}
	_, _ = fmt.Fprintf(out, "%s API key%s: ", provider, hint)

	var key string
	if fd, ok := terminalFd(in); ok {
		b, err := readPassword(fd)
		_, _ = fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("reading API key: %w", err)
		}
		key = strings.TrimSpace(string(b))
	} else {
		key = readLine(r)
	}

	switch {
	case key != "":
		_, _ = fmt.Fprintln(out, "[ok] API key stored")
		return key, nil
	case current != "":
		_, _ = fmt.Fprintln(out, "[ok] Keeping current API key")
		return current, nil
	default:
		return "", fmt.Errorf("an API key is required for %s", provider)
	}
}

func selectModel(r *bufio.Reader, out io.Writer, current string) string {
	_, _ = fmt.Fprintf(out, "Model [%s]: ", current)
	if input := readLine(r); input != "" {
		current = input
	}
	_, _ = fmt.Fprintf(out, "[ok] Model: %s\n", current)
	return current
}

// configureDatabase asks for an optional DSN and checks that it connects.
// An unreachable database is only saved after confirmation.
func configureDatabase(r *bufio.Reader, out io.Writer, current string) (string, error) {
	_, _ = fmt.Fprintln(out, "\nA PostgreSQL DSN lets SQLBud include your schema in prompts.")
	hint := "optional, Enter to skip"
	if current != "" {
		hint = "Enter to keep current"
	}
	_, _ = fmt.Fprintf(out, "Database DSN (%s): ", hint)

	dsn := readLine(r)
	if dsn == "" {
		return current, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := pingDatabase(ctx, dsn); err != nil {
		_, _ = fmt.Fprintf(out, "[!!] Could not connect: %v\n", err)
		if !confirm(r, out, "Save it anyway?", false) {
			return current, nil
		}
		return dsn, nil
	}
	_, _ = fmt.Fprintln(out, "[ok] Database reachable")
	return dsn, nil
}

func defaultPingDatabase(ctx context.Context, dsn string) error {
	db, err := schema.Open(ctx, schema.DBConfig{DSN: dsn})
	if err != nil {
		return err
	}
	return db.Close()
}

func defaultTerminalFd(in io.Reader) (int, bool) {
	f, ok := in.(*os.File)
	if !ok {
		return 0, false
	}
	fd := int(f.Fd())
	return fd, term.IsTerminal(fd)
}

// confirm prompts for yes/no. defaultYes decides an empty answer.
func confirm(r *bufio.Reader, out io.Writer, prompt string, defaultYes bool) bool {
	hint := "[Y/n]"
	if !defaultYes {
		hint = "[y/N]"
	}
	_, _ = fmt.Fprintf(out, "%s %s: ", prompt, hint)

	switch strings.ToLower(readLine(r)) {
	case "":
		return defaultYes
	case "y", "yes":
		return true
	default:
		return false
	}
}

// readLine reads a single line, trimming whitespace. EOF yields "".
func readLine(r *bufio.Reader) string {
	line, _ := r.ReadString('\n')
	return strings.TrimSpace(line)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
