package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/lectern/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change settings",
	Long: `Show or change lectern's settings. Without a subcommand this prints the
current values, the same as 'settings show'.

Settings live in ~/.lectern/config.toml (or $LECTERN_HOME/config.toml).`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Example: `  lectern settings set chunking.size 1000
  lectern settings set search.max_results 8
  lectern settings set vector.backend qdrant
  lectern settings set session.backend redis`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Walk through providers and index storage",
	Args:  cobra.NoArgs,
	RunE:  runSettingsWizard,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Choose the embedding provider",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if settingsService == nil {
			return errSettingsNotConfigured
		}
		return newPrompter(cmd).provider(embeddingStep())
	},
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Choose the LLM that answers questions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if settingsService == nil {
			return errSettingsNotConfigured
		}
		return newPrompter(cmd).provider(llmStep())
	},
}

var settingsResetYes bool

var settingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore every setting to its default",
	Long: `Restore every setting to its default, including providers and API keys.
The index is not touched; run 'lectern ingest' again if the embedding model
changes.`,
	Args: cobra.NoArgs,
	RunE: runSettingsReset,
}

func init() {
	settingsResetCmd.Flags().BoolVarP(&settingsResetYes, "yes", "y", false, "do not ask for confirmation")

	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd, settingsWizardCmd,
		settingsEmbeddingCmd, settingsLLMCmd, settingsResetCmd)
	rootCmd.AddCommand(settingsCmd)
}

// section is one bracketed block of 'settings show'.
type section struct {
	title string
	rows  [][2]string
}

func (s *section) add(label, value string) {
	s.rows = append(s.rows, [2]string{label, value})
}

func (s *section) addf(label, format string, args ...any) {
	s.add(label, fmt.Sprintf(format, args...))
}

// addProvider adds the rows shared by the embedding and LLM blocks.
func (s *section) addProvider(p domain.AIProvider, model, baseURL, apiKey string, configured bool) {
	s.add("Provider", p.Description())
	s.add("Model", model)
	if p == domain.AIProviderOllama {
		s.add("Base URL", baseURL)
	}
	if p.RequiresAPIKey() {
		key := "(not set)"
		if apiKey != "" {
			key = maskAPIKey(apiKey)
		}
		s.add("API Key", key)
	}
	if configured {
		s.add("Status", "configured")
	} else {
		s.add("Status", "not configured")
	}
}

func settingsSections(st *domain.AppSettings) []section {
	chunking := section{title: "Chunking"}
	chunking.addf("Size", "%d", st.Chunking.Size)
	chunking.addf("Overlap", "%d", st.Chunking.Overlap)
	chunking.addf("Context prefix", "%t", st.Chunking.ContextPrefix)

	search := section{title: "Search"}
	search.addf("Max results", "%d", st.Search.MaxResults)
	if st.Search.MinCourseSimilarity > 0 {
		search.addf("Min course similarity", "%.2f", st.Search.MinCourseSimilarity)
	} else {
		search.add("Min course similarity", "off")
	}

	session := section{title: "Session"}
	session.add("Backend", string(st.Session.Backend))
	session.addf("Max history", "%d", st.Session.MaxHistory)
	if st.Session.Backend == domain.SessionBackendRedis {
		session.add("Redis address", st.Session.RedisAddr)
		session.addf("TTL minutes", "%d", st.Session.TTLMinutes)
	}

	index := section{title: "Vector Index"}
	index.add("Backend", string(st.Vector.Backend))
	if st.Vector.Backend == domain.VectorBackendQdrant {
		index.add("Qdrant URL", st.Vector.QdrantURL)
		if st.Vector.QdrantAPIKey != "" {
			index.add("Qdrant API Key", maskAPIKey(st.Vector.QdrantAPIKey))
		}
	}

	embedding := section{title: "Embedding"}
	embedding.addProvider(st.Embedding.Provider, st.Embedding.Model, st.Embedding.BaseURL,
		st.Embedding.APIKey, st.Embedding.IsConfigured())

	llm := section{title: "LLM"}
	llm.addProvider(st.LLM.Provider, st.LLM.Model, st.LLM.BaseURL, st.LLM.APIKey, st.LLM.IsConfigured())

	return []section{chunking, search, session, index, embedding, llm}
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errSettingsNotConfigured
	}
	st, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	var b strings.Builder
	b.WriteString("Current Settings\n================\n\n")
	for _, sec := range settingsSections(st) {
		fmt.Fprintf(&b, "[%s]\n", sec.title)
		for _, row := range sec.rows {
			fmt.Fprintf(&b, "  %s: %s\n", row[0], row[1])
		}
		b.WriteString("\n")
	}
	cmd.Print(b.String())

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'lectern settings wizard' to fix configuration issues.")
		return nil
	}
	cmd.Println("Configuration is valid.")
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errSettingsNotConfigured
	}
	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	cmd.Printf("Set %s = %s\n", key, value)
	return nil
}

func runSettingsReset(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errSettingsNotConfigured
	}
	if !settingsResetYes {
		cmd.Print("Reset every setting, including API keys? [y/N]: ")
		answer := strings.ToLower(newPrompter(cmd).line())
		if answer != "y" && answer != "yes" {
			cmd.Println("Nothing changed.")
			return nil
		}
	}

	defaults := settingsService.GetDefaults()
	if err := settingsService.Save(&defaults); err != nil {
		return fmt.Errorf("failed to reset settings: %w", err)
	}
	cmd.Println("Settings restored to defaults.")
	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errSettingsNotConfigured
	}
	p := newPrompter(cmd)

	cmd.Println("Lectern Settings Wizard")
	cmd.Println("=======================")
	cmd.Println()

	p.heading("Step 1: Configure Embedding Provider",
		"Course content is indexed with embeddings. The built-in embedder works offline.")
	if err := p.provider(embeddingStep()); err != nil {
		return err
	}

	p.heading("Step 2: Configure LLM Provider",
		"Questions are answered by an LLM that can search your courses.")
	if err := p.provider(llmStep()); err != nil {
		return err
	}

	p.heading("Step 3: Select Index Storage", "")
	backends := []domain.VectorBackend{domain.VectorBackendSQLite, domain.VectorBackendMemory, domain.VectorBackendQdrant}
	names := make([]string, len(backends))
	for i, b := range backends {
		names[i] = string(b)
	}
	backend := backends[p.choose(names)]
	if err := settingsService.Set("vector.backend", string(backend)); err != nil {
		return fmt.Errorf("failed to set index storage: %w", err)
	}
	if backend == domain.VectorBackendQdrant {
		if url := p.ask("Enter Qdrant URL", "http://localhost:6333"); url != "" {
			if err := settingsService.Set("vector.qdrant_url", url); err != nil {
				return fmt.Errorf("failed to set Qdrant URL: %w", err)
			}
		}
	}
	cmd.Printf("Index storage set to: %s\n\n", backend)

	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("All settings are valid and saved.")
	}
	if backend != domain.VectorBackendMemory {
		cmd.Println("If you changed the embedding model, run 'lectern ingest' again to rebuild the index.")
	}
	return nil
}

// providerStep describes one "pick a provider, model and key" exchange.
type providerStep struct {
	kind      string
	providers []domain.AIProvider
	models    map[domain.AIProvider]string
	apply     func(p domain.AIProvider, model, apiKey string) error
	validate  func() error
}

func embeddingStep() providerStep {
	return providerStep{
		kind:      "Embedding",
		providers: domain.AllEmbeddingProviders(),
		models:    domain.DefaultEmbeddingModels(),
		apply:     settingsService.SetEmbeddingProvider,
		validate:  settingsService.ValidateEmbeddingConfig,
	}
}

func llmStep() providerStep {
	return providerStep{
		kind:      "LLM",
		providers: domain.AllLLMProviders(),
		models:    domain.DefaultLLMModels(),
		apply:     settingsService.SetLLMProvider,
		validate:  settingsService.ValidateLLMConfig,
	}
}

// prompter reads wizard answers from the command's stdin. Blank answers
// take the offered default.
type prompter struct {
	cmd *cobra.Command
	in  *bufio.Reader
}

func newPrompter(cmd *cobra.Command) *prompter {
	return &prompter{cmd: cmd, in: bufio.NewReader(cmd.InOrStdin())}
}

func (p *prompter) line() string {
	s, _ := p.in.ReadString('\n') //nolint:errcheck // EOF reads as a blank answer
	return strings.TrimSpace(s)
}

func (p *prompter) heading(title, blurb string) {
	p.cmd.Println(title)
	p.cmd.Println(strings.Repeat("-", len(title)))
	if blurb != "" {
		p.cmd.Println(blurb)
		p.cmd.Println()
	}
}

// choose lists options and returns the picked index; the first is default.
func (p *prompter) choose(options []string) int {
	for i, o := range options {
		p.cmd.Printf("  %d. %s\n", i+1, o)
	}
	p.cmd.Print("\nEnter choice [1]: ")
	return parseChoice(p.line(), len(options), 1) - 1
}

func (p *prompter) ask(prompt, def string) string {
	p.cmd.Printf("%s [%s]: ", prompt, def)
	if s := p.line(); s != "" {
		return s
	}
	return def
}

// secret reads without echo on a terminal and falls back to a plain line.
func (p *prompter) secret(prompt string) string {
	p.cmd.Print(prompt)
	defer p.cmd.Println()
	if stdinIsTerminal() {
		if b, err := term.ReadPassword(int(os.Stdin.Fd())); err == nil {
			return strings.TrimSpace(string(b))
		}
	}
	return p.line()
}

func (p *prompter) provider(step providerStep) error {
	p.cmd.Printf("Select %s Provider\n", step.kind)
	names := make([]string, len(step.providers))
	for i, pr := range step.providers {
		names[i] = pr.Description()
	}
	chosen := step.providers[p.choose(names)]
	model := p.ask("Enter model name", step.models[chosen])

	var apiKey string
	if chosen.RequiresAPIKey() {
		if apiKey = p.secret("Enter API key: "); apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := step.apply(chosen, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure %s provider: %w", step.kind, err)
	}

	p.cmd.Print("Validating configuration... ")
	if err := step.validate(); err != nil {
		p.cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("%s configuration validation failed: %w", step.kind, err)
	}
	p.cmd.Println("OK")
	p.cmd.Printf("%s provider configured: %s (%s)\n\n", step.kind, chosen.Description(), model)
	return nil
}

// parseChoice returns the 1-based choice in input, or def when input is
// blank, not a number or out of range.
func parseChoice(input string, maxVal, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || n < 1 || n > maxVal {
		return def
	}
	return n
}

// maskAPIKey keeps the first and last four characters of long keys.
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
