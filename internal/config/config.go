// Package config holds the static configuration for the importer: spreadsheet
// coordinates for each section, the classification rule tables, and the
// backends for the import history. The value is built once in the cmd and
// passed down; nothing reads configuration from globals at runtime.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sampires/financas-bot/internal/domain"
)

// Section is a fixed-capacity, contiguous row range in the month tab,
// dedicated to one (nature, fixed) combination. Rows are filled top-down
// with no gaps; the description column doubles as the occupancy probe.
type Section struct {
	Name   string        `yaml:"name"`
	Nature domain.Nature `yaml:"nature"`
	Fixed  bool          `yaml:"fixed"`

	FirstRow int `yaml:"first_row"`
	LastRow  int `yaml:"last_row"`

	DescriptionCol string `yaml:"description_col"`
	ValueCol       string `yaml:"value_col"`
	DateCol        string `yaml:"date_col"`
	CategoryCol    string `yaml:"category_col,omitempty"`
	PaymentCol     string `yaml:"payment_col,omitempty"`
	CheckboxCol    string `yaml:"checkbox_col,omitempty"`
}

// Capacity is the number of rows the section can hold.
func (s Section) Capacity() int {
	return s.LastRow - s.FirstRow + 1
}

// Validate checks the row range and the mandatory columns.
func (s Section) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("section without a name")
	}
	if s.FirstRow <= 0 || s.LastRow < s.FirstRow {
		return fmt.Errorf("section %q: invalid row range %d-%d", s.Name, s.FirstRow, s.LastRow)
	}
	if s.DescriptionCol == "" || s.ValueCol == "" || s.DateCol == "" {
		return fmt.Errorf("section %q: description, value and date columns are required", s.Name)
	}
	return nil
}

// CategoryRule maps one budget category to its trigger keywords. Rules are
// scanned in declared order and the first match wins, so the slice order is
// part of the contract.
type CategoryRule struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Rules is the full keyword configuration for the rule engine.
type Rules struct {
	IncomeMarkers []string       `yaml:"income_markers"`
	FixedKeywords []string       `yaml:"fixed_keywords"`
	Categories    []CategoryRule `yaml:"categories"`
}

// Sheets identifies the spreadsheet and the tabs the importer writes to.
type Sheets struct {
	CredentialsFile string `yaml:"credentials_file"`
	SpreadsheetID   string `yaml:"spreadsheet_id"`
	MonthTab        string `yaml:"month_tab"`
	HistoryTab      string `yaml:"history_tab"`
}

// BigQuery locates the history table when the bigquery backend is selected.
type BigQuery struct {
	ProjectID string `yaml:"project_id"`
	Dataset   string `yaml:"dataset"`
	Table     string `yaml:"table"`
}

// Statements configures where bank statement CSVs are picked up from.
type Statements struct {
	Dir          string `yaml:"dir"`
	ProcessedDir string `yaml:"processed_dir"`
}

// History backends.
const (
	HistoryBackendSheets   = "sheets"
	HistoryBackendBigQuery = "bigquery"
)

// Config is the whole importer configuration. Treat values as immutable once
// constructed.
type Config struct {
	Sheets         Sheets     `yaml:"sheets"`
	HistoryBackend string     `yaml:"history_backend"`
	BigQuery       BigQuery   `yaml:"bigquery"`
	Statements     Statements `yaml:"statements"`
	Sections       []Section  `yaml:"sections"`
	Rules          Rules      `yaml:"rules"`
	GeminiModel    string     `yaml:"gemini_model"`
}

// Default returns the stock configuration: the original spreadsheet layout
// (Entradas, Gastos Fixos, Gastos Variáveis) and the built-in keyword tables.
func Default() Config {
	return Config{
		Sheets: Sheets{
			CredentialsFile: "credenciais.json",
			MonthTab:        "JANEIRO",
			HistoryTab:      "Histórico",
		},
		HistoryBackend: HistoryBackendSheets,
		BigQuery: BigQuery{
			Dataset: "financas",
			Table:   "historico",
		},
		Statements: Statements{
			Dir:          "extratos",
			ProcessedDir: "extratos/processados",
		},
		Sections: []Section{
			{
				Name:           "Entradas",
				Nature:         domain.NatureIncome,
				FirstRow:       10,
				LastRow:        19,
				DescriptionCol: "B",
				ValueCol:       "C",
				DateCol:        "D",
				CheckboxCol:    "E",
			},
			{
				Name:           "Gastos Fixos",
				Nature:         domain.NatureExpense,
				Fixed:          true,
				FirstRow:       17,
				LastRow:        26,
				DescriptionCol: "H",
				ValueCol:       "I",
				DateCol:        "J",
				CategoryCol:    "K",
				CheckboxCol:    "L",
			},
			{
				Name:           "Gastos Variáveis",
				Nature:         domain.NatureExpense,
				FirstRow:       25,
				LastRow:        51,
				DescriptionCol: "B",
				ValueCol:       "C",
				DateCol:        "D",
				CategoryCol:    "E",
				PaymentCol:     "F",
			},
		},
		Rules: Rules{
			IncomeMarkers: []string{"recebida", "salario"},
			FixedKeywords: []string{
				"aluguel", "condominio", "luz", "agua", "internet", "gas", "energia",
				"tim", "vivo", "claro", "oi", "netflix", "spotify", "prime", "disney",
				"faculdade", "universidade", "mensalidade", "plano", "assinatura", "academia",
			},
			Categories: []CategoryRule{
				{Name: "Transporte", Keywords: []string{"uber", "99", "taxi", "gasolina", "posto", "ipva", "estacionamento", "onibus", "metro"}},
				{Name: "Delivery", Keywords: []string{"ifood", "rappi", "uber eats", "delivery"}},
				{Name: "Lazer", Keywords: []string{"cinema", "netflix", "spotify", "prime", "disney", "restaurante", "bar", "show"}},
				{Name: "Saude", Keywords: []string{"medico", "hospital", "laboratorio", "consulta", "exame", "clinica"}},
				{Name: "Farmacia", Keywords: []string{"farmacia", "droga", "drogaria", "remedio"}},
				{Name: "Casa", Keywords: []string{"aluguel", "condominio", "luz", "agua", "internet", "gas", "energia"}},
				{Name: "Supermercado", Keywords: []string{"supermercado", "mercado", "atacadao", "pao de acucar", "assai", "padaria"}},
				{Name: "Roupa", Keywords: []string{"roupa", "sapato", "loja", "zara", "renner", "nike", "adidas"}},
				{Name: "Faculdade", Keywords: []string{"faculdade", "universidade", "curso", "mensalidade", "escola"}},
				{Name: "Beleza", Keywords: []string{"salao", "cabelo", "manicure", "barbeiro", "estetica"}},
				{Name: "Assinaturas", Keywords: []string{"assinatura", "recorrente", "tim", "vivo", "claro", "oi"}},
				{Name: "Presentes", Keywords: []string{"presente", "gift"}},
			},
		},
		GeminiModel: "gemini-2.0-flash",
	}
}

// Load builds the configuration from defaults, overlays the YAML file at path
// (if path is non-empty), then applies environment overrides for the values
// that are usually secrets.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("Load: reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("Load: parsing config file %s: %w", path, err)
		}
	}

	if v := os.Getenv("FINANCAS_SPREADSHEET_ID"); v != "" {
		cfg.Sheets.SpreadsheetID = v
	}
	if v := os.Getenv("FINANCAS_CREDENTIALS_FILE"); v != "" {
		cfg.Sheets.CredentialsFile = v
	}
	if v := os.Getenv("FINANCAS_MONTH_TAB"); v != "" {
		cfg.Sheets.MonthTab = v
	}
	if v := os.Getenv("FINANCAS_BQ_PROJECT"); v != "" {
		cfg.BigQuery.ProjectID = v
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks section geometry and the history backend selection.
func (c Config) Validate() error {
	if len(c.Sections) == 0 {
		return fmt.Errorf("config: no sections defined")
	}
	for _, s := range c.Sections {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	switch c.HistoryBackend {
	case HistoryBackendSheets, HistoryBackendBigQuery:
	default:
		return fmt.Errorf("config: unknown history backend %q", c.HistoryBackend)
	}
	if c.HistoryBackend == HistoryBackendBigQuery && c.BigQuery.ProjectID == "" {
		return fmt.Errorf("config: bigquery history backend needs a project id")
	}
	return nil
}

// SectionFor returns the section a classified record belongs to. The stock
// layout covers every combination the rule engine can produce; ok is false
// only with a custom layout that leaves one out.
func (c Config) SectionFor(n domain.Nature, fixed bool) (Section, bool) {
	for _, s := range c.Sections {
		if s.Nature != n {
			continue
		}
		// Income sections ignore the fixed flag.
		if n == domain.NatureIncome || s.Fixed == fixed {
			return s, true
		}
	}
	return Section{}, false
}
