package config

import (
	"bytes"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"costsync/layout"
	"costsync/transfer"
)

const (
	KeyLayoutLabelRow          = "layout.label_row"
	KeyLayoutHeaderRow         = "layout.header_row"
	KeyLayoutKeyColumn         = "layout.key_column"
	KeyLayoutDataStartRow      = "layout.data_start_row"
	KeyLayoutScanWindow        = "layout.scan_window"
	KeyLayoutSectionCheckFrom  = "layout.section_check_from"
	KeyLayoutSectionCheckTo    = "layout.section_check_to"
	KeyTransferOverwrite       = "transfer.overwrite_formulas"
	KeyTransferWriteAll        = "transfer.write_all_duplicates"
	KeyTransferMatchBySection  = "transfer.match_by_section"
	KeyCumulativeSourceKeyCol  = "cumulative.source_key_column"
	KeyCumulativeSourceDoneCol = "cumulative.source_done_column"
	KeyCumulativeSourceStart   = "cumulative.source_start_row"
	KeyCumulativeTargetMatCol  = "cumulative.target_material_column"
	KeyCumulativeTargetQtyCol  = "cumulative.target_qty_column"
	KeyCumulativeTargetStart   = "cumulative.target_start_row"
	KeyHistoryDBPath           = "history.db_path"
)

type Config struct {
	Layout     LayoutConfig     `mapstructure:"layout"`
	Transfer   TransferConfig   `mapstructure:"transfer"`
	Cumulative CumulativeConfig `mapstructure:"cumulative"`
	History    HistoryConfig    `mapstructure:"history"`
}

// LayoutConfig pins the grid conventions of the tracked templates. The rows
// and columns are 1-based.
type LayoutConfig struct {
	LabelRow         int `mapstructure:"label_row" validate:"gte=1"`
	HeaderRow        int `mapstructure:"header_row" validate:"gte=1"`
	KeyColumn        int `mapstructure:"key_column" validate:"gte=1"`
	DataStartRow     int `mapstructure:"data_start_row" validate:"gte=1"`
	ScanWindow       int `mapstructure:"scan_window" validate:"gte=1,lte=1000"`
	SectionCheckFrom int `mapstructure:"section_check_from" validate:"gte=1"`
	SectionCheckTo   int `mapstructure:"section_check_to" validate:"gtefield=SectionCheckFrom"`
}

// TransferConfig holds the default policy toggles; command flags override
// them per run.
type TransferConfig struct {
	OverwriteFormulas  bool `mapstructure:"overwrite_formulas"`
	WriteAllDuplicates bool `mapstructure:"write_all_duplicates"`
	MatchBySection     bool `mapstructure:"match_by_section"`
}

type CumulativeConfig struct {
	SourceKeyColumn      int `mapstructure:"source_key_column" validate:"gte=1"`
	SourceDoneColumn     int `mapstructure:"source_done_column" validate:"gte=1"`
	SourceStartRow       int `mapstructure:"source_start_row" validate:"gte=1"`
	TargetMaterialColumn int `mapstructure:"target_material_column" validate:"gte=1"`
	TargetQtyColumn      int `mapstructure:"target_qty_column" validate:"gte=1"`
	TargetStartRow       int `mapstructure:"target_start_row" validate:"gte=1"`
}

type HistoryConfig struct {
	DBPath string `mapstructure:"db_path" validate:"required"`
}

// Grid converts the layout section into the scanner's grid.
func (c Config) Grid() layout.Grid {
	return layout.Grid{
		LabelRow:     c.Layout.LabelRow,
		HeaderRow:    c.Layout.HeaderRow,
		KeyColumn:    c.Layout.KeyColumn,
		DataStartRow: c.Layout.DataStartRow,
		ScanWindow:   c.Layout.ScanWindow,
	}
}

// SectionCheckColumns lists the columns inspected to tell section headers
// from data rows.
func (c Config) SectionCheckColumns() []int {
	columns := make([]int, 0, c.Layout.SectionCheckTo-c.Layout.SectionCheckFrom+1)
	for col := c.Layout.SectionCheckFrom; col <= c.Layout.SectionCheckTo; col++ {
		columns = append(columns, col)
	}
	return columns
}

// CumulativeLayout converts the cumulative section into engine layout.
func (c Config) CumulativeLayout() transfer.CumulativeLayout {
	return transfer.CumulativeLayout{
		SourceKeyColumn:      c.Cumulative.SourceKeyColumn,
		SourceDoneColumn:     c.Cumulative.SourceDoneColumn,
		SourceStartRow:       c.Cumulative.SourceStartRow,
		TargetMaterialColumn: c.Cumulative.TargetMaterialColumn,
		TargetQtyColumn:      c.Cumulative.TargetQtyColumn,
		TargetStartRow:       c.Cumulative.TargetStartRow,
	}
}

// Settings converts the transfer section into engine settings.
func (c Config) Settings() transfer.Settings {
	return transfer.Settings{
		OverwriteFormulas:  c.Transfer.OverwriteFormulas,
		WriteAllDuplicates: c.Transfer.WriteAllDuplicates,
		MatchBySection:     c.Transfer.MatchBySection,
	}
}

// SetDefaults sets default values if not provided
func SetDefaults() {
	setDefaults(viper.GetViper())
}

// LoadAndValidate loads config from Viper and validates it
func LoadAndValidate() (*Config, error) {
	return loadAndValidateFromViper(viper.GetViper())
}

// ValidateYAMLContent validates configuration from raw YAML content.
func ValidateYAMLContent(content []byte) (*Config, error) {
	local := viper.New()
	setDefaults(local)
	local.SetConfigType("yaml")
	if err := local.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("read config content: %w", err)
	}
	return loadAndValidateFromViper(local)
}

// ExampleYAML returns the default configuration template.
func ExampleYAML() string {
	return `# costsync configuration
layout:
  label_row: 10
  header_row: 13
  key_column: 3
  data_start_row: 14
  scan_window: 50
  section_check_from: 4
  section_check_to: 14

transfer:
  overwrite_formulas: false
  write_all_duplicates: true
  match_by_section: false

cumulative:
  source_key_column: 3
  source_done_column: 8
  source_start_row: 13
  target_material_column: 2
  target_qty_column: 7
  target_start_row: 2

history:
  db_path: "./costsync.db"
`
}

func loadAndValidateFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if cfg.Layout.HeaderRow <= cfg.Layout.LabelRow {
		return nil, fmt.Errorf("validation failed: layout.header_row must be below layout.label_row")
	}
	if cfg.Layout.DataStartRow <= cfg.Layout.HeaderRow {
		return nil, fmt.Errorf("validation failed: layout.data_start_row must be below layout.header_row")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyLayoutLabelRow, 10)
	v.SetDefault(KeyLayoutHeaderRow, 13)
	v.SetDefault(KeyLayoutKeyColumn, 3)
	v.SetDefault(KeyLayoutDataStartRow, 14)
	v.SetDefault(KeyLayoutScanWindow, 50)
	v.SetDefault(KeyLayoutSectionCheckFrom, 4)
	v.SetDefault(KeyLayoutSectionCheckTo, 14)
	v.SetDefault(KeyTransferOverwrite, false)
	v.SetDefault(KeyTransferWriteAll, true)
	v.SetDefault(KeyTransferMatchBySection, false)
	v.SetDefault(KeyCumulativeSourceKeyCol, 3)
	v.SetDefault(KeyCumulativeSourceDoneCol, 8)
	v.SetDefault(KeyCumulativeSourceStart, 13)
	v.SetDefault(KeyCumulativeTargetMatCol, 2)
	v.SetDefault(KeyCumulativeTargetQtyCol, 7)
	v.SetDefault(KeyCumulativeTargetStart, 2)
	v.SetDefault(KeyHistoryDBPath, "./costsync.db")
}
