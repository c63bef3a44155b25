package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage primer configuration",
		Long:  "Initialize a default configuration file or display the current effective configuration.",
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

// ---------- config init ----------

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a default primer.yaml configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing config file")

	return cmd
}

const defaultConfigTemplate = `# Primer Configuration
# https://github.com/primerdb/primer

# Database the context is grounded on
source:
  driver: sqlite
  dsn: ./data.db
  # schema: public           # postgres/mysql/mssql/snowflake schema name
  # private_key_path: ""     # snowflake keypair auth
  pool:
    max_open_conns: 5
    max_idle_conns: 2
    conn_max_lifetime: 30m

# Bounded memory of prior attempts
memory:
  history_capacity: 10
  error_capacity: 5
  persist: false             # set true to journal across sessions
  # data_dir: ~/.primer

# Section selection and rendering
assembly:
  sample_rows: 3
  example_limit: 5
  section_timeout: 5s
  business_rules: ""
  # triggers:
  #   relationships: [join, with, and, across]
  #   examples: [growth, compare, trend, rate]
  #   statistics: [average, total, sum, count]

# Curated few-shot library
examples:
  entries: []
  # file: examples.yaml

mcp:
  transport: stdio

logging:
  level: info
  format: text
`

func runConfigInit(cmd *cobra.Command, force bool) error {
	const path = "primer.yaml"

	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := os.WriteFile(path, []byte(defaultConfigTemplate), 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", path)
	return nil
}

// ---------- config show ----------

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
