package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// Execute creates the root command tree and runs it.
func Execute(version, commit, date string) error {
	rootCmd := newRootCmd(version, commit, date)
	return rootCmd.Execute()
}

func newRootCmd(version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "primer",
		Short: "Assemble database grounding context for NL-to-SQL",
		Long: `Primer assembles the context an LLM needs to translate natural-language
questions into correct SQL. It introspects your database schema, profiles
columns, samples data, and remembers prior queries and errors, then packages
the relevant pieces into a single deterministic text block per question.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./primer.yaml)")

	cobra.OnInitialize(initConfig)

	// Add subcommands
	cmd.AddCommand(newAssembleCmd())
	cmd.AddCommand(newSchemaCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newMCPCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd(version, commit, date))

	return cmd
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("primer")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.primer")
	}

	viper.SetEnvPrefix("PRIMER")
	viper.AutomaticEnv()
	viper.ReadInConfig() // Ignore error - config file is optional
}
