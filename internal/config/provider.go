package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/urbandao/urbandao/internal/domain/config"
)

const (
	DefaultDataDir = ".urbandao"
	ConfigFileName = "urbandao"
)

// Provider creates RuntimeConfig for Wire dependency injection
func Provider(v *viper.Viper) (*RuntimeConfig, error) {
	dataDir := v.GetString("data_dir")
	if dataDir == "" {
		dataDir = DefaultDataDir
	}
	abs, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data dir: %w", err)
	}

	cfg := &RuntimeConfig{
		DataDir:               abs,
		GenesisPath:           v.GetString("genesis"),
		Debug:                 v.GetBool("debug"),
		NonInteractive:        v.GetBool("non_interactive"),
		JSON:                  v.GetBool("json"),
		Timeout:               v.GetDuration("timeout"),
		From:                  v.GetString("from"),
		MetricsFile:           v.GetString("metrics_file"),
		ChainID:               v.GetUint64("chain_id"),
		MonthlyGrievanceLimit: v.GetUint64("grievance.monthly_limit"),
		ReceiptBaseURI:        v.GetString("receipt.base_uri"),
		Governance: config.Governance{
			VotingDelay:       v.GetDuration("governance.voting_delay"),
			VotingPeriod:      v.GetDuration("governance.voting_period"),
			TimelockDelay:     v.GetDuration("governance.timelock_delay"),
			QuorumBps:         v.GetUint64("governance.quorum_bps"),
			ProposalThreshold: v.GetString("governance.proposal_threshold"),
		},
	}
	if cfg.GenesisPath == "" {
		cfg.GenesisPath = filepath.Join(cfg.DataDir, "genesis.toml")
	}

	loadEnvFiles(cfg.DataDir)
	return cfg, nil
}

// SetupViper creates and configures a viper instance
func SetupViper(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix("URBANDAO")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if err := v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f); err != nil {
			panic(err)
		}
	})

	// The config file lives in the data dir, which a flag may move.
	v.SetConfigName(ConfigFileName)
	v.SetConfigType("toml")
	v.AddConfigPath(v.GetString("data_dir"))
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Warning: failed to read %s.toml: %v\n", ConfigFileName, err)
		}
	}

	return v
}

// SetDefaults installs the defaults every command starts from.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", DefaultDataDir)
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("debug", false)
	v.SetDefault("non_interactive", false)
	v.SetDefault("chain_id", 31337)
	v.SetDefault("governance.voting_delay", 24*time.Hour)
	v.SetDefault("governance.voting_period", 7*24*time.Hour)
	v.SetDefault("governance.timelock_delay", 24*time.Hour)
	v.SetDefault("governance.quorum_bps", 400)
	v.SetDefault("governance.proposal_threshold", "0")
	v.SetDefault("grievance.monthly_limit", 5)
	v.SetDefault("receipt.base_uri", "ipfs://")
}
