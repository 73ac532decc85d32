// Package config loads the scouting service configuration from a YAML
// file with environment overrides.
package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/metasoccer/scouting-contracts/pkg/fault"
	"github.com/metasoccer/scouting-contracts/pkg/scoutsig"
)

type Config struct {
	Listen      string `yaml:"listen"`
	DatabaseURL string `yaml:"database_url"`

	// Beneficiary receives the scouting fees.
	Beneficiary string `yaml:"beneficiary"`
	// OracleAccount is the only identity allowed to fulfill randomness.
	OracleAccount string `yaml:"oracle_account"`
	// ServiceAccount is the identity the issuance orchestrator mints
	// and writes entropy with.
	ServiceAccount string `yaml:"service_account"`
	// EscrowAccount holds staked collateral.
	EscrowAccount string `yaml:"escrow_account"`

	Signing scoutsig.Domain `yaml:"signing"`

	// Currencies is the ordered accepted-currency list; Prices maps
	// currency -> level -> fee amount in base units.
	Currencies []string                    `yaml:"currencies"`
	Prices     map[string]map[uint8]uint64 `yaml:"prices"`

	// DerivativeCounts maps level -> derivatives minted at claim.
	DerivativeCounts map[uint8]uint32 `yaml:"derivative_counts"`

	// Admins hold administrate-config; Authorizers hold
	// authorize-requests.
	Admins      []string `yaml:"admins"`
	Authorizers []string `yaml:"authorizers"`
}

func Default() Config {
	return Config{
		Listen:         ":8084",
		EscrowAccount:  "escrow:scouting",
		ServiceAccount: "svc:scouting",
		Signing: scoutsig.Domain{
			Name:    "MetaSoccer Scouting",
			Version: "1",
		},
	}
}

// Load reads path (when it exists) over the defaults and applies
// environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return Config{}, fault.Wrap(fault.InvalidInput, "malformed config file", err)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, err
		}
	}
	if v := os.Getenv("SCOUTING_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("SCOUTING_ORACLE_ACCOUNT"); v != "" {
		cfg.OracleAccount = v
	}
	if v := os.Getenv("SCOUTING_BENEFICIARY"); v != "" {
		cfg.Beneficiary = v
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Listen) == "" {
		return fault.InvalidInputf("listen address required")
	}
	if strings.TrimSpace(c.Beneficiary) == "" {
		return fault.InvalidInputf("beneficiary account required")
	}
	if strings.TrimSpace(c.OracleAccount) == "" {
		return fault.InvalidInputf("oracle account required")
	}
	if strings.TrimSpace(c.EscrowAccount) == "" {
		return fault.InvalidInputf("escrow account required")
	}
	if strings.TrimSpace(c.ServiceAccount) == "" {
		return fault.InvalidInputf("service account required")
	}
	if strings.TrimSpace(c.Signing.Name) == "" || strings.TrimSpace(c.Signing.Version) == "" {
		return fault.InvalidInputf("signing domain name and version required")
	}
	if strings.TrimSpace(c.Signing.Instance) == "" {
		return fault.InvalidInputf("signing domain instance required")
	}
	seen := map[string]struct{}{}
	for _, cur := range c.Currencies {
		if strings.TrimSpace(cur) == "" {
			return fault.InvalidInputf("empty currency symbol")
		}
		if _, dup := seen[cur]; dup {
			return fault.InvalidInputf("duplicate currency symbol")
		}
		seen[cur] = struct{}{}
	}
	for currency := range c.Prices {
		if _, ok := seen[currency]; !ok {
			return fault.InvalidInputf("price configured for unaccepted currency")
		}
	}
	if len(c.DerivativeCounts) == 0 {
		return fault.InvalidInputf("at least one derivative level required")
	}
	for _, n := range c.DerivativeCounts {
		if n == 0 {
			return fault.InvalidInputf("derivative count must be positive")
		}
	}
	return nil
}
