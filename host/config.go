package host

import (
	"fmt"
	"time"

	"github.com/MixinNetwork/collectible/collectible"
	"github.com/pelletier/go-toml"
	"github.com/shopspring/decimal"
)

type AppConfig struct {
	Admin    string `toml:"admin"`
	Contract string `toml:"contract"`
	LogLevel int    `toml:"log-level"`
}

type TermsConfig struct {
	MintBaseFee         string `toml:"mint-base-fee"`
	CreatorSignatureFee string `toml:"creator-signature-fee"`
	MaxMintsPerCycle    int64  `toml:"max-mints-per-cycle"`
	RateIncrementPct    string `toml:"rate-increment-pct"`
	DecayPeriod         string `toml:"decay-period"`
}

type PolicyConfig struct {
	RequireCreatorRecipient bool `toml:"require-creator-recipient"`
}

type APIConfig struct {
	Listen string `toml:"listen"`
}

type Configuration struct {
	App    AppConfig    `toml:"app"`
	Terms  TermsConfig  `toml:"terms"`
	Policy PolicyConfig `toml:"policy"`
	API    APIConfig    `toml:"api"`
}

func Setup(path string) (*Configuration, error) {
	tree, err := toml.LoadFile(path)
	if err != nil {
		return nil, err
	}
	var conf Configuration
	err = tree.Unmarshal(&conf)
	if err != nil {
		return nil, err
	}
	if conf.API.Listen == "" {
		conf.API.Listen = ":7000"
	}
	return &conf, nil
}

// Genesis builds the engine genesis. The terms only apply to an empty store,
// persisted terms always win.
func (conf *Configuration) Genesis() (*collectible.Genesis, error) {
	ct := conf.Terms
	base, err := decimal.NewFromString(ct.MintBaseFee)
	if err != nil {
		return nil, fmt.Errorf("invalid mint base fee %q", ct.MintBaseFee)
	}
	sig, err := decimal.NewFromString(ct.CreatorSignatureFee)
	if err != nil {
		return nil, fmt.Errorf("invalid creator signature fee %q", ct.CreatorSignatureFee)
	}
	if ct.MaxMintsPerCycle < 1 || ct.MaxMintsPerCycle > int64(^uint32(0)) {
		return nil, fmt.Errorf("invalid max mints per cycle %d", ct.MaxMintsPerCycle)
	}
	pct := collectible.DefaultRateIncrementPct
	if ct.RateIncrementPct != "" {
		pct, err = decimal.NewFromString(ct.RateIncrementPct)
		if err != nil {
			return nil, fmt.Errorf("invalid rate increment pct %q", ct.RateIncrementPct)
		}
	}
	decay := collectible.DefaultDecayPeriod
	if ct.DecayPeriod != "" {
		decay, err = time.ParseDuration(ct.DecayPeriod)
		if err != nil {
			return nil, fmt.Errorf("invalid decay period %q", ct.DecayPeriod)
		}
	}
	terms := collectible.Terms{
		MintBaseFee:         base,
		CreatorSignatureFee: sig,
		MaxMintsPerCycle:    uint32(ct.MaxMintsPerCycle),
		RateIncrementPct:    pct,
		DecayPeriod:         decay,
	}
	if err := terms.Validate(); err != nil {
		return nil, err
	}
	return &collectible.Genesis{
		Admin:                   conf.App.Admin,
		Contract:                conf.App.Contract,
		Terms:                   terms,
		RequireCreatorRecipient: conf.Policy.RequireCreatorRecipient,
	}, nil
}
