package config

import (
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// BillingConfig carries tunables for invoice generation and lease sweeps.
// It is loaded from billing.yml and hot-reloaded on change.
type BillingConfig struct {
	DueTermDays       int `mapstructure:"dueTermDays"`
	ExpiringSoonDays  int `mapstructure:"expiringSoonDays"`
	LookbackMonths    int `mapstructure:"lookbackMonths"`
	TrialDays         int `mapstructure:"trialDays"`
	DefaultInvoiceDay int `mapstructure:"defaultInvoiceDay"`
}

func DefaultBillingConfig() BillingConfig {
	return BillingConfig{
		DueTermDays:       7,
		ExpiringSoonDays:  60,
		LookbackMonths:    3,
		TrialDays:         14,
		DefaultInvoiceDay: 1,
	}
}

func (c BillingConfig) withDefaults() BillingConfig {
	defaults := DefaultBillingConfig()
	if c.DueTermDays <= 0 {
		c.DueTermDays = defaults.DueTermDays
	}
	if c.ExpiringSoonDays <= 0 {
		c.ExpiringSoonDays = defaults.ExpiringSoonDays
	}
	if c.LookbackMonths <= 0 {
		c.LookbackMonths = defaults.LookbackMonths
	}
	if c.TrialDays <= 0 {
		c.TrialDays = defaults.TrialDays
	}
	if c.DefaultInvoiceDay < 1 || c.DefaultInvoiceDay > 28 {
		c.DefaultInvoiceDay = defaults.DefaultInvoiceDay
	}
	return c
}

type BillingConfigHolder struct {
	current atomic.Value // holds BillingConfig
}

func NewBillingConfigHolder(log *zap.Logger) (*BillingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("billing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/rentfold/config")
	v.AddConfigPath("/etc/rentfold")
	v.AddConfigPath(".")

	v.SetEnvPrefix("RENTFOLD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	holder := &BillingConfigHolder{}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		holder.current.Store(DefaultBillingConfig())
		return holder, nil
	}

	cfg, err := unmarshalBilling(v)
	if err != nil {
		return nil, err
	}
	holder.current.Store(cfg)

	v.OnConfigChange(func(fsnotify.Event) {
		next, err := unmarshalBilling(v)
		if err != nil {
			log.Warn("billing config reload failed", zap.Error(err))
			return
		}
		holder.current.Store(next)
		log.Info("billing config reloaded")
	})
	v.WatchConfig()

	return holder, nil
}

func unmarshalBilling(v *viper.Viper) (BillingConfig, error) {
	var cfg BillingConfig
	if err := v.UnmarshalKey("billing", &cfg); err != nil {
		return BillingConfig{}, err
	}
	return cfg.withDefaults(), nil
}

// Current returns the active billing config.
func (h *BillingConfigHolder) Current() BillingConfig {
	if v, ok := h.current.Load().(BillingConfig); ok {
		return v
	}
	return DefaultBillingConfig()
}

// NewStaticBillingConfigHolder is for tests.
func NewStaticBillingConfigHolder(cfg BillingConfig) *BillingConfigHolder {
	holder := &BillingConfigHolder{}
	holder.current.Store(cfg.withDefaults())
	return holder
}
