package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// TaxPolicy carries operator-tunable declaration defaults. Rates are
// percentage figures (1 means 1%).
type TaxPolicy struct {
	GTGTRate decimal.Decimal
	TNCNRate decimal.Decimal
}

type taxPolicyFile struct {
	GTGTRate string `mapstructure:"gtgtRate"`
	TNCNRate string `mapstructure:"tncnRate"`
}

func DefaultTaxPolicy() TaxPolicy {
	return TaxPolicy{
		GTGTRate: decimal.RequireFromString("1"),
		TNCNRate: decimal.RequireFromString("0.5"),
	}
}

// TaxPolicyHolder exposes the current policy and hot-reloads it when the
// config file changes on disk.
type TaxPolicyHolder struct {
	current atomic.Value // holds TaxPolicy
}

// NewStaticTaxPolicyHolder returns a holder pinned to the given policy,
// bypassing file watching.
func NewStaticTaxPolicyHolder(policy TaxPolicy) *TaxPolicyHolder {
	holder := &TaxPolicyHolder{}
	holder.current.Store(policy)
	return holder
}

func NewTaxPolicyHolder() (*TaxPolicyHolder, error) {
	v := viper.New()

	v.SetConfigName("taxpolicy")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/taxdesk/config") // Volume-mounted config
	v.AddConfigPath("/etc/taxdesk")            // System config
	v.AddConfigPath(".")                       // Current directory (dev mode)

	v.SetEnvPrefix("TAXDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	holder := &TaxPolicyHolder{}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		holder.current.Store(DefaultTaxPolicy())
		return holder, nil
	}

	policy, err := parseTaxPolicy(v)
	if err != nil {
		return nil, err
	}
	holder.current.Store(policy)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := parseTaxPolicy(v)
		if err != nil {
			log.Printf("[tax-policy] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[tax-policy] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *TaxPolicyHolder) Get() TaxPolicy {
	return h.current.Load().(TaxPolicy)
}

func parseTaxPolicy(v *viper.Viper) (TaxPolicy, error) {
	var file taxPolicyFile
	if err := v.UnmarshalKey("tax", &file); err != nil {
		return TaxPolicy{}, err
	}

	policy := DefaultTaxPolicy()
	if raw := strings.TrimSpace(file.GTGTRate); raw != "" {
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			return TaxPolicy{}, err
		}
		policy.GTGTRate = rate
	}
	if raw := strings.TrimSpace(file.TNCNRate); raw != "" {
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			return TaxPolicy{}, err
		}
		policy.TNCNRate = rate
	}

	if policy.GTGTRate.IsNegative() || policy.TNCNRate.IsNegative() {
		return TaxPolicy{}, errors.New("tax rates cannot be negative")
	}
	return policy, nil
}
