package provider

import (
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"

	"github.com/SIVIRA/unwallet-provider-js/pkg/params"
)

// Env selects the remote wallet deployment.
type Env string

const (
	EnvProd  Env = "prod"
	EnvDev   Env = "dev"
	EnvLocal Env = "local"
)

// Endpoints are the URLs of one wallet deployment.
type Endpoints struct {
	// BaseURL is the origin of the signer window.
	BaseURL string
	// WSURL is the websocket channel the signer window reports to.
	WSURL string
}

var endpoints = map[Env]Endpoints{
	EnvProd: {
		BaseURL: "https://id.dauth.world",
		WSURL:   "wss://ws-api.admin.id.dauth.world",
	},
	EnvDev: {
		BaseURL: "https://id-dev.dauth.world",
		WSURL:   "wss://ws-api.admin.id-dev.dauth.world",
	},
	EnvLocal: {
		BaseURL: "http://localhost:4200",
		WSURL:   "wss://ws-api.admin.id-dev.dauth.world",
	},
}

// EndpointsFor returns the endpoints of env.
func EndpointsFor(env Env) (Endpoints, bool) {
	e, ok := endpoints[env]
	return e, ok
}

// Config configures a Provider.
type Config struct {
	// Env defaults to EnvProd.
	Env Env `yaml:"env"`

	// RPC maps chain ids to the JSON-RPC endpoints used for pass-through calls.
	RPC map[uint64]string `yaml:"rpc" validate:"dive,keys,gt=0,endkeys,required,url"`

	// AllowAccountsCaching persists the last accounts in the cache store.
	AllowAccountsCaching bool `yaml:"allow_accounts_caching"`

	// ChainID is the chain assumed before the wallet reports one. Zero means unknown.
	ChainID uint64 `yaml:"chain_id"`

	// Methods limits the locally served methods. Empty enables all of them.
	Methods []string `yaml:"methods" validate:"dive,signermethod"`

	// VerifySignatures recovers the signer of personal_sign and eth_sign
	// results and rejects signatures from another account.
	VerifySignatures bool `yaml:"verify_signatures"`
}

var configValidator = newConfigValidator()

func newConfigValidator() *validator.Validate {
	v := params.NewValidator()
	if err := v.RegisterValidation("signermethod", func(fl validator.FieldLevel) bool {
		return IsSignerMethod(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("failed to register signermethod validation: %v", err))
	}
	return v
}

// withDefaults returns a copy of c with defaulted fields filled in.
func (c Config) withDefaults() Config {
	if c.Env == "" {
		c.Env = EnvProd
	}
	c.Methods = slices.Clone(c.Methods)
	if c.RPC != nil {
		rpc := make(map[uint64]string, len(c.RPC))
		for k, v := range c.RPC {
			rpc[k] = v
		}
		c.RPC = rpc
	}
	return c
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if _, ok := endpoints[c.withDefaults().Env]; !ok {
		return fmt.Errorf("%w: invalid env %q", ErrConfiguration, c.Env)
	}
	if err := configValidator.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return nil
}

// enabled reports whether a signer method is served under this configuration.
func (c Config) enabled(method string) bool {
	return len(c.Methods) == 0 || slices.Contains(c.Methods, method)
}
