// Package config is the plain, validated configuration shape a peer
// daemon starts from: a struct with defaults and a Validate method,
// opinion-free about how its fields get populated. Loading (flag
// parsing, env merging) is out of scope; this package only covers the
// shape and its YAML decoding.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

func init() {
	if err := validate.RegisterValidation("url_scheme", validateURLScheme); err != nil {
		panic(err)
	}
}

// PeerConfig is everything one peer process needs to start up.
type PeerConfig struct {
	// SelfURL is the plasma://host:port this peer listens on.
	SelfURL string `yaml:"self_url" validate:"required,url_scheme"`

	// SeedPeers seeds the presence registry's initial view, the way a
	// real LAN-broadcast presence layer would be primed before its
	// first announcement round.
	SeedPeers []string `yaml:"seed_peers" validate:"dive,url_scheme"`

	// DefaultHTL is a hops-to-live value for queries. It is loaded and
	// validated here; no other package in this module reads it, so a
	// plan's HTL is never filled in from it.
	DefaultHTL int `yaml:"default_htl" validate:"required,min=1,max=64"`

	// RPCTimeout is a request/reply round-trip timeout. It is loaded and
	// validated here; no other package in this module reads it.
	RPCTimeout time.Duration `yaml:"rpc_timeout" validate:"required"`

	// SubQueryTimeout is a timeout for a proxy crossing's sub-query
	// stream. It is loaded and validated here; no other package in this
	// module reads it.
	SubQueryTimeout time.Duration `yaml:"sub_query_timeout" validate:"required"`

	// BufferSize is an operator channel capacity. It is loaded and
	// validated here; no other package in this module passes it to
	// runtime.Deps.BufferSize.
	BufferSize int `yaml:"buffer_size" validate:"min=0"`

	// AuthSecret, when set, is the HMAC signing secret every peer in
	// the network shares out of band: it turns on peerauth token
	// checking for sub-query, recur-query, iter-n-query, and
	// recur-query-result. Left empty, this peer accepts those requests
	// unauthenticated, as every peer in a single trusted LAN typically
	// would.
	AuthSecret string `yaml:"auth_secret" validate:"omitempty,min=32"`
}

// DefaultPeerConfig returns a config with safe defaults for every
// field Load does not require the caller to set explicitly.
func DefaultPeerConfig() PeerConfig {
	return PeerConfig{
		DefaultHTL:      16,
		RPCTimeout:      5 * time.Second,
		SubQueryTimeout: 30 * time.Second,
		BufferSize:      64,
	}
}

// Load decodes a PeerConfig from YAML, applying DefaultPeerConfig's
// values to anything the document leaves unset, then validates it.
func Load(data []byte) (PeerConfig, error) {
	cfg := DefaultPeerConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return PeerConfig{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return PeerConfig{}, err
	}
	return cfg, nil
}

// Validate checks the struct tags above plus the one cross-field rule
// validator tags can't express: a sub-query timeout shorter than the
// RPC timeout it's layered on top of can never actually trigger.
func (c *PeerConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	if c.SubQueryTimeout < c.RPCTimeout {
		return fmt.Errorf("config: sub_query_timeout (%s) must be >= rpc_timeout (%s)", c.SubQueryTimeout, c.RPCTimeout)
	}
	return nil
}

func validateURLScheme(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return len(s) > len("plasma://") && s[:len("plasma://")] == "plasma://"
}

func formatValidationError(err error) error {
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	for _, e := range validationErrs {
		return fmt.Errorf("config: %s: failed %q validation", e.Field(), e.Tag())
	}
	return err
}
