/*
Package config loads the checkbookd configuration from a TOML file.

Values not present in the file keep their defaults. The HTTP bind address
and the home directory can be overwritten with the CHECKBOOK_HTTP and
CHECKBOOK_HOME environment variables.
*/
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/iov-one/checkbook"
	"github.com/iov-one/checkbook/coin"
	"github.com/iov-one/checkbook/errors"
	"github.com/tendermint/tendermint/libs/log"
)

// Asset kinds understood by checkbookd.
const (
	KindCash = "cash"
	KindNFT  = "nft"
)

// Configuration of a checkbookd instance.
type Configuration struct {
	// Home is the directory the state is stored under.
	Home string `toml:"home"`
	// HTTP is the address the API server binds to.
	HTTP string `toml:"http"`
	// LogLevel is passed to log.AllowLevel, for example "info" or "debug".
	LogLevel string `toml:"log_level"`
	// Debug exposes full error messages to API clients.
	Debug bool `toml:"debug"`
	// Custodian is the identity of the engine. Every account is derived
	// with it.
	Custodian checkbook.Address `toml:"custodian"`
	// Redis is optional. When Addr is set, card nonces are claimed in
	// Redis so that several engines share them.
	Redis  Redis   `toml:"redis"`
	Assets []Asset `toml:"assets"`
}

// Redis connection details.
type Redis struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// Enabled returns true if the Redis card registry should be used.
func (r Redis) Enabled() bool {
	return r.Addr != ""
}

// Asset binds an asset contract to a custodian kind.
type Asset struct {
	Contract checkbook.Address `toml:"contract"`
	Kind     string            `toml:"kind"`
	// Ticker is required for cash assets only.
	Ticker string `toml:"ticker"`
}

// Default returns the configuration used when no file is provided.
func Default() Configuration {
	return Configuration{
		Home:     filepath.Join(os.ExpandEnv("$HOME"), ".checkbook"),
		HTTP:     ":8000",
		LogLevel: "info",
	}
}

// Load reads the configuration from given TOML file on top of the defaults
// and applies the environment overrides. An empty path loads the defaults
// only. The result is validated.
func Load(path string) (Configuration, error) {
	c := Default()
	if path != "" {
		md, err := toml.DecodeFile(path, &c)
		if err != nil {
			return c, errors.Wrapf(errors.ErrInput, "decode %s: %s", path, err)
		}
		if undec := md.Undecoded(); len(undec) != 0 {
			keys := make([]string, len(undec))
			for i, k := range undec {
				keys[i] = k.String()
			}
			return c, errors.Wrapf(errors.ErrInput, "unknown keys in %s: %s", path, strings.Join(keys, ", "))
		}
	}
	c.HTTP = env("CHECKBOOK_HTTP", c.HTTP)
	c.Home = env("CHECKBOOK_HOME", c.Home)
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// Write stores the configuration in given file in the TOML format.
func (c Configuration) Write(path string) error {
	fd, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create")
	}
	if err := toml.NewEncoder(fd).Encode(c); err != nil {
		fd.Close()
		return errors.Wrap(err, "encode")
	}
	return errors.Wrap(fd.Close(), "close")
}

func (c Configuration) Validate() error {
	var errs error
	if c.Home == "" {
		errs = errors.AppendField(errs, "Home", errors.ErrEmpty)
	}
	if c.HTTP == "" {
		errs = errors.AppendField(errs, "HTTP", errors.ErrEmpty)
	}
	if _, err := log.AllowLevel(c.LogLevel); err != nil {
		errs = errors.AppendField(errs, "LogLevel", errors.Wrap(errors.ErrInput, err.Error()))
	}
	errs = errors.AppendField(errs, "Custodian", c.Custodian.Validate())

	seen := make(map[string]struct{}, len(c.Assets))
	for i, a := range c.Assets {
		field := errors.Path("Assets", i)
		if err := a.Validate(); err != nil {
			errs = errors.AppendField(errs, field, err)
			continue
		}
		key := a.Contract.String()
		if _, ok := seen[key]; ok {
			errs = errors.AppendField(errs, field, errors.Wrapf(errors.ErrDuplicate, "asset %s", key))
		}
		seen[key] = struct{}{}
	}
	return errs
}

func (a Asset) Validate() error {
	if err := a.Contract.Validate(); err != nil {
		return errors.Wrap(err, "contract")
	}
	switch a.Kind {
	case KindCash:
		if !coin.IsCC(a.Ticker) {
			return errors.Wrapf(errors.ErrInput, "invalid ticker %q", a.Ticker)
		}
	case KindNFT:
		if a.Ticker != "" {
			return errors.Wrap(errors.ErrInput, "nft asset has no ticker")
		}
	default:
		return errors.Wrapf(errors.ErrInput, "unknown asset kind %q", a.Kind)
	}
	return nil
}

// env returns the value of the environment variable with given name or the
// fallback if it is not set.
func env(name, fallback string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}
	return fallback
}
