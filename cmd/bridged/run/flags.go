// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package run

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/luxfi/bridge/api/server"
	"github.com/luxfi/bridge/utils"
	"github.com/luxfi/bridge/utils/profiler"
)

const (
	ConfigFileKey            = "config-file"
	DataDirKey               = "data-dir"
	GenesisFileKey           = "genesis-file"
	EngineConfigFileKey      = "engine-config-file"
	HTTPHostKey              = "http-host"
	HTTPPortKey              = "http-port"
	HTTPAllowedOriginsKey    = "http-allowed-origins"
	HTTPAllowedHostsKey      = "http-allowed-hosts"
	HTTPShutdownTimeoutKey   = "http-shutdown-timeout"
	HTTPReadTimeoutKey       = "http-read-timeout"
	HTTPReadHeaderTimeoutKey = "http-read-header-timeout"
	HTTPWriteTimeoutKey      = "http-write-timeout"
	HTTPIdleTimeoutKey       = "http-idle-timeout"
	AdminAPIEnabledKey       = "api-admin-enabled"
	ProfileDirKey            = "profile-dir"
	ProfileEnabledKey        = "profile-continuous-enabled"
	ProfileFreqKey           = "profile-continuous-freq"
	ProfileMaxNumFilesKey    = "profile-continuous-max-files"
)

const (
	envPrefix = "bridged"

	defaultHTTPPort            = 9660
	defaultHTTPShutdownTimeout = 10 * time.Second
)

var errMissingDataDir = errors.New("missing data directory")

func AddFlags(flags *pflag.FlagSet) {
	flags.String(ConfigFileKey, "", "JSON, YAML or TOML file to read flag values from")
	flags.String(DataDirKey, "bridged-data", "Directory of the bridge database")
	flags.String(GenesisFileKey, "", "Genesis file used to initialize an empty database")
	flags.String(EngineConfigFileKey, "", "JSON file overriding the default engine configuration")
	flags.String(HTTPHostKey, "127.0.0.1", "Address of the HTTP server")
	flags.Uint16(HTTPPortKey, defaultHTTPPort, "Port of the HTTP server")
	flags.StringSlice(HTTPAllowedOriginsKey, []string{"*"}, "Origins to allow on the HTTP port")
	flags.StringSlice(HTTPAllowedHostsKey, []string{"localhost"}, "Hosts that may address the HTTP server. \"*\" allows any host")
	flags.Duration(HTTPShutdownTimeoutKey, defaultHTTPShutdownTimeout, "Maximum duration to wait for in-flight requests on shutdown")
	flags.Duration(HTTPReadTimeoutKey, 30*time.Second, "Maximum duration for reading the entire request, including the body")
	flags.Duration(HTTPReadHeaderTimeoutKey, 30*time.Second, "Maximum duration to read request headers")
	flags.Duration(HTTPWriteTimeoutKey, 30*time.Second, "Maximum duration before timing out writes of the response")
	flags.Duration(HTTPIdleTimeoutKey, 120*time.Second, "Maximum duration to wait for the next request when keep-alives are enabled")
	flags.Bool(AdminAPIEnabledKey, false, "Serve the admin API at /ext/bridge/admin")
	flags.String(ProfileDirKey, "bridged-profiles", "Directory continuous profiles are written to")
	flags.Bool(ProfileEnabledKey, false, "Periodically write CPU, heap and mutex profiles")
	flags.Duration(ProfileFreqKey, 15*time.Minute, "How often a new set of profiles is started")
	flags.Int(ProfileMaxNumFilesKey, 5, "Number of rotated profiles of each kind to keep")
}

type Config struct {
	DataDir         string
	Genesis         []byte
	EngineConfig    []byte
	HTTPHost        string
	HTTPPort        uint16
	AllowedOrigins  []string
	AllowedHosts    []string
	ShutdownTimeout time.Duration
	HTTPConfig      server.HTTPConfig
	AdminAPIEnabled bool
	Profiler        profiler.Config
}

// ParseFlags resolves the run configuration. Values are taken, in order of
// precedence, from set flags, BRIDGED_* environment variables, the config
// file and the flag defaults.
func ParseFlags(v *viper.Viper, flags *pflag.FlagSet, args []string) (*Config, error) {
	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if err := v.BindPFlags(flags); err != nil {
		return nil, err
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile := v.GetString(ConfigFileKey); configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", configFile, err)
		}
	}

	dataDir := v.GetString(DataDirKey)
	if dataDir == "" {
		return nil, errMissingDataDir
	}

	config := &Config{
		DataDir:         utils.ExpandHome(dataDir),
		HTTPHost:        v.GetString(HTTPHostKey),
		HTTPPort:        v.GetUint16(HTTPPortKey),
		AllowedOrigins:  v.GetStringSlice(HTTPAllowedOriginsKey),
		AllowedHosts:    v.GetStringSlice(HTTPAllowedHostsKey),
		ShutdownTimeout: v.GetDuration(HTTPShutdownTimeoutKey),
		HTTPConfig: server.HTTPConfig{
			ReadTimeout:       v.GetDuration(HTTPReadTimeoutKey),
			ReadHeaderTimeout: v.GetDuration(HTTPReadHeaderTimeoutKey),
			WriteTimeout:      v.GetDuration(HTTPWriteTimeoutKey),
			IdleTimeout:       v.GetDuration(HTTPIdleTimeoutKey),
		},
		AdminAPIEnabled: v.GetBool(AdminAPIEnabledKey),
		Profiler: profiler.Config{
			Dir:         utils.ExpandHome(v.GetString(ProfileDirKey)),
			Enabled:     v.GetBool(ProfileEnabledKey),
			Freq:        v.GetDuration(ProfileFreqKey),
			MaxNumFiles: v.GetInt(ProfileMaxNumFilesKey),
		},
	}
	if err := config.Profiler.Verify(); err != nil {
		return nil, err
	}

	var err error
	config.Genesis, err = readOptionalFile(v.GetString(GenesisFileKey))
	if err != nil {
		return nil, err
	}
	config.EngineConfig, err = readOptionalFile(v.GetString(EngineConfigFileKey))
	if err != nil {
		return nil, err
	}
	return config, nil
}

func readOptionalFile(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(utils.ExpandHome(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", path, err)
	}
	return b, nil
}
