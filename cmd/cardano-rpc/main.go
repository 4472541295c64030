package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	. "github.com/alexdcox/cardano-wallet"
	"github.com/alexdcox/cardano-wallet/rpcclient"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

const envPrefix = "CARDANO_RPC"

type _config struct {
	HostPort    string `envconfig:"HOST_PORT" default:"localhost:3002" json:"hostport"`
	Network     string `envconfig:"NETWORK" required:"true" json:"network"`
	BackendUrl  string `envconfig:"BACKEND_URL" json:"backendurl"`
	ProjectId   string `envconfig:"PROJECT_ID" json:"-"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" json:"loglevel"`
	AllowSubmit bool   `envconfig:"ALLOW_SUBMIT" default:"false" json:"allowsubmit"`

	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"20s" json:"requesttimeout"`
}

func (c *_config) Load() (err error) {
	if err = envconfig.Process(envPrefix, c); err != nil {
		return errors.Wrap(err, "failed to process env vars")
	}

	if err = Network(c.Network).Validate(); err != nil {
		return
	}

	if j, err2 := json.MarshalIndent(c, "", "  "); err2 == nil {
		log.Info().Msgf("config loaded:\n%s", string(j))
	}

	return
}

var log = Log()

func main() {
	config := &_config{}

	if err := config.Load(); err != nil {
		log.Fatal().Msgf("%+v", err)
	}

	logLevel, err := SetLogLevel(config.LogLevel, envPrefix+"_LOG_LEVEL")
	if err != nil {
		log.Fatal().Msgf("%+v", err)
	}
	log.Info().Msgf("setting log level to: '%s'", logLevel)

	chain, err := rpcclient.NewBlockfrostClient(config.BackendUrl, config.ProjectId, Network(config.Network))
	if err != nil {
		log.Fatal().Msgf("%+v", err)
	}

	httpServer, err := NewHttpRpcServer(config, chain)
	if err != nil {
		log.Fatal().Msgf("%+v", err)
	}

	go func() {
		if err = httpServer.Start(); err != nil {
			log.Fatal().Msgf("%+v", err)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	<-c

	log.Info().Msg("caught interrupt/terminate signal, attempting graceful shutdown...")

	if err = httpServer.Stop(); err != nil {
		log.Fatal().Msgf("%+v", err)
	}

	log.Info().Msg("graceful shutdown complete")
}
