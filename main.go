package main

import (
	"github.com/kelseyhightower/envconfig"

	"gitlab.com/csgowatch/csgo-gsi/avatar"
	"gitlab.com/csgowatch/csgo-gsi/server"
)

type ServerConfig struct {
	Addr        string   `default:"0.0.0.0"`
	Port        int      `default:"8080"`
	Ttl         int      `default:"15"`
	SteamApiKey string   `split_words:"true" required:"true"`
	Tokens      []string
}

func main() {
	config := new(ServerConfig)
	envconfig.MustProcess("gsi", config)

	var filter server.TokenFilter = &server.ToggleTokenFilter{Value: true}
	if len(config.Tokens) > 0 {
		filter = server.NewStaticTokenFilter(config.Tokens)
	}

	enricher := avatar.New(avatar.NewClient(config.SteamApiKey))

	gsiServer := server.New(config.Addr, config.Port, config.Ttl, filter, enricher)
	if err := gsiServer.Start(); err != nil {
		panic(err)
	}
}
