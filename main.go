package main

import (
	"context"
	"flag"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/MixinNetwork/collectible/api"
	"github.com/MixinNetwork/collectible/host"
	"github.com/MixinNetwork/collectible/store"
	"github.com/MixinNetwork/mixin/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bp := flag.String("d", "~/.mixin/collectible/data", "database directory path")
	cp := flag.String("c", "~/.mixin/collectible/config.toml", "configuration file path")
	flag.Parse()

	if strings.HasPrefix(*cp, "~/") {
		usr, _ := user.Current()
		*cp = filepath.Join(usr.HomeDir, (*cp)[2:])
	}
	conf, err := host.Setup(*cp)
	if err != nil {
		panic(err)
	}
	logger.SetLevel(conf.App.LogLevel)

	if strings.HasPrefix(*bp, "~/") {
		usr, _ := user.Current()
		*bp = filepath.Join(usr.HomeDir, (*bp)[2:])
	}
	db, err := store.OpenBadger(ctx, *bp)
	if err != nil {
		panic(err)
	}
	defer db.Close()

	h, err := host.BuildHost(ctx, db, conf)
	if err != nil {
		panic(err)
	}
	go h.Run(ctx)

	gin.SetMode(gin.ReleaseMode)
	logger.Printf("collectible api listening on %s\n", conf.API.Listen)
	err = api.NewRouter(h).Run(conf.API.Listen)
	if err != nil {
		panic(err)
	}
}
