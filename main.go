package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/identra/identra/config"
	"github.com/identra/identra/database"
	"github.com/identra/identra/logger"
	"github.com/identra/identra/web"

	"github.com/joho/godotenv"
	"github.com/op/go-logging"
)

func runWebServer() {
	log.Printf("%v %v", config.GetName(), config.GetVersion())

	switch config.GetLogLevel() {
	case config.Debug:
		logger.InitLogger(logging.DEBUG)
	case config.Info:
		logger.InitLogger(logging.INFO)
	case config.Notice:
		logger.InitLogger(logging.NOTICE)
	case config.Warn:
		logger.InitLogger(logging.WARNING)
	case config.Error:
		logger.InitLogger(logging.ERROR)
	default:
		log.Fatal("unknown log level:", config.GetLogLevel())
	}

	if err := database.InitDB(config.GetDBPath()); err != nil {
		log.Fatal(err)
	}

	options := config.DefaultIdentityOptions()
	if err := options.LoadFile(config.GetOptionsFile()); err != nil {
		log.Fatal("load options file:", err)
	}
	if err := options.CheckValid(); err != nil {
		log.Fatal("invalid options:", err)
	}

	server := web.NewServer(options)
	if err := server.Start(); err != nil {
		log.Println(err)
		return
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGINT)
	for {
		sig := <-sigCh

		switch sig {
		case syscall.SIGHUP:
			logger.Info("received SIGHUP, restarting servers...")
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err:", err)
			}
			server = web.NewServer(options)
			if err := server.Start(); err != nil {
				log.Println(err)
				return
			}
		default:
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err:", err)
			}
			if err := database.CloseDB(); err != nil {
				logger.Warning("close database err:", err)
			}
			logger.CloseLogger()
			return
		}
	}
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Println("load .env:", err)
	}

	showVersion := flag.Bool("v", false, "show version")
	flag.Parse()
	if *showVersion {
		fmt.Println(config.GetVersion())
		return
	}

	runWebServer()
}
