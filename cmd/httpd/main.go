package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/nczempin/httpd-go-uring/config"
	"github.com/nczempin/httpd-go-uring/fileserver"
	"github.com/nczempin/httpd-go-uring/logger"
	"github.com/nczempin/httpd-go-uring/server"
	"github.com/nczempin/httpd-go-uring/transport"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "httpd: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load(args, os.Getenv)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}

	files, err := fileserver.New(cfg.PublicPath, log)
	if err != nil {
		return err
	}

	listener, err := transport.Listen(cfg.Transport, cfg.Address)
	if err != nil {
		return err
	}

	srv := server.New(listener, log)
	banner(cfg.Transport, srv.Addr(), files.PublicPath())

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-signals
		log.Informational("Received %s, shutting down", sig)
		if err := srv.Close(); err != nil {
			log.Error("Failed to close listener: %v", err)
		}
	}()

	return srv.Run(files)
}

func banner(kind, addr, public string) {
	title := color.New(color.FgGreen, color.Bold)
	title.Print("httpd")
	fmt.Print(" serving ")
	color.New(color.FgCyan).Print(public)
	fmt.Print(" on ")
	color.New(color.FgYellow).Printf("%s", addr)
	fmt.Printf(" (%s)\n", kind)
}
