package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"sync"
	"syscall"

	"github.com/ygmpkk/pointst/core"
	"github.com/ygmpkk/pointst/internal/log"
	"github.com/ygmpkk/pointst/internal/server"
	"github.com/ygmpkk/pointst/internal/table"
)

var (
	dir         string
	port        int
	host        string
	verbose     bool
	veryVerbose bool
	devMode     bool
	quiet       bool
	pidfile     string
)

func main() {
	gitsha := " (" + core.GitSHA + ")"
	if gitsha == " (0000000)" {
		gitsha = ""
	}
	versionLine := `pointst-server version: ` + core.Version + gitsha

	output := os.Stderr
	flag.Usage = func() {
		fmt.Fprintf(output,
			versionLine+`

Usage: pointst-server [-p port]

Basic Options:
  -h hostname : listening host
  -p port     : listening port (default: 9871)
  -d path     : data directory (default: data)
  -q          : no logging. totally silent output
  -v          : enable verbose logging
  -vv         : enable very verbose logging

Advanced Options:
  --pidfile path       : file that contains the pid
  --index kdtree/brute : point table implementation (default: kdtree)
  --metrics-addr addr  : serve prometheus metrics on addr, like :4321

Developer Options:
  --dev : enable developer mode

`,
		)
	}

	// parse non standard args.
	nargs := []string{os.Args[0]}
	for i := 1; i < len(os.Args); i++ {
		switch os.Args[i] {
		case "--help":
			output = os.Stdout
			flag.Usage()
			return
		case "--version":
			fmt.Fprintf(os.Stdout, "%s\n", versionLine)
			return
		case "--dev", "-dev":
			devMode = true
			continue
		case "--index", "-index":
			i++
			if i < len(os.Args) {
				if _, err := table.ParseKind(os.Args[i]); err == nil {
					core.IndexKind = os.Args[i]
					continue
				}
			}
			fmt.Fprintf(os.Stderr, "index must be 'kdtree' or 'brute'\n")
			os.Exit(1)
		case "--metrics-addr", "-metrics-addr":
			i++
			if i == len(os.Args) || os.Args[i] == "" {
				fmt.Fprintf(os.Stderr, "metrics-addr must have a value\n")
				os.Exit(1)
			}
			core.MetricsAddr = os.Args[i]
			continue
		}
		nargs = append(nargs, os.Args[i])
	}
	os.Args = nargs

	flag.IntVar(&port, "p", 9871, "The listening port.")
	flag.StringVar(&pidfile, "pidfile", "", "A file that contains the pid")
	flag.StringVar(&host, "h", "", "The listening host.")
	flag.StringVar(&dir, "d", "data", "The data directory.")
	flag.BoolVar(&verbose, "v", false, "Enable verbose logging.")
	flag.BoolVar(&quiet, "q", false, "Quiet logging. Totally silent.")
	flag.BoolVar(&veryVerbose, "vv", false, "Enable very verbose logging.")
	flag.Parse()

	var logw io.Writer = os.Stderr
	if quiet {
		logw = io.Discard
	}
	log.SetOutput(logw)
	if quiet {
		log.Level = 0
	} else if veryVerbose {
		log.Level = 3
	} else if verbose {
		log.Level = 2
	} else {
		log.Level = 1
	}
	core.DevMode = devMode

	hostd := ""
	if host != "" {
		hostd = "Addr: " + host + ", "
	}

	var cleanedup bool
	var cleanupMu sync.Mutex
	cleanup := func() {
		cleanupMu.Lock()
		defer cleanupMu.Unlock()
		if cleanedup {
			return
		}
		if pidfile != "" {
			os.Remove(pidfile)
		}
		cleanedup = true
	}
	defer cleanup()

	var pidferr error
	if pidfile != "" {
		pidferr = os.WriteFile(pidfile, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0666)
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		s := <-c
		log.Warnf("signal: %v", s)
		cleanup()
		switch {
		default:
			os.Exit(-1)
		case s == syscall.SIGHUP:
			os.Exit(1)
		case s == syscall.SIGINT:
			os.Exit(2)
		case s == syscall.SIGQUIT:
			os.Exit(3)
		case s == syscall.SIGTERM:
			os.Exit(0xf)
		}
	}()

	fmt.Fprintf(logw, `
     .     .
        .        pointst %s%s %d bit (%s/%s)
    .      .     %sPort: %d, PID: %d
       .    .    index: %s
`+"\n", core.Version, gitsha, strconv.IntSize, runtime.GOARCH, runtime.GOOS,
		hostd, port, os.Getpid(), core.IndexKind)
	if pidferr != nil {
		log.Warnf("pidfile: %v", pidferr)
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		log.Fatal(err)
	}
	kind, err := table.ParseKind(core.IndexKind)
	if err != nil {
		log.Fatal(err)
	}
	s, err := server.New(server.Options{Host: host, Port: port, Dir: dir, Index: kind})
	if err != nil {
		log.Fatal(err)
	}
	if core.MetricsAddr != "" {
		go func() {
			if err := s.ServeMetrics(core.MetricsAddr); err != nil {
				log.Fatal(err)
			}
		}()
	}
	log.Infof("Server started, pointst version %s, git %s", core.Version, core.GitSHA)
	if err := s.ListenAndServe(); err != nil {
		log.Fatal(err)
	}
}
