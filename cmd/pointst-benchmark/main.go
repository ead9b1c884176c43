package main

import (
	"fmt"
	"log"
	"math/rand"
	"net"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/tidwall/redbench"
	"github.com/tidwall/redcon"
	"github.com/ygmpkk/pointst/core"
)

var (
	hostname = "127.0.0.1"
	port     = 9871
	auth     = ""
	clients  = 50
	requests = 100000
	quiet    = false
	pipeline = 1
	csv      = false
	json     = false
	allTests = "PING,SET,GET,RANGE,NEAREST,KNN"
	tests    = allTests
	local    = false
	points   = 1000
	friends  = 10
	ticks    = 100
)

var addr string

func showHelp() bool {
	gitsha := ""
	if core.GitSHA == "" || core.GitSHA == "0000000" {
		gitsha = ""
	} else {
		gitsha = " (git:" + core.GitSHA + ")"
	}
	fmt.Fprintf(os.Stdout, "pointst-benchmark %s%s\n\n", core.Version, gitsha)
	fmt.Fprintf(os.Stdout, "Usage: pointst-benchmark [-h <host>] [-p <port>] [-c <clients>] [-n <requests>]\n")
	fmt.Fprintf(os.Stdout, "       pointst-benchmark --local [-N <points>] [-k <friends>] [-T <ticks>]\n\n")

	fmt.Fprintf(os.Stdout, " -h <hostname>      Server hostname (default: %s)\n", hostname)
	fmt.Fprintf(os.Stdout, " -p <port>          Server port (default: %d)\n", port)
	fmt.Fprintf(os.Stdout, " -a <password>      Password for AUTH\n")
	fmt.Fprintf(os.Stdout, " -c <clients>       Number of parallel connections (default %d)\n", clients)
	fmt.Fprintf(os.Stdout, " -n <requests>      Total number or requests (default %d)\n", requests)
	fmt.Fprintf(os.Stdout, " -q                 Quiet. Just show query/sec values\n")
	fmt.Fprintf(os.Stdout, " -P <numreq>        Pipeline <numreq> requests. Default 1 (no pipeline).\n")
	fmt.Fprintf(os.Stdout, " -t <tests>         Only run the comma separated list of tests. The test\n")
	fmt.Fprintf(os.Stdout, "                    names are the same as the ones produced as output.\n")
	fmt.Fprintf(os.Stdout, " --csv              Output in CSV format.\n")
	fmt.Fprintf(os.Stdout, " --json             Request JSON responses (default is RESP output)\n")
	fmt.Fprintf(os.Stdout, "\n")
	fmt.Fprintf(os.Stdout, " --local            Time in-process tables instead of a server\n")
	fmt.Fprintf(os.Stdout, " -N <points>        Moving points per table (default %d)\n", points)
	fmt.Fprintf(os.Stdout, " -k <friends>       Nearest neighbors per point per tick (default %d)\n", friends)
	fmt.Fprintf(os.Stdout, " -T <ticks>         Rebuild ticks (default %d)\n", ticks)
	fmt.Fprintf(os.Stdout, "\n")
	return false
}

func parseArgs() bool {
	defer func() {
		if v := recover(); v != nil {
			if v, ok := v.(string); ok && v == "bad arg" {
				showHelp()
			}
		}
	}()

	args := os.Args[1:]
	readArg := func(arg string) string {
		if len(args) == 0 {
			panic("bad arg")
		}
		var narg = args[0]
		args = args[1:]
		return narg
	}
	readIntArg := func(arg string) int {
		n, err := strconv.ParseUint(readArg(arg), 10, 64)
		if err != nil {
			panic("bad arg")
		}
		return int(n)
	}
	badArg := func(arg string) bool {
		fmt.Fprintf(os.Stderr, "Unrecognized option or bad number of args for: '%s'\n", arg)
		return false
	}

	for len(args) > 0 {
		arg := readArg("")
		if arg == "--help" || arg == "-?" {
			return showHelp()
		}
		if !strings.HasPrefix(arg, "-") {
			args = append([]string{arg}, args...)
			break
		}
		switch arg {
		default:
			return badArg(arg)
		case "-h":
			hostname = readArg(arg)
		case "-p":
			port = readIntArg(arg)
		case "-a":
			auth = readArg(arg)
		case "-c":
			clients = readIntArg(arg)
			if clients <= 0 {
				clients = 1
			}
		case "-n":
			requests = readIntArg(arg)
		case "-q":
			quiet = true
		case "-P":
			pipeline = readIntArg(arg)
			if pipeline <= 0 {
				pipeline = 1
			}
		case "-t":
			tests = readArg(arg)
		case "--csv":
			csv = true
		case "--json":
			json = true
		case "--local":
			local = true
		case "-N":
			points = readIntArg(arg)
		case "-k":
			friends = readIntArg(arg)
		case "-T":
			ticks = readIntArg(arg)
		}
	}
	return true
}

func fillOpts() *redbench.Options {
	opts := *redbench.DefaultOptions
	opts.CSV = csv
	opts.Clients = clients
	opts.Pipeline = pipeline
	opts.Quiet = quiet
	opts.Requests = requests
	opts.Stderr = os.Stderr
	opts.Stdout = os.Stdout
	return &opts
}

func randCoord() string {
	return strconv.FormatFloat(rand.Float64(), 'f', 6, 64)
}

func prepFn(conn net.Conn) bool {
	var resp [64]byte
	conn.Write([]byte("CONFIG GET requirepass\r\n"))
	n, err := conn.Read(resp[:])
	if err != nil {
		log.Fatal(err)
	}
	if string(resp[:n]) == "-ERR authentication required\r\n" {
		if auth == "" {
			log.Fatal("invalid auth")
		} else {
			cmd := redcon.AppendArray(nil, 2)
			cmd = redcon.AppendBulkString(cmd, "AUTH")
			cmd = redcon.AppendBulkString(cmd, auth)
			conn.Write(cmd)
			n, err := conn.Read(resp[:])
			if err != nil || string(resp[:n]) != "+OK\r\n" {
				log.Fatal("invalid auth")
			}
		}
	} else if auth != "" {
		log.Fatal("invalid auth")
	}
	if json {
		conn.Write([]byte("output json\r\n"))
		conn.Read(make([]byte, 64))
	}
	return true
}

func main() {
	rand.Seed(time.Now().UnixNano())
	if !parseArgs() {
		return
	}
	if local {
		runLocal(os.Stdout, points, friends, ticks)
		return
	}
	opts := fillOpts()
	addr = fmt.Sprintf("%s:%d", hostname, port)

	testsArr := strings.Split(allTests, ",")
	var subtract bool
	var add bool
	for _, test := range strings.Split(tests, ",") {
		if strings.HasPrefix(test, "-") {
			if add {
				os.Stderr.Write([]byte("test flag cannot mix add and subtract\n"))
				os.Exit(1)
			}
			subtract = true
			for i := range testsArr {
				if strings.EqualFold(testsArr[i], test[1:]) {
					testsArr = append(testsArr[:i], testsArr[i+1:]...)
					break
				}
			}
		} else if subtract {
			add = true
			os.Stderr.Write([]byte("test flag cannot mix add and subtract\n"))
			os.Exit(1)
		}
	}
	if !subtract {
		testsArr = strings.Split(tests, ",")
	}

	for _, test := range testsArr {
		switch strings.ToUpper(strings.TrimSpace(test)) {
		case "PING":
			redbench.Bench("PING", addr, opts, prepFn,
				func(buf []byte) []byte {
					return redbench.AppendCommand(buf, "PING")
				},
			)
		case "SET":
			var i int64
			redbench.Bench("SET", addr, opts, prepFn,
				func(buf []byte) []byte {
					i := atomic.AddInt64(&i, 1)
					return redbench.AppendCommand(buf, "SET", randCoord(), randCoord(),
						"id:"+strconv.FormatInt(i, 10))
				},
			)
		case "GET":
			redbench.Bench("GET", addr, opts, prepFn,
				func(buf []byte) []byte {
					return redbench.AppendCommand(buf, "GET", randCoord(), randCoord())
				},
			)
		case "RANGE":
			for _, side := range []float64{0.001, 0.01, 0.1} {
				side := side
				name := fmt.Sprintf("RANGE (side %s)", strconv.FormatFloat(side, 'f', -1, 64))
				redbench.Bench(name, addr, opts, prepFn,
					func(buf []byte) []byte {
						x, y := rand.Float64()*(1-side), rand.Float64()*(1-side)
						return redbench.AppendCommand(buf, "RANGE",
							strconv.FormatFloat(x, 'f', 6, 64),
							strconv.FormatFloat(y, 'f', 6, 64),
							strconv.FormatFloat(x+side, 'f', 6, 64),
							strconv.FormatFloat(y+side, 'f', 6, 64),
						)
					},
				)
			}
		case "NEAREST":
			redbench.Bench("NEAREST", addr, opts, prepFn,
				func(buf []byte) []byte {
					return redbench.AppendCommand(buf, "NEAREST", randCoord(), randCoord())
				},
			)
		case "KNN", "KNN-1", "KNN-10", "KNN-100":
			for _, k := range []string{"1", "10", "100"} {
				switch strings.ToUpper(strings.TrimSpace(test)) {
				case "KNN", "KNN-" + k:
					k := k
					redbench.Bench("NEAREST (k "+k+")", addr, opts, prepFn,
						func(buf []byte) []byte {
							return redbench.AppendCommand(buf, "NEAREST", randCoord(), randCoord(), k)
						},
					)
				}
			}
		}
	}
}
