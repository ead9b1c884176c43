package main

import (
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/peterh/liner"
	"github.com/tidwall/gjson"
	"github.com/ygmpkk/pointst/core"
	"golang.org/x/term"
)

var historyFile = filepath.Join(userHomeDir(), ".pointst_cli_history")

func userHomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}

var (
	hostname   = "127.0.0.1"
	output     = "json"
	port       = 9871
	oneCommand []string
	raw        bool
	noprompt   bool
	tty        bool
)

func showHelp() bool {
	gitsha := ""
	if core.GitSHA == "" || core.GitSHA == "0000000" {
		gitsha = ""
	} else {
		gitsha = " (git:" + core.GitSHA + ")"
	}
	fmt.Fprintf(os.Stdout, "pointst-cli %s%s\n\n", core.Version, gitsha)
	fmt.Fprintf(os.Stdout, "Usage: pointst-cli [OPTIONS] [cmd [arg [arg ...]]]\n")
	fmt.Fprintf(os.Stdout, " --raw              Use raw formatting for replies (default when STDOUT is not a tty)\n")
	fmt.Fprintf(os.Stdout, " --noprompt         Do not display a prompt\n")
	fmt.Fprintf(os.Stdout, " --tty              Force TTY\n")
	fmt.Fprintf(os.Stdout, " --resp             Use RESP output formatting (default is JSON output)\n")
	fmt.Fprintf(os.Stdout, " --json             Use JSON output formatting (default is JSON output)\n")
	fmt.Fprintf(os.Stdout, " -h <hostname>      Server hostname (default: %s)\n", hostname)
	fmt.Fprintf(os.Stdout, " -p <port>          Server port (default: %d)\n", port)
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
		case "--raw":
			raw = true
		case "--tty":
			tty = true
		case "--noprompt":
			noprompt = true
		case "--resp":
			output = "resp"
		case "--json":
			output = "json"
		case "-h":
			hostname = readArg(arg)
		case "-p":
			n, err := strconv.ParseUint(readArg(arg), 10, 16)
			if err != nil {
				return badArg(arg)
			}
			port = int(n)
		}
	}
	oneCommand = args
	return true
}

func refusedErrorString(addr string) string {
	return fmt.Sprintf("Could not connect to pointst at %s: Connection refused", addr)
}

func dial(addr string) (redis.Conn, error) {
	conn, err := redis.Dial("tcp", addr, redis.DialConnectTimeout(5*time.Second))
	if err != nil {
		return nil, err
	}
	if _, err := conn.Do("OUTPUT", output); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func render(reply interface{}) string {
	if output == "json" {
		return renderJSON(reply, raw)
	}
	if raw {
		return renderRaw(reply)
	}
	return renderRESP(reply, 0)
}

func main() {
	if !parseArgs() {
		return
	}
	if !raw && !tty {
		raw = !term.IsTerminal(int(os.Stdout.Fd()))
	}
	if len(oneCommand) > 0 && strings.EqualFold(oneCommand[0], "help") {
		showHelp()
		return
	}

	addr := net.JoinHostPort(hostname, strconv.Itoa(port))
	var conn redis.Conn
	connDial := func() {
		var err error
		conn, err = dial(addr)
		if err != nil {
			if _, ok := err.(net.Error); ok {
				fmt.Fprintln(os.Stderr, refusedErrorString(addr))
			} else {
				fmt.Fprintln(os.Stderr, err.Error())
				os.Exit(1)
			}
		}
	}
	connDial()
	defer func() {
		if conn != nil {
			conn.Close()
		}
	}()

	if len(oneCommand) > 0 {
		if conn == nil {
			os.Exit(1)
		}
		args := make([]interface{}, len(oneCommand)-1)
		for i, arg := range oneCommand[1:] {
			args[i] = arg
		}
		reply, err := conn.Do(oneCommand[0], args...)
		if err != nil {
			if rerr, ok := err.(redis.Error); ok {
				reply = rerr
			} else {
				fmt.Fprintln(os.Stderr, err.Error())
				os.Exit(1)
			}
		}
		fmt.Fprintln(os.Stdout, render(reply))
		return
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetMultiLineMode(false)
	line.SetCtrlCAborts(true)
	if !(noprompt && tty) {
		line.SetCompleter(complete)
	}
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyFile); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
		} else {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	for {
		var prompt string
		if !raw && !noprompt {
			prompt = addr + "> "
			if conn == nil {
				prompt = "not connected> "
			}
		}
		command, err := line.Prompt(prompt)
		if err == liner.ErrPromptAborted {
			return
		} else if err == io.EOF {
			return
		} else if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading line: %s", err.Error())
			return
		}
		nohist := strings.HasPrefix(command, " ")
		command = strings.TrimSpace(command)
		if command == "" {
			continue
		}
		if !nohist {
			line.AppendHistory(command)
		}
		args, err := splitArgs(command)
		if err != nil {
			fmt.Fprintln(os.Stderr, "(error) "+err.Error())
			continue
		}
		switch strings.ToLower(args[0]) {
		case "exit", "quit":
			return
		case "help":
			topic := strings.TrimSpace(command[4:])
			if topic == "" {
				fmt.Fprintf(os.Stderr, "pointst-cli %s (git:%s)\n", core.Version, core.GitSHA)
				fmt.Fprintf(os.Stderr, `Type:   "help @<group>" to get a list of commands in <group>`+"\n")
				fmt.Fprintf(os.Stderr, `        "help <command>" for help on <command>`+"\n")
				fmt.Fprintf(os.Stderr, `        "help <tab>" to get a list of possible help topics`+"\n")
				fmt.Fprintf(os.Stderr, `        "quit" to exit`+"\n")
			} else {
				fmt.Fprint(os.Stderr, helpText(topic))
			}
			continue
		}
		if conn == nil {
			connDial()
			if conn == nil {
				continue
			}
		}
		cargs := make([]interface{}, len(args)-1)
		for i, arg := range args[1:] {
			cargs[i] = arg
		}
		reply, err := conn.Do(args[0], cargs...)
		if err != nil {
			rerr, ok := err.(redis.Error)
			if !ok {
				fmt.Fprintln(os.Stderr, err.Error())
				conn.Close()
				conn = nil
				continue
			}
			reply = rerr
		}
		if strings.EqualFold(args[0], "output") && len(args) == 2 && err == nil {
			output = strings.ToLower(args[1])
		}
		if output == "json" && !raw {
			if data, ok := reply.([]byte); ok && !gjson.GetBytes(data, "ok").Bool() {
				fmt.Fprintln(os.Stderr, "(error) "+gjson.GetBytes(data, "err").String())
				continue
			}
		}
		fmt.Fprintln(os.Stdout, render(reply))
	}
}
