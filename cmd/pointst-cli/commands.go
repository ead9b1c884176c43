package main

import (
	"fmt"
	"sort"
	"strings"
)

type command struct {
	Name    string
	Args    string
	Summary string
	Group   string
}

var commands = []command{
	{"SET", "x y value", "Store a value at a point, replacing any previous value", "table"},
	{"GET", "x y", "Get the value stored at a point", "table"},
	{"EXISTS", "x y", "Check whether a point is stored", "table"},
	{"SIZE", "", "Number of stored points", "table"},
	{"EMPTY", "", "Check whether no points are stored", "table"},
	{"FLUSHDB", "", "Remove all points", "table"},
	{"POINTS", "[LIMIT n]", "List stored points", "search"},
	{"RANGE", "minx miny maxx maxy [LIMIT n]", "List points inside a rectangle", "search"},
	{"NEAREST", "x y [k]", "Closest point, or the k closest points", "search"},
	{"STATS", "", "Point table statistics", "server"},
	{"SERVER", "", "Server statistics", "server"},
	{"CONFIG GET", "pattern", "Get config properties", "server"},
	{"CONFIG SET", "name value", "Set a config property", "server"},
	{"CONFIG REWRITE", "", "Save config properties to disk", "server"},
	{"CLIENT", "LIST | GETNAME | SETNAME name", "Manage client connections", "connection"},
	{"AUTH", "password", "Authenticate to the server", "connection"},
	{"OUTPUT", "json|resp", "Set the reply format", "connection"},
	{"PING", "[message]", "Ping the server", "connection"},
	{"QUIT", "", "Close the connection", "connection"},
}

func (c command) termOutput(indent string) string {
	line := c.Name
	if c.Args != "" {
		line += " " + c.Args
	}
	return fmt.Sprintf("\n%s%s\n%s  summary: %s\n%s  group: %s\n",
		indent, line, indent, c.Summary, indent, c.Group)
}

func commandNames() []string {
	var names []string
	for _, c := range commands {
		names = append(names, c.Name)
	}
	sort.Strings(names)
	return names
}

func groupNames() []string {
	seen := make(map[string]bool)
	var groups []string
	for _, c := range commands {
		if !seen[c.Group] {
			seen[c.Group] = true
			groups = append(groups, "@"+c.Group)
		}
	}
	sort.Strings(groups)
	return groups
}

// complete returns the command names, or help topics, that extend line.
func complete(line string) (c []string) {
	lower := strings.ToLower(line)
	if strings.HasPrefix(lower, "help ") {
		topic := strings.TrimSpace(line[5:])
		topics := commandNames()
		if topic == "" || topic[0] == '@' {
			topics = groupNames()
		}
		for _, t := range topics {
			if strings.HasPrefix(strings.ToLower(t), strings.ToLower(topic)) {
				c = append(c, line[:len(line)-len(topic)]+t)
			}
		}
		return c
	}
	for _, n := range commandNames() {
		if strings.HasPrefix(strings.ToLower(n), lower) {
			c = append(c, n)
		}
	}
	return c
}

// helpText returns help for a command or an @group.
func helpText(arg string) string {
	var b strings.Builder
	if strings.HasPrefix(arg, "@") {
		for _, c := range commands {
			if strings.EqualFold("@"+c.Group, arg) {
				b.WriteString(c.termOutput("  "))
			}
		}
		if b.Len() == 0 {
			b.WriteString("Groups: " + strings.Join(groupNames(), ", ") + "\n")
		}
		return b.String()
	}
	for _, c := range commands {
		if strings.EqualFold(c.Name, arg) {
			b.WriteString(c.termOutput("  "))
		}
	}
	return b.String()
}
