package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/MikhailWahib/kvs"
	"github.com/MikhailWahib/kvs/internal/server"
	"github.com/tidwall/match"
)

const defaultPath = "./data/data.kvs"

var errUsage = errors.New("usage")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 1
	}

	var err error
	switch args[0] {
	case "get":
		err = getCmd(args[1:], stdout)
	case "put":
		err = putCmd(args[1:])
	case "delete":
		err = deleteCmd(args[1:], stdout)
	case "keys":
		err = keysCmd(args[1:], stdout)
	case "dump":
		err = dumpCmd(args[1:], stdout)
	case "serve":
		err = serveCmd(args[1:])
	case "help":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", args[0])
		printUsage(stderr)
		return 1
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintf(stderr, "Error: %v\n", err)
		printUsage(stderr)
	case kvs.IsNotFound(err):
		fmt.Fprintln(stdout, "Key not found")
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return 1
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `kvs - append-only log key-value store

Usage:
  kvs <command> [options] [args]

Commands:
  get <key>         Print the value of a key
  put <key> <value> Set a key
  delete <key>      Remove a key and print its previous value
  keys [pattern]    List keys, optionally matching a glob pattern
  dump              Write the raw log to stdout
  serve             Serve the store over the Redis protocol
  help              Show this help

Options (all commands):
  -path string      Log file (default "./data/data.kvs")
  -config string    YAML config file

Examples:
  kvs put -path /tmp/db.kvs greeting hello
  kvs get -path /tmp/db.kvs greeting
  kvs serve -path /tmp/db.kvs -addr :6380`)
}

type commonFlags struct {
	fs     *flag.FlagSet
	path   *string
	config *string
}

func newFlags(name string) *commonFlags {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return &commonFlags{
		fs:     fs,
		path:   fs.String("path", defaultPath, "Log file"),
		config: fs.String("config", "", "YAML config file"),
	}
}

// parse parses args and checks the number of positional arguments.
func (c *commonFlags) parse(args []string, minArgs, maxArgs int) error {
	if err := c.fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if n := c.fs.NArg(); n < minArgs || n > maxArgs {
		return fmt.Errorf("%w: %s takes %d to %d arguments, got %d", errUsage, c.fs.Name(), minArgs, maxArgs, n)
	}
	return nil
}

func (c *commonFlags) loadConfig() (*kvs.Config, error) {
	if *c.config == "" {
		return kvs.DefaultConfig(), nil
	}
	return kvs.LoadConfig(*c.config)
}

func (c *commonFlags) open() (*kvs.Store, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	return kvs.Open(*c.path, cfg)
}

func getCmd(args []string, stdout io.Writer) error {
	c := newFlags("get")
	if err := c.parse(args, 1, 1); err != nil {
		return err
	}
	store, err := c.open()
	if err != nil {
		return err
	}
	defer store.Close()

	val, err := store.GetRaw(c.fs.Arg(0))
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, string(val))
	return nil
}

func putCmd(args []string) error {
	c := newFlags("put")
	if err := c.parse(args, 2, 2); err != nil {
		return err
	}
	store, err := c.open()
	if err != nil {
		return err
	}
	defer store.Close()

	return store.PutRaw(c.fs.Arg(0), []byte(c.fs.Arg(1)))
}

func deleteCmd(args []string, stdout io.Writer) error {
	c := newFlags("delete")
	if err := c.parse(args, 1, 1); err != nil {
		return err
	}
	store, err := c.open()
	if err != nil {
		return err
	}
	defer store.Close()

	prev, found, err := store.DeleteRaw(c.fs.Arg(0))
	if err != nil {
		return err
	}
	if !found {
		return kvs.ErrNotFound
	}
	fmt.Fprintln(stdout, string(prev))
	return nil
}

func keysCmd(args []string, stdout io.Writer) error {
	c := newFlags("keys")
	if err := c.parse(args, 0, 1); err != nil {
		return err
	}
	pattern := "*"
	if c.fs.NArg() == 1 {
		pattern = c.fs.Arg(0)
	}

	store, err := c.open()
	if err != nil {
		return err
	}
	defer store.Close()

	var keys []string
	for k := range store.Keys() {
		if match.Match(k, pattern) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintln(stdout, k)
	}
	return nil
}

func dumpCmd(args []string, stdout io.Writer) error {
	c := newFlags("dump")
	if err := c.parse(args, 0, 0); err != nil {
		return err
	}
	store, err := c.open()
	if err != nil {
		return err
	}
	defer store.Close()

	_, err = store.Dump(stdout)
	return err
}

func serveCmd(args []string) error {
	c := newFlags("serve")
	addr := c.fs.String("addr", "", "Listen address (default from config, :6380)")
	if err := c.parse(args, 0, 0); err != nil {
		return err
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if *addr == "" {
		*addr = cfg.ServerAddr
	}

	store, err := kvs.Open(*c.path, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	srv := server.New(store, *addr)

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Shutting down...")
		_ = srv.Close()
	}()

	return srv.ListenAndServe()
}
